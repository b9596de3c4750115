package domain

import "time"

// ReferralStatus enumerates lifecycle states for referrals.
type ReferralStatus string

const (
	StatusPendingHOD       ReferralStatus = "PendingHOD"
	StatusPendingCounselor ReferralStatus = "PendingCounselor"
	StatusReturnedToHOD    ReferralStatus = "ReturnedToHOD"
	StatusResolved         ReferralStatus = "Resolved"
	StatusToStudentAffairs ReferralStatus = "ToStudentAffairs"
)

var statusDisplay = map[ReferralStatus]string{
	StatusPendingHOD:       "بانتظار رئيس القسم",
	StatusPendingCounselor: "بانتظار المرشد",
	StatusReturnedToHOD:    "عاد لرئيس القسم",
	StatusResolved:         "تم الحل",
	StatusToStudentAffairs: "محال لشؤون المتدربين",
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []ReferralStatus {
	return []ReferralStatus{
		StatusPendingHOD,
		StatusPendingCounselor,
		StatusReturnedToHOD,
		StatusResolved,
		StatusToStudentAffairs,
	}
}

// Valid reports whether the status is one of the five known values.
func (s ReferralStatus) Valid() bool {
	_, ok := statusDisplay[s]
	return ok
}

// Terminal reports whether no further transition is permitted.
func (s ReferralStatus) Terminal() bool {
	return s == StatusResolved || s == StatusToStudentAffairs
}

// DisplayName returns the fixed UI label.
func (s ReferralStatus) DisplayName() string {
	if label, ok := statusDisplay[s]; ok {
		return label
	}
	return string(s)
}

// CaseType classifies the reported problem.
type CaseType string

const (
	CaseBehavior             CaseType = "Behavior"
	CaseLowPerformance       CaseType = "LowPerformance"
	CaseLearningDifficulties CaseType = "LearningDifficulties"
	CaseHighAbsence          CaseType = "HighAbsence"
	CaseCourseBan            CaseType = "CourseBan"
	CaseExamAbsence          CaseType = "ExamAbsence"
	CaseOther                CaseType = "Other"
)

var caseTypeOrder = []CaseType{
	CaseBehavior,
	CaseLowPerformance,
	CaseLearningDifficulties,
	CaseHighAbsence,
	CaseCourseBan,
	CaseExamAbsence,
	CaseOther,
}

var caseTypeDisplay = map[CaseType]string{
	CaseBehavior:             "مخالفة قواعد تنظيم السلوك والمواظبة",
	CaseLowPerformance:       "انخفاض المستوى التدريبي",
	CaseLearningDifficulties: "صعوبات تعلم",
	CaseHighAbsence:          "ارتفاع نسبة الغياب في المقرر",
	CaseCourseBan:            "حرمان في المقرر",
	CaseExamAbsence:          "غياب في الاختبار الفصلي",
	CaseOther:                "غير ذلك",
}

// Valid reports whether the case type is known.
func (c CaseType) Valid() bool {
	_, ok := caseTypeDisplay[c]
	return ok
}

// DisplayName returns the fixed UI label.
func (c CaseType) DisplayName() string {
	if label, ok := caseTypeDisplay[c]; ok {
		return label
	}
	return string(c)
}

// NormalizeCaseTypes de-duplicates and orders case types canonically.
// Unknown values are returned separately.
func NormalizeCaseTypes(in []CaseType) (known []CaseType, unknown []CaseType) {
	seen := make(map[CaseType]bool, len(in))
	for _, c := range in {
		if !c.Valid() {
			unknown = append(unknown, c)
			continue
		}
		seen[c] = true
	}
	for _, c := range caseTypeOrder {
		if seen[c] {
			known = append(known, c)
		}
	}
	return known, unknown
}

// RepetitionLevel records how often the case has occurred.
type RepetitionLevel string

const (
	RepetitionFirst    RepetitionLevel = "First"
	RepetitionSecond   RepetitionLevel = "Second"
	RepetitionFrequent RepetitionLevel = "Frequent"
)

// Valid reports whether the level is known.
func (r RepetitionLevel) Valid() bool {
	return r == RepetitionFirst || r == RepetitionSecond || r == RepetitionFrequent
}

// DisplayName returns the fixed UI label.
func (r RepetitionLevel) DisplayName() string {
	switch r {
	case RepetitionFirst:
		return "المرة الأولى"
	case RepetitionSecond:
		return "المرة الثانية"
	case RepetitionFrequent:
		return "دائم التكرار"
	default:
		return string(r)
	}
}

// TimelineEvent is an immutable audit entry on a referral.
type TimelineEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorRole StaffRole `json:"actorRole"`
	ActorName string    `json:"actorName"`
	Action    string    `json:"action"`
	Comment   string    `json:"comment,omitempty"`
}

// Referral is the aggregate for one tracked trainee case.
type Referral struct {
	ID              string          `json:"id"`
	TraineeName     string          `json:"traineeName"`
	TrainingNumber  string          `json:"trainingNumber"`
	Specialization  string          `json:"specialization"`
	TrainerID       string          `json:"trainerId"`
	TrainerName     string          `json:"trainerName"`
	Date            time.Time       `json:"date"`
	CaseDetails     string          `json:"caseDetails"`
	CaseTypes       []CaseType      `json:"caseTypes"`
	RepetitionLevel RepetitionLevel `json:"repetitionLevel"`
	PreviousActions string          `json:"previousActions"`
	Status          ReferralStatus  `json:"status"`
	Timeline        []TimelineEvent `json:"timeline"`
	TrainerSigned   bool            `json:"trainerSigned"`
	HODSigned       bool            `json:"hodSigned"`
	CounselorSigned bool            `json:"counselorSigned"`
	AIAdvisory      string          `json:"aiAdvisory,omitempty"`
	Version         int             `json:"version"`
}

// Clone returns a deep copy so callers can transform without aliasing.
func (r *Referral) Clone() *Referral {
	if r == nil {
		return nil
	}
	out := *r
	out.CaseTypes = append([]CaseType(nil), r.CaseTypes...)
	out.Timeline = append([]TimelineEvent(nil), r.Timeline...)
	return &out
}

// LastEvent returns the most recent timeline entry.
func (r *Referral) LastEvent() (TimelineEvent, bool) {
	if r == nil || len(r.Timeline) == 0 {
		return TimelineEvent{}, false
	}
	return r.Timeline[len(r.Timeline)-1], true
}
