package workflow

import "github.com/techcollege/referral-service/internal/domain"

// Action is a request to move a referral along its lifecycle.
type Action string

const (
	ActionCreate                             Action = "Create"
	ActionResolve                            Action = "Resolve"
	ActionEscalateToCounselor                Action = "EscalateToCounselor"
	ActionReturnWithResolution               Action = "ReturnWithResolution"
	ActionReturnWithEscalationRecommendation Action = "ReturnWithEscalationRecommendation"
	ActionClose                              Action = "Close"
	ActionEscalateToStudentAffairs           Action = "EscalateToStudentAffairs"
)

var actionLabels = map[Action]string{
	ActionCreate:                             "Created",
	ActionResolve:                            "Resolved",
	ActionEscalateToCounselor:                "EscalatedToCounselor",
	ActionReturnWithResolution:               "ReturnedWithResolution",
	ActionReturnWithEscalationRecommendation: "ReturnedWithEscalationRecommendation",
	ActionClose:                              "Closed",
	ActionEscalateToStudentAffairs:           "EscalatedToStudentAffairs",
}

var actionDisplay = map[Action]string{
	ActionCreate:                             "إنشاء الإحالة",
	ActionResolve:                            "حل المشكلة",
	ActionEscalateToCounselor:                "تحويل للمرشد",
	ActionReturnWithResolution:               "إعادة لرئيس القسم مع الحل",
	ActionReturnWithEscalationRecommendation: "إعادة لرئيس القسم مع توصية بالإحالة",
	ActionClose:                              "إغلاق الحالة",
	ActionEscalateToStudentAffairs:           "إحالة لشؤون المتدربين",
}

// Label is the timeline action recorded for this action.
func (a Action) Label() string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return string(a)
}

// DisplayName is the fixed UI label used in notifications.
func (a Action) DisplayName() string {
	if label, ok := actionDisplay[a]; ok {
		return label
	}
	return string(a)
}

// Signature names the signature flag a transition sets.
type Signature string

const (
	SignatureTrainer   Signature = "trainer"
	SignatureHOD       Signature = "hod"
	SignatureCounselor Signature = "counselor"
)

// Transition is one row of the fixed lifecycle table.
type Transition struct {
	From            domain.ReferralStatus
	Action          Action
	To              domain.ReferralStatus
	Requires        CapabilityKind
	Signs           Signature
	CommentRequired bool
}

var transitions = []Transition{
	{From: domain.StatusPendingHOD, Action: ActionResolve, To: domain.StatusResolved, Requires: CapabilityDepartmentHead, Signs: SignatureHOD, CommentRequired: true},
	{From: domain.StatusPendingHOD, Action: ActionEscalateToCounselor, To: domain.StatusPendingCounselor, Requires: CapabilityDepartmentHead, Signs: SignatureHOD, CommentRequired: true},
	{From: domain.StatusPendingCounselor, Action: ActionReturnWithResolution, To: domain.StatusReturnedToHOD, Requires: CapabilityCounselor, Signs: SignatureCounselor, CommentRequired: true},
	{From: domain.StatusPendingCounselor, Action: ActionReturnWithEscalationRecommendation, To: domain.StatusReturnedToHOD, Requires: CapabilityCounselor, Signs: SignatureCounselor, CommentRequired: true},
	{From: domain.StatusReturnedToHOD, Action: ActionClose, To: domain.StatusResolved, Requires: CapabilityDepartmentHead, Signs: SignatureHOD, CommentRequired: true},
	{From: domain.StatusReturnedToHOD, Action: ActionEscalateToStudentAffairs, To: domain.StatusToStudentAffairs, Requires: CapabilityDepartmentHead, Signs: SignatureHOD, CommentRequired: true},
}

// Transitions returns a copy of the lifecycle table.
func Transitions() []Transition {
	return append([]Transition(nil), transitions...)
}

// Lookup finds the row for an action taken from a status.
func Lookup(from domain.ReferralStatus, action Action) (Transition, bool) {
	for _, t := range transitions {
		if t.From == from && t.Action == action {
			return t, true
		}
	}
	return Transition{}, false
}

// ParseAction validates a client-supplied action name. Create is not a
// follow-up action and is rejected here.
func ParseAction(raw string) (Action, bool) {
	a := Action(raw)
	if a == ActionCreate {
		return "", false
	}
	_, ok := actionLabels[a]
	return a, ok
}

// required resolves the row's capability kind against a referral.
func (t Transition) required(referral *domain.Referral) Capability {
	switch t.Requires {
	case CapabilityDepartmentHead:
		return DepartmentHeadFor(referral.Specialization)
	case CapabilityCounselor:
		return Counselor
	default:
		return Trainer
	}
}
