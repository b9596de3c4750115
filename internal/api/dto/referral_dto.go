package dto

import (
	"time"

	"github.com/techcollege/referral-service/internal/domain"
)

// ReferralCreateRequest payload for POST /referrals.
type ReferralCreateRequest struct {
	TraineeName     string                 `json:"traineeName"`
	TrainingNumber  string                 `json:"trainingNumber"`
	Specialization  string                 `json:"specialization"`
	CaseDetails     string                 `json:"caseDetails"`
	CaseTypes       []domain.CaseType      `json:"caseTypes"`
	RepetitionLevel domain.RepetitionLevel `json:"repetitionLevel"`
	PreviousActions string                 `json:"previousActions"`
}

// ReferralActionRequest payload for POST /referrals/:id/actions.
type ReferralActionRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment"`
	Version *int   `json:"version"`
}

// AdvisoryRequest payload for PUT /referrals/:id/advisory.
type AdvisoryRequest struct {
	Text    string `json:"text"`
	Version *int   `json:"version"`
}

// ActionResponse describes one action the caller may take.
type ActionResponse struct {
	Action          string `json:"action"`
	Label           string `json:"label"`
	CommentRequired bool   `json:"commentRequired"`
}

// CaseTypeResponse pairs a case type with its label.
type CaseTypeResponse struct {
	Value domain.CaseType `json:"value"`
	Label string          `json:"label"`
}

// TimelineEventResponse is one audit entry.
type TimelineEventResponse struct {
	ID             string           `json:"id"`
	Timestamp      time.Time        `json:"timestamp"`
	ActorRole      domain.StaffRole `json:"actorRole"`
	ActorRoleLabel string           `json:"actorRoleLabel"`
	ActorName      string           `json:"actorName"`
	Action         string           `json:"action"`
	Comment        string           `json:"comment,omitempty"`
}

// ReferralResponse is the API view of a referral.
type ReferralResponse struct {
	ID               string                  `json:"id"`
	TraineeName      string                  `json:"traineeName"`
	TrainingNumber   string                  `json:"trainingNumber"`
	Specialization   string                  `json:"specialization"`
	TrainerID        string                  `json:"trainerId"`
	TrainerName      string                  `json:"trainerName"`
	Date             time.Time               `json:"date"`
	CaseDetails      string                  `json:"caseDetails"`
	CaseTypes        []CaseTypeResponse      `json:"caseTypes"`
	RepetitionLevel  domain.RepetitionLevel  `json:"repetitionLevel"`
	RepetitionLabel  string                  `json:"repetitionLabel"`
	PreviousActions  string                  `json:"previousActions"`
	Status           domain.ReferralStatus   `json:"status"`
	StatusLabel      string                  `json:"statusLabel"`
	Timeline         []TimelineEventResponse `json:"timeline"`
	TrainerSigned    bool                    `json:"trainerSigned"`
	HODSigned        bool                    `json:"hodSigned"`
	CounselorSigned  bool                    `json:"counselorSigned"`
	AIAdvisory       string                  `json:"aiAdvisory,omitempty"`
	Version          int                     `json:"version"`
	AvailableActions []ActionResponse        `json:"availableActions,omitempty"`
}

// NewReferralResponse converts a domain referral.
func NewReferralResponse(r *domain.Referral) ReferralResponse {
	caseTypes := make([]CaseTypeResponse, 0, len(r.CaseTypes))
	for _, c := range r.CaseTypes {
		caseTypes = append(caseTypes, CaseTypeResponse{Value: c, Label: c.DisplayName()})
	}
	timeline := make([]TimelineEventResponse, 0, len(r.Timeline))
	for _, ev := range r.Timeline {
		timeline = append(timeline, TimelineEventResponse{
			ID:             ev.ID,
			Timestamp:      ev.Timestamp,
			ActorRole:      ev.ActorRole,
			ActorRoleLabel: ev.ActorRole.DisplayName(),
			ActorName:      ev.ActorName,
			Action:         ev.Action,
			Comment:        ev.Comment,
		})
	}
	return ReferralResponse{
		ID:              r.ID,
		TraineeName:     r.TraineeName,
		TrainingNumber:  r.TrainingNumber,
		Specialization:  r.Specialization,
		TrainerID:       r.TrainerID,
		TrainerName:     r.TrainerName,
		Date:            r.Date,
		CaseDetails:     r.CaseDetails,
		CaseTypes:       caseTypes,
		RepetitionLevel: r.RepetitionLevel,
		RepetitionLabel: r.RepetitionLevel.DisplayName(),
		PreviousActions: r.PreviousActions,
		Status:          r.Status,
		StatusLabel:     r.Status.DisplayName(),
		Timeline:        timeline,
		TrainerSigned:   r.TrainerSigned,
		HODSigned:       r.HODSigned,
		CounselorSigned: r.CounselorSigned,
		AIAdvisory:      r.AIAdvisory,
		Version:         r.Version,
	}
}
