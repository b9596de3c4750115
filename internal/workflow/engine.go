package workflow

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/techcollege/referral-service/internal/domain"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// Engine applies the lifecycle table. It holds no referral state.
type Engine struct {
	requireComments bool
	newID           func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithRequireComments toggles the comment rule for follow-up transitions.
func WithRequireComments(required bool) Option {
	return func(e *Engine) { e.requireComments = required }
}

// WithIDGenerator overrides id generation for referrals and timeline events.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// NewEngine builds an engine. Comments are required by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{requireComments: true, newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateInput carries the trainer-authored part of a referral.
type CreateInput struct {
	TraineeName     string
	TrainingNumber  string
	Specialization  string
	CaseDetails     string
	CaseTypes       []domain.CaseType
	RepetitionLevel domain.RepetitionLevel
	PreviousActions string
}

// CreateReferral opens a new case in PendingHOD signed by the trainer.
func (e *Engine) CreateReferral(trainer *domain.Staff, input CreateInput, now time.Time) (*domain.Referral, error) {
	if trainer == nil || strings.TrimSpace(trainer.ID) == "" {
		return nil, apperrors.NewAuthorizationError("trainer required", nil)
	}

	details := map[string]any{}
	traineeName := strings.TrimSpace(input.TraineeName)
	trainingNumber := strings.TrimSpace(input.TrainingNumber)
	specialization := strings.TrimSpace(input.Specialization)
	if traineeName == "" {
		details["traineeName"] = "required"
	}
	if trainingNumber == "" {
		details["trainingNumber"] = "required"
	}
	if specialization == "" {
		details["specialization"] = "required"
	}
	caseTypes, unknown := domain.NormalizeCaseTypes(input.CaseTypes)
	if len(unknown) > 0 {
		details["caseTypes"] = "unknown case type"
	} else if len(caseTypes) == 0 {
		details["caseTypes"] = "at least one case type required"
	}
	repetition := input.RepetitionLevel
	if repetition == "" {
		repetition = domain.RepetitionFirst
	}
	if !repetition.Valid() {
		details["repetitionLevel"] = "unknown repetition level"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("referral is incomplete", details)
	}

	referral := &domain.Referral{
		ID:              e.newID(),
		TraineeName:     traineeName,
		TrainingNumber:  trainingNumber,
		Specialization:  specialization,
		TrainerID:       trainer.ID,
		TrainerName:     trainer.Name,
		Date:            now,
		CaseDetails:     strings.TrimSpace(input.CaseDetails),
		CaseTypes:       caseTypes,
		RepetitionLevel: repetition,
		PreviousActions: strings.TrimSpace(input.PreviousActions),
		Status:          domain.StatusPendingHOD,
		TrainerSigned:   true,
		Version:         0,
	}
	referral.Timeline = []domain.TimelineEvent{e.event(trainer, ActionCreate, "", now)}
	return referral, nil
}

// ApplyAction validates and performs one transition, returning a new referral.
// The input is left untouched on both success and failure.
func (e *Engine) ApplyAction(referral *domain.Referral, actor *domain.Staff, action Action, comment string, now time.Time) (*domain.Referral, error) {
	if referral == nil {
		return nil, apperrors.NewValidationError("referral required", nil)
	}
	if referral.Status.Terminal() {
		return nil, apperrors.NewTerminalStateError(string(referral.Status))
	}
	row, ok := Lookup(referral.Status, action)
	if !ok {
		return nil, apperrors.NewInvalidTransition(string(referral.Status), string(action))
	}
	if actor == nil {
		return nil, apperrors.NewAuthorizationError("actor required", nil)
	}

	caps := EffectiveCapabilities(actor)
	if !caps.Has(row.required(referral)) {
		return nil, apperrors.NewAuthorizationError("not permitted to perform this action", map[string]any{
			"action":         string(action),
			"status":         string(referral.Status),
			"requires":       string(row.Requires),
			"specialization": referral.Specialization,
		})
	}

	comment = strings.TrimSpace(comment)
	if e.requireComments && row.CommentRequired && comment == "" {
		return nil, apperrors.NewValidationError("comment required", map[string]any{"comment": "required"})
	}

	next := referral.Clone()
	next.Status = row.To
	switch row.Signs {
	case SignatureHOD:
		next.HODSigned = true
	case SignatureCounselor:
		next.CounselorSigned = true
	}
	if caps.Has(DepartmentHeadFor(referral.Specialization)) && caps.Has(Counselor) {
		next.HODSigned = true
		next.CounselorSigned = true
	}
	next.Timeline = append(next.Timeline, e.event(actor, action, comment, now))
	return next, nil
}

// AttachAdvisory records the one-off recommendation text on a referral.
func (e *Engine) AttachAdvisory(referral *domain.Referral, text string) (*domain.Referral, error) {
	if referral == nil {
		return nil, apperrors.NewValidationError("referral required", nil)
	}
	if referral.Status.Terminal() {
		return nil, apperrors.NewTerminalStateError(string(referral.Status))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("advisory text required", nil)
	}
	if referral.AIAdvisory != "" {
		return nil, apperrors.NewConflict("advisory already attached", map[string]any{"id": referral.ID})
	}
	next := referral.Clone()
	next.AIAdvisory = text
	return next, nil
}

// AvailableActions lists the actions the actor may take on the referral now.
// Comment requirements are not considered.
func (e *Engine) AvailableActions(referral *domain.Referral, actor *domain.Staff) []Action {
	if referral == nil || actor == nil || referral.Status.Terminal() {
		return nil
	}
	caps := EffectiveCapabilities(actor)
	var out []Action
	for _, row := range transitions {
		if row.From == referral.Status && caps.Has(row.required(referral)) {
			out = append(out, row.Action)
		}
	}
	return out
}

// CommentRequired reports whether the action needs a comment under this engine.
func (e *Engine) CommentRequired(from domain.ReferralStatus, action Action) bool {
	row, ok := Lookup(from, action)
	return ok && e.requireComments && row.CommentRequired
}

func (e *Engine) event(actor *domain.Staff, action Action, comment string, now time.Time) domain.TimelineEvent {
	return domain.TimelineEvent{
		ID:        e.newID(),
		Timestamp: now,
		ActorRole: actor.Role,
		ActorName: actor.Name,
		Action:    action.Label(),
		Comment:   comment,
	}
}
