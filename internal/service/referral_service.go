package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/events"
	"github.com/techcollege/referral-service/internal/observability"
	"github.com/techcollege/referral-service/internal/repository"
	"github.com/techcollege/referral-service/internal/workflow"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// ReferralService coordinates referral workflows: it loads snapshots, runs
// the engine, persists with an expected version and announces the change.
type ReferralService struct {
	referrals  repository.ReferralRepository
	trainees   repository.TraineeRepository
	engine     *workflow.Engine
	dispatcher events.Dispatcher
	feed       events.ChangeFeed
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// ReferralDependencies bundles collaborators for the referral service.
type ReferralDependencies struct {
	ReferralRepo repository.ReferralRepository
	TraineeRepo  repository.TraineeRepository
	Engine       *workflow.Engine
	Dispatcher   events.Dispatcher
	Feed         events.ChangeFeed
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	Clock        func() time.Time
}

// ReferralListFilter narrows the visible listing.
type ReferralListFilter struct {
	Status *domain.ReferralStatus
}

// ReferralView pairs a referral with the actions its reader may take.
type ReferralView struct {
	Referral         *domain.Referral
	AvailableActions []workflow.Action
}

// NewReferralService constructs the service.
func NewReferralService(deps ReferralDependencies) *ReferralService {
	engine := deps.Engine
	if engine == nil {
		engine = workflow.NewEngine()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ReferralService{
		referrals:  deps.ReferralRepo,
		trainees:   deps.TraineeRepo,
		engine:     engine,
		dispatcher: deps.Dispatcher,
		feed:       deps.Feed,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clock,
	}
}

// Create opens a referral authored by actor. When the training number is a
// known trainee, missing name and specialization are taken from the record.
func (s *ReferralService) Create(ctx context.Context, actor *domain.Staff, input workflow.CreateInput) (*domain.Referral, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	s.fillFromTrainee(ctx, &input)

	referral, err := s.engine.CreateReferral(actor, input, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.referrals.Create(ctx, referral); err != nil {
		return nil, storeError(err, "referral", referral.ID)
	}

	s.metrics.RecordTransition(string(workflow.ActionCreate), string(referral.Status))
	s.publishEvent(ctx, events.Event{
		Type:       events.EventReferralCreated,
		ReferralID: referral.ID,
		Actor:      events.ActorFromStaff(actor),
		Payload:    events.ReferralCreatedPayload{Referral: *referral.Clone()},
	})
	s.publishChange(ctx, referral)
	return referral, nil
}

func (s *ReferralService) fillFromTrainee(ctx context.Context, input *workflow.CreateInput) {
	number := strings.TrimSpace(input.TrainingNumber)
	if s.trainees == nil || number == "" {
		return
	}
	if strings.TrimSpace(input.TraineeName) != "" && strings.TrimSpace(input.Specialization) != "" {
		return
	}
	trainee, err := s.trainees.GetByTrainingNumber(ctx, number)
	if err != nil {
		return
	}
	if strings.TrimSpace(input.TraineeName) == "" {
		input.TraineeName = trainee.Name
	}
	if strings.TrimSpace(input.Specialization) == "" {
		input.Specialization = trainee.Specialization
	}
}

// ApplyAction runs one workflow action. expectedVersion, when non-nil, must
// match the stored version or the call fails with STALE_VERSION.
func (s *ReferralService) ApplyAction(ctx context.Context, actor *domain.Staff, id, rawAction, comment string, expectedVersion *int) (*domain.Referral, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	action, ok := workflow.ParseAction(rawAction)
	if !ok {
		return nil, apperrors.NewValidationError("unknown action", map[string]any{"action": rawAction})
	}

	current, err := s.referrals.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "referral", id)
	}
	if expectedVersion != nil && *expectedVersion != current.Version {
		return nil, apperrors.NewStaleVersion(id, *expectedVersion, current.Version)
	}

	next, err := s.engine.ApplyAction(current, actor, action, comment, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.referrals.Update(ctx, next, current.Version); err != nil {
		return nil, storeError(err, "referral", id)
	}

	s.metrics.RecordTransition(string(action), string(next.Status))
	s.logger.Info("referral transitioned",
		zap.String("referral_id", next.ID),
		zap.String("action", string(action)),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
		zap.String("staff_id", actor.ID))

	last, _ := next.LastEvent()
	s.publishEvent(ctx, events.Event{
		Type:       events.EventReferralTransitioned,
		ReferralID: next.ID,
		Actor:      events.ActorFromStaff(actor),
		Payload: events.ReferralTransitionedPayload{
			Action:    string(action),
			OldStatus: current.Status,
			NewStatus: next.Status,
			Comment:   last.Comment,
			Referral:  *next.Clone(),
		},
	})
	s.publishChange(ctx, next)
	return next, nil
}

// AttachAdvisory stores advisory text on a referral the actor can see.
func (s *ReferralService) AttachAdvisory(ctx context.Context, actor *domain.Staff, id, text string, expectedVersion *int) (*domain.Referral, error) {
	current, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && *expectedVersion != current.Version {
		return nil, apperrors.NewStaleVersion(id, *expectedVersion, current.Version)
	}

	next, err := s.engine.AttachAdvisory(current, text)
	if err != nil {
		return nil, err
	}
	if err := s.referrals.Update(ctx, next, current.Version); err != nil {
		return nil, storeError(err, "referral", id)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventAdvisoryAttached,
		ReferralID: next.ID,
		Actor:      events.ActorFromStaff(actor),
	})
	s.publishChange(ctx, next)
	return next, nil
}

// Get returns a visible referral with the actions actor may take on it.
func (s *ReferralService) Get(ctx context.Context, actor *domain.Staff, id string) (*ReferralView, error) {
	referral, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &ReferralView{
		Referral:         referral,
		AvailableActions: s.engine.AvailableActions(referral, actor),
	}, nil
}

// List returns the referrals actor can see, newest first.
func (s *ReferralService) List(ctx context.Context, actor *domain.Staff, filter ReferralListFilter) ([]domain.Referral, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(*filter.Status)})
	}
	all, err := s.referrals.List(ctx, repository.ReferralFilter{Status: filter.Status})
	if err != nil {
		return nil, storeError(err, "referral", "")
	}
	visible := make([]domain.Referral, 0, len(all))
	for i := range all {
		if CanView(actor, &all[i]) {
			visible = append(visible, all[i])
		}
	}
	return visible, nil
}

// AvailableActions lists what actor may do next on referral.
func (s *ReferralService) AvailableActions(referral *domain.Referral, actor *domain.Staff) []workflow.Action {
	return s.engine.AvailableActions(referral, actor)
}

// CommentRequired exposes the comment rule so handlers can describe forms.
func (s *ReferralService) CommentRequired(from domain.ReferralStatus, action workflow.Action) bool {
	return s.engine.CommentRequired(from, action)
}

func (s *ReferralService) load(ctx context.Context, actor *domain.Staff, id string) (*domain.Referral, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	referral, err := s.referrals.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "referral", id)
	}
	if !CanView(actor, referral) {
		return nil, apperrors.NewAuthorizationError("referral not visible to caller", map[string]any{"id": id})
	}
	return referral, nil
}

func (s *ReferralService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func (s *ReferralService) publishChange(ctx context.Context, referral *domain.Referral) {
	if s.feed == nil {
		return
	}
	change := events.Change{
		Collection: events.CollectionReferrals,
		ID:         referral.ID,
		Status:     string(referral.Status),
		Version:    referral.Version,
		At:         s.now().UTC(),
	}
	if err := s.feed.Publish(ctx, change); err != nil {
		s.logger.Warn("publish change failed", zap.String("referral_id", referral.ID), zap.Error(err))
		return
	}
	s.metrics.RecordFeedEvent(events.CollectionReferrals)
}
