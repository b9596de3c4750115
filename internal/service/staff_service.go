package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/techcollege/referral-service/internal/auth"
	"github.com/techcollege/referral-service/internal/config"
	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/events"
	"github.com/techcollege/referral-service/internal/repository"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// StaffService manages the staff directory.
type StaffService struct {
	staff           repository.StaffRepository
	referrals       repository.ReferralRepository
	dispatcher      events.Dispatcher
	feed            events.ChangeFeed
	logger          *zap.Logger
	bcryptCost      int
	defaultPassword string
	bootstrap       config.AuthConfig
}

// StaffDependencies encapsulates collaborators for staff management.
type StaffDependencies struct {
	StaffRepo    repository.StaffRepository
	ReferralRepo repository.ReferralRepository
	Dispatcher   events.Dispatcher
	Feed         events.ChangeFeed
	Logger       *zap.Logger
}

// StaffCreateInput describes a new directory entry. An empty password falls
// back to the configured default.
type StaffCreateInput struct {
	Name            string
	Username        string
	Password        string
	Role            domain.StaffRole
	Specialization  string
	IsCounselor     bool
	MessagingHandle string
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Role           *domain.StaffRole
	Specialization *string
	Counselor      *bool
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{
		staff:           deps.StaffRepo,
		referrals:       deps.ReferralRepo,
		dispatcher:      deps.Dispatcher,
		feed:            deps.Feed,
		logger:          logger,
		bcryptCost:      cfg.Auth.BcryptCost,
		defaultPassword: cfg.Auth.DefaultStaffPassword,
		bootstrap:       cfg.Auth,
	}
}

func requireDepartmentHead(actor *domain.Staff) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !actor.IsDepartmentHead() {
		return apperrors.NewForbidden("department head role required")
	}
	return nil
}

// EnsureBootstrap seeds the configured department head when the directory
// is empty. It returns the created record or nil.
func (s *StaffService) EnsureBootstrap(ctx context.Context) (*domain.Staff, error) {
	username := strings.TrimSpace(s.bootstrap.BootstrapUsername)
	if username == "" {
		return nil, nil
	}
	existing, err := s.staff.List(ctx, repository.StaffFilter{})
	if err != nil {
		return nil, storeError(err, "staff", "")
	}
	if len(existing) > 0 {
		return nil, nil
	}
	staff, err := s.create(ctx, StaffCreateInput{
		Name:           s.bootstrap.BootstrapName,
		Username:       username,
		Role:           domain.StaffRoleDepartmentHead,
		Specialization: s.bootstrap.BootstrapSpecialization,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("bootstrap department head created", zap.String("username", staff.Username))
	return staff, nil
}

// List returns the directory. Any authenticated staff may read it.
func (s *StaffService) List(ctx context.Context, actor *domain.Staff, filters StaffListFilters) ([]domain.Staff, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	list, err := s.staff.List(ctx, repository.StaffFilter{
		Role:           filters.Role,
		Specialization: filters.Specialization,
		Counselor:      filters.Counselor,
	})
	if err != nil {
		return nil, storeError(err, "staff", "")
	}
	return list, nil
}

// Get returns one directory entry.
func (s *StaffService) Get(ctx context.Context, id string) (*domain.Staff, error) {
	staff, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "staff", id)
	}
	return staff, nil
}

// Create adds a trainer or department head. Trainers without a
// specialization inherit the creating head's.
func (s *StaffService) Create(ctx context.Context, actor *domain.Staff, input StaffCreateInput) (*domain.Staff, error) {
	if err := requireDepartmentHead(actor); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.StaffRoleTrainer
	}
	if input.Role == domain.StaffRoleTrainer && strings.TrimSpace(input.Specialization) == "" {
		input.Specialization = actor.Specialization
	}
	staff, err := s.create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, actor, staff.ID, "created")
	return staff, nil
}

func (s *StaffService) create(ctx context.Context, input StaffCreateInput) (*domain.Staff, error) {
	staff := &domain.Staff{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(input.Name),
		Username:        strings.ToLower(strings.TrimSpace(input.Username)),
		Role:            input.Role,
		Specialization:  strings.TrimSpace(input.Specialization),
		IsCounselor:     input.IsCounselor,
		MessagingHandle: strings.TrimSpace(input.MessagingHandle),
	}
	if err := staff.Validate(); err != nil {
		return nil, err
	}

	password := input.Password
	if password == "" {
		password = s.defaultPassword
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	staff.PasswordHash = hash

	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, storeError(err, "staff", staff.ID)
	}
	return staff, nil
}

// SetCounselor sets or clears the counselor flag on a trainer.
func (s *StaffService) SetCounselor(ctx context.Context, actor *domain.Staff, id string, counselor bool) (*domain.Staff, error) {
	target, err := s.editableTrainer(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if target.IsCounselor == counselor {
		return target, nil
	}
	target.IsCounselor = counselor
	if err := s.staff.Update(ctx, target); err != nil {
		return nil, storeError(err, "staff", id)
	}
	s.announce(ctx, actor, target.ID, "counselor_changed")
	return target, nil
}

// ResetPassword restores a trainer's password to the configured default.
func (s *StaffService) ResetPassword(ctx context.Context, actor *domain.Staff, id string) error {
	target, err := s.editableTrainer(ctx, actor, id)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(s.defaultPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	target.PasswordHash = hash
	if err := s.staff.Update(ctx, target); err != nil {
		return storeError(err, "staff", id)
	}
	s.logger.Info("staff password reset", zap.String("staff_id", id), zap.String("by", actor.ID))
	return nil
}

// Delete removes a trainer who authored no open referrals.
func (s *StaffService) Delete(ctx context.Context, actor *domain.Staff, id string) error {
	target, err := s.editableTrainer(ctx, actor, id)
	if err != nil {
		return err
	}
	if s.referrals != nil {
		open, err := s.referrals.CountOpenByTrainer(ctx, target.ID)
		if err != nil {
			return storeError(err, "referral", "")
		}
		if open > 0 {
			return apperrors.NewConflict("staff member authored open referrals", map[string]any{"open_referrals": open})
		}
	}
	if err := s.staff.Delete(ctx, target.ID); err != nil {
		return storeError(err, "staff", id)
	}
	s.announce(ctx, actor, target.ID, "deleted")
	return nil
}

// SetMessagingHandle updates the caller's own Telegram chat id. An empty
// handle disables notifications for the caller.
func (s *StaffService) SetMessagingHandle(ctx context.Context, actor *domain.Staff, handle string) (*domain.Staff, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	self, err := s.staff.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, storeError(err, "staff", actor.ID)
	}
	self.MessagingHandle = strings.TrimSpace(handle)
	if err := s.staff.Update(ctx, self); err != nil {
		return nil, storeError(err, "staff", actor.ID)
	}
	s.announce(ctx, actor, self.ID, "handle_changed")
	return self, nil
}

func (s *StaffService) editableTrainer(ctx context.Context, actor *domain.Staff, id string) (*domain.Staff, error) {
	if err := requireDepartmentHead(actor); err != nil {
		return nil, err
	}
	if id == actor.ID {
		return nil, apperrors.NewForbidden("use the self-service endpoints for your own record")
	}
	target, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "staff", id)
	}
	if target.Role != domain.StaffRoleTrainer {
		return nil, apperrors.NewForbidden("only trainer records can be edited")
	}
	return target, nil
}

func (s *StaffService) announce(ctx context.Context, actor *domain.Staff, staffID, change string) {
	now := time.Now().UTC()
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventStaffChanged,
			Actor:     events.ActorFromStaff(actor),
			Timestamp: now,
			Payload:   events.StaffChangedPayload{StaffID: staffID, Change: change},
		})
	}
	if s.feed != nil {
		if err := s.feed.Publish(ctx, events.Change{Collection: events.CollectionStaff, ID: staffID, At: now}); err != nil {
			s.logger.Warn("publish staff change failed", zap.String("staff_id", staffID), zap.Error(err))
		}
	}
}

func validatePassword(password string) error {
	if len(strings.TrimSpace(password)) < 4 {
		return apperrors.NewValidationError("password too short", map[string]any{"password": "at least 4 characters"})
	}
	return nil
}
