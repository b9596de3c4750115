package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/events"
	"github.com/techcollege/referral-service/internal/notify"
	"github.com/techcollege/referral-service/internal/repository"
	"github.com/techcollege/referral-service/internal/workflow"
)

// Sender is the part of notify.Dispatcher the service needs.
type Sender interface {
	Dispatch(ctx context.Context, recipients []domain.Staff, message string)
}

// NotificationService turns referral events into staff notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	staff      repository.StaffRepository
	sender     Sender
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, staff repository.StaffRepository, sender Sender, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		staff:      staff,
		sender:     sender,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReferralCreated, n.handleReferralCreated)
	n.dispatcher.Subscribe(events.EventReferralTransitioned, n.handleReferralTransitioned)
}

func (n *NotificationService) handleReferralCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReferralCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.notify(ctx, event.Actor, &payload.Referral, workflow.ActionCreate, payload.Referral.Status, "")
}

func (n *NotificationService) handleReferralTransitioned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReferralTransitionedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.notify(ctx, event.Actor, &payload.Referral, workflow.Action(payload.Action), payload.NewStatus, payload.Comment)
}

func (n *NotificationService) notify(ctx context.Context, actor events.Actor, referral *domain.Referral, action workflow.Action, status domain.ReferralStatus, comment string) error {
	if n.sender == nil {
		return nil
	}
	directory, err := n.staff.List(ctx, repository.StaffFilter{})
	if err != nil {
		return fmt.Errorf("load staff directory: %w", err)
	}

	acting := &domain.Staff{ID: actor.StaffID, Name: actor.Name, Role: actor.Role}
	recipients := notify.ResolveRecipients(referral, status, acting, directory)
	if len(recipients) == 0 {
		n.logger.Debug("no recipients for referral change", zap.String("referral_id", referral.ID))
		return nil
	}

	message := notify.FormatReferralMessage(notify.MessageInput{
		Action:      action.DisplayName(),
		TraineeName: referral.TraineeName,
		Status:      status.DisplayName(),
		ActorName:   actor.Name,
		Comment:     comment,
	})
	n.sender.Dispatch(ctx, recipients, message)
	n.logger.Debug("notifications scheduled",
		zap.String("referral_id", referral.ID),
		zap.String("action", string(action)),
		zap.Int("recipients", len(recipients)))
	return nil
}
