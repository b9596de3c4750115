// Package worker hosts background pieces started and stopped by main.
package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/techcollege/referral-service/internal/service"
)

// Drainer waits for in-flight work to finish.
type Drainer interface {
	Wait()
}

// NotificationWorker subscribes notification handlers and drains pending
// deliveries on shutdown.
type NotificationWorker struct {
	service *service.NotificationService
	drainer Drainer
	logger  *zap.Logger
}

// NewNotificationWorker builds the worker. drainer may be nil.
func NewNotificationWorker(notificationService *service.NotificationService, drainer Drainer, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{service: notificationService, drainer: drainer, logger: logger}
}

// Start registers notification handlers.
func (w *NotificationWorker) Start() {
	if w == nil || w.service == nil {
		return
	}
	w.service.RegisterHandlers()
	w.logger.Info("notification worker started")
}

// Stop waits for scheduled deliveries until ctx expires.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	if w == nil || w.drainer == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		w.drainer.Wait()
		close(done)
	}()
	select {
	case <-done:
		w.logger.Info("notification worker drained")
		return nil
	case <-ctx.Done():
		w.logger.Warn("notification worker stopped before drain finished")
		return ctx.Err()
	}
}
