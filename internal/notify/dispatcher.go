package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/observability"
	apperrors "github.com/techcollege/referral-service/pkg/util/errorutil"
)

// Notification outcomes recorded in metrics.
const (
	OutcomeDelivered  = "delivered"
	OutcomeFallback   = "delivered_fallback"
	OutcomeFailed     = "failed"
	OutcomeNoHandle   = "no_handle"
	defaultAttemptTTL = 5 * time.Second
)

// Dispatcher fans a message out to recipients without blocking the caller.
type Dispatcher struct {
	primary  Gateway
	fallback Gateway
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
	wg       sync.WaitGroup
}

// DispatcherConfig wires gateways and limits. Fallback is optional.
type DispatcherConfig struct {
	Primary  Gateway
	Fallback Gateway
	Timeout  time.Duration
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// NewDispatcher builds a dispatcher. A nil primary gateway becomes a noop.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	primary := cfg.Primary
	if primary == nil {
		primary = NewNoopGateway(logger)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAttemptTTL
	}
	return &Dispatcher{
		primary:  primary,
		fallback: cfg.Fallback,
		timeout:  timeout,
		logger:   logger,
		metrics:  cfg.Metrics,
	}
}

// Dispatch schedules one delivery per reachable recipient and returns at once.
// Failures are logged and counted, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []domain.Staff, message string) {
	base := context.WithoutCancel(ctx)
	for _, recipient := range recipients {
		if !recipient.Reachable() {
			d.metrics.RecordNotification("none", OutcomeNoHandle)
			d.logger.Debug("recipient has no messaging handle", zap.String("staff_id", recipient.ID))
			continue
		}
		handle := strings.TrimSpace(recipient.MessagingHandle)
		staffID := recipient.ID
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.deliver(base, staffID, handle, message)
		}()
	}
}

// Wait blocks until every scheduled delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(base context.Context, staffID, handle, message string) {
	err := d.attempt(base, d.primary, handle, message)
	if err == nil {
		d.metrics.RecordNotification(d.primary.Name(), OutcomeDelivered)
		return
	}
	d.logger.Warn("notification attempt failed",
		zap.String("staff_id", staffID),
		zap.String("gateway", d.primary.Name()),
		zap.Error(apperrors.NewDeliveryError(d.primary.Name(), handle, err)))

	if d.fallback == nil {
		d.metrics.RecordNotification(d.primary.Name(), OutcomeFailed)
		return
	}
	if err := d.attempt(base, d.fallback, handle, message); err != nil {
		d.metrics.RecordNotification(d.fallback.Name(), OutcomeFailed)
		d.logger.Warn("notification fallback failed",
			zap.String("staff_id", staffID),
			zap.String("gateway", d.fallback.Name()),
			zap.Error(apperrors.NewDeliveryError(d.fallback.Name(), handle, err)))
		return
	}
	d.metrics.RecordNotification(d.fallback.Name(), OutcomeFallback)
}

func (d *Dispatcher) attempt(base context.Context, gw Gateway, handle, message string) (err error) {
	ctx, cancel := context.WithTimeout(base, d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewInternalError(nil)
			d.logger.Error("gateway panicked", zap.String("gateway", gw.Name()), zap.Any("panic", r))
		}
	}()
	return gw.Send(ctx, handle, message)
}
