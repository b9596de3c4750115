package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/events"
	"github.com/techcollege/referral-service/internal/service"
)

const defaultHeartbeat = 25 * time.Second

// StreamHandler relays change-feed events to clients as Server-Sent Events.
type StreamHandler struct {
	feed      events.ChangeFeed
	referrals *service.ReferralService
	logger    *zap.Logger
	heartbeat time.Duration
}

// NewStreamHandler constructs handler. heartbeat <= 0 uses the default.
func NewStreamHandler(feed events.ChangeFeed, referrals *service.ReferralService, logger *zap.Logger, heartbeat time.Duration) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &StreamHandler{feed: feed, referrals: referrals, logger: logger, heartbeat: heartbeat}
}

// Stream handles GET /stream. Referral changes are only relayed to callers
// who can view the referral.
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	actor, err := currentStaff(c)
	if err != nil {
		return err
	}
	viewer := *actor

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := h.feed.Subscribe(ctx)
	if err != nil {
		cancel()
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		if err := writeEvent(w, "connected", fiber.Map{"staffId": viewer.ID, "time": time.Now().UTC()}); err != nil {
			return
		}
		for {
			select {
			case change, ok := <-changes:
				if !ok {
					return
				}
				if !h.visible(ctx, &viewer, change) {
					continue
				}
				if err := writeEvent(w, "change", change); err != nil {
					h.logger.Debug("stream client gone", zap.String("staff_id", viewer.ID), zap.Error(err))
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func (h *StreamHandler) visible(ctx context.Context, viewer *domain.Staff, change events.Change) bool {
	if change.Collection != events.CollectionReferrals || h.referrals == nil {
		return true
	}
	_, err := h.referrals.Get(ctx, viewer, change.ID)
	return err == nil
}

func writeEvent(w *bufio.Writer, name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, body); err != nil {
		return err
	}
	return w.Flush()
}
