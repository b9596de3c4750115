package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/techcollege/referral-service/internal/domain"
	"github.com/techcollege/referral-service/internal/observability"
)

type fakeGateway struct {
	name  string
	mu    sync.Mutex
	sent  map[string]string
	fail  map[string]bool
	block time.Duration
}

func newFakeGateway(name string, failing ...string) *fakeGateway {
	g := &fakeGateway{name: name, sent: map[string]string{}, fail: map[string]bool{}}
	for _, h := range failing {
		g.fail[h] = true
	}
	return g
}

func (g *fakeGateway) Name() string { return g.name }

func (g *fakeGateway) Send(ctx context.Context, handle, message string) error {
	if g.block > 0 {
		select {
		case <-time.After(g.block):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if g.fail[handle] {
		return errors.New("boom")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent[handle] = message
	return nil
}

func (g *fakeGateway) delivered() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]string, len(g.sent))
	for k, v := range g.sent {
		out[k] = v
	}
	return out
}

func TestDispatcherIsolatesFailures(t *testing.T) {
	primary := newFakeGateway("primary", "bad")
	metrics := observability.NewMetrics()
	d := NewDispatcher(DispatcherConfig{Primary: primary, Timeout: time.Second, Metrics: metrics})

	d.Dispatch(context.Background(), []domain.Staff{
		{ID: "a", MessagingHandle: "good"},
		{ID: "b", MessagingHandle: "bad"},
		{ID: "c", MessagingHandle: "  "},
		{ID: "d", MessagingHandle: "other"},
	}, "msg")
	d.Wait()

	assert.Equal(t, map[string]string{"good": "msg", "other": "msg"}, primary.delivered())
	series, err := testutil.GatherAndCount(metrics.Registry(), "referral_notifications_total")
	assert.NoError(t, err)
	// primary/delivered, primary/failed, none/no_handle
	assert.Equal(t, 3, series)
}

func TestDispatcherFallsBack(t *testing.T) {
	primary := newFakeGateway("primary", "x")
	fallback := newFakeGateway("fallback")
	d := NewDispatcher(DispatcherConfig{Primary: primary, Fallback: fallback, Timeout: time.Second})

	d.Dispatch(context.Background(), []domain.Staff{{ID: "a", MessagingHandle: "x"}}, "hello")
	d.Wait()

	assert.Empty(t, primary.delivered())
	assert.Equal(t, map[string]string{"x": "hello"}, fallback.delivered())
}

func TestDispatcherReturnsBeforeDelivery(t *testing.T) {
	slow := newFakeGateway("slow")
	slow.block = 200 * time.Millisecond
	d := NewDispatcher(DispatcherConfig{Primary: slow, Timeout: time.Second})

	start := time.Now()
	d.Dispatch(context.Background(), []domain.Staff{{ID: "a", MessagingHandle: "1"}}, "m")
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	d.Wait()
	assert.Len(t, slow.delivered(), 1)
}

func TestDispatcherBoundsEachAttempt(t *testing.T) {
	slow := newFakeGateway("slow")
	slow.block = time.Second
	d := NewDispatcher(DispatcherConfig{Primary: slow, Timeout: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, []domain.Staff{{ID: "a", MessagingHandle: "1"}}, "m")
	cancel()

	done := make(chan struct{})
	go func() { d.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("dispatch did not respect the attempt timeout")
	}
	assert.Empty(t, slow.delivered())
}
