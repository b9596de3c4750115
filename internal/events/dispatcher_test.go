package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDispatcherContinuesAfterFailure(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string

	d.Subscribe(EventReferralCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("fail")
	})
	d.Subscribe(EventReferralCreated, func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+e.ReferralID)
		return nil
	})
	d.Subscribe(EventStaffChanged, func(context.Context, Event) error {
		calls = append(calls, "staff")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventReferralCreated, ReferralID: "r1"}))
	assert.Equal(t, []string{"first", "second:r1"}, calls)
}

func TestMemoryFeed(t *testing.T) {
	feed := NewMemoryFeed()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := feed.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, feed.Publish(context.Background(), Change{Collection: CollectionReferrals, ID: "r1", Status: "Resolved"}))
	got := <-ch
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "Resolved", got.Status)

	cancel()
	_, open := <-ch
	assert.False(t, open)

	require.NoError(t, feed.Close())
	assert.Error(t, feed.Publish(context.Background(), Change{}))
	_, err = feed.Subscribe(context.Background())
	assert.Error(t, err)
}

func TestMemoryFeedDropsForSlowSubscribers(t *testing.T) {
	feed := NewMemoryFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := feed.Subscribe(ctx)
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+10; i++ {
		require.NoError(t, feed.Publish(context.Background(), Change{Collection: CollectionStaff}))
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestChannelName(t *testing.T) {
	assert.Equal(t, "referrals:changes", ChannelName(CollectionReferrals))
	assert.Equal(t, "staff:changes", ChannelName(CollectionStaff))
}
