package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversToTenantOnly(t *testing.T) {
	hub := NewHub(4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := hub.Subscribe(ctx, "tenant1")
	b := hub.Subscribe(ctx, "tenant2")

	require.NoError(t, hub.Broadcast(ctx, activity.Event{ID: "e1", TenantID: "tenant1"}))

	select {
	case ev := <-a.Events():
		require.Equal(t, "e1", ev.ID)
	case <-time.After(time.Second):
		t.Fatal("tenant1 subscriber did not receive event")
	}

	select {
	case ev := <-b.Events():
		t.Fatalf("tenant2 subscriber received %s", ev.ID)
	default:
	}
}

func TestHub_DropsWhenBufferFull(t *testing.T) {
	hub := NewHub(2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := hub.Subscribe(ctx, "tenant1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = hub.Broadcast(ctx, activity.Event{ID: fmt.Sprintf("e%d", i), TenantID: "tenant1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full subscriber")
	}

	require.Len(t, sub.Events(), 2)
	first := <-sub.Events()
	require.Equal(t, "e0", first.ID)
}

func TestHub_ClosesOnContextDone(t *testing.T) {
	hub := NewHub(1, nil)
	ctx, cancel := context.WithCancel(context.Background())

	sub := hub.Subscribe(ctx, "tenant1")
	require.Equal(t, 1, hub.Count("tenant1"))

	cancel()
	select {
	case _, ok := <-sub.Events():
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription channel not closed")
	}
	require.Eventually(t, func() bool { return hub.Count("tenant1") == 0 }, time.Second, 10*time.Millisecond)

	// Broadcasting after removal must not panic.
	require.NoError(t, hub.Broadcast(context.Background(), activity.Event{TenantID: "tenant1"}))
}
