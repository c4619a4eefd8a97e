package consumer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/presence"
	"github.com/ganot/huddle/internal/stream"
	"github.com/stretchr/testify/require"
)

func TestHTTPDialer_StreamsFromHub(t *testing.T) {
	hub := stream.NewHub(8, nil)
	tracker := presence.NewLocal(0)
	h := stream.NewHandler(hub, tracker, stream.Options{Heartbeat: 20 * time.Millisecond})

	mux := http.NewServeMux()
	mux.HandleFunc("/activity", h.ServeSSE)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	events := make(chan activity.Event, 4)
	c := New(Options{
		BaseURL:    srv.URL,
		OnActivity: func(e activity.Event) { events <- e },
	})
	defer c.Close()

	c.Open("tenant1")
	waitFor(t, c, connected)
	require.Eventually(t, func() bool { return hub.Count("tenant1") == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Broadcast(context.Background(), activity.Event{ID: "e1", TenantID: "tenant2", Type: activity.TypeTaskCreated}))
	require.NoError(t, hub.Broadcast(context.Background(), activity.Event{ID: "e2", TenantID: "tenant1", Type: activity.TypeTaskCreated, Title: "Ship"}))

	select {
	case e := <-events:
		require.Equal(t, "e2", e.ID)
		require.Equal(t, "Ship", e.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no activity delivered")
	}

	waitFor(t, c, func(s Snapshot) bool { return !s.LastHeartbeat.IsZero() })

	c.Close()
	require.Eventually(t, func() bool { return hub.Count("tenant1") == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHTTPDialer_RejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "tenantId is required", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	_, err := (&HTTPDialer{}).Dial(context.Background(), srv.URL+"/activity")
	require.ErrorContains(t, err, "stream status 400")
}

func TestHTTPDialer_SendsHeaders(t *testing.T) {
	got := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Clone()
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	d := &HTTPDialer{Header: http.Header{"Authorization": {"Bearer secret"}}}
	conn, err := d.Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	defer conn.Close()

	h := <-got
	require.Equal(t, "text/event-stream", h.Get("Accept"))
	require.Equal(t, "Bearer secret", h.Get("Authorization"))
}
