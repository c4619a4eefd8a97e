package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ganot/huddle/internal/domain/task"
	"github.com/ganot/huddle/internal/testserver"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_PrintsNotificationsAndChanges(t *testing.T) {
	ts := testserver.New(t, "secret", "acme")
	ctx := context.Background()

	created, err := ts.Tasks.Create(ctx, "acme", task.CreateRequest{Title: "Ship release"})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- run(runCtx, out, slog.New(slog.NewTextHandler(io.Discard, nil)), ts.URL(), "secret", "acme", 0)
	}()

	require.Eventually(t, func() bool { return ts.Hub.Count("acme") == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Contains(t, out.String(), "loaded 0 conversations, 0 pending approvals, 1 tasks")

	status := task.StatusDone
	_, err = ts.Tasks.Update(ctx, "acme", created.ID, task.UpdateRequest{Status: &status})
	require.NoError(t, err)
	_, err = ts.Tasks.Create(ctx, "acme", task.CreateRequest{Title: "Write notes"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "task "+created.ID+" patched: Ship release status=done") &&
			strings.Contains(s, "[info]")
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRun_FailsWhenServerUnreachable(t *testing.T) {
	err := run(context.Background(), io.Discard, slog.New(slog.NewTextHandler(io.Discard, nil)), "http://127.0.0.1:1", "", "acme", 0)
	require.Error(t, err)
}
