// Command activitywatch loads a tenant's inbox, approvals and tasks, then
// follows the activity stream and prints every notification and store
// change it causes.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ganot/huddle/internal/client"
	"github.com/ganot/huddle/internal/consumer"
	"github.com/ganot/huddle/internal/dispatch"
	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/store"
)

func main() {
	tenant := flag.String("tenant", "default", "tenant to follow")
	base := flag.String("base", client.BaseURLFromEnv(), "server base URL")
	token := flag.String("token", os.Getenv("HUDDLE_API_TOKEN"), "bearer token for the REST API")
	timeout := flag.Duration("timeout", 0, "stop after this long (0 runs until interrupted)")
	retries := flag.Int("retries", 5, "reconnect attempts after the stream drops (0 never reconnects)")
	verbose := flag.Bool("v", false, "log stream state changes")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if *timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	if err := run(ctx, os.Stdout, logger, *base, *token, *tenant, *retries); err != nil {
		fmt.Fprintf(os.Stderr, "activitywatch: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, logger *slog.Logger, base, token, tenant string, retries int) error {
	api := client.New(base, token)

	conversations, convWriter := store.NewConversations(api)
	approvals, _ := store.NewApprovals(api)
	tasks, taskWriter := store.NewTasks(api)
	notifications := store.NewNotifications(0)

	for _, fetch := range []func(context.Context) error{conversations.Fetch, approvals.Fetch, tasks.Fetch} {
		if err := fetch(ctx); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "loaded %d conversations, %d pending approvals, %d tasks\n",
		conversations.Len(), len(approvals.Pending()), tasks.Len())

	defer conversations.OnChange(func(c store.Change) {
		if conv, ok := conversations.Get(c.ID); ok {
			fmt.Fprintf(out, "conversation %s %s: status=%s preview=%q\n", c.ID, c.Kind, conv.Status, conv.LastMessagePreview)
		}
	})()
	defer tasks.OnChange(func(c store.Change) {
		if t, ok := tasks.Get(c.ID); ok {
			fmt.Fprintf(out, "task %s %s: %s status=%s\n", c.ID, c.Kind, t.Title, t.Status)
		}
	})()

	d := dispatch.New(dispatch.Config{
		Conversations: convWriter,
		Tasks:         taskWriter,
		Notifier:      printingNotifier{out: out, next: notifications},
		Logger:        logger,
	})

	var policy consumer.ReconnectPolicy = consumer.ReconnectNone
	if retries > 0 {
		policy = consumer.ExponentialBackoff{Initial: time.Second, Max: 30 * time.Second, MaxAttempts: retries}
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	c := consumer.New(consumer.Options{
		BaseURL:    base,
		Dialer:     &consumer.HTTPDialer{Header: header},
		Reconnect:  policy,
		OnActivity: func(e activity.Event) { d.Dispatch(e) },
		Logger:     logger,
	})
	defer c.Close()

	changes, stop := c.Changes()
	defer stop()

	c.Reconcile(tenant, true)
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-changes:
			logger.Debug("stream state", "tenant_id", snap.TenantID, "state", snap.State, "connected", snap.Connected, "error", snap.Err)
			if snap.State == consumer.StateClosed && snap.Err != nil {
				return fmt.Errorf("stream for %s closed: %w", tenant, snap.Err)
			}
		}
	}
}

// printingNotifier echoes each notification before storing it.
type printingNotifier struct {
	out  io.Writer
	next *store.Notifications
}

func (p printingNotifier) Notify(n store.Notification) string {
	fmt.Fprintf(p.out, "[%s] %s: %s (%s)\n", n.Level, n.Title, n.Description, n.EventType)
	return p.next.Notify(n)
}
