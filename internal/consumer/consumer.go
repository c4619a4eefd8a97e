// Package consumer keeps one live activity stream per tenant open and
// exposes its connection state.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ganot/huddle/internal/domain/activity"
	"github.com/ganot/huddle/internal/eventsource"
)

// ErrStreamEnded is reported when the server ends the stream.
var ErrStreamEnded = errors.New("activity stream ended")

// State is the lifecycle of the consumer's connection.
type State string

const (
	StateIdle         State = "idle"
	StateConnecting   State = "connecting"
	StateOpen         State = "open"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Snapshot is the observable state of a Consumer. Only the latest activity
// is kept.
type Snapshot struct {
	TenantID      string
	Connected     bool
	Err           error
	State         State
	LastHeartbeat time.Time
	Activity      *activity.Event
}

// Options configures a Consumer.
type Options struct {
	// BaseURL is the server root; streams are opened at
	// <BaseURL>/activity?tenantId=<id>.
	BaseURL string
	// Dialer defaults to an HTTPDialer.
	Dialer Dialer
	// Reconnect defaults to ReconnectNone.
	Reconnect ReconnectPolicy
	// OnActivity is called for each parsed activity event, in stream order,
	// on the read goroutine. It must not call Open, Close or Reconcile.
	OnActivity func(activity.Event)
	Logger     *slog.Logger
}

// Consumer owns at most one stream connection at a time.
type Consumer struct {
	baseURL    string
	dialer     Dialer
	policy     ReconnectPolicy
	onActivity func(activity.Event)
	logger     *slog.Logger

	// ops serializes Open, Close and Reconcile.
	ops sync.Mutex

	mu       sync.Mutex
	current  *session
	snap     Snapshot
	watchers map[int]chan Snapshot
	nextID   int
}

// New creates an idle Consumer.
func New(opts Options) *Consumer {
	c := &Consumer{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		dialer:     opts.Dialer,
		policy:     opts.Reconnect,
		onActivity: opts.OnActivity,
		logger:     opts.Logger,
		snap:       Snapshot{State: StateIdle},
		watchers:   make(map[int]chan Snapshot),
	}
	if c.dialer == nil {
		c.dialer = &HTTPDialer{}
	}
	if c.policy == nil {
		c.policy = ReconnectNone
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Reconcile brings the connection in line with the desired tenant: open for
// a non-empty tenant when enabled, closed otherwise.
func (c *Consumer) Reconcile(tenantID string, enabled bool) {
	if !enabled || tenantID == "" {
		c.Close()
		return
	}
	c.Open(tenantID)
}

// Open connects to tenantID's stream. It is a no-op while a connection for
// the same tenant is connecting or open. A connection for another tenant is
// closed before the new one is dialed.
func (c *Consumer) Open(tenantID string) {
	if tenantID == "" {
		return
	}
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	cur := c.current
	if cur != nil && cur.tenantID == tenantID && !cur.finished() {
		c.mu.Unlock()
		return
	}
	c.current = nil
	c.mu.Unlock()

	if cur != nil {
		cur.stop()
		<-cur.done
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{tenantID: tenantID, ctx: ctx, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	c.current = s
	c.snap = Snapshot{TenantID: tenantID, State: StateConnecting}
	c.publishLocked()
	c.mu.Unlock()

	go c.run(s)
}

// Close stops the current connection, if any, and waits for its read loop
// to exit. The transport is closed exactly once.
func (c *Consumer) Close() {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	cur := c.current
	c.current = nil
	c.mu.Unlock()

	if cur != nil {
		cur.stop()
		<-cur.done
	}

	c.mu.Lock()
	if cur != nil || c.snap.State != StateIdle {
		c.snap.Connected = false
		c.snap.Err = nil
		c.snap.State = StateClosed
		c.publishLocked()
	}
	c.mu.Unlock()
}

// Snapshot returns the current state.
func (c *Consumer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Changes delivers the current snapshot and then every update. A slow
// reader only sees the latest snapshot. cancel closes the channel.
func (c *Consumer) Changes() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = ch
	ch <- c.snap
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

func (c *Consumer) publishLocked() {
	for _, ch := range c.watchers {
		select {
		case ch <- c.snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- c.snap
		}
	}
}

// update applies fn to the snapshot if s is still the current session.
func (c *Consumer) update(s *session, fn func(*Snapshot)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != s {
		return false
	}
	fn(&c.snap)
	c.publishLocked()
	return true
}

func (c *Consumer) streamURL(tenantID string) string {
	return c.baseURL + "/activity?tenantId=" + url.QueryEscape(tenantID)
}

func (c *Consumer) run(s *session) {
	defer close(s.done)

	logger := c.logger.With("tenant_id", s.tenantID)
	attempt := 0
	for {
		err := c.connect(s, logger, &attempt)
		if s.ctx.Err() != nil {
			return
		}

		attempt++
		delay, retry := c.policy.Backoff(attempt)
		if !retry {
			logger.Warn("activity stream down", "error", err)
			c.update(s, func(sn *Snapshot) {
				sn.Connected = false
				sn.Err = err
				sn.State = StateClosed
			})
			return
		}

		logger.Warn("activity stream down, reconnecting", "error", err, "attempt", attempt, "delay", delay)
		c.update(s, func(sn *Snapshot) {
			sn.Connected = false
			sn.Err = err
			sn.State = StateReconnecting
		})

		timer := time.NewTimer(delay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// connect dials once and reads until the stream fails.
func (c *Consumer) connect(s *session, logger *slog.Logger, attempt *int) error {
	conn, err := c.dialer.Dial(s.ctx, c.streamURL(s.tenantID))
	if err != nil {
		return err
	}
	if !s.attach(conn) {
		conn.Close()
		return context.Canceled
	}
	defer func() {
		if s.detach(conn) {
			conn.Close()
		}
	}()

	for {
		frame, err := conn.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrStreamEnded
			}
			return err
		}
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		c.handle(s, logger, frame, attempt)
	}
}

type heartbeat struct {
	Timestamp time.Time `json:"timestamp"`
}

func (c *Consumer) handle(s *session, logger *slog.Logger, frame eventsource.Frame, attempt *int) {
	switch frame.Event {
	case eventsource.EventConnected:
		*attempt = 0
		c.update(s, func(sn *Snapshot) {
			sn.Connected = true
			sn.Err = nil
			sn.State = StateOpen
		})

	case eventsource.EventHeartbeat:
		at := time.Now()
		var hb heartbeat
		if err := json.Unmarshal(frame.Data, &hb); err == nil && !hb.Timestamp.IsZero() {
			at = hb.Timestamp
		}
		c.update(s, func(sn *Snapshot) { sn.LastHeartbeat = at })

	case eventsource.EventActivity:
		var ev activity.Event
		if err := json.Unmarshal(frame.Data, &ev); err != nil {
			logger.Warn("dropping malformed activity frame", "error", err)
			return
		}
		if !c.update(s, func(sn *Snapshot) { sn.Activity = &ev }) {
			return
		}
		if c.onActivity != nil {
			c.onActivity(ev)
		}

	default:
		logger.Debug("ignoring stream frame", "event", frame.Event)
	}
}

type session struct {
	tenantID string
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	mu      sync.Mutex
	conn    Conn
	stopped bool
}

func (s *session) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// attach records conn as the live transport unless the session has stopped.
func (s *session) attach(conn Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conn = conn
	return true
}

// detach reports whether the caller now owns closing conn.
func (s *session) detach(conn Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != conn {
		return false
	}
	s.conn = nil
	return true
}

func (s *session) stop() {
	s.cancel()
	s.mu.Lock()
	s.stopped = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}
