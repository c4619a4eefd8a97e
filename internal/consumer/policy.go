package consumer

import (
	"math"
	"time"
)

// ReconnectPolicy decides whether and when to redial after a connection is
// lost. attempt counts consecutive failures, starting at 1, and resets once
// a connection is confirmed by the server.
type ReconnectPolicy interface {
	Backoff(attempt int) (time.Duration, bool)
}

type reconnectNone struct{}

func (reconnectNone) Backoff(int) (time.Duration, bool) { return 0, false }

// ReconnectNone never redials. After a failure the consumer stays
// disconnected until its owner opens or reconciles it again.
var ReconnectNone ReconnectPolicy = reconnectNone{}

// ExponentialBackoff doubles the delay after each failed attempt, starting
// at Initial and capped at Max. MaxAttempts of zero retries forever.
type ExponentialBackoff struct {
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int
}

// Backoff implements ReconnectPolicy.
func (b ExponentialBackoff) Backoff(attempt int) (time.Duration, bool) {
	if attempt < 1 {
		attempt = 1
	}
	if b.MaxAttempts > 0 && attempt > b.MaxAttempts {
		return 0, false
	}
	initial := b.Initial
	if initial <= 0 {
		initial = time.Second
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		if delay > math.MaxInt64/2 {
			break
		}
		delay *= 2
		if b.Max > 0 && delay >= b.Max {
			return b.Max, true
		}
	}
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	return delay, true
}
