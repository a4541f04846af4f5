package chat

import "time"

const (
	rateLimitWindow      = 10 * time.Second
	maxMessagesPerWindow = 5

	typingCooldown = 500 * time.Millisecond
)

// rateLimiter is a fixed-window counter gating inbound content
// messages on one connection. Only the owning connection's read loop
// touches it, so no locking is needed.
type rateLimiter struct {
	windowStart time.Time
	count       int
	window      time.Duration
	max         int
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{window: rateLimitWindow, max: maxMessagesPerWindow}
}

// allow counts one message and reports whether it may pass. The window
// resets once it has fully elapsed; bursts straddling a boundary are
// tolerated.
func (r *rateLimiter) allow(now time.Time) bool {
	if now.Sub(r.windowStart) > r.window {
		r.count = 0
		r.windowStart = now
	}

	r.count++
	return r.count <= r.max
}

// typingThrottle admits at most one typing event per cooldown.
type typingThrottle struct {
	lastEmit time.Time
	cooldown time.Duration
}

func newTypingThrottle() *typingThrottle {
	return &typingThrottle{cooldown: typingCooldown}
}

func (t *typingThrottle) allow(now time.Time) bool {
	if !t.lastEmit.IsZero() && now.Sub(t.lastEmit) < t.cooldown {
		return false
	}

	t.lastEmit = now
	return true
}
