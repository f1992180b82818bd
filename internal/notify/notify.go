// Package notify keeps the transient notices shown to the operator.
// Notices are fire-and-forget: operations push one and move on; the
// presentation layer expires them after their time-to-live.
package notify

import (
	"time"

	"github.com/google/uuid"
)

type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is one transient message.
type Notice struct {
	ID    uuid.UUID
	Level Level
	Text  string
	At    time.Time
}

// Feed holds the currently visible notices, newest last, capped at max.
type Feed struct {
	notices []Notice
	max     int
	ttl     time.Duration
}

// NewFeed creates a feed showing at most max notices, each expiring after
// ttl.
func NewFeed(max int, ttl time.Duration) *Feed {
	if max <= 0 {
		max = 3
	}
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return &Feed{max: max, ttl: ttl}
}

// TTL is how long a pushed notice should stay visible.
func (f *Feed) TTL() time.Duration { return f.ttl }

// Max is the most notices visible at once.
func (f *Feed) Max() int { return f.max }

// Push adds a notice and returns it, so the caller can schedule its
// expiry. The oldest notice drops when the feed is full.
func (f *Feed) Push(level Level, text string) Notice {
	n := Notice{ID: uuid.New(), Level: level, Text: text, At: time.Now()}
	f.notices = append(f.notices, n)
	if len(f.notices) > f.max {
		f.notices = f.notices[len(f.notices)-f.max:]
	}
	return n
}

// Expire removes the notice with the given id, if it is still visible.
func (f *Feed) Expire(id uuid.UUID) {
	for i, n := range f.notices {
		if n.ID == id {
			f.notices = append(f.notices[:i], f.notices[i+1:]...)
			return
		}
	}
}

// Active returns the visible notices, oldest first.
func (f *Feed) Active() []Notice {
	out := make([]Notice, len(f.notices))
	copy(out, f.notices)
	return out
}
