package helpers

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const repliesKey = "reply_counter"

// ReplyCounter counts replies produced while handling one update.
// Replies may be delivered from dispatcher goroutines, so it is atomic.
type ReplyCounter struct {
	messages atomic.Int64
	keyboard atomic.Bool
}

// Add records one reply. It is a no-op on a nil counter.
func (rc *ReplyCounter) Add(withKeyboard bool) {
	if rc == nil {
		return
	}
	rc.messages.Add(1)
	if withKeyboard {
		rc.keyboard.Store(true)
	}
}

// Snapshot returns the reply count and whether any reply carried a keyboard.
func (rc *ReplyCounter) Snapshot() (int, bool) {
	if rc == nil {
		return 0, false
	}
	return int(rc.messages.Load()), rc.keyboard.Load()
}

// TrackReplies installs a fresh counter on c.
func TrackReplies(c tele.Context) *ReplyCounter {
	rc := &ReplyCounter{}
	c.Set(repliesKey, rc)
	return rc
}

// Replies returns the counter installed by TrackReplies, or nil.
func Replies(c tele.Context) *ReplyCounter {
	rc, _ := c.Get(repliesKey).(*ReplyCounter)
	return rc
}

// Unwrap returns the context below any wrapper that exposes Unwrap, so helpers
// that count replies themselves do not count them twice.
func Unwrap(c tele.Context) tele.Context {
	for {
		w, ok := c.(interface{ Unwrap() tele.Context })
		if !ok {
			return c
		}
		c = w.Unwrap()
	}
}
