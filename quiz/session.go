package quiz

import (
	"context"
	"errors"
	"strconv"
)

// Position identifies the question currently awaiting an answer.
// The zero value means no question has been asked yet.
type Position struct {
	index  int
	active bool
}

// NotStarted returns the position of a session that has not asked anything yet.
func NotStarted() Position {
	return Position{}
}

// At returns the position pointing at the question with the given zero-based index.
func At(index int) Position {
	return Position{index: index, active: true}
}

// Index reports the question index and whether a question is in progress.
func (p Position) Index() (int, bool) {
	return p.index, p.active
}

// Started reports whether a question has been asked.
func (p Position) Started() bool {
	return p.active
}

// String renders the position for logs.
func (p Position) String() string {
	if !p.active {
		return "none"
	}
	return strconv.Itoa(p.index)
}

// Saver persists a session at the end of a turn.
type Saver interface {
	Save(ctx context.Context, s *Session) error
}

// SaverFunc adapts a bare function to the Saver interface.
type SaverFunc func(ctx context.Context, s *Session) error

// Save executes the underlying function.
func (f SaverFunc) Save(ctx context.Context, s *Session) error {
	return f(ctx, s)
}

var errNoSaver = errors.New("quiz: session has no saver")

// Session is the per-user quiz state. It is owned by a single turn at a time.
type Session struct {
	UserID  int64
	Current Position
	Answers map[int]string

	saver Saver
}

// NewSession creates a not-started session bound to the provided saver.
func NewSession(userID int64, saver Saver) *Session {
	return &Session{
		UserID:  userID,
		Current: NotStarted(),
		Answers: make(map[int]string),
		saver:   saver,
	}
}

// Bind replaces the saver used by Save.
func (s *Session) Bind(saver Saver) {
	s.saver = saver
}

// Save persists the session through the injected saver.
func (s *Session) Save(ctx context.Context) error {
	if s.saver == nil {
		return errNoSaver
	}
	return s.saver.Save(ctx, s)
}

// Reset clears recorded answers and the current position.
func (s *Session) Reset() {
	s.Answers = make(map[int]string)
	s.Current = NotStarted()
}

// Clone returns a deep copy of the session sharing the same saver.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{
		UserID:  s.UserID,
		Current: s.Current,
		Answers: make(map[int]string, len(s.Answers)),
		saver:   s.saver,
	}
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	return out
}

// Store loads and persists sessions keyed by Telegram user id.
type Store interface {
	Saver
	// Load returns the stored session or a fresh not-started one bound to the store.
	Load(ctx context.Context, userID int64) (*Session, error)
	Delete(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int, error)
}
