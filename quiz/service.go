package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
)

const component = "service.quiz"

// Progress describes where a user stands in the current quiz.
type Progress struct {
	Current  Position
	Answered int
	Total    int
}

// Service runs quiz turns against a session store, one turn per user at a time.
type Service struct {
	ctrl  *Controller
	store Store

	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewService wires a controller to a session store.
func NewService(ctrl *Controller, store Store) (*Service, error) {
	if ctrl == nil {
		return nil, errors.New("quiz: nil controller")
	}
	if store == nil {
		return nil, errors.New("quiz: nil store")
	}
	return &Service{
		ctrl:  ctrl,
		store: store,
		locks: make(map[int64]*userLock),
	}, nil
}

// Questions returns the question set served by the service.
func (s *Service) Questions() QuestionSet {
	return s.ctrl.Questions()
}

// HandleMessage processes one answer message for the user.
func (s *Service) HandleMessage(ctx context.Context, userID int64, text string) ([]string, error) {
	unlock := s.lock(userID)
	defer unlock()
	return s.turn(ctx, userID, text)
}

// Restart discards the stored session and opens a new quiz.
func (s *Service) Restart(ctx context.Context, userID int64) ([]string, error) {
	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.Delete(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	logger.Info(ctx, component, "quiz.restart",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
	)
	return s.turn(ctx, userID, "")
}

// Stop discards the stored session without starting a new quiz.
func (s *Service) Stop(ctx context.Context, userID int64) error {
	unlock := s.lock(userID)
	defer unlock()

	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	logger.Info(ctx, component, "quiz.stop",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
	)
	return nil
}

// Progress reports the stored position and answer count for the user.
func (s *Service) Progress(ctx context.Context, userID int64) (Progress, error) {
	unlock := s.lock(userID)
	defer unlock()

	sess, err := s.store.Load(ctx, userID)
	if err != nil {
		return Progress{}, fmt.Errorf("load session: %w", err)
	}
	score := s.ctrl.Score(sess)
	return Progress{
		Current:  sess.Current,
		Answered: score.Answered,
		Total:    score.Total,
	}, nil
}

// Stats returns the number of stored sessions.
func (s *Service) Stats(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (s *Service) turn(ctx context.Context, userID int64, text string) ([]string, error) {
	start := time.Now()
	sess, err := s.store.Load(ctx, userID)
	if err != nil {
		logger.Error(ctx, component, "quiz.turn",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("op", "load"),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("load session: %w", err)
	}
	from := sess.Current
	invalid := errors.Is(s.ctrl.checkPosition(from), ErrInvalidQuestionID)

	replies, err := s.ctrl.ProcessTurn(ctx, text, sess)
	if err != nil {
		logger.Error(ctx, component, "quiz.turn",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("op", "save"),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	status := "ok"
	level := slog.LevelDebug
	if invalid {
		status = "skip"
		level = slog.LevelWarn
	}
	logger.Event(ctx, component, level, "quiz.turn",
		slog.String("status", status),
		slog.Int64("user_id", userID),
		slog.String("from", from.String()),
		slog.String("to", sess.Current.String()),
		slog.Int("messages", len(replies)),
		slog.Duration("duration", logger.Took(start)),
	)
	return replies, nil
}

// lock serializes turns of one user; the returned func releases the lock.
func (s *Service) lock(userID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}
