package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/quiz"
)

const (
	selectSessionQuery = `SELECT user_id, current_question, answers, updated_at FROM quiz_sessions WHERE user_id = $1`
	upsertSessionQuery = `INSERT INTO quiz_sessions (user_id, current_question, answers, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id) DO UPDATE SET current_question = EXCLUDED.current_question, answers = EXCLUDED.answers, updated_at = NOW()`
	deleteSessionQuery = `DELETE FROM quiz_sessions WHERE user_id = $1`
	countSessionsQuery = `SELECT COUNT(*) FROM quiz_sessions`
)

type sessionRow struct {
	UserID          int64         `db:"user_id"`
	CurrentQuestion sql.NullInt64 `db:"current_question"`
	Answers         []byte        `db:"answers"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

// Postgres persists sessions in the quiz_sessions table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres creates a store on top of an open database handle.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Load fetches the session row or returns a fresh session when none exists.
func (p *Postgres) Load(ctx context.Context, userID int64) (*quiz.Session, error) {
	var row sessionRow
	err := p.db.GetContext(ctx, &row, selectSessionQuery, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.NewSession(userID, p), nil
	}
	if err != nil {
		logger.Error(ctx, "store", "session.load",
			slog.String("status", "fail"),
			slog.String("db", "postgres"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("select session: %w", err)
	}

	answers, err := decodeAnswers(row.Answers)
	if err != nil {
		return nil, err
	}
	s := quiz.NewSession(row.UserID, p)
	s.Answers = answers
	if row.CurrentQuestion.Valid {
		s.Current = quiz.At(int(row.CurrentQuestion.Int64))
	}
	return s, nil
}

// Save upserts the session row.
func (p *Postgres) Save(ctx context.Context, s *quiz.Session) error {
	answers, err := encodeAnswers(s.Answers)
	if err != nil {
		return err
	}
	var current sql.NullInt64
	if idx, ok := s.Current.Index(); ok {
		current = sql.NullInt64{Int64: int64(idx), Valid: true}
	}
	if _, err := p.db.ExecContext(ctx, upsertSessionQuery, s.UserID, current, answers); err != nil {
		logger.Error(ctx, "store", "session.save",
			slog.String("status", "fail"),
			slog.String("db", "postgres"),
			slog.Int64("user_id", s.UserID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Delete removes the session row of a user.
func (p *Postgres) Delete(ctx context.Context, userID int64) error {
	if _, err := p.db.ExecContext(ctx, deleteSessionQuery, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Count returns the number of session rows.
func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.GetContext(ctx, &n, countSessionsQuery); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
