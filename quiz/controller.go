// Package quiz implements the question-and-answer flow of the bot: recording
// answers, advancing through a fixed question list and scoring the result.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuestionID signals a session position outside the question list.
var ErrInvalidQuestionID = errors.New("Invalid question ID")

// Controller drives one quiz turn over a shared read-only question set.
type Controller struct {
	set QuestionSet
}

// NewController creates a controller for the provided question set.
func NewController(set QuestionSet) *Controller {
	return &Controller{set: set}
}

// Questions returns the question set served by the controller.
func (c *Controller) Questions() QuestionSet {
	return c.set
}

// ProcessTurn records message as the answer to the current question and
// returns the replies to send back. The session is saved only when the
// turn succeeds; an invalid position yields the error text as the sole reply.
func (c *Controller) ProcessTurn(ctx context.Context, message string, s *Session) ([]string, error) {
	var replies []string

	current := s.Current
	if !current.Started() {
		replies = append(replies, c.set.Welcome)
	}

	if err := c.RecordCurrentAnswer(message, current, s); err != nil {
		return []string{err.Error()}, nil
	}

	next, nextPos, ok := c.NextQuestion(current)
	if ok {
		replies = append(replies, next)
	} else {
		replies = append(replies, c.FinalResponse(s))
	}

	s.Current = nextPos
	if err := s.Save(ctx); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return replies, nil
}

// RecordCurrentAnswer stores the trimmed answer for the current question.
// Nothing is recorded before the first question is asked.
func (c *Controller) RecordCurrentAnswer(answer string, current Position, s *Session) error {
	if err := c.checkPosition(current); err != nil {
		return err
	}
	idx, started := current.Index()
	if !started {
		return nil
	}
	if s.Answers == nil {
		s.Answers = make(map[int]string)
	}
	s.Answers[idx] = strings.TrimSpace(answer)
	return nil
}

func (c *Controller) checkPosition(p Position) error {
	if idx, started := p.Index(); started && (idx < 0 || idx >= c.set.Len()) {
		return ErrInvalidQuestionID
	}
	return nil
}

// NextQuestion returns the question following current. ok is false once the
// list is exhausted or empty.
func (c *Controller) NextQuestion(current Position) (string, Position, bool) {
	next := 0
	if idx, started := current.Index(); started {
		next = idx + 1
	}
	q, ok := c.set.At(next)
	if !ok {
		return "", NotStarted(), false
	}
	return q, At(next), true
}
