package quiz

import (
	"fmt"
	"strings"
)

const (
	noAnswersMessage = "No answers found. Please start the quiz again."
	notAnswered      = "Not answered"

	remarkExcellent = "\n🌟 Excellent! You completed the entire quiz!"
	remarkGreat     = "\n👏 Great effort! You answered most of the questions!"
	remarkGood      = "\n👍 Good start! Try to answer more questions next time!"
	remarkPractice  = "\n💪 Keep practicing! Try the quiz again to improve your score!"
)

// Score summarizes how much of the quiz was answered.
type Score struct {
	Answered int
	Total    int
}

// Rate returns the completion percentage.
func (s Score) Rate() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Answered) / float64(s.Total) * 100
}

// Remark picks the closing line for the completion rate.
func (s Score) Remark() string {
	rate := s.Rate()
	switch {
	case rate == 100:
		return remarkExcellent
	case rate >= 75:
		return remarkGreat
	case rate >= 50:
		return remarkGood
	default:
		return remarkPractice
	}
}

// Score counts the answers that belong to a question of the set.
// Keys outside the set, left by stale or edited stored sessions, are ignored.
func (c *Controller) Score(s *Session) Score {
	score := Score{Total: c.set.Len()}
	for idx := range s.Answers {
		if idx >= 0 && idx < score.Total {
			score.Answered++
		}
	}
	return score
}

// FinalResponse renders the scored recap and resets the session for a new quiz.
// A session without answers is left untouched.
func (c *Controller) FinalResponse(s *Session) string {
	if len(s.Answers) == 0 {
		return noAnswersMessage
	}

	score := c.Score(s)
	parts := []string{
		"🎉 Quiz Complete! 🎉\n",
		fmt.Sprintf("You answered %d out of %d questions.", score.Answered, score.Total),
		fmt.Sprintf("Completion rate: %.1f%%\n", score.Rate()),
		"Here's a summary of your answers:\n",
	}
	for i, q := range c.set.Questions {
		answer, ok := s.Answers[i]
		if !ok {
			answer = notAnswered
		}
		parts = append(parts,
			fmt.Sprintf("\nQ%d: %s", i+1, q),
			"Your answer: "+answer,
		)
	}
	parts = append(parts, score.Remark())

	s.Reset()
	return strings.Join(parts, "\n")
}
