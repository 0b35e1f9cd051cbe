// Package store provides quiz session persistence backends.
package store

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/m3rciful/quizbot/quiz"
)

// record is the serialized form of a session. Answer keys are decimal question indexes.
type record struct {
	UserID          int64             `json:"user_id"`
	CurrentQuestion *int              `json:"current_question"`
	Answers         map[string]string `json:"answers"`
}

// Encode serializes a session to JSON.
func Encode(s *quiz.Session) ([]byte, error) {
	rec := record{
		UserID:  s.UserID,
		Answers: encodeAnswerKeys(s.Answers),
	}
	if idx, ok := s.Current.Index(); ok {
		rec.CurrentQuestion = &idx
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// Decode restores a session from JSON and binds it to saver.
func Decode(data []byte, saver quiz.Saver) (*quiz.Session, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	answers, err := decodeAnswerKeys(rec.Answers)
	if err != nil {
		return nil, err
	}
	s := quiz.NewSession(rec.UserID, saver)
	s.Answers = answers
	if rec.CurrentQuestion != nil {
		s.Current = quiz.At(*rec.CurrentQuestion)
	}
	return s, nil
}

func encodeAnswers(answers map[int]string) (string, error) {
	data, err := json.Marshal(encodeAnswerKeys(answers))
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}
	return string(data), nil
}

func decodeAnswers(data []byte) (map[int]string, error) {
	if len(data) == 0 {
		return make(map[int]string), nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return decodeAnswerKeys(raw)
}

func encodeAnswerKeys(answers map[int]string) map[string]string {
	out := make(map[string]string, len(answers))
	for k, v := range answers {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func decodeAnswerKeys(raw map[string]string) (map[int]string, error) {
	out := make(map[int]string, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("decode answers: invalid question key %q", k)
		}
		out[idx] = v
	}
	return out, nil
}

var (
	_ quiz.Store = (*Memory)(nil)
	_ quiz.Store = (*Postgres)(nil)
	_ quiz.Store = (*Redis)(nil)
)
