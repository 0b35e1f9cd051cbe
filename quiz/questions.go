package quiz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultWelcome is used when a question file does not define its own greeting.
const DefaultWelcome = "Welcome to the Python quiz! Answer each question with a short message. Let's begin."

//go:embed questions.yaml
var defaultQuestions []byte

// QuestionSet is the immutable list of questions asked in order plus the greeting.
type QuestionSet struct {
	Welcome   string   `yaml:"welcome"`
	Questions []string `yaml:"questions"`
}

// Len returns the number of questions.
func (qs QuestionSet) Len() int {
	return len(qs.Questions)
}

// At returns the question with the given index.
func (qs QuestionSet) At(i int) (string, bool) {
	if i < 0 || i >= len(qs.Questions) {
		return "", false
	}
	return qs.Questions[i], true
}

// IndexOf returns the index of the first question equal to text, or -1.
func (qs QuestionSet) IndexOf(text string) int {
	for i, q := range qs.Questions {
		if q == text {
			return i
		}
	}
	return -1
}

// DefaultQuestionSet returns the question set bundled with the binary.
func DefaultQuestionSet() (QuestionSet, error) {
	return ParseQuestionSet(defaultQuestions)
}

// LoadQuestionSet reads a YAML question file. An empty path selects the bundled set.
func LoadQuestionSet(path string) (QuestionSet, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultQuestionSet()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("failed to read question file: %w", err)
	}
	return ParseQuestionSet(data)
}

// ParseQuestionSet decodes and validates a YAML question set.
func ParseQuestionSet(data []byte) (QuestionSet, error) {
	var qs QuestionSet
	if err := yaml.Unmarshal(data, &qs); err != nil {
		return QuestionSet{}, fmt.Errorf("failed to parse question file: %w", err)
	}
	qs.Welcome = strings.TrimSpace(qs.Welcome)
	if qs.Welcome == "" {
		qs.Welcome = DefaultWelcome
	}
	questions := make([]string, 0, len(qs.Questions))
	for i, q := range qs.Questions {
		q = strings.TrimSpace(q)
		if q == "" {
			return QuestionSet{}, fmt.Errorf("question %d is empty", i+1)
		}
		questions = append(questions, q)
	}
	qs.Questions = questions
	return qs, nil
}
