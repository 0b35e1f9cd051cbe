package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	calls int
	last  *Session
	err   error
}

func (r *recordingSaver) Save(_ context.Context, s *Session) error {
	r.calls++
	r.last = s.Clone()
	return r.err
}

func testSet() QuestionSet {
	return QuestionSet{
		Welcome:   "Welcome!",
		Questions: []string{"Q zero?", "Q one?", "Q two?", "Q three?"},
	}
}

func TestProcessTurnFirstMessage(t *testing.T) {
	saver := &recordingSaver{}
	ctrl := NewController(testSet())
	s := NewSession(7, saver)

	replies, err := ctrl.ProcessTurn(context.Background(), "hi", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome!", "Q zero?"}, replies)
	assert.Equal(t, At(0), s.Current)
	assert.Empty(t, s.Answers)
	assert.Equal(t, 1, saver.calls)
}

func TestProcessTurnRecordsQuestionZero(t *testing.T) {
	saver := &recordingSaver{}
	ctrl := NewController(testSet())
	s := NewSession(7, saver)
	s.Current = At(0)

	replies, err := ctrl.ProcessTurn(context.Background(), "  foo \n", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q one?"}, replies)
	assert.Equal(t, map[int]string{0: "foo"}, s.Answers)
	assert.Equal(t, At(1), s.Current)
	assert.Equal(t, At(1), saver.last.Current)
}

func TestProcessTurnLastAnswerCompletesQuiz(t *testing.T) {
	saver := &recordingSaver{}
	ctrl := NewController(testSet())
	s := NewSession(7, saver)
	s.Current = At(3)
	s.Answers = map[int]string{0: "a", 1: "b", 2: "c"}

	replies, err := ctrl.ProcessTurn(context.Background(), "d", s)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Completion rate: 100.0%")
	assert.Contains(t, replies[0], remarkExcellent)
	assert.Empty(t, s.Answers)
	assert.False(t, s.Current.Started())
	assert.Equal(t, 1, saver.calls)
	assert.False(t, saver.last.Current.Started())
}

func TestProcessTurnInvalidQuestionID(t *testing.T) {
	saver := &recordingSaver{}
	ctrl := NewController(testSet())
	s := NewSession(7, saver)
	s.Current = At(9999)
	s.Answers = map[int]string{0: "kept"}

	replies, err := ctrl.ProcessTurn(context.Background(), "x", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid question ID"}, replies)
	assert.Equal(t, map[int]string{0: "kept"}, s.Answers)
	assert.Equal(t, At(9999), s.Current)
	assert.Zero(t, saver.calls)
}

func TestProcessTurnSaveError(t *testing.T) {
	boom := errors.New("boom")
	ctrl := NewController(testSet())
	s := NewSession(7, &recordingSaver{err: boom})

	replies, err := ctrl.ProcessTurn(context.Background(), "hi", s)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, replies)
}

func TestProcessTurnEmptyQuestionList(t *testing.T) {
	saver := &recordingSaver{}
	ctrl := NewController(QuestionSet{Welcome: "Welcome!"})
	s := NewSession(7, saver)

	replies, err := ctrl.ProcessTurn(context.Background(), "hi", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome!", noAnswersMessage}, replies)
	assert.False(t, s.Current.Started())
	assert.Equal(t, 1, saver.calls)
}

func TestProcessTurnFullQuiz(t *testing.T) {
	ctrl := NewController(testSet())
	s := NewSession(7, &recordingSaver{})
	ctx := context.Background()

	replies, err := ctrl.ProcessTurn(ctx, "start", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome!", "Q zero?"}, replies)

	for i, answer := range []string{"a0", "a1", "a2"} {
		replies, err = ctrl.ProcessTurn(ctx, answer, s)
		require.NoError(t, err)
		assert.Equal(t, []string{testSet().Questions[i+1]}, replies)
	}

	replies, err = ctrl.ProcessTurn(ctx, "a3", s)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "You answered 4 out of 4 questions.")
	assert.Contains(t, replies[0], "Q1: Q zero?\nYour answer: a0")

	replies, err = ctrl.ProcessTurn(ctx, "again", s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome!", "Q zero?"}, replies)
}

func TestRecordCurrentAnswerNotStarted(t *testing.T) {
	ctrl := NewController(testSet())
	s := &Session{}

	require.NoError(t, ctrl.RecordCurrentAnswer("anything", NotStarted(), s))
	assert.Nil(t, s.Answers)
}

func TestRecordCurrentAnswerOutOfRange(t *testing.T) {
	ctrl := NewController(testSet())
	for _, idx := range []int{4, 5, 9999, -1} {
		s := NewSession(1, nil)
		s.Answers[0] = "kept"
		err := ctrl.RecordCurrentAnswer("x", At(idx), s)
		assert.ErrorIs(t, err, ErrInvalidQuestionID, "index %d", idx)
		assert.Equal(t, map[int]string{0: "kept"}, s.Answers)
	}
}

func TestRecordCurrentAnswerInitializesMap(t *testing.T) {
	ctrl := NewController(testSet())
	s := &Session{}

	require.NoError(t, ctrl.RecordCurrentAnswer(" yes ", At(2), s))
	assert.Equal(t, map[int]string{2: "yes"}, s.Answers)
}

func TestNextQuestion(t *testing.T) {
	set := testSet()
	ctrl := NewController(set)

	q, pos, ok := ctrl.NextQuestion(NotStarted())
	assert.True(t, ok)
	assert.Equal(t, "Q zero?", q)
	assert.Equal(t, At(0), pos)

	for i := 0; i < set.Len(); i++ {
		q, pos, ok = ctrl.NextQuestion(At(i))
		if i+1 == set.Len() {
			assert.False(t, ok)
			assert.Empty(t, q)
			assert.False(t, pos.Started())
			continue
		}
		assert.True(t, ok)
		assert.Equal(t, set.Questions[i+1], q)
		assert.Equal(t, At(i+1), pos)
	}
}

func TestNextQuestionEmptyList(t *testing.T) {
	ctrl := NewController(QuestionSet{})
	q, pos, ok := ctrl.NextQuestion(NotStarted())
	assert.False(t, ok)
	assert.Empty(t, q)
	assert.False(t, pos.Started())
}

func TestPositionString(t *testing.T) {
	assert.Equal(t, "none", NotStarted().String())
	assert.Equal(t, "0", At(0).String())
	assert.True(t, At(0).Started())
}

func TestSessionSaveWithoutSaver(t *testing.T) {
	s := NewSession(1, nil)
	assert.Error(t, s.Save(context.Background()))
}
