package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/quiz"
	"github.com/m3rciful/quizbot/quiz/store"
)

type sentMessage struct {
	text   string
	markup *tele.ReplyMarkup
}

type fakeContext struct {
	tele.Context
	user      *tele.User
	text      string
	callback  *tele.Callback
	store     map[string]any
	sent      []sentMessage
	responses []*tele.CallbackResponse
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		user:  &tele.User{ID: userID},
		text:  text,
		store: map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: 100, Type: tele.ChatPrivate} }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1, Callback: f.callback} }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Send(what any, opts ...any) error {
	msg := sentMessage{text: what.(string)}
	for _, o := range opts {
		if rm, ok := o.(*tele.ReplyMarkup); ok {
			msg.markup = rm
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func (f *fakeContext) texts() []string {
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.text
	}
	return out
}

func buttonKey(m *tele.ReplyMarkup) string {
	if m == nil || len(m.InlineKeyboard) == 0 {
		return ""
	}
	return m.InlineKeyboard[0][0].Unique
}

func newTestHandlers(t *testing.T) (*Handlers, quiz.QuestionSet) {
	t.Helper()
	set := quiz.QuestionSet{Welcome: "Hello!", Questions: []string{"Q one?", "Q two?"}}
	svc, err := quiz.NewService(quiz.NewController(set), store.NewMemory())
	require.NoError(t, err)
	return NewHandlers(svc, 7), set
}

func TestAnswerRunsWholeQuiz(t *testing.T) {
	h, set := newTestHandlers(t)

	first := newFakeContext(1, "hi")
	require.NoError(t, h.Answer(first))
	assert.Equal(t, []string{"Hello!", "Q one?"}, first.texts())
	assert.Nil(t, first.sent[0].markup)
	assert.Equal(t, CallbackStop, buttonKey(first.sent[1].markup))

	second := newFakeContext(1, "  a  ")
	require.NoError(t, h.Answer(second))
	assert.Equal(t, []string{set.Questions[1]}, second.texts())
	assert.Equal(t, CallbackStop, buttonKey(second.sent[0].markup))

	last := newFakeContext(1, "b")
	require.NoError(t, h.Answer(last))
	require.Len(t, last.sent, 1)
	summary := last.sent[0].text
	assert.True(t, strings.HasPrefix(summary, "🎉 Quiz Complete! 🎉\n"))
	assert.Contains(t, summary, "Your answer: a")
	assert.Contains(t, summary, "Completion rate: 100.0%")
	assert.Equal(t, CallbackRestart, buttonKey(last.sent[0].markup))

	again := newFakeContext(1, "hello again")
	require.NoError(t, h.Answer(again))
	assert.Equal(t, []string{"Hello!", "Q one?"}, again.texts())
}

func TestStartRestartsQuiz(t *testing.T) {
	h, _ := newTestHandlers(t)
	require.NoError(t, h.Answer(newFakeContext(1, "hi")))
	require.NoError(t, h.Answer(newFakeContext(1, "x")))

	c := newFakeContext(1, "/start")
	require.NoError(t, h.Start(c))
	assert.Equal(t, []string{"Hello!", "Q one?"}, c.texts())

	p := newFakeContext(1, "/progress")
	require.NoError(t, h.Progress(p))
	assert.Equal(t, []string{"You are on question 1 of 2 and have answered 0 so far."}, p.texts())
}

func TestStopAndProgress(t *testing.T) {
	h, _ := newTestHandlers(t)
	require.NoError(t, h.Answer(newFakeContext(1, "hi")))
	require.NoError(t, h.Answer(newFakeContext(1, "x")))

	p := newFakeContext(1, "/progress")
	require.NoError(t, h.Progress(p))
	assert.Equal(t, []string{"You are on question 2 of 2 and have answered 1 so far."}, p.texts())

	stop := newFakeContext(1, "")
	stop.callback = &tele.Callback{Data: "\f" + CallbackStop}
	require.NoError(t, h.Stop(stop))
	assert.Equal(t, []string{msgStopped}, stop.texts())
	assert.Equal(t, CallbackRestart, buttonKey(stop.sent[0].markup))

	p = newFakeContext(1, "/progress")
	require.NoError(t, h.Progress(p))
	assert.Equal(t, []string{msgNotStarted}, p.texts())
}

func TestHelpAndStats(t *testing.T) {
	h, _ := newTestHandlers(t)
	require.NoError(t, h.Answer(newFakeContext(1, "hi")))
	require.NoError(t, h.Answer(newFakeContext(2, "hi")))

	help := newFakeContext(1, "/help")
	require.NoError(t, h.Help(help))
	require.Len(t, help.sent, 1)
	assert.Contains(t, help.sent[0].text, "This is a 2 question quiz.")

	stats := newFakeContext(7, "/stats")
	require.NoError(t, h.Stats(stats))
	require.Len(t, stats.sent, 1)
	assert.True(t, strings.HasPrefix(stats.sent[0].text, "Stored sessions: 2\n"))
}

func TestNoSender(t *testing.T) {
	h, _ := newTestHandlers(t)
	c := newFakeContext(0, "hi")
	c.user = nil
	require.NoError(t, h.Answer(c))
	assert.Equal(t, []string{msgNoSender}, c.texts())
}

func TestRateLimitedCallback(t *testing.T) {
	h, _ := newTestHandlers(t)

	cb := newFakeContext(1, "")
	cb.callback = &tele.Callback{Data: "\f" + CallbackStop}
	require.NoError(t, h.RateLimited(cb))
	require.Len(t, cb.responses, 1)
	assert.Equal(t, msgTooFast, cb.responses[0].Text)
	assert.Empty(t, cb.sent)

	msg := newFakeContext(1, "hi")
	require.NoError(t, h.RateLimited(msg))
	assert.Equal(t, []string{msgTooFast}, msg.texts())
}

type brokenService struct {
	QuizService
}

var errBackend = errors.New("backend down")

func (brokenService) HandleMessage(context.Context, int64, string) ([]string, error) {
	return nil, errBackend
}

func (brokenService) Stop(context.Context, int64) error { return errBackend }

func TestServiceFailureApologizes(t *testing.T) {
	h := NewHandlers(brokenService{}, 0)

	c := newFakeContext(1, "hi")
	err := h.Answer(c)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, []string{msgFailure}, c.texts())

	stop := newFakeContext(1, "/stop")
	assert.ErrorIs(t, h.Stop(stop), errBackend)
	assert.Equal(t, []string{msgFailure}, stop.texts())
}

func TestRegister(t *testing.T) {
	h, _ := newTestHandlers(t)
	reg := tg.NewRegistry()
	require.NoError(t, h.Register(reg))

	var visible []string
	for _, c := range reg.ListCommands(true) {
		visible = append(visible, c.Text)
	}
	assert.Equal(t, []string{"/help", "/progress", "/start", "/stop"}, visible)
	assert.Contains(t, reg.Commands(), "/stats")
	assert.Equal(t, []string{CallbackRestart, CallbackStop}, reg.ListCallbacks())
	assert.NotNil(t, reg.TextFallback())

	key, _, ok := reg.LookupCommand("/restart")
	assert.True(t, ok)
	assert.Equal(t, "/start", key)

	noAdmin := tg.NewRegistry()
	require.NoError(t, NewHandlers(h.svc, 0).Register(noAdmin))
	assert.NotContains(t, noAdmin.Commands(), "/stats")

	assert.Error(t, h.Register(reg))
}
