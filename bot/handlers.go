package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/quizbot/core/buildinfo"
	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/keyboard"
	"github.com/m3rciful/quizbot/quiz"

	tele "gopkg.in/telebot.v4"
)

const component = "bot"

const (
	// CallbackStop is the unique key of the "stop quiz" button.
	CallbackStop = "quiz_stop"
	// CallbackRestart is the unique key of the "start again" button.
	CallbackRestart = "quiz_restart"
)

const (
	stopButtonText    = "❌ Stop quiz"
	restartButtonText = "🔁 Start again"

	msgFailure        = "Sorry, something went wrong. Please try again in a moment."
	msgStopped        = "Quiz stopped. Your answers were discarded. Send /start to begin again."
	msgNotStarted     = "You have not started the quiz yet. Send any message or /start to begin."
	msgNoSender       = "This bot only works in private chats."
	msgTooFast        = "Slow down a little, please."
	msgUnknownCommand = "Unknown command. Send /help to see what I can do."
	msgTextOnly       = "Please answer with a text message."
	msgAdminOnly      = "This command is for the bot admin."
)

// QuizService is the part of quiz.Service used by the handlers.
type QuizService interface {
	Questions() quiz.QuestionSet
	HandleMessage(ctx context.Context, userID int64, text string) ([]string, error)
	Restart(ctx context.Context, userID int64) ([]string, error)
	Stop(ctx context.Context, userID int64) error
	Progress(ctx context.Context, userID int64) (quiz.Progress, error)
	Stats(ctx context.Context) (int, error)
}

// Handlers turns Telegram updates into quiz service calls.
type Handlers struct {
	svc     QuizService
	adminID int64
}

// NewHandlers builds handlers around the quiz service. A zero adminID disables /stats.
func NewHandlers(svc QuizService, adminID int64) *Handlers {
	return &Handlers{svc: svc, adminID: adminID}
}

type namedCommand struct {
	name string
	cmd  commands.Command
}

// Register adds the quiz commands, callbacks and text fallback to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := []namedCommand{
		{"/start", commands.Command{
			Handler:     h.Start,
			Description: "Start the quiz from the first question",
			Aliases:     []string{"/restart"},
		}},
		{"/stop", commands.Command{Handler: h.Stop, Description: "Stop the quiz and discard answers"}},
		{"/progress", commands.Command{Handler: h.Progress, Description: "Show how far you are"}},
		{"/help", commands.Command{Handler: h.Help, Description: "How the quiz works"}},
	}
	if h.adminID != 0 {
		cmds = append(cmds, namedCommand{"/stats", commands.Command{
			Handler:     h.Stats,
			Description: "Active quiz sessions",
			AdminOnly:   true,
			Hidden:      true,
		}})
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}

	if err := reg.RegisterCallback(CallbackStop, h.Stop); err != nil {
		return err
	}
	if err := reg.RegisterCallback(CallbackRestart, h.Start); err != nil {
		return err
	}
	reg.SetTextFallback(h.Answer)
	return nil
}

// Answer treats the message text as the answer to the current question.
func (h *Handlers) Answer(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return tghelpers.SendText(c, msgNoSender)
	}
	ctx := tghelpers.BuildContext(c)
	replies, err := h.svc.HandleMessage(ctx, user.ID, c.Text())
	if err != nil {
		return h.fail(ctx, c, "answer", err)
	}
	return h.sendReplies(c, replies)
}

// Start discards any session and opens a new quiz.
func (h *Handlers) Start(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return tghelpers.SendText(c, msgNoSender)
	}
	ctx := tghelpers.BuildContext(c)
	replies, err := h.svc.Restart(ctx, user.ID)
	if err != nil {
		return h.fail(ctx, c, "restart", err)
	}
	return h.sendReplies(c, replies)
}

// Stop discards the session of the sender.
func (h *Handlers) Stop(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return tghelpers.SendText(c, msgNoSender)
	}
	ctx := tghelpers.BuildContext(c)
	if err := h.svc.Stop(ctx, user.ID); err != nil {
		return h.fail(ctx, c, "stop", err)
	}
	return tghelpers.SendText(c, msgStopped, restartMarkup())
}

// Progress reports the position of the sender in the quiz.
func (h *Handlers) Progress(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return tghelpers.SendText(c, msgNoSender)
	}
	ctx := tghelpers.BuildContext(c)
	p, err := h.svc.Progress(ctx, user.ID)
	if err != nil {
		return h.fail(ctx, c, "progress", err)
	}
	return tghelpers.SendText(c, progressText(p))
}

// Help explains the quiz.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.SendText(c, helpText(h.svc.Questions().Len()))
}

// Stats reports the number of stored sessions. Admin only.
func (h *Handlers) Stats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	n, err := h.svc.Stats(ctx)
	if err != nil {
		return h.fail(ctx, c, "stats", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Stored sessions: %d\nBuild: %s", n, buildinfo.String()))
}

// RateLimited answers updates dropped by the rate limiter.
func (h *Handlers) RateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgTooFast})
	}
	return tghelpers.SendText(c, msgTooFast)
}

// AdminRejected answers non-admin callers of admin commands.
func (h *Handlers) AdminRejected(c tele.Context) error {
	return tghelpers.SendText(c, msgAdminOnly)
}

// UnknownCommand answers slash commands that are not registered.
func (h *Handlers) UnknownCommand(c tele.Context) error {
	return tghelpers.SendText(c, msgUnknownCommand)
}

// TextOnly answers stickers, photos and other non-text messages.
func (h *Handlers) TextOnly(c tele.Context) error {
	return tghelpers.SendText(c, msgTextOnly)
}

// sendReplies sends replies in order. A trailing question gets the stop
// button, anything else that ends a turn gets the restart button.
func (h *Handlers) sendReplies(c tele.Context, replies []string) error {
	if len(replies) == 0 {
		return nil
	}
	markup := restartMarkup()
	if h.svc.Questions().IndexOf(replies[len(replies)-1]) >= 0 {
		markup = stopMarkup()
	}
	return tghelpers.SendTexts(c, replies, markup)
}

func (h *Handlers) fail(ctx context.Context, c tele.Context, op string, err error) error {
	logger.Error(ctx, component, "handler.fail",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.String("err", err.Error()),
	)
	if sendErr := tghelpers.SendText(c, msgFailure); sendErr != nil {
		return fmt.Errorf("%s: %w (reply: %v)", op, err, sendErr)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func stopMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons(keyboard.InlineBtn{Text: stopButtonText, Unique: CallbackStop})
}

func restartMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons(keyboard.InlineBtn{Text: restartButtonText, Unique: CallbackRestart})
}

func progressText(p quiz.Progress) string {
	i, ok := p.Current.Index()
	if !ok {
		return msgNotStarted
	}
	return fmt.Sprintf("You are on question %d of %d and have answered %d so far.", i+1, p.Total, p.Answered)
}

func helpText(total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This is a %d question quiz.\n", total)
	b.WriteString("Send any message to begin, then answer each question with a text message.\n\n")
	b.WriteString("/start - start over from the first question\n")
	b.WriteString("/stop - stop the quiz and discard answers\n")
	b.WriteString("/progress - show how far you are\n")
	b.WriteString("/help - show this message")
	return b.String()
}
