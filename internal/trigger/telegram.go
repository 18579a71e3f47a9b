package trigger

import (
	"context"
	"errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qepting91/reddit-image-relay/internal/domain"
	"github.com/qepting91/reddit-image-relay/internal/pipeline"
)

// Runner is the pipeline entry point invoked by a command.
type Runner interface {
	Run(ctx context.Context) (*domain.RunStats, error)
}

// Listener long-polls the Bot API and runs the pipeline for every message
// carrying the configured command. Commands are handled one at a time.
type Listener struct {
	bot     *tgbotapi.BotAPI
	runner  Runner
	command string
	logger  *slog.Logger
}

func NewListener(bot *tgbotapi.BotAPI, runner Runner, command string, logger *slog.Logger) *Listener {
	return &Listener{
		bot:     bot,
		runner:  runner,
		command: command,
		logger:  logger.With("component", "trigger", "command", command),
	}
}

// Listen blocks until ctx is cancelled.
func (l *Listener) Listen(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := l.bot.GetUpdatesChan(u)
	defer l.bot.StopReceivingUpdates()

	l.logger.Info("listening for commands", "bot", l.bot.Self.UserName)
	return l.Serve(ctx, updates)
}

// Serve dispatches updates until ctx is done or the channel closes.
func (l *Listener) Serve(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			l.handle(ctx, update)
		}
	}
}

func (l *Listener) handle(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil || !msg.IsCommand() || msg.Command() != l.command {
		return
	}

	logger := l.logger.With("chat_id", msg.Chat.ID)
	if msg.From != nil {
		logger = logger.With("from", msg.From.UserName)
	}
	logger.Info("command received")

	stats, err := l.runner.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		logger.Warn("command ignored, run already in progress")
	case err != nil:
		logger.Error("run failed", "error", err)
	default:
		logger.Info("command handled", "published", stats.Published())
	}
}
