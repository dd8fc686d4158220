package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/calibration"
	"github.com/polyforecast/polyforecast/internal/forecast"
	"github.com/polyforecast/polyforecast/internal/markets"
	"github.com/polyforecast/polyforecast/internal/news"
	"github.com/polyforecast/polyforecast/internal/storage"
	"github.com/polyforecast/polyforecast/pkg/types"
)

const marketListLimit = 10

const unauthorizedReply = "You are not authorized to use this bot."

// Analyzer runs the forecasting pipeline for one market.
type Analyzer interface {
	AnalyzeMarket(ctx context.Context, market *types.Market, requestedBy string) (*forecast.Result, error)
}

// NewsSearcher serves the /news command.
type NewsSearcher interface {
	Fetch(ctx context.Context, query string, maxArticles int) []news.Article
}

// Bot serves the Telegram command interface via long polling. Each
// update is handled in its own goroutine so a slow /analyze never
// blocks other users.
type Bot struct {
	api        *tgbotapi.BotAPI
	engine     Analyzer
	markets    markets.Source
	news       NewsSearcher
	tracker    *calibration.Tracker
	store      storage.Storage
	authorized map[int64]struct{}
	logger     *zap.Logger
}

// Config holds Telegram bot configuration. An empty AuthorizedUsers
// list means open access.
type Config struct {
	Token           string
	AuthorizedUsers []int64
	Engine          Analyzer
	Markets         markets.Source
	News            NewsSearcher
	Tracker         *calibration.Tracker
	Store           storage.Storage
	Logger          *zap.Logger
}

// New creates the Telegram bot and verifies the token against the API.
func New(cfg *Config) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg.Markets == nil {
		return nil, fmt.Errorf("markets source cannot be nil")
	}
	if cfg.News == nil {
		return nil, fmt.Errorf("news searcher cannot be nil")
	}
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	authorized := make(map[int64]struct{}, len(cfg.AuthorizedUsers))
	for _, id := range cfg.AuthorizedUsers {
		authorized[id] = struct{}{}
	}

	cfg.Logger.Info("telegram-bot-created",
		zap.String("username", api.Self.UserName),
		zap.Int("authorized-users", len(authorized)))

	return &Bot{
		api:        api,
		engine:     cfg.Engine,
		markets:    cfg.Markets,
		news:       cfg.News,
		tracker:    cfg.Tracker,
		store:      cfg.Store,
		authorized: authorized,
		logger:     cfg.Logger,
	}, nil
}

// Run polls for updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("telegram-bot-polling")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message

	reply := b.replyTo(ctx, msg)
	if reply == "" {
		return
	}

	for _, chunk := range splitMessage(reply) {
		out := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		out.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(out); err != nil {
			// HTML parse failures degrade to plain text.
			out.ParseMode = ""
			if _, err := b.api.Send(out); err != nil {
				b.logger.Error("telegram-send-failed",
					zap.Int64("chat-id", msg.Chat.ID),
					zap.Error(err))
				return
			}
		}
	}
}

// replyTo authorizes the sender and routes the command. Unauthorized
// users get a rejection reply instead of silence.
func (b *Bot) replyTo(ctx context.Context, msg *tgbotapi.Message) string {
	userID := msg.From.ID

	if !b.isAuthorized(userID) {
		b.logger.Warn("unauthorized-command",
			zap.Int64("user-id", userID),
			zap.String("command", msg.Command()))
		return unauthorizedReply
	}

	CommandsTotal.WithLabelValues(msg.Command()).Inc()

	return b.dispatch(ctx, msg.Command(), msg.CommandArguments(), userID)
}

// isAuthorized checks the allow list; an empty list is open access.
func (b *Bot) isAuthorized(userID int64) bool {
	if len(b.authorized) == 0 {
		return true
	}
	_, ok := b.authorized[userID]
	return ok
}
