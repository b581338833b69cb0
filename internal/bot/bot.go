// Package bot connects Telegram updates to the coin lookup handlers.
package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/handlers"
	"github.com/Proton-105/coinwatch-bot/internal/bot/keyboard"
	errors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/middleware"
	"github.com/Proton-105/coinwatch-bot/internal/state"
	"github.com/Proton-105/coinwatch-bot/pkg/config"
)

// Dependencies are the services the handlers are built from.
type Dependencies struct {
	FSM          state.StateMachine
	Lookups      handlers.Lookups
	Translations *i18n.Manager
	Errors       *errors.Handler
	// RateLimit is optional.
	RateLimit *middleware.RateLimitMiddleware
}

// Bot wraps telebot.Bot with the router that serves every update.
type Bot struct {
	telebot      *telebot.Bot
	router       *Router
	translations *i18n.Manager
	log          *slog.Logger
}

// New builds a telegram bot instance configured according to the application settings.
// It contacts Telegram to authenticate the token.
func New(cfg config.BotConfig, deps Dependencies, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Token,
		OnError: func(err error, c telebot.Context) {
			attrs := []any{slog.Any("error", err)}
			if c != nil {
				attrs = append(attrs, slog.String("action", handlers.ActionOf(c)))
			}
			log.Error("unhandled bot error", attrs...)
		},
	}

	if cfg.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:      tb,
		router:       NewBotRouter(deps, log),
		translations: deps.Translations,
		log:          log,
	}

	tb.Handle(telebot.OnText, b.router.Route)
	tb.Handle(telebot.OnCallback, b.router.Route)

	return b, nil
}

// NewBotRouter registers every command, button and conversation state.
func NewBotRouter(deps Dependencies, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	dispatcher := NewDispatcher(deps.FSM, log)
	router := NewRouter(dispatcher, log)

	router.Use(RecoveryMiddleware(log, deps.Errors, deps.Translations))
	router.Use(LoggingMiddleware(log))
	router.Use(ErrorHandlingMiddleware(deps.Errors, deps.Translations))
	router.Use(middleware.Metrics)
	if deps.RateLimit != nil {
		router.Use(deps.RateLimit.Handle)
	}

	start := handlers.NewStartHandler(deps.FSM, deps.Translations, log)
	top := handlers.NewTopHandler(deps.Lookups, deps.FSM, log)

	router.RegisterCommand(CommandStart, start)
	router.RegisterCommand(CommandRestart, start)
	router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(deps.FSM, deps.Translations, log))
	router.RegisterCommand(CommandTop, top)
	router.RegisterCallback(keyboard.ModeTop, handlers.NewTopCallback(top))
	router.RegisterCallback(keyboard.ModeRestart, handlers.NewRestartCallback(start))

	commands := map[string]string{
		state.ModePrice: CommandPrice,
		state.ModeInfo:  CommandInfo,
		state.ModeChart: CommandChart,
	}
	for mode, command := range commands {
		awaiting, _ := state.AwaitingStateFor(mode)

		router.RegisterCommand(command, handlers.NewLookupCommand(mode, deps.Lookups, deps.FSM, log))
		router.RegisterCallback(mode, handlers.NewModeCallback(mode, deps.FSM, deps.Translations, log))
		router.RegisterPayload(mode, handlers.NewPayloadCallback(mode, deps.Lookups, deps.FSM, log))
		dispatcher.RegisterStateHandler(awaiting, handlers.NewSymbolReplyHandler(mode, deps.Lookups))
	}

	router.RegisterPayload(keyboard.ModeCoin, handlers.NewPayloadCallback(state.ModeInfo, deps.Lookups, deps.FSM, log))
	router.SetDefault(handlers.NewFallbackHandler(deps.Translations))

	return router
}

// PublishCommands sets the Telegram command menu for every catalog language.
func (b *Bot) PublishCommands() error {
	if err := b.telebot.SetCommands(Commands(b.translations.Translator(""))); err != nil {
		return fmt.Errorf("set default commands: %w", err)
	}

	for _, lang := range b.translations.Languages() {
		if err := b.telebot.SetCommands(Commands(b.translations.Translator(lang)), lang); err != nil {
			return fmt.Errorf("set %s commands: %w", lang, err)
		}
	}

	return nil
}

// Start runs the telegram bot event loop. It blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("telegram bot started", slog.String("username", b.telebot.Me.Username))
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}
