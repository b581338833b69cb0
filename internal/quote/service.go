// Package quote runs the coin lookups behind every command and button:
// resolve the ticker, query the market, format or render, reply.
package quote

import (
	"context"
	stdErrors "errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/coinwatch-bot/internal/bot/keyboard"
	"github.com/Proton-105/coinwatch-bot/internal/chart"
	"github.com/Proton-105/coinwatch-bot/internal/coin"
	apperrors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/internal/format"
	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/market"
)

// MarketClient is the subset of market.Client used by lookups.
type MarketClient interface {
	FetchPrice(ctx context.Context, id string) (float64, error)
	FetchSnapshot(ctx context.Context, id string) (*market.Snapshot, error)
	FetchSeries(ctx context.Context, id string, days int) (market.Series, error)
	FetchTop(ctx context.Context, n int) ([]market.Snapshot, error)
}

// ChartRenderer turns a series into an encoded image.
type ChartRenderer interface {
	Render(series market.Series, symbol string) ([]byte, error)
}

// ErrorReporter converts a failure into the text shown to the user.
type ErrorReporter interface {
	Handle(ctx context.Context, err error, t i18n.Translator) string
}

// Options tune lookup parameters.
type Options struct {
	SeriesDays int
	TopCount   int
}

// Service performs lookups and always answers the user, reporting failures
// as localized messages. Only transport errors are returned.
type Service struct {
	market  MarketClient
	charts  ChartRenderer
	i18n    *i18n.Manager
	reports ErrorReporter
	log     *slog.Logger
	opts    Options
}

// NewService wires a lookup service.
func NewService(client MarketClient, charts ChartRenderer, translations *i18n.Manager, reports ErrorReporter, log *slog.Logger, opts Options) *Service {
	if log == nil {
		log = slog.Default()
	}
	if opts.SeriesDays <= 0 {
		opts.SeriesDays = market.DefaultSeriesDays
	}
	if opts.TopCount <= 0 {
		opts.TopCount = market.DefaultTopCount
	}

	return &Service{
		market:  client,
		charts:  charts,
		i18n:    translations,
		reports: reports,
		log:     log.With(slog.String("component", "quote")),
		opts:    opts,
	}
}

// Lookup runs the lookup selected by mode for ticker.
func (s *Service) Lookup(ctx context.Context, r Responder, mode, ticker string) error {
	switch mode {
	case keyboard.ModePrice:
		return s.Price(ctx, r, ticker)
	case keyboard.ModeInfo, keyboard.ModeCoin:
		return s.Info(ctx, r, ticker)
	case keyboard.ModeChart:
		return s.Chart(ctx, r, ticker)
	default:
		return s.fail(ctx, r, apperrors.NewUnknownError("quote.lookup", ticker, stdErrors.New("unknown lookup mode "+mode)))
	}
}

// Price replies with the spot price of ticker.
func (s *Service) Price(ctx context.Context, r Responder, ticker string) error {
	const op = "quote.price"

	ticker = coin.Normalize(ticker)
	if ticker == "" {
		return s.usage(ctx, r, op, keyboard.ModePrice)
	}

	id := coin.Resolve(ticker)
	price, err := s.market.FetchPrice(ctx, id.String())
	if err != nil {
		return s.fail(ctx, r, err)
	}

	return r.Reply(format.Price(s.translator(r), ticker, price), nil)
}

// Info replies with the market snapshot of ticker.
func (s *Service) Info(ctx context.Context, r Responder, ticker string) error {
	const op = "quote.info"

	ticker = coin.Normalize(ticker)
	if ticker == "" {
		return s.usage(ctx, r, op, keyboard.ModeInfo)
	}

	id := coin.Resolve(ticker)
	snapshot, err := s.market.FetchSnapshot(ctx, id.String())
	if err != nil {
		return s.fail(ctx, r, err)
	}

	return r.Reply(format.Snapshot(s.translator(r), *snapshot), nil)
}

// Chart replies with a rendered price chart of ticker.
func (s *Service) Chart(ctx context.Context, r Responder, ticker string) error {
	const op = "quote.chart"

	ticker = coin.Normalize(ticker)
	if ticker == "" {
		return s.usage(ctx, r, op, keyboard.ModeChart)
	}

	id := coin.Resolve(ticker)
	series, err := s.market.FetchSeries(ctx, id.String(), s.opts.SeriesDays)
	if err != nil {
		return s.fail(ctx, r, err)
	}

	png, err := s.charts.Render(series, ticker)
	if err != nil {
		if stdErrors.Is(err, chart.ErrNoData) {
			return s.fail(ctx, r, apperrors.NewNoDataError(op, id.String()))
		}
		return s.fail(ctx, r, apperrors.NewUnknownError(op, id.String(), err))
	}

	return r.ReplyPhoto(png)
}

// Top replies with the market-cap leaderboard as buttons.
func (s *Service) Top(ctx context.Context, r Responder) error {
	const op = "quote.top"

	coins, err := s.market.FetchTop(ctx, s.opts.TopCount)
	if err != nil {
		return s.fail(ctx, r, err)
	}

	markup, err := keyboard.TopCoins(coins)
	if err != nil {
		return s.fail(ctx, r, apperrors.NewUnknownError(op, "", err))
	}

	return r.Reply(format.TopHeader(s.translator(r)), markup)
}

// Usage replies with the usage prompt for mode and the popular ticker suggestions.
func (s *Service) Usage(ctx context.Context, r Responder, mode string) error {
	return s.usage(ctx, r, "quote.usage", mode)
}

func (s *Service) usage(ctx context.Context, r Responder, op, mode string) error {
	var markup *telebot.ReplyMarkup
	if m, err := keyboard.Suggestions(mode); err == nil {
		markup = m
	} else {
		s.log.Warn("failed to build suggestions", slog.String("mode", mode), slog.Any("error", err))
	}

	return r.Reply(s.report(ctx, r, apperrors.NewUserInputError(op, "usage."+mode)), markup)
}

func (s *Service) fail(ctx context.Context, r Responder, err error) error {
	return r.Reply(s.report(ctx, r, err), nil)
}

// report logs err and returns the localized text for it.
func (s *Service) report(ctx context.Context, r Responder, err error) string {
	t := s.translator(r)

	if s.reports != nil {
		return s.reports.Handle(ctx, err, t)
	}

	s.log.ErrorContext(ctx, "lookup failed", slog.Any("error", err))

	var appErr *apperrors.AppError
	if stdErrors.As(err, &appErr) && appErr.UserMessage != "" {
		return t.T(appErr.UserMessage)
	}
	return t.T(apperrors.MsgGeneric)
}

func (s *Service) translator(r Responder) i18n.Translator {
	return s.i18n.Translator(r.Language())
}
