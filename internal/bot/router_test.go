package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/middleware"
	"github.com/Proton-105/coinwatch-bot/internal/quote"
	"github.com/Proton-105/coinwatch-bot/internal/ratelimit"
	"github.com/Proton-105/coinwatch-bot/internal/state"
	"github.com/Proton-105/coinwatch-bot/internal/testutil"
	"github.com/Proton-105/coinwatch-bot/pkg/config"
)

const (
	testChat int64 = 100
	testUser int64 = 200
)

type mockLookups struct {
	mock.Mock
}

func (m *mockLookups) Lookup(ctx context.Context, r quote.Responder, mode, ticker string) error {
	args := m.Called(ctx, r, mode, ticker)
	return args.Error(0)
}

func (m *mockLookups) Top(ctx context.Context, r quote.Responder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockLookups) Usage(ctx context.Context, r quote.Responder, mode string) error {
	args := m.Called(ctx, r, mode)
	return args.Error(0)
}

type fixture struct {
	router  *Router
	fsm     state.StateMachine
	lookups *mockLookups
	t       i18n.Translator
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, rateLimit *middleware.RateLimitMiddleware) *fixture {
	t.Helper()

	translations, err := i18n.Load("en")
	require.NoError(t, err)

	fsm := state.NewStateMachine(state.NewMemoryStorage(time.Hour), testLogger())
	lookups := new(mockLookups)

	router := NewBotRouter(Dependencies{
		FSM:          fsm,
		Lookups:      lookups,
		Translations: translations,
		Errors:       apperrors.NewHandler(testLogger(), false),
		RateLimit:    rateLimit,
	}, testLogger())

	return &fixture{router: router, fsm: fsm, lookups: lookups, t: translations.Translator("en")}
}

func (f *fixture) current(t *testing.T) state.State {
	t.Helper()

	current, err := f.fsm.Current(context.Background(), state.SessionID{ChatID: testChat, UserID: testUser})
	require.NoError(t, err)
	return current
}

func TestRouter_PayloadButtons(t *testing.T) {
	tests := []struct {
		data   string
		mode   string
		ticker string
	}{
		{data: "price_btc", mode: state.ModePrice, ticker: "btc"},
		{data: "info_eth", mode: state.ModeInfo, ticker: "eth"},
		{data: "chart_sol", mode: state.ModeChart, ticker: "sol"},
		{data: "coin_bitcoin", mode: state.ModeInfo, ticker: "bitcoin"},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			f := newFixture(t, nil)
			f.lookups.On("Lookup", mock.Anything, mock.Anything, tt.mode, tt.ticker).Return(nil).Once()

			c := testutil.NewCallback(testChat, testUser, tt.data)
			require.NoError(t, f.router.Route(c))

			f.lookups.AssertExpectations(t)
			assert.Equal(t, 1, c.Responded())
		})
	}
}

func TestRouter_PayloadButtonDropsPendingWait(t *testing.T) {
	f := newFixture(t, nil)
	f.lookups.On("Lookup", mock.Anything, mock.Anything, state.ModePrice, "btc").Return(nil).Once()

	require.NoError(t, f.router.Route(testutil.NewCallback(testChat, testUser, "chart")))
	require.Equal(t, state.StateAwaitingChartSymbol, f.current(t))

	require.NoError(t, f.router.Route(testutil.NewCallback(testChat, testUser, "price_btc")))

	assert.Equal(t, state.StateIdle, f.current(t))
	f.lookups.AssertExpectations(t)
}

func TestRouter_AwaitingSymbolAnswersOnceThenIdle(t *testing.T) {
	tests := []struct {
		name      string
		lookupErr error
	}{
		{name: "success"},
		{name: "failure", lookupErr: apperrors.NewNotFoundError("price", "nosuchcoin")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.lookups.On("Lookup", mock.Anything, mock.Anything, state.ModePrice, "btc").Return(tt.lookupErr).Once()

			button := testutil.NewCallback(testChat, testUser, "price")
			require.NoError(t, f.router.Route(button))
			assert.Equal(t, []string{f.t.T("prompt.symbol")}, button.Texts())
			assert.True(t, button.Sent()[0].IsReply)
			assert.Equal(t, state.StateAwaitingPriceSymbol, f.current(t))

			reply := testutil.NewMessage(testChat, testUser, "btc")
			require.NoError(t, f.router.Route(reply))
			assert.Equal(t, state.StateIdle, f.current(t))
			if tt.lookupErr != nil {
				assert.Equal(t, []string{f.t.T(apperrors.MsgNotFound)}, reply.Texts())
			}

			next := testutil.NewMessage(testChat, testUser, "eth")
			require.NoError(t, f.router.Route(next))
			assert.Equal(t, []string{f.t.T("fallback.use_command")}, next.Texts())

			f.lookups.AssertExpectations(t)
		})
	}
}

func TestRouter_LookupCommands(t *testing.T) {
	f := newFixture(t, nil)
	f.lookups.On("Lookup", mock.Anything, mock.Anything, state.ModeChart, "btc").Return(nil).Once()
	f.lookups.On("Usage", mock.Anything, mock.Anything, state.ModeInfo).Return(nil).Once()
	f.lookups.On("Top", mock.Anything, mock.Anything).Return(nil).Twice()

	require.NoError(t, f.router.Route(testutil.NewMessage(testChat, testUser, "/chart btc")))
	require.NoError(t, f.router.Route(testutil.NewMessage(testChat, testUser, "/info")))
	require.NoError(t, f.router.Route(testutil.NewMessage(testChat, testUser, "/top@coinwatch_bot")))
	require.NoError(t, f.router.Route(testutil.NewCallback(testChat, testUser, "top")))

	assert.Equal(t, state.StateIdle, f.current(t))
	f.lookups.AssertExpectations(t)
}

func TestRouter_CommandClearsPendingWait(t *testing.T) {
	f := newFixture(t, nil)
	f.lookups.On("Usage", mock.Anything, mock.Anything, state.ModePrice).Return(nil).Once()

	require.NoError(t, f.router.Route(testutil.NewCallback(testChat, testUser, "info")))
	require.NoError(t, f.router.Route(testutil.NewMessage(testChat, testUser, "/price")))

	assert.Equal(t, state.StateIdle, f.current(t))
	f.lookups.AssertExpectations(t)
}

func TestRouter_StartAndCancel(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.router.Route(testutil.NewCallback(testChat, testUser, "chart")))

	cancel := testutil.NewMessage(testChat, testUser, "/cancel")
	require.NoError(t, f.router.Route(cancel))
	assert.Equal(t, []string{f.t.T("cancel.done")}, cancel.Texts())
	assert.Equal(t, state.StateIdle, f.current(t))

	start := testutil.NewMessage(testChat, testUser, "/start")
	require.NoError(t, f.router.Route(start))
	sent := start.Sent()
	require.Len(t, sent, 1)
	assert.True(t, sent[0].IsReply)
	assert.Contains(t, sent[0].Text(), `<a href="tg://user?id=200">Test</a>`)
	require.NotNil(t, sent[0].Markup())
	assert.Len(t, sent[0].Markup().InlineKeyboard, 2)

	restart := testutil.NewCallback(testChat, testUser, "restart")
	require.NoError(t, f.router.Route(restart))
	assert.Len(t, restart.Sent(), 1)
}

func TestRouter_UnknownInput(t *testing.T) {
	f := newFixture(t, nil)

	text := testutil.NewMessage(testChat, testUser, "hello")
	require.NoError(t, f.router.Route(text))
	require.Len(t, text.Sent(), 1)
	assert.Equal(t, f.t.T("fallback.use_command"), text.Sent()[0].Text())
	assert.NotNil(t, text.Sent()[0].Markup())

	unknown := testutil.NewCallback(testChat, testUser, "bogus")
	require.NoError(t, f.router.Route(unknown))
	assert.Empty(t, unknown.Sent())
	assert.Equal(t, 1, unknown.Responded())
}

func TestRouter_RecoversFromPanics(t *testing.T) {
	f := newFixture(t, nil)
	f.lookups.On("Top", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	}).Return(nil)

	c := testutil.NewMessage(testChat, testUser, "/top")
	require.NoError(t, f.router.Route(c))

	assert.Equal(t, []string{f.t.T(apperrors.MsgGeneric)}, c.Texts())
}

func TestRouter_UnexpectedErrorsBecomeGenericMessage(t *testing.T) {
	f := newFixture(t, nil)
	f.lookups.On("Top", mock.Anything, mock.Anything).Return(errors.New("send failed"))

	c := testutil.NewMessage(testChat, testUser, "/top")
	require.NoError(t, f.router.Route(c))

	assert.Equal(t, []string{f.t.T(apperrors.MsgGeneric)}, c.Texts())
}

func TestRouter_RateLimited(t *testing.T) {
	rules, err := ratelimit.NewRules(config.RateLimitConfig{
		Enabled: true,
		Lookups: config.RateLimitRule{Limit: 1, Window: "1m"},
	})
	require.NoError(t, err)

	f := newFixture(t, middleware.NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), rules, testLogger()))
	f.lookups.On("Lookup", mock.Anything, mock.Anything, state.ModePrice, "btc").Return(nil).Once()

	require.NoError(t, f.router.Route(testutil.NewMessage(testChat, testUser, "/price btc")))

	second := testutil.NewMessage(testChat, testUser, "/price btc")
	require.NoError(t, f.router.Route(second))

	assert.Equal(t, []string{f.t.T(apperrors.MsgRateLimited)}, second.Texts())
	f.lookups.AssertExpectations(t)
}

func TestRouter_UnknownCommandIsNotTakenAsTicker(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.router.Route(testutil.NewCallback(testChat, testUser, "price")))
	require.Equal(t, state.StateAwaitingPriceSymbol, f.current(t))

	help := testutil.NewMessage(testChat, testUser, "/help")
	require.NoError(t, f.router.Route(help))

	assert.Equal(t, []string{f.t.T("fallback.use_command")}, help.Texts())
	assert.Equal(t, state.StateIdle, f.current(t))
	f.lookups.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_ThrottledAnswerStillEndsWait(t *testing.T) {
	rules, err := ratelimit.NewRules(config.RateLimitConfig{
		Enabled: true,
		Lookups: config.RateLimitRule{Limit: 2, Window: "1m"},
	})
	require.NoError(t, err)

	f := newFixture(t, middleware.NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(), rules, testLogger()))
	f.lookups.On("Lookup", mock.Anything, mock.Anything, state.ModePrice, "btc").Return(nil).Once()

	require.NoError(t, f.router.Route(testutil.NewMessage(testChat, testUser, "/price btc")))
	require.NoError(t, f.router.Route(testutil.NewCallback(testChat, testUser, "price")))
	require.Equal(t, state.StateAwaitingPriceSymbol, f.current(t))

	reply := testutil.NewMessage(testChat, testUser, "btc")
	require.NoError(t, f.router.Route(reply))

	assert.Equal(t, []string{f.t.T(apperrors.MsgRateLimited)}, reply.Texts())
	assert.Equal(t, state.StateIdle, f.current(t))
	f.lookups.AssertExpectations(t)
}
