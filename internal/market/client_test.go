package market

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Proton-105/coinwatch-bot/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Options{
		BaseURL: srv.URL,
		APIKey:  "demo-key",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestClient_FetchPrice(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		wantPrice float64
		wantKind  apperrors.Kind
	}{
		{name: "found", body: `{"bitcoin":{"usd":43250.5}}`, wantPrice: 43250.5},
		{name: "id absent", body: `{}`, wantKind: apperrors.KindNotFound},
		{name: "usd absent", body: `{"bitcoin":{}}`, wantKind: apperrors.KindNotFound},
		{name: "usd null", body: `{"bitcoin":{"usd":null}}`, wantKind: apperrors.KindNotFound},
		{name: "garbage", body: `not json`, wantKind: apperrors.KindUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/simple/price", r.URL.Path)
				assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
				assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
				assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
				_, _ = io.WriteString(w, tc.body)
			})

			price, err := client.FetchPrice(context.Background(), "bitcoin")
			if tc.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tc.wantKind, apperrors.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tc.wantPrice, price, 1e-9)
		})
	}
}

func TestClient_FetchSnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "1", q.Get("per_page"))
		assert.Equal(t, "1", q.Get("page"))

		if q.Get("ids") != "bitcoin" {
			_, _ = io.WriteString(w, `[]`)
			return
		}

		_, _ = io.WriteString(w, `[{
			"id": "bitcoin",
			"symbol": "btc",
			"name": "Bitcoin",
			"current_price": 43250.5,
			"price_change_percentage_24h": -2.345,
			"total_volume": 12345678,
			"market_cap": 850000000000,
			"market_cap_rank": 1
		}]`)
	})

	snapshot, err := client.FetchSnapshot(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", snapshot.Name)
	assert.Equal(t, "btc", snapshot.Symbol)
	assert.InDelta(t, -2.345, snapshot.Change24hPct, 1e-9)
	assert.InDelta(t, 850000000000.0, snapshot.MarketCap, 1)

	_, err = client.FetchSnapshot(context.Background(), "nosuchcoin")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestClient_FetchSeries(t *testing.T) {
	t.Run("parses samples", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
			assert.Equal(t, "7", r.URL.Query().Get("days"))
			_, _ = io.WriteString(w, `{"prices":[[1700000000000,100.5],[1700003600000,101.25],[1700007200000]]}`)
		})

		series, err := client.FetchSeries(context.Background(), "bitcoin", 7)
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, time.UnixMilli(1700000000000).UTC(), series[0].Time)
		assert.Equal(t, []float64{100.5, 101.25}, series.Prices())
	})

	t.Run("empty prices", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"prices":[]}`)
		})

		series, err := client.FetchSeries(context.Background(), "bitcoin", 7)
		assert.Nil(t, series)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("prices absent", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{}`)
		})

		_, err := client.FetchSeries(context.Background(), "bitcoin", 0)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})
}

func TestClient_FetchTop(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "2", q.Get("per_page"))
		assert.Empty(t, q.Get("ids"))
		_, _ = io.WriteString(w, `[
			{"id":"bitcoin","symbol":"btc","current_price":43000},
			{"id":"ethereum","symbol":"eth","current_price":2300},
			{"id":"tether","symbol":"usdt","current_price":1}
		]`)
	})

	top, err := client.FetchTop(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "bitcoin", top[0].ID)
	assert.Equal(t, "ethereum", top[1].ID)
}

func TestClient_Failures(t *testing.T) {
	t.Run("non-2xx is upstream error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		})

		_, err := client.FetchPrice(context.Background(), "bitcoin")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
		assert.Equal(t, "bitcoin", appErr.Coin)
	})

	t.Run("unreachable host is network error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		client := NewClient(Options{BaseURL: srv.URL})
		_, err := client.FetchSnapshot(context.Background(), "bitcoin")
		assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))
	})

	t.Run("timeout is network error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		t.Cleanup(srv.Close)

		client := NewClient(Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
		_, err := client.FetchTop(context.Background(), 10)
		assert.Equal(t, apperrors.KindNetwork, apperrors.KindOf(err))
	})
}

func TestClient_Ping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping", r.URL.Path)
		_, _ = io.WriteString(w, `{"gecko_says":"(V3) To the Moon!"}`)
	})

	assert.NoError(t, client.Ping(context.Background()))
}
