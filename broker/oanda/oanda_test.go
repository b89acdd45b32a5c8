package oanda

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rustyeddy/supertrend/broker"
	"github.com/rustyeddy/supertrend/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(t *testing.T, h http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := &Client{BaseURL: srv.URL, Token: "test-token", AccountID: "001-001", HTTP: srv.Client()}
	meta, _ := market.Lookup("EUR_USD")
	g, err := NewGateway(c, meta)
	require.NoError(t, err)
	return g
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	u, err := BaseURL("practice")
	require.NoError(t, err)
	assert.Equal(t, PracticeURL, u)

	_, err = BaseURL("live")
	assert.Error(t, err)

	_, err = BaseURL("moon")
	assert.Error(t, err)
}

func TestSubmitMarketOrder(t *testing.T) {
	t.Parallel()

	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/accounts/001-001/orders", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body struct {
			Order marketOrder `json:"order"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "MARKET", body.Order.Type)
		assert.Equal(t, "-20", body.Order.Units)
		assert.Equal(t, "0.00500", body.Order.StopLossOnFill.Distance)
		assert.Equal(t, "1.18500", body.Order.TakeProfitOnFill.Price)
		assert.Equal(t, "ST", body.Order.TradeClientExtensions.Tag)

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"orderFillTransaction":{"id":"7","time":"2024-05-06T15:00:01Z","price":"1.19500",
			"tradeOpened":{"tradeID":"8","units":"-20","price":"1.19500"}}}`)
	})
	require.NoError(t, g.UpdateBar(market.Bar{Close: 1.1950}))

	fill, err := g.SubmitMarketOrder(context.Background(), broker.OrderRequest{
		Instrument: "EUR_USD", Side: market.Short, Units: 20, Label: "ST",
		StopLossPips: 50, TakeProfitPips: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "8", fill.PositionID)
	assert.Equal(t, 20.0, fill.Units)
	assert.Equal(t, 1.195, fill.Price)
	assert.Equal(t, market.Short, fill.Side)
	assert.Equal(t, time.Date(2024, 5, 6, 15, 0, 1, 0, time.UTC), fill.Time.UTC())
}

func TestSubmitMarketOrderFarTakeProfitOmitted(t *testing.T) {
	t.Parallel()

	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, ok := body["order"]["takeProfitOnFill"]
		assert.False(t, ok)
		io.WriteString(w, `{"orderFillTransaction":{"tradeOpened":{"tradeID":"1","units":"-5","price":"1.2"}}}`)
	})
	require.NoError(t, g.UpdateBar(market.Bar{Close: 1.2}))

	_, err := g.SubmitMarketOrder(context.Background(), broker.OrderRequest{
		Instrument: "EUR_USD", Side: market.Short, Units: 5, Label: "ST",
		StopLossPips: 50, TakeProfitPips: 100000,
	})
	require.NoError(t, err)
}

func TestSubmitMarketOrderRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"cancelled", http.StatusCreated, `{"orderCancelTransaction":{"reason":"INSUFFICIENT_MARGIN"}}`},
		{"rejected", http.StatusBadRequest, `{"orderRejectTransaction":{"reason":"STOP_LOSS_ON_FILL_LOSS"},"errorMessage":"bad stop"}`},
		{"no fill", http.StatusCreated, `{}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := g.SubmitMarketOrder(context.Background(), broker.OrderRequest{
				Instrument: "EUR_USD", Side: market.Long, Units: 1, Label: "ST", StopLossPips: 10,
			})
			assert.ErrorIs(t, err, broker.ErrOrderRejected)
		})
	}
}

func TestSubmitMarketOrderWrongInstrument(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	_, err := g.SubmitMarketOrder(context.Background(), broker.OrderRequest{
		Instrument: "GBP_USD", Side: market.Long, Units: 1, Label: "ST", StopLossPips: 10,
	})
	assert.ErrorIs(t, err, broker.ErrOrderRejected)
	assert.Zero(t, calls.Load())
}

func TestPositions(t *testing.T) {
	t.Parallel()

	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/accounts/001-001/openTrades", r.URL.Path)
		io.WriteString(w, `{"trades":[
			{"id":"12","instrument":"EUR_USD","price":"1.20500","openTime":"2024-05-06T15:00:00Z","currentUnits":"-20",
			 "unrealizedPL":"-5.0000","clientExtensions":{"tag":"ST"},"stopLossOrder":{"price":"1.21000"}},
			{"id":"11","instrument":"EUR_USD","price":"1.20000","currentUnits":"10","unrealizedPL":"1.5",
			 "clientExtensions":{"tag":"manual"}},
			{"id":"10","instrument":"GBP_USD","price":"1.30000","currentUnits":"10","clientExtensions":{"tag":"ST"}},
			{"id":"9","instrument":"EUR_USD","price":"1.19000","currentUnits":"7","unrealizedPL":"2",
			 "clientExtensions":{"tag":"ST"},"stopLossOrder":{"distance":"0.00300"},"takeProfitOrder":{"price":"1.20000"}}
		]}`)
	})

	ps, err := g.Positions(context.Background(), "ST")
	require.NoError(t, err)
	require.Len(t, ps, 2)

	assert.Equal(t, "9", ps[0].ID, "oldest first")
	assert.Equal(t, market.Long, ps[0].Side)
	assert.InDelta(t, 30, ps[0].StopLossPips, 1e-6)
	assert.InDelta(t, 100, ps[0].TakeProfitPips, 1e-6)

	assert.Equal(t, "12", ps[1].ID)
	assert.Equal(t, market.Short, ps[1].Side)
	assert.Equal(t, 20.0, ps[1].Units)
	assert.Equal(t, -5.0, ps[1].NetProfit)
	assert.InDelta(t, 50, ps[1].StopLossPips, 1e-6)

	all, err := g.Positions(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestClosePosition(t *testing.T) {
	t.Parallel()

	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v3/accounts/001-001/trades/12/close", r.URL.Path)
		io.WriteString(w, `{"orderFillTransaction":{"price":"1.20550","time":"2024-05-06T16:00:00Z",
			"pl":"-1.0000","financing":"-0.2000","commission":"0.3000"}}`)
	})

	rep, err := g.ClosePosition(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, "12", rep.PositionID)
	assert.Equal(t, 1.2055, rep.Price)
	assert.InDelta(t, -1.5, rep.NetProfit, 1e-9)
}

func TestClosePositionNotFound(t *testing.T) {
	t.Parallel()

	g := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"errorMessage":"The Trade specified does not exist"}`)
	})
	_, err := g.ClosePosition(context.Background(), "99")
	assert.ErrorIs(t, err, broker.ErrPositionNotFound)
}

func TestCandles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/instruments/EUR_USD/candles", r.URL.Path)
		assert.Equal(t, "M15", r.URL.Query().Get("granularity"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		io.WriteString(w, `{"candles":[
			{"complete":true,"time":"2024-05-06T13:30:00Z","volume":10,"mid":{"o":"1.2","h":"1.21","l":"1.19","c":"1.205"}},
			{"complete":false,"time":"2024-05-06T13:45:00Z","volume":3,"mid":{"o":"1.205","h":"1.206","l":"1.204","c":"1.205"}}
		]}`)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, Token: "t", HTTP: srv.Client()}
	bars, err := c.Candles(context.Background(), CandlesOptions{Instrument: "EUR_USD", Granularity: "M15", Count: 2})
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 5, 6, 13, 45, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 1.205, bars[0].Close)
	assert.Equal(t, 10.0, bars[0].Volume)

	_, err = c.Candles(context.Background(), CandlesOptions{Instrument: "EUR_USD", Granularity: "Y1"})
	assert.Error(t, err)
}

func TestCandleFeedPolls(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			io.WriteString(w, `{"candles":[{"complete":true,"time":"2024-05-06T13:00:00Z","mid":{"o":"1","h":"1","l":"1","c":"1"}}]}`)
		case 2:
			assert.Equal(t, "2024-05-06T13:00:00Z", r.URL.Query().Get("from"))
			io.WriteString(w, `{"candles":[]}`)
		default:
			io.WriteString(w, `{"candles":[{"complete":true,"time":"2024-05-06T13:00:00Z","mid":{"o":"1","h":"1","l":"1","c":"1"}},
				{"complete":true,"time":"2024-05-06T14:00:00Z","mid":{"o":"2","h":"2","l":"2","c":"2"}}]}`)
		}
	}))
	defer srv.Close()

	var slept int
	f := &CandleFeed{
		Client:      &Client{BaseURL: srv.URL, Token: "t", HTTP: srv.Client()},
		Instrument:  "EUR_USD",
		Granularity: "H1",
		Count:       1,
		sleep: func(ctx context.Context, d time.Duration) error {
			slept++
			return nil
		},
	}

	b, ok, err := f.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1.0, b.Close)

	b, ok, err = f.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, b.Close, "already delivered candles are not repeated")
	assert.Equal(t, 1, slept)
}

func TestCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OANDA_TOKEN=from-file\nOANDA_ACCOUNT_ID=101-1\n"), 0o600))

	t.Setenv(EnvToken, "")
	t.Setenv(EnvAccountID, "")
	require.NoError(t, os.Unsetenv(EnvToken))
	require.NoError(t, os.Unsetenv(EnvAccountID))

	require.NoError(t, LoadEnv(path))
	tok, acct, err := Credentials("")
	require.NoError(t, err)
	assert.Equal(t, "from-file", tok)
	assert.Equal(t, "101-1", acct)

	_, acct, err = Credentials("override")
	require.NoError(t, err)
	assert.Equal(t, "override", acct)

	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}
