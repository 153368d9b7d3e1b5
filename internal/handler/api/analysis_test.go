package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"CrossBot/internal/domain/models"
	domrepo "CrossBot/internal/domain/repository"
	icache "CrossBot/internal/service/cache"
	"CrossBot/internal/usecase"
	"CrossBot/pkg/logger"
	"CrossBot/pkg/metrics"
)

var dipCloses = []float64{20, 18, 16, 14, 12, 10, 10, 12, 14, 16}

type stubProvider struct {
	closes []float64
	err    error
	calls  int
}

func (p *stubProvider) GetHistoricalBars(_ context.Context, symbol string, _, _ time.Time, tf domrepo.Timeframe) (models.TimeSeries, error) {
	p.calls++
	if p.err != nil {
		return models.TimeSeries{}, p.err
	}
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(p.closes))
	for i, c := range p.closes {
		bars[i] = models.Bar{Timestamp: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return models.NewTimeSeries(symbol, string(tf), bars)
}

func (p *stubProvider) GetLatestBar(context.Context, string, domrepo.Timeframe) (models.Bar, error) {
	return models.Bar{}, errors.New("not used")
}

func newTestServer(prov *stubProvider) *echo.Echo {
	base := models.StrategyConfig{
		Symbol: "SPY", ShortWindow: 20, LongWindow: 50, HistoryWindowDays: 365,
		Timeframe: "1Day", Quantity: decimal.NewFromInt(1),
	}
	uc := usecase.NewBacktestUseCase(prov, base, "", logger.NewNop(), metrics.Nop{})
	h := NewAnalysisHandler(logger.NewNop(), uc, icache.NewTTLCache(), time.Minute)
	e := echo.New()
	h.RegisterRoutes(e.Group(""))
	return e
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func get(t *testing.T, e *echo.Echo, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestActionEndpoint(t *testing.T) {
	e := newTestServer(&stubProvider{closes: dipCloses})
	rec, env := get(t, e, "/api/action?symbol=spy&short=3&long=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res actionResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if res.Action != models.ActionBuy || res.Symbol != "SPY" || res.Transaction == nil || res.Transaction.Delta != 2 {
		t.Fatalf("unexpected action response %+v", res)
	}
}

func TestSignalsAndTransactionsEndpoints(t *testing.T) {
	e := newTestServer(&stubProvider{closes: dipCloses})

	_, env := get(t, e, "/api/signals?symbol=SPY&short=3&long=5")
	var sig signalsResponse
	if err := json.Unmarshal(env.Data, &sig); err != nil {
		t.Fatalf("decode signals: %v", err)
	}
	if len(sig.Signals) != 5 || sig.Signals[4].Signal != models.Bullish {
		t.Fatalf("unexpected signals %+v", sig.Signals)
	}

	_, env = get(t, e, "/api/transactions?symbol=SPY&short=3&long=5")
	var txs transactionsResponse
	if err := json.Unmarshal(env.Data, &txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txs.Transactions) != 4 || len(txs.Events) != 1 || txs.Events[0].Index != 9 {
		t.Fatalf("unexpected transactions %+v", txs)
	}
}

func TestBacktestCSV(t *testing.T) {
	e := newTestServer(&stubProvider{closes: dipCloses})
	rec, _ := get(t, e, "/api/backtest?symbol=SPY&short=3&long=5&format=csv")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv") {
		t.Fatalf("expected csv, got %d %s", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 6 || !strings.HasPrefix(lines[0], "date,close,signal") {
		t.Fatalf("unexpected csv body:\n%s", rec.Body.String())
	}
}

func TestResponsesAreCached(t *testing.T) {
	prov := &stubProvider{closes: dipCloses}
	e := newTestServer(prov)
	get(t, e, "/api/backtest?symbol=SPY&short=3&long=5&from=2024-01-01&to=2024-02-01")
	get(t, e, "/api/action?symbol=SPY&short=3&long=5&from=2024-01-01&to=2024-02-01")
	if prov.calls != 1 {
		t.Fatalf("expected one provider call, got %d", prov.calls)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		prov   *stubProvider
		target string
		want   int
	}{
		{"missing symbol", &stubProvider{closes: dipCloses}, "/api/action", http.StatusBadRequest},
		{"short not below long", &stubProvider{closes: dipCloses}, "/api/action?symbol=SPY&short=5&long=5", http.StatusBadRequest},
		{"bad date", &stubProvider{closes: dipCloses}, "/api/action?symbol=SPY&from=soon", http.StatusBadRequest},
		{"invalid price", &stubProvider{closes: []float64{20, 18, 16, 14, 12, 0, 10, 12}}, "/api/backtest?symbol=SPY&short=3&long=5", http.StatusUnprocessableEntity},
		{"upstream", &stubProvider{err: errors.New("dial tcp: refused")}, "/api/action?symbol=SPY", http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := get(t, newTestServer(tc.prov), tc.target)
			if rec.Code != tc.want || env.Status != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestWarmupIsNotAnError(t *testing.T) {
	// four bars give no signal, six give a single signal and no transaction
	for _, n := range []int{4, 6} {
		e := newTestServer(&stubProvider{closes: dipCloses[:n]})
		rec, env := get(t, e, "/api/action?symbol=SPY&short=3&long=5")
		if rec.Code != http.StatusOK {
			t.Fatalf("%d bars: expected 200, got %d", n, rec.Code)
		}
		var res actionResponse
		_ = json.Unmarshal(env.Data, &res)
		if !res.Warmup || res.Action != models.ActionHold || res.Transaction != nil {
			t.Fatalf("%d bars: unexpected warm-up response %+v", n, res)
		}
	}
}
