package backtest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"testing"
	"time"

	"CrossBot/internal/domain/models"
	"CrossBot/internal/services/strategy"
)

var regressionCloses = []float64{10, 10, 10, 10, 12, 14, 16, 18, 20, 18, 16, 14, 12, 10, 10, 10, 10, 10, 10, 10}

func mkSeries(t *testing.T, closes []float64) models.TimeSeries {
	t.Helper()
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{Timestamp: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 10}
	}
	s, err := models.NewTimeSeries("BT", "1Day", bars)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	return s
}

func mkSignals(t *testing.T, series models.TimeSeries, short, long int) []models.SignalRecord {
	t.Helper()
	sigs, err := strategy.Generate(series, short, long)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return sigs
}

func TestEvaluateRegressionFixture(t *testing.T) {
	series := mkSeries(t, regressionCloses)
	rs, err := Evaluate(series, mkSignals(t, series, 3, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Points) != 15 {
		t.Fatalf("expected 15 points, got %d", len(rs.Points))
	}
	// buy-hold compounds from the close before the first signal bar (bar 4 = 12)
	if want := 10.0/12.0 - 1; math.Abs(rs.BuyHoldReturn-want) > 1e-12 {
		t.Fatalf("buyhold: got %v want %v", rs.BuyHoldReturn, want)
	}
	// long from bar 5 to 11 (12 -> 14), short from 12 to 17 (14 -> 10), flat after
	if want := (14.0/12.0)*(14.0/10.0) - 1; math.Abs(rs.SystemReturn-want) > 1e-12 {
		t.Fatalf("system: got %v want %v", rs.SystemReturn, want)
	}
	if rs.Execution != models.ExecutionSameBar {
		t.Fatalf("expected same-bar default, got %s", rs.Execution)
	}
	if rs.Summary.Trades != 1 {
		t.Fatalf("expected 1 trade, got %d", rs.Summary.Trades)
	}
	if want := 13.0 / 15.0; math.Abs(rs.Summary.Exposure-want) > 1e-12 {
		t.Fatalf("exposure: got %v want %v", rs.Summary.Exposure, want)
	}
}

func TestEvaluatePriorBar(t *testing.T) {
	series := mkSeries(t, regressionCloses)
	rs, err := Evaluate(series, mkSignals(t, series, 3, 5), WithExecution(models.ExecutionPriorBar))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Points[0].Position != models.Neutral {
		t.Fatalf("expected neutral first position, got %d", rs.Points[0].Position)
	}
	// long bars 6..12 (14 -> 12), short bars 13..18 (12 -> 10)
	if want := (12.0/14.0)*(12.0/10.0) - 1; math.Abs(rs.SystemReturn-want) > 1e-12 {
		t.Fatalf("system: got %v want %v", rs.SystemReturn, want)
	}
}

func TestEvaluateRoundTrip(t *testing.T) {
	closes := []float64{50, 51, 49.5, 52, 53.25, 51, 55, 56.5, 54, 58, 60.1, 59}
	series := mkSeries(t, closes)
	sigs := mkSignals(t, series, 2, 4)
	rs, err := Evaluate(series, sigs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	base := closes[sigs[0].Index-1]
	want := closes[len(closes)-1]/base - 1
	if math.Abs(rs.BuyHoldReturn-want) > 1e-12 {
		t.Fatalf("round trip: got %v want %v", rs.BuyHoldReturn, want)
	}
}

func TestEvaluateZeroSignal(t *testing.T) {
	closes := []float64{10, 11, 9, 12, 8, 15, 7}
	series := mkSeries(t, closes)
	sigs := make([]models.SignalRecord, 0)
	for i := 1; i < len(closes); i++ {
		sigs = append(sigs, models.SignalRecord{Timestamp: series.Bars[i].Timestamp, Index: i, Signal: models.Neutral})
	}
	rs, err := Evaluate(series, sigs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.SystemReturn != 0 {
		t.Fatalf("expected exactly 0, got %v", rs.SystemReturn)
	}
	if rs.Points[len(rs.Points)-1].CumSystem != 0 {
		t.Fatalf("expected cum_system 0, got %v", rs.Points[len(rs.Points)-1].CumSystem)
	}
}

func TestEvaluateInvalidPrice(t *testing.T) {
	closes := append([]float64(nil), regressionCloses...)
	series := mkSeries(t, closes)
	sigs := mkSignals(t, series, 3, 5)

	closes[15] = 0
	bad := mkSeries(t, closes)
	rs, err := Evaluate(bad, sigs)
	if !errors.Is(err, models.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
	if len(rs.Points) != 0 || rs.SystemReturn != 0 {
		t.Fatalf("expected no partial result, got %+v", rs)
	}
}

func TestEvaluateUnknownTimestamp(t *testing.T) {
	series := mkSeries(t, regressionCloses)
	sigs := []models.SignalRecord{{Timestamp: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), Signal: models.Bullish}}
	if _, err := Evaluate(series, sigs); !errors.Is(err, models.ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	rs, err := Evaluate(mkSeries(t, regressionCloses[:3]), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.Points) != 0 || rs.BuyHoldReturn != 0 || rs.SystemReturn != 0 {
		t.Fatalf("expected empty result, got %+v", rs)
	}
}

func TestEvaluateDrawdown(t *testing.T) {
	series := mkSeries(t, regressionCloses)
	rs, _ := Evaluate(series, mkSignals(t, series, 3, 5))
	// long equity peaks at 20/12 on bar 8 and falls to 14/12 by bar 11
	want := 1 - 14.0/20.0
	if math.Abs(rs.Summary.MaxDrawdown-want) > 1e-12 {
		t.Fatalf("max drawdown: got %v want %v", rs.Summary.MaxDrawdown, want)
	}
}

func TestWriteCSV(t *testing.T) {
	series := mkSeries(t, regressionCloses)
	rs, _ := Evaluate(series, mkSignals(t, series, 3, 5))
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rs); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 16 {
		t.Fatalf("expected header + 15 rows, got %d", len(rows))
	}
	if rows[1][0] != "2023-03-06" || rows[1][2] != "1" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
}
