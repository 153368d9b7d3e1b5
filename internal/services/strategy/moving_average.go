// Package strategy holds the moving-average crossover core: signal generation,
// transaction detection and the latest-action interpreter.
package strategy

import (
	"fmt"
	"math"

	"CrossBot/internal/domain/models"
	domsvc "CrossBot/internal/domain/service"
	"CrossBot/internal/services/features"
)

// Compile-time interface check.
var _ domsvc.SignalStrategy = (*MovingAverageCrossover)(nil)

// MovingAverageCrossover compares a short and a long shifted simple moving
// average of the close. The signal at bar t uses closes up to t-1 only.
type MovingAverageCrossover struct {
	short int
	long  int
}

// NewMovingAverageCrossover validates the window pair before any computation.
func NewMovingAverageCrossover(short, long int) (*MovingAverageCrossover, error) {
	if err := models.ValidateWindows(short, long); err != nil {
		return nil, err
	}
	return &MovingAverageCrossover{short: short, long: long}, nil
}

// Name returns "ma_crossover".
func (s *MovingAverageCrossover) Name() string { return NameMACrossover }

// Windows returns the short and long window lengths.
func (s *MovingAverageCrossover) Windows() (int, int) { return s.short, s.long }

// Generate emits one record per bar where both averages are defined.
// A series too short for any signal yields an empty slice and ErrInsufficientData.
func (s *MovingAverageCrossover) Generate(series models.TimeSeries) ([]models.SignalRecord, error) {
	n := series.Len()
	if n <= s.long {
		return []models.SignalRecord{}, fmt.Errorf("%w: %d bars, need more than %d",
			models.ErrInsufficientData, n, s.long)
	}
	closes := series.Closes()
	shortSMA := features.ShiftedSMA(closes, s.short)
	longSMA := features.ShiftedSMA(closes, s.long)
	out := make([]models.SignalRecord, 0, n-s.long)
	for t := s.long; t < n; t++ {
		if math.IsNaN(shortSMA[t]) || math.IsNaN(longSMA[t]) {
			continue
		}
		out = append(out, models.SignalRecord{
			Timestamp: series.Bars[t].Timestamp,
			Index:     t,
			ShortAvg:  shortSMA[t],
			LongAvg:   longSMA[t],
			Signal:    Compare(shortSMA[t], longSMA[t]),
		})
	}
	return out, nil
}

// Compare maps the two averages to a position. Exact equality is neutral.
func Compare(shortAvg, longAvg float64) models.Position {
	switch {
	case shortAvg > longAvg:
		return models.Bullish
	case shortAvg < longAvg:
		return models.Bearish
	default:
		return models.Neutral
	}
}

// Generate is the functional form of MovingAverageCrossover.Generate.
func Generate(series models.TimeSeries, short, long int) ([]models.SignalRecord, error) {
	s, err := NewMovingAverageCrossover(short, long)
	if err != nil {
		return nil, err
	}
	return s.Generate(series)
}
