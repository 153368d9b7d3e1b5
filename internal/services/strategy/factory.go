package strategy

import (
	"fmt"
	"strings"

	"CrossBot/internal/domain/models"
	domsvc "CrossBot/internal/domain/service"
)

const NameMACrossover = "ma_crossover"

// Build returns the strategy implementation matching name.
func Build(name string, short, long int) (domsvc.SignalStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameMACrossover, "sma_cross", "sma_crossover":
		return NewMovingAverageCrossover(short, long)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", models.ErrInvalidConfig, name)
	}
}
