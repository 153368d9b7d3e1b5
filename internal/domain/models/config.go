package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StrategyConfig is the immutable parameter set threaded through every
// component call for one symbol.
type StrategyConfig struct {
	Symbol            string
	ShortWindow       int
	LongWindow        int
	HistoryWindowDays int
	Timeframe         string
	Execution         ExecutionMode
	Quantity          decimal.Decimal
}

// ValidateWindows checks the moving-average window relation.
func ValidateWindows(short, long int) error {
	if short <= 0 || long <= 0 {
		return fmt.Errorf("%w: windows must be positive (short=%d long=%d)", ErrInvalidConfig, short, long)
	}
	if short >= long {
		return fmt.Errorf("%w: short window %d must be less than long window %d", ErrInvalidConfig, short, long)
	}
	return nil
}

// Validate rejects a configuration before any computation runs.
func (c StrategyConfig) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidConfig)
	}
	if err := ValidateWindows(c.ShortWindow, c.LongWindow); err != nil {
		return err
	}
	if c.HistoryWindowDays <= 0 {
		return fmt.Errorf("%w: history window must be positive, got %d", ErrInvalidConfig, c.HistoryWindowDays)
	}
	switch c.Execution {
	case "", ExecutionSameBar, ExecutionPriorBar:
	default:
		return fmt.Errorf("%w: unknown execution mode %q", ErrInvalidConfig, c.Execution)
	}
	if !c.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidConfig, c.Quantity)
	}
	return nil
}

// ExecutionOrDefault returns the configured mode, same-bar when unset.
func (c StrategyConfig) ExecutionOrDefault() ExecutionMode {
	if c.Execution == "" {
		return ExecutionSameBar
	}
	return c.Execution
}
