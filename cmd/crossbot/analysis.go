package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"CrossBot/internal/di"
	"CrossBot/internal/domain/models"
	domrepo "CrossBot/internal/domain/repository"
	"CrossBot/internal/services/backtest"
	"CrossBot/internal/usecase"
	xutil "CrossBot/pkg/util"
)

type rangeFlags struct {
	symbol    string
	short     int
	long      int
	from      string
	to        string
	timeframe string
	execution string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.symbol, "symbol", "s", "", "ticker symbol (default from config)")
	cmd.Flags().IntVar(&f.short, "short", 0, "short SMA window (default from config)")
	cmd.Flags().IntVar(&f.long, "long", 0, "long SMA window (default from config)")
	cmd.Flags().StringVar(&f.from, "from", "", "range start, YYYY-MM-DD or RFC3339")
	cmd.Flags().StringVar(&f.to, "to", "", "range end, YYYY-MM-DD or RFC3339 (default now)")
	cmd.Flags().StringVar(&f.timeframe, "tf", "", "bar timeframe: 1Day or 1Week")
	cmd.Flags().StringVar(&f.execution, "execution", "", "same_bar or prior_bar")
}

func (f *rangeFlags) params() (usecase.BacktestParams, error) {
	p := usecase.BacktestParams{
		Symbol:    f.symbol,
		Short:     f.short,
		Long:      f.long,
		Execution: models.ExecutionMode(f.execution),
	}
	if f.timeframe != "" {
		p.Timeframe = domrepo.NormalizeTimeframe(f.timeframe)
	}
	var err error
	if p.From, err = parseFlagTime("from", f.from, false); err != nil {
		return p, err
	}
	if p.To, err = parseFlagTime("to", f.to, true); err != nil {
		return p, err
	}
	return p, nil
}

func parseFlagTime(name, v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, ok := xutil.ParseTime(v)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: --%s %q is not a date", models.ErrInvalidConfig, name, v)
	}
	if endOfDay && len(v) == len(xutil.DateLayout) {
		t = xutil.EndOfDay(t)
	}
	return t, nil
}

func runReport(cmd *cobra.Command, f *rangeFlags) (*models.Report, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	p, err := f.params()
	if err != nil {
		return nil, err
	}
	uc, cleanup, err := di.InitializeBacktest(cfg)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return uc.Run(cmd.Context(), p)
}

func backtestCmd() *cobra.Command {
	var (
		f       rangeFlags
		csvPath string
	)
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Backtest the crossover strategy over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := runReport(cmd, &f)
			if err != nil {
				return err
			}
			if csvPath != "" {
				if err := writeCSV(csvPath, cmd.OutOrStdout(), rep.Returns); err != nil {
					return err
				}
				if csvPath == "-" {
					return nil
				}
			}
			return printJSON(cmd.OutOrStdout(), backtestSummary(rep))
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the per-bar return table to this file, - for stdout")
	return cmd
}

func signalCmd() *cobra.Command {
	var f rangeFlags
	cmd := &cobra.Command{
		Use:   "signal",
		Short: "Print the latest order decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := runReport(cmd, &f)
			if err != nil {
				return err
			}
			out := map[string]interface{}{
				"symbol": rep.Symbol,
				"action": rep.Action,
				"warmup": rep.Warmup,
			}
			if tx, ok := rep.LatestTransaction(); ok {
				out["as_of"] = tx.Timestamp
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	f.register(cmd)
	return cmd
}

func syncCmd() *cobra.Command {
	var f rangeFlags
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy bars from Alpaca into ClickHouse",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, err := f.params()
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(p.Symbol)
			if symbol == "" {
				symbol = cfg.Strategy.Symbol
			}
			if p.Timeframe == "" {
				p.Timeframe = domrepo.NormalizeTimeframe(cfg.Strategy.Timeframe)
			}
			if p.To.IsZero() {
				p.To = time.Now().UTC()
			}
			if p.From.IsZero() {
				p.From = p.To.AddDate(0, 0, -cfg.Strategy.HistoryWindowDays)
			}

			bs, cleanup, err := di.InitializeBarSync(cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			n, err := bs.Sync(cmd.Context(), symbol, p.From, p.To, p.Timeframe)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d %s bars for %s\n", n, p.Timeframe, symbol)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

type summary struct {
	Symbol        string                 `json:"symbol"`
	ShortWindow   int                    `json:"short_window"`
	LongWindow    int                    `json:"long_window"`
	Execution     models.ExecutionMode   `json:"execution"`
	Bars          int                    `json:"bars"`
	Warmup        bool                   `json:"warmup"`
	Transactions  int                    `json:"transactions"`
	BuyHoldReturn float64                `json:"buy_hold_return"`
	SystemReturn  float64                `json:"system_return"`
	Stats         models.BacktestSummary `json:"stats"`
	Action        models.Action          `json:"action"`
}

func backtestSummary(rep *models.Report) summary {
	events := 0
	for _, tx := range rep.Transactions {
		if tx.Delta != 0 {
			events++
		}
	}
	return summary{
		Symbol:        rep.Symbol,
		ShortWindow:   rep.ShortWindow,
		LongWindow:    rep.LongWindow,
		Execution:     rep.Returns.Execution,
		Bars:          rep.Bars,
		Warmup:        rep.Warmup,
		Transactions:  events,
		BuyHoldReturn: rep.Returns.BuyHoldReturn,
		SystemReturn:  rep.Returns.SystemReturn,
		Stats:         rep.Returns.Summary,
		Action:        rep.Action,
	}
}

func writeCSV(path string, stdout io.Writer, rs models.ReturnSeries) error {
	if path == "-" {
		return backtest.WriteCSV(stdout, rs)
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := backtest.WriteCSV(fh, rs); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
