package backtest

import (
	"encoding/csv"
	"io"
	"strconv"

	"CrossBot/internal/domain/models"
)

// WriteCSV writes one row per evaluated bar for external plotting.
func WriteCSV(w io.Writer, rs models.ReturnSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"date", "close", "signal", "position", "log_return",
		"system_log_return", "cum_buyhold", "cum_system",
	}); err != nil {
		return err
	}
	for _, p := range rs.Points {
		if err := cw.Write([]string{
			p.Timestamp.Format("2006-01-02"),
			formatF(p.Close),
			strconv.Itoa(int(p.Signal)),
			strconv.Itoa(int(p.Position)),
			formatF(p.LogReturn),
			formatF(p.SystemLogReturn),
			formatF(p.CumBuyHold),
			formatF(p.CumSystem),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
