package backtest

import "CrossBot/internal/domain/models"

// summarize rolls up trade count, exposure, drawdown and excess return.
func summarize(rs models.ReturnSeries, signals []models.SignalRecord) models.BacktestSummary {
	s := models.BacktestSummary{
		Bars:         len(rs.Points),
		ExcessReturn: rs.SystemReturn - rs.BuyHoldReturn,
	}
	for i := 1; i < len(signals); i++ {
		d := int(signals[i].Signal) - int(signals[i-1].Signal)
		if d == 2 || d == -2 {
			s.Trades++
		}
	}

	var held int
	peak := 1.0
	for _, p := range rs.Points {
		if p.Position != models.Neutral {
			held++
		}
		equity := 1 + p.CumSystem
		if equity > peak {
			peak = equity
		}
		if dd := (peak - equity) / peak; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
	}
	if len(rs.Points) > 0 {
		s.Exposure = float64(held) / float64(len(rs.Points))
	}
	return s
}
