package models

// Report is the full pipeline output for one series snapshot.
// Warmup is set while the series is too short to produce a transaction, so
// HOLD is provisional rather than a confirmed flat.
type Report struct {
	Symbol       string              `json:"symbol"`
	Strategy     string              `json:"strategy"`
	ShortWindow  int                 `json:"short_window"`
	LongWindow   int                 `json:"long_window"`
	Bars         int                 `json:"bars"`
	Warmup       bool                `json:"warmup"`
	Signals      []SignalRecord      `json:"signals"`
	Transactions []TransactionRecord `json:"transactions"`
	Returns      ReturnSeries        `json:"returns"`
	Action       Action              `json:"action"`
}

// LatestTransaction returns the newest transaction, if any.
func (r *Report) LatestTransaction() (TransactionRecord, bool) {
	if r == nil || len(r.Transactions) == 0 {
		return TransactionRecord{}, false
	}
	return r.Transactions[len(r.Transactions)-1], true
}
