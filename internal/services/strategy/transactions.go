package strategy

import "CrossBot/internal/domain/models"

// Detect differentiates consecutive signals. The first record has no
// predecessor and produces no transaction.
func Detect(signals []models.SignalRecord) []models.TransactionRecord {
	if len(signals) < 2 {
		return []models.TransactionRecord{}
	}
	out := make([]models.TransactionRecord, 0, len(signals)-1)
	for i := 1; i < len(signals); i++ {
		out = append(out, models.TransactionRecord{
			Timestamp: signals[i].Timestamp,
			Index:     signals[i].Index,
			Delta:     int(signals[i].Signal) - int(signals[i-1].Signal),
		})
	}
	return out
}

// Events keeps only actionable crossovers (delta of +2 or -2).
func Events(txs []models.TransactionRecord) []models.TransactionRecord {
	out := make([]models.TransactionRecord, 0)
	for _, tx := range txs {
		if tx.Action() != models.ActionHold {
			out = append(out, tx)
		}
	}
	return out
}
