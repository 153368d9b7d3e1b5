package strategy

import (
	"fmt"

	"CrossBot/internal/domain/models"
)

// LatestAction maps the newest transaction to BUY, SELL or HOLD.
// With no transactions it returns HOLD together with ErrInsufficientData so a
// caller can tell "no data yet" from "flat confirmed".
func LatestAction(txs []models.TransactionRecord) (models.Action, error) {
	if len(txs) == 0 {
		return models.ActionHold, fmt.Errorf("%w: no transactions", models.ErrInsufficientData)
	}
	latest := txs[0]
	for _, tx := range txs[1:] {
		if tx.Timestamp.After(latest.Timestamp) {
			latest = tx
		}
	}
	return latest.Action(), nil
}
