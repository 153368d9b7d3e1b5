package service

import "CrossBot/internal/domain/models"

// SignalStrategy turns a series snapshot into per-bar signal records.
// New strategy families are new implementations of this interface.
type SignalStrategy interface {
	Name() string
	Generate(series models.TimeSeries) ([]models.SignalRecord, error)
}
