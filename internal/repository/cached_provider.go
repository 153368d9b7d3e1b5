package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CrossBot/internal/domain/models"
	domrepo "CrossBot/internal/domain/repository"
	"CrossBot/internal/service/cache"
	applogger "CrossBot/pkg/logger"
)

// CachedProvider memoizes historical bar ranges in a BytesCache. Latest-bar
// lookups always go to the wrapped provider.
type CachedProvider struct {
	next  domrepo.MarketDataProvider
	cache cache.BytesCache
	ttl   time.Duration
	l     *applogger.Logger
}

var _ domrepo.MarketDataProvider = (*CachedProvider)(nil)

func NewCachedProvider(next domrepo.MarketDataProvider, c cache.BytesCache, ttl time.Duration, l *applogger.Logger) *CachedProvider {
	return &CachedProvider{next: next, cache: c, ttl: ttl, l: l}
}

func barsKey(symbol string, from, to time.Time, tf domrepo.Timeframe) string {
	// day resolution so requests within the same day share an entry
	return fmt.Sprintf("bars:%s:%s:%s:%s", strings.ToUpper(symbol), tf,
		from.UTC().Format("20060102"), to.UTC().Format("20060102"))
}

func (p *CachedProvider) GetHistoricalBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) (models.TimeSeries, error) {
	key := barsKey(symbol, from, to, tf)
	if b, ok, err := p.cache.GetBytes(ctx, key); err != nil {
		p.l.Warn("bar cache read failed", applogger.String("key", key), applogger.Error(err))
	} else if ok {
		var bars []models.Bar
		if err := json.Unmarshal(b, &bars); err == nil {
			return models.NewTimeSeries(strings.ToUpper(symbol), string(tf), bars)
		}
		p.l.Warn("bar cache entry corrupt", applogger.String("key", key))
	}

	series, err := p.next.GetHistoricalBars(ctx, symbol, from, to, tf)
	if err != nil {
		return models.TimeSeries{}, err
	}
	if b, err := json.Marshal(series.Bars); err == nil {
		if err := p.cache.SetBytes(ctx, key, b, p.ttl); err != nil {
			p.l.Warn("bar cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return series, nil
}

func (p *CachedProvider) GetLatestBar(ctx context.Context, symbol string, tf domrepo.Timeframe) (models.Bar, error) {
	return p.next.GetLatestBar(ctx, symbol, tf)
}
