// Package alpaca talks to the Alpaca market data and trading REST APIs.
package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"CrossBot/internal/domain/models"
	drepo "CrossBot/internal/domain/repository"
	xhttp "CrossBot/pkg/http"
	"CrossBot/pkg/logger"
)

const pageLimit = 10000

type Config struct {
	APIKey    string
	SecretKey string
	BaseURL   string // trading API
	DataURL   string // market data API
	Feed      string
	Timeout   time.Duration
	Retries   int
}

// Client implements MarketDataProvider and BrokerGateway.
type Client struct {
	cfg    Config
	client *xhttp.Client
	log    *logger.Logger
}

var (
	_ drepo.MarketDataProvider = (*Client)(nil)
	_ drepo.BrokerGateway      = (*Client)(nil)
)

func New(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Feed == "" {
		cfg.Feed = "iex"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.DataURL = strings.TrimRight(cfg.DataURL, "/")
	return &Client{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		log:    log.With(logger.String("component", "alpaca")),
	}
}

type apiBar struct {
	T time.Time `json:"t"`
	O float64   `json:"o"`
	H float64   `json:"h"`
	L float64   `json:"l"`
	C float64   `json:"c"`
	V int64     `json:"v"`
}

func (b apiBar) toBar() models.Bar {
	return models.Bar{Timestamp: b.T.UTC(), Open: b.O, High: b.H, Low: b.L, Close: b.C, Volume: b.V}
}

type barsPage struct {
	Bars          []apiBar `json:"bars"`
	Symbol        string   `json:"symbol"`
	NextPageToken *string  `json:"next_page_token"`
}

type latestBar struct {
	Bar    apiBar `json:"bar"`
	Symbol string `json:"symbol"`
}

// GetHistoricalBars follows next_page_token until the range is exhausted.
func (c *Client) GetHistoricalBars(ctx context.Context, symbol string, start, end time.Time, tf drepo.Timeframe) (models.TimeSeries, error) {
	if !drepo.IsValidTimeframe(tf) {
		return models.TimeSeries{}, fmt.Errorf("%w: unsupported timeframe %q", models.ErrInvalidConfig, tf)
	}
	endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars", c.cfg.DataURL, url.PathEscape(strings.ToUpper(symbol)))

	var bars []models.Bar
	token := ""
	for page := 0; ; page++ {
		q := map[string][]string{
			"timeframe":  {string(tf)},
			"start":      {start.UTC().Format(time.RFC3339)},
			"end":        {end.UTC().Format(time.RFC3339)},
			"limit":      {strconv.Itoa(pageLimit)},
			"adjustment": {"raw"},
			"feed":       {c.cfg.Feed},
		}
		if token != "" {
			q["page_token"] = []string{token}
		}

		var resp barsPage
		if err := c.do(ctx, xhttp.MethodGet, endpoint, q, nil, &resp); err != nil {
			return models.TimeSeries{}, fmt.Errorf("%w: bars %s: %w", models.ErrUpstream, symbol, err)
		}
		for _, b := range resp.Bars {
			bars = append(bars, b.toBar())
		}
		if resp.NextPageToken == nil || *resp.NextPageToken == "" {
			break
		}
		token = *resp.NextPageToken
		c.log.Debug("fetching next bars page", logger.String("symbol", symbol), logger.Int("page", page+1))
	}

	return models.NewTimeSeries(strings.ToUpper(symbol), string(tf), bars)
}

// GetLatestBar returns the most recent bar the data feed has for symbol.
func (c *Client) GetLatestBar(ctx context.Context, symbol string, _ drepo.Timeframe) (models.Bar, error) {
	endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars/latest", c.cfg.DataURL, url.PathEscape(strings.ToUpper(symbol)))
	var resp latestBar
	if err := c.do(ctx, xhttp.MethodGet, endpoint, map[string][]string{"feed": {c.cfg.Feed}}, nil, &resp); err != nil {
		return models.Bar{}, fmt.Errorf("%w: latest bar %s: %w", models.ErrUpstream, symbol, err)
	}
	if resp.Bar.T.IsZero() {
		return models.Bar{}, fmt.Errorf("%w: no latest bar for %s", models.ErrInsufficientData, symbol)
	}
	return resp.Bar.toBar(), nil
}

type orderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Submit places a market order. The intent ID is sent as client_order_id so
// a retried submission cannot create a second order.
func (c *Client) Submit(ctx context.Context, intent models.OrderIntent) error {
	body := orderRequest{
		Symbol:        intent.Symbol,
		Qty:           intent.Quantity.String(),
		Side:          string(intent.Side),
		Type:          intent.OrderType,
		TimeInForce:   intent.TimeInForce,
		ClientOrderID: intent.ID,
	}
	var resp orderResponse
	err := c.do(ctx, xhttp.MethodPost, c.cfg.BaseURL+"/v2/orders", nil, body, &resp)
	if duplicateOrder(err) {
		c.log.Info("order already submitted", logger.String("client_order_id", intent.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: submit order: %w", models.ErrUpstream, err)
	}
	c.log.Info("order accepted",
		logger.String("order_id", resp.ID),
		logger.String("client_order_id", intent.ID),
		logger.String("status", resp.Status),
	)
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, query map[string][]string, body, dest interface{}) error {
	opts := &xhttp.RequestOptions{
		Method:      method,
		URL:         endpoint,
		QueryParams: query,
		Body:        body,
		Headers: map[string]string{
			"APCA-API-KEY-ID":     c.cfg.APIKey,
			"APCA-API-SECRET-KEY": c.cfg.SecretKey,
			"Accept":              "application/json",
		},
	}

	var err error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		err = c.client.SendAndParse(ctx, opts, dest)
		if err == nil || !retryable(err) {
			return err
		}
		c.log.Warn("alpaca request failed, retrying",
			logger.String("url", endpoint),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
		select {
		case <-time.After(time.Duration(attempt+1) * 200 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// duplicateOrder reports Alpaca's rejection of a reused client_order_id.
func duplicateOrder(err error) bool {
	var se *xhttp.StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnprocessableEntity &&
		strings.Contains(se.Body, "client_order_id must be unique")
}

func retryable(err error) bool {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
