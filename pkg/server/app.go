package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"CrossBot/internal/usecase"
	"CrossBot/pkg/config"
	xhttp "CrossBot/pkg/http"
	pkgkafka "CrossBot/pkg/kafka"
	applogger "CrossBot/pkg/logger"
)

// App encapsulates the application lifecycle. Every component is optional:
// serve runs the HTTP server and the trade bot, execute runs the order consumer.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	bot        *usecase.TradeBot
	consumer   *pkgkafka.Consumer
	wg         sync.WaitGroup
}

type Option func(*App)

func WithHTTPServer(s *xhttp.Server) Option { return func(a *App) { a.httpServer = s } }

func WithTradeBot(b *usecase.TradeBot) Option { return func(a *App) { a.bot = b } }

func WithConsumer(c *pkgkafka.Consumer) Option { return func(a *App) { a.consumer = c } }

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, opts ...Option) *App {
	a := &App{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the configured components and blocks until ctx is cancelled or
// an interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	if a.httpServer == nil && a.bot == nil && a.consumer == nil {
		return errors.New("nothing to run")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.log.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	if a.bot != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.bot.Run(runCtx, a.cfg.Bot.Interval); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("trade bot stopped", applogger.Error(err))
			}
		}()
		a.log.Info("trade bot started",
			applogger.String("symbol", a.cfg.Strategy.Symbol),
			applogger.Duration("interval", a.cfg.Bot.Interval),
			applogger.String("broker", a.cfg.Broker.Type),
		)
	}

	if a.consumer != nil {
		a.consumer.Start(runCtx)
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() { a.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("trade bot did not stop in time")
		errs = append(errs, ctx.Err())
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg != nil && a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
