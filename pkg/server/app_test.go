package server

import (
	"context"
	"testing"
	"time"

	"CrossBot/pkg/config"
	xhttp "CrossBot/pkg/http"
	applogger "CrossBot/pkg/logger"
)

func TestRunRequiresComponents(t *testing.T) {
	if err := New(config.Default(), applogger.NewNop()).Run(context.Background()); err == nil {
		t.Fatal("expected error for an empty app")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	log := applogger.NewNop()
	srv := xhttp.NewServer(nil, log, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetricsPath(""))
	app := New(config.Default(), log, WithHTTPServer(srv))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
