package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AngelCh415/mediaplan-go/internal/config"
	"github.com/AngelCh415/mediaplan-go/internal/export"
	"github.com/AngelCh415/mediaplan-go/internal/httpx"
	"github.com/AngelCh415/mediaplan-go/internal/ingest"
	"github.com/AngelCh415/mediaplan-go/internal/metrics"
	"github.com/AngelCh415/mediaplan-go/internal/store"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	cl := ingest.NewHTTPClient(cfg.HTTPTimeout)
	st := store.NewMemoryStore()

	r := httpx.NewRouter(logger, httpx.Deps{
		Store:       st,
		Metrics:     metrics.NewService(st, cfg.TopN),
		Puller:      ingest.NewPuller(cl, cfg.SourceURL, cfg.MaxUploadBytes, logger),
		Sink:        export.NewSink(cl, cfg.SinkURL, cfg.SinkSecret, logger),
		MaxUpload:   cfg.MaxUploadBytes,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("starting server", slog.String("port", cfg.Port), slog.Int("top_n", cfg.TopN))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
