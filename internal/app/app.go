// Package app wires the gateway together and runs the chosen surface.
package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/alex-user-go/tours/internal/config"
	"github.com/alex-user-go/tours/internal/handler"
	"github.com/alex-user-go/tours/internal/mcpserver"
	"github.com/alex-user-go/tours/internal/middleware"
	"github.com/alex-user-go/tours/internal/refdata"
	"github.com/alex-user-go/tours/internal/search"
	"github.com/alex-user-go/tours/internal/store"
	"github.com/alex-user-go/tours/internal/tourvisor"
)

// Version is stamped by the CLI.
var Version = "0.1.0"

// NewLogger builds the process logger from config.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Env == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err == nil {
		zcfg.Level = level
	}
	return zcfg.Build()
}

// NewOrchestrator assembles the search engine from configuration.
func NewOrchestrator(cfg *config.Config, logger *zap.Logger) *search.Orchestrator {
	client := tourvisor.NewClient(cfg.RequestTimeout, cfg.Headers(), logger)
	ref := refdata.New(refdata.Config{
		Endpoints: refdata.Endpoints{
			Country:  cfg.ListCountryURL,
			Dep:      cfg.ListDepURL,
			Hotel:    cfg.ListHotelURL,
			Meal:     cfg.ListMealURL,
			Room:     cfg.ListRoomURL,
			Operator: cfg.ListOperatorURL,
			Dev:      cfg.ListDevURL,
		},
		TTL:             cfg.ListCacheTTL,
		DefaultSession:  cfg.DefaultSession,
		DefaultReferrer: cfg.DefaultReferrer,
	}, client, logger)

	return search.NewOrchestrator(
		client,
		search.NewNormalizer(ref, cfg.DefaultSession, cfg.DefaultReferrer),
		search.NewResultNormalizer(ref, cfg.HotelLinkBase),
		store.New(),
		search.Config{
			ModsearchURL:  cfg.ModsearchURL,
			ModresultURL:  cfg.ModresultURL,
			ResultIDParam: cfg.ResultIDParam,
			SearchIDKeys:  cfg.SearchIDKeyList(),
			DefaultLimit:  cfg.MaxTours,
			Policy: search.PollPolicy{
				Interval: cfg.PollInterval,
				Attempts: cfg.PollAttempts,
			},
		},
		logger,
	)
}

// RunServer starts the REST surface and blocks until SIGINT/SIGTERM.
func RunServer(cfg *config.Config, logger *zap.Logger) error {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	orch := NewOrchestrator(cfg, logger)
	h := handler.New(orch, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.Logging(logger))
	h.Register(r)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

// RunMCP serves the tool surface over stdio.
func RunMCP(cfg *config.Config, logger *zap.Logger) error {
	orch := NewOrchestrator(cfg, logger)
	return mcpserver.Run(orch, Version, logger)
}
