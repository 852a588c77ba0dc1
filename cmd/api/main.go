package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kurihiro0119/devprofile-api/internal/api"
	"github.com/kurihiro0119/devprofile-api/internal/collector"
	"github.com/kurihiro0119/devprofile-api/internal/config"
	"github.com/kurihiro0119/devprofile-api/internal/ingest"
	"github.com/kurihiro0119/devprofile-api/internal/logging"
	"github.com/kurihiro0119/devprofile-api/internal/metrics"
	"github.com/kurihiro0119/devprofile-api/internal/social"
	"github.com/kurihiro0119/devprofile-api/internal/webhook"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if !cfg.HasGitHubToken() {
		logger.Warn().Msg("GITHUB_TOKEN not set, GitHub requests are unauthenticated and heavily rate limited")
	}

	if cfg.AppEnv == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.MustRegister(registry)

	// GitHub
	githubOpts := collector.ClientOptions{
		BaseURL:      cfg.GitHubAPIURL,
		DefaultToken: cfg.GitHubToken,
		Timeout:      cfg.HTTPTimeout,
	}
	coll := collector.NewGitHubCollector(githubOpts, logger)

	ingestOpts := githubOpts
	ingestOpts.Timeout = cfg.IngestTimeout
	ingester := ingest.NewGitHubIngester(ingest.GitHubIngesterOptions{
		Client:       ingestOpts,
		Concurrency:  cfg.IngestConcurrency,
		MaxFileBytes: cfg.IngestMaxFileBytes,
	}, logger)
	ingestSvc := ingest.NewService(ingester, logger)

	// Scraping agents
	webhookClient := &http.Client{Timeout: cfg.HTTPTimeout}
	newPoller := func(name, baseURL string) social.Runner {
		if baseURL == "" {
			logger.Warn().Str("integration", name).Msg("webhook not configured, integration disabled")
			return nil
		}
		return webhook.New(webhook.Options{
			Name:       name,
			BaseURL:    baseURL,
			HTTPClient: webhookClient,
			Logger:     logger,
		})
	}
	socialSvc := social.NewService(social.Runners{
		Profile: newPoller(social.LinkedInProfile, cfg.LinkedInProfileWebhookURL),
		Posts:   newPoller(social.LinkedInPosts, cfg.LinkedInPostsWebhookURL),
		Tweets:  newPoller(social.TwitterPosts, cfg.TwitterPostsWebhookURL),
	}, logger)

	// Initialize handler
	handler := api.NewHandler(coll, ingestSvc, socialSvc)

	// Setup routes
	router := api.SetupRoutes(handler, registry, logger)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.AppEnv).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
