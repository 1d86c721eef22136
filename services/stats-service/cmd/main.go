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

	"github.com/tenessy0570/netrefer-api-interface/pkg/config"
	"github.com/tenessy0570/netrefer-api-interface/pkg/logger"
	"github.com/tenessy0570/netrefer-api-interface/services/stats-service/internal/handlers"
	"github.com/tenessy0570/netrefer-api-interface/services/stats-service/internal/routes"
	"github.com/tenessy0570/netrefer-api-interface/services/stats-service/internal/service"
)

func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		logger.Fatal("Failed to load config", logger.Err(err))
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.LogFormat)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", logger.Err(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	httpClient := &http.Client{Timeout: cfg.Netrefer.Timeout}

	client := service.NewNetreferClient(service.NetreferClientConfig{
		Endpoint:        cfg.Netrefer.Endpoint,
		SubscriptionKey: cfg.Netrefer.SubscriptionKey,
		PageSize:        cfg.Netrefer.PageSize,
		MaxPages:        cfg.Netrefer.MaxPages,
		HTTPClient:      httpClient,
	}, newTokenSource(cfg.Netrefer, httpClient, log), log)

	statsService := service.NewStatsService(client, cfg.Netrefer.ConsumerBatchSize, log)

	router := gin.New()
	router.Use(gin.Recovery())

	h := handlers.NewHandlers(statsService, log)
	routes.SetupRoutes(router, h, cfg, log)

	writeTimeout := 15 * time.Second
	if cfg.Server.RequestTimeout > 0 {
		writeTimeout = cfg.Server.RequestTimeout + 5*time.Second
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting stats service",
			logger.Field{Key: "port", Value: cfg.App.Port},
			logger.Field{Key: "endpoint", Value: cfg.Netrefer.Endpoint},
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", logger.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", logger.Err(err))
	}

	log.Info("Server exited")
}

func newTokenSource(cfg config.NetreferConfig, httpClient *http.Client, log logger.Logger) service.TokenSource {
	if cfg.APIToken != "" {
		log.Info("Using pre-issued NetRefer API token")
		return service.StaticTokenSource(cfg.APIToken)
	}

	log.Info("Using NetRefer password grant", logger.Field{Key: "token_url", Value: cfg.TokenURL})
	return service.NewPasswordTokenSource(service.PasswordCredentials{
		TokenURL: cfg.TokenURL,
		ClientID: cfg.ClientID,
		Username: cfg.Username,
		Password: cfg.Password,
		Scopes:   cfg.Scopes,
	}, httpClient, cfg.TokenLeeway, log)
}
