/*
Package main is the entry point for the SmartComms server.

It loads configuration, initializes logging, connects the persistence pool,
starts the chat gateway, and serves HTTP until an interrupt triggers a graceful
shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VisalRazaZaidi/SmartComms/internal/app/chat"
	"github.com/VisalRazaZaidi/SmartComms/internal/app/storage"
	"github.com/VisalRazaZaidi/SmartComms/internal/app/store"
	"github.com/VisalRazaZaidi/SmartComms/internal/app/suggest"
	"github.com/VisalRazaZaidi/SmartComms/internal/configs"
	"github.com/VisalRazaZaidi/SmartComms/internal/handler"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.Init(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to database")
	}
	defer pool.Close()

	messageStore := store.New(pool)

	var attachmentStore storage.Service
	if cfg.S3BucketName != "" {
		attachmentStore, err = storage.NewService(storage.ServiceConfig{
			BucketName:      cfg.S3BucketName,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize attachment store")
		}
	} else {
		logx.Warn("Attachment store not configured. File endpoints disabled.")
	}

	// The registry and presence set live for the whole process; the gateway is
	// their only mutator.
	registry := chat.NewRegistry()
	presence := chat.NewPresence()
	gateway := chat.NewGateway(registry, presence, messageStore)

	go gateway.Run()

	deps := &handler.AppDeps{
		Gateway: gateway,
		Store:   messageStore,
		Storage: attachmentStore,
		Suggest: suggest.NewClient(cfg.SmartReplyEndpoint, cfg.SmartReplyAPIKey),
		Config:  cfg,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.Router(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("SmartComms server starting on http://localhost%s", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	gateway.Shutdown()

	logx.Info("Server gracefully stopped.")
}
