package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/powerflowhq/powerflow/internal/alerting"
	"github.com/powerflowhq/powerflow/internal/config"
	"github.com/powerflowhq/powerflow/internal/dashboard"
	"github.com/powerflowhq/powerflow/internal/logging"
	"github.com/powerflowhq/powerflow/internal/notification"
	"github.com/powerflowhq/powerflow/internal/refresh"
	"github.com/powerflowhq/powerflow/internal/sample"
	"github.com/powerflowhq/powerflow/internal/server"
	"github.com/powerflowhq/powerflow/internal/store"
	"github.com/powerflowhq/powerflow/internal/upstream"
	"github.com/powerflowhq/powerflow/internal/ws"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "powerflow",
		Short:         "PowerFlow electricity billing dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), sampleCmd(), versionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			logger, err := logging.New(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()
			return run(cfg, logger)
		},
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := upstream.New(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.UpstreamTimeout(),
	}, logger)

	var alerter dashboard.Alerter
	if al := alerting.New(alerting.Config{
		WebhookURL:  cfg.Alerting.WebhookURL,
		WebhookType: cfg.Alerting.WebhookType,
	}, logger); al.Enabled() {
		alerter = al
	}

	st := store.New()
	svc := dashboard.NewService(client, st, logger, alerter)

	hub := ws.NewHub(logger, 30*time.Second, cfg.Server.CorsAllowedOrigins)
	st.Subscribe(hub.Broadcast)
	go hub.Run(ctx)

	svc.Bootstrap(ctx)

	digest := notification.NewService(notification.Config{
		Enabled:     cfg.Email.Enabled,
		Provider:    cfg.Email.Provider,
		Host:        cfg.Email.Host,
		Port:        cfg.Email.Port,
		Username:    cfg.Email.Username,
		Password:    cfg.Email.Password,
		APIKey:      cfg.Email.APIKey,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		To:          cfg.Email.To,
	}, logger)

	worker := refresh.NewWorker(svc, digest, alerter, logger, cfg.Refresh.Schedule)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("refresh worker stopped", zap.Error(err))
		}
	}()

	srv := server.New(svc, hub, logger, server.Options{
		CorsAllowedOrigins: cfg.Server.CorsAllowedOrigins,
	})
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("powerflow listening", zap.String("addr", httpSrv.Addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func sampleCmd() *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print a generated sample dataset as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			ds := sample.Generate(time.Now(), rand.New(rand.NewSource(seed)))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(ds)
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
