package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/estatehub/admin-gateway/internal/config"
	"github.com/estatehub/admin-gateway/internal/gateway"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin console gateway",
		Long: `Serve the login routes of the admin console and proxy /api to the REST API with
the stored session. When the session cannot be renewed the console is sent back to ` + gateway.LoginPath + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.loadWith(cmd, gateway.RedirectToLogin)
			if err != nil {
				return err
			}
			gwConfig := c.config
			if gwConfig.Monitoring.Sentry.Enabled {
				err := sentry.Init(sentry.ClientOptions{
					Dsn:              string(gwConfig.Monitoring.Sentry.Dsn),
					TracesSampleRate: gwConfig.Monitoring.Sentry.SampleRate,
					Environment:      gwConfig.Monitoring.Sentry.Environment,
				})
				if err != nil {
					slog.Error("SERVE", "message", "sentry initialization failed", "error", err)
				}
				defer sentry.Flush(2 * time.Second)
			}
			logger := slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), &slog.HandlerOptions{Level: c.logLevel}))
			server, err := gateway.NewServer(gwConfig, application, version(), logger)
			if err != nil {
				return err
			}
			refresher, err := application.ProactiveRefresher()
			if err != nil {
				return err
			}
			if refresher != nil {
				scheduler, err := refresher.GetScheduler()
				if err != nil {
					return err
				}
				scheduler.StartAsync()
				defer scheduler.Stop()
			}
			c.configHandler.HandleChanges(func(newConfig config.Config, err error) {
				if err != nil {
					slog.Error("SERVE", "message", "the changed configuration is invalid and was ignored", "error", err)
					return
				}
				if newConfig.DebugMode {
					c.logLevel.Set(slog.LevelDebug)
				} else if !c.debug {
					c.logLevel.Set(slog.LevelInfo)
				}
				slog.Info("SERVE", "message", "configuration reloaded, changes other than the log level apply after a restart")
			})
			c.configHandler.Watch()
			if !c.debug && !gwConfig.DebugMode {
				c.logLevel.Set(slog.LevelInfo)
			}

			errs := make(chan error, 1)
			go func() {
				errs <- server.Start()
			}()
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(quit)
			select {
			case err := <-errs:
				return err
			case <-quit:
			case <-cmd.Context().Done():
			}
			slog.Info("SERVE", "message", "received signal to shut down the server")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
}
