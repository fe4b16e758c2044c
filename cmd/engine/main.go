package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Victor-armando18/dmn-getstarted/internal/bootstrap"
	"github.com/Victor-armando18/dmn-getstarted/internal/config"
	"github.com/Victor-armando18/dmn-getstarted/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Decision runtime: deploys decision tables and runs the process applications",
	Long: `engine deploys every decision table found in the resources directory,
notifies the registered process applications once the deployment is done and
serves the decision REST API until it receives SIGINT or SIGTERM.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults are used when empty)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging, nil)
	if err != nil {
		return err
	}

	app, err := bootstrap.Build(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start runtime: %w", err)
	}

	e := app.Echo()
	errCh := make(chan error, 1)
	go func() {
		log.Infof("serving decision API on %s", cfg.Server.ListenAddress)
		if err := e.Start(cfg.Server.ListenAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server exited: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown http server")
	}
	if err := app.Runtime.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("stop runtime")
	}
	log.Info("decision runtime stopped")
	return nil
}
