package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdg-garage/msp-registration/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "server",
		Short:        "Registration form backend with local-first remote sync",
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().StringP("port", "p", "", "HTTP port (overrides PORT)")
	_ = viper.BindPFlag("PORT", rootCmd.PersistentFlags().Lookup("port"))

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server and the sync schedulers (default)",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Push every local registration to the configured remote stores once",
			RunE:  runSync,
		},
		&cobra.Command{
			Use:   "token",
			Short: "Print an admin token for the protected endpoints",
			RunE:  runToken,
		},
	)
	return rootCmd
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, s := range a.schedulers() {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Run(ctx)
		}()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", a.cfg.Port),
		Handler: a.router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "port", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server shutdown failed", "error", err)
	}
	wg.Wait()
	return nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.syncOnce(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Registrations synced")
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd.Context())
	if err != nil {
		return err
	}
	token, err := a.auth.GenerateToken()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
