package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fibertree/fibertree/internal/config"
	"github.com/fibertree/fibertree/internal/server"
	"github.com/fibertree/fibertree/internal/tree"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	store, dbPath, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tr, err := tree.New(store)
	if err != nil {
		return fmt.Errorf("open tree: %w", err)
	}

	srv := server.New(tr, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Msgf("fibertree serving on %s (db: %s)", addr, dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Msgf("server error: %v", err)
			os.Exit(1)
		}
	}()

	<-done
	log.Info().Msg("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
