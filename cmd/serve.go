package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixelhoard/gallery/internal/config"
	"github.com/pixelhoard/gallery/internal/embed"
	"github.com/pixelhoard/gallery/internal/gallery"
	"github.com/pixelhoard/gallery/internal/search"
	"github.com/pixelhoard/gallery/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the gallery API server.
The server exposes folder loading with asynchronous enrichment jobs, sorted
browsing, hybrid search, captions, similarity and face management over HTTP.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

func runServe(cmd *cobra.Command, args []string) error {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	g := gallery.New(st)
	enricher := newEnricher(ctx, cfg, st)

	var embedder embed.Provider
	if cfg.Embedding.URL != "" {
		embedder = embed.NewClient(cfg.Embedding.URL)
	}
	resolver := search.NewResolver(st, embedder)
	resolver.SetThreshold(cfg.Defaults.Search.Threshold)
	resolver.SetLimit(cfg.Defaults.Search.Limit)

	server := web.NewServer(host, port, st, g, enricher, resolver)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting gallery API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
