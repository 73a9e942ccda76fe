package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pixelhoard/gallery/internal/config"
	"github.com/pixelhoard/gallery/internal/gallery"
	"github.com/pixelhoard/gallery/internal/pipeline"
)

var indexCmd = &cobra.Command{
	Use:   "index [folder]",
	Short: "Index a folder of photos",
	Long: `Index every supported image in a folder (recursively) into the database.

Photos whose file modification time is unchanged since the last run are
reused as-is; only new or modified files are sent to the AI backends. The
process can be stopped and re-run - already indexed photos are skipped.

Examples:
  # Index a folder
  gallery index ~/Pictures/2024

  # Index and skip face detection
  gallery index ~/Pictures/2024 --no-faces`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().Bool("no-faces", false, "Skip the face detection pass")
}

func runIndex(cmd *cobra.Command, args []string) error {
	folder := args[0]
	noFaces := mustGetBool(cmd, "no-faces")

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal...")
		cancel()
	}()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	g := gallery.New(st)
	gen, err := g.Load(ctx, folder)
	if err != nil {
		var emptyErr *gallery.EmptyFolderError
		if errors.As(err, &emptyErr) {
			fmt.Printf("No supported images found in %s\n", folder)
			return nil
		}
		return err
	}

	photos := g.Photos()
	pending := 0
	for _, p := range photos {
		if p.NeedsRefresh {
			pending++
		}
	}
	fmt.Printf("Found %d photos (%d new or modified)\n", len(photos), pending)

	enricher := newEnricher(ctx, cfg, st)
	opts := pipeline.Options{Generation: gen, Current: g.Generation}

	if err := drainEvents("Indexing metadata", enricher.RunMetadata(ctx, photos, opts)); err != nil {
		return err
	}

	if !noFaces {
		if !enricher.HasDetector() {
			fmt.Println("Face detection backend not configured, skipping faces")
		} else if err := drainEvents("Detecting faces", enricher.RunFaces(ctx, photos, opts)); err != nil {
			return err
		}
	}

	fmt.Println("Done")
	return nil
}

// drainEvents consumes one pipeline run, driving a progress bar and
// collecting per-photo errors. Per-photo errors don't abort the run; they
// are summarized at the end.
func drainEvents(description string, events <-chan pipeline.Event) error {
	var bar *progressbar.ProgressBar
	var photoErrors []string

	for ev := range events {
		if bar == nil && ev.Total > 0 {
			bar = progressbar.NewOptions(ev.Total,
				progressbar.OptionSetDescription(description),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("photos"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionFullWidth(),
			)
		}
		if bar != nil {
			_ = bar.Set(ev.Processed)
		}
		if ev.Err != nil {
			photoErrors = append(photoErrors, fmt.Sprintf("%s: %v", ev.Path, ev.Err))
		}
		if ev.Stale {
			fmt.Println("\nRun superseded by a newer folder load, stopping")
			return nil
		}
	}
	fmt.Println()

	if len(photoErrors) > 0 {
		fmt.Printf("Errors: %d\n", len(photoErrors))
		for _, msg := range photoErrors {
			fmt.Printf("  - %s\n", msg)
		}
	}
	return nil
}
