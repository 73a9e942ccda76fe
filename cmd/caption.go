package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelhoard/gallery/internal/config"
)

var captionCmd = &cobra.Command{
	Use:   "caption [photo-path]",
	Short: "Show the detailed AI caption for a photo",
	Long: `Show the detailed caption for a single photo.

The caption is generated on first request and cached in the database;
subsequent calls return the stored caption unless the file changed on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runCaption,
}

func init() {
	rootCmd.AddCommand(captionCmd)
}

func runCaption(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg := config.Load()
	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	enricher := newEnricher(ctx, cfg, st)

	caption, err := enricher.CaptionFor(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to caption %s: %w", path, err)
	}

	fmt.Println(caption)
	return nil
}
