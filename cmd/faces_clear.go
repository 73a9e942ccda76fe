package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelhoard/gallery/internal/config"
)

var facesClearCmd = &cobra.Command{
	Use:   "clear [photo-path]",
	Short: "Delete all detected faces for a photo",
	Long: `Delete every stored face record for a photo.

The next 'gallery index' run re-detects faces for the photo if it changed
on disk, or leaves it without faces otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runFacesClear,
}

func init() {
	facesCmd.AddCommand(facesClearCmd)
}

func runFacesClear(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg := config.Load()
	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ClearFaces(ctx, path); err != nil {
		return fmt.Errorf("failed to clear faces: %w", err)
	}

	fmt.Printf("Cleared faces for %s\n", path)
	return nil
}
