package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pixelhoard/gallery/internal/config"
	"github.com/pixelhoard/gallery/internal/search"
)

var similarCmd = &cobra.Command{
	Use:   "similar [photo-path]",
	Short: "Find indexed photos similar to a given photo",
	Long: `Find stored photos whose caption embeddings are closest to the given
photo's embedding.

Prerequisites:
- The photo and its candidates must have been indexed with an embedding
  backend available (see 'gallery index').

Examples:
  gallery similar ~/Pictures/2024/beach.jpg
  gallery similar ~/Pictures/2024/beach.jpg --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().Int("limit", 10, "Maximum number of results")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	path := args[0]
	limit := mustGetInt(cmd, "limit")

	cfg := config.Load()
	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	photos, err := st.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load photo records: %w", err)
	}

	idx := search.NewSimilarIndex()
	idx.Build(photos)

	query := idx.Embedding(path)
	if query == nil {
		return fmt.Errorf("no embedding stored for %s. Run 'gallery index' with an embedding backend first", path)
	}

	matches, err := idx.Nearest(query, limit, path)
	if err != nil {
		return fmt.Errorf("similarity search failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println("No similar photos found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHOTO\tSIMILARITY")
	fmt.Fprintln(w, "-----\t----------")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%.2f%%\n", m.Path, m.Similarity*100)
	}
	w.Flush()

	return nil
}
