package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pixelhoard/gallery/internal/config"
	"github.com/pixelhoard/gallery/internal/embed"
	"github.com/pixelhoard/gallery/internal/gallery"
	"github.com/pixelhoard/gallery/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [folder] [query...]",
	Short: "Search indexed photos by tag, person or meaning",
	Long: `Search the photos of an indexed folder.

Query words are matched against AI tags first. A "with <name>" suffix
matches photos containing a face tagged with that name; several names can
be joined with "and" or commas. When nothing matches exactly, the query
falls back to semantic similarity over caption embeddings.

Examples:
  # Tag search
  gallery search ~/Pictures/2024 dog

  # Person search
  gallery search ~/Pictures/2024 with Tina

  # Combined
  gallery search ~/Pictures/2024 beach with Tina and Marco

  # Semantic fallback kicks in for phrases no tag matches
  gallery search ~/Pictures/2024 golden hour at the lake`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("sort", "date", "Sort mode for results: date, size or name")
	searchCmd.Flags().Float64("threshold", search.DefaultThreshold, "Minimum cosine similarity for semantic matches")
	searchCmd.Flags().Int("limit", search.DefaultLimit, "Maximum number of semantic results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	folder := args[0]
	query := strings.Join(args[1:], " ")

	sortMode, err := gallery.ParseSortMode(mustGetString(cmd, "sort"))
	if err != nil {
		return err
	}
	threshold := mustGetFloat64(cmd, "threshold")
	limit := mustGetInt(cmd, "limit")

	cfg := config.Load()
	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	g := gallery.New(st)
	g.SetSort(sortMode)
	if _, err := g.Load(ctx, folder); err != nil {
		return err
	}

	var embedder embed.Provider
	if cfg.Embedding.URL != "" {
		embedder = embed.NewClient(cfg.Embedding.URL)
	}

	resolver := search.NewResolver(st, embedder)
	resolver.SetThreshold(threshold)
	resolver.SetLimit(limit)

	results, err := resolver.Resolve(ctx, g.Photos(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching photos")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHOTO\tDATE\tLOCATION\tTAGS")
	fmt.Fprintln(w, "-----\t----\t--------\t----")
	for _, p := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Path, p.ModTime.Format("2006-01-02 15:04"), p.Location, p.Tags)
	}
	w.Flush()

	fmt.Printf("\n%d photos\n", len(results))
	return nil
}
