package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pixelhoard/gallery/internal/config"
	"github.com/pixelhoard/gallery/internal/gallery"
)

var photosCmd = &cobra.Command{
	Use:   "photos [folder]",
	Short: "List the photos of a folder in display order",
	Long: `List every supported image in a folder together with its indexed
metadata. Photos not indexed yet show up with empty tags.

Examples:
  gallery photos ~/Pictures/2024
  gallery photos ~/Pictures/2024 --sort name`,
	Args: cobra.ExactArgs(1),
	RunE: runPhotos,
}

func init() {
	rootCmd.AddCommand(photosCmd)

	photosCmd.Flags().String("sort", "date", "Sort mode: date (newest first), size (largest first) or name")
}

func runPhotos(cmd *cobra.Command, args []string) error {
	folder := args[0]

	sortMode, err := gallery.ParseSortMode(mustGetString(cmd, "sort"))
	if err != nil {
		return err
	}

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

	photos := g.Photos()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHOTO\tDATE\tSIZE\tLOCATION\tTAGS")
	fmt.Fprintln(w, "-----\t----\t----\t--------\t----")
	for _, p := range photos {
		tags := p.Tags
		if p.NeedsRefresh {
			tags = "(pending)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", p.Path, p.ModTime.Format("2006-01-02 15:04"), p.Size, p.Location, tags)
	}
	w.Flush()

	fmt.Printf("\n%d photos\n", len(photos))
	return nil
}
