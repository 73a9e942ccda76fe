package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pixelhoard/gallery/internal/config"
)

var facesCmd = &cobra.Command{
	Use:   "faces",
	Short: "Manage detected faces",
	Long: `Manage the faces detected in indexed photos.

Faces are detected during 'gallery index' when a face detection backend is
configured. Detected faces start unnamed; naming one makes the person
searchable with "with <name>" queries.`,
}

var facesListCmd = &cobra.Command{
	Use:   "list [photo-path]",
	Short: "List faces detected in a photo",
	Args:  cobra.ExactArgs(1),
	RunE:  runFacesList,
}

func init() {
	rootCmd.AddCommand(facesCmd)
	facesCmd.AddCommand(facesListCmd)
}

func runFacesList(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg := config.Load()
	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	faces, err := st.GetFaces(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load faces: %w", err)
	}

	if len(faces) == 0 {
		fmt.Printf("No faces detected in %s\n", path)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tBOX (top,right,bottom,left)")
	fmt.Fprintln(w, "-\t----\t---------------------------")
	for i, f := range faces {
		name := f.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "%d\t%s\t%d,%d,%d,%d\n", i, name, f.Box.Top, f.Box.Right, f.Box.Bottom, f.Box.Left)
	}
	w.Flush()

	return nil
}
