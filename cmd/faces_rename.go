package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pixelhoard/gallery/internal/config"
)

var facesRenameCmd = &cobra.Command{
	Use:   "rename [photo-path] [face-number] [name]",
	Short: "Name a detected face",
	Long: `Assign a person name to a detected face.

The face number is the one shown by 'gallery faces list'. Named persons can
be searched with "with <name>" queries.

Examples:
  gallery faces list ~/Pictures/2024/party.jpg
  gallery faces rename ~/Pictures/2024/party.jpg 0 Tina`,
	Args: cobra.ExactArgs(3),
	RunE: runFacesRename,
}

func init() {
	facesCmd.AddCommand(facesRenameCmd)
}

func runFacesRename(cmd *cobra.Command, args []string) error {
	path := args[0]
	name := args[2]

	number, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid face number %q", args[1])
	}

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
	if number < 0 || number >= len(faces) {
		return fmt.Errorf("face number %d out of range, photo has %d faces", number, len(faces))
	}

	if err := st.RenameFace(ctx, path, faces[number].Encoding, name); err != nil {
		return fmt.Errorf("failed to rename face: %w", err)
	}

	fmt.Printf("Face %d in %s is now %q\n", number, path, name)
	return nil
}
