package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gallery",
	Short: "An AI-powered photo gallery with incremental indexing and hybrid search",
	Long: `Gallery indexes folders of photos into a local database, enriching each
photo in the background with AI tags, caption embeddings, EXIF location and
detected faces. Indexed photos can be browsed, searched by tag, person or
meaning, and compared for visual similarity.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
