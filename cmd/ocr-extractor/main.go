package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "ocr-extractor",
		Short:         "Extract text and tables from PDF, DOCX and image documents with a vision model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file overlaid on the environment")

	root.AddCommand(
		processCmd(&configPath),
		serveCmd(&configPath),
		infoCmd(),
		convertCmd(),
		healthCmd(&configPath),
		analyzeCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
