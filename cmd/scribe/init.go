package main

import (
	"fmt"

	"github.com/spf13/cobra"

	scribe "github.com/homiletic/scribe"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a library",
	Long:  `Init creates a library directory with git history and the hidden system directory.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		s, err := scribe.Open(path,
			scribe.WithAutoInit(true),
			scribe.WithVersioning(!gitless),
		)
		if err != nil {
			fatal("Error initializing library", err)
		}
		s.Close()

		fmt.Printf("Initialized library at %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
