package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	scribe "github.com/homiletic/scribe"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show an entry",
	Long:  `Show an entry by its ID. Outputs the transcript by default, or the full entry as JSON with --json.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]

		s, err := openSession(scribe.WithMustExist(true))
		if err != nil {
			fatal("Error initializing library", err)
		}
		defer s.Close()

		entry, err := s.Store().Get(context.Background(), id)
		if err != nil {
			fatal("Error reading entry", err)
		}

		if showJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(entry); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		fmt.Print(entry.FullText)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
}
