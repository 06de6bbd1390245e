package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	scribe "github.com/homiletic/scribe"
)

var (
	listJSON  bool
	filterTag string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all entries in the library",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openSession(scribe.WithMustExist(true))
		if err != nil {
			fatal("Error initializing library", err)
		}
		defer s.Close()

		entries, err := s.Store().List(context.Background())
		if err != nil {
			fatal("Error listing entries", err)
		}

		var filtered []scribe.Summary
		for _, entry := range entries {
			if filterTag != "" {
				hasTag := false
				for _, t := range entry.Tags {
					if t == filterTag {
						hasTag = true
						break
					}
				}
				if !hasTag {
					continue
				}
			}
			filtered = append(filtered, entry)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(filtered); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		for _, entry := range filtered {
			title := ""
			if entry.Title != "" {
				title = fmt.Sprintf("- %s", entry.Title)
			}
			fmt.Printf("%s %s\n", entry.ID, title)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&filterTag, "tag", "", "Filter entries by tag")
}
