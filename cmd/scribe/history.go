package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	scribe "github.com/homiletic/scribe"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show an entry's event log",
	Long:  `History prints the persisted mutation log of a document: one line per event with version, kind, actor, and timestamp.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]

		s, err := openSession(scribe.WithMustExist(true))
		if err != nil {
			fatal("Error initializing library", err)
		}
		defer s.Close()

		snap, err := s.Store().LoadSnapshot(context.Background(), id)
		if err != nil {
			fatal("Error loading document", err)
		}
		if snap == nil {
			fatal("Error loading document", fmt.Errorf("entry %s has no structured document", id))
		}

		if historyJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(snap.EventLog); err != nil {
				fatal("Error encoding JSON", err)
			}
			return
		}

		fmt.Printf("version %d, %d events\n", snap.Version, len(snap.EventLog))
		for _, event := range snap.EventLog {
			fmt.Printf("v%-4d %-18s %-7s %s\n",
				event.ResultingVersion, event.Kind, event.Actor,
				event.Timestamp.Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
}
