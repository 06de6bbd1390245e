package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	scribe "github.com/homiletic/scribe"
	"github.com/homiletic/scribe/pkg/docstate"
	"github.com/homiletic/scribe/pkg/export"
	"github.com/homiletic/scribe/pkg/session"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Render an entry for export",
	Long: `Export renders an entry's document tree to HTML tagged with the
target format (txt, md, docx, pdf) and prints it on stdout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		ctx := context.Background()

		s, err := openSession(scribe.WithMustExist(true))
		if err != nil {
			fatal("Error initializing library", err)
		}
		defer s.Close()

		snap, err := s.Store().LoadSnapshot(ctx, id)
		if err != nil {
			fatal("Error loading document", err)
		}

		var state *docstate.State
		if snap != nil {
			state = docstate.FromSnapshot(snap)
		} else {
			entry, err := s.Store().Get(ctx, id)
			if err != nil {
				fatal("Error reading entry", err)
			}
			state = docstate.New(session.RootFromText(entry.FullText))
		}

		req, err := export.NewRequest(state.Root, exportFormat)
		if err != nil {
			fatal("Error rendering", err)
		}
		fmt.Print(req.HTML)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "md", "Target format: txt|md|docx|pdf")
}
