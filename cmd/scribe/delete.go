package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	scribe "github.com/homiletic/scribe"
	"github.com/homiletic/scribe/pkg/library"
)

var deleteReason string

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an entry",
	Long:  `Delete removes an entry and its structured document from the library, recording the removal in git history.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]

		s, err := openSession(scribe.WithMustExist(true))
		if err != nil {
			fatal("Error initializing library", err)
		}
		defer s.Close()

		ctx := context.Background()
		if deleteReason != "" {
			ctx = library.WithChangeReason(ctx, deleteReason)
		}

		if err := s.Store().Delete(ctx, id); err != nil {
			fatal("Error deleting entry", err)
		}
		fmt.Printf("Deleted %s\n", id)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().StringVarP(&deleteReason, "message", "m", "", "Commit message for the deletion")
}
