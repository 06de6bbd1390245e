package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	scribe "github.com/homiletic/scribe"
)

var (
	engineScript string
	enginePython string
	engineModel  string
	engineLang   string
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [media]",
	Short: "Transcribe a recording into the library",
	Long: `Transcribe runs the external engine on a media file and saves the
result as a library entry. Progress goes to stderr; the entry ID is
printed on stdout.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		media := args[0]
		if engineScript == "" {
			fatal("transcribe", fmt.Errorf("--engine is required"))
		}

		s, err := openSession(
			scribe.WithAutoInit(true),
			scribe.WithEngine(engineScript),
			scribe.WithPython(enginePython),
		)
		if err != nil {
			fatal("Error initializing library", err)
		}
		defer s.Close()

		entry, err := s.Transcribe(context.Background(), scribe.TranscribeRequest{
			FilePath: media,
			Model:    engineModel,
			Language: engineLang,
		}, func(p scribe.TranscribeProgress) {
			fmt.Fprintf(os.Stderr, "[%s] %3.0f%% %s\n", p.StageID, p.StageProgress*100, p.Message)
		})
		if err != nil {
			fatal("Error transcribing", err)
		}

		fmt.Println(entry.ID)
	},
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
	transcribeCmd.Flags().StringVar(&engineScript, "engine", "", "Path to the transcription helper script")
	transcribeCmd.Flags().StringVar(&enginePython, "python", "", "Python interpreter for the helper")
	transcribeCmd.Flags().StringVar(&engineModel, "model", "", "Model name passed to the engine")
	transcribeCmd.Flags().StringVar(&engineLang, "language", "", "Language hint passed to the engine")
}
