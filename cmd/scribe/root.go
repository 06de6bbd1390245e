package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	scribe "github.com/homiletic/scribe"
)

var (
	verbose     bool
	gitless     bool
	libraryPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "A sermon transcription engine with a versioned document library",
	Long: `Scribe turns sermon recordings into versioned documents.
Transcripts live as Markdown files in a git-backed library; every edit
is an invertible event, so document history is exact and replayable.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openSession resolves the library path and assembles a session with
// the shared flags applied.
func openSession(extra ...scribe.Option) (*scribe.Session, error) {
	path := libraryPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root, err := scribe.FindLibraryRoot(wd); err == nil {
			path = root
		} else {
			path = wd
		}
	}

	opts := []scribe.Option{
		scribe.WithVersioning(!gitless),
		scribe.WithLogger(slog.Default()),
	}
	opts = append(opts, extra...)
	return scribe.Open(path, opts...)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&gitless, "gitless", false, "Disable git history")
	rootCmd.PersistentFlags().StringVar(&libraryPath, "library", "", "Library path (default: nearest library root)")
}
