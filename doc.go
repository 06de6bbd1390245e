// Package scribe is the composition root for the sermon transcription
// document engine.
//
// It connects the document domain (versioned AST, invertible events,
// undo/redo) with the infrastructure adapters (filesystem library,
// git history, the external transcription engine) behind a small
// facade.
//
// Philosophy:
//
// Scribe treats a transcribed sermon as a versioned document, not a
// text file. Every structural edit is an invertible event over an
// immutable tree, so the full history of a document is replayable and
// undo is bit-for-bit exact. The rich-text editor is a projection of
// that tree, kept consistent by a sync coordinator that debounces
// local edits and suppresses echoes of programmatic updates.
//
// Features:
//
//   - **Versioned document state**: immutable snapshots, append-only
//     event log, exact undo/redo.
//   - **Node identity**: every paragraph, heading, and scripture
//     passage carries a stable UUID across edits.
//   - **Passage extraction**: scripture quotes are indexed with
//     normalized references and verification state.
//   - **Library with history**: one Markdown file per sermon plus a
//     structured sidecar, auto-committed to git.
//   - **External engine boundary**: transcription runs in a Python
//     helper spoken to over stdio.
//
// Usage:
//
//	// Open a library with functional options
//	s, err := scribe.Open("./sermons",
//		scribe.WithAutoInit(true),
//		scribe.WithLogger(logger),
//	)
//
//	// Transcribe a recording into the library
//	entry, err := s.Transcribe(ctx, scribe.TranscribeRequest{
//		FilePath: "easter.mp3",
//	}, nil)
package scribe
