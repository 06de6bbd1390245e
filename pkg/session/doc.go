// Package session ties the engine together for a running application:
// a Session owns the library store, the transcription engine client,
// and at most one active document Controller. The Controller holds the
// live document state and routes edits between the rich-text view and
// the mutator through the sync coordinator.
package session
