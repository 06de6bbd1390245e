// Package transcribe is the boundary to the external transcription
// engine, a Python helper spoken to over stdio. The request goes to
// the helper's stdin as one JSON object; the helper answers with
// line-delimited JSON progress events followed by a single terminal
// result. The engine runs one job at a time.
package transcribe
