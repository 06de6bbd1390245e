package transcribe

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"github.com/homiletic/scribe/pkg/docstate"
)

// Request is the job description sent to the engine's stdin.
type Request struct {
	FilePath     string         `json:"filePath"`
	Model        string         `json:"model,omitempty"`
	Language     string         `json:"language,omitempty"`
	OutputFormat string         `json:"outputFormat,omitempty"`
	Advanced     map[string]any `json:"advancedSettings,omitempty"`
}

// Progress is one line-delimited progress event from the engine.
// StageProgress runs 0..1 within the stage.
type Progress struct {
	StageID       string  `json:"stageId"`
	StageProgress float64 `json:"stageProgress"`
	Message       string  `json:"message,omitempty"`
}

// Result is the engine's terminal message for a job.
type Result struct {
	Success   bool               `json:"success"`
	Text      string             `json:"text,omitempty"`
	Document  *docstate.Snapshot `json:"sermonDocument,omitempty"`
	Error     string             `json:"error,omitempty"`
	Cancelled bool               `json:"cancelled,omitempty"`
}

// cancelMessage is written to the engine's stdin to request a graceful
// stop; the engine answers with a cancelled result and exits.
type cancelMessage struct {
	Command string `json:"command"`
}

// decodeStream consumes the engine's stdout: progress events are
// forwarded to onProgress, and the first terminal result ends the
// stream. Lines that are not valid JSON are skipped (the helper may
// leak stray prints); a stream that ends without a result is an error.
func decodeStream(r io.Reader, onProgress func(Progress)) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}

		// The terminal result is the only message carrying "success".
		if gjson.GetBytes(line, "success").Exists() {
			var res Result
			if err := json.Unmarshal(line, &res); err != nil {
				return nil, fmt.Errorf("transcribe: malformed result: %w", err)
			}
			return &res, nil
		}

		if gjson.GetBytes(line, "stageId").Exists() {
			var p Progress
			if err := json.Unmarshal(line, &p); err != nil {
				continue
			}
			if onProgress != nil {
				onProgress(p)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("transcribe: reading engine output: %w", err)
	}
	return nil, fmt.Errorf("transcribe: engine exited without a result")
}
