package library

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry is one sermon in the library: the frontmatter fields plus the
// plain transcript body. The structured document lives in the sidecar,
// not here; the Markdown file stays readable by any editor.
type Entry struct {
	ID               string    `yaml:"-"`
	Title            string    `yaml:"title,omitempty"`
	Speaker          string    `yaml:"speaker,omitempty"`
	Date             time.Time `yaml:"date,omitempty"`
	PrimaryReference string    `yaml:"reference,omitempty"`
	Tags             []string  `yaml:"tags,omitempty"`
	// FileName and FilePath point at the source recording the entry
	// was transcribed from. Empty for entries created by hand.
	FileName string `yaml:"fileName,omitempty"`
	FilePath string `yaml:"filePath,omitempty"`
	IsSermon bool   `yaml:"sermon"`
	FullText string `yaml:"-"`
}

// Summary is the cheap listing view of an entry, served from the
// metadata index without parsing the file body.
type Summary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title,omitempty"`
	Speaker          string    `json:"speaker,omitempty"`
	Date             time.Time `json:"date,omitempty"`
	PrimaryReference string    `json:"reference,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	LastModified     time.Time `json:"lastModified"`
}

// EncodeEntry serializes an entry to Markdown with YAML frontmatter.
func EncodeEntry(e Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(e); err != nil {
		return nil, err
	}
	encoder.Close()
	buf.WriteString("---\n")
	buf.WriteString(e.FullText)
	return buf.Bytes(), nil
}

// ParseEntry parses a Markdown file with optional YAML frontmatter.
// A file with no frontmatter is a plain note: body only, not a sermon.
func ParseEntry(id string, data []byte) (Entry, error) {
	e := Entry{ID: id}

	if !bytes.HasPrefix(data, []byte("---\n")) && !bytes.HasPrefix(data, []byte("---\r\n")) {
		e.FullText = string(data)
		return e, nil
	}

	rest := data[3:]
	parts := bytes.SplitN(rest, []byte("---"), 2)
	if len(parts) == 1 {
		return Entry{}, errors.New("frontmatter started but no closing delimiter found")
	}

	if err := yaml.Unmarshal(parts[0], &e); err != nil {
		return Entry{}, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	body := string(parts[1])
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\r\n")
	e.FullText = body
	e.ID = id

	return e, nil
}

// summaryOf projects an entry onto its listing view.
func summaryOf(e Entry, mtime time.Time) *Summary {
	return &Summary{
		ID:               e.ID,
		Title:            e.Title,
		Speaker:          e.Speaker,
		Date:             e.Date,
		PrimaryReference: e.PrimaryReference,
		Tags:             e.Tags,
		LastModified:     mtime,
	}
}
