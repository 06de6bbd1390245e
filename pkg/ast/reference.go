package ast

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Interjection is a speaker aside inside a quoted passage, located by
// its character offset into the quoted text.
type Interjection struct {
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// PassageRef carries the reference metadata of a passage node.
type PassageRef struct {
	Normalized    string         `json:"normalized,omitempty"`
	Book          string         `json:"book,omitempty"`
	Chapter       int            `json:"chapter,omitempty"`
	VerseStart    int            `json:"verseStart,omitempty"`
	VerseEnd      int            `json:"verseEnd,omitempty"`
	NonBiblical   bool           `json:"nonBiblical,omitempty"`
	Verified      bool           `json:"verified,omitempty"`
	Interjections []Interjection `json:"interjections,omitempty"`
	StartChar     int            `json:"startChar,omitempty"`
	EndChar       int            `json:"endChar,omitempty"`
	OriginalText  string         `json:"originalText,omitempty"`
}

// Clone returns a deep copy of the reference.
func (r *PassageRef) Clone() *PassageRef {
	if r == nil {
		return nil
	}
	c := *r
	if r.Interjections != nil {
		c.Interjections = append([]Interjection(nil), r.Interjections...)
	}
	return &c
}

// Equal reports whether two references carry identical metadata.
func (r *PassageRef) Equal(other *PassageRef) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Normalized != other.Normalized || r.Book != other.Book ||
		r.Chapter != other.Chapter || r.VerseStart != other.VerseStart ||
		r.VerseEnd != other.VerseEnd || r.NonBiblical != other.NonBiblical ||
		r.Verified != other.Verified || r.StartChar != other.StartChar ||
		r.EndChar != other.EndChar || r.OriginalText != other.OriginalText {
		return false
	}
	if len(r.Interjections) != len(other.Interjections) {
		return false
	}
	for i, ij := range r.Interjections {
		if ij != other.Interjections[i] {
			return false
		}
	}
	return true
}

// FormatReference derives the display reference string for a passage.
//
// Priority order:
//  1. the explicit normalized reference, if present;
//  2. "Book Chapter:VerseStart[-VerseEnd]" when book and chapter are known;
//  3. the raw original text;
//  4. the empty string (caller decides how to render an absent reference).
func FormatReference(r *PassageRef) string {
	if r == nil {
		return ""
	}
	if r.Normalized != "" {
		return r.Normalized
	}
	if r.Book != "" && r.Chapter > 0 {
		ref := fmt.Sprintf("%s %d", r.Book, r.Chapter)
		if r.VerseStart > 0 {
			ref += ":" + strconv.Itoa(r.VerseStart)
			if r.VerseEnd > 0 && r.VerseEnd != r.VerseStart {
				ref += "-" + strconv.Itoa(r.VerseEnd)
			}
		}
		return ref
	}
	return r.OriginalText
}

// refPattern matches "Book 3:16" / "Book 3:16-17", where the book name
// may itself start with a leading ordinal ("1 John 4:8").
var refPattern = regexp.MustCompile(`^((?:[1-3]\s+)?[A-Za-z][A-Za-z ]*?)\s+(\d+):(\d+)(?:\s*-\s*(\d+))?$`)

// ParseReference parses a user-typed reference like "John 3:16-17" into
// its parts. It is a best-effort convenience for free-form input and is
// deliberately not guaranteed to be an exact inverse of FormatReference:
// unusual book spellings or whitespace normalize lossily.
func ParseReference(s string) (*PassageRef, bool) {
	m := refPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, false
	}
	chapter, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, false
	}
	start, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, false
	}
	ref := &PassageRef{
		Book:       strings.Join(strings.Fields(m[1]), " "),
		Chapter:    chapter,
		VerseStart: start,
	}
	if m[4] != "" {
		end, err := strconv.Atoi(m[4])
		if err != nil || end < start {
			return nil, false
		}
		ref.VerseEnd = end
	}
	ref.Normalized = FormatReference(ref)
	return ref, true
}
