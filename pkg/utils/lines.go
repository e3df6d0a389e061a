package utils

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// CommentMarker starts a line comment in both VM and assembly source.
const CommentMarker = "//"

// SourceLine is a logical source line with comments and surrounding
// whitespace removed. No is the 1-based physical line it came from.
type SourceLine struct {
	No   int
	Text string
}

// ReadSourceLines loads r in full, keeping only lines that are non-empty once
// everything from the first comment marker on has been dropped and the rest
// trimmed.
func ReadSourceLines(r io.Reader) ([]SourceLine, error) {
	var lines []SourceLine
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	no := 0
	for s.Scan() {
		no++
		text := StripComment(s.Text())
		if text == "" {
			continue
		}
		lines = append(lines, SourceLine{No: no, Text: text})
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "reading source")
	}
	return lines, nil
}

// StripComment removes a trailing line comment and surrounding whitespace.
func StripComment(line string) string {
	if i := strings.Index(line, CommentMarker); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
