package asm

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"hackvm/pkg/hack"
	"hackvm/pkg/utils"
)

// CommandKind classifies an assembly line.
type CommandKind int

const (
	Address CommandKind = iota // @value
	Label                      // (symbol)
	Compute                    // dest=comp;jump
)

func (k CommandKind) String() string {
	switch k {
	case Address:
		return "address"
	case Label:
		return "label"
	case Compute:
		return "compute"
	}
	return "unknown"
}

// ErrWrongCommand is returned when a field is requested from a command kind
// that does not have it.
var ErrWrongCommand = errors.New("wrong command kind")

// Reader is a cursor over the logical lines of an assembly source. The lines
// are loaded once; Reset rewinds the cursor for another pass.
type Reader struct {
	lines []utils.SourceLine
	pos   int
	cur   utils.SourceLine
}

func NewReader(r io.Reader) (*Reader, error) {
	lines, err := utils.ReadSourceLines(r)
	if err != nil {
		return nil, err
	}
	return &Reader{lines: lines}, nil
}

func (rd *Reader) HasMore() bool {
	return rd.pos < len(rd.lines)
}

// Advance makes the next line current. Calling it when HasMore is false is a
// programming error.
func (rd *Reader) Advance() {
	if !rd.HasMore() {
		panic("asm: Advance called with no more lines")
	}
	rd.cur = rd.lines[rd.pos]
	rd.pos++
}

func (rd *Reader) Reset() {
	rd.pos = 0
	rd.cur = utils.SourceLine{}
}

// Line returns the physical line number of the current command.
func (rd *Reader) Line() int { return rd.cur.No }

func (rd *Reader) Text() string { return rd.cur.Text }

func (rd *Reader) Kind() CommandKind {
	t := rd.cur.Text
	switch {
	case strings.HasPrefix(t, "@"):
		return Address
	case len(t) >= 2 && strings.HasPrefix(t, "(") && strings.HasSuffix(t, ")"):
		return Label
	}
	return Compute
}

// Symbol returns the text between the delimiters of an address or label.
func (rd *Reader) Symbol() (string, error) {
	t := rd.cur.Text
	switch rd.Kind() {
	case Address:
		return t[1:], nil
	case Label:
		return t[1 : len(t)-1], nil
	}
	return "", errors.Wrapf(ErrWrongCommand, "symbol of %s command %q", Compute, t)
}

// Decompose splits a compute command into dest, comp and jump. Absent dest
// and jump parts come back as hack.Null.
func (rd *Reader) Decompose() (dest, comp, jump string, err error) {
	if k := rd.Kind(); k != Compute {
		return "", "", "", errors.Wrapf(ErrWrongCommand, "decompose %s command %q", k, rd.cur.Text)
	}
	rest := rd.cur.Text
	dest, jump = hack.Null, hack.Null
	if i := strings.Index(rest, "="); i >= 0 {
		dest, rest = rest[:i], rest[i+1:]
	}
	if i := strings.Index(rest, ";"); i >= 0 {
		rest, jump = rest[:i], rest[i+1:]
	}
	return dest, rest, jump, nil
}
