package vm

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"hackvm/pkg/utils"
)

// CommandKind classifies a VM command by its leading token.
type CommandKind int

const (
	CmdArithmetic CommandKind = iota
	CmdPush
	CmdPop
	CmdLabel
	CmdGoto
	CmdIf
	CmdFunction
	CmdReturn
	CmdCall
)

func (k CommandKind) String() string {
	switch k {
	case CmdArithmetic:
		return "arithmetic"
	case CmdPush:
		return "push"
	case CmdPop:
		return "pop"
	case CmdLabel:
		return "label"
	case CmdGoto:
		return "goto"
	case CmdIf:
		return "if-goto"
	case CmdFunction:
		return "function"
	case CmdReturn:
		return "return"
	case CmdCall:
		return "call"
	}
	return "unknown"
}

// arity is the number of tokens, verb included, each kind takes.
func (k CommandKind) arity() int {
	switch k {
	case CmdPush, CmdPop, CmdFunction, CmdCall:
		return 3
	case CmdLabel, CmdGoto, CmdIf:
		return 2
	}
	return 1
}

var (
	// ErrWrongCommand is returned when an argument is requested from a
	// command kind that does not take it.
	ErrWrongCommand = errors.New("wrong command kind")
	// ErrMalformedCommand covers missing, surplus or unparsable arguments.
	ErrMalformedCommand = errors.New("malformed command")
)

// Parser is a cursor over the commands of one VM source.
type Parser struct {
	lines  []utils.SourceLine
	pos    int
	cur    utils.SourceLine
	fields []string
}

func NewParser(r io.Reader) (*Parser, error) {
	lines, err := utils.ReadSourceLines(r)
	if err != nil {
		return nil, err
	}
	return &Parser{lines: lines}, nil
}

func (p *Parser) HasMore() bool {
	return p.pos < len(p.lines)
}

// Advance makes the next command current. Calling it when HasMore is false
// is a programming error.
func (p *Parser) Advance() {
	if !p.HasMore() {
		panic("vm: Advance called with no more commands")
	}
	p.cur = p.lines[p.pos]
	p.fields = strings.Fields(p.cur.Text)
	p.pos++
}

// Line returns the physical line number of the current command.
func (p *Parser) Line() int { return p.cur.No }

func (p *Parser) Text() string { return strings.Join(p.fields, " ") }

// Command returns the verb of the current command.
func (p *Parser) Command() string {
	return p.fields[0]
}

func (p *Parser) Kind() CommandKind {
	switch p.fields[0] {
	case "push":
		return CmdPush
	case "pop":
		return CmdPop
	case "label":
		return CmdLabel
	case "goto":
		return CmdGoto
	case "if-goto":
		return CmdIf
	case "function":
		return CmdFunction
	case "call":
		return CmdCall
	case "return":
		return CmdReturn
	}
	return CmdArithmetic
}

// Validate checks that the current command carries exactly the arguments its
// kind requires.
func (p *Parser) Validate() error {
	k := p.Kind()
	if len(p.fields) != k.arity() {
		return errors.Wrapf(ErrMalformedCommand, "%s takes %d argument(s), got %q", k, k.arity()-1, p.Text())
	}
	return nil
}

// Arg1 returns the first argument. For arithmetic commands that is the verb
// itself; return has none.
func (p *Parser) Arg1() (string, error) {
	switch p.Kind() {
	case CmdReturn:
		return "", errors.Wrap(ErrWrongCommand, "return has no arguments")
	case CmdArithmetic:
		return p.fields[0], nil
	}
	if len(p.fields) < 2 {
		return "", errors.Wrapf(ErrMalformedCommand, "missing argument in %q", p.Text())
	}
	return p.fields[1], nil
}

// Arg2 returns the second argument of push, pop, function and call.
func (p *Parser) Arg2() (string, error) {
	switch k := p.Kind(); k {
	case CmdPush, CmdPop, CmdFunction, CmdCall:
	default:
		return "", errors.Wrapf(ErrWrongCommand, "%s has no second argument", k)
	}
	if len(p.fields) < 3 {
		return "", errors.Wrapf(ErrMalformedCommand, "missing argument in %q", p.Text())
	}
	return p.fields[2], nil
}

// Index parses Arg2 as a non-negative decimal integer.
func (p *Parser) Index() (int, error) {
	s, err := p.Arg2()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(ErrMalformedCommand, "%q is not a non-negative integer", s)
	}
	return n, nil
}
