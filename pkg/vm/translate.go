// Package vm translates the stack-based VM language into Hack assembly.
//
// One CodeWriter is shared by every file of a program: it owns the output
// stream, the comparison label serials and the call-site counters that keep
// generated labels unique across files.
package vm

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Source is one VM translation unit.
type Source struct {
	Name string // path or file name; its base name scopes statics
	R    io.Reader
}

type Options struct {
	// Bootstrap emits SP=256 and call Sys.init 0 before any file.
	Bootstrap bool
	// Annotate precedes each command's code with a comment.
	Annotate bool
}

// Translate writes the assembly for sources, in order, to w.
func Translate(w io.Writer, sources []Source, opts Options) error {
	cw := NewCodeWriter(w, opts.Annotate)
	if opts.Bootstrap {
		cw.WriteInit()
	}
	for _, src := range sources {
		if err := cw.TranslateFile(src.Name, src.R); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// TranslateFile translates every command read from r. name sets the file
// scope, see SetFileName.
func (cw *CodeWriter) TranslateFile(name string, r io.Reader) error {
	p, err := NewParser(r)
	if err != nil {
		return errors.Wrapf(err, "%s", name)
	}
	cw.SetFileName(name)
	logrus.Debugf("vm: translating %s as %q", name, cw.fileName)

	n := 0
	for p.HasMore() {
		p.Advance()
		if err := cw.translateCommand(p); err != nil {
			return errors.Wrapf(err, "%s:%d", name, p.Line())
		}
		n++
	}
	logrus.Debugf("vm: %s: %d commands", name, n)
	return nil
}

func (cw *CodeWriter) translateCommand(p *Parser) error {
	if err := p.Validate(); err != nil {
		return err
	}
	cw.comment("%s: %s", cw.fileName, p.Text())

	switch kind := p.Kind(); kind {
	case CmdArithmetic:
		op, err := ParseOp(p.Command())
		if err != nil {
			return err
		}
		return cw.WriteArithmetic(op)

	case CmdPush, CmdPop:
		arg1, err := p.Arg1()
		if err != nil {
			return err
		}
		seg, err := ParseSegment(arg1)
		if err != nil {
			return err
		}
		index, err := p.Index()
		if err != nil {
			return err
		}
		return cw.WritePushPop(kind, seg, index)

	case CmdLabel, CmdGoto, CmdIf:
		label, err := p.Arg1()
		if err != nil {
			return err
		}
		switch kind {
		case CmdLabel:
			cw.WriteLabel(label)
		case CmdGoto:
			cw.WriteGoto(label)
		default:
			cw.WriteIf(label)
		}

	case CmdFunction, CmdCall:
		name, err := p.Arg1()
		if err != nil {
			return err
		}
		n, err := p.Index()
		if err != nil {
			return err
		}
		if kind == CmdFunction {
			cw.WriteFunction(name, n)
		} else {
			cw.WriteCall(name, n)
		}

	case CmdReturn:
		cw.WriteReturn()
	}
	return nil
}
