package vm

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"hackvm/pkg/hack"
)

// StackBase is where the bootstrap code points SP.
const StackBase = 256

// CodeWriter emits Hack assembly for VM commands.
//
// Registers used by the generated code:
//
//	SP, LCL, ARG, THIS, THAT  stack pointer and segment bases
//	R13                       resolved segment address; FRAME during return
//	R14                       constant scratch; return address during return
//
// The comparison serials and per-function call counts live here so that
// labels stay unique across every file written through one CodeWriter.
type CodeWriter struct {
	out      *bufio.Writer
	annotate bool

	fileName string
	function string

	nEq, nGt, nLt int
	calls         map[string]int
}

func NewCodeWriter(w io.Writer, annotate bool) *CodeWriter {
	return &CodeWriter{
		out:      bufio.NewWriter(w),
		annotate: annotate,
		calls:    make(map[string]int),
	}
}

func (cw *CodeWriter) line(format string, args ...any) {
	fmt.Fprintf(cw.out, format+"\n", args...)
}

func (cw *CodeWriter) lines(code ...string) {
	for _, c := range code {
		cw.out.WriteString(c)
		cw.out.WriteByte('\n')
	}
}

func (cw *CodeWriter) comment(format string, args ...any) {
	if cw.annotate {
		cw.line("// "+format, args...)
	}
}

// Flush writes out buffered code and reports the first write error, if any.
func (cw *CodeWriter) Flush() error {
	return cw.out.Flush()
}

// SetFileName starts a new translation unit. Statics and annotations use the
// base name of path, without extension, until the next call.
func (cw *CodeWriter) SetFileName(path string) {
	base := filepath.Base(path)
	cw.fileName = strings.TrimSuffix(base, filepath.Ext(base))
	cw.function = ""
}

func (cw *CodeWriter) FileName() string { return cw.fileName }

// scope is the prefix for labels declared by label/goto/if-goto. Commands
// that appear before any function in a file are scoped by the file name.
func (cw *CodeWriter) scope() string {
	if cw.function != "" {
		return cw.function
	}
	return cw.fileName
}

// WriteInit emits the bootstrap: SP=256, then call Sys.init 0.
func (cw *CodeWriter) WriteInit() {
	cw.comment("bootstrap")
	cw.line("@%d", StackBase)
	cw.lines("D=A", "@SP", "M=D")
	cw.WriteCall("Sys.init", 0)
}

// pushD pushes the D register.
func (cw *CodeWriter) pushD() {
	cw.lines("@SP", "A=M", "M=D", "@SP", "M=M+1")
}

// popD pops into D, leaving A pointing at the freed slot.
func (cw *CodeWriter) popD() {
	cw.lines("@SP", "AM=M-1", "D=M")
}

func (cw *CodeWriter) WriteArithmetic(op Op) error {
	switch op {
	case OpAdd:
		cw.binary("M=D+M")
	case OpSub:
		cw.binary("M=M-D")
	case OpAnd:
		cw.binary("M=D&M")
	case OpOr:
		cw.binary("M=D|M")
	case OpNeg:
		cw.unary("M=-M")
	case OpNot:
		cw.unary("M=!M")
	case OpEq:
		cw.nEq++
		cw.compare("EQ", hack.JumpJEQ, cw.nEq)
	case OpGt:
		cw.nGt++
		cw.compare("GT", hack.JumpJGT, cw.nGt)
	case OpLt:
		cw.nLt++
		cw.compare("LT", hack.JumpJLT, cw.nLt)
	default:
		return errors.Wrapf(ErrUnknownCommand, "arithmetic op %d", op)
	}
	return nil
}

// binary pops y and x, leaves x op y where x was.
func (cw *CodeWriter) binary(combine string) {
	cw.popD()
	cw.lines("@SP", "AM=M-1", combine, "@SP", "M=M+1")
}

func (cw *CodeWriter) unary(apply string) {
	cw.lines("@SP", "AM=M-1", apply, "@SP", "M=M+1")
}

// compare pushes -1 when x-y satisfies jump, 0 otherwise.
func (cw *CodeWriter) compare(kind string, jump hack.Jump, n int) {
	cw.popD()
	cw.lines("@SP", "AM=M-1", "D=M-D")
	cw.line("@%s.IF.%d", kind, n)
	cw.line("D;%s", jump)
	cw.lines("D=0")
	cw.line("@%s.ENDIF.%d", kind, n)
	cw.lines("0;JMP")
	cw.line("(%s.IF.%d)", kind, n)
	cw.lines("D=-1")
	cw.line("(%s.ENDIF.%d)", kind, n)
	cw.pushD()
}

// address stores the target address of seg[index] in R13. For constant it
// parks the value in R14 and points R13 there.
func (cw *CodeWriter) address(seg Segment, index int) error {
	switch seg {
	case SegArgument, SegLocal, SegThis, SegThat:
		cw.line("@%d", index)
		cw.lines("D=A")
		cw.line("@%s", baseRegister(seg))
		cw.lines("D=D+M")
	case SegPointer, SegTemp:
		base, size := pointerBase, pointerSize
		if seg == SegTemp {
			base, size = tempBase, tempSize
		}
		if index >= size {
			return errors.Wrapf(ErrMalformedCommand, "%s index %d out of range 0..%d", seg, index, size-1)
		}
		cw.line("@%d", index)
		cw.lines("D=A")
		cw.line("@%d", base)
		cw.lines("D=D+A")
	case SegStatic:
		cw.line("@%s.%d", cw.fileName, index)
		cw.lines("D=A")
	case SegConstant:
		if index > hack.MaxAddress {
			return errors.Wrapf(ErrMalformedCommand, "constant %d out of range 0..%d", index, hack.MaxAddress)
		}
		cw.line("@%d", index)
		cw.lines("D=A", "@R14", "M=D", "D=A")
	default:
		return errors.Wrapf(ErrUnknownSegment, "segment %d", seg)
	}
	cw.lines("@R13", "M=D")
	return nil
}

func baseRegister(seg Segment) string {
	switch seg {
	case SegArgument:
		return "ARG"
	case SegLocal:
		return "LCL"
	case SegThis:
		return "THIS"
	}
	return "THAT"
}

// WritePushPop emits push or pop for seg[index].
func (cw *CodeWriter) WritePushPop(kind CommandKind, seg Segment, index int) error {
	switch kind {
	case CmdPush:
		if err := cw.address(seg, index); err != nil {
			return err
		}
		cw.lines("@R13", "A=M", "D=M")
		cw.pushD()
	case CmdPop:
		if seg == SegConstant {
			return errors.Wrap(ErrMalformedCommand, "cannot pop into constant")
		}
		if err := cw.address(seg, index); err != nil {
			return err
		}
		cw.popD()
		cw.lines("@R13", "A=M", "M=D")
	default:
		return errors.Wrapf(ErrWrongCommand, "%s is not push or pop", kind)
	}
	return nil
}

// QualifyLabel scopes a VM label to the current function.
func (cw *CodeWriter) QualifyLabel(label string) string {
	return cw.scope() + "$" + label
}

func (cw *CodeWriter) WriteLabel(label string) {
	cw.line("(%s)", cw.QualifyLabel(label))
}

func (cw *CodeWriter) WriteGoto(label string) {
	cw.line("@%s", cw.QualifyLabel(label))
	cw.lines("0;JMP")
}

// WriteIf jumps when the popped word is nonzero.
func (cw *CodeWriter) WriteIf(label string) {
	cw.popD()
	cw.line("@%s", cw.QualifyLabel(label))
	cw.lines("D;JNE")
}

// WriteFunction declares name and zero-initialises its locals.
func (cw *CodeWriter) WriteFunction(name string, nLocals int) {
	cw.function = name
	cw.line("(%s)", name)
	for i := 0; i < nLocals; i++ {
		cw.lines("@0", "D=A")
		cw.pushD()
	}
}

// WriteCall saves the caller's frame, repositions ARG and LCL, and jumps to
// name. The return label counts calls to name across the whole run.
func (cw *CodeWriter) WriteCall(name string, nArgs int) {
	cw.calls[name]++
	ret := fmt.Sprintf("RETURN.%s.%d", name, cw.calls[name])

	cw.line("@%s", ret)
	cw.lines("D=A")
	cw.pushD()
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		cw.line("@%s", reg)
		cw.lines("D=M")
		cw.pushD()
	}
	// ARG = SP - nArgs - 5
	cw.lines("@SP", "D=M")
	cw.line("@%d", nArgs)
	cw.lines("D=D-A", "@5", "D=D-A", "@ARG", "M=D")
	// LCL = SP
	cw.lines("@SP", "D=M", "@LCL", "M=D")
	cw.line("@%s", name)
	cw.lines("0;JMP")
	cw.line("(%s)", ret)
}

// WriteReturn restores the caller's frame. The return value is stored at
// *ARG and SP reset to ARG+1 before ARG itself is restored.
func (cw *CodeWriter) WriteReturn() {
	// FRAME = LCL
	cw.lines("@LCL", "D=M", "@R13", "M=D")
	// RET = *(FRAME-5)
	cw.lines("@5", "A=D-A", "D=M", "@R14", "M=D")
	// *ARG = pop()
	cw.popD()
	cw.lines("@ARG", "A=M", "M=D")
	// SP = ARG+1
	cw.lines("@ARG", "D=M+1", "@SP", "M=D")
	// THAT = *(FRAME-1)
	cw.lines("@R13", "A=M-1", "D=M", "@THAT", "M=D")
	// THIS, ARG, LCL = *(FRAME-2), *(FRAME-3), *(FRAME-4)
	for i, reg := range []string{"THIS", "ARG", "LCL"} {
		cw.lines("@R13", "D=M")
		cw.line("@%d", i+2)
		cw.lines("A=D-A", "D=M")
		cw.line("@%s", reg)
		cw.lines("M=D")
	}
	// goto RET
	cw.lines("@R14", "A=M", "0;JMP")
}
