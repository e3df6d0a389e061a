package vm

import "github.com/pkg/errors"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownSegment = errors.New("unknown segment")
)

// Op is an arithmetic or logical VM command.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpNeg
	OpEq
	OpGt
	OpLt
	OpAnd
	OpOr
	OpNot
)

func ParseOp(s string) (Op, error) {
	switch s {
	case "add":
		return OpAdd, nil
	case "sub":
		return OpSub, nil
	case "neg":
		return OpNeg, nil
	case "eq":
		return OpEq, nil
	case "gt":
		return OpGt, nil
	case "lt":
		return OpLt, nil
	case "and":
		return OpAnd, nil
	case "or":
		return OpOr, nil
	case "not":
		return OpNot, nil
	}
	return 0, errors.Wrapf(ErrUnknownCommand, "%q", s)
}

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpNeg:
		return "neg"
	case OpEq:
		return "eq"
	case OpGt:
		return "gt"
	case OpLt:
		return "lt"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNot:
		return "not"
	}
	return "unknown"
}

// Segment is a VM memory segment.
type Segment int

const (
	SegArgument Segment = iota
	SegLocal
	SegStatic
	SegConstant
	SegThis
	SegThat
	SegPointer
	SegTemp
)

const (
	pointerBase = 3
	tempBase    = 5
	pointerSize = 2
	tempSize    = 8
)

func ParseSegment(s string) (Segment, error) {
	switch s {
	case "argument":
		return SegArgument, nil
	case "local":
		return SegLocal, nil
	case "static":
		return SegStatic, nil
	case "constant":
		return SegConstant, nil
	case "this":
		return SegThis, nil
	case "that":
		return SegThat, nil
	case "pointer":
		return SegPointer, nil
	case "temp":
		return SegTemp, nil
	}
	return 0, errors.Wrapf(ErrUnknownSegment, "%q", s)
}

func (s Segment) String() string {
	switch s {
	case SegArgument:
		return "argument"
	case SegLocal:
		return "local"
	case SegStatic:
		return "static"
	case SegConstant:
		return "constant"
	case SegThis:
		return "this"
	case SegThat:
		return "that"
	case SegPointer:
		return "pointer"
	case SegTemp:
		return "temp"
	}
	return "unknown"
}
