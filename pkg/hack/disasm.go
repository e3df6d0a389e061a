package hack

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Instruction is a decoded machine word.
type Instruction struct {
	Address bool
	Value   uint16 // valid when Address is set
	Dest    Dest
	Comp    Comp
	Jump    Jump
}

// String renders the instruction as assembly, leaving out null fields.
func (in Instruction) String() string {
	if in.Address {
		return "@" + strconv.Itoa(int(in.Value))
	}
	var b strings.Builder
	if in.Dest != DestNull {
		b.WriteString(in.Dest.String())
		b.WriteByte('=')
	}
	b.WriteString(in.Comp.String())
	if in.Jump != JumpNull {
		b.WriteByte(';')
		b.WriteString(in.Jump.String())
	}
	return b.String()
}

// Decode is the inverse of EncodeAddress and EncodeCompute.
func Decode(word uint16) (Instruction, error) {
	if word&0x8000 == 0 {
		return Instruction{Address: true, Value: word}, nil
	}
	if word>>13 != 0b111 {
		return Instruction{}, errors.Errorf("word %s is not a compute instruction", Format(word))
	}
	c, err := decodeComp((word >> 6) & 0x7F)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{
		Dest: Dest((word >> 3) & 7),
		Comp: c,
		Jump: Jump(word & 7),
	}, nil
}

func decodeComp(bits uint16) (Comp, error) {
	for c := Comp(0); c < compCount; c++ {
		if c.Bits() == bits {
			return c, nil
		}
	}
	return CompZero, &MnemonicError{Field: FieldComp, Mnemonic: fmt.Sprintf("%07b", bits)}
}

// ParseWord parses one line of assembler output.
func ParseWord(s string) (uint16, error) {
	if len(s) != 16 || strings.Trim(s, "01") != "" {
		return 0, errors.Errorf("%q is not a 16-bit binary word", s)
	}
	v, err := strconv.ParseUint(s, 2, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing word %q", s)
	}
	return uint16(v), nil
}

// ReadProgram loads a .hack text image. Blank lines are skipped.
func ReadProgram(r io.Reader) ([]uint16, error) {
	var program []uint16
	s := bufio.NewScanner(r)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		w, err := ParseWord(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		program = append(program, w)
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "reading program")
	}
	return program, nil
}

// Disassemble reads a .hack text image from r and writes one assembly
// instruction per line to w.
func Disassemble(r io.Reader, w io.Writer) error {
	program, err := ReadProgram(r)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for i, word := range program {
		in, err := Decode(word)
		if err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
		if _, err := fmt.Fprintln(bw, in); err != nil {
			return err
		}
	}
	return bw.Flush()
}
