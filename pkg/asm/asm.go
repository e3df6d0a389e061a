// Package asm assembles Hack assembly into 16-bit machine words.
//
// Assembly runs in two passes over one in-memory token list. Pass 1 binds
// every label to the address of the instruction that follows it; pass 2
// resolves address operands (decimal literals, bound symbols, or fresh
// variables allocated from RAM[16] upward) and encodes each instruction.
package asm

import (
	"bufio"
	"io"
	"strconv"
	"unicode"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hackvm/pkg/hack"
)

type Assembler struct {
	symbols *SymbolTable
}

// Program is the result of assembling one source.
type Program struct {
	Words []uint16
	// SourceMap maps an instruction address to its source line.
	SourceMap map[uint16]int
}

func NewAssembler() *Assembler {
	return &Assembler{
		symbols: NewSymbolTable(),
	}
}

// Assemble reads assembly from r and writes the binary text form to w, one
// 16-character line per instruction.
func Assemble(r io.Reader, w io.Writer) error {
	p, err := NewAssembler().Assemble(r)
	if err != nil {
		return err
	}
	_, err = p.WriteTo(w)
	return err
}

// Symbols exposes the table after assembly.
func (a *Assembler) Symbols() *SymbolTable {
	return a.symbols
}

func (a *Assembler) Assemble(r io.Reader) (*Program, error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, err
	}

	if err := a.pass1(rd); err != nil {
		return nil, err
	}
	logrus.Debugf("asm: pass 1 bound %d symbols", a.symbols.Len())

	rd.Reset()
	p, err := a.pass2(rd)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("asm: pass 2 emitted %d instructions, %d variables", len(p.Words), a.symbols.Variables())
	return p, nil
}

func (a *Assembler) pass1(rd *Reader) error {
	var address int

	for rd.HasMore() {
		rd.Advance()
		if rd.Kind() != Label {
			address++
			continue
		}

		lbl, err := rd.Symbol()
		if err != nil {
			return errors.Wrapf(err, "line %d", rd.Line())
		}
		if lbl == "" {
			return errors.Errorf("empty label on line %d", rd.Line())
		}
		if unicode.IsDigit(rune(lbl[0])) {
			continue
		}
		if address > hack.MaxAddress {
			return errors.Errorf("label '%s' on line %d points past addressable memory", lbl, rd.Line())
		}
		a.symbols.Add(lbl, uint16(address))
	}

	return nil
}

func (a *Assembler) pass2(rd *Reader) (*Program, error) {
	p := &Program{SourceMap: make(map[uint16]int)}

	for rd.HasMore() {
		rd.Advance()

		var word uint16
		switch rd.Kind() {
		case Label:
			continue

		case Address:
			sym, err := rd.Symbol()
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", rd.Line())
			}
			word, err = a.resolve(sym)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", rd.Line())
			}

		case Compute:
			dest, comp, jump, err := rd.Decompose()
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", rd.Line())
			}
			word, err = encodeCompute(dest, comp, jump)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", rd.Line())
			}
		}

		if len(p.Words) > hack.MaxAddress {
			return nil, errors.Errorf("program too large near line %d", rd.Line())
		}
		p.SourceMap[uint16(len(p.Words))] = rd.Line()
		p.Words = append(p.Words, word)
	}

	return p, nil
}

// resolve turns an address operand into the value loaded into A.
func (a *Assembler) resolve(sym string) (uint16, error) {
	if sym == "" {
		return 0, errors.New("address instruction without operand")
	}
	if unicode.IsDigit(rune(sym[0])) {
		if !isDecimal(sym) {
			return 0, errors.Errorf("invalid numeric literal %q", sym)
		}
		v, err := strconv.Atoi(sym)
		if err != nil {
			return 0, errors.Wrapf(err, "numeric literal %q", sym)
		}
		return hack.EncodeAddress(v)
	}
	if a.symbols.Contains(sym) {
		return a.symbols.Lookup(sym)
	}
	return a.symbols.Variable(sym)
}

func encodeCompute(dest, comp, jump string) (uint16, error) {
	d, err := hack.ParseDest(dest)
	if err != nil {
		return 0, err
	}
	c, err := hack.ParseComp(comp)
	if err != nil {
		return 0, err
	}
	j, err := hack.ParseJump(jump)
	if err != nil {
		return 0, err
	}
	return hack.EncodeCompute(d, c, j), nil
}

// WriteTo writes one 16-character binary line per instruction.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, word := range p.Words {
		k, err := bw.WriteString(hack.Format(word) + "\n")
		n += int64(k)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
