package asm

import (
	"fmt"

	"github.com/pkg/errors"

	"hackvm/pkg/hack"
)

// VariableBase is the RAM address of the first variable.
const VariableBase = 16

var ErrUndefinedSymbol = errors.New("undefined symbol")

// SymbolTable maps symbols to addresses. It starts out holding the
// architecture's reserved names; labels are added by the first pass and
// variables are bound on first use during the second.
type SymbolTable struct {
	entries map[string]uint16
	nextVar int
}

func NewSymbolTable() *SymbolTable {
	s := &SymbolTable{
		entries: map[string]uint16{
			"SP":     0,
			"LCL":    1,
			"ARG":    2,
			"THIS":   3,
			"THAT":   4,
			"SCREEN": 16384,
			"KBD":    24576,
		},
		nextVar: VariableBase,
	}
	for i := 0; i < 16; i++ {
		s.entries[fmt.Sprintf("R%d", i)] = uint16(i)
	}
	return s
}

// Add binds name to addr, replacing any previous binding.
func (s *SymbolTable) Add(name string, addr uint16) {
	s.entries[name] = addr
}

func (s *SymbolTable) Contains(name string) bool {
	_, ok := s.entries[name]
	return ok
}

func (s *SymbolTable) Lookup(name string) (uint16, error) {
	addr, ok := s.entries[name]
	if !ok {
		return 0, errors.Wrapf(ErrUndefinedSymbol, "%q", name)
	}
	return addr, nil
}

// Variable returns the address bound to name, binding it to the next free
// variable slot first if it is not yet known.
func (s *SymbolTable) Variable(name string) (uint16, error) {
	if addr, ok := s.entries[name]; ok {
		return addr, nil
	}
	if s.nextVar > hack.MaxAddress {
		return 0, errors.Errorf("no address left for variable %q", name)
	}
	addr := uint16(s.nextVar)
	s.entries[name] = addr
	s.nextVar++
	return addr, nil
}

// Variables reports how many variables have been bound.
func (s *SymbolTable) Variables() int {
	return s.nextVar - VariableBase
}

func (s *SymbolTable) Len() int {
	return len(s.entries)
}
