// Package hack describes the instruction format of the Hack 16-bit machine:
// the dest/comp/jump fields of compute instructions, 15-bit address
// instructions, and the textual 16-character binary form the assembler emits.
//
// Mnemonics are parsed once into closed enumerations. Everything downstream of
// ParseDest, ParseComp and ParseJump works on those values, so a typo in a
// mnemonic can only surface at the parse boundary.
package hack

import (
	"fmt"

	"github.com/pkg/errors"
)

// Null is the literal standing for an absent dest or jump field.
const Null = "null"

// MaxAddress is the largest value an address instruction can load.
const MaxAddress = 0x7FFF

// Field names one of the three mnemonic fields of a compute instruction.
type Field string

const (
	FieldDest Field = "dest"
	FieldComp Field = "comp"
	FieldJump Field = "jump"
)

// ErrUnknownMnemonic is matched by every *MnemonicError.
var ErrUnknownMnemonic = errors.New("unrecognized mnemonic")

// MnemonicError reports text that is not a legal mnemonic for a field.
type MnemonicError struct {
	Field    Field
	Mnemonic string
}

func (e *MnemonicError) Error() string {
	return fmt.Sprintf("unrecognized mnemonic for %s: %q", e.Field, e.Mnemonic)
}

func (e *MnemonicError) Is(target error) bool {
	return target == ErrUnknownMnemonic
}

// Dest is the 3-bit destination field. Bit order is A, D, M from high to low.
type Dest uint8

const (
	DestNull Dest = 0
	DestM    Dest = 1
	DestD    Dest = 2
	DestMD   Dest = 3
	DestA    Dest = 4
	DestAM   Dest = 5
	DestAD   Dest = 6
	DestAMD  Dest = 7
)

func ParseDest(s string) (Dest, error) {
	switch s {
	case Null:
		return DestNull, nil
	case "M":
		return DestM, nil
	case "D":
		return DestD, nil
	case "MD":
		return DestMD, nil
	case "A":
		return DestA, nil
	case "AM":
		return DestAM, nil
	case "AD":
		return DestAD, nil
	case "AMD":
		return DestAMD, nil
	}
	return DestNull, &MnemonicError{Field: FieldDest, Mnemonic: s}
}

func (d Dest) Bits() uint16 { return uint16(d & 7) }

// String returns the canonical mnemonic, letters in A, M, D order as the
// architecture spells them.
func (d Dest) String() string {
	switch d & 7 {
	case DestM:
		return "M"
	case DestD:
		return "D"
	case DestMD:
		return "MD"
	case DestA:
		return "A"
	case DestAM:
		return "AM"
	case DestAD:
		return "AD"
	case DestAMD:
		return "AMD"
	}
	return Null
}

// Comp is one of the 28 legal computations.
type Comp uint8

const (
	CompZero Comp = iota
	CompOne
	CompMinusOne
	CompD
	CompA
	CompM
	CompNotD
	CompNotA
	CompNotM
	CompNegD
	CompNegA
	CompNegM
	CompDPlusOne
	CompAPlusOne
	CompMPlusOne
	CompDMinusOne
	CompAMinusOne
	CompMMinusOne
	CompDPlusA
	CompDPlusM
	CompDMinusA
	CompDMinusM
	CompAMinusD
	CompMMinusD
	CompDAndA
	CompDAndM
	CompDOrA
	CompDOrM

	compCount
)

var compMnemonics = [compCount]string{
	CompZero:      "0",
	CompOne:       "1",
	CompMinusOne:  "-1",
	CompD:         "D",
	CompA:         "A",
	CompM:         "M",
	CompNotD:      "!D",
	CompNotA:      "!A",
	CompNotM:      "!M",
	CompNegD:      "-D",
	CompNegA:      "-A",
	CompNegM:      "-M",
	CompDPlusOne:  "D+1",
	CompAPlusOne:  "A+1",
	CompMPlusOne:  "M+1",
	CompDMinusOne: "D-1",
	CompAMinusOne: "A-1",
	CompMMinusOne: "M-1",
	CompDPlusA:    "D+A",
	CompDPlusM:    "D+M",
	CompDMinusA:   "D-A",
	CompDMinusM:   "D-M",
	CompAMinusD:   "A-D",
	CompMMinusD:   "M-D",
	CompDAndA:     "D&A",
	CompDAndM:     "D&M",
	CompDOrA:      "D|A",
	CompDOrM:      "D|M",
}

func ParseComp(s string) (Comp, error) {
	for c, m := range compMnemonics {
		if m == s {
			return Comp(c), nil
		}
	}
	return CompZero, &MnemonicError{Field: FieldComp, Mnemonic: s}
}

func (c Comp) String() string {
	if c >= compCount {
		return fmt.Sprintf("Comp(%d)", uint8(c))
	}
	return compMnemonics[c]
}

// Bits returns the 7-bit a·c1..c6 encoding. The a bit (0x40) selects M over A.
func (c Comp) Bits() uint16 {
	switch c {
	case CompZero:
		return 0b0101010
	case CompOne:
		return 0b0111111
	case CompMinusOne:
		return 0b0111010
	case CompD:
		return 0b0001100
	case CompA:
		return 0b0110000
	case CompM:
		return 0b1110000
	case CompNotD:
		return 0b0001101
	case CompNotA:
		return 0b0110001
	case CompNotM:
		return 0b1110001
	case CompNegD:
		return 0b0001111
	case CompNegA:
		return 0b0110011
	case CompNegM:
		return 0b1110011
	case CompDPlusOne:
		return 0b0011111
	case CompAPlusOne:
		return 0b0110111
	case CompMPlusOne:
		return 0b1110111
	case CompDMinusOne:
		return 0b0001110
	case CompAMinusOne:
		return 0b0110010
	case CompMMinusOne:
		return 0b1110010
	case CompDPlusA:
		return 0b0000010
	case CompDPlusM:
		return 0b1000010
	case CompDMinusA:
		return 0b0010011
	case CompDMinusM:
		return 0b1010011
	case CompAMinusD:
		return 0b0000111
	case CompMMinusD:
		return 0b1000111
	case CompDAndA:
		return 0b0000000
	case CompDAndM:
		return 0b1000000
	case CompDOrA:
		return 0b0010101
	case CompDOrM:
		return 0b1010101
	}
	panic(fmt.Sprintf("hack: invalid comp %d", uint8(c)))
}

// UsesMemory reports whether the computation reads M rather than A.
func (c Comp) UsesMemory() bool { return c.Bits()&0x40 != 0 }

// Jump is the 3-bit jump field. Bit order is lt, eq, gt.
type Jump uint8

const (
	JumpNull Jump = iota
	JumpJGT
	JumpJEQ
	JumpJGE
	JumpJLT
	JumpJNE
	JumpJLE
	JumpJMP
)

func ParseJump(s string) (Jump, error) {
	switch s {
	case Null:
		return JumpNull, nil
	case "JGT":
		return JumpJGT, nil
	case "JEQ":
		return JumpJEQ, nil
	case "JGE":
		return JumpJGE, nil
	case "JLT":
		return JumpJLT, nil
	case "JNE":
		return JumpJNE, nil
	case "JLE":
		return JumpJLE, nil
	case "JMP":
		return JumpJMP, nil
	}
	return JumpNull, &MnemonicError{Field: FieldJump, Mnemonic: s}
}

func (j Jump) Bits() uint16 { return uint16(j & 7) }

func (j Jump) String() string {
	switch j & 7 {
	case JumpJGT:
		return "JGT"
	case JumpJEQ:
		return "JEQ"
	case JumpJGE:
		return "JGE"
	case JumpJLT:
		return "JLT"
	case JumpJNE:
		return "JNE"
	case JumpJLE:
		return "JLE"
	case JumpJMP:
		return "JMP"
	}
	return Null
}

// Taken reports whether the jump fires for an ALU output interpreted as a
// signed 16-bit value.
func (j Jump) Taken(out int16) bool {
	switch j & 7 {
	case JumpJGT:
		return out > 0
	case JumpJEQ:
		return out == 0
	case JumpJGE:
		return out >= 0
	case JumpJLT:
		return out < 0
	case JumpJNE:
		return out != 0
	case JumpJLE:
		return out <= 0
	case JumpJMP:
		return true
	}
	return false
}

// EncodeCompute packs a compute instruction: 111 a cccccc ddd jjj.
func EncodeCompute(d Dest, c Comp, j Jump) uint16 {
	return 0b111<<13 | c.Bits()<<6 | d.Bits()<<3 | j.Bits()
}

// EncodeAddress packs an address instruction. The top bit must stay clear, so
// values above MaxAddress are rejected.
func EncodeAddress(v int) (uint16, error) {
	if v < 0 || v > MaxAddress {
		return 0, errors.Errorf("address %d out of range 0..%d", v, MaxAddress)
	}
	return uint16(v), nil
}

// Format renders a word as exactly 16 characters of '0' and '1'.
func Format(word uint16) string {
	return fmt.Sprintf("%016b", word)
}
