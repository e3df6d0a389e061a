// Package cpu emulates the Hack computer: a 32K-word instruction ROM, a
// 32K-word data RAM with the screen mapped at 16384 and the keyboard at
// 24576, and the A, D and PC registers.
package cpu

import (
	"github.com/pkg/errors"

	"hackvm/pkg/hack"
)

const (
	ROMSize = 1 << 15
	RAMSize = 1 << 15

	ScreenBase  = 16384
	ScreenWords = 8192
	KBD         = 24576

	// Stack and segment pointer registers, by RAM address.
	RegSP   = 0
	RegLCL  = 1
	RegARG  = 2
	RegTHIS = 3
	RegTHAT = 4
)

type CPU struct {
	A  uint16
	D  uint16
	PC uint16

	RAM [RAMSize]uint16
	ROM []uint16

	// Halted is set when the program runs past the end of ROM or enters the
	// canonical end loop: an address instruction loading its own address
	// followed by an unconditional jump back to it that writes nothing.
	Halted bool

	Cycles uint64
}

func NewCPU() *CPU {
	return &CPU{}
}

// Load replaces ROM with program and resets the registers. RAM is kept.
func (c *CPU) Load(program []uint16) error {
	if len(program) > ROMSize {
		return errors.Errorf("program too large for ROM: %d words > %d", len(program), ROMSize)
	}
	c.ROM = append([]uint16(nil), program...)
	c.Reset()
	return nil
}

func (c *CPU) Reset() {
	c.A, c.D, c.PC = 0, 0, 0
	c.Halted = false
	c.Cycles = 0
}

func (c *CPU) PushKey(code uint16) {
	c.RAM[KBD] = code
}

func (c *CPU) ReleaseKey() {
	c.RAM[KBD] = 0
}

// ReadMem and WriteMem take addresses modulo RAM size.
func (c *CPU) ReadMem(addr uint16) uint16 {
	return c.RAM[addr&(RAMSize-1)]
}

func (c *CPU) WriteMem(addr uint16, val uint16) {
	c.RAM[addr&(RAMSize-1)] = val
}

// SP returns the stack pointer register RAM[0].
func (c *CPU) SP() uint16 { return c.RAM[RegSP] }

// StackTop returns the word just below SP.
func (c *CPU) StackTop() uint16 {
	return c.ReadMem(c.SP() - 1)
}

// alu computes the Hack ALU from the six control bits zx nx zy ny f no.
func alu(x, y, ctl uint16) uint16 {
	if ctl&0x20 != 0 {
		x = 0
	}
	if ctl&0x10 != 0 {
		x = ^x
	}
	if ctl&0x08 != 0 {
		y = 0
	}
	if ctl&0x04 != 0 {
		y = ^y
	}
	var out uint16
	if ctl&0x02 != 0 {
		out = x + y
	} else {
		out = x & y
	}
	if ctl&0x01 != 0 {
		out = ^out
	}
	return out
}

func (c *CPU) Step() {
	if c.Halted {
		return
	}
	if int(c.PC) >= len(c.ROM) {
		c.Halted = true
		return
	}

	pc := c.PC
	instr := c.ROM[pc]
	c.Cycles++

	if instr&0x8000 == 0 {
		c.A = instr
		c.PC++
		return
	}

	addr := c.A
	y := addr
	if instr&0x1000 != 0 {
		y = c.ReadMem(addr)
	}
	out := alu(c.D, y, (instr>>6)&0x3F)

	dest := hack.Dest((instr >> 3) & 7)
	if dest&hack.DestM != 0 {
		c.WriteMem(addr, out)
	}
	if dest&hack.DestD != 0 {
		c.D = out
	}
	if dest&hack.DestA != 0 {
		c.A = out
	}

	if !hack.Jump(instr & 7).Taken(int16(out)) {
		c.PC++
		return
	}
	c.PC = addr
	if dest == hack.DestNull && hack.Jump(instr&7) == hack.JumpJMP &&
		pc > 0 && addr == pc-1 && c.ROM[addr] == addr {
		c.Halted = true
	}
}

// Run steps until the CPU halts.
func (c *CPU) Run() {
	for !c.Halted {
		c.Step()
	}
}

// RunCycles steps at most n times and returns how many steps ran.
func (c *CPU) RunCycles(n int) int {
	i := 0
	for ; i < n && !c.Halted; i++ {
		c.Step()
	}
	return i
}
