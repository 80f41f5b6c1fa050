// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package cpu

import (
	"fmt"

	"github.com/nullpilot/go8086/pkg/encoding"
)

// Step advances execution by exactly one instruction. It is a no-op once
// Halted is set. The caller owns the loop; this engine owns nothing
// beyond the single step.
func (c *CPU) Step() {
	if c.Halted {
		return
	}

	c.instrStart = c.IP
	opcode := c.fetchByte()

	if !c.execute(opcode) {
		c.Halted = true
		if c.LastError == nil {
			c.LastError = fmt.Errorf("decode: unknown opcode %#02x at IP %#04x", opcode, c.instrStart)
		}
	}
}

// execute dispatches a single opcode byte. It returns false for an unknown
// opcode (the group handlers set a more specific LastError for an unknown
// extension first) so Step can halt on a decode failure without this
// function having to know how errors are surfaced.
func (c *CPU) execute(opcode byte) bool {
	switch {
	case opcode == 0x89: // MOV reg, reg
		m := c.fetchModRM()
		c.writeRM16(c.resolveRM(m), c.Registers[m.reg])

	case opcode >= 0xB8 && opcode <= 0xBF: // MOV reg, imm16
		reg := encoding.Reg16(opcode - 0xB8)
		c.Registers[reg] = c.fetchWord()

	case opcode >= 0x50 && opcode <= 0x57: // PUSH reg
		c.push(c.Registers[opcode-0x50])

	case opcode >= 0x58 && opcode <= 0x5F: // POP reg
		c.Registers[opcode-0x58] = c.pop()

	case opcode == 0x87: // XCHG reg, reg
		m := c.fetchModRM()
		op := c.resolveRM(m)
		a := c.Registers[m.reg]
		c.Registers[m.reg] = c.readRM16(op)
		c.writeRM16(op, a)

	case opcode >= 0x90 && opcode <= 0x97: // XCHG AX, reg (0x90 is NOP)
		reg := encoding.Reg16(opcode - 0x90)
		c.Registers[encoding.AX], c.Registers[reg] = c.Registers[reg], c.Registers[encoding.AX]

	case opcode == 0x8D: // LEA reg, mem
		m := c.fetchModRM()
		if m.mod == 3 {
			// The assembler's LEA syntax only ever produces mod==3 bytes,
			// built from the same dest-in-rm/src-in-reg ModR/M formula as
			// every other reg,reg form, so the destination here is the rm
			// field, not reg (see table.go).
			c.Registers[m.rm] = c.Registers[m.reg]
		} else {
			_, off := c.effectiveAddress(m.mod, m.rm)
			c.Registers[m.reg] = off
		}

	case opcode == 0x01: // ADD reg, reg
		m := c.fetchModRM()
		op := c.resolveRM(m)
		c.writeRM16(op, c.add16(c.readRM16(op), c.Registers[m.reg]))
	case opcode == 0x05: // ADD AX, imm16
		c.Registers[encoding.AX] = c.add16(c.Registers[encoding.AX], c.fetchWord())

	case opcode == 0x29: // SUB reg, reg
		m := c.fetchModRM()
		op := c.resolveRM(m)
		c.writeRM16(op, c.sub16(c.readRM16(op), c.Registers[m.reg]))
	case opcode == 0x2D: // SUB AX, imm16
		c.Registers[encoding.AX] = c.sub16(c.Registers[encoding.AX], c.fetchWord())

	case opcode == 0x39: // CMP reg, reg
		m := c.fetchModRM()
		c.sub16(c.readRM16(c.resolveRM(m)), c.Registers[m.reg])
	case opcode == 0x3D: // CMP AX, imm16
		c.sub16(c.Registers[encoding.AX], c.fetchWord())

	case opcode >= 0x40 && opcode <= 0x47: // INC reg
		reg := encoding.Reg16(opcode - 0x40)
		c.Registers[reg] = c.inc16(c.Registers[reg])
	case opcode >= 0x48 && opcode <= 0x4F: // DEC reg
		reg := encoding.Reg16(opcode - 0x48)
		c.Registers[reg] = c.dec16(c.Registers[reg])

	case opcode == 0xF7: // group: TEST/NOT/NEG/MUL/IMUL/DIV/IDIV
		return c.execGroupF7()

	case opcode == 0x21: // AND reg, reg
		m := c.fetchModRM()
		op := c.resolveRM(m)
		c.writeRM16(op, c.logic16(c.readRM16(op)&c.Registers[m.reg]))
	case opcode == 0x25: // AND AX, imm16
		c.Registers[encoding.AX] = c.logic16(c.Registers[encoding.AX] & c.fetchWord())
	case opcode == 0x09: // OR reg, reg
		m := c.fetchModRM()
		op := c.resolveRM(m)
		c.writeRM16(op, c.logic16(c.readRM16(op)|c.Registers[m.reg]))
	case opcode == 0x0D: // OR AX, imm16
		c.Registers[encoding.AX] = c.logic16(c.Registers[encoding.AX] | c.fetchWord())
	case opcode == 0x31: // XOR reg, reg
		m := c.fetchModRM()
		op := c.resolveRM(m)
		c.writeRM16(op, c.logic16(c.readRM16(op)^c.Registers[m.reg]))
	case opcode == 0x35: // XOR AX, imm16
		c.Registers[encoding.AX] = c.logic16(c.Registers[encoding.AX] ^ c.fetchWord())
	case opcode == 0x85: // TEST reg, reg
		m := c.fetchModRM()
		c.logic16(c.readRM16(c.resolveRM(m)) & c.Registers[m.reg])

	case opcode == 0xA4: // MOVSB (single iteration, no REP prefix)
		c.execMovsb()
	case opcode == 0xAC: // LODSB
		c.execLodsb()
	case opcode == 0xAA: // STOSB
		c.execStosb()
	case opcode == 0xA6: // CMPSB
		c.execCmpsb()

	case opcode == 0xE9: // JMP near
		disp := int16(c.fetchWord())
		c.IP = uint16(int32(c.IP) + int32(disp))
	case opcode == 0xE8: // CALL near
		disp := int16(c.fetchWord())
		c.push(c.IP)
		c.IP = uint16(int32(c.IP) + int32(disp))
	case opcode == 0xC3: // RET
		c.IP = c.pop()

	case opcode == 0x74: // JE/JZ
		c.jumpIf(c.getFlag(encoding.FlagZF))
	case opcode == 0x75: // JNE/JNZ
		c.jumpIf(!c.getFlag(encoding.FlagZF))
	case opcode == 0x72: // JC
		c.jumpIf(c.getFlag(encoding.FlagCF))
	case opcode == 0x73: // JNC
		c.jumpIf(!c.getFlag(encoding.FlagCF))

	case opcode == 0xD1: // shift/rotate group, count=1
		return c.execGroupShift(opcode, 1)
	case opcode == 0xD3: // shift/rotate group, count=CL
		return c.execGroupShift(opcode, byte(c.Registers[encoding.CX]))

	case opcode == 0xF4: // HLT
		c.Halted = true
	case opcode == 0xF8: // CLC
		c.setFlag(encoding.FlagCF, false)
	case opcode == 0xF9: // STC
		c.setFlag(encoding.FlagCF, true)
	case opcode == 0xF5: // CMC
		c.setFlag(encoding.FlagCF, !c.getFlag(encoding.FlagCF))

	default:
		return false
	}

	return true
}

// jumpIf fetches the 8-bit signed displacement that always follows a Jcc
// opcode, applying it to IP only when cond holds. The byte must be
// consumed either way since it is part of the instruction's fixed size.
func (c *CPU) jumpIf(cond bool) {
	disp := int8(c.fetchByte())
	if cond {
		c.IP = uint16(int32(c.IP) + int32(disp))
	}
}

// execGroupF7 handles the 0xF7 group: TEST/NOT/NEG/MUL/IMUL/DIV/IDIV,
// selected by the ModR/M reg field. An extension value with no operation
// assigned (reg==1) is a decode error.
func (c *CPU) execGroupF7() bool {
	m := c.fetchModRM()
	op := c.resolveRM(m)

	switch m.reg {
	case encoding.ExtF7Test:
		imm := c.fetchWord()
		c.logic16(c.readRM16(op) & imm)
	case encoding.ExtF7Not:
		c.writeRM16(op, ^c.readRM16(op))
	case encoding.ExtF7Neg:
		c.writeRM16(op, c.neg16(c.readRM16(op)))
	case encoding.ExtF7Mul:
		hi, lo := c.mul16(c.readRM16(op))
		c.Registers[encoding.DX], c.Registers[encoding.AX] = hi, lo
	case encoding.ExtF7Imul:
		hi, lo := c.imul16(c.readRM16(op))
		c.Registers[encoding.DX], c.Registers[encoding.AX] = hi, lo
	case encoding.ExtF7Div:
		q, r, ok := c.div16(c.readRM16(op))
		if !ok {
			c.raiseInterrupt(0)
			return true
		}
		c.Registers[encoding.AX], c.Registers[encoding.DX] = q, r
	case encoding.ExtF7Idiv:
		q, r, ok := c.idiv16(c.readRM16(op))
		if !ok {
			c.raiseInterrupt(0)
			return true
		}
		c.Registers[encoding.AX], c.Registers[encoding.DX] = q, r
	default:
		c.LastError = fmt.Errorf(
			"decode: unknown group 0xf7 extension %d at IP %#04x",
			m.reg, c.instrStart,
		)
		return false
	}

	return true
}

// execGroupShift handles the 0xD1 (count=1) / 0xD3 (count=CL) group:
// ROL/ROR/RCL/RCR/SHL/SHR/SAR, selected by the ModR/M reg field. The one
// unassigned extension (reg==6) is a decode error.
func (c *CPU) execGroupShift(opcode, count byte) bool {
	m := c.fetchModRM()

	switch m.reg {
	case encoding.ExtShiftRol, encoding.ExtShiftRor,
		encoding.ExtShiftRcl, encoding.ExtShiftRcr,
		encoding.ExtShiftShl, encoding.ExtShiftShr,
		encoding.ExtShiftSar:
	default:
		c.LastError = fmt.Errorf(
			"decode: unknown group %#02x extension %d at IP %#04x",
			opcode, m.reg, c.instrStart,
		)
		return false
	}

	op := c.resolveRM(m)
	c.writeRM16(op, c.shiftRotate(m.reg, c.readRM16(op), count))
	return true
}

// execMovsb moves one byte from DS:SI to ES:DI and advances both index
// registers by DF's direction. String primitives execute in their
// single-iteration form only; there is no REP prefix.
func (c *CPU) execMovsb() {
	v := c.readMemByte(encoding.DS, c.Registers[encoding.SI])
	c.writeMemByte(encoding.ES, c.Registers[encoding.DI], v)
	c.advanceStringIndex(&c.Registers[encoding.SI])
	c.advanceStringIndex(&c.Registers[encoding.DI])
}

func (c *CPU) execLodsb() {
	v := c.readMemByte(encoding.DS, c.Registers[encoding.SI])
	c.Registers[encoding.AX] = (c.Registers[encoding.AX] & 0xFF00) | uint16(v)
	c.advanceStringIndex(&c.Registers[encoding.SI])
}

func (c *CPU) execStosb() {
	c.writeMemByte(encoding.ES, c.Registers[encoding.DI], byte(c.Registers[encoding.AX]))
	c.advanceStringIndex(&c.Registers[encoding.DI])
}

func (c *CPU) execCmpsb() {
	a := c.readMemByte(encoding.DS, c.Registers[encoding.SI])
	b := c.readMemByte(encoding.ES, c.Registers[encoding.DI])
	c.sub16(uint16(a), uint16(b))
	c.advanceStringIndex(&c.Registers[encoding.SI])
	c.advanceStringIndex(&c.Registers[encoding.DI])
}

func (c *CPU) advanceStringIndex(reg *uint16) {
	if c.getFlag(encoding.FlagDF) {
		*reg--
	} else {
		*reg++
	}
}
