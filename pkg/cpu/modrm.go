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

import "github.com/nullpilot/go8086/pkg/encoding"

// modRM is a decoded ModR/M byte: mod selects register-direct (3) versus
// one of the memory addressing forms, reg is a register index (or, for the
// 0xF7/0xD1/0xD3 group opcodes, the operation extension), rm is either a
// register index (mod==3) or selects a base/index combination.
type modRM struct {
	mod byte
	reg byte
	rm  byte
}

func (c *CPU) fetchModRM() modRM {
	b := c.fetchByte()
	return modRM{mod: b >> 6, reg: (b >> 3) & 0x7, rm: b & 0x7}
}

// effectiveAddress resolves the base/index/displacement addressing table
// for rm values 0-7, with the BP-as-base override to the stack segment.
// mod==0, rm==6 is the direct-address special case (a bare 16-bit
// displacement, no base register).
func (c *CPU) effectiveAddress(mod, rm byte) (encoding.SegReg, uint16) {
	seg := encoding.DS
	var base uint16

	switch rm {
	case 0:
		base = c.Registers[encoding.BX] + c.Registers[encoding.SI]
	case 1:
		base = c.Registers[encoding.BX] + c.Registers[encoding.DI]
	case 2:
		base = c.Registers[encoding.BP] + c.Registers[encoding.SI]
		seg = encoding.SS
	case 3:
		base = c.Registers[encoding.BP] + c.Registers[encoding.DI]
		seg = encoding.SS
	case 4:
		base = c.Registers[encoding.SI]
	case 5:
		base = c.Registers[encoding.DI]
	case 6:
		if mod == 0 {
			return encoding.DS, c.fetchWord()
		}
		base = c.Registers[encoding.BP]
		seg = encoding.SS
	case 7:
		base = c.Registers[encoding.BX]
	}

	switch mod {
	case 1:
		base += encoding.SignExtend8(c.fetchByte())
	case 2:
		base += c.fetchWord()
	}

	return seg, base
}

// rmOperand is a fully resolved r/m operand: either a register index or a
// segment:offset pair. Resolution consumes any displacement bytes from the
// instruction stream, so it must happen exactly once per ModR/M byte;
// read-modify-write sequences reuse the same rmOperand rather than
// re-resolving.
type rmOperand struct {
	isReg bool
	reg   encoding.Reg16
	seg   encoding.SegReg
	off   uint16
}

func (c *CPU) resolveRM(m modRM) rmOperand {
	if m.mod == 3 {
		return rmOperand{isReg: true, reg: encoding.Reg16(m.rm)}
	}
	seg, off := c.effectiveAddress(m.mod, m.rm)
	return rmOperand{seg: seg, off: off}
}

func (c *CPU) readRM16(op rmOperand) uint16 {
	if op.isReg {
		return c.Registers[op.reg]
	}
	return c.readMemWord(op.seg, op.off)
}

func (c *CPU) writeRM16(op rmOperand, v uint16) {
	if op.isReg {
		c.Registers[op.reg] = v
		return
	}
	c.writeMemWord(op.seg, op.off, v)
}
