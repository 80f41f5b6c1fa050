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

// Package cpu implements the fetch-decode-execute engine: fourteen
// registers, a one-megabyte segmented address space, and a dispatch switch
// on the opcode byte. The switch matches literal opcode values; it does not
// read pkg/encoding's Table, and takes only register indices, flag masks and
// group-extension constants from pkg/encoding.
package cpu

import "github.com/nullpilot/go8086/pkg/encoding"

const memorySize = 1 << 20

// CPU holds all machine state. It has no goroutines of its own; Step
// advances execution by exactly one instruction and callers own the loop.
type CPU struct {
	Registers [8]uint16
	Segments  [4]uint16
	Flags     uint16
	IP        uint16

	Memory [memorySize]byte

	Halted    bool
	LastError error

	InterruptHook InterruptHook

	instrStart uint16
}

// NewCPU returns a CPU with all state zeroed and a logrus-backed interrupt
// hook installed.
func NewCPU() *CPU {
	c := &CPU{}
	c.InterruptHook = NewLogrusHook()
	return c
}

// Reset zeroes every register, segment, and flag and clears the halt state.
// Memory contents are left untouched, matching a real reset line.
func (c *CPU) Reset() {
	c.Registers = [8]uint16{}
	c.Segments = [4]uint16{}
	c.Flags = 0
	c.IP = 0
	c.Halted = false
	c.LastError = nil
}

func (c *CPU) GetReg16(r encoding.Reg16) uint16 {
	return c.Registers[r]
}

func (c *CPU) SetReg16(r encoding.Reg16, v uint16) {
	c.Registers[r] = v
}

func (c *CPU) GetReg8(r encoding.Reg8) byte {
	word := c.Registers[r.Word16()]
	if r.High() {
		return byte(word >> 8)
	}
	return byte(word)
}

func (c *CPU) SetReg8(r encoding.Reg8, v byte) {
	word := c.Registers[r.Word16()]
	if r.High() {
		word = (word & 0x00FF) | (uint16(v) << 8)
	} else {
		word = (word & 0xFF00) | uint16(v)
	}
	c.Registers[r.Word16()] = word
}

func (c *CPU) getFlag(mask uint16) bool {
	return c.Flags&mask != 0
}

func (c *CPU) setFlag(mask uint16, v bool) {
	if v {
		c.Flags |= mask
	} else {
		c.Flags &^= mask
	}
}

func boolBit(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
