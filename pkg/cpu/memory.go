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

// PhysicalAddress computes the 20-bit physical address of seg:off, with
// wraparound at the end of the megabyte. Incrementing the segment and
// decrementing the offset by sixteen name the same byte.
func PhysicalAddress(seg, off uint16) int {
	return (int(seg)<<4 + int(off)) & 0xFFFFF
}

func (c *CPU) ReadByte(addr int) byte {
	return c.Memory[addr&0xFFFFF]
}

func (c *CPU) WriteByte(addr int, v byte) {
	c.Memory[addr&0xFFFFF] = v
}

func (c *CPU) readMemByte(seg encoding.SegReg, off uint16) byte {
	return c.ReadByte(PhysicalAddress(c.Segments[seg], off))
}

func (c *CPU) writeMemByte(seg encoding.SegReg, off uint16, v byte) {
	c.WriteByte(PhysicalAddress(c.Segments[seg], off), v)
}

func (c *CPU) readMemWord(seg encoding.SegReg, off uint16) uint16 {
	addr := PhysicalAddress(c.Segments[seg], off)
	lo := c.ReadByte(addr)
	hi := c.ReadByte(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

func (c *CPU) writeMemWord(seg encoding.SegReg, off uint16, v uint16) {
	addr := PhysicalAddress(c.Segments[seg], off)
	c.WriteByte(addr, byte(v))
	c.WriteByte(addr+1, byte(v>>8))
}

// fetchByte reads the byte at CS:IP and advances IP.
func (c *CPU) fetchByte() byte {
	b := c.readMemByte(encoding.CS, c.IP)
	c.IP++
	return b
}

func (c *CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	return uint16(lo) | uint16(hi)<<8
}
