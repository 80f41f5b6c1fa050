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

// push decrements SP by two and writes val at SS:SP; the stack grows down.
func (c *CPU) push(val uint16) {
	sp := c.Registers[encoding.SP] - 2
	c.Registers[encoding.SP] = sp
	c.writeMemWord(encoding.SS, sp, val)
}

func (c *CPU) pop() uint16 {
	sp := c.Registers[encoding.SP]
	val := c.readMemWord(encoding.SS, sp)
	c.Registers[encoding.SP] = sp + 2
	return val
}
