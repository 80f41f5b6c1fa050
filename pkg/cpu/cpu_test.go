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

package cpu_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nullpilot/go8086/pkg/assembler"
	"github.com/nullpilot/go8086/pkg/cpu"
	"github.com/nullpilot/go8086/pkg/encoding"
)

// load assembles src and copies it verbatim into a fresh CPU's memory at
// CS:0. A program assembled at offset 0 runs as-is with IP=0; there is
// no header or relocation step.
func load(t *testing.T, src string) *cpu.CPU {
	t.Helper()

	result, err := assembler.Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	c := cpu.NewCPU()
	for i, b := range result.MachineCode {
		c.WriteByte(i, b)
	}
	return c
}

func runToHalt(t *testing.T, c *cpu.CPU, maxSteps int) {
	t.Helper()

	for i := 0; i < maxSteps; i++ {
		if c.Halted {
			return
		}
		c.Step()
	}

	t.Fatalf("did not halt within %d steps", maxSteps)
}

func TestMovAddHlt(t *testing.T) {
	c := load(t, "MOV AX, 5\nADD AX, 2\nHLT")
	runToHalt(t, c, 10)

	if got := c.GetReg16(encoding.AX); got != 0x0007 {
		t.Errorf("AX = %#04x, want 0x0007", got)
	}
	if c.IP != 7 {
		t.Errorf("IP = %d, want 7", c.IP)
	}
	if !c.Halted {
		t.Errorf("want halted")
	}
}

func TestDecJnzLoop(t *testing.T) {
	c := load(t, "MOV CX, 3\nL1: DEC CX\nJNZ L1\nHLT")
	runToHalt(t, c, 20)

	if got := c.GetReg16(encoding.CX); got != 0 {
		t.Errorf("CX = %d, want 0", got)
	}
	if c.Flags&encoding.FlagZF == 0 {
		t.Errorf("ZF not set at halt")
	}
}

func TestAddOverflowWrap(t *testing.T) {
	c := load(t, "MOV AX, 0xFFFF\nADD AX, 1\nHLT")
	runToHalt(t, c, 10)

	if got := c.GetReg16(encoding.AX); got != 0 {
		t.Errorf("AX = %#04x, want 0", got)
	}
	if c.Flags&encoding.FlagZF == 0 {
		t.Errorf("want ZF set")
	}
	if c.Flags&encoding.FlagCF == 0 {
		t.Errorf("want CF set")
	}
	if c.Flags&encoding.FlagOF != 0 {
		t.Errorf("want OF clear")
	}
	if c.Flags&encoding.FlagAF == 0 {
		t.Errorf("want AF set")
	}
}

func TestDivBasic(t *testing.T) {
	c := load(t, "MOV AX, 0x0010\nMOV DX, 0\nMOV BX, 2\nDIV BX\nHLT")
	runToHalt(t, c, 10)

	if got := c.GetReg16(encoding.AX); got != 0x0008 {
		t.Errorf("AX = %#04x, want 0x0008", got)
	}
	if got := c.GetReg16(encoding.DX); got != 0x0000 {
		t.Errorf("DX = %#04x, want 0x0000", got)
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	c := load(t, "PUSH AX\nPOP BX")
	c.SetReg16(encoding.AX, 0xBEEF)

	spBefore := c.GetReg16(encoding.SP)

	c.Step() // PUSH AX
	spAfterPush := c.GetReg16(encoding.SP)

	// Stack grows down; the low byte of 0xBEEF lands at the new SP.
	if got := c.ReadByte(int(spAfterPush)); got != 0xEF {
		t.Errorf("stack low byte = %#02x, want 0xEF", got)
	}
	if got := c.ReadByte(int(spAfterPush) + 1); got != 0xBE {
		t.Errorf("stack high byte = %#02x, want 0xBE", got)
	}

	c.Step() // POP BX

	if got := c.GetReg16(encoding.BX); got != 0xBEEF {
		t.Errorf("BX = %#04x, want 0xBEEF", got)
	}
	if got := c.GetReg16(encoding.SP); got != spBefore {
		t.Errorf("SP = %#04x, want restored to %#04x", got, spBefore)
	}
}

func TestDivideByZeroTraps(t *testing.T) {
	c := load(t, "MOV AX, 1\nMOV DX, 0\nMOV BX, 0\nDIV BX\nHLT")

	var trapped *cpu.InterruptEvent
	c.InterruptHook = trapHook(func(e cpu.InterruptEvent) { trapped = &e })

	for i := 0; i < 3; i++ {
		c.Step()
	}
	ipBeforeTrap := c.IP
	c.Step() // DIV BX faults

	if trapped == nil {
		t.Fatalf("want interrupt hook invoked")
	}
	if trapped.Vector != 0 {
		t.Errorf("vector = %d, want 0", trapped.Vector)
	}
	if c.Halted {
		t.Errorf("a divide trap must not halt the CPU")
	}
	if c.IP != ipBeforeTrap {
		t.Errorf("IP = %#04x, want rewound to %#04x", c.IP, ipBeforeTrap)
	}
}

type trapHook func(cpu.InterruptEvent)

func (f trapHook) OnTrap(e cpu.InterruptEvent) { f(e) }

func TestUnknownOpcodeHalts(t *testing.T) {
	c := cpu.NewCPU()
	c.WriteByte(0, 0xFF) // 0xFF alone (no group extension wired) is unassigned here
	c.WriteByte(1, 0x38) // an unused ModR/M-less filler byte, never reached
	c.Step()

	if !c.Halted {
		t.Fatalf("want halted on unknown opcode")
	}
	if c.LastError == nil {
		t.Fatalf("want LastError set for a decode failure")
	}
}

func TestRoundTripSizeLaw(t *testing.T) {
	// For every instruction the encoder emits, IP must advance by exactly
	// the descriptor's declared size once the CPU executes it.
	cases := []struct {
		name string
		src  string
		size int
	}{
		{"MOV_REG_REG", "MOV AX, BX", 2},
		{"MOV_REG_IMM", "MOV AX, 5", 3},
		{"PUSH_REG", "PUSH AX", 1},
		{"POP_REG", "POP AX", 1},
		{"ADD_REG_REG", "ADD AX, BX", 2},
		{"ADD_REG_IMM", "ADD AX, 5", 3},
		{"INC_REG", "INC AX", 1},
		{"SHL_REG_IMM", "SHL AX, 1", 2},
		{"SHL_REG_REG", "SHL AX, CL", 2},
		{"JMP", "JMP L1\nL1: NOP", 3},
		{"JE", "JE L1\nL1: NOP", 2},
		{"TEST_REG_IMM", "TEST AX, 5", 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := load(t, tc.src)
			before := c.IP
			c.Step()
			if got := int(c.IP - before); got != tc.size {
				t.Errorf("IP advanced by %d, want %d", got, tc.size)
			}
		})
	}
}

func TestXorSelfCancel(t *testing.T) {
	c := load(t, "XOR AX, AX")
	c.SetReg16(encoding.AX, 0x1234)
	c.Step()

	if got := c.GetReg16(encoding.AX); got != 0 {
		t.Errorf("AX = %#04x, want 0", got)
	}
	if c.Flags&encoding.FlagZF == 0 {
		t.Errorf("want ZF set")
	}
}

func TestLeaIgnoresModRegDirect(t *testing.T) {
	c := load(t, "MOV BX, 0x1000\nLEA AX, BX")
	c.Step()
	c.Step()

	if got := c.GetReg16(encoding.AX); got != 0x1000 {
		t.Errorf("AX = %#04x, want 0x1000 (LEA reads BX's value in register-direct form)", got)
	}
}

func TestAddMemoryOperand(t *testing.T) {
	// ADD [BX+SI+0x10], AX, hand-fed since the assembler never emits
	// memory operands. The displacement byte must be consumed exactly once
	// even though the destination is both read and written.
	c := cpu.NewCPU()
	c.WriteByte(0, 0x01) // ADD
	c.WriteByte(1, 0x40) // mod=1, reg=AX, rm=BX+SI
	c.WriteByte(2, 0x10) // disp8
	c.WriteByte(3, 0xF4) // HLT

	c.SetReg16(encoding.BX, 0x0100)
	c.SetReg16(encoding.SI, 0x0020)
	c.SetReg16(encoding.AX, 0x2222)
	c.WriteByte(0x0130, 0x11)
	c.WriteByte(0x0131, 0x11)

	c.Step()

	if c.IP != 3 {
		t.Errorf("IP = %d, want 3 (opcode + ModR/M + one displacement byte)", c.IP)
	}
	lo, hi := c.ReadByte(0x0130), c.ReadByte(0x0131)
	if got := uint16(lo) | uint16(hi)<<8; got != 0x3333 {
		t.Errorf("[BX+SI+0x10] = %#04x, want 0x3333", got)
	}
	if got := c.GetReg16(encoding.AX); got != 0x2222 {
		t.Errorf("AX = %#04x, want unchanged 0x2222", got)
	}
}

func TestLeaMemoryOperand(t *testing.T) {
	// LEA AX, [BP+DI] writes the computed offset without touching memory.
	c := cpu.NewCPU()
	c.WriteByte(0, 0x8D) // LEA
	c.WriteByte(1, 0x03) // mod=0, reg=AX, rm=BP+DI

	c.SetReg16(encoding.BP, 0x0030)
	c.SetReg16(encoding.DI, 0x0012)

	c.Step()

	if got := c.GetReg16(encoding.AX); got != 0x0042 {
		t.Errorf("AX = %#04x, want 0x0042", got)
	}
}

func TestUnknownGroupExtensionHalts(t *testing.T) {
	cases := []struct {
		name  string
		bytes []byte
	}{
		{"F7 ext 1", []byte{0xF7, 0xC8}}, // mod=3, reg=1, rm=AX
		{"D1 ext 6", []byte{0xD1, 0xF0}}, // mod=3, reg=6, rm=AX
		{"D3 ext 6", []byte{0xD3, 0xF0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := cpu.NewCPU()
			for i, b := range tc.bytes {
				c.WriteByte(i, b)
			}
			c.Step()

			if !c.Halted {
				t.Fatalf("want halted on unknown group extension")
			}
			if c.LastError == nil {
				t.Fatalf("want LastError set for a decode failure")
			}
		})
	}
}

func TestPhysicalAddressLaws(t *testing.T) {
	// seg+1 with off-16 names the same byte, and the 20-bit space wraps.
	pairs := []struct{ seg, off uint16 }{
		{0x0000, 0x0010},
		{0x1234, 0x5678},
		{0xFFFF, 0xFFFF},
		{0x8000, 0x0100},
	}

	for _, p := range pairs {
		a := cpu.PhysicalAddress(p.seg, p.off)
		b := cpu.PhysicalAddress(p.seg+1, p.off-16)
		if a != b {
			t.Errorf("PhysicalAddress(%#04x, %#04x) = %#05x, but seg+1/off-16 gives %#05x", p.seg, p.off, a, b)
		}
		if a > 0xFFFFF {
			t.Errorf("PhysicalAddress(%#04x, %#04x) = %#x exceeds 20 bits", p.seg, p.off, a)
		}
	}

	if got := cpu.PhysicalAddress(0xFFFF, 0x0010); got != 0 {
		t.Errorf("PhysicalAddress(0xFFFF, 0x0010) = %#05x, want 0 (1 MiB wraparound)", got)
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	pairs := []struct{ a, b uint16 }{
		{0, 0},
		{1, 0xFFFF},
		{0x7FFF, 1},
		{0x8000, 0x8000},
		{0x1234, 0x4321},
	}

	for _, p := range pairs {
		src := fmt.Sprintf(
			"MOV AX, 0x%X\nADD AX, 0x%X\nSUB AX, 0x%X\nHLT", p.a, p.b, p.b,
		)
		c := load(t, src)
		runToHalt(t, c, 10)

		if got := c.GetReg16(encoding.AX); got != p.a {
			t.Errorf("(%#04x + %#04x) - %#04x = %#04x, want %#04x", p.a, p.b, p.b, got, p.a)
		}
	}
}

func TestShiftByCL(t *testing.T) {
	c := load(t, "MOV AX, 1\nMOV CX, 4\nSHL AX, CL\nHLT")
	runToHalt(t, c, 10)

	if got := c.GetReg16(encoding.AX); got != 0x0010 {
		t.Errorf("AX = %#04x, want 0x0010", got)
	}
}

func TestSnapshotComparison(t *testing.T) {
	a := load(t, "MOV AX, 1\nMOV BX, 2\nHLT")
	b := load(t, "MOV AX, 1\nMOV BX, 2\nHLT")
	runToHalt(t, a, 10)
	runToHalt(t, b, 10)

	if diff := cmp.Diff(a.Registers, b.Registers); diff != "" {
		t.Errorf("identical programs produced different register snapshots (-a +b):\n%s", diff)
	}
}
