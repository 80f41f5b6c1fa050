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

package assembler

import (
	"fmt"
	"strings"

	"github.com/nullpilot/go8086/pkg/encoding"
)

type resolvedLine struct {
	parsed     ParsedLine
	descriptor encoding.InstructionDescriptor
	offset     int
	key        string
}

// Assemble runs the two-pass pipeline: a first pass walks every line to
// assign offsets and populate the symbol table, a second pass emits bytes
// and resolves label-relative displacements. It fails fast on the first
// error and emits no partial machine code.
func Assemble(source string) (Result, error) {
	lines := Lex(source)

	symbols := make(SymbolTable)
	resolved := make([]resolvedLine, 0, len(lines))

	offset := 0
	for _, line := range lines {
		parsed, err := Parse(line)
		if err != nil {
			return Result{}, err
		}

		if parsed.Label != "" {
			if _, exists := symbols[parsed.Label]; exists {
				return Result{}, &DuplicateLabelError{parsed.Position, parsed.Label}
			}
			symbols[parsed.Label] = offset
		}

		if parsed.Mnemonic == "" {
			continue
		}

		key := DeriveKey(parsed.Mnemonic, parsed.Operands)
		descriptor, ok := encoding.Lookup(key)
		if !ok {
			return Result{}, &UnknownMnemonicError{parsed.Position, key}
		}

		resolved = append(resolved, resolvedLine{parsed, descriptor, offset, key})
		offset += descriptor.Size
	}

	code := make([]byte, 0, offset)
	for _, rl := range resolved {
		bytes, err := encode(rl, symbols)
		if err != nil {
			return Result{}, err
		}
		code = append(code, bytes...)
	}

	return Result{
		MachineCode: code,
		SymbolTable: symbols,
		HexString:   hexString(code),
	}, nil
}

func hexString(code []byte) string {
	var b strings.Builder
	for i, c := range code {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", c)
	}
	return b.String()
}

func encode(rl resolvedLine, symbols SymbolTable) ([]byte, error) {
	d := rl.descriptor
	ops := rl.parsed.Operands
	pos := rl.parsed.Position

	switch d.Encoding {
	case encoding.Plain:
		return []byte{d.Opcode}, nil

	case encoding.RegInOpcode:
		return []byte{d.Opcode + byte(ops[0].Reg)}, nil

	case encoding.ModRMRegReg:
		dest := byte(ops[0].Reg)
		src := byte(ops[1].Reg)
		modrm := byte(0xC0) | (src << 3) | dest
		return []byte{d.Opcode, modrm}, nil

	case encoding.AxImm:
		if ops[0].Reg != encoding.AX {
			return nil, &InvalidOperandError{pos, "AX", ops[0].Raw}
		}
		lo, hi := splitWord(ops[1].Imm)
		return []byte{d.Opcode, lo, hi}, nil

	case encoding.MovRegImm:
		dest := byte(ops[0].Reg)
		lo, hi := splitWord(ops[1].Imm)
		return []byte{d.Opcode + dest, lo, hi}, nil

	case encoding.GroupF7:
		modrm := byte(0xC0) | (d.GroupExt << 3) | byte(ops[0].Reg)
		if d.GroupExt == encoding.ExtF7Test {
			lo, hi := splitWord(ops[1].Imm)
			return []byte{d.Opcode, modrm, lo, hi}, nil
		}
		return []byte{d.Opcode, modrm}, nil

	case encoding.GroupShift:
		dest := byte(ops[0].Reg)
		if strings.HasSuffix(rl.key, "_REG_IMM") {
			if ops[1].Imm != 1 {
				return nil, &InvalidOperandError{pos, "1", ops[1].Raw}
			}
		} else {
			if ops[1].Raw != "CL" {
				return nil, &InvalidOperandError{pos, "CL", ops[1].Raw}
			}
		}
		modrm := byte(0xC0) | (d.GroupExt << 3) | dest
		return []byte{d.Opcode, modrm}, nil

	case encoding.RelativeShort:
		target, err := resolveLabel(ops, symbols, pos)
		if err != nil {
			return nil, err
		}
		disp := target - (rl.offset + d.Size)
		if disp < -128 || disp > 127 {
			return nil, &DisplacementRangeError{pos, ops[0].Label, disp, 128}
		}
		return []byte{d.Opcode, byte(int8(disp))}, nil

	case encoding.RelativeNear:
		target, err := resolveLabel(ops, symbols, pos)
		if err != nil {
			return nil, err
		}
		disp := target - (rl.offset + d.Size)
		if disp < -32768 || disp > 32767 {
			return nil, &DisplacementRangeError{pos, ops[0].Label, disp, 32768}
		}
		lo, hi := splitWord(int32(int16(disp)))
		return []byte{d.Opcode, lo, hi}, nil
	}

	return nil, &UnknownMnemonicError{pos, rl.key}
}

func resolveLabel(ops []Operand, symbols SymbolTable, pos Cursor) (int, error) {
	if len(ops) != 1 || ops[0].Kind != OperandLabel {
		return 0, &InvalidOperandError{pos, "label", "?"}
	}

	target, ok := symbols[ops[0].Label]
	if !ok {
		return 0, &UndefinedLabelError{pos, ops[0].Label}
	}

	return target, nil
}

func splitWord(v int32) (lo, hi byte) {
	u := uint16(v)
	return byte(u & 0xFF), byte(u >> 8)
}
