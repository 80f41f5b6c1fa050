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
	"strings"

	"github.com/nullpilot/go8086/pkg/encoding"
)

// OperandKind classifies a parsed operand so key derivation can dispatch
// without re-inspecting the raw token.
type OperandKind int

const (
	OperandRegister OperandKind = iota
	OperandImmediate
	OperandLabel
)

type Operand struct {
	Kind  OperandKind
	Reg   encoding.Reg16
	Imm   int32
	Label string
	Raw   string
}

// ParsedLine is one assembled statement: an optional label, an optional
// mnemonic, and its operands. A label-only line has an empty Mnemonic.
type ParsedLine struct {
	Label    string
	Mnemonic string
	Operands []Operand
	Position Cursor
}

// Parse turns one lexed Line into a ParsedLine.
func Parse(line Line) (ParsedLine, error) {
	cursor := Cursor{Line: line.Number}
	text := line.Text

	var label string
	if idx := strings.IndexByte(text, ':'); idx >= 0 {
		label = strings.TrimSpace(text[:idx])
		if label == "" {
			return ParsedLine{}, &MalformedLineError{cursor, line.Text}
		}
		text = strings.TrimSpace(text[idx+1:])
	}

	if text == "" {
		return ParsedLine{Label: label, Position: cursor}, nil
	}

	fields := strings.SplitN(text, " ", 2)
	mnemonic := fields[0]

	var operands []Operand
	if len(fields) == 2 {
		rest := strings.TrimSpace(fields[1])
		if rest == "" {
			return ParsedLine{}, &MalformedLineError{cursor, line.Text}
		}

		for _, tok := range strings.Split(rest, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				return ParsedLine{}, &MalformedLineError{cursor, line.Text}
			}

			operand, err := parseOperand(tok, cursor)
			if err != nil {
				return ParsedLine{}, err
			}

			operands = append(operands, operand)
		}
	}

	return ParsedLine{
		Label:    label,
		Mnemonic: mnemonic,
		Operands: operands,
		Position: cursor,
	}, nil
}

func parseOperand(tok string, cursor Cursor) (Operand, error) {
	if reg, ok := encoding.LookupReg16(tok); ok {
		return Operand{Kind: OperandRegister, Reg: reg, Raw: tok}, nil
	}

	// CL is the only 8-bit register this grammar ever accepts as an
	// operand, carrying the shift/rotate count for the 0xD3 group form;
	// 8-bit arithmetic forms are not supported. It is still classified
	// OperandRegister so DeriveKey derives *_REG_REG, but has no Reg16
	// backing: the 0xD3 encoding never encodes the count register, it
	// only checks that the operand named is CL (see assembler.go's
	// GroupShift case).
	if _, ok := encoding.LookupReg8(tok); ok && tok == "CL" {
		return Operand{Kind: OperandRegister, Raw: tok}, nil
	}

	if encoding.IsImmediateLiteral(tok) {
		imm, err := encoding.DecodeImmediate(tok)
		if err != nil {
			return Operand{}, &InvalidLiteralError{cursor, tok}
		}

		return Operand{Kind: OperandImmediate, Imm: imm, Raw: tok}, nil
	}

	return Operand{Kind: OperandLabel, Label: tok, Raw: tok}, nil
}

// DeriveKey maps a mnemonic and its operand shape to an encoding-table
// key: two registers, a register and an immediate, a single register, or
// (labels and bare mnemonics alike) the mnemonic on its own.
func DeriveKey(mnemonic string, operands []Operand) string {
	switch len(operands) {
	case 2:
		if operands[0].Kind == OperandRegister && operands[1].Kind == OperandRegister {
			return mnemonic + "_REG_REG"
		}
		if operands[0].Kind == OperandRegister && operands[1].Kind == OperandImmediate {
			return mnemonic + "_REG_IMM"
		}
	case 1:
		if operands[0].Kind == OperandRegister {
			return mnemonic + "_REG"
		}
	}

	return mnemonic
}
