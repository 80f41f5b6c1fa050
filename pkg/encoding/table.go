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

// Package encoding is the declarative catalog of instruction forms used by
// the assembler's encoder. The CPU's decoder shares its register indices,
// flag masks and group-extension constants, but matches opcode bytes as
// literals in its own dispatch switch rather than reading Table.
package encoding

// Kind tags how an InstructionDescriptor's bytes are laid out.
type Kind int

const (
	// Plain is a bare opcode byte, no operands encoded.
	Plain Kind = iota
	// RegInOpcode adds the destination register index to the opcode byte.
	RegInOpcode
	// ModRMRegReg emits opcode then a register-direct ModR/M byte with
	// reg=src (operand 1), rm=dest (operand 0).
	ModRMRegReg
	// AxImm emits a bare opcode (destination is implicitly AX) followed
	// by a 16-bit little-endian immediate.
	AxImm
	// MovRegImm emits opcode+regIndex(dest) followed by a 16-bit
	// little-endian immediate, with no ModR/M byte.
	MovRegImm
	// GroupF7 emits opcode 0xF7 then a register-direct ModR/M byte whose
	// reg field is the group extension and whose rm field is the register
	// operand. TEST is the one member that also carries a trailing 16-bit
	// little-endian immediate.
	GroupF7
	// GroupShift emits opcode 0xD1 or 0xD3 then a register-direct ModR/M
	// byte whose reg field is the group extension; the count (1, or CL)
	// is implied by which opcode the descriptor carries and is never
	// itself encoded.
	GroupShift
	// RelativeShort emits opcode then a signed 8-bit displacement.
	RelativeShort
	// RelativeNear emits opcode then a signed 16-bit little-endian
	// displacement.
	RelativeNear
)

// InstructionDescriptor is one row of the shared encoding table: the
// opcode byte, total instruction size in bytes, encoding shape, and (for
// the group-extension forms) the ModR/M reg-field extension value.
type InstructionDescriptor struct {
	Key      string
	Opcode   byte
	Size     int
	Encoding Kind
	GroupExt byte
}

// Group 0xF7 extensions (ModR/M reg field), per the 8086 manual.
const (
	ExtF7Test byte = 0
	ExtF7Not  byte = 2
	ExtF7Neg  byte = 3
	ExtF7Mul  byte = 4
	ExtF7Imul byte = 5
	ExtF7Div  byte = 6
	ExtF7Idiv byte = 7
)

// Group 0xD1/0xD3 shift/rotate extensions (ModR/M reg field).
const (
	ExtShiftRol byte = 0
	ExtShiftRor byte = 1
	ExtShiftRcl byte = 2
	ExtShiftRcr byte = 3
	ExtShiftShl byte = 4
	ExtShiftShr byte = 5
	ExtShiftSar byte = 7
)

// Table is the static catalog keyed by mnemonic-form, e.g. "ADD_REG_REG".
// The assembler's encoder reads it; pkg/cpu's dispatch switch repeats the
// opcode bytes as literals and is not generated from it.
var Table = map[string]InstructionDescriptor{
	// MOV
	"MOV_REG_REG": {"MOV_REG_REG", 0x89, 2, ModRMRegReg, 0},
	"MOV_REG_IMM": {"MOV_REG_IMM", 0xB8, 3, MovRegImm, 0},

	// PUSH / POP
	"PUSH_REG": {"PUSH_REG", 0x50, 1, RegInOpcode, 0},
	"POP_REG":  {"POP_REG", 0x58, 1, RegInOpcode, 0},

	// XCHG
	"XCHG_REG_REG": {"XCHG_REG_REG", 0x87, 2, ModRMRegReg, 0},
	"XCHG_REG":     {"XCHG_REG", 0x90, 1, RegInOpcode, 0},

	// LEA (assembler only supports register-direct syntax; see pkg/cpu's
	// mod==3 handling for why that is still meaningful)
	"LEA_REG_REG": {"LEA_REG_REG", 0x8D, 2, ModRMRegReg, 0},

	// ADD / SUB / CMP
	"ADD_REG_REG": {"ADD_REG_REG", 0x01, 2, ModRMRegReg, 0},
	"ADD_REG_IMM": {"ADD_REG_IMM", 0x05, 3, AxImm, 0},
	"SUB_REG_REG": {"SUB_REG_REG", 0x29, 2, ModRMRegReg, 0},
	"SUB_REG_IMM": {"SUB_REG_IMM", 0x2D, 3, AxImm, 0},
	"CMP_REG_REG": {"CMP_REG_REG", 0x39, 2, ModRMRegReg, 0},
	"CMP_REG_IMM": {"CMP_REG_IMM", 0x3D, 3, AxImm, 0},

	// INC / DEC
	"INC_REG": {"INC_REG", 0x40, 1, RegInOpcode, 0},
	"DEC_REG": {"DEC_REG", 0x48, 1, RegInOpcode, 0},

	// Group 0xF7: MUL/IMUL/DIV/IDIV/NEG/NOT/TEST. TEST is the odd one out:
	// unlike the rest of the group it is a two-operand form (reg, imm).
	// The real 8086 has no single-operand TEST r/m without an immediate,
	// so there is no "TEST_REG" form here, only "TEST_REG_IMM" (4 bytes:
	// opcode, ModR/M, imm16; see encode()'s GroupF7 case).
	"MUL_REG":      {"MUL_REG", 0xF7, 2, GroupF7, ExtF7Mul},
	"IMUL_REG":     {"IMUL_REG", 0xF7, 2, GroupF7, ExtF7Imul},
	"DIV_REG":      {"DIV_REG", 0xF7, 2, GroupF7, ExtF7Div},
	"IDIV_REG":     {"IDIV_REG", 0xF7, 2, GroupF7, ExtF7Idiv},
	"NEG_REG":      {"NEG_REG", 0xF7, 2, GroupF7, ExtF7Neg},
	"NOT_REG":      {"NOT_REG", 0xF7, 2, GroupF7, ExtF7Not},
	"TEST_REG_IMM": {"TEST_REG_IMM", 0xF7, 4, GroupF7, ExtF7Test},

	// AND / OR / XOR / TEST
	"AND_REG_REG":  {"AND_REG_REG", 0x21, 2, ModRMRegReg, 0},
	"AND_REG_IMM":  {"AND_REG_IMM", 0x25, 3, AxImm, 0},
	"OR_REG_REG":   {"OR_REG_REG", 0x09, 2, ModRMRegReg, 0},
	"OR_REG_IMM":   {"OR_REG_IMM", 0x0D, 3, AxImm, 0},
	"XOR_REG_REG":  {"XOR_REG_REG", 0x31, 2, ModRMRegReg, 0},
	"XOR_REG_IMM":  {"XOR_REG_IMM", 0x35, 3, AxImm, 0},
	"TEST_REG_REG": {"TEST_REG_REG", 0x85, 2, ModRMRegReg, 0},

	// String primitives (single-iteration form only, no REP prefix)
	"MOVSB": {"MOVSB", 0xA4, 1, Plain, 0},
	"LODSB": {"LODSB", 0xAC, 1, Plain, 0},
	"STOSB": {"STOSB", 0xAA, 1, Plain, 0},
	"CMPSB": {"CMPSB", 0xA6, 1, Plain, 0},

	// Control flow
	"JMP":  {"JMP", 0xE9, 3, RelativeNear, 0},
	"CALL": {"CALL", 0xE8, 3, RelativeNear, 0},
	"RET":  {"RET", 0xC3, 1, Plain, 0},
	"JE":   {"JE", 0x74, 2, RelativeShort, 0},
	"JZ":   {"JZ", 0x74, 2, RelativeShort, 0},
	"JNE":  {"JNE", 0x75, 2, RelativeShort, 0},
	"JNZ":  {"JNZ", 0x75, 2, RelativeShort, 0},
	"JC":   {"JC", 0x72, 2, RelativeShort, 0},
	"JNC":  {"JNC", 0x73, 2, RelativeShort, 0},

	// Shift/rotate group 0xD1 (count=1) / 0xD3 (count=CL)
	"ROL_REG_IMM": {"ROL_REG_IMM", 0xD1, 2, GroupShift, ExtShiftRol},
	"ROL_REG_REG": {"ROL_REG_REG", 0xD3, 2, GroupShift, ExtShiftRol},
	"ROR_REG_IMM": {"ROR_REG_IMM", 0xD1, 2, GroupShift, ExtShiftRor},
	"ROR_REG_REG": {"ROR_REG_REG", 0xD3, 2, GroupShift, ExtShiftRor},
	"RCL_REG_IMM": {"RCL_REG_IMM", 0xD1, 2, GroupShift, ExtShiftRcl},
	"RCL_REG_REG": {"RCL_REG_REG", 0xD3, 2, GroupShift, ExtShiftRcl},
	"RCR_REG_IMM": {"RCR_REG_IMM", 0xD1, 2, GroupShift, ExtShiftRcr},
	"RCR_REG_REG": {"RCR_REG_REG", 0xD3, 2, GroupShift, ExtShiftRcr},
	"SHL_REG_IMM": {"SHL_REG_IMM", 0xD1, 2, GroupShift, ExtShiftShl},
	"SHL_REG_REG": {"SHL_REG_REG", 0xD3, 2, GroupShift, ExtShiftShl},
	"SHR_REG_IMM": {"SHR_REG_IMM", 0xD1, 2, GroupShift, ExtShiftShr},
	"SHR_REG_REG": {"SHR_REG_REG", 0xD3, 2, GroupShift, ExtShiftShr},
	"SAR_REG_IMM": {"SAR_REG_IMM", 0xD1, 2, GroupShift, ExtShiftSar},
	"SAR_REG_REG": {"SAR_REG_REG", 0xD3, 2, GroupShift, ExtShiftSar},

	// Misc
	"NOP": {"NOP", 0x90, 1, Plain, 0},
	"HLT": {"HLT", 0xF4, 1, Plain, 0},
	"CLC": {"CLC", 0xF8, 1, Plain, 0},
	"STC": {"STC", 0xF9, 1, Plain, 0},
	"CMC": {"CMC", 0xF5, 1, Plain, 0},
}

// Lookup returns the descriptor for key, if the table has one.
func Lookup(key string) (InstructionDescriptor, bool) {
	d, ok := Table[key]
	return d, ok
}
