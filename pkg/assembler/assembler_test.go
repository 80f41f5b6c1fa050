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

package assembler_test

import (
	"reflect"
	"testing"

	"github.com/nullpilot/go8086/pkg/assembler"
)

type testCase struct {
	Name    string
	Input   string
	Want    []byte
	Symbols map[string]int
}

type failCase struct {
	Name  string
	Input string
	Error error
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				result, err := assembler.Assemble(test.Input)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				if !reflect.DeepEqual(result.MachineCode, test.Want) {
					t.Fatalf(
						"encoding mismatch\n\twant:% X\n\thave:% X",
						test.Want, result.MachineCode,
					)
				}

				for label, want := range test.Symbols {
					have, exists := result.SymbolTable[label]
					if !exists {
						t.Fatalf("missing symbol %q", label)
					}
					if have != want {
						t.Fatalf("symbol %q offset mismatch\n\twant:%d\n\thave:%d", label, want, have)
					}
				}
			})
		}
	})
}

func testFail(t *testing.T, tests []failCase) {
	t.Run("Fail", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				_, err := assembler.Assemble(test.Input)
				if err == nil {
					t.Fatalf("want error %T, have <nil>", test.Error)
				}

				if reflect.TypeOf(err) != reflect.TypeOf(test.Error) {
					t.Fatalf("want error %T, have %T (%v)", test.Error, err, err)
				}
			})
		}
	})
}

func TestMovAddHlt(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:  "MOV/ADD/HLT",
			Input: "MOV AX, 5\nADD AX, 2\nHLT",
			Want:  []byte{0xB8, 0x05, 0x00, 0x05, 0x02, 0x00, 0xF4},
		},
	})
}

func TestHexString(t *testing.T) {
	result, err := assembler.Assemble("MOV AX, 5\nHLT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := "B8 05 00 F4"; result.HexString != want {
		t.Fatalf("hex string mismatch\n\twant:%q\n\thave:%q", want, result.HexString)
	}
}

func TestLabelsAndJumps(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "DEC/JNZ loop",
			Input: "MOV CX, 3\n" +
				"LOOP: DEC CX\n" +
				"JNZ LOOP\n" +
				"HLT",
			Want: []byte{
				0xB9, 0x03, 0x00, // MOV CX, 3
				0x49,       // DEC CX
				0x75, 0xFD, // JNZ LOOP (back 3 bytes)
				0xF4, // HLT
			},
			Symbols: map[string]int{"LOOP": 3},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "undefined label",
			Input: "JMP NOWHERE",
			Error: &assembler.UndefinedLabelError{},
		},
	})
}

func TestShortJumpOutOfRange(t *testing.T) {
	var src string
	src += "JE FAR\n"
	for i := 0; i < 200; i++ {
		src += "NOP\n"
	}
	src += "FAR: HLT"

	testFail(t, []failCase{
		{
			Name:  "short jump too far",
			Input: src,
			Error: &assembler.DisplacementRangeError{},
		},
	})
}

func TestUnknownMnemonic(t *testing.T) {
	testFail(t, []failCase{
		{
			Name:  "bad mnemonic",
			Input: "FROB AX, BX",
			Error: &assembler.UnknownMnemonicError{},
		},
	})
}

func TestDuplicateLabel(t *testing.T) {
	testFail(t, []failCase{
		{
			Name:  "duplicate label",
			Input: "A: NOP\nA: NOP",
			Error: &assembler.DuplicateLabelError{},
		},
	})
}

func TestRegImmGroup(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:  "ADD AX, imm uses AX-only opcode",
			Input: "ADD AX, 10",
			Want:  []byte{0x05, 0x0A, 0x00},
		},
		{
			Name:  "SHL by 1",
			Input: "SHL AX, 1",
			Want:  []byte{0xD1, 0xE0},
		},
		{
			Name:  "SHL by CL",
			Input: "SHL AX, CL",
			Want:  []byte{0xD3, 0xE0},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "ADD imm requires AX",
			Input: "ADD BX, 10",
			Error: &assembler.InvalidOperandError{},
		},
	})
}
