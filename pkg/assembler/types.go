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

import "fmt"

// Cursor locates an error in the original source for reporting.
type Cursor struct {
	Line int
}

// PositionedError is implemented by every error this package returns, so
// callers can report a line number without a type switch.
type PositionedError interface {
	error
	GetPosition() Cursor
}

// SymbolTable maps label names to their byte offset in the assembled image.
type SymbolTable map[string]int

// Result is what Assemble produces from a source program.
type Result struct {
	MachineCode []byte
	SymbolTable SymbolTable
	HexString   string
}

type MalformedLineError struct {
	Position Cursor
	Text     string
}

func (err *MalformedLineError) GetPosition() Cursor { return err.Position }

func (err *MalformedLineError) Error() string {
	return fmt.Sprintf("%d: malformed line %q", err.Position.Line, err.Text)
}

type UnknownMnemonicError struct {
	Position Cursor
	Mnemonic string
}

func (err *UnknownMnemonicError) GetPosition() Cursor { return err.Position }

func (err *UnknownMnemonicError) Error() string {
	return fmt.Sprintf("%d: unknown instruction form %q", err.Position.Line, err.Mnemonic)
}

type InvalidOperandError struct {
	Position Cursor
	Want     string
	Have     string
}

func (err *InvalidOperandError) GetPosition() Cursor { return err.Position }

func (err *InvalidOperandError) Error() string {
	return fmt.Sprintf(
		"%d: invalid operand\n\twant:%s\n\thave:%s",
		err.Position.Line, err.Want, err.Have,
	)
}

type InvalidLiteralError struct {
	Position Cursor
	Text     string
}

func (err *InvalidLiteralError) GetPosition() Cursor { return err.Position }

func (err *InvalidLiteralError) Error() string {
	return fmt.Sprintf("%d: invalid numeric literal %q", err.Position.Line, err.Text)
}

type DuplicateLabelError struct {
	Position Cursor
	Label    string
}

func (err *DuplicateLabelError) GetPosition() Cursor { return err.Position }

func (err *DuplicateLabelError) Error() string {
	return fmt.Sprintf("%d: redeclaration of label %q", err.Position.Line, err.Label)
}

type UndefinedLabelError struct {
	Position Cursor
	Label    string
}

func (err *UndefinedLabelError) GetPosition() Cursor { return err.Position }

func (err *UndefinedLabelError) Error() string {
	return fmt.Sprintf("%d: undefined label %q", err.Position.Line, err.Label)
}

type DisplacementRangeError struct {
	Position     Cursor
	Label        string
	Displacement int
	Limit        int
}

func (err *DisplacementRangeError) GetPosition() Cursor { return err.Position }

func (err *DisplacementRangeError) Error() string {
	return fmt.Sprintf(
		"%d: jump to %s is too far\n\twant:-%d <= offset < %d\n\thave:%d",
		err.Position.Line, err.Label, err.Limit, err.Limit, err.Displacement,
	)
}
