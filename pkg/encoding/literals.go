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

package encoding

import (
	"strconv"
	"strings"
)

// DecodeHex decodes an 8086-style hex literal in the form 0xNNN or 0XNNN.
func DecodeHex(s string) (int32, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, &strconv.NumError{Func: "DecodeHex", Num: s, Err: strconv.ErrSyntax}
	}

	result, err := strconv.ParseUint(s[2:], 16, 32)
	if err != nil {
		return 0, err
	}

	return int32(result), nil
}

// DecodeDecimal decodes a signed base-10 literal, with an optional leading
// '+' or '-'.
func DecodeDecimal(s string) (int32, error) {
	result, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}

	return int32(result), nil
}

// IsImmediateLiteral reports whether token looks like an immediate operand
// (decimal or 0x-prefixed hex) rather than a register or label identifier.
func IsImmediateLiteral(token string) bool {
	if token == "" {
		return false
	}

	if strings.HasPrefix(token, "0X") || strings.HasPrefix(token, "0x") {
		return true
	}

	start := 0
	if token[0] == '+' || token[0] == '-' {
		start = 1
	}

	if start >= len(token) {
		return false
	}

	for _, c := range token[start:] {
		if c < '0' || c > '9' {
			return false
		}
	}

	return true
}

// DecodeImmediate decodes either hex or decimal form of an immediate
// literal.
func DecodeImmediate(token string) (int32, error) {
	if strings.HasPrefix(token, "0X") || strings.HasPrefix(token, "0x") {
		return DecodeHex(token)
	}
	return DecodeDecimal(token)
}

// SignExtend8 sign-extends an 8-bit displacement to a 16-bit word.
func SignExtend8(v byte) uint16 {
	return uint16(int16(int8(v)))
}

// SignExtend sign-extends the low bitcount bits of value to a full uint16.
func SignExtend(value uint16, bitcount uint) uint16 {
	if bitcount >= 16 {
		return value
	}

	shift := 16 - bitcount
	return uint16(int16(value<<shift) >> shift)
}
