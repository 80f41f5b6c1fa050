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

import "strings"

// Line is one source line that survived comment-stripping and blank
// dropping, tagged with its 1-based line number for error reporting.
type Line struct {
	Number int
	Text   string
}

// Lex strips everything from the first ';' on, trims surrounding
// whitespace, drops lines that come out empty, and upcases what remains so
// the parser never has to care about case.
func Lex(source string) []Line {
	var lines []Line

	for i, raw := range strings.Split(source, "\n") {
		text := raw
		if idx := strings.IndexByte(text, ';'); idx >= 0 {
			text = text[:idx]
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		lines = append(lines, Line{Number: i + 1, Text: strings.ToUpper(text)})
	}

	return lines
}
