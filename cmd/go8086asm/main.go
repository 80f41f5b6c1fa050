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

// Command go8086asm is a thin CLI around pkg/assembler.Assemble: read a
// source file (or stdin), write the assembled machine code, and print its
// hex rendering.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nullpilot/go8086/pkg/assembler"
)

var helpvar bool
var outvar string

const usage = "go8086asm [-o outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.StringVar(
		&outvar, "o", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

func go8086asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var input io.Reader

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m ")

		if outvar == "" {
			outvar = "out.bin"
		}
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])
		if err != nil {
			log.Println(err)
			return 1
		}
		defer file.Close()

		filename := filepath.Base(file.Name())
		input = file
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m ", filename))

		if outvar == "" {
			outvar = strings.ReplaceAll(filename, filepath.Ext(filename), ".bin")
		}
	}

	source, err := io.ReadAll(input)
	if err != nil {
		log.Println(err)
		return 1
	}

	result, err := assembler.Assemble(string(source))
	if err != nil {
		if positioned, ok := err.(assembler.PositionedError); ok {
			log.Printf("line %d: %v", positioned.GetPosition().Line, err)
		} else {
			log.Println(err)
		}
		return 1
	}

	if err := os.WriteFile(outvar, result.MachineCode, 0666); err != nil {
		log.Println("error writing output file")
		log.Println(err)
		return 1
	}

	fmt.Println(result.HexString)

	return 0
}

func main() {
	os.Exit(go8086asm())
}
