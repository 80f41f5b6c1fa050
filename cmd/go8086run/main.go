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

// Command go8086run loads an assembled binary into a pkg/cpu.CPU's memory
// at CS:IP=0:0 and steps it to completion, printing the final register and
// flag snapshot. It is not an interactive debugger; there are no
// breakpoints, watchpoints, or raw-terminal stepping.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/nullpilot/go8086/pkg/cpu"
	"github.com/nullpilot/go8086/pkg/encoding"
)

var helpvar bool
var maxStepsVar int

const usage = "go8086run filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(exe + ": ")
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.IntVar(
		&maxStepsVar, "max-steps", 1_000_000,
		"Aborts the run if the program hasn't halted after this many steps",
	)
	flag.Parse()
}

func go8086run() int {
	if helpvar {
		fmt.Println(usage)
		return 0
	}

	args := flag.Args()
	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	code, err := os.ReadFile(args[0])
	if err != nil {
		log.Println(err)
		return 1
	}

	c := cpu.NewCPU()
	for i, b := range code {
		c.WriteByte(i, b)
	}

	steps := 0
	for !c.Halted && steps < maxStepsVar {
		c.Step()
		steps++
	}

	if !c.Halted {
		log.Printf("did not halt within %d steps", maxStepsVar)
		return 1
	}

	printSnapshot(c)

	if c.LastError != nil {
		log.Println(c.LastError)
		return 1
	}

	return 0
}

func printSnapshot(c *cpu.CPU) {
	fmt.Printf("IP=%04X FLAGS=%04X\n", c.IP, c.Flags)
	for _, r := range []encoding.Reg16{
		encoding.AX, encoding.CX, encoding.DX, encoding.BX,
		encoding.SP, encoding.BP, encoding.SI, encoding.DI,
	} {
		fmt.Printf("%s=%04X ", r, c.GetReg16(r))
	}
	fmt.Println()
}

func main() {
	os.Exit(go8086run())
}
