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

package cpu

import (
	"fmt"

	"github.com/nullpilot/go8086/pkg/encoding"
	"github.com/sirupsen/logrus"
)

// InterruptEvent is the diagnostic side-channel payload delivered on a trap
// (currently just the divide-error vector).
type InterruptEvent struct {
	Vector byte
	IP     uint16
	AX     uint16
	DX     uint16
}

// InterruptHook is an injectable callback owned by a CPU instance, not
// global state, so embedders can observe traps without the engine knowing
// anything about logging, UI, or test harnesses.
type InterruptHook interface {
	OnTrap(event InterruptEvent)
}

// LogrusHook is the default InterruptHook: it turns a trap into a
// structured logrus entry instead of a bare fmt.Printf.
type LogrusHook struct {
	Logger *logrus.Logger
}

func NewLogrusHook() *LogrusHook {
	return &LogrusHook{Logger: logrus.StandardLogger()}
}

func (h *LogrusHook) OnTrap(event InterruptEvent) {
	h.Logger.WithFields(logrus.Fields{
		"vector": event.Vector,
		"ip":     fmt.Sprintf("%#04x", event.IP),
		"ax":     event.AX,
		"dx":     event.DX,
	}).Warn("cpu trap")
}

// raiseInterrupt rewinds IP to the start of the faulting instruction and
// notifies the hook. It does not halt: runtime division traps route
// through the interrupt hook rather than the unknown-opcode halt path,
// and this engine has no IVT dispatch beyond that one hardware trap
// (divide error, vector 0).
func (c *CPU) raiseInterrupt(vector byte) {
	c.IP = c.instrStart

	if c.InterruptHook != nil {
		c.InterruptHook.OnTrap(InterruptEvent{
			Vector: vector,
			IP:     c.IP,
			AX:     c.Registers[encoding.AX],
			DX:     c.Registers[encoding.DX],
		})
	}
}
