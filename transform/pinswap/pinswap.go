// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package pinswap walks the critical timing path and exchanges
// commutative input pins wherever the exchange shortens the arrival
// at the gate output.
package pinswap

import (
	"fmt"
	"strings"

	"github.com/rajarshiroy/OpenPhySyn/transform"
)

// PinSwap is the commutative pin-swapping transform. The single
// optional argument selects the objective: false (or absent) is
// timing mode; true requests power mode, which is reserved.
type PinSwap struct{}

func (PinSwap) Name() string { return "pin_swap" }

func (PinSwap) Help() string { return "pin_swap [enable_power_opt (true|false)]" }

// Run dispatches on the objective argument.
func (ps PinSwap) Run(ctx *transform.Context, args []string) (int, error) {
	powerOpt := false
	if len(args) > 1 {
		ctx.Log.Error(ps.Help())
		return -1, transform.ErrArgument
	}
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "true", "1":
			powerOpt = true
		case "false", "0":
			powerOpt = false
		default:
			ctx.Log.Error(ps.Help())
			return -1, transform.ErrArgument
		}
	}
	if powerOpt {
		return ps.powerPinSwap(ctx)
	}
	return ps.timingPinSwap(ctx)
}

// powerPinSwap is the reserved power-driven objective.
func (PinSwap) powerPinSwap(ctx *transform.Context) (int, error) {
	ctx.Log.Error("pin-swapping for power optimization is not supported yet")
	return -1, fmt.Errorf("%w: power-driven pin swapping", transform.ErrUnsupported)
}

// timingPinSwap walks the critical path endpoint-to-start and keeps
// every commutative swap that reduces the output arrival. Rejected
// swaps are undone by swapping again, leaving the netlist as it was.
func (PinSwap) timingPinSwap(ctx *transform.Context) (int, error) {
	h := ctx.Handler
	path, err := h.Timing.CriticalPath()
	if err != nil {
		return ctx.SwapCount, err
	}
	// walk sinks first: improvements near the endpoint shorten the
	// path the earlier points are judged against
	for i := len(path) - 1; i >= 0; i-- {
		point := path[i]
		pin := point.Pin
		if pin.IsTopLevel() || !pin.IsInput() {
			continue
		}
		inst := pin.Instance()
		inputs := inst.InputPins()
		outputs := inst.OutputPins()
		if len(inputs) < 2 || len(outputs) != 1 {
			continue
		}
		out := outputs[0]
		for _, other := range inputs {
			if other == pin || !h.IsCommutative(other, pin) {
				continue
			}
			before, err := h.Timing.Arrival(out, point.APIndex, point.Rise)
			if err != nil {
				return ctx.SwapCount, err
			}
			if err := h.Design.SwapPins(pin, other); err != nil {
				return ctx.SwapCount, err
			}
			after, err := h.Timing.Arrival(out, point.APIndex, point.Rise)
			if err != nil {
				return ctx.SwapCount, err
			}
			if after < before {
				ctx.Log.Debugf("accepted swap: %s <-> %s", pin.Name(), other.Name())
				ctx.SwapCount++
			} else if err := h.Design.SwapPins(pin, other); err != nil {
				return ctx.SwapCount, err
			}
		}
	}
	return ctx.SwapCount, nil
}
