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

package repair

import (
	"errors"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
	"github.com/rajarshiroy/OpenPhySyn/transform"
)

// ErrAreaExceeded stops a pass when the inserted area crosses the
// design budget; the transform returns its mutation count so far.
var ErrAreaExceeded = errors.New("repair: maximum utilization reached")

// passOptions tunes one full violation-repair run.
type passOptions struct {
	engineOptions
	fixCap        bool
	fixTransition bool
	maxIterations int
}

func overBudget(ctx *transform.Context) bool {
	h := ctx.Handler
	return h.HasMaxArea() && ctx.CurrentArea > h.MaxArea()
}

func netViolates(net *netlist.Net, check func(*netlist.Pin) bool) bool {
	for _, p := range net.Pins() {
		if check(p) {
			return true
		}
	}
	return false
}

// fixCapacitanceViolations buffers every driver pin whose net has a
// max-capacitance violation on any connected pin. Clock nets are
// never touched.
func fixCapacitanceViolations(ctx *transform.Context, driverPins []*netlist.Pin, bufferLib, inverterLib []*netlist.LibraryCell, opt engineOptions) error {
	ctx.Log.Debug("fixing capacitance violations")
	h := ctx.Handler
	clocks := h.Design.ClockNets()
	for _, pin := range driverPins {
		net := pin.Net()
		if net == nil || clocks.Contains(net) {
			continue
		}
		if !netViolates(net, h.Timing.ViolatesMaxCapacitance) {
			continue
		}
		ctx.CapacitanceViolations++
		ctx.Log.Debugf("fixing max. cap. violation at %s", pin.Name())
		bufferPin(ctx, pin, bufferLib, inverterLib, opt)
		if overBudget(ctx) {
			ctx.Log.Warn("maximum utilization reached")
			return ErrAreaExceeded
		}
	}
	return nil
}

// fixTransitionViolations buffers every driver pin whose net has a
// max-transition violation on any connected pin. Cached delays are
// dropped first so the pass sees the buffers inserted before it.
func fixTransitionViolations(ctx *transform.Context, driverPins []*netlist.Pin, bufferLib, inverterLib []*netlist.LibraryCell, opt engineOptions) error {
	ctx.Log.Debug("fixing transition violations")
	h := ctx.Handler
	h.Timing.ResetDelays()
	clocks := h.Design.ClockNets()
	for _, pin := range driverPins {
		net := pin.Net()
		if net == nil || clocks.Contains(net) {
			continue
		}
		if !netViolates(net, h.Timing.ViolatesMaxTransition) {
			continue
		}
		ctx.TransitionViolations++
		ctx.Log.Debugf("fixing max. transition violation at %s", pin.Name())
		bufferPin(ctx, pin, bufferLib, inverterLib, opt)
		if overBudget(ctx) {
			ctx.Log.Warn("maximum utilization reached")
			return ErrAreaExceeded
		}
	}
	return nil
}

// timingBuffer is the outer loop: repair passes over the driver pins
// in reverse levelized order (sinks first) until the iteration cap
// or until an iteration commits nothing new.
func timingBuffer(ctx *transform.Context, bufferLib, inverterLib []*netlist.LibraryCell, opt passOptions) int {
	h := ctx.Handler
	ctx.Log.Infof("using %d buffers and %d inverters", len(bufferLib), len(inverterLib))
	if opt.resizeGates {
		ctx.Log.Info("driver sizing enabled")
	} else {
		ctx.Log.Info("driver sizing disabled")
	}

	for i := 0; i < opt.maxIterations; i++ {
		ctx.Log.Infof("iteration %d", i+1)
		driverPins := h.Design.LevelDriverPins()
		reverse(driverPins)

		preBuf, preResize := ctx.BufferCount, ctx.ResizeCount
		changed := false
		if opt.fixCap {
			err := fixCapacitanceViolations(ctx, driverPins, bufferLib, inverterLib, opt.engineOptions)
			changed = changed || ctx.BufferCount != preBuf || ctx.ResizeCount != preResize
			if err != nil {
				break
			}
		}
		if opt.fixTransition {
			err := fixTransitionViolations(ctx, driverPins, bufferLib, inverterLib, opt.engineOptions)
			changed = changed || ctx.BufferCount != preBuf || ctx.ResizeCount != preResize
			if err != nil {
				break
			}
		}
		if !changed {
			// fixed point: nothing left this pass can repair
			ctx.Log.Debug("no more violations or cannot buffer")
			break
		}
	}

	ctx.Log.Infof("found %d maximum capacitance violations", ctx.CapacitanceViolations)
	ctx.Log.Infof("found %d maximum transition violations", ctx.TransitionViolations)
	ctx.Log.Infof("placed %d buffers", ctx.BufferCount)
	ctx.Log.Infof("resized %d gates", ctx.ResizeCount)
	return ctx.BufferCount + ctx.ResizeCount
}

func reverse(pins []*netlist.Pin) {
	for i, j := 0, len(pins)-1; i < j; i, j = i+1, j-1 {
		pins[i], pins[j] = pins[j], pins[i]
	}
}
