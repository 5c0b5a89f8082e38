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
	"github.com/rajarshiroy/OpenPhySyn/netlist"
	"github.com/rajarshiroy/OpenPhySyn/steiner"
	"github.com/rajarshiroy/OpenPhySyn/transform"
)

// epsilon absorbs float noise in the cost and gain tests.
const epsilon = 1e-9

// engineOptions tunes one bufferPin invocation.
type engineOptions struct {
	resizeGates bool
	minGain     float64
	areaPenalty float64
	// pruneEachJunction re-prunes after every junction merge (the
	// basic pass); the full pass relies on the final driver-side
	// prune only.
	pruneEachJunction bool
}

// bufferPin runs the dynamic program for one driver pin and commits
// the winning plan. Per-net failures (boundary pins, degenerate
// trees) are logged and skipped; the caller keeps iterating.
func bufferPin(ctx *transform.Context, pin *netlist.Pin, bufferLib, inverterLib []*netlist.LibraryCell, opt engineOptions) {
	h := ctx.Handler
	if pin.IsTopLevel() {
		ctx.Log.Warnf("buffering boundary pin %s not handled", pin.Name())
		return
	}
	net := pin.Net()
	if net == nil {
		return
	}
	tree, err := steiner.Build(net)
	if err != nil {
		ctx.Log.Errorf("steiner tree for %s: %v", pin.Name(), err)
		return
	}

	sol, err := bottomUp(ctx, tree, tree.Top(), tree.DriverPoint(), bufferLib, inverterLib, opt)
	if err != nil {
		ctx.Log.Errorf("bottom-up on %s: %v", net.Name(), err)
		return
	}
	if sol == nil || len(sol.Trees()) == 0 {
		return
	}
	// the dominance invariant must hold at the driver-side solution
	sol.Prune()

	inst := pin.Instance()
	driverLib := inst.Cell()
	var plan *Tree
	if opt.resizeGates && len(inst.OutputPins()) == 1 {
		drivers := h.Design.EquivalentCells(driverLib)
		if len(drivers) == 1 {
			plan, err = sol.OptimalDriverTree(pin, h.Timing)
		} else {
			plan, err = sol.OptimalDriverTreeResize(pin, drivers, opt.areaPenalty, h.Timing)
		}
	} else {
		plan, err = sol.OptimalDriverTree(pin, h.Timing)
	}
	if err != nil {
		ctx.Log.Errorf("driver selection on %s: %v", net.Name(), err)
		return
	}
	if plan == nil {
		return
	}

	var replaceDriver *netlist.LibraryCell
	if plan.HasDriverCell() && plan.DriverCell() != driverLib {
		replaceDriver = plan.DriverCell()
	}

	base := sol.Baseline()
	if base == nil {
		return
	}
	oldDelay, err := h.Timing.GateDelay(pin, base.TotalCapacitance())
	if err != nil {
		ctx.Log.Errorf("baseline delay on %s: %v", net.Name(), err)
		return
	}
	oldSlack := base.TotalRequired() - oldDelay

	newDelay, err := h.Timing.GateDelay(pin, plan.TotalCapacitance())
	if err != nil {
		ctx.Log.Errorf("plan delay on %s: %v", net.Name(), err)
		return
	}
	newSlack := plan.TotalRequired() - newDelay
	gain := newSlack - oldSlack

	if plan.Cost() <= epsilon || gain >= opt.minGain-epsilon {
		if err := topDown(ctx, pin, plan); err != nil {
			// no rollback: keep whatever was realized and move on
			ctx.Log.Errorf("realization on %s: %v", net.Name(), err)
		}
		if replaceDriver != nil {
			if err := h.Design.ReplaceInstance(inst, replaceDriver); err != nil {
				ctx.Log.Errorf("resize %s: %v", inst.Name(), err)
				return
			}
			ctx.CurrentArea += replaceDriver.Area - driverLib.Area
			ctx.ResizeCount++
		}
	} else {
		ctx.Log.Debugf("weak solution on %s: %v gain=%.3g", net.Name(), plan, gain)
	}
}

// bottomUp walks the Steiner tree from the sinks toward the driver,
// building at every point the non-dominated candidate set for the
// subtree below it.
func bottomUp(ctx *transform.Context, st *steiner.Tree, pt, prev steiner.NodeID, bufferLib, inverterLib []*netlist.LibraryCell, opt engineOptions) (*Solution, error) {
	if pt == steiner.Null {
		return nil, nil
	}
	h := ctx.Handler
	wireLen := h.DbuToMeters(st.Distance(prev, pt))
	wireRes := wireLen * h.ResistancePerMicron()
	wireCap := wireLen * h.CapacitancePerMicron()
	wireDelay := wireRes * wireCap
	upstream := st.Location(prev)

	if pin := st.Pin(pt); pin != nil {
		if !pin.IsLoad() {
			return nil, nil
		}
		cap := h.Timing.PinCapacitance(pin)
		req, err := h.Timing.Required(pin)
		if err != nil {
			return nil, err
		}
		base := NewLeaf(cap, req, st.Location(pt), pin)
		sol := NewSolution()
		sol.AddTree(base)
		sol.setBaseline(base)
		sol.AddWireDelayAndCapacitance(wireDelay, wireCap)
		sol.AddLeafTrees(upstream, bufferLib, inverterLib, h.Timing)
		return sol, nil
	}

	left, err := bottomUp(ctx, st, st.Left(pt), pt, bufferLib, inverterLib, opt)
	if err != nil {
		return nil, err
	}
	right, err := bottomUp(ctx, st, st.Right(pt), pt, bufferLib, inverterLib, opt)
	if err != nil {
		return nil, err
	}
	sol := Merge(left, right, st.Location(pt), referenceBuffer(bufferLib))
	if sol == nil {
		return nil, nil
	}
	sol.AddWireDelayAndCapacitance(wireDelay, wireCap)
	if opt.pruneEachJunction {
		sol.Prune()
	}
	sol.AddLeafTrees(upstream, bufferLib, inverterLib, h.Timing)
	return sol, nil
}
