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
	"math"

	"golang.org/x/exp/slices"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
	"github.com/rajarshiroy/OpenPhySyn/sta"
)

// Solution is the candidate set at one Steiner node. Alongside the
// candidates it carries the zero-buffer baseline tree, kept out of
// the candidate list so pruning can never displace it: the gain test
// at the driver needs a stable "no buffering" reference, not
// whatever happens to sit at index 0 after a prune.
type Solution struct {
	trees    []*Tree
	baseline *Tree
}

// NewSolution returns an empty candidate set.
func NewSolution() *Solution { return &Solution{} }

// Trees returns the current candidates.
func (s *Solution) Trees() []*Tree { return s.trees }

// Baseline returns the zero-buffer reference tree.
func (s *Solution) Baseline() *Tree { return s.baseline }

// AddTree appends a candidate without re-pruning.
func (s *Solution) AddTree(t *Tree) { s.trees = append(s.trees, t) }

// setBaseline installs a private copy of t as the zero-buffer
// reference.
func (s *Solution) setBaseline(t *Tree) { s.baseline = t.clone() }

// AddWireDelayAndCapacitance charges one upstream wire segment to
// every candidate and to the baseline: walking an edge upstream
// grows the downstream load and consumes required time.
func (s *Solution) AddWireDelayAndCapacitance(delay, cap float64) {
	for _, t := range s.trees {
		t.addWire(delay, cap)
	}
	if s.baseline != nil {
		s.baseline.addWire(delay, cap)
	}
}

// Merge joins the solutions of two Steiner children at a junction:
// the cross product of the candidate sets, each pair combined into a
// Branched tree. A missing right child passes the left solution
// through unchanged (chain nodes). The reference buffer is the
// median-area cell of the working set; the lumped delay model needs
// no downstream strength estimate, timer models that do receive it
// here.
func Merge(left, right *Solution, loc netlist.Point, ref *netlist.LibraryCell) *Solution {
	_ = ref
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	merged := NewSolution()
	for _, a := range left.trees {
		for _, b := range right.trees {
			merged.AddTree(NewBranch(loc, a, b))
		}
	}
	if left.baseline != nil && right.baseline != nil {
		merged.setBaseline(NewBranch(loc, left.baseline, right.baseline))
	}
	return merged
}

// AddLeafTrees extends the candidate set with repeater insertions at
// loc: every candidate wrapped behind every library buffer, and,
// when the inverter library is non-empty, behind every
// inverter pair (the first inverts, the second restores the
// function; combined delay and area are charged).
func (s *Solution) AddLeafTrees(loc netlist.Point, bufferLib, inverterLib []*netlist.LibraryCell, timing *sta.Engine) {
	base := s.trees // wrap the pre-existing candidates only
	for _, t := range base {
		for _, c := range bufferLib {
			s.AddTree(buffered(c, t, loc, timing))
		}
		for _, first := range inverterLib {
			for _, second := range inverterLib {
				inner := buffered(second, t, loc, timing)
				s.AddTree(buffered(first, inner, loc, timing))
			}
		}
	}
}

func buffered(cell *netlist.LibraryCell, child *Tree, loc netlist.Point, timing *sta.Engine) *Tree {
	in := cell.InputPorts()
	inCap := 0.0
	if len(in) > 0 {
		inCap = in[0].Cap
	}
	req := child.required - timing.CellDelay(cell, child.cap)
	return NewBuffered(cell, inCap, req, child.cost+cell.Area, loc, child)
}

// Prune removes every candidate dominated on (capacitance ascending,
// required descending, cost ascending): a kept tree with no larger
// capacitance, no earlier required time and no larger cost, at
// least one strictly better, kills a candidate. Implemented as the
// sorted-by-capacitance sweep; surviving order is deterministic.
func (s *Solution) Prune() {
	if len(s.trees) < 2 {
		return
	}
	slices.SortStableFunc(s.trees, func(a, b *Tree) int {
		switch {
		case a.cap < b.cap:
			return -1
		case a.cap > b.cap:
			return 1
		case a.required > b.required:
			return -1
		case a.required < b.required:
			return 1
		case a.cost < b.cost:
			return -1
		case a.cost > b.cost:
			return 1
		}
		return 0
	})
	var kept []*Tree
	for _, t := range s.trees {
		dominated := false
		for _, k := range kept {
			// k.cap <= t.cap by sort order
			if k.required >= t.required && k.cost <= t.cost &&
				(k.cap < t.cap || k.required > t.required || k.cost < t.cost) {
				dominated = true
				break
			}
		}
		if !dominated {
			kept = append(kept, t)
		}
	}
	s.trees = kept
}

// OptimalDriverTree picks the candidate maximizing driver slack,
// required minus the driver gate delay under the candidate load.
// Ties break toward lower cost.
func (s *Solution) OptimalDriverTree(pin *netlist.Pin, timing *sta.Engine) (*Tree, error) {
	var best *Tree
	bestSlack := math.Inf(-1)
	for _, t := range s.trees {
		delay, err := timing.GateDelay(pin, t.cap)
		if err != nil {
			return nil, err
		}
		slack := t.required - delay
		if best == nil || slack > bestSlack || (slack == bestSlack && t.cost < best.cost) {
			best = t
			bestSlack = slack
		}
	}
	return best, nil
}

// OptimalDriverTreeResize evaluates every (driver candidate, tree)
// pair under the area penalty and tags the winning tree with its
// driver choice.
func (s *Solution) OptimalDriverTreeResize(pin *netlist.Pin, drivers []*netlist.LibraryCell, areaPenalty float64, timing *sta.Engine) (*Tree, error) {
	if len(drivers) == 0 {
		return s.OptimalDriverTree(pin, timing)
	}
	var best *Tree
	var bestDriver *netlist.LibraryCell
	bestSlack := math.Inf(-1)
	for _, t := range s.trees {
		for _, d := range drivers {
			slack := t.required - timing.CellDelay(d, t.cap) - areaPenalty*d.Area
			if best == nil || slack > bestSlack || (slack == bestSlack && t.cost < best.cost) {
				best = t
				bestDriver = d
				bestSlack = slack
			}
		}
	}
	if best != nil {
		best.setDriverCell(bestDriver)
	}
	return best, nil
}
