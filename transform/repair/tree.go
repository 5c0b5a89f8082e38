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

// Package repair implements the timing-driven repair transforms:
// Van Ginneken buffer insertion with optional driver resizing
// (timing_buffer) and the basic capacitance/slew repair pass
// (buffer_resize).
package repair

import (
	"fmt"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
)

// Kind classifies a candidate tree node.
type Kind uint8

const (
	// Unbuffered is a bare load leaf.
	Unbuffered Kind = iota
	// Buffered wraps one child behind an inserted repeater.
	Buffered
	// Branched joins two children at a Steiner junction.
	Branched
)

func (k Kind) String() string {
	switch k {
	case Unbuffered:
		return "unbuffered"
	case Buffered:
		return "buffered"
	default:
		return "branched"
	}
}

// Tree is one candidate repeater arrangement rooted at a Steiner
// point. Trees are transient per driver pin; children are shared
// between the candidates that wrap them and are only read again
// during top-down realization.
type Tree struct {
	kind Kind

	// downstream capacitive load seen at this node
	cap float64
	// earliest downstream required time at this node
	required float64
	// total inserted repeater area below this node
	cost float64

	// contribution of the wire segment directly upstream
	wireDelay float64
	wireCap   float64

	location netlist.Point
	pin      *netlist.Pin // bound load pin, Unbuffered only

	buffer *netlist.LibraryCell // inserted repeater, Buffered only
	driver *netlist.LibraryCell // committed driver sizing choice, set on the chosen root

	left  *Tree
	right *Tree
}

// NewLeaf builds the unbuffered candidate for a load pin.
func NewLeaf(cap, required float64, loc netlist.Point, pin *netlist.Pin) *Tree {
	return &Tree{kind: Unbuffered, cap: cap, required: required, location: loc, pin: pin}
}

// NewBuffered wraps child behind a repeater placed at loc.
func NewBuffered(cell *netlist.LibraryCell, cap, required, cost float64, loc netlist.Point, child *Tree) *Tree {
	return &Tree{
		kind:     Buffered,
		cap:      cap,
		required: required,
		cost:     cost,
		location: loc,
		buffer:   cell,
		left:     child,
	}
}

// NewBranch joins two children at a Steiner junction: capacitances
// add, the earlier required time wins, costs add.
func NewBranch(loc netlist.Point, left, right *Tree) *Tree {
	return &Tree{
		kind:     Branched,
		cap:      left.cap + right.cap,
		required: min(left.required, right.required),
		cost:     left.cost + right.cost,
		location: loc,
		left:     left,
		right:    right,
	}
}

func (t *Tree) IsUnbuffered() bool { return t.kind == Unbuffered }
func (t *Tree) IsBuffered() bool   { return t.kind == Buffered }
func (t *Tree) IsBranched() bool   { return t.kind == Branched }

// TotalCapacitance returns the downstream load seen at this node.
func (t *Tree) TotalCapacitance() float64 { return t.cap }

// TotalRequired returns the required time at this node.
func (t *Tree) TotalRequired() float64 { return t.required }

// Cost returns the inserted repeater area below this node.
func (t *Tree) Cost() float64 { return t.cost }

func (t *Tree) Location() netlist.Point { return t.location }
func (t *Tree) Pin() *netlist.Pin       { return t.pin }
func (t *Tree) Left() *Tree             { return t.left }
func (t *Tree) Right() *Tree            { return t.right }

// BufferCell returns the repeater of a Buffered node.
func (t *Tree) BufferCell() *netlist.LibraryCell { return t.buffer }

// HasDriverCell reports whether a driver sizing choice was tagged.
func (t *Tree) HasDriverCell() bool { return t.driver != nil }

// DriverCell returns the tagged driver sizing choice.
func (t *Tree) DriverCell() *netlist.LibraryCell { return t.driver }

func (t *Tree) setDriverCell(c *netlist.LibraryCell) { t.driver = c }

// addWire charges one upstream wire segment to the node: the
// downstream load grows by the wire capacitance and the wire delay
// consumes required time.
func (t *Tree) addWire(delay, cap float64) {
	t.required -= delay
	t.cap += cap
	t.wireDelay += delay
	t.wireCap += cap
}

// clone copies the top-level scalars; children are shared.
func (t *Tree) clone() *Tree {
	c := *t
	return &c
}

func (t *Tree) String() string {
	return fmt.Sprintf("%s{cap=%.3g req=%.3g cost=%.3g}", t.kind, t.cap, t.required, t.cost)
}
