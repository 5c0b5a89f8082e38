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

// Package steiner builds rooted binary rectilinear Steiner trees for
// nets: the root sits at the driver pin, every load pin gets a leaf,
// and internal junctions branch the wire with at most two children.
package steiner

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
)

// ErrTopology indicates the net cannot form a tree (no driver, or
// fewer than two connected pins). Callers log and skip the net.
var ErrTopology = errors.New("steiner: tree construction failed")

// NodeID indexes a node inside one Tree.
type NodeID int

// Null is the sentinel "no node". Chain nodes carry Null in their
// right slot; walking Null yields no solution.
const Null NodeID = -1

type node struct {
	loc         netlist.Point
	pin         *netlist.Pin // nil for junctions
	left, right NodeID
}

// Tree is a rooted binary Steiner tree over one net. Trees are
// transient: built per driver pin and discarded once the buffering
// decision for that pin is committed.
type Tree struct {
	net    *netlist.Net
	nodes  []node
	driver NodeID
	top    NodeID
}

// Build constructs the Steiner tree of a net. The topology is a
// deterministic recursive bisection: loads are ordered by location,
// split across the wider span of their bounding box, and each split
// point becomes a junction at the box center.
func Build(net *netlist.Net) (*Tree, error) {
	drv := net.Driver()
	if drv == nil {
		return nil, fmt.Errorf("%w: net %s has no driver", ErrTopology, net.Name())
	}
	loads := net.Loads()
	if len(loads) == 0 {
		return nil, fmt.Errorf("%w: net %s has no loads", ErrTopology, net.Name())
	}
	loads = slices.Clone(loads)
	slices.SortFunc(loads, func(a, b *netlist.Pin) int {
		al, bl := a.Location(), b.Location()
		if al.X != bl.X {
			return int(al.X - bl.X)
		}
		if al.Y != bl.Y {
			return int(al.Y - bl.Y)
		}
		return strings.Compare(a.Name(), b.Name())
	})

	t := &Tree{net: net}
	sub := t.build(loads)
	t.driver = t.add(node{loc: drv.Location(), pin: drv, left: sub, right: Null})
	t.top = sub
	return t, nil
}

func (t *Tree) add(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) build(loads []*netlist.Pin) NodeID {
	if len(loads) == 1 {
		return t.add(node{loc: loads[0].Location(), pin: loads[0], left: Null, right: Null})
	}
	minX, maxX := loads[0].Location().X, loads[0].Location().X
	minY, maxY := loads[0].Location().Y, loads[0].Location().Y
	for _, l := range loads[1:] {
		loc := l.Location()
		minX = min(minX, loc.X)
		maxX = max(maxX, loc.X)
		minY = min(minY, loc.Y)
		maxY = max(maxY, loc.Y)
	}
	// split across the wider span so junction wire stays short
	ordered := slices.Clone(loads)
	if maxX-minX >= maxY-minY {
		slices.SortStableFunc(ordered, func(a, b *netlist.Pin) int {
			return int(a.Location().X - b.Location().X)
		})
	} else {
		slices.SortStableFunc(ordered, func(a, b *netlist.Pin) int {
			return int(a.Location().Y - b.Location().Y)
		})
	}
	mid := len(ordered) / 2
	left := t.build(ordered[:mid])
	right := t.build(ordered[mid:])
	loc := netlist.Point{X: (minX + maxX) / 2, Y: (minY + maxY) / 2}
	return t.add(node{loc: loc, left: left, right: right})
}

// Net returns the net the tree was built for.
func (t *Tree) Net() *netlist.Net { return t.net }

// DriverPoint returns the root node at the driver pin.
func (t *Tree) DriverPoint() NodeID { return t.driver }

// Top returns the first node below the driver.
func (t *Tree) Top() NodeID { return t.top }

// Left returns the left child, or Null.
func (t *Tree) Left(id NodeID) NodeID { return t.nodes[id].left }

// Right returns the right child, or Null.
func (t *Tree) Right(id NodeID) NodeID { return t.nodes[id].right }

// Pin returns the pin bound to a node: the driver at the root, a
// load at each leaf, nil at junctions.
func (t *Tree) Pin(id NodeID) *netlist.Pin { return t.nodes[id].pin }

// Location returns the placed location of a node in database units.
func (t *Tree) Location(id NodeID) netlist.Point { return t.nodes[id].loc }

// Distance returns the rectilinear distance between two nodes in
// database units.
func (t *Tree) Distance(a, b NodeID) int64 {
	return t.nodes[a].loc.Dist(t.nodes[b].loc)
}

// Leaves returns the load pins reachable in the tree, in tree order.
func (t *Tree) Leaves() []*netlist.Pin {
	var out []*netlist.Pin
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if id == Null {
			return
		}
		if p := t.nodes[id].pin; p != nil && p.IsLoad() {
			out = append(out, p)
		}
		walk(t.nodes[id].left)
		walk(t.nodes[id].right)
	}
	walk(t.driver)
	return out
}
