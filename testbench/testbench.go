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

// Package testbench provides the shared in-memory design fixtures
// used by tests across the repository. Helpers panic on malformed
// fixtures; they only ever run under the test binaries.
package testbench

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
)

// Logger returns a silenced logger for tests.
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fF and ps keep the fixture numbers readable.
const (
	fF = 1e-15
	ps = 1e-12
)

// Tech returns the fixture technology: 1000 dbu per micron and unit
// wire parasitics small enough not to swamp the gate arithmetic.
func Tech() netlist.Tech {
	return netlist.Tech{
		DBUPerMicron: 1000,
		WireRes:      1.0e2,  // ohms per micron of meters-scaled length
		WireCap:      0.2 * fF,
		ClockPeriod:  1000 * ps,
	}
}

// Cells returns a fresh fixture library:
//
//	BUF1/BUF2/BUF4  buffer drive family
//	INV1/INV2       inverter drive family
//	DRV1/DRV2       driver drive family (equivalent function)
//	AND2            symmetric 2-input gate, A slower than B
//	AND2R           symmetric 2-input gate, B slower than A
//	LD4             4.5 fF sink
func Cells() []*netlist.LibraryCell {
	inOut := func(cap float64) []netlist.PortDef {
		return []netlist.PortDef{
			{Name: "A", Dir: netlist.Input, Cap: cap},
			{Name: "Y", Dir: netlist.Output},
		}
	}
	return []*netlist.LibraryCell{
		{
			Name: "BUF1", Function: "BUF", Area: 1.0,
			Ports: inOut(2 * fF), DriveRes: 1.0e3,
			Intrinsic: map[string]float64{"A": 10 * ps},
			MaxCap:    20 * fF, MaxSlew: 100 * ps,
		},
		{
			Name: "BUF2", Function: "BUF", Area: 2.0,
			Ports: inOut(3 * fF), DriveRes: 5.0e2,
			Intrinsic: map[string]float64{"A": 8 * ps},
			MaxCap:    40 * fF, MaxSlew: 100 * ps,
		},
		{
			Name: "BUF4", Function: "BUF", Area: 4.0,
			Ports: inOut(4 * fF), DriveRes: 2.5e2,
			Intrinsic: map[string]float64{"A": 6 * ps},
			MaxCap:    80 * fF, MaxSlew: 100 * ps,
		},
		{
			Name: "INV1", Function: "INV", Area: 0.6,
			Ports: inOut(1.5 * fF), DriveRes: 1.2e3,
			Intrinsic: map[string]float64{"A": 6 * ps},
			MaxCap:    15 * fF, MaxSlew: 100 * ps,
		},
		{
			Name: "INV2", Function: "INV", Area: 1.2,
			Ports: inOut(2 * fF), DriveRes: 6.0e2,
			Intrinsic: map[string]float64{"A": 5 * ps},
			MaxCap:    30 * fF, MaxSlew: 100 * ps,
		},
		{
			Name: "DRV1", Function: "DRV", Area: 1.0,
			Ports: inOut(2 * fF), DriveRes: 2.0e3,
			Intrinsic: map[string]float64{"A": 10 * ps},
			MaxCap:    10 * fF, MaxSlew: 100 * ps,
		},
		{
			Name: "DRV2", Function: "DRV", Area: 2.0,
			Ports: inOut(3 * fF), DriveRes: 1.0e3,
			Intrinsic: map[string]float64{"A": 9 * ps},
			MaxCap:    20 * fF, MaxSlew: 100 * ps,
		},
		{
			Name: "AND2", Function: "AND2", Area: 1.5,
			Ports: []netlist.PortDef{
				{Name: "A", Dir: netlist.Input, Cap: 2 * fF},
				{Name: "B", Dir: netlist.Input, Cap: 2 * fF},
				{Name: "Y", Dir: netlist.Output},
			},
			DriveRes:  1.0e3,
			Intrinsic: map[string]float64{"A": 12 * ps, "B": 8 * ps},
			Symmetric: [][]string{{"A", "B"}},
			MaxCap:    20 * fF, MaxSlew: 100 * ps,
		},
		{
			Name: "AND2R", Function: "AND2R", Area: 1.5,
			Ports: []netlist.PortDef{
				{Name: "A", Dir: netlist.Input, Cap: 2 * fF},
				{Name: "B", Dir: netlist.Input, Cap: 2 * fF},
				{Name: "Y", Dir: netlist.Output},
			},
			DriveRes:  1.0e3,
			Intrinsic: map[string]float64{"A": 8 * ps, "B": 12 * ps},
			Symmetric: [][]string{{"A", "B"}},
			MaxCap:    20 * fF, MaxSlew: 100 * ps,
		},
		{
			Name: "LD4", Function: "LD", Area: 1.0,
			Ports:    []netlist.PortDef{{Name: "A", Dir: netlist.Input, Cap: 4.5 * fF}},
			DriveRes: 1.0e3,
		},
	}
}

// Bench wraps a design under construction.
type Bench struct {
	Design *netlist.Design
}

// New builds an empty bench with the fixture library and technology.
func New() *Bench {
	return NewWithTech(Tech())
}

// NewWithTech builds an empty bench with an explicit technology.
func NewWithTech(tech netlist.Tech) *Bench {
	d := netlist.NewDesign(tech)
	for _, c := range Cells() {
		if err := d.AddCell(c); err != nil {
			panic(err)
		}
	}
	return &Bench{Design: d}
}

// Instance creates and places an instance of the named cell.
func (b *Bench) Instance(name, cell string, x, y int64) *netlist.Instance {
	c, err := b.Design.Cell(cell)
	if err != nil {
		panic(err)
	}
	inst, err := b.Design.CreateInstance(name, c)
	if err != nil {
		panic(err)
	}
	b.Design.SetLocation(inst, netlist.Point{X: x, Y: y})
	return inst
}

// Terminal creates a boundary pin.
func (b *Bench) Terminal(name string, dir netlist.Direction, x, y int64) *netlist.Pin {
	t, err := b.Design.CreateTerminal(name, dir, netlist.Point{X: x, Y: y})
	if err != nil {
		panic(err)
	}
	return t
}

// Wire creates a net and connects the referenced pins: "inst/port"
// for instance terms, a bare name for terminals.
func (b *Bench) Wire(netName string, refs ...string) *netlist.Net {
	net, err := b.Design.CreateNet(netName)
	if err != nil {
		panic(err)
	}
	for _, ref := range refs {
		if inst, port, ok := strings.Cut(ref, "/"); ok {
			target, err := b.Design.Instance(inst)
			if err != nil {
				panic(err)
			}
			if err := b.Design.Connect(net, target, port); err != nil {
				panic(err)
			}
			continue
		}
		term, err := b.Design.Terminal(ref)
		if err != nil {
			panic(err)
		}
		if err := b.Design.ConnectTerminal(net, term); err != nil {
			panic(err)
		}
	}
	return net
}

// Fanout builds the standard high-fanout fixture: a DRV1 instance
// driving n LD4 sinks spread across placements, fed from a boundary
// input. Returns the bench and the driver output pin.
func Fanout(n int) (*Bench, *netlist.Pin) {
	b := New()
	b.Terminal("in", netlist.Input, 0, 0)
	drv := b.Instance("u_drv", "DRV1", 0, 0)
	b.Wire("n_in", "in", "u_drv/A")
	refs := []string{"u_drv/Y"}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("u_ld%d", i)
		b.Instance(name, "LD4", int64(2000*(i+1)), int64(1000*(i%2)))
		refs = append(refs, name+"/A")
	}
	b.Wire("n_out", refs...)
	return b, drv.Pin("Y")
}
