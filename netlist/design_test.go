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

package netlist

import (
	"errors"
	"testing"
)

func testTech() Tech {
	return Tech{DBUPerMicron: 1000, WireRes: 100, WireCap: 2e-16, ClockPeriod: 1e-9}
}

func buf() *LibraryCell {
	return &LibraryCell{
		Name:     "BUFX",
		Function: "BUF",
		Area:     1,
		Ports: []PortDef{
			{Name: "A", Dir: Input, Cap: 2e-15},
			{Name: "Y", Dir: Output},
		},
		Intrinsic: map[string]float64{"A": 1e-11},
		DriveRes:  1e3,
	}
}

func and2() *LibraryCell {
	return &LibraryCell{
		Name:     "AND2X",
		Function: "AND2",
		Area:     1.5,
		Ports: []PortDef{
			{Name: "A", Dir: Input, Cap: 2e-15},
			{Name: "B", Dir: Input, Cap: 2e-15},
			{Name: "Y", Dir: Output},
		},
		Intrinsic: map[string]float64{"A": 1e-11, "B": 8e-12},
		Symmetric: [][]string{{"A", "B"}},
		DriveRes:  1e3,
	}
}

func TestCreateAndLookup(t *testing.T) {
	d := NewDesign(testTech())
	if err := d.AddCell(buf()); err != nil {
		t.Fatal(err)
	}
	if err := d.AddCell(buf()); !errors.Is(err, ErrExists) {
		t.Fatalf("got %v; wanted ErrExists", err)
	}
	if _, err := d.Cell("NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v; wanted ErrNotFound", err)
	}
	cell, err := d.Cell("BUFX")
	if err != nil {
		t.Fatal(err)
	}
	inst, err := d.CreateInstance("u0", cell)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.CreateInstance("u0", cell); !errors.Is(err, ErrExists) {
		t.Fatalf("got %v; wanted ErrExists", err)
	}
	if inst.Pin("A") == nil || inst.Pin("Y") == nil {
		t.Fatal("instance pins not materialized")
	}
	if got := inst.Pin("A").Capacitance(); got != 2e-15 {
		t.Fatalf("pin cap %g; wanted 2e-15", got)
	}
}

func TestConnectDisconnect(t *testing.T) {
	d := NewDesign(testTech())
	if err := d.AddCell(buf()); err != nil {
		t.Fatal(err)
	}
	cell, _ := d.Cell("BUFX")
	u0, _ := d.CreateInstance("u0", cell)
	u1, _ := d.CreateInstance("u1", cell)
	n, _ := d.CreateNet("n0")
	if err := d.Connect(n, u0, "Y"); err != nil {
		t.Fatal(err)
	}
	if err := d.Connect(n, u1, "A"); err != nil {
		t.Fatal(err)
	}
	if err := d.Connect(n, u1, "A"); !errors.Is(err, ErrConnected) {
		t.Fatalf("got %v; wanted ErrConnected", err)
	}
	if got := n.Driver(); got != u0.Pin("Y") {
		t.Fatalf("driver %v; wanted u0/Y", got)
	}
	if got := len(n.Loads()); got != 1 {
		t.Fatalf("%d loads; wanted 1", got)
	}
	if err := d.Disconnect(u1.Pin("A")); err != nil {
		t.Fatal(err)
	}
	if u1.Pin("A").Net() != nil {
		t.Fatal("pin still connected after disconnect")
	}
	if got := len(n.Pins()); got != 1 {
		t.Fatalf("%d pins on net; wanted 1", got)
	}
}

func TestBoundaryPinUnsupported(t *testing.T) {
	d := NewDesign(testTech())
	term, err := d.CreateTerminal("in", Input, Point{})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := d.CreateNet("n0")
	if err := d.ConnectTerminal(n, term); err != nil {
		t.Fatal(err)
	}
	if err := d.Disconnect(term); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("got %v; wanted ErrUnsupported", err)
	}
}

func TestSwapPins(t *testing.T) {
	d := NewDesign(testTech())
	if err := d.AddCell(and2()); err != nil {
		t.Fatal(err)
	}
	cell, _ := d.Cell("AND2X")
	u, _ := d.CreateInstance("u0", cell)
	na, _ := d.CreateNet("na")
	nb, _ := d.CreateNet("nb")
	if err := d.Connect(na, u, "A"); err != nil {
		t.Fatal(err)
	}
	if err := d.Connect(nb, u, "B"); err != nil {
		t.Fatal(err)
	}
	if err := d.SwapPins(u.Pin("A"), u.Pin("B")); err != nil {
		t.Fatal(err)
	}
	if u.Pin("A").Net() != nb || u.Pin("B").Net() != na {
		t.Fatal("nets not exchanged")
	}
	// net pin membership must follow
	if na.Pins()[0] != u.Pin("B") || nb.Pins()[0] != u.Pin("A") {
		t.Fatal("net membership not updated")
	}
	// swapping back restores the original binding
	if err := d.SwapPins(u.Pin("A"), u.Pin("B")); err != nil {
		t.Fatal(err)
	}
	if u.Pin("A").Net() != na || u.Pin("B").Net() != nb {
		t.Fatal("second swap did not restore")
	}
}

func TestCommutative(t *testing.T) {
	c := and2()
	if !c.Commutative("A", "B") {
		t.Fatal("A/B should be commutative")
	}
	if c.Commutative("A", "A") {
		t.Fatal("a pin is not commutative with itself")
	}
	if c.Commutative("A", "Y") {
		t.Fatal("A/Y must not be commutative")
	}
}

func TestReplaceInstance(t *testing.T) {
	d := NewDesign(testTech())
	small := buf()
	big := buf()
	big.Name = "BUFX2"
	big.Area = 2
	if err := d.AddCell(small); err != nil {
		t.Fatal(err)
	}
	if err := d.AddCell(big); err != nil {
		t.Fatal(err)
	}
	u, _ := d.CreateInstance("u0", small)
	n, _ := d.CreateNet("n0")
	if err := d.Connect(n, u, "Y"); err != nil {
		t.Fatal(err)
	}
	if err := d.ReplaceInstance(u, big); err != nil {
		t.Fatal(err)
	}
	if u.Cell() != big {
		t.Fatal("cell not replaced")
	}
	if u.Pin("Y").Net() != n {
		t.Fatal("connections lost on replace")
	}
	if got := d.Area(); got != 2 {
		t.Fatalf("area %g; wanted 2", got)
	}
}

func TestEquivalentCells(t *testing.T) {
	d := NewDesign(testTech())
	a := buf()
	b := buf()
	b.Name = "BUFX2"
	c := buf()
	c.Name = "BUFX4"
	c.DontUse = true
	other := and2()
	for _, cell := range []*LibraryCell{a, b, c, other} {
		if err := d.AddCell(cell); err != nil {
			t.Fatal(err)
		}
	}
	eq := d.EquivalentCells(a)
	if len(eq) != 2 {
		t.Fatalf("%d equivalents; wanted 2 (dont_use excluded)", len(eq))
	}
	for _, cell := range eq {
		if cell.Function != "BUF" {
			t.Fatalf("wrong function %s", cell.Function)
		}
	}
}

func TestLevelDriverPins(t *testing.T) {
	d := NewDesign(testTech())
	if err := d.AddCell(buf()); err != nil {
		t.Fatal(err)
	}
	cell, _ := d.Cell("BUFX")
	// chain: in -> u0 -> u1 -> out
	u0, _ := d.CreateInstance("u0", cell)
	u1, _ := d.CreateInstance("u1", cell)
	in, _ := d.CreateTerminal("in", Input, Point{})
	n0, _ := d.CreateNet("n0")
	n1, _ := d.CreateNet("n1")
	n2, _ := d.CreateNet("n2")
	if err := d.ConnectTerminal(n0, in); err != nil {
		t.Fatal(err)
	}
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(d.Connect(n0, u0, "A"))
	must(d.Connect(n1, u0, "Y"))
	must(d.Connect(n1, u1, "A"))
	must(d.Connect(n2, u1, "Y"))

	pins := d.LevelDriverPins()
	var names []string
	for _, p := range pins {
		names = append(names, p.Name())
	}
	want := []string{"in", "u0/Y", "u1/Y"}
	if len(names) != len(want) {
		t.Fatalf("got %v; wanted %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v; wanted %v", names, want)
		}
	}
	// identical call, identical order
	again := d.LevelDriverPins()
	for i := range pins {
		if pins[i] != again[i] {
			t.Fatal("LevelDriverPins not deterministic")
		}
	}
}

func TestClockNets(t *testing.T) {
	d := NewDesign(testTech())
	n, _ := d.CreateNet("clk")
	m, _ := d.CreateNet("data")
	d.MarkClock(n)
	clocks := d.ClockNets()
	if !clocks.Contains(n) || clocks.Contains(m) {
		t.Fatal("clock marking not reflected")
	}
}

func TestMutationObserver(t *testing.T) {
	d := NewDesign(testTech())
	if err := d.AddCell(buf()); err != nil {
		t.Fatal(err)
	}
	var ops []string
	d.OnMutate = func(op string, _ ...string) { ops = append(ops, op) }
	cell, _ := d.Cell("BUFX")
	u, _ := d.CreateInstance("u0", cell)
	n, _ := d.CreateNet("n0")
	if err := d.Connect(n, u, "Y"); err != nil {
		t.Fatal(err)
	}
	want := []string{"create_instance", "create_net", "connect"}
	if len(ops) != len(want) {
		t.Fatalf("got %v; wanted %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("got %v; wanted %v", ops, want)
		}
	}
}
