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
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Design is the in-memory database: library cells, instances, nets
// and boundary terminals, plus the technology constants. Instances
// and nets are created and destroyed only through Design mutations so
// that every change can be observed (see OnMutate).
type Design struct {
	tech  Tech
	cells map[string]*LibraryCell
	insts map[string]*Instance
	nets  map[string]*Net
	terms map[string]*Pin

	// OnMutate, when set, observes every committed mutation.
	// The arguments are the operation name and its operand names.
	OnMutate func(op string, args ...string)
}

// NewDesign returns an empty design with the given technology.
func NewDesign(tech Tech) *Design {
	return &Design{
		tech:  tech,
		cells: make(map[string]*LibraryCell),
		insts: make(map[string]*Instance),
		nets:  make(map[string]*Net),
		terms: make(map[string]*Pin),
	}
}

func (d *Design) Tech() Tech { return d.tech }

func (d *Design) mutated(op string, args ...string) {
	if d.OnMutate != nil {
		d.OnMutate(op, args...)
	}
}

// AddCell registers a library cell. Cells are read-only afterwards.
func (d *Design) AddCell(c *LibraryCell) error {
	if _, ok := d.cells[c.Name]; ok {
		return fmt.Errorf("%w: cell %s", ErrExists, c.Name)
	}
	d.cells[c.Name] = c
	return nil
}

// Cell returns the named library cell.
func (d *Design) Cell(name string) (*LibraryCell, error) {
	c, ok := d.cells[name]
	if !ok {
		return nil, fmt.Errorf("%w: cell %s", ErrNotFound, name)
	}
	return c, nil
}

// Cells returns all library cells sorted by name.
func (d *Design) Cells() []*LibraryCell {
	names := maps.Keys(d.cells)
	slices.Sort(names)
	cells := make([]*LibraryCell, len(names))
	for i, n := range names {
		cells[i] = d.cells[n]
	}
	return cells
}

// BufferCells returns the non-inverting repeater cells sorted by name.
func (d *Design) BufferCells() []*LibraryCell {
	var out []*LibraryCell
	for _, c := range d.Cells() {
		if c.IsBuffer() {
			out = append(out, c)
		}
	}
	return out
}

// InverterCells returns the inverting repeater cells sorted by name.
func (d *Design) InverterCells() []*LibraryCell {
	var out []*LibraryCell
	for _, c := range d.Cells() {
		if c.IsInverter() {
			out = append(out, c)
		}
	}
	return out
}

// EquivalentCells returns every usable cell with the same Boolean
// function as c, including c itself, sorted by name.
func (d *Design) EquivalentCells(c *LibraryCell) []*LibraryCell {
	var out []*LibraryCell
	for _, cand := range d.Cells() {
		if cand.Function == c.Function && (cand == c || !cand.DontUse) {
			out = append(out, cand)
		}
	}
	return out
}

// Instance returns the named instance.
func (d *Design) Instance(name string) (*Instance, error) {
	i, ok := d.insts[name]
	if !ok {
		return nil, fmt.Errorf("%w: instance %s", ErrNotFound, name)
	}
	return i, nil
}

// Instances returns all instances sorted by name.
func (d *Design) Instances() []*Instance {
	names := maps.Keys(d.insts)
	slices.Sort(names)
	insts := make([]*Instance, len(names))
	for i, n := range names {
		insts[i] = d.insts[n]
	}
	return insts
}

// Net returns the named net.
func (d *Design) Net(name string) (*Net, error) {
	n, ok := d.nets[name]
	if !ok {
		return nil, fmt.Errorf("%w: net %s", ErrNotFound, name)
	}
	return n, nil
}

// Nets returns all nets sorted by name.
func (d *Design) Nets() []*Net {
	names := maps.Keys(d.nets)
	slices.Sort(names)
	nets := make([]*Net, len(names))
	for i, n := range names {
		nets[i] = d.nets[n]
	}
	return nets
}

// Terminal returns the named top-level terminal pin.
func (d *Design) Terminal(name string) (*Pin, error) {
	t, ok := d.terms[name]
	if !ok {
		return nil, fmt.Errorf("%w: terminal %s", ErrNotFound, name)
	}
	return t, nil
}

// Terminals returns all boundary pins sorted by name.
func (d *Design) Terminals() []*Pin {
	names := maps.Keys(d.terms)
	slices.Sort(names)
	terms := make([]*Pin, len(names))
	for i, n := range names {
		terms[i] = d.terms[n]
	}
	return terms
}

// CreateInstance creates a placed-at-origin instance of cell.
func (d *Design) CreateInstance(name string, cell *LibraryCell) (*Instance, error) {
	if _, ok := d.insts[name]; ok {
		return nil, fmt.Errorf("%w: instance %s", ErrExists, name)
	}
	inst := &Instance{
		name: name,
		cell: cell,
		pins: make(map[string]*Pin, len(cell.Ports)),
	}
	for _, pd := range cell.Ports {
		inst.pins[pd.Name] = &Pin{inst: inst, port: pd.Name, dir: pd.Dir}
	}
	d.insts[name] = inst
	d.mutated("create_instance", name, cell.Name)
	return inst, nil
}

// CreateNet creates an empty net.
func (d *Design) CreateNet(name string) (*Net, error) {
	if _, ok := d.nets[name]; ok {
		return nil, fmt.Errorf("%w: net %s", ErrExists, name)
	}
	n := &Net{name: name}
	d.nets[name] = n
	d.mutated("create_net", name)
	return n, nil
}

// CreateTerminal creates a top-level boundary pin. dir is the
// direction seen from outside: an Input terminal drives into the
// design, an Output terminal is a design endpoint.
func (d *Design) CreateTerminal(name string, dir Direction, loc Point) (*Pin, error) {
	if _, ok := d.terms[name]; ok {
		return nil, fmt.Errorf("%w: terminal %s", ErrExists, name)
	}
	t := &Pin{port: name, dir: dir, loc: loc}
	d.terms[name] = t
	return t, nil
}

// MarkClock flags a net as a clock net; the violation driver
// never buffers clock nets.
func (d *Design) MarkClock(n *Net) { n.clock = true }

// ClockNets returns the set of nets marked as clocks.
func (d *Design) ClockNets() mapset.Set[*Net] {
	s := mapset.NewThreadUnsafeSet[*Net]()
	for _, n := range d.nets {
		if n.clock {
			s.Add(n)
		}
	}
	return s
}

// Connect binds the named port of inst to net.
func (d *Design) Connect(net *Net, inst *Instance, port string) error {
	pin := inst.Pin(port)
	if pin == nil {
		return fmt.Errorf("%w: port %s on %s", ErrNotFound, port, inst.name)
	}
	if pin.net != nil {
		return fmt.Errorf("%w: %s", ErrConnected, pin.Name())
	}
	pin.net = net
	net.pins = append(net.pins, pin)
	d.mutated("connect", net.name, pin.Name())
	return nil
}

// ConnectTerminal binds a boundary pin to net. Terminals are bound
// once at design construction; rebinding them afterwards is the
// boundary mutation the transforms must refuse (ErrUnsupported from
// Disconnect).
func (d *Design) ConnectTerminal(net *Net, term *Pin) error {
	if !term.IsTopLevel() {
		return fmt.Errorf("netlist: %s is not a terminal", term.Name())
	}
	if term.net != nil {
		return fmt.Errorf("%w: %s", ErrConnected, term.Name())
	}
	term.net = net
	net.pins = append(net.pins, term)
	d.mutated("connect_term", net.name, term.Name())
	return nil
}

// Disconnect unbinds an instance pin from its net.
// Boundary pins may not be rewired.
func (d *Design) Disconnect(pin *Pin) error {
	if pin.IsTopLevel() {
		return fmt.Errorf("%w: %s", ErrUnsupported, pin.Name())
	}
	if pin.net == nil {
		return nil
	}
	net := pin.net
	idx := slices.Index(net.pins, pin)
	net.pins = slices.Delete(net.pins, idx, idx+1)
	pin.net = nil
	d.mutated("disconnect", net.name, pin.Name())
	return nil
}

// SetLocation places an instance.
func (d *Design) SetLocation(inst *Instance, loc Point) {
	inst.loc = loc
	d.mutated("place", inst.name, fmt.Sprintf("%d,%d", loc.X, loc.Y))
}

// ReplaceInstance swaps the library cell of an instance for a
// port-compatible equivalent, keeping every connection.
func (d *Design) ReplaceInstance(inst *Instance, cell *LibraryCell) error {
	for _, pd := range inst.cell.Ports {
		np := cell.Port(pd.Name)
		if np == nil || np.Dir != pd.Dir {
			return fmt.Errorf("%w: port %s missing on %s", ErrNotFound, pd.Name, cell.Name)
		}
	}
	inst.cell = cell
	d.mutated("replace", inst.name, cell.Name)
	return nil
}

// SwapPins exchanges the nets bound to two input pins of the same
// instance. The caller is responsible for checking commutativity.
func (d *Design) SwapPins(a, b *Pin) error {
	if a.IsTopLevel() || b.IsTopLevel() {
		return fmt.Errorf("%w: %s <-> %s", ErrUnsupported, a.Name(), b.Name())
	}
	if a.inst != b.inst {
		return fmt.Errorf("netlist: %s and %s on different instances", a.Name(), b.Name())
	}
	na, nb := a.net, b.net
	if na != nil {
		i := slices.Index(na.pins, a)
		na.pins[i] = b
	}
	if nb != nil {
		i := slices.Index(nb.pins, b)
		nb.pins[i] = a
	}
	a.net, b.net = nb, na
	d.mutated("swap_pins", a.Name(), b.Name())
	return nil
}

// Area returns the summed cell area of all instances, in square microns.
func (d *Design) Area() float64 {
	area := 0.0
	for _, inst := range d.insts {
		area += inst.cell.Area
	}
	return area
}

// HasMaxArea reports whether the design kit carries an area budget.
func (d *Design) HasMaxArea() bool { return d.tech.MaxArea > 0 }

// MaxArea returns the area budget in square microns.
func (d *Design) MaxArea() float64 { return d.tech.MaxArea }

// levels computes the topological level of every instance: an
// instance fed only by boundary terminals is level 0, otherwise one
// more than its deepest driving instance. The netlist is assumed
// combinationally acyclic; a cycle would pin its members at the
// level where the walk first closed on itself.
func (d *Design) levels() map[*Instance]int {
	memo := make(map[*Instance]int, len(d.insts))
	var walk func(inst *Instance) int
	walk = func(inst *Instance) int {
		if lvl, ok := memo[inst]; ok {
			return lvl
		}
		memo[inst] = 0 // cycle guard
		lvl := 0
		for _, in := range inst.InputPins() {
			if in.net == nil {
				continue
			}
			drv := in.net.Driver()
			if drv == nil || drv.inst == nil {
				continue
			}
			if l := walk(drv.inst) + 1; l > lvl {
				lvl = l
			}
		}
		memo[inst] = lvl
		return lvl
	}
	for _, inst := range d.insts {
		walk(inst)
	}
	return memo
}

// LevelDriverPins returns every driver pin in deterministic
// topological order: boundary input terminals first, then instance
// output pins by ascending level, name-ordered within a level.
func (d *Design) LevelDriverPins() []*Pin {
	var pins []*Pin
	for _, t := range d.Terminals() {
		if t.IsDriver() && t.net != nil {
			pins = append(pins, t)
		}
	}
	lvls := d.levels()
	insts := d.Instances()
	slices.SortStableFunc(insts, func(a, b *Instance) int {
		if c := lvls[a] - lvls[b]; c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	for _, inst := range insts {
		for _, out := range inst.OutputPins() {
			if out.net != nil {
				pins = append(pins, out)
			}
		}
	}
	return pins
}
