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

import "fmt"

// Point is a placed location in database units.
type Point struct {
	X, Y int64
}

// Dist returns the rectilinear distance between two points
// in database units.
func (p Point) Dist(q Point) int64 {
	dx := p.X - q.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - q.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Instance is an occurrence of a LibraryCell in the design.
type Instance struct {
	name string
	cell *LibraryCell
	loc  Point
	pins map[string]*Pin
}

func (i *Instance) Name() string       { return i.name }
func (i *Instance) Cell() *LibraryCell { return i.cell }
func (i *Instance) Location() Point    { return i.loc }

// Pin returns the instance term bound to the named port, or nil.
func (i *Instance) Pin(port string) *Pin { return i.pins[port] }

// InputPins returns the input pins in port declaration order.
func (i *Instance) InputPins() []*Pin {
	var pins []*Pin
	for _, pd := range i.cell.Ports {
		if pd.Dir == Input {
			pins = append(pins, i.pins[pd.Name])
		}
	}
	return pins
}

// OutputPins returns the output pins in port declaration order.
func (i *Instance) OutputPins() []*Pin {
	var pins []*Pin
	for _, pd := range i.cell.Ports {
		if pd.Dir == Output {
			pins = append(pins, i.pins[pd.Name])
		}
	}
	return pins
}

// Pin is an instance term (or a top-level terminal when inst is nil)
// bound to at most one net.
type Pin struct {
	inst *Instance // nil for top-level terminals
	port string    // library port name, or terminal name
	dir  Direction // direction as seen from the cell (or from outside for terminals)
	loc  Point     // only used for top-level terminals
	net  *Net
}

func (p *Pin) Instance() *Instance { return p.inst }
func (p *Pin) Port() string        { return p.port }
func (p *Pin) Net() *Net           { return p.net }

// IsTopLevel reports whether the pin is a boundary terminal of the
// design rather than an instance term.
func (p *Pin) IsTopLevel() bool { return p.inst == nil }

func (p *Pin) IsInput() bool  { return p.dir == Input }
func (p *Pin) IsOutput() bool { return p.dir == Output }

// IsDriver reports whether the pin sources its net: an instance
// output, or a top-level input terminal (which drives into the design).
func (p *Pin) IsDriver() bool {
	if p.inst == nil {
		return p.dir == Input
	}
	return p.dir == Output
}

// IsLoad is the complement of IsDriver for connected pins.
func (p *Pin) IsLoad() bool { return !p.IsDriver() }

// Capacitance returns the pin capacitance from the library cell.
// Top-level terminals have no library cap and report zero.
func (p *Pin) Capacitance() float64 {
	if p.inst == nil {
		return 0
	}
	return p.inst.cell.PortCap(p.port)
}

// Location returns the placed location of the pin: the owning
// instance location, or the terminal location for boundary pins.
func (p *Pin) Location() Point {
	if p.inst == nil {
		return p.loc
	}
	return p.inst.loc
}

// Name returns "inst/port" for instance terms and the bare terminal
// name for boundary pins.
func (p *Pin) Name() string {
	if p.inst == nil {
		return p.port
	}
	return fmt.Sprintf("%s/%s", p.inst.name, p.port)
}

// Net is an equipotential connection of one driver pin and its loads.
type Net struct {
	name    string
	pins    []*Pin
	wireCap float64 // lumped wire capacitance in farads, from parasitics
	clock   bool
}

func (n *Net) Name() string { return n.name }

// Pins returns the connected pins in connection order.
func (n *Net) Pins() []*Pin { return n.pins }

// Driver returns the pin sourcing the net, or nil for an undriven net.
func (n *Net) Driver() *Pin {
	for _, p := range n.pins {
		if p.IsDriver() {
			return p
		}
	}
	return nil
}

// Loads returns the non-driving pins in connection order.
func (n *Net) Loads() []*Pin {
	var loads []*Pin
	for _, p := range n.pins {
		if p.IsLoad() {
			loads = append(loads, p)
		}
	}
	return loads
}

// WireCap returns the lumped wire capacitance from the last
// parasitic extraction, in farads.
func (n *Net) WireCap() float64 { return n.wireCap }

// SetWireCap stores the extracted lumped wire capacitance.
func (n *Net) SetWireCap(c float64) { n.wireCap = c }

// IsClock reports whether the net was marked as a clock net.
func (n *Net) IsClock() bool { return n.clock }

// Tech carries the technology constants of the design kit.
type Tech struct {
	// DBUPerMicron scales database units to microns.
	DBUPerMicron float64
	// WireRes is the unit wire resistance in ohms per micron.
	WireRes float64
	// WireCap is the unit wire capacitance in farads per micron.
	WireCap float64
	// MaxArea is the area budget in square microns; zero means no budget.
	MaxArea float64
	// ClockPeriod is the default endpoint constraint in seconds.
	ClockPeriod float64
}
