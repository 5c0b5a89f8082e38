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

// Package sta is the static-timing collaborator of the optimizer: a
// linear-delay engine answering arrival, required, slack, electrical
// violation and parasitic queries over a netlist.Design.
//
// The model is deliberately simple (lumped wire capacitance, per-arc
// linear delay, one analysis point) but the query surface matches
// what the transforms need, so a production timer can be substituted
// behind the same methods.
package sta

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
)

// ErrTimingUnavailable indicates a query that produced a negative or
// NaN timing quantity, or was asked of a pin the engine cannot time.
var ErrTimingUnavailable = errors.New("sta: timing unavailable")

const delayCacheSize = 8192

// Engine answers timing queries for one design.
type Engine struct {
	design *netlist.Design
	delays *lru.Cache[delayKey, float64]
}

type delayKey struct {
	pin  *netlist.Pin
	load uint64 // math.Float64bits of the load capacitance
}

// New creates an engine over the design.
func New(d *netlist.Design) *Engine {
	cache, _ := lru.New[delayKey, float64](delayCacheSize)
	return &Engine{design: d, delays: cache}
}

// ResetDelays drops every memoized gate delay. The violation driver
// calls this between passes so that delays reflect the buffers
// inserted by the previous pass.
func (e *Engine) ResetDelays() {
	e.delays.Purge()
}

func checked(v float64) (float64, error) {
	if math.IsNaN(v) || v < 0 {
		return 0, fmt.Errorf("%w: value %v", ErrTimingUnavailable, v)
	}
	return v, nil
}

// CellDelay evaluates the linear delay model of a library cell for
// the given load, using the worst input arc. Used for candidate
// repeaters that have no instance yet.
func (e *Engine) CellDelay(cell *netlist.LibraryCell, load float64) float64 {
	worst := 0.0
	for _, pd := range cell.InputPorts() {
		if d := cell.Intrinsic[pd.Name]; d > worst {
			worst = d
		}
	}
	return worst + cell.DriveRes*load
}

// ArcDelay evaluates one input-to-output arc of a cell.
func (e *Engine) ArcDelay(cell *netlist.LibraryCell, input string, load float64) float64 {
	return cell.Intrinsic[input] + cell.DriveRes*load
}

// GateDelay returns the worst-arc delay through the gate driving pin
// for an explicit load capacitance. Results are memoized per
// (pin, load) until ResetDelays.
func (e *Engine) GateDelay(pin *netlist.Pin, load float64) (float64, error) {
	if pin.IsTopLevel() {
		return 0, fmt.Errorf("%w: top-level pin %s", ErrTimingUnavailable, pin.Name())
	}
	key := delayKey{pin: pin, load: math.Float64bits(load)}
	if d, ok := e.delays.Get(key); ok {
		return d, nil
	}
	cell := pin.Instance().Cell()
	d, err := checked(e.CellDelay(cell, load))
	if err != nil {
		return 0, err
	}
	e.delays.Add(key, d)
	return d, nil
}

// PinCapacitance returns the library pin capacitance.
func (e *Engine) PinCapacitance(pin *netlist.Pin) float64 {
	return pin.Capacitance()
}

// LoadCapacitance returns the total capacitance seen by a driver
// pin: the pin caps of every load plus the extracted wire cap.
func (e *Engine) LoadCapacitance(pin *netlist.Pin) float64 {
	net := pin.Net()
	if net == nil {
		return 0
	}
	cap := net.WireCap()
	for _, l := range net.Loads() {
		cap += l.Capacitance()
	}
	return cap
}

// Slew returns the output transition estimate at a driver pin.
func (e *Engine) Slew(pin *netlist.Pin) float64 {
	if pin.IsTopLevel() || !pin.IsDriver() {
		return 0
	}
	return pin.Instance().Cell().DriveRes * e.LoadCapacitance(pin)
}

// ViolatesMaxCapacitance reports whether a driver pin sees more load
// than its library cell allows. Load pins never report a violation
// themselves; callers scan all pins of a net, as the violation
// driver does.
func (e *Engine) ViolatesMaxCapacitance(pin *netlist.Pin) bool {
	if pin.IsTopLevel() || !pin.IsDriver() {
		return false
	}
	limit := pin.Instance().Cell().MaxCap
	return limit > 0 && e.LoadCapacitance(pin) > limit
}

// ViolatesMaxTransition reports whether the transition at a driver
// pin exceeds the cell limit.
func (e *Engine) ViolatesMaxTransition(pin *netlist.Pin) bool {
	if pin.IsTopLevel() || !pin.IsDriver() {
		return false
	}
	limit := pin.Instance().Cell().MaxSlew
	return limit > 0 && e.Slew(pin) > limit
}

// CalculateParasitics re-extracts the lumped wire capacitance of a
// net as the half-perimeter of its pin bounding box times the unit
// wire capacitance.
func (e *Engine) CalculateParasitics(net *netlist.Net) {
	pins := net.Pins()
	if len(pins) < 2 {
		net.SetWireCap(0)
		return
	}
	first := pins[0].Location()
	minX, maxX := first.X, first.X
	minY, maxY := first.Y, first.Y
	for _, p := range pins[1:] {
		loc := p.Location()
		minX = min(minX, loc.X)
		maxX = max(maxX, loc.X)
		minY = min(minY, loc.Y)
		maxY = max(maxY, loc.Y)
	}
	tech := e.design.Tech()
	hpwl := float64((maxX-minX)+(maxY-minY)) / tech.DBUPerMicron
	net.SetWireCap(hpwl * tech.WireCap)
}
