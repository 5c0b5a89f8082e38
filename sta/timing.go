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

package sta

import (
	"fmt"
	"math"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
)

// PathPoint is one step of a timing path, start to endpoint.
// The pin-swap engine consumes Pin, Rise and APIndex.
type PathPoint struct {
	Pin      *netlist.Pin
	Rise     bool
	Arrival  float64
	Required float64
	APIndex  int
}

// Arrival returns the arrival time at a pin for the given analysis
// point. The engine models a single analysis point with symmetric
// rise/fall, so ap and rise select nothing here, but the signature
// matches the timer contract and swaps are observable immediately:
// arrivals are recomputed from the current netlist on every call.
func (e *Engine) Arrival(pin *netlist.Pin, ap int, rise bool) (float64, error) {
	_ = ap
	_ = rise
	seen := make(map[*netlist.Pin]bool)
	return e.arrival(pin, seen)
}

func (e *Engine) arrival(pin *netlist.Pin, seen map[*netlist.Pin]bool) (float64, error) {
	if seen[pin] {
		return 0, fmt.Errorf("%w: combinational cycle at %s", ErrTimingUnavailable, pin.Name())
	}
	seen[pin] = true
	defer delete(seen, pin)

	if pin.IsTopLevel() {
		if pin.IsDriver() {
			// primary input launches at t=0
			return 0, nil
		}
		drv := driverOf(pin)
		if drv == nil {
			return 0, nil
		}
		return e.arrival(drv, seen)
	}
	if pin.IsInput() {
		drv := driverOf(pin)
		if drv == nil {
			return 0, nil
		}
		return e.arrival(drv, seen)
	}
	// instance output: worst input arrival plus its arc delay
	inst := pin.Instance()
	load := e.LoadCapacitance(pin)
	worst := 0.0
	for _, in := range inst.InputPins() {
		if in.Net() == nil {
			continue
		}
		at, err := e.arrival(in, seen)
		if err != nil {
			return 0, err
		}
		arc := e.ArcDelay(inst.Cell(), in.Port(), load)
		if t := at + arc; t > worst {
			worst = t
		}
	}
	return checked(worst)
}

// Required returns the required time at a pin, propagated backwards
// from the design endpoints, each of which is required at the
// technology clock period; per-endpoint constraints are not modelled.
func (e *Engine) Required(pin *netlist.Pin) (float64, error) {
	seen := make(map[*netlist.Pin]bool)
	return e.required(pin, seen)
}

func (e *Engine) required(pin *netlist.Pin, seen map[*netlist.Pin]bool) (float64, error) {
	if seen[pin] {
		return 0, fmt.Errorf("%w: combinational cycle at %s", ErrTimingUnavailable, pin.Name())
	}
	seen[pin] = true
	defer delete(seen, pin)

	period := e.design.Tech().ClockPeriod
	if pin.IsTopLevel() {
		if !pin.IsDriver() {
			// design endpoint
			return period, nil
		}
		// primary input: required comes from the fanout
		return e.requiredFromFanout(pin, seen)
	}
	if pin.IsOutput() {
		return e.requiredFromFanout(pin, seen)
	}
	// instance input: through the gate to its outputs
	inst := pin.Instance()
	req := math.Inf(1)
	for _, out := range inst.OutputPins() {
		if out.Net() == nil {
			continue
		}
		outReq, err := e.required(out, seen)
		if err != nil {
			return 0, err
		}
		arc := e.ArcDelay(inst.Cell(), pin.Port(), e.LoadCapacitance(out))
		req = min(req, outReq-arc)
	}
	if math.IsInf(req, 1) {
		req = period
	}
	return req, nil
}

func (e *Engine) requiredFromFanout(pin *netlist.Pin, seen map[*netlist.Pin]bool) (float64, error) {
	net := pin.Net()
	period := e.design.Tech().ClockPeriod
	if net == nil {
		return period, nil
	}
	req := math.Inf(1)
	for _, l := range net.Loads() {
		r, err := e.required(l, seen)
		if err != nil {
			return 0, err
		}
		req = min(req, r)
	}
	if math.IsInf(req, 1) {
		req = period
	}
	return req, nil
}

// Slack returns required minus arrival at a pin.
func (e *Engine) Slack(pin *netlist.Pin) (float64, error) {
	at, err := e.Arrival(pin, 0, true)
	if err != nil {
		return 0, err
	}
	req, err := e.Required(pin)
	if err != nil {
		return 0, err
	}
	return req - at, nil
}

// CriticalPath returns the worst-slack path from a path start to a
// design endpoint, in start-to-endpoint order. Returns nil when the
// design has no timed endpoint.
func (e *Engine) CriticalPath() ([]PathPoint, error) {
	var endpoint *netlist.Pin
	worst := math.Inf(1)
	for _, t := range e.design.Terminals() {
		if t.IsDriver() || t.Net() == nil {
			continue
		}
		s, err := e.Slack(t)
		if err != nil {
			return nil, err
		}
		if s < worst {
			worst = s
			endpoint = t
		}
	}
	if endpoint == nil {
		return nil, nil
	}

	// walk backwards, endpoint to start, picking at each gate the
	// input whose arrival plus arc delay determines the output
	var rev []PathPoint
	push := func(pin *netlist.Pin) error {
		pt, err := e.pathPoint(pin)
		if err != nil {
			return err
		}
		rev = append(rev, pt)
		return nil
	}
	if err := push(endpoint); err != nil {
		return nil, err
	}
	cur := driverOf(endpoint)
	for cur != nil {
		if err := push(cur); err != nil {
			return nil, err
		}
		if cur.IsTopLevel() {
			break
		}
		in, err := e.worstInput(cur)
		if err != nil {
			return nil, err
		}
		if in == nil {
			break
		}
		if err := push(in); err != nil {
			return nil, err
		}
		cur = driverOf(in)
	}
	// reverse into start-to-endpoint order
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev, nil
}

func (e *Engine) pathPoint(pin *netlist.Pin) (PathPoint, error) {
	at, err := e.Arrival(pin, 0, true)
	if err != nil {
		return PathPoint{}, err
	}
	req, err := e.Required(pin)
	if err != nil {
		return PathPoint{}, err
	}
	return PathPoint{Pin: pin, Rise: true, Arrival: at, Required: req, APIndex: 0}, nil
}

func (e *Engine) worstInput(out *netlist.Pin) (*netlist.Pin, error) {
	inst := out.Instance()
	load := e.LoadCapacitance(out)
	var worstPin *netlist.Pin
	worst := math.Inf(-1)
	for _, in := range inst.InputPins() {
		if in.Net() == nil {
			continue
		}
		at, err := e.Arrival(in, 0, true)
		if err != nil {
			return nil, err
		}
		if t := at + e.ArcDelay(inst.Cell(), in.Port(), load); t > worst {
			worst = t
			worstPin = in
		}
	}
	return worstPin, nil
}

func driverOf(pin *netlist.Pin) *netlist.Pin {
	if pin.Net() == nil {
		return nil
	}
	return pin.Net().Driver()
}
