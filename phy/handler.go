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

// Package phy binds the design database, the timing engine and the
// technology constants into the single handler the transforms
// operate through.
package phy

import (
	"github.com/sirupsen/logrus"

	"github.com/rajarshiroy/OpenPhySyn/journal"
	"github.com/rajarshiroy/OpenPhySyn/netlist"
	"github.com/rajarshiroy/OpenPhySyn/sta"
)

// Handler is the mutable view over one design session. All timing
// queries delegate to the embedded engine; all mutations go through
// the design so the journal observes them.
type Handler struct {
	Design *netlist.Design
	Timing *sta.Engine
	Log    logrus.FieldLogger
}

// NewHandler builds a handler (and its timing engine) over a design.
func NewHandler(d *netlist.Design, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Design: d, Timing: sta.New(d), Log: log}
}

// AttachJournal routes every design mutation into j. Pass nil to
// detach.
func (h *Handler) AttachJournal(j *journal.Journal) {
	if j == nil {
		h.Design.OnMutate = nil
		return
	}
	h.Design.OnMutate = j.Append
}

// DbuToMeters converts a database-unit distance to meters.
func (h *Handler) DbuToMeters(dbu int64) float64 {
	return float64(dbu) / h.Design.Tech().DBUPerMicron / 1e6
}

// ResistancePerMicron returns the unit wire resistance.
func (h *Handler) ResistancePerMicron() float64 { return h.Design.Tech().WireRes }

// CapacitancePerMicron returns the unit wire capacitance.
func (h *Handler) CapacitancePerMicron() float64 { return h.Design.Tech().WireCap }

// BufferInputPort returns the input port name of a repeater cell.
func (h *Handler) BufferInputPort(cell *netlist.LibraryCell) string {
	in := cell.InputPorts()
	if len(in) == 0 {
		return ""
	}
	return in[0].Name
}

// BufferOutputPort returns the output port name of a repeater cell.
func (h *Handler) BufferOutputPort(cell *netlist.LibraryCell) string {
	out := cell.OutputPorts()
	if len(out) == 0 {
		return ""
	}
	return out[0].Name
}

// IsCommutative reports whether two pins are exchangeable input pins
// of the same instance, per the library symmetry table.
func (h *Handler) IsCommutative(a, b *netlist.Pin) bool {
	if a.IsTopLevel() || b.IsTopLevel() {
		return false
	}
	if a.Instance() != b.Instance() || !a.IsInput() || !b.IsInput() {
		return false
	}
	return a.Instance().Cell().Commutative(a.Port(), b.Port())
}

// Area returns the current design area in square microns.
func (h *Handler) Area() float64 { return h.Design.Area() }

// HasMaxArea reports whether the design carries an area budget.
func (h *Handler) HasMaxArea() bool { return h.Design.HasMaxArea() }

// MaxArea returns the area budget.
func (h *Handler) MaxArea() float64 { return h.Design.MaxArea() }
