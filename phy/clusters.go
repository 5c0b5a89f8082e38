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

package phy

import (
	"math"

	"golang.org/x/exp/slices"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
)

// BufferClusters partitions the usable repeater cells into size
// classes and returns a working set of buffers (and, when
// useInverting is set, inverters).
//
// threshold maps granularity to class count: 1/threshold classes
// over the area range (threshold 1 is a single class, 0 keeps every
// cell as its own class). minimize keeps only the median
// representative of each class; otherwise each class also
// contributes its extremes, so the set still spans the size range
// densely.
func (h *Handler) BufferClusters(threshold float64, minimize, useInverting bool) ([]*netlist.LibraryCell, []*netlist.LibraryCell) {
	buffers := cluster(usable(h.Design.BufferCells()), threshold, minimize)
	var inverters []*netlist.LibraryCell
	if useInverting {
		inverters = cluster(usable(h.Design.InverterCells()), threshold, minimize)
	}
	return buffers, inverters
}

func usable(cells []*netlist.LibraryCell) []*netlist.LibraryCell {
	var out []*netlist.LibraryCell
	for _, c := range cells {
		if !c.DontUse {
			out = append(out, c)
		}
	}
	return out
}

func cluster(cells []*netlist.LibraryCell, threshold float64, minimize bool) []*netlist.LibraryCell {
	if len(cells) == 0 {
		return nil
	}
	slices.SortStableFunc(cells, func(a, b *netlist.LibraryCell) int {
		switch {
		case a.Area < b.Area:
			return -1
		case a.Area > b.Area:
			return 1
		}
		return 0
	})
	n := len(cells)
	classes := n
	if threshold > 0 {
		classes = int(math.Ceil(1/threshold - 1e-9))
	}
	if classes >= n {
		return cells
	}
	var out []*netlist.LibraryCell
	for k := 0; k < classes; k++ {
		lo := k * n / classes
		hi := (k + 1) * n / classes
		group := cells[lo:hi]
		if len(group) == 0 {
			continue
		}
		if minimize {
			out = append(out, group[len(group)/2])
			continue
		}
		out = append(out, group[0])
		if len(group) > 2 {
			out = append(out, group[len(group)/2])
		}
		if len(group) > 1 {
			out = append(out, group[len(group)-1])
		}
	}
	return slices.Compact(out)
}
