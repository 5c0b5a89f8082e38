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

package repair

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
	"github.com/rajarshiroy/OpenPhySyn/phy"
	"github.com/rajarshiroy/OpenPhySyn/transform"
)

// ClusterThreshold maps an auto-library granularity name to the
// clustering threshold handed to the facade.
func ClusterThreshold(granularity string) (float64, bool) {
	switch granularity {
	case "single":
		return 1.0, true
	case "small":
		return 3.0 / 4.0, true
	case "medium":
		return 1.0 / 4.0, true
	case "large":
		return 1.0 / 12.0, true
	case "all":
		return 0.0, true
	}
	return 0, false
}

// LibraryOptions is the curation policy of a repair invocation.
type LibraryOptions struct {
	BufferNames   []string // explicit buffer working set
	AllBuffers    bool     // every usable buffer cell
	InverterNames []string
	AllInverters  bool
	UseInverters  bool // inverter-pair candidates enabled

	Cluster           bool // delegate to the facade cluster builder
	ClusterThreshold  float64
	MinimizeCluster   bool
	ClusterInverters  bool
}

// CurateLibrary resolves the policy into sorted, deduplicated
// working sets of buffers and inverters. A named cell missing from
// the library fails the whole curation.
func CurateLibrary(h *phy.Handler, o LibraryOptions) (buffers, inverters []*netlist.LibraryCell, err error) {
	if o.Cluster {
		buffers, inverters = h.BufferClusters(o.ClusterThreshold, o.MinimizeCluster, o.ClusterInverters)
	} else {
		buffers, err = resolve(h, o.BufferNames, o.AllBuffers, h.Design.BufferCells)
		if err != nil {
			return nil, nil, err
		}
		if o.UseInverters {
			inverters, err = resolve(h, o.InverterNames, o.AllInverters, h.Design.InverterCells)
			if err != nil {
				return nil, nil, err
			}
		}
	}
	return curate(buffers), curate(inverters), nil
}

func resolve(h *phy.Handler, names []string, all bool, pool func() []*netlist.LibraryCell) ([]*netlist.LibraryCell, error) {
	if all {
		var out []*netlist.LibraryCell
		for _, c := range pool() {
			if !c.DontUse {
				out = append(out, c)
			}
		}
		return out, nil
	}
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	var out []*netlist.LibraryCell
	for _, name := range sorted {
		cell, err := h.Design.Cell(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", transform.ErrLibrary, name)
		}
		out = append(out, cell)
	}
	return out, nil
}

// curate sorts ascending by area and deduplicates; duplicates can
// only be removed after sorting brings them adjacent.
func curate(cells []*netlist.LibraryCell) []*netlist.LibraryCell {
	slices.SortStableFunc(cells, func(a, b *netlist.LibraryCell) int {
		switch {
		case a.Area < b.Area:
			return -1
		case a.Area > b.Area:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return slices.Compact(cells)
}

// referenceBuffer is the median-area cell of the working set,
// supplied to junction merges.
func referenceBuffer(lib []*netlist.LibraryCell) *netlist.LibraryCell {
	if len(lib) == 0 {
		return nil
	}
	return lib[len(lib)/2]
}
