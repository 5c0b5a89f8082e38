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

package config

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
)

// DesignSpec is the YAML debug-harness description of a design:
// enough to exercise the transforms without any exchange-format
// reader. Production flows load designs through external parsers.
type DesignSpec struct {
	Tech      TechSpec       `json:"tech"`
	Cells     []CellSpec     `json:"cells"`
	Instances []InstanceSpec `json:"instances"`
	Terminals []TerminalSpec `json:"terminals"`
	Nets      []NetSpec      `json:"nets"`
}

type TechSpec struct {
	DBUPerMicron float64 `json:"dbu_per_micron"`
	WireRes      float64 `json:"wire_res_per_micron"`
	WireCap      float64 `json:"wire_cap_per_micron"`
	MaxArea      float64 `json:"max_area,omitempty"`
	ClockPeriod  float64 `json:"clock_period"`
}

type PortSpec struct {
	Name string  `json:"name"`
	Dir  string  `json:"dir"` // "input" or "output"
	Cap  float64 `json:"cap,omitempty"`
}

type CellSpec struct {
	Name      string             `json:"name"`
	Function  string             `json:"function"`
	Area      float64            `json:"area"`
	DontUse   bool               `json:"dont_use,omitempty"`
	DriveRes  float64            `json:"drive_res"`
	MaxCap    float64            `json:"max_cap,omitempty"`
	MaxSlew   float64            `json:"max_slew,omitempty"`
	Ports     []PortSpec         `json:"ports"`
	Intrinsic map[string]float64 `json:"intrinsic,omitempty"`
	Symmetric [][]string         `json:"symmetric,omitempty"`
}

type InstanceSpec struct {
	Name string `json:"name"`
	Cell string `json:"cell"`
	X    int64  `json:"x"`
	Y    int64  `json:"y"`
}

type TerminalSpec struct {
	Name string `json:"name"`
	Dir  string `json:"dir"`
	X    int64  `json:"x"`
	Y    int64  `json:"y"`
}

type NetSpec struct {
	Name  string   `json:"name"`
	Pins  []string `json:"pins"` // "inst/port" or bare terminal name
	Clock bool     `json:"clock,omitempty"`
}

func direction(s string) (netlist.Direction, error) {
	switch strings.ToLower(s) {
	case "input", "in":
		return netlist.Input, nil
	case "output", "out":
		return netlist.Output, nil
	}
	return 0, fmt.Errorf("config: bad direction %q", s)
}

// Build materializes the spec into a design database.
func (s *DesignSpec) Build() (*netlist.Design, error) {
	d := netlist.NewDesign(netlist.Tech{
		DBUPerMicron: s.Tech.DBUPerMicron,
		WireRes:      s.Tech.WireRes,
		WireCap:      s.Tech.WireCap,
		MaxArea:      s.Tech.MaxArea,
		ClockPeriod:  s.Tech.ClockPeriod,
	})
	for _, cs := range s.Cells {
		cell := &netlist.LibraryCell{
			Name:      cs.Name,
			Function:  cs.Function,
			Area:      cs.Area,
			DontUse:   cs.DontUse,
			DriveRes:  cs.DriveRes,
			MaxCap:    cs.MaxCap,
			MaxSlew:   cs.MaxSlew,
			Intrinsic: cs.Intrinsic,
			Symmetric: cs.Symmetric,
		}
		for _, ps := range cs.Ports {
			dir, err := direction(ps.Dir)
			if err != nil {
				return nil, err
			}
			cell.Ports = append(cell.Ports, netlist.PortDef{Name: ps.Name, Dir: dir, Cap: ps.Cap})
		}
		if err := d.AddCell(cell); err != nil {
			return nil, err
		}
	}
	for _, is := range s.Instances {
		cell, err := d.Cell(is.Cell)
		if err != nil {
			return nil, err
		}
		inst, err := d.CreateInstance(is.Name, cell)
		if err != nil {
			return nil, err
		}
		d.SetLocation(inst, netlist.Point{X: is.X, Y: is.Y})
	}
	for _, ts := range s.Terminals {
		dir, err := direction(ts.Dir)
		if err != nil {
			return nil, err
		}
		if _, err := d.CreateTerminal(ts.Name, dir, netlist.Point{X: ts.X, Y: ts.Y}); err != nil {
			return nil, err
		}
	}
	for _, ns := range s.Nets {
		net, err := d.CreateNet(ns.Name)
		if err != nil {
			return nil, err
		}
		if ns.Clock {
			d.MarkClock(net)
		}
		for _, ref := range ns.Pins {
			if inst, port, ok := strings.Cut(ref, "/"); ok {
				target, err := d.Instance(inst)
				if err != nil {
					return nil, err
				}
				if err := d.Connect(net, target, port); err != nil {
					return nil, err
				}
				continue
			}
			term, err := d.Terminal(ref)
			if err != nil {
				return nil, err
			}
			if err := d.ConnectTerminal(net, term); err != nil {
				return nil, err
			}
		}
	}
	return d, nil
}

// LoadDesign reads and materializes a DesignSpec YAML file.
func LoadDesign(path string) (*netlist.Design, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var spec DesignSpec
	if err := yaml.UnmarshalStrict(buf, &spec); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return spec.Build()
}
