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

// Package config loads repair defaults and debug-harness designs
// from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"

	"sigs.k8s.io/yaml"
)

// Options mirrors the timing_buffer flag set; a YAML file supplies
// defaults that explicit host arguments override.
type Options struct {
	Buffers                   []string `json:"buffers,omitempty"`
	Inverters                 []string `json:"inverters,omitempty"`
	AutoBufferLibrary         string   `json:"auto_buffer_library,omitempty"`
	MinimizeBufferLibrary     bool     `json:"minimize_buffer_library,omitempty"`
	UseInvertingBufferLibrary bool     `json:"use_inverting_buffer_library,omitempty"`
	EnableGateResize          bool     `json:"enable_gate_resize,omitempty"`
	Iterations                int      `json:"iterations,omitempty"`
	MinGain                   float64  `json:"min_gain,omitempty"`
	AreaPenalty               float64  `json:"area_penalty,omitempty"`
	MaximumCapacitance        bool     `json:"maximum_capacitance,omitempty"`
	MaximumTransition         bool     `json:"maximum_transition,omitempty"`
}

// LoadOptions reads an Options YAML file.
func LoadOptions(path string) (*Options, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var o Options
	if err := yaml.UnmarshalStrict(buf, &o); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &o, nil
}

// Args renders the options as a timing_buffer argument vector.
func (o *Options) Args() []string {
	var args []string
	if len(o.Buffers) > 0 {
		args = append(args, "-buffers")
		args = append(args, o.Buffers...)
	}
	if o.AutoBufferLibrary != "" {
		args = append(args, "-auto_buffer_library", o.AutoBufferLibrary)
	}
	if len(o.Inverters) > 0 {
		args = append(args, "-inverters")
		args = append(args, o.Inverters...)
	}
	if o.MinimizeBufferLibrary {
		args = append(args, "-minimize_buffer_library")
	}
	if o.UseInvertingBufferLibrary {
		args = append(args, "-use_inverting_buffer_library")
	}
	if o.EnableGateResize {
		args = append(args, "-enable_gate_resize")
	}
	if o.Iterations > 0 {
		args = append(args, "-iterations", strconv.Itoa(o.Iterations))
	}
	if o.MinGain != 0 {
		args = append(args, "-min_gain", strconv.FormatFloat(o.MinGain, 'g', -1, 64))
	}
	if o.AreaPenalty != 0 {
		args = append(args, "-area_penalty", strconv.FormatFloat(o.AreaPenalty, 'g', -1, 64))
	}
	if o.MaximumCapacitance {
		args = append(args, "-maximum_capacitance")
	}
	if o.MaximumTransition {
		args = append(args, "-maximum_transition")
	}
	return args
}
