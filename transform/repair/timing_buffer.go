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
	"errors"
	"strconv"

	"github.com/rajarshiroy/OpenPhySyn/transform"
)

// TimingBuffer is the full Van Ginneken repair transform: buffer
// insertion with optional driver resizing and auto-curated repeater
// libraries, iterated to quiescence.
type TimingBuffer struct{}

func (TimingBuffer) Name() string { return "timing_buffer" }

func (TimingBuffer) Help() string {
	return `timing_buffer -buffers <cell>.. | -auto_buffer_library (single|small|medium|large|all)
	[-inverters <cell>..] [-minimize_buffer_library] [-use_inverting_buffer_library]
	[-enable_gate_resize] [-iterations <num>] [-min_gain <gain>] [-area_penalty <penalty>]
	[-maximum_capacitance] [-maximum_transition]`
}

var timingBufferKeywords = transform.NewKeywords(
	"-buffers", "-inverters", "-enable_gate_resize", "-iterations",
	"-min_gain", "-area_penalty", "-auto_buffer_library",
	"-minimize_buffer_library", "-use_inverting_buffer_library",
	"-maximum_capacitance", "-maximum_transition",
)

// Run parses the host argument vector and executes the pass.
// Returns the buffer-plus-resize count, or -1 on argument and
// library errors.
func (tb TimingBuffer) Run(ctx *transform.Context, args []string) (int, error) {
	var lib LibraryOptions
	opt := passOptions{maxIterations: 1}
	var fixCap, fixTransition bool

	fail := func() (int, error) {
		ctx.Log.Error(tb.Help())
		return -1, transform.ErrArgument
	}

	if len(args) < 2 {
		return fail()
	}
	for i := 0; i < len(args); i++ {
		switch transform.Canon(args[i]) {
		case "-buffers":
			names, _, last, ok := transform.ScanValues(args, i, "-buffers", timingBufferKeywords, false)
			if !ok {
				return fail()
			}
			lib.BufferNames = append(lib.BufferNames, names...)
			i = last
		case "-inverters":
			names, _, last, ok := transform.ScanValues(args, i, "-inverters", timingBufferKeywords, false)
			if !ok {
				return fail()
			}
			lib.InverterNames = append(lib.InverterNames, names...)
			lib.UseInverters = true
			i = last
		case "-auto_buffer_library":
			i++
			if i >= len(args) {
				return fail()
			}
			threshold, ok := ClusterThreshold(args[i])
			if !ok {
				return fail()
			}
			lib.Cluster = true
			lib.ClusterThreshold = threshold
		case "-iterations":
			i++
			if i >= len(args) {
				return fail()
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return fail()
			}
			opt.maxIterations = n
		case "-min_gain":
			i++
			if i >= len(args) || !transform.IsNumber(args[i]) {
				return fail()
			}
			opt.minGain, _ = strconv.ParseFloat(args[i], 64)
		case "-area_penalty":
			i++
			if i >= len(args) || !transform.IsNumber(args[i]) {
				return fail()
			}
			opt.areaPenalty, _ = strconv.ParseFloat(args[i], 64)
		case "-enable_gate_resize":
			opt.resizeGates = true
		case "-maximum_capacitance":
			fixCap = true
		case "-maximum_transition":
			fixTransition = true
		case "-minimize_buffer_library":
			lib.MinimizeCluster = true
		case "-use_inverting_buffer_library":
			lib.ClusterInverters = true
		default:
			return fail()
		}
	}

	if !lib.Cluster && len(lib.BufferNames) == 0 {
		return fail()
	}
	if !fixCap && !fixTransition {
		fixCap = true
		fixTransition = true
	}
	opt.fixCap = fixCap
	opt.fixTransition = fixTransition

	bufferLib, inverterLib, err := CurateLibrary(ctx.Handler, lib)
	if err != nil {
		if errors.Is(err, transform.ErrLibrary) {
			ctx.Log.Errorf("%v", err)
			return -1, err
		}
		return -1, err
	}
	return timingBuffer(ctx, bufferLib, inverterLib, opt), nil
}
