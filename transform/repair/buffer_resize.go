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

	"github.com/rajarshiroy/OpenPhySyn/transform"
)

// BufferResize is the basic repair transform: a single
// capacitance-and-slew pass with an explicit repeater working set,
// pruning after every junction merge.
type BufferResize struct{}

func (BufferResize) Name() string { return "buffer_resize" }

func (BufferResize) Help() string {
	return `buffer_resize -buffers (-all | <cell>..)
	[-inverters (-all | <cell>..)] [-enable_gate_resize] [-enable_inverter_pair]`
}

var bufferResizeKeywords = transform.NewKeywords(
	"-buffers", "-inverters", "-enable_gate_resize", "-enable_inverter_pair",
)

// Run parses the host argument vector and executes one pass.
// Returns the mutation count, or -1 on argument and library errors.
func (br BufferResize) Run(ctx *transform.Context, args []string) (int, error) {
	var lib LibraryOptions
	var resizeGates, inverterPair bool

	fail := func() (int, error) {
		ctx.Log.Error(br.Help())
		return -1, transform.ErrArgument
	}

	if len(args) < 2 {
		return fail()
	}
	for i := 0; i < len(args); i++ {
		switch transform.Canon(args[i]) {
		case "-buffers":
			names, all, last, ok := transform.ScanValues(args, i, "-buffers", bufferResizeKeywords, true)
			if !ok {
				return fail()
			}
			lib.BufferNames = append(lib.BufferNames, names...)
			lib.AllBuffers = lib.AllBuffers || all
			i = last
		case "-inverters":
			names, all, last, ok := transform.ScanValues(args, i, "-inverters", bufferResizeKeywords, true)
			if !ok {
				return fail()
			}
			lib.InverterNames = append(lib.InverterNames, names...)
			lib.AllInverters = lib.AllInverters || all
			i = last
		case "-enable_gate_resize":
			resizeGates = true
		case "-enable_inverter_pair":
			inverterPair = true
		default:
			return fail()
		}
	}

	// exactly one of an explicit name list and -all, for each kind
	if len(lib.BufferNames) == 0 && !lib.AllBuffers {
		return fail()
	}
	if len(lib.BufferNames) > 0 && lib.AllBuffers {
		return fail()
	}
	if inverterPair {
		if len(lib.InverterNames) == 0 && !lib.AllInverters {
			return fail()
		}
		if len(lib.InverterNames) > 0 && lib.AllInverters {
			return fail()
		}
		lib.UseInverters = true
	}

	bufferLib, inverterLib, err := CurateLibrary(ctx.Handler, lib)
	if err != nil {
		if errors.Is(err, transform.ErrLibrary) {
			ctx.Log.Errorf("%v", err)
		}
		return -1, err
	}

	opt := passOptions{
		engineOptions: engineOptions{
			resizeGates:       resizeGates,
			pruneEachJunction: true,
		},
		fixCap:        true,
		fixTransition: true,
		maxIterations: 1,
	}
	return timingBuffer(ctx, bufferLib, inverterLib, opt), nil
}
