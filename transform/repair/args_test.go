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

package repair_test

import (
	"errors"
	"testing"

	"github.com/rajarshiroy/OpenPhySyn/testbench"
	"github.com/rajarshiroy/OpenPhySyn/transform"
	"github.com/rajarshiroy/OpenPhySyn/transform/repair"
)

func TestTimingBufferArgErrors(t *testing.T) {
	cases := [][]string{
		{},                                      // nothing at all
		{"-buffers"},                            // missing values
		{"-buffers", "BUF1", "-buffers", "BUF2"}, // duplicate flag
		{"-buffers", "BUF1", "-bogus"},          // unknown flag
		{"-auto_buffer_library", "tiny"},        // bad granularity
		{"-auto_buffer_library"},                // missing granularity
		{"-buffers", "BUF1", "-iterations", "x"}, // non-numeric
		{"-buffers", "BUF1", "-min_gain"},        // missing value
		{"-iterations", "2"},                     // no buffer source at all
	}
	for _, args := range cases {
		b, _ := testbench.Fanout(2)
		ctx := newCtx(b)
		count, err := repair.TimingBuffer{}.Run(ctx, args)
		if count != -1 || !errors.Is(err, transform.ErrArgument) {
			t.Fatalf("args %v: got %d, %v; wanted -1 with ErrArgument", args, count, err)
		}
	}
}

func TestTimingBufferUnknownCell(t *testing.T) {
	b, _ := testbench.Fanout(2)
	ctx := newCtx(b)
	count, err := repair.TimingBuffer{}.Run(ctx, []string{"-buffers", "BUFX9"})
	if count != -1 || !errors.Is(err, transform.ErrLibrary) {
		t.Fatalf("got %d, %v; wanted -1 with ErrLibrary", count, err)
	}
}

func TestBufferResizeArgErrors(t *testing.T) {
	cases := [][]string{
		{},                            // nothing at all
		{"-enable_gate_resize"},       // too short, no buffers
		{"-buffers", "-all", "BUF1"},  // -all mixed with names
		{"-buffers", "BUF1", "-all"},  // names mixed with -all
		{"-inverters", "-all"},        // inverters without -buffers
		{"-buffers", "-all", "-enable_inverter_pair"}, // pair without inverters
		{"-buffers", "-all", "-bogus"},                // unknown flag
	}
	for _, args := range cases {
		b, _ := testbench.Fanout(2)
		ctx := newCtx(b)
		count, err := repair.BufferResize{}.Run(ctx, args)
		if count != -1 || !errors.Is(err, transform.ErrArgument) {
			t.Fatalf("args %v: got %d, %v; wanted -1 with ErrArgument", args, count, err)
		}
	}
}

func TestDoubleDashSpellings(t *testing.T) {
	b, drv := testbench.Fanout(4)
	ctx := newCtx(b)
	count, err := repair.TimingBuffer{}.Run(ctx, []string{"--buffers", "BUF1", "--maximum_capacitance"})
	if err != nil {
		t.Fatal(err)
	}
	if count < 1 {
		t.Fatalf("count %d; double-dash spellings must work", count)
	}
	if ctx.Handler.Timing.ViolatesMaxCapacitance(drv) {
		t.Fatal("driver still violates")
	}
}
