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
	"fmt"
	"testing"

	"github.com/rajarshiroy/OpenPhySyn/journal"
	"github.com/rajarshiroy/OpenPhySyn/netlist"
	"github.com/rajarshiroy/OpenPhySyn/phy"
	"github.com/rajarshiroy/OpenPhySyn/testbench"
	"github.com/rajarshiroy/OpenPhySyn/transform"
	"github.com/rajarshiroy/OpenPhySyn/transform/repair"
)

func newCtx(b *testbench.Bench) *transform.Context {
	h := phy.NewHandler(b.Design, testbench.Logger())
	return transform.NewContext(h)
}

// reachableLoads walks a driver net through transparent repeater
// chains and collects the non-repeater load pins.
func reachableLoads(net *netlist.Net) map[string]bool {
	out := make(map[string]bool)
	var walk func(n *netlist.Net)
	walk = func(n *netlist.Net) {
		for _, l := range n.Loads() {
			if l.IsTopLevel() {
				out[l.Name()] = true
				continue
			}
			cell := l.Instance().Cell()
			if cell.IsBuffer() || cell.IsInverter() {
				for _, o := range l.Instance().OutputPins() {
					if o.Net() != nil {
						walk(o.Net())
					}
				}
				continue
			}
			out[l.Name()] = true
		}
	}
	walk(net)
	return out
}

// A single overloaded net is repaired by buffer insertion.
func TestTimingBufferFixesCapacitance(t *testing.T) {
	b, drv := testbench.Fanout(4)
	ctx := newCtx(b)
	before := reachableLoads(drv.Net())
	if !ctx.Handler.Timing.ViolatesMaxCapacitance(drv) {
		t.Fatal("fixture must start violating")
	}

	count, err := repair.TimingBuffer{}.Run(ctx, []string{"-buffers", "BUF1", "-maximum_capacitance"})
	if err != nil {
		t.Fatal(err)
	}
	if count < 1 || count != ctx.BufferCount {
		t.Fatalf("count %d (buffers %d); wanted at least one insertion", count, ctx.BufferCount)
	}
	if ctx.Handler.Timing.ViolatesMaxCapacitance(drv) {
		t.Fatal("driver still violates max capacitance")
	}
	// connectivity is preserved through the inserted chains
	after := reachableLoads(drv.Net())
	if len(after) != len(before) {
		t.Fatalf("reachable loads %v; wanted %v", after, before)
	}
	for name := range before {
		if !after[name] {
			t.Fatalf("load %s lost during realization", name)
		}
	}
}

// With resizing enabled, swapping the driver for its stronger
// equivalent can repair the net without (or alongside) buffering.
func TestTimingBufferGateResize(t *testing.T) {
	b, drv := testbench.Fanout(4)
	ctx := newCtx(b)
	count, err := repair.TimingBuffer{}.Run(ctx, []string{
		"-buffers", "BUF1", "-enable_gate_resize", "-area_penalty", "0", "-maximum_capacitance",
	})
	if err != nil {
		t.Fatal(err)
	}
	if count < 1 {
		t.Fatalf("count %d; wanted at least one mutation", count)
	}
	if ctx.ResizeCount != 1 {
		t.Fatalf("resize count %d; wanted 1", ctx.ResizeCount)
	}
	inst, err := b.Design.Instance("u_drv")
	if err != nil {
		t.Fatal(err)
	}
	if inst.Cell().Name != "DRV2" {
		t.Fatalf("driver cell %s; wanted DRV2", inst.Cell().Name)
	}
	if ctx.Handler.Timing.ViolatesMaxCapacitance(drv) {
		t.Fatal("driver still violates after resize")
	}
}

// twoNet builds two independent overloaded nets.
func twoNet(maxArea float64) (*testbench.Bench, *netlist.Pin, *netlist.Pin) {
	tech := testbench.Tech()
	tech.MaxArea = maxArea
	b := testbench.NewWithTech(tech)
	b.Terminal("in1", netlist.Input, 0, 0)
	b.Terminal("in2", netlist.Input, 0, 8000)
	d1 := b.Instance("u_d1", "DRV1", 0, 0)
	d2 := b.Instance("u_d2", "DRV1", 0, 8000)
	b.Wire("n_in1", "in1", "u_d1/A")
	b.Wire("n_in2", "in2", "u_d2/A")
	for i := 0; i < 4; i++ {
		b.Instance(fmt.Sprintf("u_l1_%d", i), "LD4", int64(2000*(i+1)), 0)
		b.Instance(fmt.Sprintf("u_l2_%d", i), "LD4", int64(2000*(i+1)), 8000)
	}
	b.Wire("n1", "u_d1/Y", "u_l1_0/A", "u_l1_1/A", "u_l1_2/A", "u_l1_3/A")
	b.Wire("n2", "u_d2/Y", "u_l2_0/A", "u_l2_1/A", "u_l2_2/A", "u_l2_3/A")
	return b, d1.Pin("Y"), d2.Pin("Y")
}

// Crossing the area budget stops the pass after the first net.
func TestAreaBudgetStopsPass(t *testing.T) {
	// design area is 10; the 0.5 of headroom is less than one BUF1
	b, d1, d2 := twoNet(10.5)
	ctx := newCtx(b)
	count, err := repair.TimingBuffer{}.Run(ctx, []string{"-buffers", "BUF1", "-maximum_capacitance"})
	if err != nil {
		t.Fatal(err)
	}
	if count < 1 {
		t.Fatalf("count %d; wanted the first net repaired", count)
	}
	// reverse level order repairs u_d2 first; u_d1 must be untouched
	if ctx.Handler.Timing.ViolatesMaxCapacitance(d1) == false {
		t.Fatal("second net should have been skipped at the budget")
	}
	if ctx.Handler.Timing.ViolatesMaxCapacitance(d2) {
		t.Fatal("first net should have been repaired")
	}
}

// Clock nets are never buffered.
func TestClockNetsSkipped(t *testing.T) {
	b, drv := testbench.Fanout(4)
	b.Design.MarkClock(drv.Net())
	ctx := newCtx(b)
	count, err := repair.TimingBuffer{}.Run(ctx, []string{"-buffers", "BUF1"})
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("count %d; clock net must be skipped", count)
	}
}

// A prohibitive min_gain leaves the design untouched (the no-op
// round trip: nothing committed, identical netlist).
func TestMinGainNoOp(t *testing.T) {
	b, _ := testbench.Fanout(4)
	before := journal.Fingerprint(b.Design)
	ctx := newCtx(b)
	count, err := repair.TimingBuffer{}.Run(ctx, []string{
		"-auto_buffer_library", "single", "-min_gain", "1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("count %d; wanted 0", count)
	}
	if ctx.Journal.Len() != 0 {
		t.Fatalf("journal has %d records; wanted none", ctx.Journal.Len())
	}
	if after := journal.Fingerprint(b.Design); after != before {
		t.Fatal("netlist changed under a rejected plan")
	}
}

// Two identical runs commit identical mutation sequences.
func TestDeterminism(t *testing.T) {
	args := []string{"-buffers", "BUF1", "BUF2", "-maximum_capacitance"}
	run := func() (int, uint64) {
		b, _ := testbench.Fanout(4)
		ctx := newCtx(b)
		count, err := repair.TimingBuffer{}.Run(ctx, args)
		if err != nil {
			t.Fatal(err)
		}
		return count, ctx.Journal.Digest()
	}
	c1, d1 := run()
	c2, d2 := run()
	if c1 != c2 {
		t.Fatalf("counts differ: %d vs %d", c1, c2)
	}
	if d1 != d2 {
		t.Fatalf("journal digests differ: %016x vs %016x", d1, d2)
	}
}

// buffer_resize drives the same engine through the basic flag set.
func TestBufferResizeBasic(t *testing.T) {
	b, drv := testbench.Fanout(4)
	ctx := newCtx(b)
	count, err := repair.BufferResize{}.Run(ctx, []string{"-buffers", "-all"})
	if err != nil {
		t.Fatal(err)
	}
	if count < 1 {
		t.Fatalf("count %d; wanted at least one insertion", count)
	}
	if ctx.Handler.Timing.ViolatesMaxCapacitance(drv) {
		t.Fatal("driver still violates")
	}
}

func TestBufferResizeUnknownCell(t *testing.T) {
	b, _ := testbench.Fanout(2)
	ctx := newCtx(b)
	count, err := repair.BufferResize{}.Run(ctx, []string{"-buffers", "NOPE"})
	if count != -1 || !errors.Is(err, transform.ErrLibrary) {
		t.Fatalf("got %d, %v; wanted -1 with ErrLibrary", count, err)
	}
}
