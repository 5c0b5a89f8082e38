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
	"fmt"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
	"github.com/rajarshiroy/OpenPhySyn/transform"
)

// ErrRealize wraps failures during top-down plan realization.
// Realization never rolls back: instances and nets created before
// the failure stay in the database and the caller logs.
var ErrRealize = errors.New("repair: realization failed")

func realizeErr(msg string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRealize, fmt.Sprintf(msg, args...))
}

// topDown realizes the chosen plan below a driver pin: walks the
// tree, instantiates repeaters, creates their output nets and
// re-homes load pins onto whichever net now feeds them.
func topDown(ctx *transform.Context, pin *netlist.Pin, plan *Tree) error {
	net := pin.Net()
	if net == nil {
		return realizeErr("no net on %s", pin.Name())
	}
	return topDownNet(ctx, net, plan)
}

func topDownNet(ctx *transform.Context, net *netlist.Net, tree *Tree) error {
	if tree == nil {
		return nil
	}
	h := ctx.Handler
	switch {
	case tree.IsUnbuffered():
		load := tree.Pin()
		if load.Net() == net {
			return nil
		}
		if load.IsTopLevel() {
			// boundary loads may not be rewired; leave the leaf on
			// its original net
			ctx.Log.Warnf("leaving boundary pin %s on %s", load.Name(), load.Net().Name())
			return nil
		}
		if err := h.Design.Disconnect(load); err != nil {
			return realizeErr("disconnect %s: %v", load.Name(), err)
		}
		if err := h.Design.Connect(net, load.Instance(), load.Port()); err != nil {
			return realizeErr("connect %s to %s: %v", load.Name(), net.Name(), err)
		}
		return nil

	case tree.IsBuffered():
		cell := tree.BufferCell()
		inst, err := h.Design.CreateInstance(ctx.BufferInstanceName(), cell)
		if err != nil {
			return realizeErr("instantiate %s: %v", cell.Name, err)
		}
		bufNet, err := h.Design.CreateNet(ctx.BufferNetName())
		if err != nil {
			return realizeErr("net for %s: %v", inst.Name(), err)
		}
		if err := h.Design.Connect(net, inst, h.BufferInputPort(cell)); err != nil {
			return realizeErr("input of %s: %v", inst.Name(), err)
		}
		if err := h.Design.Connect(bufNet, inst, h.BufferOutputPort(cell)); err != nil {
			return realizeErr("output of %s: %v", inst.Name(), err)
		}
		h.Design.SetLocation(inst, tree.Location())
		h.Timing.CalculateParasitics(net)
		h.Timing.CalculateParasitics(bufNet)
		ctx.CurrentArea += cell.Area
		ctx.BufferCount++
		return topDownNet(ctx, bufNet, tree.Left())

	default: // branched
		if err := topDownNet(ctx, net, tree.Left()); err != nil {
			return err
		}
		return topDownNet(ctx, net, tree.Right())
	}
}
