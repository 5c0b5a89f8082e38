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

package journal

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/rajarshiroy/OpenPhySyn/netlist"
)

// Fingerprint hashes a canonical serialization of the design:
// library, instances with placement and cell binding, and full
// connectivity. Two designs with equal fingerprints are
// structurally identical, so tests compare whole netlists with one
// value (pin-swap rejection, no-op round trips).
func Fingerprint(d *netlist.Design) [32]byte {
	var sb strings.Builder
	for _, c := range d.Cells() {
		fmt.Fprintf(&sb, "cell %s f=%s a=%g\n", c.Name, c.Function, c.Area)
	}
	for _, inst := range d.Instances() {
		loc := inst.Location()
		fmt.Fprintf(&sb, "inst %s %s (%d,%d)\n", inst.Name(), inst.Cell().Name, loc.X, loc.Y)
	}
	for _, n := range d.Nets() {
		fmt.Fprintf(&sb, "net %s:", n.Name())
		for _, p := range n.Pins() {
			fmt.Fprintf(&sb, " %s", p.Name())
		}
		sb.WriteByte('\n')
	}
	for _, t := range d.Terminals() {
		net := "-"
		if t.Net() != nil {
			net = t.Net().Name()
		}
		fmt.Fprintf(&sb, "term %s driver=%t %s\n", t.Name(), t.IsDriver(), net)
	}
	return blake2b.Sum256([]byte(sb.String()))
}
