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

package netlist

import "errors"

var (
	// ErrNotFound indicates a lookup of a library cell, instance,
	// net or terminal by a name the design does not contain.
	ErrNotFound = errors.New("netlist: not found")

	// ErrExists indicates a create with an already-taken name.
	ErrExists = errors.New("netlist: name already in use")

	// ErrUnsupported indicates a mutation on a top-level (boundary)
	// pin; boundary pins belong to the design interface and may not
	// be rewired by transforms.
	ErrUnsupported = errors.New("netlist: unsupported on top-level pin")

	// ErrConnected indicates a connect on a pin that is already
	// bound to a net.
	ErrConnected = errors.New("netlist: pin already connected")
)
