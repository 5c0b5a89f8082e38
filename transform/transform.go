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

// Package transform hosts the transform framework: the registry a
// scripting host dispatches into, and the per-invocation context
// that binds counters, the area budget and the mutation journal.
package transform

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/rajarshiroy/OpenPhySyn/journal"
	"github.com/rajarshiroy/OpenPhySyn/phy"
)

var (
	// ErrArgument indicates a malformed argument vector; the
	// transform returns -1 and logs its help string.
	ErrArgument = errors.New("transform: invalid arguments")

	// ErrLibrary indicates a named cell missing from the library.
	ErrLibrary = errors.New("transform: library cell not found")

	// ErrUnsupported marks a reserved entry point (power-mode pin
	// swapping).
	ErrUnsupported = errors.New("transform: unsupported")
)

// Transform is one optimization pass invocable from a scripting
// host. Run returns the non-negative mutation count on success and
// -1 on argument or library errors.
type Transform interface {
	Name() string
	Help() string
	Run(ctx *Context, args []string) (int, error)
}

// Context carries the per-invocation state: every counter the
// original kept in transform members lives here, bound explicitly,
// never in package globals.
type Context struct {
	Handler *phy.Handler
	Journal *journal.Journal
	Log     logrus.FieldLogger

	// mutation counters
	BufferCount int
	ResizeCount int
	SwapCount   int

	// name generators for created instances and nets
	NetIndex  int
	BuffIndex int

	// diagnostics
	TransitionViolations  int
	CapacitanceViolations int

	// area accounting against the design budget
	CurrentArea float64
}

// NewContext builds a context over a handler, attaches a fresh
// journal and snapshots the current area.
func NewContext(h *phy.Handler) *Context {
	j := journal.New()
	h.AttachJournal(j)
	return &Context{
		Handler:     h,
		Journal:     j,
		Log:         h.Log,
		CurrentArea: h.Area(),
	}
}

// BufferInstanceName returns the next generated repeater instance
// name and advances the generator.
func (ctx *Context) BufferInstanceName() string {
	name := fmt.Sprintf("buff_%d", ctx.NetIndex)
	ctx.NetIndex++
	return name
}

// BufferNetName returns the next generated net name and advances the
// generator.
func (ctx *Context) BufferNetName() string {
	name := fmt.Sprintf("net_%d", ctx.BuffIndex)
	ctx.BuffIndex++
	return name
}

// Registry maps transform names to implementations.
type Registry struct {
	transforms map[string]Transform
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[string]Transform)}
}

// Register adds a transform; re-registering a name replaces it.
func (r *Registry) Register(t Transform) {
	r.transforms[t.Name()] = t
}

// Lookup returns the named transform.
func (r *Registry) Lookup(name string) (Transform, error) {
	t, ok := r.transforms[name]
	if !ok {
		return nil, fmt.Errorf("%w: transform %s", ErrArgument, name)
	}
	return t, nil
}

// Names returns the registered transform names, sorted.
func (r *Registry) Names() []string {
	names := maps.Keys(r.transforms)
	slices.Sort(names)
	return names
}

// Run dispatches one transform invocation.
func (r *Registry) Run(ctx *Context, name string, args []string) (int, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return -1, err
	}
	return t.Run(ctx, args)
}
