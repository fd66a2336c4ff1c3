// Copyright 2026 The go-vyauma Authors
// This file is part of the go-vyauma library.
//
// The go-vyauma library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-vyauma library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-vyauma library. If not, see <http://www.gnu.org/licenses/>.

package vm

import "github.com/vyauma/go-vyauma/common"

// ConstantPool is the read-only, index-addressed constant storage of a
// loaded program. It is immutable after construction.
type ConstantPool struct {
	values []Value
}

// NewConstantPool copies the given constants into a pool.
func NewConstantPool(values []Value) *ConstantPool {
	pool := make([]Value, len(values))
	copy(pool, values)
	return &ConstantPool{values: pool}
}

// Get returns the constant at index.
func (p *ConstantPool) Get(index int) (Value, error) {
	if index < 0 || index >= len(p.values) {
		return Value{}, common.ErrInvalidConstantAccess(index)
	}
	return p.values[index], nil
}

// Len returns the pool size.
func (p *ConstantPool) Len() int { return len(p.values) }

// Locals is the per-frame local variable storage, fixed size, initialized
// to Null.
type Locals struct {
	values []Value
}

// NewLocals creates local storage of the given size.
func NewLocals(size int) *Locals {
	return &Locals{values: make([]Value, size)}
}

// Load returns local[index].
func (l *Locals) Load(index int) (Value, error) {
	if index < 0 || index >= len(l.values) {
		return Value{}, common.ErrInvalidLocalAccess(index)
	}
	return l.values[index], nil
}

// Store writes local[index].
func (l *Locals) Store(index int, v Value) error {
	if index < 0 || index >= len(l.values) {
		return common.ErrInvalidLocalAccess(index)
	}
	l.values[index] = v
	return nil
}

// Globals is the optional program-wide variable storage, fixed size,
// initialized to Null.
type Globals struct {
	values []Value
}

// NewGlobals creates global storage of the given size.
func NewGlobals(size int) *Globals {
	return &Globals{values: make([]Value, size)}
}

// Load returns global[index].
func (g *Globals) Load(index int) (Value, error) {
	if index < 0 || index >= len(g.values) {
		return Value{}, common.ErrInvalidStackAccess
	}
	return g.values[index], nil
}

// Store writes global[index].
func (g *Globals) Store(index int, v Value) error {
	if index < 0 || index >= len(g.values) {
		return common.ErrInvalidStackAccess
	}
	g.values[index] = v
	return nil
}
