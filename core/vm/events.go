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

import (
	"fmt"
	"strings"
)

// StateChange is one entry of the append-only event log. Events are recorded
// in strict program order and drained in that order; the set of variants is
// closed.
type StateChange interface {
	fmt.Stringer

	// sealed keeps the variant set closed to this package.
	sealed()
}

// LocalStore records a successful local write. Value carries the post-store
// value.
type LocalStore struct {
	Index int
	Value Value
}

func (LocalStore) sealed() {}

// String implements fmt.Stringer.
func (c LocalStore) String() string {
	return fmt.Sprintf("local_store index=%d value=%s", c.Index, c.Value)
}

// ExternalCallRequest records a bytecode-initiated external call that passed
// its capability check. Args are in argument order (first pushed first).
type ExternalCallRequest struct {
	CapID uint8
	Args  []Value
}

func (ExternalCallRequest) sealed() {}

// String implements fmt.Stringer.
func (c ExternalCallRequest) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("external_call cap=0x%02X args=[%s]", c.CapID, strings.Join(parts, ", "))
}
