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

// Package vm implements the Vyauma virtual machine: an operand-stack engine
// with call frames, a read-only constant pool, per-frame locals, a
// deny-by-default capability registry, and a suspend/resume protocol for
// host-mediated external calls.
//
// A VM instance is single-threaded and yields control to the host only at
// normal termination and at ExternalCall suspension. Every observable side
// effect is serialized through the state-change buffer in program order.
package vm

import (
	"fmt"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	// KindNull is the absence of a value.
	KindNull ValueKind = iota
	// KindBool is a boolean value.
	KindBool
	// KindNumber is an IEEE 754 64-bit float.
	KindNumber
	// KindRef is an opaque 32-bit identifier reserved for host-defined objects.
	KindRef
)

// Value is the closed tagged sum of runtime values. Values are by-value and
// cheaply copyable; only the field selected by Kind is meaningful, the
// constructors keep the rest zeroed so that == is structural equality.
type Value struct {
	Kind ValueKind
	Flag bool
	Num  float64
	ID   uint32
}

// Null returns the Null value.
func Null() Value { return Value{Kind: KindNull} }

// Bool returns a Bool value.
func Bool(b bool) Value { return Value{Kind: KindBool, Flag: b} }

// Number returns a Number value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Ref returns a Ref value holding an opaque host object identifier.
func Ref(id uint32) Value { return Value{Kind: KindRef, ID: id} }

// Equal reports structural equality. Number comparison follows IEEE 754, so
// NaN is not equal to itself.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Flag == o.Flag
	case KindNumber:
		return v.Num == o.Num
	default:
		return v.ID == o.ID
	}
}

// String renders the value for diagnostics and CLI output.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.Flag)
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return fmt.Sprintf("ref(%d)", v.ID)
	}
}
