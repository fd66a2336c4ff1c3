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

// Stack is the bounded operand stack. Depth is always within
// [0, max]; violations surface as explicit errors, never as panics.
type Stack struct {
	values []Value
	max    int
}

// NewStack creates a stack with the given maximum depth.
func NewStack(max int) *Stack {
	return &Stack{values: make([]Value, 0, max), max: max}
}

// Push appends a value, failing with StackOverflow at the depth limit.
func (s *Stack) Push(v Value) error {
	if len(s.values) >= s.max {
		return common.ErrStackOverflow
	}
	s.values = append(s.values, v)
	return nil
}

// Pop removes and returns the top value.
func (s *Stack) Pop() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, common.ErrStackUnderflow
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

// Peek returns the top value without removing it.
func (s *Stack) Peek() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, common.ErrStackUnderflow
	}
	return s.values[len(s.values)-1], nil
}

// Dup duplicates the top value.
func (s *Stack) Dup() error {
	v, err := s.Peek()
	if err != nil {
		return err
	}
	return s.Push(v)
}

// Size returns the current depth.
func (s *Stack) Size() int { return len(s.values) }
