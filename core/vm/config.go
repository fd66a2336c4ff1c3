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

// Config specifies the runtime limits of a VM instance. Configuration names
// constraints only; enforcement happens inside the VM on every relevant
// instruction.
type Config struct {
	// MaxStackSize is the maximum operand stack depth.
	MaxStackSize int

	// MaxLocals is the number of local variable slots per call frame.
	MaxLocals int

	// MaxCallDepth is the recursion limit, counting the root frame.
	MaxCallDepth int
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		MaxStackSize: 1024,
		MaxLocals:    256,
		MaxCallDepth: 256,
	}
}
