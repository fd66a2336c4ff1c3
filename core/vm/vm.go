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
	"encoding/binary"
	"math"

	"github.com/vyauma/go-vyauma/common"
	"github.com/vyauma/go-vyauma/core/bytecode"
	"github.com/vyauma/go-vyauma/core/capability"
)

// callFrame captures the state needed to resume a caller after Return.
type callFrame struct {
	returnIP int // instruction offset just past the Call immediates
	locals   *Locals
}

// VM is a Vyauma virtual machine instance. It owns its operand stack,
// locals, constants, instruction stream, and event buffer exclusively; the
// capability registry is mutated only by the host between Execute calls.
type VM struct {
	config    Config
	stack     *Stack
	globals   *Globals
	constants *ConstantPool

	instructions []byte
	ip           int

	// callStack always holds at least the root frame, which is created at
	// construction and never popped.
	callStack []callFrame
	halted    bool

	caps    *capability.Registry
	changes []StateChange
}

// New creates a VM around a loaded program. The root call frame exists for
// the VM's lifetime; execution starts at instruction offset 0.
func New(config Config, constants []Value, instructions []byte, globalCount int) *VM {
	return &VM{
		config:       config,
		stack:        NewStack(config.MaxStackSize),
		globals:      NewGlobals(globalCount),
		constants:    NewConstantPool(constants),
		instructions: instructions,
		callStack:    []callFrame{{locals: NewLocals(config.MaxLocals)}},
		caps:         capability.NewRegistry(),
	}
}

// Execute runs until halt, end of stream, or an error. Errors are not
// recoverable within the VM: the instance stays halted, but events recorded
// before the fault remain drainable.
func (vm *VM) Execute() error {
	for !vm.halted && vm.ip < len(vm.instructions) {
		if err := vm.step(); err != nil {
			vm.halted = true
			return err
		}
	}
	return nil
}

// Halted reports whether the VM is halted or suspended.
func (vm *VM) Halted() bool { return vm.halted }

// IP returns the current instruction pointer.
func (vm *VM) IP() int { return vm.ip }

// GrantCapability adds id to the capability registry.
func (vm *VM) GrantCapability(id uint8) {
	vm.caps.Grant(capability.ID(id))
}

// RevokeCapability removes id from the capability registry.
func (vm *VM) RevokeCapability(id uint8) {
	vm.caps.Revoke(capability.ID(id))
}

// DrainStateChanges moves the recorded event buffer out, leaving it empty.
func (vm *VM) DrainStateChanges() []StateChange {
	changes := vm.changes
	vm.changes = nil
	return changes
}

// ApplyExternalResults pushes host-provided results onto the operand stack
// in order; the last element becomes the new stack top.
func (vm *VM) ApplyExternalResults(results []Value) error {
	for _, v := range results {
		if err := vm.stack.Push(v); err != nil {
			return err
		}
	}
	return nil
}

// Resume clears the halted flag. It is legal at any time; pairing a request
// with exactly one ApplyExternalResults+Resume sequence is the host's
// responsibility. After a Halt opcode the instruction pointer is already at
// (or heading for) end of stream, so a resumed Execute returns immediately.
func (vm *VM) Resume() {
	vm.halted = false
}

// PeekTop returns the top of the operand stack without removing it.
func (vm *VM) PeekTop() (Value, error) {
	return vm.stack.Peek()
}

// PopTop removes and returns the top of the operand stack.
func (vm *VM) PopTop() (Value, error) {
	return vm.stack.Pop()
}

// StackSize returns the current operand stack depth.
func (vm *VM) StackSize() int { return vm.stack.Size() }

// CallDepth returns the current call depth, counting the root frame.
func (vm *VM) CallDepth() int { return len(vm.callStack) }

// frame returns the active call frame.
func (vm *VM) frame() *callFrame {
	return &vm.callStack[len(vm.callStack)-1]
}

// step fetches, decodes, and executes exactly one instruction.
func (vm *VM) step() error {
	opByte, err := vm.readByte()
	if err != nil {
		return err
	}
	op, ok := bytecode.FromByte(opByte)
	if !ok {
		return common.ErrInvalidOpcode(opByte)
	}

	switch op {

	case bytecode.OpHalt:
		vm.halted = true
		return nil

	case bytecode.OpNop:
		return nil

	case bytecode.OpPush:
		index, err := vm.readByte()
		if err != nil {
			return err
		}
		v, err := vm.constants.Get(int(index))
		if err != nil {
			return err
		}
		return vm.stack.Push(v)

	case bytecode.OpPop:
		_, err := vm.stack.Pop()
		return err

	case bytecode.OpDup:
		return vm.stack.Dup()

	case bytecode.OpLoadLocal:
		index, err := vm.readByte()
		if err != nil {
			return err
		}
		v, err := vm.frame().locals.Load(int(index))
		if err != nil {
			return err
		}
		return vm.stack.Push(v)

	case bytecode.OpStoreLocal:
		index, err := vm.readByte()
		if err != nil {
			return err
		}
		v, err := vm.stack.Pop()
		if err != nil {
			return err
		}
		if err := vm.frame().locals.Store(int(index), v); err != nil {
			return err
		}
		vm.record(LocalStore{Index: int(index), Value: v})
		return nil

	case bytecode.OpAdd:
		return vm.binaryNumeric(func(a, b float64) float64 { return a + b })

	case bytecode.OpSub:
		return vm.binaryNumeric(func(a, b float64) float64 { return a - b })

	case bytecode.OpMul:
		return vm.binaryNumeric(func(a, b float64) float64 { return a * b })

	case bytecode.OpDiv:
		b, err := vm.popNumber()
		if err != nil {
			return err
		}
		if b == 0.0 {
			return common.ErrDivisionByZero
		}
		a, err := vm.popNumber()
		if err != nil {
			return err
		}
		return vm.stack.Push(Number(a / b))

	case bytecode.OpMod:
		b, err := vm.popNumber()
		if err != nil {
			return err
		}
		if b == 0.0 {
			return common.ErrDivisionByZero
		}
		a, err := vm.popNumber()
		if err != nil {
			return err
		}
		return vm.stack.Push(Number(math.Mod(a, b)))

	case bytecode.OpNeg:
		n, err := vm.popNumber()
		if err != nil {
			return err
		}
		return vm.stack.Push(Number(-n))

	case bytecode.OpEqual, bytecode.OpNotEqual:
		b, err := vm.stack.Pop()
		if err != nil {
			return err
		}
		a, err := vm.stack.Pop()
		if err != nil {
			return err
		}
		eq := a.Equal(b)
		if op == bytecode.OpNotEqual {
			eq = !eq
		}
		return vm.stack.Push(Bool(eq))

	case bytecode.OpLess:
		return vm.compareNumeric(func(a, b float64) bool { return a < b })

	case bytecode.OpLessEqual:
		return vm.compareNumeric(func(a, b float64) bool { return a <= b })

	case bytecode.OpGreater:
		return vm.compareNumeric(func(a, b float64) bool { return a > b })

	case bytecode.OpGreaterEqual:
		return vm.compareNumeric(func(a, b float64) bool { return a >= b })

	case bytecode.OpJump:
		target, err := vm.readTarget()
		if err != nil {
			return err
		}
		vm.ip = target
		return nil

	case bytecode.OpJumpIf:
		target, err := vm.readTarget()
		if err != nil {
			return err
		}
		cond, err := vm.stack.Pop()
		if err != nil {
			return err
		}
		if cond.Kind != KindBool {
			return common.ErrTypeMismatch
		}
		if cond.Flag {
			vm.ip = target
		}
		return nil

	case bytecode.OpCall:
		// ip is past the 4-byte immediate after readTarget, so returnIP is
		// exactly the post-immediate address Return must restore.
		target, err := vm.readTarget()
		if err != nil {
			return err
		}
		if len(vm.callStack) >= vm.config.MaxCallDepth {
			return common.ErrStackOverflow
		}
		vm.callStack = append(vm.callStack, callFrame{
			returnIP: vm.ip,
			locals:   NewLocals(vm.config.MaxLocals),
		})
		vm.ip = target
		return nil

	case bytecode.OpReturn:
		if len(vm.callStack) == 1 {
			// The root frame persists for the VM's lifetime.
			return common.ErrRuntimeFault
		}
		frame := vm.callStack[len(vm.callStack)-1]
		vm.callStack = vm.callStack[:len(vm.callStack)-1]
		vm.ip = frame.returnIP
		return nil

	case bytecode.OpExternalCall:
		capID, err := vm.readByte()
		if err != nil {
			return err
		}
		argc, err := vm.readByte()
		if err != nil {
			return err
		}
		args := make([]Value, argc)
		for i := int(argc) - 1; i >= 0; i-- {
			v, err := vm.stack.Pop()
			if err != nil {
				return err
			}
			args[i] = v
		}
		if err := vm.caps.Check(capID); err != nil {
			return err
		}
		vm.record(ExternalCallRequest{CapID: capID, Args: args})
		// Suspend. The host drains the request, applies results, and resumes.
		vm.halted = true
		return nil

	default:
		return common.ErrInvalidOpcode(opByte)
	}
}

// record appends a state change to the event buffer.
func (vm *VM) record(c StateChange) {
	vm.changes = append(vm.changes, c)
}

// readByte consumes the next instruction byte.
func (vm *VM) readByte() (byte, error) {
	if vm.ip >= len(vm.instructions) {
		return 0, common.ErrBytecodeTooShort
	}
	b := vm.instructions[vm.ip]
	vm.ip++
	return b, nil
}

// readTarget consumes a 4-byte big-endian absolute offset and bounds-checks
// it against the instruction stream.
func (vm *VM) readTarget() (int, error) {
	if vm.ip+4 > len(vm.instructions) {
		return 0, common.ErrBytecodeTooShort
	}
	target := int(binary.BigEndian.Uint32(vm.instructions[vm.ip:]))
	vm.ip += 4
	if target > len(vm.instructions) {
		return 0, common.ErrInvalidJumpTarget(target)
	}
	return target, nil
}

// popNumber pops the stack top, requiring a Number.
func (vm *VM) popNumber() (float64, error) {
	v, err := vm.stack.Pop()
	if err != nil {
		return 0, err
	}
	if v.Kind != KindNumber {
		return 0, common.ErrTypeMismatch
	}
	return v.Num, nil
}

// binaryNumeric pops b then a and pushes op(a, b) as a Number.
func (vm *VM) binaryNumeric(op func(a, b float64) float64) error {
	b, err := vm.popNumber()
	if err != nil {
		return err
	}
	a, err := vm.popNumber()
	if err != nil {
		return err
	}
	return vm.stack.Push(Number(op(a, b)))
}

// compareNumeric pops b then a and pushes op(a, b) as a Bool. Ordering is
// defined only for Number pairs.
func (vm *VM) compareNumeric(op func(a, b float64) bool) error {
	b, err := vm.popNumber()
	if err != nil {
		return err
	}
	a, err := vm.popNumber()
	if err != nil {
		return err
	}
	return vm.stack.Push(Bool(op(a, b)))
}
