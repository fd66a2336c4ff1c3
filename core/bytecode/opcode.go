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

// Package bytecode defines the Vyauma instruction set: stable numeric
// opcodes, immediate encodings, and the decoded instruction form shared by
// the loader's validator and the disassembler.
//
// Instruction encoding is a single opcode byte optionally followed by
// immediates in a fixed layout. Multi-byte immediates are big-endian.
// Opcode values are an eternal contract.
package bytecode

import "fmt"

// OpCode is an 8-bit instruction code for the Vyauma VM.
type OpCode uint8

const (
	// ---- Stack operations --------------------------------------------------

	// OpPush pushes Constants[idx] onto the operand stack.
	// Encoding: [0x01][const-index:u8].
	OpPush OpCode = 0x01
	// OpPop discards the top of the operand stack.
	OpPop OpCode = 0x02
	// OpDup duplicates the top of the operand stack.
	OpDup OpCode = 0x03

	// ---- Local access ------------------------------------------------------

	// OpLoadLocal pushes the current frame's local[idx].
	// Encoding: [0x10][local-index:u8].
	OpLoadLocal OpCode = 0x10
	// OpStoreLocal pops a value into the current frame's local[idx] and
	// records a LocalStore state change.
	// Encoding: [0x11][local-index:u8].
	OpStoreLocal OpCode = 0x11

	// ---- Arithmetic (Number operands, result pushed as Number) -------------

	// OpAdd pops b then a, pushes a+b.
	OpAdd OpCode = 0x20
	// OpSub pops b then a, pushes a-b.
	OpSub OpCode = 0x21
	// OpMul pops b then a, pushes a*b.
	OpMul OpCode = 0x22
	// OpDiv pops b then a, pushes a/b; traps on b == 0.
	OpDiv OpCode = 0x23
	// OpMod pops b then a, pushes math.Mod(a, b); traps on b == 0.
	OpMod OpCode = 0x24
	// OpNeg negates the Number at the top of the stack in place.
	OpNeg OpCode = 0x25

	// ---- Comparison (result pushed as Bool) --------------------------------

	// OpEqual pops two values and pushes their structural equality.
	OpEqual OpCode = 0x30
	// OpNotEqual pops two values and pushes their structural inequality.
	OpNotEqual OpCode = 0x31
	// OpLess pops two Numbers b then a and pushes a < b.
	OpLess OpCode = 0x32
	// OpLessEqual pops two Numbers b then a and pushes a <= b.
	OpLessEqual OpCode = 0x33
	// OpGreater pops two Numbers b then a and pushes a > b.
	OpGreater OpCode = 0x34
	// OpGreaterEqual pops two Numbers b then a and pushes a >= b.
	OpGreaterEqual OpCode = 0x35

	// ---- Control flow ------------------------------------------------------

	// OpJump transfers control to an absolute instruction offset.
	// Encoding: [0x40][target:u32 BE].
	OpJump OpCode = 0x40
	// OpJumpIf pops a Bool condition and jumps when it is true.
	// Encoding: [0x41][target:u32 BE].
	OpJumpIf OpCode = 0x41
	// OpCall pushes a call frame and transfers control to the callee entry.
	// Encoding: [0x42][target:u32 BE].
	OpCall OpCode = 0x42
	// OpReturn pops the current call frame and resumes at its return address.
	OpReturn OpCode = 0x43

	// ---- Host boundary -----------------------------------------------------

	// OpExternalCall pops argc argument values, performs a capability check,
	// records an ExternalCallRequest state change, and suspends the VM.
	// Encoding: [0x50][cap-id:u8][argc:u8].
	OpExternalCall OpCode = 0x50

	// ---- System ------------------------------------------------------------

	// OpNop has no effect.
	OpNop OpCode = 0xF0
	// OpHalt stops execution.
	OpHalt OpCode = 0xFF
)

// opcodeInfo groups the mnemonic and immediate byte count for an opcode.
type opcodeInfo struct {
	name   string
	immLen int
}

// opcodeTable maps every defined opcode to its metadata. Presence in this
// table is what makes an opcode byte valid.
var opcodeTable = map[OpCode]opcodeInfo{
	OpPush:         {"PUSH", 1},
	OpPop:          {"POP", 0},
	OpDup:          {"DUP", 0},
	OpLoadLocal:    {"LOAD_LOCAL", 1},
	OpStoreLocal:   {"STORE_LOCAL", 1},
	OpAdd:          {"ADD", 0},
	OpSub:          {"SUB", 0},
	OpMul:          {"MUL", 0},
	OpDiv:          {"DIV", 0},
	OpMod:          {"MOD", 0},
	OpNeg:          {"NEG", 0},
	OpEqual:        {"EQUAL", 0},
	OpNotEqual:     {"NOT_EQUAL", 0},
	OpLess:         {"LESS", 0},
	OpLessEqual:    {"LESS_EQUAL", 0},
	OpGreater:      {"GREATER", 0},
	OpGreaterEqual: {"GREATER_EQUAL", 0},
	OpJump:         {"JUMP", 4},
	OpJumpIf:       {"JUMP_IF", 4},
	OpCall:         {"CALL", 4},
	OpReturn:       {"RETURN", 0},
	OpExternalCall: {"EXTERNAL_CALL", 2},
	OpNop:          {"NOP", 0},
	OpHalt:         {"HALT", 0},
}

// FromByte converts a raw byte to an opcode. The second return value is
// false for bytes outside the defined set.
func FromByte(b byte) (OpCode, bool) {
	op := OpCode(b)
	_, ok := opcodeTable[op]
	return op, ok
}

// Valid reports whether the opcode is part of the defined set.
func (op OpCode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// String returns the mnemonic name of the opcode, suitable for disassembly
// output and debug messages.
func (op OpCode) String() string {
	info, ok := opcodeTable[op]
	if !ok {
		return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(op))
	}
	return info.name
}

// ImmLen returns the number of immediate bytes following the opcode byte.
func (op OpCode) ImmLen() int {
	return opcodeTable[op].immLen
}

// HasTarget reports whether the opcode's immediate is an absolute control
// transfer target.
func (op OpCode) HasTarget() bool {
	switch op {
	case OpJump, OpJumpIf, OpCall:
		return true
	}
	return false
}
