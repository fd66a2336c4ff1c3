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

package bytecode

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/vyauma/go-vyauma/common"
)

// Instruction is one decoded instruction of a flat bytecode stream.
// Offsets, not indices, identify instructions: jump and call immediates are
// absolute byte offsets into the stream.
type Instruction struct {
	Offset int    // byte offset of the opcode within the stream
	Op     OpCode // decoded opcode
	ImmLen int    // immediate byte count following the opcode

	// Target is the absolute control-transfer target for Jump/JumpIf/Call.
	// Valid only when Op.HasTarget().
	Target int

	// CapID and Argc carry the ExternalCall immediates.
	// Valid only when Op == OpExternalCall.
	CapID byte
	Argc  byte

	// Imm carries the single-byte immediate of Push/LoadLocal/StoreLocal.
	Imm byte
}

// Decode linearly decodes a complete instruction stream from offset 0.
// It returns ErrInvalidOpcode for an unknown opcode byte and
// ErrMalformedBytecode when the stream is truncated mid-instruction.
func Decode(instructions []byte) ([]Instruction, error) {
	var out []Instruction
	idx := 0
	for idx < len(instructions) {
		offset := idx
		op, ok := FromByte(instructions[idx])
		if !ok {
			return nil, common.ErrInvalidOpcode(instructions[idx])
		}
		idx++

		immLen := op.ImmLen()
		if idx+immLen > len(instructions) {
			return nil, common.ErrMalformedBytecode
		}

		in := Instruction{Offset: offset, Op: op, ImmLen: immLen}
		switch {
		case op.HasTarget():
			in.Target = int(binary.BigEndian.Uint32(instructions[idx:]))
		case op == OpExternalCall:
			in.CapID = instructions[idx]
			in.Argc = instructions[idx+1]
		case immLen == 1:
			in.Imm = instructions[idx]
		}
		idx += immLen
		out = append(out, in)
	}
	return out, nil
}

// Disassemble returns a human-readable listing of the instruction stream,
// one instruction per line.
func Disassemble(instructions []byte) (string, error) {
	decoded, err := Decode(instructions)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, in := range decoded {
		fmt.Fprintf(&b, "%s\n", FormatInstruction(in))
	}
	return b.String(), nil
}

// FormatInstruction renders a single decoded instruction as
// "[offset] MNEMONIC operands".
func FormatInstruction(in Instruction) string {
	switch {
	case in.Op.HasTarget():
		return fmt.Sprintf("[%04d] %-14s %d", in.Offset, in.Op, in.Target)
	case in.Op == OpExternalCall:
		return fmt.Sprintf("[%04d] %-14s cap=0x%02X argc=%d", in.Offset, in.Op, in.CapID, in.Argc)
	case in.ImmLen == 1:
		return fmt.Sprintf("[%04d] %-14s %d", in.Offset, in.Op, in.Imm)
	default:
		return fmt.Sprintf("[%04d] %s", in.Offset, in.Op)
	}
}
