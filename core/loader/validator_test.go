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

package loader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vyauma/go-vyauma/common"
	"github.com/vyauma/go-vyauma/core/bytecode"
)

func TestValidatorRejectsDupOnEmptyStack(t *testing.T) {
	_, err := analyzeInstructions(ins(bytecode.OpDup))
	require.ErrorIs(t, err, common.ErrMalformedBytecode)
}

func TestValidatorRejectsArithmeticUnderflow(t *testing.T) {
	// One operand where two are needed.
	stream := program(
		ins(bytecode.OpPush, 0),
		ins(bytecode.OpAdd),
		ins(bytecode.OpHalt),
	)
	_, err := analyzeInstructions(stream)
	require.ErrorIs(t, err, common.ErrMalformedBytecode)
}

func TestValidatorRejectsJumpIfWithoutCondition(t *testing.T) {
	stream := program(
		insTarget(bytecode.OpJumpIf, 5),
		ins(bytecode.OpHalt),
	)
	_, err := analyzeInstructions(stream)
	require.ErrorIs(t, err, common.ErrMalformedBytecode)
}

func TestValidatorRejectsInvalidJumpTarget(t *testing.T) {
	// Target 3 is inside the Jump's own immediate.
	stream := program(
		insTarget(bytecode.OpJump, 3),
		ins(bytecode.OpHalt),
	)
	_, err := analyzeInstructions(stream)
	require.ErrorIs(t, err, common.ErrInvalidJumpTarget(3))
}

func TestValidatorAcceptsBalancedBranch(t *testing.T) {
	//  0: Push
	//  2: JumpIf -> 8
	//  7: Nop
	//  8: Halt
	stream := program(
		ins(bytecode.OpPush, 0),
		insTarget(bytecode.OpJumpIf, 8),
		ins(bytecode.OpNop),
		ins(bytecode.OpHalt),
	)
	_, err := analyzeInstructions(stream)
	require.NoError(t, err)
}

func TestValidatorMergesBranchHeightsByMinimum(t *testing.T) {
	// The two paths reach offset 10 at heights 1 and 0; the merged minimum
	// makes the final Pop underflow.
	//
	//  0: Push
	//  2: Push
	//  4: JumpIf -> 10    (taken: height 1 at 10)
	//  9: Pop             (fallthrough: height 0 at 10)
	// 10: Pop
	// 11: Halt
	stream := program(
		ins(bytecode.OpPush, 0),
		ins(bytecode.OpPush, 0),
		insTarget(bytecode.OpJumpIf, 10),
		ins(bytecode.OpPop),
		ins(bytecode.OpPop),
		ins(bytecode.OpHalt),
	)
	_, err := analyzeInstructions(stream)
	require.ErrorIs(t, err, common.ErrMalformedBytecode)
}

func TestValidatorAcceptsLoop(t *testing.T) {
	//  0: Push            (condition)
	//  2: JumpIf -> 0     (loop back at height 0)
	//  7: Halt
	stream := program(
		ins(bytecode.OpPush, 0),
		insTarget(bytecode.OpJumpIf, 0),
		ins(bytecode.OpHalt),
	)
	_, err := analyzeInstructions(stream)
	require.NoError(t, err)
}

// ---- Callee summarization --------------------------------------------------

func TestValidatorAcceptsSimpleCallee(t *testing.T) {
	//  0: Call -> 6
	//  5: Halt
	//  6: Push            (callee: net +0)
	//  8: Pop
	//  9: Return
	stream := program(
		insTarget(bytecode.OpCall, 6),
		ins(bytecode.OpHalt),
		ins(bytecode.OpPush, 0),
		ins(bytecode.OpPop),
		ins(bytecode.OpReturn),
	)
	caps, err := analyzeInstructions(stream)
	require.NoError(t, err)
	require.Empty(t, caps)
}

func TestValidatorAppliesPositiveCalleeSummary(t *testing.T) {
	//  0: Call -> 7       (callee pushes one value: net +1)
	//  5: Pop             (consumes the callee result)
	//  6: Halt
	//  7: Push
	//  9: Return
	stream := program(
		insTarget(bytecode.OpCall, 7),
		ins(bytecode.OpPop),
		ins(bytecode.OpHalt),
		ins(bytecode.OpPush, 0),
		ins(bytecode.OpReturn),
	)
	_, err := analyzeInstructions(stream)
	require.NoError(t, err)
}

func TestValidatorRejectsCalleeWithExternalCall(t *testing.T) {
	// ExternalCall inside a callee has no static summary; the Call site must
	// be rejected.
	//
	//  0: Call -> 6
	//  5: Halt
	//  6: Push
	//  8: ExternalCall cap=1 argc=1
	// 11: Return
	stream := program(
		insTarget(bytecode.OpCall, 6),
		ins(bytecode.OpHalt),
		ins(bytecode.OpPush, 0),
		ins(bytecode.OpExternalCall, 1, 1),
		ins(bytecode.OpReturn),
	)
	_, err := analyzeInstructions(stream)
	require.ErrorIs(t, err, common.ErrMalformedBytecode)
}

func TestValidatorRejectsCalleeWithInconsistentReturns(t *testing.T) {
	// One Return at height 1, another at height 0: no simple summary.
	//
	//  0: Call -> 6
	//  5: Halt
	//  6: Push            (condition for the branch)
	//  8: JumpIf -> 16
	// 13: Push
	// 15: Return          (height 1)
	// 16: Return          (height 0)
	stream := program(
		insTarget(bytecode.OpCall, 6),
		ins(bytecode.OpHalt),
		ins(bytecode.OpPush, 0),
		insTarget(bytecode.OpJumpIf, 16),
		ins(bytecode.OpPush, 0),
		ins(bytecode.OpReturn),
		ins(bytecode.OpReturn),
	)
	_, err := analyzeInstructions(stream)
	require.ErrorIs(t, err, common.ErrMalformedBytecode)
}

func TestValidatorAcceptsMutuallyRecursiveCallees(t *testing.T) {
	// Two callees that each push, pop, call the other, and return at height
	// 0. Neither can be summarized alone; the fallback resolves the group.
	//
	//  0: Push            (A)
	//  2: Pop
	//  3: Call -> 9
	//  8: Return
	//  9: Push            (B)
	// 11: Pop
	// 12: Call -> 0
	// 17: Return
	// 18: Halt
	stream := program(
		ins(bytecode.OpPush, 0),
		ins(bytecode.OpPop),
		insTarget(bytecode.OpCall, 9),
		ins(bytecode.OpReturn),
		ins(bytecode.OpPush, 0),
		ins(bytecode.OpPop),
		insTarget(bytecode.OpCall, 0),
		ins(bytecode.OpReturn),
		ins(bytecode.OpHalt),
	)
	_, err := analyzeInstructions(stream)
	require.NoError(t, err)
}

func TestValidatorRejectsUnresolvableRecursion(t *testing.T) {
	// A pushes before calling B and returns at height 1; B returns at 0.
	// The zero-delta placeholder cannot make the group consistent.
	//
	//  0: Push            (A)
	//  2: Call -> 8
	//  7: Return          (A returns at height 1)
	//  8: Pop             (B: pops A's value, underflow at entry height 0)
	//  9: Call -> 0
	// 14: Return
	// 15: Halt
	stream := program(
		ins(bytecode.OpPush, 0),
		insTarget(bytecode.OpCall, 8),
		ins(bytecode.OpReturn),
		ins(bytecode.OpPop),
		insTarget(bytecode.OpCall, 0),
		ins(bytecode.OpReturn),
		ins(bytecode.OpHalt),
	)
	_, err := analyzeInstructions(stream)
	require.ErrorIs(t, err, common.ErrMalformedBytecode)
}

func TestValidatorCollectsCapsOnMainPath(t *testing.T) {
	// Caps are collected on the reachable main path.
	//
	//  0: Push
	//  2: ExternalCall cap=0x2A argc=1
	//  5: Halt
	stream := program(
		ins(bytecode.OpPush, 0),
		ins(bytecode.OpExternalCall, 0x2A, 1),
		ins(bytecode.OpHalt),
	)
	caps, err := analyzeInstructions(stream)
	require.NoError(t, err)
	require.Equal(t, []uint8{0x2A}, caps)
}
