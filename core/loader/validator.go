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
	"sort"

	mapset "github.com/deckarep/golang-set"

	"github.com/vyauma/go-vyauma/common"
	"github.com/vyauma/go-vyauma/core/bytecode"
)

// analyzeInstructions runs the CFG-based stack-height validation over a
// decoded instruction stream and returns the sorted set of capability ids
// referenced at ExternalCall sites.
//
// The analysis is conservative: merge points take the minimum height of the
// joining paths, and a Call whose callee has no simple net-delta summary is
// rejected outright. A false reject is always preferred over an unsafe
// accept.
func analyzeInstructions(instructions []byte) ([]uint8, error) {
	// Pass 1: linear decode. Unknown opcodes and mid-instruction truncation
	// are rejected here.
	decoded, err := bytecode.Decode(instructions)
	if err != nil {
		return nil, err
	}
	if len(decoded) == 0 {
		return nil, nil
	}

	g, err := buildCFG(decoded)
	if err != nil {
		return nil, err
	}

	summaries := summarizeCallees(g)

	return globalDataflow(g, summaries)
}

// cfg is the control-flow graph over decoded instructions. Instructions are
// identified by index into decoded; succs holds successor indices.
type cfg struct {
	decoded []bytecode.Instruction
	succs   [][]int

	// offsetToIdx maps an instruction's byte offset to its index.
	offsetToIdx map[int]int

	// callTargets is the sorted set of byte offsets targeted by any Call.
	callTargets []int
}

// buildCFG computes the successor sets of every instruction (pass 2).
// Any Jump/JumpIf/Call target that is not the start of a decoded
// instruction fails with InvalidJumpTarget.
func buildCFG(decoded []bytecode.Instruction) (*cfg, error) {
	offsetToIdx := make(map[int]int, len(decoded))
	for i, in := range decoded {
		offsetToIdx[in.Offset] = i
	}

	succs := make([][]int, len(decoded))
	targets := make(map[int]bool)
	for i, in := range decoded {
		next := -1
		if i+1 < len(decoded) {
			next = i + 1
		}

		switch in.Op {
		case bytecode.OpHalt, bytecode.OpNop:
			// No successors.

		case bytecode.OpJump:
			t, ok := offsetToIdx[in.Target]
			if !ok {
				return nil, common.ErrInvalidJumpTarget(in.Target)
			}
			succs[i] = append(succs[i], t)

		case bytecode.OpJumpIf:
			t, ok := offsetToIdx[in.Target]
			if !ok {
				return nil, common.ErrInvalidJumpTarget(in.Target)
			}
			succs[i] = append(succs[i], t)
			if next >= 0 {
				succs[i] = append(succs[i], next)
			}

		case bytecode.OpCall:
			// The fall-through edge represents the return site, so that
			// intraprocedural dataflow can reach the callee's Return nodes.
			t, ok := offsetToIdx[in.Target]
			if !ok {
				return nil, common.ErrInvalidJumpTarget(in.Target)
			}
			succs[i] = append(succs[i], t)
			if next >= 0 {
				succs[i] = append(succs[i], next)
			}
			targets[in.Target] = true

		case bytecode.OpReturn:
			// Terminates the region; no successors.

		default:
			if next >= 0 {
				succs[i] = append(succs[i], next)
			}
		}
	}

	callTargets := make([]int, 0, len(targets))
	for t := range targets {
		callTargets = append(callTargets, t)
	}
	sort.Ints(callTargets)

	return &cfg{
		decoded:     decoded,
		succs:       succs,
		offsetToIdx: offsetToIdx,
		callTargets: callTargets,
	}, nil
}

// summarizeCallees computes net stack-delta summaries for call targets
// (pass 3). The first fixed point only accepts callees whose nested calls
// are already summarized; the second, the mutual-recursion fallback, treats
// calls between still-pending targets as zero-delta placeholders so that
// strongly-connected call groups can resolve consistently.
func summarizeCallees(g *cfg) map[int]int {
	summaries := make(map[int]int)
	pending := make(map[int]bool, len(g.callTargets))
	for _, t := range g.callTargets {
		pending[t] = true
	}

	run := func(allowPending bool) {
		for progress := true; progress; {
			progress = false
			for _, target := range g.callTargets {
				if !pending[target] {
					continue
				}
				var pendingSet map[int]bool
				if allowPending {
					pendingSet = pending
				}
				delta, ok := summarizeCallee(g, g.offsetToIdx[target], summaries, pendingSet)
				if ok {
					summaries[target] = delta
					delete(pending, target)
					progress = true
				}
			}
		}
	}

	run(false)
	if len(pending) > 0 {
		run(true)
	}
	return summaries
}

// summarizeCallee runs a breadth-first local dataflow from the callee entry
// at relative height 0 and collects the heights at every reachable Return.
// A summary exists when at least one Return is reached, all Return heights
// agree, and no instruction made the attempt complex: an operation at
// insufficient height, an ExternalCall (its results depend on host input),
// or a nested Call without a usable summary.
func summarizeCallee(g *cfg, entry int, summaries map[int]int, pending map[int]bool) (int, bool) {
	heights := make([]int, len(g.decoded))
	visited := make([]bool, len(g.decoded))
	heights[entry] = 0
	visited[entry] = true
	queue := []int{entry}

	var returnHeights []int
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		in := g.decoded[i]
		h := heights[i]

		var nh int
		switch in.Op {
		case bytecode.OpExternalCall:
			return 0, false

		case bytecode.OpCall:
			if delta, ok := summaries[in.Target]; ok {
				nh = h + delta
			} else if pending != nil && pending[in.Target] {
				// Intra-group call: assume no net change for this attempt.
				nh = h
			} else {
				return 0, false
			}

		case bytecode.OpReturn:
			returnHeights = append(returnHeights, h)
			continue

		default:
			var ok bool
			nh, ok = applyStackEffect(in, h)
			if !ok {
				return 0, false
			}
		}

		for _, s := range g.succs[i] {
			if !visited[s] {
				visited[s] = true
				heights[s] = nh
				queue = append(queue, s)
			} else if nh < heights[s] {
				heights[s] = nh
				queue = append(queue, s)
			}
		}
	}

	if len(returnHeights) == 0 {
		return 0, false
	}
	first := returnHeights[0]
	for _, h := range returnHeights[1:] {
		if h != first {
			return 0, false
		}
	}
	return first, true
}

// globalDataflow runs the whole-program worklist pass (pass 4) from
// instruction 0 at height 0, applying summaries at Call sites and recording
// ExternalCall capability ids.
func globalDataflow(g *cfg, summaries map[int]int) ([]uint8, error) {
	heights := make([]int, len(g.decoded))
	visited := make([]bool, len(g.decoded))
	visited[0] = true
	work := []int{0}

	caps := mapset.NewSet()

	for len(work) > 0 {
		i := work[0]
		work = work[1:]
		in := g.decoded[i]
		h := heights[i]

		var nh int
		switch in.Op {
		case bytecode.OpExternalCall:
			if int(in.Argc) > h {
				return nil, common.ErrMalformedBytecode
			}
			caps.Add(in.CapID)
			nh = h - int(in.Argc)

		case bytecode.OpCall:
			delta, ok := summaries[in.Target]
			if !ok {
				// No simple summary survived the fallback; reject rather
				// than propagate an unknown height.
				return nil, common.ErrMalformedBytecode
			}
			nh = h + delta

		case bytecode.OpReturn:
			// Heights across Return boundaries are handled through callee
			// summaries, not through CFG edges.
			continue

		default:
			var ok bool
			nh, ok = applyStackEffect(in, h)
			if !ok {
				return nil, common.ErrMalformedBytecode
			}
		}

		for _, s := range g.succs[i] {
			if !visited[s] {
				visited[s] = true
				heights[s] = nh
				work = append(work, s)
			} else if nh < heights[s] {
				// Merge by minimum. The lower height re-propagates and may
				// cause a later rejection; that asymmetry is deliberate.
				heights[s] = nh
				work = append(work, s)
			}
		}
	}

	return sortedCaps(caps), nil
}

// applyStackEffect returns the stack height after in executes, or ok=false
// when the current height is insufficient for the operation. Call, Return,
// and ExternalCall are handled by the callers.
func applyStackEffect(in bytecode.Instruction, h int) (int, bool) {
	switch in.Op {
	case bytecode.OpPush, bytecode.OpLoadLocal:
		return h + 1, true
	case bytecode.OpDup:
		if h < 1 {
			return 0, false
		}
		return h + 1, true
	case bytecode.OpPop, bytecode.OpStoreLocal:
		if h < 1 {
			return 0, false
		}
		return h - 1, true
	case bytecode.OpNeg:
		if h < 1 {
			return 0, false
		}
		return h, true
	case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod,
		bytecode.OpEqual, bytecode.OpNotEqual, bytecode.OpLess, bytecode.OpLessEqual,
		bytecode.OpGreater, bytecode.OpGreaterEqual:
		if h < 2 {
			return 0, false
		}
		return h - 1, true
	case bytecode.OpJumpIf:
		// Consumes the condition.
		if h < 1 {
			return 0, false
		}
		return h - 1, true
	default:
		// Jump, Nop, Halt.
		return h, true
	}
}

// sortedCaps flattens a capability id set into a sorted slice for
// deterministic bundle output.
func sortedCaps(set mapset.Set) []uint8 {
	out := make([]uint8, 0, set.Cardinality())
	for v := range set.Iter() {
		out = append(out, v.(uint8))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
