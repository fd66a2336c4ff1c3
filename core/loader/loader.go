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

// Package loader parses and validates Vyauma bytecode bundles.
//
// Loading is all-or-nothing: either the full, statically validated bundle is
// returned, or an error, with no side effects. The validator performs a
// CFG-based stack-height analysis with interprocedural callee summarization,
// so that accepted bundles cannot underflow the operand stack on any
// reachable path.
package loader

import (
	"encoding/binary"
	"math"

	mapset "github.com/deckarep/golang-set"

	"github.com/vyauma/go-vyauma/common"
	"github.com/vyauma/go-vyauma/core/bytecode"
	"github.com/vyauma/go-vyauma/core/vm"
	"github.com/vyauma/go-vyauma/log"
)

const (
	// Magic is the bytecode file magic, "VYMA".
	Magic uint32 = 0x5659_4D41

	// VersionMajor is the supported bytecode major version. Minor and patch
	// are ignored for compatibility.
	VersionMajor uint8 = 1

	// minFileSize is the fixed header size up to and including constant_count.
	minFileSize = 16
)

// Constant tag bytes of the bytecode file format.
const (
	tagNull   byte = 0x00
	tagBool   byte = 0x01
	tagNumber byte = 0x02
	tagRef    byte = 0xFF
)

// Bundle is the loader output: an immutable program ready for VM
// construction.
type Bundle struct {
	Constants    []vm.Value
	Instructions []byte
	EntryPoint   int

	// Caps is the sorted set of capability ids syntactically referenced by
	// ExternalCall instructions.
	Caps []uint8
}

// Load parses and strictly validates a bytecode file.
func Load(bytes []byte) (*Bundle, error) {
	if len(bytes) < minFileSize {
		return nil, common.ErrBytecodeTooShort
	}

	r := &reader{buf: bytes}

	magic, err := r.u32()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, common.ErrInvalidMagicNumber
	}

	major, err := r.u8()
	if err != nil {
		return nil, err
	}
	if _, err := r.u8(); err != nil { // minor
		return nil, err
	}
	if _, err := r.u8(); err != nil { // patch
		return nil, err
	}
	if major != VersionMajor {
		return nil, common.ErrInvalidBytecodeVersion
	}
	if _, err := r.u8(); err != nil { // reserved
		return nil, err
	}

	entryPoint, err := r.u32()
	if err != nil {
		return nil, err
	}

	constantCount, err := r.u32()
	if err != nil {
		return nil, err
	}
	constants := make([]vm.Value, 0, constantCount)
	for i := uint32(0); i < constantCount; i++ {
		c, err := r.constant()
		if err != nil {
			return nil, err
		}
		constants = append(constants, c)
	}

	instructions, err := r.instructions()
	if err != nil {
		return nil, err
	}

	caps, err := analyzeInstructions(instructions)
	if err != nil {
		return nil, err
	}

	log.Debug("loaded bytecode bundle",
		"constants", len(constants), "instructions", len(instructions),
		"entry", entryPoint, "caps", len(caps))

	return &Bundle{
		Constants:    constants,
		Instructions: instructions,
		EntryPoint:   int(entryPoint),
		Caps:         caps,
	}, nil
}

// LoadWithOptIn loads strictly, and when that fails and allowOptIn is set,
// falls back to a best-effort parse that still enforces header correctness,
// constant encoding, and per-instruction immediate lengths, but skips the
// CFG and stack-height validation. The returned bool reports whether the
// lenient path was taken, so the host can surface a warning.
func LoadWithOptIn(bytes []byte, allowOptIn bool) (*Bundle, bool, error) {
	bundle, strictErr := Load(bytes)
	if strictErr == nil {
		return bundle, false, nil
	}
	if !allowOptIn {
		return nil, false, strictErr
	}

	r := &reader{buf: bytes}

	magic, err := r.u32()
	if err != nil {
		return nil, false, err
	}
	if magic != Magic {
		return nil, false, common.ErrInvalidMagicNumber
	}
	major, err := r.u8()
	if err != nil {
		return nil, false, err
	}
	if _, err := r.u8(); err != nil {
		return nil, false, err
	}
	if _, err := r.u8(); err != nil {
		return nil, false, err
	}
	if major != VersionMajor {
		return nil, false, common.ErrInvalidBytecodeVersion
	}
	if _, err := r.u8(); err != nil {
		return nil, false, err
	}

	entryPoint, err := r.u32()
	if err != nil {
		return nil, false, err
	}

	constantCount, err := r.u32()
	if err != nil {
		return nil, false, err
	}
	constants := make([]vm.Value, 0, constantCount)
	for i := uint32(0); i < constantCount; i++ {
		c, err := r.constant()
		if err != nil {
			return nil, false, err
		}
		constants = append(constants, c)
	}

	instructions, err := r.instructions()
	if err != nil {
		return nil, false, err
	}

	caps, err := weakScanForCaps(instructions)
	if err != nil {
		return nil, false, err
	}

	log.Warn("strict bytecode validation failed, using lenient opt-in parse",
		"err", strictErr)

	return &Bundle{
		Constants:    constants,
		Instructions: instructions,
		EntryPoint:   int(entryPoint),
		Caps:         caps,
	}, true, nil
}

// CollectCaps loads the bytecode strictly and returns the capability ids its
// instruction stream references.
func CollectCaps(bytes []byte) ([]uint8, error) {
	bundle, err := Load(bytes)
	if err != nil {
		return nil, err
	}
	return bundle.Caps, nil
}

// weakScanForCaps checks opcode validity and immediate lengths only, and
// collects ExternalCall capability ids. No CFG or stack-height validation.
func weakScanForCaps(instructions []byte) ([]uint8, error) {
	decoded, err := bytecode.Decode(instructions)
	if err != nil {
		return nil, err
	}
	caps := mapset.NewSet()
	for _, in := range decoded {
		if in.Op == bytecode.OpExternalCall {
			caps.Add(in.CapID)
		}
	}
	return sortedCaps(caps), nil
}

// reader is a cursor over the raw bytecode file.
type reader struct {
	buf    []byte
	cursor int
}

func (r *reader) u8() (uint8, error) {
	if r.cursor >= len(r.buf) {
		return 0, common.ErrBytecodeTooShort
	}
	v := r.buf[r.cursor]
	r.cursor++
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.cursor+4 > len(r.buf) {
		return 0, common.ErrBytecodeTooShort
	}
	v := binary.BigEndian.Uint32(r.buf[r.cursor:])
	r.cursor += 4
	return v, nil
}

func (r *reader) f64() (float64, error) {
	if r.cursor+8 > len(r.buf) {
		return 0, common.ErrBytecodeTooShort
	}
	bits := binary.BigEndian.Uint64(r.buf[r.cursor:])
	r.cursor += 8
	return math.Float64frombits(bits), nil
}

// constant reads one tagged constant.
func (r *reader) constant() (vm.Value, error) {
	tag, err := r.u8()
	if err != nil {
		return vm.Value{}, err
	}
	switch tag {
	case tagNull:
		return vm.Null(), nil
	case tagBool:
		b, err := r.u8()
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Bool(b != 0), nil
	case tagNumber:
		n, err := r.f64()
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Number(n), nil
	case tagRef:
		id, err := r.u32()
		if err != nil {
			return vm.Value{}, err
		}
		return vm.Ref(id), nil
	default:
		return vm.Value{}, common.ErrMalformedBytecode
	}
}

// instructions reads the length-prefixed instruction stream.
func (r *reader) instructions() ([]byte, error) {
	length, err := r.u32()
	if err != nil {
		return nil, err
	}
	if r.cursor+int(length) > len(r.buf) {
		return nil, common.ErrBytecodeTooShort
	}
	out := make([]byte, length)
	copy(out, r.buf[r.cursor:r.cursor+int(length)])
	r.cursor += int(length)
	return out, nil
}
