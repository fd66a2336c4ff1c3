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
	"encoding/binary"
	"math"

	"github.com/vyauma/go-vyauma/core/vm"
)

// Encode serializes constants, an instruction stream, and an entry point
// into the byte-exact bundle file format, the inverse of Load. The emitted
// version is VersionMajor.0.0.
func Encode(constants []vm.Value, instructions []byte, entryPoint int) []byte {
	buf := make([]byte, 0, minFileSize+len(instructions)+len(constants)*9)

	buf = appendU32(buf, Magic)
	buf = append(buf, VersionMajor, 0, 0)
	buf = append(buf, 0) // reserved
	buf = appendU32(buf, uint32(entryPoint))

	buf = appendU32(buf, uint32(len(constants)))
	for _, c := range constants {
		buf = appendConstant(buf, c)
	}

	buf = appendU32(buf, uint32(len(instructions)))
	buf = append(buf, instructions...)
	return buf
}

// EncodeBundle serializes a loaded bundle back into file form.
func EncodeBundle(b *Bundle) []byte {
	return Encode(b.Constants, b.Instructions, b.EntryPoint)
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendConstant(buf []byte, c vm.Value) []byte {
	switch c.Kind {
	case vm.KindNull:
		return append(buf, tagNull)
	case vm.KindBool:
		b := byte(0)
		if c.Flag {
			b = 1
		}
		return append(buf, tagBool, b)
	case vm.KindNumber:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(c.Num))
		return append(append(buf, tagNumber), tmp[:]...)
	default:
		buf = append(buf, tagRef)
		return appendU32(buf, c.ID)
	}
}
