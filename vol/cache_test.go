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

package vol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vyauma/go-vyauma/core/bytecode"
	"github.com/vyauma/go-vyauma/core/loader"
	"github.com/vyauma/go-vyauma/core/vm"
)

func sampleProgram() []byte {
	return loader.Encode([]vm.Value{vm.Number(1.5)}, []byte{
		byte(bytecode.OpPush), 0,
		byte(bytecode.OpHalt),
	}, 0)
}

func TestBundleCacheHit(t *testing.T) {
	cache, err := NewBundleCache(4)
	require.NoError(t, err)

	raw := sampleProgram()
	first, err := cache.Load(raw)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	second, err := cache.Load(raw)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())
	require.Equal(t, first, second)
}

func TestBundleCacheHitIsACopy(t *testing.T) {
	cache, err := NewBundleCache(4)
	require.NoError(t, err)

	raw := sampleProgram()
	first, err := cache.Load(raw)
	require.NoError(t, err)

	// Mutating a returned bundle must not poison later hits.
	first.Constants[0] = vm.Ref(999)
	first.Instructions[0] = byte(bytecode.OpHalt)

	second, err := cache.Load(raw)
	require.NoError(t, err)
	require.Equal(t, vm.Number(1.5), second.Constants[0])
	require.Equal(t, byte(bytecode.OpPush), second.Instructions[0])
}

func TestBundleCacheRejectsInvalid(t *testing.T) {
	cache, err := NewBundleCache(4)
	require.NoError(t, err)

	_, err = cache.Load([]byte{0x01, 0x02})
	require.Error(t, err)
	require.Equal(t, 0, cache.Len())
}
