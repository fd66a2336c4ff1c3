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

	"github.com/vyauma/go-vyauma/common"
	"github.com/vyauma/go-vyauma/core/bytecode"
	"github.com/vyauma/go-vyauma/core/vm"
)

// newSuspendedVM executes a program that pushes Number(3) and requests
// capability 5 with one argument, leaving the VM suspended.
func newSuspendedVM(t *testing.T) *vm.VM {
	t.Helper()
	machine := vm.New(vm.DefaultConfig(), []vm.Value{vm.Number(3.0)}, []byte{
		byte(bytecode.OpPush), 0,
		byte(bytecode.OpExternalCall), 5, 1,
		byte(bytecode.OpHalt),
	}, 0)
	machine.GrantCapability(5)
	require.NoError(t, machine.Execute())
	require.True(t, machine.Halted())
	return machine
}

func TestConsumeExternalCall(t *testing.T) {
	machine := newSuspendedVM(t)

	handled := false
	handler := func(capID uint8, args []vm.Value) ([]vm.Value, error) {
		handled = true
		require.Equal(t, uint8(5), capID)
		require.Len(t, args, 1)
		require.Equal(t, vm.Number(3.0), args[0])
		return []vm.Value{vm.Number(42.0)}, nil
	}

	require.NoError(t, ConsumeExternalCall(machine, handler))
	require.True(t, handled)
	require.False(t, machine.Halted())

	require.NoError(t, machine.Execute())
	top, err := machine.PeekTop()
	require.NoError(t, err)
	require.Equal(t, vm.Number(42.0), top)
}

func TestConsumeExternalCallSkipsLocalStores(t *testing.T) {
	// StoreLocal precedes the external call; the helper must skip past it.
	machine := vm.New(vm.DefaultConfig(), []vm.Value{vm.Number(1.0)}, []byte{
		byte(bytecode.OpPush), 0,
		byte(bytecode.OpStoreLocal), 0,
		byte(bytecode.OpPush), 0,
		byte(bytecode.OpExternalCall), 9, 1,
		byte(bytecode.OpHalt),
	}, 0)
	machine.GrantCapability(9)
	require.NoError(t, machine.Execute())

	err := ConsumeExternalCall(machine, func(capID uint8, args []vm.Value) ([]vm.Value, error) {
		require.Equal(t, uint8(9), capID)
		return nil, nil
	})
	require.NoError(t, err)
}

func TestConsumeExternalCallWithoutRequest(t *testing.T) {
	machine := vm.New(vm.DefaultConfig(), nil, []byte{byte(bytecode.OpHalt)}, 0)
	require.NoError(t, machine.Execute())

	err := ConsumeExternalCall(machine, func(uint8, []vm.Value) ([]vm.Value, error) {
		t.Fatal("handler invoked with no pending request")
		return nil, nil
	})
	require.ErrorIs(t, err, common.ErrRuntimeFault)
}

func TestConsumeExternalCallHandlerError(t *testing.T) {
	machine := newSuspendedVM(t)

	err := ConsumeExternalCall(machine, func(uint8, []vm.Value) ([]vm.Value, error) {
		return nil, common.ErrSecurityViolation
	})
	require.ErrorIs(t, err, common.ErrSecurityViolation)
	// The VM stays suspended when the handler fails.
	require.True(t, machine.Halted())
}
