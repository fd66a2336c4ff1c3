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

// Package vol contains the host/OS integration layer of go-vyauma: the
// mechanical external-call handoff, the grant policy with its audit trail,
// and a cache for loaded bundles. The VM itself never consults any of this;
// capability checks inside the engine remain plain registry lookups.
package vol

import (
	"github.com/vyauma/go-vyauma/common"
	"github.com/vyauma/go-vyauma/core/vm"
	"github.com/vyauma/go-vyauma/log"
)

// HostHandler is the function shape the host provides to service external
// calls. It receives the capability id and the arguments in call order and
// returns the values to push back onto the VM stack.
type HostHandler func(capID uint8, args []vm.Value) ([]vm.Value, error)

// ConsumeExternalCall drains the VM's state changes and services the first
// ExternalCallRequest found by invoking handler, applying its results, and
// resuming the VM. LocalStore events preceding the request are skipped.
// Calling this when no request is pending is host misuse and fails with
// RuntimeFault.
func ConsumeExternalCall(machine *vm.VM, handler HostHandler) error {
	changes := machine.DrainStateChanges()

	for _, change := range changes {
		req, ok := change.(vm.ExternalCallRequest)
		if !ok {
			continue
		}
		log.Debug("servicing external call", "cap", req.CapID, "argc", len(req.Args))
		results, err := handler(req.CapID, req.Args)
		if err != nil {
			return err
		}
		if err := machine.ApplyExternalResults(results); err != nil {
			return err
		}
		machine.Resume()
		return nil
	}

	return common.ErrRuntimeFault
}
