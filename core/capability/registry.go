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

package capability

import (
	mapset "github.com/deckarep/golang-set"

	"github.com/vyauma/go-vyauma/common"
)

// Registry keeps the set of granted capability ids. A fresh registry denies
// everything; checks fail closed in O(1).
type Registry struct {
	granted mapset.Set
}

// NewRegistry returns an empty (deny-all) registry.
func NewRegistry() *Registry {
	return &Registry{granted: mapset.NewSet()}
}

// Grant adds id to the granted set.
func (r *Registry) Grant(id ID) {
	r.granted.Add(id)
}

// Revoke removes id from the granted set.
func (r *Registry) Revoke(id ID) {
	r.granted.Remove(id)
}

// Granted reports whether id is currently granted.
func (r *Registry) Granted(id ID) bool {
	return r.granted.Contains(id)
}

// Check fails closed with CapabilityDenied unless raw has been granted.
func (r *Registry) Check(raw uint8) error {
	if !r.granted.Contains(ID(raw)) {
		return common.ErrCapabilityDenied
	}
	return nil
}
