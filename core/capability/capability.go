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

// Package capability defines capability identifiers and the deny-by-default
// registry the VM consults on every external call. Ids are numeric and
// small; policy lives with the host, not here.
package capability

// ID tokenizes permission for one external-call class. The value space is
// deliberately 8-bit and stable.
type ID uint8
