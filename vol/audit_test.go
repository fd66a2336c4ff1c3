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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuditStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := OpenAuditStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(42, OutcomeGranted, ""))
	require.NoError(t, store.Append(3, OutcomeDenied, "not in allow-list"))
	require.NoError(t, store.Close())

	// Reopen: entries survive and the sequence continues.
	store, err = OpenAuditStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Append(7, OutcomeGranted, "ttl 1h"))

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, uint8(42), entries[0].Cap)
	require.Equal(t, uint8(3), entries[1].Cap)
	require.Equal(t, uint8(7), entries[2].Cap)
	require.NotEmpty(t, entries[0].ID)
	require.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestAuditStoreInMemory(t *testing.T) {
	store, err := OpenAuditStore("")
	require.NoError(t, err)
	require.NoError(t, store.Append(1, OutcomeGranted, ""))

	entries, err := store.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, store.Close())
}
