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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPolicyAllowList(t *testing.T) {
	audit, err := OpenAuditStore("")
	require.NoError(t, err)
	p := NewPolicy([]uint8{1, 2, 42}, audit)

	require.True(t, p.Allows(42))
	require.False(t, p.Allows(3))

	entries, err := audit.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, OutcomeGranted, entries[0].Outcome)
	require.Equal(t, uint8(42), entries[0].Cap)
	require.Equal(t, OutcomeDenied, entries[1].Outcome)
	require.Equal(t, uint8(3), entries[1].Cap)
}

func TestPolicyTTLGrant(t *testing.T) {
	p := NewPolicy(nil, nil)
	require.False(t, p.Allows(7))

	p.GrantTTL(7, time.Hour)
	require.True(t, p.Allows(7))
	require.False(t, p.Allows(8))
}

func TestPolicyTTLGrantExpires(t *testing.T) {
	p := NewPolicy(nil, nil)
	p.GrantTTL(7, -time.Second)
	require.False(t, p.Allows(7))
}

func TestLoadPolicyConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	content := "[Policy]\nAllow = [1, 2, 42]\nAuditPath = \"audit.db\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadPolicyConfig(path)
	require.NoError(t, err)
	require.Equal(t, []uint8{1, 2, 42}, cfg.Allow)
	require.Equal(t, "audit.db", cfg.AuditPath)
}

func TestLoadPolicyConfigMissingFile(t *testing.T) {
	_, err := LoadPolicyConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
