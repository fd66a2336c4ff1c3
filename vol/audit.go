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
	"encoding/binary"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/vyauma/go-vyauma/common"
)

// AuditEntry is one recorded policy decision.
type AuditEntry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Cap     uint8     `json:"cap"`
	Outcome string    `json:"outcome"`
	Note    string    `json:"note,omitempty"`
}

// AuditStore is an append-only record of policy decisions. With a path it
// persists to a leveldb database keyed by insertion sequence; without one it
// keeps entries in memory.
type AuditStore struct {
	mu  sync.Mutex
	db  *leveldb.DB
	seq uint64
	mem []AuditEntry
}

// OpenAuditStore opens (or creates) the audit database at path. An empty
// path yields an in-memory store.
func OpenAuditStore(path string) (*AuditStore, error) {
	if path == "" {
		return &AuditStore{}, nil
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, common.ErrIo(err.Error())
	}
	s := &AuditStore{db: db}

	// Resume the sequence counter from the last persisted key.
	it := db.NewIterator(nil, nil)
	if it.Last() {
		s.seq = binary.BigEndian.Uint64(it.Key())
	}
	it.Release()
	if err := it.Error(); err != nil {
		db.Close()
		return nil, common.ErrIo(err.Error())
	}
	return s, nil
}

// Append records one decision.
func (s *AuditStore) Append(cap uint8, outcome, note string) error {
	entry := AuditEntry{
		ID:      uuid.New().String(),
		Time:    time.Now().UTC(),
		Cap:     cap,
		Outcome: outcome,
		Note:    note,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		s.mem = append(s.mem, entry)
		return nil
	}

	s.seq++
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, s.seq)
	blob, err := json.Marshal(entry)
	if err != nil {
		return common.ErrIo(err.Error())
	}
	if err := s.db.Put(key, blob, nil); err != nil {
		return common.ErrIo(err.Error())
	}
	return nil
}

// Entries returns all recorded entries in insertion order.
func (s *AuditStore) Entries() ([]AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		out := make([]AuditEntry, len(s.mem))
		copy(out, s.mem)
		return out, nil
	}

	var out []AuditEntry
	it := s.db.NewIterator(nil, nil)
	for it.Next() {
		var entry AuditEntry
		if err := json.Unmarshal(it.Value(), &entry); err != nil {
			it.Release()
			return nil, common.ErrIo(err.Error())
		}
		out = append(out, entry)
	}
	it.Release()
	if err := it.Error(); err != nil {
		return nil, common.ErrIo(err.Error())
	}
	return out, nil
}

// Close releases the underlying database, if any.
func (s *AuditStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return common.ErrIo(err.Error())
	}
	return nil
}
