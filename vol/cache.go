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
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru"

	"github.com/vyauma/go-vyauma/core/loader"
	"github.com/vyauma/go-vyauma/core/vm"
)

// BundleCache memoizes strict loads keyed by the SHA-256 of the raw bytes,
// so hosts re-running the same program skip re-validation. Hits return a
// copy; callers cannot poison the cached bundle.
type BundleCache struct {
	cache *lru.Cache
}

// NewBundleCache creates a cache holding up to size bundles.
func NewBundleCache(size int) (*BundleCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &BundleCache{cache: c}, nil
}

// Load returns the validated bundle for raw, from cache when possible.
func (c *BundleCache) Load(raw []byte) (*loader.Bundle, error) {
	key := sha256.Sum256(raw)
	if cached, ok := c.cache.Get(key); ok {
		return copyBundle(cached.(*loader.Bundle)), nil
	}
	bundle, err := loader.Load(raw)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, bundle)
	return copyBundle(bundle), nil
}

// Len returns the number of cached bundles.
func (c *BundleCache) Len() int { return c.cache.Len() }

func copyBundle(b *loader.Bundle) *loader.Bundle {
	out := &loader.Bundle{
		Constants:    make([]vm.Value, len(b.Constants)),
		Instructions: make([]byte, len(b.Instructions)),
		Caps:         make([]uint8, len(b.Caps)),
		EntryPoint:   b.EntryPoint,
	}
	copy(out.Constants, b.Constants)
	copy(out.Instructions, b.Instructions)
	copy(out.Caps, b.Caps)
	return out
}
