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
	"fmt"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/naoina/toml"

	"github.com/vyauma/go-vyauma/common"
	"github.com/vyauma/go-vyauma/log"
)

// Audit outcomes recorded by the policy.
const (
	OutcomeGranted = "granted"
	OutcomeDenied  = "denied"
)

// ttlGrant is a time-limited capability grant.
type ttlGrant struct {
	cap    uint8
	expiry time.Time
}

// Policy mediates capability grants on behalf of the host: a static
// allow-list plus optional time-limited grants, with every decision recorded
// to the audit store. The VM never sees this type; the policy decides what
// reaches vm.GrantCapability.
type Policy struct {
	mu        sync.Mutex
	allowList map[uint8]bool
	ttlGrants []ttlGrant
	audit     *AuditStore
}

// NewPolicy creates a policy from an explicit allow-list. The audit store
// may be nil, in which case decisions are only logged.
func NewPolicy(allow []uint8, audit *AuditStore) *Policy {
	set := make(map[uint8]bool, len(allow))
	for _, c := range allow {
		set[c] = true
	}
	return &Policy{allowList: set, audit: audit}
}

// Allows reports whether cap is currently permitted, by active TTL grant or
// by the allow-list, and records the decision.
func (p *Policy) Allows(cap uint8) bool {
	p.mu.Lock()
	allowed := p.grantedByTTL(cap) || p.allowList[cap]
	p.mu.Unlock()

	outcome := OutcomeDenied
	if allowed {
		outcome = OutcomeGranted
	}
	p.record(cap, outcome, "")
	return allowed
}

// GrantTTL adds a time-limited grant for cap lasting d from now.
func (p *Policy) GrantTTL(cap uint8, d time.Duration) {
	p.mu.Lock()
	p.ttlGrants = append(p.ttlGrants, ttlGrant{cap: cap, expiry: time.Now().Add(d)})
	p.mu.Unlock()
	p.record(cap, OutcomeGranted, fmt.Sprintf("ttl %s", d))
}

// grantedByTTL reports whether an unexpired TTL grant covers cap.
// Callers hold p.mu.
func (p *Policy) grantedByTTL(cap uint8) bool {
	now := time.Now()
	for _, g := range p.ttlGrants {
		if g.cap == cap && g.expiry.After(now) {
			return true
		}
	}
	return false
}

// record appends an audit entry for a decision.
func (p *Policy) record(cap uint8, outcome, note string) {
	if p.audit != nil {
		if err := p.audit.Append(cap, outcome, note); err != nil {
			log.Warn("audit append failed", "cap", cap, "err", err)
		}
	}
	log.Debug("policy decision", "cap", cap, "outcome", outcome)
}

// PolicyConfig is the on-disk policy section of a TOML config file:
//
//	[Policy]
//	Allow = [1, 2, 42]
//	AuditPath = "audit.db"
type PolicyConfig struct {
	Allow     []uint8
	AuditPath string
}

// tomlSettings ensures that TOML keys use the same names as Go struct
// fields, and that unknown fields are reported rather than dropped.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// policyFile is the root of a standalone policy file.
type policyFile struct {
	Policy PolicyConfig
}

// LoadPolicyConfig reads a policy section from a TOML file.
func LoadPolicyConfig(path string) (*PolicyConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.ErrIo(err.Error())
	}
	defer f.Close()

	var file policyFile
	if err := tomlSettings.NewDecoder(f).Decode(&file); err != nil {
		return nil, common.ErrIo(err.Error())
	}
	return &file.Policy, nil
}
