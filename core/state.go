package core

// State is the authoritative key-value store (§3, §4.2): a nested mapping
// namespace -> key -> JSON value, guarded by a single mutex. Each contract
// owns exactly one namespace named after the contract.
//
// Grounded on the teacher's Ledger state helpers (core/ledger.go's
// GetState/SetState/HasState/DeleteState/PrefixIterator, all under one
// l.mu and returning defensive copies), narrowed from byte values to a
// two-level namespace/key map since this node's state is contract-scoped
// rather than a single flat keyspace.

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// State holds the full nested state map under one RWMutex.
type State struct {
	mu     sync.RWMutex
	data   map[string]map[string]json.RawMessage
	logger *logrus.Logger
}

// NewState constructs an empty state store.
func NewState(logger *logrus.Logger) *State {
	return &State{data: make(map[string]map[string]json.RawMessage), logger: logger}
}

func (s *State) namespace(ns string) map[string]json.RawMessage {
	m, ok := s.data[ns]
	if !ok {
		m = make(map[string]json.RawMessage)
		s.data[ns] = m
	}
	return m
}

// Get reads a key from a namespace. The returned bytes are a copy.
func (s *State) Get(ns, key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[ns][key]
	if !ok {
		return nil, false
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out, true
}

// Set writes a key within a namespace.
func (s *State) Set(ns, key string, value json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cpy := make(json.RawMessage, len(value))
	copy(cpy, value)
	s.namespace(ns)[key] = cpy
}

// Has reports whether a key exists within a namespace.
func (s *State) Has(ns, key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[ns][key]
	return ok
}

// Delete removes a key from a namespace.
func (s *State) Delete(ns, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[ns], key)
}

// Snapshot returns a deep, JSON-serializable copy of the full state store,
// keyed deterministically for §4.8's state.json artifact.
func (s *State) Snapshot() map[string]map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]json.RawMessage, len(s.data))
	for ns, kv := range s.data {
		nsCopy := make(map[string]json.RawMessage, len(kv))
		for k, v := range kv {
			cpy := make(json.RawMessage, len(v))
			copy(cpy, v)
			nsCopy[k] = cpy
		}
		out[ns] = nsCopy
	}
	return out
}

// Namespaces returns the registered namespace names in sorted order, mostly
// useful for deterministic iteration in tests and logging.
func (s *State) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for ns := range s.data {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// MutableView confines reads and writes to a single namespace; it is what a
// Contract.Call implementation receives.
type MutableView struct {
	ns string
	st *State
}

func (v *MutableView) Get(key string) (json.RawMessage, bool) { return v.st.Get(v.ns, key) }
func (v *MutableView) Set(key string, value json.RawMessage)  { v.st.Set(v.ns, key, value) }
func (v *MutableView) Has(key string) bool                    { return v.st.Has(v.ns, key) }
func (v *MutableView) Delete(key string)                      { v.st.Delete(v.ns, key) }

// QueryView is the read-only counterpart passed to Contract.Query.
type QueryView struct {
	ns string
	st *State
}

func (v *QueryView) Get(key string) (json.RawMessage, bool) { return v.st.Get(v.ns, key) }
func (v *QueryView) Has(key string) bool                     { return v.st.Has(v.ns, key) }

// ViewMut returns a namespace-confined mutable view.
func (s *State) ViewMut(ns string) *MutableView { return &MutableView{ns: ns, st: s} }

// ViewQuery returns a namespace-confined read-only view.
func (s *State) ViewQuery(ns string) *QueryView { return &QueryView{ns: ns, st: s} }
