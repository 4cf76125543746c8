package core

// Contract registry & dispatch (§4.2). The variant set is fixed at startup
// and keyed by contract name, the Go analogue of the Rust original's
// Arc<dyn Contract> registry (contracts/mod.rs) — here expressed as the
// idiomatic Go "accept interfaces" capability style the teacher uses for
// its own pluggable subsystems (core/authority_nodes.go's StateRW, §4.7's
// networkAdapter/securityAdapter in core/consensus.go).
//
// This replaces the teacher's WASM-backed ContractRegistry/SmartContract
// (wazero compile pipeline, gas-metered VM.Execute): a smart-contract VM
// beyond the built-in token contract is an explicit spec Non-goal, and
// nothing in this node deploys bytecode.

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Contract is a deterministic state-changing/reading unit addressed by name.
type Contract interface {
	Name() string
	Call(view *MutableView, caller Address, method string, args json.RawMessage) (json.RawMessage, error)
	Query(view *QueryView, method string, args json.RawMessage) (json.RawMessage, error)
}

// Registry looks up a named contract and forwards call/query requests to it.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]Contract
	state     *State
	logger    *logrus.Logger
}

// NewRegistry constructs an empty registry backed by state.
func NewRegistry(state *State, logger *logrus.Logger) *Registry {
	return &Registry{contracts: make(map[string]Contract), state: state, logger: logger}
}

// Register adds a contract under its own name. A second registration of the
// same name replaces the first; startup wiring never does this.
func (r *Registry) Register(c Contract) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[c.Name()] = c
}

func (r *Registry) lookup(name string) (Contract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[name]
	return c, ok
}

// DispatchMut invokes contract.method with a mutable view confined to the
// contract's own namespace. Returns ErrContractNotFoundErr for an
// unregistered name (§4.2).
func (r *Registry) DispatchMut(caller Address, contract, method string, args json.RawMessage) (json.RawMessage, error) {
	c, ok := r.lookup(contract)
	if !ok {
		return nil, ErrContractNotFoundErr
	}
	view := r.state.ViewMut(c.Name())
	return c.Call(view, caller, method, args)
}

// DispatchQuery invokes contract.method with a read-only view.
func (r *Registry) DispatchQuery(contract, method string, args json.RawMessage) (json.RawMessage, error) {
	c, ok := r.lookup(contract)
	if !ok {
		return nil, ErrContractNotFoundErr
	}
	view := r.state.ViewQuery(c.Name())
	return c.Query(view, method, args)
}
