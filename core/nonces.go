package core

// Nonces tracks the per-sender next-expected-nonce counter (§3, §5's
// nonces_lock). next_nonce(a) is the count of Tx from a included in
// committed blocks (whether or not their dispatch succeeded), starting
// at 0.
//
// Grounded on the teacher's authority_nodes.go counter-map style
// (map[Address]uint64 under a dedicated mutex, read via a copying
// accessor).

import "sync"

// Nonces is a sender -> next-nonce counter map.
type Nonces struct {
	mu     sync.Mutex
	counts map[Address]uint64
}

// NewNonces constructs an empty nonce tracker.
func NewNonces() *Nonces {
	return &Nonces{counts: make(map[Address]uint64)}
}

// Next returns the next expected nonce for addr (0 if never seen).
func (n *Nonces) Next(addr Address) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.counts[addr]
}

// Advance increments addr's next-expected-nonce by one, to be called
// exactly once per Tx included in a block, even when its dispatch
// failed (§4.5 step 3, §4.6 step 4).
func (n *Nonces) Advance(addr Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.counts[addr]++
}
