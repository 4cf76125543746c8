package core

// Mempool is the per-sender bounded FIFO of pending transactions (§3,
// §4.3 step 9, §5's mempool_lock). Admission enqueues; block production
// drains in FIFO order; a full external-block commit removes applied
// Tx by hash.
//
// Grounded on the teacher's txpool_addtx.go/txpool_stub.go queueing
// style (single mutex guarding a slice, short critical sections, no I/O
// under lock).

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Mempool holds pending Tx in overall FIFO order, with a per-sender cap.
type Mempool struct {
	mu      sync.Mutex
	pending []Tx
	maxPerAddr int
	logger  *logrus.Logger
	onDrop  func(Tx)
}

// NewMempool constructs an empty mempool with the given per-sender cap
// (QSC_MAX_PENDING_PER_ADDR).
func NewMempool(maxPerAddr int, logger *logrus.Logger) *Mempool {
	if maxPerAddr <= 0 {
		maxPerAddr = 100
	}
	return &Mempool{maxPerAddr: maxPerAddr, logger: logger}
}

// OnDrop registers a callback invoked (outside the mempool lock) each
// time a Tx is silently dropped for backpressure. Used to feed the
// qsc_tx_dropped_total metric; nil is a valid no-op.
func (m *Mempool) OnDrop(fn func(Tx)) {
	m.mu.Lock()
	m.onDrop = fn
	m.mu.Unlock()
}

// countFrom returns the number of currently pending Tx from sender.
// Caller must hold m.mu.
func (m *Mempool) countFrom(sender Address) int {
	n := 0
	for _, tx := range m.pending {
		if tx.Call.From == sender {
			n++
		}
	}
	return n
}

// Enqueue appends tx unless the sender's pending count already meets the
// cap, in which case the Tx is dropped silently to the caller (§4.3 step
// 9) and logged at the node's log level.
func (m *Mempool) Enqueue(tx Tx) {
	m.mu.Lock()
	if m.countFrom(tx.Call.From) >= m.maxPerAddr {
		onDrop := m.onDrop
		m.mu.Unlock()
		if m.logger != nil {
			m.logger.WithFields(logrus.Fields{
				"from":    tx.Call.From,
				"tx_hash": tx.TxHash,
			}).Warn("mempool: per-sender cap reached, dropping tx")
		}
		if onDrop != nil {
			onDrop(tx)
		}
		return
	}
	m.pending = append(m.pending, tx)
	m.mu.Unlock()
}

// Drain removes and returns up to max Tx in FIFO order (§4.5 step 2,
// QSC_MAX_TX_PER_BLOCK).
func (m *Mempool) Drain(max int) []Tx {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max <= 0 || max > len(m.pending) {
		max = len(m.pending)
	}
	out := make([]Tx, max)
	copy(out, m.pending[:max])
	m.pending = m.pending[max:]
	return out
}

// RemoveByHash drops any pending Tx whose tx_hash matches one in hashes
// (§4.6 step 6, applied when a follower accepts an external block that
// already included locally-pending Tx).
func (m *Mempool) RemoveByHash(hashes map[string]struct{}) {
	if len(hashes) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.pending[:0]
	for _, tx := range m.pending {
		if _, drop := hashes[tx.TxHash]; !drop {
			kept = append(kept, tx)
		}
	}
	m.pending = kept
}

// Len reports the current number of pending Tx across all senders.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
