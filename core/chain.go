package core

// Chain is the ordered, hash-linked sequence of committed Blocks (§3,
// §5's chain_lock). Genesis is height 0, parent all-zero, no Tx.
//
// Grounded on the teacher's ledger block-slice bookkeeping in
// core/ledger.go (single mutex guarding an append-only slice, Head/At
// accessors returning copies).

import (
	"fmt"
	"sync"
)

// Chain holds the committed block sequence under one mutex.
type Chain struct {
	mu     sync.Mutex
	blocks []Block
}

// NewChain constructs a chain seeded with the genesis block: height 0,
// parent 128 zeros, empty txs (§3). The genesis hash is deterministic
// given timestampMs and validatorPK (§9 open question 3: two fresh
// nodes still diverge because each signs with its own secret key at
// whatever moment it first starts).
func NewChain(hasher *Hasher, genesisTimestampMs int64, validatorPK string, sign func(msg []byte) (sigHex string, err error)) (*Chain, error) {
	parent := ZeroHash()
	hash := hasher.Hex([]byte(BlockHeaderString(parent, 0, 0, genesisTimestampMs)))
	sig, err := sign([]byte(hash))
	if err != nil {
		return nil, fmt.Errorf("chain: sign genesis: %w", err)
	}
	genesis := Block{
		Height:       0,
		Parent:       parent,
		Hash:         hash,
		TimestampMs:  genesisTimestampMs,
		ValidatorPK:  validatorPK,
		ValidatorSig: sig,
		Txs:          []Tx{},
	}
	return &Chain{blocks: []Block{genesis}}, nil
}

// Head returns a copy of the most recently committed block.
func (c *Chain) Head() Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[len(c.blocks)-1]
}

// At returns the block at the given height, or false if out of range.
func (c *Chain) At(height uint64) (Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if height >= uint64(len(c.blocks)) {
		return Block{}, false
	}
	return c.blocks[height], true
}

// Len returns the number of committed blocks (height of head + 1).
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.blocks)
}

// Append validates b against the current head's linkage invariants
// (§3) and appends it. Callers are responsible for PoA/signature
// verification before calling Append; this only enforces the
// hash-chain invariant.
func (c *Chain) Append(b Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	head := c.blocks[len(c.blocks)-1]
	if b.Parent != head.Hash {
		return fmt.Errorf("chain: parent mismatch: have %s want %s", b.Parent, head.Hash)
	}
	if b.Height != head.Height+1 {
		return fmt.Errorf("chain: height mismatch: have %d want %d", b.Height, head.Height+1)
	}
	c.blocks = append(c.blocks, b)
	return nil
}

// Snapshot returns a defensive copy of the full block slice.
func (c *Chain) Snapshot() []Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Block, len(c.blocks))
	copy(out, c.blocks)
	return out
}
