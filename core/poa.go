package core

// PoA consensus config and the pure leader-schedule/verification
// helpers (§4.7). The slot loop itself lives in the runtime (runtime.go
// Start), which owns the HTTP client used for gossip; this file holds
// only the deterministic, lock-free pieces so they're trivially
// unit-testable.
//
// Grounded on the Rust original's consensus.rs (expected_leader,
// verify_block_poa) and the teacher's consensus_validator_management.go
// for the ordered-validator-set shape.

import (
	"fmt"
	"strings"
)

// PoAConfig is the static, process-lived validator schedule (§3, §4.7).
type PoAConfig struct {
	Validators []Validator `json:"validators"`
	SlotMs     int         `json:"slot_ms"`
}

// ExpectedLeader returns the validator whose turn it is at height h
// (§4.7: validators[h mod len(validators)]). Panics only if Validators
// is empty, which callers must never allow in PoA mode.
func (c *PoAConfig) ExpectedLeader(h uint64) Validator {
	return c.Validators[h%uint64(len(c.Validators))]
}

// VerifyBlockPoA checks the three conditions of §4.7's
// verify_block_poa: the block's validator_pk matches the expected
// leader for its height (case-insensitive hex), its parent matches the
// supplied parent hash, and its validator_sig verifies over its hash.
func VerifyBlockPoA(cfg *PoAConfig, parentHash string, b Block) error {
	leader := cfg.ExpectedLeader(b.Height)
	if !strings.EqualFold(b.ValidatorPK, leader.PK) {
		return fmt.Errorf("unexpected leader")
	}
	if b.Parent != parentHash {
		return fmt.Errorf("parent mismatch")
	}
	pkBytes, err := hexDecode(b.ValidatorPK)
	if err != nil {
		return fmt.Errorf("malformed validator_pk: %w", err)
	}
	sigBytes, err := hexDecode(b.ValidatorSig)
	if err != nil {
		return fmt.Errorf("malformed validator_sig: %w", err)
	}
	if !VerifyMLDSA3([]byte(b.Hash), sigBytes, pkBytes) {
		return fmt.Errorf("invalid leader signature")
	}
	return nil
}
