package core

// Wire types (§3, §6): Call, Auth, Tx, Block, Validator, and the RpcCall
// request body. Field order on the JSON-tagged structs matters only for
// CanonicalPayload below; everything else just needs stable tags.
//
// Grounded on the teacher's tx_types.go / common_structs.go struct-tag
// conventions (lower_snake JSON tags, hex-string byte fields).

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Call is the contract invocation at the heart of a transaction.
type Call struct {
	From    Address         `json:"from"`
	Contract string         `json:"contract"`
	Method  string          `json:"method"`
	Args    json.RawMessage `json:"args"`
}

// Auth carries the signer's algorithm, public key, and detached signature,
// all hex-encoded (§3).
type Auth struct {
	Alg string `json:"alg"`
	PK  string `json:"pk"`
	Sig string `json:"sig"`
}

// Tx is an admitted, fully-formed transaction (§3).
type Tx struct {
	Call        Call   `json:"call"`
	TimestampMs int64  `json:"timestamp_ms"`
	Auth        Auth   `json:"auth"`
	Nonce       uint64 `json:"nonce"`
	ChainID     string `json:"chain_id"`
	TxHash      string `json:"tx_hash"`
}

// Block is one committed unit of the chain (§3).
type Block struct {
	Height       uint64 `json:"height"`
	Parent       string `json:"parent"`
	Hash         string `json:"hash"`
	TimestampMs  int64  `json:"timestamp_ms"`
	ValidatorPK  string `json:"validator_pk"`
	ValidatorSig string `json:"validator_sig"`
	Txs          []Tx   `json:"txs"`
}

// Validator is one entry of the statically configured PoA set (§3).
type Validator struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	PK  string `json:"pk"`
}

// RpcCall is the body accepted by POST /call (§6). POST /canonical
// decodes only the from/nonce/chain_id/contract/method/args subset.
type RpcCall struct {
	From    string          `json:"from"`
	Contract string         `json:"contract"`
	Method  string          `json:"method"`
	Args    json.RawMessage `json:"args"`
	Alg     string          `json:"alg"`
	PK      string          `json:"pk"`
	Sig     string          `json:"sig"`
	Nonce   uint64          `json:"nonce"`
	ChainID string          `json:"chain_id"`
}

// canonicalPayload is the fixed field-order struct used only to produce
// the byte-stable signing payload (§4.3 step 5, §9's "Canonical JSON"
// note). Go's encoding/json serializes struct fields in declaration
// order, which is what makes this byte-stable across calls: the same
// field order is emitted every time, regardless of map iteration or
// client JSON key order.
type canonicalPayload struct {
	From    string          `json:"from"`
	Nonce   uint64          `json:"nonce"`
	ChainID string          `json:"chain_id"`
	Contract string         `json:"contract"`
	Method  string          `json:"method"`
	Args    json.RawMessage `json:"args"`
}

// CanonicalPayload builds the exact byte string a client signs and the
// node re-derives to verify (§4.3 step 5). args must already be valid
// JSON; an empty/nil args is normalized to a JSON empty object so the
// signer and verifier never disagree over a missing field.
func CanonicalPayload(from string, nonce uint64, chainID, contract, method string, args json.RawMessage) ([]byte, error) {
	a := args
	if len(bytes.TrimSpace(a)) == 0 {
		a = json.RawMessage("{}")
	}
	cp := canonicalPayload{
		From:    from,
		Nonce:   nonce,
		ChainID: chainID,
		Contract: contract,
		Method:  method,
		Args:    a,
	}
	out, err := json.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("canonical payload: %w", err)
	}
	return out, nil
}

// BlockHeaderString renders the exact ASCII string that is hashed to
// produce Block.Hash (§3): "{parent}|{height}|{len(txs)}|{timestamp_ms}".
func BlockHeaderString(parent string, height uint64, numTxs int, timestampMs int64) string {
	return fmt.Sprintf("%s|%d|%d|%d", parent, height, numTxs, timestampMs)
}
