package core

// SubmitCall implements the admission pipeline of §4.3: the ten
// ordered checks run by the client-facing /call endpoint. Any failure
// rejects with a descriptive error and no state change; success
// enqueues a Tx onto the mempool and returns it.
//
// Grounded on the Rust original's runtime.rs submit_call and the
// teacher's access_control.go style of early-return validation chains.

import (
	"fmt"
)

// SubmitCall runs the full admission pipeline against body and, on
// success, hands the resulting Tx to the mempool and returns it. A Tx
// that the mempool drops for the per-sender cap is still returned with
// a nil error: the drop is silent (§4.3 step 9) and is not an
// admission error.
func (rt *Runtime) SubmitCall(body RpcCall, nowMs int64) (Tx, error) {
	// 1. pk -> derived address must match body.from.
	pkBytes, err := hexDecode(body.PK)
	if err != nil {
		return Tx{}, fmt.Errorf("bad pk encoding: %w", err)
	}
	derived := AddressOf(pkBytes, rt.Hasher)
	if !equalFoldStr(string(derived), body.From) {
		return Tx{}, fmt.Errorf("from does not match address_of(pk)")
	}
	from, err := ParseAddress(body.From)
	if err != nil {
		return Tx{}, fmt.Errorf("bad from address: %w", err)
	}

	// 2. alg allow-list, case-insensitive.
	if _, ok := rt.SigAlgsAllowed[lower(body.Alg)]; !ok {
		return Tx{}, fmt.Errorf("signature algorithm %q not allowed", body.Alg)
	}

	// 3. chain_id.
	if body.ChainID != rt.ChainID {
		return Tx{}, fmt.Errorf("wrong chain_id: have %s want %s", body.ChainID, rt.ChainID)
	}

	// 4. nonce equality.
	expected := rt.Nonces.Next(from)
	if body.Nonce != expected {
		return Tx{}, fmt.Errorf("bad nonce: expected %d", expected)
	}

	// 5. canonical payload.
	payload, err := CanonicalPayload(string(from), body.Nonce, body.ChainID, body.Contract, body.Method, body.Args)
	if err != nil {
		return Tx{}, fmt.Errorf("canonical payload: %w", err)
	}

	// 6. signature verification.
	sigBytes, err := hexDecode(body.Sig)
	if err != nil {
		return Tx{}, fmt.Errorf("bad sig encoding: %w", err)
	}
	if !VerifyMLDSA3(payload, sigBytes, pkBytes) {
		return Tx{}, fmt.Errorf("invalid signature")
	}

	// 7. minter gate.
	if body.Contract == "token" && body.Method == "mint" && from != rt.MinterAddr {
		return Tx{}, fmt.Errorf("mint not allowed for this sender")
	}

	// 8. tx_hash.
	txHash := rt.Hasher.Hex(payload)

	tx := Tx{
		Call: Call{
			From:     from,
			Contract: body.Contract,
			Method:   body.Method,
			Args:     body.Args,
		},
		TimestampMs: nowMs,
		Auth: Auth{
			Alg: body.Alg,
			PK:  body.PK,
			Sig: body.Sig,
		},
		Nonce:   body.Nonce,
		ChainID: body.ChainID,
		TxHash:  txHash,
	}

	// 9-10. per-sender cap + enqueue (Mempool.Enqueue silently drops
	// over cap and logs; that is not an admission error).
	rt.Mempool.Enqueue(tx)
	return tx, nil
}

// Canonical implements POST /canonical: build and return the canonical
// payload bytes a client must sign, without touching admission state.
func (rt *Runtime) Canonical(from string, nonce uint64, chainID, contract, method string, args []byte) ([]byte, error) {
	return CanonicalPayload(from, nonce, chainID, contract, method, args)
}
