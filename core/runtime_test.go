package core

import (
	"encoding/json"
	"testing"
	"time"

	"qscnode/internal/testutil"
)

type testParty struct {
	sk, pk []byte
	addr   Address
}

func newTestParty(t *testing.T) testParty {
	t.Helper()
	sk, pk, err := KeygenMLDSA3()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	return testParty{sk: sk, pk: pk, addr: AddressOf(pk, NewHasher("sha3-512"))}
}

func (p testParty) submit(t *testing.T, rt *Runtime, nonce uint64, contract, method string, args any) (Tx, error) {
	t.Helper()
	argsJSON, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	payload, err := CanonicalPayload(string(p.addr), nonce, rt.ChainID, contract, method, argsJSON)
	if err != nil {
		t.Fatalf("canonical payload: %v", err)
	}
	sig, err := SignMLDSA3(payload, p.sk)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	body := RpcCall{
		From:     string(p.addr),
		Contract: contract,
		Method:   method,
		Args:     argsJSON,
		Alg:      SigAlgMLDSA3,
		PK:       hexEncode(p.pk),
		Sig:      hexEncode(sig),
		Nonce:    nonce,
		ChainID:  rt.ChainID,
	}
	return rt.SubmitCall(body, time.Now().UnixMilli())
}

func newTestRuntime(t *testing.T, minter testParty) *Runtime {
	t.Helper()
	validator := newTestParty(t)
	return newTestRuntimeWithValidator(t, minter, validator, nil)
}

// newTestRuntimeWithValidator builds a runtime signing as validator,
// optionally wired with a PoA config (for ApplyExternalBlock tests,
// which require one regardless of Mode).
func newTestRuntimeWithValidator(t *testing.T, minter, validator testParty, poaCfg *PoAConfig) *Runtime {
	t.Helper()
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	t.Cleanup(func() { _ = sb.Cleanup() })

	rt, err := NewRuntime(RuntimeConfig{
		Hasher:            NewHasher("sha3-512"),
		ChainID:           "qsc-test",
		SigAlgsAllowed:    []string{"mldsa3"},
		MinterAddr:        minter.addr,
		MaxTxPerBlock:     100,
		MaxPendingPerAddr: 100,
		ValidatorPKHex:    hexEncode(validator.pk),
		ValidatorSK:       validator.sk,
		Mode:              ModeLocal,
		PoA:               poaCfg,
		DataDir:           sb.Root,
		Logger:            nil,
	})
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	return rt
}

func TestSubmitCallMintAndProduceBlock(t *testing.T) {
	minter := newTestParty(t)
	rt := newTestRuntime(t, minter)

	tx, err := minter.submit(t, rt, 0, "token", "mint", mintArgs{To: minter.addr, Amount: 1000})
	if err != nil {
		t.Fatalf("submit mint: %v", err)
	}
	if tx.TxHash == "" {
		t.Fatal("expected non-empty tx hash")
	}

	b, err := rt.ProduceBlock()
	if err != nil {
		t.Fatalf("produce block: %v", err)
	}
	if len(b.Txs) != 1 {
		t.Fatalf("expected 1 tx in block, got %d", len(b.Txs))
	}
	if rt.NextNonce(minter.addr) != 1 {
		t.Fatalf("expected next nonce 1, got %d", rt.NextNonce(minter.addr))
	}

	out, err := rt.Registry.DispatchQuery("token", "balance_of", mustJSON(t, balanceOfArgs{Who: minter.addr}))
	if err != nil {
		t.Fatalf("query balance: %v", err)
	}
	var bal uint64
	_ = json.Unmarshal(out, &bal)
	if bal != 1000 {
		t.Fatalf("expected balance 1000, got %d", bal)
	}
}

func TestSubmitCallRejectsBadNonce(t *testing.T) {
	minter := newTestParty(t)
	rt := newTestRuntime(t, minter)
	_, err := minter.submit(t, rt, 5, "token", "mint", mintArgs{To: minter.addr, Amount: 1})
	if err == nil {
		t.Fatal("expected bad nonce rejection")
	}
}

func TestSubmitCallRejectsWrongChainID(t *testing.T) {
	minter := newTestParty(t)
	rt := newTestRuntime(t, minter)
	argsJSON, _ := json.Marshal(mintArgs{To: minter.addr, Amount: 1})
	payload, _ := CanonicalPayload(string(minter.addr), 0, "some-other-chain", "token", "mint", argsJSON)
	sig, _ := SignMLDSA3(payload, minter.sk)
	body := RpcCall{
		From: string(minter.addr), Contract: "token", Method: "mint", Args: argsJSON,
		Alg: SigAlgMLDSA3, PK: hexEncode(minter.pk), Sig: hexEncode(sig),
		Nonce: 0, ChainID: "some-other-chain",
	}
	if _, err := rt.SubmitCall(body, time.Now().UnixMilli()); err == nil {
		t.Fatal("expected chain_id mismatch rejection")
	}
}

func TestSubmitCallRejectsNonMinterMint(t *testing.T) {
	minter := newTestParty(t)
	rt := newTestRuntime(t, minter)
	impostor := newTestParty(t)
	_, err := impostor.submit(t, rt, 0, "token", "mint", mintArgs{To: impostor.addr, Amount: 1})
	if err == nil {
		t.Fatal("expected mint to be rejected for non-minter")
	}
}

func TestSubmitCallRejectsForgedFrom(t *testing.T) {
	minter := newTestParty(t)
	rt := newTestRuntime(t, minter)
	other := newTestParty(t)
	argsJSON, _ := json.Marshal(mintArgs{To: minter.addr, Amount: 1})
	payload, _ := CanonicalPayload(string(minter.addr), 0, rt.ChainID, "token", "mint", argsJSON)
	sig, _ := SignMLDSA3(payload, minter.sk)
	body := RpcCall{
		From: string(other.addr), // mismatched from
		Contract: "token", Method: "mint", Args: argsJSON,
		Alg: SigAlgMLDSA3, PK: hexEncode(minter.pk), Sig: hexEncode(sig),
		Nonce: 0, ChainID: rt.ChainID,
	}
	if _, err := rt.SubmitCall(body, time.Now().UnixMilli()); err == nil {
		t.Fatal("expected from/pk mismatch rejection")
	}
}

func TestNonceAdvancesEvenOnDispatchFailure(t *testing.T) {
	minter := newTestParty(t)
	rt := newTestRuntime(t, minter)
	// self-transfer is Logic-rejected by the contract but still consumes a nonce.
	if _, err := minter.submit(t, rt, 0, "token", "mint", mintArgs{To: minter.addr, Amount: 100}); err != nil {
		t.Fatalf("submit mint: %v", err)
	}
	if _, err := rt.ProduceBlock(); err != nil {
		t.Fatalf("produce block: %v", err)
	}
	if _, err := minter.submit(t, rt, 1, "token", "transfer", transferArgs{To: minter.addr, Amount: 1}); err != nil {
		t.Fatalf("submit self-transfer: %v", err)
	}
	b, err := rt.ProduceBlock()
	if err != nil {
		t.Fatalf("produce block: %v", err)
	}
	if len(b.Txs) != 1 {
		t.Fatalf("expected self-transfer tx to be included despite Logic error")
	}
	if rt.NextNonce(minter.addr) != 2 {
		t.Fatalf("expected nonce to advance to 2, got %d", rt.NextNonce(minter.addr))
	}
}

func TestApplyExternalBlockFollowerPath(t *testing.T) {
	minter := newTestParty(t)
	validator := newTestParty(t)
	poaCfg := &PoAConfig{Validators: []Validator{{ID: "v1", PK: hexEncode(validator.pk)}}}

	leader := newTestRuntimeWithValidator(t, minter, validator, poaCfg)
	follower := newTestRuntimeWithValidator(t, minter, validator, poaCfg)

	if _, err := minter.submit(t, leader, 0, "token", "mint", mintArgs{To: minter.addr, Amount: 50}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	b, err := leader.ProduceBlock()
	if err != nil {
		t.Fatalf("produce: %v", err)
	}

	if err := follower.ApplyExternalBlock(b); err != nil {
		t.Fatalf("apply external block: %v", err)
	}
	if follower.Chain.Head().Height != 1 {
		t.Fatalf("expected follower head height 1, got %d", follower.Chain.Head().Height)
	}
}

func TestApplyExternalBlockRejectsParentMismatch(t *testing.T) {
	minter := newTestParty(t)
	validator := newTestParty(t)
	poaCfg := &PoAConfig{Validators: []Validator{{ID: "v1", PK: hexEncode(validator.pk)}}}
	rt := newTestRuntimeWithValidator(t, minter, validator, poaCfg)
	bad := Block{Height: 1, Parent: "wrong-parent"}
	if err := rt.ApplyExternalBlock(bad); err == nil {
		t.Fatal("expected parent mismatch rejection")
	}
}

func TestApplyExternalBlockRejectsWithoutPoAConfig(t *testing.T) {
	minter := newTestParty(t)
	rt := newTestRuntime(t, minter) // no PoA config wired
	head := rt.Chain.Head()
	forged := Block{Height: head.Height + 1, Parent: head.Hash}
	if err := rt.ApplyExternalBlock(forged); err == nil {
		t.Fatal("expected rejection of external block on a node with no PoA config")
	}
}
