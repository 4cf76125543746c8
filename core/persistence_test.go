package core

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"qscnode/internal/testutil"
)

func TestPersistenceAppendBlockAndSnapshots(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	defer sb.Cleanup()

	p, err := NewPersistence(sb.Root, nil)
	if err != nil {
		t.Fatalf("new persistence: %v", err)
	}
	defer p.Close()

	b := Block{Height: 0, Parent: ZeroHash(), Hash: "abc", Txs: []Tx{}}
	p.AppendBlock(b)

	p.WriteStateSnapshot(map[string]map[string]json.RawMessage{
		"token": {"total_supply": json.RawMessage("100")},
	})
	p.WriteParamsSnapshot(Params{HashAlg: "sha3-512", SigAlgsAllowed: []string{"mldsa3"}, ChainID: "qsc-test", Height: 0})

	journalPath := filepath.Join(sb.Root, "chain.jsonl")
	f, err := os.Open(journalPath)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		var got Block
		if err := json.Unmarshal(scanner.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal journal line: %v", err)
		}
		lines++
	}
	if lines != 1 {
		t.Fatalf("expected 1 journal line, got %d", lines)
	}

	stateBytes, err := os.ReadFile(filepath.Join(sb.Root, "state.json"))
	if err != nil {
		t.Fatalf("read state.json: %v", err)
	}
	var state map[string]map[string]json.RawMessage
	if err := json.Unmarshal(stateBytes, &state); err != nil {
		t.Fatalf("unmarshal state.json: %v", err)
	}
	if string(state["token"]["total_supply"]) != "100" {
		t.Fatalf("unexpected state snapshot contents: %s", stateBytes)
	}

	paramsBytes, err := os.ReadFile(filepath.Join(sb.Root, "params.json"))
	if err != nil {
		t.Fatalf("read params.json: %v", err)
	}
	var params Params
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		t.Fatalf("unmarshal params.json: %v", err)
	}
	if params.ChainID != "qsc-test" {
		t.Fatalf("expected chain_id qsc-test, got %s", params.ChainID)
	}
}

func TestPersistenceAppendsMultipleBlocksInOrder(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	defer sb.Cleanup()

	p, err := NewPersistence(sb.Root, nil)
	if err != nil {
		t.Fatalf("new persistence: %v", err)
	}
	defer p.Close()

	for h := uint64(0); h < 3; h++ {
		p.AppendBlock(Block{Height: h})
	}

	f, err := os.Open(filepath.Join(sb.Root, "chain.jsonl"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	var heights []uint64
	for scanner.Scan() {
		var b Block
		if err := json.Unmarshal(scanner.Bytes(), &b); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		heights = append(heights, b.Height)
	}
	if len(heights) != 3 || heights[0] != 0 || heights[1] != 1 || heights[2] != 2 {
		t.Fatalf("expected heights [0 1 2] in order, got %v", heights)
	}
}
