package core

import "testing"

func TestMempoolEnqueueAndDrain(t *testing.T) {
	m := NewMempool(10, nil)
	from := testAddr(t, "sender")
	for i := 0; i < 3; i++ {
		m.Enqueue(Tx{Call: Call{From: from}, Nonce: uint64(i), TxHash: string(rune('a' + i))})
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 pending, got %d", m.Len())
	}
	drained := m.Drain(2)
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained, got %d", len(drained))
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", m.Len())
	}
}

func TestMempoolPerSenderCap(t *testing.T) {
	m := NewMempool(2, nil)
	from := testAddr(t, "capped-sender")
	dropped := 0
	m.OnDrop(func(Tx) { dropped++ })
	for i := 0; i < 5; i++ {
		m.Enqueue(Tx{Call: Call{From: from}, Nonce: uint64(i)})
	}
	if m.Len() != 2 {
		t.Fatalf("expected cap of 2 pending, got %d", m.Len())
	}
	if dropped != 3 {
		t.Fatalf("expected 3 drops, got %d", dropped)
	}
}

func TestMempoolCapIsPerSender(t *testing.T) {
	m := NewMempool(2, nil)
	a1 := testAddr(t, "s1")
	a2 := testAddr(t, "s2")
	for i := 0; i < 2; i++ {
		m.Enqueue(Tx{Call: Call{From: a1}, Nonce: uint64(i)})
		m.Enqueue(Tx{Call: Call{From: a2}, Nonce: uint64(i)})
	}
	if m.Len() != 4 {
		t.Fatalf("expected 4 total pending across senders, got %d", m.Len())
	}
}

func TestMempoolRemoveByHash(t *testing.T) {
	m := NewMempool(10, nil)
	from := testAddr(t, "sender")
	m.Enqueue(Tx{Call: Call{From: from}, TxHash: "h1"})
	m.Enqueue(Tx{Call: Call{From: from}, TxHash: "h2"})
	m.RemoveByHash(map[string]struct{}{"h1": {}})
	if m.Len() != 1 {
		t.Fatalf("expected 1 remaining after removal, got %d", m.Len())
	}
	remaining := m.Drain(10)
	if remaining[0].TxHash != "h2" {
		t.Fatalf("expected h2 to remain, got %s", remaining[0].TxHash)
	}
}
