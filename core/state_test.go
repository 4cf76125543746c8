package core

import (
	"encoding/json"
	"testing"
)

func TestStateGetSetNamespaced(t *testing.T) {
	s := NewState(nil)
	s.Set("token", "total_supply", json.RawMessage("100"))
	v, ok := s.Get("token", "total_supply")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if string(v) != "100" {
		t.Fatalf("expected 100, got %s", v)
	}
	if _, ok := s.Get("other-ns", "total_supply"); ok {
		t.Fatal("expected namespace isolation")
	}
}

func TestStateDelete(t *testing.T) {
	s := NewState(nil)
	s.Set("ns", "k", json.RawMessage("1"))
	s.Delete("ns", "k")
	if s.Has("ns", "k") {
		t.Fatal("expected key to be deleted")
	}
}

func TestStateSnapshotIsDeepCopy(t *testing.T) {
	s := NewState(nil)
	s.Set("ns", "k", json.RawMessage("1"))
	snap := s.Snapshot()
	s.Set("ns", "k", json.RawMessage("2"))
	if string(snap["ns"]["k"]) != "1" {
		t.Fatalf("expected snapshot to be unaffected by later writes, got %s", snap["ns"]["k"])
	}
}

func TestMutableViewConfinedToNamespace(t *testing.T) {
	s := NewState(nil)
	view := s.ViewMut("token")
	view.Set("k", json.RawMessage("5"))
	if _, ok := s.Get("other", "k"); ok {
		t.Fatal("expected the write to stay in the view's namespace")
	}
	v, ok := s.Get("token", "k")
	if !ok || string(v) != "5" {
		t.Fatalf("expected token.k == 5, got %s (ok=%v)", v, ok)
	}
}
