package core

import (
	"encoding/json"
	"testing"
)

type echoContract struct{}

func (echoContract) Name() string { return "echo" }
func (echoContract) Call(view *MutableView, caller Address, method string, args json.RawMessage) (json.RawMessage, error) {
	view.Set("last", args)
	return args, nil
}
func (echoContract) Query(view *QueryView, method string, args json.RawMessage) (json.RawMessage, error) {
	v, ok := view.Get("last")
	if !ok {
		return json.RawMessage("null"), nil
	}
	return v, nil
}

func TestRegistryDispatchMutAndQuery(t *testing.T) {
	state := NewState(nil)
	reg := NewRegistry(state, nil)
	reg.Register(echoContract{})

	caller := testAddr(t, "caller")
	if _, err := reg.DispatchMut(caller, "echo", "set", json.RawMessage(`{"x":1}`)); err != nil {
		t.Fatalf("dispatch mut failed: %v", err)
	}
	out, err := reg.DispatchQuery("echo", "get", json.RawMessage("{}"))
	if err != nil {
		t.Fatalf("dispatch query failed: %v", err)
	}
	if string(out) != `{"x":1}` {
		t.Fatalf("expected echoed args, got %s", out)
	}
}

func TestRegistryDispatchUnknownContract(t *testing.T) {
	reg := NewRegistry(NewState(nil), nil)
	if _, err := reg.DispatchMut("caller", "nope", "m", nil); err != ErrContractNotFoundErr {
		t.Fatalf("expected ErrContractNotFoundErr, got %v", err)
	}
	if _, err := reg.DispatchQuery("nope", "m", nil); err != ErrContractNotFoundErr {
		t.Fatalf("expected ErrContractNotFoundErr, got %v", err)
	}
}
