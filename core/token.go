package core

// Built-in token contract (§4.4): namespace "token", keys "total_supply"
// and one per holder Address, values u64 JSON numbers. The only
// smart-contract variant this node ships — a full VM is an explicit
// spec Non-goal.
//
// Grounded on the teacher's coin.go balance/supply bookkeeping style
// (checked arithmetic, *Coin methods guarded by the caller's lock), and
// the Rust original's contracts/token.rs for the exact method names and
// error strings (mint/transfer/balance_of/total_supply, "underflow",
// "self-transfer not allowed").

import (
	"encoding/json"
	"math"
)

const (
	tokenContractName = "token"
	totalSupplyKey     = "total_supply"
)

// TokenContract implements Contract for namespace "token".
type TokenContract struct {
	minter Address
	cap    uint64
}

// NewTokenContract constructs the token contract. cap is the maximum
// total_supply (QSC_TOKEN_MAX_SUPPLY, default math.MaxUint64).
func NewTokenContract(minter Address, cap uint64) *TokenContract {
	if cap == 0 {
		cap = math.MaxUint64
	}
	return &TokenContract{minter: minter, cap: cap}
}

// Name implements Contract.
func (t *TokenContract) Name() string { return tokenContractName }

type mintArgs struct {
	To     Address `json:"to"`
	Amount uint64  `json:"amount"`
}

type transferArgs struct {
	To     Address `json:"to"`
	Amount uint64  `json:"amount"`
}

type balanceOfArgs struct {
	Who Address `json:"who"`
}

// Call implements Contract's mutating entry points: mint, transfer.
func (t *TokenContract) Call(view *MutableView, caller Address, method string, args json.RawMessage) (json.RawMessage, error) {
	switch method {
	case "mint":
		return t.mint(view, caller, args)
	case "transfer":
		return t.transfer(view, caller, args)
	default:
		return nil, ErrMethodNotFoundErr
	}
}

// Query implements Contract's read-only entry points: total_supply, balance_of.
func (t *TokenContract) Query(view *QueryView, method string, args json.RawMessage) (json.RawMessage, error) {
	switch method {
	case "total_supply":
		return json.Marshal(t.readBalance(view, totalSupplyKey))
	case "balance_of":
		var a balanceOfArgs
		if err := json.Unmarshal(args, &a); err != nil || a.Who == "" {
			return nil, NewBadArgs("balance_of requires who")
		}
		return json.Marshal(t.readBalance(view, string(a.Who)))
	default:
		return nil, ErrMethodNotFoundErr
	}
}

func (t *TokenContract) mint(view *MutableView, caller Address, args json.RawMessage) (json.RawMessage, error) {
	if caller != t.minter {
		return nil, NewLogic("mint not allowed for this sender")
	}
	var a mintArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, NewBadArgs("mint: malformed args")
	}
	if a.Amount == 0 {
		return nil, NewBadArgs("mint: amount must be > 0")
	}
	if !a.To.Valid() {
		return nil, NewBadArgs("mint: to must be a valid address")
	}

	supply := t.readBalance(view, totalSupplyKey)
	newSupply, ok := addChecked(supply, a.Amount)
	if !ok || newSupply > t.cap {
		return nil, NewLogic("mint: total supply cap exceeded")
	}
	toBal, ok := addChecked(t.readBalance(view, string(a.To)), a.Amount)
	if !ok {
		return nil, NewLogic("mint: balance overflow")
	}

	t.writeBalance(view, totalSupplyKey, newSupply)
	t.writeBalance(view, string(a.To), toBal)
	return json.Marshal(map[string]any{"total_supply": newSupply, "balance": toBal})
}

func (t *TokenContract) transfer(view *MutableView, caller Address, args json.RawMessage) (json.RawMessage, error) {
	var a transferArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, NewBadArgs("transfer: malformed args")
	}
	if a.Amount == 0 {
		return nil, NewBadArgs("transfer: amount must be > 0")
	}
	if !a.To.Valid() {
		return nil, NewBadArgs("transfer: to must be a valid address")
	}
	if a.To == caller {
		return nil, NewLogic("self-transfer not allowed")
	}

	fromBal := t.readBalance(view, string(caller))
	newFrom, ok := subChecked(fromBal, a.Amount)
	if !ok {
		return nil, NewLogic("underflow")
	}
	newTo, ok := addChecked(t.readBalance(view, string(a.To)), a.Amount)
	if !ok {
		return nil, NewLogic("transfer: balance overflow")
	}

	t.writeBalance(view, string(caller), newFrom)
	t.writeBalance(view, string(a.To), newTo)
	return json.Marshal(map[string]any{"from_balance": newFrom, "to_balance": newTo})
}

func (t *TokenContract) readBalance(view interface {
	Get(string) (json.RawMessage, bool)
}, key string) uint64 {
	raw, ok := view.Get(key)
	if !ok {
		return 0
	}
	var v uint64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	return v
}

func (t *TokenContract) writeBalance(view *MutableView, key string, v uint64) {
	b, _ := json.Marshal(v)
	view.Set(key, b)
}

func addChecked(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

func subChecked(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}
