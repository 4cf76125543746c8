package core

// Address identifies a principal by the hex-encoded digest of its public
// key (§3: "Address"). Unlike the teacher's 20-byte SHA-256/RIPEMD-160
// account address (core/wallet.go's pubKeyToAddress), this node's address
// is the full 128-hex-digit output of the node's configured hash algorithm,
// so address derivation reuses the same Hasher as everything else.

import (
	"errors"
	"strings"
)

// AddressHexLen is the exact length of a valid address: 128 lower-case hex
// digits (a 64-byte digest).
const AddressHexLen = DigestSize * 2

// Address is a hex string; the empty Address is never valid.
type Address string

// AddressOf derives the address of a public key under the given hasher.
func AddressOf(pk []byte, h *Hasher) Address {
	return Address(h.Hex(pk))
}

// Valid reports whether a is exactly 128 lower-case hex digits.
func (a Address) Valid() bool {
	s := string(a)
	if len(s) != AddressHexLen {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ParseAddress validates and returns addr as an Address.
func ParseAddress(addr string) (Address, error) {
	a := Address(strings.ToLower(addr))
	if !a.Valid() {
		return "", errors.New("address: must be 128 lowercase hex digits")
	}
	return a, nil
}

func (a Address) String() string { return string(a) }
