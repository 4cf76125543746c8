package core

// Digest helper for the node's hash-linked chain and tx hashing.
//
// The node selects exactly one hash algorithm at startup (SHA3-512 by
// default, BLAKE2b-512 as the alternative) and uses it for every digest in
// the system: tx hashes, block hashes, and address derivation. Output is
// always 64 bytes, rendered as 128 lower-case hex characters.
//
// Grounded on the teacher's use of golang.org/x/crypto (core/wallet.go uses
// golang.org/x/crypto/ripemd160 for address derivation); the two algorithms
// themselves come from the Rust original (util.rs).

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// HashAlg identifies a supported digest algorithm.
type HashAlg string

const (
	HashSHA3_512   HashAlg = "sha3-512"
	HashBLAKE2b512 HashAlg = "blake2b-512"
)

// DigestSize is the fixed output length, in bytes, of both supported algorithms.
const DigestSize = 64

// Hasher computes hex-encoded digests using a single algorithm fixed at
// construction. A node constructs exactly one Hasher at startup and shares
// it across every component that needs to hash.
type Hasher struct {
	alg HashAlg
}

// NewHasher selects the digest algorithm by name (case-insensitive). Unknown
// names fall back to SHA3-512, mirroring the Rust original's permissive
// QSC_HASH_ALG parsing.
func NewHasher(name string) *Hasher {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "blake2b-512", "blake2b512", "blake2":
		return &Hasher{alg: HashBLAKE2b512}
	default:
		return &Hasher{alg: HashSHA3_512}
	}
}

// Alg returns the algorithm this hasher was constructed with.
func (h *Hasher) Alg() HashAlg { return h.alg }

// Sum returns the raw digest bytes of data.
func (h *Hasher) Sum(data []byte) []byte {
	switch h.alg {
	case HashBLAKE2b512:
		sum := blake2b.Sum512(data)
		return sum[:]
	default:
		sum := sha3.Sum512(data)
		return sum[:]
	}
}

// Hex returns the lower-case hex digest of data (128 chars).
func (h *Hasher) Hex(data []byte) string {
	return hex.EncodeToString(h.Sum(data))
}

// ZeroHash is the 128-zero-digit parent hash used by genesis.
func ZeroHash() string {
	return strings.Repeat("0", DigestSize*2)
}

func (h *Hasher) String() string {
	return fmt.Sprintf("Hasher(%s)", h.alg)
}
