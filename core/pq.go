package core

// Signature oracle (§4.1): ML-DSA (Dilithium-3), treated as an opaque
// keygen/sign/verify primitive over fixed-size byte strings. Backed by
// CIRCL's generic signature-scheme interface rather than a pack-grounded
// library — none of the retrieval pack's signature stacks (go-ethereum's
// secp256k1, decred secp256k1, herumi/kilic BLS, ed25519 in the teacher's
// wallet.go) are post-quantum. See DESIGN.md.

import (
	"errors"
	"fmt"

	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/schemes"
)

const mldsa3SchemeName = "Dilithium3"

var mldsa3 sign.Scheme = schemes.ByName(mldsa3SchemeName)

// SigAlgMLDSA3 is the default and only built-in allow-listed algorithm name
// (§3: Auth.alg, §6: QSC_SIG_ALGS).
const SigAlgMLDSA3 = "mldsa3"

// KeygenMLDSA3 generates a fresh ML-DSA-3 keypair, returning (sk, pk) bytes
// to mirror the Rust original's pq::keygen_mldsa3 return order.
func KeygenMLDSA3() (sk, pk []byte, err error) {
	if mldsa3 == nil {
		return nil, nil, fmt.Errorf("pq: %s scheme unavailable", mldsa3SchemeName)
	}
	pub, priv, err := mldsa3.GenerateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("pq: keygen: %w", err)
	}
	pkBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("pq: marshal pk: %w", err)
	}
	skBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("pq: marshal sk: %w", err)
	}
	return skBytes, pkBytes, nil
}

// SignMLDSA3 produces a detached signature of msg under sk.
func SignMLDSA3(msg, sk []byte) ([]byte, error) {
	if mldsa3 == nil {
		return nil, fmt.Errorf("pq: %s scheme unavailable", mldsa3SchemeName)
	}
	priv, err := mldsa3.UnmarshalBinaryPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("pq: bad sk bytes: %w", err)
	}
	sig := mldsa3.Sign(priv, msg, nil)
	if sig == nil {
		return nil, errors.New("pq: sign failed")
	}
	return sig, nil
}

// VerifyMLDSA3 verifies a detached signature of msg under pk. Any malformed
// input (bad key/sig encoding) is treated as a verification failure, never
// an error, matching the Rust original's verify_mldsa3 which collapses
// decode failures into `false`.
func VerifyMLDSA3(msg, sig, pk []byte) bool {
	if mldsa3 == nil {
		return false
	}
	pub, err := mldsa3.UnmarshalBinaryPublicKey(pk)
	if err != nil {
		return false
	}
	return mldsa3.Verify(pub, msg, sig, nil)
}
