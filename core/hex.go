package core

import (
	"encoding/hex"
	"strings"
)

// hexDecode is a thin wrapper kept in one place so every hex-encoded
// wire field that core decodes (pk, sig) goes through the same decode path.
func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// hexEncode mirrors hexDecode for the write side.
func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func equalFoldStr(a, b string) bool { return strings.EqualFold(a, b) }
