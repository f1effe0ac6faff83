package pda

import (
	"filippo.io/edwards25519"
)

// IsOnCurve returns true if given 32 bytes decompress to a point of the
// ed25519 curve, that is, if a private key for them could exist.
// Non-canonical encodings of y are accepted the way point decoders of
// the ledger accept them.
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
