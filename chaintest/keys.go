package chaintest

import (
	"testing"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/crypto"
)

// NewKey returns a new random signer.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

// NewAddress returns the address of a new random signer.
func NewAddress() swapchain.Address {
	return NewKey().PublicKey().Address()
}

// ParseAddress takes an address in a human readable format and returns
// its binary representation. This function is a test helper that is using
// swapchain.ParseAddress function functionality.
func ParseAddress(t testing.TB, encodedAddress string) swapchain.Address {
	t.Helper()

	addr, err := swapchain.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
