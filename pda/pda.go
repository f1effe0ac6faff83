package pda

import (
	"crypto/sha256"

	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/errors"
)

const (
	// MaxSeeds is the maximum number of seeds a single derivation accepts.
	MaxSeeds = 16
	// MaxSeedLen is the maximum length of a single seed.
	MaxSeedLen = 32
)

// marker is appended to every derivation input.
var marker = []byte("ProgramDerivedAddress")

// ErrOnCurve is returned when derived bytes are a valid ed25519 point and
// therefore cannot be used as a program address.
var ErrOnCurve = errors.Register(20, "address on curve")

// CreateProgramAddress computes the address for given seeds under a
// program. It fails with ErrOnCurve if the result is a valid public key.
func CreateProgramAddress(seeds [][]byte, program swapchain.Address) (swapchain.Address, error) {
	if err := program.Validate(); err != nil {
		return nil, errors.Wrap(err, "program")
	}
	if len(seeds) > MaxSeeds {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "too many seeds: %d", len(seeds))
	}
	h := sha256.New()
	for i, s := range seeds {
		if len(s) > MaxSeedLen {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "seed %d too long: %d", i, len(s))
		}
		h.Write(s)
	}
	h.Write(program)
	h.Write(marker)
	addr := h.Sum(nil)
	if IsOnCurve(addr) {
		return nil, errors.Wrapf(ErrOnCurve, "%X", addr)
	}
	return swapchain.Address(addr), nil
}

// FindProgramAddress searches for a bump seed, starting from 255 down to
// 0, that appended to the seeds gives a valid program address. It returns
// the first such address together with its bump.
func FindProgramAddress(seeds [][]byte, program swapchain.Address) (swapchain.Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return nil, 0, errors.Wrapf(errors.ErrInvalidInput, "too many seeds: %d", len(seeds))
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		switch {
		case err == nil:
			return addr, uint8(bump), nil
		case !ErrOnCurve.Is(err):
			return nil, 0, err
		}
	}
	return nil, 0, errors.Wrap(errors.ErrDomain, "no viable bump")
}

// MustFindProgramAddress is like FindProgramAddress but panics on error.
// Use it only with constant seeds.
func MustFindProgramAddress(seeds [][]byte, program swapchain.Address) (swapchain.Address, uint8) {
	addr, bump, err := FindProgramAddress(seeds, program)
	if err != nil {
		panic(err)
	}
	return addr, bump
}
