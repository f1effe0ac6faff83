package token

import (
	"github.com/iov-one/swapchain"
	"github.com/iov-one/swapchain/pda"
)

var (
	// ProgramID identifies the token program.
	ProgramID = swapchain.MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// AssociatedProgramID is the program under which canonical holding
	// account addresses are derived.
	AssociatedProgramID = swapchain.MustParseAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// HoldingAddress returns the canonical holding account address for given
// owner and mint.
func HoldingAddress(owner, mint swapchain.Address) (swapchain.Address, error) {
	addr, _, err := pda.FindProgramAddress([][]byte{owner, ProgramID, mint}, AssociatedProgramID)
	return addr, err
}
