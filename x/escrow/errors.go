package escrow

import (
	"github.com/iov-one/swapchain/errors"
)

// IsValidationErr returns true for errors caused by a malformed or
// unauthorized instruction.
func IsValidationErr(err error) bool {
	return errors.ErrInvalidInput.Is(err) ||
		errors.ErrInvalidAmount.Is(err) ||
		errors.ErrInvalidMsg.Is(err) ||
		errors.ErrUnauthorized.Is(err) ||
		errors.ErrConstraint.Is(err) ||
		errors.ErrEmpty.Is(err)
}

// IsBalanceErr returns true when an account cannot cover a transfer.
func IsBalanceErr(err error) bool {
	return errors.ErrInsufficientAmount.Is(err) || errors.ErrOverflow.Is(err)
}

// IsAlreadyExistsErr returns true when an offer with the same maker and
// seed is still open.
func IsAlreadyExistsErr(err error) bool {
	return errors.ErrDuplicate.Is(err)
}

// IsNotFoundErr returns true when the referenced offer or account does not
// exist, which includes offers that were already settled.
func IsNotFoundErr(err error) bool {
	return errors.ErrNotFound.Is(err)
}

// IsDomainErr returns true for the program error raised on an empty or
// missing vault.
func IsDomainErr(err error) bool {
	return errors.ErrDomain.Is(err)
}
