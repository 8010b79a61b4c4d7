package aswap

import "github.com/iov-one/htlc/errors"

var (
	// ErrDuplicateEscrow is returned when a swap with the same initiator and
	// label already exists.
	ErrDuplicateEscrow = errors.Register(200, "duplicate escrow")

	// ErrInvalidState is returned when a settled swap is redeemed or
	// refunded.
	ErrInvalidState = errors.Register(201, "swap is not active")

	// ErrSecretMismatch is returned when the preimage does not hash to the
	// committed digest.
	ErrSecretMismatch = errors.Register(202, "secret mismatch")

	// ErrNotExpired is returned when a refund is attempted before expiry.
	ErrNotExpired = errors.Register(203, "swap not expired")

	ErrInvalidRecipient = errors.Register(204, "destination not owned by recipient")
	ErrInvalidInitiator = errors.Register(205, "destination not owned by initiator")

	// ErrTransferFailed is combined with the error returned by the ledger.
	ErrTransferFailed = errors.Register(206, "transfer failed")
)
