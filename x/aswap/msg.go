package aswap

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
)

const (
	pathCreateMsg = "aswap/create"
	pathRedeemMsg = "aswap/redeem"
	pathRefundMsg = "aswap/refund"

	maxMemoSize     = 128
	maxLabelSize    = 32
	maxPreimageSize = 64
	// sha256 digest
	preimageHashSize = 32
)

// CreateMsg locks the amount from the source account in a new swap. The
// owner of the source account becomes the initiator.
type CreateMsg struct {
	Source       htlc.Address  `protobuf:"bytes,1,opt,name=source,proto3,casttype=github.com/iov-one/htlc.Address"`
	Recipient    htlc.Address  `protobuf:"bytes,2,opt,name=recipient,proto3,casttype=github.com/iov-one/htlc.Address"`
	PreimageHash []byte        `protobuf:"bytes,3,opt,name=preimage_hash,json=preimageHash,proto3"`
	Amount       *coin.Coin    `protobuf:"bytes,4,opt,name=amount,proto3"`
	Expiry       htlc.UnixTime `protobuf:"varint,5,opt,name=expiry,proto3,casttype=github.com/iov-one/htlc.UnixTime"`
	Label        []byte        `protobuf:"bytes,6,opt,name=label,proto3"`
	Memo         string        `protobuf:"bytes,7,opt,name=memo,proto3"`
}

// RedeemMsg releases the swap funds into an account of the recipient.
type RedeemMsg struct {
	SwapID      []byte       `protobuf:"bytes,1,opt,name=swap_id,json=swapId,proto3"`
	Preimage    []byte       `protobuf:"bytes,2,opt,name=preimage,proto3"`
	Destination htlc.Address `protobuf:"bytes,3,opt,name=destination,proto3,casttype=github.com/iov-one/htlc.Address"`
}

// RefundMsg returns the funds of an expired swap into an account of the
// initiator.
type RefundMsg struct {
	SwapID      []byte       `protobuf:"bytes,1,opt,name=swap_id,json=swapId,proto3"`
	Destination htlc.Address `protobuf:"bytes,2,opt,name=destination,proto3,casttype=github.com/iov-one/htlc.Address"`
}

var (
	_ htlc.Msg = (*CreateMsg)(nil)
	_ htlc.Msg = (*RedeemMsg)(nil)
	_ htlc.Msg = (*RefundMsg)(nil)
)

func (CreateMsg) Path() string {
	return pathCreateMsg
}

func (RedeemMsg) Path() string {
	return pathRedeemMsg
}

func (RefundMsg) Path() string {
	return pathRefundMsg
}

func (m *CreateMsg) Validate() error {
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := m.Recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	if err := validatePreimageHash(m.PreimageHash); err != nil {
		return err
	}
	if err := validateAmount(m.Amount); err != nil {
		return err
	}
	if m.Expiry == 0 {
		// Zero is 1970-01-01, most likely the value was not provided.
		return errors.Wrap(errors.ErrInput, "expiry is required")
	}
	if err := m.Expiry.Validate(); err != nil {
		return errors.Wrap(err, "expiry")
	}
	if err := validateLabel(m.Label); err != nil {
		return err
	}
	if len(m.Memo) > maxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo longer than %d", maxMemoSize)
	}
	return nil
}

func (m *RedeemMsg) Validate() error {
	if err := validateSwapID(m.SwapID); err != nil {
		return err
	}
	if len(m.Preimage) == 0 || len(m.Preimage) > maxPreimageSize {
		return errors.Wrapf(errors.ErrInput, "preimage must be 1-%d bytes", maxPreimageSize)
	}
	return errors.Wrap(m.Destination.Validate(), "destination")
}

func (m *RefundMsg) Validate() error {
	if err := validateSwapID(m.SwapID); err != nil {
		return err
	}
	return errors.Wrap(m.Destination.Validate(), "destination")
}

func validateAmount(amount *coin.Coin) error {
	if amount == nil {
		return errors.Wrap(errors.ErrAmount, "amount is required")
	}
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", amount)
	}
	return nil
}

func validatePreimageHash(hash []byte) error {
	if len(hash) != preimageHashSize {
		return errors.Wrapf(errors.ErrInput, "preimage hash must be exactly %d bytes", preimageHashSize)
	}
	return nil
}

func validateLabel(label []byte) error {
	if len(label) == 0 || len(label) > maxLabelSize {
		return errors.Wrapf(errors.ErrInput, "label must be 1-%d bytes", maxLabelSize)
	}
	return nil
}
