package cash

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
)

const (
	pathSendMsg = "cash/send"

	maxMemoSize = 128
)

// SendMsg moves funds between two accounts. The source account owner must
// sign the transaction.
type SendMsg struct {
	Source      htlc.Address `protobuf:"bytes,1,opt,name=source,proto3,casttype=github.com/iov-one/htlc.Address"`
	Destination htlc.Address `protobuf:"bytes,2,opt,name=destination,proto3,casttype=github.com/iov-one/htlc.Address"`
	Amount      *coin.Coin   `protobuf:"bytes,3,opt,name=amount,proto3"`
	Memo        string       `protobuf:"bytes,4,opt,name=memo,proto3"`
}

var _ htlc.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message.
func (SendMsg) Path() string {
	return pathSendMsg
}

// Validate makes sure that this is sensible.
func (m *SendMsg) Validate() error {
	if m.Amount == nil || !m.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "non-positive SendMsg")
	}
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	if len(m.Memo) > maxMemoSize {
		return errors.Wrap(errors.ErrInput, "memo too long")
	}
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	return errors.Wrap(m.Destination.Validate(), "destination")
}
