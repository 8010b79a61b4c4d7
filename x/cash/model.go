package cash

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

// Account holds the balance of a single address.
type Account struct {
	// Owner is the address allowed to move funds out of this account.
	Owner htlc.Address `protobuf:"bytes,1,opt,name=owner,proto3,casttype=github.com/iov-one/htlc.Address"`
	Coins coin.Coins   `protobuf:"bytes,2,rep,name=coins,proto3,castrepeated=github.com/iov-one/htlc/coin.Coins"`
}

var _ orm.Model = (*Account)(nil)

// Validate requires a valid owner and a normalized, non negative balance.
func (a *Account) Validate() error {
	if err := a.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if err := a.Coins.Validate(); err != nil {
		return errors.Wrap(err, "coins")
	}
	if !a.Coins.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative balance")
	}
	return nil
}

// NewAccountBucket returns a bucket storing accounts by their address,
// indexed by owner.
func NewAccountBucket() orm.ModelBucket {
	return orm.NewModelBucket("cash", &Account{},
		orm.WithIndex("owner", ownerIndex, false),
	)
}

func ownerIndex(m orm.Model) ([]byte, error) {
	a, ok := m.(*Account)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return a.Owner, nil
}
