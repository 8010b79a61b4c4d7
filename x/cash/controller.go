package cash

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

// Controller is the entry point for other extensions to move funds.
type Controller struct {
	bucket orm.ModelBucket
}

// NewController returns a controller operating on the account bucket.
func NewController() Controller {
	return Controller{bucket: NewAccountBucket()}
}

// Transfer moves amount from one account to another. The authority must be
// the condition whose address owns the source account. The destination
// account is created if it does not exist yet.
func (c Controller) Transfer(db htlc.KVStore, from, to htlc.Address, authority htlc.Condition, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non positive transfer %s", amount)
	}
	if err := to.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}

	src, err := c.account(db, from)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	if !authority.Address().Equals(src.Owner) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s does not own %s", authority.Address(), from)
	}

	has := src.Coins.Get(amount.Ticker)
	if has.IsZero() {
		return errors.Wrapf(errors.ErrCurrency, "no %s in %s", amount.Ticker, from)
	}
	if !src.Coins.Contains(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "have %s, need %s", has, amount)
	}

	if src.Coins, err = src.Coins.Subtract(amount); err != nil {
		return err
	}
	if err := c.bucket.Put(db, from, src); err != nil {
		return errors.Wrap(err, "cannot save source")
	}

	dst, err := c.account(db, to)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if dst.Coins, err = dst.Coins.Add(amount); err != nil {
		return err
	}
	if err := c.bucket.Put(db, to, dst); err != nil {
		return errors.Wrap(err, "cannot save destination")
	}
	return nil
}

// Issue adds given amount of coins to the destination account. Fails if it
// overflows the account. The amount may be negative, as long as the
// resulting balance is not.
func (c Controller) Issue(db htlc.KVStore, dest htlc.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	acc, err := c.account(db, dest)
	if err != nil {
		return err
	}
	if acc.Coins, err = acc.Coins.Add(amount); err != nil {
		return err
	}
	return c.bucket.Put(db, dest, acc)
}

// Open creates an empty account owned by given address. An account that
// already exists cannot be opened again.
func (c Controller) Open(db htlc.KVStore, account, owner htlc.Address) error {
	if err := account.Validate(); err != nil {
		return errors.Wrap(err, "account")
	}
	switch err := c.bucket.Has(db, account); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "account %s", account)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	return c.bucket.Put(db, account, &Account{Owner: owner})
}

// Balance returns the coins held by given account. An unknown account is
// empty.
func (c Controller) Balance(db htlc.ReadOnlyKVStore, account htlc.Address) (coin.Coins, error) {
	acc, err := c.account(db, account)
	if err != nil {
		return nil, err
	}
	return acc.Coins, nil
}

// Owner returns the address that controls given account.
func (c Controller) Owner(db htlc.ReadOnlyKVStore, account htlc.Address) (htlc.Address, error) {
	acc, err := c.account(db, account)
	if err != nil {
		return nil, err
	}
	return acc.Owner, nil
}

// AccountsByOwner returns all stored accounts controlled by given owner.
func (c Controller) AccountsByOwner(db htlc.ReadOnlyKVStore, owner htlc.Address) ([]*Account, error) {
	var accs []*Account
	if err := c.bucket.ByIndex(db, "owner", owner, &accs); err != nil {
		return nil, err
	}
	return accs, nil
}

// account loads an account, or returns an empty one owned by its own
// address if it was never stored.
func (c Controller) account(db htlc.ReadOnlyKVStore, addr htlc.Address) (*Account, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	var acc Account
	switch err := c.bucket.One(db, addr, &acc); {
	case err == nil:
		return &acc, nil
	case errors.ErrNotFound.Is(err):
		return &Account{Owner: addr.Clone()}, nil
	default:
		return nil, err
	}
}
