package aswap

import (
	"bytes"
	"encoding/hex"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
)

// Ledger moves funds between accounts. It is implemented by cash.Controller.
type Ledger interface {
	// Transfer moves amount between accounts. The authority must control
	// the source account.
	Transfer(db htlc.KVStore, from, to htlc.Address, authority htlc.Condition, amount coin.Coin) error
	// Owner returns the address controlling given account.
	Owner(db htlc.ReadOnlyKVStore, account htlc.Address) (htlc.Address, error)
}

// Engine executes the swap transitions. It keeps no state of its own, every
// swap lives in the store.
type Engine struct {
	bucket orm.ModelBucket
	ledger Ledger
}

// NewEngine returns an engine moving funds with given ledger.
func NewEngine(ledger Ledger) Engine {
	return Engine{bucket: NewBucket(), ledger: ledger}
}

// Initiate creates a swap described by msg and funds its vault from the
// source account. The caller becomes the initiator and must control the
// source account. Nothing is written unless both succeed.
func (e Engine) Initiate(ctx htlc.Context, db htlc.KVStore, caller htlc.Condition, msg *CreateMsg) (*Swap, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	if !htlc.InTheFuture(ctx, msg.Expiry) {
		return nil, errors.Wrapf(errors.ErrExpired, "expiry %s is not after %s", msg.Expiry, now)
	}

	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if conf.MaxLockPeriod > 0 && int64(msg.Expiry-now) > conf.MaxLockPeriod {
		return nil, errors.Wrapf(errors.ErrInput, "swap cannot be locked for more than %d seconds", conf.MaxLockPeriod)
	}
	if int64(len(msg.Memo)) > conf.MaxMemoLength {
		return nil, errors.Wrapf(errors.ErrInput, "memo longer than %d", conf.MaxMemoLength)
	}

	initiator := caller.Address()
	id := SwapID(initiator, msg.Label)
	switch err := e.bucket.Has(db, id); {
	case err == nil:
		return nil, errors.Wrapf(ErrDuplicateEscrow, "label %q", msg.Label)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	vault := DeriveVault(initiator, msg.Label)
	swap := &Swap{
		Authority:    vault.Authority,
		Vault:        vault.Address,
		Initiator:    initiator,
		Label:        msg.Label,
		Recipient:    msg.Recipient,
		PreimageHash: msg.PreimageHash,
		Amount:       msg.Amount.Clone(),
		Expiry:       msg.Expiry,
		State:        SwapCreated,
		CreatedAt:    now,
		Memo:         msg.Memo,
	}

	err = atomically(db, func(db htlc.KVStore) error {
		if err := e.bucket.Put(db, id, swap); err != nil {
			return err
		}
		if err := e.ledger.Transfer(db, msg.Source, vault.Address, caller, *swap.Amount); err != nil {
			return errors.Append(errors.Wrap(ErrTransferFailed, "fund vault"), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	htlc.GetLogger(ctx).Info("swap created",
		"swap", hex.EncodeToString(id), "amount", swap.Amount.String(), "expiry", swap.Expiry)
	return swap, nil
}

// Redeem releases the swap funds to the destination account, which must be
// owned by the recipient. The preimage must hash to the committed digest and
// is stored in the swap.
func (e Engine) Redeem(ctx htlc.Context, db htlc.KVStore, swapID, preimage []byte, destination htlc.Address) (*Swap, error) {
	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	swap, err := e.Swap(db, swapID)
	if err != nil {
		return nil, err
	}
	if swap.State != SwapCreated {
		return nil, errors.Wrapf(ErrInvalidState, "swap is %s", swap.State)
	}
	if !bytes.Equal(HashBytes(preimage), swap.PreimageHash) {
		return nil, errors.Wrap(ErrSecretMismatch, "preimage does not match the hash")
	}
	owner, err := e.ledger.Owner(db, destination)
	if err != nil {
		return nil, errors.Wrap(err, "destination")
	}
	if !owner.Equals(swap.Recipient) {
		return nil, errors.Wrapf(ErrInvalidRecipient, "%s is owned by %s", destination, owner)
	}

	settled := *swap
	settled.Preimage = append([]byte(nil), preimage...)
	settled.State = SwapRedeemed
	settled.SettledAt = now
	if err := e.settle(db, swapID, &settled, destination); err != nil {
		return nil, err
	}

	htlc.GetLogger(ctx).Info("swap redeemed", "swap", hex.EncodeToString(swapID))
	return &settled, nil
}

// Refund returns the funds of an expired swap to the destination account,
// which must be owned by the initiator.
func (e Engine) Refund(ctx htlc.Context, db htlc.KVStore, swapID []byte, destination htlc.Address) (*Swap, error) {
	now, err := blockNow(ctx)
	if err != nil {
		return nil, err
	}
	swap, err := e.Swap(db, swapID)
	if err != nil {
		return nil, err
	}
	if swap.State != SwapCreated {
		return nil, errors.Wrapf(ErrInvalidState, "swap is %s", swap.State)
	}
	if !htlc.IsExpired(ctx, swap.Expiry) {
		return nil, errors.Wrapf(ErrNotExpired, "swap expires at %s", swap.Expiry)
	}
	owner, err := e.ledger.Owner(db, destination)
	if err != nil {
		return nil, errors.Wrap(err, "destination")
	}
	if !owner.Equals(swap.Initiator) {
		return nil, errors.Wrapf(ErrInvalidInitiator, "%s is owned by %s", destination, owner)
	}

	settled := *swap
	settled.State = SwapRefunded
	settled.SettledAt = now
	if err := e.settle(db, swapID, &settled, destination); err != nil {
		return nil, err
	}

	htlc.GetLogger(ctx).Info("swap refunded", "swap", hex.EncodeToString(swapID))
	return &settled, nil
}

// settle moves the vault funds to destination and stores the swap in its
// terminal state, both or neither.
func (e Engine) settle(db htlc.KVStore, swapID []byte, swap *Swap, destination htlc.Address) error {
	return atomically(db, func(db htlc.KVStore) error {
		if err := e.ledger.Transfer(db, swap.Vault, destination, swap.Authority, *swap.Amount); err != nil {
			return errors.Append(errors.Wrap(ErrTransferFailed, "release vault"), err)
		}
		return e.bucket.Put(db, swapID, swap)
	})
}

// Swap returns the swap stored under given id.
func (e Engine) Swap(db htlc.ReadOnlyKVStore, swapID []byte) (*Swap, error) {
	if err := validateSwapID(swapID); err != nil {
		return nil, err
	}
	var s Swap
	if err := e.bucket.One(db, swapID, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SwapsByPreimageHash returns all swaps locked with given hash. Paired swaps
// of an atomic swap share the hash.
func (e Engine) SwapsByPreimageHash(db htlc.ReadOnlyKVStore, hash []byte) ([]*Swap, error) {
	return e.byIndex(db, "preimage_hash", hash)
}

// SwapsByRecipient returns all swaps that given address can redeem.
func (e Engine) SwapsByRecipient(db htlc.ReadOnlyKVStore, recipient htlc.Address) ([]*Swap, error) {
	return e.byIndex(db, "recipient", recipient)
}

// SwapsByInitiator returns all swaps created by given address.
func (e Engine) SwapsByInitiator(db htlc.ReadOnlyKVStore, initiator htlc.Address) ([]*Swap, error) {
	return e.byIndex(db, "initiator", initiator)
}

func (e Engine) byIndex(db htlc.ReadOnlyKVStore, name string, key []byte) ([]*Swap, error) {
	var swaps []*Swap
	if err := e.bucket.ByIndex(db, name, key, &swaps); err != nil {
		return nil, err
	}
	return swaps, nil
}

func blockNow(ctx htlc.Context) (htlc.UnixTime, error) {
	now, ok := htlc.BlockTime(ctx)
	if !ok {
		return 0, errors.Wrap(errors.ErrHuman, "block time not present in context")
	}
	return htlc.AsUnixTime(now), nil
}

// atomically runs fn on a cache wrap of db and writes it only if fn
// succeeds.
func atomically(db htlc.KVStore, fn func(htlc.KVStore) error) error {
	cstore, ok := db.(htlc.CacheableKVStore)
	if !ok {
		return errors.Wrapf(errors.ErrHuman, "%T cannot be cache wrapped", db)
	}
	cache := cstore.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}
