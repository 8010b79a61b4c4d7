package aswap

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r htlc.Registry, auth x.Authenticator, ledger Ledger) {
	engine := NewEngine(ledger)
	r.Handle(&CreateMsg{}, CreateHandler{auth: auth, engine: engine, ledger: ledger})
	r.Handle(&RedeemMsg{}, RedeemHandler{engine: engine})
	r.Handle(&RefundMsg{}, RefundHandler{engine: engine})
}

// RegisterQuery registers the swap bucket under /aswaps, so swaps can be
// looked up by id, initiator, recipient or preimage hash.
func RegisterQuery(qr htlc.QueryRouter) {
	NewBucket().Register("aswaps", qr)
}

// CreateHandler creates a swap
type CreateHandler struct {
	auth   x.Authenticator
	engine Engine
	ledger Ledger
}

var _ htlc.Handler = CreateHandler{}

// Check does the validation of the message and the signer.
func (h CreateHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{}, nil
}

// Deliver moves the tokens from the source account to the swap vault.
func (h CreateHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	msg, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	swap, err := h.engine.Initiate(ctx, db, caller, msg)
	if err != nil {
		return nil, err
	}
	// return id of swap to use in future calls
	return &htlc.DeliverResult{
		Data: SwapID(swap.Initiator, swap.Label),
		Log:  "swap created",
	}, nil
}

// validate returns the message and the signer that owns the source account.
func (h CreateHandler) validate(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*CreateMsg, htlc.Condition, error) {
	var msg CreateMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	owner, err := h.ledger.Owner(db, msg.Source)
	if err != nil {
		return nil, nil, errors.Wrap(err, "source")
	}
	caller := x.SignerOf(ctx, h.auth, owner)
	if caller == nil {
		return nil, nil, errors.Wrapf(errors.ErrUnauthorized, "owner of %s did not sign", msg.Source)
	}
	return &msg, caller, nil
}

// RedeemHandler releases the swap to the recipient. Anyone knowing the
// preimage can submit it.
type RedeemHandler struct {
	engine Engine
}

var _ htlc.Handler = RedeemHandler{}

// Check validates the message and that the swap can be redeemed.
func (h RedeemHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg RedeemMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	swap, err := h.engine.Swap(db, msg.SwapID)
	if err != nil {
		return nil, err
	}
	if swap.State != SwapCreated {
		return nil, errors.Wrapf(ErrInvalidState, "swap is %s", swap.State)
	}
	return &htlc.CheckResult{}, nil
}

// Deliver moves the tokens from the vault to the destination.
func (h RedeemHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg RedeemMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := h.engine.Redeem(ctx, db, msg.SwapID, msg.Preimage, msg.Destination); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{Data: msg.SwapID, Log: "swap redeemed"}, nil
}

// RefundHandler returns the funds of an expired swap to the initiator.
type RefundHandler struct {
	engine Engine
}

var _ htlc.Handler = RefundHandler{}

// Check validates the message and that the swap can be refunded.
func (h RefundHandler) Check(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	var msg RefundMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	swap, err := h.engine.Swap(db, msg.SwapID)
	if err != nil {
		return nil, err
	}
	if swap.State != SwapCreated {
		return nil, errors.Wrapf(ErrInvalidState, "swap is %s", swap.State)
	}
	if !htlc.IsExpired(ctx, swap.Expiry) {
		return nil, errors.Wrapf(ErrNotExpired, "swap expires at %s", swap.Expiry)
	}
	return &htlc.CheckResult{}, nil
}

// Deliver moves the tokens from the vault back to the destination.
func (h RefundHandler) Deliver(ctx htlc.Context, db htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	var msg RefundMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := h.engine.Refund(ctx, db, msg.SwapID, msg.Destination); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{Data: msg.SwapID, Log: "swap refunded"}, nil
}
