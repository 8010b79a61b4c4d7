package cash

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r htlc.Registry, auth x.Authenticator, ctrl Controller) {
	r.Handle(&SendMsg{}, NewSendHandler(auth, ctrl))
}

// RegisterQuery exposes accounts under /wallets.
func RegisterQuery(qr htlc.QueryRouter) {
	NewAccountBucket().Register("wallets", qr)
}

// SendHandler will handle sending coins
type SendHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ htlc.Handler = SendHandler{}

// NewSendHandler creates a handler for SendMsg
func NewSendHandler(auth x.Authenticator, ctrl Controller) SendHandler {
	return SendHandler{auth: auth, ctrl: ctrl}
}

// Check just verifies it is properly formed and returns
// the cost of executing it
func (h SendHandler) Check(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx) (*htlc.CheckResult, error) {
	if _, _, err := h.validate(ctx, store, tx); err != nil {
		return nil, err
	}
	return &htlc.CheckResult{}, nil
}

// Deliver moves the tokens from source to destination if
// all preconditions are met
func (h SendHandler) Deliver(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx) (*htlc.DeliverResult, error) {
	msg, signer, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Transfer(store, msg.Source, msg.Destination, signer, *msg.Amount); err != nil {
		return nil, err
	}
	return &htlc.DeliverResult{Log: "sent " + msg.Amount.String()}, nil
}

// validate returns the message and the signer condition that owns the source
// account.
func (h SendHandler) validate(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx) (*SendMsg, htlc.Condition, error) {
	var msg SendMsg
	if err := htlc.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	owner, err := h.ctrl.Owner(store, msg.Source)
	if err != nil {
		return nil, nil, err
	}
	signer := x.SignerOf(ctx, h.auth, owner)
	if signer == nil {
		return nil, nil, errors.Wrapf(errors.ErrUnauthorized, "owner of %s did not sign", msg.Source)
	}
	return &msg, signer, nil
}
