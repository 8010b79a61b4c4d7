package utils

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Recovery fails a transaction whose handler panicked with ErrPanic,
// instead of taking the whole application down. Every swap and transfer
// handler runs below it, so a bug in one message type cannot halt the ledger.
type Recovery struct{}

var _ htlc.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (r Recovery) Check(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx, next htlc.Checker) (_ *htlc.CheckResult, err error) {
	defer recoverTx(ctx, tx, "check", &err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (r Recovery) Deliver(ctx htlc.Context, store htlc.KVStore, tx htlc.Tx, next htlc.Deliverer) (_ *htlc.DeliverResult, err error) {
	defer recoverTx(ctx, tx, "deliver", &err)
	return next.Deliver(ctx, store, tx)
}

// recoverTx must be deferred directly. The panic value is logged with the
// message path, as the returned error is all a client ever sees.
func recoverTx(ctx htlc.Context, tx htlc.Tx, step string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	path := htlc.GetPath(tx)
	*err = errors.Wrapf(errors.ErrPanic, "%s %s: %v", step, path, r)
	htlc.GetLogger(ctx).Error("handler panic", "step", step, "path", path, "panic", r)
}
