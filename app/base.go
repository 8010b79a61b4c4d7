package app

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp adds DeliverTx and CheckTx handlers to the storage and query
// functionality of StoreApp.
type BaseApp struct {
	*StoreApp
	decoder htlc.TxDecoder
	handler htlc.Handler
	debug   bool
}

var _ abci.Application = BaseApp{}

// NewBaseApp constructs a basic abci application. In debug mode failed
// transactions report the full error with its stack trace.
func NewBaseApp(store *StoreApp, decoder htlc.TxDecoder, handler htlc.Handler, debug bool) BaseApp {
	return BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		debug:    debug,
	}
}

// DeliverTx applies the transaction to the open block. A failed transaction
// leaves no trace.
func (b BaseApp) DeliverTx(txBytes []byte) abci.ResponseDeliverTx {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inBlock {
		return htlc.DeliverTxError(errors.Wrap(errors.ErrState, "no open block"), b.debug)
	}
	ctx, err := b.blockContext()
	if err != nil {
		return htlc.DeliverTxError(err, b.debug)
	}
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return htlc.DeliverTxError(err, b.debug)
	}
	ctx = htlc.WithLogInfo(ctx, "call", "deliver_tx", "path", htlc.GetPath(tx))

	cache := b.deliverStore().CacheWrap()
	res, err := b.handler.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		htlc.GetLogger(ctx).Info("tx failed", "code", errors.Code(err), "err", err)
		return htlc.DeliverTxError(err, b.debug)
	}
	if err := cache.Write(); err != nil {
		return htlc.DeliverTxError(errors.Wrap(err, "write tx"), b.debug)
	}
	return htlc.DeliverOrError(res, nil, b.debug)
}

// CheckTx validates the transaction against the last committed state. No
// changes are ever persisted.
func (b BaseApp) CheckTx(txBytes []byte) abci.ResponseCheckTx {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, err := b.blockContext()
	if err != nil {
		return htlc.CheckTxError(err, b.debug)
	}
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return htlc.CheckTxError(err, b.debug)
	}
	ctx = htlc.WithLogInfo(ctx, "call", "check_tx", "path", htlc.GetPath(tx))

	cache := b.store.CacheWrap()
	defer cache.Discard()
	res, err := b.handler.Check(ctx, cache, tx)
	return htlc.CheckOrError(res, err, b.debug)
}

// loadTx calls the decoder, and capture any panics
func (b BaseApp) loadTx(txBytes []byte) (tx htlc.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = b.decoder(txBytes)
	if err != nil {
		return nil, errors.Wrap(err, "decode tx")
	}
	return tx, nil
}
