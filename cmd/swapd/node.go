package main

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	swapd "github.com/iov-one/htlc/cmd/swapd/app"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store/iavl"
	abci "github.com/tendermint/tendermint/abci/types"
	"golang.org/x/crypto/ed25519"
)

// now returns the wall clock used for new blocks.
var now = time.Now

// ledger is an application opened on the local database. It is driven by
// the same ABCI requests a tendermint node would send.
type ledger struct {
	store *iavl.CommitStore
	app   app.BaseApp
}

func openLedger(c config) (*ledger, error) {
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	store, err := swapd.CommitKVStore(c.Home, c.DBBackend)
	if err != nil {
		return nil, err
	}
	a, err := swapd.Application(store, logger, c.Debug)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &ledger{store: store, app: a}, nil
}

func (l *ledger) Close() {
	l.store.Close()
}

// initialized returns an error if the ledger has no chain yet.
func (l *ledger) initialized() error {
	if l.app.ChainID() == "" {
		return errors.Wrap(errors.ErrState, "ledger not initialized, run init first")
	}
	return nil
}

// initChain loads the genesis into a new chain and commits it.
func (l *ledger) initChain(gen *app.Genesis) (res abci.ResponseCommit, err error) {
	if chainID := l.app.ChainID(); chainID != "" {
		return res, errors.Wrapf(errors.ErrState, "chain %q already initialized", chainID)
	}
	req, err := gen.InitChainRequest()
	if err != nil {
		return res, err
	}
	defer recoverABCI(&err)
	l.app.InitChain(req)
	return l.app.Commit(), nil
}

// submit signs the message with given key and delivers it in a new block.
// The block is committed only when the message succeeds.
func (l *ledger) submit(key *crypto.PrivateKey, msg htlc.Msg) (*htlc.DeliverResult, error) {
	if err := l.initialized(); err != nil {
		return nil, err
	}
	chainID := l.app.ChainID()
	tx, err := swapd.NewTx(msg)
	if err != nil {
		return nil, err
	}
	if key != nil {
		seq, err := swapd.QuerySequence(l.app, key.PublicKey().Address())
		if err != nil {
			return nil, err
		}
		if err := tx.Sign(key, chainID, seq); err != nil {
			return nil, errors.Wrap(err, "sign")
		}
	}
	raw, err := tx.Marshal()
	if err != nil {
		return nil, err
	}

	// The clock of the ledger never goes back, even if the wall clock
	// does.
	blockTime := now().UTC()
	if last := l.app.BlockTime(); blockTime.Before(last) {
		blockTime = last
	}
	info := l.app.Info(abci.RequestInfo{})
	return l.deliverBlock(abci.Header{
		ChainID: chainID,
		Height:  info.LastBlockHeight + 1,
		Time:    blockTime,
	}, raw)
}

// deliverBlock runs a block holding a single transaction. A failed
// transaction leaves the open block uncommitted, so that nothing of it is
// persisted.
func (l *ledger) deliverBlock(header abci.Header, tx []byte) (res *htlc.DeliverResult, err error) {
	defer recoverABCI(&err)
	l.app.BeginBlock(abci.RequestBeginBlock{Header: header})
	res, err = htlc.ParseDeliverOrError(l.app.DeliverTx(tx))
	if err != nil {
		return nil, err
	}
	l.app.EndBlock(abci.RequestEndBlock{Height: header.Height})
	l.app.Commit()
	return res, nil
}

// recoverABCI turns a panic of an ABCI step into an error.
func recoverABCI(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = e
			return
		}
		*err = errors.Wrapf(errors.ErrPanic, "%v", r)
	}
}

// loadOptionalKey returns the private key stored under path, or nil if there
// is no such file.
func loadOptionalKey(path string) (*crypto.PrivateKey, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return loadKey(path)
}

func loadKey(path string) (*crypto.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot read private key file: %s", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "invalid private key length: %d", len(raw))
	}
	return &crypto.PrivateKey{Ed25519: raw}, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
