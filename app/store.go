package app

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	chainIDKey   = []byte("_app:chain_id")
	blockTimeKey = []byte("_app:block_time")
)

// StoreApp contains a committed store and everything needed to answer
// queries and to open and persist blocks.
//
// It is embedded by BaseApp, which adds CheckTx and DeliverTx. The block time
// is the clock of every handler and never goes backwards, even across
// restarts.
//
// Errors in ABCI steps that take no user input (InitChain, BeginBlock and
// Commit) cannot be reported to the caller and panic.
//
// All methods are serialized, so that handlers never run concurrently.
type StoreApp struct {
	mu sync.Mutex

	logger log.Logger

	// name is what is returned from abci.Info
	name  string
	store htlc.CommitKVStore

	initializer htlc.Initializer
	queryRouter htlc.QueryRouter

	// chainID is loaded from the store, saved once in InitChain
	chainID string
	// blockTime of the last opened block
	blockTime time.Time
	// height of the last opened block
	height int64
	// deliver collects the writes of the current block
	deliver htlc.KVCacheWrap
	// inBlock is set between BeginBlock and Commit
	inBlock bool
}

var _ abci.Application = (*StoreApp)(nil)

// NewStoreApp returns an app reading its state from given store. The store
// must have its latest version loaded.
func NewStoreApp(name string, store htlc.CommitKVStore, queryRouter htlc.QueryRouter) (*StoreApp, error) {
	s := &StoreApp{
		logger:      log.NewNopLogger(),
		name:        name,
		store:       store,
		queryRouter: queryRouter,
	}

	chainID, err := store.Get(chainIDKey)
	if err != nil {
		return nil, errors.Wrap(err, "load chain id")
	}
	s.chainID = string(chainID)

	raw, err := store.Get(blockTimeKey)
	if err != nil {
		return nil, errors.Wrap(err, "load block time")
	}
	if len(raw) == 8 {
		s.blockTime = time.Unix(0, int64(binary.BigEndian.Uint64(raw))).UTC()
	}

	id, err := store.LatestVersion()
	if err != nil {
		return nil, errors.Wrap(err, "load version")
	}
	s.height = id.Version
	return s, nil
}

// WithInit sets the initializer called by InitChain.
func (s *StoreApp) WithInit(init htlc.Initializer) *StoreApp {
	s.initializer = init
	return s
}

// WithLogger sets the logger on the app.
func (s *StoreApp) WithLogger(logger log.Logger) *StoreApp {
	s.logger = logger.With("module", s.name)
	return s
}

// ChainID returns the chain the app was initialized with, or an empty
// string before InitChain.
func (s *StoreApp) ChainID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chainID
}

// BlockTime returns the time of the last opened block.
func (s *StoreApp) BlockTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockTime
}

// Info implements abci.Application. It returns the name of the app and the
// height and hash of the last commit.
func (s *StoreApp) Info(req abci.RequestInfo) abci.ResponseInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.LatestVersion()
	if err != nil {
		panic(err)
	}
	s.logger.Info("info synced", "height", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return abci.ResponseInfo{
		Data:             s.name,
		LastBlockHeight:  id.Version,
		LastBlockAppHash: id.Hash,
	}
}

// SetOption implements abci.Application.
func (s *StoreApp) SetOption(abci.RequestSetOption) abci.ResponseSetOption {
	return abci.ResponseSetOption{Log: "not implemented"}
}

/*
Query reads from the last committed state.

Path is "/<bucket>" to look up by primary key, or "/<bucket>/<index>" to
look up by an index value given as Data. It may be followed by "?prefix" to
return every entity whose key starts with Data.

Key and Value of the response are serialized ResultSets of equal size.
*/
func (s *StoreApp) Query(req abci.RequestQuery) abci.ResponseQuery {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, mod := splitPath(req.Path)
	qh := s.queryRouter.Handler(path)
	if qh == nil {
		return queryError(errors.Wrapf(errors.ErrNotFound, "unexpected query path %q", req.Path))
	}

	id, err := s.store.LatestVersion()
	if err != nil {
		return queryError(err)
	}
	db := s.store.CacheWrap()
	defer db.Discard()

	models, err := qh.Query(db, mod, req.Data)
	if err != nil {
		return queryError(err)
	}
	res := abci.ResponseQuery{Height: id.Version}
	if res.Key, err = ResultsFromKeys(models).Marshal(); err != nil {
		return queryError(err)
	}
	if res.Value, err = ResultsFromValues(models).Marshal(); err != nil {
		return queryError(err)
	}
	return res
}

// splitPath splits out the real path along with the query
// modifier (everything after the ?)
func splitPath(path string) (string, string) {
	var mod string
	chunks := strings.SplitN(path, "?", 2)
	if len(chunks) == 2 {
		path = chunks[0]
		mod = chunks[1]
	}
	return path, mod
}

func queryError(err error) abci.ResponseQuery {
	code, log := errors.ABCIInfo(err, false)
	return abci.ResponseQuery{Code: code, Log: log}
}

// InitChain implements abci.Application. It stores the chain id and loads
// the application state into the first block. It can be called only once in
// the lifetime of a store.
func (s *StoreApp) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initChain(req); err != nil {
		if s.deliver != nil && s.chainID == "" {
			s.deliver.Discard()
			s.deliver = nil
		}
		panic(err)
	}
	s.logger.Info("chain initialized", "chain_id", s.chainID)
	return abci.ResponseInitChain{}
}

func (s *StoreApp) initChain(req abci.RequestInitChain) error {
	if s.chainID != "" {
		return errors.Wrapf(errors.ErrState, "chain %q already initialized", s.chainID)
	}
	if !htlc.IsValidChainID(req.ChainId) {
		return errors.Wrapf(errors.ErrInput, "invalid chain id %q", req.ChainId)
	}
	var opts htlc.Options
	if len(req.AppStateBytes) > 0 {
		if err := json.Unmarshal(req.AppStateBytes, &opts); err != nil {
			return errors.Wrapf(errors.ErrInput, "app state: %s", err)
		}
	}

	db := s.deliverStore()
	if s.initializer != nil {
		if err := s.initializer.FromGenesis(opts, db); err != nil {
			return errors.Wrap(err, "genesis")
		}
	}
	if err := db.Set(chainIDKey, []byte(req.ChainId)); err != nil {
		return err
	}
	if !req.Time.IsZero() {
		if err := s.setBlockTime(req.Time); err != nil {
			return err
		}
	}
	s.chainID = req.ChainId
	return nil
}

// BeginBlock implements abci.Application. It opens a block at the header
// time, which must not be before the time of the previous block.
func (s *StoreApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginBlock(req.Header); err != nil {
		panic(err)
	}
	s.logger.Debug("block opened", "height", s.height, "time", s.blockTime)
	return abci.ResponseBeginBlock{}
}

func (s *StoreApp) beginBlock(h abci.Header) error {
	switch {
	case s.chainID == "":
		return errors.Wrap(errors.ErrState, "chain not initialized")
	case s.inBlock:
		return errors.Wrap(errors.ErrState, "previous block not committed")
	case h.ChainID != "" && h.ChainID != s.chainID:
		return errors.Wrapf(errors.ErrInput, "block of chain %q", h.ChainID)
	case h.Time.IsZero():
		return errors.Wrap(errors.ErrInput, "block time is required")
	case h.Time.Before(s.blockTime):
		return errors.Wrapf(errors.ErrState, "block time %s is before the previous block %s", h.Time, s.blockTime)
	}
	if err := s.setBlockTime(h.Time); err != nil {
		return err
	}
	s.inBlock = true
	if h.Height > 0 {
		s.height = h.Height
	} else {
		s.height++
	}
	return nil
}

func (s *StoreApp) setBlockTime(t time.Time) error {
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(t.UnixNano()))
	if err := s.deliverStore().Set(blockTimeKey, ts); err != nil {
		return err
	}
	s.blockTime = t.UTC()
	return nil
}

// EndBlock implements abci.Application.
func (s *StoreApp) EndBlock(abci.RequestEndBlock) abci.ResponseEndBlock {
	return abci.ResponseEndBlock{}
}

// Commit implements abci.Application. It persists the current block, or an
// empty version when no block is open.
func (s *StoreApp) Commit() abci.ResponseCommit {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deliver != nil {
		err := s.deliver.Write()
		s.deliver = nil
		if err != nil {
			panic(errors.Wrap(err, "write block"))
		}
	}
	s.inBlock = false
	id, err := s.store.Commit()
	if err != nil {
		panic(err)
	}
	s.height = id.Version
	s.logger.Info("block committed", "height", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return abci.ResponseCommit{Data: id.Hash}
}

// CheckTx implements abci.Application. Without a decoder and a handler, as
// provided by BaseApp, every transaction is rejected.
func (s *StoreApp) CheckTx([]byte) abci.ResponseCheckTx {
	return htlc.CheckTxError(errors.Wrap(errors.ErrHuman, "no handler"), false)
}

// DeliverTx implements abci.Application. See CheckTx.
func (s *StoreApp) DeliverTx([]byte) abci.ResponseDeliverTx {
	return htlc.DeliverTxError(errors.Wrap(errors.ErrHuman, "no handler"), false)
}

// deliverStore returns the cache of the current block.
func (s *StoreApp) deliverStore() htlc.KVCacheWrap {
	if s.deliver == nil {
		s.deliver = s.store.CacheWrap()
	}
	return s.deliver
}

// blockContext returns the context of the current block.
func (s *StoreApp) blockContext() (htlc.Context, error) {
	if s.chainID == "" {
		return nil, errors.Wrap(errors.ErrState, "chain not initialized")
	}
	if s.blockTime.IsZero() {
		return nil, errors.Wrap(errors.ErrState, "no block time")
	}
	ctx := context.Background()
	ctx = htlc.WithChainID(ctx, s.chainID)
	ctx = htlc.WithHeight(ctx, s.height)
	ctx = htlc.WithBlockTime(ctx, s.blockTime)
	ctx = htlc.WithLogger(ctx, s.logger)
	return ctx, nil
}
