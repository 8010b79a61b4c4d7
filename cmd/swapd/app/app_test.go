package app

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/app"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest"
	"github.com/iov-one/htlc/x/aswap"
	"github.com/iov-one/htlc/x/cash"
	"github.com/iov-one/htlc/x/sigs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const chainID = "swap-test-chain"

var genesisTime = time.Date(2019, 7, 1, 12, 0, 0, 0, time.UTC)

type testApp struct {
	t     testing.TB
	app   app.BaseApp
	alice *crypto.PrivateKey
	bob   *crypto.PrivateKey
}

func newTestApp(t testing.TB, store htlc.CommitKVStore) *testApp {
	t.Helper()
	a, err := Application(store, log.NewNopLogger(), false)
	require.NoError(t, err)

	ta := &testApp{
		t:     t,
		app:   a,
		alice: crypto.PrivKeyEd25519FromSeed(make([]byte, 32)),
		bob:   crypto.PrivKeyEd25519FromSeed([]byte("bob-bob-bob-bob-bob-bob-bob-bob!")),
	}

	accounts, err := json.Marshal([]cash.GenesisAccount{
		{
			Address: ta.addr(ta.alice),
			Coins:   coin.Coins{coin.NewCoinp(1000, 0, "IOV")},
		},
	})
	require.NoError(t, err)
	conf, err := json.Marshal(map[string]aswap.Configuration{
		"aswap": {MaxLockPeriod: 7 * 24 * 3600, MaxMemoLength: 64},
	})
	require.NoError(t, err)

	gen := app.Genesis{
		ChainID:  chainID,
		AppState: htlc.Options{"cash": accounts, "conf": conf},
	}
	req, err := gen.InitChainRequest()
	require.NoError(t, err)
	a.InitChain(req)
	a.Commit()
	return ta
}

func (ta *testApp) addr(key *crypto.PrivateKey) htlc.Address {
	return key.PublicKey().Address()
}

// tx returns a serialized transaction signed by given keys.
func (ta *testApp) tx(msg htlc.Msg, signers ...*crypto.PrivateKey) []byte {
	ta.t.Helper()
	tx, err := NewTx(msg)
	require.NoError(ta.t, err)
	for _, key := range signers {
		seq, err := QuerySequence(ta.app, ta.addr(key))
		require.NoError(ta.t, err)
		require.NoError(ta.t, tx.Sign(key, chainID, seq))
	}
	raw, err := tx.Marshal()
	require.NoError(ta.t, err)
	return raw
}

// block delivers all transactions in a single block at given time and
// commits it. Returned are the delivery errors.
func (ta *testApp) block(at time.Time, txs ...[]byte) []error {
	ta.t.Helper()
	ta.beginBlock(at)
	errs := make([]error, len(txs))
	for i, raw := range txs {
		_, errs[i] = htlc.ParseDeliverOrError(ta.app.DeliverTx(raw))
	}
	ta.app.Commit()
	return errs
}

func (ta *testApp) beginBlock(at time.Time) {
	ta.app.BeginBlock(abci.RequestBeginBlock{Header: abci.Header{ChainID: chainID, Time: at}})
}

func (ta *testApp) balance(addr htlc.Address) coin.Coin {
	ta.t.Helper()
	acc, err := QueryAccount(ta.app, addr)
	require.NoError(ta.t, err)
	return acc.Coins.Get("IOV")
}

func (ta *testApp) swap(id []byte) *aswap.Swap {
	ta.t.Helper()
	s, err := QuerySwap(ta.app, id)
	require.NoError(ta.t, err)
	return s
}

// create locks 100 IOV of alice for bob, for one hour.
func (ta *testApp) create(at time.Time, label string) []byte {
	ta.t.Helper()
	msg := &aswap.CreateMsg{
		Source:       ta.addr(ta.alice),
		Recipient:    ta.addr(ta.bob),
		PreimageHash: aswap.HashBytes([]byte("secret")),
		Amount:       coin.NewCoinp(100, 0, "IOV"),
		Expiry:       htlc.AsUnixTime(at.Add(time.Hour)),
		Label:        []byte(label),
	}
	ta.beginBlock(at)
	res, err := htlc.ParseDeliverOrError(ta.app.DeliverTx(ta.tx(msg, ta.alice)))
	require.NoError(ta.t, err)
	ta.app.Commit()
	return res.Data
}

func TestScenarioRedeemThenRefund(t *testing.T) {
	ta := newTestApp(t, mustMemStore(t))
	T := genesisTime

	id := ta.create(T, "scenario-a")
	assert.Equal(t, coin.NewCoin(900, 0, "IOV"), ta.balance(ta.addr(ta.alice)))
	assert.Equal(t, aswap.SwapCreated, ta.swap(id).State)

	redeem := &aswap.RedeemMsg{SwapID: id, Preimage: []byte("secret"), Destination: ta.addr(ta.bob)}
	errs := ta.block(T.Add(10*time.Second), ta.tx(redeem, ta.bob))
	require.NoError(t, errs[0])

	s := ta.swap(id)
	assert.Equal(t, aswap.SwapRedeemed, s.State)
	assert.Equal(t, []byte("secret"), s.Preimage)
	assert.Equal(t, coin.NewCoin(100, 0, "IOV"), ta.balance(ta.addr(ta.bob)))

	refund := &aswap.RefundMsg{SwapID: id, Destination: ta.addr(ta.alice)}
	errs = ta.block(T.Add(3601*time.Second), ta.tx(refund, ta.alice))
	assert.True(t, aswap.ErrInvalidState.Is(errs[0]), "got %+v", errs[0])
	assert.Equal(t, coin.NewCoin(900, 0, "IOV"), ta.balance(ta.addr(ta.alice)))
}

func TestScenarioRefundThenRedeem(t *testing.T) {
	ta := newTestApp(t, mustMemStore(t))
	T := genesisTime

	id := ta.create(T, "scenario-b")

	refund := &aswap.RefundMsg{SwapID: id, Destination: ta.addr(ta.alice)}
	errs := ta.block(T.Add(time.Hour), ta.tx(refund, ta.alice))
	assert.True(t, aswap.ErrNotExpired.Is(errs[0]), "got %+v", errs[0])

	errs = ta.block(T.Add(3601*time.Second), ta.tx(refund, ta.alice))
	require.NoError(t, errs[0])
	assert.Equal(t, aswap.SwapRefunded, ta.swap(id).State)
	assert.Equal(t, coin.NewCoin(1000, 0, "IOV"), ta.balance(ta.addr(ta.alice)))

	redeem := &aswap.RedeemMsg{SwapID: id, Preimage: []byte("secret"), Destination: ta.addr(ta.bob)}
	errs = ta.block(T.Add(3700*time.Second), ta.tx(redeem, ta.bob))
	assert.True(t, aswap.ErrInvalidState.Is(errs[0]), "got %+v", errs[0])
	assert.True(t, ta.balance(ta.addr(ta.bob)).IsZero())
}

func TestFailedTransactionsDoNotMutate(t *testing.T) {
	ta := newTestApp(t, mustMemStore(t))
	T := genesisTime

	id := ta.create(T, "no-mutation")
	before := ta.swap(id)

	wrong := &aswap.RedeemMsg{SwapID: id, Preimage: []byte("guess"), Destination: ta.addr(ta.bob)}
	stolen := &aswap.RedeemMsg{SwapID: id, Preimage: []byte("secret"), Destination: ta.addr(ta.alice)}
	errs := ta.block(T.Add(time.Minute),
		ta.tx(wrong),
		ta.tx(wrong),
		ta.tx(stolen),
	)
	assert.True(t, aswap.ErrSecretMismatch.Is(errs[0]), "got %+v", errs[0])
	assert.True(t, aswap.ErrSecretMismatch.Is(errs[1]), "got %+v", errs[1])
	assert.True(t, aswap.ErrInvalidRecipient.Is(errs[2]), "got %+v", errs[2])

	assert.Equal(t, before, ta.swap(id))
	assert.Equal(t, coin.NewCoin(900, 0, "IOV"), ta.balance(ta.addr(ta.alice)))
}

func TestCreateAuthorization(t *testing.T) {
	ta := newTestApp(t, mustMemStore(t))
	T := genesisTime

	msg := &aswap.CreateMsg{
		Source:       ta.addr(ta.alice),
		Recipient:    ta.addr(ta.bob),
		PreimageHash: aswap.HashBytes([]byte("secret")),
		Amount:       coin.NewCoinp(100, 0, "IOV"),
		Expiry:       htlc.AsUnixTime(T.Add(time.Hour)),
		Label:        []byte("auth"),
	}
	signed := ta.tx(msg, ta.alice)

	errs := ta.block(T,
		ta.tx(msg),
		ta.tx(msg, ta.bob),
		signed,
		// replay of the same signed transaction
		signed,
	)
	assert.True(t, errors.ErrUnauthorized.Is(errs[0]), "got %+v", errs[0])
	assert.True(t, errors.ErrUnauthorized.Is(errs[1]), "got %+v", errs[1])
	require.NoError(t, errs[2])
	assert.True(t, sigs.ErrInvalidSequence.Is(errs[3]), "got %+v", errs[3])

	// A new signature with a valid sequence still cannot reuse the label.
	errs = ta.block(T, ta.tx(msg, ta.alice))
	assert.True(t, aswap.ErrDuplicateEscrow.Is(errs[0]), "got %+v", errs[0])
	assert.Equal(t, coin.NewCoin(900, 0, "IOV"), ta.balance(ta.addr(ta.alice)))
}

func TestCreateRejectsExpiredAndTooLong(t *testing.T) {
	ta := newTestApp(t, mustMemStore(t))
	T := genesisTime

	msg := func(label string, expiry time.Time) []byte {
		return ta.tx(&aswap.CreateMsg{
			Source:       ta.addr(ta.alice),
			Recipient:    ta.addr(ta.bob),
			PreimageHash: aswap.HashBytes([]byte("secret")),
			Amount:       coin.NewCoinp(1, 0, "IOV"),
			Expiry:       htlc.AsUnixTime(expiry),
			Label:        []byte(label),
		}, ta.alice)
	}

	errs := ta.block(T, msg("now", T))
	assert.True(t, errors.ErrExpired.Is(errs[0]), "got %+v", errs[0])
	errs = ta.block(T, msg("past", T.Add(-time.Second)))
	assert.True(t, errors.ErrExpired.Is(errs[0]), "got %+v", errs[0])
	errs = ta.block(T, msg("long", T.Add(8*24*time.Hour)))
	assert.True(t, errors.ErrInput.Is(errs[0]), "got %+v", errs[0])
	assert.Equal(t, coin.NewCoin(1000, 0, "IOV"), ta.balance(ta.addr(ta.alice)))
}

func TestCheckTx(t *testing.T) {
	ta := newTestApp(t, mustMemStore(t))
	T := genesisTime
	id := ta.create(T, "check")

	refund := ta.tx(&aswap.RefundMsg{SwapID: id, Destination: ta.addr(ta.alice)})
	_, err := htlc.ParseCheckOrError(ta.app.CheckTx(refund))
	assert.True(t, aswap.ErrNotExpired.Is(err), "got %+v", err)

	redeem := ta.tx(&aswap.RedeemMsg{SwapID: id, Preimage: []byte("secret"), Destination: ta.addr(ta.bob)})
	_, err = htlc.ParseCheckOrError(ta.app.CheckTx(redeem))
	require.NoError(t, err)
	assert.Equal(t, aswap.SwapCreated, ta.swap(id).State)
}

func TestSend(t *testing.T) {
	ta := newTestApp(t, mustMemStore(t))

	send := &cash.SendMsg{
		Source:      ta.addr(ta.alice),
		Destination: ta.addr(ta.bob),
		Amount:      coin.NewCoinp(250, 0, "IOV"),
		Memo:        "rent",
	}
	errs := ta.block(genesisTime, ta.tx(send, ta.alice), ta.tx(send, ta.bob))
	require.NoError(t, errs[0])
	assert.True(t, errors.ErrUnauthorized.Is(errs[1]), "got %+v", errs[1])
	assert.Equal(t, coin.NewCoin(750, 0, "IOV"), ta.balance(ta.addr(ta.alice)))
	assert.Equal(t, coin.NewCoin(250, 0, "IOV"), ta.balance(ta.addr(ta.bob)))
}

func TestSwapSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	store, err := CommitKVStore(dir, BackendGoLevelDB)
	require.NoError(t, err)
	ta := newTestApp(t, store)
	id := ta.create(genesisTime, "restart")
	store.Close()

	store, err = CommitKVStore(dir, BackendGoLevelDB)
	require.NoError(t, err)
	defer store.Close()
	a, err := Application(store, log.NewNopLogger(), false)
	require.NoError(t, err)
	ta.app = a

	assert.Equal(t, chainID, a.ChainID())
	assert.Equal(t, genesisTime, a.BlockTime())
	assert.Equal(t, aswap.SwapCreated, ta.swap(id).State)

	// The clock of the restarted app cannot go backwards.
	assert.Panics(t, func() { ta.beginBlock(genesisTime.Add(-time.Second)) })
}

func TestQuerySwaps(t *testing.T) {
	ta := newTestApp(t, mustMemStore(t))
	a := ta.create(genesisTime, "query-a")
	b := ta.create(genesisTime, "query-b")

	hash := aswap.HashBytes([]byte("secret"))
	byHash, err := QuerySwaps(ta.app, ByPreimageHash, hash)
	require.NoError(t, err)
	assert.Len(t, byHash, 2)

	byRecipient, err := QuerySwaps(ta.app, ByRecipient, ta.addr(ta.bob))
	require.NoError(t, err)
	assert.Len(t, byRecipient, 2)

	byInitiator, err := QuerySwaps(ta.app, ByInitiator, ta.addr(ta.bob))
	require.NoError(t, err)
	assert.Len(t, byInitiator, 0)

	// The preimage of a redeemed swap can be read by its hash.
	redeem := &aswap.RedeemMsg{SwapID: a, Preimage: []byte("secret"), Destination: ta.addr(ta.bob)}
	require.NoError(t, ta.block(genesisTime.Add(time.Second), ta.tx(redeem))[0])
	byHash, err = QuerySwaps(ta.app, ByPreimageHash, hash)
	require.NoError(t, err)
	var revealed [][]byte
	for _, s := range byHash {
		revealed = append(revealed, s.Preimage)
	}
	assert.ElementsMatch(t, [][]byte{[]byte("secret"), nil}, revealed)

	assert.Equal(t, aswap.SwapCreated, ta.swap(b).State)
	_, err = QuerySwap(ta.app, aswap.SwapID(ta.addr(ta.bob), []byte("query-a")))
	assert.True(t, errors.ErrNotFound.Is(err), "got %+v", err)

	_, err = QuerySwaps(ta.app, "memo", []byte("x"))
	assert.True(t, errors.ErrNotFound.Is(err), "got %+v", err)

	seq, err := QuerySequence(ta.app, ta.addr(ta.alice))
	require.NoError(t, err)
	assert.Equal(t, int64(2), seq)

	acc, err := QueryAccount(ta.app, ta.addr(ta.bob))
	require.NoError(t, err)
	assert.Equal(t, ta.addr(ta.bob), acc.Owner)
}

func TestTxCodec(t *testing.T) {
	key := crypto.PrivKeyEd25519FromSeed(make([]byte, 32))
	tx, err := NewTx(&aswap.RefundMsg{SwapID: []byte("some-swap-id"), Destination: key.PublicKey().Address()})
	require.NoError(t, err)
	require.NoError(t, tx.Sign(key, chainID, 3))

	raw, err := tx.Marshal()
	require.NoError(t, err)
	decoded, err := TxDecoder(raw)
	require.NoError(t, err)
	assert.Equal(t, tx, decoded)

	msg, err := decoded.GetMsg()
	require.NoError(t, err)
	assert.Equal(t, "aswap/refund", msg.Path())

	// Signing must not depend on present signatures.
	unsigned, err := tx.GetSignBytes()
	require.NoError(t, err)
	tx.Signatures = nil
	bare, err := tx.Marshal()
	require.NoError(t, err)
	assert.Equal(t, bare, unsigned)

	_, err = (&Tx{}).GetMsg()
	assert.True(t, errors.ErrMsg.Is(err))
	_, err = (&Tx{AswapRefundMsg: &aswap.RefundMsg{}, AswapRedeemMsg: &aswap.RedeemMsg{}}).GetMsg()
	assert.True(t, errors.ErrMsg.Is(err))
	_, err = NewTx(&htlctest.Msg{RoutePath: "unknown/msg"})
	assert.True(t, errors.ErrMsg.Is(err))
}

func mustMemStore(t testing.TB) htlc.CommitKVStore {
	t.Helper()
	s, err := CommitKVStore("", BackendMemDB)
	require.NoError(t, err)
	return s
}
