package aswap

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/gconf"
	"github.com/iov-one/htlc/htlctest"
	"github.com/iov-one/htlc/htlctest/assert"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/x/cash"
)

var (
	blockT       = time.Unix(1500000000, 0).UTC()
	secret       = []byte("correct horse battery staple")
	preimageHash = HashBytes(secret)
)

type fixture struct {
	db     htlc.CacheableKVStore
	bank   cash.Controller
	engine Engine

	alice htlc.Condition
	bob   htlc.Condition
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		db:    store.MemStore(),
		bank:  cash.NewController(),
		alice: htlctest.NewCondition(),
		bob:   htlctest.NewCondition(),
	}
	f.engine = NewEngine(f.bank)
	assert.Nil(t, f.bank.Issue(f.db, f.alice.Address(), coin.NewCoin(1000, 0, "IOV")))
	return f
}

func at(offset time.Duration) htlc.Context {
	return htlc.WithBlockTime(context.Background(), blockT.Add(offset))
}

// createMsg is the swap of 100 IOV from alice to bob, expiring an hour after
// blockT.
func (f *fixture) createMsg(label string) *CreateMsg {
	return &CreateMsg{
		Source:       f.alice.Address(),
		Recipient:    f.bob.Address(),
		PreimageHash: preimageHash,
		Amount:       coin.NewCoinp(100, 0, "IOV"),
		Expiry:       htlc.AsUnixTime(blockT.Add(time.Hour)),
		Label:        []byte(label),
	}
}

func (f *fixture) initiate(t testing.TB, label string) []byte {
	t.Helper()
	swap, err := f.engine.Initiate(at(0), f.db, f.alice, f.createMsg(label))
	assert.Nil(t, err)
	return SwapID(swap.Initiator, swap.Label)
}

func (f *fixture) assertBalance(t testing.TB, addr htlc.Address, want int64) {
	t.Helper()
	bal, err := f.bank.Balance(f.db, addr)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewCoin(want, 0, "IOV"), bal.Get("IOV"))
}

func (f *fixture) assertState(t testing.TB, id []byte, want SwapState) *Swap {
	t.Helper()
	swap, err := f.engine.Swap(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, want, swap.State)
	return swap
}

func TestRedeemThenRefund(t *testing.T) {
	f := newFixture(t)
	id := f.initiate(t, "scenario-a")
	vault := DeriveVault(f.alice.Address(), []byte("scenario-a"))

	f.assertBalance(t, f.alice.Address(), 900)
	f.assertBalance(t, vault.Address, 100)
	f.assertState(t, id, SwapCreated)

	swap, err := f.engine.Redeem(at(10*time.Second), f.db, id, secret, f.bob.Address())
	assert.Nil(t, err)
	assert.Equal(t, SwapRedeemed, swap.State)

	f.assertBalance(t, vault.Address, 0)
	f.assertBalance(t, f.bob.Address(), 100)
	stored := f.assertState(t, id, SwapRedeemed)
	assert.Equal(t, secret, stored.Preimage)
	assert.Equal(t, htlc.AsUnixTime(blockT.Add(10*time.Second)), stored.SettledAt)

	_, err = f.engine.Refund(at(time.Hour+time.Second), f.db, id, f.alice.Address())
	assert.IsErr(t, ErrInvalidState, err)
	_, err = f.engine.Redeem(at(20*time.Second), f.db, id, secret, f.bob.Address())
	assert.IsErr(t, ErrInvalidState, err)

	f.assertBalance(t, f.alice.Address(), 900)
	f.assertBalance(t, f.bob.Address(), 100)
}

func TestRefundThenRedeem(t *testing.T) {
	f := newFixture(t)
	id := f.initiate(t, "scenario-b")

	swap, err := f.engine.Refund(at(time.Hour+time.Second), f.db, id, f.alice.Address())
	assert.Nil(t, err)
	assert.Equal(t, SwapRefunded, swap.State)
	f.assertBalance(t, f.alice.Address(), 1000)

	_, err = f.engine.Redeem(at(time.Hour+2*time.Second), f.db, id, secret, f.bob.Address())
	assert.IsErr(t, ErrInvalidState, err)
	_, err = f.engine.Refund(at(2*time.Hour), f.db, id, f.alice.Address())
	assert.IsErr(t, ErrInvalidState, err)

	stored := f.assertState(t, id, SwapRefunded)
	assert.Equal(t, 0, len(stored.Preimage))
	f.assertBalance(t, f.bob.Address(), 0)
}

func TestRefundBeforeExpiry(t *testing.T) {
	f := newFixture(t)
	id := f.initiate(t, "early")

	for _, offset := range []time.Duration{0, time.Minute, time.Hour - time.Second, time.Hour} {
		_, err := f.engine.Refund(at(offset), f.db, id, f.alice.Address())
		assert.IsErr(t, ErrNotExpired, err)
	}
	f.assertState(t, id, SwapCreated)
	f.assertBalance(t, f.alice.Address(), 900)

	_, err := f.engine.Refund(at(time.Hour+time.Second), f.db, id, f.alice.Address())
	assert.Nil(t, err)
}

func TestRedeemAfterExpiry(t *testing.T) {
	f := newFixture(t)
	id := f.initiate(t, "late")

	// Expiry only enables the refund, an active swap can still be redeemed.
	_, err := f.engine.Redeem(at(2*time.Hour), f.db, id, secret, f.bob.Address())
	assert.Nil(t, err)
	f.assertBalance(t, f.bob.Address(), 100)
}

func TestFailuresDoNotMutate(t *testing.T) {
	f := newFixture(t)
	id := f.initiate(t, "retry")
	before, err := f.engine.Swap(f.db, id)
	assert.Nil(t, err)

	carol := htlctest.NewCondition()

	for i := 0; i < 3; i++ {
		_, err := f.engine.Redeem(at(time.Minute), f.db, id, []byte("wrong secret"), f.bob.Address())
		assert.IsErr(t, ErrSecretMismatch, err)

		// A secret sharing a prefix of the digest is not good enough.
		_, err = f.engine.Redeem(at(time.Minute), f.db, id, preimageHash[:16], f.bob.Address())
		assert.IsErr(t, ErrSecretMismatch, err)

		_, err = f.engine.Redeem(at(time.Minute), f.db, id, secret, carol.Address())
		assert.IsErr(t, ErrInvalidRecipient, err)

		_, err = f.engine.Refund(at(time.Minute), f.db, id, f.alice.Address())
		assert.IsErr(t, ErrNotExpired, err)

		_, err = f.engine.Refund(at(2*time.Hour), f.db, id, f.bob.Address())
		assert.IsErr(t, ErrInvalidInitiator, err)

		_, err = f.engine.Initiate(at(0), f.db, f.alice, f.createMsg("retry"))
		assert.IsErr(t, ErrDuplicateEscrow, err)
	}

	after, err := f.engine.Swap(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, before, after)
	f.assertBalance(t, f.alice.Address(), 900)
	f.assertBalance(t, before.Vault, 100)
	f.assertBalance(t, f.bob.Address(), 0)

	// A retry with correct input succeeds.
	_, err = f.engine.Redeem(at(time.Minute), f.db, id, secret, f.bob.Address())
	assert.Nil(t, err)
}

// brokenLedger moves the funds and then reports a failure, so that the
// engine must roll back a half done transfer.
type brokenLedger struct {
	Ledger
	broken bool
}

func (l *brokenLedger) Transfer(db htlc.KVStore, from, to htlc.Address, authority htlc.Condition, amount coin.Coin) error {
	if err := l.Ledger.Transfer(db, from, to, authority, amount); err != nil {
		return err
	}
	if l.broken {
		return errors.Wrap(errors.ErrDatabase, "ledger unavailable")
	}
	return nil
}

func TestSettlementTransferFailure(t *testing.T) {
	f := newFixture(t)
	ledger := &brokenLedger{Ledger: f.bank}
	f.engine = NewEngine(ledger)
	id := f.initiate(t, "broken")
	vault := DeriveVault(f.alice.Address(), []byte("broken"))

	ledger.broken = true

	_, err := f.engine.Redeem(at(time.Minute), f.db, id, secret, f.bob.Address())
	assert.IsErr(t, ErrTransferFailed, err)
	assert.IsErr(t, errors.ErrDatabase, err)

	_, err = f.engine.Refund(at(2*time.Hour), f.db, id, f.alice.Address())
	assert.IsErr(t, ErrTransferFailed, err)

	swap := f.assertState(t, id, SwapCreated)
	assert.Equal(t, 0, len(swap.Preimage))
	assert.Equal(t, htlc.UnixTime(0), swap.SettledAt)
	f.assertBalance(t, vault.Address, 100)
	f.assertBalance(t, f.alice.Address(), 900)
	f.assertBalance(t, f.bob.Address(), 0)

	ledger.broken = false
	_, err = f.engine.Redeem(at(time.Minute), f.db, id, secret, f.bob.Address())
	assert.Nil(t, err)
	f.assertBalance(t, vault.Address, 0)
	f.assertBalance(t, f.bob.Address(), 100)
}

func TestRedeemCopiesPreimage(t *testing.T) {
	f := newFixture(t)
	id := f.initiate(t, "copy")

	given := append([]byte(nil), secret...)
	swap, err := f.engine.Redeem(at(time.Minute), f.db, id, given, f.bob.Address())
	assert.Nil(t, err)

	given[0] ^= 0xff
	assert.Equal(t, secret, swap.Preimage)
	stored := f.assertState(t, id, SwapRedeemed)
	assert.Equal(t, secret, stored.Preimage)
}

func TestRedeemToAccountOwnedByRecipient(t *testing.T) {
	f := newFixture(t)
	id := f.initiate(t, "owned")

	account := htlctest.RandomAddr(t)
	assert.Nil(t, f.bank.Open(f.db, account, f.bob.Address()))

	_, err := f.engine.Redeem(at(time.Minute), f.db, id, secret, account)
	assert.Nil(t, err)
	f.assertBalance(t, account, 100)
}

func TestInitiate(t *testing.T) {
	cases := map[string]struct {
		conf    *Configuration
		modify  func(f *fixture, msg *CreateMsg)
		caller  func(f *fixture) htlc.Condition
		wantErr *errors.Error
		// wantAlso is an additional kind the error must match.
		wantAlso *errors.Error
	}{
		"valid": {},
		"expiry at the block time": {
			modify: func(f *fixture, msg *CreateMsg) {
				msg.Expiry = htlc.AsUnixTime(blockT)
			},
			wantErr: errors.ErrExpired,
		},
		"expiry in the past": {
			modify: func(f *fixture, msg *CreateMsg) {
				msg.Expiry = htlc.AsUnixTime(blockT.Add(-time.Minute))
			},
			wantErr: errors.ErrExpired,
		},
		"expiry one second ahead": {
			modify: func(f *fixture, msg *CreateMsg) {
				msg.Expiry = htlc.AsUnixTime(blockT.Add(time.Second))
			},
		},
		"zero amount": {
			modify: func(f *fixture, msg *CreateMsg) {
				msg.Amount = coin.NewCoinp(0, 0, "IOV")
			},
			wantErr: errors.ErrAmount,
		},
		"insufficient funds": {
			modify: func(f *fixture, msg *CreateMsg) {
				msg.Amount = coin.NewCoinp(1001, 0, "IOV")
			},
			wantErr:  ErrTransferFailed,
			wantAlso: errors.ErrInsufficientAmount,
		},
		"unknown currency": {
			modify: func(f *fixture, msg *CreateMsg) {
				msg.Amount = coin.NewCoinp(1, 0, "ETH")
			},
			wantErr:  ErrTransferFailed,
			wantAlso: errors.ErrCurrency,
		},
		"caller does not own the source": {
			caller:   func(f *fixture) htlc.Condition { return f.bob },
			wantErr:  ErrTransferFailed,
			wantAlso: errors.ErrUnauthorized,
		},
		"short preimage hash": {
			modify: func(f *fixture, msg *CreateMsg) {
				msg.PreimageHash = preimageHash[:31]
			},
			wantErr: errors.ErrInput,
		},
		"missing label": {
			modify: func(f *fixture, msg *CreateMsg) {
				msg.Label = nil
			},
			wantErr: errors.ErrInput,
		},
		"lock period too long": {
			conf:    &Configuration{MaxLockPeriod: 600},
			wantErr: errors.ErrInput,
		},
		"lock period within limit": {
			conf: &Configuration{MaxLockPeriod: 3600},
		},
		"memo over configured limit": {
			conf: &Configuration{MaxMemoLength: 4},
			modify: func(f *fixture, msg *CreateMsg) {
				msg.Memo = "hello"
			},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			if tc.conf != nil {
				assert.Nil(t, gconf.Save(f.db, confPkg, tc.conf))
			}
			msg := f.createMsg("label")
			if tc.modify != nil {
				tc.modify(f, msg)
			}
			caller := f.alice
			if tc.caller != nil {
				caller = tc.caller(f)
			}

			swap, err := f.engine.Initiate(at(0), f.db, caller, msg)
			if tc.wantErr != nil {
				assert.IsErr(t, tc.wantErr, err)
				if tc.wantAlso != nil {
					assert.IsErr(t, tc.wantAlso, err)
				}
				// Neither the record nor the funds were committed.
				_, err := f.engine.Swap(f.db, SwapID(caller.Address(), msg.Label))
				if msg.Label != nil {
					assert.IsErr(t, errors.ErrNotFound, err)
				}
				f.assertBalance(t, f.alice.Address(), 1000)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, SwapCreated, swap.State)
			assert.Equal(t, f.alice.Address(), swap.Initiator)
			assert.Equal(t, htlc.AsUnixTime(blockT), swap.CreatedAt)
			f.assertBalance(t, swap.Vault, 100)
		})
	}
}

func TestMissingBlockTime(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Initiate(context.Background(), f.db, f.alice, f.createMsg("x"))
	assert.IsErr(t, errors.ErrHuman, err)
}

func TestDistinctLabelsDistinctVaults(t *testing.T) {
	f := newFixture(t)
	a := f.initiate(t, "one")
	b := f.initiate(t, "two")

	sa, err := f.engine.Swap(f.db, a)
	assert.Nil(t, err)
	sb, err := f.engine.Swap(f.db, b)
	assert.Nil(t, err)
	if sa.Vault.Equals(sb.Vault) {
		t.Fatal("vaults must differ")
	}
	assert.Equal(t, DeriveVault(f.alice.Address(), []byte("one")), Vault{Address: sa.Vault, Authority: sa.Authority})

	// Each swap is settled from its own vault.
	_, err = f.engine.Redeem(at(time.Second), f.db, a, secret, f.bob.Address())
	assert.Nil(t, err)
	f.assertBalance(t, sb.Vault, 100)
	f.assertState(t, b, SwapCreated)
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	a := f.initiate(t, "q1")
	f.initiate(t, "q2")

	byHash, err := f.engine.SwapsByPreimageHash(f.db, preimageHash)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(byHash))

	byRecipient, err := f.engine.SwapsByRecipient(f.db, f.bob.Address())
	assert.Nil(t, err)
	assert.Equal(t, 2, len(byRecipient))

	byInitiator, err := f.engine.SwapsByInitiator(f.db, f.bob.Address())
	assert.Nil(t, err)
	assert.Equal(t, 0, len(byInitiator))

	// The preimage of a redeemed swap can be found by its hash.
	_, err = f.engine.Redeem(at(time.Second), f.db, a, secret, f.bob.Address())
	assert.Nil(t, err)
	byHash, err = f.engine.SwapsByPreimageHash(f.db, preimageHash)
	assert.Nil(t, err)
	var revealed []byte
	for _, s := range byHash {
		if s.State == SwapRedeemed {
			revealed = s.Preimage
		}
	}
	assert.Equal(t, secret, revealed)

	_, err = f.engine.Swap(f.db, SwapID(f.bob.Address(), []byte("q1")))
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = f.engine.Swap(f.db, []byte("short"))
	assert.IsErr(t, errors.ErrInput, err)
}
