package cash

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/coin"
	"github.com/iov-one/htlc/errors"
)

const optKey = "cash"

// GenesisAccount is used to parse the json from genesis file.
// Addresses are hex encoded.
type GenesisAccount struct {
	Address htlc.Address `json:"address"`
	// Owner is optional, the account owns itself if not set.
	Owner htlc.Address `json:"owner,omitempty"`
	Coins coin.Coins   `json:"coins"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ htlc.Initializer = Initializer{}

// FromGenesis will parse initial account info from genesis
// and save it to the database
func (Initializer) FromGenesis(opts htlc.Options, kv htlc.KVStore) error {
	var accts []GenesisAccount
	if err := opts.ReadOptions(optKey, &accts); err != nil {
		return err
	}
	ctrl := NewController()
	for i, acct := range accts {
		if err := acct.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		owner := acct.Owner
		if owner == nil {
			owner = acct.Address
		}
		if err := ctrl.Open(kv, acct.Address, owner); err != nil {
			return errors.Wrapf(err, "account %d", i)
		}
		for _, c := range acct.Coins {
			if err := ctrl.Issue(kv, acct.Address, *c); err != nil {
				return errors.Wrapf(err, "account %d", i)
			}
		}
	}
	return nil
}
