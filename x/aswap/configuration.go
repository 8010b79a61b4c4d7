package aswap

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/gconf"
)

const confPkg = "aswap"

// Configuration limits the swaps that can be created.
type Configuration struct {
	// MaxLockPeriod is the longest allowed time between creation and
	// expiry, in seconds. Zero is unlimited.
	MaxLockPeriod int64 `protobuf:"varint,1,opt,name=max_lock_period,json=maxLockPeriod,proto3" json:"max_lock_period"`
	// MaxMemoLength cannot exceed the hard limit of 128 bytes. Zero uses
	// the hard limit.
	MaxMemoLength int64 `protobuf:"varint,2,opt,name=max_memo_length,json=maxMemoLength,proto3" json:"max_memo_length"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// DefaultConfiguration is used when none was stored.
func DefaultConfiguration() Configuration {
	var c Configuration
	c.Defaults()
	return c
}

// Defaults sets the memo limit to the hard limit when unset. The lock
// period stays unlimited.
func (c *Configuration) Defaults() {
	if c.MaxMemoLength == 0 {
		c.MaxMemoLength = maxMemoSize
	}
}

func (c *Configuration) Validate() error {
	if c.MaxLockPeriod < 0 {
		return errors.Wrap(errors.ErrInput, "max lock period must not be negative")
	}
	if c.MaxMemoLength < 0 || c.MaxMemoLength > maxMemoSize {
		return errors.Wrapf(errors.ErrInput, "max memo length must be 0-%d", maxMemoSize)
	}
	return nil
}

// loadConf returns the stored configuration or the default one.
func loadConf(db gconf.ReadStore) (Configuration, error) {
	var c Configuration
	if _, err := gconf.Load(db, confPkg, &c); err != nil {
		return c, errors.Wrap(err, "load configuration")
	}
	return c, nil
}

// Initializer stores the configuration from the genesis file.
type Initializer struct{}

var _ htlc.Initializer = Initializer{}

// FromGenesis reads the "conf.aswap" section. A missing section leaves the
// default configuration in place.
func (Initializer) FromGenesis(opts htlc.Options, kv htlc.KVStore) error {
	_, err := gconf.FromGenesis(kv, opts, confPkg, &Configuration{})
	return err
}
