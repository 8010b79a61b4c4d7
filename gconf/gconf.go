/*
Package gconf keeps the configuration of an extension as a singleton in the
store, under a key derived from the package name.

The configuration is written once, from the "conf" section of the genesis
file, and read by handlers on every message. A package that was given no
configuration at genesis works with its defaults.
*/
package gconf

import (
	"bytes"
	"encoding/json"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// genesisSection is the genesis key holding the configuration of every
// package, indexed by package name.
const genesisSection = "conf"

// ReadStore is a subset of htlc.ReadOnlyKVStore.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store is a subset of htlc.KVStore.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// Configuration is implemented by every configuration object.
//
// Defaults fills in every unset field. It is applied to each loaded
// configuration, so a zero field in the store reads as its default.
type Configuration interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
	Validate() error
	Defaults()
}

// Key returns the store key of the configuration of given package.
func Key(pkg string) []byte {
	return []byte("_c:" + pkg)
}

// Save validates src and writes it as the configuration of given package.
func Save(db Store, pkg string, src Configuration) error {
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "%s configuration", pkg)
	}
	raw, err := src.Marshal()
	if err != nil {
		return errors.Wrapf(err, "marshal %s configuration", pkg)
	}
	return db.Set(Key(pkg), raw)
}

// Load reads the configuration of given package into dst and applies its
// defaults. If nothing was saved, dst holds only the defaults and false is
// returned.
//
// A stored configuration that no longer validates is ErrState.
func Load(db ReadStore, pkg string, dst Configuration) (bool, error) {
	raw, err := db.Get(Key(pkg))
	if err != nil {
		return false, err
	}
	if raw == nil {
		if err := dst.Unmarshal(nil); err != nil {
			return false, errors.Wrapf(err, "reset %s configuration", pkg)
		}
		dst.Defaults()
		return false, nil
	}
	if err := dst.Unmarshal(raw); err != nil {
		return false, errors.Wrapf(err, "unmarshal %s configuration", pkg)
	}
	dst.Defaults()
	if err := dst.Validate(); err != nil {
		return true, errors.Wrapf(errors.ErrState, "stored %s configuration: %s", pkg, err)
	}
	return true, nil
}

// FromGenesis reads opts["conf"][pkg] into conf and saves it. Fields unknown
// to conf are rejected, so that a misspelled limit is not silently ignored.
//
// It returns false, and saves nothing, if the genesis has no configuration
// for the package.
func FromGenesis(db Store, opts htlc.Options, pkg string, conf Configuration) (bool, error) {
	var section map[string]json.RawMessage
	if err := opts.ReadOptions(genesisSection, &section); err != nil {
		return false, err
	}
	raw := section[pkg]
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(conf); err != nil {
		return false, errors.Wrapf(errors.ErrInput, "genesis %s.%s: %s", genesisSection, pkg, err)
	}
	if err := Save(db, pkg, conf); err != nil {
		return false, errors.Wrap(err, "genesis")
	}
	return true, nil
}
