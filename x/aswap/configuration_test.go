package aswap

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/gconf"
	"github.com/iov-one/htlc/htlctest/assert"
	"github.com/iov-one/htlc/store"
)

func TestConfigurationGenesis(t *testing.T) {
	cases := map[string]struct {
		genesis string
		wantErr *errors.Error
		want    Configuration
	}{
		"no configuration": {
			genesis: `{}`,
			want:    DefaultConfiguration(),
		},
		"limits": {
			genesis: `{"conf": {"aswap": {"max_lock_period": 86400, "max_memo_length": 64}}}`,
			want:    Configuration{MaxLockPeriod: 86400, MaxMemoLength: 64},
		},
		"memo limit not set": {
			genesis: `{"conf": {"aswap": {"max_lock_period": 60}}}`,
			want:    Configuration{MaxLockPeriod: 60, MaxMemoLength: maxMemoSize},
		},
		"memo limit above hard limit": {
			genesis: `{"conf": {"aswap": {"max_memo_length": 129}}}`,
			wantErr: errors.ErrInput,
		},
		"null section": {
			genesis: `{"conf": {"aswap": null}}`,
			want:    DefaultConfiguration(),
		},
		"other package only": {
			genesis: `{"conf": {"cash": {"minimal_fee": 1}}}`,
			want:    DefaultConfiguration(),
		},
		"misspelled limit": {
			genesis: `{"conf": {"aswap": {"max_lock_periods": 60}}}`,
			wantErr: errors.ErrInput,
		},
		"negative lock period": {
			genesis: `{"conf": {"aswap": {"max_lock_period": -1}}}`,
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var opts htlc.Options
			assert.Nil(t, json.Unmarshal([]byte(tc.genesis), &opts))
			db := store.MemStore()

			err := Initializer{}.FromGenesis(opts, db)
			if tc.wantErr != nil {
				assert.IsErr(t, tc.wantErr, err)
				return
			}
			assert.Nil(t, err)
			conf, err := loadConf(db)
			assert.Nil(t, err)
			assert.Equal(t, tc.want, conf)
		})
	}
}

func TestLoadInvalidStoredConfiguration(t *testing.T) {
	db := store.MemStore()
	raw, err := (&Configuration{MaxMemoLength: maxMemoSize + 1}).Marshal()
	assert.Nil(t, err)
	assert.Nil(t, db.Set(gconf.Key(confPkg), raw))

	_, err = loadConf(db)
	assert.IsErr(t, errors.ErrState, err)
}
