package htlctest

import (
	"crypto/rand"
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
)

// NewKey returns a new, random private key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the signature condition of a new, random key.
func NewCondition() htlc.Condition {
	return NewKey().PublicKey().Condition()
}

// RandomAddr returns a random address.
func RandomAddr(t testing.TB) htlc.Address {
	t.Helper()
	a := make(htlc.Address, htlc.AddressLength)
	if _, err := rand.Read(a); err != nil {
		t.Fatalf("cannot read random data: %s", err)
	}
	return a
}

// ParseAddress takes an address in a human readable format and returns its
// binary representation.
func ParseAddress(t testing.TB, encodedAddress string) htlc.Address {
	t.Helper()
	addr, err := htlc.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
