package x

import (
	"github.com/iov-one/htlc"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// handlers, so we can plug in another authentication system,
// rather than hard-coding x/sigs for all extensions.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled,
	GetConditions(htlc.Context) []htlc.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(htlc.Context, htlc.Address) bool
}

// MultiAuth chains together many Authenticators into one
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups together a series of Authenticator
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions combines all Conditions from all Authenticators
func (m MultiAuth) GetConditions(ctx htlc.Context) []htlc.Condition {
	var res []htlc.Condition
	for _, impl := range m.impls {
		res = append(res, impl.GetConditions(ctx)...)
	}
	return res
}

// HasAddress returns true iff any Authenticator support this
func (m MultiAuth) HasAddress(ctx htlc.Context, addr htlc.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// SignerOf returns the authenticated condition whose address is given
// owner, or nil if the owner did not authorize the transaction.
func SignerOf(ctx htlc.Context, auth Authenticator, owner htlc.Address) htlc.Condition {
	for _, c := range auth.GetConditions(ctx) {
		if owner.Equals(c.Address()) {
			return c
		}
	}
	return nil
}
