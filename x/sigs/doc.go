/*
Package sigs provides the authentication middleware that verifies the
ed25519 signatures carried by a transaction and maintains per signer
sequence numbers for replay protection.

A transaction is signed over

	version | len(chainID) | chainID | sequence | serialized tx

prehashed with sha512. Every signer that passes verification is added to the
context as a condition and can be read back with Authenticate.
*/
package sigs
