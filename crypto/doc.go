/*
Package crypto holds the ed25519 key pairs used to sign transactions and the
conditions derived from their public keys.

A public key is turned into a condition of the form "sigs/ed25519/<pubkey>".
The address of that condition is the account owned by the key holder.
*/
package crypto
