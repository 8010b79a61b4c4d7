/*
Package aswap implements hash time-locked swaps.

A swap locks an amount in a vault account until either the recipient
discloses the secret whose sha256 digest was committed to at creation, or the
expiry passes and the initiator takes the funds back. Exactly one of the two
can ever happen.

The algorithm is as follows:

 1. Initiator generates a preimage and keeps it secret.
 2. Initiator creates a swap locked by sha256(preimage), choosing a label that
    is unique among their swaps. The amount moves into the vault derived from
    (initiator, label).
 3. Anyone who knows the preimage can redeem the swap into an account owned
    by the recipient. The preimage is stored in the swap and becomes public,
    so the counterpart of a paired swap can redeem their own leg.
 4. After the expiry, a swap that was not redeemed can be refunded into an
    account owned by the initiator.

Swaps are never deleted. A settled swap remains in the store as an audit
record.
*/
package aswap
