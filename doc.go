/*
Package htlc defines the interfaces shared by the hash time-locked swap
ledger: addresses and conditions, storage, messages, transactions and
handlers. It also contains helpers to carry the block time, chain id and
logger through context.Context.

Extensions (see the x/ directory) are built on top of these interfaces. The
escrow state machine lives in x/aswap, the ledger transfer service in x/cash.
*/
package htlc
