/*
Package cash is the ledger that holds balances and moves them between
accounts.

An account is identified by its address and holds a set of coins. Every
account has an owner, the only one allowed to move funds out of it. An
account that was never written to the store is owned by its own address, so
a vault derived from a condition is controlled by that condition without any
setup.
*/
package cash
