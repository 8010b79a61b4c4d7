/*
Package app contains the ABCI application that executes transactions.

The Router dispatches messages to their handlers behind a chain of
decorators. StoreApp keeps the committed store, opens and persists blocks and
answers queries registered on a htlc.QueryRouter. BaseApp embeds it and runs
the handler for CheckTx and DeliverTx. Together they implement
abci.Application, so the same app can be driven by a local process or by a
tendermint node.
*/
package app
