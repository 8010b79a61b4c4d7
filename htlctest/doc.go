/*
Package htlctest provides mocks and fixtures used by the test suites of all
packages: authenticators, handlers, decorators, transactions and stores.
*/
package htlctest
