/*
Package x contains the helpers shared by the extensions. Each subpackage is
an extension: a set of messages, models and handlers.
*/
package x
