/*
Package utils contains decorators shared by every application: panic
recovery, transaction logging and savepoints.
*/
package utils
