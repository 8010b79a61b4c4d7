package htlc

import (
	"reflect"

	"github.com/iov-one/htlc/errors"
)

// assignMsg copies the message value into destination, which must be a
// pointer to the same message type.
func assignMsg(src Msg, destination interface{}) error {
	dst := reflect.ValueOf(destination)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return errors.Wrap(errors.ErrType, "destination must be a non nil pointer")
	}
	val := reflect.ValueOf(src)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if !val.Type().AssignableTo(dst.Elem().Type()) {
		return errors.Wrapf(errors.ErrType, "%T cannot be represented as %T", src, destination)
	}
	dst.Elem().Set(val)
	return nil
}
