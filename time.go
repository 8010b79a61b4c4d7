package htlc

import (
	"time"

	"github.com/iov-one/htlc/errors"
)

// UnixTime is a point in time with seconds precision, as stored in swaps and
// messages. Block times are truncated to it before any comparison.
//
// When using in protobuf declaration, use gogoproto's typecasting
//
//	int64 expiry = 1 [(gogoproto.casttype) = "github.com/iov-one/htlc.UnixTime"];
type UnixTime int64

// AsUnixTime converts given Time structure into its UNIX time representation.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// Time returns a time.Time structure that represents the same moment in time.
func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// IsZero returns true if this time represents a zero value.
func (t UnixTime) IsZero() bool {
	return t == 0
}

// Validate returns an error if this time value is invalid.
func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrState, "negative value")
	}
	return nil
}

// String formats the time in UTC.
func (t UnixTime) String() string {
	return t.Time().UTC().String()
}

// IsExpired returns true if the block time is strictly after the expiry. The
// expiry instant itself still belongs to the recipient.
//
// It panics if the block time is not present in the context.
func IsExpired(ctx Context, expiry UnixTime) bool {
	return mustBlockUnix(ctx) > expiry
}

// InTheFuture returns true if t is strictly after the block time. A new swap
// can only be locked until such a time.
//
// It panics if the block time is not present in the context.
func InTheFuture(ctx Context, t UnixTime) bool {
	return t > mustBlockUnix(ctx)
}

func mustBlockUnix(ctx Context) UnixTime {
	now, ok := BlockTime(ctx)
	if !ok {
		panic("block time is not present")
	}
	return AsUnixTime(now)
}
