package errors

import "fmt"

const (
	// SuccessABCICode declares an ABCI response use 0 to signal that the
	// processing was successful and no error is returned.
	SuccessABCICode uint32 = 0

	internalABCILog = "internal error"
)

// ABCIInfo returns the code and the log of an ABCI response carrying given
// error. Errors that do not wrap a registered error are internal. Outside of
// debug mode their message is replaced with a generic one.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if err == nil {
		return SuccessABCICode, ""
	}
	code := Code(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalCode:
		return code, internalABCILog
	default:
		return code, err.Error()
	}
}

// ABCIError is the inverse of ABCIInfo. A registered code is mapped back to
// its root error, so that for example ErrNotFound.Is works on an error
// received from an ABCI response.
func ABCIError(code uint32, log string) error {
	if code == SuccessABCICode {
		return nil
	}
	if e, ok := usedCodes[code]; ok && e != nil {
		return Wrap(e, log)
	}
	return Wrap(&Error{code: code, desc: "unknown error"}, log)
}
