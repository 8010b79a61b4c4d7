package errors

import (
	"strings"
)

// Append combines given errors into a single error. Nil values are ignored.
// When no error is given or all of them are nil, nil is returned. When a
// single non nil error is given, it is returned as it is.
//
// The returned error matches (Error.Is) every kind that any of the combined
// errors matches. Code of the combined error is the code of the first one.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if e == nil {
			continue
		}
		if m, ok := e.(*multiErr); ok {
			res.errs = append(res.errs, m.errs...)
			continue
		}
		res.errs = append(res.errs, e)
	}
	switch len(res.errs) {
	case 0:
		return nil
	case 1:
		return res.errs[0]
	default:
		return &res
	}
}

type multiErr struct {
	errs []error
}

func (m *multiErr) Error() string {
	msgs := make([]string, len(m.errs))
	for i, e := range m.errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
