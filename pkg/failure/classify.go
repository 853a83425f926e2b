package failure

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strconv"
)

type timeoutError interface {
	Timeout() bool
}

// Classify maps any error to a Kind. It never fails: errors it does not
// recognize are KindGeneric.
func Classify(err error) Kind {
	if err == nil {
		return KindGeneric
	}

	if fe, ok := As(err); ok && fe.Kind != "" {
		return fe.Kind
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	case errors.Is(err, fs.ErrPermission):
		return KindUnauthorized
	case errors.Is(err, fs.ErrNotExist):
		return KindElementNotFound
	case errors.Is(err, errors.ErrUnsupported),
		errors.Is(err, context.Canceled),
		errors.Is(err, fs.ErrClosed):
		return KindInvalidOperation
	case errors.Is(err, fs.ErrInvalid):
		return KindInvalidArgument
	}

	var te timeoutError
	if errors.As(err, &te) && te.Timeout() {
		return KindTimeout
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		numErr    *strconv.NumError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.As(err, &numErr) {
		return KindInvalidArgument
	}

	return KindGeneric
}

// ExceptionType returns a short name for the concrete failure type, used in
// the payload so callers can distinguish causes within a kind.
func ExceptionType(err error) string {
	if err == nil {
		return ""
	}
	if fe, ok := As(err); ok {
		if fe.Err != nil {
			return typeName(fe.Err)
		}
		return string(fe.Kind) + "Error"
	}
	return typeName(err)
}
