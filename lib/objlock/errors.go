package objlock

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/objlock/lib/objclass"
)

// RetCode classifies lock errors. The values travel on the wire.
type RetCode uint8

const (
	RetCSuccess         RetCode = iota // 0: Operation succeeded.
	RetCInvalidArgument                // 1: Malformed request.
	RetCExists                         // 2: Caller already holds the lock and may not renew.
	RetCNotFound                       // 3: No such lock or locker.
	RetCBusy                           // 4: Conflicting lockers, tag or type mismatch, lost bid.
	RetCIO                             // 5: Storage failure or corrupt record.
	RetCInternal                       // 6: Unexpected server side failure.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInvalidArgument:
		return "InvalidArgument"
	case RetCExists:
		return "Exists"
	case RetCNotFound:
		return "NotFound"
	case RetCBusy:
		return "Busy"
	case RetCIO:
		return "IO"
	case RetCInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// Error is returned by every lock operation. Use errors.Is with the
// sentinels below to branch on the code.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("LockError (code %s): %s", e.Code, e.Msg)
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new lock error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func errorf(code RetCode, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidArgument = NewError(RetCInvalidArgument, "invalid argument")
	ErrExists          = NewError(RetCExists, "already exists")
	ErrNotFound        = NewError(RetCNotFound, "not found")
	ErrBusy            = NewError(RetCBusy, "busy")
	ErrIO              = NewError(RetCIO, "i/o error")
	ErrInternal        = NewError(RetCInternal, "internal error")
)

// CodeOf returns the code of a lock error, RetCSuccess for nil and
// RetCInternal for any other error.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternal
}

// ExecError converts an error returned by objclass.Executor.Exec into a lock
// error. Errors of the lock class pass through. A lost commit race means
// another server changed the object concurrently and is reported as ErrBusy,
// the caller may retry.
func ExecError(err error) error {
	var e *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return err
	case errors.Is(err, objclass.ErrInvalidObject):
		return errorf(RetCInvalidArgument, "%v", err)
	case errors.Is(err, objclass.ErrConflict):
		return errorf(RetCBusy, "%v", err)
	default:
		return errorf(RetCIO, "%v", err)
	}
}
