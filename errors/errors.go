package errors

import (
	stderrors "errors"
	"fmt"
)

type Error interface {
	error

	Code() int
	Message() string
	Cause() error
}

// Default code defines the code that will be used by default when
// none is given. It is set to 500, Internal Server Error
var DefaultCode = 500

type myError struct {
	code  int
	msg   string
	cause error
}

func (err *myError) Error() string {
	if err.cause == nil {
		return err.msg
	}

	return fmt.Sprintf("%s: %v", err.msg, err.cause)
}

func (err *myError) Code() int {
	return err.code
}

func (err *myError) Message() string {
	return err.msg
}

func (err *myError) Cause() error {
	return err.cause
}

// Unwrap gives access to the cause to errors.Is and errors.As.
func (err *myError) Unwrap() error {
	return err.cause
}

type ErrorEnricher func(error) error

func WithCode(code int) func(error) error {
	return func(err error) error {
		switch err := err.(type) {
		case nil:
			return nil
		case *myError:
			err.code = code
			return err
		}

		// default
		return &myError{
			msg:   err.Error(),
			code:  code,
			cause: nil,
		}
	}
}

// WithCause sets the cause of the error. When the error still has the
// default code, the code of the cause is forwarded.
func WithCause(cause error) func(error) error {
	code := DefaultCode
	var coded Error
	if stderrors.As(cause, &coded) {
		code = coded.Code()
	}

	return func(err error) error {
		switch err := err.(type) {
		case nil:
			return nil
		case *myError:
			err.cause = cause
			if err.code == DefaultCode {
				err.code = code
			}
			return err
		}

		return &myError{
			msg:   err.Error(),
			code:  code,
			cause: cause,
		}
	}
}

func New(msg string, fs ...ErrorEnricher) error {
	var err error
	err = &myError{
		msg:   msg,
		code:  DefaultCode,
		cause: nil,
	}

	for _, f := range fs {
		err = f(err)
	}

	return err
}

// Code returns the code of the first coded error in the chain of err, or
// DefaultCode.
func Code(err error) int {
	var coded Error
	if stderrors.As(err, &coded) {
		return coded.Code()
	}
	return DefaultCode
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
