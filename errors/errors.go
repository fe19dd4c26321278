// Package errors wraps pkg/errors and includes some custom features such as
// error codes. It defines the fatal-error taxonomy for the index and
// processor packages: every condition that must surface synchronously to a
// caller is constructed here so callers can discriminate kinds with Is()
// instead of string matching.
package errors

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Code is an error code which can be used to check against a given error. For
// example, see the Is() method.
type Code string

const (
	ErrUncoded Code = "Uncoded"

	CodeUnknownField       Code = "UnknownField"
	CodeUnsupportedField   Code = "UnsupportedField"
	CodeArityMismatch      Code = "ArityMismatch"
	CodeTooManyJoinFields  Code = "TooManyJoinFields"
	CodeDuplicateJoinField Code = "DuplicateJoinField"
	CodeNameCollision      Code = "NameCollision"
	CodeIndexTooLarge      Code = "IndexTooLarge"
	CodeAttachFailed       Code = "AttachFailed"
	CodeAddAuxAfterStart   Code = "AddAuxAfterStart"
)

func New(code Code, message string) error {
	return errors.WithStack(codedError{
		Code:    code,
		Message: message,
	})
}

// UnknownField reports that name could not be resolved against a descriptor
// or Entry. Raised by Index build, Entry.GetPtr, and processor connect.
func UnknownField(name string) error {
	return New(CodeUnknownField, fmt.Sprintf("unknown field: %q", name))
}

// UnsupportedField reports that kind has no hash implementation.
func UnsupportedField(kind string) error {
	return New(CodeUnsupportedField, fmt.Sprintf("unsupported field type: %s", kind))
}

// ArityMismatch reports that a variadic Index query supplied the wrong
// number of key values.
func ArityMismatch(want, got int) error {
	return New(CodeArityMismatch, fmt.Sprintf("index expects %d key value(s), got %d", want, got))
}

// TooManyJoinFields reports a join-key list longer than the supported limit.
func TooManyJoinFields(count, max int) error {
	return New(CodeTooManyJoinFields, fmt.Sprintf("join key count %d exceeds limit %d", count, max))
}

// DuplicateJoinField reports a repeated field name in a join-key list.
func DuplicateJoinField(name string) error {
	return New(CodeDuplicateJoinField, fmt.Sprintf("duplicate join key field: %q", name))
}

// NameCollision reports that an auxiliary processor name collides with an
// existing field or another auxiliary in the join model.
func NameCollision(name string) error {
	return New(CodeNameCollision, fmt.Sprintf("name collision on: %q", name))
}

// IndexTooLarge reports that a build exceeded the configured entry cap.
func IndexTooLarge(limit uint64) error {
	return New(CodeIndexTooLarge, fmt.Sprintf("index exceeds maximum of %d entries", limit))
}

// AttachFailed reports that a page source could not be attached.
func AttachFailed(detail string) error {
	return New(CodeAttachFailed, fmt.Sprintf("attach failed: %s", detail))
}

// AddAuxAfterStart reports an attempt to add a join auxiliary after the
// join processor has already loaded a row.
func AddAuxAfterStart() error {
	return New(CodeAddAuxAfterStart, "cannot add auxiliary processor after iteration has started")
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Cause(err error) error {
	return errors.Cause(err)
}

func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// Is is a fork of the Is() method from `pkg/errors` which takes as its target
// an error Code instead of an error.
func Is(err error, target Code) bool {
	match := codedError{
		Code: target,
	}
	return errors.Is(err, match)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func WithMessage(err error, message string) error {
	return errors.WithMessage(err, message)
}

func WithMessagef(err error, format string, args ...interface{}) error {
	return errors.WithMessagef(err, format, args...)
}

func WithStack(err error) error {
	return errors.WithStack(err)
}

func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func Wrapf(err error, fmt string, args ...interface{}) error {
	return errors.Wrapf(err, fmt, args...)
}

// codedError is the fundamental type used by this package to provide coded
// errors.
type codedError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Wrapped string `json:"wrapped,omitempty"`
}

func (ce codedError) Error() string {
	if ce.Wrapped != "" {
		return ce.Wrapped
	}
	return ce.Message
}

func (ce codedError) Is(err error) bool {
	if e, ok := err.(codedError); ok && ce.Code == e.Code {
		return true
	}
	return false
}

// MarshalJSON returns the provided error as a json object (as a string)
// representing a codedError. If err is not already a codedError, the json
// object will still represent a codedError but its `code` value will be empty.
func MarshalJSON(err error) string {
	cause := Cause(err)

	var out *codedError

	switch v := cause.(type) {
	case codedError:
		v.Wrapped = err.Error()
		out = &v
	default:
		out = &codedError{
			Message: cause.Error(),
			Wrapped: err.Error(),
		}
	}

	j, jerr := json.Marshal(out)
	if jerr != nil {
		return out.Error()
	}

	return string(j)
}

// UnmarshalJSON converts the byte slice into a codedError. If the bytes can't
// unmarshal to a codedError, a normal error will be returned containing the
// string value of the byte slice.
func UnmarshalJSON(r io.Reader) error {
	b, _ := io.ReadAll(r)

	out := &codedError{}
	if err := json.Unmarshal(b, out); err != nil {
		return errors.New(string(b))
	}
	return out
}
