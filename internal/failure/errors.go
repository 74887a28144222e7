// Package failure turns unhandled errors into error pages.
//
// A Presenter classifies the error, applies the logging policy, and builds
// a Response that can be written as a standalone HTML page or as a single
// plain-text line.
package failure

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/secureworks/errors"
)

// MalformedRequestError reports a request the client should not have sent.
// Unlogged errors are expected client misbehavior and are not logged.
type MalformedRequestError struct {
	Title    string
	Message  string
	Unlogged bool
	Cause    error
}

func (e *MalformedRequestError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *MalformedRequestError) Unwrap() error { return e.Cause }

// NewMalformedRequest returns a logged malformed request error with a
// stack trace attached.
func NewMalformedRequest(title, message string) error {
	return errors.WithStackTrace(&MalformedRequestError{Title: title, Message: message})
}

// NewSilentMalformedRequest is NewMalformedRequest for errors that should
// not be logged.
func NewSilentMalformedRequest(title, message string) error {
	return errors.WithStackTrace(&MalformedRequestError{Title: title, Message: message, Unlogged: true})
}

type Kind int

const (
	KindGeneric Kind = iota
	KindMalformedRequest
)

func (k Kind) String() string {
	switch k {
	case KindMalformedRequest:
		return "malformed-request"
	default:
		return "generic"
	}
}

// Caught is the classified form of an unhandled error.
type Caught struct {
	Kind     Kind
	TypeName string
	Message  string

	// Title and Unlogged are only set for KindMalformedRequest.
	Title    string
	Unlogged bool

	Frames errors.Frames
	Err    error
}

// Classify inspects err once so the rest of the presenter can switch on
// Kind instead of probing the error chain again.
func Classify(err error) Caught {
	c := Caught{
		Kind:     KindGeneric,
		TypeName: TypeName(err),
		Message:  err.Error(),
		Frames:   errors.FramesFrom(err),
		Err:      err,
	}
	var mr *MalformedRequestError
	if errors.As(err, &mr) {
		c.Kind = KindMalformedRequest
		c.Title = mr.Title
		c.Unlogged = mr.Unlogged
		c.Message = mr.Error()
	}
	return c
}

const tracePkg = "github.com/secureworks/errors"

// TypeName returns the Go type name of err ("fs.PathError",
// "failure.MalformedRequestError"). Stack trace wrappers are looked
// through so the name describes the error that was raised.
func TypeName(err error) string {
	for err != nil {
		t := reflect.TypeOf(err)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.PkgPath() == tracePkg {
			if inner := errors.Unwrap(err); inner != nil {
				err = inner
				continue
			}
		}
		return strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	}
	return "<nil>"
}
