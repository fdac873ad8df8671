// Package poolerrors declares the error taxonomy shared by every layer of
// rclonepool: one Kind per failure mode, never a bare string compare.
package poolerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure so callers can decide retry, rollback, or the
// HTTP/exit code to surface, without string-matching error messages.
type Kind int

// Kinds, in the order they're introduced in the error handling design.
const (
	// KindUnknown is the zero value; Kind(err) on a plain error returns this.
	KindUnknown Kind = iota
	KindConfigInvalid
	KindTransportError
	KindTransportTimeout
	KindNoEligibleRemote
	KindTempFull
	KindManifestNotFound
	KindManifestSaveFailed
	KindManifestCorrupt
	KindChunkMissing
	KindAlreadyExists
	KindInvalidChunkSize
	KindInvalidRange
	KindUnsatisfiableRange
	KindUploadFailed
)

func (k Kind) String() string {
	switch k {
	case KindConfigInvalid:
		return "ConfigInvalid"
	case KindTransportError:
		return "TransportError"
	case KindTransportTimeout:
		return "TransportTimeout"
	case KindNoEligibleRemote:
		return "NoEligibleRemote"
	case KindTempFull:
		return "TempFull"
	case KindManifestNotFound:
		return "ManifestNotFound"
	case KindManifestSaveFailed:
		return "ManifestSaveFailed"
	case KindManifestCorrupt:
		return "ManifestCorrupt"
	case KindChunkMissing:
		return "ChunkMissing"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindInvalidChunkSize:
		return "InvalidChunkSize"
	case KindInvalidRange:
		return "InvalidRange"
	case KindUnsatisfiableRange:
		return "UnsatisfiableRange"
	case KindUploadFailed:
		return "UploadFailed"
	default:
		return "Unknown"
	}
}

// poolError pairs a Kind with the wrapped cause so Kind(err) can recover it
// through any number of errors.Wrap layers.
type poolError struct {
	kind  Kind
	msg   string
	cause error
}

func (e *poolError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *poolError) Unwrap() error { return e.cause }

// Cause implements the github.com/pkg/errors Causer interface.
func (e *poolError) Cause() error { return e.cause }

// New builds a fresh error of the given kind.
func New(kind Kind, msg string) error {
	return &poolError{kind: kind, msg: msg}
}

// Newf builds a fresh error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &poolError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error, preserving it as the cause.
func Wrap(kind Kind, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return &poolError{kind: kind, msg: msg, cause: errors.WithStack(cause)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return &poolError{kind: kind, msg: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	return Kind(err) == kind
}

// Kind extracts the Kind carried by err, walking Unwrap/Cause chains.
// Returns KindUnknown if err is nil or carries no Kind.
func Kind(err error) Kind {
	for err != nil {
		if pe, ok := err.(*poolError); ok {
			return pe.kind
		}
		type causer interface{ Cause() error }
		type unwrapper interface{ Unwrap() error }
		if u, ok := err.(unwrapper); ok {
			err = u.Unwrap()
			continue
		}
		if c, ok := err.(causer); ok {
			err = c.Cause()
			continue
		}
		return KindUnknown
	}
	return KindUnknown
}

// Retryable reports whether the Kind is one the transport retry loop should
// keep attempting rather than give up on immediately.
func Retryable(err error) bool {
	switch Kind(err) {
	case KindTransportError, KindTransportTimeout:
		return true
	default:
		return false
	}
}
