// Package igerr defines the closed set of error kinds the core distinguishes,
// per the error handling design: container-level failures are fatal and
// propagate to the caller, element-level failures are logged and recovered
// locally.
package igerr

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind is one of the error kinds the core must distinguish. A Kind is not an
// error itself: errors.Is matches an *Error against another *Error carrying
// the same Kind (see Error.Is).
type Kind int

const (
	NotAnArchive Kind = iota
	UnsupportedArchiveVersion
	NotAnIGZ
	UnsupportedCompression
	InvalidPath
	Unsupported
	UnknownType
	MissingDependency
	MissingNamespace
	UnknownFixup
	UnknownInitScriptTask
)

func (k Kind) String() string {
	switch k {
	case NotAnArchive:
		return "not an archive"
	case UnsupportedArchiveVersion:
		return "unsupported archive version"
	case NotAnIGZ:
		return "not an igz"
	case UnsupportedCompression:
		return "unsupported compression"
	case InvalidPath:
		return "invalid path"
	case Unsupported:
		return "unsupported"
	case UnknownType:
		return "unknown type"
	case MissingDependency:
		return "missing dependency"
	case MissingNamespace:
		return "missing namespace"
	case UnknownFixup:
		return "unknown fixup"
	case UnknownInitScriptTask:
		return "unknown init script task"
	}
	return "unknown error kind"
}

// Error is a structured error identifying the failing kind, the file path it
// occurred on, and (for container parses) the stage reached before failure.
type Error struct {
	Kind  Kind
	Path  string
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s (stage %s): %v", e.Path, e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the same Kind, so callers can do
// errors.Is(err, igerr.New(igerr.NotAnArchive, "", "", nil)).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs a structured container-level error.
func New(kind Kind, path, stage string, err error) *Error {
	return &Error{Kind: kind, Path: path, Stage: stage, Err: err}
}

// Wrap attaches path/stage context to an opaque error while preserving the
// ability to unwrap to it, mirroring the teacher's xerrors.Errorf("%w") idiom.
func Wrap(kind Kind, path, stage string, err error) error {
	if err == nil {
		return nil
	}
	return xerrors.Errorf("%s: %w", path, New(kind, path, stage, err))
}
