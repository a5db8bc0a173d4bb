package upgradeplan

import (
	"errors"
	"strings"
)

// Error is the error type returned by this module's packages.
//
// Any error from the planner, the inventory readers, or a datastore has an
// *Error somewhere in its chain, reachable with [errors.As]. Errors are made
// where the planner touches the outside world: inventory files, databases,
// and zone loaders. Layers in between wrap with [fmt.Errorf] and "%w" and only
// add an Error of their own to attach a further [ErrorKind].
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
//
// The format is "Op [kind]: Message: Inner", with empty parts omitted. An
// Error with neither an Op nor a Message prints as its Inner error.
func (e *Error) Error() string {
	if e.Op == "" && e.Message == "" {
		if e.Inner == nil {
			return e.Kind.label()
		}
		return e.Inner.Error()
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteByte(' ')
	}
	b.WriteByte('[')
	b.WriteString(e.Kind.label())
	b.WriteString("]: ")
	b.WriteString(e.Message)
	if e.Inner != nil {
		if e.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is].
//
// It compares the error kind. Callers should compare against a declared
// [ErrorKind] over a specific error.
func (e *Error) Is(kind error) bool {
	if kind == ErrVersionDependent {
		return !errors.Is(e, ErrTransient) && !errors.Is(e, ErrPermanent)
	}
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents classes of errors to be checked against.
//
// If an error is unsure which kind to use, ErrInternal should be used.
type ErrorKind string

// Defined error kinds.
var (
	ErrConflict     = ErrorKind("conflict")     // conflicting action
	ErrInternal     = ErrorKind("internal")     // non-specific internal error
	ErrInvalid      = ErrorKind("invalid")      // invalid request or malformed input
	ErrPrecondition = ErrorKind("precondition") // some precondition unfulfilled
	ErrTransient    = ErrorKind("transient")    // may succeed on retry
	ErrPermanent    = ErrorKind("permanent")    // will never succeed

	ErrDiffRev     = ErrorKind("diffrev")      // architecture-mismatched upgrade while adding a service
	ErrInvalidType = ErrorKind("invalid type") // view-bound operation given a node that is not a product
	ErrBadLocale   = ErrorKind("bad locale")   // locale not present in the product
	ErrNoProduct   = ErrorKind("no product")   // no new product bound

	// ErrVersionDependent should only be used for an [Is] comparison.
	// It's true for any error that's not marked as transient or permanent.
	ErrVersionDependent = ErrorKind("version dependent") // neither transient nor permanent, may not error in a future version
)

// Error implements error.
func (e ErrorKind) Error() string {
	return string(e)
}

// Label returns the kind's name, or "???" for a kind not declared here.
func (e ErrorKind) label() string {
	switch e {
	case ErrConflict, ErrInternal, ErrInvalid, ErrPrecondition, ErrTransient, ErrPermanent,
		ErrDiffRev, ErrInvalidType, ErrBadLocale, ErrNoProduct:
		return string(e)
	}
	return "???"
}

// DiffRev records an upgrade that cannot be expressed while adding a service
// to an environment: the installed package and the package on the new media
// refine the architecture differently.
//
// DiffRev is reported with [errors.Is] as [ErrDiffRev].
type DiffRev struct {
	PkgID      string `json:"pkgid"`
	Arch       string `json:"arch"`
	OldVersion string `json:"old_version"`
	NewVersion string `json:"new_version"`
}

// Error implements error.
func (d *DiffRev) Error() string {
	var b strings.Builder
	b.WriteString("diffrev: ")
	b.WriteString(d.PkgID)
	b.WriteString(" (")
	b.WriteString(d.Arch)
	b.WriteString("): ")
	b.WriteString(d.OldVersion)
	b.WriteString(" → ")
	b.WriteString(d.NewVersion)
	return b.String()
}

// Is enables [errors.Is].
func (d *DiffRev) Is(target error) bool {
	return target == ErrDiffRev
}
