package credential

import (
	"errors"
	"fmt"
)

// ErrNoEntry is returned when no value is stored for an identity.
var ErrNoEntry = errors.New("no matching entry found in secure storage")

// ErrAmbiguous matches any *AmbiguousError with errors.Is.
var ErrAmbiguous = errors.New("entry is matched by multiple credentials")

// AmbiguousError reports that the store holds more than one record matching
// the identity. This only happens in stores whose naming model allows
// duplicates, and then usually because a third party wrote them.
type AmbiguousError struct {
	Matches int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("entry is matched by %d credentials", e.Matches)
}

// Is reports whether target is ErrAmbiguous.
func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

// BadEncodingError is returned by GetPassword when the stored bytes are not
// valid UTF-8. Bytes holds the stored value so callers can recover it.
type BadEncodingError struct {
	Bytes []byte
}

func (e *BadEncodingError) Error() string {
	return "password cannot be UTF-8 encoded"
}

// InvalidError reports an argument the store cannot accept.
type InvalidError struct {
	Attribute string
	Reason    string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("attribute %s is invalid: %s", e.Attribute, e.Reason)
}

// TooLong returns an InvalidError for an attribute longer than limit.
func TooLong(attribute string, limit int) *InvalidError {
	return &InvalidError{
		Attribute: attribute,
		Reason:    fmt.Sprintf("longer than platform limit of %d", limit),
	}
}

// NoStorageAccessError reports that the store could not be reached, e.g.
// because it is locked, not running, or access was denied.
type NoStorageAccessError struct {
	Err error
}

func (e *NoStorageAccessError) Error() string {
	if e.Err == nil {
		return "couldn't access platform secure storage"
	}
	return fmt.Sprintf("couldn't access platform secure storage: %v", e.Err)
}

func (e *NoStorageAccessError) Unwrap() error {
	return e.Err
}

// PlatformFailureError carries a store-specific failure that fits no other
// category.
type PlatformFailureError struct {
	Err error
}

func (e *PlatformFailureError) Error() string {
	if e.Err == nil {
		return "platform secure storage failure"
	}
	return fmt.Sprintf("platform secure storage failure: %v", e.Err)
}

func (e *PlatformFailureError) Unwrap() error {
	return e.Err
}

// NoStorageAccess wraps err as a *NoStorageAccessError.
func NoStorageAccess(err error) error {
	return &NoStorageAccessError{Err: err}
}

// PlatformFailure wraps err as a *PlatformFailureError.
func PlatformFailure(err error) error {
	return &PlatformFailureError{Err: err}
}

// Kind classifies an error into the portable taxonomy.
type Kind int

const (
	KindNone Kind = iota
	KindNoEntry
	KindAmbiguous
	KindBadEncoding
	KindInvalid
	KindNoStorageAccess
	KindPlatformFailure
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindNoEntry:
		return "no_entry"
	case KindAmbiguous:
		return "ambiguous"
	case KindBadEncoding:
		return "bad_encoding"
	case KindInvalid:
		return "invalid"
	case KindNoStorageAccess:
		return "no_storage_access"
	default:
		return "platform_failure"
	}
}

// KindOf returns the taxonomy kind of err. Errors that carry none of the
// types in this package are reported as KindPlatformFailure.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		badEncoding *BadEncodingError
		invalid     *InvalidError
		noAccess    *NoStorageAccessError
	)

	switch {
	case errors.Is(err, ErrNoEntry):
		return KindNoEntry
	case errors.Is(err, ErrAmbiguous):
		return KindAmbiguous
	case errors.As(err, &badEncoding):
		return KindBadEncoding
	case errors.As(err, &invalid):
		return KindInvalid
	case errors.As(err, &noAccess):
		return KindNoStorageAccess
	default:
		return KindPlatformFailure
	}
}
