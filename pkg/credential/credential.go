// Package credential defines the contract between the keyring facade and the
// credential stores that actually persist secrets.
//
// A store provides two things:
//
//   - a Builder, which maps the generic Identity of an entry onto whatever
//     the store uses to name its records, and
//   - a Credential, the store-specific object bound to one such record.
//
// Stores usually have a richer model of a record than Identity can express
// (keychain domains, secret-service collections, database rows). They expose
// that model on their concrete credential type, which callers reach through
// Credential.Underlying and a type assertion.
//
// All store failures must be reported with the errors defined in this
// package so that callers can handle them without knowing which store is in
// use. Store-specific detail belongs inside NoStorageAccessError or
// PlatformFailureError.
package credential

import (
	"fmt"
	"unicode/utf8"
)

// Credential is a store-specific object bound to exactly one Identity.
//
// Implementations must be safe for concurrent use by multiple goroutines.
// They make no promise about the ordering of concurrent requests that reach
// the underlying store for the same record.
type Credential interface {
	// SetPassword stores a UTF-8 password, replacing any existing value.
	SetPassword(password string) error

	// SetSecret stores arbitrary bytes, replacing any existing value.
	// The bytes must be stored exactly as given.
	SetSecret(secret []byte) error

	// GetPassword returns the stored value as a string.
	//
	// Returns ErrNoEntry if nothing is stored and a *BadEncodingError carrying
	// the raw bytes if the stored value is not valid UTF-8.
	GetPassword() (string, error)

	// GetSecret returns the stored bytes unchanged.
	//
	// Returns ErrNoEntry if nothing is stored.
	GetSecret() ([]byte, error)

	// DeleteCredential removes the stored record.
	//
	// Returns ErrNoEntry if nothing is stored. The Credential itself remains
	// usable afterwards.
	DeleteCredential() error

	// Underlying returns the concrete store object so callers that know which
	// store is in use can reach its richer model with a type assertion.
	// Decorators return the Underlying value of the credential they wrap.
	Underlying() any
}

// Builder creates credentials for identities.
//
// Build must be safe to call concurrently and must not carry per-call state
// from one build into another.
type Builder interface {
	Build(id Identity) (Credential, error)
}

// BuilderFunc adapts an ordinary function to the Builder interface.
type BuilderFunc func(id Identity) (Credential, error)

// Build calls f(id).
func (f BuilderFunc) Build(id Identity) (Credential, error) {
	return f(id)
}

// Persistence describes how long a store keeps what is written to it.
type Persistence int

const (
	// PersistenceUnspecified is reported by stores that do not say.
	PersistenceUnspecified Persistence = iota
	// EntryOnly values live only as long as the credential object.
	EntryOnly
	// ProcessOnly values live in memory until the process exits.
	ProcessOnly
	// UntilReboot values survive the process but not a reboot.
	UntilReboot
	// UntilDelete values persist until explicitly deleted.
	UntilDelete
)

func (p Persistence) String() string {
	switch p {
	case EntryOnly:
		return "entry-only"
	case ProcessOnly:
		return "process-only"
	case UntilReboot:
		return "until-reboot"
	case UntilDelete:
		return "until-delete"
	default:
		return "unspecified"
	}
}

// PersistenceReporter is implemented by builders that know how long their
// store keeps values.
type PersistenceReporter interface {
	Persistence() Persistence
}

// PersistenceOf returns the persistence reported by b, or
// PersistenceUnspecified.
func PersistenceOf(b Builder) Persistence {
	if r, ok := b.(PersistenceReporter); ok {
		return r.Persistence()
	}
	return PersistenceUnspecified
}

// DecodePassword converts stored bytes into a password.
//
// Stores call this from GetPassword so that non-UTF-8 values are always
// reported the same way: as a *BadEncodingError holding a copy of the bytes.
func DecodePassword(secret []byte) (string, error) {
	if !utf8.Valid(secret) {
		return "", &BadEncodingError{Bytes: append([]byte(nil), secret...)}
	}
	return string(secret), nil
}

// Identity names a logical secret: a service and user, optionally qualified
// by a target to tell apart secrets that share both.
//
// Identity is a value type with unexported fields; it cannot change after
// construction.
type Identity struct {
	service   string
	user      string
	target    string
	hasTarget bool
}

// NewIdentity returns an identity without a target.
func NewIdentity(service, user string) Identity {
	return Identity{service: service, user: user}
}

// NewIdentityWithTarget returns an identity with an explicit target. An empty
// target is still a target; stores decide whether they accept it.
func NewIdentityWithTarget(target, service, user string) Identity {
	return Identity{service: service, user: user, target: target, hasTarget: true}
}

// Service returns the service name.
func (id Identity) Service() string { return id.service }

// User returns the user name.
func (id Identity) User() string { return id.user }

// Target returns the target and whether one was given.
func (id Identity) Target() (string, bool) { return id.target, id.hasTarget }

func (id Identity) String() string {
	if id.hasTarget {
		return fmt.Sprintf("%s@%s (target %q)", id.user, id.service, id.target)
	}
	return fmt.Sprintf("%s@%s", id.user, id.service)
}
