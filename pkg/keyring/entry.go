package keyring

import (
	"fmt"

	"github.com/systmms/keyring/pkg/credential"
)

// Entry is a handle on one secret in a credential store. It owns exactly one
// credential for its whole life and forwards every operation to it.
type Entry struct {
	inner credential.Credential
}

// NewEntry returns an entry for service and user built by the default
// credential builder.
func NewEntry(service, user string) (*Entry, error) {
	return defaultRegistry.NewEntry(service, user)
}

// NewEntryWithTarget returns an entry for target, service and user built by
// the default credential builder.
func NewEntryWithTarget(target, service, user string) (*Entry, error) {
	return defaultRegistry.NewEntryWithTarget(target, service, user)
}

// NewEntryWithCredential returns an entry that stores its secret in c,
// bypassing the default builder. It panics if c is nil.
func NewEntryWithCredential(c credential.Credential) *Entry {
	if c == nil {
		panic("keyring: nil credential")
	}
	return &Entry{inner: c}
}

// SetPassword stores password for this entry.
//
// Can return a credential.ErrAmbiguous error if more than one platform
// credential matches this entry. This can only happen on some stores, and
// then only if a third party wrote the ambiguous credential.
func (e *Entry) SetPassword(password string) error {
	return e.inner.SetPassword(password)
}

// SetSecret stores secret for this entry. Ambiguity is reported as for
// SetPassword.
func (e *Entry) SetSecret(secret []byte) error {
	return e.inner.SetSecret(secret)
}

// GetPassword returns the password stored for this entry.
//
// Returns credential.ErrNoEntry if there isn't one, a
// *credential.BadEncodingError if the stored bytes are not UTF-8, and can
// return credential.ErrAmbiguous as described for SetPassword.
func (e *Entry) GetPassword() (string, error) {
	return e.inner.GetPassword()
}

// GetSecret returns the secret stored for this entry.
//
// Returns credential.ErrNoEntry if there isn't one.
func (e *Entry) GetSecret() ([]byte, error) {
	return e.inner.GetSecret()
}

// DeleteCredential removes the stored credential for this entry.
//
// Returns credential.ErrNoEntry if there isn't one. The Entry remains
// usable; only the record in the store is affected.
func (e *Entry) DeleteCredential() error {
	return e.inner.DeleteCredential()
}

// Credential returns the concrete store object behind this entry so it can be
// type-asserted by callers that know which store is in use.
func (e *Entry) Credential() any {
	return e.inner.Underlying()
}

func (e *Entry) String() string {
	if s, ok := e.inner.(fmt.Stringer); ok {
		return "keyring entry: " + s.String()
	}
	return fmt.Sprintf("keyring entry: %T", e.inner.Underlying())
}

// CredentialAs returns the concrete credential behind e as a T, if it is one.
func CredentialAs[T any](e *Entry) (T, bool) {
	c, ok := e.Credential().(T)
	return c, ok
}
