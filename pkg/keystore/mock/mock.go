// Package mock provides an in-memory credential store.
//
// It needs no operating-system support, so it is the default store on every
// platform where no native store was selected at build time, and it is what
// tests use to exercise code written against the keyring API.
//
// Credentials built by the same Builder for the same identity share one
// stored value, the way records in a real store do. Values are kept sealed in
// memguard enclaves and vanish when the process exits.
//
// Tests can make a credential fail on demand:
//
//	entry, _ := keyring.NewEntry("svc", "alice")
//	c, _ := keyring.CredentialAs[*mock.Credential](entry)
//	c.SetError(credential.NoStorageAccess(errors.New("locked")))
//	_, err := entry.GetPassword() // returns the injected error
//	_, err = entry.GetPassword()  // back to normal behavior
package mock

import (
	"fmt"
	"sync"

	"github.com/systmms/keyring/internal/secure"
	"github.com/systmms/keyring/pkg/credential"
)

// Builder creates mock credentials backed by a shared in-memory store.
type Builder struct {
	mu     sync.Mutex
	values map[credential.Identity]*secure.Sealed
}

// NewBuilder returns a builder with an empty store.
func NewBuilder() *Builder {
	return &Builder{values: make(map[credential.Identity]*secure.Sealed)}
}

// Build returns a credential for id. It never fails.
func (b *Builder) Build(id credential.Identity) (credential.Credential, error) {
	return &Credential{id: id, store: b}, nil
}

// Persistence reports that values live until the process exits.
func (b *Builder) Persistence() credential.Persistence {
	return credential.ProcessOnly
}

func (b *Builder) load(id credential.Identity) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.values[id]
	if !ok {
		return nil, credential.ErrNoEntry
	}
	secret, err := v.Bytes()
	if err != nil {
		return nil, credential.PlatformFailure(err)
	}
	return secret, nil
}

func (b *Builder) put(id credential.Identity, v *secure.Sealed) {
	b.mu.Lock()
	old := b.values[id]
	b.values[id] = v
	b.mu.Unlock()

	if old != nil {
		old.Destroy()
	}
}

func (b *Builder) remove(id credential.Identity) bool {
	b.mu.Lock()
	old, ok := b.values[id]
	delete(b.values, id)
	b.mu.Unlock()

	if ok {
		old.Destroy()
	}
	return ok
}

// Credential is a mock credential bound to one identity.
type Credential struct {
	id    credential.Identity
	store *Builder

	mu      sync.Mutex
	nextErr error
}

// Identity returns the identity this credential was built for.
func (c *Credential) Identity() credential.Identity {
	return c.id
}

// SetError makes the next operation on this credential return err instead of
// touching the store. The error is consumed by that operation.
func (c *Credential) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextErr = err
}

func (c *Credential) takeError() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.nextErr
	c.nextErr = nil
	return err
}

// SetPassword stores password as UTF-8 bytes.
func (c *Credential) SetPassword(password string) error {
	return c.SetSecret([]byte(password))
}

// SetSecret stores a copy of secret.
func (c *Credential) SetSecret(secret []byte) error {
	if err := c.takeError(); err != nil {
		return err
	}
	c.store.put(c.id, secure.Seal(secret))
	return nil
}

// GetPassword returns the stored value as a string.
func (c *Credential) GetPassword() (string, error) {
	if err := c.takeError(); err != nil {
		return "", err
	}
	secret, err := c.store.load(c.id)
	if err != nil {
		return "", err
	}
	return credential.DecodePassword(secret)
}

// GetSecret returns a copy of the stored bytes.
func (c *Credential) GetSecret() ([]byte, error) {
	if err := c.takeError(); err != nil {
		return nil, err
	}
	return c.store.load(c.id)
}

// DeleteCredential removes the stored value.
func (c *Credential) DeleteCredential() error {
	if err := c.takeError(); err != nil {
		return err
	}
	if !c.store.remove(c.id) {
		return credential.ErrNoEntry
	}
	return nil
}

// Underlying returns c.
func (c *Credential) Underlying() any {
	return c
}

func (c *Credential) String() string {
	return fmt.Sprintf("mock credential for %s", c.id)
}

var (
	_ credential.Builder             = (*Builder)(nil)
	_ credential.PersistenceReporter = (*Builder)(nil)
	_ credential.Credential          = (*Credential)(nil)
)
