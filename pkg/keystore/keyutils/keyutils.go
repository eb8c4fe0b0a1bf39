//go:build linux

package keyutils

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/systmms/keyring/pkg/credential"
)

// Kernel limits for keys of type "user".
const (
	MaxDescriptionLen = 4095
	MaxPayloadLen     = 32767
)

// Special keyring ids a builder can link its keys into.
const (
	SessionKeyring = unix.KEY_SPEC_SESSION_KEYRING
	UserKeyring    = unix.KEY_SPEC_USER_KEYRING
	ProcessKeyring = unix.KEY_SPEC_PROCESS_KEYRING
)

const keyType = "user"

// Keyctl is the subset of the keyctl(2) interface the store uses.
type Keyctl interface {
	// Add creates or updates the key with description in ring.
	Add(ring int, description string, payload []byte) (int, error)
	// Search finds the key with description reachable from ring.
	Search(ring int, description string) (int, error)
	// Read returns the payload of key id.
	Read(id int) ([]byte, error)
	// Invalidate removes key id from every keyring.
	Invalidate(id int) error
}

type kernel struct{}

func (kernel) Add(ring int, description string, payload []byte) (int, error) {
	return unix.AddKey(keyType, description, payload, ring)
}

func (kernel) Search(ring int, description string) (int, error) {
	return unix.KeyctlSearch(ring, keyType, description, 0)
}

func (kernel) Read(id int) ([]byte, error) {
	// A zero-length read reports the payload size.
	size, err := unix.KeyctlBuffer(unix.KEYCTL_READ, id, nil, 0)
	if err != nil {
		return nil, err
	}
	for {
		buf := make([]byte, size)
		n, err := unix.KeyctlBuffer(unix.KEYCTL_READ, id, buf, 0)
		if err != nil {
			return nil, err
		}
		// the key was updated between the two reads and grew
		if n > size {
			size = n
			continue
		}
		return buf[:n], nil
	}
}

func (kernel) Invalidate(id int) error {
	_, err := unix.KeyctlInt(unix.KEYCTL_INVALIDATE, id, 0, 0, 0)
	return err
}

// Option configures a Builder.
type Option func(*Builder)

// WithKeyctl replaces the syscall layer (for testing).
func WithKeyctl(k Keyctl) Option {
	return func(b *Builder) {
		b.keyctl = k
	}
}

// WithKeyring links keys into ring instead of the session keyring.
func WithKeyring(ring int) Option {
	return func(b *Builder) {
		b.ring = ring
	}
}

// Builder creates credentials in the kernel keyring.
type Builder struct {
	keyctl Keyctl
	ring   int
}

// NewBuilder returns a builder for the session keyring.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{keyctl: kernel{}, ring: SessionKeyring}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build derives the key description for id.
func (b *Builder) Build(id credential.Identity) (credential.Credential, error) {
	description := Description(id)
	if description == "" {
		return nil, &credential.InvalidError{Attribute: "target", Reason: "cannot be empty"}
	}
	if len(description) > MaxDescriptionLen {
		attr := "service"
		if _, ok := id.Target(); ok {
			attr = "target"
		}
		return nil, credential.TooLong(attr, MaxDescriptionLen)
	}

	return &Credential{
		description: description,
		ring:        b.ring,
		keyctl:      b.keyctl,
	}, nil
}

// Persistence reports that keys are lost on reboot.
func (b *Builder) Persistence() credential.Persistence {
	return credential.UntilReboot
}

// Description returns the key description used for id.
func Description(id credential.Identity) string {
	if target, ok := id.Target(); ok {
		return target
	}
	return fmt.Sprintf("keyring:%s@%s", id.User(), id.Service())
}

// Credential is one user key.
type Credential struct {
	description string
	ring        int
	keyctl      Keyctl
}

// Description returns the key description.
func (c *Credential) Description() string { return c.description }

// SetPassword stores password.
func (c *Credential) SetPassword(password string) error {
	return c.SetSecret([]byte(password))
}

// SetSecret creates the key or replaces its payload.
func (c *Credential) SetSecret(secret []byte) error {
	switch {
	case len(secret) == 0:
		return &credential.InvalidError{Attribute: "secret", Reason: "cannot be empty in a kernel keyring"}
	case len(secret) > MaxPayloadLen:
		return credential.TooLong("secret", MaxPayloadLen)
	}

	if _, err := c.keyctl.Add(c.ring, c.description, secret); err != nil {
		return classify(err, true)
	}
	return nil
}

// GetPassword returns the payload as a UTF-8 string.
func (c *Credential) GetPassword() (string, error) {
	secret, err := c.GetSecret()
	if err != nil {
		return "", err
	}
	return credential.DecodePassword(secret)
}

// GetSecret returns the payload.
func (c *Credential) GetSecret() ([]byte, error) {
	id, err := c.keyctl.Search(c.ring, c.description)
	if err != nil {
		return nil, classify(err, false)
	}
	secret, err := c.keyctl.Read(id)
	if err != nil {
		return nil, classify(err, false)
	}
	return secret, nil
}

// DeleteCredential invalidates the key.
func (c *Credential) DeleteCredential() error {
	id, err := c.keyctl.Search(c.ring, c.description)
	if err != nil {
		return classify(err, false)
	}
	if err := c.keyctl.Invalidate(id); err != nil {
		return classify(err, false)
	}
	return nil
}

// Underlying returns c.
func (c *Credential) Underlying() any {
	return c
}

func (c *Credential) String() string {
	return fmt.Sprintf("keyutils credential %q", c.description)
}

func classify(err error, write bool) error {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return credential.PlatformFailure(err)
	}

	switch errno {
	case unix.ENOKEY, unix.EKEYEXPIRED, unix.EKEYREVOKED:
		return credential.ErrNoEntry
	case unix.EACCES, unix.EPERM, unix.ENOSYS:
		return credential.NoStorageAccess(err)
	case unix.EDQUOT, unix.EINVAL:
		if write {
			return &credential.InvalidError{Attribute: "secret", Reason: errno.Error()}
		}
	}
	return credential.PlatformFailure(err)
}

var (
	_ credential.Builder             = (*Builder)(nil)
	_ credential.PersistenceReporter = (*Builder)(nil)
	_ credential.Credential          = (*Credential)(nil)
)
