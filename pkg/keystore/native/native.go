// Package native stores credentials in the operating system's own store:
// the login Keychain on macOS, Credential Manager on Windows, and the
// D-Bus Secret Service (gnome-keyring, KWallet) on Linux and the BSDs.
//
// The service and user of an entry become the service and account of the
// platform item. When an entry has a target, the platform service is
// "target:service", so entries that differ only by target do not collide.
// Third-party programs that want to read these items must use the same
// mapping.
//
// Secrets are handed to the platform unchanged; binary values survive the
// round trip on every supported platform.
package native

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/systmms/keyring/pkg/credential"
)

// Client abstracts the platform store so it can be replaced in tests.
type Client interface {
	Get(service, account string) (string, error)
	Set(service, account, secret string) error
	Delete(service, account string) error
}

type systemClient struct{}

func (systemClient) Get(service, account string) (string, error) {
	return keyring.Get(service, account)
}

func (systemClient) Set(service, account, secret string) error {
	return keyring.Set(service, account, secret)
}

func (systemClient) Delete(service, account string) error {
	return keyring.Delete(service, account)
}

// Option configures a Builder.
type Option func(*Builder)

// WithClient replaces the platform client (for testing).
func WithClient(c Client) Option {
	return func(b *Builder) {
		b.client = c
	}
}

// Builder creates credentials in the platform store.
type Builder struct {
	client Client
}

// NewBuilder returns a builder for the platform store.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{client: systemClient{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build maps id onto a platform item. It fails only for identities the
// platform cannot name.
func (b *Builder) Build(id credential.Identity) (credential.Credential, error) {
	service := id.Service()
	if target, ok := id.Target(); ok {
		if target == "" {
			return nil, &credential.InvalidError{Attribute: "target", Reason: "cannot be empty"}
		}
		service = target + ":" + service
	}

	return &Credential{
		service: service,
		account: id.User(),
		client:  b.client,
	}, nil
}

// Persistence reports that platform items survive until deleted.
func (b *Builder) Persistence() credential.Persistence {
	return credential.UntilDelete
}

// Headless reports whether the process probably cannot reach an interactive
// platform store, e.g. over SSH, in CI, or without a desktop session.
func (b *Builder) Headless() bool {
	if os.Getenv("SSH_TTY") != "" || os.Getenv("CI") != "" {
		return true
	}
	switch runtime.GOOS {
	case "darwin", "windows":
		return false
	default:
		return os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" &&
			os.Getenv("DISPLAY") == "" &&
			os.Getenv("WAYLAND_DISPLAY") == ""
	}
}

// Credential is one item in the platform store.
type Credential struct {
	service string
	account string
	client  Client
}

// Service returns the platform service name, including any target prefix.
func (c *Credential) Service() string { return c.service }

// Account returns the platform account name.
func (c *Credential) Account() string { return c.account }

// SetPassword stores password.
func (c *Credential) SetPassword(password string) error {
	return c.SetSecret([]byte(password))
}

// SetSecret stores secret, replacing any existing value.
func (c *Credential) SetSecret(secret []byte) error {
	if err := c.client.Set(c.service, c.account, string(secret)); err != nil {
		return c.classify(err)
	}
	return nil
}

// GetPassword returns the stored value as a UTF-8 string.
func (c *Credential) GetPassword() (string, error) {
	secret, err := c.GetSecret()
	if err != nil {
		return "", err
	}
	return credential.DecodePassword(secret)
}

// GetSecret returns the stored bytes.
func (c *Credential) GetSecret() ([]byte, error) {
	secret, err := c.client.Get(c.service, c.account)
	if err != nil {
		return nil, c.classify(err)
	}
	return []byte(secret), nil
}

// DeleteCredential removes the platform item.
func (c *Credential) DeleteCredential() error {
	if err := c.client.Delete(c.service, c.account); err != nil {
		return c.classify(err)
	}
	return nil
}

// Underlying returns c.
func (c *Credential) Underlying() any {
	return c
}

func (c *Credential) String() string {
	return fmt.Sprintf("native credential for %s@%s", c.account, c.service)
}

func (c *Credential) classify(err error) error {
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return credential.ErrNoEntry
	case errors.Is(err, keyring.ErrSetDataTooBig):
		return &credential.InvalidError{Attribute: "secret", Reason: "too large for the platform store"}
	case errors.Is(err, keyring.ErrUnsupportedPlatform):
		return credential.NoStorageAccess(err)
	case isAccessDenied(err):
		return credential.NoStorageAccess(err)
	default:
		return credential.PlatformFailure(err)
	}
}

// isAccessDenied checks if an error indicates the store could not be reached
// or refused access
func isAccessDenied(err error) bool {
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"access denied",
		"user denied",
		"canceled",
		"locked",
		"org.freedesktop.secrets",
		"dbus",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

var (
	_ credential.Builder             = (*Builder)(nil)
	_ credential.PersistenceReporter = (*Builder)(nil)
	_ credential.Credential          = (*Credential)(nil)
)
