package instrumented

import (
	"fmt"
	"time"

	"github.com/systmms/keyring/pkg/credential"
)

// Builder records metrics for inner and for every credential it builds.
type Builder struct {
	inner   credential.Builder
	store   string
	metrics *Metrics
}

// Wrap returns a builder that reports inner's operations under the store
// label. A nil metrics uses DefaultMetrics.
func Wrap(inner credential.Builder, store string, metrics *Metrics) *Builder {
	if inner == nil {
		panic("instrumented: nil credential builder")
	}
	if metrics == nil {
		metrics = DefaultMetrics()
	}
	return &Builder{inner: inner, store: store, metrics: metrics}
}

// Build builds with the wrapped builder.
func (b *Builder) Build(id credential.Identity) (credential.Credential, error) {
	start := time.Now()
	c, err := b.inner.Build(id)
	b.metrics.observe(b.store, OpBuild, start, err)
	if err != nil {
		return nil, err
	}
	return &Credential{inner: c, store: b.store, metrics: b.metrics}, nil
}

// Persistence reports the wrapped builder's persistence.
func (b *Builder) Persistence() credential.Persistence {
	return credential.PersistenceOf(b.inner)
}

// Unwrap returns the wrapped builder.
func (b *Builder) Unwrap() credential.Builder {
	return b.inner
}

// Credential records metrics for one wrapped credential.
type Credential struct {
	inner   credential.Credential
	store   string
	metrics *Metrics
}

func (c *Credential) SetPassword(password string) error {
	start := time.Now()
	err := c.inner.SetPassword(password)
	c.metrics.observe(c.store, OpSetPassword, start, err)
	return err
}

func (c *Credential) SetSecret(secret []byte) error {
	start := time.Now()
	err := c.inner.SetSecret(secret)
	c.metrics.observe(c.store, OpSetSecret, start, err)
	return err
}

func (c *Credential) GetPassword() (string, error) {
	start := time.Now()
	password, err := c.inner.GetPassword()
	c.metrics.observe(c.store, OpGetPassword, start, err)
	return password, err
}

func (c *Credential) GetSecret() ([]byte, error) {
	start := time.Now()
	secret, err := c.inner.GetSecret()
	c.metrics.observe(c.store, OpGetSecret, start, err)
	return secret, err
}

func (c *Credential) DeleteCredential() error {
	start := time.Now()
	err := c.inner.DeleteCredential()
	c.metrics.observe(c.store, OpDelete, start, err)
	return err
}

// Underlying returns the wrapped credential's underlying value.
func (c *Credential) Underlying() any {
	return c.inner.Underlying()
}

func (c *Credential) String() string {
	if s, ok := c.inner.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c.inner)
}

var (
	_ credential.Builder             = (*Builder)(nil)
	_ credential.PersistenceReporter = (*Builder)(nil)
	_ credential.Credential          = (*Credential)(nil)
)
