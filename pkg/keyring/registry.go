package keyring

import (
	"sync"

	"github.com/systmms/keyring/pkg/credential"
)

// Registry resolves the credential builder used to create entries.
//
// It holds at most one override, installed with SetDefault, and falls back
// to a platform builder that is constructed on first use and then reused for
// the life of the registry.
//
// The override and the fallback use separate primitives: a read-write lock
// around the override, and a once-only initializer for the fallback. Entry
// creation holds the read lock while building, so SetDefault waits for
// in-flight creations and every creation that starts after SetDefault returns
// uses the new builder.
type Registry struct {
	mu       sync.RWMutex
	override credential.Builder

	platform func() credential.Builder
}

// NewRegistry returns a registry whose fallback builder is produced by
// platform. platform is called at most once, on the first Resolve made while
// no override is installed. It panics if platform is nil.
func NewRegistry(platform func() credential.Builder) *Registry {
	if platform == nil {
		panic("keyring: nil platform builder")
	}
	return &Registry{platform: sync.OnceValue(platform)}
}

// SetDefault installs b as the registry's builder, replacing any previous
// override. It panics if b is nil.
//
// It is meant to be called at startup, before entries are created
// concurrently. If it races with entry creation, each creation uses either
// the old or the new builder in full.
func (r *Registry) SetDefault(b credential.Builder) {
	if b == nil {
		panic("keyring: nil credential builder")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.override = b
}

// Resolve returns the override if one is installed, and otherwise the
// platform builder.
func (r *Registry) Resolve() credential.Builder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.resolveLocked()
}

func (r *Registry) resolveLocked() credential.Builder {
	if r.override != nil {
		return r.override
	}
	return r.platform()
}

// NewEntry builds an entry for service and user.
func (r *Registry) NewEntry(service, user string) (*Entry, error) {
	return r.build(credential.NewIdentity(service, user))
}

// NewEntryWithTarget builds an entry for target, service and user.
func (r *Registry) NewEntryWithTarget(target, service, user string) (*Entry, error) {
	return r.build(credential.NewIdentityWithTarget(target, service, user))
}

func (r *Registry) build(id credential.Identity) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, err := r.resolveLocked().Build(id)
	if err != nil {
		return nil, err
	}
	return NewEntryWithCredential(c), nil
}

var defaultRegistry = NewRegistry(platformBuilder)

// SetDefaultCredentialBuilder sets the builder used by NewEntry and
// NewEntryWithTarget.
//
// This is meant for clients who bring their own credential store and want
// to use it everywhere. It blocks until entries being created on other
// goroutines are done; call it at startup.
func SetDefaultCredentialBuilder(b credential.Builder) {
	defaultRegistry.SetDefault(b)
}

// DefaultCredentialBuilder returns the builder NewEntry would use now.
func DefaultCredentialBuilder() credential.Builder {
	return defaultRegistry.Resolve()
}

// PlatformStore names the store compiled in as the platform default:
// "mock", "native" or "keyutils".
func PlatformStore() string {
	return platformStoreName
}
