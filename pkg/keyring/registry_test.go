package keyring_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/keyring/pkg/credential"
	"github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keystore/mock"
)

// countingPlatform records how often the platform builder is constructed.
type countingPlatform struct {
	constructed atomic.Int32
}

func (p *countingPlatform) construct() credential.Builder {
	p.constructed.Add(1)
	return mock.NewBuilder()
}

// taggedBuilder counts its builds and wraps what it builds, so tests can
// tell which builder served an entry.
type taggedBuilder struct {
	tag   string
	inner *mock.Builder
	built atomic.Int32
}

type taggedCredential struct {
	credential.Credential
	tag string
}

func (c *taggedCredential) String() string { return c.tag }

func newTaggedBuilder(tag string) *taggedBuilder {
	return &taggedBuilder{tag: tag, inner: mock.NewBuilder()}
}

func (b *taggedBuilder) Build(id credential.Identity) (credential.Credential, error) {
	b.built.Add(1)
	c, err := b.inner.Build(id)
	if err != nil {
		return nil, err
	}
	return &taggedCredential{Credential: c, tag: b.tag}, nil
}

func TestRegistryPlatformBuiltOnce(t *testing.T) {
	t.Parallel()

	platform := &countingPlatform{}
	r := keyring.NewRegistry(platform.construct)

	assert.Equal(t, int32(0), platform.constructed.Load(), "construction must be lazy")

	const numGoroutines = 64
	builders := make([]credential.Builder, numGoroutines)
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	start := make(chan struct{})
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			<-start
			builders[i] = r.Resolve()
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), platform.constructed.Load())
	for _, b := range builders {
		assert.Same(t, builders[0], b)
	}
}

func TestRegistryResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	r := keyring.NewRegistry(func() credential.Builder { return mock.NewBuilder() })

	first, err := r.NewEntry("svc", "alice")
	require.NoError(t, err)
	require.NoError(t, first.SetPassword("hunter2"))

	second, err := r.NewEntry("svc", "alice")
	require.NoError(t, err)
	got, err := second.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got, "entries from repeated resolves share one platform store")
}

func TestRegistryOverridePrecedence(t *testing.T) {
	t.Parallel()

	platform := &countingPlatform{}
	r := keyring.NewRegistry(platform.construct)

	override := newTaggedBuilder("override")
	r.SetDefault(override)
	assert.Same(t, override, r.Resolve())

	for i := 0; i < 5; i++ {
		entry, err := r.NewEntryWithTarget("work", "svc", "alice")
		require.NoError(t, err)
		_, ok := entry.Credential().(*mock.Credential)
		assert.True(t, ok)
	}

	assert.Equal(t, int32(5), override.built.Load())
	assert.Equal(t, int32(0), platform.constructed.Load(), "platform default is never needed while an override is set")
}

func TestRegistryOverrideReplacesPrevious(t *testing.T) {
	t.Parallel()

	r := keyring.NewRegistry(func() credential.Builder { return mock.NewBuilder() })

	first := newTaggedBuilder("first")
	second := newTaggedBuilder("second")
	r.SetDefault(first)
	r.SetDefault(second)

	_, err := r.NewEntry("svc", "alice")
	require.NoError(t, err)
	assert.Equal(t, int32(0), first.built.Load())
	assert.Equal(t, int32(1), second.built.Load())
}

func TestRegistryPlatformNotRebuiltAfterOverride(t *testing.T) {
	t.Parallel()

	platform := &countingPlatform{}
	r := keyring.NewRegistry(platform.construct)

	before := r.Resolve()
	r.SetDefault(newTaggedBuilder("override"))
	_ = r.Resolve()

	assert.Equal(t, int32(1), platform.constructed.Load())
	assert.NotSame(t, before, r.Resolve())
}

func TestRegistryBuildErrorIsReturned(t *testing.T) {
	t.Parallel()

	r := keyring.NewRegistry(func() credential.Builder { return mock.NewBuilder() })
	r.SetDefault(credential.BuilderFunc(func(credential.Identity) (credential.Credential, error) {
		return nil, credential.TooLong("service", 4)
	}))

	entry, err := r.NewEntry("too-long-service", "alice")
	assert.Nil(t, entry)
	assert.Equal(t, credential.KindInvalid, credential.KindOf(err))
}

func TestRegistryUsableAfterBuilderPanic(t *testing.T) {
	t.Parallel()

	r := keyring.NewRegistry(func() credential.Builder { return mock.NewBuilder() })
	r.SetDefault(credential.BuilderFunc(func(credential.Identity) (credential.Credential, error) {
		panic("broken builder")
	}))

	assert.Panics(t, func() { _, _ = r.NewEntry("svc", "alice") })

	// the read lock was released, so installing a new builder does not hang
	r.SetDefault(mock.NewBuilder())
	entry, err := r.NewEntry("svc", "alice")
	require.NoError(t, err)
	require.NoError(t, entry.SetPassword("ok"))
}

func TestRegistryConcurrentSetDefaultAndCreate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}
	t.Parallel()

	r := keyring.NewRegistry(func() credential.Builder { return mock.NewBuilder() })
	a := newTaggedBuilder("a")
	b := newTaggedBuilder("b")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				r.SetDefault(a)
			} else {
				r.SetDefault(b)
			}
		}(i)
		go func() {
			defer wg.Done()
			entry, err := r.NewEntry("svc", "alice")
			assert.NoError(t, err)
			assert.NotNil(t, entry)
		}()
	}
	wg.Wait()

	// last writer wins: whatever was installed last serves new entries
	final := r.Resolve()
	before := final.(*taggedBuilder).built.Load()
	_, err := r.NewEntry("svc", "alice")
	require.NoError(t, err)
	assert.Equal(t, before+1, final.(*taggedBuilder).built.Load())
}

func TestNewRegistryNilPlatformPanics(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "keyring: nil platform builder", func() { keyring.NewRegistry(nil) })
}

func TestRegistrySetDefaultNilPanics(t *testing.T) {
	t.Parallel()

	r := keyring.NewRegistry(func() credential.Builder { return mock.NewBuilder() })
	assert.PanicsWithValue(t, "keyring: nil credential builder", func() { r.SetDefault(nil) })
}

func TestDefaultRegistry(t *testing.T) {
	// Not parallel: installs a process-wide override.
	b := mock.NewBuilder()
	keyring.SetDefaultCredentialBuilder(b)
	assert.Same(t, b, keyring.DefaultCredentialBuilder())

	entry, err := keyring.NewEntry("svc", "alice")
	require.NoError(t, err)
	require.NoError(t, entry.SetPassword("hunter2"))

	c, err := b.Build(credential.NewIdentity("svc", "alice"))
	require.NoError(t, err)
	got, err := c.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)

	targeted, err := keyring.NewEntryWithTarget("work", "svc", "alice")
	require.NoError(t, err)
	_, err = targeted.GetPassword()
	assert.True(t, errors.Is(err, credential.ErrNoEntry))
}
