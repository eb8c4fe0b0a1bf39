package credential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/keyring/pkg/credential"
)

func TestIdentity(t *testing.T) {
	t.Parallel()

	id := credential.NewIdentity("svc", "alice")
	assert.Equal(t, "svc", id.Service())
	assert.Equal(t, "alice", id.User())
	target, ok := id.Target()
	assert.False(t, ok)
	assert.Empty(t, target)
	assert.Equal(t, "alice@svc", id.String())

	withTarget := credential.NewIdentityWithTarget("work", "svc", "alice")
	target, ok = withTarget.Target()
	assert.True(t, ok)
	assert.Equal(t, "work", target)
	assert.Contains(t, withTarget.String(), `target "work"`)

	assert.NotEqual(t, id, withTarget)
	assert.Equal(t, id, credential.NewIdentity("svc", "alice"))
}

func TestEmptyTargetIsStillATarget(t *testing.T) {
	t.Parallel()

	_, ok := credential.NewIdentityWithTarget("", "svc", "alice").Target()
	assert.True(t, ok)
}

type stubCredential struct{ credential.Credential }

type persistentBuilder struct{ credential.BuilderFunc }

func (persistentBuilder) Persistence() credential.Persistence { return credential.UntilDelete }

func TestBuilderFunc(t *testing.T) {
	t.Parallel()

	var seen credential.Identity
	b := credential.BuilderFunc(func(id credential.Identity) (credential.Credential, error) {
		seen = id
		return stubCredential{}, nil
	})

	c, err := b.Build(credential.NewIdentity("svc", "bob"))
	require.NoError(t, err)
	assert.IsType(t, stubCredential{}, c)
	assert.Equal(t, "bob", seen.User())
	assert.Equal(t, credential.PersistenceUnspecified, credential.PersistenceOf(b))
}

func TestPersistenceOf(t *testing.T) {
	t.Parallel()

	b := persistentBuilder{}
	assert.Equal(t, credential.UntilDelete, credential.PersistenceOf(b))
	assert.Equal(t, "until-delete", credential.UntilDelete.String())
	assert.Equal(t, "process-only", credential.ProcessOnly.String())
}
