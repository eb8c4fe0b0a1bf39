// Package keyringtest holds the behavior every credential store must share,
// written as a test suite that each store runs against itself.
package keyringtest

import (
	"crypto/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/keyring/pkg/credential"
	"github.com/systmms/keyring/pkg/keyring"
)

// Suite describes the store under test.
type Suite struct {
	// NewEntry returns an entry for service and user in the store under test.
	NewEntry func(t *testing.T, service, user string) *keyring.Entry

	// SkipEmptyIdentity skips cases with an empty service or user, for
	// stores that reject them.
	SkipEmptyIdentity bool

	// SkipBinary skips cases storing bytes that are not valid UTF-8.
	SkipBinary bool

	// SkipEmptySecret skips storing a zero-length value, for stores that
	// reject it.
	SkipEmptySecret bool
}

// Run runs the shared suite.
func Run(t *testing.T, s Suite) {
	t.Helper()

	t.Run("MissingEntry", func(t *testing.T) {
		name := RandomName()
		entry := s.NewEntry(t, name, name)

		_, err := entry.GetPassword()
		assert.ErrorIs(t, err, credential.ErrNoEntry)
		_, err = entry.GetSecret()
		assert.ErrorIs(t, err, credential.ErrNoEntry)
		assert.ErrorIs(t, entry.DeleteCredential(), credential.ErrNoEntry)
	})

	if !s.SkipEmptySecret {
		t.Run("EmptyPassword", func(t *testing.T) {
			name := RandomName()
			RoundTripPassword(t, s.NewEntry(t, name, name), "")
		})
	}

	t.Run("ASCIIPassword", func(t *testing.T) {
		name := RandomName()
		RoundTripPassword(t, s.NewEntry(t, name, name), "test ascii password")
	})

	t.Run("NonASCIIPassword", func(t *testing.T) {
		name := RandomName()
		RoundTripPassword(t, s.NewEntry(t, name, name), "このきれいな花は桜です")
	})

	t.Run("Update", func(t *testing.T) {
		name := RandomName()
		entry := s.NewEntry(t, name, name)

		require.NoError(t, entry.SetPassword("test ascii password"))
		require.NoError(t, entry.SetPassword("このきれいな花は桜です"))

		got, err := entry.GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "このきれいな花は桜です", got)

		require.NoError(t, entry.DeleteCredential())
		_, err = entry.GetPassword()
		assert.ErrorIs(t, err, credential.ErrNoEntry)
	})

	t.Run("SecondEntrySeesValue", func(t *testing.T) {
		name := RandomName()
		first := s.NewEntry(t, name, name)
		second := s.NewEntry(t, name, name)

		require.NoError(t, first.SetPassword("shared"))
		got, err := second.GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "shared", got)

		require.NoError(t, second.DeleteCredential())
		_, err = first.GetPassword()
		assert.ErrorIs(t, err, credential.ErrNoEntry)
	})

	if !s.SkipEmptyIdentity {
		t.Run("EmptyServiceAndUser", func(t *testing.T) {
			name := RandomName()
			RoundTripPassword(t, s.NewEntry(t, name, ""), "doesn't matter")
			RoundTripPassword(t, s.NewEntry(t, "", name), "doesn't matter")
			RoundTripPassword(t, s.NewEntry(t, "", ""), "doesn't matter")
		})
	}

	if !s.SkipBinary {
		t.Run("RandomSecret", func(t *testing.T) {
			name := RandomName()
			secret := make([]byte, 16)
			_, err := rand.Read(secret)
			require.NoError(t, err)
			RoundTripSecret(t, s.NewEntry(t, name, name), secret)
		})

		t.Run("BadEncoding", func(t *testing.T) {
			name := RandomName()
			entry := s.NewEntry(t, name, name)
			raw := []byte{0xFF, 0xFE}

			require.NoError(t, entry.SetSecret(raw))

			_, err := entry.GetPassword()
			var bad *credential.BadEncodingError
			require.ErrorAs(t, err, &bad)
			assert.Equal(t, raw, bad.Bytes)

			got, err := entry.GetSecret()
			require.NoError(t, err)
			assert.Equal(t, raw, got)

			require.NoError(t, entry.DeleteCredential())
		})
	}
}

// RoundTripPassword sets, reads back, deletes and re-reads password.
func RoundTripPassword(t *testing.T, entry *keyring.Entry, password string) {
	t.Helper()

	require.NoError(t, entry.SetPassword(password), "set password")
	got, err := entry.GetPassword()
	require.NoError(t, err, "get password")
	assert.Equal(t, password, got)

	require.NoError(t, entry.DeleteCredential(), "delete password")
	_, err = entry.GetPassword()
	assert.ErrorIs(t, err, credential.ErrNoEntry, "read deleted password")
}

// RoundTripSecret sets, reads back, deletes and re-reads secret.
func RoundTripSecret(t *testing.T, entry *keyring.Entry, secret []byte) {
	t.Helper()

	require.NoError(t, entry.SetSecret(secret), "set secret")
	got, err := entry.GetSecret()
	require.NoError(t, err, "get secret")
	assert.Equal(t, secret, got)

	require.NoError(t, entry.DeleteCredential(), "delete secret")
	_, err = entry.GetSecret()
	assert.ErrorIs(t, err, credential.ErrNoEntry, "read deleted secret")
}

// RandomName returns a name unlikely to collide with anything already in a
// store, so failed runs do not poison later ones.
func RandomName() string {
	return "keyringtest-" + uuid.NewString()
}
