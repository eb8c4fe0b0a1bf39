package native_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/systmms/keyring/pkg/credential"
	kr "github.com/systmms/keyring/pkg/keyring"
	"github.com/systmms/keyring/pkg/keyring/keyringtest"
	"github.com/systmms/keyring/pkg/keystore/native"
	"github.com/systmms/keyring/tests/fakes"
)

func newEntry(t *testing.T, b *native.Builder, id credential.Identity) *kr.Entry {
	t.Helper()

	c, err := b.Build(id)
	require.NoError(t, err)
	return kr.NewEntryWithCredential(c)
}

func TestNativeContractWithFakeClient(t *testing.T) {
	t.Parallel()

	b := native.NewBuilder(native.WithClient(fakes.NewFakeKeyringClient()))
	keyringtest.Run(t, keyringtest.Suite{
		NewEntry: func(t *testing.T, service, user string) *kr.Entry {
			return newEntry(t, b, credential.NewIdentity(service, user))
		},
	})
}

// TestNativeContractWithLibraryMock drives the real zalando client against the
// library's in-memory provider.
func TestNativeContractWithLibraryMock(t *testing.T) {
	// Not parallel: MockInit swaps the library's process-wide provider.
	keyring.MockInit()

	b := native.NewBuilder()
	keyringtest.Run(t, keyringtest.Suite{
		NewEntry: func(t *testing.T, service, user string) *kr.Entry {
			return newEntry(t, b, credential.NewIdentity(service, user))
		},
	})
}

func TestNativeIdentityMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		id          credential.Identity
		wantService string
		wantAccount string
	}{
		{
			name:        "no_target",
			id:          credential.NewIdentity("myapp", "alice"),
			wantService: "myapp",
			wantAccount: "alice",
		},
		{
			name:        "with_target",
			id:          credential.NewIdentityWithTarget("work", "myapp", "alice"),
			wantService: "work:myapp",
			wantAccount: "alice",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := fakes.NewFakeKeyringClient()
			entry := newEntry(t, native.NewBuilder(native.WithClient(fake)), tt.id)

			c, ok := kr.CredentialAs[*native.Credential](entry)
			require.True(t, ok)
			assert.Equal(t, tt.wantService, c.Service())
			assert.Equal(t, tt.wantAccount, c.Account())

			require.NoError(t, entry.SetPassword("secret123"))
			stored, ok := fake.Lookup(tt.wantService, tt.wantAccount)
			require.True(t, ok)
			assert.Equal(t, "secret123", stored)
		})
	}
}

func TestNativeEmptyTargetRejected(t *testing.T) {
	t.Parallel()

	b := native.NewBuilder(native.WithClient(fakes.NewFakeKeyringClient()))
	_, err := b.Build(credential.NewIdentityWithTarget("", "myapp", "alice"))

	var invalid *credential.InvalidError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "target", invalid.Attribute)
}

func TestNativeErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		clientErr error
		want      credential.Kind
	}{
		{name: "not_found", clientErr: keyring.ErrNotFound, want: credential.KindNoEntry},
		{name: "too_big", clientErr: keyring.ErrSetDataTooBig, want: credential.KindInvalid},
		{name: "unsupported_platform", clientErr: keyring.ErrUnsupportedPlatform, want: credential.KindNoStorageAccess},
		{name: "secret_service_missing", clientErr: errors.New("The name org.freedesktop.secrets was not provided by any .service files"), want: credential.KindNoStorageAccess},
		{name: "user_denied", clientErr: errors.New("User denied access"), want: credential.KindNoStorageAccess},
		{name: "other", clientErr: errors.New("exit status 45"), want: credential.KindPlatformFailure},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := fakes.NewFakeKeyringClient()
			fake.SetErr(tt.clientErr)
			entry := newEntry(t, native.NewBuilder(native.WithClient(fake)), credential.NewIdentity("myapp", "alice"))

			assert.Equal(t, tt.want, credential.KindOf(entry.SetPassword("x")))
			_, err := entry.GetSecret()
			assert.Equal(t, tt.want, credential.KindOf(err))
			assert.Equal(t, tt.want, credential.KindOf(entry.DeleteCredential()))
		})
	}
}

func TestNativeOriginalErrorIsKept(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 45")
	fake := fakes.NewFakeKeyringClient()
	fake.SetErr(cause)
	entry := newEntry(t, native.NewBuilder(native.WithClient(fake)), credential.NewIdentity("myapp", "alice"))

	_, err := entry.GetPassword()
	assert.ErrorIs(t, err, cause)
}

func TestNativeBuilderPersistence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, credential.UntilDelete, credential.PersistenceOf(native.NewBuilder()))
}

func TestNativeHeadlessInCI(t *testing.T) {
	t.Setenv("CI", "true")

	assert.True(t, native.NewBuilder().Headless())
}
