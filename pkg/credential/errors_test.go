package credential_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/keyring/pkg/credential"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want credential.Kind
	}{
		{name: "nil", err: nil, want: credential.KindNone},
		{name: "no_entry", err: credential.ErrNoEntry, want: credential.KindNoEntry},
		{name: "wrapped_no_entry", err: fmt.Errorf("get: %w", credential.ErrNoEntry), want: credential.KindNoEntry},
		{name: "ambiguous", err: &credential.AmbiguousError{Matches: 2}, want: credential.KindAmbiguous},
		{name: "bad_encoding", err: &credential.BadEncodingError{Bytes: []byte{0xff}}, want: credential.KindBadEncoding},
		{name: "invalid", err: credential.TooLong("password", 10), want: credential.KindInvalid},
		{name: "no_storage_access", err: credential.NoStorageAccess(errors.New("locked")), want: credential.KindNoStorageAccess},
		{name: "platform_failure", err: credential.PlatformFailure(errors.New("boom")), want: credential.KindPlatformFailure},
		{name: "unclassified", err: errors.New("surprise"), want: credential.KindPlatformFailure},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, credential.KindOf(tt.err))
		})
	}
}

func TestAmbiguousErrorIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("lookup: %w", &credential.AmbiguousError{Matches: 3})

	assert.ErrorIs(t, err, credential.ErrAmbiguous)
	assert.NotErrorIs(t, err, credential.ErrNoEntry)
	assert.Contains(t, err.Error(), "3 credentials")

	var amb *credential.AmbiguousError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, 3, amb.Matches)
}

func TestWrappedCausesUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("dbus: service not running")

	assert.ErrorIs(t, credential.NoStorageAccess(cause), cause)
	assert.ErrorIs(t, credential.PlatformFailure(cause), cause)
	assert.Contains(t, credential.NoStorageAccess(cause).Error(), "service not running")
}

func TestInvalidErrorMessage(t *testing.T) {
	t.Parallel()

	err := credential.TooLong("service", 255)
	assert.Equal(t, "service", err.Attribute)
	assert.Contains(t, err.Error(), "attribute service is invalid")
	assert.Contains(t, err.Error(), "255")
}

func TestDecodePassword(t *testing.T) {
	t.Parallel()

	got, err := credential.DecodePassword([]byte("このきれいな花は桜です"))
	require.NoError(t, err)
	assert.Equal(t, "このきれいな花は桜です", got)

	raw := []byte{0xFF, 0xFE}
	_, err = credential.DecodePassword(raw)

	var bad *credential.BadEncodingError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, []byte{0xFF, 0xFE}, bad.Bytes)

	// the error owns its copy
	raw[0] = 0x00
	assert.Equal(t, []byte{0xFF, 0xFE}, bad.Bytes)
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no_entry", credential.KindNoEntry.String())
	assert.Equal(t, "platform_failure", credential.KindPlatformFailure.String())
	assert.Equal(t, "ok", credential.KindNone.String())
}
