package errors_test

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/internal/logging"
	"github.com/systmms/keyring/pkg/credential"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Check network connectivity")
	assert.Contains(t, errMsg, "💡")
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "store",
		Value:      "vault",
		Message:    "unknown store",
		Suggestion: "Use one of: mock, native, keyutils, awssm, sql",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "store")
	assert.Contains(t, errMsg, "vault")
	assert.Contains(t, errMsg, "unknown store")
	assert.Contains(t, errMsg, "keyutils")
}

// TestStoreErrorSuggestions verifies suggestions follow the error kind and store
func TestStoreErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		store              string
		err                error
		expectedSuggestion string
	}{
		{
			name:               "no_entry",
			store:              "native",
			err:                credential.ErrNoEntry,
			expectedSuggestion: "keyring set",
		},
		{
			name:               "ambiguous",
			store:              "sql",
			err:                &credential.AmbiguousError{Matches: 2},
			expectedSuggestion: "duplicates",
		},
		{
			name:               "bad_encoding",
			store:              "mock",
			err:                &credential.BadEncodingError{Bytes: []byte{0xFF}},
			expectedSuggestion: "--binary",
		},
		{
			name:               "invalid",
			store:              "keyutils",
			err:                credential.TooLong("secret", 32767),
			expectedSuggestion: "--store",
		},
		{
			name:               "native_locked",
			store:              "native",
			err:                credential.NoStorageAccess(fmt.Errorf("keychain locked")),
			expectedSuggestion: "Unlock your keychain",
		},
		{
			name:               "aws_credentials",
			store:              "awssm",
			err:                credential.NoStorageAccess(fmt.Errorf("failed to retrieve credentials")),
			expectedSuggestion: "aws configure",
		},
		{
			name:               "aws_access_denied",
			store:              "awssm",
			err:                credential.NoStorageAccess(fmt.Errorf("AccessDeniedException")),
			expectedSuggestion: "IAM permissions",
		},
		{
			name:               "timeout",
			store:              "awssm",
			err:                credential.PlatformFailure(fmt.Errorf("context deadline exceeded")),
			expectedSuggestion: "timed out",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			storeErr := errors.StoreError(tt.store, "get", tt.err)

			errMsg := storeErr.Error()
			assert.Contains(t, errMsg, tt.store+" store error during get")
			assert.Contains(t, errMsg, tt.expectedSuggestion)
			assert.ErrorIs(t, storeErr, tt.err)
		})
	}
}

// TestExitCode verifies each error kind has its own exit status
func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, errors.ExitOK},
		{"config", errors.ConfigError{Message: "bad"}, errors.ExitConfig},
		{"no_entry", errors.StoreError("mock", "get", credential.ErrNoEntry), errors.ExitNoEntry},
		{"ambiguous", &credential.AmbiguousError{Matches: 3}, errors.ExitAmbiguous},
		{"bad_encoding", &credential.BadEncodingError{}, errors.ExitBadEncoding},
		{"invalid", credential.TooLong("user", 4), errors.ExitInvalid},
		{"no_storage_access", credential.NoStorageAccess(fmt.Errorf("denied")), errors.ExitNoStorageAccess},
		{"platform_failure", credential.PlatformFailure(fmt.Errorf("boom")), errors.ExitFailure},
		{"plain", fmt.Errorf("unknown flag"), errors.ExitFailure},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, errors.ExitCode(tt.err))
		})
	}
}

// TestSimplifyError verifies error simplification for common cases
func TestSimplifyError(t *testing.T) {
	t.Parallel()

	_, b64Err := base64.StdEncoding.DecodeString("not base64!")

	tests := []struct {
		name          string
		inputError    error
		expectedType  string
		expectedInMsg string
	}{
		{
			name:          "yaml_error",
			inputError:    fmt.Errorf("yaml: line 5: mapping values are not allowed"),
			expectedType:  "ConfigError",
			expectedInMsg: "Invalid YAML",
		},
		{
			name:          "base64_error",
			inputError:    fmt.Errorf("decode --secret: %w", b64Err),
			expectedType:  "UserError",
			expectedInMsg: "Invalid base64",
		},
		{
			name:          "permission_denied",
			inputError:    fmt.Errorf("permission denied"),
			expectedType:  "UserError",
			expectedInMsg: "Permission denied",
		},
		{
			name:          "file_not_found",
			inputError:    fmt.Errorf("no such file or directory"),
			expectedType:  "UserError",
			expectedInMsg: "not found",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			simplified := errors.SimplifyError(tt.inputError)

			errMsg := simplified.Error()
			assert.Contains(t, errMsg, tt.expectedInMsg)

			switch tt.expectedType {
			case "ConfigError":
				_, ok := simplified.(errors.ConfigError)
				assert.True(t, ok, "Should be ConfigError type")
			case "UserError":
				_, ok := simplified.(errors.UserError)
				assert.True(t, ok, "Should be UserError type")
			}
		})
	}
}

// TestSimplifyErrorKeepsFriendlyErrors verifies already friendly errors pass through
func TestSimplifyErrorKeepsFriendlyErrors(t *testing.T) {
	t.Parallel()

	storeErr := errors.StoreError("mock", "set", credential.ErrNoEntry)
	assert.Equal(t, storeErr, errors.SimplifyError(storeErr))
	assert.Nil(t, errors.SimplifyError(nil))
}

// TestUserErrorUnwrap verifies error unwrapping works correctly
func TestUserErrorUnwrap(t *testing.T) {
	t.Parallel()

	baseErr := fmt.Errorf("base error")
	userErr := errors.UserError{
		Message: "wrapped error",
		Err:     baseErr,
	}

	assert.Equal(t, baseErr, userErr.Unwrap())
}

// TestStoreErrorWithSecretRedaction verifies a redacted secret stays redacted
func TestStoreErrorWithSecretRedaction(t *testing.T) {
	t.Parallel()

	secretValue := "api-key-super-secret-123"
	baseErr := credential.PlatformFailure(fmt.Errorf("rejected value %s", logging.Secret(secretValue)))

	errMsg := errors.StoreError("native", "set", baseErr).Error()

	assert.Contains(t, errMsg, "[REDACTED]")
	assert.NotContains(t, errMsg, secretValue)
}
