package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/keyring/pkg/credential"
)

// Process exit codes used by the CLI.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitConfig          = 2
	ExitNoEntry         = 3
	ExitAmbiguous       = 4
	ExitBadEncoding     = 5
	ExitInvalid         = 6
	ExitNoStorageAccess = 7
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// StoreError enhances credential store errors with context
func StoreError(store, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s store error during %s", store, operation),
		Details:    err.Error(),
		Suggestion: getStoreSuggestion(store, err),
		Err:        err,
	}
}

// getStoreSuggestion returns helpful suggestions based on store and error kind
func getStoreSuggestion(store string, err error) string {
	errStr := err.Error()

	switch credential.KindOf(err) {
	case credential.KindNoEntry:
		return "Nothing is stored for this identity. Check --service, --user and --target, or store a value with 'keyring set'"
	case credential.KindAmbiguous:
		return "Several records match this identity. Remove the duplicates with the store's own tools; keyring will not pick one"
	case credential.KindBadEncoding:
		return "The stored value is not UTF-8 text. Read it with 'keyring get --binary'"
	case credential.KindInvalid:
		return "Shorten the offending value or choose a different store with --store"
	case credential.KindNoStorageAccess:
		switch store {
		case "native":
			return "Unlock your keychain, or start a Secret Service provider (gnome-keyring, KWallet) on Linux"
		case "keyutils":
			return "Check that the kernel supports keyrings and that you may use the session keyring ('keyctl show')"
		case "awssm":
			if strings.Contains(errStr, "credentials") {
				return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
			}
			return "Check IAM permissions for secretsmanager:GetSecretValue, PutSecretValue, CreateSecret and DeleteSecret"
		case "sql":
			return "Check the database user, password and grants on the credentials table"
		}
		return "The store refused access. Check that it is unlocked and that you have permission to use it"
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and store configuration"
	}

	return ""
}

// ExitCode maps an error to the CLI exit status
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfig
	}

	switch credential.KindOf(err) {
	case credential.KindNoEntry:
		return ExitNoEntry
	case credential.KindAmbiguous:
		return ExitAmbiguous
	case credential.KindBadEncoding:
		return ExitBadEncoding
	case credential.KindInvalid:
		return ExitInvalid
	case credential.KindNoStorageAccess:
		return ExitNoStorageAccess
	default:
		return ExitFailure
	}
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	// Simplify common technical errors
	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "illegal base64") {
		return UserError{
			Message:    "Invalid base64 input",
			Suggestion: "Pass raw secrets to --secret as standard base64, e.g. $(printf 'value' | base64)",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}
