//go:build !linux

package commands

import (
	"github.com/systmms/keyring/internal/config"
	kerrors "github.com/systmms/keyring/internal/errors"
	"github.com/systmms/keyring/pkg/credential"
)

const keyutilsAvailable = false

func keyutilsBuilder(*config.Definition) (credential.Builder, error) {
	return nil, kerrors.ConfigError{
		Field:      "store",
		Value:      storeKeyutils,
		Message:    "the kernel keyring is only available on Linux",
		Suggestion: "Use --store native on this platform",
	}
}
