//go:build linux

package commands

import (
	"github.com/systmms/keyring/internal/config"
	"github.com/systmms/keyring/pkg/credential"
	"github.com/systmms/keyring/pkg/keystore/keyutils"
)

const keyutilsAvailable = true

var keyrings = map[string]int{
	"session": keyutils.SessionKeyring,
	"user":    keyutils.UserKeyring,
	"process": keyutils.ProcessKeyring,
}

func keyutilsBuilder(def *config.Definition) (credential.Builder, error) {
	var opts []keyutils.Option
	if def != nil && def.Keyutils != nil && def.Keyutils.Keyring != "" {
		// the schema limits the names to those in keyrings
		opts = append(opts, keyutils.WithKeyring(keyrings[def.Keyutils.Keyring]))
	}
	return keyutils.NewBuilder(opts...), nil
}
