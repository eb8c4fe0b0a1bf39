//go:build linux && keyring_keyutils

package keyring

import (
	"github.com/systmms/keyring/pkg/credential"
	"github.com/systmms/keyring/pkg/keystore/keyutils"
)

const platformStoreName = "keyutils"

func platformBuilder() credential.Builder {
	return keyutils.NewBuilder()
}
