//go:build keyring_native && !(linux && keyring_keyutils)

package keyring

import (
	"github.com/systmms/keyring/pkg/credential"
	"github.com/systmms/keyring/pkg/keystore/native"
)

const platformStoreName = "native"

func platformBuilder() credential.Builder {
	return native.NewBuilder()
}
