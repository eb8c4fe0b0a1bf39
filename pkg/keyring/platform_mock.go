//go:build !keyring_native && !(linux && keyring_keyutils)

package keyring

import (
	"github.com/systmms/keyring/pkg/credential"
	"github.com/systmms/keyring/pkg/keystore/mock"
)

const platformStoreName = "mock"

func platformBuilder() credential.Builder {
	return mock.NewBuilder()
}
