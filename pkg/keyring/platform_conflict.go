//go:build linux && keyring_native && keyring_keyutils

package keyring

// Only one native store may back the platform default. This declaration
// does not compile, so the build stops here with the message below.
var _ int = "keyring: build tags keyring_native and keyring_keyutils are mutually exclusive on linux"
