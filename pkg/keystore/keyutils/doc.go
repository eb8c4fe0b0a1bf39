// Package keyutils stores credentials in the Linux kernel key retention
// service.
//
// Each credential is a key of type "user" linked into the session keyring
// (or the keyring chosen with WithKeyring). Its description is
// "keyring:user@service", or the target verbatim when the identity has one,
// so other tools such as keyctl(1) can find it.
//
// Keys live in kernel memory only. They survive the login session at best
// and are gone after a reboot.
//
// The package is empty on platforms other than Linux.
package keyutils
