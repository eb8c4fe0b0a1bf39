// Package secure keeps secret values encrypted while they sit in memory.
//
// It wraps memguard enclaves: sealed values are encrypted with
// XSalsa20Poly1305 under a key held in guarded, mlocked pages, and are only
// decrypted for the duration of a Bytes call. The in-memory mock store uses
// it so that values written through the keyring API never rest in ordinary
// heap memory.
//
// If mlock is unavailable memguard falls back to ordinary allocations; the
// values are still encrypted at rest.
//
// It does NOT protect against attackers with access to the running process,
// hardware-level attacks, or side channels.
package secure
