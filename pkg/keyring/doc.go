// Package keyring stores and retrieves passwords and other secrets in a
// platform credential store through one store-independent API.
//
// # Entries
//
// An Entry names a secret by service and user, optionally qualified by a
// target for stores that need to tell apart secrets sharing both:
//
//	entry, err := keyring.NewEntry("my-app", "alice")
//	if err != nil {
//	    return err
//	}
//	if err := entry.SetPassword("hunter2"); err != nil {
//	    return err
//	}
//	password, err := entry.GetPassword()
//	if errors.Is(err, credential.ErrNoEntry) {
//	    // nothing stored
//	}
//
// Passwords are UTF-8 strings; secrets are arbitrary bytes. Reading a value
// that is not valid UTF-8 with GetPassword returns a
// *credential.BadEncodingError holding the raw bytes; GetSecret returns them
// directly.
//
// # Credential stores
//
// Each entry wraps a credential built by a credential.Builder. NewEntry and
// NewEntryWithTarget use the process default builder, which is either the
// builder passed to SetDefaultCredentialBuilder or, if none was set, the
// platform store chosen at build time:
//
//	go build                          # in-memory mock store
//	go build -tags keyring_native     # macOS Keychain, Windows Credential
//	                                  # Manager, or Secret Service
//	go build -tags keyring_keyutils   # Linux kernel keyutils
//
// Selecting both native stores for Linux fails to compile.
//
// Applications that bring their own store call SetDefaultCredentialBuilder
// once at startup, or build credentials themselves and wrap them with
// NewEntryWithCredential. Code that prefers to avoid the process-wide default
// can construct its own Registry.
//
// # Store-specific models
//
// Stores usually know more about a secret than service and user. Callers
// that know which store is in use can reach the concrete credential:
//
//	if c, ok := keyring.CredentialAs[*native.Credential](entry); ok {
//	    fmt.Println(c.Service(), c.Account())
//	}
//
// # Concurrency
//
// The API is safe for concurrent use. Stores do not necessarily serialize
// concurrent access to the same secret, and RPC-based stores such as Secret
// Service can fail under rapid repeated access; callers that need ordering
// must provide it.
package keyring
