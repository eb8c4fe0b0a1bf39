package fakes

import (
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/systmms/keyring/pkg/keystore/native"
)

// FakeKeyringClient is a test double for native.Client
type FakeKeyringClient struct {
	mu sync.Mutex

	// Secrets is a map of service -> account -> value
	Secrets map[string]map[string]string

	// Err is returned by every call if set (overrides Secrets lookup)
	Err error

	// Calls counts calls by method name
	Calls map[string]int
}

// NewFakeKeyringClient creates a new, empty fake keyring client
func NewFakeKeyringClient() *FakeKeyringClient {
	return &FakeKeyringClient{
		Secrets: make(map[string]map[string]string),
		Calls:   make(map[string]int),
	}
}

// SetErr makes every subsequent call fail with err; nil restores normal behavior
func (f *FakeKeyringClient) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// Lookup returns the raw stored value for service/account
func (f *FakeKeyringClient) Lookup(service, account string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Secrets[service][account]
	return v, ok
}

// Get retrieves a secret from the fake keyring
func (f *FakeKeyringClient) Get(service, account string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["Get"]++

	if f.Err != nil {
		return "", f.Err
	}
	if v, ok := f.Secrets[service][account]; ok {
		return v, nil
	}
	return "", keyring.ErrNotFound
}

// Set stores a secret in the fake keyring
func (f *FakeKeyringClient) Set(service, account, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["Set"]++

	if f.Err != nil {
		return f.Err
	}
	if f.Secrets[service] == nil {
		f.Secrets[service] = make(map[string]string)
	}
	f.Secrets[service][account] = secret
	return nil
}

// Delete removes a secret from the fake keyring
func (f *FakeKeyringClient) Delete(service, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["Delete"]++

	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.Secrets[service][account]; !ok {
		return keyring.ErrNotFound
	}
	delete(f.Secrets[service], account)
	return nil
}

// Ensure FakeKeyringClient implements native.Client
var _ native.Client = (*FakeKeyringClient)(nil)
