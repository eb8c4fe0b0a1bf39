//go:build linux

package fakes

import (
	"sync"

	"golang.org/x/sys/unix"

	"github.com/systmms/keyring/pkg/keystore/keyutils"
)

// FakeKeyctl is an in-memory test double for keyutils.Keyctl. It models a
// set of keyrings holding user keys addressed by description.
type FakeKeyctl struct {
	mu sync.Mutex

	nextID int
	// rings maps keyring id -> description -> key id
	rings map[int]map[string]int
	// payloads maps key id -> payload
	payloads map[int][]byte

	// Errors maps method name ("Add", "Search", "Read", "Invalidate") to the
	// errno that method returns
	Errors map[string]error
}

// NewFakeKeyctl creates an empty fake
func NewFakeKeyctl() *FakeKeyctl {
	return &FakeKeyctl{
		nextID:   1000,
		rings:    make(map[int]map[string]int),
		payloads: make(map[int][]byte),
		Errors:   make(map[string]error),
	}
}

// SetError makes method fail with err; nil clears it
func (f *FakeKeyctl) SetError(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Errors, method)
		return
	}
	f.Errors[method] = err
}

// Keys returns the number of live keys linked into ring
func (f *FakeKeyctl) Keys(ring int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rings[ring])
}

// Add creates or updates a key
func (f *FakeKeyctl) Add(ring int, description string, payload []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errors["Add"]; err != nil {
		return 0, err
	}
	if len(payload) == 0 || len(payload) > keyutils.MaxPayloadLen {
		return 0, unix.EINVAL
	}

	if f.rings[ring] == nil {
		f.rings[ring] = make(map[string]int)
	}
	id, ok := f.rings[ring][description]
	if !ok {
		f.nextID++
		id = f.nextID
		f.rings[ring][description] = id
	}
	f.payloads[id] = append([]byte(nil), payload...)
	return id, nil
}

// Search finds a key by description
func (f *FakeKeyctl) Search(ring int, description string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errors["Search"]; err != nil {
		return 0, err
	}
	id, ok := f.rings[ring][description]
	if !ok {
		return 0, unix.ENOKEY
	}
	return id, nil
}

// Read returns a copy of the key payload
func (f *FakeKeyctl) Read(id int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errors["Read"]; err != nil {
		return nil, err
	}
	payload, ok := f.payloads[id]
	if !ok {
		return nil, unix.ENOKEY
	}
	return append([]byte(nil), payload...), nil
}

// Invalidate removes the key from every keyring
func (f *FakeKeyctl) Invalidate(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.Errors["Invalidate"]; err != nil {
		return err
	}
	if _, ok := f.payloads[id]; !ok {
		return unix.ENOKEY
	}
	delete(f.payloads, id)
	for _, ring := range f.rings {
		for description, keyID := range ring {
			if keyID == id {
				delete(ring, description)
			}
		}
	}
	return nil
}

// Ensure FakeKeyctl implements keyutils.Keyctl
var _ keyutils.Keyctl = (*FakeKeyctl)(nil)
