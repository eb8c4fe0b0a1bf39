package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned by Bytes after Destroy.
var ErrDestroyed = errors.New("sealed value has been destroyed")

// Sealed holds one secret value encrypted in a memguard enclave.
//
// Zero-length values are tracked without an enclave since memguard refuses
// to seal empty buffers.
type Sealed struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	size      int
	destroyed bool
}

// Seal copies data into a new enclave. The caller's slice is left untouched;
// memguard wipes only the internal copy.
func Seal(data []byte) *Sealed {
	if len(data) == 0 {
		return &Sealed{}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Sealed{enclave: memguard.NewEnclave(buf), size: len(data)}
}

// Bytes decrypts the value and returns a copy in ordinary memory. The
// decrypted locked buffer is destroyed before returning.
func (s *Sealed) Bytes() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrDestroyed
	}
	if s.size == 0 {
		return []byte{}, nil
	}

	locked, err := s.enclave.Open()
	if err != nil {
		return nil, err
	}
	defer locked.Destroy()

	out := make([]byte, locked.Size())
	copy(out, locked.Bytes())
	return out, nil
}

// Len returns the length of the sealed value, or 0 once destroyed.
func (s *Sealed) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return 0
	}
	return s.size
}

// Destroy drops the enclave. It is idempotent.
//
// The encrypted bytes are left to the garbage collector; call
// memguard.Purge at exit to wipe everything memguard holds.
func (s *Sealed) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.destroyed = true
}
