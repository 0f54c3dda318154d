// Package rtcmem models the small memory region which keeps its content
// across deep sleep and reset, but not across power loss.
// ESP8266 exposes 512 bytes of user RTC memory addressed in 4 byte blocks.
package rtcmem

import (
	"math/rand"
	"sync"

	"github.com/juju/errors"
)

const DefaultSize = 512

type Memory interface {
	Read(offset int, p []byte) error
	Write(offset int, p []byte) error
}

func checkRange(size, offset, n int) error {
	if offset < 0 || n < 0 || offset+n > size {
		return errors.NotValidf("rtcmem access offset=%d len=%d size=%d", offset, n, size)
	}
	return nil
}

// Mem is process-local region, suitable for tests and simulated deep sleep
// inside one process.
type Mem struct {
	mu sync.Mutex
	b  []byte
}

var _ Memory = &Mem{} // compile-time interface test

func NewMem(size int) *Mem {
	if size <= 0 {
		size = DefaultSize
	}
	return &Mem{b: make([]byte, size)}
}

func (m *Mem) Size() int { return len(m.b) }

func (m *Mem) Read(offset int, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(len(m.b), offset, len(p)); err != nil {
		return err
	}
	copy(p, m.b[offset:])
	return nil
}

func (m *Mem) Write(offset int, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(len(m.b), offset, len(p)); err != nil {
		return err
	}
	copy(m.b[offset:], p)
	return nil
}

// PowerLoss fills region with garbage, like SRAM after power up.
func (m *Mem) PowerLoss(r *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r == nil {
		r = rand.New(rand.NewSource(rand.Int63()))
	}
	_, _ = r.Read(m.b)
}
