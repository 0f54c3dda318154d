package helpers

import (
	"sync"
	"time"
)

// Limited exponential backoff for retry delays.
// First delay is always Min.
// Failure() multiplies next delay by K, Reset() returns it to Min.
type Backoff struct {
	mu   sync.Mutex
	next time.Duration

	Min time.Duration
	Max time.Duration
	K   float32
	Res time.Duration // delay resolution for nice logs, default=1ms
}

// Use scenario:
// for {
//   ok := op()
//   sleep(backoff.Next(ok))
// }
func (b *Backoff) Next(success bool) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if success || b.next == 0 {
		b.next = b.Min
	} else {
		b.next = time.Duration(float32(b.next) * b.K)
	}
	b.next = b.limit(b.next)
	return b.next
}

func (b *Backoff) Reset() {
	b.mu.Lock()
	b.next = 0
	b.mu.Unlock()
}

func (b *Backoff) limit(d time.Duration) time.Duration {
	if d < b.Min {
		d = b.Min
	}
	if b.Max != 0 && d > b.Max {
		d = b.Max
	}
	return b.round(d)
}

func (b *Backoff) round(d time.Duration) time.Duration {
	res := b.Res
	if res == 0 {
		res = 1 * time.Millisecond
	}
	return d / res * res
}
