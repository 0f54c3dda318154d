// Package collection is the bounded buffer of measurements waiting for publish.
// Insertion order is send order.
package collection

import (
	"fmt"

	"github.com/juju/errors"
)

const Capacity = 50

type Measurement struct {
	Name  string
	Value float32
}

func (m Measurement) String() string { return fmt.Sprintf("%s=%g", m.Name, m.Value) }

// Collection is not safe for concurrent use.
type Collection struct {
	items []Measurement
	cap   int
}

func New() *Collection { return NewCap(Capacity) }

func NewCap(capacity int) *Collection {
	if capacity <= 0 {
		panic(fmt.Sprintf("code error collection capacity=%d", capacity))
	}
	return &Collection{items: make([]Measurement, 0, capacity), cap: capacity}
}

// Add appends measurement. Full collection rejects new values,
// already stored ones are kept.
func (c *Collection) Add(name string, value float32) error {
	if name == "" {
		return errors.NotValidf("measurement name=empty")
	}
	if len(c.items) >= c.cap {
		return errors.NotValidf("collection full capacity=%d, rejected name=%s", c.cap, name)
	}
	c.items = append(c.items, Measurement{Name: name, Value: value})
	return nil
}

func (c *Collection) Len() int   { return len(c.items) }
func (c *Collection) Cap() int   { return c.cap }
func (c *Collection) Full() bool { return len(c.items) >= c.cap }
func (c *Collection) Reset()     { c.items = c.items[:0] }

// Items returns copy in insertion order.
func (c *Collection) Items() []Measurement {
	out := make([]Measurement, len(c.items))
	copy(out, c.items)
	return out
}
