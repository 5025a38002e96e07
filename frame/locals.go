package frame

import "minivm/value"

// Locals is the fixed-length, default-initialized local variable table
// addressed by a byte-sized slot index (spec.md §3).
type Locals struct {
	slots []value.Value
}

// NewLocals allocates n default-initialized slots.
func NewLocals(n int) *Locals {
	l := &Locals{slots: make([]value.Value, n)}
	for i := range l.slots {
		l.slots[i] = value.Default()
	}
	return l
}

func (l *Locals) Get(i int) value.Value  { return l.slots[i] }
func (l *Locals) Set(i int, v value.Value) { l.slots[i] = v }
func (l *Locals) Len() int               { return len(l.slots) }
