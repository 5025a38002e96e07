// Package heap implements the handle-indexed object/array storage from
// spec.md §4.3: append-only, no GC, handle 0 is the permanent null.
// Grounded on the teacher's object package conventions and on
// original_source/src/interpreter/simple_heap.rs, whose Vec-backed,
// never-reclaiming design this mirrors directly (see DESIGN.md).
package heap

import (
	"fmt"
	"sync"

	"minivm/classfile"
	"minivm/value"
)

// Handle identifies an object in the heap; 0 is null.
type Handle uint64

// ObjectKind distinguishes the two Object shapes spec.md §3 names.
type ObjectKind int

const (
	KindInstance ObjectKind = iota
	KindIntArray
	KindLongArray
)

// Object is the heap's storage cell for one allocation. Only the fields
// matching Kind are meaningful.
type Object struct {
	ID    Handle
	Mark  uint32 // a deterministic per-object hash, per spec.md §6's hashCode native
	Kind  ObjectKind
	Class *classfile.Class // nil for arrays

	Fields []value.Value // KindInstance: indexed by field offset

	IntElems  []int32 // KindIntArray
	LongElems []int64 // KindLongArray
}

// Len returns the array length (KindIntArray/KindLongArray only).
func (o *Object) Len() int {
	switch o.Kind {
	case KindIntArray:
		return len(o.IntElems)
	case KindLongArray:
		return len(o.LongElems)
	default:
		return 0
	}
}

// ArrayFaultError: an out-of-bounds index or a non-array receiver.
type ArrayFaultError struct {
	Reason string
}

func (e *ArrayFaultError) Error() string { return "array fault: " + e.Reason }

// Heap is a single append-only, mutex-guarded object table. Handle 0 is
// reserved; real objects start at handle 1. There is no reclamation
// (garbage collection is an explicit non-goal, spec.md §1).
type Heap struct {
	mu      sync.Mutex
	objects []*Object // objects[0] is unused (handle 0 == null)
}

// New returns an empty Heap with the null slot reserved.
func New() *Heap {
	return &Heap{objects: make([]*Object, 1)}
}

// Allocate constructs an Instance with class.InstanceFields default
// values, per spec.md §4.3 allocate_object.
func (h *Heap) Allocate(class *classfile.Class) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	fields := make([]value.Value, len(class.InstanceFields))
	for i := range fields {
		fields[i] = value.Default()
	}
	obj := &Object{
		Kind:   KindInstance,
		Class:  class,
		Fields: fields,
	}
	return h.insertLocked(obj)
}

// AllocateIntArray constructs a zeroed IntArray of length n, per
// spec.md §4.3 allocate_int_array.
func (h *Heap) AllocateIntArray(n int) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	obj := &Object{Kind: KindIntArray, IntElems: make([]int32, n)}
	return h.insertLocked(obj)
}

// AllocateLongArray constructs a zeroed LongArray of length n.
func (h *Heap) AllocateLongArray(n int) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	obj := &Object{Kind: KindLongArray, LongElems: make([]int64, n)}
	return h.insertLocked(obj)
}

func (h *Heap) insertLocked(obj *Object) Handle {
	id := Handle(len(h.objects))
	obj.ID = id
	obj.Mark = uint32(id*2654435761 + 1) // deterministic hash, no addresses in Go
	h.objects = append(h.objects, obj)
	return id
}

// Get returns the object at handle, or an error if handle is null or
// unknown.
func (h *Heap) Get(handle Handle) (*Object, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if handle == 0 {
		return nil, &ArrayFaultError{Reason: "null handle"}
	}
	if int(handle) >= len(h.objects) {
		return nil, &ArrayFaultError{Reason: fmt.Sprintf("invalid handle %d", handle)}
	}
	return h.objects[handle], nil
}

// PutField mutates the instance at handle, offset, with value v.
func (h *Heap) PutField(handle Handle, offset int, v value.Value) error {
	obj, err := h.Get(handle)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if obj.Kind != KindInstance {
		return &ArrayFaultError{Reason: "putfield on a non-instance object"}
	}
	if offset < 0 || offset >= len(obj.Fields) {
		return &ArrayFaultError{Reason: fmt.Sprintf("field offset %d out of range", offset)}
	}
	obj.Fields[offset] = v
	return nil
}

// LoadInt reads element i of the int array at handle.
func (h *Heap) LoadInt(handle Handle, i int32) (int32, error) {
	obj, err := h.Get(handle)
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if obj.Kind != KindIntArray {
		return 0, &ArrayFaultError{Reason: "iaload on a non-int-array object"}
	}
	if i < 0 || int(i) >= len(obj.IntElems) {
		return 0, &ArrayFaultError{Reason: fmt.Sprintf("index %d out of bounds for length %d", i, len(obj.IntElems))}
	}
	return obj.IntElems[i], nil
}

// StoreInt writes element i of the int array at handle.
func (h *Heap) StoreInt(handle Handle, i int32, v int32) error {
	obj, err := h.Get(handle)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if obj.Kind != KindIntArray {
		return &ArrayFaultError{Reason: "iastore on a non-int-array object"}
	}
	if i < 0 || int(i) >= len(obj.IntElems) {
		return &ArrayFaultError{Reason: fmt.Sprintf("index %d out of bounds for length %d", i, len(obj.IntElems))}
	}
	obj.IntElems[i] = v
	return nil
}

// Stats reports object/array counts for diagnostics only; the heap never
// reclaims, so this is purely informational (SPEC_FULL.md §4.3).
type Stats struct {
	Instances int
	IntArrays int
}

func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	var s Stats
	for _, o := range h.objects[1:] {
		switch o.Kind {
		case KindInstance:
			s.Instances++
		case KindIntArray:
			s.IntArrays++
		}
	}
	return s
}
