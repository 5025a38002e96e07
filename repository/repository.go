package repository

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"minivm/classfile"
	"minivm/trace"
)

type cell struct {
	status Status
	class  *classfile.Class // nil while Mentioned
}

// Repository holds classes keyed by name, implementing the
// Mentioned -> Loaded -> Live automaton from spec.md §3/§4.2.
//
// Per spec.md §5, exactly one goroutine is meant to mutate a Repository
// directly; Server/Client front it with a request/reply channel for
// concurrent readers. The methods here are still guarded by a mutex so
// that tests (and a bootstrap phase that may run before the Server
// goroutine is started) can call them directly without races.
type Repository struct {
	mu      sync.RWMutex
	classes map[string]*cell
	// mentionedBy records, for diagnostics, which class first mentioned a
	// given not-yet-loaded name.
	mentionedBy map[string]string
}

// New returns an empty Repository.
func New() *Repository {
	return &Repository{
		classes:     make(map[string]*cell),
		mentionedBy: make(map[string]string),
	}
}

// AddClass installs c as Loaded if its name is absent or currently
// Mentioned; does nothing if the name is already Loaded or Live. After
// installing, every class name c's constant pool references via a Class
// entry is recorded as Mentioned if not already known (spec.md §4.2).
func (r *Repository) AddClass(c *classfile.Class) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, present := r.classes[c.Name]
	if present && existing.status != Mentioned {
		return // already Loaded or Live: do nothing
	}
	r.classes[c.Name] = &cell{status: Loaded, class: c}
	trace.Trace(fmt.Sprintf("repository: %s -> Loaded", c.Name))

	for _, name := range mentionedClassNames(c) {
		if name == c.Name {
			continue
		}
		if _, known := r.classes[name]; !known {
			r.classes[name] = &cell{status: Mentioned}
			r.mentionedBy[name] = c.Name
		}
	}
}

// mentionedClassNames enumerates every CPClass entry's resolved name in c's
// constant pool.
func mentionedClassNames(c *classfile.Class) []string {
	var names []string
	for i := 1; i < c.CP.Count(); i++ {
		name, err := c.CP.ClassName(uint16(i))
		if err == nil && name != "" {
			names = append(names, name)
		}
	}
	return names
}

// LookupClass returns the class if its status is Loaded or Live; fails
// with KlassNotLoadedError if Mentioned and KlassNotFoundError if absent.
func (r *Repository) LookupClass(name string) (*classfile.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, present := r.classes[name]
	if !present {
		return nil, &KlassNotFoundError{Name: name}
	}
	switch c.status {
	case Mentioned:
		return nil, &KlassNotLoadedError{Name: name}
	default:
		return c.class, nil
	}
}

// StatusOf reports the current status of a class name, and whether
// anything is known about it at all.
func (r *Repository) StatusOf(name string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, present := r.classes[name]
	if !present {
		return Mentioned, false
	}
	return c.status, true
}

// MarkLive transitions a Loaded class to Live after its <clinit> has run
// successfully. It is a no-op (not an error) if already Live, and a
// programmer error (panic) if the class was never Loaded.
func (r *Repository) MarkLive(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, present := r.classes[name]
	if !present || c.class == nil {
		panic(fmt.Sprintf("MarkLive called on unloaded class %q", name))
	}
	c.status = Live
	trace.Trace(fmt.Sprintf("repository: %s -> Live", name))
}

// Names returns every class name the repository knows about, sorted, for
// diagnostics and tests.
func (r *Repository) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ClassNameFromFQField extracts the class-name portion of a fully
// qualified "pkg/Class.member:descriptor" string, mirroring
// spec.md §4.2's field/method resolution helper.
func ClassNameFromFQField(fq string) (class, member string) {
	idx := strings.LastIndex(fq, ".")
	if idx < 0 {
		return "", fq
	}
	return fq[:idx], fq[idx+1:]
}
