package repository

import (
	"fmt"
	"strings"

	"minivm/archive"
	"minivm/classfile"
	"minivm/trace"
)

// RunMethod executes a class's method (a Java initializer or a registered
// native) and is supplied by the interpreter package at wiring time, to
// avoid an import cycle between repository and interp.
type RunMethod func(owner *classfile.Class, m *classfile.Method) error

// Bootstrap implements spec.md §4.2 bootstrap(interp): every ".class"
// entry from src is parsed and added to the repository; then <clinit> is
// run on each class in clinitOrder, in order, transitioning each to Live
// on success. Classes only mentioned by the bootstrap set remain
// Mentioned or Loaded, per spec.md §8 scenario 9.
func (r *Repository) Bootstrap(src archive.Source, clinitOrder []string, run RunMethod) error {
	entries, err := src.Entries()
	if err != nil {
		return fmt.Errorf("bootstrap: reading archive: %w", err)
	}

	for _, e := range entries {
		if !strings.HasSuffix(e.Name, ".class") {
			continue
		}
		class, err := classfile.Read(e.Name, e.Data)
		if err != nil {
			return fmt.Errorf("bootstrap: parsing %s: %w", e.Name, err)
		}
		r.AddClass(class)
		trace.Trace("bootstrap: loaded " + class.Name)
	}

	for _, name := range clinitOrder {
		c, err := r.LookupClass(name)
		if err != nil {
			return fmt.Errorf("bootstrap: %s: %w", name, err)
		}
		if m, ok := c.LookupMethod("<clinit>:()V"); ok {
			if err := run(c, m); err != nil {
				return fmt.Errorf("bootstrap: running <clinit> for %s: %w", name, err)
			}
		}
		r.MarkLive(name)
		trace.Trace("bootstrap: " + name + " -> Live")
	}
	return nil
}
