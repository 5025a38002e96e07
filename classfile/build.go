package classfile

// NewClass assembles a Class from already-parsed parts and finalizes its
// method/field indices. It exists alongside Read so that other packages'
// tests (repository, interp) can build fixture classes without hand
// assembling class-file bytes every time; Read remains the only path
// production code uses to obtain a Class from disk/archive bytes.
func NewClass(name, super string, cp *ConstantPool, methods []*Method, instanceFields, staticFields []*Field) *Class {
	c := &Class{
		Name:           name,
		SuperName:      super,
		CP:             cp,
		Methods:        methods,
		InstanceFields: instanceFields,
		StaticFields:   staticFields,
	}
	c.finalize()
	return c
}

// NewConstantPool builds a ConstantPool directly from entries (entries[0]
// is the reserved slot and is ignored).
func NewConstantPool(entries []CPEntry) *ConstantPool {
	return &ConstantPool{entries: entries}
}
