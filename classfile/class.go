package classfile

import "minivm/value"

// Access flag bits, as read from the class file (spec.md §3 Class /
// SPEC_FULL.md §4.1 supplement: the raw flag word is preserved alongside
// the individual booleans jacobin's ParsedClass exposes).
const (
	AccPublic     uint16 = 0x0001
	AccFinal      uint16 = 0x0010
	AccSuper      uint16 = 0x0020
	AccInterface  uint16 = 0x0200
	AccAbstract   uint16 = 0x0400
	AccSynthetic  uint16 = 0x1000
	AccAnnotation uint16 = 0x2000
	AccEnum       uint16 = 0x4000
	AccStatic     uint16 = 0x0008
	AccNative     uint16 = 0x0100
)

// Attribute records a field or method attribute the parser accepted.
// Read records only the attribute's name; Data is not populated (the Code
// attribute's contents go into Method's own fields instead).
type Attribute struct {
	Name string
	Data []byte
}

// Field mirrors spec.md §3 Field: owning class, simple name, descriptor,
// flags, a dense per-class offset, and any attributes.
type Field struct {
	OwningClassName string
	Name            string
	Descriptor      string
	Flags           uint16
	Offset          int
	IsStatic        bool
	Attributes      []Attribute
}

// Method mirrors spec.md §3 Method. At most one of Bytecode/Native is
// populated; Native is set true for methods that declared the native
// access flag so the caller knows to consult the native registry instead
// of executing bytecode.
type Method struct {
	OwningClassName string
	Name            string
	Descriptor      string
	Flags           uint16
	Bytecode        []byte
	MaxStack        int
	MaxLocals       int
	Native          bool
	Attributes      []Attribute
}

// FQKey is the fully-qualified method/field key "Owner.name:descriptor"
// used throughout the repository and interpreter.
func FQKey(owner, name, desc string) string {
	return owner + "." + name + ":" + desc
}

// Key is the within-class key "name:descriptor".
func (m *Method) Key() string { return m.Name + ":" + m.Descriptor }
func (f *Field) Key() string  { return f.Name + ":" + f.Descriptor }

// Class mirrors spec.md §3 Class: name, super, flags, constant pool,
// methods, instance/static fields, and static storage.
type Class struct {
	Name       string
	SuperName  string
	Flags      uint16
	MinorVer   uint16
	MajorVer   uint16
	CP         *ConstantPool
	Interfaces []string

	Methods []*Method
	// MethodIndex maps "name:descriptor" to an index into Methods.
	MethodIndex map[string]int

	InstanceFields []*Field
	StaticFields   []*Field
	// FieldIndex maps "name:descriptor" to the owning Field (instance or
	// static — Field.IsStatic tells the caller which).
	FieldIndex map[string]*Field

	// StaticValues parallels StaticFields and stores each static's current
	// value; mutated by <clinit> and by putstatic.
	StaticValues []value.Value
}

// MethodAt returns the method at the given index, satisfying the
// method_at/method_index round-trip invariant from spec.md §8.
func (c *Class) MethodAt(i int) *Method { return c.Methods[i] }

// FieldAt returns the instance field at the given dense offset, satisfying
// the field_at/offset round-trip invariant from spec.md §3.
func (c *Class) FieldAt(offset int) *Field { return c.InstanceFields[offset] }

// LookupMethod returns the method matching name:descriptor declared
// directly on this class (no super-class walk, per spec.md §4.2 exact
// lookup).
func (c *Class) LookupMethod(nameAndDesc string) (*Method, bool) {
	i, ok := c.MethodIndex[nameAndDesc]
	if !ok {
		return nil, false
	}
	return c.Methods[i], true
}

// LookupField returns the field matching name:descriptor declared
// directly on this class.
func (c *Class) LookupField(nameAndDesc string) (*Field, bool) {
	f, ok := c.FieldIndex[nameAndDesc]
	return f, ok
}

func (c *Class) finalize() {
	c.MethodIndex = make(map[string]int, len(c.Methods))
	for i, m := range c.Methods {
		c.MethodIndex[m.Key()] = i
	}
	c.FieldIndex = make(map[string]*Field, len(c.InstanceFields)+len(c.StaticFields))
	for _, f := range c.InstanceFields {
		c.FieldIndex[f.Key()] = f
	}
	for _, f := range c.StaticFields {
		c.FieldIndex[f.Key()] = f
	}
	c.StaticValues = make([]value.Value, len(c.StaticFields))
	for i := range c.StaticValues {
		c.StaticValues[i] = value.Default()
	}
}
