package classfile

import "fmt"

// CPTag identifies the variant of a ConstantPool entry, per spec.md §3/§4.1.
type CPTag byte

const (
	CPUtf8               CPTag = 1
	CPInteger            CPTag = 3
	CPFloat              CPTag = 4
	CPLong               CPTag = 5
	CPDouble             CPTag = 6
	CPClass              CPTag = 7
	CPString             CPTag = 8
	CPFieldRef           CPTag = 9
	CPMethodRef          CPTag = 10
	CPInterfaceMethodRef CPTag = 11
	CPNameAndType        CPTag = 12

	// cpUnused marks the second slot consumed by a Long/Double entry, and
	// slot 0 (reserved, 1-based indexing).
	cpUnused CPTag = 0
)

// CPEntry is a tagged sum of the constant-pool variants. Only the field(s)
// matching Tag are meaningful.
type CPEntry struct {
	Tag CPTag

	Utf8    string
	Int32   int32
	Float32 float32
	Int64   int64
	Float64 float64

	// Class, String: index of a Utf8 entry.
	Utf8Idx uint16

	// FieldRef, MethodRef, InterfaceMethodRef.
	ClassIdx       uint16
	NameAndTypeIdx uint16

	// NameAndType.
	NameIdx uint16
	DescIdx uint16
}

// ConstantPool is the per-class, 1-indexed constant-pool table. Index 0 is
// reserved; Long/Double entries occupy two consecutive slots, the second
// unused.
type ConstantPool struct {
	entries []CPEntry // entries[0] is the reserved slot
}

func newConstantPool(count int) *ConstantPool {
	return &ConstantPool{entries: make([]CPEntry, count)}
}

func (cp *ConstantPool) set(idx int, e CPEntry) {
	cp.entries[idx] = e
}

func (cp *ConstantPool) Count() int { return len(cp.entries) }

func (cp *ConstantPool) entry(idx uint16) (CPEntry, error) {
	if int(idx) < 1 || int(idx) >= len(cp.entries) {
		return CPEntry{}, fmt.Errorf("constant pool index %d out of range [1,%d)", idx, len(cp.entries))
	}
	return cp.entries[idx], nil
}

// Utf8 dereferences a Utf8 entry by index.
func (cp *ConstantPool) Utf8(idx uint16) (string, error) {
	e, err := cp.entry(idx)
	if err != nil {
		return "", err
	}
	if e.Tag != CPUtf8 {
		return "", fmt.Errorf("constant pool index %d is not Utf8 (tag %d)", idx, e.Tag)
	}
	return e.Utf8, nil
}

// ClassName dereferences a Class entry through to its Utf8 name.
func (cp *ConstantPool) ClassName(idx uint16) (string, error) {
	e, err := cp.entry(idx)
	if err != nil {
		return "", err
	}
	if e.Tag != CPClass {
		return "", fmt.Errorf("constant pool index %d is not Class (tag %d)", idx, e.Tag)
	}
	return cp.Utf8(e.Utf8Idx)
}

// NameAndType dereferences a NameAndType entry into (name, descriptor).
func (cp *ConstantPool) NameAndType(idx uint16) (name, desc string, err error) {
	e, err := cp.entry(idx)
	if err != nil {
		return "", "", err
	}
	if e.Tag != CPNameAndType {
		return "", "", fmt.Errorf("constant pool index %d is not NameAndType (tag %d)", idx, e.Tag)
	}
	name, err = cp.Utf8(e.NameIdx)
	if err != nil {
		return "", "", err
	}
	desc, err = cp.Utf8(e.DescIdx)
	if err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// FieldRefTarget resolves a FieldRef (or plain field-ref-shaped) entry to
// (owner class name, member name, descriptor).
func (cp *ConstantPool) FieldRefTarget(idx uint16) (owner, name, desc string, err error) {
	return cp.memberRefTarget(idx, CPFieldRef)
}

// MethodRefTarget resolves a MethodRef entry to (owner, name, descriptor).
func (cp *ConstantPool) MethodRefTarget(idx uint16) (owner, name, desc string, err error) {
	return cp.memberRefTarget(idx, CPMethodRef)
}

func (cp *ConstantPool) memberRefTarget(idx uint16, want CPTag) (owner, name, desc string, err error) {
	e, err := cp.entry(idx)
	if err != nil {
		return "", "", "", err
	}
	if e.Tag != want {
		return "", "", "", fmt.Errorf("constant pool index %d is not tag %d (got %d)", idx, want, e.Tag)
	}
	owner, err = cp.ClassName(e.ClassIdx)
	if err != nil {
		return "", "", "", err
	}
	name, desc, err = cp.NameAndType(e.NameAndTypeIdx)
	if err != nil {
		return "", "", "", err
	}
	return owner, name, desc, nil
}

// TagAt reports the tag of the entry at idx, for callers (ldc/ldc2_w)
// that must branch on entry kind before dereferencing.
func (cp *ConstantPool) TagAt(idx uint16) (CPTag, error) {
	e, err := cp.entry(idx)
	if err != nil {
		return 0, err
	}
	return e.Tag, nil
}

// IntegerAt, FloatAt, LongAt, DoubleAt dereference a numeric-literal
// entry, for ldc/ldc2_w (spec.md §4.5).
func (cp *ConstantPool) IntegerAt(idx uint16) (int32, error) {
	e, err := cp.entry(idx)
	if err != nil {
		return 0, err
	}
	if e.Tag != CPInteger {
		return 0, fmt.Errorf("constant pool index %d is not Integer (tag %d)", idx, e.Tag)
	}
	return e.Int32, nil
}

func (cp *ConstantPool) FloatAt(idx uint16) (float32, error) {
	e, err := cp.entry(idx)
	if err != nil {
		return 0, err
	}
	if e.Tag != CPFloat {
		return 0, fmt.Errorf("constant pool index %d is not Float (tag %d)", idx, e.Tag)
	}
	return e.Float32, nil
}

func (cp *ConstantPool) LongAt(idx uint16) (int64, error) {
	e, err := cp.entry(idx)
	if err != nil {
		return 0, err
	}
	if e.Tag != CPLong {
		return 0, fmt.Errorf("constant pool index %d is not Long (tag %d)", idx, e.Tag)
	}
	return e.Int64, nil
}

func (cp *ConstantPool) DoubleAt(idx uint16) (float64, error) {
	e, err := cp.entry(idx)
	if err != nil {
		return 0, err
	}
	if e.Tag != CPDouble {
		return 0, fmt.Errorf("constant pool index %d is not Double (tag %d)", idx, e.Tag)
	}
	return e.Float64, nil
}

// ArgCount parses a method descriptor at the MethodRef target of idx,
// counting one argument per primitive letter, one per reference type, and
// one per array (with its nested element type consumed), per spec.md §4.2.
func (cp *ConstantPool) ArgCount(idx uint16) (int, error) {
	_, _, desc, err := cp.MethodRefTarget(idx)
	if err != nil {
		return 0, err
	}
	return DescriptorArgCount(desc), nil
}

// DescriptorArgCount counts the arguments in a method descriptor string
// "(...)...".
func DescriptorArgCount(desc string) int {
	n := 0
	i := 0
	if i < len(desc) && desc[i] == '(' {
		i++
	}
	for i < len(desc) && desc[i] != ')' {
		switch desc[i] {
		case 'Z', 'B', 'S', 'I', 'J', 'F', 'D', 'C':
			n++
			i++
		case 'L':
			i++
			for i < len(desc) && desc[i] != ';' {
				i++
			}
			i++ // consume ';'
			n++
		case '[':
			// consume all leading array dimension markers, then the element type
			for i < len(desc) && desc[i] == '[' {
				i++
			}
			if i < len(desc) && desc[i] == 'L' {
				i++
				for i < len(desc) && desc[i] != ';' {
					i++
				}
				i++
			} else {
				i++ // primitive element type
			}
			n++
		default:
			i++
		}
	}
	return n
}
