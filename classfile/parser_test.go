package classfile

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// classFileBuilder assembles class-file bytes by hand, the way a fixture
// for this parser has to be built since there is no guest-platform
// compiler in this core.
type classFileBuilder struct {
	buf []byte
}

func (b *classFileBuilder) u8(v byte)     { b.buf = append(b.buf, v) }
func (b *classFileBuilder) u16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}
func (b *classFileBuilder) u32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}
func (b *classFileBuilder) utf8(s string) {
	b.u8(byte(CPUtf8))
	b.u16(uint16(len(s)))
	b.buf = append(b.buf, s...)
}
func (b *classFileBuilder) class(utf8Idx uint16) {
	b.u8(byte(CPClass))
	b.u16(utf8Idx)
}

// minimalClass builds a class file with the given CP slot count (including
// the reserved slot 0), a this-class pointing at `thisName`, a super-class
// pointing at `superName`, and the given bytecode for a
// single method "run:()I" (or no methods if code is nil).
func minimalClass(t *testing.T, cpCount int, thisName, superName string, code []byte) []byte {
	t.Helper()
	b := &classFileBuilder{}
	b.u32(magic)
	b.u16(0)       // minor
	b.u16(52)      // major
	b.u16(uint16(cpCount))

	// slot 1: Utf8 thisName
	b.utf8(thisName)
	// slot 2: Class -> 1
	b.class(1)
	// slot 3: Utf8 superName
	b.utf8(superName)
	// slot 4: Class -> 3
	b.class(3)

	used := 4
	var codeNameIdx, runNameIdx, runDescIdx uint16
	if code != nil {
		used++
		b.utf8("Code")
		codeNameIdx = uint16(used)
		used++
		b.utf8("run")
		runNameIdx = uint16(used)
		used++
		b.utf8("()I")
		runDescIdx = uint16(used)
	}

	// pad remaining slots with filler Utf8 entries.
	for used+1 < cpCount {
		used++
		b.utf8("x")
	}
	require.Equal(t, cpCount-1, used, "constructed wrong number of CP slots")

	b.u16(0) // access flags
	b.u16(2) // this_class -> slot 2 (Class Foo)
	b.u16(4) // super_class -> slot 4 (Class java/lang/Object)
	b.u16(0) // interfaces count
	b.u16(0) // fields count

	if code != nil {
		b.u16(1) // methods count
		b.u16(0) // method access flags
		b.u16(runNameIdx)
		b.u16(runDescIdx)
		b.u16(1) // attribute count
		b.u16(codeNameIdx)
		codeAttrBody := &classFileBuilder{}
		codeAttrBody.u16(8) // max stack
		codeAttrBody.u16(1) // max locals
		codeAttrBody.u32(uint32(len(code)))
		codeAttrBody.buf = append(codeAttrBody.buf, code...)
		codeAttrBody.u16(0) // exception table count
		codeAttrBody.u16(0) // code attribute's own attribute count
		b.u32(uint32(len(codeAttrBody.buf)))
		b.buf = append(b.buf, codeAttrBody.buf...)
	} else {
		b.u16(0) // methods count
	}

	return b.buf
}

func TestParseMinimalClass(t *testing.T) {
	// Scenario 7 from spec.md §8: magic CAFEBABE, 16 CP entries, this->"Foo",
	// super->"java/lang/Object".
	data := minimalClass(t, 16, "Foo", "java/lang/Object", nil)

	class, err := Read("Foo.class", data)
	require.NoError(t, err)
	assert.Equal(t, "Foo", class.Name)
	assert.Equal(t, "java/lang/Object", class.SuperName)
	assert.Equal(t, 16, class.CP.Count())
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := minimalClass(t, 16, "Foo", "java/lang/Object", nil)
	data[0] = 0x00 // corrupt magic

	_, err := Read("Foo.class", data)
	require.Error(t, err)
	var mce *MalformedClassFileError
	require.ErrorAs(t, err, &mce)
}

func TestParseRejectsUnknownConstantPoolTag(t *testing.T) {
	data := minimalClass(t, 16, "Foo", "java/lang/Object", nil)
	// flip the tag byte of CP slot 1 (Utf8, right after the 10-byte header)
	// to an unused tag value.
	data[10] = 99

	_, err := Read("Foo.class", data)
	require.Error(t, err)
}

func TestParseRejectsUnknownMethodAttribute(t *testing.T) {
	b := &classFileBuilder{}
	b.u32(magic)
	b.u16(0)
	b.u16(52)
	b.u16(7) // cp count: slots 1..6
	b.utf8("Foo")                // 1
	b.class(1)                   // 2
	b.utf8("java/lang/Object")   // 3
	b.class(3)                   // 4
	b.utf8("run")                // 5
	b.utf8("()V")                // 6
	b.u16(0)                     // access flags
	b.u16(2)                     // this
	b.u16(4)                     // super
	b.u16(0)                     // interfaces
	b.u16(0)                     // fields
	b.u16(1)                     // methods count
	b.u16(0)
	b.u16(5) // name idx "run"
	b.u16(6) // desc idx "()V"
	b.u16(1) // attribute count
	b.u16(5) // attribute name idx -- reuse "run" utf8 as a bogus attribute name
	b.u32(0) // zero-length bogus attribute

	_, err := Read("Bad.class", b.buf)
	require.Error(t, err)
}

func TestArgCount(t *testing.T) {
	cases := map[string]int{
		"()V":                  0,
		"(I)V":                 1,
		"(IJ)V":                2,
		"(Ljava/lang/String;)V": 1,
		"([I)V":                 1,
		"([Ljava/lang/String;I)I": 2,
		"(ZBSIJFDC)V":             8,
	}
	for desc, want := range cases {
		assert.Equal(t, want, DescriptorArgCount(desc), desc)
	}
}
