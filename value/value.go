// Package value implements the tagged Value sum that flows through the
// evaluation stack, the local variable table, and heap field storage.
package value

import "fmt"

// Tag identifies which variant of Value is populated.
type Tag byte

const (
	Boolean Tag = 'Z'
	Byte    Tag = 'B'
	Short   Tag = 'S'
	Int     Tag = 'I'
	Long    Tag = 'J'
	Float   Tag = 'F'
	Double  Tag = 'D'
	Char    Tag = 'C'
	ObjRef  Tag = 'A'
)

// Value is a tagged union of the guest platform's primitive kinds plus an
// object handle. Only the field matching Tag is meaningful.
type Value struct {
	Tag Tag
	i   int64   // Boolean, Byte, Short, Int, Long, Char, ObjRef (handle)
	f   float64 // Float, Double
}

// Default is the zero value of the default slot kind, Int(0).
func Default() Value { return Int32(0) }

func Bool(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{Tag: Boolean, i: i}
}

func Int8(v int8) Value   { return Value{Tag: Byte, i: int64(v)} }
func Int16(v int16) Value { return Value{Tag: Short, i: int64(v)} }
func Int32(v int32) Value { return Value{Tag: Int, i: int64(v)} }
func Int64(v int64) Value { return Value{Tag: Long, i: v} }
func Float32(v float32) Value { return Value{Tag: Float, f: float64(v)} }
func Float64(v float64) Value { return Value{Tag: Double, f: v} }
func Uint16Char(v uint16) Value { return Value{Tag: Char, i: int64(v)} }
func Handle(h uint64) Value   { return Value{Tag: ObjRef, i: int64(h)} }
func Null() Value             { return Value{Tag: ObjRef, i: 0} }

func (v Value) IsBool() bool   { return v.Tag == Boolean }
func (v Value) IsByte() bool   { return v.Tag == Byte }
func (v Value) IsShort() bool  { return v.Tag == Short }
func (v Value) IsInt() bool    { return v.Tag == Int }
func (v Value) IsLong() bool   { return v.Tag == Long }
func (v Value) IsFloat() bool  { return v.Tag == Float }
func (v Value) IsDouble() bool { return v.Tag == Double }
func (v Value) IsChar() bool   { return v.Tag == Char }
func (v Value) IsRef() bool    { return v.Tag == ObjRef }

// AsBool, AsInt, etc. extract the payload. They panic with a
// *TypeMismatchError if Tag does not match.
func (v Value) AsBool() bool     { v.mustBe(Boolean); return v.i != 0 }
func (v Value) AsByte() int8     { v.mustBe(Byte); return int8(v.i) }
func (v Value) AsShort() int16   { v.mustBe(Short); return int16(v.i) }
func (v Value) AsInt() int32     { v.mustBe(Int); return int32(v.i) }
func (v Value) AsLong() int64    { v.mustBe(Long); return v.i }
func (v Value) AsFloat() float32 { v.mustBe(Float); return float32(v.f) }
func (v Value) AsDouble() float64 { v.mustBe(Double); return v.f }
func (v Value) AsChar() uint16   { v.mustBe(Char); return uint16(v.i) }
func (v Value) AsHandle() uint64 { v.mustBe(ObjRef); return uint64(v.i) }

func (v Value) IsNull() bool { return v.Tag == ObjRef && v.i == 0 }

func (v Value) mustBe(t Tag) {
	if v.Tag != t {
		panic(&TypeMismatchError{Expected: t, Actual: v.Tag})
	}
}

// TypeMismatchError is raised whenever a stack/local slot holds a variant
// other than the one an operation expects. It is fatal to the invocation
// (spec.md §7, TypeMismatch).
type TypeMismatchError struct {
	Expected, Actual Tag
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %c, got %c", e.Expected, e.Actual)
}

func (v Value) String() string {
	switch v.Tag {
	case Boolean:
		return fmt.Sprintf("Boolean(%v)", v.AsBool())
	case Byte:
		return fmt.Sprintf("Byte(%d)", v.i)
	case Short:
		return fmt.Sprintf("Short(%d)", v.i)
	case Int:
		return fmt.Sprintf("Int(%d)", v.i)
	case Long:
		return fmt.Sprintf("Long(%d)", v.i)
	case Float:
		return fmt.Sprintf("Float(%g)", v.f)
	case Double:
		return fmt.Sprintf("Double(%g)", v.f)
	case Char:
		return fmt.Sprintf("Char(%d)", v.i)
	case ObjRef:
		return fmt.Sprintf("ObjRef(%d)", v.i)
	default:
		return "Value(?)"
	}
}
