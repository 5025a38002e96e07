package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minivm/classfile"
	"minivm/frame"
	"minivm/heap"
	"minivm/natives"
	"minivm/repository"
	"minivm/value"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *repository.Repository) {
	t.Helper()
	repo := repository.New()
	server := repository.NewServer(repo)
	t.Cleanup(server.Stop)
	client := repository.NewClient(server)
	return New(client, heap.New(), natives.New()), repo
}

func runMethod(t *testing.T, vm *Interpreter, class *classfile.Class, key string) (int32, bool) {
	t.Helper()
	m, ok := class.LookupMethod(key)
	require.True(t, ok, "method %s not found", key)
	v, has, err := vm.Run(class, m, frame.NewLocals(255))
	require.NoError(t, err)
	if !has {
		return 0, false
	}
	return v.AsInt(), true
}

func methodOnlyClass(name string, code []byte) *classfile.Class {
	m := &classfile.Method{OwningClassName: name, Name: "run", Descriptor: "()I", Bytecode: code, MaxStack: 8, MaxLocals: 4}
	return classfile.NewClass(name, "java/lang/Object", classfile.NewConstantPool(nil), []*classfile.Method{m}, nil, nil)
}

func TestAddition(t *testing.T) {
	vm, _ := newTestInterpreter(t)
	class := methodOnlyClass("Addition", []byte{opIconst1, opIconst1, opIadd, opIreturn})
	v, has := runMethod(t, vm, class, "run:()I")
	require.True(t, has)
	assert.Equal(t, int32(2), v)
}

func TestRemainder(t *testing.T) {
	vm, _ := newTestInterpreter(t)
	class := methodOnlyClass("Remainder", []byte{opIconst5, opIconst3, opIrem, opIreturn})
	v, has := runMethod(t, vm, class, "run:()I")
	require.True(t, has)
	assert.Equal(t, int32(2), v)
}

func TestDivision(t *testing.T) {
	vm, _ := newTestInterpreter(t)
	class := methodOnlyClass("Division", []byte{opIconst5, opIconst3, opIdiv, opIreturn})
	v, has := runMethod(t, vm, class, "run:()I")
	require.True(t, has)
	assert.Equal(t, int32(1), v)
}

func TestDupX1Chain(t *testing.T) {
	vm, _ := newTestInterpreter(t)
	code := []byte{opIconst1, opIconst2, opDupX1, opIadd, opDupX1, opIadd, opIadd, opIreturn}
	class := methodOnlyClass("DupChain", code)
	v, has := runMethod(t, vm, class, "run:()I")
	require.True(t, has)
	assert.Equal(t, int32(8), v)
}

func TestIfnullTaken(t *testing.T) {
	vm, _ := newTestInterpreter(t)
	code := []byte{opIconst1, opAconstNull, opIfnull, 0, 4, opPop, opIconst2, opIreturn}
	class := methodOnlyClass("IfnullTaken", code)
	v, has := runMethod(t, vm, class, "run:()I")
	require.True(t, has)
	assert.Equal(t, int32(1), v)
}

func TestGotoPastTrapByte(t *testing.T) {
	vm, _ := newTestInterpreter(t)
	code := []byte{opIconst1, opIconst1, opIadd, opGoto, 0, 3, 0xff, opIreturn}
	class := methodOnlyClass("GotoTrap", code)
	v, has := runMethod(t, vm, class, "run:()I")
	require.True(t, has)
	assert.Equal(t, int32(2), v)
}

func TestIntegerDivideByZeroIsFatal(t *testing.T) {
	vm, _ := newTestInterpreter(t)
	class := methodOnlyClass("DivZero", []byte{opIconst1, opIconst0, opIdiv, opIreturn})
	m, _ := class.LookupMethod("run:()I")
	_, _, err := vm.Run(class, m, frame.NewLocals(255))
	require.Error(t, err)
	var ve *VMError
	require.ErrorAs(t, err, &ve)
}

func TestLcmpAndFcmpNaNSemantics(t *testing.T) {
	s := frame.NewStack(4)
	s.Push(value.Int64(3))
	s.Push(value.Int64(1))
	s.LCmp()
	assert.Equal(t, int32(1), s.PopInt())

	s.Push(value.Int64(1))
	s.Push(value.Int64(3))
	s.LCmp()
	assert.Equal(t, int32(-1), s.PopInt())

	nan := value.Float32(float32(math.NaN()))
	s.Push(value.Float32(1))
	s.Push(nan)
	s.FCmpG()
	assert.Equal(t, int32(1), s.PopInt())

	s.Push(value.Float32(1))
	s.Push(nan)
	s.FCmpL()
	assert.Equal(t, int32(-1), s.PopInt())
}

// Builds a two-method class (bar returns 7, foo invokes bar and adds 2)
// and checks invocation round trip end to end (spec.md §8 scenario 8).
func TestInvocationRoundTrip(t *testing.T) {
	vm, repo := newTestInterpreter(t)

	cp := classfile.NewConstantPool([]classfile.CPEntry{
		{},
		{Tag: classfile.CPUtf8, Utf8: "SampleInvoke"},
		{Tag: classfile.CPClass, Utf8Idx: 1},
		{Tag: classfile.CPUtf8, Utf8: "bar"},
		{Tag: classfile.CPUtf8, Utf8: "()I"},
		{Tag: classfile.CPNameAndType, NameIdx: 3, DescIdx: 4},
		{Tag: classfile.CPMethodRef, ClassIdx: 2, NameAndTypeIdx: 5},
	})

	bar := &classfile.Method{
		OwningClassName: "SampleInvoke", Name: "bar", Descriptor: "()I",
		Bytecode: []byte{opBipush, 7, opIreturn}, MaxStack: 2,
	}
	foo := &classfile.Method{
		OwningClassName: "SampleInvoke", Name: "foo", Descriptor: "()I",
		Bytecode: []byte{opInvokestat, 0, 6, opIconst2, opIadd, opIreturn}, MaxStack: 2,
	}
	class := classfile.NewClass("SampleInvoke", "java/lang/Object", cp, []*classfile.Method{bar, foo}, nil, nil)
	repo.AddClass(class)

	barV, has := runMethod(t, vm, class, "bar:()I")
	require.True(t, has)
	assert.Equal(t, int32(7), barV)

	fooV, has := runMethod(t, vm, class, "foo:()I")
	require.True(t, has)
	assert.Equal(t, int32(9), fooV)
}
