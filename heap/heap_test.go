package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minivm/classfile"
	"minivm/value"
)

func TestIntArrayDefaultsThenRoundTrips(t *testing.T) {
	h := New()
	handle := h.AllocateIntArray(5)

	for i := int32(0); i < 5; i++ {
		v, err := h.LoadInt(handle, i)
		require.NoError(t, err)
		assert.Equal(t, int32(0), v)
	}

	require.NoError(t, h.StoreInt(handle, 2, 42))
	v, err := h.LoadInt(handle, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)
}

func TestIntArrayOutOfBoundsIsFault(t *testing.T) {
	h := New()
	handle := h.AllocateIntArray(2)
	_, err := h.LoadInt(handle, 5)
	require.Error(t, err)
	var afe *ArrayFaultError
	require.ErrorAs(t, err, &afe)
}

func TestNullHandleIsFault(t *testing.T) {
	h := New()
	_, err := h.Get(0)
	require.Error(t, err)
}

func TestAllocateInstanceHasDefaultFields(t *testing.T) {
	h := New()
	field := &classfile.Field{Name: "x", Descriptor: "I"}
	class := classfile.NewClass("Foo", "java/lang/Object", classfile.NewConstantPool(nil),
		nil, []*classfile.Field{field}, nil)

	handle := h.Allocate(class)
	obj, err := h.Get(handle)
	require.NoError(t, err)
	require.Len(t, obj.Fields, 1)
	assert.Equal(t, value.Default(), obj.Fields[0])

	require.NoError(t, h.PutField(handle, 0, value.Int32(7)))
	obj, _ = h.Get(handle)
	assert.Equal(t, int32(7), obj.Fields[0].AsInt())
}
