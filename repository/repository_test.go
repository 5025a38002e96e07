package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minivm/archive"
	"minivm/classfile"
)

func cpWithClassRef(className string) *classfile.ConstantPool {
	return classfile.NewConstantPool([]classfile.CPEntry{
		{}, // slot 0 reserved
		{Tag: classfile.CPUtf8, Utf8: className},
		{Tag: classfile.CPClass, Utf8Idx: 1},
	})
}

func TestAddClassThenLookup(t *testing.T) {
	repo := New()
	cp := cpWithClassRef("Foo")
	c := classfile.NewClass("Foo", "java/lang/Object", cp, nil, nil, nil)

	repo.AddClass(c)

	got, err := repo.LookupClass("Foo")
	require.NoError(t, err)
	assert.Equal(t, "Foo", got.Name)
	assert.Equal(t, "java/lang/Object", got.SuperName)
}

func TestLookupMissingClassIsNotFound(t *testing.T) {
	repo := New()
	_, err := repo.LookupClass("Nope")
	require.Error(t, err)
	var nfe *KlassNotFoundError
	require.ErrorAs(t, err, &nfe)
}

func TestAddClassMentionsReferencedClasses(t *testing.T) {
	repo := New()
	cp := classfile.NewConstantPool([]classfile.CPEntry{
		{},
		{Tag: classfile.CPUtf8, Utf8: "Foo"},
		{Tag: classfile.CPClass, Utf8Idx: 1},
		{Tag: classfile.CPUtf8, Utf8: "Bar"},
		{Tag: classfile.CPClass, Utf8Idx: 3},
	})
	c := classfile.NewClass("Foo", "java/lang/Object", cp, nil, nil, nil)
	repo.AddClass(c)

	status, present := repo.StatusOf("Bar")
	require.True(t, present)
	assert.Equal(t, Mentioned, status)

	_, err := repo.LookupClass("Bar")
	var nle *KlassNotLoadedError
	require.ErrorAs(t, err, &nle)
}

func TestAddClassIsIdempotentOnceLoaded(t *testing.T) {
	repo := New()
	cp := cpWithClassRef("Foo")
	original := classfile.NewClass("Foo", "java/lang/Object", cp, nil, nil, nil)
	repo.AddClass(original)

	replacement := classfile.NewClass("Foo", "SomethingElse", cp, nil, nil, nil)
	repo.AddClass(replacement)

	got, err := repo.LookupClass("Foo")
	require.NoError(t, err)
	assert.Equal(t, "java/lang/Object", got.SuperName, "AddClass must not replace an already-Loaded class")
}

func TestMentionedClassCanLaterBeAdded(t *testing.T) {
	repo := New()
	mentioner := classfile.NewClass("Foo", "java/lang/Object",
		classfile.NewConstantPool([]classfile.CPEntry{
			{}, {Tag: classfile.CPUtf8, Utf8: "Bar"}, {Tag: classfile.CPClass, Utf8Idx: 1},
		}), nil, nil, nil)
	repo.AddClass(mentioner)

	status, _ := repo.StatusOf("Bar")
	assert.Equal(t, Mentioned, status)

	bar := classfile.NewClass("Bar", "java/lang/Object", cpWithClassRef("Bar"), nil, nil, nil)
	repo.AddClass(bar)

	got, err := repo.LookupClass("Bar")
	require.NoError(t, err)
	assert.Equal(t, "Bar", got.Name)
}

// TestBootstrapOrdering is scenario 9 from spec.md §8: after bootstrap,
// every class in the bootstrap sequence is Live; classes only mentioned
// by them remain Mentioned or Loaded.
func TestBootstrapOrdering(t *testing.T) {
	repo := New()

	clinit := &classfile.Method{OwningClassName: "Foo", Name: "<clinit>", Descriptor: "()V"}
	cp := classfile.NewConstantPool([]classfile.CPEntry{
		{}, {Tag: classfile.CPUtf8, Utf8: "Mentioned"}, {Tag: classfile.CPClass, Utf8Idx: 1},
	})
	foo := classfile.NewClass("Foo", "java/lang/Object", cp, []*classfile.Method{clinit}, nil, nil)
	repo.AddClass(foo)

	var ran []string
	err := repo.Bootstrap(emptySource{}, []string{"Foo"}, func(owner *classfile.Class, m *classfile.Method) error {
		ran = append(ran, owner.Name+"."+m.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo.<clinit>"}, ran)

	status, _ := repo.StatusOf("Foo")
	assert.Equal(t, Live, status)

	status, present := repo.StatusOf("Mentioned")
	require.True(t, present)
	assert.NotEqual(t, Live, status)
}

type emptySource struct{}

func (emptySource) Entries() ([]archive.Entry, error) { return nil, nil }
