package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minivm/archive"
	"minivm/classfile"
	"minivm/heap"
	"minivm/interp"
	"minivm/natives"
	"minivm/repository"
)

func newRunFixture(t *testing.T) (*repository.Repository, *interp.Interpreter) {
	t.Helper()
	repo := repository.New()
	server := repository.NewServer(repo)
	t.Cleanup(server.Stop)
	client := repository.NewClient(server)
	return repo, interp.New(client, heap.New(), natives.New())
}

func TestRunMainReturnsExitCode(t *testing.T) {
	repo, vm := newRunFixture(t)

	m := &classfile.Method{
		OwningClassName: "Launcher", Name: "main2", Descriptor: "([Ljava/lang/String;)I",
		Bytecode: []byte{0x10, 42, 0xac}, // bipush 42, ireturn
		MaxStack: 2, MaxLocals: 1,
	}
	class := classfile.NewClass("Launcher", "java/lang/Object", classfile.NewConstantPool(nil), []*classfile.Method{m}, nil, nil)
	repo.AddClass(class)

	code, err := runMain(repo, vm, "Launcher")
	require.NoError(t, err)
	assert.Equal(t, 42, code)
}

func TestRunMainMissingEntryPoint(t *testing.T) {
	repo, vm := newRunFixture(t)

	class := classfile.NewClass("NoMain", "java/lang/Object", classfile.NewConstantPool(nil), nil, nil, nil)
	repo.AddClass(class)

	_, err := runMain(repo, vm, "NoMain")
	assert.Error(t, err)
}

func TestLocalSlotsFallsBackWhenUnset(t *testing.T) {
	assert.Equal(t, 4, localSlots(&classfile.Method{}))
	assert.Equal(t, 7, localSlots(&classfile.Method{MaxLocals: 7}))
}

func TestOpenClasspathPicksZipForJarAndZip(t *testing.T) {
	_, okJar := openClasspath("lib/app.jar").(archive.ZipSource)
	_, okZip := openClasspath("lib/app.zip").(archive.ZipSource)
	_, okDir := openClasspath("classes/").(archive.DirSource)
	assert.True(t, okJar)
	assert.True(t, okZip)
	assert.True(t, okDir)
}
