// Package natives implements the host native-method registry of
// spec.md §4.6/§6: a table of Go functions keyed by fully-qualified
// class.method:descriptor, invoked in place of bytecode when a method's
// native slot is populated.
//
// Grounded on the teacher's gfunction package (MethodSignatures map,
// GMeth{ParamSlots, GFunction} shape in javaLangThread.go and
// javaIoInputStreamReader.go), adapted to the colon-separated
// name:descriptor key classfile.FQKey already uses elsewhere in this
// module instead of the teacher's bare concatenation.
package natives

import (
	"sync"
	"time"

	"minivm/frame"
	"minivm/value"
)

// Func is a registered native implementation. It reads its arguments
// from locals (populated by the interpreter exactly as a bytecode
// method's would be) and returns a value plus whether that value should
// be pushed (false for a void method).
type Func func(locals *frame.Locals) (value.Value, bool, error)

// Registry maps "owner.name:descriptor" to its native implementation.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register installs fn for owner.nameAndDesc ("name:descriptor").
func (r *Registry) Register(owner, nameAndDesc string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[owner+"."+nameAndDesc] = fn
}

// Lookup returns the native implementation for owner.nameAndDesc, if any.
func (r *Registry) Lookup(owner, nameAndDesc string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[owner+"."+nameAndDesc]
	return fn, ok
}

func noop(*frame.Locals) (value.Value, bool, error) { return value.Value{}, false, nil }

func returning(v value.Value) Func {
	return func(*frame.Locals) (value.Value, bool, error) { return v, true, nil }
}

func unaryMath(f func(float64) float64) Func {
	return func(l *frame.Locals) (value.Value, bool, error) {
		return value.Float64(f(l.Get(0).AsDouble())), true, nil
	}
}

func binaryMath(f func(float64, float64) float64) Func {
	return func(l *frame.Locals) (value.Value, bool, error) {
		return value.Float64(f(l.Get(0).AsDouble(), l.Get(1).AsDouble())), true, nil
	}
}

// objectHashCode hands out a deterministic, distinct value per call; used for
// java/lang/Object.hashCode, which this core defines as "some
// deterministic Int" rather than an address-derived one (spec.md §6).
var hashCounter int32
var hashMu sync.Mutex

func objectHashCode(*frame.Locals) (value.Value, bool, error) {
	hashMu.Lock()
	defer hashMu.Unlock()
	hashCounter++
	return value.Int32(hashCounter), true, nil
}

// RegisterDefaults wires every native registration spec.md §6 requires.
func RegisterDefaults(r *Registry) {
	r.Register("java/lang/Object", "hashCode:()I", objectHashCode)
	r.Register("java/lang/Object", "registerNatives:()V", noop)
	r.Register("java/lang/Object", "notify:()V", noop)
	r.Register("java/lang/Object", "notifyAll:()V", noop)
	r.Register("java/lang/Object", "wait:(J)V", noop)

	r.Register("java/lang/System", "currentTimeMillis:()J", func(*frame.Locals) (value.Value, bool, error) {
		return value.Int64(time.Now().UnixMilli()), true, nil
	})

	r.Register("java/lang/Math", "sin:(D)D", unaryMath(mathSin))
	r.Register("java/lang/Math", "cos:(D)D", unaryMath(mathCos))
	r.Register("java/lang/Math", "tan:(D)D", unaryMath(mathTan))
	r.Register("java/lang/Math", "asin:(D)D", unaryMath(mathAsin))
	r.Register("java/lang/Math", "acos:(D)D", unaryMath(mathAcos))
	r.Register("java/lang/Math", "atan:(D)D", unaryMath(mathAtan))
	r.Register("java/lang/Math", "exp:(D)D", unaryMath(mathExp))
	r.Register("java/lang/Math", "log:(D)D", unaryMath(mathLog))
	r.Register("java/lang/Math", "sqrt:(D)D", unaryMath(mathSqrt))
	r.Register("java/lang/Math", "ceil:(D)D", unaryMath(mathCeil))
	r.Register("java/lang/Math", "floor:(D)D", unaryMath(mathFloor))
	r.Register("java/lang/Math", "atan2:(DD)D", binaryMath(mathAtan2))
	r.Register("java/lang/Math", "pow:(DD)D", binaryMath(mathPow))

	r.Register("java/io/FileDescriptor", "initSystemFD:(Ljava/io/FileDescriptor;I)Ljava/io/FileDescriptor;",
		func(l *frame.Locals) (value.Value, bool, error) { return l.Get(0), true, nil })
}
