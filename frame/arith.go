package frame

import (
	"math"

	"minivm/value"
)

// Two-operand arithmetic pops v2 then v1 and computes v1 op v2, per
// spec.md §4.4.

func (s *Stack) IAdd() { v2, v1 := s.PopInt(), s.PopInt(); s.Push(value.Int32(v1 + v2)) }
func (s *Stack) ISub()  { v2, v1 := s.PopInt(), s.PopInt(); s.Push(value.Int32(v1 - v2)) }
func (s *Stack) IMul()  { v2, v1 := s.PopInt(), s.PopInt(); s.Push(value.Int32(v1 * v2)) }

// IDiv/IRem raise ArithmeticError on divide-by-zero (spec.md §7).
func (s *Stack) IDiv() error {
	v2, v1 := s.PopInt(), s.PopInt()
	if v2 == 0 {
		return &ArithmeticError{Op: "idiv"}
	}
	s.Push(value.Int32(v1 / v2))
	return nil
}

func (s *Stack) IRem() error {
	v2, v1 := s.PopInt(), s.PopInt()
	if v2 == 0 {
		return &ArithmeticError{Op: "irem"}
	}
	s.Push(value.Int32(v1 % v2))
	return nil
}

func (s *Stack) INeg() { s.Push(value.Int32(-s.PopInt())) }

func (s *Stack) IAnd() { v2, v1 := s.PopInt(), s.PopInt(); s.Push(value.Int32(v1 & v2)) }
func (s *Stack) IOr()  { v2, v1 := s.PopInt(), s.PopInt(); s.Push(value.Int32(v1 | v2)) }
func (s *Stack) IXor() { v2, v1 := s.PopInt(), s.PopInt(); s.Push(value.Int32(v1 ^ v2)) }

// Shifts use only the low 5 bits of the shift amount for int (spec.md §4.4).
func (s *Stack) IShl()  { n, v := s.PopInt(), s.PopInt(); s.Push(value.Int32(v << (uint32(n) & 0x1f))) }
func (s *Stack) IShr()  { n, v := s.PopInt(), s.PopInt(); s.Push(value.Int32(v >> (uint32(n) & 0x1f))) }
func (s *Stack) IUshr() {
	n, v := s.PopInt(), s.PopInt()
	s.Push(value.Int32(int32(uint32(v) >> (uint32(n) & 0x1f))))
}

func (s *Stack) LAdd() { v2, v1 := s.PopLong(), s.PopLong(); s.Push(value.Int64(v1 + v2)) }
func (s *Stack) LSub() { v2, v1 := s.PopLong(), s.PopLong(); s.Push(value.Int64(v1 - v2)) }
func (s *Stack) LMul() { v2, v1 := s.PopLong(), s.PopLong(); s.Push(value.Int64(v1 * v2)) }

func (s *Stack) LDiv() error {
	v2, v1 := s.PopLong(), s.PopLong()
	if v2 == 0 {
		return &ArithmeticError{Op: "ldiv"}
	}
	s.Push(value.Int64(v1 / v2))
	return nil
}

func (s *Stack) LRem() error {
	v2, v1 := s.PopLong(), s.PopLong()
	if v2 == 0 {
		return &ArithmeticError{Op: "lrem"}
	}
	s.Push(value.Int64(v1 % v2))
	return nil
}

func (s *Stack) LNeg() { s.Push(value.Int64(-s.PopLong())) }

func (s *Stack) LAnd() { v2, v1 := s.PopLong(), s.PopLong(); s.Push(value.Int64(v1 & v2)) }
func (s *Stack) LOr()  { v2, v1 := s.PopLong(), s.PopLong(); s.Push(value.Int64(v1 | v2)) }
func (s *Stack) LXor() { v2, v1 := s.PopLong(), s.PopLong(); s.Push(value.Int64(v1 ^ v2)) }

// long shift amounts use the low 6 bits, per spec.md §4.4; the shift
// amount itself is always popped as an Int.
func (s *Stack) LShl()  { n, v := s.PopInt(), s.PopLong(); s.Push(value.Int64(v << (uint32(n) & 0x3f))) }
func (s *Stack) LShr()  { n, v := s.PopInt(), s.PopLong(); s.Push(value.Int64(v >> (uint32(n) & 0x3f))) }
func (s *Stack) LUshr() {
	n, v := s.PopInt(), s.PopLong()
	s.Push(value.Int64(int64(uint64(v) >> (uint32(n) & 0x3f))))
}

func (s *Stack) FAdd() { v2, v1 := s.PopFloat(), s.PopFloat(); s.Push(value.Float32(v1 + v2)) }
func (s *Stack) FSub() { v2, v1 := s.PopFloat(), s.PopFloat(); s.Push(value.Float32(v1 - v2)) }
func (s *Stack) FMul() { v2, v1 := s.PopFloat(), s.PopFloat(); s.Push(value.Float32(v1 * v2)) }
func (s *Stack) FDiv() { v2, v1 := s.PopFloat(), s.PopFloat(); s.Push(value.Float32(v1 / v2)) }
func (s *Stack) FRem() {
	v2, v1 := s.PopFloat(), s.PopFloat()
	s.Push(value.Float32(float32(math.Mod(float64(v1), float64(v2)))))
}
func (s *Stack) FNeg() { s.Push(value.Float32(-s.PopFloat())) }

func (s *Stack) DAdd() { v2, v1 := s.PopDouble(), s.PopDouble(); s.Push(value.Float64(v1 + v2)) }
func (s *Stack) DSub() { v2, v1 := s.PopDouble(), s.PopDouble(); s.Push(value.Float64(v1 - v2)) }
func (s *Stack) DMul() { v2, v1 := s.PopDouble(), s.PopDouble(); s.Push(value.Float64(v1 * v2)) }
func (s *Stack) DDiv() { v2, v1 := s.PopDouble(), s.PopDouble(); s.Push(value.Float64(v1 / v2)) }
func (s *Stack) DRem() {
	v2, v1 := s.PopDouble(), s.PopDouble()
	s.Push(value.Float64(math.Mod(v1, v2)))
}
func (s *Stack) DNeg() { s.Push(value.Float64(-s.PopDouble())) }

// Comparisons, per spec.md §4.4.

func (s *Stack) LCmp() {
	v2, v1 := s.PopLong(), s.PopLong()
	s.Push(value.Int32(sign64(v1 - v2)))
}

func sign64(d int64) int32 {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func (s *Stack) FCmpG() { s.fcmp(1) }
func (s *Stack) FCmpL() { s.fcmp(-1) }

func (s *Stack) fcmp(nanResult int32) {
	v2, v1 := s.PopFloat(), s.PopFloat()
	if math.IsNaN(float64(v1)) || math.IsNaN(float64(v2)) {
		s.Push(value.Int32(nanResult))
		return
	}
	s.Push(value.Int32(signFloat64(float64(v1) - float64(v2))))
}

func (s *Stack) DCmpG() { s.dcmp(1) }
func (s *Stack) DCmpL() { s.dcmp(-1) }

func (s *Stack) dcmp(nanResult int32) {
	v2, v1 := s.PopDouble(), s.PopDouble()
	if math.IsNaN(v1) || math.IsNaN(v2) {
		s.Push(value.Int32(nanResult))
		return
	}
	s.Push(value.Int32(signFloat64(v1 - v2)))
}

func signFloat64(d float64) int32 {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

// Conversions, per spec.md §4.4. C-style truncation toward zero is used
// throughout (saturating conversions are explicitly not required).

func (s *Stack) I2B() { s.Push(value.Int32(int32(int8(s.PopInt())))) }
func (s *Stack) I2C() { s.Push(value.Int32(int32(uint16(s.PopInt())))) }
func (s *Stack) I2S() { s.Push(value.Int32(int32(int16(s.PopInt())))) }
func (s *Stack) I2L() { s.Push(value.Int64(int64(s.PopInt()))) }
func (s *Stack) I2F() { s.Push(value.Float32(float32(s.PopInt()))) }
func (s *Stack) I2D() { s.Push(value.Float64(float64(s.PopInt()))) }

func (s *Stack) L2I() { s.Push(value.Int32(int32(s.PopLong()))) }
func (s *Stack) L2F() { s.Push(value.Float32(float32(s.PopLong()))) }
func (s *Stack) L2D() { s.Push(value.Float64(float64(s.PopLong()))) }

func (s *Stack) F2I() { s.Push(value.Int32(truncToInt32(float64(s.PopFloat())))) }
func (s *Stack) F2L() { s.Push(value.Int64(truncToInt64(float64(s.PopFloat())))) }
func (s *Stack) F2D() { s.Push(value.Float64(float64(s.PopFloat()))) }

func (s *Stack) D2I() { s.Push(value.Int32(truncToInt32(s.PopDouble()))) }
func (s *Stack) D2L() { s.Push(value.Int64(truncToInt64(s.PopDouble()))) }
func (s *Stack) D2F() { s.Push(value.Float32(float32(s.PopDouble()))) }

func truncToInt32(f float64) int32 {
	if math.IsNaN(f) {
		return 0
	}
	return int32(f)
}

func truncToInt64(f float64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	return int64(f)
}

// ArithmeticError: integer division/remainder by zero (spec.md §7).
type ArithmeticError struct{ Op string }

func (e *ArithmeticError) Error() string { return "arithmetic error: division by zero in " + e.Op }
