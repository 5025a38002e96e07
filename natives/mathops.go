package natives

import "math"

// Thin named wrappers around the host math library, grounded on
// original_source/runtime/src/native_methods.rs's delegation of
// java/lang/Math natives directly to Rust's f64 intrinsics.
func mathSin(x float64) float64   { return math.Sin(x) }
func mathCos(x float64) float64   { return math.Cos(x) }
func mathTan(x float64) float64   { return math.Tan(x) }
func mathAsin(x float64) float64  { return math.Asin(x) }
func mathAcos(x float64) float64  { return math.Acos(x) }
func mathAtan(x float64) float64  { return math.Atan(x) }
func mathExp(x float64) float64   { return math.Exp(x) }
func mathLog(x float64) float64   { return math.Log(x) }
func mathSqrt(x float64) float64  { return math.Sqrt(x) }
func mathCeil(x float64) float64  { return math.Ceil(x) }
func mathFloor(x float64) float64 { return math.Floor(x) }

func mathAtan2(y, x float64) float64 { return math.Atan2(y, x) }
func mathPow(base, exp float64) float64 { return math.Pow(base, exp) }
