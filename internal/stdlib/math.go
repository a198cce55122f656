package stdlib

import (
	"math"

	"github.com/fenlang/fen/internal/vm"
)

const mathSource = `
extern func sqrt(v: float64) -> float64;
extern func abs(v: float64) -> float64;
extern func pow(base: float64, exp: float64) -> float64;
extern func floor(v: float64) -> float64;
extern func ceil(v: float64) -> float64;
`

// addMathExterns wraps Go's standard math package directly: these are plain
// float64-in, float64-out functions with no parsing, formatting, or protocol
// concern that a third-party library would meaningfully improve on.
func addMathExterns(out map[string]vm.ExternFunc) {
	out["sqrt"] = unaryFloat(math.Sqrt)
	out["abs"] = unaryFloat(math.Abs)
	out["floor"] = unaryFloat(math.Floor)
	out["ceil"] = unaryFloat(math.Ceil)
	out["pow"] = func(s *vm.ExternState) (vm.Value, error) {
		exp := s.Pop()
		base := s.Pop()
		return vm.FloatValue(math.Pow(base.F, exp.F)), nil
	}
}

func unaryFloat(f func(float64) float64) vm.ExternFunc {
	return func(s *vm.ExternState) (vm.Value, error) {
		v := s.Pop()
		return vm.FloatValue(f(v.F)), nil
	}
}
