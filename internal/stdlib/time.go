package stdlib

import (
	"time"

	"github.com/fenlang/fen/internal/vm"
)

const timeSource = `
extern func now_unix() -> int64;
extern func sleep_ms(ms: int64) -> unit;
`

// addTimeExterns wraps Go's standard time package directly: a Unix-seconds
// clock read and a millisecond sleep have no protocol or formatting concern
// a third-party library would improve on.
func addTimeExterns(out map[string]vm.ExternFunc) {
	out["now_unix"] = func(s *vm.ExternState) (vm.Value, error) {
		return vm.IntValue(time.Now().Unix()), nil
	}

	out["sleep_ms"] = func(s *vm.ExternState) (vm.Value, error) {
		ms := s.Pop()
		time.Sleep(time.Duration(ms.I) * time.Millisecond)
		return vm.UnitValue(), nil
	}
}
