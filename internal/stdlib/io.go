package stdlib

import (
	"fmt"
	"os"

	"github.com/fenlang/fen/internal/vm"
)

const ioSource = `
extern func println(v: string) -> unit;
extern func print(v: string) -> unit;
extern func eprintln(v: string) -> unit;
`

func addIOExterns(out map[string]vm.ExternFunc) {
	out["println"] = func(s *vm.ExternState) (vm.Value, error) {
		v := s.Pop()
		fmt.Println(s.String(v))
		return vm.UnitValue(), nil
	}
	out["print"] = func(s *vm.ExternState) (vm.Value, error) {
		v := s.Pop()
		fmt.Print(s.String(v))
		return vm.UnitValue(), nil
	}
	out["eprintln"] = func(s *vm.ExternState) (vm.Value, error) {
		v := s.Pop()
		fmt.Fprintln(os.Stderr, s.String(v))
		return vm.UnitValue(), nil
	}
}
