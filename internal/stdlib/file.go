package stdlib

import (
	"os"

	"github.com/fenlang/fen/internal/vm"
)

const fileSource = `
extern func read_to_string(path: string) -> string;
extern func write_string(path: string, contents: string) -> unit;
extern func file_exists(path: string) -> bool;
`

// addFileExterns wraps Go's os package directly: basic path existence and
// whole-file read/write have no protocol or encoding concern beyond what os
// already provides.
func addFileExterns(out map[string]vm.ExternFunc) {
	out["read_to_string"] = func(s *vm.ExternState) (vm.Value, error) {
		path := s.Pop()
		data, err := os.ReadFile(s.String(path))
		if err != nil {
			return vm.Value{}, err
		}
		return s.AllocString(string(data)), nil
	}

	out["write_string"] = func(s *vm.ExternState) (vm.Value, error) {
		contents := s.Pop()
		path := s.Pop()
		if err := os.WriteFile(s.String(path), []byte(s.String(contents)), 0o644); err != nil {
			return vm.Value{}, err
		}
		return vm.UnitValue(), nil
	}

	out["file_exists"] = func(s *vm.ExternState) (vm.Value, error) {
		path := s.Pop()
		_, err := os.Stat(s.String(path))
		return vm.BoolValue(err == nil), nil
	}
}
