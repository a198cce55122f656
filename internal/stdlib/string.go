package stdlib

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"

	"github.com/fenlang/fen/internal/vm"
)

const stringSource = `
extern func to_upper(s: string) -> string;
extern func to_lower(s: string) -> string;
extern func str_len(s: string) -> uint64;
extern func str_width(s: string) -> uint64;
extern func str_concat(a: string, b: string) -> string;
`

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

func addStringExterns(out map[string]vm.ExternFunc) {
	out["to_upper"] = func(s *vm.ExternState) (vm.Value, error) {
		v := s.Pop()
		return s.AllocString(upperCaser.String(s.String(v))), nil
	}

	out["to_lower"] = func(s *vm.ExternState) (vm.Value, error) {
		v := s.Pop()
		return s.AllocString(lowerCaser.String(s.String(v))), nil
	}

	out["str_len"] = func(s *vm.ExternState) (vm.Value, error) {
		v := s.Pop()
		return vm.UIntValue(uint64(len([]rune(s.String(v))))), nil
	}

	// str_width sums each rune's terminal display width: East Asian
	// Wide/Fullwidth runes count as 2 columns, everything else as 1.
	out["str_width"] = func(s *vm.ExternState) (vm.Value, error) {
		v := s.Pop()
		var total uint64
		for _, r := range s.String(v) {
			switch width.LookupRune(r).Kind() {
			case width.EastAsianWide, width.EastAsianFullwidth:
				total += 2
			default:
				total++
			}
		}
		return vm.UIntValue(total), nil
	}

	out["str_concat"] = func(s *vm.ExternState) (vm.Value, error) {
		b := s.Pop()
		a := s.Pop()
		return s.AllocString(s.String(a) + s.String(b)), nil
	}
}
