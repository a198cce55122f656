package stdlib

import "github.com/fenlang/fen/internal/vm"

const listSource = `
extern func id<T>(v: T) -> T;
extern func list_len<T>(xs: [T]) -> uint64;
extern func list_push<T>(xs: [T], v: T) -> unit;
`

func addListExterns(out map[string]vm.ExternFunc) {
	out["id"] = func(s *vm.ExternState) (vm.Value, error) {
		return s.Pop(), nil
	}

	out["list_len"] = func(s *vm.ExternState) (vm.Value, error) {
		xs := s.Pop()
		obj := s.Heap.Get(xs.Ref)
		return vm.UIntValue(uint64(len(obj.List))), nil
	}

	out["list_push"] = func(s *vm.ExternState) (vm.Value, error) {
		v := s.Pop()
		xs := s.Pop()
		obj := s.Heap.Get(xs.Ref)
		if v.Kind == vm.KindRef {
			s.Heap.IncRef(v.Ref)
		}
		obj.List = append(obj.List, v)
		return vm.UnitValue(), nil
	}
}
