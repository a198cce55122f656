package vm

// ObjectKind tags a heap slot's payload, or marks it Free.
type ObjectKind byte

const (
	ObjectFree ObjectKind = iota
	ObjectString
	ObjectList
	ObjectClass
)

// object is one cell of the slab-allocated object map. Free cells thread a
// singly-linked free list through Next; live cells carry a reference count
// and their payload.
type object struct {
	Kind ObjectKind
	RC   uint32
	Next int // Free: index of the next free cell, or -1

	Str       string
	List      []Value
	ClassName string
	Fields    map[string]Value
}

// heap is the VM's slab-allocated, reference-counted object pool. Reference
// counting here tracks only durable storage (variable bindings, list
// elements, class fields) — values resting transiently on the operand stack
// are treated as unowned borrows, which keeps the bookkeeping tractable at
// the cost of the stack itself not being a counted holder (see DESIGN.md).
type heap struct {
	objects []object
	free    int // head of the free list, or -1
}

func newHeap() *heap {
	return &heap{free: -1}
}

func (h *heap) alloc(o object) int {
	if h.free == -1 {
		h.grow()
	}
	idx := h.free
	h.free = h.objects[idx].Next
	o.RC = 0
	h.objects[idx] = o
	return idx
}

func (h *heap) grow() {
	start := len(h.objects)
	grow := start
	if grow == 0 {
		grow = 8
	}
	h.objects = append(h.objects, make([]object, grow)...)
	for i := len(h.objects) - 1; i >= start; i-- {
		h.objects[i] = object{Kind: ObjectFree, Next: h.free}
		h.free = i
	}
}

func (h *heap) AllocString(s string) int {
	return h.alloc(object{Kind: ObjectString, Str: s})
}

func (h *heap) AllocList(size uint64) int {
	elems := make([]Value, size)
	for i := range elems {
		elems[i] = UnitValue()
	}
	return h.alloc(object{Kind: ObjectList, List: elems})
}

func (h *heap) AllocClass(className string, fields []string) int {
	m := make(map[string]Value, len(fields))
	for _, f := range fields {
		m[f] = UnitValue()
	}
	return h.alloc(object{Kind: ObjectClass, ClassName: className, Fields: m})
}

func (h *heap) Get(idx int) *object {
	return &h.objects[idx]
}

// incRef records a new durable holder of the object at idx.
func (h *heap) incRef(idx int) {
	h.objects[idx].RC++
}

// IncRef is incRef's exported form, for extern callbacks (package stdlib)
// that build their own durable storage (e.g. appending to a list).
func (h *heap) IncRef(idx int) { h.incRef(idx) }

// DecRef is decRef's exported form, for extern callbacks.
func (h *heap) DecRef(idx int) { h.decRef(idx) }

// decRef releases one durable holder, freeing (and cascading into
// referenced children) once the count reaches zero. Calling decRef on an
// already-free or never-incremented cell is a no-op floor rather than a
// crash: a variable that outlives an explicit DeleteObj on its referent is
// the source language's own dangling-reference hazard, not a
// VM bug to guard against with a panic.
func (h *heap) decRef(idx int) {
	o := &h.objects[idx]
	if o.Kind == ObjectFree || o.RC == 0 {
		return
	}
	o.RC--
	if o.RC > 0 {
		return
	}
	h.finalize(idx)
}

func (h *heap) finalize(idx int) {
	o := &h.objects[idx]
	switch o.Kind {
	case ObjectList:
		for _, v := range o.List {
			if v.isRef() {
				h.decRef(v.Ref)
			}
		}
	case ObjectClass:
		for _, v := range o.Fields {
			if v.isRef() {
				h.decRef(v.Ref)
			}
		}
	}
	*o = object{Kind: ObjectFree, Next: h.free}
	h.free = idx
}
