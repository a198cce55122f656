package codegen

import (
	"fmt"
	"io"
	"strings"
)

// Disassembler renders a Program as human-readable bytecode listing,
// following the constants-pool-then-instructions layout used across the
// toolchain's other tools.
type Disassembler struct {
	writer  io.Writer
	program *Program
}

// NewDisassembler creates a disassembler that writes to w.
func NewDisassembler(program *Program, w io.Writer) *Disassembler {
	return &Disassembler{writer: w, program: program}
}

// Disassemble prints every label in the program.
func (d *Disassembler) Disassemble() {
	fmt.Fprintf(d.writer, "entry: %s\n", d.program.EntryPoint)
	if len(d.program.Libraries) > 0 {
		fmt.Fprintf(d.writer, "libraries:\n")
		for _, lib := range d.program.Libraries {
			fmt.Fprintf(d.writer, "  %s (std=%v)\n", lib.Name, lib.IsStd)
		}
	}
	if len(d.program.Global.Strings) > 0 {
		fmt.Fprintf(d.writer, "strings:\n")
		for i, s := range d.program.Global.Strings {
			fmt.Fprintf(d.writer, "  [%04d] %q\n", i, s)
		}
	}
	if len(d.program.Global.Functions) > 0 {
		fmt.Fprintf(d.writer, "functions:\n")
		for i, f := range d.program.Global.Functions {
			fmt.Fprintf(d.writer, "  [%04d] %s\n", i, f)
		}
	}
	fmt.Fprintf(d.writer, "\n")

	for _, l := range d.program.Labels {
		d.DisassembleLabel(l)
	}
}

// DisassembleLabel prints one label's body with per-instruction offsets
// relative to the label's own Position.
func (d *Disassembler) DisassembleLabel(l *Label) {
	fmt.Fprintf(d.writer, "== %s (%04d) ==\n", l.Name, l.Position)
	for i, instr := range l.Body {
		fmt.Fprintf(d.writer, "%04d %s\n", l.Position+i, formatInstruction(instr))
	}
	fmt.Fprintf(d.writer, "\n")
}

func formatInstruction(instr Instruction) string {
	switch in := instr.(type) {
	case Pop:
		return "Pop"
	case Swap:
		return "Swap"
	case Dup:
		return "Dup"
	case PushInt:
		return fmt.Sprintf("PushInt          %d", in.Value)
	case PushUnsignedInt:
		return fmt.Sprintf("PushUnsignedInt  %d", in.Value)
	case PushFloat:
		return fmt.Sprintf("PushFloat        %g", in.Value)
	case PushBool:
		return fmt.Sprintf("PushBool         %v", in.Value)
	case PushChar:
		return fmt.Sprintf("PushChar         %q", in.Value)
	case PushStr:
		return fmt.Sprintf("PushStr          %4d", in.Index)
	case PushFnPtr:
		return fmt.Sprintf("PushFnPtr        %4d", in.Index)
	case PushUnit:
		return "PushUnit"
	case Load:
		return fmt.Sprintf("Load             %s", in.Name)
	case Store:
		return fmt.Sprintf("Store            %s", in.Name)
	case IAdd:
		return "IAdd"
	case UIAdd:
		return "UIAdd"
	case FAdd:
		return "FAdd"
	case ISub:
		return "ISub"
	case UISub:
		return "UISub"
	case FSub:
		return "FSub"
	case IMul:
		return "IMul"
	case UIMul:
		return "UIMul"
	case FMul:
		return "FMul"
	case IDiv:
		return "IDiv"
	case UIDiv:
		return "UIDiv"
	case FDiv:
		return "FDiv"
	case IMod:
		return "IMod"
	case UIMod:
		return "UIMod"
	case Eq:
		return "Eq"
	case Neq:
		return "Neq"
	case Lt:
		return "Lt"
	case Gt:
		return "Gt"
	case Lte:
		return "Lte"
	case Gte:
		return "Gte"
	case Jmp:
		return fmt.Sprintf("Jmp              %+d", in.Offset)
	case JmpZ:
		return fmt.Sprintf("JmpZ             %+d", in.Offset)
	case Return:
		return "Return"
	case Halt:
		return "Halt"
	case CallFunction:
		return fmt.Sprintf("CallFunction     %s args=%d", in.Name, in.NArgs)
	case CallMethod:
		return fmt.Sprintf("CallMethod       %s args=%d", in.Name, in.NArgs)
	case ExternCall:
		return fmt.Sprintf("ExternCall       %s args=%d", in.Name, in.NArgs)
	case DirectCall:
		return fmt.Sprintf("DirectCall       args=%d", in.NArgs)
	case NewList:
		return "NewList"
	case ListLoad:
		return "ListLoad"
	case ListStore:
		return "ListStore"
	case NewObj:
		return fmt.Sprintf("NewObj           %s", in.Name)
	case GetField:
		return fmt.Sprintf("GetField         %s", in.Name)
	case SetField:
		return fmt.Sprintf("SetField         %s", in.Name)
	case DeleteObj:
		return "DeleteObj"
	case CastTo:
		return fmt.Sprintf("CastTo           %s", in.Kind)
	default:
		return fmt.Sprintf("UNKNOWN %T", instr)
	}
}

// DisassembleToString renders an entire program to a string, for snapshot
// tests.
func DisassembleToString(p *Program) string {
	var sb strings.Builder
	NewDisassembler(p, &sb).Disassemble()
	return sb.String()
}
