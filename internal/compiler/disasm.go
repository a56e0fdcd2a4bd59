package compiler

import (
	"fmt"
	"io"
)

// Disassembler renders a Code object's instructions in human-readable
// form for the `vesper dis` CLI subcommand and for tests.
type Disassembler struct {
	w io.Writer
}

// NewDisassembler creates a Disassembler writing to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{w: w}
}

// Disassemble prints code and, recursively, every nested function/class
// body it references.
func (d *Disassembler) Disassemble(code *Code) {
	fmt.Fprintf(d.w, "== %s ==\n", code.Name)
	if len(code.Consts) > 0 {
		fmt.Fprintln(d.w, "constants:")
		for i, v := range code.Consts {
			fmt.Fprintf(d.w, "  [%d] %#v\n", i, v)
		}
	}
	if len(code.Names) > 0 {
		fmt.Fprintln(d.w, "names:")
		for i, n := range code.Names {
			fmt.Fprintf(d.w, "  [%d] %s\n", i, n)
		}
	}
	fmt.Fprintln(d.w, "code:")
	for i, ins := range code.Instrs {
		d.printInstr(i, ins)
	}
	fmt.Fprintln(d.w)
	for _, fp := range code.FuncProtos {
		d.Disassemble(fp)
	}
	for _, cp := range code.ClassProtos {
		d.Disassemble(cp.Body)
	}
}

func (d *Disassembler) printInstr(i int, ins Instr) {
	switch ins.Op {
	case OpBinaryOp, OpUnaryOp, OpCompareOp:
		fmt.Fprintf(d.w, "%6d  %-20s %s\n", i, ins.Op, ins.Op2)
	case OpJump, OpJumpIfFalse, OpJumpIfFalseKeep, OpJumpIfTrueKeep, OpForIter:
		fmt.Fprintf(d.w, "%6d  %-20s -> %d\n", i, ins.Op, ins.A)
	case OpLoadConst, OpLoadLocal, OpStoreLocal, OpLoadGlobal, OpStoreGlobal,
		OpLoadCell, OpStoreCell, OpLoadBuiltin, OpGetAttr, OpSetAttr, OpPushKwarg,
		OpMakeFunction, OpMakeClass, OpImport, OpImportFrom, OpImportFromStar,
		OpBindExcept, OpMatchExcept:
		fmt.Fprintf(d.w, "%6d  %-20s %d\n", i, ins.Op, ins.A)
	case OpPushTry:
		fmt.Fprintf(d.w, "%6d  %-20s except=%d finally=%d\n", i, ins.Op, ins.A, ins.B)
	default:
		fmt.Fprintf(d.w, "%6d  %s\n", i, ins.Op)
	}
}
