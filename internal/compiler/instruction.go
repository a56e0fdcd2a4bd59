// Package compiler lowers a parsed AST into a flat vector of instructions
// per function body.
package compiler

import "github.com/ochom/vesper/internal/token"

// OpCode identifies one instruction. Operands are carried in the
// Instr.A/B fields rather than packed into a fixed-width encoding — this
// build optimizes for a clear one-opcode-per-concept table over a
// byte-packed wire format.
type OpCode byte

const (
	// Constants and names.

	// OpLoadConst pushes Code.Consts[A].
	// Stack: [] -> [const]
	OpLoadConst OpCode = iota
	// OpLoadNone pushes the None singleton.
	// Stack: [] -> [None]
	OpLoadNone
	// OpLoadTrue / OpLoadFalse push a bool literal.
	// Stack: [] -> [bool]
	OpLoadTrue
	OpLoadFalse

	// OpLoadLocal pushes the current frame's local cell named Code.Names[A].
	// Stack: [] -> [value]
	OpLoadLocal
	// OpStoreLocal pops and stores into the named local cell.
	// Stack: [value] -> []
	OpStoreLocal
	// OpLoadGlobal / OpStoreGlobal work the same against the owning
	// module's globals.
	OpLoadGlobal
	OpStoreGlobal
	// OpLoadCell / OpStoreCell address a captured (nonlocal) variable's
	// shared cell.
	OpLoadCell
	OpStoreCell
	// OpLoadBuiltin looks Code.Names[A] up in __builtins__ directly,
	// bypassing module globals. The compiler does not emit it: names with
	// no local or captured binding compile to OpLoadGlobal.
	OpLoadBuiltin

	// Stack shape / argument frames.

	// OpMarkFrame records the current stack depth as a new arg-frame
	// marker, used by calls and list/tuple/dict/set/slice construction.
	// Stack: [] -> []  (records depth out-of-band)
	OpMarkFrame
	// OpPushKwarg moves the top of stack into the current frame's pending
	// kwarg list under the name Code.Names[A].
	// Stack: [value] -> []
	OpPushKwarg
	// OpUnpackStar iterates the top-of-stack iterable and pushes every
	// element above the current frame (used for *args at a call site).
	// Stack: [iterable] -> [elem...]
	OpUnpackStar
	// OpUnpackMapStar iterates the top-of-stack mapping's entries and
	// pushes each as a kwarg on the current frame (**kwargs at a call
	// site); all keys must be strings.
	// Stack: [mapping] -> []
	OpUnpackMapStar

	// Collection construction; each consumes every value pushed since the
	// most recent OpMarkFrame and replaces the marker with the result.
	OpBuildTuple
	OpBuildList
	OpBuildSet
	OpBuildDict
	// OpBuildSlice consumes exactly three values (low, high, step — any of
	// which may be None) and pushes a slice object.
	OpBuildSlice

	// Calls and attribute/index access.

	// OpCall consumes the arg frame (positional args + kwargs) and the
	// callee beneath it, pushes the result.
	OpCall
	// OpGetAttr / OpSetAttr: Code.Names[A] is the attribute name.
	// Stack: [obj] -> [value]      /  [obj, value] -> []
	OpGetAttr
	OpSetAttr
	// OpGetItem / OpSetItem dispatch to __getitem__/__setitem__.
	// Stack: [obj, key] -> [value] / [obj, key, value] -> []
	OpGetItem
	OpSetItem
	// OpDelete pops the top of stack and pushes None; `del x` compiles to
	// x's value followed by this instruction, so no binding is removed.
	// Stack: [value] -> [None]
	OpDelete

	// Operators, dispatched through the operator->dunder tables in
	// internal/vm/ops.go (binaryDunder, augDunder, unaryDunder,
	// compareDunder). Op2 carries the token.Type of the operator.
	OpBinaryOp
	OpUnaryOp
	OpCompareOp
	// OpNot negates a Python-truthiness test rather than a dunder call.
	OpNot
	// OpIn / OpNotIn call the right operand's __contains__; OpNotIn
	// additionally negates the boolean result.
	OpIn
	OpNotIn
	// OpIs / OpIsNot perform primitive identity comparison.
	OpIs
	OpIsNot

	// Control flow. A is an absolute instruction index within Code.Instrs.

	OpJump
	// OpJumpIfFalse pops and jumps if falsy.
	OpJumpIfFalse
	// OpJumpIfFalseKeep / OpJumpIfTrueKeep peek (don't pop) for and/or
	// short-circuiting; the value is discarded by the caller's following
	// OpPop only when the jump is not taken.
	OpJumpIfFalseKeep
	OpJumpIfTrueKeep
	OpPop
	OpDup
	// OpSwap exchanges the top two stack values. The compiler does not emit
	// it: unpacking into an attribute/index sub-target stashes the value in
	// a hidden __stash local instead.
	OpSwap

	// Functions/classes/modules.

	// OpMakeFunction builds a function record from Code.FuncProtos[A],
	// binding default-value expressions (already evaluated and pushed by
	// the caller as an arg frame beneath this instruction) and capture
	// cells from the current frame.
	OpMakeFunction
	// OpMakeClass builds a class record: bases are on the operand stack
	// (an arg frame of N base objects); the handler runs
	// Code.ClassProtos[A].Body against a throwaway module namespace and
	// takes the resulting attribute table as the class template.
	OpMakeClass
	OpImport
	OpImportFrom
	OpImportFromStar

	// Returns, raises, try/except/finally.

	OpReturn
	OpReturnNone
	OpRaise
	OpReraise
	// OpPushTry pushes a try frame: A is the PC where the except clauses'
	// matching code starts and B the PC of the finally block.
	OpPushTry
	OpPopTry
	// OpMatchExcept: pops a class object off the stack (the except clause's
	// type expression, already evaluated by the caller; omitted entirely
	// for a bare `except:` clause) and tests the context's current
	// exception against it, pushing a bool. A is unused.
	OpMatchExcept
	// OpBindExcept binds the current exception under local name
	// Code.Names[A].
	OpBindExcept
	// OpClearException clears the current-exception slot (end of a
	// handler or finally that doesn't re-raise).
	OpClearException

	// Iteration.

	// OpGetIter calls __iter__ once.
	OpGetIter
	// OpForIter calls __next__; on StopIteration, clears the exception
	// and jumps to A instead of propagating.
	OpForIter

	numOpcodes
)

var opNames = [numOpcodes]string{
	OpLoadConst: "LOAD_CONST", OpLoadNone: "LOAD_NONE", OpLoadTrue: "LOAD_TRUE", OpLoadFalse: "LOAD_FALSE",
	OpLoadLocal: "LOAD_LOCAL", OpStoreLocal: "STORE_LOCAL", OpLoadGlobal: "LOAD_GLOBAL", OpStoreGlobal: "STORE_GLOBAL",
	OpLoadCell: "LOAD_CELL", OpStoreCell: "STORE_CELL", OpLoadBuiltin: "LOAD_BUILTIN",
	OpMarkFrame: "MARK_FRAME", OpPushKwarg: "PUSH_KWARG", OpUnpackStar: "UNPACK_STAR", OpUnpackMapStar: "UNPACK_MAP_STAR",
	OpBuildTuple: "BUILD_TUPLE", OpBuildList: "BUILD_LIST", OpBuildSet: "BUILD_SET", OpBuildDict: "BUILD_DICT", OpBuildSlice: "BUILD_SLICE",
	OpCall: "CALL", OpGetAttr: "GET_ATTR", OpSetAttr: "SET_ATTR", OpGetItem: "GET_ITEM", OpSetItem: "SET_ITEM", OpDelete: "DELETE",
	OpBinaryOp: "BINARY_OP", OpUnaryOp: "UNARY_OP", OpCompareOp: "COMPARE_OP", OpNot: "NOT",
	OpIn: "IN", OpNotIn: "NOT_IN", OpIs: "IS", OpIsNot: "IS_NOT",
	OpJump: "JUMP", OpJumpIfFalse: "JUMP_IF_FALSE", OpJumpIfFalseKeep: "JUMP_IF_FALSE_KEEP", OpJumpIfTrueKeep: "JUMP_IF_TRUE_KEEP",
	OpPop: "POP", OpDup: "DUP", OpSwap: "SWAP",
	OpMakeFunction: "MAKE_FUNCTION", OpMakeClass: "MAKE_CLASS", OpImport: "IMPORT", OpImportFrom: "IMPORT_FROM", OpImportFromStar: "IMPORT_FROM_STAR",
	OpReturn: "RETURN", OpReturnNone: "RETURN_NONE", OpRaise: "RAISE", OpReraise: "RERAISE",
	OpPushTry: "PUSH_TRY", OpPopTry: "POP_TRY", OpMatchExcept: "MATCH_EXCEPT", OpBindExcept: "BIND_EXCEPT", OpClearException: "CLEAR_EXCEPTION",
	OpGetIter: "GET_ITER", OpForIter: "FOR_ITER",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "UNKNOWN"
}

// Instr is one instruction. A and B are generic operand slots whose
// meaning depends on Op (documented per-opcode above); Names/Consts/etc.
// index into the owning Code's tables.
type Instr struct {
	Op   OpCode
	A    int
	B    int
	Op2  token.Type // operator token for OpBinaryOp/OpUnaryOp/OpCompareOp
	Line int
}
