package compiler

import (
	"fmt"

	"github.com/ochom/vesper/internal/ast"
	"github.com/ochom/vesper/internal/token"
)

// Error is a compile-time error ("break/continue outside a loop", or an
// AST node the compiler does not handle; most invalid-AST conditions are
// parser errors instead).
type Error struct {
	Msg string
}

func (e Error) Error() string { return e.Msg }

// compiler holds the per-function-body state for a single recursive
// compile pass.
type compiler struct {
	code       *Code
	errs       []Error
	loopStack  []*loopCtx
	moduleName string
}

type loopCtx struct {
	breakTargets    []int // instruction indices to patch to the loop's exit
	continueTargets []int // instruction indices to patch to the loop's test
}

// CompileModule compiles a parsed module into its top-level Code; the
// module body is compiled exactly like a function body with no
// parameters and no captures.
func CompileModule(mod *ast.Module) (*Code, []Error) {
	c := &compiler{code: &Code{Name: mod.Name, ModuleName: mod.Name}, moduleName: mod.Name}
	c.compileBlock(mod.Body)
	c.code.emit(OpReturnNone, 0, 0)
	return c.code, c.errs
}

// CompileExpr compiles a single expression for compile(..., mode="eval"),
// wrapping it in an implicit `return <expr>`.
func CompileExpr(e ast.Expr, moduleName string) (*Code, []Error) {
	c := &compiler{code: &Code{Name: moduleName, ModuleName: moduleName}, moduleName: moduleName}
	c.compileExpr(e)
	c.code.emit(OpReturn, 0, e.Pos().Line)
	return c.code, c.errs
}

func (c *compiler) errorf(format string, args ...any) {
	c.errs = append(c.errs, Error{Msg: fmt.Sprintf(format, args...)})
}

func (c *compiler) compileBlock(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.compileStmt(s)
	}
}

func (c *compiler) compileStmt(s ast.Stmt) {
	line := s.Pos().Line
	switch n := s.(type) {
	case *ast.ExprStmt:
		c.compileExpr(n.X)
		c.code.emit(OpPop, 0, line)
	case *ast.AssignStmt:
		c.compileAssign(n.Target, n.Value)
	case *ast.AugAssignStmt:
		c.compileAugAssign(n)
	case *ast.PassStmt:
		// no-op
	case *ast.BreakStmt:
		if len(c.loopStack) == 0 {
			c.errorf("'break' outside loop")
			return
		}
		idx := c.code.emit(OpJump, 0, line)
		top := c.loopStack[len(c.loopStack)-1]
		top.breakTargets = append(top.breakTargets, idx)
	case *ast.ContinueStmt:
		if len(c.loopStack) == 0 {
			c.errorf("'continue' not properly in loop")
			return
		}
		idx := c.code.emit(OpJump, 0, line)
		top := c.loopStack[len(c.loopStack)-1]
		top.continueTargets = append(top.continueTargets, idx)
	case *ast.ReturnStmt:
		if n.Value == nil {
			c.code.emit(OpReturnNone, 0, line)
		} else {
			c.compileExpr(n.Value)
			c.code.emit(OpReturn, 0, line)
		}
	case *ast.RaiseStmt:
		if n.X == nil {
			c.code.emit(OpReraise, 0, line)
		} else {
			c.compileExpr(n.X)
			c.code.emit(OpRaise, 0, line)
		}
	case *ast.GlobalStmt, *ast.NonlocalStmt:
		// Purely advisory to capture resolution (already applied by the
		// parser); no runtime instruction needed.
	case *ast.ImportStmt:
		idx := c.code.internName(n.Name)
		c.code.emit(OpImport, idx, line)
		alias := n.Alias
		if alias == "" {
			alias = n.Name
		}
		c.compileStoreName(alias, line)
	case *ast.ImportFromStmt:
		modIdx := c.code.internName(n.Module)
		if n.Star {
			c.code.emit(OpImportFromStar, modIdx, line)
			break
		}
		for _, item := range n.Items {
			c.code.Instrs = append(c.code.Instrs, Instr{Op: OpImportFrom, A: modIdx, B: c.code.internName(item.Name), Line: line})
			alias := item.Alias
			if alias == "" {
				alias = item.Name
			}
			c.compileStoreName(alias, line)
		}
	case *ast.IfStmt:
		c.compileIf(n)
	case *ast.WhileStmt:
		c.compileWhile(n)
	case *ast.TryStmt:
		c.compileTry(n)
	case *ast.FunctionDef:
		c.compileFunctionDef(n)
	case *ast.ClassDef:
		c.compileClassDef(n)
	default:
		c.errorf("compiler: unhandled statement %T", n)
	}
}

// compileAssign compiles `target = value`. AttributeTarget/IndexTarget need
// their object (and index) expressions evaluated before the value so the
// stack lands in SetAttr/SetItem's expected [obj, value]/[obj, key, value]
// order; NameTarget and PackTarget instead evaluate the value first and
// then store it, matching normal left-to-right assignment semantics.
func (c *compiler) compileAssign(t ast.Target, value ast.Expr) {
	line := t.Pos().Line
	switch n := t.(type) {
	case *ast.AttributeTarget:
		c.compileExpr(n.X)
		c.compileExpr(value)
		idx := c.code.internName(n.Name)
		c.code.emit(OpSetAttr, idx, line)
	case *ast.IndexTarget:
		c.compileExpr(n.X)
		c.compileExpr(n.Index)
		c.compileExpr(value)
		c.code.emit(OpSetItem, 0, line)
	default:
		c.compileExpr(value)
		c.compileStoreTarget(t)
	}
}

// compileStoreTarget emits the store instruction(s) for a NameTarget or
// PackTarget, consuming the single value already on the stack (a pack
// target unpacks it into len(Elems) values first).
func (c *compiler) compileStoreTarget(t ast.Target) {
	line := t.Pos().Line
	switch n := t.(type) {
	case *ast.NameTarget:
		c.compileStoreName(n.Name, line)
	case *ast.AttributeTarget:
		// Reached only from compileUnpackInto (a pack element that is
		// itself an attribute/index target). The value is already on the
		// stack; stash it in a hidden temp local rather than juggling
		// stack order, then evaluate obj/index fresh and reload it.
		tmp := c.newHiddenLocal()
		c.code.emit(OpStoreLocal, c.code.internName(tmp), line)
		c.compileExpr(n.X)
		c.code.emit(OpLoadLocal, c.code.internName(tmp), line)
		idx := c.code.internName(n.Name)
		c.code.emit(OpSetAttr, idx, line)
	case *ast.IndexTarget:
		tmp := c.newHiddenLocal()
		c.code.emit(OpStoreLocal, c.code.internName(tmp), line)
		c.compileExpr(n.X)
		c.compileExpr(n.Index)
		c.code.emit(OpLoadLocal, c.code.internName(tmp), line)
		c.code.emit(OpSetItem, 0, line)
	case *ast.PackTarget:
		c.compileUnpackInto(n, line)
	}
}

func (c *compiler) compileStoreName(name string, line int) {
	idx := c.code.internName(name)
	switch {
	case contains(c.code.Locals, name):
		c.code.emit(OpStoreLocal, idx, line)
	case contains(c.code.LocalCaptures, name):
		c.code.emit(OpStoreCell, idx, line)
	default:
		c.code.emit(OpStoreGlobal, idx, line)
	}
}

func (c *compiler) compileLoadName(name string, line int) {
	idx := c.code.internName(name)
	switch {
	case contains(c.code.Locals, name):
		c.code.emit(OpLoadLocal, idx, line)
	case contains(c.code.LocalCaptures, name):
		c.code.emit(OpLoadCell, idx, line)
	case contains(c.code.GlobalCaptures, name):
		c.code.emit(OpLoadGlobal, idx, line)
	default:
		c.code.emit(OpLoadGlobal, idx, line)
	}
}

// newHiddenLocal allocates a fresh synthetic local name, used to stash a
// value across an intervening sub-expression evaluation when the stack
// can't hold values in the order an instruction needs them.
func (c *compiler) newHiddenLocal() string {
	name := fmt.Sprintf("__stash%d", len(c.code.Locals))
	c.code.Locals = append(c.code.Locals, name)
	return name
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

// compileUnpackInto unpacks the value on the stack into n.Elems
// sub-targets via repeated index access: one GET_ITEM per slot with the
// constant indices 0..n-1. The value must support __getitem__; it is not
// iterated, and its length is not compared with the number of targets, so
// elements past the last target are ignored.
func (c *compiler) compileUnpackInto(pack *ast.PackTarget, line int) {
	n := len(pack.Elems)
	for i := 0; i < n; i++ {
		if i < n-1 {
			c.code.emit(OpDup, 0, line)
		}
		c.code.Instrs = append(c.code.Instrs, Instr{Op: OpLoadConst, A: c.code.internConst(int64(i)), Line: line})
		c.code.emit(OpGetItem, 0, line)
		c.compileStoreTarget(pack.Elems[i])
	}
}

// compileAugAssign prefers an in-place dunder (__iadd__-style) when the
// target type supports one, falling back to the plain binary operator
// otherwise; see DESIGN.md Open Question 1. The VM's BINARY_OP handler
// performs this preference check at runtime (the compiler cannot know the
// target's type), so compound assignment emits a read, BINARY_OP carrying
// the compound-assignment token (PLUSEQ etc.), then a store, and the VM's
// augOp looks for an in-place method first.
func (c *compiler) compileAugAssign(n *ast.AugAssignStmt) {
	line := n.Pos().Line
	switch t := n.Target.(type) {
	case *ast.NameTarget:
		c.compileLoadName(t.Name, line)
		c.compileExpr(n.Value)
		c.code.emitOperator(OpBinaryOp, n.Op, line)
		c.compileStoreName(t.Name, line)
	case *ast.AttributeTarget:
		c.compileExpr(t.X)
		c.code.emit(OpDup, 0, line)
		idx := c.code.internName(t.Name)
		c.code.emit(OpGetAttr, idx, line)
		c.compileExpr(n.Value)
		c.code.emitOperator(OpBinaryOp, n.Op, line)
		c.code.emit(OpSetAttr, idx, line)
	case *ast.IndexTarget:
		c.compileExpr(t.X)
		c.compileExpr(t.Index)
		c.code.emit(OpDup, 0, line)
		c.code.emit(OpGetItem, 0, line)
		c.compileExpr(n.Value)
		c.code.emitOperator(OpBinaryOp, n.Op, line)
		c.code.emit(OpSetItem, 0, line)
	}
}

func (c *compiler) compileIf(n *ast.IfStmt) {
	line := n.Pos().Line
	c.compileExpr(n.Cond)
	jfalse := c.code.emit(OpJumpIfFalse, 0, line)
	c.compileBlock(n.Then.Stmts)
	jend := c.code.emit(OpJump, 0, line)
	c.code.patchJump(jfalse, c.code.here())
	c.compileBlock(n.Else.Stmts)
	c.code.patchJump(jend, c.code.here())
}

func (c *compiler) compileWhile(n *ast.WhileStmt) {
	line := n.Pos().Line
	testPC := c.code.here()
	c.compileExpr(n.Cond)
	jexit := c.code.emit(OpJumpIfFalse, 0, line)

	lc := &loopCtx{}
	c.loopStack = append(c.loopStack, lc)
	c.compileBlock(n.Body.Stmts)
	c.loopStack = c.loopStack[:len(c.loopStack)-1]

	for _, idx := range lc.continueTargets {
		c.code.patchJump(idx, testPC)
	}
	c.code.emit(OpJump, testPC, line)

	exitPC := c.code.here()
	c.code.patchJump(jexit, exitPC)
	c.compileBlock(n.Else.Stmts)
	for _, idx := range lc.breakTargets {
		c.code.patchJump(idx, exitPC)
	}
}

func (c *compiler) compileTry(n *ast.TryStmt) {
	line := n.Pos().Line
	pushIdx := c.code.emit(OpPushTry, 0, line)
	c.compileBlock(n.Body.Stmts)
	c.code.emit(OpPopTry, 0, line)
	jToFinally := []int{c.code.emit(OpJump, 0, line)}

	exceptStart := c.code.here()
	for _, ex := range n.Excepts {
		var jNoMatch int
		hasNoMatchJump := false
		if ex.Type != nil {
			c.compileExpr(ex.Type)
			c.code.emit(OpMatchExcept, 0, line)
			jNoMatch = c.code.emit(OpJumpIfFalse, 0, line)
			hasNoMatchJump = true
		}
		if ex.Name != "" {
			idx := c.code.internName(ex.Name)
			c.code.emit(OpBindExcept, idx, line)
		}
		c.compileBlock(ex.Body.Stmts)
		c.code.emit(OpClearException, 0, line)
		jToFinally = append(jToFinally, c.code.emit(OpJump, 0, line))
		if hasNoMatchJump {
			c.code.patchJump(jNoMatch, c.code.here())
		}
	}
	c.code.emit(OpReraise, 0, line)

	finallyStart := c.code.here()
	for _, idx := range jToFinally {
		c.code.patchJump(idx, finallyStart)
	}
	c.compileBlock(n.Finally.Stmts)

	c.code.Instrs[pushIdx].A = exceptStart
	c.code.Instrs[pushIdx].B = finallyStart
}

func (c *compiler) compileExpr(e ast.Expr) {
	line := e.Pos().Line
	switch n := e.(type) {
	case *ast.Ident:
		c.compileLoadName(n.Name, line)
	case *ast.IntLit:
		c.code.emit(OpLoadConst, c.code.internConst(n.Value), line)
	case *ast.FloatLit:
		c.code.emit(OpLoadConst, c.code.internConst(n.Value), line)
	case *ast.StringLit:
		c.code.emit(OpLoadConst, c.code.internConst(n.Value), line)
	case *ast.BoolLit:
		if n.Value {
			c.code.emit(OpLoadTrue, 0, line)
		} else {
			c.code.emit(OpLoadFalse, 0, line)
		}
	case *ast.NoneLit:
		c.code.emit(OpLoadNone, 0, line)
	case *ast.NamedExpr:
		c.compileExpr(n.Value)
		c.code.emit(OpDup, 0, line)
		c.compileStoreName(n.Name, line)
	case *ast.TupleLit:
		c.compileArgFrame(n.Elems)
		c.code.emit(OpBuildTuple, 0, line)
	case *ast.ListLit:
		c.compileArgFrame(n.Elems)
		c.code.emit(OpBuildList, 0, line)
	case *ast.SetLit:
		c.compileArgFrame(n.Elems)
		c.code.emit(OpBuildSet, 0, line)
	case *ast.DictLit:
		c.code.emit(OpMarkFrame, 0, line)
		for _, entry := range n.Entries {
			c.compileExpr(entry.Key)
			c.compileExpr(entry.Value)
		}
		c.code.emit(OpBuildDict, 0, line)
	case *ast.UnaryExpr:
		c.compileExpr(n.X)
		if n.Op == token.NOT {
			c.code.emit(OpNot, 0, line)
		} else {
			c.code.emitOperator(OpUnaryOp, n.Op, line)
		}
	case *ast.BinaryExpr:
		c.compileBinary(n)
	case *ast.BoolOp:
		c.compileBoolOp(n)
	case *ast.Conditional:
		c.compileExpr(n.Cond)
		jfalse := c.code.emit(OpJumpIfFalse, 0, line)
		c.compileExpr(n.Then)
		jend := c.code.emit(OpJump, 0, line)
		c.code.patchJump(jfalse, c.code.here())
		c.compileExpr(n.Else)
		c.code.patchJump(jend, c.code.here())
	case *ast.CallExpr:
		c.compileCall(n)
	case *ast.AttributeExpr:
		c.compileExpr(n.X)
		idx := c.code.internName(n.Name)
		c.code.emit(OpGetAttr, idx, line)
	case *ast.IndexExpr:
		c.compileExpr(n.X)
		c.compileExpr(n.Index)
		c.code.emit(OpGetItem, 0, line)
	case *ast.SliceExpr:
		c.compileExpr(n.X)
		c.compileOptionalOrNone(n.Low)
		c.compileOptionalOrNone(n.High)
		c.compileOptionalOrNone(n.Step)
		c.code.emit(OpBuildSlice, 0, line)
		c.code.emit(OpGetItem, 0, line)
	case *ast.LambdaExpr:
		c.compileLambda(n)
	default:
		c.errorf("compiler: unhandled expression %T", n)
	}
}

func (c *compiler) compileOptionalOrNone(e ast.Expr) {
	if e == nil {
		c.code.emit(OpLoadNone, 0, 0)
		return
	}
	c.compileExpr(e)
}

// compileArgFrame emits MARK_FRAME then each element. This build has no
// dedicated starred-element AST node inside literals, so `*x` inside
// `[a, *b]` is not supported at the literal-element level; only at call
// sites via CallExpr.Star.
func (c *compiler) compileArgFrame(elems []ast.Expr) {
	line := 0
	if len(elems) > 0 {
		line = elems[0].Pos().Line
	}
	c.code.emit(OpMarkFrame, 0, line)
	for _, el := range elems {
		c.compileExpr(el)
	}
}

func (c *compiler) compileBinary(n *ast.BinaryExpr) {
	line := n.Pos().Line
	switch n.Op {
	case token.IN:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		if n.Not {
			c.code.emit(OpNotIn, 0, line)
		} else {
			c.code.emit(OpIn, 0, line)
		}
	case token.IS:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		if n.Not {
			c.code.emit(OpIsNot, 0, line)
		} else {
			c.code.emit(OpIs, 0, line)
		}
	case token.LT, token.LE, token.GT, token.GE, token.EQ, token.NE:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.code.emitOperator(OpCompareOp, n.Op, line)
	default:
		c.compileExpr(n.Left)
		c.compileExpr(n.Right)
		c.code.emitOperator(OpBinaryOp, n.Op, line)
	}
}

func (c *compiler) compileBoolOp(n *ast.BoolOp) {
	line := n.Pos().Line
	c.compileExpr(n.Left)
	var jidx int
	if n.Op == token.AND {
		jidx = c.code.emit(OpJumpIfFalseKeep, 0, line)
	} else {
		jidx = c.code.emit(OpJumpIfTrueKeep, 0, line)
	}
	c.code.emit(OpPop, 0, line)
	c.compileExpr(n.Right)
	c.code.patchJump(jidx, c.code.here())
}

func (c *compiler) compileCall(n *ast.CallExpr) {
	line := n.Pos().Line
	if id, ok := n.Func.(*ast.Ident); ok && id.Name == "__delete__" && len(n.Args) == 1 {
		c.compileExpr(n.Args[0])
		c.code.emit(OpDelete, 0, line)
		return
	}
	c.compileExpr(n.Func)
	c.code.emit(OpMarkFrame, 0, line)
	for _, a := range n.Args {
		c.compileExpr(a)
	}
	if n.Star != nil {
		c.compileExpr(n.Star)
		c.code.emit(OpUnpackStar, 0, line)
	}
	for _, kw := range n.Kwargs {
		c.compileExpr(kw.Value)
		idx := c.code.internName(kw.Name)
		c.code.emit(OpPushKwarg, idx, line)
	}
	if n.DStar != nil {
		c.compileExpr(n.DStar)
		c.code.emit(OpUnpackMapStar, 0, line)
	}
	c.code.emit(OpCall, 0, line)
}

func (c *compiler) compileFunctionDef(n *ast.FunctionDef) {
	line := n.Pos().Line
	fc := &compiler{
		code: &Code{
			Name:           n.Name,
			ModuleName:     c.moduleName,
			Locals:         n.Locals,
			LocalCaptures:  n.LocalCaptures,
			GlobalCaptures: n.GlobalCaptures,
		},
		moduleName: c.moduleName,
	}
	for _, p := range n.Params.List {
		fc.code.Params = append(fc.code.Params, Param{Name: p.Name, Kind: ParamKind(p.Kind)})
	}
	fc.compileBlock(n.Body.Stmts)
	fc.code.emit(OpReturnNone, 0, line)
	c.errs = append(c.errs, fc.errs...)

	c.code.emit(OpMarkFrame, 0, line)
	for _, p := range n.Params.List {
		if p.Default != nil {
			c.compileExpr(p.Default)
		}
	}
	protoIdx := len(c.code.FuncProtos)
	c.code.FuncProtos = append(c.code.FuncProtos, fc.code)
	c.code.emit(OpMakeFunction, protoIdx, line)
	c.compileStoreName(n.Name, line)
}

func (c *compiler) compileLambda(n *ast.LambdaExpr) {
	line := n.Pos().Line
	fc := &compiler{
		code:       &Code{Name: "<lambda>", ModuleName: c.moduleName},
		moduleName: c.moduleName,
	}
	// Lambdas skip dedicated capture resolution (see DESIGN.md); every
	// name not a parameter resolves dynamically as a global load, which
	// the VM falls back to __builtins__ for if absent from module globals.
	for _, p := range n.Params.List {
		fc.code.Params = append(fc.code.Params, Param{Name: p.Name, Kind: ParamKind(p.Kind)})
		fc.code.Locals = append(fc.code.Locals, p.Name)
	}
	fc.compileExpr(n.Body)
	fc.code.emit(OpReturn, 0, line)
	c.errs = append(c.errs, fc.errs...)

	c.code.emit(OpMarkFrame, 0, line)
	for _, p := range n.Params.List {
		if p.Default != nil {
			c.compileExpr(p.Default)
		}
	}
	protoIdx := len(c.code.FuncProtos)
	c.code.FuncProtos = append(c.code.FuncProtos, fc.code)
	c.code.emit(OpMakeFunction, protoIdx, line)
}

func (c *compiler) compileClassDef(n *ast.ClassDef) {
	line := n.Pos().Line
	bc := &compiler{code: &Code{Name: n.Name, ModuleName: c.moduleName}, moduleName: c.moduleName}
	bc.compileBlock(n.Body.Stmts)
	bc.code.emit(OpReturnNone, 0, line)
	c.errs = append(c.errs, bc.errs...)

	c.code.emit(OpMarkFrame, 0, line)
	for _, b := range n.Bases {
		c.compileExpr(b)
	}
	protoIdx := len(c.code.ClassProtos)
	c.code.ClassProtos = append(c.code.ClassProtos, &ClassProto{Name: n.Name, Body: bc.code})
	c.code.emit(OpMakeClass, protoIdx, line)
	c.compileStoreName(n.Name, line)
}
