package parser

import "github.com/ochom/vesper/internal/ast"

// captureSets accumulates the name-use classification described in spec
// §4.2 "Capture resolution" while walking one function body: every name
// written to (by assignment, for-target, or def/class), every name merely
// referenced, and every name explicitly declared `global`/`nonlocal`.
type captureSets struct {
	written   map[string]bool
	referenced map[string]bool
	global    map[string]bool
	nonlocal  map[string]bool
}

func newCaptureSets() *captureSets {
	return &captureSets{
		written:    map[string]bool{},
		referenced: map[string]bool{},
		global:     map[string]bool{},
		nonlocal:   map[string]bool{},
	}
}

// resolveCaptures classifies fn's free variables into true locals, captures
// of an enclosing function's local (via a shared cell, for `nonlocal`), and
// captures of the module's globals (via `global` or a bare read of a name
// never written in this function), filling FunctionDef.Locals,
// LocalCaptures, and GlobalCaptures.
func resolveCaptures(fn *ast.FunctionDef) {
	cs := newCaptureSets()
	for _, p := range fn.Params.List {
		cs.written[p.Name] = true
	}
	walkBlockCapture(fn.Body, cs)

	var locals, localCaptures, globalCaptures []string
	seen := map[string]bool{}
	for name := range cs.written {
		if cs.nonlocal[name] {
			continue
		}
		if cs.global[name] {
			continue
		}
		if !seen[name] {
			locals = append(locals, name)
			seen[name] = true
		}
	}
	for name := range cs.nonlocal {
		localCaptures = append(localCaptures, name)
	}
	for name := range cs.global {
		globalCaptures = append(globalCaptures, name)
	}
	// A name that is only ever read, never written/declared in this
	// function, is resolved against the module globals at runtime.
	for name := range cs.referenced {
		if cs.written[name] || cs.nonlocal[name] || cs.global[name] {
			continue
		}
		globalCaptures = append(globalCaptures, name)
	}

	fn.Locals = locals
	fn.LocalCaptures = localCaptures
	fn.GlobalCaptures = dedupe(globalCaptures)
}

func dedupe(names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func walkBlockCapture(b ast.Block, cs *captureSets) {
	for _, s := range b.Stmts {
		walkStmtCapture(s, cs)
	}
}

func walkStmtCapture(s ast.Stmt, cs *captureSets) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		walkExprCapture(n.X, cs)
	case *ast.AssignStmt:
		walkExprCapture(n.Value, cs)
		walkTargetCapture(n.Target, cs)
	case *ast.AugAssignStmt:
		walkExprCapture(n.Value, cs)
		// A compound assignment both reads and writes its target.
		walkTargetCapture(n.Target, cs)
		walkTargetAsRead(n.Target, cs)
	case *ast.ReturnStmt:
		if n.Value != nil {
			walkExprCapture(n.Value, cs)
		}
	case *ast.RaiseStmt:
		if n.X != nil {
			walkExprCapture(n.X, cs)
		}
	case *ast.GlobalStmt:
		for _, name := range n.Names {
			cs.global[name] = true
		}
	case *ast.NonlocalStmt:
		for _, name := range n.Names {
			cs.nonlocal[name] = true
		}
	case *ast.ImportStmt:
		name := n.Alias
		if name == "" {
			name = n.Name
		}
		cs.written[name] = true
	case *ast.ImportFromStmt:
		for _, item := range n.Items {
			name := item.Alias
			if name == "" {
				name = item.Name
			}
			cs.written[name] = true
		}
	case *ast.IfStmt:
		walkExprCapture(n.Cond, cs)
		walkBlockCapture(n.Then, cs)
		walkBlockCapture(n.Else, cs)
	case *ast.WhileStmt:
		walkExprCapture(n.Cond, cs)
		walkBlockCapture(n.Body, cs)
		walkBlockCapture(n.Else, cs)
	case *ast.TryStmt:
		walkBlockCapture(n.Body, cs)
		for _, ex := range n.Excepts {
			if ex.Type != nil {
				walkExprCapture(ex.Type, cs)
			}
			if ex.Name != "" {
				cs.written[ex.Name] = true
			}
			walkBlockCapture(ex.Body, cs)
		}
		walkBlockCapture(n.Finally, cs)
	case *ast.FunctionDef:
		// A nested def's own free variables are resolved independently by
		// a later resolveCaptures call over n itself; from the enclosing
		// function's point of view, the def name is simply assigned, and
		// any of the enclosing function's locals that the nested function
		// captures (via LocalCaptures, once resolved) turn into a local
		// this function must keep alive in a cell. Capture propagation is
		// driven top-down by the compiler from the already-resolved
		// Locals/LocalCaptures of each nested def, so only the binding
		// itself is recorded here.
		cs.written[n.Name] = true
	case *ast.ClassDef:
		cs.written[n.Name] = true
		for _, b := range n.Bases {
			walkExprCapture(b, cs)
		}
	case *ast.PassStmt, *ast.BreakStmt, *ast.ContinueStmt:
		// no names
	}
}

// walkTargetCapture records the names a target binds (written), recursing
// into index/attribute targets' owner expressions (which are reads, not
// writes) and into nested pack elements.
func walkTargetCapture(t ast.Target, cs *captureSets) {
	switch n := t.(type) {
	case *ast.NameTarget:
		cs.written[n.Name] = true
	case *ast.IndexTarget:
		walkExprCapture(n.X, cs)
		walkExprCapture(n.Index, cs)
	case *ast.AttributeTarget:
		walkExprCapture(n.X, cs)
	case *ast.PackTarget:
		for _, el := range n.Elems {
			walkTargetCapture(el, cs)
		}
	}
}

// walkTargetAsRead additionally marks a NameTarget as referenced, since
// `x += 1` reads the prior value of x as well as writing it.
func walkTargetAsRead(t ast.Target, cs *captureSets) {
	if n, ok := t.(*ast.NameTarget); ok {
		cs.referenced[n.Name] = true
	}
}

func walkExprCapture(e ast.Expr, cs *captureSets) {
	switch n := e.(type) {
	case *ast.Ident:
		cs.referenced[n.Name] = true
	case *ast.NamedExpr:
		cs.written[n.Name] = true
		walkExprCapture(n.Value, cs)
	case *ast.TupleLit:
		for _, el := range n.Elems {
			walkExprCapture(el, cs)
		}
	case *ast.ListLit:
		for _, el := range n.Elems {
			walkExprCapture(el, cs)
		}
	case *ast.SetLit:
		for _, el := range n.Elems {
			walkExprCapture(el, cs)
		}
	case *ast.DictLit:
		for _, entry := range n.Entries {
			walkExprCapture(entry.Key, cs)
			walkExprCapture(entry.Value, cs)
		}
	case *ast.UnaryExpr:
		walkExprCapture(n.X, cs)
	case *ast.BinaryExpr:
		walkExprCapture(n.Left, cs)
		walkExprCapture(n.Right, cs)
	case *ast.BoolOp:
		walkExprCapture(n.Left, cs)
		walkExprCapture(n.Right, cs)
	case *ast.Conditional:
		walkExprCapture(n.Cond, cs)
		walkExprCapture(n.Then, cs)
		walkExprCapture(n.Else, cs)
	case *ast.CallExpr:
		walkExprCapture(n.Func, cs)
		for _, a := range n.Args {
			walkExprCapture(a, cs)
		}
		if n.Star != nil {
			walkExprCapture(n.Star, cs)
		}
		for _, kw := range n.Kwargs {
			walkExprCapture(kw.Value, cs)
		}
		if n.DStar != nil {
			walkExprCapture(n.DStar, cs)
		}
	case *ast.AttributeExpr:
		walkExprCapture(n.X, cs)
	case *ast.IndexExpr:
		walkExprCapture(n.X, cs)
		walkExprCapture(n.Index, cs)
	case *ast.SliceExpr:
		walkExprCapture(n.X, cs)
		if n.Low != nil {
			walkExprCapture(n.Low, cs)
		}
		if n.High != nil {
			walkExprCapture(n.High, cs)
		}
		if n.Step != nil {
			walkExprCapture(n.Step, cs)
		}
	case *ast.LambdaExpr:
		// A lambda's own free variables are resolved independently (it is
		// compiled the same as a def); from the enclosing scope's view it
		// only reads whatever default-value expressions it carries.
		for _, p := range n.Params.List {
			if p.Default != nil {
				walkExprCapture(p.Default, cs)
			}
		}
	}
}
