package ast

import "github.com/ochom/vesper/internal/token"

// Ident is a bare name reference.
type Ident struct {
	BaseNode
	ExprTag
	Name string
}

// IntLit is an integer literal.
type IntLit struct {
	BaseNode
	ExprTag
	Value int64
}

// FloatLit is a float literal.
type FloatLit struct {
	BaseNode
	ExprTag
	Value float64
}

// StringLit is a string literal; Value is already escape-decoded.
type StringLit struct {
	BaseNode
	ExprTag
	Value string
}

// BoolLit is True/False.
type BoolLit struct {
	BaseNode
	ExprTag
	Value bool
}

// NoneLit is the None literal.
type NoneLit struct {
	BaseNode
	ExprTag
}

// TupleLit is `(a, b, c)`.
type TupleLit struct {
	BaseNode
	ExprTag
	Elems []Expr
}

// ListLit is `[a, b, c]`.
type ListLit struct {
	BaseNode
	ExprTag
	Elems []Expr
}

// DictEntry is one `key: value` pair of a dict literal.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictLit is `{k: v, ...}`.
type DictLit struct {
	BaseNode
	ExprTag
	Entries []DictEntry
}

// SetLit is `{a, b, c}` (distinguished from DictLit by having no colons).
type SetLit struct {
	BaseNode
	ExprTag
	Elems []Expr
}

// UnaryExpr is `+x`, `-x`, `~x`, `not x`.
type UnaryExpr struct {
	BaseNode
	ExprTag
	Op token.Type
	X  Expr
}

// BinaryExpr is any left-associative (except Pow) binary operator,
// including comparisons, `in`/`not in`, `is`/`is not`.
type BinaryExpr struct {
	BaseNode
	ExprTag
	Op    token.Type
	Not   bool // true for "not in" / "is not": negate the primitive result
	Left  Expr
	Right Expr
}

// BoolOp is short-circuit `and`/`or`.
type BoolOp struct {
	BaseNode
	ExprTag
	Op    token.Type // AND or OR
	Left  Expr
	Right Expr
}

// Conditional is `x if c else y`.
type Conditional struct {
	BaseNode
	ExprTag
	Cond Expr
	Then Expr
	Else Expr
}

// NamedExpr is a walrus assignment-expression `name := value`: it assigns
// Value to Name as a side effect and evaluates to Value.
type NamedExpr struct {
	BaseNode
	ExprTag
	Name  string
	Value Expr
}

// Kwarg is one `name=value` call argument.
type Kwarg struct {
	Name  string
	Value Expr
}

// CallExpr is `f(args..., *star, kw=val, **dstar)`.
type CallExpr struct {
	BaseNode
	ExprTag
	Func   Expr
	Args   []Expr
	Star   Expr // non-nil if a *args unpack is present
	Kwargs []Kwarg
	DStar  Expr // non-nil if a **kwargs unpack is present
}

// AttributeExpr is `x.name` used as a value (see AttributeTarget for the
// assignment-target form).
type AttributeExpr struct {
	BaseNode
	ExprTag
	X    Expr
	Name string
}

// IndexExpr is `x[i]` used as a value.
type IndexExpr struct {
	BaseNode
	ExprTag
	X     Expr
	Index Expr
}

// SliceExpr is `x[a:b:c]`; any of Low/High/Step may be nil.
type SliceExpr struct {
	BaseNode
	ExprTag
	X    Expr
	Low  Expr
	High Expr
	Step Expr
}

// LambdaExpr is `lambda params: body`.
type LambdaExpr struct {
	BaseNode
	ExprTag
	Params Params
	Body   Expr
}

// Param is one function parameter.
type Param struct {
	Name    string
	Kind    ParamKind
	Default Expr // non-nil only for trailing regular params with a default
}

// ParamKind classifies a parameter: regular, *args, or **kwargs.
type ParamKind int

const (
	ParamRegular ParamKind = iota
	ParamVarPositional
	ParamVarKeyword
)

// Params is an ordered parameter list.
type Params struct {
	List []Param
}
