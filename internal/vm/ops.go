package vm

import (
	"github.com/ochom/vesper/internal/heap"
	"github.com/ochom/vesper/internal/token"
)

// binaryDunder maps a plain binary-operator token to the dunder method
// that implements it.
var binaryDunder = map[token.Type]string{
	token.PLUS:    "__add__",
	token.MINUS:   "__sub__",
	token.STAR:    "__mul__",
	token.SLASH:   "__truediv__",
	token.DSLASH:  "__floordiv__",
	token.PERCENT: "__mod__",
	token.DSTAR:   "__pow__",
	token.AMP:     "__and__",
	token.PIPE:    "__or__",
	token.CARET:   "__xor__",
	token.SHL:     "__lshift__",
	token.SHR:     "__rshift__",
}

// augDunder maps a compound-assignment token to its in-place dunder (tried
// first) and its plain fallback: an in-place method wins when the left
// operand defines one, otherwise the plain operator runs and rebinds the
// target.
var augDunder = map[token.Type]struct{ inplace, fallback string }{
	token.PLUSEQ:    {"__iadd__", "__add__"},
	token.MINUSEQ:   {"__isub__", "__sub__"},
	token.STAREQ:    {"__imul__", "__mul__"},
	token.SLASHEQ:   {"__itruediv__", "__truediv__"},
	token.DSLASHEQ:  {"__ifloordiv__", "__floordiv__"},
	token.PERCENTEQ: {"__imod__", "__mod__"},
	token.DSTAREQ:   {"__ipow__", "__pow__"},
	token.AMPEQ:     {"__iand__", "__and__"},
	token.PIPEEQ:    {"__ior__", "__or__"},
	token.CARETEQ:   {"__ixor__", "__xor__"},
	token.SHLEQ:     {"__ilshift__", "__lshift__"},
	token.SHREQ:     {"__irshift__", "__rshift__"},
}

var unaryDunder = map[token.Type]string{
	token.MINUS: "__neg__",
	token.PLUS:  "__pos__",
	token.TILDE: "__invert__",
}

var compareDunder = map[token.Type]string{
	token.LT: "__lt__",
	token.LE: "__le__",
	token.GT: "__gt__",
	token.GE: "__ge__",
	token.EQ: "__eq__",
	token.NE: "__ne__",
}

// reflectedCompare gives, for a comparison dunder, the method tried on the right
// operand with operands swapped when the left operand doesn't implement
// it.
var reflectedCompare = map[string]string{
	"__lt__": "__gt__", "__gt__": "__lt__",
	"__le__": "__ge__", "__ge__": "__le__",
	"__eq__": "__eq__", "__ne__": "__ne__",
}

func lookupMethod(o *heap.Object, name string) (*heap.Object, bool) {
	if o.Attrs == nil {
		return nil, false
	}
	return o.Attrs.Get(name)
}

// binaryOp implements OpBinaryOp for plain operator tokens: resolve the
// dunder for op on left and call it with right; a missing method or a
// NotImplemented result raises TypeError (no reflected method on the
// right operand is tried).
func (ctx *Context) binaryOp(op token.Type, left, right *heap.Object) (*heap.Object, error) {
	name, ok := binaryDunder[op]
	if !ok {
		return typeErr(ctx, "unsupported operator %q", op.String())
	}
	return ctx.dispatchBinary(name, left, right)
}

func (ctx *Context) dispatchBinary(name string, left, right *heap.Object) (*heap.Object, error) {
	if fn, ok := lookupMethod(left, name); ok {
		result, err := ctx.Call(fn, []*heap.Object{left, right}, nil)
		if err != nil {
			return nil, err
		}
		if result != ctx.notImplemented() {
			return result, nil
		}
	}
	return typeErr(ctx, "unsupported operand type(s) for %s: %q and %q", name, left.Tag, right.Tag)
}

// augOp implements the compound-assignment half of OpBinaryOp: op is one
// of the PLUSEQ-family tokens. The in-place dunder is tried first (and,
// if present, mutates left and returns it); otherwise the plain operator
// runs and produces a new value for the caller to store back.
func (ctx *Context) augOp(op token.Type, left, right *heap.Object) (*heap.Object, error) {
	pair, ok := augDunder[op]
	if !ok {
		return typeErr(ctx, "unsupported operator %q", op.String())
	}
	if fn, ok := lookupMethod(left, pair.inplace); ok {
		return ctx.Call(fn, []*heap.Object{left, right}, nil)
	}
	return ctx.dispatchBinary(pair.fallback, left, right)
}

// unaryOp implements OpUnaryOp.
func (ctx *Context) unaryOp(op token.Type, operand *heap.Object) (*heap.Object, error) {
	name, ok := unaryDunder[op]
	if !ok {
		return typeErr(ctx, "unsupported unary operator %q", op.String())
	}
	fn, ok := lookupMethod(operand, name)
	if !ok {
		return typeErr(ctx, "bad operand type for unary %s: %q", op.String(), operand.Tag)
	}
	return ctx.Call(fn, []*heap.Object{operand}, nil)
}

// compareOp implements OpCompareOp, trying left's dunder then falling
// back to the reflected dunder on right with swapped arguments.
func (ctx *Context) compareOp(op token.Type, left, right *heap.Object) (*heap.Object, error) {
	name, ok := compareDunder[op]
	if !ok {
		return typeErr(ctx, "unsupported comparison %q", op.String())
	}
	if fn, ok := lookupMethod(left, name); ok {
		result, err := ctx.Call(fn, []*heap.Object{left, right}, nil)
		if err != nil {
			return nil, err
		}
		if result != ctx.notImplemented() {
			return result, nil
		}
	}
	rname := reflectedCompare[name]
	if fn, ok := lookupMethod(right, rname); ok {
		return ctx.Call(fn, []*heap.Object{right, left}, nil)
	}
	return typeErr(ctx, "'%s' not supported between instances of %q and %q", op.String(), left.Tag, right.Tag)
}

// containsOp implements OpIn/OpNotIn via the container's __contains__.
func (ctx *Context) containsOp(elem, container *heap.Object, negate bool) (*heap.Object, error) {
	fn, ok := lookupMethod(container, "__contains__")
	if !ok {
		return typeErr(ctx, "argument of type %q is not iterable", container.Tag)
	}
	result, err := ctx.Call(fn, []*heap.Object{container, elem}, nil)
	if err != nil {
		return nil, err
	}
	truthy := ctx.IsTruthy(result)
	if negate {
		truthy = !truthy
	}
	return ctx.NewBool(truthy), nil
}

// identityOp implements OpIs/OpIsNot: primitive pointer identity, no
// dunder involved.
func (ctx *Context) identityOp(left, right *heap.Object, negate bool) *heap.Object {
	same := left == right
	if negate {
		same = !same
	}
	return ctx.NewBool(same)
}

// notImplemented is the sentinel a dunder method returns to signal "I
// don't know how to handle this operand, try the reflected side". It is a
// dedicated None-tagged marker distinct from the None singleton so callers
// can compare by pointer rather than by a magic string.
func (ctx *Context) notImplemented() *heap.Object {
	return ctx.notImplementedSingleton
}
