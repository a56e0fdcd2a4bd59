package heap

// ParamKind mirrors compiler.ParamKind: whether a parameter is a regular
// positional-or-keyword slot, *args, or **kwargs.
type ParamKind int

const (
	ParamRegular ParamKind = iota
	ParamVarPositional
	ParamVarKeyword
)

// Param is one entry of a compiled definition's parameter list.
type Param struct {
	Name string
	Kind ParamKind
}

// Cell is a shared, reference-counted single-slot mutable container
// realizing nonlocal semantics: a closure and its defining scope read and
// write through the same Cell.
type Cell struct {
	Value *Object
}

// Def is a compiled definition: the output of compiling one function
// body, shared by every closure created from it.
type Def struct {
	ModuleName  string
	DisplayName string
	Code        any // *compiler.Code; any to avoid an import cycle with internal/compiler
	Params      []Param
	Defaults    []*Object // trailing regular parameters' default values
	Locals      []string
	LocalCaptures  []string
	GlobalCaptures []string
}

// Native is a host-registered Go function: raw args/kwargs in, a single
// Object or an error out. A plain variadic Object signature suffices
// since every Vesper value already carries its own tag.
type Native func(ctx Context, args []*Object, kwargs *Map) (*Object, error)

// Function is the payload of Tag __func. Either Def or Native is set, not
// both. An unbound method has IsMethod true and Self nil; attribute access
// from an instance produces a new Function value with Self set
// (duplication, not mutation).
type Function struct {
	Def      *Def
	Native   Native
	Userdata any

	ModuleName  string
	DisplayName string
	IsMethod    bool
	Self        *Object

	// Captures maps a captured name to the shared cell it reads/writes
	// through, copied from the defining environment at MAKE_FUNCTION time.
	Captures map[string]*Cell
}

// Bind returns a copy of f with Self set to self, used when attribute
// access resolves an unbound method on an instance.
func (f *Function) Bind(self *Object) *Function {
	cp := *f
	cp.Self = self
	return &cp
}
