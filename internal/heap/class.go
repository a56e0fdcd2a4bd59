package heap

// Class is the payload of Tag __class. Every attribute — data, method, or
// class-var — resolves through the same Template AttrTable lookup rather
// than separate per-kind tables.
type Class struct {
	Name       string
	ModuleName string

	// Constructor allocates a fresh Instance, derives its attribute table
	// from Template, and (if present) calls __init__. It is the "raw
	// callable" invoked when the class is called as a factory.
	Constructor Native

	Userdata any

	// Bases is the ordered vector of base classes; Template's parent
	// chain mirrors this order so attribute resolution and Bases never
	// disagree.
	Bases []*Class

	// Template is the attribute table every instance derives from via
	// AttrTable.Derive. Its parent chain is Bases[i].Template in order.
	Template *AttrTable

	// Self is the canonical Object wrapping this Class, set once by
	// whoever first allocates it (MAKE_CLASS, exception-hierarchy setup,
	// built-in type registration). The `type` built-in returns Self rather
	// than allocating a fresh wrapper, so `type(x) is MyClass` holds.
	Self *Object
}

// Instance is the payload of a user class's instances: Tag equals the
// owning class's name rather than one of the built-in tags.
type Instance struct {
	Class *Class
}

// Super is the payload of Tag __super, returned by the `super` built-in.
// Attribute access on it skips Class's own template entries and resumes
// the search at Class's bases, then binds whatever it finds to Self — the
// Go-level equivalent of Python's explicit two-argument super(Class, self).
type Super struct {
	Self  *Object
	Class *Class
}

// NewClass creates a class whose template parent chain mirrors bases, in
// declaration order for depth-first attribute lookup.
func NewClass(name, moduleName string, bases []*Class) *Class {
	parents := make([]*AttrTable, len(bases))
	for i, b := range bases {
		parents[i] = b.Template
	}
	return &Class{
		Name:       name,
		ModuleName: moduleName,
		Bases:      bases,
		Template:   NewAttrTable(parents...),
	}
}

// IsSubclassOf reports whether c is base or descends from it through Bases,
// depth-first, matching Template's lookup order.
func (c *Class) IsSubclassOf(base *Class) bool {
	if c == base {
		return true
	}
	for _, b := range c.Bases {
		if b.IsSubclassOf(base) {
			return true
		}
	}
	return false
}

// Module is the payload of Tag __module: its attributes are the module's
// globals.
type Module struct {
	Name  string
	Attrs *AttrTable
}
