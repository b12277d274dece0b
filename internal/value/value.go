package value

// Value is a sealed interface representing the values lesson content produces.
// Only Nil, Bool, Int, Float, String, Symbol, Array, Blank, *Class and
// *Instance implement this.
type Value interface {
	value() // Sealed - only these types implement it
}

// Nil is the absence of a value. Unassigned destructuring targets and unset
// instance variables read as Nil.
type Nil struct{}

func (Nil) value() {}

// Bool represents true or false.
type Bool bool

func (Bool) value() {}

// Int represents an integer value.
type Int int64

func (Int) value() {}

// Float represents a floating point value.
type Float float64

func (Float) value() {}

// String represents a string value.
type String string

func (String) value() {}

// Symbol represents an interned name such as :name or :@name.
// The stored text excludes the leading colon.
type Symbol string

func (Symbol) value() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) value() {}

// Blank is the "fill me in" placeholder a learner replaces with an answer.
// It is never equal to anything, including another Blank.
type Blank struct{}

func (Blank) value() {}

// Class identifies a declared or builtin class.
// Classes compare by identity. Superclass is nil only for Object.
type Class struct {
	Name       string
	Superclass *Class
}

func (*Class) value() {}

// Instance is an object created from a declared class.
// Instances compare by identity.
type Instance struct {
	Class *Class

	names []string // ivar names in first-assignment order
	ivars map[string]Value
}

func (*Instance) value() {}

// NewInstance creates an instance of c with no instance variables.
func NewInstance(c *Class) *Instance {
	return &Instance{
		Class: c,
		ivars: make(map[string]Value),
	}
}

// Ivar returns the instance variable with the given name (including the '@').
func (i *Instance) Ivar(name string) (Value, bool) {
	v, ok := i.ivars[name]
	return v, ok
}

// SetIvar assigns an instance variable. New names are appended to the
// declaration order; existing names keep their position.
func (i *Instance) SetIvar(name string, v Value) {
	if _, ok := i.ivars[name]; !ok {
		i.names = append(i.names, name)
	}
	i.ivars[name] = v
}

// Ivars returns instance variable names in first-assignment order.
func (i *Instance) Ivars() []string {
	out := make([]string, len(i.names))
	copy(out, i.names)
	return out
}

// Builtin classes. Object is the root; Integer and Float descend from
// Numeric.
var (
	ClassObject  = &Class{Name: "Object"}
	ClassNumeric = &Class{Name: "Numeric", Superclass: ClassObject}
	ClassNil     = &Class{Name: "NilClass", Superclass: ClassObject}
	ClassTrue    = &Class{Name: "TrueClass", Superclass: ClassObject}
	ClassFalse   = &Class{Name: "FalseClass", Superclass: ClassObject}
	ClassInt     = &Class{Name: "Integer", Superclass: ClassNumeric}
	ClassFloat   = &Class{Name: "Float", Superclass: ClassNumeric}
	ClassString  = &Class{Name: "String", Superclass: ClassObject}
	ClassSymbol  = &Class{Name: "Symbol", Superclass: ClassObject}
	ClassArray   = &Class{Name: "Array", Superclass: ClassObject}
	ClassClass   = &Class{Name: "Class", Superclass: ClassObject}
)

// BuiltinClass looks up a builtin class by name.
func BuiltinClass(name string) (*Class, bool) {
	for _, c := range []*Class{
		ClassObject, ClassNumeric, ClassNil, ClassTrue, ClassFalse, ClassInt,
		ClassFloat, ClassString, ClassSymbol, ClassArray, ClassClass,
	} {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NewClass creates a declared class. Declared classes descend from Object.
func NewClass(name string) *Class {
	return &Class{Name: name, Superclass: ClassObject}
}

// DescendsFrom reports whether c is ancestor or one of its subclasses.
func (c *Class) DescendsFrom(ancestor *Class) bool {
	for k := c; k != nil; k = k.Superclass {
		if k == ancestor {
			return true
		}
	}
	return false
}

// ClassOf returns the class of any value.
// Blank has no class and returns nil.
func ClassOf(v Value) *Class {
	switch val := v.(type) {
	case Nil:
		return ClassNil
	case Bool:
		if val {
			return ClassTrue
		}
		return ClassFalse
	case Int:
		return ClassInt
	case Float:
		return ClassFloat
	case String:
		return ClassString
	case Symbol:
		return ClassSymbol
	case Array:
		return ClassArray
	case *Class:
		return ClassClass
	case *Instance:
		return val.Class
	default:
		return nil
	}
}

// Truthy reports whether v counts as true in a condition.
// Only Nil and false are falsy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return bool(val)
	default:
		return true
	}
}

// ContainsBlank reports whether v is a Blank or an array holding one at any depth.
func ContainsBlank(v Value) bool {
	switch val := v.(type) {
	case Blank:
		return true
	case Array:
		for _, elem := range val {
			if ContainsBlank(elem) {
				return true
			}
		}
	}
	return false
}
