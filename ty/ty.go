// Package ty is the structural type model shared by inference, completion and documentation.
//
// Types form a closed set: Unknown, Primitive, StringLiteral, Class, Array, *Function and *Union.
// Operations switch exhaustively over that set.
package ty

// Type is implemented by every type variant.
type Type interface {
	typ()
}

type unknownType struct{}

// Unknown is the result of inference that failed or was left unresolved. It renders as "any".
var Unknown Type = unknownType{}

// Primitive is a built-in scalar kind such as number or string.
type Primitive struct {
	Name string
}

// Primitive types.
var (
	Nil      = Primitive{Name: "nil"}
	Boolean  = Primitive{Name: "boolean"}
	Number   = Primitive{Name: "number"}
	String   = Primitive{Name: "string"}
	Table    = Primitive{Name: "table"}
	Void     = Primitive{Name: "void"}
	Thread   = Primitive{Name: "thread"}
	Userdata = Primitive{Name: "userdata"}
)

var primitives = map[string]Primitive{
	"nil": Nil, "boolean": Boolean, "bool": Boolean, "number": Number, "integer": Number,
	"string": String, "table": Table, "void": Void, "thread": Thread, "userdata": Userdata,
}

// LookupPrimitive returns the primitive named name.
func LookupPrimitive(name string) (Primitive, bool) {
	p, ok := primitives[name]

	return p, ok
}

// StringLiteral is a string narrowed to one exact value. It is compatible with String.
type StringLiteral struct {
	// Content is the decoded value, without quotes.
	Content string
}

// Class is a nominal type. Members and the supertype are resolved by name through an index.
type Class struct {
	Name  string
	Super string
}

// Array is a sequence of Elem.
type Array struct {
	Elem Type
}

// Param is one parameter of a signature.
type Param struct {
	Name     string
	Type     Type
	Optional bool
}

// Signature is one callable shape of a function.
type Signature struct {
	Params []Param
	Return Type
}

// Function is a callable with one or more signatures. The first signature is the main one.
type Function struct {
	Signatures []Signature
	// MethodCall marks the colon convention: the receiver is implicit.
	MethodCall bool
}

// NewFunction returns a function type. A function always has at least one signature.
func NewFunction(method bool, sigs ...Signature) *Function {
	if len(sigs) == 0 {
		sigs = []Signature{{Return: Void}}
	}

	return &Function{Signatures: sigs, MethodCall: method}
}

// Main returns the first signature.
func (f *Function) Main() Signature {
	return f.Signatures[0]
}

// WithOverloads returns a copy of f with extra signatures appended after the existing ones.
func (f *Function) WithOverloads(sigs ...Signature) *Function {
	all := make([]Signature, 0, len(f.Signatures)+len(sigs))
	all = append(all, f.Signatures...)
	all = append(all, sigs...)

	return &Function{Signatures: all, MethodCall: f.MethodCall}
}

// Union is one of several types. Build it with NewUnion: a Union never contains another Union
// or duplicate members, and always has at least two members.
type Union struct {
	members []Type
}

// Members returns the flattened members in first-seen order.
func (u *Union) Members() []Type {
	return u.members
}

func (unknownType) typ()   {}
func (Primitive) typ()     {}
func (StringLiteral) typ() {}
func (Class) typ()         {}
func (Array) typ()         {}
func (*Function) typ()     {}
func (*Union) typ()        {}

// NewUnion flattens nested unions and drops duplicates by structural equality.
// Unknown members are absorbed when any known member exists. A single member is returned as is
// and no members yields Unknown.
//
//nolint:ireturn // The union may normalise to any variant.
func NewUnion(types ...Type) Type {
	var members []Type

	var add func(t Type)

	add = func(t Type) {
		switch x := t.(type) {
		case nil, unknownType:
			return
		case *Union:
			for _, m := range x.members {
				add(m)
			}
		default:
			for _, m := range members {
				if Equal(m, t) {
					return
				}
			}

			members = append(members, t)
		}
	}

	for _, t := range types {
		add(t)
	}

	switch len(members) {
	case 0:
		return Unknown
	case 1:
		return members[0]
	default:
		return &Union{members: members}
	}
}

// Each calls fn once per flattened member of t; a non-union type yields itself.
// Iteration stops when fn returns false.
func Each(t Type, fn func(Type) bool) {
	if u, ok := t.(*Union); ok {
		for _, m := range u.members {
			if !fn(m) {
				return
			}
		}

		return
	}

	if t == nil {
		t = Unknown
	}

	fn(t)
}

// IsUnknown reports whether t is Unknown or nil.
func IsUnknown(t Type) bool {
	return t == nil || t == Unknown
}

// Equal reports structural equality.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case unknownType, Primitive, StringLiteral, Class:
		return a == b
	case Array:
		y, ok := b.(Array)

		return ok && Equal(x.Elem, y.Elem)
	case *Function:
		y, ok := b.(*Function)
		if !ok || x.MethodCall != y.MethodCall || len(x.Signatures) != len(y.Signatures) {
			return false
		}

		for i := range x.Signatures {
			if !equalSignature(x.Signatures[i], y.Signatures[i]) {
				return false
			}
		}

		return true
	case *Union:
		y, ok := b.(*Union)
		if !ok || len(x.members) != len(y.members) {
			return false
		}

		for _, m := range x.members {
			found := false

			for _, n := range y.members {
				if Equal(m, n) {
					found = true

					break
				}
			}

			if !found {
				return false
			}
		}

		return true
	default:
		return false
	}
}

func equalSignature(a, b Signature) bool {
	if len(a.Params) != len(b.Params) || !Equal(a.Return, b.Return) {
		return false
	}

	for i := range a.Params {
		if a.Params[i].Name != b.Params[i].Name || a.Params[i].Optional != b.Params[i].Optional ||
			!Equal(a.Params[i].Type, b.Params[i].Type) {
			return false
		}
	}

	return true
}

// Accepts reports whether a value of type t fits where want is expected, ignoring class hierarchy.
func Accepts(want, t Type) bool {
	if IsUnknown(want) || IsUnknown(t) {
		return true
	}

	ok := false

	Each(want, func(w Type) bool {
		Each(t, func(m Type) bool {
			if Equal(w, m) || (w == String && isStringLiteral(m)) {
				ok = true
			}

			return !ok
		})

		return !ok
	})

	return ok
}

func isStringLiteral(t Type) bool {
	_, ok := t.(StringLiteral)

	return ok
}
