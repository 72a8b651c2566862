package analysis

import (
	"github.com/rlch/luna"
	"github.com/rlch/luna/ty"
)

// maxDepth bounds resolution chains that are not cycles but would still be unreasonably deep.
const maxDepth = 64

// SearchContext resolves types against an index. It tracks the nodes currently being resolved
// so that cyclic declarations degrade to ty.Unknown instead of recursing forever.
// A SearchContext is not safe for concurrent use; create one per request.
type SearchContext struct {
	Index *Index

	visiting map[luna.Node]bool
	depth    int
}

// NewSearchContext creates a context reading from idx. idx may be nil for single-file inference.
func NewSearchContext(idx *Index) *SearchContext {
	if idx == nil {
		idx = NewIndex()
	}

	return &SearchContext{Index: idx, visiting: make(map[luna.Node]bool)}
}

// enter marks n as being resolved; the returned func must be called when done.
func (ctx *SearchContext) enter(n luna.Node) (func(), bool) {
	if n == nil || ctx.visiting[n] || ctx.depth >= maxDepth {
		return nil, false
	}

	ctx.visiting[n] = true
	ctx.depth++

	return func() {
		delete(ctx.visiting, n)
		ctx.depth--
	}, true
}

// Infer returns the static type of an expression or declaration node.
//
//nolint:ireturn,cyclop,funlen // Exhaustive over node kinds.
func (ctx *SearchContext) Infer(n luna.Node) ty.Type {
	done, ok := ctx.enter(n)
	if !ok {
		return ty.Unknown
	}
	defer done()

	switch x := n.(type) {
	case *luna.LiteralExpr:
		return literalType(x)
	case *luna.NameExpr:
		return ctx.inferName(x)
	case *luna.NameDef:
		return ctx.inferNameDef(x)
	case *luna.ParamDef:
		return ctx.inferParam(x)
	case *luna.IndexExpr:
		return ctx.inferIndex(x)
	case *luna.CallExpr:
		return ctx.inferCall(x)
	case *luna.FuncExpr:
		return ctx.FunctionType(x.Body, ownerComment(x), false)
	case *luna.FuncStat:
		return ctx.FunctionType(x.Body, x.Doc, x.IsMethod())
	case *luna.LocalFuncStat:
		return ctx.FunctionType(x.Body, x.Doc, false)
	case *luna.TableExpr:
		return ctx.inferTable(x)
	case *luna.TableField:
		return ctx.Infer(x.Value)
	case *luna.BinaryExpr:
		return ctx.inferBinary(x)
	case *luna.UnaryExpr:
		if x.Op == "not" {
			return ty.Boolean
		}

		return ty.Number
	case *luna.ParenExpr:
		return ctx.Infer(x.X)
	case *luna.FieldTag:
		return ctx.DocType(x.Type)
	case *luna.ClassTag:
		return ty.Class{Name: x.Name, Super: x.Super}
	case *luna.ParamTag:
		return ctx.DocType(x.Type)
	default:
		return ty.Unknown
	}
}

func literalType(x *luna.LiteralExpr) ty.Type {
	switch x.Kind {
	case luna.LiteralNil:
		return ty.Nil
	case luna.LiteralTrue, luna.LiteralFalse:
		return ty.Boolean
	case luna.LiteralNumber:
		return ty.Number
	case luna.LiteralString:
		return ty.String
	default:
		return ty.Unknown
	}
}

//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) inferName(x *luna.NameExpr) ty.Type {
	if x.Name == "self" {
		if t := ctx.selfType(x); !ty.IsUnknown(t) {
			return t
		}
	}

	if decl := ResolveLocal(x); decl != nil {
		return ctx.Infer(decl)
	}

	var types []ty.Type

	for _, g := range ctx.Index.FindGlobal(x.Name) {
		types = append(types, ctx.GlobalType(g))
	}

	return ty.NewUnion(types...)
}

// selfType is the class of the receiver of the enclosing `function C:m()`.
//
//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) selfType(x luna.Node) ty.Type {
	for p := x.Parent(); p != nil; p = p.Parent() {
		switch f := p.(type) {
		case *luna.FuncExpr, *luna.LocalFuncStat:
			return ty.Unknown
		case *luna.FuncStat:
			if !f.IsMethod() {
				return ty.Unknown
			}

			idx, _ := f.Name.(*luna.IndexExpr)

			return ctx.Infer(idx.X)
		}
	}

	return ty.Unknown
}

// GlobalType returns the annotated or inferred type of a global declaration.
//
//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) GlobalType(g *GlobalEntry) ty.Type {
	if t := ctx.annotated(g.Doc); t != nil {
		return t
	}

	if g.Value != nil {
		return ctx.Infer(g.Value)
	}

	return ctx.Infer(g.Node)
}

// annotated returns the type a statement comment declares through @class or @type, or nil.
//
//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) annotated(doc *luna.Comment) ty.Type {
	if doc == nil {
		return nil
	}

	if cls := doc.Class(); cls != nil {
		return ty.Class{Name: cls.Name, Super: cls.Super}
	}

	if t := doc.Type(); t != nil && t.Type != nil {
		return ctx.DocType(t.Type)
	}

	return nil
}

//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) inferNameDef(d *luna.NameDef) ty.Type {
	switch s := d.Parent().(type) {
	case *luna.LocalStat:
		i := 0

		for j, n := range s.Names {
			if n == d {
				i = j
			}
		}

		if i == 0 {
			if t := ctx.annotated(s.Doc); t != nil {
				return t
			}
		}

		return ctx.valueAt(s.Exprs, i)
	case *luna.LocalFuncStat:
		return ctx.Infer(s)
	case *luna.NumericForStat:
		return ty.Number
	default:
		return ty.Unknown
	}
}

// valueAt infers the i-th value of an expression list. Values past the end come from the
// last expression when it is a call; only its first return value is modelled.
//
//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) valueAt(exprs []luna.Expr, i int) ty.Type {
	if i < len(exprs) {
		return ctx.Infer(exprs[i])
	}

	return ty.Nil
}

//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) inferParam(p *luna.ParamDef) ty.Type {
	body, ok := p.Parent().(*luna.FuncBody)
	if !ok {
		return ty.Unknown
	}

	if doc := FuncComment(body); doc != nil {
		if tag := doc.Param(p.Name); tag != nil {
			return ctx.DocType(tag.Type)
		}
	}

	// An anonymous function passed where a function type is expected takes its parameter types.
	fx, ok := body.Parent().(*luna.FuncExpr)
	if !ok {
		return ty.Unknown
	}

	pos := -1

	for i, prm := range body.Params {
		if prm == p {
			pos = i
		}
	}

	var types []ty.Type

	ty.Each(ctx.ShouldBe(fx), func(t ty.Type) bool {
		if f, ok := t.(*ty.Function); ok && pos >= 0 && pos < len(f.Main().Params) {
			types = append(types, f.Main().Params[pos].Type)
		}

		return true
	})

	return ty.NewUnion(types...)
}

// FuncComment returns the doc comment of the statement declaring body, or nil.
func FuncComment(body *luna.FuncBody) *luna.Comment {
	switch f := body.Parent().(type) {
	case *luna.FuncStat:
		return f.Doc
	case *luna.LocalFuncStat:
		return f.Doc
	case *luna.FuncExpr:
		return ownerComment(f)
	}

	return nil
}

// ownerComment returns the comment of `local f = function() end` style declarations.
func ownerComment(x luna.Expr) *luna.Comment {
	switch s := x.Parent().(type) {
	case *luna.LocalStat:
		return s.Doc
	case *luna.AssignStat:
		return s.Doc
	}

	return nil
}

//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) inferIndex(x *luna.IndexExpr) ty.Type {
	name := x.Name

	if x.Key != nil {
		lit, ok := x.Key.(*luna.LiteralExpr)
		if !ok || lit.Kind != luna.LiteralString {
			var elems []ty.Type

			ty.Each(ctx.Infer(x.X), func(t ty.Type) bool {
				if arr, ok := t.(ty.Array); ok {
					elems = append(elems, arr.Elem)
				}

				return true
			})

			return ty.NewUnion(elems...)
		}

		name = lit.Value
	}

	var types []ty.Type

	ty.Each(ctx.Infer(x.X), func(t ty.Type) bool {
		if cls, ok := t.(ty.Class); ok {
			types = append(types, ctx.MemberType(cls.Name, name))
		}

		return true
	})

	return ty.NewUnion(types...)
}

// MemberType returns the type of member name of class, searching supertypes.
//
//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) MemberType(class, name string) ty.Type {
	m, ok := ctx.Index.FindMember(class, name)
	if !ok {
		return ty.Unknown
	}

	return ctx.MemberEntryType(m)
}

// MemberEntryType returns the type of an indexed member.
//
//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) MemberEntryType(m *MemberEntry) ty.Type {
	if _, isFunc := m.Node.(*luna.FuncStat); !isFunc {
		if t := ctx.annotated(m.Doc); t != nil {
			return t
		}
	}

	if m.Value != nil {
		return ctx.Infer(m.Value)
	}

	return ctx.Infer(m.Node)
}

//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) inferCall(x *luna.CallExpr) ty.Type {
	var types []ty.Type

	ty.Each(ctx.Infer(x.Fn), func(t ty.Type) bool {
		if f, ok := t.(*ty.Function); ok {
			types = append(types, ctx.SelectSignature(f, x).Return)
		}

		return true
	})

	return ty.NewUnion(types...)
}

// SelectSignature picks the first signature whose arity accepts the call's arguments,
// falling back to the main signature.
func (ctx *SearchContext) SelectSignature(f *ty.Function, call *luna.CallExpr) ty.Signature {
	nargs := len(call.Args) + ArgShift(f, call)

	for _, sig := range f.Signatures {
		required, variadic := 0, false

		for _, p := range sig.Params {
			if p.Name == "..." {
				variadic = true

				continue
			}

			if !p.Optional {
				required++
			}
		}

		if nargs >= required && (variadic || nargs <= len(sig.Params)) {
			return sig
		}
	}

	return f.Main()
}

// ArgShift adjusts argument positions between colon and dot calling conventions.
func ArgShift(f *ty.Function, call *luna.CallExpr) int {
	switch {
	case f.MethodCall && !call.IsMethodCall():
		return -1
	case !f.MethodCall && call.IsMethodCall():
		return 1
	default:
		return 0
	}
}

//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) inferTable(x *luna.TableExpr) ty.Type {
	if len(x.Fields) == 0 {
		return ty.Table
	}

	var elems []ty.Type

	for _, f := range x.Fields {
		if f.Name != "" || f.Key != nil {
			return ty.Table
		}

		elems = append(elems, ctx.Infer(f.Value))
	}

	return ty.Array{Elem: ty.NewUnion(elems...)}
}

//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) inferBinary(x *luna.BinaryExpr) ty.Type {
	switch x.Op {
	case "or":
		return ty.NewUnion(ctx.Infer(x.X), ctx.Infer(x.Y))
	case "and":
		return ctx.Infer(x.Y)
	case "..":
		return ty.String
	case "==", "~=", "<", ">", "<=", ">=":
		return ty.Boolean
	default:
		return ty.Number
	}
}

// FunctionType builds the type of a function from its body and doc comment.
// @param and @return annotations win over structural inference; each @overload adds a signature.
func (ctx *SearchContext) FunctionType(body *luna.FuncBody, doc *luna.Comment, method bool) *ty.Function {
	if body == nil {
		return ty.NewFunction(method)
	}

	sig := ty.Signature{}

	for _, p := range body.Params {
		param := ty.Param{Name: p.Name, Type: ty.Unknown}

		if tag := doc.Param(p.Name); tag != nil {
			param.Type = ctx.DocType(tag.Type)
			param.Optional = tag.Optional
		}

		sig.Params = append(sig.Params, param)
	}

	if body.Vararg {
		param := ty.Param{Name: "...", Type: ty.Unknown, Optional: true}

		if tag := doc.Param("..."); tag != nil {
			param.Type = ctx.DocType(tag.Type)
		}

		sig.Params = append(sig.Params, param)
	}

	sig.Return = ctx.returnType(body, doc)
	fn := ty.NewFunction(method, sig)

	var overloads []ty.Signature

	for _, ov := range luna.Tags[*luna.OverloadTag](doc) {
		if f, ok := ctx.DocType(ov.Fun).(*ty.Function); ok {
			overloads = append(overloads, f.Signatures...)
		}
	}

	if len(overloads) > 0 {
		fn = fn.WithOverloads(overloads...)
	}

	return fn
}

//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) returnType(body *luna.FuncBody, doc *luna.Comment) ty.Type {
	if rets := ReturnTypes(doc); len(rets) > 0 {
		return ctx.DocType(rets[0])
	}

	done, ok := ctx.enter(body)
	if !ok {
		return ty.Unknown
	}
	defer done()

	var types []ty.Type

	luna.Inspect(body.Block, func(n luna.Node) bool {
		switch s := n.(type) {
		case *luna.FuncExpr, *luna.FuncStat, *luna.LocalFuncStat:
			return false
		case *luna.ReturnStat:
			if len(s.Exprs) > 0 {
				types = append(types, ctx.Infer(s.Exprs[0]))
			} else {
				types = append(types, ty.Void)
			}
		}

		return true
	})

	if len(types) == 0 {
		return ty.Void
	}

	return ty.NewUnion(types...)
}

// ReturnTypes flattens the types of every @return tag in order.
func ReturnTypes(doc *luna.Comment) []*luna.DocType {
	var out []*luna.DocType

	for _, r := range luna.Tags[*luna.ReturnTag](doc) {
		out = append(out, r.Types...)
	}

	return out
}

// DocType converts a doc-comment type expression.
//
//nolint:ireturn,cyclop // Types are polymorphic.
func (ctx *SearchContext) DocType(d *luna.DocType) ty.Type {
	if d == nil {
		return ty.Unknown
	}

	switch d.Kind {
	case luna.DocLiteral:
		return ty.StringLiteral{Content: d.Name}
	case luna.DocArray:
		return ty.Array{Elem: ctx.DocType(d.Args[0])}
	case luna.DocUnion:
		members := make([]ty.Type, 0, len(d.Args))
		for _, a := range d.Args {
			members = append(members, ctx.DocType(a))
		}

		return ty.NewUnion(members...)
	case luna.DocFunction:
		sig := ty.Signature{Return: ty.Void}

		for _, p := range d.Params {
			sig.Params = append(sig.Params, ty.Param{Name: p.Name, Type: ctx.DocType(p.Type), Optional: p.Optional})
		}

		if len(d.Returns) > 0 {
			sig.Return = ctx.DocType(d.Returns[0])
		}

		return ty.NewFunction(false, sig)
	default:
		switch d.Name {
		case "any":
			return ty.Unknown
		case "function":
			return ty.NewFunction(false)
		}

		if p, ok := ty.LookupPrimitive(d.Name); ok {
			return p
		}

		if cls, ok := ctx.Index.FindClass(d.Name); ok {
			return ty.Class{Name: cls.Name, Super: cls.Super}
		}

		return ty.Class{Name: d.Name}
	}
}
