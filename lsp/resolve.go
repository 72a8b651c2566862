package lsp

import (
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/ty"
)

// reference is what the name under the cursor refers to. One of Local, Global, Member and
// Class is set.
type reference struct {
	// Local is the *luna.NameDef or *luna.ParamDef declaring a local of the same file.
	Local  luna.Node
	Global *analysis.GlobalEntry
	Member *analysis.MemberEntry
	Class  *analysis.ClassEntry

	// Node is the node under the cursor and Span the span of its name.
	Node luna.Node
	Span luna.Span
}

// resolveAt resolves the name at offset.
//
//nolint:cyclop,funlen // One case per referencing node kind.
func resolveAt(ctx *analysis.SearchContext, chunk *luna.Chunk, offset int) (*reference, bool) {
	n := luna.NodeAt(chunk, offset)
	ref := &reference{Node: n}

	switch x := n.(type) {
	case *luna.NameDef, *luna.ParamDef:
		ref.Local, ref.Span = x, x.Span()
	case *luna.NameExpr:
		ref.Span = x.Span()

		if decl := analysis.ResolveLocal(x); decl != nil {
			ref.Local = decl

			break
		}

		globals := ctx.Index.FindGlobal(x.Name)
		if len(globals) == 0 {
			return nil, false
		}

		ref.Global = globals[0]
	case *luna.IndexExpr:
		if x.Name == "" {
			return nil, false
		}

		m, ok := memberOf(ctx, x)
		if !ok {
			return nil, false
		}

		ref.Member, ref.Span = m, nameSpan(x)
	case *luna.ClassTag:
		if !x.NameSpan.Contains(offset) {
			return nil, false
		}

		cls, ok := ctx.Index.FindClass(x.Name)
		if !ok {
			return nil, false
		}

		ref.Class, ref.Span = cls, x.NameSpan
	case *luna.SeeTag:
		ref.Span = x.Span()

		if x.Member != "" {
			m, ok := ctx.Index.FindMember(x.Class, x.Member)
			if !ok {
				return nil, false
			}

			ref.Member = m

			break
		}

		cls, ok := ctx.Index.FindClass(x.Class)
		if !ok {
			return nil, false
		}

		ref.Class = cls
	case *luna.FieldTag:
		if !x.NameSpan.Contains(offset) {
			return resolveDocType(ctx, ref, x, offset)
		}

		c, _ := luna.ParentOf[*luna.Comment](x)
		if c.Class() == nil {
			return nil, false
		}

		m, ok := ctx.Index.FindMember(c.Class().Name, x.Name)
		if !ok {
			return nil, false
		}

		ref.Member, ref.Span = m, x.NameSpan
	case *luna.ParamTag:
		if !x.NameSpan.Contains(offset) {
			return resolveDocType(ctx, ref, x, offset)
		}

		c, _ := luna.ParentOf[*luna.Comment](x)

		p := documentedParam(c, x.Name)
		if p == nil {
			return nil, false
		}

		ref.Local, ref.Span = p, x.NameSpan
	case *luna.TypeTag, *luna.ReturnTag, *luna.OverloadTag:
		return resolveDocType(ctx, ref, x, offset)
	default:
		return nil, false
	}

	return ref, true
}

// resolveDocType resolves a class name written in the doc type at offset.
func resolveDocType(ctx *analysis.SearchContext, ref *reference, tag luna.Node, offset int) (*reference, bool) {
	d := docTypeAt(docTypesOf(tag), offset)
	if d == nil || d.Kind != luna.DocNamed {
		return nil, false
	}

	cls, ok := ctx.Index.FindClass(d.Name)
	if !ok {
		return nil, false
	}

	ref.Class, ref.Span = cls, d.Span

	return ref, true
}

// memberOf returns the member x.Name of the first class x.X may be.
func memberOf(ctx *analysis.SearchContext, x *luna.IndexExpr) (*analysis.MemberEntry, bool) {
	var found *analysis.MemberEntry

	ty.Each(ctx.Infer(x.X), func(t ty.Type) bool {
		if cls, ok := t.(ty.Class); ok {
			found, _ = ctx.Index.FindMember(cls.Name, x.Name)
		}

		return found == nil
	})

	return found, found != nil
}

// documentedParam returns the parameter called name of the function c documents.
func documentedParam(c *luna.Comment, name string) *luna.ParamDef {
	if c == nil {
		return nil
	}

	body := analysis.DocumentedFunction(c)
	if body == nil {
		return nil
	}

	for _, p := range body.Params {
		if p.Name == name {
			return p
		}
	}

	return nil
}

// nameSpan is the span of the name after the `.` or `:` of x.
func nameSpan(x *luna.IndexExpr) luna.Span {
	end := x.Span().End
	start := lexer.Position{
		Filename: end.Filename,
		Offset:   end.Offset - len(x.Name),
		Line:     end.Line,
		Column:   end.Column - utf8.RuneCountInString(x.Name),
	}

	return luna.Span{Start: start, End: end}
}

// docTypesOf returns the top-level doc types of a tag.
func docTypesOf(tag luna.Node) []*luna.DocType {
	switch t := tag.(type) {
	case *luna.ParamTag:
		return []*luna.DocType{t.Type}
	case *luna.FieldTag:
		return []*luna.DocType{t.Type}
	case *luna.TypeTag:
		return []*luna.DocType{t.Type}
	case *luna.ReturnTag:
		return t.Types
	case *luna.OverloadTag:
		return []*luna.DocType{t.Fun}
	default:
		return nil
	}
}

// docTypeAt returns the innermost doc type containing offset.
func docTypeAt(types []*luna.DocType, offset int) *luna.DocType {
	for _, d := range types {
		if d == nil || !d.Span.Contains(offset) {
			continue
		}

		inner := append([]*luna.DocType{}, d.Args...)
		inner = append(inner, d.Returns...)

		for _, p := range d.Params {
			inner = append(inner, p.Type)
		}

		if found := docTypeAt(inner, offset); found != nil {
			return found
		}

		return d
	}

	return nil
}

// eachDocType calls fn for every doc type nested in types.
func eachDocType(types []*luna.DocType, fn func(*luna.DocType)) {
	for _, d := range types {
		if d == nil {
			continue
		}

		fn(d)
		eachDocType(d.Args, fn)
		eachDocType(d.Returns, fn)

		for _, p := range d.Params {
			eachDocType([]*luna.DocType{p.Type}, fn)
		}
	}
}
