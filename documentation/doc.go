package docs

import (
	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/ty"
)

// QuickInfo returns the one-line type of any node, "any" when it cannot be inferred.
func QuickInfo(ctx *analysis.SearchContext, n luna.Node) string {
	return ty.Render(ctx.Infer(n))
}

// GenerateDoc renders the documentation of a declaration: a Lua header with its type followed by
// its doc comment. It returns "" for nodes that declare nothing.
//
//nolint:cyclop // One case per declaration kind.
func GenerateDoc(ctx *analysis.SearchContext, n luna.Node) string {
	switch x := n.(type) {
	case *luna.NameDef:
		return localDoc(ctx, x)
	case *luna.ParamDef:
		return paramDoc(ctx, x)
	case *luna.LocalFuncStat:
		if x.Name == nil {
			return ""
		}

		fn := ctx.FunctionType(x.Body, x.Doc, false)

		return join(codeBlock("local function "+x.Name.Name+ty.RenderSignature(fn.Main())), RenderComment(ctx, x.Doc))
	case *luna.FuncStat:
		if x.Name == nil {
			return ""
		}

		fn := ctx.FunctionType(x.Body, x.Doc, x.IsMethod())

		return join(codeBlock("function "+x.QualifiedName()+ty.RenderSignature(fn.Main())), RenderComment(ctx, x.Doc))
	case *luna.ClassTag:
		header := "class " + x.Name
		if x.Super != "" {
			header += " : " + x.Super
		}

		return join(codeBlock(header), x.Desc)
	case *luna.FieldTag:
		cls := ""
		if c, ok := luna.ParentOf[*luna.Comment](x); ok && c.Class() != nil {
			cls = c.Class().Name + "."
		}

		return join(codeBlock("(field) "+cls+x.Name+": "+renderDocType(ctx, x.Type)), x.Desc)
	case *luna.NameExpr:
		if decl := analysis.ResolveLocal(x); decl != nil {
			return GenerateDoc(ctx, decl)
		}

		if globals := ctx.Index.FindGlobal(x.Name); len(globals) > 0 {
			return GlobalDoc(ctx, globals[0])
		}

		return ""
	default:
		return ""
	}
}

func localDoc(ctx *analysis.SearchContext, d *luna.NameDef) string {
	if fn, ok := d.Parent().(*luna.LocalFuncStat); ok {
		return GenerateDoc(ctx, fn)
	}

	header := codeBlock("local " + d.Name + ": " + ty.Render(ctx.Infer(d)))

	if s, ok := d.Parent().(*luna.LocalStat); ok {
		return join(header, RenderComment(ctx, s.Doc))
	}

	return header
}

func paramDoc(ctx *analysis.SearchContext, p *luna.ParamDef) string {
	header := codeBlock("(parameter) " + p.Name + ": " + ty.Render(ctx.Infer(p)))

	body, ok := p.Parent().(*luna.FuncBody)
	if !ok {
		return header
	}

	if tag := analysis.FuncComment(body).Param(p.Name); tag != nil {
		return join(header, tag.Desc)
	}

	return header
}

// MemberDoc renders a class member: `Class.field: T` for values, `Class:method(...)` for functions.
func MemberDoc(ctx *analysis.SearchContext, m *analysis.MemberEntry) string {
	t := ctx.MemberEntryType(m)

	var header string

	if fn, ok := t.(*ty.Function); ok {
		sep := "."
		if fn.MethodCall {
			sep = ":"
		}

		header = m.Class + sep + m.Name + ty.RenderSignature(fn.Main())
	} else {
		header = m.Class + "." + m.Name + ": " + ty.Render(t)
	}

	if f, ok := m.Node.(*luna.FieldTag); ok {
		return join(codeBlock("(field) "+header), f.Desc)
	}

	return join(codeBlock(header), RenderComment(ctx, m.Doc))
}

// GlobalDoc renders a global variable or function.
func GlobalDoc(ctx *analysis.SearchContext, g *analysis.GlobalEntry) string {
	if fs, ok := g.Node.(*luna.FuncStat); ok {
		return GenerateDoc(ctx, fs)
	}

	t := ctx.GlobalType(g)

	header := g.Name + ": " + ty.Render(t)
	if fn, ok := t.(*ty.Function); ok {
		header = "function " + g.Name + ty.RenderSignature(fn.Main())
	}

	return join(codeBlock(header), RenderComment(ctx, g.Doc))
}
