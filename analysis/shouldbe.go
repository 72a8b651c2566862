package analysis

import (
	"github.com/rlch/luna"
	"github.com/rlch/luna/ty"
)

// ShouldBe returns the type expected at n from its syntactic context: the parameter slot of an
// argument, the declared type of an assignment target, the other side of an equality test, the
// @return type of the enclosing function, or the field type of a class-typed table constructor.
// It returns ty.Unknown when the context imposes nothing.
//
//nolint:ireturn,cyclop,funlen // Exhaustive over parent kinds.
func (ctx *SearchContext) ShouldBe(n luna.Node) ty.Type {
	if n == nil {
		return ty.Unknown
	}

	done, ok := ctx.enter(shouldBeKey{n})
	if !ok {
		return ty.Unknown
	}
	defer done()

	switch p := n.Parent().(type) {
	case *luna.ParenExpr:
		return ctx.ShouldBe(p)
	case *luna.CallExpr:
		arg := indexOf(p.Args, n)
		if arg < 0 {
			return ty.Unknown
		}

		var types []ty.Type

		ty.Each(ctx.Infer(p.Fn), func(t ty.Type) bool {
			f, ok := t.(*ty.Function)
			if !ok {
				return true
			}

			slot := arg + ArgShift(f, p)

			for _, sig := range f.Signatures {
				if pt, ok := paramAt(sig, slot); ok {
					types = append(types, pt)
				}
			}

			return true
		})

		return ty.NewUnion(types...)
	case *luna.LocalStat:
		i := indexOf(p.Exprs, n)
		if i != 0 {
			return ty.Unknown
		}

		if t := ctx.annotated(p.Doc); t != nil {
			return t
		}

		return ty.Unknown
	case *luna.AssignStat:
		i := indexOf(p.Exprs, n)
		if i < 0 || i >= len(p.Targets) {
			return ty.Unknown
		}

		if i == 0 {
			if t := ctx.annotated(p.Doc); t != nil {
				return t
			}
		}

		return ctx.declaredType(p.Targets[i])
	case *luna.BinaryExpr:
		if p.Op != "==" && p.Op != "~=" {
			return ty.Unknown
		}

		other := p.X
		if luna.Node(p.X) == n {
			other = p.Y
		}

		return ctx.Infer(other)
	case *luna.ReturnStat:
		i := indexOf(p.Exprs, n)
		body, ok := luna.ParentOf[*luna.FuncBody](p)

		if i < 0 || !ok {
			return ty.Unknown
		}

		if rets := ReturnTypes(FuncComment(body)); i < len(rets) {
			return ctx.DocType(rets[i])
		}

		return ty.Unknown
	case *luna.TableField:
		if luna.Node(p.Value) != n {
			return ty.Unknown
		}

		tbl, ok := p.Parent().(*luna.TableExpr)
		if !ok {
			return ty.Unknown
		}

		var types []ty.Type

		ty.Each(ctx.ShouldBe(tbl), func(t ty.Type) bool {
			switch x := t.(type) {
			case ty.Class:
				if p.Name != "" {
					types = append(types, ctx.MemberType(x.Name, p.Name))
				}
			case ty.Array:
				if p.Name == "" && p.Key == nil {
					types = append(types, x.Elem)
				}
			}

			return true
		})

		return ty.NewUnion(types...)
	default:
		return ty.Unknown
	}
}

// shouldBeKey separates ShouldBe recursion tracking from Infer on the same node.
type shouldBeKey struct{ luna.Node }

// declaredType is the type of an assignment target as declared elsewhere: the local's
// declaration, a global's annotated declaration, or a class member.
//
//nolint:ireturn // Types are polymorphic.
func (ctx *SearchContext) declaredType(target luna.Expr) ty.Type {
	if name, ok := target.(*luna.NameExpr); ok {
		if decl := ResolveLocal(name); decl != nil {
			return ctx.Infer(decl)
		}

		var types []ty.Type

		for _, g := range ctx.Index.FindGlobal(name.Name) {
			if t := ctx.annotated(g.Doc); t != nil {
				types = append(types, t)
			}
		}

		return ty.NewUnion(types...)
	}

	return ctx.Infer(target)
}

func paramAt(sig ty.Signature, slot int) (ty.Type, bool) {
	if slot < 0 {
		return nil, false
	}

	if slot < len(sig.Params) {
		return sig.Params[slot].Type, true
	}

	if n := len(sig.Params); n > 0 && sig.Params[n-1].Name == "..." {
		return sig.Params[n-1].Type, true
	}

	return nil, false
}

func indexOf(exprs []luna.Expr, n luna.Node) int {
	for i, e := range exprs {
		if luna.Node(e) == n {
			return i
		}
	}

	return -1
}
