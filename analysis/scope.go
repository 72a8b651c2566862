package analysis

import (
	"github.com/rlch/luna"
)

// ResolveLocal returns the declaration visible at ref: a *luna.NameDef or *luna.ParamDef.
// It returns nil for globals and for `self`.
//
//nolint:ireturn,cyclop // Declarations are polymorphic.
func ResolveLocal(ref *luna.NameExpr) luna.Node {
	var child luna.Node = ref

	for parent := ref.Parent(); parent != nil; child, parent = parent, parent.Parent() {
		switch p := parent.(type) {
		case *luna.Block:
			if d := resolveInBlock(p, child, ref.Name); d != nil {
				return d
			}
		case *luna.FuncBody:
			if child != p.Block {
				continue
			}

			for i := len(p.Params) - 1; i >= 0; i-- {
				if p.Params[i].Name == ref.Name {
					return p.Params[i]
				}
			}
		case *luna.NumericForStat:
			if child == p.Body && p.Var != nil && p.Var.Name == ref.Name {
				return p.Var
			}
		case *luna.GenericForStat:
			if child != p.Body {
				continue
			}

			for i := len(p.Names) - 1; i >= 0; i-- {
				if p.Names[i].Name == ref.Name {
					return p.Names[i]
				}
			}
		case *luna.RepeatStat:
			// Locals of the body are visible in the until condition.
			if child == p.Cond && p.Body != nil {
				if d := resolveInBlock(p.Body, nil, ref.Name); d != nil {
					return d
				}
			}
		}
	}

	return nil
}

// resolveInBlock searches the statements of b that precede the one containing child.
//
//nolint:ireturn // Declarations are polymorphic.
func resolveInBlock(b *luna.Block, child luna.Node, name string) luna.Node {
	end := len(b.Stmts)

	for i, s := range b.Stmts {
		if luna.Node(s) == child {
			end = i

			// A local function is visible in its own body.
			if lf, ok := s.(*luna.LocalFuncStat); ok && lf.Name != nil && lf.Name.Name == name {
				return lf.Name
			}

			break
		}
	}

	for i := end - 1; i >= 0; i-- {
		switch s := b.Stmts[i].(type) {
		case *luna.LocalStat:
			for j := len(s.Names) - 1; j >= 0; j-- {
				if s.Names[j].Name == name {
					return s.Names[j]
				}
			}
		case *luna.LocalFuncStat:
			if s.Name != nil && s.Name.Name == name {
				return s.Name
			}
		}
	}

	return nil
}

// VisibleLocals calls fn for each local declaration visible at n, innermost first.
// Shadowed names are reported once.
func VisibleLocals(n luna.Node, fn func(name string, decl luna.Node)) {
	seen := make(map[string]bool)

	report := func(name string, decl luna.Node) {
		if !seen[name] {
			seen[name] = true
			fn(name, decl)
		}
	}

	var child luna.Node = n

	for parent := n.Parent(); parent != nil; child, parent = parent, parent.Parent() {
		switch p := parent.(type) {
		case *luna.Block:
			for i := len(p.Stmts) - 1; i >= 0; i-- {
				s := p.Stmts[i]
				if s.Span().Start.Offset >= n.Span().Start.Offset && luna.Node(s) != child {
					continue
				}

				switch st := s.(type) {
				case *luna.LocalStat:
					if luna.Node(st) == child {
						continue
					}

					for _, d := range st.Names {
						report(d.Name, d)
					}
				case *luna.LocalFuncStat:
					if st.Name != nil {
						report(st.Name.Name, st.Name)
					}
				}
			}
		case *luna.FuncBody:
			for _, prm := range p.Params {
				report(prm.Name, prm)
			}
		case *luna.NumericForStat:
			if child == p.Body && p.Var != nil {
				report(p.Var.Name, p.Var)
			}
		case *luna.GenericForStat:
			if child == p.Body {
				for _, d := range p.Names {
					report(d.Name, d)
				}
			}
		}
	}
}
