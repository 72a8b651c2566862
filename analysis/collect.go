package analysis

import (
	"github.com/rlch/luna"
)

// Collect gathers the index contributions of a parsed file.
//
// Classes come from @class tags. Members come from @field tags, from functions and assignments
// on a variable declared with @class, from `self.x = ...` inside its methods, and from named fields
// of the table the class variable is initialised with. Globals are top-level assignments to names
// that are not declared local, and top-level `function name()` statements.
//
//nolint:cyclop,funlen // One pass over the statement kinds that contribute entries.
func Collect(uri string, chunk *luna.Chunk) *Entries {
	e := &Entries{}

	for _, c := range chunk.Comments {
		cls := c.Class()
		if cls == nil {
			continue
		}

		e.Classes = append(e.Classes, &ClassEntry{
			Name:  cls.Name,
			Super: cls.Super,
			URI:   uri,
			Span:  cls.NameSpan,
			Tag:   cls,
		})

		for _, f := range luna.Tags[*luna.FieldTag](c) {
			e.Members = append(e.Members, &MemberEntry{
				Class: cls.Name,
				Name:  f.Name,
				URI:   uri,
				Span:  f.NameSpan,
				Node:  f,
			})
		}
	}

	// Variables declared with @class: locals by declaring node, globals by name.
	classOf := map[luna.Node]string{}
	globalClassOf := map[string]string{}
	topLocals := map[string]bool{}

	luna.Inspect(chunk, func(n luna.Node) bool {
		switch s := n.(type) {
		case *luna.LocalStat:
			if cls := s.Doc.Class(); cls != nil && len(s.Names) > 0 {
				classOf[s.Names[0]] = cls.Name
				collectTableMembers(e, uri, cls.Name, s.Exprs, 0)
			}
		case *luna.AssignStat:
			if cls := s.Doc.Class(); cls != nil && len(s.Targets) > 0 {
				if name, ok := s.Targets[0].(*luna.NameExpr); ok {
					globalClassOf[name.Name] = cls.Name
				}

				collectTableMembers(e, uri, cls.Name, s.Exprs, 0)
			}
		}

		return true
	})

	for _, s := range chunk.Block.Stmts {
		if l, ok := s.(*luna.LocalStat); ok {
			for _, d := range l.Names {
				topLocals[d.Name] = true
			}
		}

		if l, ok := s.(*luna.LocalFuncStat); ok && l.Name != nil {
			topLocals[l.Name.Name] = true
		}
	}

	// receiverClass resolves the class of a receiver expression like `C` in `C.x` or `function C:m()`.
	receiverClass := func(x luna.Expr) string {
		name, ok := x.(*luna.NameExpr)
		if !ok {
			return ""
		}

		if decl := ResolveLocal(name); decl != nil {
			return classOf[decl]
		}

		return globalClassOf[name.Name]
	}

	luna.Inspect(chunk, func(n luna.Node) bool {
		switch s := n.(type) {
		case *luna.FuncStat:
			idx, ok := s.Name.(*luna.IndexExpr)
			if !ok {
				break
			}

			cls := receiverClass(idx.X)
			if cls == "" {
				break
			}

			e.Members = append(e.Members, &MemberEntry{
				Class: cls,
				Name:  idx.Name,
				URI:   uri,
				Span:  idx.Span(),
				Node:  s,
				Doc:   s.Doc,
			})

			if s.IsMethod() && s.Body != nil {
				collectSelfMembers(e, uri, cls, s.Body.Block)
			}
		case *luna.AssignStat:
			for i, t := range s.Targets {
				idx, ok := t.(*luna.IndexExpr)
				if !ok || idx.Key != nil || idx.Name == "" {
					continue
				}

				cls := receiverClass(idx.X)
				if cls == "" {
					continue
				}

				e.Members = append(e.Members, &MemberEntry{
					Class: cls,
					Name:  idx.Name,
					URI:   uri,
					Span:  idx.Span(),
					Node:  idx,
					Value: exprAt(s.Exprs, i),
					Doc:   s.Doc,
				})
			}
		}

		return true
	})

	for _, s := range chunk.Block.Stmts {
		switch st := s.(type) {
		case *luna.FuncStat:
			if name, ok := st.Name.(*luna.NameExpr); ok && !topLocals[name.Name] {
				e.Globals = append(e.Globals, &GlobalEntry{
					Name: name.Name, URI: uri, Span: name.Span(), Node: st, Doc: st.Doc,
				})
			}
		case *luna.AssignStat:
			for i, t := range st.Targets {
				if name, ok := t.(*luna.NameExpr); ok && !topLocals[name.Name] {
					e.Globals = append(e.Globals, &GlobalEntry{
						Name: name.Name, URI: uri, Span: name.Span(), Node: name, Value: exprAt(st.Exprs, i), Doc: st.Doc,
					})
				}
			}
		}
	}

	return e
}

func collectTableMembers(e *Entries, uri, class string, exprs []luna.Expr, i int) {
	tbl, ok := exprAt(exprs, i).(*luna.TableExpr)
	if !ok {
		return
	}

	for _, f := range tbl.Fields {
		if f.Name == "" {
			continue
		}

		e.Members = append(e.Members, &MemberEntry{
			Class: class, Name: f.Name, URI: uri, Span: f.Span(), Node: f, Value: f.Value,
		})
	}
}

// collectSelfMembers records `self.x = v` assignments in a method body, skipping nested functions.
func collectSelfMembers(e *Entries, uri, class string, body *luna.Block) {
	luna.Inspect(body, func(n luna.Node) bool {
		switch s := n.(type) {
		case *luna.FuncExpr, *luna.FuncStat, *luna.LocalFuncStat:
			return false
		case *luna.AssignStat:
			for i, t := range s.Targets {
				idx, ok := t.(*luna.IndexExpr)
				if !ok || idx.Name == "" || idx.Key != nil {
					continue
				}

				if recv, ok := idx.X.(*luna.NameExpr); ok && recv.Name == "self" {
					e.Members = append(e.Members, &MemberEntry{
						Class: class, Name: idx.Name, URI: uri, Span: idx.Span(), Node: idx,
						Value: exprAt(s.Exprs, i), Doc: s.Doc,
					})
				}
			}
		}

		return true
	})
}

//nolint:ireturn // Expressions are polymorphic.
func exprAt(exprs []luna.Expr, i int) luna.Expr {
	if i < len(exprs) {
		return exprs[i]
	}

	return nil
}
