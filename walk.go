package luna

// Children returns the direct children of n in source order, followed by embedded syntax errors.
//
//nolint:cyclop,funlen // One case per node kind.
func Children(n Node) []Node {
	var out []Node

	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil && !isNilNode(c) {
				out = append(out, c)
			}
		}
	}

	switch x := n.(type) {
	case *Chunk:
		add(x.Block)

		for _, c := range x.Comments {
			if c.parent == x {
				add(c)
			}
		}
	case *Block:
		for _, s := range x.Stmts {
			add(s)
		}
	case *LocalStat:
		addComment(&out, x.Doc)

		for _, d := range x.Names {
			add(d)
		}

		addExprs(&out, x.Exprs)
	case *AssignStat:
		addComment(&out, x.Doc)
		addExprs(&out, x.Targets)
		addExprs(&out, x.Exprs)
	case *ExprStat:
		add(x.X)
	case *FuncStat:
		addComment(&out, x.Doc)
		add(x.Name, x.Body)
	case *LocalFuncStat:
		addComment(&out, x.Doc)
		add(x.Name, x.Body)
	case *ReturnStat:
		addExprs(&out, x.Exprs)
	case *IfStat:
		for i, c := range x.Conds {
			add(c)

			if i < len(x.Blocks) {
				add(x.Blocks[i])
			}
		}

		add(x.Else)
	case *WhileStat:
		add(x.Cond, x.Body)
	case *RepeatStat:
		add(x.Body, x.Cond)
	case *DoStat:
		add(x.Body)
	case *NumericForStat:
		add(x.Var, x.Start, x.Stop, x.Step, x.Body)
	case *GenericForStat:
		for _, d := range x.Names {
			add(d)
		}

		addExprs(&out, x.Exprs)
		add(x.Body)
	case *FuncBody:
		for _, p := range x.Params {
			add(p)
		}

		add(x.Block)
	case *IndexExpr:
		add(x.X, x.Key)
	case *CallExpr:
		add(x.Fn)
		addExprs(&out, x.Args)
	case *FuncExpr:
		add(x.Body)
	case *TableExpr:
		for _, f := range x.Fields {
			add(f)
		}
	case *TableField:
		add(x.Key, x.Value)
	case *BinaryExpr:
		add(x.X, x.Y)
	case *UnaryExpr:
		add(x.X)
	case *ParenExpr:
		add(x.X)
	case *Comment:
		for _, it := range x.Items {
			add(it)
		}
	case *ErrorNode, *NameExpr, *LiteralExpr, *NameDef, *ParamDef, *BreakStat, *GotoStat, *LabelStat,
		*DocText, *ParamTag, *ReturnTag, *FieldTag, *ClassTag, *TypeTag, *OverloadTag, *SeeTag:
	}

	if n != nil && !isNilNode(n) {
		for _, e := range n.base().errors {
			out = append(out, e)
		}
	}

	return out
}

func addExprs(out *[]Node, exprs []Expr) {
	for _, e := range exprs {
		if e != nil {
			*out = append(*out, e)
		}
	}
}

func addComment(out *[]Node, c *Comment) {
	if c != nil {
		*out = append(*out, c)
	}
}

// isNilNode catches typed nil pointers stored in a Node interface.
func isNilNode(n Node) bool {
	switch x := n.(type) {
	case *Block:
		return x == nil
	case *FuncBody:
		return x == nil
	case *NameDef:
		return x == nil
	case *Comment:
		return x == nil
	case *ErrorNode:
		return x == nil
	case *TableField:
		return x == nil
	case *ParamDef:
		return x == nil
	default:
		return n == nil
	}
}

// Inspect traverses the tree depth-first, calling fn for each node.
// If fn returns false, the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || isNilNode(n) || !fn(n) {
		return
	}

	for _, c := range Children(n) {
		Inspect(c, fn)
	}
}

// PathAt returns the chain of nodes containing offset, from the chunk down to the innermost node.
// Doc comments sit outside their owner's span, so they are searched first.
func PathAt(chunk *Chunk, offset int) []Node {
	if chunk == nil {
		return nil
	}

	for _, c := range chunk.Comments {
		if c.Span().Contains(offset) {
			var up []Node
			for p := c.Parent(); p != nil; p = p.Parent() {
				up = append([]Node{p}, up...)
			}

			return descend(append(up, c), offset)
		}
	}

	return descend([]Node{chunk}, offset)
}

func descend(path []Node, offset int) []Node {
	cur := path[len(path)-1]

	for {
		var next Node

		for _, c := range Children(cur) {
			if _, isDoc := c.(*Comment); isDoc {
				continue
			}

			if c.Span().Contains(offset) {
				next = c
			}
		}

		if next == nil {
			return path
		}

		path = append(path, next)
		cur = next
	}
}

// NodeAt returns the innermost node containing offset.
//
//nolint:ireturn // Returning interface is intentional for AST node polymorphism.
func NodeAt(chunk *Chunk, offset int) Node {
	path := PathAt(chunk, offset)
	if len(path) == 0 {
		return nil
	}

	return path[len(path)-1]
}

// ParentOf walks up from n (inclusive) and returns the first node of type T.
func ParentOf[T Node](n Node) (T, bool) {
	var zero T

	for p := n; p != nil; p = p.Parent() {
		if t, ok := p.(T); ok {
			return t, true
		}
	}

	return zero, false
}

// InComment reports whether n is nested inside a doc comment.
func InComment(n Node) bool {
	_, ok := ParentOf[*Comment](n)

	return ok
}

// EnclosingChunk returns the chunk containing n.
func EnclosingChunk(n Node) *Chunk {
	c, _ := ParentOf[*Chunk](n)

	return c
}

// SyntaxErrors returns every error node below n in source order.
func SyntaxErrors(n Node) []*ErrorNode {
	var out []*ErrorNode

	Inspect(n, func(c Node) bool {
		if e, ok := c.(*ErrorNode); ok {
			out = append(out, e)
		}

		return true
	})

	return out
}
