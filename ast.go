// Package luna provides a Lua front end for editor tooling: an error-tolerant lexer and parser,
// a syntax tree with parent links, and the structured doc-comment model.
package luna

import (
	"strconv"
	"strings"
)

// Node is implemented by every syntax tree node.
type Node interface {
	Span() Span
	Parent() Node
	base() *node
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// node carries the span, parent link and embedded syntax errors shared by all nodes.
type node struct {
	span   Span
	parent Node
	errors []*ErrorNode
}

// Span returns the source range covered by the node.
func (n *node) Span() Span { return n.span }

// Parent returns the syntactic parent, or nil for the chunk.
func (n *node) Parent() Node { return n.parent }

func (n *node) base() *node { return n }

// Errors returns the syntax errors embedded directly under this node.
func (n *node) Errors() []*ErrorNode { return n.errors }

// Chunk is the root of a parsed file.
type Chunk struct {
	node

	Block *Block
	// Comments holds every doc comment in the file, attached or not.
	Comments []*Comment
}

// Block is a sequence of statements.
type Block struct {
	node

	Stmts []Stmt
}

// ErrorNode marks a syntax error embedded in the tree by the parser.
// It can appear in statement and expression positions and inside doc comments.
type ErrorNode struct {
	node

	Message string
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

// LocalStat is `local a, b = x, y`.
type LocalStat struct {
	node

	Names   []*NameDef
	Attribs []string
	Exprs   []Expr
	Doc     *Comment
}

// AssignStat is `a, b.c = x, y`.
type AssignStat struct {
	node

	Targets []Expr
	Exprs   []Expr
	Doc     *Comment
}

// ExprStat is an expression used as a statement. Only calls are complete statements.
type ExprStat struct {
	node

	X Expr
}

// FuncStat is `function a.b:c(...) end`.
type FuncStat struct {
	node

	// Name is a NameExpr or a chain of IndexExpr.
	Name Expr
	Body *FuncBody
	Doc  *Comment
}

// LocalFuncStat is `local function f(...) end`.
type LocalFuncStat struct {
	node

	Name *NameDef
	Body *FuncBody
	Doc  *Comment
}

// ReturnStat is `return a, b`.
type ReturnStat struct {
	node

	Exprs []Expr
}

// IfStat is an if/elseif/else chain. Conds[i] guards Blocks[i].
type IfStat struct {
	node

	Conds  []Expr
	Blocks []*Block
	Else   *Block
}

// WhileStat is `while cond do ... end`.
type WhileStat struct {
	node

	Cond Expr
	Body *Block
}

// RepeatStat is `repeat ... until cond`.
type RepeatStat struct {
	node

	Body *Block
	Cond Expr
}

// DoStat is `do ... end`.
type DoStat struct {
	node

	Body *Block
}

// NumericForStat is `for i = a, b, c do ... end`.
type NumericForStat struct {
	node

	Var   *NameDef
	Start Expr
	Stop  Expr
	Step  Expr
	Body  *Block
}

// GenericForStat is `for k, v in explist do ... end`.
type GenericForStat struct {
	node

	Names []*NameDef
	Exprs []Expr
	Body  *Block
}

// BreakStat is `break`.
type BreakStat struct{ node }

// GotoStat is `goto label`.
type GotoStat struct {
	node

	Label string
}

// LabelStat is `::label::`.
type LabelStat struct {
	node

	Name string
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

// NameDef declares a local variable (local statement, for loop, local function).
type NameDef struct {
	node

	Name string
}

// ParamDef declares a function parameter.
type ParamDef struct {
	node

	Name string
}

// FuncBody is the parameter list and block shared by function statements and expressions.
type FuncBody struct {
	node

	Params []*ParamDef
	Vararg bool
	Block  *Block
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// NameExpr is a bare identifier reference.
type NameExpr struct {
	node

	Name string
}

// LiteralKind distinguishes literal expressions.
type LiteralKind int

// Literal kinds.
const (
	LiteralNil LiteralKind = iota
	LiteralTrue
	LiteralFalse
	LiteralNumber
	LiteralString
	LiteralVararg
)

// LiteralExpr is nil, true, false, a number, a string or `...`.
type LiteralExpr struct {
	node

	Kind LiteralKind
	// Raw is the source text; for strings Value holds the decoded content.
	Raw   string
	Value string
}

// IndexExpr is `x.name`, `x:name` (method reference, only as a call target or function name) or `x[key]`.
type IndexExpr struct {
	node

	X     Expr
	Name  string
	Key   Expr
	Colon bool
}

// CallExpr is `f(args)`, `f "str"`, `f {tbl}` or `obj:m(args)`.
type CallExpr struct {
	node

	Fn   Expr
	Args []Expr
}

// IsMethodCall reports whether the call uses the colon convention.
func (c *CallExpr) IsMethodCall() bool {
	idx, ok := c.Fn.(*IndexExpr)

	return ok && idx.Colon
}

// FuncExpr is an anonymous `function(...) end`.
type FuncExpr struct {
	node

	Body *FuncBody
}

// TableExpr is a table constructor.
type TableExpr struct {
	node

	Fields []*TableField
}

// TableField is one entry of a table constructor: `name = v`, `[k] = v` or positional `v`.
type TableField struct {
	node

	Name  string
	Key   Expr
	Value Expr
}

// BinaryExpr is `x op y`.
type BinaryExpr struct {
	node

	Op string
	X  Expr
	Y  Expr
}

// UnaryExpr is `op x`.
type UnaryExpr struct {
	node

	Op string
	X  Expr
}

// ParenExpr is `(x)`.
type ParenExpr struct {
	node

	X Expr
}

func (*ErrorNode) stmtNode()      {}
func (*LocalStat) stmtNode()      {}
func (*AssignStat) stmtNode()     {}
func (*ExprStat) stmtNode()       {}
func (*FuncStat) stmtNode()       {}
func (*LocalFuncStat) stmtNode()  {}
func (*ReturnStat) stmtNode()     {}
func (*IfStat) stmtNode()         {}
func (*WhileStat) stmtNode()      {}
func (*RepeatStat) stmtNode()     {}
func (*DoStat) stmtNode()         {}
func (*NumericForStat) stmtNode() {}
func (*GenericForStat) stmtNode() {}
func (*BreakStat) stmtNode()      {}
func (*GotoStat) stmtNode()       {}
func (*LabelStat) stmtNode()      {}

func (*ErrorNode) exprNode()   {}
func (*NameExpr) exprNode()    {}
func (*LiteralExpr) exprNode() {}
func (*IndexExpr) exprNode()   {}
func (*CallExpr) exprNode()    {}
func (*FuncExpr) exprNode()    {}
func (*TableExpr) exprNode()   {}
func (*BinaryExpr) exprNode()  {}
func (*UnaryExpr) exprNode()   {}
func (*ParenExpr) exprNode()   {}

// CommentOwner is implemented by statements that can carry a doc comment.
type CommentOwner interface {
	Stmt
	Comment() *Comment
}

// Comment returns the doc comment attached to the statement.
func (s *LocalStat) Comment() *Comment { return s.Doc }

// Comment returns the doc comment attached to the statement.
func (s *AssignStat) Comment() *Comment { return s.Doc }

// Comment returns the doc comment attached to the statement.
func (s *FuncStat) Comment() *Comment { return s.Doc }

// Comment returns the doc comment attached to the statement.
func (s *LocalFuncStat) Comment() *Comment { return s.Doc }

// IsMethod reports whether the function is declared with the colon convention.
func (s *FuncStat) IsMethod() bool {
	idx, ok := s.Name.(*IndexExpr)

	return ok && idx.Colon
}

// QualifiedName renders a function name such as `a.b:c`.
func (s *FuncStat) QualifiedName() string {
	return ExprString(s.Name)
}

// ExprString renders name and index chains back to source form. Other expressions render as "?".
func ExprString(e Expr) string {
	switch x := e.(type) {
	case *NameExpr:
		return x.Name
	case *IndexExpr:
		if x.Key != nil {
			return ExprString(x.X) + "[" + ExprString(x.Key) + "]"
		}

		sep := "."
		if x.Colon {
			sep = ":"
		}

		return ExprString(x.X) + sep + x.Name
	case *LiteralExpr:
		return x.Raw
	case *ParenExpr:
		return "(" + ExprString(x.X) + ")"
	default:
		return "?"
	}
}

// unquote decodes a Lua string literal. Unknown escapes are kept verbatim.
func unquote(raw string) string {
	if strings.HasPrefix(raw, "[") {
		open := strings.IndexByte(raw[1:], '[') + 2
		body := raw[open : len(raw)-open]

		return strings.TrimPrefix(body, "\n")
	}

	if len(raw) < 2 {
		return raw
	}

	body := raw[1 : len(raw)-1]
	if !strings.Contains(body, "\\") {
		return body
	}

	var b strings.Builder

	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)

			continue
		}

		i++

		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '"', '\'':
			b.WriteByte(body[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}

	return b.String()
}

// Quote renders s as a double-quoted Lua string.
func Quote(s string) string {
	return strconv.Quote(s)
}
