package luna

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// Binary operator priorities as {left, right}; right < left means right associative.
var binaryPriority = map[string][2]int{
	"or": {1, 1}, "and": {2, 2},
	"<": {3, 3}, ">": {3, 3}, "<=": {3, 3}, ">=": {3, 3}, "~=": {3, 3}, "==": {3, 3},
	"|": {4, 4}, "~": {5, 5}, "&": {6, 6}, "<<": {7, 7}, ">>": {7, 7},
	"..": {9, 8}, "+": {10, 10}, "-": {10, 10},
	"*": {11, 11}, "/": {11, 11}, "//": {11, 11}, "%": {11, 11},
	"^": {14, 13},
}

const unaryPriority = 12

var keywordLiterals = map[string]LiteralKind{"nil": LiteralNil, "true": LiteralTrue, "false": LiteralFalse}

// Parse parses Lua source into a syntax tree. It never fails: syntax errors are embedded
// in the tree as *ErrorNode and the rest of the file is parsed on a best-effort basis.
// Doc comments are parsed and attached to their owner statements.
func Parse(src string) *Chunk {
	trivia := &TriviaList{}
	p := newParser(src, trivia)
	chunk := p.parseChunk()

	attachComments(chunk, trivia)

	return chunk
}

type parser struct {
	lex     *lexerState
	toks    []lexer.Token
	pos     int
	prevEnd lexer.Position
}

func newParser(src string, trivia *TriviaList) *parser {
	p := &parser{lex: luaLexer.lex("", src, trivia)}

	lastCodeLine := 0

	for {
		tok, _ := p.lex.Next()

		switch tok.Type {
		case TokenWhitespace:
			continue
		case TokenComment:
			if n := len(trivia.items); n > 0 && lastCodeLine == tok.Pos.Line {
				trivia.items[n-1].Trailing = true
			}

			continue
		}

		p.toks = append(p.toks, tok)

		if tok.EOF() {
			return p
		}

		lastCodeLine = advancePos(tok.Pos, tok.Value).Line
	}
}

// advancePos returns the position just past text starting at start.
func advancePos(start lexer.Position, text string) lexer.Position {
	pos := start
	for _, r := range text {
		pos.Offset += len(string(r))

		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}

	return pos
}

// ----------------------------------------------------------------------------
// Token helpers
// ----------------------------------------------------------------------------

func (p *parser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[p.pos+n]
}

func (p *parser) next() lexer.Token {
	tok := p.toks[p.pos]
	if !tok.EOF() {
		p.pos++
		p.prevEnd = advancePos(tok.Pos, tok.Value)
	}

	return tok
}

// is reports whether the current token is the operator or keyword s.
func (p *parser) is(s string) bool {
	tok := p.peek()

	return (tok.Type == TokenOp || tok.Type == TokenKeyword) && tok.Value == s
}

func (p *parser) accept(s string) bool {
	if p.is(s) {
		p.next()

		return true
	}

	return false
}

// expect consumes s or records a missing-token error under owner.
func (p *parser) expect(owner Node, s string) bool {
	if p.accept(s) {
		return true
	}

	p.errorAt(owner, fmt.Sprintf("'%s' expected near %s", s, p.near()))

	return false
}

// expectClose consumes the closing token of a construct opened at line.
func (p *parser) expectClose(owner Node, s, opener string, line int) {
	if p.accept(s) {
		return
	}

	if line == p.peek().Pos.Line {
		p.errorAt(owner, fmt.Sprintf("'%s' expected near %s", s, p.near()))

		return
	}

	p.errorAt(owner, fmt.Sprintf("'%s' expected (to close '%s' at line %d) near %s", s, opener, line, p.near()))
}

func (p *parser) near() string {
	tok := p.peek()
	if tok.EOF() {
		return "<eof>"
	}

	return "'" + tok.Value + "'"
}

// errorAt embeds a zero-width error at the current token under owner.
func (p *parser) errorAt(owner Node, msg string) {
	start := p.peek().Pos
	if p.peek().EOF() {
		start = p.prevEnd
	}

	e := &ErrorNode{Message: msg}
	e.span = Span{Start: start, End: start}
	e.parent = owner
	owner.base().errors = append(owner.base().errors, e)
}

// finish sets the span of n from start to the end of the last consumed token.
func (p *parser) finish(n Node, start lexer.Position) {
	end := p.prevEnd
	if end.Offset < start.Offset {
		end = start
	}

	n.base().span = Span{Start: start, End: end}
}

func adopt(parent Node, children ...Node) {
	for _, c := range children {
		if c != nil && !isNilNode(c) {
			c.base().parent = parent
		}
	}
}

func adoptExprs(parent Node, exprs []Expr) {
	for _, e := range exprs {
		adopt(parent, e)
	}
}

// ----------------------------------------------------------------------------
// Blocks and statements
// ----------------------------------------------------------------------------

func (p *parser) parseChunk() *Chunk {
	chunk := &Chunk{}
	chunk.Block = p.parseBlock()
	adopt(chunk, chunk.Block)

	for !p.peek().EOF() {
		// A stray block terminator at top level.
		start := p.peek().Pos
		tok := p.next()
		e := &ErrorNode{Message: fmt.Sprintf("'<eof>' expected near '%s'", tok.Value)}
		p.finish(e, start)
		e.parent = chunk.Block
		chunk.Block.Stmts = append(chunk.Block.Stmts, e)
	}

	chunk.span = Span{Start: lexer.Position{Line: 1, Column: 1}, End: p.peek().Pos}
	chunk.Block.span.End = chunk.span.End

	return chunk
}

func (p *parser) blockFollow() bool {
	tok := p.peek()
	if tok.EOF() {
		return true
	}

	if tok.Type != TokenKeyword {
		return false
	}

	switch tok.Value {
	case "end", "else", "elseif", "until":
		return true
	}

	return false
}

func (p *parser) parseBlock() *Block {
	b := &Block{}
	start := p.peek().Pos

	for !p.blockFollow() {
		if p.is("return") {
			s := p.parseReturn()
			b.Stmts = append(b.Stmts, s)

			continue
		}

		before := p.pos
		s := p.parseStatement()

		if s != nil {
			b.Stmts = append(b.Stmts, s)
		}

		if p.pos == before {
			b.Stmts = append(b.Stmts, p.skipInvalid())
		}
	}

	for _, s := range b.Stmts {
		adopt(b, s)
	}

	p.finish(b, start)

	return b
}

// skipInvalid turns a run of tokens that cannot start a statement into one error node.
func (p *parser) skipInvalid() *ErrorNode {
	start := p.peek().Pos
	e := &ErrorNode{Message: p.unexpected()}

	p.next()

	for !p.blockFollow() && !p.startsStatement() {
		p.next()
	}

	p.finish(e, start)

	return e
}

func (p *parser) unexpected() string {
	tok := p.peek()
	if tok.Type == TokenInvalid {
		if msg := p.lex.Problem(tok.Pos.Offset); msg != "" {
			return fmt.Sprintf("%s near '%s'", msg, tok.Value)
		}
	}

	return "unexpected symbol near " + p.near()
}

func (p *parser) startsStatement() bool {
	tok := p.peek()

	switch tok.Type {
	case TokenName:
		return true
	case TokenKeyword:
		switch tok.Value {
		case "if", "while", "do", "for", "repeat", "function", "local", "return", "break", "goto":
			return true
		}
	case TokenOp:
		return tok.Value == ";" || tok.Value == "::" || tok.Value == "("
	}

	return false
}

//nolint:ireturn,cyclop // Statement dispatch.
func (p *parser) parseStatement() Stmt {
	tok := p.peek()

	if tok.Type == TokenOp {
		switch tok.Value {
		case ";":
			p.next()

			return nil
		case "::":
			return p.parseLabel()
		}
	}

	if tok.Type == TokenKeyword {
		switch tok.Value {
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "do":
			start := p.next().Pos
			s := &DoStat{}
			s.Body = p.parseBlock()
			adopt(s, s.Body)
			p.expectClose(s, "end", "do", start.Line)
			p.finish(s, start)

			return s
		case "for":
			return p.parseFor()
		case "repeat":
			return p.parseRepeat()
		case "function":
			return p.parseFuncStat()
		case "local":
			if p.peekAt(1).Type == TokenKeyword && p.peekAt(1).Value == "function" {
				return p.parseLocalFunc()
			}

			return p.parseLocal()
		case "break":
			start := p.next().Pos
			s := &BreakStat{}
			p.finish(s, start)

			return s
		case "goto":
			start := p.next().Pos
			s := &GotoStat{}

			if p.peek().Type == TokenName {
				s.Label = p.next().Value
			} else {
				p.errorAt(s, "<name> expected near "+p.near())
			}

			p.finish(s, start)

			return s
		}
	}

	if !p.startsStatement() {
		return nil
	}

	return p.parseExprStat()
}

func (p *parser) parseLabel() Stmt {
	start := p.next().Pos
	s := &LabelStat{}

	if p.peek().Type == TokenName {
		s.Name = p.next().Value
	} else {
		p.errorAt(s, "<name> expected near "+p.near())
	}

	p.expect(s, "::")
	p.finish(s, start)

	return s
}

func (p *parser) parseIf() Stmt {
	start := p.next().Pos
	s := &IfStat{}

	cond := p.parseExpr()
	s.Conds = append(s.Conds, cond)
	p.expect(s, "then")
	s.Blocks = append(s.Blocks, p.parseBlock())

	for p.is("elseif") {
		p.next()
		s.Conds = append(s.Conds, p.parseExpr())
		p.expect(s, "then")
		s.Blocks = append(s.Blocks, p.parseBlock())
	}

	if p.accept("else") {
		s.Else = p.parseBlock()
	}

	adoptExprs(s, s.Conds)

	for _, b := range s.Blocks {
		adopt(s, b)
	}

	adopt(s, s.Else)
	p.expectClose(s, "end", "if", start.Line)
	p.finish(s, start)

	return s
}

func (p *parser) parseWhile() Stmt {
	start := p.next().Pos
	s := &WhileStat{}
	s.Cond = p.parseExpr()
	p.expect(s, "do")
	s.Body = p.parseBlock()
	adopt(s, s.Cond, s.Body)
	p.expectClose(s, "end", "while", start.Line)
	p.finish(s, start)

	return s
}

func (p *parser) parseRepeat() Stmt {
	start := p.next().Pos
	s := &RepeatStat{}
	s.Body = p.parseBlock()
	p.expectClose(s, "until", "repeat", start.Line)
	s.Cond = p.parseExpr()
	adopt(s, s.Body, s.Cond)
	p.finish(s, start)

	return s
}

func (p *parser) parseFor() Stmt {
	start := p.next().Pos

	if p.peek().Type != TokenName {
		s := &GenericForStat{}
		p.errorAt(s, "<name> expected near "+p.near())
		p.finish(s, start)

		return s
	}

	first := p.parseNameDef()

	if p.is("=") {
		p.next()

		s := &NumericForStat{Var: first}
		s.Start = p.parseExpr()
		p.expect(s, ",")
		s.Stop = p.parseExpr()

		if p.accept(",") {
			s.Step = p.parseExpr()
		}

		p.expect(s, "do")
		s.Body = p.parseBlock()
		adopt(s, s.Var, s.Start, s.Stop, s.Step, s.Body)
		p.expectClose(s, "end", "for", start.Line)
		p.finish(s, start)

		return s
	}

	s := &GenericForStat{Names: []*NameDef{first}}

	for p.accept(",") {
		if p.peek().Type != TokenName {
			p.errorAt(s, "<name> expected near "+p.near())

			break
		}

		s.Names = append(s.Names, p.parseNameDef())
	}

	p.expect(s, "in")
	s.Exprs = p.parseExprList()
	p.expect(s, "do")
	s.Body = p.parseBlock()

	for _, n := range s.Names {
		adopt(s, n)
	}

	adoptExprs(s, s.Exprs)
	adopt(s, s.Body)
	p.expectClose(s, "end", "for", start.Line)
	p.finish(s, start)

	return s
}

func (p *parser) parseNameDef() *NameDef {
	tok := p.next()
	d := &NameDef{Name: tok.Value}
	p.finish(d, tok.Pos)

	return d
}

func (p *parser) parseFuncStat() Stmt {
	start := p.next().Pos
	s := &FuncStat{}

	if p.peek().Type != TokenName {
		p.errorAt(s, "<name> expected near "+p.near())
		p.finish(s, start)

		return s
	}

	tok := p.next()
	name := &NameExpr{Name: tok.Value}
	p.finish(name, tok.Pos)

	var target Expr = name

	for p.is(".") || p.is(":") {
		colon := p.next().Value == ":"
		idx := &IndexExpr{X: target, Colon: colon}

		if p.peek().Type == TokenName {
			idx.Name = p.next().Value
		} else {
			p.errorAt(idx, "<name> expected near "+p.near())
		}

		adopt(idx, target)
		p.finish(idx, tok.Pos)
		target = idx

		if colon {
			break
		}
	}

	s.Name = target
	s.Body = p.parseFuncBody(start.Line)
	adopt(s, s.Name, s.Body)
	p.finish(s, start)

	return s
}

func (p *parser) parseLocalFunc() Stmt {
	start := p.next().Pos // local
	p.next()              // function

	s := &LocalFuncStat{}

	if p.peek().Type == TokenName {
		s.Name = p.parseNameDef()
	} else {
		p.errorAt(s, "<name> expected near "+p.near())
	}

	s.Body = p.parseFuncBody(start.Line)
	adopt(s, s.Name, s.Body)
	p.finish(s, start)

	return s
}

func (p *parser) parseLocal() Stmt {
	start := p.next().Pos
	s := &LocalStat{}

	for {
		if p.peek().Type != TokenName {
			p.errorAt(s, "<name> expected near "+p.near())

			break
		}

		s.Names = append(s.Names, p.parseNameDef())

		attrib := ""

		if p.accept("<") {
			if p.peek().Type == TokenName {
				attrib = p.next().Value
			}

			p.expect(s, ">")
		}

		s.Attribs = append(s.Attribs, attrib)

		if !p.accept(",") {
			break
		}
	}

	if p.accept("=") {
		s.Exprs = p.parseExprList()
	}

	for _, n := range s.Names {
		adopt(s, n)
	}

	adoptExprs(s, s.Exprs)
	p.finish(s, start)

	return s
}

func (p *parser) parseReturn() Stmt {
	start := p.next().Pos
	s := &ReturnStat{}

	if !p.blockFollow() && !p.is(";") {
		s.Exprs = p.parseExprList()
	}

	p.accept(";")
	adoptExprs(s, s.Exprs)
	p.finish(s, start)

	return s
}

func (p *parser) parseExprStat() Stmt {
	start := p.peek().Pos
	first := p.parseSuffixedExpr()

	if p.is("=") || p.is(",") {
		s := &AssignStat{Targets: []Expr{first}}

		for p.accept(",") {
			s.Targets = append(s.Targets, p.parseSuffixedExpr())
		}

		p.expect(s, "=")
		s.Exprs = p.parseExprList()
		adoptExprs(s, s.Targets)
		adoptExprs(s, s.Exprs)
		p.finish(s, start)

		return s
	}

	s := &ExprStat{X: first}
	adopt(s, first)
	p.finish(s, start)

	return s
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

func (p *parser) parseExprList() []Expr {
	list := []Expr{p.parseExpr()}

	for p.accept(",") {
		list = append(list, p.parseExpr())
	}

	return list
}

//nolint:ireturn // Expression nodes are polymorphic.
func (p *parser) parseExpr() Expr {
	if !p.startsExpr() {
		start := p.peek().Pos
		if p.peek().EOF() {
			start = p.prevEnd
		}

		e := &ErrorNode{Message: "unexpected symbol near " + p.near()}
		e.span = Span{Start: start, End: start}

		if p.peek().Type == TokenInvalid {
			e.Message = p.unexpected()
			p.next()
			p.finish(e, start)
		}

		return e
	}

	return p.parseSubExpr(0)
}

func (p *parser) startsExpr() bool {
	tok := p.peek()

	switch tok.Type {
	case TokenName, TokenNumber, TokenString:
		return true
	case TokenKeyword:
		switch tok.Value {
		case "nil", "true", "false", "function", "not":
			return true
		}
	case TokenOp:
		switch tok.Value {
		case "...", "{", "(", "-", "#", "~":
			return true
		}
	}

	return false
}

func (p *parser) unaryOp() (string, bool) {
	tok := p.peek()
	if tok.Type == TokenKeyword && tok.Value == "not" {
		return "not", true
	}

	if tok.Type == TokenOp && (tok.Value == "-" || tok.Value == "#" || tok.Value == "~") {
		return tok.Value, true
	}

	return "", false
}

func (p *parser) binaryOp() (string, [2]int, bool) {
	tok := p.peek()
	if tok.Type != TokenOp && tok.Type != TokenKeyword {
		return "", [2]int{}, false
	}

	prio, ok := binaryPriority[tok.Value]

	return tok.Value, prio, ok
}

//nolint:ireturn // Expression nodes are polymorphic.
func (p *parser) parseSubExpr(limit int) Expr {
	start := p.peek().Pos

	var left Expr

	if op, ok := p.unaryOp(); ok {
		p.next()

		u := &UnaryExpr{Op: op}
		u.X = p.parseOperand(unaryPriority)
		adopt(u, u.X)
		p.finish(u, start)
		left = u
	} else {
		left = p.parseSimpleExpr()
	}

	for {
		op, prio, ok := p.binaryOp()
		if !ok || prio[0] <= limit {
			return left
		}

		p.next()

		b := &BinaryExpr{Op: op, X: left}
		b.Y = p.parseOperand(prio[1])
		adopt(b, b.X, b.Y)
		p.finish(b, start)
		left = b
	}
}

//nolint:ireturn // Expression nodes are polymorphic.
func (p *parser) parseOperand(limit int) Expr {
	if !p.startsExpr() {
		return p.parseExpr()
	}

	return p.parseSubExpr(limit)
}

//nolint:ireturn,cyclop // Expression nodes are polymorphic.
func (p *parser) parseSimpleExpr() Expr {
	tok := p.peek()
	start := tok.Pos

	switch tok.Type {
	case TokenNumber:
		p.next()

		e := &LiteralExpr{Kind: LiteralNumber, Raw: tok.Value, Value: tok.Value}
		p.finish(e, start)

		return e
	case TokenString:
		p.next()

		e := &LiteralExpr{Kind: LiteralString, Raw: tok.Value, Value: unquote(tok.Value)}
		p.finish(e, start)

		return e
	case TokenKeyword:
		if kind, ok := keywordLiterals[tok.Value]; ok {
			p.next()

			e := &LiteralExpr{Kind: kind, Raw: tok.Value}
			p.finish(e, start)

			return e
		}

		if tok.Value == "function" {
			p.next()

			e := &FuncExpr{}
			e.Body = p.parseFuncBody(start.Line)
			adopt(e, e.Body)
			p.finish(e, start)

			return e
		}
	case TokenOp:
		switch tok.Value {
		case "...":
			p.next()

			e := &LiteralExpr{Kind: LiteralVararg, Raw: tok.Value}
			p.finish(e, start)

			return e
		case "{":
			return p.parseTable()
		}
	}

	return p.parseSuffixedExpr()
}

//nolint:ireturn // Expression nodes are polymorphic.
func (p *parser) parsePrimaryExpr() Expr {
	tok := p.peek()
	start := tok.Pos

	if tok.Type == TokenName {
		p.next()

		e := &NameExpr{Name: tok.Value}
		p.finish(e, start)

		return e
	}

	if tok.Type == TokenOp && tok.Value == "(" {
		p.next()

		e := &ParenExpr{}
		e.X = p.parseExpr()
		adopt(e, e.X)
		p.expectClose(e, ")", "(", start.Line)
		p.finish(e, start)

		return e
	}

	e := &ErrorNode{Message: p.unexpected()}

	if !tok.EOF() && !p.blockFollow() {
		p.next()
		p.finish(e, start)
	} else {
		if tok.EOF() {
			start = p.prevEnd
		}

		e.span = Span{Start: start, End: start}
	}

	return e
}

//nolint:ireturn,cyclop // Expression nodes are polymorphic.
func (p *parser) parseSuffixedExpr() Expr {
	start := p.peek().Pos
	x := p.parsePrimaryExpr()

	for {
		tok := p.peek()

		switch {
		case tok.Type == TokenOp && tok.Value == ".":
			p.next()

			idx := &IndexExpr{X: x}

			if p.peek().Type == TokenName {
				idx.Name = p.next().Value
			} else {
				p.errorAt(idx, "<name> expected near "+p.near())
			}

			adopt(idx, x)
			p.finish(idx, start)
			x = idx
		case tok.Type == TokenOp && tok.Value == "[":
			p.next()

			idx := &IndexExpr{X: x}
			idx.Key = p.parseExpr()
			p.expect(idx, "]")
			adopt(idx, x, idx.Key)
			p.finish(idx, start)
			x = idx
		case tok.Type == TokenOp && tok.Value == ":":
			p.next()

			idx := &IndexExpr{X: x, Colon: true}

			if p.peek().Type == TokenName {
				idx.Name = p.next().Value
			} else {
				p.errorAt(idx, "<name> expected near "+p.near())
			}

			adopt(idx, x)
			p.finish(idx, start)

			call := &CallExpr{Fn: idx}
			p.parseArgs(call)
			adopt(call, idx)
			p.finish(call, start)
			x = call
		case (tok.Type == TokenOp && (tok.Value == "(" || tok.Value == "{")) || tok.Type == TokenString:
			call := &CallExpr{Fn: x}
			p.parseArgs(call)
			adopt(call, x)
			p.finish(call, start)
			x = call
		default:
			return x
		}
	}
}

func (p *parser) parseArgs(call *CallExpr) {
	tok := p.peek()

	switch {
	case tok.Type == TokenString:
		p.next()

		e := &LiteralExpr{Kind: LiteralString, Raw: tok.Value, Value: unquote(tok.Value)}
		p.finish(e, tok.Pos)
		call.Args = []Expr{e}
	case tok.Type == TokenOp && tok.Value == "{":
		call.Args = []Expr{p.parseTable()}
	case tok.Type == TokenOp && tok.Value == "(":
		p.next()

		if !p.is(")") {
			call.Args = p.parseExprList()
		}

		p.expectClose(call, ")", "(", tok.Pos.Line)
	default:
		p.errorAt(call, "function arguments expected near "+p.near())
	}

	adoptExprs(call, call.Args)
}

func (p *parser) parseTable() Expr {
	start := p.next().Pos // {
	t := &TableExpr{}

	for !p.is("}") && !p.peek().EOF() {
		f := p.parseField()
		t.Fields = append(t.Fields, f)
		adopt(t, f)

		if !p.accept(",") && !p.accept(";") {
			break
		}
	}

	p.expectClose(t, "}", "{", start.Line)
	p.finish(t, start)

	return t
}

func (p *parser) parseField() *TableField {
	start := p.peek().Pos
	f := &TableField{}

	switch {
	case p.is("["):
		p.next()
		f.Key = p.parseExpr()
		p.expect(f, "]")
		p.expect(f, "=")
		f.Value = p.parseExpr()
	case p.peek().Type == TokenName && p.peekAt(1).Type == TokenOp && p.peekAt(1).Value == "=":
		f.Name = p.next().Value
		p.next()
		f.Value = p.parseExpr()
	default:
		f.Value = p.parseExpr()
	}

	adopt(f, f.Key, f.Value)
	p.finish(f, start)

	return f
}

func (p *parser) parseFuncBody(line int) *FuncBody {
	start := p.peek().Pos
	body := &FuncBody{}

	if p.expect(body, "(") {
		for !p.is(")") {
			if p.accept("...") {
				body.Vararg = true

				break
			}

			if p.peek().Type != TokenName {
				p.errorAt(body, "<name> expected near "+p.near())

				break
			}

			tok := p.next()
			param := &ParamDef{Name: tok.Value}
			p.finish(param, tok.Pos)
			body.Params = append(body.Params, param)

			if !p.accept(",") {
				break
			}
		}

		p.expect(body, ")")
	}

	body.Block = p.parseBlock()

	for _, prm := range body.Params {
		adopt(body, prm)
	}

	adopt(body, body.Block)
	p.expectClose(body, "end", "function", line)
	p.finish(body, start)

	return body
}
