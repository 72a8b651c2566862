package luna

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Comment is a group of consecutive `---` lines. Each line becomes one item:
// a *DocText, a tag node, or an *ErrorNode for a malformed tag.
type Comment struct {
	node

	Items []Node
	// Owner is the statement the comment documents, or nil for a detached comment.
	Owner Node
}

// Text returns the free-text lines of the comment joined with newlines.
func (c *Comment) Text() string {
	var lines []string

	for _, it := range c.Items {
		if t, ok := it.(*DocText); ok {
			lines = append(lines, t.Text)
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Tags returns the items of c with type T, in source order.
func Tags[T Node](c *Comment) []T {
	if c == nil {
		return nil
	}

	var out []T

	for _, it := range c.Items {
		if t, ok := it.(T); ok {
			out = append(out, t)
		}
	}

	return out
}

// Param returns the @param tag for name.
func (c *Comment) Param(name string) *ParamTag {
	for _, p := range Tags[*ParamTag](c) {
		if p.Name == name {
			return p
		}
	}

	return nil
}

// Class returns the first @class tag.
func (c *Comment) Class() *ClassTag {
	if tags := Tags[*ClassTag](c); len(tags) > 0 {
		return tags[0]
	}

	return nil
}

// Type returns the first @type tag.
func (c *Comment) Type() *TypeTag {
	if tags := Tags[*TypeTag](c); len(tags) > 0 {
		return tags[0]
	}

	return nil
}

// DocText is a free-text comment line with the `---` marker removed.
type DocText struct {
	node

	Text string
}

// ParamTag is `@param [optional] name[?] type [desc]`.
type ParamTag struct {
	node

	Name     string
	NameSpan Span
	Optional bool
	Type     *DocType
	Desc     string
}

// ReturnTag is `@return type[, type...] [desc]`.
type ReturnTag struct {
	node

	Types []*DocType
	Desc  string
}

// FieldTag is `@field [public|protected|private] name type [desc]`.
type FieldTag struct {
	node

	Access   string
	Name     string
	NameSpan Span
	Type     *DocType
	Desc     string
}

// ClassTag is `@class Name [: Super] [desc]`.
type ClassTag struct {
	node

	Name     string
	NameSpan Span
	Super    string
	Desc     string
}

// TypeTag is `@type type [desc]`.
type TypeTag struct {
	node

	Type *DocType
	Desc string
}

// OverloadTag is `@overload fun(...)`.
type OverloadTag struct {
	node

	Fun  *DocType
	Desc string
}

// SeeTag is `@see Class[#member]`.
type SeeTag struct {
	node

	Class  string
	Member string
	Desc   string
}

// DocTypeKind distinguishes doc type expressions.
type DocTypeKind int

// Doc type kinds.
const (
	DocNamed DocTypeKind = iota
	DocLiteral
	DocArray
	DocUnion
	DocFunction
)

// DocType is a type expression written in a doc comment.
type DocType struct {
	Kind DocTypeKind
	Span Span
	// Name is the class or primitive name for DocNamed and the decoded content for DocLiteral.
	Name string
	// Args holds generic arguments (DocNamed), the element (DocArray) or members (DocUnion).
	Args    []*DocType
	Params  []*DocFunParam
	Returns []*DocType
}

// DocFunParam is a parameter of a `fun(...)` doc type.
type DocFunParam struct {
	Name     string
	Optional bool
	Type     *DocType
}

// String renders the type back to doc syntax.
func (t *DocType) String() string {
	if t == nil {
		return ""
	}

	switch t.Kind {
	case DocLiteral:
		return Quote(t.Name)
	case DocArray:
		return t.Args[0].String() + "[]"
	case DocUnion:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}

		return strings.Join(parts, "|")
	case DocFunction:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.Name
			if p.Type != nil {
				params[i] += ": " + p.Type.String()
			}
		}

		s := "fun(" + strings.Join(params, ", ") + ")"
		if len(t.Returns) > 0 {
			rets := make([]string, len(t.Returns))
			for i, r := range t.Returns {
				rets[i] = r.String()
			}

			s += ": " + strings.Join(rets, ", ")
		}

		return s
	default:
		if len(t.Args) == 0 {
			return t.Name
		}

		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}

		return t.Name + "<" + strings.Join(args, ", ") + ">"
	}
}

// ----------------------------------------------------------------------------
// Tag grammar
// ----------------------------------------------------------------------------

var docLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t]+`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `\.\.\.|[@|,:?()\[\]<>#.{}]`},
	{Name: "Other", Pattern: `[^ \t]`},
})

var tagParser = participle.MustBuild[tagGrammar](
	participle.Lexer(docLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// knownTags are the tags with a dedicated grammar. Anything else is kept as text.
var knownTags = map[string]bool{
	"param": true, "return": true, "field": true, "class": true,
	"type": true, "overload": true, "see": true,
}

// TagNames returns the tag names understood by the doc comment parser.
func TagNames() []string {
	return []string{"class", "field", "overload", "param", "return", "see", "type"}
}

type tagGrammar struct {
	Param    *paramGrammar    `parser:"  'param' @@"`
	Return   *returnGrammar   `parser:"| 'return' @@"`
	Field    *fieldGrammar    `parser:"| 'field' @@"`
	Class    *classGrammar    `parser:"| 'class' @@"`
	Type     *typeGrammar     `parser:"| 'type' @@"`
	Overload *overloadGrammar `parser:"| 'overload' @@"`
	See      *seeGrammar      `parser:"| 'see' @@"`
}

type descGrammar struct {
	Pos   lexer.Position
	Words []string `parser:"@(Ident | String | Number | Punct | Other)+"`
}

type paramGrammar struct {
	Optional bool          `parser:"@'optional'?"`
	Name     *nameGrammar  `parser:"@@"`
	Nullable bool          `parser:"@'?'?"`
	Type     *unionGrammar `parser:"@@"`
	Desc     *descGrammar  `parser:"@@?"`
}

type nameGrammar struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string `parser:"@(Ident | '...')"`
}

type returnGrammar struct {
	Types []*unionGrammar `parser:"@@ (',' @@)*"`
	Desc  *descGrammar    `parser:"@@?"`
}

type fieldGrammar struct {
	Access string        `parser:"@('public' | 'protected' | 'private')?"`
	Name   *nameGrammar  `parser:"@@"`
	Type   *unionGrammar `parser:"@@"`
	Desc   *descGrammar  `parser:"@@?"`
}

type classGrammar struct {
	Name  *qualifiedGrammar `parser:"@@"`
	Super string            `parser:"(':' @Ident (@'.' @Ident)*)?"`
	Desc  *descGrammar      `parser:"@@?"`
}

type qualifiedGrammar struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Name   string `parser:"@Ident (@'.' @Ident)*"`
}

type typeGrammar struct {
	Type *unionGrammar `parser:"@@"`
	Desc *descGrammar  `parser:"@@?"`
}

type overloadGrammar struct {
	Fun  *funGrammar  `parser:"@@"`
	Desc *descGrammar `parser:"@@?"`
}

type seeGrammar struct {
	Class  string       `parser:"@Ident (@'.' @Ident)*"`
	Member string       `parser:"('#' @Ident)?"`
	Desc   *descGrammar `parser:"@@?"`
}

type unionGrammar struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Members []*primaryGrammar `parser:"@@ ('|' @@)*"`
}

type primaryGrammar struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Base   *baseGrammar `parser:"@@"`
	Arrays []string     `parser:"(@'[' ']')*"`
}

type baseGrammar struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Fun    *funGrammar   `parser:"  @@"`
	String *string       `parser:"| @String"`
	Paren  *unionGrammar `parser:"| '(' @@ ')'"`
	Named  *namedGrammar `parser:"| @@"`
}

type funGrammar struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Params  []*funParamGrammar `parser:"'fun' '(' (@@ (',' @@)*)? ')'"`
	Returns []*unionGrammar    `parser:"(':' @@ (',' @@)*)?"`
}

type funParamGrammar struct {
	Name     string        `parser:"@(Ident | '...')"`
	Optional bool          `parser:"@'?'?"`
	Type     *unionGrammar `parser:"(':' @@)?"`
}

type namedGrammar struct {
	Name     string          `parser:"@Ident (@'.' @Ident)*"`
	Generics []*unionGrammar `parser:"('<' @@ (',' @@)* '>')?"`
}

// ----------------------------------------------------------------------------
// Comment parsing
// ----------------------------------------------------------------------------

// parseComment parses one doc comment group into a Comment node.
func parseComment(g *commentGroup) *Comment {
	c := &Comment{}
	c.span = g.span()

	for _, line := range g.lines {
		item := parseDocLine(line)
		item.base().parent = c
		c.Items = append(c.Items, item)
	}

	return c
}

//nolint:ireturn // Doc items are polymorphic.
func parseDocLine(line Trivia) Node {
	body := strings.TrimPrefix(line.Text, "---")
	trimmed := strings.TrimLeft(body, " \t")

	if !strings.HasPrefix(trimmed, "@") {
		t := &DocText{Text: strings.TrimPrefix(body, " ")}
		t.span = line.Span

		return t
	}

	// Offset of the tag name within the comment text.
	at := len(line.Text) - len(trimmed) + 1
	text := line.Text[at:]

	name := text
	if i := strings.IndexFunc(text, func(r rune) bool { return !IsNameRune(r) }); i >= 0 {
		name = text[:i]
	}

	if !knownTags[name] {
		t := &DocText{Text: strings.TrimPrefix(body, " ")}
		t.span = line.Span

		return t
	}

	base := shift(line.Span.Start, line.Text, at)
	conv := &tagConverter{base: base, text: text}

	tag, err := tagParser.ParseString("", text)
	if err != nil {
		e := &ErrorNode{Message: "malformed @" + name + " tag"}
		e.span = line.Span

		var perr participle.Error
		if errors.As(err, &perr) {
			e.Message += ": " + perr.Message()
			pos := conv.pos(perr.Position())
			e.span = Span{Start: pos, End: line.Span.End}
		}

		return e
	}

	n := conv.tag(tag)
	n.base().span = line.Span

	return n
}

// shift returns the position of text[idx:], given that text starts at start.
func shift(start lexer.Position, text string, idx int) lexer.Position {
	return lexer.Position{
		Filename: start.Filename,
		Offset:   start.Offset + idx,
		Line:     start.Line,
		Column:   start.Column + utf8.RuneCountInString(text[:idx]),
	}
}

// tagConverter turns grammar structs into tag nodes with absolute positions.
type tagConverter struct {
	base lexer.Position
	text string
}

func (c *tagConverter) pos(rel lexer.Position) lexer.Position {
	idx := min(max(rel.Offset, 0), len(c.text))

	return shift(c.base, c.text, idx)
}

// span converts a relative range. EndPos sits on the next token, so trailing blanks are trimmed.
func (c *tagConverter) span(start, end lexer.Position) Span {
	e := min(max(end.Offset, 0), len(c.text))
	for e > start.Offset && (c.text[e-1] == ' ' || c.text[e-1] == '\t') {
		e--
	}

	end.Offset = e

	return Span{Start: c.pos(start), End: c.pos(end)}
}

func (c *tagConverter) desc(d *descGrammar) string {
	if d == nil {
		return ""
	}

	s := c.text[min(d.Pos.Offset, len(c.text)):]

	return strings.TrimSpace(strings.TrimPrefix(s, "@"))
}

//nolint:ireturn // Tag nodes are polymorphic.
func (c *tagConverter) tag(g *tagGrammar) Node {
	switch {
	case g.Param != nil:
		p := g.Param

		return &ParamTag{
			Name:     p.Name.Name,
			NameSpan: c.span(p.Name.Pos, p.Name.EndPos),
			Optional: p.Optional || p.Nullable,
			Type:     c.union(p.Type),
			Desc:     c.desc(p.Desc),
		}
	case g.Return != nil:
		t := &ReturnTag{Desc: c.desc(g.Return.Desc)}
		for _, u := range g.Return.Types {
			t.Types = append(t.Types, c.union(u))
		}

		return t
	case g.Field != nil:
		f := g.Field

		return &FieldTag{
			Access:   f.Access,
			Name:     f.Name.Name,
			NameSpan: c.span(f.Name.Pos, f.Name.EndPos),
			Type:     c.union(f.Type),
			Desc:     c.desc(f.Desc),
		}
	case g.Class != nil:
		return &ClassTag{
			Name:     g.Class.Name.Name,
			NameSpan: c.span(g.Class.Name.Pos, g.Class.Name.EndPos),
			Super:    g.Class.Super,
			Desc:     c.desc(g.Class.Desc),
		}
	case g.Type != nil:
		return &TypeTag{Type: c.union(g.Type.Type), Desc: c.desc(g.Type.Desc)}
	case g.Overload != nil:
		return &OverloadTag{Fun: c.fun(g.Overload.Fun), Desc: c.desc(g.Overload.Desc)}
	default:
		return &SeeTag{Class: g.See.Class, Member: g.See.Member, Desc: c.desc(g.See.Desc)}
	}
}

func (c *tagConverter) union(u *unionGrammar) *DocType {
	if u == nil {
		return nil
	}

	if len(u.Members) == 1 {
		return c.primary(u.Members[0])
	}

	t := &DocType{Kind: DocUnion, Span: c.span(u.Pos, u.EndPos)}
	for _, m := range u.Members {
		t.Args = append(t.Args, c.primary(m))
	}

	return t
}

func (c *tagConverter) primary(p *primaryGrammar) *DocType {
	t := c.baseType(p.Base)

	for range p.Arrays {
		t = &DocType{Kind: DocArray, Span: c.span(p.Pos, p.EndPos), Args: []*DocType{t}}
	}

	return t
}

func (c *tagConverter) baseType(b *baseGrammar) *DocType {
	switch {
	case b.Fun != nil:
		return c.fun(b.Fun)
	case b.String != nil:
		return &DocType{Kind: DocLiteral, Span: c.span(b.Pos, b.EndPos), Name: unquote(*b.String)}
	case b.Paren != nil:
		return c.union(b.Paren)
	default:
		t := &DocType{Kind: DocNamed, Span: c.span(b.Pos, b.EndPos), Name: b.Named.Name}
		for _, g := range b.Named.Generics {
			t.Args = append(t.Args, c.union(g))
		}

		return t
	}
}

func (c *tagConverter) fun(f *funGrammar) *DocType {
	t := &DocType{Kind: DocFunction, Span: c.span(f.Pos, f.EndPos)}

	for _, p := range f.Params {
		t.Params = append(t.Params, &DocFunParam{Name: p.Name, Optional: p.Optional, Type: c.union(p.Type)})
	}

	for _, r := range f.Returns {
		t.Returns = append(t.Returns, c.union(r))
	}

	return t
}
