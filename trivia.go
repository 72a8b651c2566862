package luna

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Span represents a range in source code.
type Span struct {
	Start lexer.Position
	End   lexer.Position
}

// Contains reports whether the byte offset lies within the span (end inclusive).
func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset <= s.End.Offset
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Trivia represents non-semantic tokens like comments.
type Trivia struct {
	Type TriviaType
	Text string
	Span Span
	// Long is set for --[[ ]] comments.
	Long bool
	// Trailing is set when code precedes the comment on the same line.
	Trailing bool
}

// TriviaType distinguishes different kinds of trivia.
type TriviaType int

// TriviaType constants define the types of trivia.
const (
	// TriviaComment represents a comment trivia.
	TriviaComment TriviaType = iota
	// TriviaWhitespace represents whitespace trivia.
	TriviaWhitespace
)

// TriviaList holds all trivia collected during lexing.
type TriviaList struct {
	items []Trivia
}

// Add appends trivia to the list.
func (t *TriviaList) Add(trivia Trivia) {
	t.items = append(t.items, trivia)
}

// All returns all collected trivia.
func (t *TriviaList) All() []Trivia {
	return t.items
}

// Reset clears the trivia list.
func (t *TriviaList) Reset() {
	t.items = t.items[:0]
}

// IsDocComment reports whether a line comment starts with three dashes.
func IsDocComment(text string) bool {
	return strings.HasPrefix(text, "---")
}

// commentGroup is a run of doc comment lines on consecutive lines.
type commentGroup struct {
	lines []Trivia
}

func (g *commentGroup) span() Span {
	return Span{Start: g.lines[0].Span.Start, End: g.lines[len(g.lines)-1].Span.End}
}

func (g *commentGroup) endLine() int {
	return g.lines[len(g.lines)-1].Span.Start.Line
}

// groupDocComments collects consecutive, non-trailing `---` line comments.
// A blank line, a plain comment or code ends a group.
func groupDocComments(trivia []Trivia) []*commentGroup {
	var (
		groups []*commentGroup
		cur    *commentGroup
	)

	for _, t := range trivia {
		if t.Type != TriviaComment || t.Long || t.Trailing || !IsDocComment(t.Text) {
			cur = nil

			continue
		}

		if cur != nil && t.Span.Start.Line == cur.endLine()+1 {
			cur.lines = append(cur.lines, t)

			continue
		}

		cur = &commentGroup{lines: []Trivia{t}}
		groups = append(groups, cur)
	}

	return groups
}

// attachComments parses every doc comment group and attaches it to the comment owner
// statement that starts on the line directly below the group.
func attachComments(chunk *Chunk, trivia *TriviaList) {
	if trivia == nil || len(trivia.items) == 0 {
		return
	}

	starts := make(map[int]Stmt)

	Inspect(chunk, func(n Node) bool {
		if _, bad := n.(*ErrorNode); bad {
			return false
		}

		if s, ok := n.(Stmt); ok {
			line := s.Span().Start.Line
			if _, seen := starts[line]; !seen {
				starts[line] = s
			}
		}

		return true
	})

	for _, g := range groupDocComments(trivia.All()) {
		comment := parseComment(g)

		var owner Node = chunk

		if s, ok := starts[g.endLine()+1].(CommentOwner); ok && s.Comment() == nil {
			setDoc(s, comment)
			owner = s
			comment.Owner = s
		}

		comment.parent = owner
		chunk.Comments = append(chunk.Comments, comment)
	}
}

func setDoc(s CommentOwner, c *Comment) {
	switch st := s.(type) {
	case *LocalStat:
		st.Doc = c
	case *AssignStat:
		st.Doc = c
	case *FuncStat:
		st.Doc = c
	case *LocalFuncStat:
		st.Doc = c
	}
}
