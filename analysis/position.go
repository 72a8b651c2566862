package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/rlch/luna"
)

// CursorKind classifies the text under a cursor.
type CursorKind int

// Cursor kinds.
const (
	CursorCode CursorKind = iota
	CursorDocComment
	CursorComment
	CursorString
)

// TokenContext provides context about the cursor position for completion.
type TokenContext struct {
	Kind CursorKind

	// Prefix is the identifier text immediately before the cursor.
	Prefix string

	// Line is the comment text from its `---` up to the cursor. Set for doc comments only.
	Line string

	// Comment is the parsed doc comment containing the cursor, if any.
	Comment *luna.Comment
}

// GetTokenContext classifies offset in text. f supplies the parsed doc comments and may be nil.
func GetTokenContext(f *AnalyzedFile, text string, offset int) *TokenContext {
	ctx := &TokenContext{Kind: CursorCode, Prefix: WordPrefix(text, offset)}

	tok, ok := tokenAround(text, offset)
	if !ok {
		return ctx
	}

	switch tok.Type {
	case luna.TokenString, luna.TokenInvalid:
		ctx.Kind = CursorString
	case luna.TokenComment:
		if !luna.IsDocComment(tok.Value) || isLongComment(tok.Value) {
			ctx.Kind = CursorComment

			return ctx
		}

		ctx.Kind = CursorDocComment
		ctx.Line = tok.Value[:offset-tok.Pos.Offset]

		if f != nil && f.Chunk != nil {
			for _, c := range f.Chunk.Comments {
				if c.Span().Contains(offset) {
					ctx.Comment = c

					break
				}
			}
		}
	}

	return ctx
}

// tokenAround returns the string or comment token whose body contains offset.
// A cursor right after a closed string is outside it; a cursor at the end of a line comment is inside.
func tokenAround(text string, offset int) (lexer.Token, bool) {
	for _, tok := range luna.Tokenize(text, nil) {
		start := tok.Pos.Offset
		end := start + len(tok.Value)

		if start >= offset {
			break
		}

		switch tok.Type {
		case luna.TokenComment:
			if offset < end || (offset == end && !isLongComment(tok.Value)) {
				return tok, true
			}
		case luna.TokenString:
			if offset < end {
				return tok, true
			}
		case luna.TokenInvalid:
			// Unfinished strings run to the end of the line.
			if (tok.Value[0] == '"' || tok.Value[0] == '\'') && offset <= end {
				return tok, true
			}
		}
	}

	return lexer.Token{}, false
}

func isLongComment(text string) bool {
	rest := strings.TrimPrefix(text, "--")
	if !strings.HasPrefix(rest, "[") {
		return false
	}

	rest = strings.TrimLeft(rest[1:], "=")

	return strings.HasPrefix(rest, "[")
}

// WordPrefix returns the identifier characters immediately before offset.
func WordPrefix(text string, offset int) string {
	offset = min(max(offset, 0), len(text))
	start := offset

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !luna.IsNameRune(r) {
			break
		}

		start -= size
	}

	return text[start:offset]
}

// DummyIdentifier is spliced in at the cursor so that an incomplete position parses as a name.
const DummyIdentifier = "__luna_completion__"

// CompletionSite is the cursor position resolved against a reparsed copy of the text.
type CompletionSite struct {
	Chunk *luna.Chunk

	// Name is set when the cursor is at a bare name reference.
	Name *luna.NameExpr

	// Member is set when the cursor follows `.` or `:`.
	Member *luna.IndexExpr
}

// ParseCompletionSite parses text with DummyIdentifier inserted at offset and finds the
// reference under the cursor. Nodes in the result belong to the copy, not to text's own tree.
func ParseCompletionSite(text string, offset int) *CompletionSite {
	offset = min(max(offset, 0), len(text))
	chunk := luna.Parse(text[:offset] + DummyIdentifier + text[offset:])
	site := &CompletionSite{Chunk: chunk}

	switch n := luna.NodeAt(chunk, offset).(type) {
	case *luna.NameExpr:
		if strings.Contains(n.Name, DummyIdentifier) {
			site.Name = n
		}
	case *luna.IndexExpr:
		if strings.Contains(n.Name, DummyIdentifier) {
			site.Member = n
		}
	}

	return site
}
