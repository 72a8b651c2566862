package luna

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token type constants - negative values as per participle convention.
const (
	TokenEOF        lexer.TokenType = lexer.EOF
	TokenComment    lexer.TokenType = -(iota + 2) //nolint:mnd // participle convention
	TokenString                                   // quoted and long-bracket strings
	TokenNumber                                   // decimal, hex and float numbers
	TokenName                                     // identifiers
	TokenKeyword                                  // reserved words
	TokenOp                                       // operators and punctuation
	TokenWhitespace                               // spaces, tabs, newlines
	TokenInvalid                                  // unterminated strings, stray characters
)

// keywords is the set of Lua reserved words.
var keywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true, "end": true,
	"false": true, "for": true, "function": true, "goto": true, "if": true, "in": true,
	"local": true, "nil": true, "not": true, "or": true, "repeat": true, "return": true,
	"then": true, "true": true, "until": true, "while": true,
}

// IsKeyword reports whether s is a Lua reserved word.
func IsKeyword(s string) bool {
	return keywords[s]
}

// IsName reports whether s can be written as a Lua identifier.
func IsName(s string) bool {
	if s == "" || keywords[s] {
		return false
	}

	for i, r := range s {
		if i == 0 && !isNameStart(r) || !isNameContinue(r) {
			return false
		}
	}

	return true
}

// Keywords returns the Lua reserved words.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}

	return out
}

// Lexer problems reported through TokenInvalid tokens.
const (
	msgUnterminatedString  = "unfinished string"
	msgUnterminatedLong    = "unfinished long string"
	msgUnterminatedComment = "unfinished long comment"
	msgUnexpectedCharacter = "unexpected symbol"
)

// luaLexer is the lexer definition every Lua tokenizer in the package is created from.
var luaLexer = newLuaLexer()

// Definition returns the participle lexer definition for Lua.
//
//nolint:ireturn // Exposes the participle lexer.Definition interface.
func Definition() lexer.Definition {
	return luaLexer
}

// luaDefinition implements lexer.Definition for Lua.
type luaDefinition struct {
	symbols map[string]lexer.TokenType
}

// newLuaLexer creates a new lexer Definition for Lua.
func newLuaLexer() *luaDefinition {
	return &luaDefinition{
		symbols: map[string]lexer.TokenType{
			"EOF":        TokenEOF,
			"Comment":    TokenComment,
			"String":     TokenString,
			"Number":     TokenNumber,
			"Name":       TokenName,
			"Keyword":    TokenKeyword,
			"Op":         TokenOp,
			"Whitespace": TokenWhitespace,
			"Invalid":    TokenInvalid,
		},
	}
}

// Symbols returns the mapping of symbol names to token types.
func (d *luaDefinition) Symbols() map[string]lexer.TokenType {
	return d.symbols
}

// Lex creates a new Lexer for the given reader.
//
//nolint:ireturn // Required by participle's lexer.Definition interface.
func (d *luaDefinition) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return d.lex(filename, string(data), nil), nil
}

// LexString implements lexer.StringDefinition.
//
//nolint:ireturn // Required by participle's lexer.StringDefinition interface.
func (d *luaDefinition) LexString(filename string, input string) (lexer.Lexer, error) {
	return d.lex(filename, input, nil), nil
}

// lex starts a lexer over input that records comments in trivia when it is non-nil.
func (d *luaDefinition) lex(filename, input string, trivia *TriviaList) *lexerState {
	return newLexerState(filename, input, trivia)
}

// Tokenize lexes src and returns every token, trivia included, followed by EOF.
// The collected comments are appended to trivia when it is non-nil.
func Tokenize(src string, trivia *TriviaList) []lexer.Token {
	// The Lua lexer never returns an error.
	toks, _ := lexer.ConsumeAll(luaLexer.lex("", src, trivia))

	return toks
}

// lexerState holds the state for lexing.
type lexerState struct {
	filename string
	input    string
	offset   int
	line     int
	col      int
	trivia   *TriviaList
	// problems maps the offset of a TokenInvalid token to its message.
	problems map[int]string
}

func newLexerState(filename, input string, trivia *TriviaList) *lexerState {
	return &lexerState{
		filename: filename,
		input:    input,
		line:     1,
		col:      1,
		trivia:   trivia,
		problems: make(map[int]string),
	}
}

// Next returns the next token. Lexing never fails: malformed input yields TokenInvalid.
func (l *lexerState) Next() (lexer.Token, error) {
	if l.eof() {
		return lexer.EOFToken(l.pos()), nil
	}

	start := l.pos()
	r := l.peek()

	if isSpace(r) {
		for !l.eof() && isSpace(l.peek()) {
			l.advance()
		}

		return l.token(TokenWhitespace, start), nil
	}

	if r == '-' && l.peekAt(1) == '-' {
		return l.scanComment(start), nil
	}

	if r == '"' || r == '\'' {
		return l.scanString(start, r), nil
	}

	if r == '[' {
		if level, ok := l.longBracketLevel(); ok {
			if !l.scanLongBracket(level) {
				return l.invalid(start, msgUnterminatedLong), nil
			}

			return l.token(TokenString, start), nil
		}
	}

	if isDigit(r) || (r == '.' && isDigit(l.peekAt(1))) {
		return l.scanNumber(start), nil
	}

	if isNameStart(r) {
		for !l.eof() && isNameContinue(l.peek()) {
			l.advance()
		}

		tok := l.token(TokenName, start)
		if keywords[tok.Value] {
			tok.Type = TokenKeyword
		}

		return tok, nil
	}

	if tok, ok := l.scanMultiCharOp(start); ok {
		return tok, nil
	}

	l.advance()

	if strings.ContainsRune("+-*/%^#&~|<>=(){}[];:,.", r) {
		return l.token(TokenOp, start), nil
	}

	return l.invalid(start, msgUnexpectedCharacter), nil
}

// Problem returns the lexer message recorded for an invalid token starting at offset.
func (l *lexerState) Problem(offset int) string {
	return l.problems[offset]
}

func (l *lexerState) pos() lexer.Position {
	return lexer.Position{
		Filename: l.filename,
		Offset:   l.offset,
		Line:     l.line,
		Column:   l.col,
	}
}

func (l *lexerState) eof() bool {
	return l.offset >= len(l.input)
}

func (l *lexerState) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])

	return r
}

func (l *lexerState) peekAt(n int) rune {
	off := l.offset + n
	if off >= len(l.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[off:])

	return r
}

//nolint:unparam // Return value useful for debugging.
func (l *lexerState) advance() rune {
	if l.eof() {
		return 0
	}

	r, size := utf8.DecodeRuneInString(l.input[l.offset:])
	l.offset += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}

func (l *lexerState) match(s string) bool {
	return strings.HasPrefix(l.input[l.offset:], s)
}

func (l *lexerState) token(typ lexer.TokenType, start lexer.Position) lexer.Token {
	return lexer.Token{
		Type:  typ,
		Value: l.input[start.Offset:l.offset],
		Pos:   start,
	}
}

func (l *lexerState) invalid(start lexer.Position, msg string) lexer.Token {
	l.problems[start.Offset] = msg

	return l.token(TokenInvalid, start)
}

func (l *lexerState) scanComment(start lexer.Position) lexer.Token {
	l.advance() // -
	l.advance() // -

	long := false

	if l.peek() == '[' {
		if level, ok := l.longBracketLevel(); ok {
			long = true

			if !l.scanLongBracket(level) {
				return l.invalid(start, msgUnterminatedComment)
			}
		}
	}

	if !long {
		for !l.eof() && l.peek() != '\n' && l.peek() != '\r' {
			l.advance()
		}
	}

	tok := l.token(TokenComment, start)

	if l.trivia != nil {
		l.trivia.Add(Trivia{
			Type: TriviaComment,
			Text: tok.Value,
			Span: Span{Start: start, End: l.pos()},
			Long: long,
		})
	}

	return tok
}

// longBracketLevel reports the level of a long bracket opening at the cursor ("[[" is level 0, "[==[" level 2).
func (l *lexerState) longBracketLevel() (int, bool) {
	i := l.offset + 1
	level := 0

	for i < len(l.input) && l.input[i] == '=' {
		level++
		i++
	}

	if i < len(l.input) && l.input[i] == '[' {
		return level, true
	}

	return 0, false
}

func (l *lexerState) scanLongBracket(level int) bool {
	for range level + 2 {
		l.advance()
	}

	closing := "]" + strings.Repeat("=", level) + "]"

	for !l.eof() {
		if l.match(closing) {
			for range len(closing) {
				l.advance()
			}

			return true
		}

		l.advance()
	}

	return false
}

func (l *lexerState) scanString(start lexer.Position, quote rune) lexer.Token {
	l.advance() // opening quote

	for !l.eof() {
		ch := l.peek()
		if ch == '\\' && l.peekAt(1) != 0 {
			l.advance()
			l.advance()

			continue
		}

		if ch == quote {
			l.advance()

			return l.token(TokenString, start)
		}

		if ch == '\n' || ch == '\r' {
			break
		}

		l.advance()
	}

	return l.invalid(start, msgUnterminatedString)
}

func (l *lexerState) scanMultiCharOp(start lexer.Position) (lexer.Token, bool) {
	multiOps := []string{"...", "..", "==", "~=", "<=", ">=", "//", "::", "<<", ">>"}

	for _, op := range multiOps {
		if l.match(op) {
			for range len(op) {
				l.advance()
			}

			return l.token(TokenOp, start), true
		}
	}

	return lexer.Token{}, false
}

func (l *lexerState) scanNumber(start lexer.Position) lexer.Token {
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.advance() // 0
		l.advance() // x

		for !l.eof() && (isHexDigit(l.peek()) || l.peek() == '.') {
			l.advance()
		}

		if l.peek() == 'p' || l.peek() == 'P' {
			l.scanExponent()
		}

		return l.token(TokenNumber, start)
	}

	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() == '.' && l.peekAt(1) != '.' {
		l.advance()

		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		l.scanExponent()
	}

	return l.token(TokenNumber, start)
}

func (l *lexerState) scanExponent() {
	l.advance() // e/E/p/P

	if l.peek() == '+' || l.peek() == '-' {
		l.advance()
	}

	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}
}

// Character helpers.

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsNameRune reports whether r may appear inside a Lua identifier.
func IsNameRune(r rune) bool {
	return isNameContinue(r)
}
