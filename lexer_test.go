package luna_test

import (
	"strings"
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/go-cmp/cmp"
	"github.com/rlch/luna"
)

func TestLexer_Symbols(t *testing.T) {
	t.Parallel()

	symbols := luna.Definition().Symbols()

	expected := []string{"EOF", "Comment", "String", "Number", "Name", "Keyword", "Op", "Whitespace", "Invalid"}

	for _, name := range expected {
		if _, ok := symbols[name]; !ok {
			t.Errorf("missing symbol: %s", name)
		}
	}
}

type tokenExpect struct {
	typ string
	val string
}

func lexTokens(t *testing.T, input string) []tokenExpect {
	t.Helper()

	def := luna.Definition()

	symbolNames := make(map[lexer.TokenType]string)
	for name, typ := range def.Symbols() {
		symbolNames[typ] = name
	}

	lex, err := def.Lex("", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Lex() error: %v", err)
	}

	var tokens []tokenExpect

	for {
		tok, err := lex.Next()
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}

		if tok.EOF() {
			break
		}

		if symbolNames[tok.Type] == "Whitespace" {
			continue
		}

		tokens = append(tokens, tokenExpect{typ: symbolNames[tok.Type], val: tok.Value})
	}

	return tokens
}

func TestLexer_Tokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []tokenExpect
	}{
		{
			name:  "local assignment",
			input: `local x = 1`,
			expected: []tokenExpect{
				{"Keyword", "local"}, {"Name", "x"}, {"Op", "="}, {"Number", "1"},
			},
		},
		{
			name:  "numbers",
			input: `3 3.0 0xff 1e10 .5 0x1p4`,
			expected: []tokenExpect{
				{"Number", "3"}, {"Number", "3.0"}, {"Number", "0xff"},
				{"Number", "1e10"}, {"Number", ".5"}, {"Number", "0x1p4"},
			},
		},
		{
			name:  "strings",
			input: `"a\"b" 'c' [[long]] [==[x]]y]==]`,
			expected: []tokenExpect{
				{"String", `"a\"b"`}, {"String", `'c'`}, {"String", `[[long]]`}, {"String", `[==[x]]y]==]`},
			},
		},
		{
			name:  "multi-char operators",
			input: `a .. b ... == ~= <= >= // :: << >>`,
			expected: []tokenExpect{
				{"Name", "a"}, {"Op", ".."}, {"Name", "b"}, {"Op", "..."}, {"Op", "=="}, {"Op", "~="},
				{"Op", "<="}, {"Op", ">="}, {"Op", "//"}, {"Op", "::"}, {"Op", "<<"}, {"Op", ">>"},
			},
		},
		{
			name:  "comments",
			input: "x -- trailing\n---@type string\n--[[ block ]] y",
			expected: []tokenExpect{
				{"Name", "x"}, {"Comment", "-- trailing"}, {"Comment", "---@type string"},
				{"Comment", "--[[ block ]]"}, {"Name", "y"},
			},
		},
		{
			name:  "unterminated string",
			input: "x = \"abc\ny",
			expected: []tokenExpect{
				{"Name", "x"}, {"Op", "="}, {"Invalid", `"abc`}, {"Name", "y"},
			},
		},
		{
			name:     "stray character",
			input:    "a $ b",
			expected: []tokenExpect{{"Name", "a"}, {"Invalid", "$"}, {"Name", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := lexTokens(t, tt.input)
			if diff := cmp.Diff(tt.expected, got, cmp.AllowUnexported(tokenExpect{})); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexer_Positions(t *testing.T) {
	t.Parallel()

	toks := luna.Tokenize("a\n  bb", nil)

	var names []lexer.Token

	for _, tok := range toks {
		if tok.Type == luna.TokenName {
			names = append(names, tok)
		}
	}

	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %d", len(names))
	}

	want := lexer.Position{Offset: 4, Line: 2, Column: 3}
	if names[1].Pos != want {
		t.Errorf("second name at %+v, want %+v", names[1].Pos, want)
	}
}

func TestTokenize_CollectsTrivia(t *testing.T) {
	t.Parallel()

	trivia := &luna.TriviaList{}
	luna.Tokenize("--[[a]] -- b\nx", trivia)

	all := trivia.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(all))
	}

	if !all[0].Long || all[1].Long {
		t.Errorf("long flags = %v, %v", all[0].Long, all[1].Long)
	}
}

func TestIsKeyword(t *testing.T) {
	t.Parallel()

	for _, kw := range luna.Keywords() {
		if !luna.IsKeyword(kw) {
			t.Errorf("IsKeyword(%q) = false", kw)
		}
	}

	if luna.IsKeyword("self") {
		t.Error("self is not a keyword")
	}
}

func TestIsName(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"x":      true,
		"_tmp2":  true,
		"self":   true,
		"":       false,
		"2x":     false,
		"a.b":    false,
		"end":    false,
		"my-var": false,
	}

	for in, want := range tests {
		if got := luna.IsName(in); got != want {
			t.Errorf("IsName(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTokenize_MatchesDefinition(t *testing.T) {
	t.Parallel()

	src := "local s = [[long]] -- note\nreturn s .. 'x'\n"

	def, ok := luna.Definition().(lexer.StringDefinition)
	if !ok {
		t.Fatal("definition does not lex strings")
	}

	lex, err := def.LexString("", src)
	if err != nil {
		t.Fatalf("LexString() error: %v", err)
	}

	want, err := lexer.ConsumeAll(lex)
	if err != nil {
		t.Fatalf("ConsumeAll() error: %v", err)
	}

	if diff := cmp.Diff(want, luna.Tokenize(src, nil)); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}
