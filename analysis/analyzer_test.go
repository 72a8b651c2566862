package analysis_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rlch/luna/analysis"
)

func TestAnalyzer_Analyze(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantCodes    []string
		wantSeverity analysis.DiagnosticSeverity
	}{
		{
			name:  "clean file",
			input: "local x = 1\nprint(x)\n",
		},
		{
			name:         "dangling identifier",
			input:        "local x = 1\nx\n",
			wantCodes:    []string{"incomplete-statement"},
			wantSeverity: analysis.SeverityError,
		},
		{
			name:         "dangling field access",
			input:        "local t = {}\nt.name\n",
			wantCodes:    []string{"incomplete-statement"},
			wantSeverity: analysis.SeverityError,
		},
		{
			name:         "malformed doc tag",
			input:        "---@param\nlocal function f() end\n",
			wantCodes:    []string{"syntax-error"},
			wantSeverity: analysis.SeverityWarning,
		},
		{
			name:         "undefined doc param",
			input:        "---@param y number\nlocal function f(x) end\n",
			wantCodes:    []string{"undefined-doc-param"},
			wantSeverity: analysis.SeverityWarning,
		},
		{
			name:  "vararg doc param",
			input: "---@param ... string\nlocal function f(...) end\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := analyze(t, tt.input)

			var codes []string
			for _, d := range result.Diagnostics {
				codes = append(codes, d.Code)

				if d.Severity != tt.wantSeverity {
					t.Errorf("%s: severity = %s, want %s", d.Code, d.Severity, tt.wantSeverity)
				}

				if d.Source != "luna" {
					t.Errorf("source = %q, want luna", d.Source)
				}
			}

			if diff := cmp.Diff(tt.wantCodes, codes); diff != "" {
				t.Errorf("diagnostic codes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnalyzer_IncompleteCall(t *testing.T) {
	t.Parallel()

	result := analyze(t, "local x = 1\nfoo(")

	assertHasDiagnostic(t, result, "syntax-error")
	assertNoDiagnostic(t, result, "incomplete-statement")

	for _, d := range result.Diagnostics {
		if d.Severity != analysis.SeverityError {
			t.Errorf("%q: severity = %s, want error", d.Message, d.Severity)
		}

		if d.Span.Start.Line != 2 {
			t.Errorf("%q reported on line %d, want 2", d.Message, d.Span.Start.Line)
		}
	}
}

func TestAnalyzer_Deterministic(t *testing.T) {
	t.Parallel()

	input := `
---@class Point
---@field x number
---@param
local Point = {}

function Point:move(dx
  self.x = self.x + dx
end

x
foo(
`

	first := analyze(t, input)
	second := analyze(t, input)

	if len(first.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}

	if diff := cmp.Diff(first.Diagnostics, second.Diagnostics); diff != "" {
		t.Errorf("diagnostics differ between parses (-first +second):\n%s", diff)
	}
}

func TestAnalyzer_Symbols(t *testing.T) {
	t.Parallel()

	result := analyze(t, `---@class Point
---@field x number
local Point = {}

function Point:len() end

local function helper() end

count = 0
`)

	type symbol struct {
		Name     string
		Kind     analysis.SymbolKind
		Children []string
	}

	var got []symbol

	for _, s := range result.Symbols {
		sym := symbol{Name: s.Name, Kind: s.Kind}
		for _, c := range s.Children {
			sym.Children = append(sym.Children, c.Name)
		}

		got = append(got, sym)
	}

	want := []symbol{
		{Name: "Point", Kind: analysis.SymbolKindClass, Children: []string{"x"}},
		{Name: "Point", Kind: analysis.SymbolKindVariable},
		{Name: "Point:len", Kind: analysis.SymbolKindMethod},
		{Name: "helper", Kind: analysis.SymbolKindFunction},
		{Name: "count", Kind: analysis.SymbolKindVariable},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzer_Without(t *testing.T) {
	t.Parallel()

	analyzer := analysis.NewAnalyzer().Without("incomplete-statement", "syntax-error")
	result := analyzer.Analyze("test.lua", "x\nfoo(")

	assertNoDiagnostic(t, result, "incomplete-statement")
	assertHasDiagnostic(t, result, "syntax-error")
}

func TestAnalyzer_Entries(t *testing.T) {
	t.Parallel()

	result := analyze(t, `---@class Animal
local Animal = { legs = 4 }

function Animal:speak() end

function Animal:init()
  self.name = "x"
end

function helper() end
`)

	var members []string
	for _, m := range result.Entries.Members {
		members = append(members, m.Class+"."+m.Name)
	}

	want := []string{"Animal.legs", "Animal.speak", "Animal.init", "Animal.name"}
	if diff := cmp.Diff(want, members); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	if len(result.Entries.Globals) != 1 || result.Entries.Globals[0].Name != "helper" {
		t.Errorf("globals = %v, want [helper]", result.Entries.Globals)
	}
}
