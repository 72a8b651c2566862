package analysis_test

import (
	"testing"

	"github.com/rlch/luna/analysis"
)

func TestRule_SyntaxError(t *testing.T) {
	t.Parallel()

	result := analyze(t, `
if x then
  print(x)
`)

	assertHasDiagnostic(t, result, "syntax-error")
}

func TestRule_SyntaxErrorInDocComment(t *testing.T) {
	t.Parallel()

	result := analyze(t, `
---@return
local function f() end
`)

	assertHasDiagnostic(t, result, "syntax-error")

	for _, d := range result.Diagnostics {
		if d.Severity != analysis.SeverityWarning {
			t.Errorf("%q: severity = %s, want warning", d.Message, d.Severity)
		}
	}
}

func TestRule_IncompleteStatement(t *testing.T) {
	t.Parallel()

	result := analyze(t, `
local t = {}
t.name
`)

	assertHasDiagnostic(t, result, "incomplete-statement")
}

func TestRule_IncompleteStatementSkipsCalls(t *testing.T) {
	t.Parallel()

	result := analyze(t, `
local t = {}
t.name()
t:method "arg"
print { 1 }
`)

	assertNoDiagnostic(t, result, "incomplete-statement")
}

func TestRule_IncompleteStatementSkipsBrokenStatements(t *testing.T) {
	t.Parallel()

	result := analyze(t, `
local t = {}
t[
`)

	assertHasDiagnostic(t, result, "syntax-error")
	assertNoDiagnostic(t, result, "incomplete-statement")
}

func TestRule_UndefinedDocParam(t *testing.T) {
	t.Parallel()

	result := analyze(t, `
---@param name string
---@param age number
function greet(name) end
`)

	assertHasDiagnostic(t, result, "undefined-doc-param")

	for _, d := range result.Diagnostics {
		if d.Code == "undefined-doc-param" && d.Message != "undefined parameter: age" {
			t.Errorf("message = %q", d.Message)
		}
	}
}

func TestRule_DocParamOnFunctionValue(t *testing.T) {
	t.Parallel()

	result := analyze(t, `
---@param a number
---@param b number
local add = function(a, b) return a + b end
`)

	assertNoDiagnostic(t, result, "undefined-doc-param")
}

func TestRule_DocParamWithoutFunction(t *testing.T) {
	t.Parallel()

	result := analyze(t, `
---@param a number
local x = 1
`)

	assertNoDiagnostic(t, result, "undefined-doc-param")
}

// Test helpers

func analyze(t *testing.T, input string) *analysis.AnalyzedFile {
	t.Helper()

	analyzer := analysis.NewAnalyzer()

	return analyzer.Analyze("test.lua", input)
}

func assertHasDiagnostic(t *testing.T, result *analysis.AnalyzedFile, code string) {
	t.Helper()

	for _, d := range result.Diagnostics {
		if d.Code == code {
			return
		}
	}

	t.Errorf("expected diagnostic %q, got:", code)

	for _, d := range result.Diagnostics {
		t.Logf("  %s: %s", d.Code, d.Message)
	}
}

func assertNoDiagnostic(t *testing.T, result *analysis.AnalyzedFile, code string) {
	t.Helper()

	for _, d := range result.Diagnostics {
		if d.Code == code {
			t.Errorf("unexpected diagnostic %q: %s", code, d.Message)
		}
	}
}
