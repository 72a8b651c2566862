package analysis

import (
	"github.com/rlch/luna"
)

// Rule represents a semantic analysis check.
// Inspired by go/analysis.Analyzer pattern.
type Rule struct {
	// Name is a short identifier for the rule (used in diagnostic codes).
	Name string

	// Doc is a brief description of what the rule checks.
	Doc string

	// Severity is the default severity for diagnostics from this rule.
	Severity DiagnosticSeverity

	// Run executes the rule and appends any diagnostics to the file.
	Run func(f *AnalyzedFile)
}

// DefaultRules returns all built-in analysis rules.
func DefaultRules() []*Rule {
	return []*Rule{
		// Error-level checks.
		syntaxErrorRule,
		incompleteStatementRule,

		// Warning-level checks.
		undefinedDocParamRule,
	}
}

// ----------------------------------------------------------------------------
// Rule: syntax-error
// ----------------------------------------------------------------------------

var syntaxErrorRule = &Rule{
	Name:     "syntax-error",
	Doc:      "Reports error nodes left by the parser. Errors inside doc comments are warnings.",
	Severity: SeverityError,
	Run:      checkSyntaxErrors,
}

func checkSyntaxErrors(f *AnalyzedFile) {
	for _, e := range luna.SyntaxErrors(f.Chunk) {
		sev := SeverityError
		if luna.InComment(e) {
			sev = SeverityWarning
		}

		f.Diagnostics = append(f.Diagnostics, Diagnostic{
			Span:     e.Span(),
			Severity: sev,
			Message:  e.Message,
			Code:     "syntax-error",
			Source:   source,
		})
	}
}

// ----------------------------------------------------------------------------
// Rule: incomplete-statement
// ----------------------------------------------------------------------------

var incompleteStatementRule = &Rule{
	Name:     "incomplete-statement",
	Doc:      "Reports expression statements that are not calls.",
	Severity: SeverityError,
	Run:      checkIncompleteStatements,
}

func checkIncompleteStatements(f *AnalyzedFile) {
	luna.Inspect(f.Chunk, func(n luna.Node) bool {
		s, ok := n.(*luna.ExprStat)
		if !ok {
			return true
		}

		if _, isCall := s.X.(*luna.CallExpr); isCall {
			return true
		}

		// The parser already reported whatever made the statement malformed.
		if len(luna.SyntaxErrors(s)) > 0 {
			return true
		}

		f.Diagnostics = append(f.Diagnostics, Diagnostic{
			Span:     s.Span(),
			Severity: SeverityError,
			Message:  "non-complete statement",
			Code:     "incomplete-statement",
			Source:   source,
		})

		return true
	})
}

// ----------------------------------------------------------------------------
// Rule: undefined-doc-param
// ----------------------------------------------------------------------------

var undefinedDocParamRule = &Rule{
	Name:     "undefined-doc-param",
	Doc:      "Reports @param tags that name no parameter of the documented function.",
	Severity: SeverityWarning,
	Run:      checkUndefinedDocParams,
}

func checkUndefinedDocParams(f *AnalyzedFile) {
	for _, c := range f.Chunk.Comments {
		body := DocumentedFunction(c)
		if body == nil {
			continue
		}

		params := map[string]bool{}
		for _, p := range body.Params {
			params[p.Name] = true
		}

		if body.Vararg {
			params["..."] = true
		}

		for _, tag := range luna.Tags[*luna.ParamTag](c) {
			if params[tag.Name] {
				continue
			}

			f.Diagnostics = append(f.Diagnostics, Diagnostic{
				Span:     tag.NameSpan,
				Severity: SeverityWarning,
				Message:  "undefined parameter: " + tag.Name,
				Code:     "undefined-doc-param",
				Source:   source,
			})
		}
	}
}

// DocumentedFunction returns the function body a comment documents, or nil.
func DocumentedFunction(c *luna.Comment) *luna.FuncBody {
	switch s := c.Owner.(type) {
	case *luna.FuncStat:
		return s.Body
	case *luna.LocalFuncStat:
		return s.Body
	case *luna.LocalStat:
		if len(s.Exprs) > 0 {
			if fx, ok := s.Exprs[0].(*luna.FuncExpr); ok {
				return fx.Body
			}
		}
	case *luna.AssignStat:
		if len(s.Exprs) > 0 {
			if fx, ok := s.Exprs[0].(*luna.FuncExpr); ok {
				return fx.Body
			}
		}
	}

	return nil
}
