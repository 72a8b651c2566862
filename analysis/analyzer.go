package analysis

import (
	"slices"

	"github.com/rlch/luna"
)

// Analyzer performs semantic analysis on Lua files.
type Analyzer struct {
	// rules is the set of checks to run after parsing.
	rules []*Rule
}

// NewAnalyzer creates a new analyzer with default rules.
func NewAnalyzer() *Analyzer {
	return &Analyzer{rules: DefaultRules()}
}

// NewAnalyzerWithRules creates an analyzer with custom rules.
func NewAnalyzerWithRules(rules []*Rule) *Analyzer {
	return &Analyzer{rules: rules}
}

// Without returns a copy of the analyzer with the named rules removed.
// Syntax errors are always reported.
func (a *Analyzer) Without(names ...string) *Analyzer {
	rules := slices.DeleteFunc(slices.Clone(a.rules), func(r *Rule) bool {
		return r != syntaxErrorRule && slices.Contains(names, r.Name)
	})

	return &Analyzer{rules: rules}
}

// Rules returns the active rules.
func (a *Analyzer) Rules() []*Rule {
	return a.rules
}

// Analyze parses and analyzes a Lua file.
// Diagnostics are rebuilt from scratch on every call.
func (a *Analyzer) Analyze(path, content string) *AnalyzedFile {
	result := &AnalyzedFile{
		Path:        path,
		Chunk:       luna.Parse(content),
		Diagnostics: []Diagnostic{},
	}

	result.Entries = Collect(path, result.Chunk)
	result.Symbols = buildSymbols(result.Chunk)

	for _, rule := range a.rules {
		rule.Run(result)
	}

	return result
}

// buildSymbols extracts the document outline.
//
//nolint:cyclop // One case per declaring statement.
func buildSymbols(chunk *luna.Chunk) []*Symbol {
	var (
		out     []*Symbol
		classes = map[string]*Symbol{}
	)

	for _, c := range chunk.Comments {
		cls := c.Class()
		if cls == nil {
			continue
		}

		sym := &Symbol{Name: cls.Name, Kind: SymbolKindClass, Span: c.Span(), Detail: cls.Super}

		for _, f := range luna.Tags[*luna.FieldTag](c) {
			sym.Children = append(sym.Children, &Symbol{
				Name: f.Name, Kind: SymbolKindField, Span: f.Span(), Detail: f.Type.String(),
			})
		}

		if _, dup := classes[cls.Name]; !dup {
			classes[cls.Name] = sym
		}

		out = append(out, sym)
	}

	for _, s := range chunk.Block.Stmts {
		switch st := s.(type) {
		case *luna.LocalStat:
			for _, d := range st.Names {
				out = append(out, &Symbol{Name: d.Name, Kind: SymbolKindVariable, Span: st.Span()})
			}
		case *luna.LocalFuncStat:
			if st.Name != nil {
				out = append(out, &Symbol{Name: st.Name.Name, Kind: SymbolKindFunction, Span: st.Span()})
			}
		case *luna.FuncStat:
			if st.Name == nil {
				continue
			}

			sym := &Symbol{Name: st.QualifiedName(), Kind: SymbolKindFunction, Span: st.Span()}
			if st.IsMethod() {
				sym.Kind = SymbolKindMethod
			}

			out = append(out, sym)
		case *luna.AssignStat:
			for _, t := range st.Targets {
				if name, ok := t.(*luna.NameExpr); ok {
					out = append(out, &Symbol{Name: name.Name, Kind: SymbolKindVariable, Span: st.Span()})
				}
			}
		}
	}

	slices.SortStableFunc(out, func(a, b *Symbol) int {
		return a.Span.Start.Offset - b.Span.Start.Offset
	})

	return out
}
