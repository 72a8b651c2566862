// Package analysis provides semantic analysis for Lua files: diagnostics, the shared symbol index
// and type inference.
package analysis

import (
	"github.com/rlch/luna"
)

// AnalyzedFile holds semantic analysis results for a single file.
type AnalyzedFile struct {
	// Path is the file path (URI in LSP terms).
	Path string

	// Chunk is the parsed tree. Parsing never fails, so it is never nil.
	Chunk *luna.Chunk

	// Diagnostics contains all errors and warnings found during analysis.
	Diagnostics []Diagnostic

	// Symbols is the document outline.
	Symbols []*Symbol

	// Entries are the index contributions of this file.
	Entries *Entries
}

// SymbolKind represents the type of a symbol.
type SymbolKind int

// Symbol kind constants.
const (
	SymbolKindClass SymbolKind = iota
	SymbolKindFunction
	SymbolKindMethod
	SymbolKindField
	SymbolKindVariable
)

// Symbol is an outline entry.
type Symbol struct {
	Name     string
	Kind     SymbolKind
	Span     luna.Span
	Detail   string
	Children []*Symbol
}

// Diagnostic represents an error or warning found during analysis.
type Diagnostic struct {
	Span     luna.Span
	Severity DiagnosticSeverity
	Message  string
	Code     string // e.g., "syntax-error", "incomplete-statement"
	Source   string // "luna"
}

// DiagnosticSeverity indicates the severity of a diagnostic.
type DiagnosticSeverity int

// Diagnostic severity constants.
const (
	SeverityError DiagnosticSeverity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// String returns the lower-case severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

const source = "luna"
