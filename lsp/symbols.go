package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/document"
)

// DocumentSymbol handles textDocument/documentSymbol requests.
// Returns a hierarchical tree of symbols for the outline view.
func (s *Server) DocumentSymbol(_ context.Context, params *protocol.DocumentSymbolParams) ([]any, error) {
	s.logger.Debug("DocumentSymbol",
		zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	snap := doc.Snapshot()
	symbols := buildDocumentSymbols(snap, snap.File.Symbols)

	// Convert to []any for the protocol
	result := make([]any, len(symbols))
	for i, sym := range symbols {
		result[i] = sym
	}

	return result, nil
}

func buildDocumentSymbols(snap *document.Snapshot, symbols []*analysis.Symbol) []protocol.DocumentSymbol {
	out := make([]protocol.DocumentSymbol, 0, len(symbols))

	for _, sym := range symbols {
		rng := toProtocolRange(snap.Range(sym.Span))
		out = append(out, protocol.DocumentSymbol{
			Name:           sym.Name,
			Detail:         sym.Detail,
			Kind:           convertSymbolKind(sym.Kind),
			Range:          rng,
			SelectionRange: rng,
			Children:       buildDocumentSymbols(snap, sym.Children),
		})
	}

	return out
}

func convertSymbolKind(k analysis.SymbolKind) protocol.SymbolKind {
	switch k {
	case analysis.SymbolKindClass:
		return protocol.SymbolKindClass
	case analysis.SymbolKindFunction:
		return protocol.SymbolKindFunction
	case analysis.SymbolKindMethod:
		return protocol.SymbolKindMethod
	case analysis.SymbolKindField:
		return protocol.SymbolKindField
	default:
		return protocol.SymbolKindVariable
	}
}
