package lsp

import (
	"context"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
)

// Symbols handles workspace/symbol requests.
// Searches the index for classes, their members and globals whose name contains the query.
func (s *Server) Symbols(_ context.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	s.logger.Debug("Symbols",
		zap.String("query", params.Query))

	query := strings.ToLower(params.Query)
	matches := func(name string) bool {
		return query == "" || strings.Contains(strings.ToLower(name), query)
	}

	var symbols []protocol.SymbolInformation

	s.index.ProcessKeys(func(name string) bool {
		cls, ok := s.index.FindClass(name)
		if !ok {
			return true
		}

		if matches(name) {
			symbols = append(symbols, protocol.SymbolInformation{
				Name:     name,
				Kind:     protocol.SymbolKindClass,
				Location: s.location(cls.URI, cls.Span),
			})
		}

		s.index.ProcessMembers(name, func(m *analysis.MemberEntry) bool {
			// Inherited members are listed under their own class.
			if m.Class == name && matches(m.Name) {
				symbols = append(symbols, protocol.SymbolInformation{
					Name:          m.Name,
					Kind:          memberSymbolKind(m),
					Location:      s.location(m.URI, m.Span),
					ContainerName: name,
				})
			}

			return true
		})

		return true
	})

	s.index.ProcessGlobals(func(name string) bool {
		if !matches(name) {
			return true
		}

		for _, g := range s.index.FindGlobal(name) {
			kind := protocol.SymbolKindVariable
			if _, ok := g.Node.(*luna.FuncStat); ok {
				kind = protocol.SymbolKindFunction
			}

			symbols = append(symbols, protocol.SymbolInformation{
				Name:     name,
				Kind:     kind,
				Location: s.location(g.URI, g.Span),
			})
		}

		return true
	})

	return symbols, nil
}

func memberSymbolKind(m *analysis.MemberEntry) protocol.SymbolKind {
	switch m.Node.(type) {
	case *luna.FuncStat:
		return protocol.SymbolKindMethod
	default:
		return protocol.SymbolKindField
	}
}
