package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna/analysis"
)

// Definition handles textDocument/definition requests.
func (s *Server) Definition(_ context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	s.logger.Debug("Definition",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	snap := doc.Snapshot()
	ctx := analysis.NewSearchContext(s.index)

	ref, ok := resolveAt(ctx, snap.File.Chunk, snap.Offset(toDocPosition(params.Position)))
	if !ok {
		return nil, nil
	}

	switch {
	case ref.Local != nil:
		return []protocol.Location{s.location(doc.URI(), ref.Local.Span())}, nil
	case ref.Global != nil:
		// Every assignment of a global is a candidate definition.
		globals := s.index.FindGlobal(ref.Global.Name)
		locs := make([]protocol.Location, 0, len(globals))

		for _, g := range globals {
			locs = append(locs, s.location(g.URI, g.Span))
		}

		return locs, nil
	case ref.Member != nil:
		return []protocol.Location{s.location(ref.Member.URI, ref.Member.Span)}, nil
	case ref.Class != nil:
		return []protocol.Location{s.location(ref.Class.URI, ref.Class.Span)}, nil
	}

	return nil, nil
}
