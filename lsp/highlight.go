package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna/analysis"
)

// DocumentHighlight handles textDocument/documentHighlight requests.
// Highlights all occurrences of the symbol under the cursor within the same document.
func (s *Server) DocumentHighlight(_ context.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	s.logger.Debug("DocumentHighlight",
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

	occs := occurrencesIn(ctx, snap.File.Chunk, ref)
	highlights := make([]protocol.DocumentHighlight, 0, len(occs))

	for _, o := range occs {
		kind := protocol.DocumentHighlightKindRead
		if o.decl {
			kind = protocol.DocumentHighlightKindWrite
		}

		highlights = append(highlights, protocol.DocumentHighlight{
			Range: toProtocolRange(snap.Range(o.span)),
			Kind:  kind,
		})
	}

	return highlights, nil
}
