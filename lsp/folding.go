package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna"
)

// FoldingRanges handles textDocument/foldingRange requests.
// Returns folding ranges for blocks, multi-line tables and doc comments.
func (s *Server) FoldingRanges(_ context.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	s.logger.Debug("FoldingRanges",
		zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	return foldingRanges(doc.Snapshot().File.Chunk), nil
}

func foldingRanges(chunk *luna.Chunk) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange

	add := func(span luna.Span, kind protocol.FoldingRangeKind) {
		if span.End.Line <= span.Start.Line {
			return
		}

		ranges = append(ranges, protocol.FoldingRange{
			StartLine: toUint32(span.Start.Line - 1),
			EndLine:   toUint32(span.End.Line - 1),
			Kind:      kind,
		})
	}

	for _, c := range chunk.Comments {
		add(c.Span(), protocol.CommentFoldingRange)
	}

	luna.Inspect(chunk, func(n luna.Node) bool {
		switch n.(type) {
		case *luna.FuncStat, *luna.LocalFuncStat, *luna.FuncExpr, *luna.IfStat, *luna.WhileStat,
			*luna.RepeatStat, *luna.DoStat, *luna.NumericForStat, *luna.GenericForStat, *luna.TableExpr:
			add(n.Span(), protocol.RegionFoldingRange)
		case *luna.Comment:
			return false
		}

		return true
	})

	return ranges
}
