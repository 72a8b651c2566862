package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/document"
	documentation "github.com/rlch/luna/documentation"
)

// Hover handles textDocument/hover requests.
func (s *Server) Hover(_ context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.logger.Debug("Hover",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	snap := doc.Snapshot()
	offset := snap.Offset(toDocPosition(params.Position))
	ctx := analysis.NewSearchContext(s.index)

	ref, ok := resolveAt(ctx, snap.File.Chunk, offset)
	if !ok {
		return hoverExpr(ctx, snap.File.Chunk, offset, snap.Range), nil
	}

	content := hoverContent(ctx, ref)
	if content == "" {
		return nil, nil //nolint:nilnil
	}

	rng := toProtocolRange(snap.Range(ref.Span))

	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: content},
		Range:    &rng,
	}, nil
}

// hoverContent renders the documentation of what ref points at.
func hoverContent(ctx *analysis.SearchContext, ref *reference) string {
	switch {
	case ref.Local != nil:
		return documentation.GenerateDoc(ctx, ref.Local)
	case ref.Global != nil:
		return documentation.GlobalDoc(ctx, ref.Global)
	case ref.Member != nil:
		return documentation.MemberDoc(ctx, ref.Member)
	case ref.Class != nil && ref.Class.Tag != nil:
		return documentation.GenerateDoc(ctx, ref.Class.Tag)
	default:
		return ""
	}
}

// hoverExpr shows the inferred type of an unresolved field access.
func hoverExpr(
	ctx *analysis.SearchContext,
	chunk *luna.Chunk,
	offset int,
	toRange func(luna.Span) document.Range,
) *protocol.Hover {
	x, ok := luna.NodeAt(chunk, offset).(*luna.IndexExpr)
	if !ok || x.Name == "" {
		return nil
	}

	rng := toProtocolRange(toRange(nameSpan(x)))

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: "```lua\n" + luna.ExprString(x) + ": " + documentation.QuickInfo(ctx, x) + "\n```",
		},
		Range: &rng,
	}
}
