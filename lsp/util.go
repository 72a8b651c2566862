package lsp

import (
	"fortio.org/safecast"
	"go.lsp.dev/protocol"

	"github.com/rlch/luna"
	"github.com/rlch/luna/document"
)

func toDocPosition(p protocol.Position) document.Position {
	return document.Position{Line: p.Line, Character: p.Character}
}

func toProtocolPosition(p document.Position) protocol.Position {
	return protocol.Position{Line: p.Line, Character: p.Character}
}

func toProtocolRange(r document.Range) protocol.Range {
	return protocol.Range{Start: toProtocolPosition(r.Start), End: toProtocolPosition(r.End)}
}

// toUint32 narrows a non-negative int for the wire format; out-of-range values saturate.
func toUint32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		if n < 0 {
			return 0
		}

		return ^uint32(0)
	}

	return v
}

// spanToRange converts a span of a file that is not open.
// Spans use 1-based lines and columns counted in runes, LSP uses 0-based UTF-16 units;
// the two agree outside the supplementary planes.
func spanToRange(span luna.Span) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: toUint32(span.Start.Line - 1), Character: toUint32(span.Start.Column - 1)},
		End:   protocol.Position{Line: toUint32(span.End.Line - 1), Character: toUint32(span.End.Column - 1)},
	}
}

// location returns the location of span in the document uri, using the open document's line
// index when there is one.
func (s *Server) location(uri string, span luna.Span) protocol.Location {
	loc := protocol.Location{URI: protocol.DocumentURI(uri), Range: spanToRange(span)}

	if doc, ok := s.getDocument(loc.URI); ok {
		loc.Range = toProtocolRange(doc.Snapshot().Range(span))
	}

	return loc
}
