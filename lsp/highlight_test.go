package lsp_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.lsp.dev/protocol"
)

func TestServer_DocumentHighlight(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)

	highlights, err := server.DocumentHighlight(context.Background(), &protocol.DocumentHighlightParams{
		TextDocumentPositionParams: at(pointURI, 10, 6),
	})
	if err != nil {
		t.Fatalf("DocumentHighlight() error: %v", err)
	}

	want := []protocol.DocumentHighlight{
		{Range: protocol.Range{Start: pos(10, 6), End: pos(10, 7)}, Kind: protocol.DocumentHighlightKindWrite},
		{Range: protocol.Range{Start: pos(11, 0), End: pos(11, 1)}, Kind: protocol.DocumentHighlightKindRead},
		{Range: protocol.Range{Start: pos(12, 6), End: pos(12, 7)}, Kind: protocol.DocumentHighlightKindRead},
	}

	if diff := cmp.Diff(want, highlights); diff != "" {
		t.Errorf("highlights mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_DocumentHighlight_Nothing(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)

	highlights, err := server.DocumentHighlight(context.Background(), &protocol.DocumentHighlightParams{
		TextDocumentPositionParams: at(pointURI, 3, 0),
	})
	if err != nil {
		t.Fatalf("DocumentHighlight() error: %v", err)
	}

	if len(highlights) != 0 {
		t.Errorf("expected no highlights, got %v", highlights)
	}
}
