package lsp_test

import (
	"context"
	"strings"
	"testing"

	"go.lsp.dev/protocol"
)

func TestServer_Hover(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		at        protocol.Position
		contains  []string
		wantRange *protocol.Range
	}{
		{
			name:     "method",
			at:       pos(11, 3),
			contains: []string{"Point:move(dx: number)", "Moves the point."},
			wantRange: &protocol.Range{
				Start: pos(11, 2),
				End:   pos(11, 6),
			},
		},
		{
			name:     "field",
			at:       pos(12, 8),
			contains: []string{"(field) Point.x: number", "horizontal"},
		},
		{
			name:     "local",
			at:       pos(10, 6),
			contains: []string{"p", "Point"},
		},
		{
			name:     "param",
			at:       pos(7, 21),
			contains: []string{"dx", "number"},
		},
		{
			name:     "class tag",
			at:       pos(0, 11),
			contains: []string{"class Point"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newTestServer(t)
			openDoc(t, server, pointURI, pointSrc)

			hover, err := server.Hover(context.Background(), &protocol.HoverParams{
				TextDocumentPositionParams: at(pointURI, tt.at.Line, tt.at.Character),
			})
			if err != nil {
				t.Fatalf("Hover() error: %v", err)
			}

			if hover == nil {
				t.Fatal("expected hover content")
			}

			if hover.Contents.Kind != protocol.Markdown {
				t.Errorf("Kind = %s, want markdown", hover.Contents.Kind)
			}

			for _, want := range tt.contains {
				if !strings.Contains(hover.Contents.Value, want) {
					t.Errorf("hover %q missing %q", hover.Contents.Value, want)
				}
			}

			if tt.wantRange != nil && (hover.Range == nil || *hover.Range != *tt.wantRange) {
				t.Errorf("Range = %+v, want %+v", hover.Range, tt.wantRange)
			}
		})
	}
}

func TestServer_Hover_NoContent(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)

	hover, err := server.Hover(context.Background(), &protocol.HoverParams{
		TextDocumentPositionParams: at(pointURI, 3, 0),
	})
	if err != nil {
		t.Fatalf("Hover() error: %v", err)
	}

	if hover != nil {
		t.Errorf("expected no hover on an empty line, got %+v", hover)
	}
}
