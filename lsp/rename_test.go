package lsp_test

import (
	"context"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.lsp.dev/protocol"
)

func TestServer_PrepareRename(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)
	ctx := context.Background()

	rng, err := server.PrepareRename(ctx, &protocol.PrepareRenameParams{
		TextDocumentPositionParams: at(pointURI, 11, 3),
	})
	if err != nil {
		t.Fatalf("PrepareRename() error: %v", err)
	}

	want := &protocol.Range{Start: pos(11, 2), End: pos(11, 6)}
	if diff := cmp.Diff(want, rng); diff != "" {
		t.Errorf("range mismatch (-want +got):\n%s", diff)
	}

	rng, err = server.PrepareRename(ctx, &protocol.PrepareRenameParams{
		TextDocumentPositionParams: at(pointURI, 12, 2), // print, not declared anywhere
	})
	if err != nil {
		t.Fatalf("PrepareRename() error: %v", err)
	}

	if rng != nil {
		t.Errorf("expected nil range, got %+v", rng)
	}
}

func TestServer_Rename(t *testing.T) {
	t.Parallel()

	edit := func(line, from, to uint32, text string) protocol.TextEdit {
		return protocol.TextEdit{Range: protocol.Range{Start: pos(line, from), End: pos(line, to)}, NewText: text}
	}

	tests := []struct {
		name    string
		at      protocol.Position
		newName string
		want    []protocol.TextEdit
	}{
		{
			name:    "parameter and its doc tag",
			at:      pos(7, 20),
			newName: "delta",
			want:    []protocol.TextEdit{edit(5, 10, 12, "delta"), edit(6, 20, 22, "delta"), edit(7, 20, 22, "delta")},
		},
		{
			name:    "method",
			at:      pos(11, 3),
			newName: "shift",
			want:    []protocol.TextEdit{edit(6, 15, 19, "shift"), edit(11, 2, 6, "shift")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newTestServer(t)
			openDoc(t, server, pointURI, pointSrc)

			result, err := server.Rename(context.Background(), &protocol.RenameParams{
				TextDocumentPositionParams: at(pointURI, tt.at.Line, tt.at.Character),
				NewName:                    tt.newName,
			})
			if err != nil {
				t.Fatalf("Rename() error: %v", err)
			}

			if result == nil {
				t.Fatal("expected a workspace edit")
			}

			got := result.Changes[pointURI]
			sortEdits(got)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("edits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServer_Rename_InvalidName(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)

	for _, name := range []string{"end", "2x", "a b", ""} {
		_, err := server.Rename(context.Background(), &protocol.RenameParams{
			TextDocumentPositionParams: at(pointURI, 11, 0),
			NewName:                    name,
		})
		if err == nil {
			t.Errorf("Rename(%q) should fail", name)
		}
	}
}

func sortEdits(edits []protocol.TextEdit) {
	slices.SortFunc(edits, func(a, b protocol.TextEdit) int {
		if a.Range.Start.Line != b.Range.Start.Line {
			return int(a.Range.Start.Line) - int(b.Range.Start.Line)
		}

		return int(a.Range.Start.Character) - int(b.Range.Start.Character)
	})
}
