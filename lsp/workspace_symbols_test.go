package lsp_test

import (
	"context"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.lsp.dev/protocol"
)

func TestServer_Symbols(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)
	openDoc(t, server, "file:///greet.lua", "function greet() end\ncount = 0\n")

	tests := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"Point", "count", "greet", "move", "x"}},
		{query: "POI", want: []string{"Point"}},
		{query: "e", want: []string{"greet", "move"}},
		{query: "zzz", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()

			symbols, err := server.Symbols(context.Background(), &protocol.WorkspaceSymbolParams{Query: tt.query})
			if err != nil {
				t.Fatalf("Symbols() error: %v", err)
			}

			var names []string
			for _, s := range symbols {
				if !slices.Contains(names, s.Name) {
					names = append(names, s.Name)
				}
			}

			slices.Sort(names)

			if diff := cmp.Diff(tt.want, names); diff != "" {
				t.Errorf("names mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServer_Symbols_Kinds(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)

	symbols, err := server.Symbols(context.Background(), &protocol.WorkspaceSymbolParams{})
	if err != nil {
		t.Fatalf("Symbols() error: %v", err)
	}

	kinds := map[string]protocol.SymbolKind{}
	containers := map[string]string{}

	for _, s := range symbols {
		if _, seen := kinds[s.Name]; !seen {
			kinds[s.Name] = s.Kind
			containers[s.Name] = s.ContainerName
		}
	}

	if kinds["Point"] != protocol.SymbolKindClass {
		t.Errorf("Point kind = %v", kinds["Point"])
	}

	if kinds["move"] != protocol.SymbolKindMethod || containers["move"] != "Point" {
		t.Errorf("move kind = %v container = %q", kinds["move"], containers["move"])
	}

	if kinds["x"] != protocol.SymbolKindField {
		t.Errorf("x kind = %v", kinds["x"])
	}
}

func TestServer_DocumentSymbol(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)

	result, err := server.DocumentSymbol(context.Background(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: pointURI},
	})
	if err != nil {
		t.Fatalf("DocumentSymbol() error: %v", err)
	}

	var names []string

	for _, r := range result {
		sym, ok := r.(protocol.DocumentSymbol)
		if !ok {
			t.Fatalf("unexpected symbol type %T", r)
		}

		names = append(names, sym.Name)

		if sym.Range.Start.Line > sym.Range.End.Line {
			t.Errorf("%s: inverted range %+v", sym.Name, sym.Range)
		}
	}

	for _, want := range []string{"Point", "Point:move", "p"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing symbol %q in %v", want, names)
		}
	}
}
