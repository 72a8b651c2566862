package lsp_test

import (
	"cmp"
	"context"
	"slices"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
	"go.lsp.dev/protocol"
)

type uriPos struct {
	URI  protocol.DocumentURI
	Line uint32
	Char uint32
}

// starts returns the sorted start positions of locs.
func starts(locs []protocol.Location) []uriPos {
	out := make([]uriPos, 0, len(locs))
	for _, l := range locs {
		out = append(out, uriPos{URI: l.URI, Line: l.Range.Start.Line, Char: l.Range.Start.Character})
	}

	slices.SortFunc(out, func(a, b uriPos) int {
		return cmp.Or(cmp.Compare(a.URI, b.URI), cmp.Compare(a.Line, b.Line), cmp.Compare(a.Char, b.Char))
	})

	return out
}

func references(t *testing.T, server interface {
	References(context.Context, *protocol.ReferenceParams) ([]protocol.Location, error)
}, uri protocol.DocumentURI, p protocol.Position, includeDecl bool,
) []uriPos {
	t.Helper()

	locs, err := server.References(context.Background(), &protocol.ReferenceParams{
		TextDocumentPositionParams: at(uri, p.Line, p.Character),
		Context:                    protocol.ReferenceContext{IncludeDeclaration: includeDecl},
	})
	if err != nil {
		t.Fatalf("References() error: %v", err)
	}

	return starts(locs)
}

func TestServer_References_Member(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)

	want := []uriPos{
		{pointURI, 1, 10},
		{pointURI, 7, 7},
		{pointURI, 7, 16},
		{pointURI, 12, 8},
	}

	if diff := gocmp.Diff(want, references(t, server, pointURI, pos(12, 8), true)); diff != "" {
		t.Errorf("with declaration (-want +got):\n%s", diff)
	}

	if diff := gocmp.Diff(want[1:], references(t, server, pointURI, pos(12, 8), false)); diff != "" {
		t.Errorf("without declaration (-want +got):\n%s", diff)
	}
}

func TestServer_References_Local(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)

	want := []uriPos{
		{pointURI, 5, 10},
		{pointURI, 6, 20},
		{pointURI, 7, 20},
	}

	if diff := gocmp.Diff(want, references(t, server, pointURI, pos(7, 20), true)); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_References_Global(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	a := protocol.DocumentURI("file:///a.lua")
	b := protocol.DocumentURI("file:///b.lua")

	openDoc(t, server, a, "function greet() end\ngreet()\n")
	openDoc(t, server, b, "local greet2 = 1\ngreet()\n")

	want := []uriPos{{a, 0, 9}, {a, 1, 0}, {b, 1, 0}}

	if diff := gocmp.Diff(want, references(t, server, b, pos(1, 2), true)); diff != "" {
		t.Errorf("with declaration (-want +got):\n%s", diff)
	}

	if diff := gocmp.Diff(want[1:], references(t, server, b, pos(1, 2), false)); diff != "" {
		t.Errorf("without declaration (-want +got):\n%s", diff)
	}
}

func TestServer_References_Class(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := protocol.DocumentURI("file:///animal.lua")
	openDoc(t, server, uri, "---@class Animal\nlocal Animal = {}\n---@type Animal\nlocal a\n---@param x Animal\nlocal function f(x) end\n")

	want := []uriPos{{uri, 0, 10}, {uri, 2, 9}, {uri, 4, 12}}

	if diff := gocmp.Diff(want, references(t, server, uri, pos(2, 10), true)); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}
}
