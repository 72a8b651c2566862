package lsp_test

import (
	"context"
	"path/filepath"
	"testing"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna/lsp"
	"github.com/rlch/luna/workspace"
)

// pointSrc is shared by the navigation tests. Line numbers (0-based):
//
//	0  ---@class Point
//	1  ---@field x number horizontal
//	2  local Point = {}
//	4  ---Moves the point.
//	5  ---@param dx number
//	6  function Point:move(dx)
//	7    self.x = self.x + dx
//	8  end
//	10 local p = Point
//	11 p:move(1)
//	12 print(p.x)
const pointSrc = `---@class Point
---@field x number horizontal
local Point = {}

---Moves the point.
---@param dx number
function Point:move(dx)
  self.x = self.x + dx
end

local p = Point
p:move(1)
print(p.x)
`

const pointURI = protocol.DocumentURI("file:///point.lua")

func pos(line, character uint32) protocol.Position {
	return protocol.Position{Line: line, Character: character}
}

func TestServer_Definition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		at   protocol.Position
		want protocol.Position
	}{
		{name: "local reference", at: pos(11, 0), want: pos(10, 6)},
		{name: "class variable", at: pos(10, 11), want: pos(2, 6)},
		{name: "method", at: pos(11, 3), want: pos(6, 9)},
		{name: "field", at: pos(12, 8), want: pos(1, 10)},
		{name: "self field", at: pos(7, 16), want: pos(1, 10)},
		{name: "doc param", at: pos(5, 10), want: pos(6, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newTestServer(t)
			openDoc(t, server, pointURI, pointSrc)

			locs, err := server.Definition(context.Background(), &protocol.DefinitionParams{
				TextDocumentPositionParams: at(pointURI, tt.at.Line, tt.at.Character),
			})
			if err != nil {
				t.Fatalf("Definition() error: %v", err)
			}

			if len(locs) != 1 {
				t.Fatalf("expected 1 location, got %d", len(locs))
			}

			if locs[0].URI != pointURI {
				t.Errorf("URI = %s, want %s", locs[0].URI, pointURI)
			}

			if locs[0].Range.Start != tt.want {
				t.Errorf("Start = %+v, want %+v", locs[0].Range.Start, tt.want)
			}
		})
	}
}

func TestServer_Definition_Unresolved(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	openDoc(t, server, pointURI, pointSrc)

	locs, err := server.Definition(context.Background(), &protocol.DefinitionParams{
		TextDocumentPositionParams: at(pointURI, 12, 2), // print
	})
	if err != nil {
		t.Fatalf("Definition() error: %v", err)
	}

	if len(locs) != 0 {
		t.Errorf("expected no locations, got %v", locs)
	}
}

func TestServer_Definition_CrossFile(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	libURI := protocol.DocumentURI("file:///lib.lua")
	mainURI := protocol.DocumentURI("file:///main.lua")

	openDoc(t, server, libURI, "function greet(name) end\n")
	openDoc(t, server, mainURI, "greet('x')\n")

	locs, err := server.Definition(context.Background(), &protocol.DefinitionParams{
		TextDocumentPositionParams: at(mainURI, 0, 1),
	})
	if err != nil {
		t.Fatalf("Definition() error: %v", err)
	}

	if len(locs) != 1 || locs[0].URI != libURI || locs[0].Range.Start != pos(0, 9) {
		t.Errorf("unexpected locations %+v", locs)
	}
}

func TestServer_Definition_ClosedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	libPath := filepath.Join(dir, "lib.lua")
	writeFile(t, libPath, "\nfunction helper() end\n")

	server := lsp.NewServer(&mockClient{}, zap.NewNop())
	ctx := context.Background()

	_, err := server.Initialize(ctx, &protocol.InitializeParams{
		RootURI: protocol.DocumentURI(workspace.PathToURI(dir)),
	})
	if err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	mainURI := protocol.DocumentURI(workspace.PathToURI(filepath.Join(dir, "main.lua")))
	openDoc(t, server, mainURI, "helper()\n")

	locs, err := server.Definition(ctx, &protocol.DefinitionParams{
		TextDocumentPositionParams: at(mainURI, 0, 2),
	})
	if err != nil {
		t.Fatalf("Definition() error: %v", err)
	}

	if len(locs) != 1 {
		t.Fatalf("expected 1 location, got %d", len(locs))
	}

	if want := protocol.DocumentURI(workspace.PathToURI(libPath)); locs[0].URI != want {
		t.Errorf("URI = %s, want %s", locs[0].URI, want)
	}

	if locs[0].Range.Start != pos(1, 9) {
		t.Errorf("Start = %+v, want 1:9", locs[0].Range.Start)
	}
}
