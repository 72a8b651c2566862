package lsp_test

import (
	"context"
	"strings"
	"testing"

	"go.lsp.dev/protocol"
)

func TestServer_SignatureHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		at         protocol.Position
		label      string
		wantParams int
		active     uint32
	}{
		{
			name:       "second argument of an unfinished call",
			text:       "---@param a number\n---@param b string\nlocal function f(a, b) end\nf(1, ",
			at:         pos(3, 5),
			label:      "f(a: number, b: string)",
			wantParams: 2,
			active:     1,
		},
		{
			name:       "first argument of a closed call",
			text:       "---@param a number\n---@param b string\nlocal function f(a, b) end\nf(1, 'x')\n",
			at:         pos(3, 2),
			label:      "f(a: number, b: string)",
			wantParams: 2,
			active:     0,
		},
		{
			name:       "method call",
			text:       "---@class Door\nlocal Door = {}\n---@param state string\nfunction Door:set(state) end\nDoor:set(",
			at:         pos(4, 9),
			label:      "Door:set(state: string)",
			wantParams: 1,
			active:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newTestServer(t)
			uri := protocol.DocumentURI("file:///sig.lua")
			openDoc(t, server, uri, tt.text)

			help, err := server.SignatureHelp(context.Background(), &protocol.SignatureHelpParams{
				TextDocumentPositionParams: at(uri, tt.at.Line, tt.at.Character),
			})
			if err != nil {
				t.Fatalf("SignatureHelp() error: %v", err)
			}

			if help == nil || len(help.Signatures) == 0 {
				t.Fatal("expected a signature")
			}

			sig := help.Signatures[help.ActiveSignature]
			if !strings.HasPrefix(sig.Label, tt.label) {
				t.Errorf("Label = %q, want prefix %q", sig.Label, tt.label)
			}

			if len(sig.Parameters) != tt.wantParams {
				t.Errorf("got %d parameters, want %d", len(sig.Parameters), tt.wantParams)
			}

			if help.ActiveParameter != tt.active {
				t.Errorf("ActiveParameter = %d, want %d", help.ActiveParameter, tt.active)
			}
		})
	}
}

func TestServer_SignatureHelp_OutsideCall(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := protocol.DocumentURI("file:///sig.lua")
	openDoc(t, server, uri, "local x = 1\n")

	help, err := server.SignatureHelp(context.Background(), &protocol.SignatureHelpParams{
		TextDocumentPositionParams: at(uri, 0, 6),
	})
	if err != nil {
		t.Fatalf("SignatureHelp() error: %v", err)
	}

	if help != nil {
		t.Errorf("expected no signature help, got %+v", help)
	}
}
