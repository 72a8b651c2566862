package lsp

import (
	"context"
	"fmt"

	"github.com/segmentio/encoding/json"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// Handler returns the jsonrpc2 handler serving server. textDocument/didChange is decoded here
// so that a change without a range (a full replacement) is not mistaken for an insertion at 0:0;
// everything else goes through protocol.ServerHandler.
func Handler(server *Server) jsonrpc2.Handler {
	next := protocol.ServerHandler(server, jsonrpc2.MethodNotFoundHandler)

	return func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		if req.Method() != protocol.MethodTextDocumentDidChange {
			return next(ctx, reply, req)
		}

		var params DidChangeParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, fmt.Errorf("%w: %w", jsonrpc2.ErrInvalidParams, err))
		}

		return reply(ctx, nil, server.ApplyChanges(ctx, &params))
	}
}
