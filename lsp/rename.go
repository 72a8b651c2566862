package lsp

import (
	"context"
	"fmt"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/document"
)

// PrepareRename handles textDocument/prepareRename requests.
// Validates that rename is possible and returns the range of the symbol to rename.
func (s *Server) PrepareRename(_ context.Context, params *protocol.PrepareRenameParams) (*protocol.Range, error) {
	s.logger.Debug("PrepareRename",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	snap, ref, ok := s.renameTarget(doc, params.Position)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	rng := toProtocolRange(snap.Range(ref.Span))

	return &rng, nil
}

// Rename handles textDocument/rename requests.
// Renames the symbol under the cursor and all its references in the open documents.
func (s *Server) Rename(_ context.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	s.logger.Debug("Rename",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character),
		zap.String("newName", params.NewName))

	if !luna.IsName(params.NewName) {
		return nil, fmt.Errorf("%q is not a valid Lua name", params.NewName)
	}

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	_, ref, ok := s.renameTarget(doc, params.Position)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	changes := make(map[protocol.DocumentURI][]protocol.TextEdit)

	for _, occ := range s.occurrences(analysis.NewSearchContext(s.index), doc, ref) {
		uri := protocol.DocumentURI(occ.URI)
		changes[uri] = append(changes[uri], protocol.TextEdit{Range: occ.Range, NewText: params.NewName})
	}

	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

// renameTarget resolves the renamable name at pos. `@see` tags name a path rather than a
// single identifier and are not renamed from.
func (s *Server) renameTarget(doc *document.Document, pos protocol.Position) (*document.Snapshot, *reference, bool) {
	snap := doc.Snapshot()
	ctx := analysis.NewSearchContext(s.index)

	ref, ok := resolveAt(ctx, snap.File.Chunk, snap.Offset(toDocPosition(pos)))
	if !ok {
		return nil, nil, false
	}

	if _, isSee := ref.Node.(*luna.SeeTag); isSee {
		return nil, nil, false
	}

	return snap, ref, true
}
