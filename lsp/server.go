// Package lsp implements a Language Server Protocol server for Lua.
package lsp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/document"
	"github.com/rlch/luna/workspace"
)

// Server implements the LSP Server interface for Lua.
type Server struct {
	client protocol.Client
	logger *zap.Logger
	level  *zap.AtomicLevel

	// Document state
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*document.Document

	// Shared by all documents and the workspace scan
	analyzer *analysis.Analyzer
	index    *analysis.Index

	// Loaded from .luna.yaml at initialize
	cfg     *luna.Config
	filter  *analysis.Filter
	scanner *workspace.Scanner

	// Server state
	initialized   bool
	shutdown      bool
	workspaceRoot string
}

// NewServer creates a new LSP server.
func NewServer(client protocol.Client, logger *zap.Logger) *Server {
	analyzer := analysis.NewAnalyzer()
	index := analysis.NewIndex()
	cfg := luna.DefaultConfig()

	return &Server{
		client:    client,
		logger:    logger,
		documents: make(map[protocol.DocumentURI]*document.Document),
		analyzer:  analyzer,
		index:     index,
		cfg:       cfg,
		scanner:   workspace.NewScanner(logger, analyzer, index, cfg),
	}
}

// FollowConfigLevel lets the workspace config's log.level adjust level at initialize.
func (s *Server) FollowConfigLevel(level zap.AtomicLevel) {
	s.level = &level
}

// Index returns the symbol index shared by all documents.
func (s *Server) Index() *analysis.Index {
	return s.index
}

// Initialize handles the initialize request. It loads the workspace config and indexes the
// workspace before replying, so that no document is opened while the scan is running.
func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Info("Initialize", zap.String("rootURI", string(params.RootURI)))

	switch {
	case params.RootURI != "":
		s.workspaceRoot = workspace.URIToPath(string(params.RootURI))
	case params.RootPath != "":
		s.workspaceRoot = params.RootPath
	case len(params.WorkspaceFolders) > 0:
		s.workspaceRoot = workspace.URIToPath(params.WorkspaceFolders[0].URI)
	}

	if s.workspaceRoot != "" {
		s.logger.Info("Workspace root", zap.String("root", s.workspaceRoot))
		s.configure(ctx)
	}

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			// Incremental sync; changes arrive through Handler
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindIncremental,
			},
			HoverProvider:      true,
			DefinitionProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", ":", "@", "#"},
				ResolveProvider:   false,
			},
			DocumentSymbolProvider:    true,
			WorkspaceSymbolProvider:   true,
			DocumentHighlightProvider: true,
			ReferencesProvider:        true,
			RenameProvider: &protocol.RenameOptions{
				PrepareProvider: true,
			},
			FoldingRangeProvider: true,
			SignatureHelpProvider: &protocol.SignatureHelpOptions{
				TriggerCharacters:   []string{"(", ","},
				RetriggerCharacters: []string{","},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "luna-lsp",
			Version: "0.1.0",
		},
	}, nil
}

// configure loads .luna.yaml for the workspace root and indexes the workspace.
// Config problems are logged and the defaults are kept.
func (s *Server) configure(ctx context.Context) {
	cfg, err := luna.LoadConfigOrDefault(s.workspaceRoot)
	if err != nil {
		s.logger.Warn("Invalid config, using defaults", zap.Error(err))

		cfg = luna.DefaultConfig()
		cfg.Dir = s.workspaceRoot
	}

	if s.level != nil && cfg.Log.Level != "" {
		if err := s.level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			s.logger.Warn("Invalid log level in config", zap.String("level", cfg.Log.Level), zap.Error(err))
		}
	}

	filter, err := analysis.NewFilter(cfg.Diagnostics.Disable, cfg.Diagnostics.Ignore)
	if err != nil {
		s.logger.Warn("Invalid diagnostics filter, reporting everything", zap.Error(err))
	}

	if len(cfg.Diagnostics.Disable) > 0 {
		s.analyzer = s.analyzer.Without(cfg.Diagnostics.Disable...)
	}

	s.cfg = cfg
	s.filter = filter
	s.scanner = workspace.NewScanner(s.logger, s.analyzer, s.index, cfg)

	if _, err := s.scanner.Scan(ctx, s.workspaceRoot); err != nil {
		s.logger.Warn("Workspace scan failed", zap.Error(err))
	}
}

// Initialized handles the initialized notification.
func (s *Server) Initialized(_ context.Context, _ *protocol.InitializedParams) error {
	s.logger.Info("Initialized")
	s.initialized = true

	return nil
}

// Shutdown handles the shutdown request.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info("Shutdown")
	s.shutdown = true

	return nil
}

// Exit handles the exit notification.
func (s *Server) Exit(_ context.Context) error {
	s.logger.Info("Exit")
	// The main loop should handle exiting after this
	return nil
}

// DidOpen handles textDocument/didOpen notifications.
func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.logger.Info("DidOpen", zap.String("uri", string(params.TextDocument.URI)))

	doc := document.New(string(params.TextDocument.URI), params.TextDocument.Text, s.analyzer, s.index)

	s.mu.Lock()
	s.documents[params.TextDocument.URI] = doc
	s.mu.Unlock()

	s.publishDiagnostics(ctx, doc)

	return nil
}

// DidChangeParams is the textDocument/didChange payload with `range: null` kept distinct
// from an empty range.
type DidChangeParams struct {
	TextDocument   protocol.VersionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []document.Edit                          `json:"contentChanges"`
}

// DidChange handles textDocument/didChange notifications decoded by the protocol package.
// Every change is applied as a range edit; clients sending full replacements go through Handler,
// which decodes the payload itself.
func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	edits := make([]document.Edit, 0, len(params.ContentChanges))

	for _, c := range params.ContentChanges {
		r := document.Range{
			Start: toDocPosition(c.Range.Start),
			End:   toDocPosition(c.Range.End),
		}
		edits = append(edits, document.Edit{Range: &r, RangeLength: c.RangeLength, Text: c.Text})
	}

	return s.ApplyChanges(ctx, &DidChangeParams{TextDocument: params.TextDocument, ContentChanges: edits})
}

// ApplyChanges applies one didChange batch and publishes the new diagnostics.
// A batch with an out-of-bounds range is rejected as a whole and reported as an error.
func (s *Server) ApplyChanges(ctx context.Context, params *DidChangeParams) error {
	uri := params.TextDocument.URI

	s.logger.Debug("DidChange",
		zap.String("uri", string(uri)),
		zap.Int32("version", params.TextDocument.Version),
		zap.Int("edits", len(params.ContentChanges)))

	doc, ok := s.getDocument(uri)
	if !ok {
		s.logger.Warn("DidChange for unknown document", zap.String("uri", string(uri)))

		return nil
	}

	if len(params.ContentChanges) == 0 {
		return nil
	}

	if err := doc.ApplyEdits(params.ContentChanges); err != nil {
		s.logger.Error("Rejected edit batch", zap.String("uri", string(uri)), zap.Error(err))

		return err
	}

	s.publishDiagnostics(ctx, doc)

	return nil
}

// DidClose handles textDocument/didClose notifications. The index goes back to the file's
// content on disk, or forgets it when it was never saved.
func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.logger.Info("DidClose", zap.String("uri", string(uri)))

	s.mu.Lock()
	delete(s.documents, uri)
	s.mu.Unlock()

	if _, err := s.scanner.IndexFile(workspace.URIToPath(string(uri))); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to reindex closed document", zap.Error(err))
		}

		s.index.Unindex(string(uri))
	}

	// Clear diagnostics for closed document
	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	if err != nil {
		s.logger.Error("Failed to clear diagnostics", zap.Error(err))
	}

	return nil
}

// DidSave handles textDocument/didSave notifications.
func (s *Server) DidSave(_ context.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.logger.Info("DidSave", zap.String("uri", string(params.TextDocument.URI)))

	return nil
}

// DidChangeWatchedFiles reindexes Lua files changed on disk. Open documents keep their
// editor content.
func (s *Server) DidChangeWatchedFiles(_ context.Context, params *protocol.DidChangeWatchedFilesParams) error {
	for _, change := range params.Changes {
		uri := change.URI
		if _, open := s.getDocument(uri); open || filepath.Ext(string(uri)) != workspace.Extension {
			continue
		}

		s.logger.Debug("Watched file changed",
			zap.String("uri", string(uri)),
			zap.Int("type", int(change.Type)))

		if change.Type == protocol.FileChangeTypeDeleted {
			s.index.Unindex(string(uri))

			continue
		}

		if _, err := s.scanner.IndexFile(workspace.URIToPath(string(uri))); err != nil {
			s.logger.Warn("Failed to reindex file", zap.String("uri", string(uri)), zap.Error(err))
		}
	}

	return nil
}

// getDocument returns a document by URI (read-locked).
func (s *Server) getDocument(uri protocol.DocumentURI) (*document.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[uri]

	return doc, ok
}

// openDocuments returns the open documents.
func (s *Server) openDocuments() []*document.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*document.Document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}

	return docs
}
