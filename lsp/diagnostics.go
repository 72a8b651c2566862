package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/document"
)

// publishDiagnostics filters the document's diagnostics and publishes them.
func (s *Server) publishDiagnostics(ctx context.Context, doc *document.Document) {
	snap := doc.Snapshot()

	diags, err := s.filter.Apply(snap.File.Diagnostics)
	if err != nil {
		s.logger.Warn("Diagnostics filter failed, publishing unfiltered", zap.Error(err))

		diags = snap.File.Diagnostics
	}

	diagnostics := make([]protocol.Diagnostic, 0, len(diags))

	for _, d := range diags {
		lspDiag := convertDiagnostic(snap, d)
		s.logger.Debug("Publishing diagnostic",
			zap.Int("span.start.line", d.Span.Start.Line),
			zap.Int("span.start.col", d.Span.Start.Column),
			zap.Uint32("lsp.start.line", lspDiag.Range.Start.Line),
			zap.Uint32("lsp.start.char", lspDiag.Range.Start.Character),
			zap.String("message", d.Message))
		diagnostics = append(diagnostics, lspDiag)
	}

	err = s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(doc.URI()),
		Version:     toUint32(doc.Version()),
		Diagnostics: diagnostics,
	})
	if err != nil {
		s.logger.Error("Failed to publish diagnostics", zap.Error(err))
	}
}

// convertDiagnostic converts an analysis.Diagnostic to an LSP protocol.Diagnostic.
func convertDiagnostic(snap *document.Snapshot, d analysis.Diagnostic) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    toProtocolRange(snap.Range(d.Span)),
		Severity: convertSeverity(d.Severity),
		Code:     d.Code,
		Source:   d.Source,
		Message:  d.Message,
	}
}

// convertSeverity converts analysis severity to LSP severity.
func convertSeverity(sev analysis.DiagnosticSeverity) protocol.DiagnosticSeverity {
	switch sev {
	case analysis.SeverityError:
		return protocol.DiagnosticSeverityError
	case analysis.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case analysis.SeverityInformation:
		return protocol.DiagnosticSeverityInformation
	case analysis.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}
