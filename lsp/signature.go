package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	documentation "github.com/rlch/luna/documentation"
	"github.com/rlch/luna/ty"
)

// SignatureHelp handles textDocument/signatureHelp requests.
// Shows the signatures of the innermost call whose argument list holds the cursor.
func (s *Server) SignatureHelp(_ context.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	s.logger.Debug("SignatureHelp",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	snap := doc.Snapshot()
	offset := snap.Offset(toDocPosition(params.Position))

	call := enclosingCall(snap.File.Chunk, snap.Text, offset)
	if call == nil {
		// An argument list still being typed has no closing parenthesis yet.
		text := snap.Text[:offset] + analysis.DummyIdentifier + ")" + snap.Text[offset:]
		call = enclosingCall(luna.Parse(text), text, offset)
	}

	if call == nil {
		return nil, nil //nolint:nilnil
	}

	ctx := analysis.NewSearchContext(s.index)

	fn, ok := ctx.Infer(call.Fn).(*ty.Function)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	return signatureHelp(ctx, fn, call, offset), nil
}

// enclosingCall returns the innermost call whose parentheses contain offset.
func enclosingCall(chunk *luna.Chunk, text string, offset int) *luna.CallExpr {
	path := luna.PathAt(chunk, offset)

	for i := len(path) - 1; i >= 0; i-- {
		call, ok := path[i].(*luna.CallExpr)
		if !ok || call.Fn == nil || offset <= call.Fn.Span().End.Offset {
			continue
		}

		end := call.Span().End.Offset
		if offset == end && end > 0 && end <= len(text) && text[end-1] == ')' {
			continue
		}

		return call
	}

	return nil
}

func signatureHelp(ctx *analysis.SearchContext, fn *ty.Function, call *luna.CallExpr, offset int) *protocol.SignatureHelp {
	name := luna.ExprString(call.Fn)
	selected := ty.RenderSignature(ctx.SelectSignature(fn, call))

	help := &protocol.SignatureHelp{}

	for i, sig := range fn.Signatures {
		rendered := ty.RenderSignature(sig)
		if rendered == selected {
			help.ActiveSignature = toUint32(i)
		}

		params := make([]protocol.ParameterInformation, 0, len(sig.Params))
		for _, p := range sig.Params {
			label := p.Name
			if p.Optional {
				label += "?"
			}

			params = append(params, protocol.ParameterInformation{Label: label + ": " + ty.Render(p.Type)})
		}

		help.Signatures = append(help.Signatures, protocol.SignatureInformation{
			Label:      name + rendered,
			Parameters: params,
		})
	}

	if fs, ok := call.Fn.(*luna.NameExpr); ok && len(help.Signatures) > 0 {
		if globals := ctx.Index.FindGlobal(fs.Name); len(globals) > 0 && globals[0].Doc != nil {
			help.Signatures[0].Documentation = documentation.RenderComment(ctx, globals[0].Doc)
		}
	}

	active := activeArgument(call, offset) + analysis.ArgShift(fn, call)
	help.ActiveParameter = toUint32(active)

	return help
}

// activeArgument counts the arguments that end before offset.
func activeArgument(call *luna.CallExpr, offset int) int {
	n := 0

	for _, arg := range call.Args {
		if arg.Span().End.Offset < offset {
			n++
		}
	}

	return n
}
