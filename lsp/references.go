package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/document"
)

// References handles textDocument/references requests.
// Locals are searched in their own document; globals, members and classes in every open document,
// plus the declarations the index holds for files that are not open.
func (s *Server) References(_ context.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	s.logger.Debug("References",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character),
		zap.Bool("includeDeclaration", params.Context.IncludeDeclaration))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	snap := doc.Snapshot()
	ctx := analysis.NewSearchContext(s.index)

	ref, ok := resolveAt(ctx, snap.File.Chunk, snap.Offset(toDocPosition(params.Position)))
	if !ok {
		return nil, nil
	}

	var locs []protocol.Location

	for _, occ := range s.occurrences(ctx, doc, ref) {
		if occ.Declaration && !params.Context.IncludeDeclaration {
			continue
		}

		locs = append(locs, protocol.Location{
			URI:   protocol.DocumentURI(occ.URI),
			Range: occ.Range,
		})
	}

	if params.Context.IncludeDeclaration {
		locs = append(locs, s.closedDeclarations(ref)...)
	}

	return locs, nil
}

// occurrence is one place a reference is written.
type occurrence struct {
	URI   string
	Range protocol.Range
	// Declaration marks the declaring name of a local, a global function, a member or a class.
	Declaration bool
}

// occurrences finds every occurrence of ref in the open documents, or in doc alone for locals.
func (s *Server) occurrences(ctx *analysis.SearchContext, doc *document.Document, ref *reference) []occurrence {
	docs := []*document.Document{doc}
	if ref.Local == nil {
		docs = s.openDocuments()
	}

	var out []occurrence

	for _, d := range docs {
		snap := d.Snapshot()

		for _, o := range occurrencesIn(ctx, snap.File.Chunk, ref) {
			out = append(out, occurrence{
				URI:         d.URI(),
				Range:       toProtocolRange(snap.Range(o.span)),
				Declaration: o.decl,
			})
		}
	}

	return out
}

// closedDeclarations returns the indexed declarations of ref in files that are not open.
func (s *Server) closedDeclarations(ref *reference) []protocol.Location {
	var locs []protocol.Location

	closed := func(uri string) bool {
		_, open := s.getDocument(protocol.DocumentURI(uri))

		return !open
	}

	switch {
	case ref.Global != nil:
		for _, g := range s.index.FindGlobal(ref.Global.Name) {
			if closed(g.URI) {
				locs = append(locs, s.location(g.URI, g.Span))
			}
		}
	case ref.Member != nil:
		s.index.ProcessMembers(ref.Member.Class, func(m *analysis.MemberEntry) bool {
			if m.Class == ref.Member.Class && m.Name == ref.Member.Name && closed(m.URI) {
				locs = append(locs, s.location(m.URI, m.Span))
			}

			return true
		})
	case ref.Class != nil:
		if closed(ref.Class.URI) {
			locs = append(locs, s.location(ref.Class.URI, ref.Class.Span))
		}
	}

	return locs
}

type spanOcc struct {
	span luna.Span
	decl bool
}

// occurrencesIn collects the name spans of ref in chunk.
//
//nolint:cyclop,funlen,gocognit // One case per referencing node kind.
func occurrencesIn(ctx *analysis.SearchContext, chunk *luna.Chunk, ref *reference) []spanOcc {
	var out []spanOcc

	addDocTypes := func(tag luna.Node) {
		if ref.Class == nil {
			return
		}

		eachDocType(docTypesOf(tag), func(d *luna.DocType) {
			if d.Kind == luna.DocNamed && d.Name == ref.Class.Name {
				out = append(out, spanOcc{span: d.Span})
			}
		})
	}

	luna.Inspect(chunk, func(n luna.Node) bool {
		switch x := n.(type) {
		case *luna.NameDef:
			if ref.Local == luna.Node(x) {
				out = append(out, spanOcc{span: x.Span(), decl: true})
			}
		case *luna.ParamDef:
			if ref.Local == luna.Node(x) {
				out = append(out, spanOcc{span: x.Span(), decl: true})
			}
		case *luna.NameExpr:
			switch {
			case ref.Local != nil:
				if analysis.ResolveLocal(x) == ref.Local {
					out = append(out, spanOcc{span: x.Span()})
				}
			case ref.Global != nil:
				if x.Name == ref.Global.Name && analysis.ResolveLocal(x) == nil {
					_, isFunc := x.Parent().(*luna.FuncStat)
					out = append(out, spanOcc{span: x.Span(), decl: isFunc})
				}
			}
		case *luna.IndexExpr:
			if ref.Member != nil && x.Name == ref.Member.Name {
				if m, ok := memberOf(ctx, x); ok && m.Class == ref.Member.Class {
					_, isFunc := x.Parent().(*luna.FuncStat)
					out = append(out, spanOcc{span: nameSpan(x), decl: isFunc})
				}
			}
		case *luna.ParamTag:
			if p, ok := ref.Local.(*luna.ParamDef); ok && x.Name == p.Name {
				c, _ := luna.ParentOf[*luna.Comment](x)
				if documentedParam(c, x.Name) == p {
					out = append(out, spanOcc{span: x.NameSpan})
				}
			}

			addDocTypes(x)
		case *luna.FieldTag:
			if ref.Member != nil && x.Name == ref.Member.Name {
				c, _ := luna.ParentOf[*luna.Comment](x)
				if c.Class() != nil && c.Class().Name == ref.Member.Class {
					out = append(out, spanOcc{span: x.NameSpan, decl: true})
				}
			}

			addDocTypes(x)
		case *luna.ClassTag:
			if ref.Class != nil && x.Name == ref.Class.Name {
				out = append(out, spanOcc{span: x.NameSpan, decl: true})
			}
		case *luna.TypeTag, *luna.ReturnTag, *luna.OverloadTag:
			addDocTypes(x)
		}

		return true
	})

	return out
}
