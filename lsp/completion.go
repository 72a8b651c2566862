package lsp

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	"github.com/rlch/luna/document"
	"github.com/rlch/luna/ty"
)

// Completion priorities. Higher ranks first.
const (
	// EnumLiteralPriority ranks members of an expected string-literal union above every other candidate.
	EnumLiteralPriority = 111111999

	DocTagPriority  = 100
	MemberPriority  = 100
	LocalPriority   = 90
	GlobalPriority  = 50
	KeywordPriority = 10
)

// Candidate is a completion item with its ranking priority.
type Candidate struct {
	Item     protocol.CompletionItem
	Priority float64
}

// Completion handles textDocument/completion requests.
func (s *Server) Completion(_ context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	s.logger.Debug("Completion",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	snap := doc.Snapshot()
	offset := snap.Offset(toDocPosition(params.Position))

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        Rank(s.candidates(snap, offset)),
	}, nil
}

// candidates collects the completion candidates at offset.
func (s *Server) candidates(snap *document.Snapshot, offset int) []Candidate {
	tc := analysis.GetTokenContext(snap.File, snap.Text, offset)

	switch tc.Kind {
	case analysis.CursorDocComment:
		return s.docTagCandidates(tc)
	case analysis.CursorComment, analysis.CursorString:
		return nil
	}

	site := analysis.ParseCompletionSite(snap.Text, offset)
	ctx := analysis.NewSearchContext(s.index)

	var out []Candidate

	switch {
	case site.Member != nil:
		out = memberCandidates(ctx, site.Member)
	case site.Name != nil:
		out = append(out, enumCandidates(ctx, site.Name)...)
		out = append(out, localCandidates(ctx, site.Name)...)
		out = append(out, s.globalCandidates(ctx)...)
		out = append(out, keywordCandidates()...)
	}

	return filterByPrefix(out, tc.Prefix)
}

// Rank orders candidates by descending priority, then label, drops repeated labels and
// encodes the final order in SortText.
func Rank(cands []Candidate) []protocol.CompletionItem {
	slices.SortStableFunc(cands, func(a, b Candidate) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}

		return cmp.Compare(a.Item.Label, b.Item.Label)
	})

	seen := make(map[string]bool, len(cands))
	items := make([]protocol.CompletionItem, 0, len(cands))

	for _, c := range cands {
		if seen[c.Item.Label] {
			continue
		}

		seen[c.Item.Label] = true
		item := c.Item
		item.SortText = fmt.Sprintf("%06d", len(items))
		items = append(items, item)
	}

	return items
}

// enumCandidates offers the members of a string-literal union expected at ref.
func enumCandidates(ctx *analysis.SearchContext, ref *luna.NameExpr) []Candidate {
	var out []Candidate

	ty.Each(ctx.ShouldBe(ref), func(t ty.Type) bool {
		if lit, ok := t.(ty.StringLiteral); ok {
			out = append(out, Candidate{
				Item: protocol.CompletionItem{
					Label:      lit.Content,
					Kind:       protocol.CompletionItemKindEnum,
					InsertText: luna.Quote(lit.Content),
					FilterText: lit.Content,
				},
				Priority: EnumLiteralPriority,
			})
		}

		return true
	})

	return out
}

func localCandidates(ctx *analysis.SearchContext, ref *luna.NameExpr) []Candidate {
	var out []Candidate

	analysis.VisibleLocals(ref, func(name string, decl luna.Node) {
		kind := protocol.CompletionItemKindVariable
		if _, ok := decl.Parent().(*luna.LocalFuncStat); ok {
			kind = protocol.CompletionItemKindFunction
		}

		out = append(out, Candidate{
			Item: protocol.CompletionItem{
				Label:  name,
				Kind:   kind,
				Detail: ty.Render(ctx.Infer(decl)),
			},
			Priority: LocalPriority,
		})
	})

	return out
}

func (s *Server) globalCandidates(ctx *analysis.SearchContext) []Candidate {
	var out []Candidate

	s.index.ProcessGlobals(func(name string) bool {
		globals := s.index.FindGlobal(name)
		if len(globals) == 0 {
			return true
		}

		kind := protocol.CompletionItemKindVariable
		if _, ok := globals[0].Node.(*luna.FuncStat); ok {
			kind = protocol.CompletionItemKindFunction
		}

		out = append(out, Candidate{
			Item: protocol.CompletionItem{
				Label:  name,
				Kind:   kind,
				Detail: ty.Render(ctx.GlobalType(globals[0])),
			},
			Priority: GlobalPriority,
		})

		return true
	})

	return out
}

func keywordCandidates() []Candidate {
	kws := luna.Keywords()
	out := make([]Candidate, 0, len(kws))

	for _, kw := range kws {
		out = append(out, Candidate{
			Item:     protocol.CompletionItem{Label: kw, Kind: protocol.CompletionItemKindKeyword},
			Priority: KeywordPriority,
		})
	}

	return out
}

// memberCandidates lists the members of the classes the receiver of `x.` or `x:` may be.
// After a colon only functions are offered.
func memberCandidates(ctx *analysis.SearchContext, idx *luna.IndexExpr) []Candidate {
	var out []Candidate

	ty.Each(ctx.Infer(idx.X), func(t ty.Type) bool {
		cls, ok := t.(ty.Class)
		if !ok {
			return true
		}

		ctx.Index.ProcessMembers(cls.Name, func(m *analysis.MemberEntry) bool {
			mt := ctx.MemberEntryType(m)

			kind := protocol.CompletionItemKindField
			if fn, isFunc := mt.(*ty.Function); isFunc {
				kind = protocol.CompletionItemKindFunction
				if fn.MethodCall {
					kind = protocol.CompletionItemKindMethod
				}
			} else if idx.Colon {
				return true
			}

			out = append(out, Candidate{
				Item: protocol.CompletionItem{
					Label:  m.Name,
					Kind:   kind,
					Detail: ty.Render(mt),
				},
				Priority: MemberPriority,
			})

			return true
		})

		return true
	})

	return out
}

func filterByPrefix(cands []Candidate, prefix string) []Candidate {
	if prefix == "" {
		return cands
	}

	prefix = strings.ToLower(prefix)

	return slices.DeleteFunc(cands, func(c Candidate) bool {
		label := c.Item.Label
		if c.Item.FilterText != "" {
			label = c.Item.FilterText
		}

		return !strings.HasPrefix(strings.ToLower(label), prefix)
	})
}

// ----------------------------------------------------------------------------
// Doc comment completion
// ----------------------------------------------------------------------------

// docContributor offers candidates for one syntactic position inside a doc comment.
// The first contributor that produces anything wins.
type docContributor func(s *Server, tc *analysis.TokenContext) []Candidate

var docContributors = []docContributor{
	(*Server).docTagNames,
	(*Server).docParamNames,
	(*Server).docAccessModifiers,
	(*Server).docSeeMembers,
	(*Server).docClassNames,
}

func (s *Server) docTagCandidates(tc *analysis.TokenContext) []Candidate {
	for _, contribute := range docContributors {
		if out := contribute(s, tc); len(out) > 0 {
			return filterByPrefix(out, tc.Prefix)
		}
	}

	return nil
}

// Positions inside a `---` line, matched against the text before the cursor.
var (
	tagNamePattern   = regexp.MustCompile(`^---\s*@\w*$`)
	paramNamePattern = regexp.MustCompile(`^---\s*@param\s+(optional\s+)?\w*$`)
	accessPattern    = regexp.MustCompile(`^---\s*@field\s+\w*$`)
	seeMemberPattern = regexp.MustCompile(`^---\s*@see\s+([\w.]+)#\w*$`)
	superPattern     = regexp.MustCompile(`^---\s*@class\s+[\w.]+\s*:\s*[\w.]*$`)
	seeClassPattern  = regexp.MustCompile(`^---\s*@see\s+[\w.]*$`)

	// typeTail matches the type being typed: the start of the type or the position after |, (, <, or a comma.
	typeTail            = `(?:\S*[|(<,:]\s*)?[\w.]*$`
	typePositionPattern = []*regexp.Regexp{
		regexp.MustCompile(`^---\s*@type\s+` + typeTail),
		regexp.MustCompile(`^---\s*@return\s+` + typeTail),
		regexp.MustCompile(`^---\s*@param\s+(?:optional\s+)?(?:\w+|\.\.\.)\??\s+` + typeTail),
		regexp.MustCompile(`^---\s*@field\s+(?:(?:public|protected|private)\s+)?\w+\s+` + typeTail),
		regexp.MustCompile(`^---\s*@overload\s+` + typeTail),
	}
)

func (s *Server) docTagNames(tc *analysis.TokenContext) []Candidate {
	if !tagNamePattern.MatchString(tc.Line) {
		return nil
	}

	var out []Candidate

	for _, name := range luna.TagNames() {
		out = append(out, Candidate{
			Item:     protocol.CompletionItem{Label: name, Kind: protocol.CompletionItemKindKeyword},
			Priority: DocTagPriority,
		})
	}

	return out
}

// docParamNames offers `optional` and the parameters of the documented function after @param.
func (s *Server) docParamNames(tc *analysis.TokenContext) []Candidate {
	m := paramNamePattern.FindStringSubmatch(tc.Line)
	if m == nil {
		return nil
	}

	var out []Candidate

	if m[1] == "" {
		out = append(out, Candidate{
			Item:     protocol.CompletionItem{Label: "optional", Kind: protocol.CompletionItemKindKeyword},
			Priority: DocTagPriority - 1,
		})
	}

	if tc.Comment == nil {
		return out
	}

	body := analysis.DocumentedFunction(tc.Comment)
	if body == nil {
		return out
	}

	for _, p := range body.Params {
		out = append(out, Candidate{
			Item:     protocol.CompletionItem{Label: p.Name, Kind: protocol.CompletionItemKindVariable},
			Priority: DocTagPriority,
		})
	}

	if body.Vararg {
		out = append(out, Candidate{
			Item:     protocol.CompletionItem{Label: "...", Kind: protocol.CompletionItemKindVariable},
			Priority: DocTagPriority,
		})
	}

	return out
}

func (s *Server) docAccessModifiers(tc *analysis.TokenContext) []Candidate {
	if !accessPattern.MatchString(tc.Line) {
		return nil
	}

	out := make([]Candidate, 0, 3)

	for _, mod := range []string{"public", "protected", "private"} {
		out = append(out, Candidate{
			Item:     protocol.CompletionItem{Label: mod, Kind: protocol.CompletionItemKindKeyword},
			Priority: DocTagPriority,
		})
	}

	return out
}

// docSeeMembers offers the members of the class named in `@see Class#`.
func (s *Server) docSeeMembers(tc *analysis.TokenContext) []Candidate {
	m := seeMemberPattern.FindStringSubmatch(tc.Line)
	if m == nil {
		return nil
	}

	var out []Candidate

	s.index.ProcessMembers(m[1], func(e *analysis.MemberEntry) bool {
		kind := protocol.CompletionItemKindField
		if _, ok := e.Node.(*luna.FuncStat); ok {
			kind = protocol.CompletionItemKindMethod
		}

		out = append(out, Candidate{
			Item:     protocol.CompletionItem{Label: e.Name, Kind: kind, Detail: e.Class},
			Priority: MemberPriority,
		})

		return true
	})

	return out
}

// docClassNames offers class names after `@class X :` and `@see`, and class and built-in type
// names wherever a type is expected.
func (s *Server) docClassNames(tc *analysis.TokenContext) []Candidate {
	classOnly := superPattern.MatchString(tc.Line) || seeClassPattern.MatchString(tc.Line)

	typePosition := slices.ContainsFunc(typePositionPattern, func(re *regexp.Regexp) bool {
		return re.MatchString(tc.Line)
	})

	if !classOnly && !typePosition {
		return nil
	}

	var out []Candidate

	s.index.ProcessKeys(func(name string) bool {
		out = append(out, Candidate{
			Item:     protocol.CompletionItem{Label: name, Kind: protocol.CompletionItemKindClass},
			Priority: DocTagPriority,
		})

		return true
	})

	if classOnly {
		return out
	}

	for _, name := range builtinTypeNames {
		out = append(out, Candidate{
			Item:     protocol.CompletionItem{Label: name, Kind: protocol.CompletionItemKindKeyword},
			Priority: KeywordPriority,
		})
	}

	return out
}

var builtinTypeNames = []string{
	"any", "boolean", "fun", "function", "integer", "nil", "number", "string", "table", "thread", "userdata",
}
