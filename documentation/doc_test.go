package docs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
	documentation "github.com/rlch/luna/documentation"
)

func setup(t *testing.T, src string) (*analysis.AnalyzedFile, *analysis.SearchContext) {
	t.Helper()

	f := analysis.NewAnalyzer().Analyze("test.lua", src)
	idx := analysis.NewIndex()
	idx.Replace(f.Path, f.Entries)

	return f, analysis.NewSearchContext(idx)
}

// find returns the first node of type T accepted by match.
func find[T luna.Node](t *testing.T, chunk *luna.Chunk, match func(T) bool) T {
	t.Helper()

	var (
		found T
		ok    bool
	)

	luna.Inspect(chunk, func(n luna.Node) bool {
		if x, is := n.(T); is && !ok && match(x) {
			found, ok = x, true
		}

		return !ok
	})

	require.True(t, ok, "node not found")

	return found
}

func TestGenerateDoc(t *testing.T) {
	t.Parallel()

	src := `---Current mode.
---@type "a"|"b"
local mode = "a"

---Adds numbers.
---@param a number first
---@param b? number
---@return number
local function add(a, b) end

---@class Point : Base
---@field x number horizontal
local Point = {}

function greet(who) end
greet()

for i = 1, 3 do end
`

	f, ctx := setup(t, src)

	tests := []struct {
		name string
		node luna.Node
		want string
	}{
		{
			name: "annotated local",
			node: find(t, f.Chunk, func(d *luna.NameDef) bool { return d.Name == "mode" }),
			want: "```lua\nlocal mode: \"a\"|\"b\"\n```\n\nCurrent mode.\n\n*@type* `\"a\"|\"b\"`",
		},
		{
			name: "local function",
			node: find(t, f.Chunk, func(d *luna.NameDef) bool { return d.Name == "add" }),
			want: "```lua\nlocal function add(a: number, b?: number): number\n```\n\n" +
				"Adds numbers.\n\n*@param* `a` `number` - first\n\n*@param* `b`? `number`\n\n*@return* `number`",
		},
		{
			name: "documented parameter",
			node: find(t, f.Chunk, func(p *luna.ParamDef) bool { return p.Name == "a" }),
			want: "```lua\n(parameter) a: number\n```\n\nfirst",
		},
		{
			name: "undocumented parameter",
			node: find(t, f.Chunk, func(p *luna.ParamDef) bool { return p.Name == "who" }),
			want: "```lua\n(parameter) who: any\n```",
		},
		{
			name: "class tag",
			node: find(t, f.Chunk, func(*luna.ClassTag) bool { return true }),
			want: "```lua\nclass Point : Base\n```",
		},
		{
			name: "field tag",
			node: find(t, f.Chunk, func(*luna.FieldTag) bool { return true }),
			want: "```lua\n(field) Point.x: number\n```\n\nhorizontal",
		},
		{
			name: "global function reference",
			node: find(t, f.Chunk, func(n *luna.NameExpr) bool {
				_, isCall := n.Parent().(*luna.CallExpr)

				return n.Name == "greet" && isCall
			}),
			want: "```lua\nfunction greet(who: any): void\n```",
		},
		{
			name: "loop variable",
			node: find(t, f.Chunk, func(d *luna.NameDef) bool { return d.Name == "i" }),
			want: "```lua\nlocal i: number\n```",
		},
		{
			name: "not a declaration",
			node: find(t, f.Chunk, func(*luna.TableExpr) bool { return true }),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// A SearchContext is per request.
			ctx := analysis.NewSearchContext(ctx.Index)

			assert.Equal(t, tt.want, documentation.GenerateDoc(ctx, tt.node))
		})
	}
}

func TestMemberDoc(t *testing.T) {
	t.Parallel()

	_, ctx := setup(t, `---@class Point
---@field x number horizontal
local Point = {}

---Length.
---@return number
function Point:len() end

Point.origin = 0
`)

	docs := map[string]string{}

	ctx.Index.ProcessMembers("Point", func(m *analysis.MemberEntry) bool {
		docs[m.Name] = documentation.MemberDoc(ctx, m)

		return true
	})

	assert.Equal(t, "```lua\n(field) Point.x: number\n```\n\nhorizontal", docs["x"])
	assert.Equal(t, "```lua\nPoint:len(): number\n```\n\nLength.\n\n*@return* `number`", docs["len"])
	assert.Equal(t, "```lua\nPoint.origin: number\n```", docs["origin"])
}

func TestGlobalDoc(t *testing.T) {
	t.Parallel()

	_, ctx := setup(t, "---@type string\nname = nil\n")

	globals := ctx.Index.FindGlobal("name")
	require.Len(t, globals, 1)

	assert.Equal(t, "```lua\nname: string\n```\n\n*@type* `string`", documentation.GlobalDoc(ctx, globals[0]))
}

func TestRenderComment(t *testing.T) {
	t.Parallel()

	f, ctx := setup(t, `---First line
---second line.
---@overload fun(x: number): string
---@see Point#len
---@param
---@field private secret string hidden
local function f() end
`)

	c := f.Chunk.Comments[0]

	want := "First line\nsecond line.\n\n*@overload* `fun(x: number): string`\n\n*@see* `Point#len`\n\n" +
		"*@field* private `secret` `string` - hidden"

	assert.Equal(t, want, documentation.RenderComment(ctx, c))
	assert.Empty(t, documentation.RenderComment(ctx, nil))
}

func TestQuickInfo(t *testing.T) {
	t.Parallel()

	f, ctx := setup(t, "local t = {1, 2}\nlocal u = t[1]\n")

	assert.Equal(t, "number[]", documentation.QuickInfo(ctx, find(t, f.Chunk, func(d *luna.NameDef) bool { return d.Name == "t" })))
	assert.Equal(t, "number", documentation.QuickInfo(ctx, find(t, f.Chunk, func(d *luna.NameDef) bool { return d.Name == "u" })))
	assert.Equal(t, "any", documentation.QuickInfo(ctx, f.Chunk))
}
