package luna_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/luna"
)

func firstComment(t *testing.T, src string) *luna.Comment {
	t.Helper()

	chunk := luna.Parse(src)
	require.NotEmpty(t, chunk.Comments)

	return chunk.Comments[0]
}

func TestDocComment_Attach(t *testing.T) {
	t.Parallel()

	chunk := luna.Parse("--- The name.\n---@type string\nlocal name = \"x\"\n\n---@class Foo\n\nlocal Foo = {}")

	local, ok := chunk.Block.Stmts[0].(*luna.LocalStat)
	require.True(t, ok)
	require.NotNil(t, local.Doc)
	assert.Equal(t, "The name.", local.Doc.Text())
	assert.Equal(t, "string", local.Doc.Type().Type.Name)
	assert.Same(t, local, local.Doc.Owner)

	// A blank line detaches the comment.
	foo, ok := chunk.Block.Stmts[1].(*luna.LocalStat)
	require.True(t, ok)
	assert.Nil(t, foo.Doc)
	require.Len(t, chunk.Comments, 2)
	assert.Nil(t, chunk.Comments[1].Owner)
	assert.NotNil(t, chunk.Comments[1].Class())
}

func TestDocComment_TrailingIsNotDoc(t *testing.T) {
	t.Parallel()

	chunk := luna.Parse("local y = 1 ---@type string\nlocal x = 2")

	x, ok := chunk.Block.Stmts[1].(*luna.LocalStat)
	require.True(t, ok)
	assert.Nil(t, x.Doc)
	assert.Empty(t, chunk.Comments)
}

func TestDocComment_Tags(t *testing.T) {
	t.Parallel()

	t.Run("param", func(t *testing.T) {
		t.Parallel()

		c := firstComment(t, "---@param name string the name\n---@param optional n number\n---@param x? Foo[]\nfunction f(name, n, x) end")

		params := luna.Tags[*luna.ParamTag](c)
		require.Len(t, params, 3)

		assert.Equal(t, "name", params[0].Name)
		assert.Equal(t, "string", params[0].Type.Name)
		assert.Equal(t, "the name", params[0].Desc)
		assert.False(t, params[0].Optional)

		assert.True(t, params[1].Optional)
		assert.Equal(t, "n", params[1].Name)

		assert.True(t, params[2].Optional)
		assert.Equal(t, luna.DocArray, params[2].Type.Kind)
		assert.Equal(t, "Foo[]", params[2].Type.String())

		assert.Equal(t, "name", c.Param("name").Name)
		assert.Nil(t, c.Param("missing"))
	})

	t.Run("literal union", func(t *testing.T) {
		t.Parallel()

		c := firstComment(t, "---@type \"a\"|'b'\nlocal x")

		typ := c.Type().Type
		require.Equal(t, luna.DocUnion, typ.Kind)
		require.Len(t, typ.Args, 2)
		assert.Equal(t, luna.DocLiteral, typ.Args[0].Kind)
		assert.Equal(t, "a", typ.Args[0].Name)
		assert.Equal(t, "b", typ.Args[1].Name)
	})

	t.Run("return", func(t *testing.T) {
		t.Parallel()

		c := firstComment(t, "---@return string, number|nil @the result\nfunction f() end")

		rets := luna.Tags[*luna.ReturnTag](c)
		require.Len(t, rets, 1)
		require.Len(t, rets[0].Types, 2)
		assert.Equal(t, "number|nil", rets[0].Types[1].String())
		assert.Equal(t, "the result", rets[0].Desc)
	})

	t.Run("class and field", func(t *testing.T) {
		t.Parallel()

		c := firstComment(t, "---@class Dog : Animal a good dog\n---@field protected name string\nlocal Dog = {}")

		cls := c.Class()
		require.NotNil(t, cls)
		assert.Equal(t, "Dog", cls.Name)
		assert.Equal(t, "Animal", cls.Super)
		assert.Equal(t, "a good dog", cls.Desc)

		fields := luna.Tags[*luna.FieldTag](c)
		require.Len(t, fields, 1)
		assert.Equal(t, "protected", fields[0].Access)
		assert.Equal(t, "name", fields[0].Name)
	})

	t.Run("overload and see", func(t *testing.T) {
		t.Parallel()

		c := firstComment(t, "---@overload fun(a: number, b?: string): boolean\n---@see Dog#bark\nfunction f() end")

		ov := luna.Tags[*luna.OverloadTag](c)
		require.Len(t, ov, 1)
		assert.Equal(t, luna.DocFunction, ov[0].Fun.Kind)
		require.Len(t, ov[0].Fun.Params, 2)
		assert.True(t, ov[0].Fun.Params[1].Optional)
		assert.Equal(t, "fun(a: number, b: string): boolean", ov[0].Fun.String())

		see := luna.Tags[*luna.SeeTag](c)
		require.Len(t, see, 1)
		assert.Equal(t, "Dog", see[0].Class)
		assert.Equal(t, "bark", see[0].Member)
	})

	t.Run("unknown tag is text", func(t *testing.T) {
		t.Parallel()

		c := firstComment(t, "---@deprecated use g\nfunction f() end")

		require.Len(t, c.Items, 1)
		text, ok := c.Items[0].(*luna.DocText)
		require.True(t, ok)
		assert.Equal(t, "@deprecated use g", text.Text)
	})
}

func TestDocComment_MalformedTag(t *testing.T) {
	t.Parallel()

	chunk := luna.Parse("---@param\nfunction f() end")

	require.Len(t, chunk.Comments, 1)

	errs := luna.SyntaxErrors(chunk)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "malformed @param tag")
	assert.True(t, luna.InComment(errs[0]))
}

func TestDocComment_NameSpan(t *testing.T) {
	t.Parallel()

	src := "local a\n---@param value string\nfunction f(value) end"
	c := firstComment(t, src)

	p := c.Param("value")
	require.NotNil(t, p)

	start := len("local a\n---@param ")
	assert.Equal(t, start, p.NameSpan.Start.Offset)
	assert.Equal(t, start+len("value"), p.NameSpan.End.Offset)
	assert.Equal(t, 2, p.NameSpan.Start.Line)
}
