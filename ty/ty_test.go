package ty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/luna/ty"
)

func lit(s string) ty.StringLiteral { return ty.StringLiteral{Content: s} }

func TestNewUnion(t *testing.T) {
	t.Parallel()

	a, b, c := lit("a"), ty.Number, ty.Class{Name: "C"}

	t.Run("flattens nested unions", func(t *testing.T) {
		t.Parallel()

		nested := ty.NewUnion(ty.NewUnion(a, b), c)
		flat := ty.NewUnion(a, b, c)

		assert.True(t, ty.Equal(nested, flat))

		u, ok := nested.(*ty.Union)
		require.True(t, ok)

		for _, m := range u.Members() {
			_, isUnion := m.(*ty.Union)
			assert.False(t, isUnion)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, ty.Type(a), ty.NewUnion(a, a))
		assert.Equal(t, ty.Type(a), ty.NewUnion(a))
	})

	t.Run("dedupes structurally", func(t *testing.T) {
		t.Parallel()

		u := ty.NewUnion(ty.Array{Elem: b}, ty.Array{Elem: b}, a)
		require.IsType(t, &ty.Union{}, u)
		assert.Len(t, u.(*ty.Union).Members(), 2) //nolint:forcetypeassert // Checked above.
	})

	t.Run("empty and unknown", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, ty.Unknown, ty.NewUnion())
		assert.Equal(t, ty.Type(b), ty.NewUnion(ty.Unknown, b))
		assert.Equal(t, ty.Unknown, ty.NewUnion(ty.Unknown, ty.Unknown))
	})

	t.Run("order independent equality", func(t *testing.T) {
		t.Parallel()

		assert.True(t, ty.Equal(ty.NewUnion(a, b), ty.NewUnion(b, a)))
	})
}

func TestEach(t *testing.T) {
	t.Parallel()

	var got []string

	ty.Each(ty.NewUnion(lit("x"), lit("y"), lit("z")), func(m ty.Type) bool {
		got = append(got, ty.Render(m))

		return len(got) < 2
	})

	assert.Equal(t, []string{`"x"`, `"y"`}, got)

	count := 0

	ty.Each(ty.String, func(ty.Type) bool {
		count++

		return true
	})

	assert.Equal(t, 1, count)
}

func TestRender(t *testing.T) {
	t.Parallel()

	fn := ty.NewFunction(false, ty.Signature{
		Params: []ty.Param{{Name: "a", Type: ty.Number}, {Name: "b", Type: ty.String, Optional: true}},
		Return: ty.Boolean,
	})

	tests := []struct {
		name string
		typ  ty.Type
		want string
	}{
		{"unknown", ty.Unknown, "any"},
		{"primitive", ty.Number, "number"},
		{"literal union", ty.NewUnion(lit("a"), lit("b"), lit("a")), `"a"|"b"`},
		{"class", ty.Class{Name: "Dog", Super: "Animal"}, "Dog"},
		{"array", ty.Array{Elem: ty.Class{Name: "Dog"}}, "Dog[]"},
		{"function", fn, "fun(a: number, b?: string): boolean"},
		{"function in union", ty.NewUnion(fn, ty.Nil), "fun(a: number, b?: string): boolean|nil"},
		{"array of unknown", ty.Array{Elem: ty.Unknown}, "any[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ty.Render(tt.typ))
		})
	}
}

func TestFunction(t *testing.T) {
	t.Parallel()

	f := ty.NewFunction(true)
	require.Len(t, f.Signatures, 1)
	assert.Equal(t, ty.Type(ty.Void), f.Main().Return)

	g := f.WithOverloads(ty.Signature{Params: []ty.Param{{Name: "x", Type: ty.Number}}, Return: ty.Number})
	assert.Len(t, g.Signatures, 2)
	assert.Len(t, f.Signatures, 1)
	assert.True(t, g.MethodCall)
}

func TestAccepts(t *testing.T) {
	t.Parallel()

	assert.True(t, ty.Accepts(ty.String, lit("a")))
	assert.True(t, ty.Accepts(ty.NewUnion(lit("a"), lit("b")), lit("b")))
	assert.False(t, ty.Accepts(ty.NewUnion(lit("a"), lit("b")), lit("c")))
	assert.True(t, ty.Accepts(ty.Unknown, ty.Number))
	assert.False(t, ty.Accepts(ty.Number, ty.String))
}
