package analysis_test

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/luna/analysis"
)

func TestIndex_Replace(t *testing.T) {
	t.Parallel()

	idx := analysis.NewIndex()
	first := analyze(t, "---@class Old\nlocal Old = {}\nfunction helper() end\n")
	idx.Replace("file:///a.lua", first.Entries)

	_, ok := idx.FindClass("Old")
	require.True(t, ok)
	assert.Len(t, idx.FindGlobal("helper"), 1)

	second := analyze(t, "---@class New\nlocal New = {}\n")
	idx.Replace("file:///a.lua", second.Entries)

	_, ok = idx.FindClass("Old")
	assert.False(t, ok, "replaced class should be gone")

	_, ok = idx.FindClass("New")
	assert.True(t, ok)
	assert.Empty(t, idx.FindGlobal("helper"))
	assert.Equal(t, 1, idx.Documents())
}

func TestIndex_Unindex(t *testing.T) {
	t.Parallel()

	idx := analysis.NewIndex()
	a := analyze(t, "---@class Shared\n---@field a number\nlocal S = {}\n")
	b := analyze(t, "---@class Other\n---@field b number\nlocal O = {}\n")

	idx.Index("a.lua", a.Entries)
	idx.Index("b.lua", b.Entries)
	idx.Unindex("a.lua")

	_, ok := idx.FindClass("Shared")
	assert.False(t, ok)

	_, ok = idx.FindMember("Other", "b")
	assert.True(t, ok)

	// Unindexing an unknown document is a no-op.
	idx.Unindex("missing.lua")
	assert.Equal(t, 1, idx.Documents())
}

func TestIndex_ProcessKeys(t *testing.T) {
	t.Parallel()

	idx := analysis.NewIndex()
	f := analyze(t, "---@class Zebra\n\n---@class Apple\n\n---@class Mango\n")
	idx.Replace(f.Path, f.Entries)

	var names []string

	idx.ProcessKeys(func(name string) bool {
		names = append(names, name)

		return true
	})

	if diff := cmp.Diff([]string{"Apple", "Mango", "Zebra"}, names); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	var first []string

	idx.ProcessKeys(func(name string) bool {
		first = append(first, name)

		return false
	})

	assert.Equal(t, []string{"Apple"}, first)
}

func TestIndex_SuperChainCycle(t *testing.T) {
	t.Parallel()

	idx := analysis.NewIndex()
	f := analyze(t, `---@class A : B
---@field a number

---@class B : A
---@field b string
`)
	idx.Replace(f.Path, f.Entries)

	assert.Equal(t, []string{"A"}, idx.SuperChain("A"))
	assert.Equal(t, []string{"B"}, idx.SuperChain("B"))

	var members []string

	idx.ProcessMembers("A", func(m *analysis.MemberEntry) bool {
		members = append(members, m.Class+"."+m.Name)

		return true
	})

	assert.Equal(t, []string{"A.a"}, members)

	_, ok := idx.FindMember("A", "b")
	assert.False(t, ok, "cyclic supertype members are not inherited")

	_, ok = idx.FindMember("A", "missing")
	assert.False(t, ok)
}

func TestIndex_SelfCycle(t *testing.T) {
	t.Parallel()

	idx := analysis.NewIndex()
	f := analyze(t, "---@class Loop : Loop\n")
	idx.Replace(f.Path, f.Entries)

	assert.Equal(t, []string{"Loop"}, idx.SuperChain("Loop"))
}

func TestIndex_SuperChain(t *testing.T) {
	t.Parallel()

	idx := analysis.NewIndex()
	f := analyze(t, `---@class Animal
---@field name string

---@class Dog : Animal
---@field breed string

---@class Puppy : Dog
`)
	idx.Replace(f.Path, f.Entries)

	assert.Equal(t, []string{"Puppy", "Dog", "Animal"}, idx.SuperChain("Puppy"))

	m, ok := idx.FindMember("Puppy", "name")
	require.True(t, ok)
	assert.Equal(t, "Animal", m.Class)
}

func TestIndex_UnindexByKey(t *testing.T) {
	t.Parallel()

	idx := analysis.NewIndex()

	// Collected under one spelling of the path, indexed under another.
	f := analysis.NewAnalyzer().Analyze("file:///disk/a.lua", "---@class Old\n---@field x number\nlocal Old = {}\nfunction helper() end\n")
	idx.Replace("file:///open/a.lua", f.Entries)

	_, ok := idx.FindClass("Old")
	require.True(t, ok)

	idx.Unindex("file:///open/a.lua")

	_, ok = idx.FindClass("Old")
	assert.False(t, ok)

	_, ok = idx.FindMember("Old", "x")
	assert.False(t, ok)
	assert.Empty(t, idx.FindGlobal("helper"))
	assert.Equal(t, 0, idx.Documents())
}

func TestIndex_ConcurrentReplace(t *testing.T) {
	t.Parallel()

	idx := analysis.NewIndex()
	versions := []*analysis.AnalyzedFile{
		analyze(t, "---@class V1\n---@field x number\nlocal V = {}\n"),
		analyze(t, "---@class V2\n---@field x number\nlocal V = {}\n"),
	}

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			idx.Replace("doc.lua", versions[i%2].Entries)
		}()

		go func() {
			defer wg.Done()

			// A document contributes exactly one class at any time.
			count := 0

			idx.ProcessKeys(func(string) bool {
				count++

				return true
			})

			assert.LessOrEqual(t, count, 1)
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, idx.Documents())
}
