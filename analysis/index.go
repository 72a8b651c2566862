package analysis

import (
	"slices"
	"sync"

	"github.com/rlch/luna"
)

// ClassEntry is a class declared with @class.
type ClassEntry struct {
	Name  string
	Super string
	URI   string
	Span  luna.Span
	Tag   *luna.ClassTag
}

// MemberEntry is a member of a class: an @field tag, a method, or an assignment to a field.
type MemberEntry struct {
	Class string
	Name  string
	URI   string
	Span  luna.Span
	// Node is a *luna.FieldTag, *luna.FuncStat, *luna.IndexExpr assignment target or *luna.TableField.
	Node luna.Node
	// Value is the assigned expression for assignment and table field members.
	Value luna.Expr
	// Doc is the comment of the declaring statement, if any.
	Doc *luna.Comment
}

// GlobalEntry is a global variable or function declared at the top level of a file.
type GlobalEntry struct {
	Name string
	URI  string
	Span luna.Span
	// Node is the declaring *luna.FuncStat, or the *luna.NameExpr target of an assignment.
	Node  luna.Node
	Value luna.Expr
	Doc   *luna.Comment
}

// Entries are the index contributions of one document.
type Entries struct {
	Classes []*ClassEntry
	Members []*MemberEntry
	Globals []*GlobalEntry
}

// Index is the process-wide symbol index shared by all documents.
// A document's contributions are replaced atomically; readers never observe a half-updated document.
type Index struct {
	mu      sync.RWMutex
	docs    map[string]*Entries
	classes map[string][]*ClassEntry
	members map[string][]*MemberEntry
	globals map[string][]*GlobalEntry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		docs:    make(map[string]*Entries),
		classes: make(map[string][]*ClassEntry),
		members: make(map[string][]*MemberEntry),
		globals: make(map[string][]*GlobalEntry),
	}
}

// Replace swaps the contributions of uri for entries under a single write lock.
func (idx *Index) Replace(uri string, entries *Entries) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.unindex(uri)
	idx.index(uri, entries)
}

// Index adds the contributions of uri.
func (idx *Index) Index(uri string, entries *Entries) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.index(uri, entries)
}

// Unindex removes every contribution of uri.
func (idx *Index) Unindex(uri string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.unindex(uri)
}

func (idx *Index) index(uri string, e *Entries) {
	if e == nil {
		return
	}

	idx.docs[uri] = e

	for _, c := range e.Classes {
		idx.classes[c.Name] = append(idx.classes[c.Name], c)
	}

	for _, m := range e.Members {
		idx.members[m.Class] = append(idx.members[m.Class], m)
	}

	for _, g := range e.Globals {
		idx.globals[g.Name] = append(idx.globals[g.Name], g)
	}
}

func (idx *Index) unindex(uri string) {
	e, ok := idx.docs[uri]
	if !ok {
		return
	}

	delete(idx.docs, uri)

	for _, c := range e.Classes {
		removeEntries(idx.classes, c.Name, e.Classes)
	}

	for _, m := range e.Members {
		removeEntries(idx.members, m.Class, e.Members)
	}

	for _, g := range e.Globals {
		removeEntries(idx.globals, g.Name, e.Globals)
	}
}

// removeEntries drops the entries owned by one document from m[key]. Entries are matched by
// identity, so a document is removed exactly as it was indexed whatever URI its entries carry.
func removeEntries[T comparable](m map[string][]T, key string, owned []T) {
	list := slices.DeleteFunc(slices.Clone(m[key]), func(v T) bool { return slices.Contains(owned, v) })
	if len(list) == 0 {
		delete(m, key)

		return
	}

	m[key] = list
}

// Documents returns the number of indexed documents.
func (idx *Index) Documents() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.docs)
}

// FindClass returns the first declaration of the named class.
func (idx *Index) FindClass(name string) (*ClassEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if list := idx.classes[name]; len(list) > 0 {
		return list[0], true
	}

	return nil, false
}

// ProcessKeys calls fn with every class name in sorted order until fn returns false.
func (idx *Index) ProcessKeys(fn func(name string) bool) {
	idx.mu.RLock()
	names := make([]string, 0, len(idx.classes))

	for name := range idx.classes {
		names = append(names, name)
	}
	idx.mu.RUnlock()

	slices.Sort(names)

	for _, name := range names {
		if !fn(name) {
			return
		}
	}
}

// ProcessMembers calls fn for the members of class and then of each supertype, until fn returns false.
// The chain and its member lists are read in one snapshot. A class whose supertypes loop back
// inherits nothing.
func (idx *Index) ProcessMembers(class string, fn func(*MemberEntry) bool) {
	idx.mu.RLock()
	chain := idx.superChain(class)
	lists := make([][]*MemberEntry, 0, len(chain))

	for _, name := range chain {
		lists = append(lists, idx.members[name])
	}
	idx.mu.RUnlock()

	for _, members := range lists {
		for _, m := range members {
			if !fn(m) {
				return
			}
		}
	}
}

// SuperChain returns class followed by its supertypes. When the chain loops back on a name
// already seen, only class is returned.
func (idx *Index) SuperChain(class string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.superChain(class)
}

func (idx *Index) superChain(class string) []string {
	if class == "" {
		return nil
	}

	visited := make(map[string]bool)

	var chain []string

	for name := class; name != ""; {
		if visited[name] {
			return []string{class}
		}

		visited[name] = true
		chain = append(chain, name)

		list := idx.classes[name]
		if len(list) == 0 {
			break
		}

		name = list[0].Super
	}

	return chain
}

// FindMember returns the first member called name of class or its supertypes.
func (idx *Index) FindMember(class, name string) (*MemberEntry, bool) {
	var found *MemberEntry

	idx.ProcessMembers(class, func(m *MemberEntry) bool {
		if m.Name == name {
			found = m

			return false
		}

		return true
	})

	return found, found != nil
}

// FindGlobal returns the declarations of the named global.
func (idx *Index) FindGlobal(name string) []*GlobalEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return slices.Clone(idx.globals[name])
}

// ProcessGlobals calls fn with every global name in sorted order until fn returns false.
func (idx *Index) ProcessGlobals(fn func(name string) bool) {
	idx.mu.RLock()
	names := make([]string, 0, len(idx.globals))

	for name := range idx.globals {
		names = append(names, name)
	}
	idx.mu.RUnlock()

	slices.Sort(names)

	for _, name := range names {
		if !fn(name) {
			return
		}
	}
}
