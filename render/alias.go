package render

import "strconv"

// AliasManager assigns deterministic aliases (t1, t2, ...) to unaliased
// sources at render time. The counter is monotonic and global to one
// Context: it is never reset when a scope is popped, so subqueries that
// reach back into an outer source never collide with, or redundantly
// re-alias, a source that already has one.
type AliasManager struct {
	scopes  []map[any]string
	counter int
}

// NewAliasManager returns a manager with a single root scope pushed.
func NewAliasManager() *AliasManager {
	m := &AliasManager{}
	m.Push()
	return m
}

// Push opens a new lookup scope, typically entered when rendering a
// subquery so its sources are preferred-searched before outer ones.
func (m *AliasManager) Push() {
	m.scopes = append(m.scopes, make(map[any]string))
}

// Pop discards the innermost scope. It does not reset the counter.
func (m *AliasManager) Pop() {
	if len(m.scopes) == 0 {
		return
	}
	m.scopes = m.scopes[:len(m.scopes)-1]
}

// Depth reports the current scope stack depth, for save/restore across
// subquery rendering.
func (m *AliasManager) Depth() int {
	return len(m.scopes)
}

// TruncateTo restores the stack to a previously observed depth.
func (m *AliasManager) TruncateTo(depth int) {
	if depth < 0 {
		depth = 0
	}
	if depth > len(m.scopes) {
		return
	}
	m.scopes = m.scopes[:depth]
}

// Get looks up any existing alias for source, searching from the
// innermost scope outward when anyDepth is true (the default for
// ordinary rendering); searching only the innermost scope otherwise.
func (m *AliasManager) Get(source any, anyDepth bool) (string, bool) {
	if len(m.scopes) == 0 {
		return "", false
	}
	if !anyDepth {
		alias, ok := m.scopes[len(m.scopes)-1][source]
		return alias, ok
	}
	for i := len(m.scopes) - 1; i >= 0; i-- {
		if alias, ok := m.scopes[i][source]; ok {
			return alias, true
		}
	}
	return "", false
}

// Add assigns a fresh alias to source in the innermost scope if it does
// not already have one anywhere in the stack, and returns the alias
// either way.
func (m *AliasManager) Add(source any) string {
	if alias, ok := m.Get(source, true); ok {
		return alias
	}
	m.counter++
	alias := aliasName(m.counter)
	if len(m.scopes) == 0 {
		m.Push()
	}
	m.scopes[len(m.scopes)-1][source] = alias
	return alias
}

func aliasName(n int) string {
	return "t" + strconv.Itoa(n)
}
