package vars

import "sort"

// Table maps variable names to values for a single run. Entries are only
// ever added or assigned, never removed.
type Table struct {
	entries map[string]*Variable
	order   []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*Variable)}
}

// Declare adds name as an unset input variable. It reports whether the
// name was new.
func (t *Table) Declare(name string) bool {
	if _, ok := t.entries[name]; ok {
		return false
	}
	t.entries[name] = &Variable{Name: name, Kind: KindInput}
	t.order = append(t.order, name)
	return true
}

// Set assigns a value, declaring the name if needed.
func (t *Table) Set(name string, v Value) {
	t.Declare(name)
	t.entries[name].Value = v
}

// SetKind records how name should be prompted for.
func (t *Table) SetKind(name string, k Kind) {
	t.Declare(name)
	t.entries[name].Kind = k
}

// Get returns the value for name. The boolean is false for unknown names.
func (t *Table) Get(name string) (Value, bool) {
	e, ok := t.entries[name]
	if !ok {
		return Value{}, false
	}
	return e.Value, true
}

// Lookup returns the full entry for name.
func (t *Table) Lookup(name string) (Variable, bool) {
	e, ok := t.entries[name]
	if !ok {
		return Variable{}, false
	}
	return *e, true
}

// Has reports whether name is known to the table, set or not.
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// IsSet reports whether name is known and assigned.
func (t *Table) IsSet(name string) bool {
	e, ok := t.entries[name]
	return ok && e.Value.IsSet()
}

// Names returns every known name in first-seen order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Unresolved returns the names that are still unset, in first-seen order.
func (t *Table) Unresolved() []string {
	var out []string
	for _, name := range t.order {
		if !t.entries[name].Value.IsSet() {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of known names.
func (t *Table) Len() int { return len(t.order) }

// Snapshot returns the assigned values as plain Go values, keyed by name.
// Unset names are omitted.
func (t *Table) Snapshot() map[string]any {
	out := make(map[string]any, len(t.entries))
	for name, e := range t.entries {
		if e.Value.IsSet() {
			out[name] = e.Value.Any()
		}
	}
	return out
}

// Strings returns the assigned values in their display form.
func (t *Table) Strings() map[string]string {
	out := make(map[string]string, len(t.entries))
	for name, e := range t.entries {
		if e.Value.IsSet() {
			out[name] = e.Value.String()
		}
	}
	return out
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := NewTable()
	for _, name := range t.order {
		e := *t.entries[name]
		c.entries[name] = &e
		c.order = append(c.order, name)
	}
	return c
}

// SortedNames returns every known name in alphabetical order.
func (t *Table) SortedNames() []string {
	out := t.Names()
	sort.Strings(out)
	return out
}
