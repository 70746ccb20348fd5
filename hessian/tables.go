package hessian

// refTable is the value back-reference table. Composites take ids in the
// order their headers resolve; only the count is needed to validate a ref.
type refTable struct {
	n int
}

// alloc registers a composite and returns its id.
func (t *refTable) alloc() int {
	t.n++
	return t.n - 1
}

func (t *refTable) has(id int) bool {
	return id >= 0 && id < t.n
}

func (t *refTable) len() int {
	return t.n
}

func (t *refTable) reset() {
	t.n = 0
}

// defTable is the object definition table.
type defTable struct {
	defs []Definition
}

// add registers a definition and returns its id.
func (t *defTable) add(typeName string, fields []string) Definition {
	def := Definition{ID: len(t.defs), Type: typeName, Fields: fields}
	t.defs = append(t.defs, def)
	return def
}

func (t *defTable) get(id int) (Definition, bool) {
	if id < 0 || id >= len(t.defs) {
		return Definition{}, false
	}
	return t.defs[id], true
}

func (t *defTable) len() int {
	return len(t.defs)
}

func (t *defTable) reset() {
	t.defs = t.defs[:0]
}

// snapshot returns a copy safe to retain after the table is reset.
func (t *defTable) snapshot() []Definition {
	out := make([]Definition, len(t.defs))
	copy(out, t.defs)
	return out
}
