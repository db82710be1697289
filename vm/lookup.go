package vm

// ---------------------------------------------------------------------------
// Multiple inheritance lookup
// ---------------------------------------------------------------------------

// Hierarchy describes a class graph for method lookup. The interpreter uses
// it over *Class and *NativeClass; the type checker uses it over its Types,
// so both passes resolve members by the same rule.
type Hierarchy[C any, M any] struct {
	// Own returns a member declared directly on c.
	Own func(c C, name string) (M, bool)
	// Supers returns c's immediate superclasses in declaration order.
	Supers func(c C) []C
	// Name names c in ambiguity errors.
	Name func(c C) string
}

// Lookup finds name on c. Own members win. Otherwise each immediate
// superclass is searched and the branch with the nearest declaration wins;
// two branches reaching a declaration at the same depth are ambiguous, even
// when both reach the same ancestor.
func (h Hierarchy[C, M]) Lookup(c C, name string) (M, bool, error) {
	m, _, ok, err := h.lookup(c, name)
	return m, ok, err
}

// LookupSupers searches only the given superclasses, never c itself. It backs
// super.method().
func (h Hierarchy[C, M]) LookupSupers(supers []C, name string) (M, bool, error) {
	m, _, ok, err := h.lookupBranches(supers, name)
	return m, ok, err
}

func (h Hierarchy[C, M]) lookup(c C, name string) (M, int, bool, error) {
	if m, ok := h.Own(c, name); ok {
		return m, 0, true, nil
	}
	m, depth, ok, err := h.lookupBranches(h.Supers(c), name)
	return m, depth, ok, err
}

// lookupBranches returns the winning member and its depth counted from the
// class that owns the branch list.
func (h Hierarchy[C, M]) lookupBranches(branches []C, name string) (M, int, bool, error) {
	var (
		best     M
		bestAt   = -1
		tiedWith []string
	)
	for _, branch := range branches {
		m, depth, ok, err := h.lookup(branch, name)
		if err != nil {
			var zero M
			return zero, 0, false, err
		}
		if !ok {
			continue
		}
		switch {
		case bestAt < 0 || depth < bestAt:
			best, bestAt = m, depth
			tiedWith = []string{h.Name(branch)}
		case depth == bestAt:
			tiedWith = append(tiedWith, h.Name(branch))
		}
	}
	if bestAt < 0 {
		var zero M
		return zero, 0, false, nil
	}
	if len(tiedWith) > 1 {
		var zero M
		return zero, 0, false, &AmbiguityError{Name: name, Branches: tiedWith}
	}
	return best, bestAt + 1, true, nil
}
