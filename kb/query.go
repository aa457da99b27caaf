// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kb

import (
	"github.com/lnhutnam/amie/rules"
)

// CountPairs returns the number of distinct (x, y) bindings for which the
// conjunction of atoms has at least one solution. x and y must be variable
// ids appearing in the atoms.
func (st *Store) CountPairs(x, y int32, atoms []rules.Atom) int {
	seen := make(map[uint64]struct{})
	binding := make(map[int32]int32, 4)
	st.enumerate(atoms, binding, func(b map[int32]int32) bool {
		seen[pack(b[x], b[y])] = struct{}{}
		return true
	})
	return len(seen)
}

// CountValues returns the number of distinct bindings of the single variable
// v for which the conjunction has a solution.
func (st *Store) CountValues(v int32, atoms []rules.Atom) int {
	seen := make(map[int32]struct{})
	binding := make(map[int32]int32, 4)
	st.enumerate(atoms, binding, func(b map[int32]int32) bool {
		seen[b[v]] = struct{}{}
		return true
	})
	return len(seen)
}

// DistinctValues returns the distinct bindings of v over all solutions of the
// conjunction. The order of the result is unspecified.
func (st *Store) DistinctValues(v int32, atoms []rules.Atom) []int32 {
	seen := make(map[int32]struct{})
	binding := make(map[int32]int32, 4)
	st.enumerate(atoms, binding, func(b map[int32]int32) bool {
		seen[b[v]] = struct{}{}
		return true
	})
	out := make([]int32, 0, len(seen))
	for val := range seen {
		out = append(out, val)
	}
	return out
}

// ExistsSolution reports whether the conjunction has at least one solution.
func (st *Store) ExistsSolution(atoms []rules.Atom) bool {
	found := false
	binding := make(map[int32]int32, 4)
	st.enumerate(atoms, binding, func(map[int32]int32) bool {
		found = true
		return false
	})
	return found
}

// enumerate backtracks over all solutions of the conjunction, calling emit
// with the complete binding for each one. The binding passed to emit is
// reused between calls; emit must not retain it. Returning false from emit
// cuts the whole search. enumerate returns false iff the search was cut.
func (st *Store) enumerate(atoms []rules.Atom, binding map[int32]int32, emit func(map[int32]int32) bool) bool {
	if len(atoms) == 0 {
		return emit(binding)
	}
	i := st.chooseAtom(atoms, binding)
	a := atoms[i]
	rest := make([]rules.Atom, 0, len(atoms)-1)
	rest = append(rest, atoms[:i]...)
	rest = append(rest, atoms[i+1:]...)
	return st.matchAtom(a, binding, func() bool {
		return st.enumerate(rest, binding, emit)
	})
}

// chooseAtom picks the most constrained atom to evaluate next: the one with
// the most argument positions that are constants or already-bound variables.
func (st *Store) chooseAtom(atoms []rules.Atom, binding map[int32]int32) int {
	best, bestScore := 0, -1
	for i, a := range atoms {
		score := 0
		if _, bound := st.resolve(a.Subject, binding); bound {
			score++
		}
		if _, bound := st.resolve(a.Object, binding); bound {
			score++
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// resolve returns the concrete value of an argument position, if any.
func (st *Store) resolve(id int32, binding map[int32]int32) (int32, bool) {
	if !rules.IsVariable(id) {
		return id, true
	}
	val, ok := binding[id]
	return val, ok
}

// matchAtom iterates over the facts matching the atom under the current
// binding, extending the binding for the duration of each callback. Returning
// false from each cuts the iteration; matchAtom then returns false.
func (st *Store) matchAtom(a rules.Atom, binding map[int32]int32, each func() bool) bool {
	subj, subjBound := st.resolve(a.Subject, binding)
	obj, objBound := st.resolve(a.Object, binding)

	// with temporarily binds var to val around each().
	with := func(vals ...int32) bool {
		// vals come in (var, val) pairs
		for i := 0; i < len(vals); i += 2 {
			binding[vals[i]] = vals[i+1]
		}
		cont := each()
		for i := 0; i < len(vals); i += 2 {
			delete(binding, vals[i])
		}
		return cont
	}

	switch {
	case subjBound && objBound:
		if st.Contains(subj, a.Relation, obj) {
			return each()
		}
		return true

	case subjBound:
		// the object here is an unbound variable, distinct from the subject
		// (a shared variable would have resolved above)
		for _, o := range st.ObjectsOf(a.Relation, subj) {
			if !with(a.Object, o) {
				return false
			}
		}
		return true

	case objBound:
		for _, s := range st.SubjectsOf(a.Relation, obj) {
			if !with(a.Subject, s) {
				return false
			}
		}
		return true

	default:
		rel := st.relations[a.Relation]
		if rel == nil {
			return true
		}
		for s, objects := range rel.subjects {
			for _, o := range objects {
				if a.Subject == a.Object {
					if s != o {
						continue
					}
					if !with(a.Subject, s) {
						return false
					}
					continue
				}
				if !with(a.Subject, s, a.Object, o) {
					return false
				}
			}
		}
		return true
	}
}
