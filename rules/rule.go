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

package rules

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// A Rule is a Horn clause: a single head atom implied by a conjunction of body
// atoms. Rules are built by the refinement operators one atom at a time. A
// rule is mutable only by the worker that owns it; once published to the
// result store it must be treated as immutable.
type Rule struct {
	// atoms[0] is the head, the remainder the body.
	atoms []Atom

	// realLength counts the head plus the body atoms that participate in
	// depth gating (type atoms with a constant object do not).
	realLength int

	// lowestVar is the most negative variable id in use; fresh variables
	// continue downward from it.
	lowestVar int32

	// Support is the number of distinct head-variable instantiations
	// witnessed by the body and present in the KB.
	Support int

	// HeadCardinality is the total number of facts of the head relation.
	HeadCardinality int

	// BodyCardinality is the number of distinct head-variable instantiations
	// satisfying the body alone.
	BodyCardinality int

	// PCABodyCardinality is the body count under the partial completeness
	// assumption: the head's non-functional argument is existentially
	// rewritten.
	PCABodyCardinality int

	// StdConfidence is Support / BodyCardinality.
	StdConfidence float64

	// PCAConfidence is Support / PCABodyCardinality.
	PCAConfidence float64

	// StdUpperBound and PCAUpperBound are cheap upper-bound approximations of
	// the two confidences, filled in before the exact values.
	StdUpperBound float64
	PCAUpperBound float64

	// FunctionalVariable is the head variable the PCA denominator counts on.
	FunctionalVariable int32

	// Parents holds the already-published ancestors of this rule, attached
	// under the result-store lock just before the exact confidences are
	// computed. Parents are immutable.
	Parents []*Rule

	// Final marks a rule that no refinement step can improve; it is never
	// handed to the operators again.
	Final bool

	// Perfect marks a rule whose confidence is 1 at its maximal support.
	// Specializations of a perfect rule cannot improve it.
	Perfect bool
}

// NewSeed returns the length-1 rule "relation(?a, ?b) <= true" that roots the
// refinement search for one head relation.
func NewSeed(relation int32, size int) *Rule {
	return &Rule{
		atoms:              []Atom{{Subject: -1, Relation: relation, Object: -2}},
		realLength:         1,
		lowestVar:          -2,
		Support:            size,
		HeadCardinality:    size,
		FunctionalVariable: -1,
	}
}

// NewRule builds a rule directly from a head and body. Every body atom counts
// toward the depth bound; statistics are left zeroed. This is mainly useful to
// tests and tools; the mining search builds rules through NewSeed and
// WithBodyAtom.
func NewRule(head Atom, body []Atom) *Rule {
	atoms := make([]Atom, 0, len(body)+1)
	atoms = append(atoms, head)
	atoms = append(atoms, body...)
	r := &Rule{
		atoms:              atoms,
		realLength:         len(atoms),
		lowestVar:          -1,
		FunctionalVariable: head.Subject,
	}
	for _, a := range atoms {
		for _, id := range []int32{a.Subject, a.Object} {
			if IsVariable(id) && id < r.lowestVar {
				r.lowestVar = id
			}
		}
	}
	return r
}

// Head returns the head atom.
func (r *Rule) Head() Atom {
	return r.atoms[0]
}

// Body returns the body atoms. The returned slice must not be modified.
func (r *Rule) Body() []Atom {
	return r.atoms[1:]
}

// Atoms returns all atoms, head first. The returned slice must not be
// modified.
func (r *Rule) Atoms() []Atom {
	return r.atoms
}

// Length is the number of atoms, head included.
func (r *Rule) Length() int {
	return len(r.atoms)
}

// RealLength is the number of atoms that count toward the depth bound. Type
// atoms with a constant object are excluded.
func (r *Rule) RealLength() int {
	return r.realLength
}

// FreshVariable returns the next unused variable id for this rule.
func (r *Rule) FreshVariable() int32 {
	return r.lowestVar - 1
}

// WithBodyAtom returns a copy of the rule extended by one body atom. The copy
// carries over the head cardinality; all other statistics are left for the
// mining assistant to fill in. countsTowardDepth is false for type atoms with
// a constant object.
func (r *Rule) WithBodyAtom(a Atom, countsTowardDepth bool) *Rule {
	atoms := make([]Atom, len(r.atoms), len(r.atoms)+1)
	copy(atoms, r.atoms)
	atoms = append(atoms, a)
	child := &Rule{
		atoms:              atoms,
		realLength:         r.realLength,
		lowestVar:          r.lowestVar,
		HeadCardinality:    r.HeadCardinality,
		FunctionalVariable: r.FunctionalVariable,
	}
	if countsTowardDepth {
		child.realLength++
	}
	for _, id := range []int32{a.Subject, a.Object} {
		if IsVariable(id) && id < child.lowestVar {
			child.lowestVar = id
		}
	}
	return child
}

// WithInstantiatedVariable returns a copy of the rule with every occurrence of
// the given variable replaced by the given constant.
func (r *Rule) WithInstantiatedVariable(variable, constant int32) *Rule {
	atoms := make([]Atom, len(r.atoms))
	for i, a := range r.atoms {
		if a.Subject == variable {
			a.Subject = constant
		}
		if a.Object == variable {
			a.Object = constant
		}
		atoms[i] = a
	}
	return &Rule{
		atoms:              atoms,
		realLength:         r.realLength,
		lowestVar:          r.lowestVar,
		HeadCardinality:    r.HeadCardinality,
		FunctionalVariable: r.FunctionalVariable,
	}
}

// Variables returns the distinct variables of the rule in order of first
// appearance, head first.
func (r *Rule) Variables() []int32 {
	var vars []int32
	seen := make(map[int32]bool, 4)
	for _, a := range r.atoms {
		for _, id := range []int32{a.Subject, a.Object} {
			if IsVariable(id) && !seen[id] {
				seen[id] = true
				vars = append(vars, id)
			}
		}
	}
	return vars
}

// IsClosed reports whether every variable occurs in at least two atoms.
func (r *Rule) IsClosed() bool {
	counts := make(map[int32]int, 4)
	for _, a := range r.atoms {
		if IsVariable(a.Subject) {
			counts[a.Subject]++
		}
		if IsVariable(a.Object) && a.Object != a.Subject {
			counts[a.Object]++
		}
	}
	for _, n := range counts {
		if n < 2 {
			return false
		}
	}
	return true
}

// HasConstantArg reports whether any atom binds an argument to a constant.
func (r *Rule) HasConstantArg() bool {
	for _, a := range r.atoms {
		if a.HasConstantArg() {
			return true
		}
	}
	return false
}

// ContainsAtom reports whether the rule already carries an identical atom.
func (r *Rule) ContainsAtom(a Atom) bool {
	for _, x := range r.atoms {
		if x == a {
			return true
		}
	}
	return false
}

// RelationCount returns how many atoms of the rule use the given relation.
// The recursivity limit of the language bias is checked against this.
func (r *Rule) RelationCount(relation int32) int {
	n := 0
	for _, a := range r.atoms {
		if a.Relation == relation {
			n++
		}
	}
	return n
}

// HeadCoverage is Support divided by the head relation's size.
func (r *Rule) HeadCoverage() float64 {
	if r.HeadCardinality == 0 {
		return 0
	}
	return float64(r.Support) / float64(r.HeadCardinality)
}

// abstractAtomHash hashes one atom with its variables abstracted away, so the
// value does not depend on the order variables were introduced in.
func abstractAtomHash(a Atom) uint64 {
	h := fnv.New64a()
	var buf [13]byte
	put := func(off int, id int32) {
		if IsVariable(id) {
			buf[off] = 'v'
			// variable identity is erased
		} else {
			buf[off] = 'c'
			buf[off+1] = byte(id)
			buf[off+2] = byte(id >> 8)
			buf[off+3] = byte(id >> 16)
			buf[off+4] = byte(id >> 24)
		}
	}
	put(0, a.Subject)
	buf[5] = byte(a.Relation)
	buf[6] = byte(a.Relation >> 8)
	buf[7] = byte(a.Relation >> 16)
	buf[8] = byte(a.Relation >> 24)
	put(9, a.Object)
	h.Write(buf[:])
	return h.Sum64()
}

func mixHash(head uint64, bodySum uint64, length int) uint64 {
	const prime = 1099511628211
	x := head
	x = x*prime + bodySum
	x = x*prime + uint64(length)
	return x
}

// AlternativeParentHash is a content hash over the head and the unordered
// multiset of body atoms, with variable identities abstracted. Two rules
// produced by different operator orderings but denoting the same logical
// pattern collide. The result store's dedup index is keyed by this value.
func (r *Rule) AlternativeParentHash() uint64 {
	var sum uint64
	for _, a := range r.Body() {
		sum += abstractAtomHash(a)
	}
	return mixHash(abstractAtomHash(r.Head()), sum, len(r.atoms))
}

// ParentHashes returns the AlternativeParentHash values of every rule
// obtainable from this one by removing a single body atom. The result store is
// probed with these to locate published ancestors.
func (r *Rule) ParentHashes() []uint64 {
	body := r.Body()
	if len(body) == 0 {
		return nil
	}
	var sum uint64
	hashes := make([]uint64, len(body))
	for i, a := range body {
		hashes[i] = abstractAtomHash(a)
		sum += hashes[i]
	}
	head := abstractAtomHash(r.Head())
	out := make([]uint64, 0, len(body))
	seen := make(map[uint64]bool, len(body))
	for _, h := range hashes {
		parent := mixHash(head, sum-h, len(r.atoms)-1)
		if !seen[parent] {
			seen[parent] = true
			out = append(out, parent)
		}
	}
	return out
}

// CanBeParentOf reports whether p's body atoms all occur, with variables
// abstracted, among r's body atoms, using each of r's atoms at most once. It
// is the containment check run on hash-bucket candidates when attaching
// published ancestors.
func (p *Rule) CanBeParentOf(r *Rule) bool {
	if p.Head().Relation != r.Head().Relation || p.Length() >= r.Length() {
		return false
	}
	used := make([]bool, len(r.Body()))
outer:
	for _, pa := range p.Body() {
		ph := abstractAtomHash(pa)
		for i, ra := range r.Body() {
			if !used[i] && ph == abstractAtomHash(ra) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// Key implements cmp.Key. It writes a canonical serialization of the rule:
// the head, then the body atoms in a canonical order with variables renamed
// by first appearance in that order. Rules with equal keys are structurally
// equal.
func (r *Rule) Key(b *strings.Builder) {
	body := append([]Atom(nil), r.Body()...)
	sort.SliceStable(body, func(i, j int) bool {
		ki, kj := atomSortKey(body[i]), atomSortKey(body[j])
		return ki < kj
	})
	renames := make(map[int32]int32, 4)
	canon := func(id int32) int32 {
		if !IsVariable(id) {
			return id
		}
		if c, ok := renames[id]; ok {
			return c
		}
		c := int32(-(len(renames) + 1))
		renames[id] = c
		return c
	}
	writeAtom := func(a Atom) {
		a.Subject = canon(a.Subject)
		a.Object = canon(a.Object)
		a.writeTo(b, rawNamer{})
	}
	writeAtom(r.Head())
	b.WriteString(" <= ")
	for i, a := range body {
		if i > 0 {
			b.WriteString("  ")
		}
		writeAtom(a)
	}
}

// atomSortKey orders body atoms for canonicalization. Variable identities are
// excluded so the order does not depend on how a rule was derived.
func atomSortKey(a Atom) string {
	var b strings.Builder
	writeTerm(&b, a.Relation, rawNamer{})
	b.WriteByte('|')
	for _, id := range []int32{a.Subject, a.Object} {
		if IsVariable(id) {
			b.WriteByte('v')
		} else {
			writeTerm(&b, id, rawNamer{})
		}
		b.WriteByte('|')
	}
	return b.String()
}

// rawNamer renders constants by id; used for identity keys, which need to be
// stable but not human-friendly.
type rawNamer struct{}

func (rawNamer) NameFor(id int32) string {
	return "#" + strconv.FormatInt(int64(id), 10)
}

// String renders the rule's canonical key with raw constant ids; it is meant
// for diagnostics, not for the output sink (see Formatter).
func (r *Rule) String() string {
	var b strings.Builder
	r.Key(&b)
	return b.String()
}

// Equal reports structural equality via the canonical key.
func (r *Rule) Equal(other *Rule) bool {
	if r == other {
		return true
	}
	var a, b strings.Builder
	r.Key(&a)
	other.Key(&b)
	return a.String() == b.String()
}
