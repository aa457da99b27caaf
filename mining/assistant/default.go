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

package assistant

import (
	"sort"

	"github.com/lnhutnam/amie/config"
	"github.com/lnhutnam/amie/kb"
	"github.com/lnhutnam/amie/rules"
	"github.com/lnhutnam/amie/util/cmp"
)

// Default is the standard mining assistant: support counted on both head
// variables, dangling/closing/instantiation operators, and the closed-rule
// language bias.
type Default struct {
	store     *kb.Store
	formatter rules.Formatter
	counts    *countCache

	minStdConfidence      float64
	minPCAConfidence      float64
	maxDepth              int
	allowConstants        bool
	enforceConstants      bool
	avoidUnboundTypeAtoms bool
	recursivityLimit      int
	skyline               bool
	perfectRules          bool
	upperBounds           bool
	verbose               bool
}

var _ Assistant = (*Default)(nil)

// NewDefault builds the default assistant for the given store, configured by
// cfg. cfg must already be validated.
func NewDefault(store *kb.Store, cfg *config.Mining) (*Default, error) {
	counts, err := newCountCache()
	if err != nil {
		return nil, err
	}
	return &Default{
		store:                 store,
		formatter:             rules.Formatter{Namer: store.Dictionary()},
		counts:                counts,
		minStdConfidence:      cfg.MinStdConfidence,
		minPCAConfidence:      cfg.MinPCAConfidence,
		maxDepth:              cfg.MaxDepth,
		allowConstants:        cfg.AllowConstants,
		enforceConstants:      cfg.EnforceConstants,
		avoidUnboundTypeAtoms: cfg.AvoidUnboundTypeAtoms == nil || *cfg.AvoidUnboundTypeAtoms,
		recursivityLimit:      cfg.RecursivityLimit,
		skyline:               cfg.Skyline == nil || *cfg.Skyline,
		perfectRules:          cfg.PerfectRulePruning == nil || *cfg.PerfectRulePruning,
		upperBounds:           cfg.UpperBoundPruning,
		verbose:               cfg.Verbose,
	}, nil
}

// Close releases the assistant's count cache. The assistant must not be used
// afterwards.
func (d *Default) Close() {
	d.counts.close()
}

// InitialAtoms implements the method from Assistant.
func (d *Default) InitialAtoms(minSupport int) []*rules.Rule {
	return d.InitialAtomsFromSeeds(d.store.Relations(), minSupport)
}

// InitialAtomsFromSeeds implements the method from Assistant.
func (d *Default) InitialAtomsFromSeeds(seeds []int32, minSupport int) []*rules.Rule {
	out := make([]*rules.Rule, 0, len(seeds))
	for _, relation := range seeds {
		size := d.store.RelationSize(relation)
		if size >= minSupport {
			out = append(out, rules.NewSeed(relation, size))
		}
	}
	return out
}

// ShouldOutput implements the method from Assistant. A rule is
// shape-eligible when it has a body, is closed, and passes the language
// bias.
func (d *Default) ShouldOutput(r *rules.Rule) bool {
	if r.Length() < 2 || !r.IsClosed() {
		return false
	}
	if d.avoidUnboundTypeAtoms && d.hasUnboundTypeAtom(r) {
		return false
	}
	if d.enforceConstants && !r.HasConstantArg() {
		return false
	}
	return true
}

func (d *Default) hasUnboundTypeAtom(r *rules.Rule) bool {
	typeRel := d.store.TypeRelation()
	if typeRel == 0 {
		return false
	}
	for _, a := range r.Atoms() {
		if a.Relation == typeRel && rules.IsVariable(a.Object) {
			return true
		}
	}
	return false
}

// ComputeConfidenceBounds implements the method from Assistant. For length-2
// closed rules the overlap tables yield a cheap bound on each confidence; the
// rule is worth the exact computation only if the bounds leave the thresholds
// reachable. Longer rules always pass with trivial bounds.
func (d *Default) ComputeConfidenceBounds(r *rules.Rule) bool {
	r.StdUpperBound, r.PCAUpperBound = 1.0, 1.0
	if !d.upperBounds || !d.store.HasOverlapTables() {
		return true
	}
	body := r.Body()
	if len(body) != 1 {
		return true
	}
	head, b := r.Head(), body[0]
	bodySize := d.store.RelationSize(b.Relation)
	if bodySize == 0 {
		return false
	}
	// the join overlap on the head's functional argument bounds the PCA
	// denominator from below
	var joinOverlap int
	countOnSubject := d.store.Functionality(head.Relation) >= d.store.InverseFunctionality(head.Relation)
	switch {
	case b.Subject == head.Subject && b.Object == head.Object:
		if countOnSubject {
			joinOverlap = d.store.Overlap(head.Relation, b.Relation, kb.SubjectSubject)
		} else {
			joinOverlap = d.store.Overlap(head.Relation, b.Relation, kb.ObjectObject)
		}
	case b.Subject == head.Object && b.Object == head.Subject:
		if countOnSubject {
			joinOverlap = d.store.Overlap(head.Relation, b.Relation, kb.SubjectObject)
		} else {
			joinOverlap = d.store.Overlap(b.Relation, head.Relation, kb.SubjectObject)
		}
	default:
		return true
	}
	r.StdUpperBound = float64(r.Support) / float64(bodySize)
	if joinOverlap > 0 {
		r.PCAUpperBound = cmp.MinFloat64(1.0, float64(r.Support)/float64(joinOverlap))
	}
	return r.StdUpperBound >= d.minStdConfidence && r.PCAUpperBound >= d.minPCAConfidence
}

// ComputeConfidenceMetrics implements the method from Assistant.
func (d *Default) ComputeConfidenceMetrics(r *rules.Rule) {
	head := r.Head()
	x, y := head.Subject, head.Object
	body := r.Body()

	r.BodyCardinality = d.counts.pairs(d.store, x, y, body)
	if r.BodyCardinality > 0 {
		r.StdConfidence = float64(r.Support) / float64(r.BodyCardinality)
	}

	// Under the partial completeness assumption the head's non-functional
	// argument is rewritten existentially.
	pcaHead := head
	if d.store.Functionality(head.Relation) >= d.store.InverseFunctionality(head.Relation) {
		r.FunctionalVariable = head.Subject
		pcaHead.Object = r.FreshVariable()
	} else {
		r.FunctionalVariable = head.Object
		pcaHead.Subject = r.FreshVariable()
	}
	pcaAtoms := make([]rules.Atom, 0, len(body)+1)
	pcaAtoms = append(pcaAtoms, body...)
	pcaAtoms = append(pcaAtoms, pcaHead)
	r.PCABodyCardinality = d.counts.pairs(d.store, x, y, pcaAtoms)
	if r.PCABodyCardinality > 0 {
		r.PCAConfidence = float64(r.Support) / float64(r.PCABodyCardinality)
	}

	if r.BodyCardinality > 0 && r.Support == r.BodyCardinality {
		r.Perfect = true
	}
}

// TestConfidenceThresholds implements the method from Assistant.
func (d *Default) TestConfidenceThresholds(r *rules.Rule) bool {
	if r.Perfect {
		return true
	}
	if r.StdConfidence < d.minStdConfidence {
		return false
	}
	if r.PCAConfidence < d.minPCAConfidence {
		return false
	}
	if d.skyline {
		for _, p := range r.Parents {
			if r.StdConfidence <= p.StdConfidence && r.PCAConfidence <= p.PCAConfidence {
				return false
			}
		}
	}
	return true
}

// SetAdditionalParents implements the method from Assistant. It probes the
// index with the hashes of every one-atom generalization of r and attaches
// the published rules that can actually derive r.
func (d *Default) SetAdditionalParents(r *rules.Rule, index ParentIndex) {
	for _, h := range r.ParentHashes() {
		for _, candidate := range index.ByHash(h) {
			if candidate.CanBeParentOf(r) && !containsRule(r.Parents, candidate) {
				r.Parents = append(r.Parents, candidate)
			}
		}
	}
}

func containsRule(set []*rules.Rule, r *rules.Rule) bool {
	for _, x := range set {
		if x == r {
			return true
		}
	}
	return false
}

// ApplyOperators implements the method from Assistant.
func (d *Default) ApplyOperators(r *rules.Rule, countThreshold float64) (map[string][]*rules.Rule, error) {
	out := make(map[string][]*rules.Rule, 3)
	if r.Final {
		return out, nil
	}
	relations := d.store.Relations()
	vars := r.Variables()
	typeRel := d.store.TypeRelation()

	addChild := func(op string, atom rules.Atom) *rules.Rule {
		if r.ContainsAtom(atom) {
			return nil
		}
		countsTowardDepth := !(atom.Relation == typeRel && typeRel != 0 && !rules.IsVariable(atom.Object))
		child := r.WithBodyAtom(atom, countsTowardDepth)
		support := d.counts.pairs(d.store, child.Head().Subject, child.Head().Object, child.Atoms())
		if float64(support) < countThreshold || support == 0 {
			return nil
		}
		child.Support = support
		child.Final = d.isFinal(child)
		out[op] = append(out[op], child)
		return child
	}

	for _, relation := range relations {
		if r.RelationCount(relation) >= d.recursivityLimit {
			continue
		}

		// closing: an edge between two existing variables
		for _, v1 := range vars {
			for _, v2 := range vars {
				if v1 == v2 {
					continue
				}
				addChild(OpClosing, rules.Atom{Subject: v1, Relation: relation, Object: v2})
			}
		}

		// dangling: an edge from an existing variable to a fresh one
		fresh := r.FreshVariable()
		for _, v := range vars {
			addChild(OpDangling, rules.Atom{Subject: v, Relation: relation, Object: fresh})
			addChild(OpDangling, rules.Atom{Subject: fresh, Relation: relation, Object: v})
		}

		// instantiation: an edge from an existing variable to a constant
		if d.allowConstants {
			d.instantiate(r, relation, vars, countThreshold, addChild)
		}
	}
	return out, nil
}

// isFinal reports whether no refinement step can ever extend the rule: its
// real length has reached the depth bound, or the recursivity limit already
// exhausts every relation in the store. Final rules are never handed back to
// the operators.
func (d *Default) isFinal(r *rules.Rule) bool {
	if r.RealLength() >= d.maxDepth {
		return true
	}
	for _, relation := range d.store.Relations() {
		if r.RelationCount(relation) < d.recursivityLimit {
			return false
		}
	}
	return true
}

// instantiate generates children binding one argument of a new atom to each
// constant with enough support.
func (d *Default) instantiate(r *rules.Rule, relation int32, vars []int32,
	countThreshold float64, addChild func(string, rules.Atom) *rules.Rule) {

	fresh := r.FreshVariable()
	for _, v := range vars {
		for _, subjectSide := range []bool{true, false} {
			probe := rules.Atom{Subject: v, Relation: relation, Object: fresh}
			if subjectSide {
				probe = rules.Atom{Subject: fresh, Relation: relation, Object: v}
			}
			conj := make([]rules.Atom, 0, r.Length()+1)
			conj = append(conj, r.Atoms()...)
			conj = append(conj, probe)
			constants := d.store.DistinctValues(fresh, conj)
			sort.Slice(constants, func(i, j int) bool { return constants[i] < constants[j] })
			for _, c := range constants {
				atom := probe
				if subjectSide {
					atom.Subject = c
				} else {
					atom.Object = c
				}
				addChild(OpInstantiation, atom)
			}
		}
	}
}

// HeadCardinality implements the method from Assistant.
func (d *Default) HeadCardinality(r *rules.Rule) int {
	return r.HeadCardinality
}

// PerfectRulesEnabled implements the method from Assistant.
func (d *Default) PerfectRulesEnabled() bool {
	return d.perfectRules
}

// MaxDepth implements the method from Assistant.
func (d *Default) MaxDepth() int {
	return d.maxDepth
}

// Verbose implements the method from Assistant.
func (d *Default) Verbose() bool {
	return d.verbose
}

// Format implements the method from Assistant.
func (d *Default) Format(r *rules.Rule) string {
	return d.formatter.Format(r)
}

// Header implements the method from Assistant.
func (d *Default) Header() string {
	return d.formatter.Header()
}
