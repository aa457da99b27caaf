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

// Package assistant defines the strategy interface the mining engine drives:
// seed generation, refinement operators, statistical evaluation against the
// knowledge base, and the language bias. The engine itself never queries the
// KB; everything KB-touching goes through an Assistant.
package assistant

import (
	"github.com/lnhutnam/amie/rules"
)

// Operator keys in the map returned by ApplyOperators. The engine only
// special-cases OpDangling; other keys are treated uniformly.
const (
	// OpDangling children add an atom introducing a new free variable.
	OpDangling = "dangling"
	// OpClosing children add an atom between two existing variables.
	OpClosing = "closing"
	// OpInstantiation children add an atom binding one position to a
	// constant.
	OpInstantiation = "instantiation"
)

// A ParentIndex looks up already-published rules by their
// alternative-parent hash. It is implemented by the engine's result store;
// methods are only called while the engine holds the result-store lock.
type ParentIndex interface {
	// ByHash returns the published rules with the given
	// AlternativeParentHash. The returned slice must not be modified.
	ByHash(hash uint64) []*rules.Rule
}

// An Assistant implements the mining operators and rule evaluation for one
// knowledge base. Implementations must be safe for concurrent use by the
// worker pool.
type Assistant interface {
	// InitialAtoms returns one seed rule per relation whose size is at least
	// minSupport.
	InitialAtoms(minSupport int) []*rules.Rule

	// InitialAtomsFromSeeds is InitialAtoms restricted to the given head
	// relations.
	InitialAtomsFromSeeds(seeds []int32, minSupport int) []*rules.Rule

	// ShouldOutput reports whether the rule's shape is eligible for output:
	// closed, connected, and conforming to the configured language bias.
	ShouldOutput(r *rules.Rule) bool

	// ComputeConfidenceBounds fills in the rule's confidence upper-bound
	// approximations and reports whether they leave the thresholds
	// reachable.
	ComputeConfidenceBounds(r *rules.Rule) bool

	// ComputeConfidenceMetrics fills in the rule's exact body counts and
	// confidences.
	ComputeConfidenceMetrics(r *rules.Rule)

	// TestConfidenceThresholds applies the confidence thresholds and the
	// skyline test against the rule's attached parents.
	TestConfidenceThresholds(r *rules.Rule) bool

	// SetAdditionalParents attaches the rule's already-published ancestors,
	// found through the index. Called under the result-store lock.
	SetAdditionalParents(r *rules.Rule, index ParentIndex)

	// ApplyOperators runs the refinement operators on the rule. Children
	// whose support falls below countThreshold are not returned. The result
	// maps operator keys to child collections; OpDangling is reserved.
	ApplyOperators(r *rules.Rule, countThreshold float64) (map[string][]*rules.Rule, error)

	// HeadCardinality returns the size of the rule's head relation.
	HeadCardinality(r *rules.Rule) int

	// PerfectRulesEnabled reports whether perfect rules stop refinement.
	PerfectRulesEnabled() bool

	// MaxDepth returns the bound on a rule's real length.
	MaxDepth() int

	// Verbose reports whether per-rule decisions should be logged.
	Verbose() bool

	// Format renders a rule for the output sink.
	Format(r *rules.Rule) string

	// Header returns the line written to the sink before any rule.
	Header() string
}
