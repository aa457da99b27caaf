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
	"context"
	"sync"

	"github.com/lnhutnam/amie/util/parallel"
)

// OverlapKind selects which argument positions an overlap count intersects.
type OverlapKind uint8

const (
	// SubjectSubject counts |subjects(a) ∩ subjects(b)|.
	SubjectSubject OverlapKind = iota
	// SubjectObject counts |subjects(a) ∩ objects(b)|. Note the asymmetry:
	// SubjectObject(a, b) differs from SubjectObject(b, a).
	SubjectObject
	// ObjectObject counts |objects(a) ∩ objects(b)|.
	ObjectObject
)

type overlapKey struct {
	a, b int32
	kind OverlapKind
}

// BuildOverlapTables precomputes, for every pair of relations, how many
// entities their argument positions share. The tables feed the confidence
// upper-bound approximations. Rows are computed concurrently with nWorkers
// workers.
func (st *Store) BuildOverlapTables(ctx context.Context, nWorkers int) error {
	ids := st.Relations()
	rows := make([]map[overlapKey]int, len(ids))
	var mutex sync.Mutex
	next := 0
	err := parallel.InvokeN(ctx, nWorkers, func(ctx context.Context, _ int) error {
		for {
			mutex.Lock()
			i := next
			next++
			mutex.Unlock()
			if i >= len(ids) {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[i] = st.overlapRow(ids[i], ids)
		}
	})
	if err != nil {
		return err
	}
	merged := make(map[overlapKey]int)
	for _, row := range rows {
		for k, v := range row {
			merged[k] = v
		}
	}
	st.overlaps = merged
	return nil
}

// overlapRow computes all overlap entries with relation a in first position.
func (st *Store) overlapRow(a int32, ids []int32) map[overlapKey]int {
	row := make(map[overlapKey]int, 3*len(ids))
	aSubjects := st.relations[a].subjects
	aObjects := st.relations[a].objects
	for _, b := range ids {
		bRel := st.relations[b]
		row[overlapKey{a, b, SubjectSubject}] = intersectionSize(aSubjects, bRel.subjects)
		row[overlapKey{a, b, SubjectObject}] = intersectionSize(aSubjects, bRel.objects)
		row[overlapKey{a, b, ObjectObject}] = intersectionSize(aObjects, bRel.objects)
	}
	return row
}

func intersectionSize(a, b map[int32][]int32) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

// HasOverlapTables reports whether BuildOverlapTables has run.
func (st *Store) HasOverlapTables() bool {
	return st.overlaps != nil
}

// Overlap returns the precomputed overlap count for a pair of relations. It
// returns 0 for relations unseen when the tables were built. It panics if the
// tables were never built; callers gate on HasOverlapTables.
func (st *Store) Overlap(a, b int32, kind OverlapKind) int {
	if st.overlaps == nil {
		panic("Programmer error: kb.Overlap called before BuildOverlapTables")
	}
	return st.overlaps[overlapKey{a, b, kind}]
}
