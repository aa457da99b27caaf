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

package mining

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnhutnam/amie/rules"
)

// testRules returns n structurally distinct rules.
func testRules(n int) []*rules.Rule {
	out := make([]*rules.Rule, n)
	for i := range out {
		out[i] = rules.NewSeed(int32(i+1), 100)
	}
	return out
}

func Test_Queue_fifo(t *testing.T) {
	seeds := testRules(3)
	q := NewQueue(seeds, 1)
	for i := 0; i < 3; i++ {
		r, ok := q.Dequeue()
		require.True(t, ok)
		assert.Same(t, seeds[i], r)
	}
	// queue is now empty and this is the only worker: quiescence
	_, ok := q.Dequeue()
	assert.False(t, ok)
	q.DecrementActiveWorkers()
	assert.Equal(t, int64(3), q.Stats().Dequeues)
	assert.Equal(t, 3, q.Stats().PeakDepth)
}

func Test_Queue_deduplicates(t *testing.T) {
	head := rules.Atom{Subject: -1, Relation: 1, Object: -2}
	r1 := rules.NewRule(head, []rules.Atom{
		{Subject: -1, Relation: 2, Object: -3},
		{Subject: -3, Relation: 3, Object: -2},
	})
	// the same pattern derived in the opposite order
	r2 := rules.NewRule(head, []rules.Atom{
		{Subject: -4, Relation: 3, Object: -2},
		{Subject: -1, Relation: 2, Object: -4},
	})
	q := NewQueue([]*rules.Rule{r1}, 1)
	q.EnqueueAll([]*rules.Rule{r2})
	assert.Equal(t, int64(1), q.Stats().Enqueues)
	assert.Equal(t, int64(1), q.Stats().DuplicatesDropped)

	// the pattern stays suppressed even after r1 was dequeued: another
	// worker may already be evaluating it
	_, ok := q.Dequeue()
	require.True(t, ok)
	q.EnqueueAll([]*rules.Rule{r2})
	assert.Equal(t, int64(1), q.Stats().Enqueues)
	assert.Equal(t, int64(2), q.Stats().DuplicatesDropped)
}

func Test_Queue_enqueueAfterQuiescencePanics(t *testing.T) {
	q := NewQueue(nil, 1)
	_, ok := q.Dequeue()
	require.False(t, ok)
	q.DecrementActiveWorkers()
	assert.Panics(t, func() { q.EnqueueAll(testRules(1)) })
}

// Test_Queue_quiescence runs a pool of workers that are both producers and
// consumers: every dequeued rule under the depth limit enqueues two children.
// The test passes when every worker observes termination and the number of
// processed rules matches the full tree.
func Test_Queue_quiescence(t *testing.T) {
	const nWorkers = 8
	const depth = 6
	var nextRelation atomic.Int32
	nextRelation.Store(1024)

	seeds := testRules(4)
	q := NewQueue(seeds, nWorkers)

	var processed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < nWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				r, ok := q.Dequeue()
				if !ok {
					q.DecrementActiveWorkers()
					return
				}
				processed.Add(1)
				if r.Length() <= depth {
					children := []*rules.Rule{
						r.WithBodyAtom(rules.Atom{Subject: -1, Relation: nextRelation.Add(1), Object: -2}, true),
						r.WithBodyAtom(rules.Atom{Subject: -1, Relation: nextRelation.Add(1), Object: -2}, true),
					}
					q.EnqueueAll(children)
				}
			}
		}()
	}
	wg.Wait()

	// 4 binary trees of height depth+1: 4 * (2^(depth+1) - 1)
	expected := int64(4 * (1<<(depth+1) - 1))
	assert.Equal(t, expected, processed.Load())
	assert.Equal(t, expected, q.Stats().Dequeues)
	assert.Equal(t, int64(0), q.Stats().DuplicatesDropped)
}
