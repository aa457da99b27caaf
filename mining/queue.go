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

	log "github.com/sirupsen/logrus"

	"github.com/lnhutnam/amie/rules"
	"github.com/lnhutnam/amie/util/cmp"
)

// Queue is the multi-producer/multi-consumer candidate queue driving the
// refinement search. Workers are both its producers and its consumers, so a
// plain "close when the feeder is done" idiom cannot detect termination;
// instead the queue tracks how many workers are still active and how many are
// blocked waiting. When every active worker is waiting on an empty queue, no
// further work can ever arrive and the queue shuts down.
//
// Items are kept in FIFO order, which makes the search breadth-first, and are
// deduplicated against everything enqueued so far: lattice-equivalent
// refinements reached along different operator orderings collapse to one
// entry, and each distinct rule is evaluated at most once.
type Queue struct {
	mutex    sync.Mutex
	notEmpty *sync.Cond

	// items[head:] is the queue contents.
	items []*rules.Rule
	head  int

	// seen holds the canonical keys of every rule ever enqueued. Keeping the
	// dequeued keys too is what makes the suppression complete under
	// parallelism: an equivalent refinement arriving after its twin was
	// already dequeued by another worker is still dropped.
	seen map[string]struct{}

	activeWorkers  int
	waitingWorkers int
	terminated     bool

	stats QueueStats
}

// QueueStats are diagnostic counters; they do not affect the search.
type QueueStats struct {
	// PeakDepth is the largest number of queued candidates at any one time.
	PeakDepth int
	// Dequeues counts successful Dequeue calls.
	Dequeues int64
	// Enqueues counts rules accepted by EnqueueAll.
	Enqueues int64
	// DuplicatesDropped counts rules EnqueueAll rejected because a
	// structurally equal rule had been enqueued before, whether or not it
	// was since dequeued.
	DuplicatesDropped int64
}

// NewQueue builds a queue seeded with the initial frontier. nWorkers is the
// number of workers that will call Dequeue; termination accounting depends on
// it.
func NewQueue(seeds []*rules.Rule, nWorkers int) *Queue {
	if nWorkers < 1 {
		log.Panicf("Programmer error: mining queue created with %d workers", nWorkers)
	}
	q := &Queue{
		seen:          make(map[string]struct{}),
		activeWorkers: nWorkers,
	}
	q.notEmpty = sync.NewCond(&q.mutex)
	q.EnqueueAll(seeds)
	return q
}

// EnqueueAll atomically appends a batch of candidates and wakes waiting
// workers. Rules structurally equal to a rule enqueued earlier are dropped.
// Enqueueing after quiescence is a programmer error and panics.
func (q *Queue) EnqueueAll(batch []*rules.Rule) {
	if len(batch) == 0 {
		return
	}
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.terminated {
		log.Panic("Programmer error: enqueue on a terminated mining queue")
	}
	for _, r := range batch {
		key := cmp.GetKey(r)
		if _, dup := q.seen[key]; dup {
			q.stats.DuplicatesDropped++
			continue
		}
		q.seen[key] = struct{}{}
		q.items = append(q.items, r)
		q.stats.Enqueues++
	}
	if depth := len(q.items) - q.head; depth > q.stats.PeakDepth {
		q.stats.PeakDepth = depth
	}
	q.notEmpty.Broadcast()
}

// Dequeue returns the next candidate. It blocks while the queue is empty and
// some worker may still produce work. Once quiescence is reached it returns
// ok=false to every worker; each of those workers must then call
// DecrementActiveWorkers exactly once.
func (q *Queue) Dequeue() (r *rules.Rule, ok bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	for q.head == len(q.items) {
		if q.terminated {
			return nil, false
		}
		q.waitingWorkers++
		if q.waitingWorkers == q.activeWorkers {
			// Everyone is waiting on an empty queue: no enqueue can ever
			// happen again.
			q.terminated = true
			q.waitingWorkers--
			q.notEmpty.Broadcast()
			return nil, false
		}
		q.notEmpty.Wait()
		q.waitingWorkers--
	}
	r = q.items[q.head]
	q.items[q.head] = nil
	q.head++
	q.stats.Dequeues++
	if q.head >= 1024 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return r, true
}

// DecrementActiveWorkers records the exit of a worker that observed
// termination.
func (q *Queue) DecrementActiveWorkers() {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.activeWorkers--
	if q.activeWorkers < 0 {
		log.Panic("Programmer error: more DecrementActiveWorkers calls than workers")
	}
}

// Stats returns a snapshot of the queue's diagnostic counters.
func (q *Queue) Stats() QueueStats {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.stats
}
