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
)

// resultStore holds the published rules: an append-only list preserving
// publication order for the consumer, and a secondary index keyed by the
// alternative-parent hash for ancestor lookups and duplicate detection. One
// mutex guards both; publication order is the lock's serialization order.
type resultStore struct {
	mutex    sync.Mutex
	newRules sync.Cond

	// ordered is append-only; a published rule is immutable.
	ordered []*rules.Rule

	// byHash buckets published rules sharing an AlternativeParentHash. A rule
	// appears in ordered iff it appears in exactly one bucket.
	byHash map[uint64][]*rules.Rule

	// done is set once the workers have been joined; the consumer drains and
	// exits.
	done bool
}

func newResultStore() *resultStore {
	s := &resultStore{
		byHash: make(map[uint64][]*rules.Rule),
	}
	s.newRules.L = &s.mutex
	return s
}

// ByHash implements assistant.ParentIndex. The caller must hold the store's
// mutex.
func (s *resultStore) ByHash(hash uint64) []*rules.Rule {
	return s.byHash[hash]
}

// publish appends the rule to the ordered list and its hash bucket, then
// wakes the consumer. Publishing a rule structurally equal to an
// already-published one is a programmer error: equal refinements are expected
// to have collapsed in the queue.
func (s *resultStore) publish(r *rules.Rule) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	hash := r.AlternativeParentHash()
	bucket := s.byHash[hash]
	for _, existing := range bucket {
		if existing.Equal(r) {
			log.Panicf("Programmer error: a rule cannot be published twice: %v", r)
		}
	}
	s.ordered = append(s.ordered, r)
	s.byHash[hash] = append(bucket, r)
	s.newRules.Signal()
}

// terminate marks the store complete and wakes the consumer so it can drain
// and exit.
func (s *resultStore) terminate() {
	s.mutex.Lock()
	s.done = true
	s.newRules.Broadcast()
	s.mutex.Unlock()
}

// size returns the number of published rules.
func (s *resultStore) size() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.ordered)
}
