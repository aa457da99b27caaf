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
	"fmt"
	"strconv"
	"strings"

	"github.com/dgraph-io/ristretto"

	"github.com/lnhutnam/amie/kb"
	"github.com/lnhutnam/amie/rules"
)

// countCache memoizes the counting queries issued while evaluating rules.
// Refinement revisits the same conjunctions constantly: every dangling child
// shares its parent's body, and equal rules reached along different paths
// re-ask identical counts. The cache is shared by all workers.
type countCache struct {
	cache *ristretto.Cache
}

func newCountCache() (*countCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 20,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize count cache: %v", err)
	}
	return &countCache{cache: cache}, nil
}

// close releases the cache's internal goroutines and buffers.
func (cc *countCache) close() {
	cc.cache.Close()
}

// pairs is kb.Store.CountPairs with memoization.
func (cc *countCache) pairs(st *kb.Store, x, y int32, atoms []rules.Atom) int {
	key := cacheKey('p', x, y, atoms)
	if v, ok := cc.cache.Get(key); ok {
		return v.(int)
	}
	n := st.CountPairs(x, y, atoms)
	cc.cache.Set(key, n, int64(len(key)))
	return n
}

// cacheKey serializes a counting query. Variable ids are included verbatim:
// queries are memoized syntactically, which is always sound.
func cacheKey(kind byte, x, y int32, atoms []rules.Atom) string {
	var b strings.Builder
	b.Grow(16 * (len(atoms) + 1))
	b.WriteByte(kind)
	writeID(&b, x)
	writeID(&b, y)
	for _, a := range atoms {
		b.WriteByte('|')
		writeID(&b, a.Subject)
		writeID(&b, a.Relation)
		writeID(&b, a.Object)
	}
	return b.String()
}

func writeID(b *strings.Builder, id int32) {
	b.WriteString(strconv.FormatInt(int64(id), 10))
	b.WriteByte(',')
}
