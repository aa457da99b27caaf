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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnhutnam/amie/rules"
)

// newTestStore builds the store used across these tests:
//
//	bornIn:  (amy, berlin) (bob, berlin) (cal, tokyo)
//	livesIn: (amy, berlin) (bob, paris)  (cal, tokyo)
func newTestStore(t *testing.T) *Store {
	st := New()
	for _, f := range [][3]string{
		{"amy", "bornIn", "berlin"},
		{"bob", "bornIn", "berlin"},
		{"cal", "bornIn", "tokyo"},
		{"amy", "livesIn", "berlin"},
		{"bob", "livesIn", "paris"},
		{"cal", "livesIn", "tokyo"},
	} {
		require.True(t, st.Add(f[0], f[1], f[2]))
	}
	return st
}

func (st *Store) mustID(t *testing.T, name string) int32 {
	id, ok := st.dict.Lookup(name)
	require.True(t, ok, "unknown name %q", name)
	return id
}

func Test_AddAndCounts(t *testing.T) {
	st := newTestStore(t)
	bornIn := st.mustID(t, "bornIn")
	livesIn := st.mustID(t, "livesIn")

	assert.Equal(t, 6, st.Size())
	assert.Equal(t, 3, st.RelationSize(bornIn))
	assert.Equal(t, 3, st.SubjectCount(bornIn))
	assert.Equal(t, 2, st.ObjectCount(bornIn))
	assert.Equal(t, []int32{bornIn, livesIn}, st.Relations())

	t.Run("duplicates are dropped", func(t *testing.T) {
		assert.False(t, st.Add("amy", "bornIn", "berlin"))
		assert.Equal(t, 3, st.RelationSize(bornIn))
	})

	t.Run("contains", func(t *testing.T) {
		amy := st.mustID(t, "amy")
		berlin := st.mustID(t, "berlin")
		assert.True(t, st.Contains(amy, bornIn, berlin))
		assert.False(t, st.Contains(berlin, bornIn, amy))
	})
}

func Test_Functionality(t *testing.T) {
	st := newTestStore(t)
	bornIn := st.mustID(t, "bornIn")
	assert.InDelta(t, 1.0, st.Functionality(bornIn), 1e-9)
	assert.InDelta(t, 2.0/3.0, st.InverseFunctionality(bornIn), 1e-9)
	assert.Equal(t, 0.0, st.Functionality(999))
}

func Test_CountPairs(t *testing.T) {
	st := newTestStore(t)
	bornIn := st.mustID(t, "bornIn")
	livesIn := st.mustID(t, "livesIn")

	t.Run("single atom", func(t *testing.T) {
		n := st.CountPairs(-1, -2, []rules.Atom{{Subject: -1, Relation: bornIn, Object: -2}})
		assert.Equal(t, 3, n)
	})

	t.Run("join", func(t *testing.T) {
		// people living where they were born: amy, cal
		n := st.CountPairs(-1, -2, []rules.Atom{
			{Subject: -1, Relation: bornIn, Object: -2},
			{Subject: -1, Relation: livesIn, Object: -2},
		})
		assert.Equal(t, 2, n)
	})

	t.Run("existential join", func(t *testing.T) {
		// bornIn pairs whose subject lives somewhere: all 3
		n := st.CountPairs(-1, -2, []rules.Atom{
			{Subject: -1, Relation: bornIn, Object: -2},
			{Subject: -1, Relation: livesIn, Object: -3},
		})
		assert.Equal(t, 3, n)
	})

	t.Run("constant position", func(t *testing.T) {
		berlin := st.mustID(t, "berlin")
		n := st.CountValues(-1, []rules.Atom{{Subject: -1, Relation: bornIn, Object: berlin}})
		assert.Equal(t, 2, n)
	})

	t.Run("shared variable", func(t *testing.T) {
		// nobody is born in themselves
		n := st.CountValues(-1, []rules.Atom{{Subject: -1, Relation: bornIn, Object: -1}})
		assert.Equal(t, 0, n)
	})
}

func Test_DistinctValues(t *testing.T) {
	st := newTestStore(t)
	bornIn := st.mustID(t, "bornIn")
	values := st.DistinctValues(-2, []rules.Atom{{Subject: -1, Relation: bornIn, Object: -2}})
	assert.ElementsMatch(t, []int32{st.mustID(t, "berlin"), st.mustID(t, "tokyo")}, values)
}

func Test_ExistsSolution(t *testing.T) {
	st := newTestStore(t)
	bornIn := st.mustID(t, "bornIn")
	livesIn := st.mustID(t, "livesIn")
	assert.True(t, st.ExistsSolution([]rules.Atom{
		{Subject: -1, Relation: bornIn, Object: -2},
		{Subject: -1, Relation: livesIn, Object: -2},
	}))
	assert.False(t, st.ExistsSolution([]rules.Atom{
		{Subject: -1, Relation: bornIn, Object: -2},
		{Subject: -2, Relation: bornIn, Object: -1},
	}))
}

func Test_Overlap(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.BuildOverlapTables(context.Background(), 2))
	bornIn := st.mustID(t, "bornIn")
	livesIn := st.mustID(t, "livesIn")

	assert.True(t, st.HasOverlapTables())
	// subjects are the same three people
	assert.Equal(t, 3, st.Overlap(bornIn, livesIn, SubjectSubject))
	// berlin and tokyo are objects of both; paris only of livesIn
	assert.Equal(t, 2, st.Overlap(bornIn, livesIn, ObjectObject))
	// no person is a city
	assert.Equal(t, 0, st.Overlap(bornIn, livesIn, SubjectObject))

	t.Run("not built", func(t *testing.T) {
		fresh := New()
		assert.Panics(t, func() { fresh.Overlap(1, 2, SubjectSubject) })
	})
}

func Test_Load(t *testing.T) {
	st := New()
	input := strings.Join([]string{
		"amy\tbornIn\tberlin",
		"",
		"# a comment",
		"bob\tbornIn\tberlin\t.",
		"malformed line",
		"cal\tbornIn\ttokyo",
	}, "\n")
	require.NoError(t, st.Load(strings.NewReader(input), "test.tsv"))
	assert.Equal(t, 3, st.Size())
	bornIn := st.mustID(t, "bornIn")
	assert.Equal(t, 3, st.RelationSize(bornIn))
}

func Test_TypeRelation(t *testing.T) {
	st := New()
	assert.Equal(t, int32(0), st.TypeRelation())
	st.SetTypeRelation("rdf:type")
	assert.NotEqual(t, int32(0), st.TypeRelation())
	assert.Equal(t, "rdf:type", st.dict.NameFor(st.TypeRelation()))
}

func Test_PrettyPrintStats(t *testing.T) {
	st := newTestStore(t)
	var b strings.Builder
	st.PrettyPrintStats(&b)
	out := b.String()
	assert.Contains(t, out, "bornIn")
	assert.Contains(t, out, "livesIn")
	assert.Contains(t, out, "Total")
}
