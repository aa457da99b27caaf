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

// Package kb implements the in-memory knowledge base the miner runs against:
// an interned store of subject-predicate-object facts with per-relation
// indexes, counting queries over conjunctions of triple patterns, relation
// functionality statistics, and the overlap tables behind the confidence
// approximations.
package kb

import (
	"github.com/google/btree"
)

// Store is the in-memory fact store. It is mutable during load and must be
// treated as read-only once mining starts; all read methods are then safe for
// concurrent use.
type Store struct {
	dict         *Dictionary
	relations    map[int32]*relationIndex
	relationIDs  *btree.BTreeG[int32]
	typeRelation int32
	size         int
	overlaps     map[overlapKey]int
}

type relationIndex struct {
	// facts holds each (subject, object) pair once, packed.
	facts map[uint64]struct{}
	// subjects maps a subject to its objects, in insertion order.
	subjects map[int32][]int32
	// objects maps an object to its subjects, in insertion order.
	objects map[int32][]int32
}

// New returns an empty store with a fresh dictionary.
func New() *Store {
	return &Store{
		dict:        NewDictionary(),
		relations:   make(map[int32]*relationIndex),
		relationIDs: btree.NewG[int32](8, func(a, b int32) bool { return a < b }),
	}
}

func pack(s, o int32) uint64 {
	return uint64(uint32(s))<<32 | uint64(uint32(o))
}

// Add records one fact given by names, interning them as needed. Duplicate
// facts are ignored. It reports whether the fact was new.
func (st *Store) Add(subject, relation, object string) bool {
	return st.AddIDs(st.dict.Intern(subject), st.dict.Intern(relation), st.dict.Intern(object))
}

// AddIDs records one fact given by already-interned ids. Duplicate facts are
// ignored. It reports whether the fact was new.
func (st *Store) AddIDs(subject, relation, object int32) bool {
	rel := st.relations[relation]
	if rel == nil {
		rel = &relationIndex{
			facts:    make(map[uint64]struct{}),
			subjects: make(map[int32][]int32),
			objects:  make(map[int32][]int32),
		}
		st.relations[relation] = rel
		st.relationIDs.ReplaceOrInsert(relation)
	}
	key := pack(subject, object)
	if _, dup := rel.facts[key]; dup {
		return false
	}
	rel.facts[key] = struct{}{}
	rel.subjects[subject] = append(rel.subjects[subject], object)
	rel.objects[object] = append(rel.objects[object], subject)
	st.size++
	return true
}

// Dictionary returns the store's dictionary.
func (st *Store) Dictionary() *Dictionary {
	return st.dict
}

// Size returns the total number of facts.
func (st *Store) Size() int {
	return st.size
}

// Relations returns all relation ids in ascending id order. Iterating
// relations in this order keeps seed generation deterministic.
func (st *Store) Relations() []int32 {
	out := make([]int32, 0, st.relationIDs.Len())
	st.relationIDs.Ascend(func(id int32) bool {
		out = append(out, id)
		return true
	})
	return out
}

// RelationSize returns the number of facts of the given relation.
func (st *Store) RelationSize(relation int32) int {
	rel := st.relations[relation]
	if rel == nil {
		return 0
	}
	return len(rel.facts)
}

// Contains reports whether the exact fact is present.
func (st *Store) Contains(subject, relation, object int32) bool {
	rel := st.relations[relation]
	if rel == nil {
		return false
	}
	_, ok := rel.facts[pack(subject, object)]
	return ok
}

// ObjectsOf returns the objects o such that relation(subject, o) holds. The
// returned slice must not be modified.
func (st *Store) ObjectsOf(relation, subject int32) []int32 {
	rel := st.relations[relation]
	if rel == nil {
		return nil
	}
	return rel.subjects[subject]
}

// SubjectsOf returns the subjects s such that relation(s, object) holds. The
// returned slice must not be modified.
func (st *Store) SubjectsOf(relation, object int32) []int32 {
	rel := st.relations[relation]
	if rel == nil {
		return nil
	}
	return rel.objects[object]
}

// SubjectCount returns the number of distinct subjects of the relation.
func (st *Store) SubjectCount(relation int32) int {
	rel := st.relations[relation]
	if rel == nil {
		return 0
	}
	return len(rel.subjects)
}

// ObjectCount returns the number of distinct objects of the relation.
func (st *Store) ObjectCount(relation int32) int {
	rel := st.relations[relation]
	if rel == nil {
		return 0
	}
	return len(rel.objects)
}

// Functionality returns the relation's number of distinct subjects divided by
// its number of facts. A relation with functionality 1 maps each subject to a
// single object.
func (st *Store) Functionality(relation int32) float64 {
	size := st.RelationSize(relation)
	if size == 0 {
		return 0
	}
	return float64(st.SubjectCount(relation)) / float64(size)
}

// InverseFunctionality is Functionality of the inverted relation.
func (st *Store) InverseFunctionality(relation int32) float64 {
	size := st.RelationSize(relation)
	if size == 0 {
		return 0
	}
	return float64(st.ObjectCount(relation)) / float64(size)
}

// SetTypeRelation marks the given relation name as the schema type relation,
// interning it if needed. Type atoms with a constant object do not count
// toward the rule depth bound.
func (st *Store) SetTypeRelation(name string) {
	st.typeRelation = st.dict.Intern(name)
}

// TypeRelation returns the id of the type relation, or 0 if none was set.
func (st *Store) TypeRelation() int32 {
	return st.typeRelation
}
