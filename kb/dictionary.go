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
	"fmt"
)

// A Dictionary interns entity and relation names to dense non-negative int32
// ids. Id 0 is reserved and never handed out, so 0 can be used as a "no id"
// marker. The Dictionary is not safe for concurrent mutation; the store is
// read-only once loaded.
type Dictionary struct {
	ids   map[string]int32
	names []string
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		ids:   make(map[string]int32),
		names: []string{""},
	}
}

// Intern returns the id for the given name, assigning a new one if the name
// has not been seen before.
func (d *Dictionary) Intern(name string) int32 {
	if id, ok := d.ids[name]; ok {
		return id
	}
	id := int32(len(d.names))
	d.ids[name] = id
	d.names = append(d.names, name)
	return id
}

// Lookup returns the id for the given name, or false if the name was never
// interned.
func (d *Dictionary) Lookup(name string) (int32, bool) {
	id, ok := d.ids[name]
	return id, ok
}

// NameFor resolves an id back to its name. It implements rules.Namer.
func (d *Dictionary) NameFor(id int32) string {
	if id <= 0 || int(id) >= len(d.names) {
		return fmt.Sprintf("#%d", id)
	}
	return d.names[id]
}

// Len returns the number of interned names.
func (d *Dictionary) Len() int {
	return len(d.names) - 1
}
