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

// Package rules contains the Horn rule model mined from a knowledge base:
// atoms, rules with their statistics, the parent-equivalence hash used for
// deduplication, and the textual rule format.
package rules

import (
	"fmt"
	"strings"
)

// An Atom is a triple pattern. Each position holds either an interned constant
// id (non-negative) or a variable id (negative). The relation position is
// always a constant in this package's usage.
type Atom struct {
	Subject  int32
	Relation int32
	Object   int32
}

// IsVariable reports whether the given id denotes a variable rather than an
// interned constant.
func IsVariable(id int32) bool {
	return id < 0
}

// VarName renders a variable id the way rules are printed: -1 is ?a, -2 is ?b
// and so on. Ids past ?z are rendered as ?v27, ?v28, ...
func VarName(id int32) string {
	if !IsVariable(id) {
		panic(fmt.Sprintf("Programmer error: VarName called with constant id %d", id))
	}
	n := -id
	if n <= 26 {
		return string([]byte{'?', byte('a' + n - 1)})
	}
	return fmt.Sprintf("?v%d", n)
}

// HasVariables reports whether either argument position is a variable.
func (a Atom) HasVariables() bool {
	return IsVariable(a.Subject) || IsVariable(a.Object)
}

// HasConstantArg reports whether either argument position is a constant.
func (a Atom) HasConstantArg() bool {
	return !IsVariable(a.Subject) || !IsVariable(a.Object)
}

// Contains reports whether the atom mentions the given variable.
func (a Atom) Contains(variable int32) bool {
	return a.Subject == variable || a.Object == variable
}

// writeTo renders the atom using the given namer for constants, e.g.
// "?a  livesIn  ?b".
func (a Atom) writeTo(b *strings.Builder, namer Namer) {
	writeTerm(b, a.Subject, namer)
	b.WriteString("  ")
	writeTerm(b, a.Relation, namer)
	b.WriteString("  ")
	writeTerm(b, a.Object, namer)
}

func writeTerm(b *strings.Builder, id int32, namer Namer) {
	if IsVariable(id) {
		b.WriteString(VarName(id))
	} else {
		b.WriteString(namer.NameFor(id))
	}
}

// A Namer resolves interned constant ids back to their external names. It is
// implemented by kb.Dictionary.
type Namer interface {
	NameFor(id int32) string
}
