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

package rules

import (
	"fmt"
	"strings"

	p "github.com/vektah/goparsify"
)

// A Term is one parsed atom position: either a variable (by name, without the
// leading '?') or a constant entity name.
type Term struct {
	IsVariable bool
	Name       string
}

// A ParsedAtom is one "subject relation object" triple from the textual rule
// format.
type ParsedAtom struct {
	Subject  Term
	Relation Term
	Object   Term
}

// A ParsedRule is the result of parsing the textual rule format, body first:
//
//	?a  bornIn  ?b   => ?a  livesIn  ?b
//
// The body may be empty ("=> ?a  livesIn  ?b" parses to a bare head).
type ParsedRule struct {
	Body []ParsedAtom
	Head ParsedAtom
}

var ruleRoot p.Parser

func init() {
	// unbroken character sequence naming an entity or relation
	entityChars := p.Chars("A-Za-z0-9%()_\\-.:", 1)
	// unbroken character sequence naming a variable
	varChars := p.Chars("A-Za-z0-9_", 1)

	variable := p.Seq("?", varChars).Map(func(n *p.Result) { // ?a
		n.Result = Term{IsVariable: true, Name: n.Child[1].Token}
	})
	entity := entityChars.Map(func(n *p.Result) { // bornIn
		n.Result = Term{Name: n.Token}
	})
	term := p.Any(variable, entity)
	atom := p.Seq(term, term, term).Map(func(n *p.Result) {
		n.Result = ParsedAtom{
			Subject:  n.Child[0].Result.(Term),
			Relation: n.Child[1].Result.(Term),
			Object:   n.Child[2].Result.(Term),
		}
	})
	ruleRoot = p.Seq(p.Some(atom), "=>", p.Cut(), atom).Map(func(n *p.Result) {
		rule := ParsedRule{Head: n.Child[3].Result.(ParsedAtom)}
		for _, c := range n.Child[0].Child {
			rule.Body = append(rule.Body, c.Result.(ParsedAtom))
		}
		n.Result = rule
	})
}

// Parse parses the textual rule format. It returns an error describing the
// offending position if the input is not a well-formed rule.
func Parse(in string) (ParsedRule, error) {
	result, err := p.Run(ruleRoot, in, p.UnicodeWhitespace)
	if err != nil {
		return ParsedRule{}, fmt.Errorf("unable to parse rule %q: %v", in, err)
	}
	return result.(ParsedRule), nil
}

// MustParse parses the rule format and panics if an error occurs. It
// simplifies variable initialization and is primarily meant for writing unit
// tests.
func MustParse(in string) ParsedRule {
	rule, err := Parse(in)
	if err != nil {
		panic(fmt.Sprintf("unable to parse rule: '%s': %v", strings.Replace(in, "\n", "\\n", -1), err))
	}
	return rule
}

// Resolve maps the parsed rule onto interned ids: constants through the given
// resolver, variables to negative ids in order of first appearance with the
// head scanned first. It fails on an unknown constant or a variable in the
// relation position.
func (pr ParsedRule) Resolve(resolve func(name string) (int32, bool)) (*Rule, error) {
	vars := make(map[string]int32, 4)
	mapTerm := func(t Term) (int32, error) {
		if t.IsVariable {
			if id, ok := vars[t.Name]; ok {
				return id, nil
			}
			id := int32(-(len(vars) + 1))
			vars[t.Name] = id
			return id, nil
		}
		id, ok := resolve(t.Name)
		if !ok {
			return 0, fmt.Errorf("unknown entity %q", t.Name)
		}
		return id, nil
	}
	mapAtom := func(pa ParsedAtom) (Atom, error) {
		if pa.Relation.IsVariable {
			return Atom{}, fmt.Errorf("variable %q in relation position", "?"+pa.Relation.Name)
		}
		var a Atom
		var err error
		if a.Subject, err = mapTerm(pa.Subject); err != nil {
			return Atom{}, err
		}
		if a.Relation, err = mapTerm(pa.Relation); err != nil {
			return Atom{}, err
		}
		if a.Object, err = mapTerm(pa.Object); err != nil {
			return Atom{}, err
		}
		return a, nil
	}
	head, err := mapAtom(pr.Head)
	if err != nil {
		return nil, err
	}
	body := make([]Atom, 0, len(pr.Body))
	for _, pa := range pr.Body {
		a, err := mapAtom(pa)
		if err != nil {
			return nil, err
		}
		body = append(body, a)
	}
	return NewRule(head, body), nil
}
