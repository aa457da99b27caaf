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
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

// testNamer resolves the constant ids used by this package's tests.
type testNamer map[int32]string

func (n testNamer) NameFor(id int32) string {
	return n[id]
}

var testNames = testNamer{
	livesIn:     "livesIn",
	bornIn:      "bornIn",
	isCitizenOf: "isCitizenOf",
}

func Test_Formatter_golden(t *testing.T) {
	f := Formatter{Namer: testNames}
	r := NewRule(
		Atom{Subject: -1, Relation: livesIn, Object: -2},
		[]Atom{{Subject: -1, Relation: bornIn, Object: -2}})
	r.Support = 1
	r.HeadCardinality = 1
	r.BodyCardinality = 1
	r.PCABodyCardinality = 1
	r.StdConfidence = 1.0
	r.PCAConfidence = 1.0
	r.FunctionalVariable = -1

	var b strings.Builder
	b.WriteString(f.Header())
	b.WriteString(f.Format(r))
	b.WriteByte('\n')
	g := goldie.New(t)
	g.Assert(t, "formatter", []byte(b.String()))
}

func Test_Formatter_seedRule(t *testing.T) {
	f := Formatter{Namer: testNames}
	seed := NewSeed(livesIn, 10)
	assert.Equal(t, "   => ?a  livesIn  ?b", f.RuleText(seed))
}

func Test_Formatter_fields(t *testing.T) {
	f := Formatter{Namer: testNames}
	r := NewRule(
		Atom{Subject: -1, Relation: isCitizenOf, Object: -2},
		[]Atom{{Subject: -1, Relation: bornIn, Object: -2}})
	r.Support = 50
	r.HeadCardinality = 200
	r.BodyCardinality = 100
	r.PCABodyCardinality = 60
	r.StdConfidence = 0.5
	r.PCAConfidence = 50.0 / 60.0
	r.FunctionalVariable = -2

	line := f.Format(r)
	fields := strings.Split(line, "\t")
	assert.Equal(t, []string{
		"?a  bornIn  ?b   => ?a  isCitizenOf  ?b",
		"0.250000",
		"0.500000",
		"0.833333",
		"50",
		"100",
		"60",
		"?b",
	}, fields)
}
