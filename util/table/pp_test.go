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

package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_PrettyPrint(t *testing.T) {
	b := strings.Builder{}
	PrettyPrint(&b, [][]string{
		{"Relation", "Size"},
		{"livesIn", "100"},
		{"bornIn", "42"},
	}, HeaderRow)
	exp := strings.Join([]string{
		" Relation | Size |",
		" -------- | ---- |",
		" livesIn  | 100  |",
		" bornIn   | 42   |",
		"",
	}, "\n")
	assert.Equal(t, exp, b.String())
}

func Test_PrettyPrint_SkipEmpty(t *testing.T) {
	b := strings.Builder{}
	PrettyPrint(&b, [][]string{{"Relation", "Size"}}, HeaderRow|SkipEmpty)
	assert.Equal(t, "", b.String())
}

func Test_PrettyPrint_RightJustify(t *testing.T) {
	b := strings.Builder{}
	PrettyPrint(&b, [][]string{
		{"a", "1000"},
		{"bbbb", "1"},
	}, RightJustify)
	exp := strings.Join([]string{
		"    a | 1000 |",
		" bbbb |    1 |",
		"",
	}, "\n")
	assert.Equal(t, exp, b.String())
}
