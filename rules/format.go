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
	"strconv"
	"strings"

	"github.com/lnhutnam/amie/util/bytes"
)

// A Formatter renders rules in the tab-separated output format: the textual
// rule followed by its metric columns.
type Formatter struct {
	// Namer resolves constant ids in the rule's atoms.
	Namer Namer
}

// Header returns the column header line, including the trailing newline.
func (f *Formatter) Header() string {
	return strings.Join([]string{
		"Rule",
		"Head Coverage",
		"Std Confidence",
		"PCA Confidence",
		"Positive Examples",
		"Body size",
		"PCA Body size",
		"Functional variable",
	}, "\t") + "\n"
}

// Format renders one rule as a single line without a trailing newline.
func (f *Formatter) Format(r *Rule) string {
	var b strings.Builder
	f.FormatTo(&b, r)
	return b.String()
}

// FormatTo renders one rule into the given writer.
func (f *Formatter) FormatTo(w bytes.StringWriter, r *Rule) {
	w.WriteString(f.RuleText(r))
	w.WriteByte('\t')
	w.WriteString(formatFloat(r.HeadCoverage()))
	w.WriteByte('\t')
	w.WriteString(formatFloat(r.StdConfidence))
	w.WriteByte('\t')
	w.WriteString(formatFloat(r.PCAConfidence))
	w.WriteByte('\t')
	w.WriteString(strconv.Itoa(r.Support))
	w.WriteByte('\t')
	w.WriteString(strconv.Itoa(r.BodyCardinality))
	w.WriteByte('\t')
	w.WriteString(strconv.Itoa(r.PCABodyCardinality))
	w.WriteByte('\t')
	if IsVariable(r.FunctionalVariable) {
		w.WriteString(VarName(r.FunctionalVariable))
	}
}

// RuleText renders the rule itself, body first: "?a  bornIn  ?b   => ?a
// livesIn  ?b". A seed rule with an empty body renders only the implication
// and head.
func (f *Formatter) RuleText(r *Rule) string {
	var b strings.Builder
	for i, a := range r.Body() {
		if i > 0 {
			b.WriteString("  ")
		}
		a.writeTo(&b, f.Namer)
	}
	b.WriteString("   => ")
	head := r.Head()
	head.writeTo(&b, f.Namer)
	return b.String()
}

func formatFloat(x float64) string {
	return fmt.Sprintf("%.6f", x)
}
