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
	"io"
	"sort"

	"github.com/lnhutnam/amie/util/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var fmtr = message.NewPrinter(language.English)

// PrettyPrintStats writes a table of per-relation statistics to the supplied
// writer, largest relations first.
func (st *Store) PrettyPrintStats(w io.Writer) {
	ids := st.Relations()
	sort.SliceStable(ids, func(i, j int) bool {
		return st.RelationSize(ids[i]) > st.RelationSize(ids[j])
	})
	t := [][]string{
		{"Relation", "Facts", "Subjects", "Objects", "Functionality"},
	}
	for _, id := range ids {
		t = append(t, []string{
			st.dict.NameFor(id),
			fmtr.Sprintf("%d", st.RelationSize(id)),
			fmtr.Sprintf("%d", st.SubjectCount(id)),
			fmtr.Sprintf("%d", st.ObjectCount(id)),
			fmt.Sprintf("%.3f", st.Functionality(id)),
		})
	}
	t = append(t, []string{
		"Total",
		fmtr.Sprintf("%d", st.Size()),
		"", "", "",
	})
	table.PrettyPrint(w, t, table.HeaderRow|table.FooterRow|table.SkipEmpty)
}
