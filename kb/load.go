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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// LoadFiles reads facts from the given TSV files into the store. Each line
// holds SUBJECT<TAB>RELATION<TAB>OBJECT; a trailing "." column (Turtle-style
// dumps) is tolerated. Malformed lines are skipped with a warning.
func (st *Store) LoadFiles(filenames []string) error {
	for _, filename := range filenames {
		f, err := os.Open(filename)
		if err != nil {
			return err
		}
		err = st.Load(f, filename)
		f.Close()
		if err != nil {
			return fmt.Errorf("error loading %v: %v", filename, err)
		}
	}
	return nil
}

// Load reads TSV facts from the given reader. name is used in diagnostics
// only.
func (st *Store) Load(r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNo := 0
	added := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) == 4 && strings.TrimSpace(fields[3]) == "." {
			fields = fields[:3]
		}
		if len(fields) != 3 {
			log.WithFields(log.Fields{
				"file": name,
				"line": lineNo,
			}).Warnf("Skipping malformed fact line with %d fields", len(fields))
			continue
		}
		if st.Add(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]), strings.TrimSpace(fields[2])) {
			added++
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	log.Infof("Loaded %d facts from %v (%d lines)", added, name, lineNo)
	return nil
}
