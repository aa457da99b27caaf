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

package mining

import (
	"bufio"
	"io"

	"github.com/lnhutnam/amie/mining/assistant"
)

// ruleConsumer drains the result store to the output sink in publication
// order as rules arrive. It runs on its own goroutine when real-time output
// is enabled. Each rule is emitted exactly once.
type ruleConsumer struct {
	store     *resultStore
	assistant assistant.Assistant
	out       *bufio.Writer
}

func newRuleConsumer(store *resultStore, a assistant.Assistant, sink io.Writer) *ruleConsumer {
	return &ruleConsumer{
		store:     store,
		assistant: a,
		out:       bufio.NewWriter(sink),
	}
}

// run writes the header, then streams rules until the store is terminated and
// fully drained. A sink error stops the consumer immediately; it is surfaced
// to the driver and never blocks the mining loop.
func (c *ruleConsumer) run() error {
	if _, err := c.out.WriteString(c.assistant.Header()); err != nil {
		return err
	}
	lastConsumed := -1
	for {
		c.store.mutex.Lock()
		for lastConsumed == len(c.store.ordered)-1 && !c.store.done {
			c.store.newRules.Wait()
		}
		// published rules are immutable and ordered is append-only, so the
		// slice can be read outside the lock
		pending := c.store.ordered[lastConsumed+1:]
		done := c.store.done
		c.store.mutex.Unlock()

		for _, r := range pending {
			if _, err := c.out.WriteString(c.assistant.Format(r)); err != nil {
				return err
			}
			if err := c.out.WriteByte('\n'); err != nil {
				return err
			}
		}
		lastConsumed += len(pending)

		if done {
			// workers are joined before the store is terminated, so nothing
			// can be published after this point
			return c.out.Flush()
		}
	}
}
