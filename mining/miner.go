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

// Package mining implements the rule mining engine: a breadth-first
// refinement search over Horn rules, run by a fixed pool of workers sharing a
// dynamic work queue, publishing confirmed rules to an ordered result store
// that a consumer streams to the output sink.
package mining

import (
	"context"
	"io"
	"math"

	opentracing "github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"

	"github.com/lnhutnam/amie/config"
	"github.com/lnhutnam/amie/mining/assistant"
	"github.com/lnhutnam/amie/rules"
	"github.com/lnhutnam/amie/util/clocks"
	"github.com/lnhutnam/amie/util/parallel"
)

// A Miner runs the refinement search to quiescence and emits the confirmed
// rules. Construct it with New and run Mine once.
type Miner struct {
	assistant assistant.Assistant

	minInitialSupport int
	minSignificance   float64
	metric            string
	nThreads          int
	realTime          bool
	verbose           bool

	// seeds restricts the head relations; empty means every relation large
	// enough.
	seeds []int32

	clock   clocks.Source
	metrics *Metrics

	queueStats QueueStats
}

// An Option adjusts a Miner beyond its configuration.
type Option func(*Miner)

// WithSeeds restricts mining to the given head relations.
func WithSeeds(seeds []int32) Option {
	return func(m *Miner) {
		m.seeds = seeds
	}
}

// WithMetrics makes the miner record into the given metrics, which NewMetrics
// has already registered.
func WithMetrics(r *Metrics) Option {
	return func(m *Miner) {
		m.metrics = r
	}
}

// WithClock substitutes the time source; used by tests.
func WithClock(c clocks.Source) Option {
	return func(m *Miner) {
		m.clock = c
	}
}

// New builds a miner over the given assistant. cfg must already be validated.
func New(a assistant.Assistant, cfg *config.Mining, options ...Option) *Miner {
	minSignificance := cfg.MinHeadCoverage
	if cfg.PruningMetric == config.PruneBySupport {
		minSignificance = float64(cfg.MinSupport)
	}
	m := &Miner{
		assistant:         a,
		minInitialSupport: cfg.MinInitialSupport,
		minSignificance:   minSignificance,
		metric:            cfg.PruningMetric,
		nThreads:          cfg.NThreads,
		realTime:          cfg.RealTime == nil || *cfg.RealTime,
		verbose:           cfg.Verbose,
		clock:             clocks.Wall,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Mine runs the search to quiescence and returns every confirmed rule in
// publication order. With real-time output enabled the rules are also
// streamed to sink as they are confirmed; otherwise sink is untouched and the
// caller emits the result itself (see EmitAll). The returned error is a sink
// error; mining itself runs to completion regardless.
func (m *Miner) Mine(ctx context.Context, sink io.Writer) ([]*rules.Rule, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mine")
	defer span.Finish()
	start := m.clock.Now()

	var seedRules []*rules.Rule
	if len(m.seeds) > 0 {
		seedRules = m.assistant.InitialAtomsFromSeeds(m.seeds, m.minInitialSupport)
	} else {
		seedRules = m.assistant.InitialAtoms(m.minInitialSupport)
	}
	log.Infof("Mining with %d threads from %d seed relations", m.nThreads, len(seedRules))

	queue := NewQueue(seedRules, m.nThreads)
	store := newResultStore()

	var consumerWait func() error
	if m.realTime {
		consumer := newRuleConsumer(store, m.assistant, sink)
		consumerWait = parallel.GoCaptureError(consumer.run)
	}

	parallel.InvokeN(ctx, m.nThreads, func(ctx context.Context, i int) error {
		m.work(ctx, queue, store)
		return nil
	})

	var sinkErr error
	if m.realTime {
		store.terminate()
		sinkErr = consumerWait()
	}

	m.queueStats = queue.Stats()
	span.SetTag("rules", store.size())
	span.SetTag("dequeues", m.queueStats.Dequeues)
	log.Infof("Mining done in %v: %d rules from %d evaluated candidates",
		m.clock.Now().Sub(start), store.size(), m.queueStats.Dequeues)
	if m.verbose {
		log.Infof("Queue stats: peak depth %d, %d enqueued, %d duplicates dropped",
			m.queueStats.PeakDepth, m.queueStats.Enqueues, m.queueStats.DuplicatesDropped)
	}
	return store.ordered, sinkErr
}

// QueueStats returns the work queue's diagnostic counters from the last Mine
// run.
func (m *Miner) QueueStats() QueueStats {
	return m.queueStats
}

// work is the loop each worker runs until the queue reports termination.
func (m *Miner) work(ctx context.Context, queue *Queue, store *resultStore) {
	a := m.assistant
	for {
		current, ok := queue.Dequeue()
		if !ok {
			queue.DecrementActiveWorkers()
			return
		}
		m.metrics.dequeued()

		// Decide whether the rule should be output: shape first, then the
		// cheap confidence bounds, then the exact metrics with the thresholds
		// and skyline test against the published ancestors.
		output := false
		if a.ShouldOutput(current) {
			if a.ComputeConfidenceBounds(current) {
				store.mutex.Lock()
				a.SetAdditionalParents(current, store)
				store.mutex.Unlock()
				a.ComputeConfidenceMetrics(current)
				output = a.TestConfidenceThresholds(current)
			}
		}

		// Decide whether the rule is refined further.
		furtherRefined := !current.Final
		if a.PerfectRulesEnabled() {
			furtherRefined = furtherRefined && !current.Perfect
		}
		furtherRefined = furtherRefined && current.RealLength() < a.MaxDepth()

		if furtherRefined {
			children, err := a.ApplyOperators(current, m.countThreshold(current))
			if err != nil {
				// The rule's children are dropped, not retried; refinement
				// search is redundant enough that its descendants remain
				// reachable through other parents. The rule itself is still
				// published below if it qualified for output.
				log.WithError(err).Warnf("Operator application failed, dropping refinements of rule %v", current)
				children = nil
			}
			for operator, items := range children {
				if operator != assistant.OpDangling {
					queue.EnqueueAll(items)
				}
			}
			// One atom slot is reserved for closing the rule: dangling
			// children at the depth horizon could never become closed.
			if current.RealLength() < a.MaxDepth()-1 {
				queue.EnqueueAll(children[assistant.OpDangling])
			}
		}

		if output {
			store.publish(current)
			m.metrics.emitted()
			if a.Verbose() {
				log.Debugf("Output rule: %s", a.Format(current))
			}
		}
	}
}

// countThreshold derives the absolute support threshold the operators apply
// to this rule's children.
func (m *Miner) countThreshold(c *rules.Rule) float64 {
	switch m.metric {
	case config.PruneBySupport:
		return m.minSignificance
	case config.PruneByHeadCoverage:
		return math.Ceil(m.minSignificance * float64(m.assistant.HeadCardinality(c)))
	default:
		return 0
	}
}

// EmitAll writes the header and every rule to the sink. The driver calls this
// after Mine when real-time output is disabled.
func (m *Miner) EmitAll(sink io.Writer, mined []*rules.Rule) error {
	if _, err := io.WriteString(sink, m.assistant.Header()); err != nil {
		return err
	}
	for _, r := range mined {
		if _, err := io.WriteString(sink, m.assistant.Format(r)+"\n"); err != nil {
			return err
		}
	}
	return nil
}
