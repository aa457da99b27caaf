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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lnhutnam/amie/util/metrics"
)

// Metrics are the engine's Prometheus metrics. A nil *Metrics is
// valid and records nothing, so metrics stay optional.
type Metrics struct {
	candidatesDequeued prometheus.Counter
	rulesEmitted       prometheus.Counter
}

// NewMetrics creates and registers the engine's metrics on the given
// registerer. Pass the result to New via WithMetrics.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	mr := metrics.Registry{R: registerer}
	return &Metrics{
		candidatesDequeued: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "amie",
			Subsystem: "mining",
			Name:      "candidates_dequeued_total",
			Help:      "Number of candidate rules taken off the work queue.",
		}),
		rulesEmitted: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "amie",
			Subsystem: "mining",
			Name:      "rules_emitted_total",
			Help:      "Number of rules published to the result store.",
		}),
	}
}

func (m *Metrics) dequeued() {
	if m != nil {
		m.candidatesDequeued.Inc()
	}
}

func (m *Metrics) emitted() {
	if m != nil {
		m.rulesEmitted.Inc()
	}
}
