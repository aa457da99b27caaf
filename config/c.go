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

// Package config contains the configuration for a mining run. The
// configuration is typically loaded from a JSON file on disk.
package config

import (
	"fmt"
	"runtime"
)

// Pruning metrics accepted in Mining.PruningMetric.
const (
	// PruneBySupport prunes refinements whose absolute support falls below
	// Mining.MinSupport.
	PruneBySupport = "support"
	// PruneByHeadCoverage prunes refinements whose support falls below
	// Mining.MinHeadCoverage times the head relation's size.
	PruneByHeadCoverage = "headCoverage"
)

// Mining describes the configuration for a rule mining run.
type Mining struct {
	// Minimum absolute support for a rule when PruningMetric is "support".
	// Defaults to 100.
	MinSupport int `json:"minSupport"`

	// The minimum size for a relation to be used as a head relation when
	// seeding the search. Defaults to 100.
	MinInitialSupport int `json:"minInitialSupport"`

	// Minimum head coverage for a rule when PruningMetric is "headCoverage".
	// Defaults to 0.01.
	MinHeadCoverage float64 `json:"minHeadCoverage"`

	// Minimum standard confidence for a rule to be output. Defaults to 0.1.
	MinStdConfidence float64 `json:"minStdConfidence"`

	// Minimum PCA confidence for a rule to be output. Defaults to 0.1.
	MinPCAConfidence float64 `json:"minPcaConfidence"`

	// Maximum number of non-type atoms in a rule, head included. Must be at
	// least 2. Defaults to 3.
	MaxDepth int `json:"maxDepth"`

	// Either "support" or "headCoverage". Defaults to "headCoverage".
	PruningMetric string `json:"pruningMetric"`

	// Number of worker threads. Defaults to the number of CPUs, and is capped
	// by it.
	NThreads int `json:"nThreads"`

	// If true, rules are streamed to the output sink as they are confirmed.
	// If false, they are written only once mining completes. Defaults to true.
	RealTime *bool `json:"realTime,omitempty"`

	// If true, rules dominated on both confidences by an already-output
	// ancestor are suppressed. Defaults to true.
	Skyline *bool `json:"skyline,omitempty"`

	// If true, rules with confidence 1 at maximal support are output and never
	// refined further. Defaults to true.
	PerfectRulePruning *bool `json:"perfectRulePruning,omitempty"`

	// If true, cheap confidence upper bounds gate the exact confidence
	// computation. Defaults to false.
	UpperBoundPruning bool `json:"upperBoundPruning"`

	// If true, the refinement operators may bind variables to constants.
	AllowConstants bool `json:"allowConstants"`

	// If true, only rules containing at least one constant are output.
	// Implies AllowConstants.
	EnforceConstants bool `json:"enforceConstants"`

	// If true, type atoms with an unbound object variable are rejected by the
	// language bias. Defaults to true.
	AvoidUnboundTypeAtoms *bool `json:"avoidUnboundTypeAtoms,omitempty"`

	// Maximum number of atoms, head included, sharing one relation. Defaults
	// to 3.
	RecursivityLimit int `json:"recursivityLimit"`

	// If true, the miner logs per-rule decisions and prints queue statistics
	// after mining.
	Verbose bool `json:"verbose"`

	// If non-nil, the configuration for distributed tracing (OpenTracing). If
	// nil, the miner will not collect traces.
	Tracing *Tracing `json:"tracing,omitempty"`
}

// Tracing contains configuration related to distributed execution tracing.
type Tracing struct {
	// Must be "jaeger" (for now).
	Type string `json:"type"`

	// Endpoint that accepts jaeger.thrift over HTTP directly from clients.
	CollectorURL string `json:"collectorUrl"`
}

// Default returns a Mining configuration with every field set to its default.
func Default() *Mining {
	boolPtr := func(v bool) *bool { return &v }
	return &Mining{
		MinSupport:            100,
		MinInitialSupport:     100,
		MinHeadCoverage:       0.01,
		MinStdConfidence:      0.1,
		MinPCAConfidence:      0.1,
		MaxDepth:              3,
		PruningMetric:         PruneByHeadCoverage,
		NThreads:              runtime.NumCPU(),
		RealTime:              boolPtr(true),
		Skyline:               boolPtr(true),
		PerfectRulePruning:    boolPtr(true),
		AvoidUnboundTypeAtoms: boolPtr(true),
		RecursivityLimit:      3,
	}
}

// Validate checks the configuration for errors. It is called before mining
// starts; a non-nil error means the run must be rejected.
func (cfg *Mining) Validate() error {
	if cfg.MinSupport < 0 {
		return fmt.Errorf("minSupport must be non-negative, got %d", cfg.MinSupport)
	}
	if cfg.MinInitialSupport < 0 {
		return fmt.Errorf("minInitialSupport must be non-negative, got %d", cfg.MinInitialSupport)
	}
	if cfg.MinHeadCoverage < 0 || cfg.MinHeadCoverage > 1 {
		return fmt.Errorf("minHeadCoverage must be in [0,1], got %g", cfg.MinHeadCoverage)
	}
	if cfg.MinStdConfidence < 0 || cfg.MinStdConfidence > 1 {
		return fmt.Errorf("minStdConfidence must be in [0,1], got %g", cfg.MinStdConfidence)
	}
	if cfg.MinPCAConfidence < 0 || cfg.MinPCAConfidence > 1 {
		return fmt.Errorf("minPcaConfidence must be in [0,1], got %g", cfg.MinPCAConfidence)
	}
	if cfg.MaxDepth < 2 {
		return fmt.Errorf("maxDepth must be at least 2, got %d", cfg.MaxDepth)
	}
	switch cfg.PruningMetric {
	case PruneBySupport, PruneByHeadCoverage:
	default:
		return fmt.Errorf("pruningMetric must be %q or %q, got %q",
			PruneBySupport, PruneByHeadCoverage, cfg.PruningMetric)
	}
	if cfg.NThreads < 1 {
		return fmt.Errorf("nThreads must be positive, got %d", cfg.NThreads)
	}
	if cfg.NThreads > runtime.NumCPU() {
		cfg.NThreads = runtime.NumCPU()
	}
	if cfg.RecursivityLimit < 1 {
		return fmt.Errorf("recursivityLimit must be positive, got %d", cfg.RecursivityLimit)
	}
	if cfg.EnforceConstants {
		cfg.AllowConstants = true
	}
	if cfg.Tracing != nil && cfg.Tracing.Type != "jaeger" {
		return fmt.Errorf("tracing.type must be \"jaeger\", got %q", cfg.Tracing.Type)
	}
	return nil
}
