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
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/lnhutnam/amie/config"
	"github.com/lnhutnam/amie/kb"
	"github.com/lnhutnam/amie/mining/assistant"
	"github.com/lnhutnam/amie/rules"
	"github.com/lnhutnam/amie/util/clocks"
	"github.com/lnhutnam/amie/util/cmp"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestMiner wires a store and a default assistant into a miner.
func newTestMiner(t *testing.T, st *kb.Store, edit func(*config.Mining), options ...Option) (*Miner, *config.Mining) {
	cfg := config.Default()
	if edit != nil {
		edit(cfg)
	}
	require.NoError(t, cfg.Validate())
	a, err := assistant.NewDefault(st, cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return New(a, cfg, options...), cfg
}

func ruleTexts(st *kb.Store, mined []*rules.Rule) []string {
	f := rules.Formatter{Namer: st.Dictionary()}
	out := make([]string, len(mined))
	for i, r := range mined {
		out[i] = f.RuleText(r)
	}
	return out
}

// The two-fact KB from the engine's end-to-end contract: a single person born
// and living in the same place yields the two equivalence rules with all
// confidences 1.
func Test_Mine_toyEquivalence(t *testing.T) {
	st := kb.New()
	st.Add("a", "livesIn", "X")
	st.Add("a", "bornIn", "X")

	miner, _ := newTestMiner(t, st, func(cfg *config.Mining) {
		cfg.MinInitialSupport = 1
		cfg.MinHeadCoverage = 1.0
		cfg.MaxDepth = 2
		cfg.NThreads = 1
	})
	var sink bytes.Buffer
	mined, err := miner.Mine(context.Background(), &sink)
	require.NoError(t, err)

	require.Len(t, mined, 2)
	assert.ElementsMatch(t, []string{
		"?a  bornIn  ?b   => ?a  livesIn  ?b",
		"?a  livesIn  ?b   => ?a  bornIn  ?b",
	}, ruleTexts(st, mined))
	for _, r := range mined {
		assert.Equal(t, 1, r.Support)
		assert.Equal(t, 1.0, r.StdConfidence)
		assert.Equal(t, 1.0, r.PCAConfidence)
		assert.LessOrEqual(t, r.RealLength(), 2)
	}
}

// equivalenceStore builds n identical (si, ci) pairs under two relations.
func equivalenceStore(n int) *kb.Store {
	st := kb.New()
	for i := 0; i < n; i++ {
		s := fmt.Sprintf("s%d", i)
		c := fmt.Sprintf("c%d", i)
		st.Add(s, "bornIn", c)
		st.Add(s, "isCitizenOf", c)
	}
	return st
}

func Test_Mine_equivalenceRelations(t *testing.T) {
	st := equivalenceStore(100)
	miner, _ := newTestMiner(t, st, func(cfg *config.Mining) {
		cfg.PruningMetric = config.PruneBySupport
		cfg.MinSupport = 50
		cfg.MinInitialSupport = 50
		cfg.MinStdConfidence = 0.9
	})
	mined, err := miner.Mine(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	require.Len(t, mined, 2)
	for _, r := range mined {
		assert.Equal(t, 100, r.Support)
		assert.Equal(t, 1.0, r.StdConfidence)
		assert.Equal(t, 1.0, r.PCAConfidence)
		assert.True(t, r.Perfect)
	}
}

func Test_Mine_thresholdAboveKB(t *testing.T) {
	st := equivalenceStore(100)
	miner, _ := newTestMiner(t, st, func(cfg *config.Mining) {
		cfg.PruningMetric = config.PruneBySupport
		cfg.MinSupport = 200
		cfg.MinInitialSupport = 200
	})
	mined, err := miner.Mine(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, mined)
}

func Test_Mine_emptyKB(t *testing.T) {
	miner, _ := newTestMiner(t, kb.New(), func(cfg *config.Mining) {
		cfg.NThreads = 4
	}, WithClock(clocks.NewMock()))
	var sink bytes.Buffer
	mined, err := miner.Mine(context.Background(), &sink)
	require.NoError(t, err)
	assert.Empty(t, mined)
	// the consumer still writes the header
	assert.Contains(t, sink.String(), "Rule\t")
}

func Test_Mine_seededHeads(t *testing.T) {
	st := equivalenceStore(100)
	bornIn, ok := st.Dictionary().Lookup("bornIn")
	require.True(t, ok)

	miner, _ := newTestMiner(t, st, func(cfg *config.Mining) {
		cfg.PruningMetric = config.PruneBySupport
		cfg.MinSupport = 50
		cfg.MinInitialSupport = 50
	}, WithSeeds([]int32{bornIn}))
	mined, err := miner.Mine(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	require.Len(t, mined, 1)
	assert.Equal(t, bornIn, mined[0].Head().Relation)
}

// randomStore builds a reproducible pseudo-random KB over three relations.
func randomStore(seed int64) *kb.Store {
	rng := rand.New(rand.NewSource(seed))
	st := kb.New()
	relations := []string{"r0", "r1", "r2"}
	for i := 0; i < 300; i++ {
		s := fmt.Sprintf("e%d", rng.Intn(40))
		o := fmt.Sprintf("e%d", rng.Intn(40))
		st.Add(s, relations[rng.Intn(len(relations))], o)
	}
	return st
}

// The emitted rule set must not depend on the worker count. Skyline is
// disabled here: it tests against the ancestors published so far, which is
// inherently schedule dependent.
func Test_Mine_workerCountInvariance(t *testing.T) {
	mine := func(nThreads int) map[string]bool {
		st := randomStore(42)
		no := false
		miner, _ := newTestMiner(t, st, func(cfg *config.Mining) {
			cfg.PruningMetric = config.PruneBySupport
			cfg.MinSupport = 3
			cfg.MinInitialSupport = 3
			cfg.MinStdConfidence = 0.01
			cfg.MinPCAConfidence = 0.01
			cfg.NThreads = nThreads
			cfg.Skyline = &no
			cfg.RealTime = &no
		})
		mined, err := miner.Mine(context.Background(), nil)
		require.NoError(t, err)
		keys := make(map[string]bool, len(mined))
		for _, r := range mined {
			keys[cmp.GetKey(r)] = true
		}
		// publication would have panicked on a structural duplicate; check
		// canonical-key uniqueness here as well
		require.Len(t, keys, len(mined))
		return keys
	}

	sequential := mine(1)
	concurrent := mine(8)
	assert.Equal(t, sequential, concurrent)
	assert.NotEmpty(t, sequential)
}

func Test_Mine_realTimeStreaming(t *testing.T) {
	st := equivalenceStore(100)
	edit := func(cfg *config.Mining) {
		cfg.PruningMetric = config.PruneBySupport
		cfg.MinSupport = 50
		cfg.MinInitialSupport = 50
		cfg.NThreads = 2
	}

	t.Run("enabled", func(t *testing.T) {
		miner, _ := newTestMiner(t, st, edit)
		var sink bytes.Buffer
		mined, err := miner.Mine(context.Background(), &sink)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimRight(sink.String(), "\n"), "\n")
		require.Len(t, lines, len(mined)+1)
		assert.True(t, strings.HasPrefix(lines[0], "Rule\t"))
		f := rules.Formatter{Namer: st.Dictionary()}
		for i, r := range mined {
			// emission preserves publication order, exactly once
			assert.Equal(t, f.Format(r), lines[i+1])
		}
	})

	t.Run("disabled", func(t *testing.T) {
		no := false
		miner, _ := newTestMiner(t, st, func(cfg *config.Mining) {
			edit(cfg)
			cfg.RealTime = &no
		})
		var sink bytes.Buffer
		mined, err := miner.Mine(context.Background(), &sink)
		require.NoError(t, err)
		// nothing was streamed during mining
		assert.Zero(t, sink.Len())

		require.NoError(t, miner.EmitAll(&sink, mined))
		lines := strings.Split(strings.TrimRight(sink.String(), "\n"), "\n")
		assert.Len(t, lines, len(mined)+1)
	})
}

func Test_Mine_emittedInvariants(t *testing.T) {
	st := randomStore(7)
	miner, cfg := newTestMiner(t, st, func(cfg *config.Mining) {
		cfg.PruningMetric = config.PruneBySupport
		cfg.MinSupport = 5
		cfg.MinInitialSupport = 5
		cfg.NThreads = 4
	})
	mined, err := miner.Mine(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)

	for _, r := range mined {
		assert.GreaterOrEqual(t, r.Support, cfg.MinSupport)
		if !r.Perfect {
			assert.GreaterOrEqual(t, r.StdConfidence, cfg.MinStdConfidence)
			assert.GreaterOrEqual(t, r.PCAConfidence, cfg.MinPCAConfidence)
		}
		assert.LessOrEqual(t, r.RealLength(), cfg.MaxDepth)
		assert.Greater(t, r.BodyCardinality, 0)
		assert.Greater(t, r.PCABodyCardinality, 0)
	}
}

func Test_Mine_maxDepthTwo(t *testing.T) {
	st := randomStore(11)
	miner, _ := newTestMiner(t, st, func(cfg *config.Mining) {
		cfg.PruningMetric = config.PruneBySupport
		cfg.MinSupport = 5
		cfg.MinInitialSupport = 5
		cfg.MaxDepth = 2
		cfg.NThreads = 2
	})
	mined, err := miner.Mine(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	for _, r := range mined {
		assert.Equal(t, 2, r.Length())
	}
}

// failingAssistant wraps an assistant and fails every operator application;
// the engine must log, drop the rule's children and run to quiescence.
type failingAssistant struct {
	assistant.Assistant
}

func (f *failingAssistant) ApplyOperators(*rules.Rule, float64) (map[string][]*rules.Rule, error) {
	return nil, fmt.Errorf("operator exploded")
}

func Test_Mine_operatorErrorsAreDropped(t *testing.T) {
	st := equivalenceStore(100)
	cfg := config.Default()
	cfg.PruningMetric = config.PruneBySupport
	cfg.MinSupport = 50
	cfg.MinInitialSupport = 50
	cfg.NThreads = 2
	require.NoError(t, cfg.Validate())
	inner, err := assistant.NewDefault(st, cfg)
	require.NoError(t, err)
	t.Cleanup(inner.Close)

	miner := New(&failingAssistant{Assistant: inner}, cfg)
	mined, err := miner.Mine(context.Background(), &bytes.Buffer{})
	require.NoError(t, err)
	// seeds could not be refined, so nothing closed was ever evaluated
	assert.Empty(t, mined)
}
