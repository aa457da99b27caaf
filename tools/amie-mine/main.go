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

// Command amie-mine mines Horn-clause association rules from TSV fact files.
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/lnhutnam/amie/config"
	"github.com/lnhutnam/amie/kb"
	"github.com/lnhutnam/amie/mining"
	"github.com/lnhutnam/amie/mining/assistant"
	"github.com/lnhutnam/amie/util/debuglog"
	"github.com/lnhutnam/amie/util/profiling"
	"github.com/lnhutnam/amie/util/random"
	"github.com/lnhutnam/amie/util/tracing"
)

func main() {
	debuglog.Configure(debuglog.Options{})
	random.SeedMath()
	cfgFile := flag.String("cfg", "", "Mining config file (JSON); defaults apply if omitted")
	output := flag.String("output", "", "File to write rules to (stdout by default)")
	seedsArg := flag.String("seeds", "", "Comma-separated target head relations")
	typeRel := flag.String("typerel", "rdf:type", "Name of the schema type relation")
	cpuProfile := flag.String("cpuprofile", "", "File to write a CPU profile to")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("No input fact file has been provided")
	}

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			log.Fatalf("Unable to load configuration: %v", err)
		}
	}

	if *cpuProfile != "" {
		stop, err := profiling.CPUProfile(*cpuProfile)
		if err != nil {
			log.Fatalf("Unable to start CPU profiling: %v", err)
		}
		defer stop()
	}

	tracer, err := tracing.New("amie-mine", cfg.Tracing)
	if err != nil {
		log.Fatalf("Unable to initialize distributed tracing: %v", err)
	}
	defer tracer.Close()

	store := kb.New()
	store.SetTypeRelation(*typeRel)
	if err := store.LoadFiles(flag.Args()); err != nil {
		log.Fatalf("Unable to load facts: %v", err)
	}
	if cfg.Verbose {
		store.PrettyPrintStats(os.Stderr)
	}

	if cfg.UpperBoundPruning {
		log.Infof("Building overlap tables for confidence approximation with %d threads", cfg.NThreads)
		if err := store.BuildOverlapTables(context.Background(), cfg.NThreads); err != nil {
			log.Fatalf("Unable to build overlap tables: %v", err)
		}
	}

	var seeds []int32
	if *seedsArg != "" {
		for _, name := range strings.Split(*seedsArg, ",") {
			id, ok := store.Dictionary().Lookup(strings.TrimSpace(name))
			if !ok {
				log.Fatalf("Unknown seed relation %q", name)
			}
			seeds = append(seeds, id)
		}
	}

	sink := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Unable to create output file: %v", err)
		}
		defer f.Close()
		sink = f
		log.Infof("Writing rules to file %v", *output)
	}

	a, err := assistant.NewDefault(store, cfg)
	if err != nil {
		log.Fatalf("Unable to initialize mining assistant: %v", err)
	}
	defer a.Close()
	miner := mining.New(a, cfg,
		mining.WithSeeds(seeds),
		mining.WithMetrics(mining.NewMetrics(prometheus.DefaultRegisterer)))

	mined, err := miner.Mine(context.Background(), sink)
	if err != nil {
		log.Fatalf("Error writing rules: %v", err)
	}
	if cfg.RealTime != nil && !*cfg.RealTime {
		if err := miner.EmitAll(sink, mined); err != nil {
			log.Fatalf("Error writing rules: %v", err)
		}
	}
	log.Infof("%d rules mined.", len(mined))
}
