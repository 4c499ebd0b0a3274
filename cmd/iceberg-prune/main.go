// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/docopt/docopt-go"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/lakehouse-tools/iceberg-prune"
	"github.com/lakehouse-tools/iceberg-prune/config"
	"github.com/lakehouse-tools/iceberg-prune/table"
	"github.com/prometheus/client_golang/prometheus"
)

const usage = `iceberg-prune.

Usage:
  iceberg-prune prune [options] FIXTURE
  iceberg-prune filter [options] FIXTURE
  iceberg-prune -h | --help | --version

Commands:
  prune     Evaluate the partition filter against every manifest of the fixture.
  filter    Show the bound partition filter per spec, with negations rewritten.

Arguments:
  FIXTURE   path to a YAML file with partition specs, a filter and manifests

Options:
  -h --help          	show this help messages and exit
  --output TYPE      	output type (json/text)
  --rewrite-not      	rewrite Not nodes away before evaluating
  --workers N        	number of manifests evaluated concurrently
  --verify           	check skipped manifests against their partition tuples
  --profile NAME     	profile to use from the configuration file
  --config TEXT      	specify the path to the configuration file
  --log-level LEVEL  	log level (debug/info/warn/error)`

type Config struct {
	Prune  bool `docopt:"prune"`
	Filter bool `docopt:"filter"`

	Fixture string `docopt:"FIXTURE"`

	Output     string `docopt:"--output"`
	RewriteNot bool   `docopt:"--rewrite-not"`
	Workers    string `docopt:"--workers"`
	Verify     bool   `docopt:"--verify"`
	Profile    string `docopt:"--profile"`
	Config     string `docopt:"--config"`
	LogLevel   string `docopt:"--log-level"`
}

func main() {
	ctx := context.Background()
	args, err := docopt.ParseArgs(usage, os.Args[1:], iceberg.Version())
	if err != nil {
		log.Fatal(err)
	}

	cfg := Config{}

	if err := args.Bind(&cfg); err != nil {
		log.Fatal(err)
	}

	if cfg.Profile == "" {
		cfg.Profile = config.EnvConfig.DefaultProfile
	}

	fileCfg := config.ParseConfig(config.LoadConfig(cfg.Config), cfg.Profile)
	if fileCfg != nil {
		mergeConf(fileCfg, &cfg)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = config.EnvConfig.LogLevel
	}

	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	workers := config.EnvConfig.MaxWorkers
	if cfg.Workers != "" {
		if workers, err = strconv.Atoi(cfg.Workers); err != nil || workers <= 0 {
			log.Fatalf("invalid --workers value %q", cfg.Workers)
		}
	}

	var output Output
	switch strings.ToLower(cfg.Output) {
	case "text", "":
		output = textOutput{}
	case "json":
		output = jsonOutput{}
	default:
		log.Fatal("unimplemented output type")
	}

	fx, err := readFixture(cfg.Fixture)
	if err != nil {
		output.Error(err)
		os.Exit(1)
	}

	switch {
	case cfg.Prune:
		reports, err := prune(ctx, fx, pruneOptions{
			rewriteNot: cfg.RewriteNot,
			workers:    workers,
			verify:     cfg.Verify,
			logger:     logger,
			registerer: prometheus.NewRegistry(),
		})
		if err != nil {
			output.Error(err)
			os.Exit(1)
		}

		output.Manifests(reports)
	case cfg.Filter:
		filters, err := describeFilters(fx)
		if err != nil {
			output.Error(err)
			os.Exit(1)
		}

		output.Filters(filters)
	}
}

func mergeConf(fileConf *config.ProfileConfig, resConfig *Config) {
	if len(resConfig.Output) == 0 {
		resConfig.Output = fileConf.Output
	}
	if !resConfig.RewriteNot {
		resConfig.RewriteNot = fileConf.RewriteNot
	}
	if !resConfig.Verify {
		resConfig.Verify = fileConf.Verify
	}
}

func newLogger(w io.Writer, lvl string) (kitlog.Logger, error) {
	var opt level.Option
	switch strings.ToLower(lvl) {
	case "debug":
		opt = level.AllowDebug()
	case "info", "":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, fmt.Errorf("%w: unknown log level %q", iceberg.ErrInvalidArgument, lvl)
	}

	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)

	return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller), nil
}

type pruneOptions struct {
	rewriteNot bool
	workers    int
	verify     bool
	logger     kitlog.Logger
	registerer prometheus.Registerer
}

// prune binds the fixture's filter to each partition spec and evaluates
// every manifest with a table.Planner.
func prune(ctx context.Context, fx *fixture, opts pruneOptions) ([]manifestReport, error) {
	specs, err := fx.specs()
	if err != nil {
		return nil, err
	}

	loaded, err := fx.manifests(specs)
	if err != nil {
		return nil, err
	}

	planner, err := table.NewPlanner(table.PlannerOptions{
		FilterForSpec: func(specID int32) (iceberg.BooleanExpression, error) {
			return fx.Filter.bind(specs[specID])
		},
		RewriteNot:  opts.rewriteNot,
		Concurrency: opts.workers,
		Logger:      opts.logger,
		Registerer:  opts.registerer,
	})
	if err != nil {
		return nil, err
	}

	manifests := make([]iceberg.ManifestFile, len(loaded))
	for i, m := range loaded {
		manifests[i] = m.ManifestSummary
	}

	verdicts, err := planner.Evaluate(ctx, manifests)
	if err != nil {
		return nil, err
	}

	reports := newReports(verdicts)
	if !opts.verify {
		return reports, nil
	}

	for i, m := range loaded {
		if reports[i].MightMatch || len(m.rows) == 0 {
			continue
		}

		filter, err := fx.Filter.bind(specs[m.SpecID])
		if err != nil {
			return nil, err
		}

		matching, err := countMatching(filter, m.rows)
		if err != nil {
			return nil, fmt.Errorf("verify manifest %s: %w", m.Path, err)
		}

		reports[i].Verified = true
		reports[i].MatchingRows = matching
		if matching > 0 {
			level.Error(opts.logger).Log("msg", "skipped manifest holds matching rows",
				"manifest", m.Path, "rows", matching)
		}
	}

	return reports, nil
}

func countMatching(filter iceberg.BooleanExpression, rows []iceberg.Row) (int, error) {
	eval, err := iceberg.NewRowEvaluator(filter)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, r := range rows {
		ok, err := eval(r)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}

	return n, nil
}

func describeFilters(fx *fixture) ([]specFilter, error) {
	specs, err := fx.specs()
	if err != nil {
		return nil, err
	}

	ids := make([]int32, 0, len(specs))
	for id := range specs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]specFilter, 0, len(ids))
	for _, id := range ids {
		bound, err := fx.Filter.bind(specs[id])
		if err != nil {
			return nil, err
		}

		rewritten, err := iceberg.RewriteNotExpr(bound)
		if err != nil {
			return nil, err
		}

		out = append(out, specFilter{SpecID: id, Filter: bound.String(), Rewritten: rewritten.String()})
	}

	return out, nil
}
