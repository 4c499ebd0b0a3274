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

package table

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/lakehouse-tools/iceberg-prune"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 5

type keyDefaultMap[K comparable, V any] struct {
	defaultFactory func(K) V
	data           map[K]V

	mx sync.RWMutex
}

func (k *keyDefaultMap[K, V]) Get(key K) V {
	k.mx.RLock()
	if v, ok := k.data[key]; ok {
		k.mx.RUnlock()

		return v
	}

	k.mx.RUnlock()
	k.mx.Lock()
	defer k.mx.Unlock()

	if v, ok := k.data[key]; ok {
		return v
	}

	v := k.defaultFactory(key)
	k.data[key] = v

	return v
}

func newKeyDefaultMap[K comparable, V any](factory func(K) V) *keyDefaultMap[K, V] {
	return &keyDefaultMap[K, V]{
		data:           make(map[K]V),
		defaultFactory: factory,
	}
}

// PlannerOptions configures NewPlanner.
type PlannerOptions struct {
	// FilterForSpec returns the partition filter bound to the fields of the
	// given partition spec. It is called once per spec ID.
	FilterForSpec func(specID int32) (iceberg.BooleanExpression, error)
	// RewriteNot is passed to every ManifestEvaluator the planner builds.
	RewriteNot bool
	// Concurrency limits how many manifests are evaluated at once. Zero
	// means DefaultConcurrency.
	Concurrency int

	Logger     log.Logger
	Registerer prometheus.Registerer
}

type plannerMetrics struct {
	evaluated  prometheus.Counter
	skipped    prometheus.Counter
	evalErrors prometheus.Counter
}

func newPlannerMetrics(reg prometheus.Registerer) *plannerMetrics {
	return &plannerMetrics{
		evaluated: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "iceberg_prune",
			Name:      "manifests_evaluated_total",
			Help:      "Total number of manifests evaluated against a partition filter.",
		}),
		skipped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "iceberg_prune",
			Name:      "manifests_skipped_total",
			Help:      "Total number of manifests proven to hold no matching rows.",
		}),
		evalErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "iceberg_prune",
			Name:      "manifest_eval_errors_total",
			Help:      "Total number of manifests whose evaluation failed.",
		}),
	}
}

type evaluatorResult struct {
	eval *ManifestEvaluator
	err  error
}

// Planner filters the manifest list of a scan, building one
// ManifestEvaluator per partition spec.
type Planner struct {
	concurrency int
	logger      log.Logger
	metrics     *plannerMetrics

	evaluators *keyDefaultMap[int32, evaluatorResult]
}

// Verdict is the outcome of evaluating one manifest.
type Verdict struct {
	Manifest   iceberg.ManifestFile
	MightMatch bool
}

func NewPlanner(opts PlannerOptions) (*Planner, error) {
	if opts.FilterForSpec == nil {
		return nil, fmt.Errorf("%w: planner requires FilterForSpec", iceberg.ErrInvalidArgument)
	}

	if opts.Concurrency < 0 {
		return nil, fmt.Errorf("%w: concurrency must not be negative, got %d",
			iceberg.ErrInvalidArgument, opts.Concurrency)
	}

	p := &Planner{
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		metrics:     newPlannerMetrics(opts.Registerer),
	}

	if p.concurrency == 0 {
		p.concurrency = DefaultConcurrency
	}

	if p.logger == nil {
		p.logger = log.NewNopLogger()
	}

	p.evaluators = newKeyDefaultMap(func(specID int32) evaluatorResult {
		filter, err := opts.FilterForSpec(specID)
		if err != nil {
			return evaluatorResult{err: fmt.Errorf("partition spec %d: %w", specID, err)}
		}

		eval, err := NewManifestEvaluator(ManifestEvaluatorOptions{
			Filter:     filter,
			RewriteNot: opts.RewriteNot,
		})
		if err != nil {
			return evaluatorResult{err: fmt.Errorf("partition spec %d: %w", specID, err)}
		}

		level.Debug(p.logger).Log("msg", "built manifest evaluator",
			"spec_id", specID, "filter", eval.Filter())

		return evaluatorResult{eval: eval}
	})

	return p, nil
}

// Evaluate decides for each manifest whether it might hold matching rows.
// Verdicts are returned in input order. The first evaluation error stops
// the run.
func (p *Planner) Evaluate(ctx context.Context, manifests []iceberg.ManifestFile) ([]Verdict, error) {
	verdicts := make([]Verdict, len(manifests))
	if len(manifests) == 0 {
		return verdicts, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(p.concurrency, len(manifests)))

	for i, mf := range manifests {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			use, err := p.evalManifest(mf)
			if err != nil {
				return err
			}

			verdicts[i] = Verdict{Manifest: mf, MightMatch: use}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// the caller may have cancelled before every manifest was scheduled;
	// gctx is always done once Wait returns
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return verdicts, nil
}

func (p *Planner) evalManifest(mf iceberg.ManifestFile) (bool, error) {
	res := p.evaluators.Get(mf.PartitionSpecID())
	if res.err != nil {
		p.metrics.evalErrors.Inc()
		level.Warn(p.logger).Log("msg", "failed to build manifest evaluator",
			"manifest", mf.FilePath(), "spec_id", mf.PartitionSpecID(), "err", res.err)

		return false, res.err
	}

	use, err := res.eval.Eval(mf)
	if err != nil {
		p.metrics.evalErrors.Inc()
		level.Warn(p.logger).Log("msg", "failed to evaluate manifest",
			"manifest", mf.FilePath(), "spec_id", mf.PartitionSpecID(), "err", err)

		return false, fmt.Errorf("manifest %s: %w", mf.FilePath(), err)
	}

	p.metrics.evaluated.Inc()
	if !use {
		p.metrics.skipped.Inc()
		level.Debug(p.logger).Log("msg", "skipping manifest",
			"manifest", mf.FilePath(), "spec_id", mf.PartitionSpecID())
	}

	return use, nil
}

// PruneManifests returns the manifests that might hold rows matching the
// partition filter, in input order.
func (p *Planner) PruneManifests(ctx context.Context, manifests []iceberg.ManifestFile) ([]iceberg.ManifestFile, error) {
	verdicts, err := p.Evaluate(ctx, manifests)
	if err != nil {
		return nil, err
	}

	kept := make([]iceberg.ManifestFile, 0, len(verdicts))
	for _, v := range verdicts {
		if v.MightMatch {
			kept = append(kept, v.Manifest)
		}
	}

	level.Info(p.logger).Log("msg", "pruned manifests",
		"total", len(manifests), "kept", len(kept), "skipped", len(manifests)-len(kept))

	return kept, nil
}
