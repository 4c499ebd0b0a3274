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
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/go-kit/log"
	"github.com/lakehouse-tools/iceberg-prune"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PlannerTestSuite struct {
	suite.Suite

	reg *prometheus.Registry
	buf *bytes.Buffer
}

func (s *PlannerTestSuite) SetupTest() {
	s.reg = prometheus.NewRegistry()
	s.buf = &bytes.Buffer{}
}

// idManifest returns a manifest whose only partition field is an int
// ranging over [lower, upper].
func idManifest(path string, specID int32, lower, upper int32) iceberg.ManifestFile {
	lo, _ := iceberg.Int32Literal(lower).MarshalBinary()
	hi, _ := iceberg.Int32Literal(upper).MarshalBinary()

	return iceberg.NewManifestSummary(path, specID, []iceberg.FieldSummary{
		{LowerBound: &lo, UpperBound: &hi},
	})
}

var idField = iceberg.NestedField{ID: 1000, Name: "id_part", Type: iceberg.PrimitiveTypes.Int32, Required: true}

func (s *PlannerTestSuite) planner(filter iceberg.BooleanExpression, rewrite bool) *Planner {
	p, err := NewPlanner(PlannerOptions{
		FilterForSpec: func(int32) (iceberg.BooleanExpression, error) { return filter, nil },
		RewriteNot:    rewrite,
		Concurrency:   2,
		Logger:        log.NewLogfmtLogger(log.NewSyncWriter(s.buf)),
		Registerer:    s.reg,
	})
	s.Require().NoError(err)

	return p
}

func (s *PlannerTestSuite) TestPruneManifests() {
	idRef := iceberg.NewBoundReference(idField, 0)
	p := s.planner(iceberg.GreaterThanEqual(idRef, int32(50)), false)

	manifests := []iceberg.ManifestFile{
		idManifest("m0", 0, 0, 10),
		idManifest("m1", 0, 40, 60),
		idManifest("m2", 0, 20, 49),
		idManifest("m3", 0, 50, 50),
		iceberg.NewManifestSummary("m4", 0, nil),
	}

	kept, err := p.PruneManifests(context.Background(), manifests)
	s.Require().NoError(err)

	paths := make([]string, 0, len(kept))
	for _, m := range kept {
		paths = append(paths, m.FilePath())
	}
	s.Equal([]string{"m1", "m3", "m4"}, paths)

	s.Equal(5.0, testutil.ToFloat64(p.metrics.evaluated))
	s.Equal(2.0, testutil.ToFloat64(p.metrics.skipped))
	s.Equal(0.0, testutil.ToFloat64(p.metrics.evalErrors))
	s.Contains(s.buf.String(), "msg=\"pruned manifests\" total=5 kept=3 skipped=2")

	count, err := testutil.GatherAndCount(s.reg,
		"iceberg_prune_manifests_evaluated_total",
		"iceberg_prune_manifests_skipped_total",
		"iceberg_prune_manifest_eval_errors_total")
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *PlannerTestSuite) TestEvaluateOrder() {
	idRef := iceberg.NewBoundReference(idField, 0)
	p := s.planner(iceberg.LessThan(idRef, int32(100)), false)

	manifests := make([]iceberg.ManifestFile, 0, 64)
	for i := range int32(64) {
		manifests = append(manifests, idManifest(fmt.Sprintf("m%02d", i), 0, i*10, i*10+9))
	}

	verdicts, err := p.Evaluate(context.Background(), manifests)
	s.Require().NoError(err)
	s.Require().Len(verdicts, len(manifests))

	for i, v := range verdicts {
		s.Same(manifests[i], v.Manifest)
		s.Equal(i < 10, v.MightMatch, v.Manifest.FilePath())
	}

	verdicts, err = p.Evaluate(context.Background(), nil)
	s.NoError(err)
	s.Empty(verdicts)
}

func (s *PlannerTestSuite) TestNotWithoutRewrite() {
	idRef := iceberg.NewBoundReference(idField, 0)
	filter := iceberg.NewNot(iceberg.LessThan(idRef, int32(25)))

	manifests := []iceberg.ManifestFile{idManifest("m0", 0, 30, 79)}

	_, err := s.planner(filter, false).PruneManifests(context.Background(), manifests)
	s.ErrorIs(err, ErrNotUnsupported)
	s.ErrorContains(err, "manifest m0")
	s.Contains(s.buf.String(), "level=warn")

	s.SetupTest()
	kept, err := s.planner(filter, true).PruneManifests(context.Background(), manifests)
	s.Require().NoError(err)
	s.Len(kept, 1)
}

func (s *PlannerTestSuite) TestEvaluatorPerSpec() {
	var calls atomic.Int32
	refs := map[int32]iceberg.BoundReference{
		0: iceberg.NewBoundReference(idField, 0),
		1: iceberg.NewBoundReference(iceberg.NestedField{
			ID: 1001, Name: "id_bucket", Type: iceberg.PrimitiveTypes.Int32, Required: true}, 1),
	}

	p, err := NewPlanner(PlannerOptions{
		FilterForSpec: func(specID int32) (iceberg.BooleanExpression, error) {
			calls.Add(1)
			ref, ok := refs[specID]
			if !ok {
				return nil, errors.New("unknown partition spec")
			}

			return iceberg.EqualTo(ref, int32(7)), nil
		},
		Concurrency: 4,
		Registerer:  s.reg,
	})
	s.Require().NoError(err)

	lo, hi := []byte{0, 0, 0, 0}, []byte{9, 0, 0, 0}
	twoFields := func(path string) iceberg.ManifestFile {
		return iceberg.NewManifestSummary(path, 1, []iceberg.FieldSummary{
			{LowerBound: &hi, UpperBound: &hi},
			{LowerBound: &lo, UpperBound: &hi},
		})
	}

	manifests := []iceberg.ManifestFile{
		idManifest("a", 0, 0, 5),
		twoFields("b"),
		idManifest("c", 0, 6, 8),
		twoFields("d"),
	}

	verdicts, err := p.Evaluate(context.Background(), manifests)
	s.Require().NoError(err)
	s.Equal([]bool{false, true, true, true}, []bool{
		verdicts[0].MightMatch, verdicts[1].MightMatch,
		verdicts[2].MightMatch, verdicts[3].MightMatch,
	})
	s.EqualValues(2, calls.Load())

	_, err = p.Evaluate(context.Background(), []iceberg.ManifestFile{idManifest("x", 9, 0, 1)})
	s.ErrorContains(err, "partition spec 9: unknown partition spec")
	s.Equal(1.0, testutil.ToFloat64(p.metrics.evalErrors))
}

func (s *PlannerTestSuite) TestEvaluateReusable() {
	p := s.planner(iceberg.AlwaysTrue{}, false)
	manifests := []iceberg.ManifestFile{iceberg.NewManifestSummary("m0", 0, nil)}

	for range 2 {
		verdicts, err := p.Evaluate(context.Background(), manifests)
		s.Require().NoError(err)
		s.Require().Len(verdicts, 1)
		s.True(verdicts[0].MightMatch)
		s.Equal("m0", verdicts[0].Manifest.FilePath())
	}
}

func (s *PlannerTestSuite) TestFilterErrorLogged() {
	p, err := NewPlanner(PlannerOptions{
		FilterForSpec: func(int32) (iceberg.BooleanExpression, error) {
			return nil, errors.New("unknown partition spec")
		},
		Logger:     log.NewLogfmtLogger(log.NewSyncWriter(s.buf)),
		Registerer: s.reg,
	})
	s.Require().NoError(err)

	_, err = p.Evaluate(context.Background(), []iceberg.ManifestFile{idManifest("x", 3, 0, 1)})
	s.ErrorContains(err, "partition spec 3")
	s.Contains(s.buf.String(), "level=warn")
	s.Contains(s.buf.String(), "spec_id=3")
	s.Contains(s.buf.String(), "manifest=x")
}

func (s *PlannerTestSuite) TestCancelled() {
	idRef := iceberg.NewBoundReference(idField, 0)
	p := s.planner(iceberg.LessThan(idRef, int32(100)), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Evaluate(ctx, []iceberg.ManifestFile{idManifest("m0", 0, 0, 1)})
	s.ErrorIs(err, context.Canceled)
}

func TestPlanner(t *testing.T) {
	suite.Run(t, new(PlannerTestSuite))
}

func TestNewPlannerOptions(t *testing.T) {
	_, err := NewPlanner(PlannerOptions{})
	assert.ErrorIs(t, err, iceberg.ErrInvalidArgument)

	_, err = NewPlanner(PlannerOptions{
		FilterForSpec: func(int32) (iceberg.BooleanExpression, error) { return iceberg.AlwaysTrue{}, nil },
		Concurrency:   -1,
	})
	assert.ErrorIs(t, err, iceberg.ErrInvalidArgument)

	p, err := NewPlanner(PlannerOptions{
		FilterForSpec: func(int32) (iceberg.BooleanExpression, error) { return iceberg.AlwaysTrue{}, nil },
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultConcurrency, p.concurrency)

	kept, err := p.PruneManifests(context.Background(), []iceberg.ManifestFile{idManifest("m0", 0, 0, 1)})
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
