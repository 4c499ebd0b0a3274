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
	"math"
	"testing"

	"github.com/lakehouse-tools/iceberg-prune"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property-based tests checking that pruning never skips a manifest
// holding a matching partition tuple.

var (
	propFields = []iceberg.NestedField{
		{ID: 1, Name: "bucket", Type: iceberg.PrimitiveTypes.Int32},
		{ID: 2, Name: "score", Type: iceberg.PrimitiveTypes.Float64},
		{ID: 3, Name: "region", Type: iceberg.PrimitiveTypes.String},
	}
	propTypes = []iceberg.PrimitiveType{
		iceberg.PrimitiveTypes.Int32,
		iceberg.PrimitiveTypes.Float64,
		iceberg.PrimitiveTypes.String,
	}
	propStrings = []string{
		"", "a", "aa", "ab", "abc", "b", "ba", "bb", "c", "ca",
		"eu", "eu-", "eu-west", "eu-central", "us", "us-east", "z", "za", "zz", "zzz",
	}
)

const nullCell, nanCell = -1, 20

// propRows turns generated cells into partition tuples, three cells per row.
func propRows(cells []int) []iceberg.Row {
	rows := make([]iceberg.Row, 0, len(cells)/3)
	for i := 0; i+2 < len(cells); i += 3 {
		row := make(iceberg.Row, 3)
		if c := cells[i]; c != nullCell {
			row[0] = int32(c)
		}

		switch c := cells[i+1]; c {
		case nullCell:
		case nanCell:
			row[1] = math.NaN()
		default:
			row[1] = float64(c) / 2
		}

		if c := cells[i+2]; c != nullCell {
			row[2] = propStrings[c%len(propStrings)]
		}
		rows = append(rows, row)
	}

	return rows
}

func propLeaf(op, arg int) iceberg.BooleanExpression {
	bucket := iceberg.NewBoundReference(propFields[0], 0)
	score := iceberg.NewBoundReference(propFields[1], 1)
	region := iceberg.NewBoundReference(propFields[2], 2)

	str := func(n int) string { return propStrings[n%len(propStrings)] }

	switch op {
	case 0:
		return iceberg.IsNull(bucket)
	case 1:
		return iceberg.NotNull(score)
	case 2:
		return iceberg.IsNaN(score)
	case 3:
		return iceberg.NotNaN(score)
	case 4:
		return iceberg.LessThan(bucket, int32(arg))
	case 5:
		return iceberg.LessThanEqual(bucket, int32(arg))
	case 6:
		return iceberg.GreaterThan(score, float64(arg)/2)
	case 7:
		return iceberg.GreaterThanEqual(score, float64(arg)/2)
	case 8:
		return iceberg.EqualTo(bucket, int32(arg))
	case 9:
		return iceberg.NotEqualTo(score, float64(arg)/2)
	case 10:
		return iceberg.StartsWith(region, str(arg))
	case 11:
		return iceberg.NotStartsWith(region, str(arg))
	case 12:
		return iceberg.IsIn(bucket, int32(arg), int32(arg+3), int32(arg+7))
	case 13:
		return iceberg.NotIn(region, str(arg), str(arg+5))
	case 14:
		return iceberg.EqualTo(region, str(arg))
	case 15:
		return iceberg.LessThan(region, str(arg))
	case 16:
		return iceberg.IsNull(region)
	default:
		return iceberg.IsIn(score, float64(arg)/2, float64(arg+1)/2)
	}
}

func propFilter(opA, argA, opB, argB, conn int) iceberg.BooleanExpression {
	a, b := propLeaf(opA, argA), propLeaf(opB, argB)

	switch conn {
	case 0:
		return iceberg.NewAnd(a, b)
	case 1:
		return iceberg.NewOr(a, b)
	case 2:
		return iceberg.NewNot(a)
	default:
		return iceberg.NewNot(iceberg.NewOr(a, iceberg.NewNot(b)))
	}
}

func TestManifestEvaluatorSoundness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("a manifest holding a matching row is never skipped", prop.ForAll(
		func(cells []int, opA, argA, opB, argB, conn int) bool {
			rows := propRows(cells)
			summaries, err := iceberg.SummarizePartitions(propTypes, rows)
			if err != nil {
				return false
			}

			filter := propFilter(opA, argA, opB, argB, conn)
			eval, err := NewManifestEvaluator(ManifestEvaluatorOptions{Filter: filter, RewriteNot: true})
			if err != nil {
				return false
			}

			mightMatch, err := eval.Eval(iceberg.NewManifestSummary("prop.avro", 0, summaries))
			if err != nil {
				return false
			}

			matches, err := iceberg.NewRowEvaluator(filter)
			if err != nil {
				return false
			}

			for _, r := range rows {
				ok, err := matches(r)
				if err != nil {
					return false
				}
				if ok && !mightMatch {
					return false
				}
			}

			return true
		},
		gen.SliceOf(gen.IntRange(nullCell, nanCell)),
		gen.IntRange(0, 17),
		gen.IntRange(0, 19),
		gen.IntRange(0, 17),
		gen.IntRange(0, 19),
		gen.IntRange(0, 3),
	))

	properties.Property("rows outside the bounds never match a skipped manifest", prop.ForAll(
		func(cells []int, op, arg int) bool {
			rows := propRows(cells)
			summaries, err := iceberg.SummarizePartitions(propTypes, rows)
			if err != nil {
				return false
			}

			filter := propLeaf(op, arg)
			eval, err := NewManifestEvaluator(ManifestEvaluatorOptions{Filter: filter})
			if err != nil {
				return false
			}

			mightMatch, err := eval.Eval(iceberg.NewManifestSummary("prop.avro", 0, summaries))
			if err != nil || mightMatch {
				return err == nil
			}

			matches, err := iceberg.NewRowEvaluator(filter)
			if err != nil {
				return false
			}

			for _, r := range rows {
				if ok, _ := matches(r); ok {
					return false
				}
			}

			return true
		},
		gen.SliceOfN(12, gen.IntRange(nullCell, nanCell)),
		gen.IntRange(0, 17),
		gen.IntRange(0, 19),
	))

	properties.TestingRun(t)
}
