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

package iceberg_test

import (
	"math"
	"testing"

	"github.com/lakehouse-tools/iceberg-prune"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBound(t *testing.T, typ iceberg.Type, b *[]byte) iceberg.Literal {
	t.Helper()
	require.NotNil(t, b)

	lit, err := iceberg.LiteralFromBytes(typ, *b)
	require.NoError(t, err)

	return lit
}

func TestSummarizePartitions(t *testing.T) {
	types := []iceberg.PrimitiveType{
		iceberg.PrimitiveTypes.Int32,
		iceberg.PrimitiveTypes.String,
		iceberg.PrimitiveTypes.Float64,
		iceberg.PrimitiveTypes.Date,
	}

	rows := []iceberg.Row{
		{int32(5), "eu-west", 1.5, iceberg.Date(19783)},
		{int32(-2), nil, math.NaN(), iceberg.DateLiteral(19790)},
		{int32(9), "ap-south", -0.5, nil},
		{iceberg.Int32Literal(3), iceberg.StringLiteral("us-east"), nil, iceberg.Date(19700)},
	}

	summaries, err := iceberg.SummarizePartitions(types, rows)
	require.NoError(t, err)
	require.Len(t, summaries, 4)

	ints := summaries[0]
	assert.False(t, ints.ContainsNull)
	assert.Equal(t, iceberg.NaNAbsent, ints.ContainsNaN)
	assert.Equal(t, iceberg.Int32Literal(-2), decodeBound(t, types[0], ints.LowerBound))
	assert.Equal(t, iceberg.Int32Literal(9), decodeBound(t, types[0], ints.UpperBound))

	strs := summaries[1]
	assert.True(t, strs.ContainsNull)
	assert.Equal(t, iceberg.StringLiteral("ap-south"), decodeBound(t, types[1], strs.LowerBound))
	assert.Equal(t, iceberg.StringLiteral("us-east"), decodeBound(t, types[1], strs.UpperBound))

	// NaN is recorded but never becomes a bound
	floats := summaries[2]
	assert.True(t, floats.ContainsNull)
	assert.Equal(t, iceberg.NaNPresent, floats.ContainsNaN)
	assert.Equal(t, iceberg.Float64Literal(-0.5), decodeBound(t, types[2], floats.LowerBound))
	assert.Equal(t, iceberg.Float64Literal(1.5), decodeBound(t, types[2], floats.UpperBound))

	days := summaries[3]
	assert.True(t, days.ContainsNull)
	assert.Equal(t, iceberg.DateLiteral(19700), decodeBound(t, types[3], days.LowerBound))
	assert.Equal(t, iceberg.DateLiteral(19790), decodeBound(t, types[3], days.UpperBound))
}

func TestSummarizePartitionsNoValues(t *testing.T) {
	types := []iceberg.PrimitiveType{iceberg.PrimitiveTypes.Float32, iceberg.PrimitiveTypes.Int64}

	summaries, err := iceberg.SummarizePartitions(types, []iceberg.Row{
		{nil, nil},
		{float32(math.NaN()), nil},
	})
	require.NoError(t, err)

	assert.Equal(t, iceberg.FieldSummary{ContainsNull: true, ContainsNaN: iceberg.NaNPresent}, summaries[0])
	assert.Equal(t, iceberg.FieldSummary{ContainsNull: true, ContainsNaN: iceberg.NaNAbsent}, summaries[1])
	assert.True(t, summaries[1].AllNull(types[1]))
	// only NaN and null values, so not every value is null
	assert.False(t, summaries[0].AllNull(types[0]))

	empty, err := iceberg.SummarizePartitions(types, nil)
	require.NoError(t, err)
	assert.Equal(t, iceberg.FieldSummary{ContainsNaN: iceberg.NaNAbsent}, empty[0])
}

func TestSummarizePartitionsErrors(t *testing.T) {
	types := []iceberg.PrimitiveType{iceberg.PrimitiveTypes.Int32, iceberg.PrimitiveTypes.String}

	_, err := iceberg.SummarizePartitions(types, []iceberg.Row{{int32(1)}})
	assert.ErrorIs(t, err, iceberg.ErrInvalidArgument)

	_, err = iceberg.SummarizePartitions(types, []iceberg.Row{{"one", "two"}})
	assert.ErrorIs(t, err, iceberg.ErrType)
	assert.ErrorContains(t, err, "partition row 0, field 0")
}
