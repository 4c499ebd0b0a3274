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
	"testing"

	"github.com/lakehouse-tools/iceberg-prune"
	"github.com/stretchr/testify/assert"
)

func TestNaNStatusOf(t *testing.T) {
	yes, no := true, false

	assert.Equal(t, iceberg.NaNUnknown, iceberg.NaNStatusOf(nil))
	assert.Equal(t, iceberg.NaNPresent, iceberg.NaNStatusOf(&yes))
	assert.Equal(t, iceberg.NaNAbsent, iceberg.NaNStatusOf(&no))

	assert.False(t, iceberg.NaNUnknown.Known())
	assert.True(t, iceberg.NaNPresent.Known())
	assert.True(t, iceberg.NaNAbsent.Known())

	// the zero value is unknown
	var zero iceberg.FieldSummary
	assert.Equal(t, iceberg.NaNUnknown, zero.ContainsNaN)
	assert.Equal(t, "unknown", zero.ContainsNaN.String())
}

func TestFieldSummaryAllNull(t *testing.T) {
	bound := []byte{0x1, 0x0, 0x0, 0x0}

	tests := []struct {
		name     string
		summary  iceberg.FieldSummary
		typ      iceberg.Type
		expected bool
	}{
		{"nulls without bounds", iceberg.FieldSummary{ContainsNull: true}, iceberg.PrimitiveTypes.Int32, true},
		{"no nulls", iceberg.FieldSummary{}, iceberg.PrimitiveTypes.Int32, false},
		{"nulls with bounds", iceberg.FieldSummary{ContainsNull: true, LowerBound: &bound, UpperBound: &bound},
			iceberg.PrimitiveTypes.Int32, false},
		{"float nan unknown", iceberg.FieldSummary{ContainsNull: true}, iceberg.PrimitiveTypes.Float32, false},
		{"float nan present", iceberg.FieldSummary{ContainsNull: true, ContainsNaN: iceberg.NaNPresent},
			iceberg.PrimitiveTypes.Float64, false},
		{"float nan absent", iceberg.FieldSummary{ContainsNull: true, ContainsNaN: iceberg.NaNAbsent},
			iceberg.PrimitiveTypes.Float64, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.summary.AllNull(tt.typ))
		})
	}
}

func TestFieldSummaryString(t *testing.T) {
	lower, upper := []byte{0x1, 0x0}, []byte{0xff}

	assert.Equal(t, "FieldSummary(contains_null=true, contains_nan=absent, lower=0100, upper=ff)",
		iceberg.FieldSummary{
			ContainsNull: true, ContainsNaN: iceberg.NaNAbsent,
			LowerBound: &lower, UpperBound: &upper,
		}.String())

	assert.Equal(t, "FieldSummary(contains_null=false, contains_nan=present, lower=none, upper=none)",
		iceberg.FieldSummary{ContainsNaN: iceberg.NaNPresent}.String())
}

func TestManifestSummary(t *testing.T) {
	summaries := []iceberg.FieldSummary{{ContainsNull: true}}

	var m iceberg.ManifestFile = iceberg.NewManifestSummary("s3://bucket/metadata/m0.avro", 3, summaries)

	assert.Equal(t, "s3://bucket/metadata/m0.avro", m.FilePath())
	assert.EqualValues(t, 3, m.PartitionSpecID())
	assert.Equal(t, summaries, m.Partitions())

	assert.Nil(t, iceberg.NewManifestSummary("m1", 0, nil).Partitions())
}
