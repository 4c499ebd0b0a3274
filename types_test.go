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
	"github.com/stretchr/testify/require"
)

func TestParsePrimitiveType(t *testing.T) {
	tests := []struct {
		name     string
		expected iceberg.PrimitiveType
	}{
		{"boolean", iceberg.PrimitiveTypes.Bool},
		{"int", iceberg.PrimitiveTypes.Int32},
		{"long", iceberg.PrimitiveTypes.Int64},
		{"float", iceberg.PrimitiveTypes.Float32},
		{"double", iceberg.PrimitiveTypes.Float64},
		{"date", iceberg.PrimitiveTypes.Date},
		{"time", iceberg.PrimitiveTypes.Time},
		{"timestamp", iceberg.PrimitiveTypes.Timestamp},
		{"timestamptz", iceberg.PrimitiveTypes.TimestampTz},
		{"string", iceberg.PrimitiveTypes.String},
		{"binary", iceberg.PrimitiveTypes.Binary},
		{"uuid", iceberg.PrimitiveTypes.UUID},
		{" Long ", iceberg.PrimitiveTypes.Int64},
		{"fixed[16]", iceberg.FixedTypeOf(16)},
		{"fixed[ 3 ]", iceberg.FixedTypeOf(3)},
		{"decimal(9, 2)", iceberg.DecimalTypeOf(9, 2)},
		{"decimal(38,0)", iceberg.DecimalTypeOf(38, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := iceberg.ParsePrimitiveType(tt.name)
			require.NoError(t, err)
			assert.True(t, typ.Equals(tt.expected), typ.String())
		})
	}

	for _, bad := range []string{"varchar", "", "fixed[]", "decimal(39, 2)", "decimal(4, 5)", "list<int>"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := iceberg.ParsePrimitiveType(bad)
			assert.ErrorIs(t, err, iceberg.ErrInvalidTypeString)
		})
	}
}

func TestParameterizedTypes(t *testing.T) {
	fixed := iceberg.FixedTypeOf(5)
	assert.Equal(t, 5, fixed.Len())
	assert.Equal(t, "fixed[5]", fixed.String())
	assert.True(t, fixed.Equals(iceberg.FixedTypeOf(5)))
	assert.False(t, fixed.Equals(iceberg.FixedTypeOf(6)))
	assert.False(t, fixed.Equals(iceberg.PrimitiveTypes.Binary))

	dec := iceberg.DecimalTypeOf(9, 2)
	assert.Equal(t, 9, dec.Precision())
	assert.Equal(t, 2, dec.Scale())
	assert.Equal(t, "decimal(9, 2)", dec.String())
	assert.True(t, dec.Equals(iceberg.DecimalTypeOf(9, 2)))
	assert.False(t, dec.Equals(iceberg.DecimalTypeOf(9, 3)))
}

func TestNonParameterizedTypeEquality(t *testing.T) {
	types := []iceberg.PrimitiveType{
		iceberg.PrimitiveTypes.Bool, iceberg.PrimitiveTypes.Int32,
		iceberg.PrimitiveTypes.Int64, iceberg.PrimitiveTypes.Float32,
		iceberg.PrimitiveTypes.Float64, iceberg.PrimitiveTypes.Date,
		iceberg.PrimitiveTypes.Time, iceberg.PrimitiveTypes.Timestamp,
		iceberg.PrimitiveTypes.TimestampTz, iceberg.PrimitiveTypes.String,
		iceberg.PrimitiveTypes.Binary, iceberg.PrimitiveTypes.UUID,
	}

	for i, lhs := range types {
		for j, rhs := range types {
			assert.Equal(t, i == j, lhs.Equals(rhs), "%s == %s", lhs, rhs)
		}
	}
}

func TestNestedField(t *testing.T) {
	field := iceberg.NestedField{
		ID: 1000, Name: "order_day", Type: iceberg.PrimitiveTypes.Date,
		Required: true, Doc: "day of the order",
	}

	assert.Equal(t, "1000: order_day: required date (day of the order)", field.String())

	other := field
	assert.True(t, field.Equals(other))

	other.Required = false
	assert.False(t, field.Equals(other))
	assert.Equal(t, "1000: order_day: optional date (day of the order)", other.String())

	other = field
	other.Type = iceberg.PrimitiveTypes.Timestamp
	assert.False(t, field.Equals(other))
}

func TestTimestampToDate(t *testing.T) {
	assert.Equal(t, iceberg.Date(0), iceberg.Timestamp(0).ToDate())
	assert.Equal(t, iceberg.Date(1), iceberg.Timestamp(86_400_000_000).ToDate())
	// days before the epoch round down
	assert.Equal(t, iceberg.Date(-1), iceberg.Timestamp(-1).ToDate())
	assert.Equal(t, "1970-01-02", iceberg.Date(1).ToTime().Format("2006-01-02"))
}
