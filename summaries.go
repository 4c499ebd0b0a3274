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

package iceberg

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

type fieldStats interface {
	toSummary() (FieldSummary, error)
	update(value any) error
}

type partitionFieldStats[T LiteralType] struct {
	containsNull bool
	containsNaN  bool
	min, max     *T

	cmp Comparator[T]
}

func newPartitionFieldStats[T LiteralType]() fieldStats {
	return &partitionFieldStats[T]{cmp: getComparator[T]()}
}

func newFieldStats(typ PrimitiveType) (fieldStats, error) {
	switch typ.(type) {
	case BooleanType:
		return newPartitionFieldStats[bool](), nil
	case Int32Type:
		return newPartitionFieldStats[int32](), nil
	case Int64Type:
		return newPartitionFieldStats[int64](), nil
	case Float32Type:
		return newPartitionFieldStats[float32](), nil
	case Float64Type:
		return newPartitionFieldStats[float64](), nil
	case StringType:
		return newPartitionFieldStats[string](), nil
	case DateType:
		return newPartitionFieldStats[Date](), nil
	case TimeType:
		return newPartitionFieldStats[Time](), nil
	case TimestampType, TimestampTzType:
		return newPartitionFieldStats[Timestamp](), nil
	case UUIDType:
		return newPartitionFieldStats[uuid.UUID](), nil
	case BinaryType, FixedType:
		return newPartitionFieldStats[[]byte](), nil
	case DecimalType:
		return newPartitionFieldStats[Decimal](), nil
	}

	return nil, fmt.Errorf("%w: expected primitive type for partition field, got %s",
		ErrType, typ)
}

func (p *partitionFieldStats[T]) toSummary() (FieldSummary, error) {
	encode := func(v *T) (*[]byte, error) {
		if v == nil {
			return nil, nil
		}

		b, err := NewLiteral(*v).MarshalBinary()
		if err != nil {
			return nil, err
		}

		// an empty value is still a bound
		if b == nil {
			b = []byte{}
		}

		return &b, nil
	}

	lower, err := encode(p.min)
	if err != nil {
		return FieldSummary{}, err
	}

	upper, err := encode(p.max)
	if err != nil {
		return FieldSummary{}, err
	}

	nan := NaNAbsent
	if p.containsNaN {
		nan = NaNPresent
	}

	return FieldSummary{
		ContainsNull: p.containsNull,
		ContainsNaN:  nan,
		LowerBound:   lower,
		UpperBound:   upper,
	}, nil
}

func (p *partitionFieldStats[T]) update(value any) error {
	var val T
	switch v := value.(type) {
	case nil:
		p.containsNull = true

		return nil
	case T:
		val = v
	case TypedLiteral[T]:
		val = v.Value()
	default:
		rv := reflect.ValueOf(value)
		if !rv.CanConvert(reflect.TypeOf(val)) {
			return fmt.Errorf("%w: expected type %T, got %T", ErrType, val, value)
		}
		val = rv.Convert(reflect.TypeOf(val)).Interface().(T)
	}

	// NaN never contributes to the bounds
	if isNaN(val) {
		p.containsNaN = true

		return nil
	}

	switch {
	case p.min == nil:
		p.min, p.max = &val, &val
	case p.cmp(val, *p.min) < 0:
		p.min = &val
	case p.cmp(val, *p.max) > 0:
		p.max = &val
	}

	return nil
}

// SummarizePartitions computes the field summaries a manifest records for
// the given partition tuples. Each row holds one value per type, with nil
// for null.
func SummarizePartitions(types []PrimitiveType, rows []Row) ([]FieldSummary, error) {
	stats := make([]fieldStats, len(types))
	for i, typ := range types {
		st, err := newFieldStats(typ)
		if err != nil {
			return nil, err
		}
		stats[i] = st
	}

	for n, row := range rows {
		if len(row) != len(types) {
			return nil, fmt.Errorf("%w: partition row %d has %d values, expected %d",
				ErrInvalidArgument, n, len(row), len(types))
		}

		for i, st := range stats {
			if err := st.update(row[i]); err != nil {
				return nil, fmt.Errorf("partition row %d, field %d: %w", n, i, err)
			}
		}
	}

	summaries := make([]FieldSummary, len(stats))
	for i, st := range stats {
		s, err := st.toSummary()
		if err != nil {
			return nil, err
		}
		summaries[i] = s
	}

	return summaries, nil
}
