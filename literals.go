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
	"bytes"
	"cmp"
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/google/uuid"
)

// LiteralType is the set of Go types used as the physical representation
// of partition values.
type LiteralType interface {
	bool | int32 | int64 | float32 | float64 | Date |
		Time | Timestamp | string | []byte | uuid.UUID | Decimal
}

// Comparator is a comparison function for specific literal types:
//
//	returns 0 if v1 == v2
//	returns <0 if v1 < v2
//	returns >0 if v1 > v2
type Comparator[T LiteralType] func(v1, v2 T) int

// Literal is a non-null literal value. It can be casted using To and be checked for
// equality against other literals.
type Literal interface {
	fmt.Stringer
	encoding.BinaryMarshaler

	Any() any
	Type() Type
	To(Type) (Literal, error)
	Equals(Literal) bool
}

// TypedLiteral is a generic interface for Literals so that you can retrieve the value.
// This is based on the physical representative type, which means that FixedLiteral and
// BinaryLiteral will both return []byte, etc.
type TypedLiteral[T LiteralType] interface {
	Literal

	Value() T
	Comparator() Comparator[T]
}

// NewLiteral provides a literal based on the type of T
func NewLiteral[T LiteralType](val T) Literal {
	switch v := any(val).(type) {
	case bool:
		return BoolLiteral(v)
	case int32:
		return Int32Literal(v)
	case int64:
		return Int64Literal(v)
	case float32:
		return Float32Literal(v)
	case float64:
		return Float64Literal(v)
	case Date:
		return DateLiteral(v)
	case Time:
		return TimeLiteral(v)
	case Timestamp:
		return TimestampLiteral(v)
	case string:
		return StringLiteral(v)
	case []byte:
		return BinaryLiteral(v)
	case uuid.UUID:
		return UUIDLiteral(v)
	case Decimal:
		return DecimalLiteral(v)
	}
	panic("can't happen due to literal type constraint")
}

func getComparator[T LiteralType]() Comparator[T] {
	var z T

	return NewLiteral(z).(TypedLiteral[T]).Comparator()
}

// LiteralFromBytes decodes an iceberg single-value serialization of typ.
// Lower and upper bounds in a manifest's partition summaries are stored
// this way.
func LiteralFromBytes(typ Type, data []byte) (Literal, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: no data for %s", ErrInvalidBinSerialization, typ)
	}

	var lit interface {
		Literal
		encoding.BinaryUnmarshaler
	}

	switch t := typ.(type) {
	case BooleanType:
		lit = new(BoolLiteral)
	case Int32Type:
		lit = new(Int32Literal)
	case Int64Type:
		lit = new(Int64Literal)
	case Float32Type:
		lit = new(Float32Literal)
	case Float64Type:
		lit = new(Float64Literal)
	case DateType:
		lit = new(DateLiteral)
	case TimeType:
		lit = new(TimeLiteral)
	case TimestampType, TimestampTzType:
		lit = new(TimestampLiteral)
	case StringType:
		lit = new(StringLiteral)
	case BinaryType:
		lit = new(BinaryLiteral)
	case UUIDType:
		lit = new(UUIDLiteral)
	case FixedType:
		// some writers truncate fixed bounds, pad them back out
		if len(data) < t.Len() {
			padded := make([]byte, t.Len())
			copy(padded, data)
			data = padded
		}
		lit = new(FixedLiteral)
	case DecimalType:
		lit = &DecimalLiteral{Scale: t.scale}
	default:
		return nil, fmt.Errorf("%w: cannot decode bytes for %s", ErrType, typ)
	}

	if err := lit.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	// dereference so callers always see value literals
	switch v := lit.(type) {
	case *BoolLiteral:
		return *v, nil
	case *Int32Literal:
		return *v, nil
	case *Int64Literal:
		return *v, nil
	case *Float32Literal:
		return *v, nil
	case *Float64Literal:
		return *v, nil
	case *DateLiteral:
		return *v, nil
	case *TimeLiteral:
		return *v, nil
	case *TimestampLiteral:
		return *v, nil
	case *StringLiteral:
		return *v, nil
	case *BinaryLiteral:
		return *v, nil
	case *UUIDLiteral:
		return *v, nil
	case *FixedLiteral:
		return *v, nil
	case *DecimalLiteral:
		return *v, nil
	}

	panic("unreachable")
}

// convenience to avoid repeating this pattern for primitive types
func literalEq[L interface {
	comparable
	LiteralType
}, T TypedLiteral[L]](lhs T, other Literal) bool {
	rhs, ok := other.(T)
	if !ok {
		return false
	}

	return lhs.Value() == rhs.Value()
}

// putLE returns the low width bytes of bits in little-endian order.
func putLE(width int, bits uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, bits)

	return out[:width]
}

func readLE(data []byte, width int, what string) (uint64, error) {
	if len(data) != width {
		return 0, fmt.Errorf("%w: expected %d bytes for %s value, got %d",
			ErrInvalidBinSerialization, width, what, len(data))
	}

	if width == 4 {
		return uint64(binary.LittleEndian.Uint32(data)), nil
	}

	return binary.LittleEndian.Uint64(data), nil
}

func badCast(from Literal, to Type, err error) error {
	if err != nil {
		return fmt.Errorf("%w: casting '%s' to %s: %w", ErrBadCast, from, to, err)
	}

	return fmt.Errorf("%w: %T to %s", ErrBadCast, from, to)
}

func intToDecimal(v int64, t DecimalType) (Literal, error) {
	val := decimal128.FromI64(v)
	if t.scale == 0 {
		return DecimalLiteral{Val: val}, nil
	}

	out, err := val.Rescale(0, int32(t.scale))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to cast to %s: %w", ErrBadCast, t, err)
	}

	return DecimalLiteral{Val: out, Scale: t.scale}, nil
}

type BoolLiteral bool

func (BoolLiteral) Comparator() Comparator[bool] {
	return func(v1, v2 bool) int {
		switch {
		case v1 == v2:
			return 0
		case v1:
			return 1
		default:
			return -1
		}
	}
}

func (b BoolLiteral) Any() any       { return b.Value() }
func (b BoolLiteral) Type() Type     { return PrimitiveTypes.Bool }
func (b BoolLiteral) Value() bool    { return bool(b) }
func (b BoolLiteral) String() string { return strconv.FormatBool(bool(b)) }
func (b BoolLiteral) To(t Type) (Literal, error) {
	if _, ok := t.(BooleanType); ok {
		return b, nil
	}

	return nil, badCast(b, t, nil)
}

func (b BoolLiteral) Equals(l Literal) bool { return literalEq(b, l) }

func (b BoolLiteral) MarshalBinary() ([]byte, error) {
	if b {
		return []byte{0x1}, nil
	}

	return []byte{0x0}, nil
}

func (b *BoolLiteral) UnmarshalBinary(data []byte) error {
	// 0x00 is false, anything else is true
	if len(data) < 1 {
		return fmt.Errorf("%w: expected at least 1 byte for bool", ErrInvalidBinSerialization)
	}
	*b = data[0] != 0

	return nil
}

type Int32Literal int32

func (Int32Literal) Comparator() Comparator[int32] { return cmp.Compare[int32] }
func (i Int32Literal) Type() Type                  { return PrimitiveTypes.Int32 }
func (i Int32Literal) Value() int32                { return int32(i) }
func (i Int32Literal) Any() any                    { return i.Value() }
func (i Int32Literal) String() string              { return strconv.FormatInt(int64(i), 10) }
func (i Int32Literal) To(t Type) (Literal, error) {
	return Int64Literal(i).To(t)
}

func (i Int32Literal) Equals(other Literal) bool { return literalEq(i, other) }

func (i Int32Literal) MarshalBinary() ([]byte, error) {
	return putLE(4, uint64(uint32(i))), nil
}

func (i *Int32Literal) UnmarshalBinary(data []byte) error {
	v, err := readLE(data, 4, "int32")
	*i = Int32Literal(uint32(v))

	return err
}

type Int64Literal int64

func (Int64Literal) Comparator() Comparator[int64] { return cmp.Compare[int64] }
func (i Int64Literal) Type() Type                  { return PrimitiveTypes.Int64 }
func (i Int64Literal) Value() int64                { return int64(i) }
func (i Int64Literal) Any() any                    { return i.Value() }
func (i Int64Literal) String() string              { return strconv.FormatInt(int64(i), 10) }
func (i Int64Literal) To(t Type) (Literal, error) {
	switch t := t.(type) {
	case Int32Type:
		if i > math.MaxInt32 || i < math.MinInt32 {
			return nil, fmt.Errorf("%w: %d overflows int", ErrBadCast, i)
		}

		return Int32Literal(i), nil
	case Int64Type:
		return i, nil
	case Float32Type:
		return Float32Literal(i), nil
	case Float64Type:
		return Float64Literal(i), nil
	case DateType:
		if i > math.MaxInt32 || i < math.MinInt32 {
			return nil, fmt.Errorf("%w: %d overflows date", ErrBadCast, i)
		}

		return DateLiteral(i), nil
	case TimeType:
		return TimeLiteral(i), nil
	case TimestampType, TimestampTzType:
		return TimestampLiteral(i), nil
	case DecimalType:
		return intToDecimal(int64(i), t)
	}

	return nil, badCast(i, t, nil)
}

func (i Int64Literal) Equals(other Literal) bool { return literalEq(i, other) }

func (i Int64Literal) MarshalBinary() ([]byte, error) {
	return putLE(8, uint64(i)), nil
}

func (i *Int64Literal) UnmarshalBinary(data []byte) error {
	v, err := readLE(data, 8, "int64")
	*i = Int64Literal(v)

	return err
}

type Float32Literal float32

func (Float32Literal) Comparator() Comparator[float32] { return cmp.Compare[float32] }
func (f Float32Literal) Type() Type                    { return PrimitiveTypes.Float32 }
func (f Float32Literal) Value() float32                { return float32(f) }
func (f Float32Literal) Any() any                      { return f.Value() }
func (f Float32Literal) String() string                { return strconv.FormatFloat(float64(f), 'g', -1, 32) }
func (f Float32Literal) To(t Type) (Literal, error) {
	if _, ok := t.(Float32Type); ok {
		return f, nil
	}

	return Float64Literal(f).To(t)
}

func (f Float32Literal) Equals(other Literal) bool { return literalEq(f, other) }

func (f Float32Literal) MarshalBinary() ([]byte, error) {
	return putLE(4, uint64(math.Float32bits(float32(f)))), nil
}

func (f *Float32Literal) UnmarshalBinary(data []byte) error {
	v, err := readLE(data, 4, "float32")
	*f = Float32Literal(math.Float32frombits(uint32(v)))

	return err
}

type Float64Literal float64

func (Float64Literal) Comparator() Comparator[float64] { return cmp.Compare[float64] }
func (f Float64Literal) Type() Type                    { return PrimitiveTypes.Float64 }
func (f Float64Literal) Value() float64                { return float64(f) }
func (f Float64Literal) Any() any                      { return f.Value() }
func (f Float64Literal) String() string                { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float64Literal) To(t Type) (Literal, error) {
	switch t := t.(type) {
	case Float32Type:
		if math.Abs(float64(f)) > math.MaxFloat32 && !math.IsInf(float64(f), 0) {
			return nil, fmt.Errorf("%w: %s overflows float", ErrBadCast, f)
		}

		return Float32Literal(f), nil
	case Float64Type:
		return f, nil
	case DecimalType:
		v, err := decimal128.FromFloat64(float64(f), int32(t.precision), int32(t.scale))
		if err != nil {
			return nil, badCast(f, t, err)
		}

		return DecimalLiteral{Val: v, Scale: t.scale}, nil
	}

	return nil, badCast(f, t, nil)
}

func (f Float64Literal) Equals(other Literal) bool { return literalEq(f, other) }

func (f Float64Literal) MarshalBinary() ([]byte, error) {
	return putLE(8, math.Float64bits(float64(f))), nil
}

func (f *Float64Literal) UnmarshalBinary(data []byte) error {
	v, err := readLE(data, 8, "float64")
	*f = Float64Literal(math.Float64frombits(v))

	return err
}

type DateLiteral Date

func (DateLiteral) Comparator() Comparator[Date] { return cmp.Compare[Date] }
func (d DateLiteral) Type() Type                 { return PrimitiveTypes.Date }
func (d DateLiteral) Value() Date                { return Date(d) }
func (d DateLiteral) Any() any                   { return d.Value() }
func (d DateLiteral) String() string             { return Date(d).ToTime().Format(time.DateOnly) }
func (d DateLiteral) To(t Type) (Literal, error) {
	if _, ok := t.(DateType); ok {
		return d, nil
	}

	return nil, badCast(d, t, nil)
}

func (d DateLiteral) Equals(other Literal) bool { return literalEq(d, other) }

func (d DateLiteral) MarshalBinary() ([]byte, error) {
	return putLE(4, uint64(uint32(d))), nil
}

func (d *DateLiteral) UnmarshalBinary(data []byte) error {
	v, err := readLE(data, 4, "date")
	*d = DateLiteral(int32(uint32(v)))

	return err
}

type TimeLiteral Time

func (TimeLiteral) Comparator() Comparator[Time] { return cmp.Compare[Time] }
func (t TimeLiteral) Type() Type                 { return PrimitiveTypes.Time }
func (t TimeLiteral) Value() Time                { return Time(t) }
func (t TimeLiteral) Any() any                   { return t.Value() }
func (t TimeLiteral) String() string             { return Time(t).ToTime().Format("15:04:05.000000") }
func (t TimeLiteral) To(typ Type) (Literal, error) {
	if _, ok := typ.(TimeType); ok {
		return t, nil
	}

	return nil, badCast(t, typ, nil)
}

func (t TimeLiteral) Equals(other Literal) bool { return literalEq(t, other) }

func (t TimeLiteral) MarshalBinary() ([]byte, error) {
	return putLE(8, uint64(t)), nil
}

func (t *TimeLiteral) UnmarshalBinary(data []byte) error {
	v, err := readLE(data, 8, "time")
	*t = TimeLiteral(v)

	return err
}

type TimestampLiteral Timestamp

func (TimestampLiteral) Comparator() Comparator[Timestamp] { return cmp.Compare[Timestamp] }
func (t TimestampLiteral) Type() Type                      { return PrimitiveTypes.Timestamp }
func (t TimestampLiteral) Value() Timestamp                { return Timestamp(t) }
func (t TimestampLiteral) Any() any                        { return t.Value() }
func (t TimestampLiteral) String() string {
	return Timestamp(t).ToTime().Format("2006-01-02 15:04:05.000000")
}

func (t TimestampLiteral) To(typ Type) (Literal, error) {
	switch typ.(type) {
	case TimestampType, TimestampTzType:
		return t, nil
	case DateType:
		return DateLiteral(Timestamp(t).ToDate()), nil
	}

	return nil, badCast(t, typ, nil)
}

func (t TimestampLiteral) Equals(other Literal) bool { return literalEq(t, other) }

func (t TimestampLiteral) MarshalBinary() ([]byte, error) {
	return putLE(8, uint64(t)), nil
}

func (t *TimestampLiteral) UnmarshalBinary(data []byte) error {
	v, err := readLE(data, 8, "timestamp")
	*t = TimestampLiteral(v)

	return err
}

type StringLiteral string

func (StringLiteral) Comparator() Comparator[string] { return cmp.Compare[string] }
func (s StringLiteral) Type() Type                   { return PrimitiveTypes.String }
func (s StringLiteral) Value() string                { return string(s) }
func (s StringLiteral) Any() any                     { return s.Value() }
func (s StringLiteral) String() string               { return string(s) }

// To parses the string as a value of typ. This is how filter values read
// from text are turned into typed literals.
func (s StringLiteral) To(typ Type) (Literal, error) {
	str := string(s)
	switch t := typ.(type) {
	case StringType:
		return s, nil
	case BooleanType:
		v, err := strconv.ParseBool(str)
		if err != nil {
			return nil, badCast(s, typ, err)
		}

		return BoolLiteral(v), nil
	case Int32Type, Int64Type, DecimalType:
		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			return Int64Literal(n).To(typ)
		} else if dt, ok := t.(DecimalType); ok {
			v, err := decimal128.FromString(str, int32(dt.precision), int32(dt.scale))
			if err != nil {
				return nil, badCast(s, typ, err)
			}

			return DecimalLiteral{Val: v, Scale: dt.scale}, nil
		} else {
			return nil, badCast(s, typ, err)
		}
	case Float32Type, Float64Type:
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, badCast(s, typ, err)
		}

		return Float64Literal(v).To(typ)
	case DateType:
		tm, err := time.Parse(time.DateOnly, str)
		if err != nil {
			return nil, badCast(s, typ, err)
		}

		return DateLiteral(Timestamp(tm.UnixMicro()).ToDate()), nil
	case TimeType:
		v, err := arrow.Time64FromString(str, arrow.Microsecond)
		if err != nil {
			return nil, badCast(s, typ, err)
		}

		return TimeLiteral(v), nil
	case TimestampType:
		tm, err := time.Parse("2006-01-02T15:04:05.999999", str)
		if err != nil {
			return nil, badCast(s, typ, err)
		}

		return TimestampLiteral(tm.UTC().UnixMicro()), nil
	case TimestampTzType:
		tm, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, badCast(s, typ, err)
		}

		return TimestampLiteral(tm.UTC().UnixMicro()), nil
	case UUIDType:
		v, err := uuid.Parse(str)
		if err != nil {
			return nil, badCast(s, typ, err)
		}

		return UUIDLiteral(v), nil
	case BinaryType:
		return BinaryLiteral(str), nil
	case FixedType:
		return BinaryLiteral(str).To(t)
	}

	return nil, badCast(s, typ, nil)
}

func (s StringLiteral) Equals(other Literal) bool { return literalEq(s, other) }

func (s StringLiteral) MarshalBinary() ([]byte, error) {
	if len(s) == 0 {
		return []byte{}, nil
	}

	// UTF-8 bytes without a length, shares the string's memory
	return unsafe.Slice(unsafe.StringData(string(s)), len(s)), nil
}

func (s *StringLiteral) UnmarshalBinary(data []byte) error {
	// takes ownership of data
	*s = StringLiteral(unsafe.String(unsafe.SliceData(data), len(data)))

	return nil
}

// bytesTo handles the casts shared by binary, fixed and uuid values.
func bytesTo(from Literal, b []byte, typ Type) (Literal, error) {
	switch t := typ.(type) {
	case BinaryType:
		return BinaryLiteral(b), nil
	case FixedType:
		if len(b) != t.len {
			return nil, fmt.Errorf("%w: cannot convert %d bytes to %s",
				ErrBadCast, len(b), typ)
		}

		return FixedLiteral(b), nil
	case UUIDType:
		v, err := uuid.FromBytes(b)
		if err != nil {
			return nil, badCast(from, typ, err)
		}

		return UUIDLiteral(v), nil
	}

	return nil, badCast(from, typ, nil)
}

type BinaryLiteral []byte

func (BinaryLiteral) Comparator() Comparator[[]byte] { return bytes.Compare }
func (b BinaryLiteral) Type() Type                   { return PrimitiveTypes.Binary }
func (b BinaryLiteral) Value() []byte                { return []byte(b) }
func (b BinaryLiteral) Any() any                     { return b.Value() }
func (b BinaryLiteral) String() string               { return string(b) }
func (b BinaryLiteral) To(typ Type) (Literal, error) { return bytesTo(b, b, typ) }

func (b BinaryLiteral) Equals(other Literal) bool {
	rhs, ok := other.(BinaryLiteral)

	return ok && bytes.Equal(b, rhs)
}

func (b BinaryLiteral) MarshalBinary() ([]byte, error) { return b, nil }

func (b *BinaryLiteral) UnmarshalBinary(data []byte) error {
	*b = BinaryLiteral(data)

	return nil
}

type FixedLiteral []byte

func (FixedLiteral) Comparator() Comparator[[]byte] { return bytes.Compare }
func (f FixedLiteral) Type() Type                   { return FixedTypeOf(len(f)) }
func (f FixedLiteral) Value() []byte                { return []byte(f) }
func (f FixedLiteral) Any() any                     { return f.Value() }
func (f FixedLiteral) String() string               { return string(f) }
func (f FixedLiteral) To(typ Type) (Literal, error) { return bytesTo(f, f, typ) }

func (f FixedLiteral) Equals(other Literal) bool {
	rhs, ok := other.(FixedLiteral)

	return ok && bytes.Equal(f, rhs)
}

func (f FixedLiteral) MarshalBinary() ([]byte, error) { return f, nil }

func (f *FixedLiteral) UnmarshalBinary(data []byte) error {
	*f = FixedLiteral(data)

	return nil
}

type UUIDLiteral uuid.UUID

func (UUIDLiteral) Comparator() Comparator[uuid.UUID] {
	return func(v1, v2 uuid.UUID) int {
		return bytes.Compare(v1[:], v2[:])
	}
}

func (UUIDLiteral) Type() Type         { return PrimitiveTypes.UUID }
func (u UUIDLiteral) Value() uuid.UUID { return uuid.UUID(u) }
func (u UUIDLiteral) Any() any         { return u.Value() }
func (u UUIDLiteral) String() string   { return uuid.UUID(u).String() }
func (u UUIDLiteral) To(typ Type) (Literal, error) {
	if _, ok := typ.(UUIDType); ok {
		return u, nil
	}

	return bytesTo(u, u[:], typ)
}

func (u UUIDLiteral) Equals(other Literal) bool {
	rhs, ok := other.(UUIDLiteral)

	return ok && u == rhs
}

func (u UUIDLiteral) MarshalBinary() ([]byte, error) {
	return uuid.UUID(u).MarshalBinary()
}

func (u *UUIDLiteral) UnmarshalBinary(data []byte) error {
	// 16-byte big-endian
	out, err := uuid.FromBytes(data)
	if err != nil {
		return errors.Join(ErrInvalidBinSerialization, err)
	}
	*u = UUIDLiteral(out)

	return nil
}

type DecimalLiteral Decimal

func (DecimalLiteral) Comparator() Comparator[Decimal] {
	return func(v1, v2 Decimal) int {
		if v1.Scale == v2.Scale {
			return v1.Val.Cmp(v2.Val)
		}

		rescaled, err := v2.Val.Rescale(int32(v2.Scale), int32(v1.Scale))
		if err != nil {
			return cmp.Compare(v1.Val.ToFloat64(int32(v1.Scale)), v2.Val.ToFloat64(int32(v2.Scale)))
		}

		return v1.Val.Cmp(rescaled)
	}
}

func (d DecimalLiteral) Type() Type     { return DecimalTypeOf(38, d.Scale) }
func (d DecimalLiteral) Value() Decimal { return Decimal(d) }
func (d DecimalLiteral) Any() any       { return d.Value() }
func (d DecimalLiteral) String() string { return Decimal(d).String() }

func (d DecimalLiteral) To(t Type) (Literal, error) {
	dt, ok := t.(DecimalType)
	if !ok {
		return nil, badCast(d, t, nil)
	}

	if d.Scale == dt.scale {
		return d, nil
	}

	out, err := d.Val.Rescale(int32(d.Scale), int32(dt.scale))
	if err != nil {
		return nil, badCast(d, t, err)
	}

	return DecimalLiteral{Val: out, Scale: dt.scale}, nil
}

func (d DecimalLiteral) Equals(other Literal) bool {
	rhs, ok := other.(DecimalLiteral)
	if !ok {
		return false
	}

	return d.Comparator()(Decimal(d), Decimal(rhs)) == 0
}

func (d DecimalLiteral) MarshalBinary() ([]byte, error) {
	// unscaled two's complement big-endian using the minimum number of bytes
	n := d.Val.BigInt()
	data := n.FillBytes(make([]byte, (n.BitLen()+8)/8))
	if n.Sign() < 0 {
		twosComplement(data)
	}

	return data, nil
}

func (d *DecimalLiteral) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		d.Val = decimal128.Num{}

		return nil
	}

	if int8(data[0]) >= 0 {
		d.Val = decimal128.FromBigInt(new(big.Int).SetBytes(data))

		return nil
	}

	out := bytes.Clone(data)
	twosComplement(out)
	v := new(big.Int).SetBytes(out)
	d.Val = decimal128.FromBigInt(v.Neg(v))

	return nil
}

// twosComplement negates a big-endian magnitude in place.
func twosComplement(data []byte) {
	for i, v := range data {
		data[i] = ^v
	}

	for i := len(data) - 1; i >= 0; i-- {
		data[i]++
		if data[i] != 0 {
			break
		}
	}
}
