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
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
)

var (
	fixedRegex   = regexp.MustCompile(`^fixed\[\s*(\d+)\s*\]$`)
	decimalRegex = regexp.MustCompile(`^decimal\(\s*(\d+)\s*,\s*(\d+)\s*\)$`)

	epochTM = time.Unix(0, 0).UTC()
)

// Type is an interface representing any of the available iceberg types
// that a partition field can carry.
type Type interface {
	fmt.Stringer
	Type() string
	Equals(Type) bool
}

// PrimitiveType is a Type that can be the type of a partition value and
// of the lower and upper bounds recorded for it.
type PrimitiveType interface {
	Type
	primitive()
}

// ParsePrimitiveType returns the primitive type for an iceberg type name such
// as "int", "timestamptz", "fixed[16]" or "decimal(9, 2)".
func ParsePrimitiveType(name string) (PrimitiveType, error) {
	typename := strings.ToLower(strings.TrimSpace(name))
	if t, ok := primitiveTypesByName[typename]; ok {
		return t, nil
	}

	if m := fixedRegex.FindStringSubmatch(typename); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTypeString, name)
		}

		return FixedTypeOf(n), nil
	}

	if m := decimalRegex.FindStringSubmatch(typename); m != nil {
		prec, _ := strconv.Atoi(m[1])
		scale, _ := strconv.Atoi(m[2])
		if prec < 1 || prec > 38 || scale > prec {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTypeString, name)
		}

		return DecimalTypeOf(prec, scale), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidTypeString, name)
}

// NestedField is a named, typed column. Partition fields are described
// with it.
type NestedField struct {
	Type

	ID       int
	Name     string
	Required bool
	Doc      string
}

func optOrReq(required bool) string {
	if required {
		return "required"
	}

	return "optional"
}

func (n NestedField) String() string {
	doc := n.Doc
	if doc != "" {
		doc = " (" + doc + ")"
	}

	return fmt.Sprintf("%d: %s: %s %s%s",
		n.ID, n.Name, optOrReq(n.Required), n.Type, doc)
}

func (n *NestedField) Equals(other NestedField) bool {
	return n.ID == other.ID &&
		n.Name == other.Name &&
		n.Required == other.Required &&
		n.Doc == other.Doc &&
		n.Type.Equals(other.Type)
}

func FixedTypeOf(n int) FixedType { return FixedType{len: n} }

// FixedType is a fixed-length byte array.
type FixedType struct {
	len int
}

func (f FixedType) Equals(other Type) bool {
	rhs, ok := other.(FixedType)

	return ok && f.len == rhs.len
}

func (f FixedType) Len() int       { return f.len }
func (f FixedType) Type() string   { return fmt.Sprintf("fixed[%d]", f.len) }
func (f FixedType) String() string { return f.Type() }
func (FixedType) primitive()       {}

func DecimalTypeOf(prec, scale int) DecimalType {
	return DecimalType{precision: prec, scale: scale}
}

// DecimalType is a fixed-point decimal with the given precision and scale.
type DecimalType struct {
	precision, scale int
}

func (d DecimalType) Equals(other Type) bool {
	rhs, ok := other.(DecimalType)

	return ok && d.precision == rhs.precision && d.scale == rhs.scale
}

func (d DecimalType) Type() string   { return fmt.Sprintf("decimal(%d, %d)", d.precision, d.scale) }
func (d DecimalType) String() string { return d.Type() }
func (d DecimalType) Precision() int { return d.precision }
func (d DecimalType) Scale() int     { return d.scale }
func (DecimalType) primitive()       {}

// Decimal is an unscaled 128-bit value paired with its scale.
type Decimal struct {
	Val   decimal128.Num
	Scale int
}

func (d Decimal) String() string {
	return d.Val.ToString(int32(d.Scale))
}

type BooleanType struct{}

func (BooleanType) Equals(other Type) bool {
	_, ok := other.(BooleanType)

	return ok
}

func (BooleanType) primitive()     {}
func (BooleanType) Type() string   { return "boolean" }
func (BooleanType) String() string { return "boolean" }

// Int32Type is a 32-bit signed integer, named "int".
type Int32Type struct{}

func (Int32Type) Equals(other Type) bool {
	_, ok := other.(Int32Type)

	return ok
}

func (Int32Type) primitive()     {}
func (Int32Type) Type() string   { return "int" }
func (Int32Type) String() string { return "int" }

// Int64Type is a 64-bit signed integer, named "long".
type Int64Type struct{}

func (Int64Type) Equals(other Type) bool {
	_, ok := other.(Int64Type)

	return ok
}

func (Int64Type) primitive()     {}
func (Int64Type) Type() string   { return "long" }
func (Int64Type) String() string { return "long" }

// Float32Type is an IEEE 754 single precision float, named "float".
type Float32Type struct{}

func (Float32Type) Equals(other Type) bool {
	_, ok := other.(Float32Type)

	return ok
}

func (Float32Type) primitive()     {}
func (Float32Type) Type() string   { return "float" }
func (Float32Type) String() string { return "float" }

// Float64Type is an IEEE 754 double precision float, named "double".
type Float64Type struct{}

func (Float64Type) Equals(other Type) bool {
	_, ok := other.(Float64Type)

	return ok
}

func (Float64Type) primitive()     {}
func (Float64Type) Type() string   { return "double" }
func (Float64Type) String() string { return "double" }

// Date is the number of days since the unix epoch.
type Date int32

func (d Date) ToTime() time.Time {
	return epochTM.AddDate(0, 0, int(d))
}

type DateType struct{}

func (DateType) Equals(other Type) bool {
	_, ok := other.(DateType)

	return ok
}

func (DateType) primitive()     {}
func (DateType) Type() string   { return "date" }
func (DateType) String() string { return "date" }

// Time is the number of microseconds since midnight.
type Time int64

func (t Time) ToTime() time.Time {
	return time.UnixMicro(int64(t)).UTC()
}

type TimeType struct{}

func (TimeType) Equals(other Type) bool {
	_, ok := other.(TimeType)

	return ok
}

func (TimeType) primitive()     {}
func (TimeType) Type() string   { return "time" }
func (TimeType) String() string { return "time" }

// Timestamp is the number of microseconds since the unix epoch.
type Timestamp int64

func (t Timestamp) ToTime() time.Time {
	return time.UnixMicro(int64(t)).UTC()
}

const microsPerDay = int64(24 * time.Hour / time.Microsecond)

func (t Timestamp) ToDate() Date {
	days := int64(t) / microsPerDay
	if int64(t)%microsPerDay < 0 {
		days--
	}

	return Date(days)
}

// TimestampType is a timestamp without regard for timezone.
type TimestampType struct{}

func (TimestampType) Equals(other Type) bool {
	_, ok := other.(TimestampType)

	return ok
}

func (TimestampType) primitive()     {}
func (TimestampType) Type() string   { return "timestamp" }
func (TimestampType) String() string { return "timestamp" }

// TimestampTzType is a timestamp stored as UTC.
type TimestampTzType struct{}

func (TimestampTzType) Equals(other Type) bool {
	_, ok := other.(TimestampTzType)

	return ok
}

func (TimestampTzType) primitive()     {}
func (TimestampTzType) Type() string   { return "timestamptz" }
func (TimestampTzType) String() string { return "timestamptz" }

type StringType struct{}

func (StringType) Equals(other Type) bool {
	_, ok := other.(StringType)

	return ok
}

func (StringType) primitive()     {}
func (StringType) Type() string   { return "string" }
func (StringType) String() string { return "string" }

type UUIDType struct{}

func (UUIDType) Equals(other Type) bool {
	_, ok := other.(UUIDType)

	return ok
}

func (UUIDType) primitive()     {}
func (UUIDType) Type() string   { return "uuid" }
func (UUIDType) String() string { return "uuid" }

type BinaryType struct{}

func (BinaryType) Equals(other Type) bool {
	_, ok := other.(BinaryType)

	return ok
}

func (BinaryType) primitive()     {}
func (BinaryType) Type() string   { return "binary" }
func (BinaryType) String() string { return "binary" }

var PrimitiveTypes = struct {
	Bool        PrimitiveType
	Int32       PrimitiveType
	Int64       PrimitiveType
	Float32     PrimitiveType
	Float64     PrimitiveType
	Date        PrimitiveType
	Time        PrimitiveType
	Timestamp   PrimitiveType
	TimestampTz PrimitiveType
	String      PrimitiveType
	Binary      PrimitiveType
	UUID        PrimitiveType
}{
	Bool:        BooleanType{},
	Int32:       Int32Type{},
	Int64:       Int64Type{},
	Float32:     Float32Type{},
	Float64:     Float64Type{},
	Date:        DateType{},
	Time:        TimeType{},
	Timestamp:   TimestampType{},
	TimestampTz: TimestampTzType{},
	String:      StringType{},
	Binary:      BinaryType{},
	UUID:        UUIDType{},
}

var primitiveTypesByName = map[string]PrimitiveType{
	"boolean":     PrimitiveTypes.Bool,
	"int":         PrimitiveTypes.Int32,
	"long":        PrimitiveTypes.Int64,
	"float":       PrimitiveTypes.Float32,
	"double":      PrimitiveTypes.Float64,
	"date":        PrimitiveTypes.Date,
	"time":        PrimitiveTypes.Time,
	"timestamp":   PrimitiveTypes.Timestamp,
	"timestamptz": PrimitiveTypes.TimestampTz,
	"string":      PrimitiveTypes.String,
	"binary":      PrimitiveTypes.Binary,
	"uuid":        PrimitiveTypes.UUID,
}

// isFloatingType reports whether values of t can be NaN.
func isFloatingType(t Type) bool {
	switch t.(type) {
	case Float32Type, Float64Type:
		return true
	}

	return false
}
