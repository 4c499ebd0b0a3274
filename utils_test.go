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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiteralSet(t *testing.T) {
	s := newLiteralSet(Int32Literal(1), Int32Literal(2), Int32Literal(1))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(Int32Literal(1)))
	assert.False(t, s.Contains(Int32Literal(3)))
	// type is part of the key
	assert.False(t, s.Contains(Int64Literal(1)))

	assert.True(t, s.All(func(l Literal) bool { return l.(Int32Literal) > 0 }))
	assert.False(t, s.All(func(l Literal) bool { return l.(Int32Literal) > 1 }))
	assert.ElementsMatch(t, []Literal{Int32Literal(1), Int32Literal(2)}, s.Members())

	assert.True(t, s.Equals(newLiteralSet(Int32Literal(2), Int32Literal(1))))
	assert.False(t, s.Equals(newLiteralSet(Int32Literal(2))))
}

func TestLiteralSetBytes(t *testing.T) {
	s := newLiteralSet(BinaryLiteral("foo"), BinaryLiteral("bar"), BinaryLiteral("foo"))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains(BinaryLiteral("foo")))
	assert.False(t, s.Contains(BinaryLiteral("baz")))
	// same bytes, different literal type
	assert.False(t, s.Contains(FixedLiteral("foo")))

	assert.ElementsMatch(t, []Literal{BinaryLiteral("foo"), BinaryLiteral("bar")}, s.Members())
	assert.True(t, s.Equals(newLiteralSet(BinaryLiteral("bar"), BinaryLiteral("foo"))))
	assert.False(t, s.Equals(newLiteralSet(BinaryLiteral("bar"), BinaryLiteral("qux"))))
}

func TestLiteralSetNaN(t *testing.T) {
	s := newLiteralSet(Float64Literal(math.NaN()), Float64Literal(1), Float64Literal(math.NaN()))

	assert.Equal(t, 2, s.Len())
	assert.Len(t, s.Members(), 2)
	assert.True(t, s.Contains(Float64Literal(math.NaN())))
	assert.False(t, s.Contains(Float32Literal(float32(math.NaN()))))
	assert.True(t, s.Equals(newLiteralSet(Float64Literal(1), Float64Literal(math.NaN()))))
}

func TestLiteralSetHashCollision(t *testing.T) {
	s := newLiteralSet().(*literalSet)

	// two different values sharing a bucket
	s.addHashed(42, BinaryLiteral("foo"))
	s.addHashed(42, BinaryLiteral("bar"))
	s.addHashed(42, BinaryLiteral("foo"))

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.containsHashed(42, BinaryLiteral("foo")))
	assert.True(t, s.containsHashed(42, BinaryLiteral("bar")))
	assert.False(t, s.containsHashed(42, BinaryLiteral("baz")))
	assert.ElementsMatch(t, []Literal{BinaryLiteral("foo"), BinaryLiteral("bar")}, s.Members())
}

func TestRow(t *testing.T) {
	r := Row{int32(1), nil, "a"}

	assert.Equal(t, 3, r.Size())
	assert.Equal(t, int32(1), r.Get(0))
	assert.Nil(t, r.Get(1))
	assert.Panics(t, func() { r.Get(3) })
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, Version())
}
