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
	"hash/maphash"
	"math"
	"runtime/debug"
	"slices"
	"strings"
)

const modulePath = "github.com/lakehouse-tools/iceberg-prune"

var version string

func init() {
	version = "(unknown version)"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Path == modulePath && info.Main.Version != "" {
			version = info.Main.Version

			return
		}

		for _, dep := range info.Deps {
			if strings.HasPrefix(dep.Path, modulePath) {
				version = dep.Version

				break
			}
		}
	}
}

func Version() string { return version }

// Optional represents a typed value that could be null
type Optional[T any] struct {
	Val   T
	Valid bool
}

// Row is a single partition tuple, positionally matching the partition
// fields of a manifest. A nil entry is a null value.
type Row []any

// Get returns the value at pos, will panic if pos is out of bounds.
func (r Row) Get(pos int) any { return r[pos] }

// Size returns the number of values in the row.
func (r Row) Size() int { return len(r) }

type Set[E any] interface {
	Add(...E)
	Contains(E) bool
	Members() []E
	Equals(Set[E]) bool
	Len() int
	All(func(E) bool) bool
}

var lzseed = maphash.MakeSeed()

// nanKey stands in for every NaN literal of one float type, since NaN is
// never equal to itself as a map key.
type nanKey struct{ typ Type }

// literalSet keys comparable literals by value. Byte-slice literals are
// bucketed by hash and compared with Equals inside a bucket.
type literalSet struct {
	vals  map[any]Literal
	bytes map[uint64][]Literal
	n     int
}

func newLiteralSet(vals ...Literal) Set[Literal] {
	s := &literalSet{vals: map[any]Literal{}, bytes: map[uint64][]Literal{}}
	s.Add(vals...)

	return s
}

func byteKey(lit Literal) ([]byte, bool) {
	switch v := lit.(type) {
	case FixedLiteral:
		return v, true
	case BinaryLiteral:
		return v, true
	}

	return nil, false
}

func valueKey(lit Literal) any {
	switch v := lit.(type) {
	case Float32Literal:
		if math.IsNaN(float64(v)) {
			return nanKey{v.Type()}
		}
	case Float64Literal:
		if math.IsNaN(float64(v)) {
			return nanKey{v.Type()}
		}
	}

	return lit
}

func (l *literalSet) Add(lits ...Literal) {
	for _, v := range lits {
		if b, ok := byteKey(v); ok {
			l.addHashed(maphash.Bytes(lzseed, b), v)

			continue
		}

		k := valueKey(v)
		if _, ok := l.vals[k]; !ok {
			l.vals[k] = v
			l.n++
		}
	}
}

func (l *literalSet) addHashed(h uint64, lit Literal) {
	if !l.containsHashed(h, lit) {
		l.bytes[h] = append(l.bytes[h], lit)
		l.n++
	}
}

func (l *literalSet) containsHashed(h uint64, lit Literal) bool {
	return slices.ContainsFunc(l.bytes[h], lit.Equals)
}

func (l *literalSet) Contains(lit Literal) bool {
	if b, ok := byteKey(lit); ok {
		return l.containsHashed(maphash.Bytes(lzseed, b), lit)
	}

	_, ok := l.vals[valueKey(lit)]

	return ok
}

func (l *literalSet) Members() []Literal {
	result := make([]Literal, 0, l.n)
	for _, v := range l.vals {
		result = append(result, v)
	}
	for _, bucket := range l.bytes {
		result = append(result, bucket...)
	}

	return result
}

func (l *literalSet) Equals(other Set[Literal]) bool {
	if other == nil || l.Len() != other.Len() {
		return false
	}

	return l.All(other.Contains)
}

func (l *literalSet) Len() int { return l.n }

func (l *literalSet) All(fn func(Literal) bool) bool {
	for _, v := range l.vals {
		if !fn(v) {
			return false
		}
	}
	for _, bucket := range l.bytes {
		for _, v := range bucket {
			if !fn(v) {
				return false
			}
		}
	}

	return true
}
