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

import "fmt"

// NaNStatus records what a manifest knows about NaN values in a partition
// field. Older writers did not record it, which is NaNUnknown.
type NaNStatus int8

const (
	NaNUnknown NaNStatus = iota
	NaNPresent
	NaNAbsent
)

// NaNStatusOf converts the optional contains_nan flag of a manifest list
// entry.
func NaNStatusOf(containsNaN *bool) NaNStatus {
	switch {
	case containsNaN == nil:
		return NaNUnknown
	case *containsNaN:
		return NaNPresent
	default:
		return NaNAbsent
	}
}

func (n NaNStatus) Known() bool { return n == NaNPresent || n == NaNAbsent }

func (n NaNStatus) String() string {
	switch n {
	case NaNPresent:
		return "present"
	case NaNAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// FieldSummary holds the statistics for one partition field across every
// data file of a manifest. Bounds are the single-value binary encoding of
// the field's type and exclude NaN.
type FieldSummary struct {
	ContainsNull bool
	ContainsNaN  NaNStatus
	LowerBound   *[]byte
	UpperBound   *[]byte
}

// AllNull reports whether every value of the field is known to be null.
// A floating point field with no lower bound may instead hold only NaN
// values, so it also needs NaN to be known absent.
func (f FieldSummary) AllNull(typ Type) bool {
	if !f.ContainsNull || f.LowerBound != nil {
		return false
	}

	if isFloatingType(typ) {
		return f.ContainsNaN == NaNAbsent
	}

	return true
}

func (f FieldSummary) String() string {
	bound := func(b *[]byte) string {
		if b == nil {
			return "none"
		}

		return fmt.Sprintf("%x", *b)
	}

	return fmt.Sprintf("FieldSummary(contains_null=%t, contains_nan=%s, lower=%s, upper=%s)",
		f.ContainsNull, f.ContainsNaN, bound(f.LowerBound), bound(f.UpperBound))
}

// ManifestFile is the view of a manifest list entry needed to decide if the
// manifest can be skipped.
type ManifestFile interface {
	// FilePath is the location URI of the manifest.
	FilePath() string
	// PartitionSpecID is the ID of the partition spec used to write the
	// manifest.
	PartitionSpecID() int32
	// Partitions returns one summary per partition field, in partition
	// spec order. Nil or empty means no statistics were recorded.
	Partitions() []FieldSummary
}

// ManifestSummary is an in-memory ManifestFile.
type ManifestSummary struct {
	Path      string
	SpecID    int32
	Summaries []FieldSummary
}

func NewManifestSummary(path string, specID int32, partitions []FieldSummary) *ManifestSummary {
	return &ManifestSummary{Path: path, SpecID: specID, Summaries: partitions}
}

func (m *ManifestSummary) FilePath() string           { return m.Path }
func (m *ManifestSummary) PartitionSpecID() int32     { return m.SpecID }
func (m *ManifestSummary) Partitions() []FieldSummary { return m.Summaries }
