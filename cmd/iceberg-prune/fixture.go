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

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lakehouse-tools/iceberg-prune"
	"gopkg.in/yaml.v3"
)

// fixture describes a pruning run: the partition specs of a table, a
// filter over partition field names, and the manifests to prune.
type fixture struct {
	Specs     []specFixture     `yaml:"specs"`
	Filter    filterNode        `yaml:"filter"`
	Manifests []manifestFixture `yaml:"manifests"`
}

type specFixture struct {
	SpecID int32          `yaml:"spec-id"`
	Fields []fieldFixture `yaml:"fields"`
}

type fieldFixture struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

type summaryFixture struct {
	ContainsNull bool    `yaml:"contains-null"`
	ContainsNaN  *bool   `yaml:"contains-nan"`
	Lower        *string `yaml:"lower"`
	Upper        *string `yaml:"upper"`
}

// manifestFixture gives the partition summaries of a manifest directly, or
// the partition tuples of its data files to summarize.
type manifestFixture struct {
	Path       string           `yaml:"path"`
	SpecID     int32            `yaml:"spec-id"`
	Partitions []summaryFixture `yaml:"partitions"`
	Rows       [][]*string      `yaml:"rows"`
}

// filterNode is one node of a filter tree. Exactly one of And, Or, Not or
// Op is set.
type filterNode struct {
	And    []filterNode `yaml:"and"`
	Or     []filterNode `yaml:"or"`
	Not    *filterNode  `yaml:"not"`
	Op     string       `yaml:"op"`
	Field  string       `yaml:"field"`
	Value  *string      `yaml:"value"`
	Values []string     `yaml:"values"`
}

var (
	errFixture   = errors.New("invalid fixture")
	errNoSuchKey = errors.New("field not found in partition spec")
)

func readFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return parseFixture(data)
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", errFixture, err)
	}

	if len(f.Specs) == 0 {
		return nil, fmt.Errorf("%w: no partition specs", errFixture)
	}

	return &f, nil
}

// boundSpec is a partition spec whose fields have been resolved to types.
type boundSpec struct {
	id     int32
	fields []iceberg.NestedField
}

func (s boundSpec) types() []iceberg.PrimitiveType {
	out := make([]iceberg.PrimitiveType, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Type.(iceberg.PrimitiveType)
	}

	return out
}

func (s boundSpec) ref(name string) (iceberg.BoundReference, error) {
	for i, f := range s.fields {
		if f.Name == name {
			return iceberg.NewBoundReference(f, i), nil
		}
	}

	return nil, fmt.Errorf("%w: %q in spec %d", errNoSuchKey, name, s.id)
}

func (f *fixture) specs() (map[int32]boundSpec, error) {
	out := make(map[int32]boundSpec, len(f.Specs))
	for _, sf := range f.Specs {
		if _, ok := out[sf.SpecID]; ok {
			return nil, fmt.Errorf("%w: duplicate partition spec %d", errFixture, sf.SpecID)
		}

		spec := boundSpec{id: sf.SpecID, fields: make([]iceberg.NestedField, 0, len(sf.Fields))}
		for _, field := range sf.Fields {
			typ, err := iceberg.ParsePrimitiveType(field.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %w", errFixture, field.Name, err)
			}

			spec.fields = append(spec.fields, iceberg.NestedField{
				ID: field.ID, Name: field.Name, Type: typ, Required: field.Required,
			})
		}
		out[sf.SpecID] = spec
	}

	return out, nil
}

func literalOf(s string, typ iceberg.Type) (iceberg.Literal, error) {
	return iceberg.StringLiteral(s).To(typ)
}

func (n filterNode) bind(spec boundSpec) (iceberg.BooleanExpression, error) {
	switch {
	case len(n.And) > 0:
		return n.bindAll(spec, n.And, iceberg.NewAnd)
	case len(n.Or) > 0:
		return n.bindAll(spec, n.Or, iceberg.NewOr)
	case n.Not != nil:
		child, err := n.Not.bind(spec)
		if err != nil {
			return nil, err
		}

		return iceberg.NewNot(child), nil
	}

	op := strings.ToLower(n.Op)
	switch op {
	case "true", "":
		return iceberg.AlwaysTrue{}, nil
	case "false":
		return iceberg.AlwaysFalse{}, nil
	}

	ref, err := spec.ref(n.Field)
	if err != nil {
		return nil, err
	}

	if unary, ok := unaryOps[op]; ok {
		return iceberg.NewBoundUnaryPredicate(unary, ref)
	}

	if set, ok := setOps[op]; ok {
		lits := make([]iceberg.Literal, 0, len(n.Values))
		for _, v := range n.Values {
			lits = append(lits, iceberg.StringLiteral(v))
		}

		return iceberg.NewBoundSetPredicate(set, ref, lits)
	}

	if lit, ok := literalOps[op]; ok {
		if n.Value == nil {
			return nil, fmt.Errorf("%w: %s on %q needs a value", errFixture, op, n.Field)
		}

		return iceberg.NewBoundLiteralPredicate(lit, ref, iceberg.StringLiteral(*n.Value))
	}

	return nil, fmt.Errorf("%w: unknown filter op %q", errFixture, n.Op)
}

func (n filterNode) bindAll(spec boundSpec, nodes []filterNode,
	combine func(l, r iceberg.BooleanExpression, addl ...iceberg.BooleanExpression) iceberg.BooleanExpression,
) (iceberg.BooleanExpression, error) {
	exprs := make([]iceberg.BooleanExpression, 0, len(nodes))
	for _, c := range nodes {
		e, err := c.bind(spec)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}

	if len(exprs) == 1 {
		return exprs[0], nil
	}

	return combine(exprs[0], exprs[1], exprs[2:]...), nil
}

var (
	unaryOps = map[string]iceberg.Operation{
		"is-null":  iceberg.OpIsNull,
		"not-null": iceberg.OpNotNull,
		"is-nan":   iceberg.OpIsNan,
		"not-nan":  iceberg.OpNotNan,
	}
	literalOps = map[string]iceberg.Operation{
		"lt":              iceberg.OpLT,
		"lte":             iceberg.OpLTEQ,
		"gt":              iceberg.OpGT,
		"gte":             iceberg.OpGTEQ,
		"eq":              iceberg.OpEQ,
		"neq":             iceberg.OpNEQ,
		"starts-with":     iceberg.OpStartsWith,
		"not-starts-with": iceberg.OpNotStartsWith,
	}
	setOps = map[string]iceberg.Operation{
		"in":     iceberg.OpIn,
		"not-in": iceberg.OpNotIn,
	}
)

// loadedManifest pairs a manifest with the partition tuples it was built
// from, if any.
type loadedManifest struct {
	*iceberg.ManifestSummary
	rows []iceberg.Row
}

func encodeBound(s *string, typ iceberg.Type) (*[]byte, error) {
	if s == nil {
		return nil, nil
	}

	lit, err := literalOf(*s, typ)
	if err != nil {
		return nil, err
	}

	b, err := lit.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (m manifestFixture) load(spec boundSpec) (loadedManifest, error) {
	if len(m.Rows) > 0 {
		rows := make([]iceberg.Row, 0, len(m.Rows))
		for n, r := range m.Rows {
			if len(r) != len(spec.fields) {
				return loadedManifest{}, fmt.Errorf("%w: manifest %s row %d has %d values, spec %d has %d fields",
					errFixture, m.Path, n, len(r), spec.id, len(spec.fields))
			}

			row := make(iceberg.Row, len(r))
			for i, v := range r {
				if v == nil {
					continue
				}

				lit, err := literalOf(*v, spec.fields[i].Type)
				if err != nil {
					return loadedManifest{}, fmt.Errorf("manifest %s row %d: %w", m.Path, n, err)
				}
				row[i] = lit
			}
			rows = append(rows, row)
		}

		summaries, err := iceberg.SummarizePartitions(spec.types(), rows)
		if err != nil {
			return loadedManifest{}, fmt.Errorf("manifest %s: %w", m.Path, err)
		}

		return loadedManifest{
			ManifestSummary: iceberg.NewManifestSummary(m.Path, m.SpecID, summaries),
			rows:            rows,
		}, nil
	}

	if len(m.Partitions) > 0 && len(m.Partitions) != len(spec.fields) {
		return loadedManifest{}, fmt.Errorf("%w: manifest %s has %d summaries, spec %d has %d fields",
			errFixture, m.Path, len(m.Partitions), spec.id, len(spec.fields))
	}

	summaries := make([]iceberg.FieldSummary, 0, len(m.Partitions))
	for i, p := range m.Partitions {
		typ := spec.fields[i].Type

		lower, err := encodeBound(p.Lower, typ)
		if err != nil {
			return loadedManifest{}, fmt.Errorf("manifest %s lower bound %d: %w", m.Path, i, err)
		}

		upper, err := encodeBound(p.Upper, typ)
		if err != nil {
			return loadedManifest{}, fmt.Errorf("manifest %s upper bound %d: %w", m.Path, i, err)
		}

		summaries = append(summaries, iceberg.FieldSummary{
			ContainsNull: p.ContainsNull,
			ContainsNaN:  iceberg.NaNStatusOf(p.ContainsNaN),
			LowerBound:   lower,
			UpperBound:   upper,
		})
	}

	return loadedManifest{ManifestSummary: iceberg.NewManifestSummary(m.Path, m.SpecID, summaries)}, nil
}

func (f *fixture) manifests(specs map[int32]boundSpec) ([]loadedManifest, error) {
	out := make([]loadedManifest, 0, len(f.Manifests))
	for _, mf := range f.Manifests {
		spec, ok := specs[mf.SpecID]
		if !ok {
			return nil, fmt.Errorf("%w: manifest %s uses unknown partition spec %d",
				errFixture, mf.Path, mf.SpecID)
		}

		m, err := mf.load(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, nil
}
