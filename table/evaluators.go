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

package table

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/lakehouse-tools/iceberg-prune"
)

const (
	rowsMightMatch   = true
	rowsCannotMatch  = false
	inPredicateLimit = 200
)

// ManifestEvaluatorOptions configures NewManifestEvaluator.
type ManifestEvaluatorOptions struct {
	// Filter is a predicate bound to the partition fields of the manifests
	// that will be evaluated. Reference positions index into each manifest's
	// partition summaries.
	Filter iceberg.BooleanExpression
	// RewriteNot removes Not nodes from Filter once, at construction. A
	// filter that still contains Not fails every evaluation.
	RewriteNot bool
}

// ManifestEvaluator decides from a manifest's partition summaries whether
// any of its rows might match a partition filter. It never reports false
// for a manifest that holds a matching row.
//
// A ManifestEvaluator is immutable and safe for concurrent use.
type ManifestEvaluator struct {
	filter iceberg.BooleanExpression
}

func NewManifestEvaluator(opts ManifestEvaluatorOptions) (*ManifestEvaluator, error) {
	if opts.Filter == nil {
		return nil, fmt.Errorf("%w: manifest evaluator requires a filter", iceberg.ErrInvalidArgument)
	}

	filter := opts.Filter
	if opts.RewriteNot {
		var err error
		if filter, err = iceberg.RewriteNotExpr(filter); err != nil {
			return nil, err
		}
	}

	return &ManifestEvaluator{filter: filter}, nil
}

// Filter returns the predicate being evaluated, after any rewrite.
func (e *ManifestEvaluator) Filter() iceberg.BooleanExpression { return e.filter }

// Eval returns false only if no row in the manifest can match the filter.
// A manifest without partition summaries might always match.
//
// Eval panics if a reference points past the manifest's summaries or if a
// bound cannot be decoded as its field's type.
func (e *ManifestEvaluator) Eval(manifest iceberg.ManifestFile) (bool, error) {
	parts := manifest.Partitions()
	if len(parts) == 0 {
		return rowsMightMatch, nil
	}

	return iceberg.VisitBoundExpr[bool](e.filter, &manifestEvalVisitor{partitionFields: parts})
}

// manifestEvalVisitor is created per call, holding the summaries of the
// manifest being evaluated.
type manifestEvalVisitor struct {
	partitionFields []iceberg.FieldSummary
}

func (m *manifestEvalVisitor) field(ref iceberg.BoundReference) iceberg.FieldSummary {
	pos := ref.Pos()
	if pos < 0 || pos >= len(m.partitionFields) {
		panic(fmt.Errorf("%w: partition field %q at position %d, manifest has %d summaries",
			ErrInvalidMetadata, ref.Field().Name, pos, len(m.partitionFields)))
	}

	return m.partitionFields[pos]
}

func decodeBound(ref iceberg.BoundReference, b *[]byte) iceberg.Literal {
	lit, err := iceberg.LiteralFromBytes(ref.Type(), *b)
	if err != nil {
		panic(fmt.Errorf("%w: bound of partition field %q: %w",
			ErrInvalidMetadata, ref.Field().Name, err))
	}

	return lit
}

func typedCmp[T iceberg.LiteralType](l1 iceberg.TypedLiteral[T], l2 iceberg.Literal) int {
	return l1.Comparator()(l1.Value(), l2.(iceberg.TypedLiteral[T]).Value())
}

// cmpLiteral compares two literals sharing a physical type.
func cmpLiteral(l1, l2 iceberg.Literal) int {
	switch l := l1.(type) {
	case iceberg.TypedLiteral[bool]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[int32]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[int64]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[float32]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[float64]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[iceberg.Date]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[iceberg.Time]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[iceberg.Timestamp]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[[]byte]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[string]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[uuid.UUID]:
		return typedCmp(l, l2)
	case iceberg.TypedLiteral[iceberg.Decimal]:
		return typedCmp(l, l2)
	}
	panic(fmt.Errorf("%w: cannot compare %s", iceberg.ErrType, l1.Type()))
}

func (m *manifestEvalVisitor) VisitTrue() (bool, error)  { return rowsMightMatch, nil }
func (m *manifestEvalVisitor) VisitFalse() (bool, error) { return rowsCannotMatch, nil }

func (m *manifestEvalVisitor) VisitNot(bool) (bool, error) {
	return false, ErrNotUnsupported
}

func (m *manifestEvalVisitor) VisitAnd(left, right bool) (bool, error) { return left && right, nil }
func (m *manifestEvalVisitor) VisitOr(left, right bool) (bool, error)  { return left || right, nil }

func (m *manifestEvalVisitor) VisitIsNull(ref iceberg.BoundReference, _ iceberg.BoundPredicate) (bool, error) {
	if !m.field(ref).ContainsNull {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitNotNull(ref iceberg.BoundReference, _ iceberg.BoundPredicate) (bool, error) {
	if m.field(ref).AllNull(ref.Type()) {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitIsNaN(ref iceberg.BoundReference, _ iceberg.BoundPredicate) (bool, error) {
	field := m.field(ref)
	if field.ContainsNaN == iceberg.NaNAbsent || field.AllNull(ref.Type()) {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitNotNaN(ref iceberg.BoundReference, _ iceberg.BoundPredicate) (bool, error) {
	field := m.field(ref)
	// only NaN values, every bound was skipped
	if field.ContainsNaN == iceberg.NaNPresent && !field.ContainsNull && field.LowerBound == nil {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitLess(ref iceberg.BoundReference, lit iceberg.Literal, _ iceberg.BoundPredicate) (bool, error) {
	field := m.field(ref)
	if field.LowerBound == nil {
		return rowsCannotMatch, nil
	}

	if cmpLiteral(lit, decodeBound(ref, field.LowerBound)) <= 0 {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitLessEqual(ref iceberg.BoundReference, lit iceberg.Literal, _ iceberg.BoundPredicate) (bool, error) {
	field := m.field(ref)
	if field.LowerBound == nil {
		return rowsCannotMatch, nil
	}

	if cmpLiteral(lit, decodeBound(ref, field.LowerBound)) < 0 {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitGreater(ref iceberg.BoundReference, lit iceberg.Literal, _ iceberg.BoundPredicate) (bool, error) {
	field := m.field(ref)
	if field.UpperBound == nil {
		return rowsCannotMatch, nil
	}

	if cmpLiteral(lit, decodeBound(ref, field.UpperBound)) >= 0 {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitGreaterEqual(ref iceberg.BoundReference, lit iceberg.Literal, _ iceberg.BoundPredicate) (bool, error) {
	field := m.field(ref)
	if field.UpperBound == nil {
		return rowsCannotMatch, nil
	}

	if cmpLiteral(lit, decodeBound(ref, field.UpperBound)) > 0 {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitEqual(ref iceberg.BoundReference, lit iceberg.Literal, _ iceberg.BoundPredicate) (bool, error) {
	field := m.field(ref)
	if field.LowerBound == nil || field.UpperBound == nil {
		// values are all null and literal cannot contain null
		return rowsCannotMatch, nil
	}

	if cmpLiteral(lit, decodeBound(ref, field.LowerBound)) < 0 {
		return rowsCannotMatch, nil
	}

	if cmpLiteral(lit, decodeBound(ref, field.UpperBound)) > 0 {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitNotEqual(iceberg.BoundReference, iceberg.Literal, iceberg.BoundPredicate) (bool, error) {
	// bounds are not necessarily values in the column, notEq(col, X) with
	// bounds (X, Y) doesn't guarantee X is a value in col
	return rowsMightMatch, nil
}

func prefixOf(op iceberg.Operation, lit iceberg.Literal) ([]byte, error) {
	s, ok := lit.(iceberg.StringLiteral)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects a string literal, got %s",
			iceberg.ErrType, op, lit.Type())
	}

	return []byte(s), nil
}

func truncate(b []byte, n int) []byte {
	return b[:min(len(b), n)]
}

func (m *manifestEvalVisitor) VisitStartsWith(ref iceberg.BoundReference, lit iceberg.Literal, _ iceberg.BoundPredicate) (bool, error) {
	prefix, err := prefixOf(iceberg.OpStartsWith, lit)
	if err != nil {
		return false, err
	}

	field := m.field(ref)
	if field.LowerBound == nil || field.UpperBound == nil {
		return rowsCannotMatch, nil
	}

	// bounds are compared as raw UTF-8 bytes, cut to the prefix length
	if bytes.Compare(prefix, truncate(*field.LowerBound, len(prefix))) < 0 {
		return rowsCannotMatch, nil
	}

	if bytes.Compare(prefix, truncate(*field.UpperBound, len(prefix))) > 0 {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitNotStartsWith(ref iceberg.BoundReference, lit iceberg.Literal, _ iceberg.BoundPredicate) (bool, error) {
	prefix, err := prefixOf(iceberg.OpNotStartsWith, lit)
	if err != nil {
		return false, err
	}

	field := m.field(ref)
	if field.ContainsNull || field.LowerBound == nil || field.UpperBound == nil {
		return rowsMightMatch, nil
	}

	// every value starts with the prefix only when both bounds do
	lower, upper := *field.LowerBound, *field.UpperBound
	if len(prefix) > len(lower) || len(prefix) > len(upper) {
		return rowsMightMatch, nil
	}

	if bytes.HasPrefix(lower, prefix) && bytes.HasPrefix(upper, prefix) {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func allCompare(bound iceberg.Literal, set iceberg.Set[iceberg.Literal], fn func(int) bool) bool {
	return set.All(func(e iceberg.Literal) bool {
		return fn(cmpLiteral(e, bound))
	})
}

func isNegative(c int) bool { return c < 0 }
func isPositive(c int) bool { return c > 0 }

func (m *manifestEvalVisitor) VisitIn(ref iceberg.BoundReference, lits iceberg.Set[iceberg.Literal], _ iceberg.BoundPredicate) (bool, error) {
	field := m.field(ref)
	if field.LowerBound == nil {
		return rowsCannotMatch, nil
	}

	if lits.Len() > inPredicateLimit {
		return rowsMightMatch, nil
	}

	if allCompare(decodeBound(ref, field.LowerBound), lits, isNegative) {
		return rowsCannotMatch, nil
	}

	if field.UpperBound != nil && allCompare(decodeBound(ref, field.UpperBound), lits, isPositive) {
		return rowsCannotMatch, nil
	}

	return rowsMightMatch, nil
}

func (m *manifestEvalVisitor) VisitNotIn(iceberg.BoundReference, iceberg.Set[iceberg.Literal], iceberg.BoundPredicate) (bool, error) {
	// bounds are not necessarily values in the column, notIn(col, {X, ...})
	// with bounds (X, Y) doesn't guarantee X is a value in col
	return rowsMightMatch, nil
}
