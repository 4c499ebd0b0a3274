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
	"strings"
)

// BoundPredicateVisitor computes a value of type T over a bound expression
// tree. Connective methods receive the already computed results of their
// children. Leaf methods receive the reference, the literal or literal set
// where the operator has one, and the predicate itself.
type BoundPredicateVisitor[T any] interface {
	VisitTrue() (T, error)
	VisitFalse() (T, error)
	VisitNot(child T) (T, error)
	VisitAnd(left, right T) (T, error)
	VisitOr(left, right T) (T, error)

	VisitIsNull(ref BoundReference, pred BoundPredicate) (T, error)
	VisitNotNull(ref BoundReference, pred BoundPredicate) (T, error)
	VisitIsNaN(ref BoundReference, pred BoundPredicate) (T, error)
	VisitNotNaN(ref BoundReference, pred BoundPredicate) (T, error)

	VisitLess(ref BoundReference, lit Literal, pred BoundPredicate) (T, error)
	VisitLessEqual(ref BoundReference, lit Literal, pred BoundPredicate) (T, error)
	VisitGreater(ref BoundReference, lit Literal, pred BoundPredicate) (T, error)
	VisitGreaterEqual(ref BoundReference, lit Literal, pred BoundPredicate) (T, error)
	VisitEqual(ref BoundReference, lit Literal, pred BoundPredicate) (T, error)
	VisitNotEqual(ref BoundReference, lit Literal, pred BoundPredicate) (T, error)
	VisitStartsWith(ref BoundReference, lit Literal, pred BoundPredicate) (T, error)
	VisitNotStartsWith(ref BoundReference, lit Literal, pred BoundPredicate) (T, error)

	VisitIn(ref BoundReference, lits Set[Literal], pred BoundPredicate) (T, error)
	VisitNotIn(ref BoundReference, lits Set[Literal], pred BoundPredicate) (T, error)
}

// VisitBoundExpr walks expr bottom-up, evaluating children before their
// parent. The first error returned by the visitor stops the walk.
//
// Panics raised by the visitor are not recovered.
func VisitBoundExpr[T any](expr BooleanExpression, visitor BoundPredicateVisitor[T]) (T, error) {
	var zero T

	switch e := expr.(type) {
	case AlwaysTrue:
		return visitor.VisitTrue()
	case AlwaysFalse:
		return visitor.VisitFalse()
	case NotExpr:
		child, err := VisitBoundExpr(e.child, visitor)
		if err != nil {
			return zero, err
		}

		return visitor.VisitNot(child)
	case AndExpr:
		left, err := VisitBoundExpr(e.left, visitor)
		if err != nil {
			return zero, err
		}

		right, err := VisitBoundExpr(e.right, visitor)
		if err != nil {
			return zero, err
		}

		return visitor.VisitAnd(left, right)
	case OrExpr:
		left, err := VisitBoundExpr(e.left, visitor)
		if err != nil {
			return zero, err
		}

		right, err := VisitBoundExpr(e.right, visitor)
		if err != nil {
			return zero, err
		}

		return visitor.VisitOr(left, right)
	case BoundPredicate:
		return visitBoundPredicate(e, visitor)
	case nil:
		return zero, fmt.Errorf("%w: cannot visit nil expression", ErrInvalidArgument)
	}

	return zero, fmt.Errorf("%w: visiting expression %s", ErrNotImplemented, expr)
}

func visitBoundPredicate[T any](e BoundPredicate, visitor BoundPredicateVisitor[T]) (T, error) {
	ref := e.Ref()

	switch e.Op() {
	case OpIsNull:
		return visitor.VisitIsNull(ref, e)
	case OpNotNull:
		return visitor.VisitNotNull(ref, e)
	case OpIsNan:
		return visitor.VisitIsNaN(ref, e)
	case OpNotNan:
		return visitor.VisitNotNaN(ref, e)
	}

	if lp, ok := e.(BoundLiteralPredicate); ok {
		lit := lp.Literal()
		switch e.Op() {
		case OpLT:
			return visitor.VisitLess(ref, lit, e)
		case OpLTEQ:
			return visitor.VisitLessEqual(ref, lit, e)
		case OpGT:
			return visitor.VisitGreater(ref, lit, e)
		case OpGTEQ:
			return visitor.VisitGreaterEqual(ref, lit, e)
		case OpEQ:
			return visitor.VisitEqual(ref, lit, e)
		case OpNEQ:
			return visitor.VisitNotEqual(ref, lit, e)
		case OpStartsWith:
			return visitor.VisitStartsWith(ref, lit, e)
		case OpNotStartsWith:
			return visitor.VisitNotStartsWith(ref, lit, e)
		}
	}

	if sp, ok := e.(BoundSetPredicate); ok {
		switch e.Op() {
		case OpIn:
			return visitor.VisitIn(ref, sp.Literals(), e)
		case OpNotIn:
			return visitor.VisitNotIn(ref, sp.Literals(), e)
		}
	}

	var zero T

	return zero, fmt.Errorf("%w: unhandled bound predicate: %s", ErrNotImplemented, e)
}

// RewriteNotExpr pushes every negation in expr down to the leaves, so the
// result contains no Not nodes. And and Or are negated with De Morgan's laws
// and leaves use their inverse operator.
func RewriteNotExpr(expr BooleanExpression) (BooleanExpression, error) {
	return VisitBoundExpr[BooleanExpression](expr, rewriteNotVisitor{})
}

type rewriteNotVisitor struct{}

func (rewriteNotVisitor) VisitTrue() (BooleanExpression, error)  { return AlwaysTrue{}, nil }
func (rewriteNotVisitor) VisitFalse() (BooleanExpression, error) { return AlwaysFalse{}, nil }

func (rewriteNotVisitor) VisitNot(child BooleanExpression) (BooleanExpression, error) {
	return child.Negate(), nil
}

func (rewriteNotVisitor) VisitAnd(left, right BooleanExpression) (BooleanExpression, error) {
	return NewAnd(left, right), nil
}

func (rewriteNotVisitor) VisitOr(left, right BooleanExpression) (BooleanExpression, error) {
	return NewOr(left, right), nil
}

func (rewriteNotVisitor) VisitIsNull(_ BoundReference, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitNotNull(_ BoundReference, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitIsNaN(_ BoundReference, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitNotNaN(_ BoundReference, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitLess(_ BoundReference, _ Literal, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitLessEqual(_ BoundReference, _ Literal, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitGreater(_ BoundReference, _ Literal, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitGreaterEqual(_ BoundReference, _ Literal, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitEqual(_ BoundReference, _ Literal, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitNotEqual(_ BoundReference, _ Literal, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitStartsWith(_ BoundReference, _ Literal, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitNotStartsWith(_ BoundReference, _ Literal, pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitIn(_ BoundReference, _ Set[Literal], pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

func (rewriteNotVisitor) VisitNotIn(_ BoundReference, _ Set[Literal], pred BoundPredicate) (BooleanExpression, error) {
	return pred, nil
}

// NewRowEvaluator returns a function that tests a single partition tuple
// against expr. Negations are rewritten first, and every comparison against a
// null or NaN value is false, so Not(x < 5) does not match a null x.
func NewRowEvaluator(expr BooleanExpression) (func(Row) (bool, error), error) {
	rewritten, err := RewriteNotExpr(expr)
	if err != nil {
		return nil, err
	}

	return func(r Row) (bool, error) {
		return VisitBoundExpr[bool](rewritten, &rowEvaluator{row: r})
	}, nil
}

type rowEvaluator struct {
	row Row
}

func (*rowEvaluator) VisitTrue() (bool, error)                { return true, nil }
func (*rowEvaluator) VisitFalse() (bool, error)               { return false, nil }
func (*rowEvaluator) VisitNot(child bool) (bool, error)       { return !child, nil }
func (*rowEvaluator) VisitAnd(left, right bool) (bool, error) { return left && right, nil }
func (*rowEvaluator) VisitOr(left, right bool) (bool, error)  { return left || right, nil }

func (e *rowEvaluator) VisitIsNull(ref BoundReference, _ BoundPredicate) (bool, error) {
	return ref.evalIsNull(e.row), nil
}

func (e *rowEvaluator) VisitNotNull(ref BoundReference, _ BoundPredicate) (bool, error) {
	return !ref.evalIsNull(e.row), nil
}

func (e *rowEvaluator) VisitIsNaN(ref BoundReference, _ BoundPredicate) (bool, error) {
	return ref.evalIsNaN(e.row), nil
}

func (e *rowEvaluator) VisitNotNaN(ref BoundReference, _ BoundPredicate) (bool, error) {
	return !ref.evalIsNaN(e.row), nil
}

func (e *rowEvaluator) cmp(ref BoundReference, lit Literal, fn func(int) bool) (bool, error) {
	c, ok := ref.evalCompare(e.row, lit)

	return ok && fn(c), nil
}

func (e *rowEvaluator) VisitLess(ref BoundReference, lit Literal, _ BoundPredicate) (bool, error) {
	return e.cmp(ref, lit, func(c int) bool { return c < 0 })
}

func (e *rowEvaluator) VisitLessEqual(ref BoundReference, lit Literal, _ BoundPredicate) (bool, error) {
	return e.cmp(ref, lit, func(c int) bool { return c <= 0 })
}

func (e *rowEvaluator) VisitGreater(ref BoundReference, lit Literal, _ BoundPredicate) (bool, error) {
	return e.cmp(ref, lit, func(c int) bool { return c > 0 })
}

func (e *rowEvaluator) VisitGreaterEqual(ref BoundReference, lit Literal, _ BoundPredicate) (bool, error) {
	return e.cmp(ref, lit, func(c int) bool { return c >= 0 })
}

func (e *rowEvaluator) VisitEqual(ref BoundReference, lit Literal, _ BoundPredicate) (bool, error) {
	return e.cmp(ref, lit, func(c int) bool { return c == 0 })
}

func (e *rowEvaluator) VisitNotEqual(ref BoundReference, lit Literal, _ BoundPredicate) (bool, error) {
	if ref.evalIsNull(e.row) {
		return false, nil
	}

	// NaN is not equal to anything
	if ref.evalIsNaN(e.row) {
		return true, nil
	}

	return e.cmp(ref, lit, func(c int) bool { return c != 0 })
}

func (e *rowEvaluator) prefix(ref BoundReference, lit Literal) (Optional[bool], error) {
	p, ok := lit.(StringLiteral)
	if !ok {
		return Optional[bool]{}, fmt.Errorf("%w: prefix must be a string, got %s",
			ErrType, lit.Type())
	}

	v, err := ref.evalToLiteral(e.row)
	if err != nil || !v.Valid {
		return Optional[bool]{}, err
	}

	s, ok := v.Val.(StringLiteral)
	if !ok {
		return Optional[bool]{}, fmt.Errorf("%w: %s is not a string column",
			ErrType, ref.Field().Name)
	}

	return Optional[bool]{Valid: true, Val: strings.HasPrefix(string(s), string(p))}, nil
}

func (e *rowEvaluator) VisitStartsWith(ref BoundReference, lit Literal, _ BoundPredicate) (bool, error) {
	res, err := e.prefix(ref, lit)

	return res.Valid && res.Val, err
}

func (e *rowEvaluator) VisitNotStartsWith(ref BoundReference, lit Literal, _ BoundPredicate) (bool, error) {
	res, err := e.prefix(ref, lit)

	return res.Valid && !res.Val, err
}

func (e *rowEvaluator) VisitIn(ref BoundReference, lits Set[Literal], _ BoundPredicate) (bool, error) {
	if ref.evalIsNaN(e.row) {
		return false, nil
	}

	v, err := ref.evalToLiteral(e.row)

	return v.Valid && lits.Contains(v.Val), err
}

func (e *rowEvaluator) VisitNotIn(ref BoundReference, lits Set[Literal], _ BoundPredicate) (bool, error) {
	v, err := ref.evalToLiteral(e.row)

	return v.Valid && !lits.Contains(v.Val), err
}
