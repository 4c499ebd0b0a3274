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

func must(expr BooleanExpression, err error) BooleanExpression {
	if err != nil {
		panic(err)
	}

	return expr
}

// IsNull is a convenience wrapper for NewBoundUnaryPredicate(OpIsNull, t)
//
// Will panic if t is nil
func IsNull(t BoundTerm) BooleanExpression {
	return must(NewBoundUnaryPredicate(OpIsNull, t))
}

// NotNull is a convenience wrapper for NewBoundUnaryPredicate(OpNotNull, t)
//
// Will panic if t is nil
func NotNull(t BoundTerm) BooleanExpression {
	return must(NewBoundUnaryPredicate(OpNotNull, t))
}

// IsNaN is a convenience wrapper for NewBoundUnaryPredicate(OpIsNan, t)
//
// Will panic if t is nil
func IsNaN(t BoundTerm) BooleanExpression {
	return must(NewBoundUnaryPredicate(OpIsNan, t))
}

// NotNaN is a convenience wrapper for NewBoundUnaryPredicate(OpNotNan, t)
//
// Will panic if t is nil
func NotNaN(t BoundTerm) BooleanExpression {
	return must(NewBoundUnaryPredicate(OpNotNan, t))
}

func literals[T LiteralType](vals []T) []Literal {
	lits := make([]Literal, 0, len(vals))
	for _, v := range vals {
		lits = append(lits, NewLiteral(v))
	}

	return lits
}

// IsIn is a convenience wrapper for NewBoundSetPredicate with OpIn. Depending
// on the number of distinct values it may reduce to AlwaysFalse or EqualTo.
//
// Will panic if t is nil or a value cannot be cast to t's type
func IsIn[T LiteralType](t BoundTerm, vals ...T) BooleanExpression {
	return must(NewBoundSetPredicate(OpIn, t, literals(vals)))
}

// NotIn is a convenience wrapper for NewBoundSetPredicate with OpNotIn.
// Depending on the number of distinct values it may reduce to AlwaysTrue or
// NotEqualTo.
//
// Will panic if t is nil or a value cannot be cast to t's type
func NotIn[T LiteralType](t BoundTerm, vals ...T) BooleanExpression {
	return must(NewBoundSetPredicate(OpNotIn, t, literals(vals)))
}

// EqualTo is a convenience wrapper for NewBoundLiteralPredicate(OpEQ, t, NewLiteral(v))
//
// Will panic if t is nil or v cannot be cast to t's type
func EqualTo[T LiteralType](t BoundTerm, v T) BooleanExpression {
	return must(NewBoundLiteralPredicate(OpEQ, t, NewLiteral(v)))
}

// NotEqualTo is a convenience wrapper for NewBoundLiteralPredicate(OpNEQ, t, NewLiteral(v))
func NotEqualTo[T LiteralType](t BoundTerm, v T) BooleanExpression {
	return must(NewBoundLiteralPredicate(OpNEQ, t, NewLiteral(v)))
}

func GreaterThanEqual[T LiteralType](t BoundTerm, v T) BooleanExpression {
	return must(NewBoundLiteralPredicate(OpGTEQ, t, NewLiteral(v)))
}

func GreaterThan[T LiteralType](t BoundTerm, v T) BooleanExpression {
	return must(NewBoundLiteralPredicate(OpGT, t, NewLiteral(v)))
}

func LessThanEqual[T LiteralType](t BoundTerm, v T) BooleanExpression {
	return must(NewBoundLiteralPredicate(OpLTEQ, t, NewLiteral(v)))
}

func LessThan[T LiteralType](t BoundTerm, v T) BooleanExpression {
	return must(NewBoundLiteralPredicate(OpLT, t, NewLiteral(v)))
}

// StartsWith is a convenience wrapper for NewBoundLiteralPredicate(OpStartsWith,
// t, NewLiteral(v))
//
// Will panic if t is not a string or binary column
func StartsWith(t BoundTerm, v string) BooleanExpression {
	return must(NewBoundLiteralPredicate(OpStartsWith, t, NewLiteral(v)))
}

// NotStartsWith is a convenience wrapper for NewBoundLiteralPredicate(OpNotStartsWith,
// t, NewLiteral(v))
func NotStartsWith(t BoundTerm, v string) BooleanExpression {
	return must(NewBoundLiteralPredicate(OpNotStartsWith, t, NewLiteral(v)))
}
