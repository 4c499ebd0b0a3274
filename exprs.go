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
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Operation is an enum used for constants to define what operation a given
// expression or predicate is going to execute.
type Operation int

const (
	// do not change the order of these enum constants.
	// they are grouped for quick validation of operation type by
	// using <= and >= of the first/last operation in a group

	OpTrue  Operation = iota // True
	OpFalse                  // False
	// unary ops
	OpIsNull  // IsNull
	OpNotNull // NotNull
	OpIsNan   // IsNaN
	OpNotNan  // NotNaN
	// literal ops
	OpLT            // LessThan
	OpLTEQ          // LessThanEqual
	OpGT            // GreaterThan
	OpGTEQ          // GreaterThanEqual
	OpEQ            // Equal
	OpNEQ           // NotEqual
	OpStartsWith    // StartsWith
	OpNotStartsWith // NotStartsWith
	// set ops
	OpIn    // In
	OpNotIn // NotIn
	// boolean ops
	OpNot // Not
	OpAnd // And
	OpOr  // Or
)

var operationNames = [...]string{
	OpTrue: "True", OpFalse: "False",
	OpIsNull: "IsNull", OpNotNull: "NotNull", OpIsNan: "IsNaN", OpNotNan: "NotNaN",
	OpLT: "LessThan", OpLTEQ: "LessThanEqual", OpGT: "GreaterThan",
	OpGTEQ: "GreaterThanEqual", OpEQ: "Equal", OpNEQ: "NotEqual",
	OpStartsWith: "StartsWith", OpNotStartsWith: "NotStartsWith",
	OpIn: "In", OpNotIn: "NotIn",
	OpNot: "Not", OpAnd: "And", OpOr: "Or",
}

func (op Operation) String() string {
	if op < 0 || int(op) >= len(operationNames) {
		return fmt.Sprintf("Operation(%d)", int(op))
	}

	return operationNames[op]
}

// Negate returns the inverse operation for a given op
func (op Operation) Negate() Operation {
	switch op {
	case OpIsNull:
		return OpNotNull
	case OpNotNull:
		return OpIsNull
	case OpIsNan:
		return OpNotNan
	case OpNotNan:
		return OpIsNan
	case OpLT:
		return OpGTEQ
	case OpLTEQ:
		return OpGT
	case OpGT:
		return OpLTEQ
	case OpGTEQ:
		return OpLT
	case OpEQ:
		return OpNEQ
	case OpNEQ:
		return OpEQ
	case OpIn:
		return OpNotIn
	case OpNotIn:
		return OpIn
	case OpStartsWith:
		return OpNotStartsWith
	case OpNotStartsWith:
		return OpStartsWith
	default:
		panic("no negation for operation " + op.String())
	}
}

// BooleanExpression represents a full expression which will evaluate to a
// boolean value such as GreaterThan or StartsWith, etc.
type BooleanExpression interface {
	fmt.Stringer
	Op() Operation
	Negate() BooleanExpression
	Equals(BooleanExpression) bool
}

// AlwaysTrue is the boolean expression "True"
type AlwaysTrue struct{}

func (AlwaysTrue) String() string            { return "AlwaysTrue()" }
func (AlwaysTrue) Op() Operation             { return OpTrue }
func (AlwaysTrue) Negate() BooleanExpression { return AlwaysFalse{} }
func (AlwaysTrue) Equals(other BooleanExpression) bool {
	_, ok := other.(AlwaysTrue)

	return ok
}

// AlwaysFalse is the boolean expression "False"
type AlwaysFalse struct{}

func (AlwaysFalse) String() string            { return "AlwaysFalse()" }
func (AlwaysFalse) Op() Operation             { return OpFalse }
func (AlwaysFalse) Negate() BooleanExpression { return AlwaysTrue{} }
func (AlwaysFalse) Equals(other BooleanExpression) bool {
	_, ok := other.(AlwaysFalse)

	return ok
}

type NotExpr struct {
	child BooleanExpression
}

// NewNot creates a BooleanExpression representing a "Not" operation on the given
// argument. Constants are inverted directly and a double negation returns the
// inner expression.
//
// Will panic if child is nil.
func NewNot(child BooleanExpression) BooleanExpression {
	if child == nil {
		panic(fmt.Errorf("%w: cannot create NotExpr with nil child",
			ErrInvalidArgument))
	}

	switch t := child.(type) {
	case NotExpr:
		return t.child
	case AlwaysTrue:
		return AlwaysFalse{}
	case AlwaysFalse:
		return AlwaysTrue{}
	}

	return NotExpr{child: child}
}

func (n NotExpr) Child() BooleanExpression  { return n.child }
func (n NotExpr) String() string            { return "Not(child=" + n.child.String() + ")" }
func (NotExpr) Op() Operation               { return OpNot }
func (n NotExpr) Negate() BooleanExpression { return n.child }
func (n NotExpr) Equals(other BooleanExpression) bool {
	rhs, ok := other.(NotExpr)

	return ok && n.child.Equals(rhs.child)
}

type AndExpr struct {
	left, right BooleanExpression
}

func newAnd(left, right BooleanExpression) BooleanExpression {
	if left == nil || right == nil {
		panic(fmt.Errorf("%w: cannot construct AndExpr with nil arguments",
			ErrInvalidArgument))
	}

	switch {
	case left == AlwaysFalse{} || right == AlwaysFalse{}:
		return AlwaysFalse{}
	case left == AlwaysTrue{}:
		return right
	case right == AlwaysTrue{}:
		return left
	}

	return AndExpr{left: left, right: right}
}

// NewAnd will construct a new AndExpr, folding any additional arguments so that
// NewAnd(a, b, c) becomes AndExpr(AndExpr(a, b), c).
//
// If any argument is AlwaysFalse the result is AlwaysFalse, and AlwaysTrue
// arguments are dropped.
//
// Will panic if any argument is nil
func NewAnd(left, right BooleanExpression, addl ...BooleanExpression) BooleanExpression {
	folded := newAnd(left, right)
	for _, a := range addl {
		folded = newAnd(folded, a)
	}

	return folded
}

func (a AndExpr) Left() BooleanExpression  { return a.left }
func (a AndExpr) Right() BooleanExpression { return a.right }

func (a AndExpr) String() string {
	return "And(left=" + a.left.String() + ", right=" + a.right.String() + ")"
}

func (AndExpr) Op() Operation { return OpAnd }

func (a AndExpr) Equals(other BooleanExpression) bool {
	rhs, ok := other.(AndExpr)
	if !ok {
		return false
	}

	return (a.left.Equals(rhs.left) && a.right.Equals(rhs.right)) ||
		(a.left.Equals(rhs.right) && a.right.Equals(rhs.left))
}

func (a AndExpr) Negate() BooleanExpression {
	return NewOr(a.left.Negate(), a.right.Negate())
}

type OrExpr struct {
	left, right BooleanExpression
}

func newOr(left, right BooleanExpression) BooleanExpression {
	if left == nil || right == nil {
		panic(fmt.Errorf("%w: cannot construct OrExpr with nil arguments",
			ErrInvalidArgument))
	}

	switch {
	case left == AlwaysTrue{} || right == AlwaysTrue{}:
		return AlwaysTrue{}
	case left == AlwaysFalse{}:
		return right
	case right == AlwaysFalse{}:
		return left
	}

	return OrExpr{left: left, right: right}
}

// NewOr will construct a new OrExpr, folding any additional arguments the
// same way NewAnd does.
//
// If any argument is AlwaysTrue the result is AlwaysTrue, and AlwaysFalse
// arguments are dropped.
//
// Will panic if any argument is nil
func NewOr(left, right BooleanExpression, addl ...BooleanExpression) BooleanExpression {
	folded := newOr(left, right)
	for _, a := range addl {
		folded = newOr(folded, a)
	}

	return folded
}

func (o OrExpr) Left() BooleanExpression  { return o.left }
func (o OrExpr) Right() BooleanExpression { return o.right }

func (o OrExpr) String() string {
	return "Or(left=" + o.left.String() + ", right=" + o.right.String() + ")"
}

func (OrExpr) Op() Operation { return OpOr }

func (o OrExpr) Equals(other BooleanExpression) bool {
	rhs, ok := other.(OrExpr)
	if !ok {
		return false
	}

	return (o.left.Equals(rhs.left) && o.right.Equals(rhs.right)) ||
		(o.left.Equals(rhs.right) && o.right.Equals(rhs.left))
}

func (o OrExpr) Negate() BooleanExpression {
	return NewAnd(o.left.Negate(), o.right.Negate())
}

// BoundTerm is an expression that evaluates to a typed value of a
// partition tuple.
type BoundTerm interface {
	fmt.Stringer

	Equals(BoundTerm) bool
	Ref() BoundReference
	Type() Type

	// evalToLiteral converts the row's value to a literal of the field's
	// type. A value that cannot be cast is an error, not a null.
	evalToLiteral(Row) (Optional[Literal], error)
	evalIsNull(Row) bool
	evalIsNaN(Row) bool
	// evalCompare compares the row's value to lit, reporting false when the
	// value is null or NaN.
	evalCompare(Row, Literal) (int, bool)

	newUnaryPredicate(Operation) BoundPredicate
	newLiteralPredicate(Operation, Literal) BoundPredicate
	newSetPredicate(Operation, Set[Literal]) BoundPredicate
}

// BoundPredicate is a boolean predicate expression over a bound reference.
type BoundPredicate interface {
	BooleanExpression
	Ref() BoundReference
	Term() BoundTerm
}

// BoundReference is a typed reference to a partition field, carrying its
// position within a manifest's partition summaries.
type BoundReference interface {
	BoundTerm

	Field() NestedField
	Pos() int
}

type boundRef[T LiteralType] struct {
	field NestedField
	pos   int
}

// NewBoundReference returns a reference to the partition field at position
// pos. The position is trusted: it is not checked against any manifest.
//
// Will panic if the field has no type or a non-primitive type.
func NewBoundReference(field NestedField, pos int) BoundReference {
	switch field.Type.(type) {
	case BooleanType:
		return &boundRef[bool]{field: field, pos: pos}
	case Int32Type:
		return &boundRef[int32]{field: field, pos: pos}
	case Int64Type:
		return &boundRef[int64]{field: field, pos: pos}
	case Float32Type:
		return &boundRef[float32]{field: field, pos: pos}
	case Float64Type:
		return &boundRef[float64]{field: field, pos: pos}
	case DateType:
		return &boundRef[Date]{field: field, pos: pos}
	case TimeType:
		return &boundRef[Time]{field: field, pos: pos}
	case TimestampType, TimestampTzType:
		return &boundRef[Timestamp]{field: field, pos: pos}
	case StringType:
		return &boundRef[string]{field: field, pos: pos}
	case FixedType, BinaryType:
		return &boundRef[[]byte]{field: field, pos: pos}
	case DecimalType:
		return &boundRef[Decimal]{field: field, pos: pos}
	case UUIDType:
		return &boundRef[uuid.UUID]{field: field, pos: pos}
	case nil:
		panic(fmt.Errorf("%w: field %q has no type", ErrInvalidArgument, field.Name))
	}

	panic(fmt.Errorf("%w: unhandled bound reference type: %s", ErrType, field.Type))
}

func (b *boundRef[T]) Pos() int { return b.pos }

func (b *boundRef[T]) String() string {
	return fmt.Sprintf("BoundReference(field=%s, pos=%d)", b.field, b.pos)
}

func (b *boundRef[T]) Equals(other BoundTerm) bool {
	rhs, ok := other.(*boundRef[T])
	if !ok {
		return false
	}

	return b.pos == rhs.pos && b.field.Equals(rhs.field)
}

func (b *boundRef[T]) Ref() BoundReference { return b }
func (b *boundRef[T]) Field() NestedField  { return b.field }
func (b *boundRef[T]) Type() Type          { return b.field.Type }

func (b *boundRef[T]) eval(r Row) Optional[T] {
	switch v := r.Get(b.pos).(type) {
	case nil:
		return Optional[T]{}
	case T:
		return Optional[T]{Valid: true, Val: v}
	case TypedLiteral[T]:
		return Optional[T]{Valid: true, Val: v.Value()}
	default:
		var z T
		typ, val := reflect.TypeOf(z), reflect.ValueOf(v)
		if !val.CanConvert(typ) {
			panic(fmt.Errorf("%w: cannot convert value '%+v' to expected type %s",
				ErrType, val.Interface(), typ.String()))
		}

		return Optional[T]{Valid: true, Val: val.Convert(typ).Interface().(T)}
	}
}

func (b *boundRef[T]) evalToLiteral(r Row) (Optional[Literal], error) {
	v := b.eval(r)
	if !v.Valid {
		return Optional[Literal]{}, nil
	}

	lit := NewLiteral(v.Val)
	if !lit.Type().Equals(b.field.Type) {
		var err error
		if lit, err = lit.To(b.field.Type); err != nil {
			return Optional[Literal]{}, fmt.Errorf("field %s: %w", b.field.Name, err)
		}
	}

	return Optional[Literal]{Val: lit, Valid: true}, nil
}

func (b *boundRef[T]) evalIsNull(r Row) bool { return !b.eval(r).Valid }

func (b *boundRef[T]) evalIsNaN(r Row) bool {
	v := b.eval(r)

	return v.Valid && isNaN(v.Val)
}

func (b *boundRef[T]) evalCompare(r Row, lit Literal) (int, bool) {
	v := b.eval(r)
	if !v.Valid || isNaN(v.Val) {
		return 0, false
	}

	rhs := lit.(TypedLiteral[T])

	return rhs.Comparator()(v.Val, rhs.Value()), true
}

func isNaN(v any) bool {
	switch v := v.(type) {
	case float32:
		return math.IsNaN(float64(v))
	case float64:
		return math.IsNaN(v)
	}

	return false
}

func (b *boundRef[T]) newUnaryPredicate(op Operation) BoundPredicate {
	return &boundUnaryPredicate[T]{op: op, term: b}
}

func (b *boundRef[T]) newLiteralPredicate(op Operation, lit Literal) BoundPredicate {
	return &boundLiteralPredicate[T]{op: op, term: b, lit: lit.(TypedLiteral[T])}
}

func (b *boundRef[T]) newSetPredicate(op Operation, lits Set[Literal]) BoundPredicate {
	return &boundSetPredicate[T]{op: op, term: b, lits: lits}
}

// BoundUnaryPredicate is a bound predicate expression that has no arguments
type BoundUnaryPredicate interface {
	BoundPredicate

	unary()
}

// NewBoundUnaryPredicate creates an IsNull, NotNull, IsNaN or NotNaN predicate.
//
// Null checks against a required field and NaN checks against a column that
// cannot hold NaN are folded to a constant.
func NewBoundUnaryPredicate(op Operation, term BoundTerm) (BooleanExpression, error) {
	if op < OpIsNull || op > OpNotNan {
		return nil, fmt.Errorf("%w: invalid operation for unary predicate: %s",
			ErrInvalidArgument, op)
	}

	if term == nil {
		return nil, fmt.Errorf("%w: cannot create unary predicate with nil term",
			ErrInvalidArgument)
	}

	switch op {
	case OpIsNull:
		if term.Ref().Field().Required {
			return AlwaysFalse{}, nil
		}
	case OpNotNull:
		if term.Ref().Field().Required {
			return AlwaysTrue{}, nil
		}
	case OpIsNan:
		if !isFloatingType(term.Type()) {
			return AlwaysFalse{}, nil
		}
	case OpNotNan:
		if !isFloatingType(term.Type()) {
			return AlwaysTrue{}, nil
		}
	}

	return term.newUnaryPredicate(op), nil
}

type boundUnaryPredicate[T LiteralType] struct {
	op   Operation
	term *boundRef[T]
}

func (bp *boundUnaryPredicate[T]) unary() {}

func (bp *boundUnaryPredicate[T]) Equals(other BooleanExpression) bool {
	rhs, ok := other.(*boundUnaryPredicate[T])

	return ok && bp.op == rhs.op && bp.term.Equals(rhs.term)
}

func (bp *boundUnaryPredicate[T]) Op() Operation { return bp.op }
func (bp *boundUnaryPredicate[T]) Negate() BooleanExpression {
	return &boundUnaryPredicate[T]{op: bp.op.Negate(), term: bp.term}
}

func (bp *boundUnaryPredicate[T]) Term() BoundTerm     { return bp.term }
func (bp *boundUnaryPredicate[T]) Ref() BoundReference { return bp.term }
func (bp *boundUnaryPredicate[T]) String() string {
	return fmt.Sprintf("Bound%s(term=%s)", bp.op, bp.term)
}

// BoundLiteralPredicate represents a bound boolean expression that utilizes a single
// literal as an argument, such as Equals or StartsWith.
type BoundLiteralPredicate interface {
	BoundPredicate

	Literal() Literal
}

// NewBoundLiteralPredicate creates a comparison or prefix predicate. The
// literal is cast to the term's type.
func NewBoundLiteralPredicate(op Operation, term BoundTerm, lit Literal) (BooleanExpression, error) {
	switch {
	case op < OpLT || op > OpNotStartsWith:
		return nil, fmt.Errorf("%w: invalid operation for literal predicate: %s",
			ErrInvalidArgument, op)
	case term == nil:
		return nil, fmt.Errorf("%w: cannot create literal predicate with nil term",
			ErrInvalidArgument)
	case lit == nil:
		return nil, fmt.Errorf("%w: cannot create literal predicate with nil literal",
			ErrInvalidArgument)
	}

	if (op == OpStartsWith || op == OpNotStartsWith) &&
		!term.Type().Equals(PrimitiveTypes.String) && !term.Type().Equals(PrimitiveTypes.Binary) {
		return nil, fmt.Errorf("%w: %s requires a string or binary column, not %s",
			ErrType, op, term.Type())
	}

	finalLit, err := lit.To(term.Type())
	if err != nil {
		return nil, err
	}

	return term.newLiteralPredicate(op, finalLit), nil
}

type boundLiteralPredicate[T LiteralType] struct {
	op   Operation
	term *boundRef[T]
	lit  TypedLiteral[T]
}

func (blp *boundLiteralPredicate[T]) Equals(other BooleanExpression) bool {
	rhs, ok := other.(*boundLiteralPredicate[T])

	return ok && blp.op == rhs.op && blp.term.Equals(rhs.term) && blp.lit.Equals(rhs.lit)
}

func (blp *boundLiteralPredicate[T]) Op() Operation { return blp.op }
func (blp *boundLiteralPredicate[T]) Negate() BooleanExpression {
	return &boundLiteralPredicate[T]{op: blp.op.Negate(), term: blp.term, lit: blp.lit}
}
func (blp *boundLiteralPredicate[T]) Term() BoundTerm     { return blp.term }
func (blp *boundLiteralPredicate[T]) Ref() BoundReference { return blp.term }
func (blp *boundLiteralPredicate[T]) Literal() Literal    { return blp.lit }
func (blp *boundLiteralPredicate[T]) String() string {
	return fmt.Sprintf("Bound%s(term=%s, literal=%s)", blp.op, blp.term, blp.lit)
}

// BoundSetPredicate is a bound expression that utilizes a set of literals such as In or NotIn
type BoundSetPredicate interface {
	BoundPredicate

	Literals() Set[Literal]
}

// NewBoundSetPredicate creates an In or NotIn predicate. Literals are cast to
// the term's type and de-duplicated. An empty set folds to a constant and a
// single member folds to Equal or NotEqual.
func NewBoundSetPredicate(op Operation, term BoundTerm, lits []Literal) (BooleanExpression, error) {
	switch {
	case op < OpIn || op > OpNotIn:
		return nil, fmt.Errorf("%w: invalid operation for set predicate: %s",
			ErrInvalidArgument, op)
	case term == nil:
		return nil, fmt.Errorf("%w: cannot create set predicate with nil term",
			ErrInvalidArgument)
	}

	typedSet := newLiteralSet()
	for _, v := range lits {
		if v == nil {
			return nil, fmt.Errorf("%w: nil literal in set predicate", ErrInvalidArgument)
		}

		casted, err := v.To(term.Type())
		if err != nil {
			return nil, err
		}
		typedSet.Add(casted)
	}

	switch typedSet.Len() {
	case 0:
		if op == OpIn {
			return AlwaysFalse{}, nil
		}

		return AlwaysTrue{}, nil
	case 1:
		if op == OpIn {
			return term.newLiteralPredicate(OpEQ, typedSet.Members()[0]), nil
		}

		return term.newLiteralPredicate(OpNEQ, typedSet.Members()[0]), nil
	}

	return term.newSetPredicate(op, typedSet), nil
}

type boundSetPredicate[T LiteralType] struct {
	op   Operation
	term *boundRef[T]
	lits Set[Literal]
}

func (bsp *boundSetPredicate[T]) Equals(other BooleanExpression) bool {
	rhs, ok := other.(*boundSetPredicate[T])

	return ok && bsp.op == rhs.op && bsp.term.Equals(rhs.term) &&
		bsp.lits.Equals(rhs.lits)
}

func (bsp *boundSetPredicate[T]) Op() Operation { return bsp.op }
func (bsp *boundSetPredicate[T]) Negate() BooleanExpression {
	return &boundSetPredicate[T]{op: bsp.op.Negate(), term: bsp.term, lits: bsp.lits}
}
func (bsp *boundSetPredicate[T]) Term() BoundTerm        { return bsp.term }
func (bsp *boundSetPredicate[T]) Ref() BoundReference    { return bsp.term }
func (bsp *boundSetPredicate[T]) Literals() Set[Literal] { return bsp.lits }

func (bsp *boundSetPredicate[T]) String() string {
	members := make([]string, 0, bsp.lits.Len())
	for _, m := range bsp.lits.Members() {
		members = append(members, m.String())
	}
	// map iteration order is random, keep the output stable
	slices.Sort(members)

	return fmt.Sprintf("Bound%s(term=%s, {%s})", bsp.op, bsp.term, strings.Join(members, ", "))
}
