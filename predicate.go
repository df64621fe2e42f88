package strata

import "fmt"

// PredicateCondition enumerates the comparison operators of operator-scan
// predicates.
type PredicateCondition int

const (
	// ConditionEquals is `=`.
	ConditionEquals PredicateCondition = iota
	// ConditionNotEquals is `<>`.
	ConditionNotEquals
	// ConditionLessThan is `<`.
	ConditionLessThan
	// ConditionLessThanEquals is `<=`.
	ConditionLessThanEquals
	// ConditionGreaterThan is `>`.
	ConditionGreaterThan
	// ConditionGreaterThanEquals is `>=`.
	ConditionGreaterThanEquals
	// ConditionBetween is a two-bound inclusive range.
	ConditionBetween
	// ConditionLike is a SQL LIKE pattern match.
	ConditionLike
	// ConditionNotLike is a negated LIKE.
	ConditionNotLike
	// ConditionIsNull matches null positions.
	ConditionIsNull
	// ConditionIsNotNull matches non-null positions.
	ConditionIsNotNull
)

func (c PredicateCondition) String() string {
	switch c {
	case ConditionEquals:
		return "="
	case ConditionNotEquals:
		return "<>"
	case ConditionLessThan:
		return "<"
	case ConditionLessThanEquals:
		return "<="
	case ConditionGreaterThan:
		return ">"
	case ConditionGreaterThanEquals:
		return ">="
	case ConditionBetween:
		return "BETWEEN"
	case ConditionLike:
		return "LIKE"
	case ConditionNotLike:
		return "NOT LIKE"
	case ConditionIsNull:
		return "IS NULL"
	case ConditionIsNotNull:
		return "IS NOT NULL"
	}
	return "unknown"
}

// Inverse returns the logical negation of the condition.
func (c PredicateCondition) Inverse() (PredicateCondition, error) {
	switch c {
	case ConditionEquals:
		return ConditionNotEquals, nil
	case ConditionNotEquals:
		return ConditionEquals, nil
	case ConditionLessThan:
		return ConditionGreaterThanEquals, nil
	case ConditionLessThanEquals:
		return ConditionGreaterThan, nil
	case ConditionGreaterThan:
		return ConditionLessThanEquals, nil
	case ConditionGreaterThanEquals:
		return ConditionLessThan, nil
	case ConditionLike:
		return ConditionNotLike, nil
	case ConditionNotLike:
		return ConditionLike, nil
	case ConditionIsNull:
		return ConditionIsNotNull, nil
	case ConditionIsNotNull:
		return ConditionIsNull, nil
	}
	return c, fmt.Errorf("condition %s has no inverse", c)
}

// Flip mirrors a binary condition for swapped operands.
func (c PredicateCondition) Flip() (PredicateCondition, error) {
	switch c {
	case ConditionEquals, ConditionNotEquals:
		return c, nil
	case ConditionLessThan:
		return ConditionGreaterThan, nil
	case ConditionLessThanEquals:
		return ConditionGreaterThanEquals, nil
	case ConditionGreaterThan:
		return ConditionLessThan, nil
	case ConditionGreaterThanEquals:
		return ConditionLessThanEquals, nil
	}
	return c, fmt.Errorf("condition %s is not flippable", c)
}

// operandKind tags the payload of an Operand.
type operandKind int

const (
	operandVariant operandKind = iota
	operandColumn
)

// Operand is the right-hand side of an operator-scan predicate: either a
// literal variant or a column reference.
type Operand struct {
	kind    operandKind
	variant Variant
	column  ColumnID
}

// VariantOperand wraps a literal value.
func VariantOperand(v Variant) Operand {
	return Operand{kind: operandVariant, variant: v}
}

// ColumnOperand wraps a column reference.
func ColumnOperand(id ColumnID) Operand {
	return Operand{kind: operandColumn, column: id}
}

// IsVariant reports whether the operand is a literal.
func (o Operand) IsVariant() bool {
	return o.kind == operandVariant
}

// Variant returns the literal payload. IsVariant must be true.
func (o Operand) Variant() Variant {
	return o.variant
}

// Column returns the column payload. IsVariant must be false.
func (o Operand) Column() ColumnID {
	return o.column
}

// OperatorScanPredicate is the normalized predicate form consumed by
// pruning and scans: the column is always on the left.
type OperatorScanPredicate struct {
	ColumnID  ColumnID
	Condition PredicateCondition
	Value     Operand
	Value2    *Variant
}

// OperatorScanPredicatesFromExpression flattens a predicate expression
// into normalized predicates. Expressions referencing parameters,
// subqueries or arithmetic are rejected with ok == false.
func OperatorScanPredicatesFromExpression(expr Expression) ([]OperatorScanPredicate, bool) {
	switch e := expr.(type) {
	case *BinaryPredicateExpression:
		return binaryToScanPredicate(e)
	case *BetweenExpression:
		return betweenToScanPredicate(e)
	case *IsNullExpression:
		column, ok := e.Operand.(*ColumnExpression)
		if !ok {
			return nil, false
		}
		return []OperatorScanPredicate{{
			ColumnID:  column.Column,
			Condition: e.Condition,
			Value:     VariantOperand(NullVariant()),
		}}, true
	}
	return nil, false
}

func binaryToScanPredicate(e *BinaryPredicateExpression) ([]OperatorScanPredicate, bool) {
	condition := e.Condition
	left, right := e.Left, e.Right

	// Canonical form keeps the column on the left; flipping the operands
	// of an asymmetric condition flips the condition too.
	if _, ok := left.(*ColumnExpression); !ok {
		flipped, err := condition.Flip()
		if err != nil {
			return nil, false
		}
		condition = flipped
		left, right = right, left
	}

	column, ok := left.(*ColumnExpression)
	if !ok {
		return nil, false
	}

	switch r := right.(type) {
	case *ValueExpression:
		return []OperatorScanPredicate{{
			ColumnID:  column.Column,
			Condition: condition,
			Value:     VariantOperand(r.Value),
		}}, true
	case *ColumnExpression:
		return []OperatorScanPredicate{{
			ColumnID:  column.Column,
			Condition: condition,
			Value:     ColumnOperand(r.Column),
		}}, true
	}
	return nil, false
}

func betweenToScanPredicate(e *BetweenExpression) ([]OperatorScanPredicate, bool) {
	column, ok := e.Value.(*ColumnExpression)
	if !ok {
		return nil, false
	}
	lower, ok := e.Lower.(*ValueExpression)
	if !ok {
		return nil, false
	}
	upper, ok := e.Upper.(*ValueExpression)
	if !ok {
		return nil, false
	}
	value2 := upper.Value
	return []OperatorScanPredicate{{
		ColumnID:  column.Column,
		Condition: ConditionBetween,
		Value:     VariantOperand(lower.Value),
		Value2:    &value2,
	}}, true
}
