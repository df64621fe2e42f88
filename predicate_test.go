package strata

import "testing"

func TestConditionInverseInvolution(t *testing.T) {
	ops := []PredicateCondition{
		ConditionEquals, ConditionNotEquals,
		ConditionLessThan, ConditionLessThanEquals,
		ConditionGreaterThan, ConditionGreaterThanEquals,
		ConditionLike, ConditionNotLike,
		ConditionIsNull, ConditionIsNotNull,
	}
	for _, op := range ops {
		inv, err := op.Inverse()
		if err != nil {
			t.Fatalf("Inverse(%s): %v", op, err)
		}
		back, err := inv.Inverse()
		if err != nil {
			t.Fatalf("Inverse(%s): %v", inv, err)
		}
		if back != op {
			t.Errorf("Inverse(Inverse(%s)) = %s", op, back)
		}
	}
	if _, err := ConditionBetween.Inverse(); err == nil {
		t.Error("BETWEEN should have no inverse")
	}
}

func TestConditionFlipInvolution(t *testing.T) {
	flippable := []PredicateCondition{
		ConditionEquals, ConditionNotEquals,
		ConditionLessThan, ConditionLessThanEquals,
		ConditionGreaterThan, ConditionGreaterThanEquals,
	}
	for _, op := range flippable {
		flipped, err := op.Flip()
		if err != nil {
			t.Fatalf("Flip(%s): %v", op, err)
		}
		back, err := flipped.Flip()
		if err != nil {
			t.Fatalf("Flip(%s): %v", flipped, err)
		}
		if back != op {
			t.Errorf("Flip(Flip(%s)) = %s", op, back)
		}
	}
	if _, err := ConditionLike.Flip(); err == nil {
		t.Error("LIKE should not be flippable")
	}
}

func TestConditionFlipPairs(t *testing.T) {
	pairs := map[PredicateCondition]PredicateCondition{
		ConditionLessThan:       ConditionGreaterThan,
		ConditionLessThanEquals: ConditionGreaterThanEquals,
		ConditionEquals:         ConditionEquals,
		ConditionNotEquals:      ConditionNotEquals,
	}
	for op, want := range pairs {
		got, err := op.Flip()
		if err != nil {
			t.Fatalf("Flip(%s): %v", op, err)
		}
		if got != want {
			t.Errorf("Flip(%s) = %s, want %s", op, got, want)
		}
	}
}

func TestFromExpressionColumnLeft(t *testing.T) {
	expr := &BinaryPredicateExpression{
		Condition: ConditionGreaterThan,
		Left:      &ColumnExpression{Column: 2},
		Right:     &ValueExpression{Value: Int32Variant(5)},
	}
	preds, ok := OperatorScanPredicatesFromExpression(expr)
	if !ok || len(preds) != 1 {
		t.Fatalf("flatten failed: ok=%v preds=%v", ok, preds)
	}
	p := preds[0]
	if p.ColumnID != 2 || p.Condition != ConditionGreaterThan {
		t.Errorf("predicate = %+v", p)
	}
	if !p.Value.IsVariant() || p.Value.Variant().Int32() != 5 {
		t.Errorf("value operand = %+v", p.Value)
	}
}

func TestFromExpressionFlipsLiteralLeft(t *testing.T) {
	// 5 < col  ==>  col > 5
	expr := &BinaryPredicateExpression{
		Condition: ConditionLessThan,
		Left:      &ValueExpression{Value: Int32Variant(5)},
		Right:     &ColumnExpression{Column: 1},
	}
	preds, ok := OperatorScanPredicatesFromExpression(expr)
	if !ok || len(preds) != 1 {
		t.Fatalf("flatten failed")
	}
	if preds[0].Condition != ConditionGreaterThan {
		t.Errorf("condition = %s, want >", preds[0].Condition)
	}
	if preds[0].ColumnID != 1 {
		t.Errorf("column = %d, want 1", preds[0].ColumnID)
	}
}

func TestFromExpressionBetween(t *testing.T) {
	expr := &BetweenExpression{
		Value: &ColumnExpression{Column: 0},
		Lower: &ValueExpression{Value: Int64Variant(10)},
		Upper: &ValueExpression{Value: Int64Variant(20)},
	}
	preds, ok := OperatorScanPredicatesFromExpression(expr)
	if !ok || len(preds) != 1 {
		t.Fatalf("flatten failed")
	}
	p := preds[0]
	if p.Condition != ConditionBetween {
		t.Errorf("condition = %s, want BETWEEN", p.Condition)
	}
	if p.Value2 == nil || p.Value2.Int64() != 20 {
		t.Errorf("value2 = %v, want 20", p.Value2)
	}
}

func TestFromExpressionColumnToColumn(t *testing.T) {
	expr := &BinaryPredicateExpression{
		Condition: ConditionEquals,
		Left:      &ColumnExpression{Column: 0},
		Right:     &ColumnExpression{Column: 1},
	}
	preds, ok := OperatorScanPredicatesFromExpression(expr)
	if !ok || len(preds) != 1 {
		t.Fatalf("flatten failed")
	}
	if preds[0].Value.IsVariant() {
		t.Error("column operand should not be a variant")
	}
	if preds[0].Value.Column() != 1 {
		t.Errorf("operand column = %d, want 1", preds[0].Value.Column())
	}
}

func TestFromExpressionRejectsParametersAndSubqueries(t *testing.T) {
	cases := []Expression{
		&BinaryPredicateExpression{
			Condition: ConditionEquals,
			Left:      &ColumnExpression{Column: 0},
			Right:     &ParameterExpression{Index: 0},
		},
		&BinaryPredicateExpression{
			Condition: ConditionEquals,
			Left:      &ColumnExpression{Column: 0},
			Right:     &SubqueryExpression{},
		},
		&BetweenExpression{
			Value: &ColumnExpression{Column: 0},
			Lower: &ParameterExpression{Index: 0},
			Upper: &ValueExpression{Value: Int32Variant(1)},
		},
		&ValueExpression{Value: Int32Variant(1)},
	}
	for i, expr := range cases {
		if _, ok := OperatorScanPredicatesFromExpression(expr); ok {
			t.Errorf("case %d: expected rejection", i)
		}
	}
}

func TestFromExpressionIsNull(t *testing.T) {
	expr := &IsNullExpression{Condition: ConditionIsNull, Operand: &ColumnExpression{Column: 3}}
	preds, ok := OperatorScanPredicatesFromExpression(expr)
	if !ok || len(preds) != 1 {
		t.Fatalf("flatten failed")
	}
	if preds[0].Condition != ConditionIsNull || preds[0].ColumnID != 3 {
		t.Errorf("predicate = %+v", preds[0])
	}
}
