package strata

import (
	"context"
	"testing"

	"github.com/strata-db/strata/internal/testutil"
)

// buildRangedTable creates a table whose chunk i covers col_a values
// [10*i, 10*i+9], with statistics attached and the table registered as
// "lineitem".
func buildRangedTable(t *testing.T, chunks int) (*Catalog, TableHandle, *Table) {
	t.Helper()
	table := NewTable(Schema{{Name: "col_a", DataType: DataTypeInt32}})
	for i := 0; i < chunks; i++ {
		chunk, err := NewChunk([]Segment{
			NewValueSegmentFromValues(testutil.Sequence(int32(i*10), 10), nil),
		})
		if err != nil {
			t.Fatalf("NewChunk: %v", err)
		}
		if err := table.AppendChunk(chunk); err != nil {
			t.Fatalf("AppendChunk: %v", err)
		}
	}
	stats, err := GenerateTableStatistics(context.Background(), table, DefaultStatisticsConfig())
	if err != nil {
		t.Fatalf("GenerateTableStatistics: %v", err)
	}
	table.SetTableStatistics(stats)

	catalog := NewCatalog()
	handle, err := catalog.Add("lineitem", table)
	if err != nil {
		t.Fatalf("catalog.Add: %v", err)
	}
	return catalog, handle, table
}

func colGreaterThan(column ColumnID, v int32) Expression {
	return &BinaryPredicateExpression{
		Condition: ConditionGreaterThan,
		Left:      &ColumnExpression{Column: column},
		Right:     &ValueExpression{Value: Int32Variant(v)},
	}
}

func colLessThan(column ColumnID, v int32) Expression {
	return &BinaryPredicateExpression{
		Condition: ConditionLessThan,
		Left:      &ColumnExpression{Column: column},
		Right:     &ValueExpression{Value: Int32Variant(v)},
	}
}

func assertExcluded(t *testing.T, stored *StoredTableNode, want ...ChunkID) {
	t.Helper()
	got := stored.ExcludedChunkIDs()
	if len(got) != len(want) {
		t.Fatalf("excluded = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("excluded = %v, want %v", got, want)
		}
	}
}

func TestPruningSinglePredicate(t *testing.T) {
	catalog, _, _ := buildRangedTable(t, 3)
	stored := NewStoredTableNode("lineitem")
	root := NewPredicateNode(colGreaterThan(0, 25), stored)

	rule := NewChunkPruningRule(catalog)
	if changed := rule.Apply(root); changed {
		t.Error("pruning must report an unchanged plan")
	}
	assertExcluded(t, stored, 0, 1)
}

func TestPruningPredicateChainUnions(t *testing.T) {
	catalog, _, _ := buildRangedTable(t, 3)
	stored := NewStoredTableNode("lineitem")
	lower := NewPredicateNode(colGreaterThan(0, 25), stored)
	root := NewPredicateNode(colLessThan(0, 5), lower)

	NewChunkPruningRule(catalog).Apply(root)
	assertExcluded(t, stored, 0, 1, 2)
}

func TestPruningIntersectsWithPriorExclusions(t *testing.T) {
	catalog, _, _ := buildRangedTable(t, 3)
	stored := NewStoredTableNode("lineitem")
	stored.SetExcludedChunkIDs([]ChunkID{1, 2})
	root := NewPredicateNode(colGreaterThan(0, 25), stored)

	// New exclusions are {0, 1}; the stored set keeps the intersection.
	NewChunkPruningRule(catalog).Apply(root)
	assertExcluded(t, stored, 1)
}

func TestPruningSkipsValidateNode(t *testing.T) {
	catalog, _, _ := buildRangedTable(t, 3)
	stored := NewStoredTableNode("lineitem")
	validate := NewValidateNode(stored)
	root := NewPredicateNode(colGreaterThan(0, 25), validate)

	NewChunkPruningRule(catalog).Apply(root)
	assertExcluded(t, stored, 0, 1)
}

func TestPruningSharedSubplanNotWalkedInto(t *testing.T) {
	catalog, _, _ := buildRangedTable(t, 3)
	stored := NewStoredTableNode("lineitem")
	// The shared predicate itself excludes nothing.
	shared := NewPredicateNode(colGreaterThan(0, -1), stored)
	parentA := NewPredicateNode(colGreaterThan(0, 25), shared)
	parentB := NewPredicateNode(colGreaterThan(0, 25), shared)

	rule := NewChunkPruningRule(catalog)
	rule.Apply(parentA)
	rule.Apply(parentB)

	// Neither parent's predicate may leak into the shared chain.
	assertExcluded(t, stored)
}

func TestPruningMissingStatisticsNeverExcludes(t *testing.T) {
	catalog, _, table := buildRangedTable(t, 3)
	table.SetTableStatistics(nil)
	stored := NewStoredTableNode("lineitem")
	root := NewPredicateNode(colGreaterThan(0, 25), stored)

	NewChunkPruningRule(catalog).Apply(root)
	assertExcluded(t, stored)
}

func TestPruningTypeMismatchSkipsPredicate(t *testing.T) {
	catalog, _, _ := buildRangedTable(t, 3)
	stored := NewStoredTableNode("lineitem")
	mismatch := &BinaryPredicateExpression{
		Condition: ConditionGreaterThan,
		Left:      &ColumnExpression{Column: 0},
		Right:     &ValueExpression{Value: StringVariant("25")},
	}
	root := NewPredicateNode(mismatch, stored)

	NewChunkPruningRule(catalog).Apply(root)
	assertExcluded(t, stored)
}

func TestPruningColumnComparisonContributesNothing(t *testing.T) {
	catalog, _, _ := buildRangedTable(t, 3)
	stored := NewStoredTableNode("lineitem")
	colToCol := &BinaryPredicateExpression{
		Condition: ConditionEquals,
		Left:      &ColumnExpression{Column: 0},
		Right:     &ColumnExpression{Column: 0},
	}
	lower := NewPredicateNode(colToCol, stored)
	root := NewPredicateNode(colGreaterThan(0, 25), lower)

	NewChunkPruningRule(catalog).Apply(root)
	assertExcluded(t, stored, 0, 1)
}

func TestPruningUnknownTableIsIgnored(t *testing.T) {
	catalog := NewCatalog()
	stored := NewStoredTableNode("missing")
	root := NewPredicateNode(colGreaterThan(0, 25), stored)
	NewChunkPruningRule(catalog).Apply(root)
	assertExcluded(t, stored)
}

func TestPruningRecursesThroughBinaryNodes(t *testing.T) {
	catalog, _, _ := buildRangedTable(t, 3)
	storedLeft := NewStoredTableNode("lineitem")
	storedRight := NewStoredTableNode("lineitem")
	left := NewPredicateNode(colGreaterThan(0, 25), storedLeft)
	right := NewPredicateNode(colLessThan(0, 5), storedRight)
	union := NewUnionNode(left, right)
	root := NewMockNodeWithInput(union)

	NewChunkPruningRule(catalog).Apply(root)
	assertExcluded(t, storedLeft, 0, 1)
	assertExcluded(t, storedRight, 1, 2)
}

func TestPruningBetweenPredicate(t *testing.T) {
	catalog, _, _ := buildRangedTable(t, 3)
	stored := NewStoredTableNode("lineitem")
	between := &BetweenExpression{
		Value: &ColumnExpression{Column: 0},
		Lower: &ValueExpression{Value: Int32Variant(12)},
		Upper: &ValueExpression{Value: Int32Variant(17)},
	}
	root := NewPredicateNode(between, stored)

	NewChunkPruningRule(catalog).Apply(root)
	assertExcluded(t, stored, 0, 2)
}
