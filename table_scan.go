package strata

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// TableScan filters one table by a normalized predicate. Excluded chunks
// are skipped without touching their segments; every surviving chunk with
// matches contributes a chunk of reference segments to the output table.
type TableScan struct {
	catalog        *Catalog
	table          TableHandle
	predicate      OperatorScanPredicate
	excludedChunks map[ChunkID]struct{}
}

// NewTableScan creates a scan over the given table.
func NewTableScan(catalog *Catalog, table TableHandle, predicate OperatorScanPredicate) *TableScan {
	return &TableScan{
		catalog:        catalog,
		table:          table,
		predicate:      predicate,
		excludedChunks: make(map[ChunkID]struct{}),
	}
}

// SetExcludedChunks installs the excluded-chunk set, normally taken from
// a stored-table node after pruning.
func (s *TableScan) SetExcludedChunks(ids []ChunkID) {
	s.excludedChunks = make(map[ChunkID]struct{}, len(ids))
	for _, id := range ids {
		s.excludedChunks[id] = struct{}{}
	}
}

// Execute runs the scan. The context is checked at chunk boundaries.
func (s *TableScan) Execute(ctx context.Context) (*Table, error) {
	table := s.catalog.Table(s.table)
	if table == nil {
		return nil, fmt.Errorf("unknown table handle %d", s.table)
	}
	if int(s.predicate.ColumnID) >= table.ColumnCount() {
		return nil, fmt.Errorf("column %d not in schema", s.predicate.ColumnID)
	}
	if !s.predicate.Value.IsVariant() {
		return nil, fmt.Errorf("%w: column-to-column scan predicates", ErrUnimplemented)
	}

	output := NewTable(table.Schema())
	for chunkID, chunk := range table.Chunks() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, excluded := s.excludedChunks[ChunkID(chunkID)]; excluded {
			continue
		}
		DefaultMetrics.chunkScanned()
		DefaultMetrics.rowsScanned(int(chunk.Size()))

		matches, err := scanSegmentForMatches(chunk.Segment(s.predicate.ColumnID), s.predicate)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}

		positions := make(PosList, len(matches))
		for i, off := range matches {
			positions[i] = RowID{ChunkID: ChunkID(chunkID), ChunkOffset: off}
		}
		segments := make([]Segment, table.ColumnCount())
		for col := range segments {
			segment, err := newReferenceSegmentForColumn(
				table.Schema()[col].DataType, s.catalog, s.table, ColumnID(col), positions)
			if err != nil {
				return nil, err
			}
			segments[col] = segment
		}
		outChunk, err := NewChunk(segments)
		if err != nil {
			return nil, err
		}
		if err := output.AppendChunk(outChunk); err != nil {
			return nil, err
		}
	}
	return output, nil
}

func newReferenceSegmentForColumn(dt DataType, catalog *Catalog, table TableHandle, column ColumnID, positions PosList) (Segment, error) {
	switch dt {
	case DataTypeInt32:
		return NewReferenceSegment[int32](catalog, table, column, positions)
	case DataTypeInt64:
		return NewReferenceSegment[int64](catalog, table, column, positions)
	case DataTypeFloat:
		return NewReferenceSegment[float32](catalog, table, column, positions)
	case DataTypeDouble:
		return NewReferenceSegment[float64](catalog, table, column, positions)
	case DataTypeString:
		return NewReferenceSegment[string](catalog, table, column, positions)
	}
	return nil, fmt.Errorf("cannot reference data type %s", dt)
}

// scanSegmentForMatches resolves the segment's element type once and runs
// a monomorphic match loop over a sequential iterator.
func scanSegmentForMatches(segment Segment, predicate OperatorScanPredicate) ([]ChunkOffset, error) {
	switch segment.DataType() {
	case DataTypeInt32:
		return scanTypedSegment[int32](segment, predicate)
	case DataTypeInt64:
		return scanTypedSegment[int64](segment, predicate)
	case DataTypeFloat:
		return scanTypedSegment[float32](segment, predicate)
	case DataTypeDouble:
		return scanTypedSegment[float64](segment, predicate)
	case DataTypeString:
		return scanTypedSegment[string](segment, predicate)
	}
	return nil, fmt.Errorf("cannot scan data type %s", segment.DataType())
}

func scanTypedSegment[T ColumnValue](segment Segment, predicate OperatorScanPredicate) ([]ChunkOffset, error) {
	typed, err := typedSegmentOf[T](segment)
	if err != nil {
		return nil, err
	}
	match, err := compileMatcher[T](predicate)
	if err != nil {
		return nil, err
	}
	var matches []ChunkOffset
	forEachPosition(typed.Iterator(), func(pos SegmentPosition[T]) {
		if match(pos.Value, pos.IsNull) {
			matches = append(matches, pos.ChunkOffset)
		}
	})
	return matches, nil
}

// compileMatcher turns a normalized predicate into a per-row match
// function. Literal conversion and LIKE compilation happen once here, so
// the row loop carries no per-row decisions beyond the comparison.
func compileMatcher[T ColumnValue](predicate OperatorScanPredicate) (func(value T, isNull bool) bool, error) {
	switch predicate.Condition {
	case ConditionIsNull:
		return func(_ T, isNull bool) bool { return isNull }, nil
	case ConditionIsNotNull:
		return func(_ T, isNull bool) bool { return !isNull }, nil
	case ConditionLike, ConditionNotLike:
		if dataTypeOf[T]() != DataTypeString {
			return nil, newStatisticsError("LIKE needs a string column", DataTypeString, dataTypeOf[T]())
		}
		pattern, err := variantValue[string](predicate.Value.Variant())
		if err != nil {
			return nil, err
		}
		matcher, err := compileLikePattern(pattern)
		if err != nil {
			return nil, err
		}
		want := predicate.Condition == ConditionLike
		return func(value T, isNull bool) bool {
			return !isNull && matcher(any(value).(string)) == want
		}, nil
	}

	literal, err := variantValue[T](predicate.Value.Variant())
	if err != nil {
		return nil, err
	}
	switch predicate.Condition {
	case ConditionEquals:
		return func(v T, isNull bool) bool { return !isNull && v == literal }, nil
	case ConditionNotEquals:
		return func(v T, isNull bool) bool { return !isNull && v != literal }, nil
	case ConditionLessThan:
		return func(v T, isNull bool) bool { return !isNull && v < literal }, nil
	case ConditionLessThanEquals:
		return func(v T, isNull bool) bool { return !isNull && v <= literal }, nil
	case ConditionGreaterThan:
		return func(v T, isNull bool) bool { return !isNull && v > literal }, nil
	case ConditionGreaterThanEquals:
		return func(v T, isNull bool) bool { return !isNull && v >= literal }, nil
	case ConditionBetween:
		if predicate.Value2 == nil {
			return nil, fmt.Errorf("between predicate needs a second value")
		}
		upper, err := variantValue[T](*predicate.Value2)
		if err != nil {
			return nil, err
		}
		return func(v T, isNull bool) bool { return !isNull && literal <= v && v <= upper }, nil
	}
	return nil, fmt.Errorf("cannot scan with condition %s", predicate.Condition)
}

// compileLikePattern translates a SQL LIKE pattern ('%' and '_'
// wildcards) into a compiled matcher.
func compileLikePattern(pattern string) (func(string) bool, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile LIKE pattern %q: %w", pattern, err)
	}
	return re.MatchString, nil
}
