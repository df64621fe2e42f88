package strata

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// SegmentStatistics summarizes one segment: row and null counts plus at
// most one histogram. The histogram slot is a single tagged variant; its
// HistogramType says which boundary strategy produced it.
type SegmentStatistics struct {
	dataType  DataType
	rowCount  uint64
	nullCount uint64
	histogram StatisticsObject
}

// NewSegmentStatistics creates statistics with an empty histogram slot.
func NewSegmentStatistics(dataType DataType, rowCount, nullCount uint64) *SegmentStatistics {
	return &SegmentStatistics{dataType: dataType, rowCount: rowCount, nullCount: nullCount}
}

// DataType returns the described segment's value type.
func (s *SegmentStatistics) DataType() DataType {
	return s.dataType
}

// RowCount returns the described segment's size.
func (s *SegmentStatistics) RowCount() uint64 {
	return s.rowCount
}

// NullCount returns the cached null count.
func (s *SegmentStatistics) NullCount() uint64 {
	return s.nullCount
}

// StatisticsObject returns the installed histogram, or nil.
func (s *SegmentStatistics) StatisticsObject() StatisticsObject {
	return s.histogram
}

// SetStatisticsObject installs a histogram, rejecting mismatched data
// types. The slot holds exactly one object; installing again replaces it.
func (s *SegmentStatistics) SetStatisticsObject(obj StatisticsObject) error {
	if obj.DataType() != s.dataType {
		return newStatisticsError("histogram type does not match segment", s.dataType, obj.DataType())
	}
	s.histogram = obj
	return nil
}

// ScaleWithSelectivity returns new statistics with the histogram and row
// counts scaled by s.
func (s *SegmentStatistics) ScaleWithSelectivity(selectivity float64) *SegmentStatistics {
	scaled := NewSegmentStatistics(s.dataType,
		uint64(float64(s.rowCount)*selectivity),
		uint64(float64(s.nullCount)*selectivity))
	if s.histogram != nil {
		scaled.histogram = s.histogram.ScaleWithSelectivity(selectivity)
	}
	return scaled
}

// DoesNotContain reports true only when no row of the described segment
// can match the predicate. Null-check predicates use the cached counts.
// Value predicates are excluded on an all-null segment; otherwise the
// histogram decides them, and an absent histogram excludes nothing.
func (s *SegmentStatistics) DoesNotContain(op PredicateCondition, value Variant, value2 *Variant) (bool, error) {
	switch op {
	case ConditionIsNull:
		return s.nullCount == 0, nil
	case ConditionIsNotNull:
		return s.nullCount == s.rowCount, nil
	}
	if s.rowCount > 0 && s.nullCount == s.rowCount {
		// Every row is null; no value predicate matches.
		return true, nil
	}
	if s.histogram == nil {
		return false, nil
	}
	return s.histogram.DoesNotContain(op, value, value2)
}

// EstimateCardinality estimates matching rows for the predicate.
func (s *SegmentStatistics) EstimateCardinality(op PredicateCondition, value Variant, value2 *Variant) (CardinalityEstimate, error) {
	switch op {
	case ConditionIsNull:
		return CardinalityEstimate{Count: float64(s.nullCount), DistinctCount: 1}, nil
	case ConditionIsNotNull:
		return CardinalityEstimate{
			Count:         float64(s.rowCount - s.nullCount),
			DistinctCount: float64(s.rowCount - s.nullCount),
		}, nil
	}
	if s.histogram == nil {
		// Without a histogram, every non-null row might match.
		nonNull := float64(s.rowCount - s.nullCount)
		return CardinalityEstimate{Count: nonNull, DistinctCount: nonNull}, nil
	}
	return s.histogram.EstimateCardinality(op, value, value2)
}

// ChunkStatistics holds per-column segment statistics, parallel to the
// chunk's segments. Entries may be nil; consumers treat absence as
// unknown.
type ChunkStatistics struct {
	segmentStatistics []*SegmentStatistics
}

// NewChunkStatistics wraps per-column statistics.
func NewChunkStatistics(segmentStatistics []*SegmentStatistics) *ChunkStatistics {
	return &ChunkStatistics{segmentStatistics: segmentStatistics}
}

// SegmentStatistics returns the statistics of one column, or nil.
func (c *ChunkStatistics) SegmentStatistics(column ColumnID) *SegmentStatistics {
	if c == nil || int(column) >= len(c.segmentStatistics) {
		return nil
	}
	return c.segmentStatistics[column]
}

// ColumnCount returns the number of described columns.
func (c *ChunkStatistics) ColumnCount() int {
	return len(c.segmentStatistics)
}

// TableStatistics holds per-chunk statistics, parallel to the table's
// chunks. Entries may be nil.
type TableStatistics struct {
	chunkStatistics []*ChunkStatistics
}

// NewTableStatistics wraps per-chunk statistics.
func NewTableStatistics(chunkStatistics []*ChunkStatistics) *TableStatistics {
	return &TableStatistics{chunkStatistics: chunkStatistics}
}

// ChunkStatistics returns the statistics of one chunk, or nil.
func (t *TableStatistics) ChunkStatistics(id ChunkID) *ChunkStatistics {
	if t == nil || int(id) >= len(t.chunkStatistics) {
		return nil
	}
	return t.chunkStatistics[id]
}

// ChunkCount returns the number of described chunks.
func (t *TableStatistics) ChunkCount() int {
	return len(t.chunkStatistics)
}

// GenerateSegmentStatistics reads a whole segment and builds its
// statistics, including a histogram of the configured variant when the
// segment has non-null rows.
func GenerateSegmentStatistics(segment Segment, cfg StatisticsConfig) (*SegmentStatistics, error) {
	switch segment.DataType() {
	case DataTypeInt32:
		return generateTypedStatistics[int32](segment, cfg)
	case DataTypeInt64:
		return generateTypedStatistics[int64](segment, cfg)
	case DataTypeFloat:
		return generateTypedStatistics[float32](segment, cfg)
	case DataTypeDouble:
		return generateTypedStatistics[float64](segment, cfg)
	case DataTypeString:
		return generateTypedStatistics[string](segment, cfg)
	}
	return nil, fmt.Errorf("cannot build statistics for data type %s", segment.DataType())
}

func generateTypedStatistics[T ColumnValue](segment Segment, cfg StatisticsConfig) (*SegmentStatistics, error) {
	typed, err := typedSegmentOf[T](segment)
	if err != nil {
		return nil, err
	}
	values, nulls := materializeSegment(typed)
	nonNull := make([]T, 0, len(values))
	nullCount := uint64(0)
	for i, v := range values {
		if nulls[i] {
			nullCount++
			continue
		}
		nonNull = append(nonNull, v)
	}

	stats := NewSegmentStatistics(segment.DataType(), uint64(len(values)), nullCount)
	if len(nonNull) == 0 {
		return stats, nil
	}

	domain := newValueDomain[T](cfg.StringPrefixLength)
	var histogram *Histogram[T]
	switch cfg.HistogramType {
	case HistogramEqualDistinctCount:
		histogram, err = NewEqualDistinctCountHistogram(nonNull, cfg.BucketCount, domain)
	case HistogramEqualWidth:
		histogram, err = NewEqualWidthHistogram(nonNull, cfg.BucketCount, domain)
	case HistogramGeneric:
		histogram, err = NewGenericHistogramFromValues(nonNull, cfg.BucketCount, domain)
	default:
		return nil, fmt.Errorf("unknown histogram type %d", cfg.HistogramType)
	}
	if err != nil {
		return nil, err
	}
	if err := stats.SetStatisticsObject(histogram); err != nil {
		return nil, err
	}
	DefaultMetrics.histogramBuilt()
	return stats, nil
}

// GenerateChunkStatistics builds statistics for every column of a chunk.
func GenerateChunkStatistics(chunk *Chunk, cfg StatisticsConfig) (*ChunkStatistics, error) {
	perColumn := make([]*SegmentStatistics, chunk.ColumnCount())
	for i := range perColumn {
		stats, err := GenerateSegmentStatistics(chunk.Segment(ColumnID(i)), cfg)
		if err != nil {
			return nil, err
		}
		perColumn[i] = stats
	}
	return NewChunkStatistics(perColumn), nil
}

// GenerateTableStatistics builds per-chunk statistics for the whole
// table, running independent chunks in parallel. The context is checked
// at chunk boundaries.
func GenerateTableStatistics(ctx context.Context, table *Table, cfg StatisticsConfig) (*TableStatistics, error) {
	chunks := table.Chunks()
	perChunk := make([]*ChunkStatistics, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stats, err := GenerateChunkStatistics(chunk, cfg)
			if err != nil {
				return err
			}
			perChunk[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slog.Debug("generated table statistics", "chunks", len(perChunk), "histogram", cfg.HistogramType.String())
	return NewTableStatistics(perChunk), nil
}
