package strata

import "fmt"

// Chunk is an immutable horizontal row-group of a table: exactly one
// segment per schema column, all sharing one row count.
type Chunk struct {
	segments []Segment
}

// NewChunk creates a chunk over the given segments. All segments must
// report the same size.
func NewChunk(segments []Segment) (*Chunk, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: chunk needs at least one segment", ErrInvalidSegment)
	}
	size := segments[0].Size()
	for i, seg := range segments[1:] {
		if seg.Size() != size {
			return nil, fmt.Errorf("%w: segment %d has size %d, segment 0 has size %d",
				ErrInvalidSegment, i+1, seg.Size(), size)
		}
	}
	return &Chunk{segments: segments}, nil
}

// Size returns the row count.
func (c *Chunk) Size() uint32 {
	return c.segments[0].Size()
}

// ColumnCount returns the number of segments.
func (c *Chunk) ColumnCount() int {
	return len(c.segments)
}

// Segment returns the segment of the given column.
func (c *Chunk) Segment(column ColumnID) Segment {
	return c.segments[column]
}

// Segments returns all segments in column order.
func (c *Chunk) Segments() []Segment {
	return c.segments
}

// EstimateMemoryUsage sums the footprint of all segments.
func (c *Chunk) EstimateMemoryUsage() uint64 {
	var total uint64
	for _, seg := range c.segments {
		total += seg.EstimateMemoryUsage()
	}
	return total
}

// columnAppender is the mutable surface of an open value segment during
// ingestion.
type columnAppender interface {
	Segment
	appendVariant(v Variant) error
}

// ChunkBuilder accumulates rows into value segments for one open chunk.
// A builder is exclusively owned by the ingesting goroutine; the chunk it
// produces is immutable.
type ChunkBuilder struct {
	schema  Schema
	columns []columnAppender
	rows    uint32
}

// NewChunkBuilder creates an open chunk for the given schema.
func NewChunkBuilder(schema Schema) *ChunkBuilder {
	b := &ChunkBuilder{schema: schema}
	for _, def := range schema {
		b.columns = append(b.columns, newColumnAppender(def.DataType, def.Nullable))
	}
	return b
}

func newColumnAppender(dt DataType, nullable bool) columnAppender {
	switch dt {
	case DataTypeInt32:
		return NewValueSegment[int32](nullable)
	case DataTypeInt64:
		return NewValueSegment[int64](nullable)
	case DataTypeFloat:
		return NewValueSegment[float32](nullable)
	case DataTypeDouble:
		return NewValueSegment[float64](nullable)
	case DataTypeString:
		return NewValueSegment[string](nullable)
	}
	return nil
}

// Size returns the number of appended rows.
func (b *ChunkBuilder) Size() uint32 {
	return b.rows
}

// AppendRow adds one row. Values are validated against the schema before
// any column is touched, so a failed append leaves the builder unchanged.
func (b *ChunkBuilder) AppendRow(values ...Variant) error {
	if len(values) != len(b.schema) {
		return fmt.Errorf("row has %d values, schema has %d columns", len(values), len(b.schema))
	}
	for i, v := range values {
		def := b.schema[i]
		if v.IsNull() {
			if !def.Nullable {
				return fmt.Errorf("column %q is not nullable", def.Name)
			}
			continue
		}
		if v.DataType() != def.DataType {
			return newStatisticsError(fmt.Sprintf("column %q value type mismatch", def.Name), def.DataType, v.DataType())
		}
	}
	for i, v := range values {
		if err := b.columns[i].appendVariant(v); err != nil {
			return err
		}
	}
	b.rows++
	return nil
}

// Finalize seals the open chunk. The builder must not be reused.
func (b *ChunkBuilder) Finalize() (*Chunk, error) {
	segments := make([]Segment, len(b.columns))
	for i, col := range b.columns {
		segments[i] = col
	}
	return NewChunk(segments)
}
