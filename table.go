package strata

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Table is an ordered, append-only sequence of chunks sharing one schema.
// The chunk list is an atomically swapped snapshot: concurrent readers
// observe either the old or the new list, never a torn state.
type Table struct {
	schema Schema

	mu     sync.Mutex
	chunks atomic.Pointer[[]*Chunk]
	stats  atomic.Pointer[TableStatistics]
}

// NewTable creates an empty table with the given schema.
func NewTable(schema Schema) *Table {
	t := &Table{schema: schema}
	empty := make([]*Chunk, 0)
	t.chunks.Store(&empty)
	return t
}

// Schema returns the table's column definitions.
func (t *Table) Schema() Schema {
	return t.schema
}

// ColumnDefinitions is an alias for Schema.
func (t *Table) ColumnDefinitions() Schema {
	return t.schema
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int {
	return len(t.schema)
}

// Chunks returns a snapshot of the chunk list.
func (t *Table) Chunks() []*Chunk {
	return *t.chunks.Load()
}

// ChunkCount returns the number of chunks in the current snapshot.
func (t *Table) ChunkCount() int {
	return len(t.Chunks())
}

// Chunk returns the chunk with the given id from the current snapshot.
func (t *Table) Chunk(id ChunkID) *Chunk {
	return t.Chunks()[id]
}

// RowCount sums the sizes of all chunks in the current snapshot.
func (t *Table) RowCount() uint64 {
	var total uint64
	for _, c := range t.Chunks() {
		total += uint64(c.Size())
	}
	return total
}

// AppendChunk adds a finalized chunk to the table.
func (t *Table) AppendChunk(chunk *Chunk) error {
	if err := t.validateChunk(chunk); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	old := *t.chunks.Load()
	next := make([]*Chunk, len(old)+1)
	copy(next, old)
	next[len(old)] = chunk
	t.chunks.Store(&next)
	return nil
}

func (t *Table) validateChunk(chunk *Chunk) error {
	if chunk.ColumnCount() != len(t.schema) {
		return fmt.Errorf("chunk has %d segments, schema has %d columns", chunk.ColumnCount(), len(t.schema))
	}
	for i, def := range t.schema {
		seg := chunk.Segment(ColumnID(i))
		if seg.DataType() != def.DataType {
			return newStatisticsError(fmt.Sprintf("column %q segment type mismatch", def.Name), def.DataType, seg.DataType())
		}
	}
	return nil
}

// AppendRows ingests rows chunk by chunk, finalizing a chunk every
// chunkSize rows. The context is checked at chunk boundaries; on
// cancellation the open chunk is discarded and previously appended chunks
// remain, so the table is never left partially appended.
func (t *Table) AppendRows(ctx context.Context, rows [][]Variant, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = 65535
	}
	builder := NewChunkBuilder(t.schema)
	for _, row := range rows {
		if err := builder.AppendRow(row...); err != nil {
			return err
		}
		if int(builder.Size()) >= chunkSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunk, err := builder.Finalize()
			if err != nil {
				return err
			}
			if err := t.AppendChunk(chunk); err != nil {
				return err
			}
			builder = NewChunkBuilder(t.schema)
		}
	}
	if builder.Size() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	chunk, err := builder.Finalize()
	if err != nil {
		return err
	}
	return t.AppendChunk(chunk)
}

// TableStatistics returns the statistics attached to the table, or nil.
func (t *Table) TableStatistics() *TableStatistics {
	return t.stats.Load()
}

// SetTableStatistics atomically replaces the table's statistics.
func (t *Table) SetTableStatistics(stats *TableStatistics) {
	t.stats.Store(stats)
}
