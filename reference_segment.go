package strata

import "fmt"

// ReferenceSegment carries no data of its own: it holds a position list
// into one column of another table. Reference segments are the output of
// scans and are never re-encoded.
type ReferenceSegment[T ColumnValue] struct {
	catalog   *Catalog
	table     TableHandle
	column    ColumnID
	positions PosList
}

// NewReferenceSegment builds a reference segment over the given table
// column. Every non-null position must resolve in the referenced table.
func NewReferenceSegment[T ColumnValue](catalog *Catalog, handle TableHandle, column ColumnID, positions PosList) (*ReferenceSegment[T], error) {
	table := catalog.Table(handle)
	if table == nil {
		return nil, fmt.Errorf("%w: unknown table handle %d", ErrInvalidSegment, handle)
	}
	if int(column) >= len(table.Schema()) {
		return nil, fmt.Errorf("%w: column %d not in schema", ErrInvalidSegment, column)
	}
	if want := table.Schema()[column].DataType; want != dataTypeOf[T]() {
		return nil, newStatisticsError("reference segment type mismatch", want, dataTypeOf[T]())
	}
	chunks := table.Chunks()
	for _, pos := range positions {
		if pos.IsNull() {
			continue
		}
		if int(pos.ChunkID) >= len(chunks) {
			return nil, fmt.Errorf("%w: chunk %d not in referenced table", ErrInvalidSegment, pos.ChunkID)
		}
		if uint32(pos.ChunkOffset) >= chunks[pos.ChunkID].Size() {
			return nil, fmt.Errorf("%w: offset %d past chunk %d size %d",
				ErrInvalidSegment, pos.ChunkOffset, pos.ChunkID, chunks[pos.ChunkID].Size())
		}
	}
	return &ReferenceSegment[T]{catalog: catalog, table: handle, column: column, positions: positions}, nil
}

// PositionList returns the underlying position list.
func (s *ReferenceSegment[T]) PositionList() PosList {
	return s.positions
}

// ReferencedTable returns the handle of the referenced table.
func (s *ReferenceSegment[T]) ReferencedTable() TableHandle {
	return s.table
}

// ReferencedColumn returns the referenced column.
func (s *ReferenceSegment[T]) ReferencedColumn() ColumnID {
	return s.column
}

// Size returns the position list length.
func (s *ReferenceSegment[T]) Size() uint32 {
	return uint32(len(s.positions))
}

// DataType returns the logical element type.
func (s *ReferenceSegment[T]) DataType() DataType {
	return dataTypeOf[T]()
}

// Encoding returns EncodingReference.
func (s *ReferenceSegment[T]) Encoding() EncodingType {
	return EncodingReference
}

// EstimateMemoryUsage returns the approximate footprint in bytes. Only the
// position list is owned by the segment.
func (s *ReferenceSegment[T]) EstimateMemoryUsage() uint64 {
	return uint64(len(s.positions) * 8)
}

// resolver caches the typed segment of the chunk it last touched, so runs
// of positions in one chunk pay a single lookup.
type referenceResolver[T ColumnValue] struct {
	chunks      []*Chunk
	column      ColumnID
	cachedChunk ChunkID
	cached      TypedSegment[T]
}

func newReferenceResolver[T ColumnValue](s *ReferenceSegment[T]) *referenceResolver[T] {
	return &referenceResolver[T]{
		chunks:      s.catalog.Table(s.table).Chunks(),
		column:      s.column,
		cachedChunk: ChunkID(NullRowID.ChunkID),
	}
}

// resolve yields the triple for one row id. Null rows are reported null
// without touching the underlying segment.
func (r *referenceResolver[T]) resolve(pos RowID) SegmentPosition[T] {
	if pos.IsNull() {
		return SegmentPosition[T]{IsNull: true, ChunkOffset: InvalidChunkOffset}
	}
	if r.cached == nil || pos.ChunkID != r.cachedChunk {
		seg, err := typedSegmentOf[T](r.chunks[pos.ChunkID].Segment(r.column))
		if err != nil {
			// Construction validated the column type; this is unreachable
			// for catalog-produced tables.
			return SegmentPosition[T]{IsNull: true, ChunkOffset: InvalidChunkOffset}
		}
		r.cached = seg
		r.cachedChunk = pos.ChunkID
	}
	value, isNull, err := r.cached.Get(pos.ChunkOffset)
	if err != nil {
		return SegmentPosition[T]{IsNull: true, ChunkOffset: InvalidChunkOffset}
	}
	return SegmentPosition[T]{Value: value, IsNull: isNull, ChunkOffset: pos.ChunkOffset}
}

// Get resolves the i-th position-list entry.
func (s *ReferenceSegment[T]) Get(offset ChunkOffset) (T, bool, error) {
	if uint32(offset) >= s.Size() {
		var zero T
		return zero, false, validateOffsets(s.Size(), []ChunkOffset{offset})
	}
	pos := newReferenceResolver(s).resolve(s.positions[offset])
	return pos.Value, pos.IsNull, nil
}

// Iterator resolves every position-list entry in order. The yielded
// chunk offset is the referenced row's offset, or the invalid-offset
// sentinel for null rows.
func (s *ReferenceSegment[T]) Iterator() SegmentIterator[T] {
	return &referenceSegmentIterator[T]{
		resolver:  newReferenceResolver(s),
		positions: s.positions,
	}
}

// PointIterator resolves the position-list entries at the given list
// offsets, in list order. Like the sequential iterator, yielded triples
// carry the referenced row's offset.
func (s *ReferenceSegment[T]) PointIterator(offsets []ChunkOffset) (SegmentIterator[T], error) {
	if err := validateOffsets(s.Size(), offsets); err != nil {
		return nil, err
	}
	picked := make(PosList, len(offsets))
	for i, off := range offsets {
		picked[i] = s.positions[off]
	}
	return &referenceSegmentIterator[T]{
		resolver:  newReferenceResolver(s),
		positions: picked,
	}, nil
}

type referenceSegmentIterator[T ColumnValue] struct {
	resolver  *referenceResolver[T]
	positions PosList
	i         int
}

func (it *referenceSegmentIterator[T]) Next() (SegmentPosition[T], bool) {
	if it.i >= len(it.positions) {
		return SegmentPosition[T]{}, false
	}
	pos := it.positions[it.i]
	it.i++
	return it.resolver.resolve(pos), true
}
