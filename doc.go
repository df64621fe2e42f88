// Package strata provides the storage core of a columnar, in-memory
// analytical database engine.
//
// Tables are split into immutable row-group chunks. Each chunk holds one
// segment per column, and every segment carries its data under one of a
// closed set of encodings: plain values, dictionary, run-length,
// frame-of-reference, LZ4, or reference (the output of scans).
//
// # Basic Usage
//
// Build a table chunk by chunk:
//
//	table := strata.NewTable(strata.Schema{
//	    {Name: "id", DataType: strata.DataTypeInt32},
//	    {Name: "name", DataType: strata.DataTypeString, Nullable: true},
//	})
//	builder := strata.NewChunkBuilder(table.Schema())
//	builder.AppendRow(strata.Int32Variant(1), strata.StringVariant("a"))
//	chunk, _ := builder.Finalize()
//	table.AppendChunk(chunk)
//
// Re-encode a chunk's segments:
//
//	encoded, err := strata.Encode(strata.EncodingDictionary, segment, strata.DefaultEncodingConfig())
//
// Generate per-chunk statistics and let the optimizer prune chunks a
// predicate provably cannot match:
//
//	stats, _ := strata.GenerateTableStatistics(ctx, table, strata.DefaultStatisticsConfig())
//	table.SetTableStatistics(stats)
//	rule := strata.NewChunkPruningRule(catalog)
//	rule.Apply(planRoot)
//
// # Features
//
// Core Storage:
//   - Immutable chunked tables with atomic chunk-list snapshots
//   - Byte-packed and bit-packed compressed attribute vectors
//   - Dictionary, run-length, frame-of-reference and LZ4 segment encodings
//   - Reference segments carrying position lists into other tables
//
// Statistics:
//   - Equal-distinct-count, equal-width and generic per-segment histograms
//   - Selectivity scaling and sound does-not-contain pruning checks
//   - Per-chunk statistics roll-ups consumed by the chunk pruning rule
package strata
