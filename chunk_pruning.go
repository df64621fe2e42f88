package strata

import "log/slog"

// ChunkPruningRule walks predicate chains terminating in a stored table
// and records which chunks the per-chunk statistics prove empty. The rule
// never rewrites plan structure; its only effect is the excluded-chunk
// metadata on stored-table nodes.
type ChunkPruningRule struct {
	catalog *Catalog
}

// NewChunkPruningRule creates the rule over a catalog.
func NewChunkPruningRule(catalog *Catalog) *ChunkPruningRule {
	return &ChunkPruningRule{catalog: catalog}
}

// Name returns the rule name.
func (r *ChunkPruningRule) Name() string {
	return "ChunkPruningRule"
}

// Apply runs the rule on the node and everything below it. It always
// reports false: the plan structure is never modified.
func (r *ChunkPruningRule) Apply(node PlanNode) bool {
	if node == nil {
		return false
	}
	// Only chains of predicates are worth following.
	if node.Type() != NodeTypePredicate {
		return r.applyToInputs(node)
	}

	// Gather consecutive predicate nodes. A node with multiple consumers
	// ends the chain: pruning below a shared subplan would leak one
	// parent's predicates into the other's reads.
	var predicates []*PredicateNode
	current := node
	for current != nil && current.Type() == NodeTypePredicate {
		predicates = append(predicates, current.(*PredicateNode))
		current = current.LeftInput()
		if current != nil && current.Type() == NodeTypePredicate && current.OutputCount() > 1 {
			return r.applyToInputs(node)
		}
	}

	// Skip over a validate node.
	if current != nil && current.Type() == NodeTypeValidate {
		current = current.LeftInput()
	}

	if current == nil || current.Type() != NodeTypeStoredTable {
		return r.applyToInputs(node)
	}
	stored := current.(*StoredTableNode)

	handle, ok := r.catalog.Handle(stored.TableName)
	if !ok {
		return false
	}
	table := r.catalog.Table(handle)
	statistics := make([]*ChunkStatistics, table.ChunkCount())
	if tableStats := table.TableStatistics(); tableStats != nil {
		for i := range statistics {
			statistics[i] = tableStats.ChunkStatistics(ChunkID(i))
		}
	}

	// A chunk is excluded when any predicate on the chain proves it
	// empty: the chain conjoins, so per-predicate exclusions union.
	excluded := make(map[ChunkID]struct{})
	for _, predicate := range predicates {
		for id := range r.computeExcludeList(statistics, predicate) {
			excluded[id] = struct{}{}
		}
	}

	merged := make([]ChunkID, 0, len(excluded))
	if prior := stored.ExcludedChunkIDs(); len(prior) > 0 {
		// TODO: merging by intersection keeps only chunks every pass
		// proved empty; a union would prune strictly more and both sets
		// are exclusion proofs. Revisit once multiple rules feed this.
		for _, id := range prior {
			if _, ok := excluded[id]; ok {
				merged = append(merged, id)
			}
		}
	} else {
		for id := range excluded {
			merged = append(merged, id)
		}
	}
	stored.SetExcludedChunkIDs(merged)
	DefaultMetrics.chunksExcluded(len(stored.ExcludedChunkIDs()))
	slog.Debug("chunk pruning applied",
		"table", stored.TableName,
		"predicates", len(predicates),
		"excluded", len(stored.ExcludedChunkIDs()))
	return false
}

func (r *ChunkPruningRule) applyToInputs(node PlanNode) bool {
	changed := false
	if left := node.LeftInput(); left != nil {
		changed = r.Apply(left) || changed
	}
	if binary, ok := node.(interface{ RightInput() PlanNode }); ok {
		if right := binary.RightInput(); right != nil {
			changed = r.Apply(right) || changed
		}
	}
	return changed
}

// computeExcludeList returns the chunks one predicate node proves empty.
// Predicates that do not flatten, or whose value is not a literal, prove
// nothing; so do chunks with missing statistics or mismatched literal
// types.
func (r *ChunkPruningRule) computeExcludeList(statistics []*ChunkStatistics, node *PredicateNode) map[ChunkID]struct{} {
	predicates, ok := OperatorScanPredicatesFromExpression(node.Predicate)
	if !ok {
		return nil
	}

	result := make(map[ChunkID]struct{})
	for _, predicate := range predicates {
		if !predicate.Value.IsVariant() {
			return nil
		}
		value := predicate.Value.Variant()
		for chunkID, chunkStats := range statistics {
			if chunkStats == nil {
				continue
			}
			segmentStats := chunkStats.SegmentStatistics(predicate.ColumnID)
			if segmentStats == nil {
				continue
			}
			excluded, err := segmentStats.DoesNotContain(predicate.Condition, value, predicate.Value2)
			if err != nil {
				// Statistics errors cannot prove exclusion.
				continue
			}
			if excluded {
				result[ChunkID(chunkID)] = struct{}{}
			}
		}
	}
	return result
}
