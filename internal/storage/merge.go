package storage

import "token-radar/internal/domain"

// RecallCap is the maximum number of entries kept in recall.
const RecallCap = 500

// NormalizeBatch drops entries without an identifier and keeps the first
// occurrence of each key. Order is preserved.
func NormalizeBatch(entries []domain.RecallEntry) []domain.RecallEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]domain.RecallEntry, 0, len(entries))
	for _, e := range entries {
		key := e.Key()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// MergeRecall returns the new recall list: the normalized incoming batch
// first, then existing entries whose key is not in the batch, truncated to
// limit. An entry already present keeps its earlier FirstSeenAt. Merging the
// same batch twice yields the same list.
func MergeRecall(existing, incoming []domain.RecallEntry, limit int) []domain.RecallEntry {
	if limit <= 0 {
		limit = RecallCap
	}

	prior := make(map[string]domain.RecallEntry, len(existing))
	for _, e := range existing {
		key := e.Key()
		if _, ok := prior[key]; !ok && key != "" {
			prior[key] = e
		}
	}

	batch := NormalizeBatch(incoming)
	out := make([]domain.RecallEntry, 0, min(limit, len(batch)+len(existing)))
	inBatch := make(map[string]struct{}, len(batch))

	for _, e := range batch {
		key := e.Key()
		inBatch[key] = struct{}{}
		if old, ok := prior[key]; ok && !old.FirstSeenAt.IsZero() &&
			(e.FirstSeenAt.IsZero() || old.FirstSeenAt.Before(e.FirstSeenAt)) {
			e.FirstSeenAt = old.FirstSeenAt
		}
		out = append(out, e)
	}

	for _, e := range NormalizeBatch(existing) {
		if _, ok := inBatch[e.Key()]; ok {
			continue
		}
		out = append(out, e)
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
