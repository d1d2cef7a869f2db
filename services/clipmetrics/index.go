package clipmetrics

import (
	"go.uber.org/zap"
)

// Index is a read-only lookup from normalized video identity to its most
// recent scraped metrics. Built once per reconciliation pass, then only
// read.
type Index map[NormalizedKey]ExternalMetricRecord

// BuildIndex normalizes every record's raw link and keys it by identity.
// Records that do not normalize are dropped, not an error. On key
// collision the later record wins, so callers must supply records sorted
// oldest to newest; last write wins then means most recent scrape wins.
func BuildIndex(records []ExternalMetricRecord) Index {
	index := make(Index, len(records))

	var unmatched int
	for _, record := range records {
		key, ok := Normalize(record.RawLink)
		if !ok {
			unmatched++
			continue
		}
		index[key] = record
	}

	if unmatched > 0 {
		zap.L().Debug("dropped unmatchable metric records",
			zap.Int("unmatched", unmatched),
			zap.Int("total", len(records)),
		)
	}

	return index
}

// Lookup returns the metrics for a raw link, if its identity is known.
func (idx Index) Lookup(rawLink string) (ExternalMetricRecord, bool) {
	key, ok := Normalize(rawLink)
	if !ok {
		return ExternalMetricRecord{}, false
	}
	record, ok := idx[key]
	return record, ok
}
