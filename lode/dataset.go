package lode

import (
	"context"
	"slices"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// NewReadDataset creates a Lode Dataset for reading.
// Uses the same codec and layout as the write path.
func NewReadDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	ds, err := newDataset(dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, dataset)
	}
	return ds, nil
}

// NewReadDatasetFS creates a read Dataset with filesystem storage.
func NewReadDatasetFS(dataset, rootPath string) (lode.Dataset, error) {
	return NewReadDataset(dataset, lode.NewFSFactory(rootPath))
}

// NewReadDatasetS3 creates a read Dataset with S3 storage.
func NewReadDatasetS3(ctx context.Context, dataset string, s3cfg S3Config) (lode.Dataset, error) {
	factory, err := NewS3Factory(ctx, s3cfg)
	if err != nil {
		return nil, WrapInitError(err, dataset)
	}
	return NewReadDataset(dataset, factory)
}

// summaryFilter selects summary snapshots and records. Empty fields match
// anything.
type summaryFilter struct {
	sessionID string
	source    string
}

// snapshot reports whether any manifest file of snap lies in the summary
// partition and carries the wanted session and source partitions.
func (f summaryFilter) snapshot(snap *lode.DatasetSnapshot) bool {
	for _, file := range snap.Manifest.Files {
		if f.path(file.Path) {
			return true
		}
	}
	return false
}

func (f summaryFilter) path(path string) bool {
	return matchesPartitionValue(path, "event_type", SummaryEventType) &&
		(f.sessionID == "" || matchesPartitionValue(path, "session_id", f.sessionID)) &&
		(f.source == "" || matchesPartitionValue(path, "source", f.source))
}

// record checks the decoded record itself; partitions are only a pre-filter.
func (f summaryFilter) record(row any) (map[string]any, bool) {
	record, ok := row.(map[string]any)
	if !ok || record["record_kind"] != RecordKindSummary {
		return nil, false
	}
	if f.sessionID != "" && toString(record["session_id"]) != f.sessionID {
		return nil, false
	}
	if f.source != "" && toString(record["source"]) != f.source {
		return nil, false
	}
	return record, true
}

// matchesPartitionValue reports whether a Hive-style path has the exact
// key=value segment; session_id=s-1 does not match session_id=s-10.
func matchesPartitionValue(path, key, value string) bool {
	return slices.Contains(strings.Split(path, "/"), key+"="+value)
}
