package lode

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/hessian/types"
)

// ErrNoSummaryFound is returned when no summary record exists in the dataset.
var ErrNoSummaryFound = errors.New("no session summary found")

// QueryLatestSummary finds and reads the most recent session summary.
// Filters by sessionID and source if non-empty.
func QueryLatestSummary(ctx context.Context, ds lode.Dataset, sessionID, source string) (*types.SessionSummary, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, string(ds.ID())+"/snapshots")
	}

	filter := summaryFilter{sessionID: sessionID, source: source}

	// Snapshots are ordered by creation time; walk latest first.
	for _, snap := range slices.Backward(snapshots) {
		if !filter.snapshot(snap) {
			continue
		}
		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}
		// A snapshot may be cumulative; the newest matching record wins.
		for _, row := range slices.Backward(data) {
			if record, ok := filter.record(row); ok {
				return summaryFromMap(record)
			}
		}
	}

	return nil, ErrNoSummaryFound
}
