package policy_test

import (
	"github.com/justapithecus/hessian/hessian"
	"github.com/justapithecus/hessian/types"
)

// record builds a scalar event record with the given seq.
func record(seq int64) *types.EventRecord {
	return &types.EventRecord{
		RecordVersion: types.RecordVersion,
		SessionID:     "session-1",
		Source:        "test",
		Seq:           seq,
		Type:          hessian.EventScalar,
		Kind:          hessian.KindInt,
		ID:            hessian.NoID,
		DefID:         hessian.NoID,
		Value:         int32(seq),
	}
}

// records builds n records with seq 1..n.
func records(n int) []*types.EventRecord {
	out := make([]*types.EventRecord, n)
	for i := range n {
		out[i] = record(int64(i + 1))
	}
	return out
}

// seqs returns the seq of each record.
func seqs(recs []*types.EventRecord) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.Seq
	}
	return out
}
