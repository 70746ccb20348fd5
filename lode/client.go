package lode

import (
	"context"
	"fmt"
	"sync"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/hessian/types"
)

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"source", "day", "session_id", "event_type"}

// LodeClient is a Lode-backed implementation of Client.
// Uses Lode's HiveLayout with partition keys: source/day/session_id/event_type.
type LodeClient struct {
	dataset lode.Dataset
	config  Config

	storeFactory lode.StoreFactory
	storeOnce    sync.Once
	store        lode.Store
	storeErr     error

	mu sync.Mutex // serializes dataset writes
}

// NewLodeClient creates a new Lode client with filesystem storage.
// The root parameter is the base directory for Hive-partitioned storage.
func NewLodeClient(cfg Config, root string) (*LodeClient, error) {
	return NewLodeClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewLodeClientWithFactory creates a new Lode client with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(cfg Config, factory lode.StoreFactory) (*LodeClient, error) {
	ds, err := newDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return newClient(ds, cfg, factory), nil
}

func newClient(ds lode.Dataset, cfg Config, factory lode.StoreFactory) *LodeClient {
	return &LodeClient{
		dataset:      ds,
		config:       cfg,
		storeFactory: factory,
	}
}

func newDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// WriteEvents writes a batch of event records as one snapshot.
// Records are partitioned by event type.
func (c *LodeClient) WriteEvents(ctx context.Context, records []*types.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]any, 0, len(records))
	for _, r := range records {
		items = append(items, toEventRecordMap(r, c.config))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.dataset.Write(ctx, items, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.partitionPath())
	}
	return nil
}

// WriteSummary writes the session summary under event_type=summary.
func (c *LodeClient) WriteSummary(ctx context.Context, summary *types.SessionSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := []any{toSummaryRecordMap(summary, c.config)}
	if _, err := c.dataset.Write(ctx, items, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.partitionPath())
	}
	return nil
}

// Close releases client resources.
func (c *LodeClient) Close() error {
	// Dataset doesn't require explicit close in current Lode API
	return nil
}

// partitionPath is the dataset-relative session partition, used in errors.
func (c *LodeClient) partitionPath() string {
	return fmt.Sprintf("%s/source=%s/day=%s/session_id=%s",
		c.config.Dataset, c.config.Source, c.config.Day, c.config.SessionID)
}

// Verify LodeClient implements Client.
var _ Client = (*LodeClient)(nil)
