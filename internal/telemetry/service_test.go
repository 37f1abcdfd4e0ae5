package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeedSource struct {
	feed *Feed
	err  error
}

func (f *fakeFeedSource) LegacyNow(ctx context.Context) (*Feed, error) {
	return f.feed, f.err
}

type fakeResolver struct {
	allowed map[string]bool
	names   map[string]string
}

func (r *fakeResolver) AllowedOnMainnet(id string) bool { return r.allowed[id] }

func (r *fakeResolver) DisplayName(id string) (string, bool) {
	name, ok := r.names[id]
	return name, ok
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestIngestAssignsDefaults(t *testing.T) {
	store := NewMemoryStore()
	svc := &Service{Store: store, Now: fixedNow}

	got, err := svc.Ingest(context.Background(), Batch{CID: "bafy1", TeamID: "team-capn", Points: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "indexed", got.Status)
	assert.Equal(t, fixedNow(), got.RecordedAt)

	stored, err := store.ListBatches(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, got.ID, stored[0].ID)
}

func TestIngestRejectsInvalidBatch(t *testing.T) {
	store := NewMemoryStore()
	svc := &Service{Store: store, Now: fixedNow}

	_, err := svc.Ingest(context.Background(), Batch{TeamID: "team-capn"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cid")

	stored, err := store.ListBatches(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestMainnetFeedSnapshotOnly(t *testing.T) {
	src := &fakeFeedSource{feed: &Feed{Items: []Item{
		{CID: "bafy1", Team: "team-capn", Points: 10, TS: "2026-08-01T00:00:00Z"},
		{CID: "bafy2", Team: "team-devnet-x", Points: 99},
	}}}
	resolver := &fakeResolver{
		allowed: map[string]bool{"team-capn": true},
		names:   map[string]string{"team-capn": "CAPN Coop"},
	}
	svc := &Service{Snapshots: src, Teams: resolver}

	feed := svc.MainnetFeed(context.Background())

	require.Len(t, feed.Items, 1)
	assert.Equal(t, "CAPN Coop", feed.Items[0].Team)
	assert.Equal(t, 10, feed.Items[0].Points)
	assert.Equal(t, 1, feed.Totals.Files)
	require.NotNil(t, feed.PointsSummary)
	assert.Equal(t, 10, feed.PointsSummary.TotalPoints)
}

func TestMainnetFeedMergesStoreBatches(t *testing.T) {
	src := &fakeFeedSource{feed: &Feed{Items: []Item{
		{CID: "bafy1", Team: "team-capn", Points: 10},
	}}}
	store := NewMemoryStore()
	require.NoError(t, store.InsertBatch(context.Background(), Batch{
		ID: "b1", CID: "bafy2", TeamID: "team-capn", Source: "iot", Points: 5,
		RecordedAt: fixedNow(),
	}))
	resolver := &fakeResolver{allowed: map[string]bool{"team-capn": true}}
	svc := &Service{Snapshots: src, Store: store, Teams: resolver, MergeDB: true}

	feed := svc.MainnetFeed(context.Background())

	require.Len(t, feed.Items, 2)
	assert.Equal(t, "batch:b1", feed.Items[1].File)
	assert.Equal(t, "on-chain (store)", feed.Items[1].RecordType)
	assert.Equal(t, 15, feed.PointsSummary.TotalPoints)
}

func TestMainnetFeedMergeDisabledByDefault(t *testing.T) {
	src := &fakeFeedSource{feed: &Feed{Items: []Item{}}}
	store := NewMemoryStore()
	require.NoError(t, store.InsertBatch(context.Background(), Batch{
		ID: "b1", CID: "bafy2", TeamID: "team-capn", Points: 5,
	}))
	svc := &Service{Snapshots: src, Store: store}

	feed := svc.MainnetFeed(context.Background())
	assert.Empty(t, feed.Items)
}

func TestMainnetFeedDegradesToEmpty(t *testing.T) {
	src := &fakeFeedSource{err: errors.New("snapshot unreadable")}
	svc := &Service{Snapshots: src}

	feed := svc.MainnetFeed(context.Background())

	require.NotNil(t, feed.Items)
	assert.Empty(t, feed.Items)
	require.NotNil(t, feed.PointsSummary)
}

func TestMemoryStoreOrdersByRecordedAtDesc(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.InsertBatch(ctx, Batch{ID: "old", CID: "c1", TeamID: "t", RecordedAt: fixedNow().Add(-time.Hour)}))
	require.NoError(t, store.InsertBatch(ctx, Batch{ID: "new", CID: "c2", TeamID: "t", RecordedAt: fixedNow()}))

	got, err := store.ListBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)

	one, err := store.ListBatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "new", one[0].ID)
}
