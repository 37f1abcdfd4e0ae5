package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// TeamResolver filters and relabels feed items. Satisfied by teams.Registry.
type TeamResolver interface {
	AllowedOnMainnet(id string) bool
	DisplayName(id string) (string, bool)
}

// FeedSource reads the periodically-regenerated "now" snapshot.
type FeedSource interface {
	LegacyNow(ctx context.Context) (*Feed, error)
}

// Service assembles the mainnet telemetry feed. The publisher snapshot is
// the baseline; store-ingested batches are merged in only when MergeDB is
// set, matching the snapshot-first rollout of the feed.
type Service struct {
	Snapshots FeedSource
	Store     Store
	Teams     TeamResolver
	MergeDB   bool
	Logger    *slog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Ingest validates and persists one telemetry batch, assigning an id and
// timestamp when absent.
func (s *Service) Ingest(ctx context.Context, b Batch) (Batch, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = "indexed"
	}
	if b.RecordedAt.IsZero() {
		b.RecordedAt = s.now().UTC()
	}
	if err := b.Validate(); err != nil {
		return Batch{}, err
	}
	if err := s.Store.InsertBatch(ctx, b); err != nil {
		return Batch{}, err
	}
	return b, nil
}

// MainnetFeed builds the feed served to the dashboard. It never fails: an
// unreadable snapshot or store degrades to whatever remains, down to an
// empty feed.
func (s *Service) MainnetFeed(ctx context.Context) Feed {
	items := s.snapshotItems(ctx)

	if s.MergeDB && s.Store != nil {
		batches, err := s.Store.ListBatches(ctx, 200)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("batch store read failed, serving snapshot only", "error", err)
			}
		} else {
			for _, b := range batches {
				items = append(items, b.Item())
			}
		}
	}

	items = s.filterMainnet(items)
	items = s.normalizeLabels(items)

	summary := ComputePointsSummary(items)
	return Feed{
		Totals:        ComputeTotals(items),
		Items:         items,
		PointsSummary: &summary,
	}
}

func (s *Service) snapshotItems(ctx context.Context) []Item {
	if s.Snapshots == nil {
		return nil
	}
	legacy, err := s.Snapshots.LegacyNow(ctx)
	if err != nil || legacy == nil {
		if err != nil && s.Logger != nil {
			s.Logger.Warn("legacy now snapshot unreadable", "error", err)
		}
		return nil
	}
	return legacy.Items
}

// filterMainnet drops items from teams outside the mainnet allowlist so
// devnet experiments never leak into mainnet totals.
func (s *Service) filterMainnet(items []Item) []Item {
	if s.Teams == nil {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if s.Teams.AllowedOnMainnet(it.Team) {
			out = append(out, it)
		}
	}
	return out
}

// normalizeLabels rewrites team ids to display names. Labels only; points
// and amounts are never touched here.
func (s *Service) normalizeLabels(items []Item) []Item {
	if s.Teams == nil {
		return items
	}
	for i, it := range items {
		if name, ok := s.Teams.DisplayName(it.Team); ok {
			items[i].Team = name
		}
	}
	return items
}
