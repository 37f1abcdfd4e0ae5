package telemetry

// Item is one row of the "now" feed as the dashboard renders it.
type Item struct {
	CID        string  `json:"cid"`
	Tx         string  `json:"tx,omitempty"`
	File       string  `json:"file,omitempty"`
	SHA256     string  `json:"sha256,omitempty"`
	TS         string  `json:"ts,omitempty"`
	Status     string  `json:"status,omitempty"`
	Slot       *uint64 `json:"slot"`
	Source     string  `json:"source,omitempty"`
	Team       string  `json:"team,omitempty"`
	RecordType string  `json:"recordType,omitempty"`
	Count      int     `json:"count,omitempty"`
	Points     int     `json:"points,omitempty"`
}

// Totals summarizes a feed for the header cards.
type Totals struct {
	Files     int    `json:"files"`
	CIDs      int    `json:"cids"`
	OnchainTx int    `json:"onchainTx"`
	LastTS    string `json:"lastTs"`
}

// PointsSummary aggregates batch points by team and source. External points
// exclude the core team's own batches.
type PointsSummary struct {
	TotalPoints    int            `json:"totalPoints"`
	ExternalPoints int            `json:"externalPoints"`
	ExternalPct    float64        `json:"externalPct"`
	ByTeam         map[string]int `json:"byTeam"`
	BySource       map[string]int `json:"bySource"`
}

// Feed is the full "now" payload.
type Feed struct {
	Totals        Totals         `json:"totals"`
	Items         []Item         `json:"items"`
	PointsSummary *PointsSummary `json:"pointsSummary,omitempty"`
}

// Team labels whose points do not count as external contributions.
var internalTeamLabels = map[string]struct{}{
	"Wakama_team": {},
	"Wakama Team": {},
	"Wakama team": {},
}

// EmptyFeed is the degraded payload served when no source is readable.
func EmptyFeed() Feed {
	s := ComputePointsSummary(nil)
	return Feed{
		Totals: Totals{LastTS: "—"},
		Items:  []Item{},
		PointsSummary: &s,
	}
}

func (it Item) points() int {
	if it.Points > 0 {
		return it.Points
	}
	return it.Count
}

// ComputePointsSummary aggregates points over items. Items without a team or
// source are bucketed under "unknown".
func ComputePointsSummary(items []Item) PointsSummary {
	byTeam := map[string]int{}
	bySource := map[string]int{}
	total := 0

	for _, it := range items {
		p := it.points()
		total += p

		team := it.Team
		if team == "" {
			team = "unknown"
		}
		src := it.Source
		if src == "" {
			src = "unknown"
		}
		byTeam[team] += p
		bySource[src] += p
	}

	external := 0
	for team, pts := range byTeam {
		if _, internal := internalTeamLabels[team]; !internal {
			external += pts
		}
	}

	pct := 0.0
	if total > 0 {
		pct = float64(external) / float64(total) * 100
	}

	return PointsSummary{
		TotalPoints:    total,
		ExternalPoints: external,
		ExternalPct:    pct,
		ByTeam:         byTeam,
		BySource:       bySource,
	}
}

// ComputeTotals derives the header totals from a set of items.
func ComputeTotals(items []Item) Totals {
	t := Totals{LastTS: "—", Files: len(items)}
	for _, it := range items {
		if it.CID != "" {
			t.CIDs++
		}
		if it.Tx != "" {
			t.OnchainTx++
		}
		if it.TS != "" && (t.LastTS == "—" || it.TS > t.LastTS) {
			t.LastTS = it.TS
		}
	}
	return t
}
