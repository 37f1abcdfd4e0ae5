package teams

import (
	"context"
	"strings"
	"time"
)

// Team is one document of the teams collection.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	External  bool      `json:"external"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Teams considered part of mainnet tracking. Everything else is filtered
// out of mainnet views so devnet experiments cannot leak into totals.
// Product configuration: confirm changes with the tracking owners before
// editing (capn_san_pedro in particular is a known devnet leak, not a team).
var mainnetAllowlist = map[string]struct{}{
	"team-capn":        {},
	"team_CNRA":        {},
	"team-makm2":       {},
	"team_mks":         {},
	"team-scak-coop":   {},
	"team-techlab-cme": {},
	"Wakama_team":      {},
	"team-uJlog":       {},
}

// Hard aliases applied on top of whatever the store holds.
var hardAliases = map[string]string{
	"team_wakama": "Wakama Team",
	"Wakama Core": "Wakama Team",
}

// Registry is the immutable team directory a process works against. It is
// built once at startup and never mutated afterwards.
type Registry struct {
	names map[string]string
	allow map[string]struct{}
}

// NewRegistry builds a registry from an id→display-name map, layering the
// hard aliases over it.
func NewRegistry(names map[string]string) *Registry {
	merged := make(map[string]string, len(names)+len(hardAliases))
	for id, name := range names {
		merged[id] = name
	}
	for id, name := range hardAliases {
		merged[id] = name
	}
	return &Registry{names: merged, allow: mainnetAllowlist}
}

// LoadRegistry reads display names from the store and freezes them into a
// registry. Store rows with an empty name fall back to their id.
func LoadRegistry(ctx context.Context, store Store) (*Registry, error) {
	list, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(list))
	for _, t := range list {
		name := t.Name
		if name == "" {
			name = t.ID
		}
		names[t.ID] = name
	}
	return NewRegistry(names), nil
}

// DisplayName resolves a team id to its display label.
func (r *Registry) DisplayName(id string) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.names[strings.TrimSpace(id)]
	return name, ok
}

// AllowedOnMainnet reports whether a team id belongs to mainnet tracking.
// Ids mentioning devnet are rejected outright.
func (r *Registry) AllowedOnMainnet(id string) bool {
	if r == nil {
		return true
	}
	t := strings.TrimSpace(id)
	if t == "" {
		return false
	}
	if strings.Contains(strings.ToLower(t), "devnet") {
		return false
	}
	_, ok := r.allow[t]
	return ok
}
