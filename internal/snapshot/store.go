// Package snapshot reads the periodically-regenerated static JSON artifacts
// the dashboard falls back on when live sources are unavailable. The store
// is strictly read-only; the files are owned by the snapshot generator.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/example/wakama-oracle/internal/observability"
	"github.com/example/wakama-oracle/internal/telemetry"
)

// Summary is the capital-pool summary artifact. The global total is the
// generator's authoritative figure and takes precedence over any row sum.
type Summary struct {
	GeneratedAt string `json:"generatedAt"`
	Global      struct {
		TotalUsdc json.Number `json:"totalUsdc"`
	} `json:"global"`
}

// Receipt is one indexed deposit receipt. Receipts carry no chain-native
// timing; CreatedAt is generator time and must not be presented as on-chain
// time.
type Receipt struct {
	Tx         string      `json:"tx"`
	AmountUsdc json.Number `json:"amountUsdc"`
	TeamID     string      `json:"teamId"`
	Memo       string      `json:"memo"`
	CreatedAt  string      `json:"createdAt"`
}

// ReceiptsIndex is the receipts artifact.
type ReceiptsIndex struct {
	GeneratedAt string    `json:"generatedAt"`
	Count       int       `json:"count"`
	Items       []Receipt `json:"items"`
}

// CapitalPool bundles the two capital-pool artifacts read together.
type CapitalPool struct {
	Summary  Summary
	Receipts ReceiptsIndex
}

// Store reads snapshot artifacts from a directory.
type Store struct {
	dir      string
	metrics  *observability.Metrics
	summary  *jsonschema.Schema
	receipts *jsonschema.Schema
}

func NewStore(dir string, metrics *observability.Metrics) (*Store, error) {
	sum, err := compileSchema("summary.json", summarySchema)
	if err != nil {
		return nil, err
	}
	rec, err := compileSchema("receipts.json", receiptsSchema)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, metrics: metrics, summary: sum, receipts: rec}, nil
}

func compileSchema(name, schemaJSON string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

func (s *Store) read(name string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(name)))
	s.metrics.ObserveSnapshotRead(name, err)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	return raw, nil
}

func (s *Store) readValidated(name string, schema *jsonschema.Schema, out interface{}) error {
	raw, err := s.read(name)
	if err != nil {
		return err
	}

	var payload interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("parse snapshot %s: %w", name, err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("snapshot %s failed validation: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return nil
}

// CapitalPool reads and validates both capital-pool artifacts. Either file
// missing or malformed fails the whole read; callers decide how to degrade.
func (s *Store) CapitalPool(ctx context.Context) (*CapitalPool, error) {
	var cp CapitalPool
	if err := s.readValidated("capital-pool/mainnet/summary.json", s.summary, &cp.Summary); err != nil {
		return nil, err
	}
	if err := s.readValidated("capital-pool/mainnet/receipts.index.json", s.receipts, &cp.Receipts); err != nil {
		return nil, err
	}
	return &cp, nil
}

// NowRaw returns the now.json artifact verbatim. The dashboard serves it
// untouched, so no validation beyond being parseable JSON.
func (s *Store) NowRaw(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.read("now.json")
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("snapshot now.json is not valid JSON")
	}
	return raw, nil
}

// LegacyNow reads the publisher's mainnet feed snapshot.
func (s *Store) LegacyNow(ctx context.Context) (*telemetry.Feed, error) {
	raw, err := s.read("now_mainnet_v2.json")
	if err != nil {
		return nil, err
	}
	var feed telemetry.Feed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, fmt.Errorf("parse snapshot now_mainnet_v2.json: %w", err)
	}
	if feed.Items == nil {
		feed.Items = []telemetry.Item{}
	}
	return &feed, nil
}
