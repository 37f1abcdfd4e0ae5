package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	require.NoError(t, err)
	return store, dir
}

const validSummary = `{
  "generatedAt": "2026-08-01T00:00:00Z",
  "global": {"totalUsdc": 1234.5}
}`

const validReceipts = `{
  "generatedAt": "2026-08-01T00:00:00Z",
  "count": 2,
  "items": [
    {"tx": "SIG1", "amountUsdc": 50, "teamId": "team_mks", "createdAt": "2026-07-31T10:00:00Z"},
    {"tx": "SIG2", "amountUsdc": 100.25, "teamId": null, "memo": "m2"}
  ]
}`

func TestCapitalPool(t *testing.T) {
	store, dir := newTestStore(t)
	writeFixture(t, dir, "capital-pool/mainnet/summary.json", validSummary)
	writeFixture(t, dir, "capital-pool/mainnet/receipts.index.json", validReceipts)

	cp, err := store.CapitalPool(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01T00:00:00Z", cp.Summary.GeneratedAt)
	assert.Equal(t, "1234.5", cp.Summary.Global.TotalUsdc.String())
	require.Len(t, cp.Receipts.Items, 2)
	assert.Equal(t, "SIG1", cp.Receipts.Items[0].Tx)
	assert.Equal(t, "team_mks", cp.Receipts.Items[0].TeamID)
	assert.Equal(t, "50", cp.Receipts.Items[0].AmountUsdc.String())
	assert.Empty(t, cp.Receipts.Items[1].TeamID)
}

func TestCapitalPoolMissingSummary(t *testing.T) {
	store, dir := newTestStore(t)
	writeFixture(t, dir, "capital-pool/mainnet/receipts.index.json", validReceipts)

	_, err := store.CapitalPool(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary.json")
}

func TestCapitalPoolMalformedJSON(t *testing.T) {
	store, dir := newTestStore(t)
	writeFixture(t, dir, "capital-pool/mainnet/summary.json", "{not json")
	writeFixture(t, dir, "capital-pool/mainnet/receipts.index.json", validReceipts)

	_, err := store.CapitalPool(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse snapshot")
}

func TestCapitalPoolSchemaViolation(t *testing.T) {
	store, dir := newTestStore(t)
	writeFixture(t, dir, "capital-pool/mainnet/summary.json", validSummary)
	// Receipt item missing the required tx field.
	writeFixture(t, dir, "capital-pool/mainnet/receipts.index.json",
		`{"items": [{"amountUsdc": 50}]}`)

	_, err := store.CapitalPool(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed validation")
}

func TestNowRaw(t *testing.T) {
	store, dir := newTestStore(t)
	writeFixture(t, dir, "now.json", `{"items": [], "totals": {"files": 0}}`)

	raw, err := store.NowRaw(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": [], "totals": {"files": 0}}`, string(raw))
}

func TestNowRawInvalidJSON(t *testing.T) {
	store, dir := newTestStore(t)
	writeFixture(t, dir, "now.json", "<html>gateway error</html>")

	_, err := store.NowRaw(context.Background())
	require.Error(t, err)
}

func TestNowRawMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.NowRaw(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "now.json")
}

func TestLegacyNow(t *testing.T) {
	store, dir := newTestStore(t)
	writeFixture(t, dir, "now_mainnet_v2.json", `{
	  "items": [{"cid": "bafy1", "team": "team-capn", "points": 10, "source": "iot"}],
	  "totals": {"files": 1, "cids": 1}
	}`)

	feed, err := store.LegacyNow(context.Background())
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "bafy1", feed.Items[0].CID)
	assert.Equal(t, "team-capn", feed.Items[0].Team)
	assert.Equal(t, 1, feed.Totals.Files)
}

func TestLegacyNowEmptyItemsNormalized(t *testing.T) {
	store, dir := newTestStore(t)
	writeFixture(t, dir, "now_mainnet_v2.json", `{"totals": {}}`)

	feed, err := store.LegacyNow(context.Background())
	require.NoError(t, err)
	require.NotNil(t, feed.Items)
	assert.Empty(t, feed.Items)
}
