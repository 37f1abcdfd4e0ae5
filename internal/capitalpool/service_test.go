package capitalpool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wakama-oracle/internal/snapshot"
	"github.com/example/wakama-oracle/internal/solana"
)

type fakeChain struct {
	sigs      []solana.SignatureInfo
	sigsErr   error
	txs       map[string]*solana.Transaction
	txErrs    map[string]error
	lastLimit int
}

func (f *fakeChain) GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]solana.SignatureInfo, error) {
	f.lastLimit = limit
	if f.sigsErr != nil {
		return nil, f.sigsErr
	}
	return f.sigs, nil
}

func (f *fakeChain) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	if err := f.txErrs[signature]; err != nil {
		return nil, err
	}
	return f.txs[signature], nil
}

type fakeSnapshots struct {
	cp  *snapshot.CapitalPool
	err error
}

func (f *fakeSnapshots) CapitalPool(ctx context.Context) (*snapshot.CapitalPool, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cp, nil
}

func snapshotFixture() *snapshot.CapitalPool {
	cp := &snapshot.CapitalPool{}
	cp.Summary.GeneratedAt = "2026-08-01T00:00:00Z"
	cp.Summary.Global.TotalUsdc = json.Number("1234.5")
	cp.Receipts.Items = []snapshot.Receipt{
		{Tx: "SIG1", AmountUsdc: json.Number("50"), TeamID: "team_mks"},
		{Tx: "SIG2", AmountUsdc: json.Number("100.25"), TeamID: "team_etra", Memo: "m2 deposit"},
		{Tx: "SIG3", AmountUsdc: json.Number("12")},
	}
	return cp
}

func newService(chain ChainClient, snaps SnapshotSource) *Service {
	return &Service{
		Chain:     chain,
		Snapshots: snaps,
		Directory: DefaultDirectory(),
		VaultATA:  testVault,
		Mint:      testMint,
	}
}

func int64p(v int64) *int64 { return &v }

func TestSnapshotMode(t *testing.T) {
	svc := newService(&fakeChain{}, &fakeSnapshots{cp: snapshotFixture()})

	view := svc.Reconcile(context.Background(), ModeSnapshot, 20)

	require.True(t, view.OK)
	assert.Equal(t, "snapshot", view.Mode)
	assert.Equal(t, "2026-08-01T00:00:00Z", view.GeneratedAt)
	require.NotNil(t, view.TotalDeposits)
	assert.True(t, view.TotalDeposits.Equal(decimal.RequireFromString("1234.5")))
	require.Len(t, view.Rows, 3)
	for _, row := range view.Rows {
		assert.Equal(t, KindDeposit, row.Kind)
		assert.Nil(t, row.BlockTime)
		assert.Zero(t, row.Slot)
		assert.True(t, row.AmountUsdc.Sign() > 0)
	}
	assert.Nil(t, view.RPCRows)
}

func TestSnapshotModeEndToEndValues(t *testing.T) {
	cp := &snapshot.CapitalPool{}
	cp.Summary.Global.TotalUsdc = json.Number("50")
	cp.Receipts.Items = []snapshot.Receipt{
		{Tx: "SIG1", AmountUsdc: json.Number("50"), TeamID: "team_mks"},
	}
	svc := newService(&fakeChain{}, &fakeSnapshots{cp: cp})

	view := svc.Reconcile(context.Background(), ModeSnapshot, 20)

	require.True(t, view.OK)
	require.Len(t, view.Rows, 1)
	row := view.Rows[0]
	assert.Equal(t, "SIG1", row.Signature)
	assert.Equal(t, KindDeposit, row.Kind)
	assert.True(t, row.AmountUsdc.Equal(decimal.RequireFromString("50")))
	require.NotNil(t, row.TeamID)
	assert.Equal(t, "team_mks", *row.TeamID)
	require.NotNil(t, row.TeamLabel)
	assert.Equal(t, "MKS", *row.TeamLabel)
	assert.True(t, view.TotalDeposits.Equal(decimal.RequireFromString("50")))
}

func TestSnapshotModeMissingTotalFallsBackToRowSum(t *testing.T) {
	cp := snapshotFixture()
	cp.Summary.Global.TotalUsdc = json.Number("")

	svc := newService(&fakeChain{}, &fakeSnapshots{cp: cp})
	view := svc.Reconcile(context.Background(), ModeSnapshot, 20)

	require.True(t, view.OK)
	require.NotNil(t, view.TotalDeposits)
	assert.True(t, view.TotalDeposits.Equal(decimal.RequireFromString("162.25")))
}

func TestSnapshotModeDropsNonPositiveReceipts(t *testing.T) {
	cp := snapshotFixture()
	cp.Receipts.Items = append(cp.Receipts.Items,
		snapshot.Receipt{Tx: "SIGZ", AmountUsdc: json.Number("0")},
		snapshot.Receipt{Tx: "SIGN", AmountUsdc: json.Number("-3")},
	)

	svc := newService(&fakeChain{}, &fakeSnapshots{cp: cp})
	view := svc.Reconcile(context.Background(), ModeSnapshot, 20)

	require.Len(t, view.Rows, 3)
	for _, row := range view.Rows {
		assert.NotEqual(t, "SIGZ", row.Signature)
		assert.NotEqual(t, "SIGN", row.Signature)
	}
}

func TestSnapshotModeFailureIsHard(t *testing.T) {
	svc := newService(&fakeChain{}, &fakeSnapshots{err: errors.New("missing file")})

	view := svc.Reconcile(context.Background(), ModeSnapshot, 20)

	assert.False(t, view.OK)
	assert.True(t, view.HardFailure)
	assert.Contains(t, view.Err, "missing file")
}

func TestLightMode(t *testing.T) {
	chain := &fakeChain{sigs: []solana.SignatureInfo{
		{Signature: "L1", Slot: 900, BlockTime: int64p(1700000000)},
		{Signature: "L2", Slot: 899},
	}}
	svc := newService(chain, &fakeSnapshots{cp: snapshotFixture()})

	view := svc.Reconcile(context.Background(), ModeRPC, 50)

	require.True(t, view.OK)
	assert.Equal(t, "rpc-light", view.Mode)
	assert.Nil(t, view.TotalDeposits)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, KindOther, view.Rows[0].Kind)
	assert.True(t, view.Rows[0].AmountUsdc.IsZero())
	assert.Equal(t, uint64(900), view.Rows[0].Slot)
}

func TestLimitClampedBeforeUpstream(t *testing.T) {
	chain := &fakeChain{}
	svc := newService(chain, &fakeSnapshots{cp: snapshotFixture()})

	svc.Reconcile(context.Background(), ModeRPC, 9999)
	assert.Equal(t, MaxLightLimit, chain.lastLimit)

	svc.Reconcile(context.Background(), ModeFull, 9999)
	assert.Equal(t, MaxFullLimit, chain.lastLimit)

	svc.Reconcile(context.Background(), ModeRPC, -5)
	assert.Equal(t, 0, chain.lastLimit)
}

func TestLightModeFallsBackToSnapshot(t *testing.T) {
	chain := &fakeChain{sigsErr: errors.New("429 too many requests")}
	svc := newService(chain, &fakeSnapshots{cp: snapshotFixture()})

	view := svc.Reconcile(context.Background(), ModeRPC, 20)

	assert.False(t, view.OK)
	assert.False(t, view.HardFailure)
	assert.Equal(t, "rpc-light", view.Mode)
	assert.Equal(t, "snapshot", view.Fallback)
	assert.Contains(t, view.Err, "429")
	require.NotNil(t, view.TotalDeposits)
	assert.Len(t, view.Rows, 3)
}

func TestBothSourcesUnavailable(t *testing.T) {
	chain := &fakeChain{sigsErr: errors.New("rpc down")}
	svc := newService(chain, &fakeSnapshots{err: errors.New("snapshot gone")})

	view := svc.Reconcile(context.Background(), ModeRPC, 20)

	assert.True(t, view.HardFailure)
	assert.Contains(t, view.Err, "rpc down")
	assert.Contains(t, view.Err2, "snapshot gone")
}

func TestMergedMode(t *testing.T) {
	chain := &fakeChain{sigs: []solana.SignatureInfo{
		{Signature: "SIG1", Slot: 900}, // duplicate of a snapshot row
		{Signature: "FRESH", Slot: 901},
	}}
	svc := newService(chain, &fakeSnapshots{cp: snapshotFixture()})

	view := svc.Reconcile(context.Background(), ModeAuto, 20)

	require.True(t, view.OK)
	assert.Equal(t, "auto", view.Mode)
	require.NotNil(t, view.TotalDeposits)
	assert.Len(t, view.Rows, 3)
	require.NotNil(t, view.RPCRows)
	require.Len(t, view.RPCRows, 1)
	assert.Equal(t, "FRESH", view.RPCRows[0].Signature)
}

func TestMergedModeLightFailureIsSilent(t *testing.T) {
	chain := &fakeChain{sigsErr: errors.New("rpc down")}
	svc := newService(chain, &fakeSnapshots{cp: snapshotFixture()})

	view := svc.Reconcile(context.Background(), ModeAuto, 20)

	require.True(t, view.OK, "snapshot success decides ok, not the light fetch")
	assert.Equal(t, "auto", view.Mode)
	require.NotNil(t, view.RPCRows)
	assert.Empty(t, view.RPCRows)
	assert.Len(t, view.Rows, 3)
}

func TestMergedModeSnapshotFailureFallsBackToLight(t *testing.T) {
	chain := &fakeChain{sigs: []solana.SignatureInfo{{Signature: "L1", Slot: 1}}}
	svc := newService(chain, &fakeSnapshots{err: errors.New("snapshot gone")})

	view := svc.Reconcile(context.Background(), ModeAuto, 20)

	assert.False(t, view.OK)
	assert.False(t, view.HardFailure)
	assert.Equal(t, "rpc-light", view.Fallback)
	assert.Nil(t, view.TotalDeposits)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, KindOther, view.Rows[0].Kind)
}

func TestFullMode(t *testing.T) {
	deposit := txWithBalances([]string{"Payer", testVault},
		[]solana.TokenBalance{uiBalance(1, "0")},
		[]solana.TokenBalance{uiBalance(1, "50")},
	)
	deposit.Slot = 800
	deposit.BlockTime = int64p(1700000100)
	deposit.Transaction.Message.Instructions = []solana.Instruction{
		{Program: "spl-memo", Parsed: json.RawMessage(`"team=team_mks"`)},
	}

	sweep := txWithBalances([]string{testVault},
		[]solana.TokenBalance{uiBalance(0, "50")},
		[]solana.TokenBalance{uiBalance(0, "20")},
	)
	sweep.Slot = 900
	sweep.BlockTime = int64p(1700000200)

	untouched := txWithBalances([]string{testVault},
		[]solana.TokenBalance{uiBalance(0, "20")},
		[]solana.TokenBalance{uiBalance(0, "20")},
	)
	untouched.Slot = 850

	chain := &fakeChain{
		sigs: []solana.SignatureInfo{
			{Signature: "DEP", Slot: 800},
			{Signature: "ZERO", Slot: 850},
			{Signature: "SWEEP", Slot: 900},
			{Signature: "BROKEN", Slot: 950},
		},
		txs:    map[string]*solana.Transaction{"DEP": deposit, "ZERO": untouched, "SWEEP": sweep},
		txErrs: map[string]error{"BROKEN": errors.New("malformed record")},
	}
	svc := newService(chain, &fakeSnapshots{cp: snapshotFixture()})

	view := svc.Reconcile(context.Background(), ModeFull, 50)

	require.True(t, view.OK)
	assert.Equal(t, "rpc-full", view.Mode)
	assert.Nil(t, view.TotalDeposits, "bounded window, no total")

	// BROKEN skipped, ZERO dropped; remaining ordered by slot descending.
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "SWEEP", view.Rows[0].Signature)
	assert.Equal(t, KindSweep, view.Rows[0].Kind)
	assert.True(t, view.Rows[0].AmountUsdc.Equal(decimal.RequireFromString("-30")))
	assert.Equal(t, "DEP", view.Rows[1].Signature)
	assert.Equal(t, KindDeposit, view.Rows[1].Kind)
	require.NotNil(t, view.Rows[1].TeamID)
	assert.Equal(t, "team_mks", *view.Rows[1].TeamID)
	require.NotNil(t, view.Rows[1].Memo)
	assert.Equal(t, "team=team_mks", *view.Rows[1].Memo)
}

func TestFullModeIdempotent(t *testing.T) {
	deposit := txWithBalances([]string{testVault},
		[]solana.TokenBalance{uiBalance(0, "0")},
		[]solana.TokenBalance{uiBalance(0, "5")},
	)
	deposit.Slot = 10

	chain := &fakeChain{
		sigs: []solana.SignatureInfo{{Signature: "A", Slot: 10}},
		txs:  map[string]*solana.Transaction{"A": deposit},
	}
	svc := newService(chain, &fakeSnapshots{cp: snapshotFixture()})

	first := svc.Reconcile(context.Background(), ModeFull, 20)
	second := svc.Reconcile(context.Background(), ModeFull, 20)
	assert.Equal(t, first.Rows, second.Rows)
}

type staticNames map[string]string

func (n staticNames) DisplayName(id string) (string, bool) {
	name, ok := n[id]
	return name, ok
}

func TestRegistryNormalizesLabels(t *testing.T) {
	svc := newService(&fakeChain{sigsErr: errors.New("down")}, &fakeSnapshots{cp: snapshotFixture()})
	svc.Names = staticNames{"team_mks": "MKS Partner Co-op"}

	view := svc.Reconcile(context.Background(), ModeSnapshot, 20)

	require.True(t, view.OK)
	require.NotNil(t, view.Rows[0].TeamLabel)
	assert.Equal(t, "MKS Partner Co-op", *view.Rows[0].TeamLabel)
	// Amounts untouched by label rewriting.
	assert.True(t, view.Rows[0].AmountUsdc.Equal(decimal.RequireFromString("50")))
}
