package capitalpool

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/wakama-oracle/internal/observability"
	"github.com/example/wakama-oracle/internal/snapshot"
	"github.com/example/wakama-oracle/internal/solana"
)

// Request modes.
const (
	ModeAuto     = "auto"
	ModeSnapshot = "snapshot"
	ModeRPC      = "rpc"
	ModeFull     = "full"
)

// Executed modes reported to the caller.
const (
	executedSnapshot = "snapshot"
	executedLight    = "rpc-light"
	executedFull     = "rpc-full"
	executedAuto     = "auto"
)

const (
	// DefaultLimit bounds the live window when the caller supplies none.
	DefaultLimit = 20
	// MaxLightLimit caps signature-list fetches.
	MaxLightLimit = 100
	// MaxFullLimit caps the full per-transaction reconstruction.
	MaxFullLimit = 200
	// mergedLightWindow bounds the freshness probe in auto mode.
	mergedLightWindow = 20
)

// NormalizeLimit clamps a caller-supplied limit to [0, max]. Raw query
// values are parsed by the handler; a negative limit collapses to zero, an
// oversized one to max. Never pass a caller value upstream unclamped.
func NormalizeLimit(limit, max int) int {
	if limit < 0 {
		return 0
	}
	if limit > max {
		return max
	}
	return limit
}

// ChainClient is the slice of the chain RPC surface the assembler consumes.
type ChainClient interface {
	GetSignaturesForAddress(ctx context.Context, address string, limit int) ([]solana.SignatureInfo, error)
	GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error)
}

// SnapshotSource reads the capital-pool snapshot artifacts.
type SnapshotSource interface {
	CapitalPool(ctx context.Context) (*snapshot.CapitalPool, error)
}

// NameResolver rewrites team ids to display names after assembly. Satisfied
// by teams.Registry.
type NameResolver interface {
	DisplayName(id string) (string, bool)
}

// View is the assembled ledger for one request. Exactly one of the three
// data-availability scenarios produced it; the zero Fallback means no
// source was substituted. HardFailure is set only when every source failed.
type View struct {
	OK            bool
	Mode          string
	Fallback      string
	Err           string
	Err2          string
	HardFailure   bool
	GeneratedAt   string
	VaultATA      string
	TotalDeposits *decimal.Decimal
	Rows          []Row
	// RPCRows is non-nil only in auto mode: the light freshness window
	// layered over the snapshot baseline.
	RPCRows []Row
}

// Service assembles ledger views. Stateless: every request derives its view
// from scratch and discards it when the response is sent.
type Service struct {
	Chain     ChainClient
	Snapshots SnapshotSource
	Directory *Directory
	Names     NameResolver
	VaultATA  string
	Mint      string
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Reconcile builds the ledger view for one request. The mode is decided
// once here; there are no transitions within a request.
func (s *Service) Reconcile(ctx context.Context, mode string, limit int) View {
	switch strings.ToLower(mode) {
	case ModeSnapshot:
		return s.snapshotOnly(ctx)
	case ModeRPC:
		return s.liveLight(ctx, NormalizeLimit(limit, MaxLightLimit))
	case ModeFull:
		return s.liveFull(ctx, NormalizeLimit(limit, MaxFullLimit))
	default:
		return s.merged(ctx, NormalizeLimit(limit, MaxLightLimit))
	}
}

// snapshotOnly serves the cached total and deposit list. With only one
// source in play, a failed read is a hard failure.
func (s *Service) snapshotOnly(ctx context.Context) View {
	cp, err := s.Snapshots.CapitalPool(ctx)
	if err != nil {
		return View{
			Mode:        executedSnapshot,
			Err:         err.Error(),
			HardFailure: true,
			GeneratedAt: s.timestamp(),
			VaultATA:    s.VaultATA,
		}
	}

	rows, total := s.snapshotRows(cp)
	return View{
		OK:            true,
		Mode:          executedSnapshot,
		GeneratedAt:   s.generatedAt(cp),
		VaultATA:      s.VaultATA,
		TotalDeposits: &total,
		Rows:          rows,
	}
}

// liveLight serves a bounded recent signature window without per-signature
// transaction fetches. No total is computed: only a window was inspected,
// not full history.
func (s *Service) liveLight(ctx context.Context, limit int) View {
	sigs, err := s.Chain.GetSignaturesForAddress(ctx, s.VaultATA, limit)
	if err != nil {
		return s.fallbackToSnapshot(ctx, executedLight, err)
	}

	return View{
		OK:          true,
		Mode:        executedLight,
		GeneratedAt: s.timestamp(),
		VaultATA:    s.VaultATA,
		Rows:        s.lightRows(sigs),
	}
}

// liveFull reconstructs rows from full transactions: delta extraction,
// classification, zero-delta drop. One malformed transaction skips one row,
// never the response.
func (s *Service) liveFull(ctx context.Context, limit int) View {
	sigs, err := s.Chain.GetSignaturesForAddress(ctx, s.VaultATA, limit)
	if err != nil {
		return s.fallbackToSnapshot(ctx, executedFull, err)
	}

	rows := make([]Row, 0, len(sigs))
	for _, sig := range sigs {
		tx, err := s.Chain.GetTransaction(ctx, sig.Signature)
		if err != nil || tx == nil {
			s.Metrics.ObserveSkippedRow()
			if s.Logger != nil {
				s.Logger.Warn("skipping live row", "signature", sig.Signature, "error", err)
			}
			continue
		}

		delta := ExtractDelta(tx, s.VaultATA, s.Mint)
		if delta.IsZero() {
			continue
		}

		kind := KindDeposit
		if delta.Sign() < 0 {
			kind = KindSweep
		}

		row := Row{
			Signature:  sig.Signature,
			BlockTime:  tx.BlockTime,
			Slot:       tx.Slot,
			Kind:       kind,
			AmountUsdc: delta,
		}
		if row.BlockTime == nil {
			row.BlockTime = sig.BlockTime
		}
		if row.Slot == 0 {
			row.Slot = sig.Slot
		}

		if memo, ok := ExtractMemo(tx); ok {
			row.Memo = &memo
		}
		memoText := ""
		if row.Memo != nil {
			memoText = *row.Memo
		}
		if ref, ok := Attribute(memoText, tx.AccountKeyStrings(), s.Directory); ok {
			row.TeamID = &ref.ID
			label := ref.Label
			row.TeamLabel = &label
		}

		rows = append(rows, row)
	}

	// Fetch completion order is not chain order.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Slot != rows[j].Slot {
			return rows[i].Slot > rows[j].Slot
		}
		return blockTimeOrZero(rows[i]) > blockTimeOrZero(rows[j])
	})

	s.normalizeLabels(rows)

	return View{
		OK:          true,
		Mode:        executedFull,
		GeneratedAt: s.timestamp(),
		VaultATA:    s.VaultATA,
		Rows:        rows,
	}
}

// merged serves the snapshot baseline plus a best-effort light window for
// freshness. The light fetch failing never fails the request.
func (s *Service) merged(ctx context.Context, limit int) View {
	cp, err := s.Snapshots.CapitalPool(ctx)
	if err != nil {
		s.Metrics.ObserveFallback(executedAuto, executedLight)
		sigs, err2 := s.Chain.GetSignaturesForAddress(ctx, s.VaultATA, limit)
		if err2 != nil {
			return View{
				Mode:        executedAuto,
				Err:         err.Error(),
				Err2:        err2.Error(),
				HardFailure: true,
				GeneratedAt: s.timestamp(),
				VaultATA:    s.VaultATA,
			}
		}
		return View{
			Mode:        executedAuto,
			Fallback:    executedLight,
			Err:         err.Error(),
			GeneratedAt: s.timestamp(),
			VaultATA:    s.VaultATA,
			Rows:        s.lightRows(sigs),
		}
	}

	rows, total := s.snapshotRows(cp)

	rpcRows := []Row{}
	window := limit
	if window > mergedLightWindow {
		window = mergedLightWindow
	}
	if sigs, err2 := s.Chain.GetSignaturesForAddress(ctx, s.VaultATA, window); err2 == nil {
		rpcRows = s.dedupe(s.lightRows(sigs), rows)
	} else {
		s.Metrics.ObserveFallback(executedAuto, executedSnapshot)
		if s.Logger != nil {
			s.Logger.Warn("light live fetch failed, serving snapshot only", "error", err2)
		}
	}

	return View{
		OK:            true,
		Mode:          executedAuto,
		GeneratedAt:   s.generatedAt(cp),
		VaultATA:      s.VaultATA,
		TotalDeposits: &total,
		Rows:          rows,
		RPCRows:       rpcRows,
	}
}

// fallbackToSnapshot degrades a failed live mode to snapshot data, or to a
// hard failure when the snapshot is unreadable too.
func (s *Service) fallbackToSnapshot(ctx context.Context, mode string, liveErr error) View {
	s.Metrics.ObserveFallback(mode, executedSnapshot)
	cp, err2 := s.Snapshots.CapitalPool(ctx)
	if err2 != nil {
		return View{
			Mode:        mode,
			Err:         liveErr.Error(),
			Err2:        err2.Error(),
			HardFailure: true,
			GeneratedAt: s.timestamp(),
			VaultATA:    s.VaultATA,
		}
	}

	rows, total := s.snapshotRows(cp)
	return View{
		Mode:          mode,
		Fallback:      executedSnapshot,
		Err:           liveErr.Error(),
		GeneratedAt:   s.generatedAt(cp),
		VaultATA:      s.VaultATA,
		TotalDeposits: &total,
		Rows:          rows,
	}
}

// snapshotRows converts receipts to deposit rows. The snapshot format only
// records deposits; receipts without a positive amount are dropped so the
// sign invariant holds. BlockTime stays nil and slot zero: receipts carry
// no chain-native timing and generator time would be false precision.
func (s *Service) snapshotRows(cp *snapshot.CapitalPool) ([]Row, decimal.Decimal) {
	rows := make([]Row, 0, len(cp.Receipts.Items))
	sum := decimal.Zero
	for _, item := range cp.Receipts.Items {
		amount, err := decimal.NewFromString(item.AmountUsdc.String())
		if err != nil || amount.Sign() <= 0 {
			continue
		}

		row := Row{
			Signature:  item.Tx,
			Kind:       KindDeposit,
			AmountUsdc: amount,
		}
		if item.TeamID != "" {
			id := item.TeamID
			label := labelForTeamID(id)
			row.TeamID = &id
			row.TeamLabel = &label
		}
		if item.Memo != "" {
			memo := item.Memo
			row.Memo = &memo
		}

		sum = sum.Add(amount)
		rows = append(rows, row)
	}

	s.normalizeLabels(rows)

	// The generator's total is authoritative even when it cannot be verified
	// against the receipt set shown to the caller.
	if total, err := decimal.NewFromString(cp.Summary.Global.TotalUsdc.String()); err == nil {
		return rows, total
	}
	return rows, sum
}

// lightRows converts a signature listing to OTHER rows: ordering and timing
// only, no balance information.
func (s *Service) lightRows(sigs []solana.SignatureInfo) []Row {
	rows := make([]Row, 0, len(sigs))
	for _, sig := range sigs {
		rows = append(rows, Row{
			Signature:  sig.Signature,
			BlockTime:  sig.BlockTime,
			Slot:       sig.Slot,
			Kind:       KindOther,
			AmountUsdc: decimal.Zero,
		})
	}
	return rows
}

// dedupe drops live rows whose signature already appears in the baseline;
// a signature is unique within one view.
func (s *Service) dedupe(live, baseline []Row) []Row {
	seen := make(map[string]struct{}, len(baseline))
	for _, r := range baseline {
		seen[r.Signature] = struct{}{}
	}
	out := make([]Row, 0, len(live))
	for _, r := range live {
		if _, dup := seen[r.Signature]; dup {
			continue
		}
		out = append(out, r)
	}
	return out
}

// normalizeLabels rewrites team labels through the registry. Labels only.
func (s *Service) normalizeLabels(rows []Row) {
	if s.Names == nil {
		return
	}
	for i := range rows {
		if rows[i].TeamID == nil {
			continue
		}
		if name, ok := s.Names.DisplayName(*rows[i].TeamID); ok {
			n := name
			rows[i].TeamLabel = &n
		}
	}
}

func (s *Service) generatedAt(cp *snapshot.CapitalPool) string {
	if cp.Summary.GeneratedAt != "" {
		return cp.Summary.GeneratedAt
	}
	return s.timestamp()
}

func blockTimeOrZero(r Row) int64 {
	if r.BlockTime == nil {
		return 0
	}
	return *r.BlockTime
}
