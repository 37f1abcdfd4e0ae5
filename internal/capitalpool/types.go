// Package capitalpool reconciles the capital-pool deposit ledger from the
// chain and from the generator's snapshot artifacts.
package capitalpool

import "github.com/shopspring/decimal"

func init() {
	// Dashboard wire format carries amounts as bare JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Kind classifies one ledger row by the sign of its balance change.
type Kind string

const (
	// KindDeposit marks a positive balance change.
	KindDeposit Kind = "DEPOSIT"
	// KindSweep marks a negative balance change.
	KindSweep Kind = "SWEEP"
	// KindOther marks rows sourced without balance information (signature
	// listings). Rows whose derived delta is exactly zero are dropped, never
	// stored as OTHER.
	KindOther Kind = "OTHER"
)

// Row is one observed balance-changing event on the tracked vault account.
// Rows are built fresh per request and never mutated after construction.
type Row struct {
	Signature  string          `json:"signature"`
	BlockTime  *int64          `json:"blockTime"`
	Slot       uint64          `json:"slot"`
	Kind       Kind            `json:"type"`
	AmountUsdc decimal.Decimal `json:"amountUsdc"`
	TeamID     *string         `json:"teamId"`
	TeamLabel  *string         `json:"teamLabel"`
	Memo       *string         `json:"memo"`
}
