package capitalpool

import (
	"github.com/shopspring/decimal"

	"github.com/example/wakama-oracle/internal/solana"
)

// ExtractDelta computes the signed change of trackedAccount's balance of
// mint caused by tx. Pure: no side effects, fails closed to zero when the
// account is absent from the transaction. A zero result means the
// transaction did not touch the tracked balance and the caller must drop
// the row.
func ExtractDelta(tx *solana.Transaction, trackedAccount, mint string) decimal.Decimal {
	if tx == nil || tx.Meta == nil {
		return decimal.Zero
	}

	idx := -1
	for i, key := range tx.Transaction.Message.AccountKeys {
		if key.Pubkey == trackedAccount {
			idx = i
			break
		}
	}
	if idx < 0 {
		return decimal.Zero
	}

	pre := balanceAt(tx.Meta.PreTokenBalances, idx, mint)
	post := balanceAt(tx.Meta.PostTokenBalances, idx, mint)
	return post.Sub(pre)
}

// balanceAt finds the balance entry for one account index and mint. A
// missing entry is a zero balance (the account did not hold the mint on
// that side of the transaction).
func balanceAt(balances []solana.TokenBalance, accountIndex int, mint string) decimal.Decimal {
	for _, b := range balances {
		if b.AccountIndex == accountIndex && b.Mint == mint {
			return tokenAmountDecimal(b.UITokenAmount)
		}
	}
	return decimal.Zero
}

// tokenAmountDecimal converts an RPC token amount to a decimal. The direct
// decimal representation wins; the base-unit fallback divides by
// 10^decimals so both paths agree on scale.
func tokenAmountDecimal(a solana.TokenAmount) decimal.Decimal {
	if a.UIAmountString != "" {
		if d, err := decimal.NewFromString(a.UIAmountString); err == nil {
			return d
		}
	}
	if a.UIAmount != nil {
		return decimal.NewFromFloat(*a.UIAmount)
	}
	if a.Amount != "" {
		if raw, err := decimal.NewFromString(a.Amount); err == nil {
			return raw.Shift(-a.Decimals)
		}
	}
	return decimal.Zero
}
