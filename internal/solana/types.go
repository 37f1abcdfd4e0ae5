package solana

import "encoding/json"

// SignatureInfo is one entry from getSignaturesForAddress. The listing is
// lightweight: it carries chain ordering and an optional memo, but no
// balance information.
type SignatureInfo struct {
	Signature string          `json:"signature"`
	Slot      uint64          `json:"slot"`
	BlockTime *int64          `json:"blockTime"`
	Err       json.RawMessage `json:"err"`
	Memo      *string         `json:"memo"`
}

// TokenAmount is the RPC representation of a token quantity. UIAmountString
// carries the decimal value directly; Amount is the raw base-unit integer
// scaled by Decimals.
type TokenAmount struct {
	Amount         string   `json:"amount"`
	Decimals       int32    `json:"decimals"`
	UIAmount       *float64 `json:"uiAmount"`
	UIAmountString string   `json:"uiAmountString"`
}

// TokenBalance tags a token amount with the index of the owning account in
// the transaction's account list and the mint it belongs to.
type TokenBalance struct {
	AccountIndex  int         `json:"accountIndex"`
	Mint          string      `json:"mint"`
	Owner         string      `json:"owner"`
	UITokenAmount TokenAmount `json:"uiTokenAmount"`
}

// AccountKey is one entry of the jsonParsed account list.
type AccountKey struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

// Instruction is one jsonParsed instruction. Parsed is left raw because its
// shape depends on the owning program; Data carries the base58 payload for
// programs the node cannot parse.
type Instruction struct {
	Program   string          `json:"program"`
	ProgramID string          `json:"programId"`
	Parsed    json.RawMessage `json:"parsed"`
	Data      string          `json:"data"`
}

// Message is the instruction/account portion of a transaction.
type Message struct {
	AccountKeys  []AccountKey  `json:"accountKeys"`
	Instructions []Instruction `json:"instructions"`
}

// TransactionMeta carries the pre/post token balances recorded by the node.
type TransactionMeta struct {
	Err               json.RawMessage `json:"err"`
	PreTokenBalances  []TokenBalance  `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance  `json:"postTokenBalances"`
}

// Transaction is a full getTransaction result (jsonParsed encoding).
type Transaction struct {
	Slot        uint64           `json:"slot"`
	BlockTime   *int64           `json:"blockTime"`
	Meta        *TransactionMeta `json:"meta"`
	Transaction struct {
		Message Message `json:"message"`
	} `json:"transaction"`
}

// AccountKeyStrings returns the ordered list of account addresses.
func (t *Transaction) AccountKeyStrings() []string {
	keys := t.Transaction.Message.AccountKeys
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Pubkey
	}
	return out
}
