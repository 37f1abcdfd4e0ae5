package capitalpool

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/example/wakama-oracle/internal/solana"
)

// MemoProgramID is the well-known SPL memo program.
const MemoProgramID = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"

var teamMarker = regexp.MustCompile(`team=([A-Za-z0-9_:-]+)`)

// ExtractMemo returns the first memo found in tx's instruction list, in
// instruction order. Malformed or absent instruction data is treated as
// "no memo", never as an error.
func ExtractMemo(tx *solana.Transaction) (string, bool) {
	if tx == nil {
		return "", false
	}
	for _, inst := range tx.Transaction.Message.Instructions {
		if inst.Program == "spl-memo" && len(inst.Parsed) > 0 {
			if memo, ok := parsedMemo(inst.Parsed); ok {
				return memo, true
			}
		}
		if inst.ProgramID == MemoProgramID && inst.Data != "" {
			return inst.Data, true
		}
	}
	return "", false
}

// parsedMemo handles both shapes the node emits for spl-memo: a plain
// string payload, or an object with a memo field.
func parsedMemo(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, true
	}
	var obj struct {
		Memo string `json:"memo"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Memo != "" {
		return obj.Memo, true
	}
	return "", false
}

// Attribute resolves a team for one transaction. A team=<token> marker in
// the memo wins over any known-address match; no match at all is expected
// and not an error.
func Attribute(memo string, accounts []string, dir *Directory) (TeamRef, bool) {
	if m := teamMarker.FindStringSubmatch(memo); m != nil {
		id := m[1]
		return TeamRef{
			ID:    id,
			Label: strings.ToUpper(strings.TrimPrefix(id, "team_")),
		}, true
	}
	for _, addr := range accounts {
		if ref, ok := dir.Lookup(addr); ok {
			return ref, true
		}
	}
	return TeamRef{}, false
}

// labelForTeamID derives the default display label used when only an id is
// known (snapshot receipts carry ids, not labels).
func labelForTeamID(id string) string {
	return strings.ToUpper(strings.TrimPrefix(id, "team_"))
}
