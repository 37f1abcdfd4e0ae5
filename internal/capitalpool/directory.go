package capitalpool

// TeamRef is a resolved team attribution.
type TeamRef struct {
	ID    string
	Label string
}

// Directory maps known wallet and token-account addresses to teams. It is
// immutable after construction; the process builds it once at startup.
type Directory struct {
	byAddress map[string]TeamRef
}

func NewDirectory(entries map[string]TeamRef) *Directory {
	byAddress := make(map[string]TeamRef, len(entries))
	for addr, ref := range entries {
		byAddress[addr] = ref
	}
	return &Directory{byAddress: byAddress}
}

// DefaultDirectory holds the known mainnet team wallets and their USDC
// token accounts. Extend as new teams onboard.
func DefaultDirectory() *Directory {
	return NewDirectory(map[string]TeamRef{
		// team wallets
		"311JpSVRih2ZYMU7rVf2snpUUqWUzF2LKFoZSBG7BrWk": {ID: "team_mks", Label: "MKS"},
		"DyF54aoEUjHXq6yVnuYd6mVMAfXZC1QEDFgrXjU9rKQ4": {ID: "team_etra", Label: "ETRA"},

		// team USDC token accounts
		"8EefksgtNiM61JMBeinWCnjCHd8RkZXRsvkkAfj2r5Vy": {ID: "team_mks", Label: "MKS"},
		"7XMeZ3Y9MZYgqeGymgptKTwaAAg3s4dRg19FbvY2Sfbm": {ID: "team_etra", Label: "ETRA"},
	})
}

// Lookup resolves one address.
func (d *Directory) Lookup(address string) (TeamRef, bool) {
	if d == nil {
		return TeamRef{}, false
	}
	ref, ok := d.byAddress[address]
	return ref, ok
}
