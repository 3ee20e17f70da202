package entity

// Similarity scores how alike two normalized company names are, in [0,1].
// Implementations must be symmetric and return 1 for identical inputs.
// The resolver treats the function as a black box so the algorithm and
// threshold can be tuned without touching resolution control flow.
type Similarity interface {
	Score(a, b string) float64
}

// TokenSetSimilarity implements Similarity using the Sørensen–Dice
// coefficient over the names' token sets. Token-based comparison is robust
// to word reordering and to the suffix noise already removed by
// NormalizeName, and it degrades predictably: one shared token out of two
// per name scores 0.5, well under any conservative threshold.
type TokenSetSimilarity struct{}

// Score returns 2·|A∩B| / (|A|+|B|) for the token sets of a and b.
func (TokenSetSimilarity) Score(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}

	ta := nameTokens(a)
	tb := nameTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for tok := range ta {
		if tb[tok] {
			shared++
		}
	}

	return 2 * float64(shared) / float64(len(ta)+len(tb))
}
