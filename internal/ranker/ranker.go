package ranker

import (
	"sort"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
)

// DefaultTopN is the length of the published recommendation list
const DefaultTopN = 5

// Trade plan offsets relative to the current price
const (
	TP1Multiplier      = 1.015
	TP2Multiplier      = 1.035
	TP3Multiplier      = 1.070
	StopLossMultiplier = 0.99

	TP1Horizon = "short, 1–4h"
	TP2Horizon = "swing, 4–12h"
	TP3Horizon = "long, 1–3 days"
)

// Annotate fills the derived trade-plan fields of c
func Annotate(c models.Candidate) models.Candidate {
	if c.MA10 != 0 {
		c.NormalizedSlope = c.Slope / c.MA10
	}
	c.BuyPrice = c.CurrentPrice
	c.TP1 = models.TakeProfit{Price: c.CurrentPrice * TP1Multiplier, Horizon: TP1Horizon}
	c.TP2 = models.TakeProfit{Price: c.CurrentPrice * TP2Multiplier, Horizon: TP2Horizon}
	c.TP3 = models.TakeProfit{Price: c.CurrentPrice * TP3Multiplier, Horizon: TP3Horizon}
	c.StopLoss = c.CurrentPrice * StopLossMultiplier
	return c
}

// Rank annotates candidates, orders them by 24h traded value (highest first,
// ties keep input order) and keeps the first topN. The input is not modified.
// The result is never nil.
func Rank(candidates []models.Candidate, topN int) []models.Candidate {
	if topN <= 0 {
		topN = DefaultTopN
	}

	ranked := make([]models.Candidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = Annotate(c)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AccTradePrice24h > ranked[j].AccTradePrice24h
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
