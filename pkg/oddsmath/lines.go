package oddsmath

import "github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"

// BestLine is the most favorable quote for one side of a market
type BestLine struct {
	Book  string
	Line  float64 // in side terms (see models.Market.SideLine)
	Price int
}

// FindBestLine scans the book quotes for the number that favors side the most.
// A higher side spread is better for either team; the Under wants the highest
// total and the Over the lowest. Equal numbers go to the better price, then to
// the earlier quote. Moneyline picks compare price only.
func FindBestLine(quotes []models.BookQuote, market models.Market, side models.Side) (BestLine, bool) {
	var (
		best  BestLine
		found bool
	)

	for _, q := range quotes {
		candidate, ok := quoteFor(q, market, side)
		if !ok {
			continue
		}
		if !found || better(candidate, best, market, side) {
			best = candidate
			found = true
		}
	}

	return best, found
}

func quoteFor(q models.BookQuote, market models.Market, side models.Side) (BestLine, bool) {
	price := StandardPrice
	if q.Price != nil && *q.Price != 0 {
		price = *q.Price
	}

	switch market {
	case models.MarketSpread:
		if q.Spread == nil {
			return BestLine{}, false
		}
		return BestLine{Book: q.BookName, Line: market.SideLine(side, *q.Spread), Price: price}, true
	case models.MarketTotal:
		if q.Total == nil {
			return BestLine{}, false
		}
		return BestLine{Book: q.BookName, Line: *q.Total, Price: price}, true
	case models.MarketMoneyline:
		// quoted moneyline is the home price; the away price is not carried on the quote
		if q.Moneyline == nil || side != models.SideHome {
			return BestLine{}, false
		}
		return BestLine{Book: q.BookName, Price: *q.Moneyline}, true
	}
	return BestLine{}, false
}

func better(a, b BestLine, market models.Market, side models.Side) bool {
	if market != models.MarketMoneyline && a.Line != b.Line {
		if market == models.MarketTotal && side == models.SideOver {
			return a.Line < b.Line
		}
		return a.Line > b.Line
	}
	return BetterPrice(a.Price, b.Price)
}
