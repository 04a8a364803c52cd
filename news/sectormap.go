package news

import "strings"

// sectorEntry names a symbol's primary company and sector, used both to
// build the RelevanceFilter's keyword table and to seed the mock collector's
// synthetic headlines.
type sectorEntry struct {
	Company string
	Sector  string
	Aliases []string
}

// knownSymbols is a small static map of well-known tickers. A symbol not
// present here still gets a reasonable default keyword set (its own ticker
// plus a generic "stock"/"shares" pair) via KeywordsFor, so a new
// ticker never produces an empty keyword table.
var knownSymbols = map[string]sectorEntry{
	"AAPL":  {Company: "Apple", Sector: "Technology", Aliases: []string{"iPhone", "Apple Inc"}},
	"MSFT":  {Company: "Microsoft", Sector: "Technology", Aliases: []string{"Azure", "Windows"}},
	"GOOG":  {Company: "Google", Sector: "Technology", Aliases: []string{"Alphabet", "Android"}},
	"GOOGL": {Company: "Google", Sector: "Technology", Aliases: []string{"Alphabet", "Android"}},
	"AMZN":  {Company: "Amazon", Sector: "Consumer Discretionary", Aliases: []string{"AWS", "Amazon.com"}},
	"TSLA":  {Company: "Tesla", Sector: "Consumer Discretionary", Aliases: []string{"Elon Musk", "Model 3"}},
	"META":  {Company: "Meta", Sector: "Technology", Aliases: []string{"Facebook", "Instagram"}},
	"NVDA":  {Company: "Nvidia", Sector: "Technology", Aliases: []string{"GeForce", "CUDA"}},
	"JPM":   {Company: "JPMorgan Chase", Sector: "Financials", Aliases: []string{"JPMorgan", "Chase Bank"}},
	"JNJ":   {Company: "Johnson & Johnson", Sector: "Healthcare", Aliases: []string{"J&J"}},
	"XOM":   {Company: "Exxon Mobil", Sector: "Energy", Aliases: []string{"ExxonMobil", "Exxon"}},
}

// CompanyFor returns the primary company name for symbol, falling back to
// the symbol itself when unknown.
func CompanyFor(symbol string) string {
	if entry, ok := knownSymbols[strings.ToUpper(symbol)]; ok {
		return entry.Company
	}
	return symbol
}

// SectorFor returns the sector name for symbol, falling back to a neutral
// placeholder when unknown.
func SectorFor(symbol string) string {
	if entry, ok := knownSymbols[strings.ToUpper(symbol)]; ok {
		return entry.Sector
	}
	return "Equities"
}

// KeywordsFor returns the primary and secondary keyword lists used by the
// RelevanceFilter: primary is [symbol, company name], secondary is the
// sector name plus any known product/subsidiary aliases. A symbol missing
// from knownSymbols still gets primary=[symbol] and secondary=["stock",
// "shares"] rather than an empty table.
func KeywordsFor(symbol string) (primary, secondary []string) {
	upper := strings.ToUpper(symbol)
	entry, ok := knownSymbols[upper]
	if !ok {
		return []string{symbol}, []string{"stock", "shares"}
	}

	primary = []string{symbol, entry.Company}
	secondary = append([]string{entry.Sector}, entry.Aliases...)
	return primary, secondary
}
