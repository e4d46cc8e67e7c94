package hotness

// moexIndexTickers maps a news item's primary sector tag to the MOEX sector
// index used as the market-reaction proxy for that sector.
var moexIndexTickers = map[string]string{
	"Информационные технологии": "MOEXIT",
	"Металлы и добыча":          "MOEXMM",
	"Нефть и газ":               "MOEXOG",
	"Потребительский сектор":    "MOEXCN",
	"Строительные компании":     "MOEXRE",
	"Телекоммуникации":          "MOEXTL",
	"Транспорт":                 "MOEXTN",
	"Финансы":                   "MOEXFN",
	"Электроэнергетика":         "MOEXEU",
	"Химия и нефтехимия":        "MOEXCH",
}

// SectorResolver maps sector tags to index tickers. A miss is a normal
// outcome that makes the scorer abstain; it is never an error.
type SectorResolver struct {
	tickers map[string]string
}

// NewSectorResolver returns a resolver over the default MOEX sector indices.
func NewSectorResolver() *SectorResolver {
	return &SectorResolver{tickers: moexIndexTickers}
}

// Resolve returns the index ticker for a sector tag.
func (r *SectorResolver) Resolve(tag string) (string, bool) {
	if tag == "" {
		return "", false
	}
	ticker, ok := r.tickers[tag]
	return ticker, ok
}
