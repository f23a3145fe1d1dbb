// README: Electricians offered on the talent map and their distance matches.
package talent

import "crewtrack/internal/types"

type Electrician struct {
	ID       types.ID     `json:"id"`
	Name     string       `json:"name"`
	Trade    string       `json:"trade"`
	Position *types.Point `json:"position"`
	DayRate  types.Money  `json:"dayRate"`
}

// Match is an electrician within the search radius.
type Match struct {
	Electrician   Electrician `json:"electrician"`
	DistanceMiles float64     `json:"distanceMiles"`
}

type SearchQuery struct {
	Reference   types.Point
	RadiusMiles float64
}

type SearchResult struct {
	Reference   types.Point `json:"reference"`
	RadiusMiles float64     `json:"radiusMiles"`
	Count       int         `json:"count"`
	Matches     []Match     `json:"matches"`
}

// IndexVersion fingerprints the electricians that have a position. Two
// equal versions mean the GEO index built from one still matches the other.
type IndexVersion struct {
	Located int64
	Digest  string
}
