// README: Radius filter for talent search (haversine, inclusive boundary).
package talent

import (
	"crewtrack/internal/modules/location"
	"crewtrack/internal/types"
)

// WithinRadius keeps candidates whose distance from ref is at most
// radiusMiles, nearest first. Candidates without a position are dropped.
func WithinRadius(ref types.Point, radiusMiles float64, candidates []Electrician) []Match {
	out := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.Position == nil {
			continue
		}
		d := location.DistanceMiles(ref, *c.Position)
		if d <= radiusMiles {
			out = append(out, Match{Electrician: c, DistanceMiles: d})
		}
	}
	location.SortByDistance(out, func(m Match) float64 { return m.DistanceMiles })
	return out
}
