// README: Check-in coordinate fallback chain: device, then job site, then the configured default.
package checkin

import (
	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/types"
)

// Source names the step of the fallback chain that produced a coordinate.
type Source string

const (
	SourceDevice  Source = "device"
	SourceJob     Source = "job"
	SourceDefault Source = "default"
)

// GeoResult is the outcome of a device geolocation attempt. A non-nil Err
// means the device step is unavailable, whatever the reason.
type GeoResult struct {
	Point types.Point
	Err   error
}

// ResolveCoordinates picks the first available coordinate. job may be nil.
func ResolveCoordinates(job *jobs.Job, geo GeoResult, fallback types.Point) (types.Point, Source) {
	if geo.Err == nil {
		return geo.Point, SourceDevice
	}
	if job != nil && job.Position != nil {
		return *job.Position, SourceJob
	}
	return fallback, SourceDefault
}
