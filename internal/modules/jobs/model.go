// README: Job registry records.
package jobs

import "crewtrack/internal/types"

type Job struct {
	ID       types.ID
	Title    string
	Client   string
	Address  string
	Position *types.Point
	Status   string
}
