// README: Electrician day rates and the working-day assumption used for estimates.
package pricing

import (
	"time"

	"crewtrack/internal/types"
)

// WorkingDayHours converts a day rate into an hourly rate. It is a fixed
// assumption and is not derived from the booking slot table.
const WorkingDayHours = 8

const DefaultCurrency = "GBP"

type Rate struct {
	ElectricianID types.ID
	DayRate       types.Money
	UpdatedAt     time.Time
}
