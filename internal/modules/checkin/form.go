// README: Check-in form state: cleared and closed on success, kept on failure.
package checkin

import (
	"context"
	"fmt"

	"crewtrack/internal/types"
)

type CheckInner interface {
	CheckIn(ctx context.Context, req Request) (*Result, error)
}

type Form struct {
	EmployeeID types.ID `json:"employeeId"`
	JobID      types.ID `json:"jobId"`
	Open       bool     `json:"open"`
}

// Ready reports whether the submit control should be enabled.
func (f *Form) Ready() bool {
	return f.EmployeeID != "" && f.JobID != ""
}

// Submit checks the selected worker in. On success the form is cleared and
// closed; on failure it keeps its values and stays open for a retry.
func (f *Form) Submit(ctx context.Context, svc CheckInner, name string, actor *types.ID) (*Result, error) {
	if !f.Ready() {
		return nil, fmt.Errorf("%w: employee and job are required", ErrValidation)
	}
	res, err := svc.CheckIn(ctx, Request{EmployeeID: f.EmployeeID, EmployeeName: name, JobID: f.JobID, ActorID: actor})
	if err != nil {
		return nil, err
	}
	*f = Form{}
	return res, nil
}
