// README: Check-in/check-out handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crewtrack/internal/http/middleware"
	"crewtrack/internal/modules/checkin"
	"crewtrack/internal/modules/location"
	"crewtrack/internal/modules/presence"
	"crewtrack/internal/types"
)

type CheckInService interface {
	CheckIn(ctx context.Context, req checkin.Request) (*checkin.Result, error)
	CheckOut(ctx context.Context, req checkin.CheckOutRequest) (*location.Record, error)
}

type CheckInHandler struct {
	checkin  CheckInService
	presence PresenceSource
}

func NewCheckInHandler(svc CheckInService, src PresenceSource) *CheckInHandler {
	return &CheckInHandler{checkin: svc, presence: src}
}

type checkInReq struct {
	EmployeeID string `json:"employeeId"`
	JobID      string `json:"jobId"`
}

type checkOutReq struct {
	EmployeeID string `json:"employeeId"`
}

type recordResponse struct {
	LocationID   types.ID        `json:"locationId"`
	EmployeeID   types.ID        `json:"employeeId"`
	JobID        *types.ID       `json:"jobId"`
	Status       location.Status `json:"status"`
	Lat          float64         `json:"lat"`
	Lng          float64         `json:"lng"`
	CheckedInAt  string          `json:"checkedInAt"`
	CheckedOutAt *string         `json:"checkedOutAt"`
	Source       checkin.Source  `json:"source,omitempty"`
}

// Create serves POST /api/checkins. On failure the submitted form is echoed
// back so the client can retry with the same selection.
func (h *CheckInHandler) Create(c *gin.Context) {
	var req checkInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation", "invalid json")
		return
	}
	form := checkin.Form{EmployeeID: types.ID(req.EmployeeID), JobID: types.ID(req.JobID), Open: true}
	actor := callerID(c)

	res, err := form.Submit(c.Request.Context(), h.checkin, h.employeeName(c.Request.Context(), form.EmployeeID), actor)
	if err != nil {
		writeCheckInError(c, err, &form)
		return
	}
	h.refresh(c)
	out := toRecordResponse(res.Record)
	out.Source = res.Source
	writeJSON(c, http.StatusCreated, out)
}

// CheckOut serves POST /api/checkins/:locationId/checkout.
func (h *CheckInHandler) CheckOut(c *gin.Context) {
	var req checkOutReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "validation", "invalid json")
			return
		}
	}
	employeeID := types.ID(req.EmployeeID)
	rec, err := h.checkin.CheckOut(c.Request.Context(), checkin.CheckOutRequest{
		LocationID:   types.ID(c.Param("locationId")),
		EmployeeID:   employeeID,
		EmployeeName: h.employeeName(c.Request.Context(), employeeID),
		ActorID:      callerID(c),
	})
	if err != nil {
		writeCheckInError(c, err, nil)
		return
	}
	h.refresh(c)
	writeJSON(c, http.StatusOK, toRecordResponse(rec))
}

// refresh rebuilds the presence list in the background so the response is
// not held up by three collection fetches.
func (h *CheckInHandler) refresh(c *gin.Context) {
	if h.presence == nil {
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	go h.presence.Refresh(ctx)
}

func (h *CheckInHandler) employeeName(ctx context.Context, id types.ID) string {
	if h.presence == nil || id == "" {
		return ""
	}
	for _, r := range h.presence.Current(ctx).Records {
		if r.EmployeeID == id {
			return r.Name
		}
	}
	return ""
}

func callerID(c *gin.Context) *types.ID {
	uid := middleware.CallerUID(c)
	if uid == "" {
		return nil
	}
	id := types.ID(uid)
	return &id
}

func toRecordResponse(r *location.Record) recordResponse {
	out := recordResponse{
		LocationID:  r.ID,
		EmployeeID:  r.EmployeeID,
		JobID:       r.JobID,
		Status:      r.Status,
		Lat:         r.Position.Lat,
		Lng:         r.Position.Lng,
		CheckedInAt: r.CheckedInAt.UTC().Format(time.RFC3339),
	}
	if r.CheckedOutAt != nil {
		at := r.CheckedOutAt.UTC().Format(time.RFC3339)
		out.CheckedOutAt = &at
	}
	return out
}

var _ PresenceSource = (*presence.Refresher)(nil)
