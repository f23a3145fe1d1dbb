// README: Booking handlers: availability, estimate, confirm and upcoming bookings.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"crewtrack/internal/modules/booking"
	"crewtrack/internal/types"
)

type BookingService interface {
	Availability(ctx context.Context, electricianID types.ID, date string) (*booking.Availability, error)
	Quote(ctx context.Context, cmd booking.BookCommand) (*booking.Quote, error)
	Book(ctx context.Context, cmd booking.BookCommand) (*booking.Booking, error)
	Upcoming(ctx context.Context, electricianID types.ID) ([]booking.Booking, error)
}

type BookingHandler struct {
	booking BookingService
}

func NewBookingHandler(svc BookingService) *BookingHandler {
	return &BookingHandler{booking: svc}
}

type bookingReq struct {
	ElectricianID string   `json:"electricianId"`
	Date          string   `json:"date"`
	Slots         []string `json:"slots"`
}

func (r bookingReq) command(actor *types.ID) booking.BookCommand {
	return booking.BookCommand{
		ElectricianID: types.ID(r.ElectricianID),
		Date:          r.Date,
		Slots:         r.Slots,
		ActorID:       actor,
	}
}

// Availability serves GET /api/electricians/:id/availability?date=.
func (h *BookingHandler) Availability(c *gin.Context) {
	a, err := h.booking.Availability(c.Request.Context(), types.ID(c.Param("id")), c.Query("date"))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, a)
}

func (h *BookingHandler) Upcoming(c *gin.Context) {
	list, err := h.booking.Upcoming(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if list == nil {
		list = []booking.Booking{}
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) Estimate(c *gin.Context) {
	var req bookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation", "invalid json")
		return
	}
	q, err := h.booking.Quote(c.Request.Context(), req.command(nil))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, q)
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req bookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "validation", "invalid json")
		return
	}
	b, err := h.booking.Book(c.Request.Context(), req.command(callerID(c)))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, b)
}
