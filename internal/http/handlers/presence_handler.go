// README: Presence handlers: filtered worker list, counts and manual refresh.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"crewtrack/internal/modules/location"
	"crewtrack/internal/modules/presence"
)

type PresenceSource interface {
	Current(ctx context.Context) presence.Snapshot
	Refresh(ctx context.Context) presence.Snapshot
}

type PresenceHandler struct {
	presence PresenceSource
	now      func() time.Time
}

func NewPresenceHandler(src PresenceSource) *PresenceHandler {
	return &PresenceHandler{presence: src, now: time.Now}
}

type presenceResponse struct {
	Records     []presence.Record `json:"records"`
	Counts      presence.Counts   `json:"counts"`
	Total       int               `json:"total"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	LastUpdated string            `json:"lastUpdated"`
	Failures    []string          `json:"failures,omitempty"`
}

// List serves GET /api/presence?q=&status=. status is a comma-separated list
// of codes or labels. Counts always cover the unfiltered list.
func (h *PresenceHandler) List(c *gin.Context) {
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}
	snap := h.presence.Current(c.Request.Context())
	writeJSON(c, http.StatusOK, h.response(snap, presence.Filter(snap.Records, c.Query("q"), statuses)))
}

func (h *PresenceHandler) Refresh(c *gin.Context) {
	snap := h.presence.Refresh(c.Request.Context())
	writeJSON(c, http.StatusOK, h.response(snap, snap.Records))
}

func (h *PresenceHandler) response(snap presence.Snapshot, records []presence.Record) presenceResponse {
	if records == nil {
		records = []presence.Record{}
	}
	return presenceResponse{
		Records:     records,
		Counts:      snap.Counts,
		Total:       len(snap.Records),
		UpdatedAt:   snap.UpdatedAt,
		LastUpdated: presence.LastUpdated(h.now(), snap.UpdatedAt),
		Failures:    snap.Failures,
	}
}

func parseStatuses(raw string) ([]location.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []location.Status
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		s, err := location.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
