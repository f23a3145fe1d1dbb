// README: Talent map handlers: radius search and the combined operator map.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"crewtrack/internal/modules/jobs"
	"crewtrack/internal/modules/talent"
	"crewtrack/internal/types"
)

type TalentService interface {
	Defaults() talent.SearchQuery
	Search(ctx context.Context, q talent.SearchQuery) (*talent.SearchResult, error)
}

type JobLister interface {
	List(ctx context.Context) ([]jobs.Job, error)
}

type TalentHandler struct {
	talent   TalentService
	presence PresenceSource
	jobs     JobLister
}

func NewTalentHandler(svc TalentService, src PresenceSource, jobList JobLister) *TalentHandler {
	return &TalentHandler{talent: svc, presence: src, jobs: jobList}
}

type mapResponse struct {
	Reference   types.Point     `json:"reference"`
	RadiusMiles float64         `json:"radiusMiles"`
	Count       int             `json:"count"`
	Markers     []talent.Marker `json:"markers"`
	Selected    *talent.Marker  `json:"selected"`
}

// Search serves GET /api/talent?lat=&lng=&radius=. Missing parameters fall
// back to the configured reference point and radius.
func (h *TalentHandler) Search(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	res, err := h.talent.Search(c.Request.Context(), q)
	if err != nil {
		writeTalentError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

// Map serves GET /api/map: workers on site, located jobs and electricians
// within the radius, with ?select= choosing the overlay marker.
func (h *TalentHandler) Map(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	res, err := h.talent.Search(ctx, q)
	if err != nil {
		writeTalentError(c, err)
		return
	}
	jobList, err := h.jobs.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("map without job markers")
		jobList = nil
	}
	m := talent.BuildMap(h.presence.Current(ctx).Records, jobList, res.Matches, c.Query("select"))

	out := mapResponse{
		Reference:   res.Reference,
		RadiusMiles: res.RadiusMiles,
		Count:       res.Count,
		Markers:     m.Markers(),
	}
	if out.Markers == nil {
		out.Markers = []talent.Marker{}
	}
	if sel, ok := m.Overlay(); ok {
		out.Selected = &sel
	}
	writeJSON(c, http.StatusOK, out)
}

func (h *TalentHandler) query(c *gin.Context) (talent.SearchQuery, bool) {
	q := h.talent.Defaults()
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"lat", &q.Reference.Lat},
		{"lng", &q.Reference.Lng},
		{"radius", &q.RadiusMiles},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "validation", p.name+" must be a number")
			return talent.SearchQuery{}, false
		}
		*p.dst = v
	}
	return q, true
}
