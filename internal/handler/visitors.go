package handler

import (
	"net/http"

	"github.com/Trinaxus/TON.BAND/internal/service"
)

type VisitorHandler struct {
	visitorService *service.VisitorService
}

func NewVisitorHandler(visitorService *service.VisitorService) *VisitorHandler {
	return &VisitorHandler{visitorService: visitorService}
}

func (h *VisitorHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.visitorService.Stats(r.Context())
	if err != nil {
		writeUpstreamError(w, err, "Besucherstatistik nicht verfügbar")
		return
	}
	noStore(w)
	writeJSON(w, http.StatusOK, stats)
}

// Track records a ping. The body is optional; without a session id a new one
// is issued.
func (h *VisitorHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := decodeJSON(r, &req); err != nil && r.ContentLength > 0 {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	id, stats, err := h.visitorService.Track(r.Context(), req.SessionID)
	if err != nil {
		writeUpstreamError(w, err, "Besuch konnte nicht gezählt werden")
		return
	}
	noStore(w)
	writeJSON(w, http.StatusOK, envelope{
		"sessionId":      id,
		"totalVisits":    stats.TotalVisits,
		"activeVisitors": stats.ActiveVisitors,
	})
}
