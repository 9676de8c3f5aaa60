package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Trinaxus/TON.BAND/internal/service"
)

type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.portfolioService.List(r.Context())
	if err != nil {
		writeUpstreamError(w, err, "Portfolio konnte nicht geladen werden")
		return
	}
	writeJSON(w, http.StatusOK, envelope{"count": len(items), "items": items})
}

func (h *PortfolioHandler) Add(w http.ResponseWriter, r *http.Request) {
	var in service.PortfolioInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	entry, err := h.portfolioService.Add(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "item": entry})
}

func (h *PortfolioHandler) SyncGallery(w http.ResponseWriter, r *http.Request) {
	var in service.SyncInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	entry, created, err := h.portfolioService.SyncGallery(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	status, action := http.StatusOK, "updated"
	if created {
		status, action = http.StatusCreated, "created"
	}
	writeJSON(w, status, envelope{"success": true, "action": action, "item": entry})
}

func (h *PortfolioHandler) SyncAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.portfolioService.SyncAll(r.Context())
	if errors.Is(err, service.ErrNoGalleries) {
		writeError(w, http.StatusNotFound, "Keine Galerien gefunden")
		return
	}
	if err != nil {
		writeUpstreamError(w, err, "Synchronisierung fehlgeschlagen")
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": syncMessage(report),
		"results": report.Results,
		"errors":  report.Errors,
	})
}

func syncMessage(report *service.SyncReport) string {
	msg := "Synchronisierung abgeschlossen: " + strconv.Itoa(len(report.Results)) + " Galerien synchronisiert"
	if n := len(report.Errors); n > 0 {
		msg += ", " + strconv.Itoa(n) + " Fehler"
	}
	return msg
}

func (h *PortfolioHandler) fail(w http.ResponseWriter, err error) {
	if msg, ok := validationMessage(err); ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	switch {
	case errors.Is(err, service.ErrPortfolioFieldsRequired):
		writeError(w, http.StatusBadRequest, "Galerie und URL sind erforderlich")
	case errors.Is(err, service.ErrSyncFieldsRequired):
		writeError(w, http.StatusBadRequest, "Galeriename und Bilder sind erforderlich")
	default:
		writeUpstreamError(w, err, "Portfolio-Operation fehlgeschlagen")
	}
}
