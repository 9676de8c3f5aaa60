package handler

import (
	"log/slog"
	"net/http"

	"github.com/Trinaxus/TON.BAND/internal/service"
	"github.com/Trinaxus/TON.BAND/internal/ui"
	"github.com/Trinaxus/TON.BAND/internal/ui/pages"
)

type LegalHandler struct {
	legalService *service.LegalService
}

func NewLegalHandler(legalService *service.LegalService) *LegalHandler {
	handler := &LegalHandler{
		legalService: legalService,
	}

	// pages may be added to the content dir later
	if err := handler.legalService.LoadPages(); err != nil {
		slog.Warn("failed to load legal pages", "error", err)
	}

	return handler
}

// Page renders the legal page with the given slug.
func (h *LegalHandler) Page(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := h.legalService.Page(slug)
		if err != nil {
			ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
			return
		}

		ui.Render(w, r, pages.Legal(page))
	}
}
