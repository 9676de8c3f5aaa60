package handler

import (
	"log/slog"
	"net/http"

	"github.com/Trinaxus/TON.BAND/internal/service"
	"github.com/Trinaxus/TON.BAND/internal/ui"
	"github.com/Trinaxus/TON.BAND/internal/ui/pages"
)

type HomeHandler struct {
	galleryService *service.GalleryService
}

func NewHomeHandler(galleryService *service.GalleryService) *HomeHandler {
	return &HomeHandler{galleryService: galleryService}
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	galleries, err := h.galleryService.Public(r.Context())
	if err != nil {
		renderError(w, r, err, "Galerien konnten nicht geladen werden")
		return
	}
	ui.Render(w, r, pages.Home(galleries))
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
}

func renderError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	slog.Error(msg, "error", err, "path", r.URL.Path)
	ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Error(msg))
}
