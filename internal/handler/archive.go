package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Trinaxus/TON.BAND/internal/archive"
)

type ArchiveHandler struct {
	archiveService *archive.Service
}

func NewArchiveHandler(archiveService *archive.Service) *ArchiveHandler {
	return &ArchiveHandler{archiveService: archiveService}
}

type downloadRequest struct {
	GalleryName string   `json:"galleryName"`
	ImageURLs   []string `json:"imageUrls"`
}

// Download streams the requested media as one zip. Once the first byte is out
// an error can only abort the connection.
func (h *ArchiveHandler) Download(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Error("invalid archive request", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{"error": "ZIP-Erstellung fehlgeschlagen", "details": err.Error()})
		return
	}
	if err := h.archiveService.Validate(req.GalleryName, req.ImageURLs); err != nil {
		if errors.Is(err, archive.ErrInvalidJob) {
			writeJSON(w, http.StatusBadRequest, envelope{"error": "Ungültige Parameter", "details": err.Error()})
			return
		}
		writeError(w, http.StatusInternalServerError, "ZIP-Erstellung fehlgeschlagen")
		return
	}

	name := archive.ArchiveName(req.GalleryName)
	header := w.Header()
	header.Set("Content-Type", "application/zip")
	header.Set("Content-Disposition", `attachment; filename="`+name+`.zip"`)
	header.Set("Cache-Control", "no-store")
	header.Set("Trailer", "X-Archive-Entries, X-Archive-Failed")
	w.WriteHeader(http.StatusOK)

	res, err := h.archiveService.Export(r.Context(), w, req.GalleryName, req.ImageURLs)
	if err != nil {
		slog.Error("archive export aborted", "gallery", req.GalleryName, "entries", len(res.Entries), "error", err)
		panic(http.ErrAbortHandler)
	}

	header.Set("X-Archive-Entries", strconv.Itoa(len(res.Entries)))
	header.Set("X-Archive-Failed", strconv.Itoa(len(res.Failed)))
	slog.Info("archive exported", "gallery", req.GalleryName, "entries", len(res.Entries), "failed", len(res.Failed))
}
