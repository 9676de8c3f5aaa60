package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Trinaxus/TON.BAND/internal/ctxkeys"
	"github.com/Trinaxus/TON.BAND/internal/fileapi"
	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/preview"
	"github.com/Trinaxus/TON.BAND/internal/service"
)

const (
	maxUploadSize   = 1 << 30
	uploadMemory    = 32 << 20
	previewMaxAge   = time.Hour
	defaultGallery  = "default"
	msgMissingParam = "Fehlende Parameter"
)

type GalleryHandler struct {
	galleryService *service.GalleryService
	previews       *preview.Renderer
	corsOrigin     string
	now            func() time.Time
}

func NewGalleryHandler(galleryService *service.GalleryService, previews *preview.Renderer, corsOrigin string) *GalleryHandler {
	return &GalleryHandler{
		galleryService: galleryService,
		previews:       previews,
		corsOrigin:     corsOrigin,
		now:            time.Now,
	}
}

// List serves the gallery index. Hidden galleries are only requested for a
// verified admin that asks for them.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	isAdmin := ctxkeys.Principal(r.Context()).IsAdmin() && r.URL.Query().Get("is_admin") == "true"

	listing, err := h.galleryService.List(r.Context(), isAdmin)
	if errors.Is(err, service.ErrNoGalleries) {
		writeJSON(w, http.StatusNotFound, envelope{
			"error":   "Keine Galerien gefunden",
			"details": "Die Datei-API hat keine Galerien geliefert",
		})
		return
	}
	if err != nil {
		writeUpstreamError(w, err, "Fehler beim Laden der Galerien")
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Delete handles DELETE /api/galleries?name=year/name.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.deleteGallery(w, r, r.URL.Query().Get("name"))
}

// DeleteByBody handles POST /api/delete-gallery {galleryName}.
func (h *GalleryHandler) DeleteByBody(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GalleryName string `json:"galleryName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	h.deleteGallery(w, r, req.GalleryName)
}

func (h *GalleryHandler) deleteGallery(w http.ResponseWriter, r *http.Request, name string) {
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "Kein Galeriename angegeben")
		return
	}
	ref, err := model.ParseGalleryRef(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Ungültiger Galeriename")
		return
	}
	out, err := h.galleryService.Delete(r.Context(), ref)
	if err != nil {
		writeUpstreamError(w, err, "Fehler beim Löschen der Galerie")
		return
	}
	passThrough(w, out)
}

func (h *GalleryHandler) Meta(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref, err := model.ParseGalleryRef(q.Get("year") + "/" + q.Get("gallery"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgMissingParam)
		return
	}
	meta := h.galleryService.Meta(r.Context(), ref, ctxkeys.Principal(r.Context()).IsAdmin())
	writeJSON(w, http.StatusOK, meta)
}

func (h *GalleryHandler) SetMeta(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year    string            `json:"year"`
		Gallery string            `json:"gallery"`
		Meta    model.GalleryMeta `json:"meta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	ref, err := model.ParseGalleryRef(req.Year + "/" + req.Gallery)
	if err != nil || req.Meta == nil {
		writeError(w, http.StatusBadRequest, msgMissingParam)
		return
	}
	out, err := h.galleryService.SetMeta(r.Context(), ref, req.Meta)
	if err != nil {
		writeUpstreamError(w, err, "Fehler beim Speichern der Metadaten")
		return
	}
	passThrough(w, out)
}

type galleryPasswordRequest struct {
	Gallery  string `json:"gallery"`
	Password string `json:"password"`
}

// VerifyPassword passes the password check through. An empty password only
// asks for the access policy.
func (h *GalleryHandler) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	var req galleryPasswordRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Gallery) == "" {
		writeJSON(w, http.StatusBadRequest, envelope{"success": false, "message": "Galerie muss angegeben werden"})
		return
	}
	res, err := h.galleryService.VerifyPassword(r.Context(), strings.TrimSpace(req.Gallery), req.Password)
	if err != nil {
		slog.Error("gallery password check failed", "gallery", req.Gallery, "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{
			"success": false,
			"message": "Fehler bei der Passwortüberprüfung",
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *GalleryHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req galleryPasswordRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Gallery) == "" {
		writeJSON(w, http.StatusBadRequest, envelope{"success": false, "message": "Galerie muss angegeben werden"})
		return
	}
	res, err := h.galleryService.SetPassword(r.Context(), strings.TrimSpace(req.Gallery), req.Password)
	if err != nil {
		slog.Error("failed to set gallery password", "gallery", req.Gallery, "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{
			"success": false,
			"message": "Fehler beim Setzen des Passworts",
			"error":   err.Error(),
		})
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, envelope{"success": false, "message": res.Message})
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Passwort erfolgreich gesetzt"})
}

func (h *GalleryHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year     string `json:"year"`
		Gallery  string `json:"gallery"`
		Filename string `json:"filename"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	ref, err := model.ParseGalleryRef(req.Year + "/" + req.Gallery)
	filename := strings.TrimSpace(req.Filename)
	if err != nil || filename == "" {
		writeError(w, http.StatusBadRequest, msgMissingParam)
		return
	}
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		writeError(w, http.StatusBadRequest, "Ungültiger Dateiname")
		return
	}
	out, err := h.galleryService.DeleteImage(r.Context(), ref, filename)
	if err != nil {
		writeUpstreamError(w, err, "Fehler beim Löschen des Bildes")
		return
	}
	passThrough(w, out)
}

// UploadOptions answers the CORS preflight of the upload form.
func (h *GalleryHandler) UploadOptions(w http.ResponseWriter, r *http.Request) {
	h.cors(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request) {
	h.cors(w)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{"success": false, "error": "Keine Datei im Request gefunden"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeJSON(w, http.StatusBadRequest, envelope{"success": false, "error": "Keine Datei im Request gefunden"})
		return
	}

	year := strings.TrimSpace(r.FormValue("year"))
	if year == "" {
		year = strconv.Itoa(h.now().Year())
	}
	name := strings.TrimSpace(r.FormValue("gallery"))
	if name == "" {
		name = defaultGallery
	}
	ref, err := model.ParseGalleryRef(year + "/" + name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{"success": false, "error": "Ungültiger Galeriename"})
		return
	}

	res, err := h.galleryService.Upload(r.Context(), ref, files[0])
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			writeJSON(w, http.StatusBadRequest, envelope{"success": false, "error": msg})
			return
		}
		var apiErr *fileapi.Error
		if errors.As(err, &apiErr) {
			slog.Warn("upload rejected by file api", "status", apiErr.Status, "gallery", ref.String())
			writeJSON(w, upstreamStatus(apiErr.Status), envelope{
				"success": false,
				"error":   fmt.Sprintf("API-Fehler: %d", apiErr.Status),
				"details": rawDetails(apiErr.Body),
			})
			return
		}
		slog.Error("upload failed", "gallery", ref.String(), "error", err)
		writeJSON(w, http.StatusBadGateway, envelope{"success": false, "error": "Upload fehlgeschlagen", "details": err.Error()})
		return
	}

	if res.JSON == nil {
		writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Upload erfolgreich", "rawResponse": res.Raw})
		return
	}
	writeJSON(w, res.Status, res.JSON)
}

func (h *GalleryHandler) cors(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", h.corsOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-TOKEN")
}

func (h *GalleryHandler) FileOperation(w http.ResponseWriter, r *http.Request) {
	var in service.FileOpInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	out, err := h.galleryService.FileOperation(r.Context(), in)
	if err != nil {
		if msg, ok := validationMessage(err); ok {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if errors.Is(err, service.ErrUnknownOperation) {
			writeError(w, http.StatusBadRequest, "Unbekannte Operation: "+in.Operation)
			return
		}
		writeUpstreamError(w, err, "Dateioperation fehlgeschlagen")
		return
	}
	passThrough(w, out)
}

// GalleryFiles lists one gallery with its metadata for the file manager.
func (h *GalleryHandler) GalleryFiles(w http.ResponseWriter, r *http.Request) {
	ref, err := model.ParseGalleryRef(r.URL.Query().Get("gallery"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgMissingParam)
		return
	}
	gallery, err := h.galleryService.Gallery(r.Context(), ref)
	if errors.Is(err, service.ErrGalleryNotFound) {
		writeError(w, http.StatusNotFound, "Galerie nicht gefunden")
		return
	}
	if err != nil {
		writeUpstreamError(w, err, "Fehler beim Laden der Galerie")
		return
	}
	images := gallery.Items
	if images == nil {
		images = []model.MediaItem{}
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":     true,
		"galleryName": ref.String(),
		"images":      images,
		"metadata":    gallery.Meta,
	})
}

// Preview serves the blurred thumbnail shown behind a gallery's challenge.
func (h *GalleryHandler) Preview(w http.ResponseWriter, r *http.Request) {
	ref, err := model.ParseGalleryRef(r.URL.Query().Get("gallery"))
	if err != nil {
		writeError(w, http.StatusBadRequest, msgMissingParam)
		return
	}
	item, err := h.galleryService.PreviewSource(r.Context(), ref)
	if errors.Is(err, service.ErrGalleryNotFound) || errors.Is(err, service.ErrNoImage) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeUpstreamError(w, err, "Vorschau nicht verfügbar")
		return
	}

	img, err := h.previews.Render(r.Context(), string(item))
	if err != nil {
		slog.Warn("preview render failed", "gallery", ref.String(), "error", err)
		if errors.Is(err, preview.ErrNotImage) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusBadGateway, "Vorschau nicht verfügbar")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(previewMaxAge.Seconds())))
	w.Header().Set("ETag", img.ETag)
	if r.Header.Get("If-None-Match") == img.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Write(img.Data)
}

// passThrough relays a file host JSON answer, or a bare success when it sent none.
func passThrough(w http.ResponseWriter, out json.RawMessage) {
	if len(out) == 0 {
		writeJSON(w, http.StatusOK, envelope{"success": true})
		return
	}
	writeJSON(w, http.StatusOK, out)
}
