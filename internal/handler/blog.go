package handler

import (
	"errors"
	"net/http"

	"github.com/Trinaxus/TON.BAND/internal/repository"
	"github.com/Trinaxus/TON.BAND/internal/service"
	"github.com/Trinaxus/TON.BAND/internal/ui"
	"github.com/Trinaxus/TON.BAND/internal/ui/pages"
)

const maxCoverUpload = 10 << 20

type BlogHandler struct {
	blogService *service.BlogService
	fileService *service.FileService
}

func NewBlogHandler(blogService *service.BlogService, fileService *service.FileService) *BlogHandler {
	return &BlogHandler{
		blogService: blogService,
		fileService: fileService,
	}
}

func (h *BlogHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blogService.Posts(r.Context())
	if err != nil {
		renderError(w, r, err, "Blog konnte nicht geladen werden")
		return
	}

	ui.Render(w, r, pages.BlogList(posts))
}

func (h *BlogHandler) ShowPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.blogService.Post(r.Context(), r.PathValue("slug"))
	if errors.Is(err, repository.ErrPostNotFound) {
		ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
		return
	}
	if err != nil {
		renderError(w, r, err, "Beitrag konnte nicht geladen werden")
		return
	}

	ui.Render(w, r, pages.BlogPost(post))
}

// blogPostRequest is the editor payload; id is only read on update and delete.
type blogPostRequest struct {
	ID flexID `json:"id"`
	service.BlogInput
}

func (h *BlogHandler) AdminPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blogService.All(r.Context())
	if err != nil {
		writeUpstreamError(w, err, "Blogbeiträge konnten nicht geladen werden")
		return
	}
	writeJSON(w, http.StatusOK, envelope{"posts": posts})
}

func (h *BlogHandler) AdminPost(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "ID ist erforderlich")
		return
	}
	id, ok := intParam(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "Ungültige ID")
		return
	}
	post, err := h.blogService.ByID(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"post": post})
}

func (h *BlogHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req blogPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	post, err := h.blogService.Create(r.Context(), req.BlogInput)
	if errors.Is(err, service.ErrTitleContentRequired) {
		writeError(w, http.StatusBadRequest, "Titel und Inhalt sind erforderlich.")
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "post": post})
}

func (h *BlogHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req blogPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON.Error())
		return
	}
	id, ok := intParam(string(req.ID))
	if !ok {
		writeError(w, http.StatusBadRequest, "ID, Titel und Inhalt sind erforderlich.")
		return
	}
	post, err := h.blogService.Update(r.Context(), id, req.BlogInput)
	if errors.Is(err, service.ErrTitleContentRequired) {
		writeError(w, http.StatusBadRequest, "ID, Titel und Inhalt sind erforderlich.")
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "post": post})
}

// DeletePost takes the id from the body or, for bodyless requests, from ?id=.
func (h *BlogHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" && r.ContentLength != 0 {
		var req blogPostRequest
		if err := decodeJSON(r, &req); err == nil {
			raw = string(req.ID)
		}
	}
	id, ok := intParam(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "ID ist erforderlich")
		return
	}
	if err := h.blogService.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true})
}

func (h *BlogHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	if !h.fileService.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "Datei-Speicher ist nicht konfiguriert")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverUpload)
	if err := r.ParseMultipartForm(maxCoverUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Keine Datei im Request gefunden")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "Keine Datei im Request gefunden")
		return
	}
	url, err := h.fileService.UploadCover(r.Context(), files[0])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"url": url})
}

func (h *BlogHandler) fail(w http.ResponseWriter, err error) {
	if msg, ok := validationMessage(err); ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	switch {
	case errors.Is(err, repository.ErrPostNotFound):
		writeError(w, http.StatusNotFound, "Beitrag nicht gefunden")
	case errors.Is(err, service.ErrStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, "Datei-Speicher ist nicht konfiguriert")
	default:
		writeUpstreamError(w, err, "Blogoperation fehlgeschlagen")
	}
}
