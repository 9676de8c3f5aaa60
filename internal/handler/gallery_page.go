package handler

import (
	"errors"
	"net/http"

	"github.com/Trinaxus/TON.BAND/internal/ctxkeys"
	"github.com/Trinaxus/TON.BAND/internal/gate"
	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/service"
	"github.com/Trinaxus/TON.BAND/internal/ui"
	"github.com/Trinaxus/TON.BAND/internal/ui/pages"
)

// GalleryPageHandler renders a gallery behind its access gate. Media URLs are
// only fetched once the gate reached an unlocked state.
type GalleryPageHandler struct {
	galleryService *service.GalleryService
	gate           *gate.Gate
	cookies        *gate.CookieStore
}

func NewGalleryPageHandler(galleryService *service.GalleryService, g *gate.Gate, cookies *gate.CookieStore) *GalleryPageHandler {
	return &GalleryPageHandler{
		galleryService: galleryService,
		gate:           g,
		cookies:        cookies,
	}
}

func (h *GalleryPageHandler) Show(w http.ResponseWriter, r *http.Request) {
	ref, ok := pathRef(r)
	if !ok {
		ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
		return
	}
	principal := ctxkeys.Principal(r.Context())
	d := h.gate.Resolve(r.Context(), ref.String(), principal, h.cookies.For(w, r))
	h.render(w, r, http.StatusOK, ref, d)
}

func (h *GalleryPageHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	ref, ok := pathRef(r)
	if !ok {
		ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
		return
	}

	d, err := h.gate.Unlock(r.Context(), ref.String(), r.PostFormValue("password"), h.cookies.For(w, r))
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, gate.ErrCheckUnavailable) {
			status = http.StatusBadGateway
		}
		h.render(w, r, status, ref, d)
		return
	}
	http.Redirect(w, r, pages.GalleryPath(ref.Year, ref.Name), http.StatusSeeOther)
}

func (h *GalleryPageHandler) render(w http.ResponseWriter, r *http.Request, status int, ref model.GalleryRef, d gate.Decision) {
	view := pages.GalleryView{
		Ref:       ref,
		Decision:  d,
		CSRFToken: ctxkeys.CSRFToken(r.Context()),
		LoggedIn:  ctxkeys.Principal(r.Context()) != nil,
	}
	if d.State.Unlocked() {
		gallery, err := h.galleryService.Gallery(r.Context(), ref)
		if errors.Is(err, service.ErrGalleryNotFound) {
			ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
			return
		}
		if err != nil {
			renderError(w, r, err, "Galerie konnte nicht geladen werden")
			return
		}
		view.Items = gallery.Items
		view.Meta = gallery.Meta
	}
	ui.RenderStatus(w, r, status, pages.Gallery(view))
}

func pathRef(r *http.Request) (model.GalleryRef, bool) {
	ref, err := model.ParseGalleryRef(r.PathValue("year") + "/" + r.PathValue("name"))
	return ref, err == nil
}
