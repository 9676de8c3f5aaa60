package pages

import (
	"context"
	"net/url"

	"github.com/a-h/templ"

	"github.com/Trinaxus/TON.BAND/internal/gate"
	"github.com/Trinaxus/TON.BAND/internal/model"
)

// GalleryView is one gallery page. Items stay empty unless the decision is
// unlocked.
type GalleryView struct {
	Ref       model.GalleryRef
	Decision  gate.Decision
	Items     []model.MediaItem
	Meta      model.GalleryMeta
	CSRFToken string
	LoggedIn  bool
}

func Gallery(v GalleryView) templ.Component {
	return Layout(v.Ref.Name, component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="gallery"><header><p class="year">`)
		h.text(v.Ref.Year)
		h.raw(`</p><h1>`)
		h.text(v.Ref.Name)
		h.raw(`</h1></header>`)

		if v.Decision.State.Unlocked() {
			mediaGrid(h, v.Items)
		} else {
			challenge(h, v)
		}
		h.raw(`</section>`)
	}))
}

func mediaGrid(h *htmlWriter, items []model.MediaItem) {
	if len(items) == 0 {
		h.raw(`<p class="empty">Diese Galerie ist leer.</p>`)
		return
	}
	h.raw(`<div class="media-grid">`)
	for _, it := range items {
		if it.IsVideo() {
			h.raw(`<video controls preload="metadata"`)
			h.attr("src", string(it))
			h.raw(`></video>`)
			continue
		}
		h.raw(`<a target="_blank"`)
		h.attr("href", string(it))
		h.raw(`><img loading="lazy"`)
		h.attr("src", string(it))
		h.attr("alt", it.FileName())
		h.raw(`></a>`)
	}
	h.raw(`</div>`)
}

// challenge renders the overlay over a blurred preview. Media URLs of the
// gallery are never part of it.
func challenge(h *htmlWriter, v GalleryView) {
	h.raw(`<div class="challenge"><img class="challenge-preview" alt=""`)
	h.attr("src", "/api/gallery-preview?gallery="+url.QueryEscape(v.Ref.String()))
	h.raw(`><div class="challenge-overlay">`)

	switch v.Decision.State {
	case gate.StatePasswordLocked:
		h.raw(`<h2>Passwortgeschützte Galerie</h2>`)
		if v.Decision.Message != "" {
			h.raw(`<p class="error" role="alert">`)
			h.text(v.Decision.Message)
			h.raw(`</p>`)
		}
		h.raw(`<form method="post"`)
		h.attr("action", GalleryPath(v.Ref.Year, v.Ref.Name)+"/unlock")
		h.raw(`><input type="hidden" name="csrf_token"`)
		h.attr("value", v.CSRFToken)
		h.raw(`><label>Passwort <input type="password" name="password" autocomplete="current-password" required></label>`)
		h.raw(`<button type="submit">Entsperren</button></form>`)
	case gate.StateInternalLocked:
		h.raw(`<h2>`)
		h.text(gate.MsgAdminsOnly)
		h.raw(`</h2>`)
		if !v.LoggedIn {
			h.raw(`<p>Bitte melde dich mit einem Administrator-Konto an.</p>`)
		}
	default:
		h.raw(`<h2>Kein Zugriff</h2><p>`)
		msg := v.Decision.Message
		if msg == "" {
			msg = gate.MsgGalleryLocked
		}
		h.text(msg)
		h.raw(`</p>`)
	}
	h.raw(`</div></div>`)
}
