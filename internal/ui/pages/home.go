package pages

import (
	"context"
	"net/url"

	"github.com/a-h/templ"

	"github.com/Trinaxus/TON.BAND/internal/service"
)

// Home lists the public galleries, newest year first.
func Home(galleries []service.PublicGallery) templ.Component {
	return Layout("", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<h1>Galerien</h1>`)
		if len(galleries) == 0 {
			h.raw(`<p class="empty">Keine öffentlichen Galerien vorhanden.</p>`)
			return
		}

		year := ""
		for _, g := range galleries {
			if g.Ref.Year != year {
				if year != "" {
					h.raw(`</div>`)
				}
				year = g.Ref.Year
				h.raw(`<h2 class="year">`)
				h.text(year)
				h.raw(`</h2><div class="gallery-grid">`)
			}
			h.raw(`<a class="gallery-card"`)
			h.attr("href", GalleryPath(g.Ref.Year, g.Ref.Name))
			h.raw(`><img loading="lazy"`)
			h.attr("src", string(g.Cover))
			h.attr("alt", g.Ref.Name)
			h.raw(`><span>`)
			h.text(g.Ref.Name)
			h.raw(`</span></a>`)
		}
		h.raw(`</div>`)
	}))
}

// GalleryPath is the public page of a gallery.
func GalleryPath(year, name string) string {
	return "/galerie/" + url.PathEscape(year) + "/" + url.PathEscape(name)
}
