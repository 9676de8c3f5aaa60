package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/Trinaxus/TON.BAND/internal/service"
)

func Legal(page *service.LegalPage) templ.Component {
	return Layout(page.Title, component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<article class="legal"><h1>`)
		h.text(page.Title)
		h.raw(`</h1><p class="post-meta">Stand: `)
		h.text(page.LastUpdated)
		h.raw(`</p><div class="prose">`)
		h.component(ctx, templ.Raw(page.Content))
		h.raw(`</div></article>`)
	}))
}
