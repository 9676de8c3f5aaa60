package pages

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/Trinaxus/TON.BAND/internal/model"
)

func BlogList(posts []*model.BlogPost) templ.Component {
	return Layout("Blog", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<h1>Blog</h1>`)
		if len(posts) == 0 {
			h.raw(`<p class="empty">Noch keine Beiträge.</p>`)
			return
		}
		h.raw(`<ul class="post-list">`)
		for _, p := range posts {
			h.raw(`<li><a`)
			h.attr("href", "/blog/"+p.Slug)
			h.raw(`>`)
			if p.CoverImage != "" {
				h.raw(`<img loading="lazy" alt=""`)
				h.attr("src", p.CoverImage)
				h.raw(`>`)
			}
			h.raw(`<h2>`)
			h.text(p.Title)
			h.raw(`</h2>`)
			postMeta(h, p)
			if p.Excerpt != "" {
				h.raw(`<p>`)
				h.text(p.Excerpt)
				h.raw(`</p>`)
			}
			h.raw(`</a></li>`)
		}
		h.raw(`</ul>`)
	}))
}

// BlogPost renders a post. HTMLContent was produced by the markdown parser
// from admin written content.
func BlogPost(p *model.BlogPost) templ.Component {
	title := p.SEOTitle
	if title == "" {
		title = p.Title
	}
	return Layout(title, component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<article class="post"><h1>`)
		h.text(p.Title)
		h.raw(`</h1>`)
		postMeta(h, p)
		if p.CoverImage != "" {
			h.raw(`<img class="cover" alt=""`)
			h.attr("src", p.CoverImage)
			h.raw(`>`)
		}
		h.raw(`<div class="prose">`)
		h.component(ctx, templ.Raw(p.HTMLContent))
		h.raw(`</div></article>`)
	}))
}

func postMeta(h *htmlWriter, p *model.BlogPost) {
	h.raw(`<p class="post-meta">`)
	if d := p.Date(); !d.IsZero() {
		h.text(d.Format("02.01.2006"))
		h.raw(` · `)
	}
	h.text(fmt.Sprintf("%d Min. Lesezeit", max(p.ReadTime, 1)))
	if p.Author != "" {
		h.raw(` · `)
		h.text(p.Author)
	}
	h.raw(`</p>`)
}
