package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/Trinaxus/TON.BAND/internal/ctxkeys"
)

var navLinks = []struct{ href, label string }{
	{"/", "Galerien"},
	{"/blog", "Blog"},
	{"/impressum", "Impressum"},
	{"/datenschutz", "Datenschutz"},
}

// Layout wraps body in the site chrome.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		appName := "TONBAND"
		if cfg := ctxkeys.Config(ctx); cfg != nil && cfg.AppName != "" {
			appName = cfg.AppName
		}
		fullTitle := appName
		if title != "" {
			fullTitle = title + " | " + appName
		}

		h.raw(`<!doctype html><html lang="de"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(fullTitle)
		h.raw(`</title><link rel="stylesheet" href="/assets/css/site.css"></head>`)
		h.raw(`<body class="bg-neutral-950 text-neutral-100"><header class="site-header"><nav>`)
		current := ctxkeys.URLPath(ctx)
		for _, l := range navLinks {
			h.raw(`<a`)
			h.attr("href", l.href)
			h.attr("class", navClass(l.href == current))
			h.raw(`>`)
			h.text(l.label)
			h.raw(`</a>`)
		}
		if p := ctxkeys.Principal(ctx); p != nil {
			h.raw(`<span class="nav-user">`)
			h.text(p.Username)
			h.raw(`</span>`)
		}
		h.raw(`</nav></header><main class="site-main">`)
		h.component(ctx, body)
		h.raw(`</main><footer class="site-footer">`)
		h.text("© " + appName)
		h.raw(`</footer></body></html>`)
	})
}

func navClass(active bool) string {
	if active {
		return cx("px-3 py-2 text-neutral-400", "text-white font-semibold")
	}
	return "px-3 py-2 text-neutral-400"
}

// NotFound is the 404 page.
func NotFound() templ.Component {
	return Layout("Nicht gefunden", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="notice"><h1>Seite nicht gefunden</h1><p>Die angeforderte Seite existiert nicht.</p><a href="/">Zur Startseite</a></section>`)
	}))
}

// Error is a generic failure page; message is shown as is.
func Error(message string) templ.Component {
	return Layout("Fehler", component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="notice"><h1>Fehler</h1><p>`)
		h.text(message)
		h.raw(`</p></section>`)
	}))
}
