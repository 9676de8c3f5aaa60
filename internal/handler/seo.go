package handler

import (
	"net/http"

	"github.com/Trinaxus/TON.BAND/internal/service"
)

type SEOHandler struct {
	sitemapService *service.SitemapService
}

func NewSEOHandler(blogService *service.BlogService, baseURL string) *SEOHandler {
	return &SEOHandler{
		sitemapService: service.NewSitemapService(blogService, baseURL),
	}
}

func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(h.sitemapService.Robots())
}

// Sitemap is generated per request from the published posts.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	sitemap, err := h.sitemapService.GenerateSitemap(r.Context())
	if err != nil {
		http.Error(w, "Failed to generate sitemap", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write(sitemap)
}
