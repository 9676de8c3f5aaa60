package service

import (
	"context"
	"encoding/xml"
	"log/slog"
	"strings"
	"time"

	"github.com/Trinaxus/TON.BAND/internal/model"
)

// publicRoutes are the static pages listed in the sitemap.
var publicRoutes = []struct {
	Path       string
	Priority   string
	ChangeFreq string
}{
	{"/", "1.0", "daily"},
	{"/blog", "0.8", "daily"},
	{"/impressum", "0.2", "yearly"},
	{"/datenschutz", "0.2", "yearly"},
}

type SitemapService struct {
	blogService *BlogService
	baseURL     string
	now         func() time.Time
}

func NewSitemapService(blogService *BlogService, baseURL string) *SitemapService {
	return &SitemapService{
		blogService: blogService,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		now:         time.Now,
	}
}

func (s *SitemapService) GenerateSitemap(ctx context.Context) ([]byte, error) {
	sitemap := model.Sitemap{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  s.staticRoutes(),
	}

	blogURLs, err := s.blogURLs(ctx)
	if err != nil {
		// static routes are still served without blog URLs
		slog.Warn("failed to get blog URLs for sitemap", "error", err)
	} else {
		sitemap.URLs = append(sitemap.URLs, blogURLs...)
	}

	output, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}
	return []byte(xml.Header + string(output)), nil
}

// Robots returns robots.txt pointing at the sitemap. The admin and API
// surfaces are excluded.
func (s *SitemapService) Robots() []byte {
	return []byte("User-agent: *\nAllow: /\nDisallow: /api/\nDisallow: /admin\n\nSitemap: " + s.baseURL + "/sitemap.xml\n")
}

func (s *SitemapService) staticRoutes() []model.SitemapURL {
	today := s.now().Format("2006-01-02")
	urls := make([]model.SitemapURL, 0, len(publicRoutes))
	for _, route := range publicRoutes {
		urls = append(urls, model.SitemapURL{
			Loc:        s.baseURL + route.Path,
			LastMod:    today,
			ChangeFreq: route.ChangeFreq,
			Priority:   route.Priority,
		})
	}
	return urls
}

func (s *SitemapService) blogURLs(ctx context.Context) ([]model.SitemapURL, error) {
	posts, err := s.blogService.Posts(ctx)
	if err != nil {
		return nil, err
	}

	urls := make([]model.SitemapURL, 0, len(posts))
	for _, post := range posts {
		lastMod := s.now().Format("2006-01-02")
		if post.UpdatedAt != nil {
			lastMod = post.UpdatedAt.Format("2006-01-02")
		} else if !post.Date().IsZero() {
			lastMod = post.Date().Format("2006-01-02")
		}

		urls = append(urls, model.SitemapURL{
			Loc:        s.baseURL + "/blog/" + post.Slug,
			LastMod:    lastMod,
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}
	return urls, nil
}
