package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/repository"
	"github.com/Trinaxus/TON.BAND/internal/slug"
	"github.com/Trinaxus/TON.BAND/internal/validation"
)

var (
	ErrPortfolioFieldsRequired = errors.New("gallery and url are required")
	ErrSyncFieldsRequired      = errors.New("gallery name and images are required")
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// categoryKeywords are checked in order against the lower-cased gallery name.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Portrait", []string{"portrait", "shooting"}},
	{"Landschaft", []string{"landschaft", "natur"}},
	{"Architektur", []string{"architektur", "gebäude"}},
	{"Event", []string{"event", "veranstaltung"}},
	{"Kunst", []string{"kunst", "art"}},
	{"Reise", []string{"reise", "italien", "urlaub"}},
}

type PortfolioInput struct {
	Gallery  string `json:"gallery"`
	URL      string `json:"url"`
	Category string `json:"category"`
	Year     string `json:"year"`
}

type SyncInput struct {
	GalleryName string   `json:"galleryName"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Year        string   `json:"year"`
}

type SyncResult struct {
	Gallery string `json:"gallery"`
	Action  string `json:"action"`
	ID      int    `json:"id"`
}

type SyncError struct {
	Gallery string `json:"gallery"`
	Error   string `json:"error"`
}

type SyncReport struct {
	Results []SyncResult `json:"results"`
	Errors  []SyncError  `json:"errors"`
}

type PortfolioService struct {
	portfolioRepository repository.PortfolioRepository
	galleryService      *GalleryService
	now                 func() time.Time
}

func NewPortfolioService(portfolioRepository repository.PortfolioRepository, galleryService *GalleryService) *PortfolioService {
	return &PortfolioService{
		portfolioRepository: portfolioRepository,
		galleryService:      galleryService,
		now:                 time.Now,
	}
}

func (s *PortfolioService) List(ctx context.Context) ([]*model.PortfolioEntry, error) {
	return s.portfolioRepository.All(ctx)
}

func (s *PortfolioService) Add(ctx context.Context, in PortfolioInput) (*model.PortfolioEntry, error) {
	in.Gallery = strings.TrimSpace(in.Gallery)
	in.URL = strings.TrimSpace(in.URL)
	if in.Gallery == "" || in.URL == "" {
		return nil, ErrPortfolioFieldsRequired
	}
	if err := validation.ValidateURL(in.URL); err != nil {
		return nil, invalid(err)
	}

	entry := &model.PortfolioEntry{
		Gallery:  in.Gallery,
		URL:      in.URL,
		Category: firstNonEmpty(in.Category, ExtractCategory(in.Gallery)),
		Year:     firstNonEmpty(in.Year, s.ExtractYear(in.Gallery)),
	}
	if err := s.portfolioRepository.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to add portfolio entry: %w", err)
	}
	slog.Info("portfolio entry added", "id", entry.ID, "gallery", entry.Gallery)
	return entry, nil
}

// SyncGallery upserts the entry for one gallery. created reports an insert.
func (s *PortfolioService) SyncGallery(ctx context.Context, in SyncInput) (entry *model.PortfolioEntry, created bool, err error) {
	in.GalleryName = strings.TrimSpace(in.GalleryName)
	cover := ""
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			cover = img
			break
		}
	}
	if in.GalleryName == "" || cover == "" {
		return nil, false, ErrSyncFieldsRequired
	}
	if !strings.Contains(cover, "://") {
		cover = "https://" + strings.TrimPrefix(cover, "//")
	}

	return s.upsert(ctx, &model.PortfolioEntry{
		Gallery:  in.GalleryName,
		URL:      cover,
		Category: firstNonEmpty(in.Category, ExtractCategory(in.GalleryName)),
		Year:     firstNonEmpty(in.Year, s.ExtractYear(in.GalleryName)),
	})
}

func (s *PortfolioService) upsert(ctx context.Context, want *model.PortfolioEntry) (*model.PortfolioEntry, bool, error) {
	existing, err := s.portfolioRepository.ByGallery(ctx, want.Gallery)
	switch {
	case errors.Is(err, repository.ErrPortfolioNotFound):
		if err := s.portfolioRepository.Create(ctx, want); err != nil {
			return nil, false, fmt.Errorf("failed to create portfolio entry: %w", err)
		}
		return want, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to look up portfolio entry: %w", err)
	}

	want.ID = existing.ID
	if err := s.portfolioRepository.Update(ctx, want); err != nil {
		return nil, false, fmt.Errorf("failed to update portfolio entry: %w", err)
	}
	return want, false, nil
}

// SyncAll upserts an entry for every gallery that has an image. Failures are
// collected per gallery.
func (s *PortfolioService) SyncAll(ctx context.Context) (*SyncReport, error) {
	listing, err := s.galleryService.List(ctx, true)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(listing.Galleries))
	for key := range listing.Galleries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	report := &SyncReport{Results: []SyncResult{}, Errors: []SyncError{}}
	for _, key := range keys {
		var images []string
		for _, u := range listing.Galleries[key] {
			if !model.MediaItem(u).IsVideo() {
				images = append(images, u)
			}
		}
		if len(images) == 0 {
			report.Errors = append(report.Errors, SyncError{Gallery: key, Error: "Keine Bilder gefunden"})
			continue
		}

		entry, created, err := s.SyncGallery(ctx, SyncInput{GalleryName: key, Images: images})
		if err != nil {
			slog.Warn("portfolio sync failed", "gallery", key, "error", err)
			report.Errors = append(report.Errors, SyncError{Gallery: key, Error: err.Error()})
			continue
		}
		action := "updated"
		if created {
			action = "created"
		}
		report.Results = append(report.Results, SyncResult{Gallery: key, Action: action, ID: entry.ID})
	}

	slog.Info("portfolio sync finished", "synced", len(report.Results), "failed", len(report.Errors))
	return report, nil
}

// ExtractYear takes the first 19xx/20xx in the name, then a "year/" prefix,
// then the current year.
func (s *PortfolioService) ExtractYear(name string) string {
	if m := yearPattern.FindString(name); m != "" {
		return m
	}
	if prefix, _, ok := strings.Cut(name, "/"); ok {
		if _, err := strconv.Atoi(strings.TrimSpace(prefix)); err == nil {
			return strings.TrimSpace(prefix)
		}
	}
	return strconv.Itoa(s.now().Year())
}

// ExtractCategory derives a category from keywords in the gallery name, then
// from the part after " - ", and falls back to Sonstiges.
func ExtractCategory(name string) string {
	_, base, ok := strings.Cut(name, "/")
	if !ok {
		base = name
	}
	lower := strings.ToLower(base)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.category
			}
		}
	}
	if _, suffix, ok := strings.Cut(base, " - "); ok && strings.TrimSpace(suffix) != "" {
		return slug.Title(suffix)
	}
	return "Sonstiges"
}
