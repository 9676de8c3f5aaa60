package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Trinaxus/TON.BAND/internal/markdown"
	"github.com/Trinaxus/TON.BAND/internal/slug"
)

var ErrPageNotFound = errors.New("page not found")

type LegalPage struct {
	Title       string
	Slug        string
	Content     string
	LastUpdated string
}

// LegalService renders CONTENT_PATH/legal/<slug>.md. Pages are re-read on
// every request so edits show up without a restart.
type LegalService struct {
	contentDir string
	parser     *markdown.Parser

	mu    sync.RWMutex
	pages map[string]*LegalPage
}

func NewLegalService(contentDir string) *LegalService {
	return &LegalService{
		contentDir: filepath.Join(contentDir, "legal"),
		parser:     markdown.NewParser(),
		pages:      make(map[string]*LegalPage),
	}
}

func (s *LegalService) LoadPages() error {
	files, err := os.ReadDir(s.contentDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read legal directory: %w", err)
	}

	pages := make(map[string]*LegalPage)
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		pageSlug := strings.TrimSuffix(file.Name(), ".md")
		page, err := s.loadPage(pageSlug)
		if err != nil {
			return fmt.Errorf("failed to load page %s: %w", pageSlug, err)
		}
		pages[pageSlug] = page
	}

	s.mu.Lock()
	s.pages = pages
	s.mu.Unlock()
	return nil
}

func (s *LegalService) loadPage(pageSlug string) (*LegalPage, error) {
	filePath := filepath.Join(s.contentDir, pageSlug+".md")
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	html, meta, err := s.parser.ParseWithFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	title, _ := meta["title"].(string)
	if title == "" {
		title = slug.Title(strings.ReplaceAll(pageSlug, "-", " "))
	}

	// frontmatter first, file modification time as fallback
	var lastUpdated string
	if dateValue, ok := meta["lastUpdated"]; ok {
		lastUpdated = parseDate(dateValue)
	}
	if lastUpdated == "" {
		lastUpdated = info.ModTime().Format("02.01.2006")
	}

	return &LegalPage{
		Title:       title,
		Slug:        pageSlug,
		Content:     string(html),
		LastUpdated: lastUpdated,
	}, nil
}

func (s *LegalService) Page(pageSlug string) (*LegalPage, error) {
	if err := s.LoadPages(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	page, ok := s.pages[pageSlug]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageSlug)
	}
	return page, nil
}

// parseDate formats a frontmatter date the German way.
func parseDate(value any) string {
	var dateStr string

	switch v := value.(type) {
	case string:
		dateStr = v
	case time.Time:
		return v.Format("02.01.2006")
	default:
		return ""
	}

	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"02.01.2006",
		time.RFC3339,
	}
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t.Format("02.01.2006")
		}
	}

	return dateStr
}
