package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExtractYear(t *testing.T) {
	svc := NewPortfolioService(&fakePortfolio{}, nil)
	svc.now = fixedClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct{ name, want string }{
		{"Hochzeit 2019 Sommer", "2019"},
		{"2022/Konzert", "2022"},
		{"Ohne Jahr", "2025"},
		{"Bus 12345", "2025"},
	}
	for _, tt := range tests {
		if got := svc.ExtractYear(tt.name); got != tt.want {
			t.Errorf("ExtractYear(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractCategory(t *testing.T) {
	tests := []struct{ name, want string }{
		{"2024/Portrait Anna", "Portrait"},
		{"2024/Naturpark", "Landschaft"},
		{"Reise nach Rom", "Reise"},
		{"2024/Sommerparty", "Kunst"},
		{"2024/Studio - live session", "Live Session"},
		{"2024/Probe", "Sonstiges"},
	}
	for _, tt := range tests {
		if got := ExtractCategory(tt.name); got != tt.want {
			t.Errorf("ExtractCategory(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestPortfolioSyncGalleryUpserts(t *testing.T) {
	repo := &fakePortfolio{}
	svc := NewPortfolioService(repo, nil)
	ctx := context.Background()

	if _, _, err := svc.SyncGallery(ctx, SyncInput{GalleryName: "2024/Probe", Images: []string{" "}}); !errors.Is(err, ErrSyncFieldsRequired) {
		t.Errorf("no images = %v", err)
	}

	entry, created, err := svc.SyncGallery(ctx, SyncInput{GalleryName: "2024/Event Halle", Images: []string{"files.example.com/a.jpg"}})
	if err != nil {
		t.Fatal(err)
	}
	if !created || entry.URL != "https://files.example.com/a.jpg" || entry.Category != "Event" || entry.Year != "2024" {
		t.Errorf("entry = %+v, created = %v", entry, created)
	}

	entry, created, err = svc.SyncGallery(ctx, SyncInput{GalleryName: "2024/Event Halle", Images: []string{"https://files.example.com/b.jpg"}, Category: "Konzert"})
	if err != nil {
		t.Fatal(err)
	}
	if created || entry.ID != 1 || len(repo.entries) != 1 || repo.entries[0].URL != "https://files.example.com/b.jpg" || repo.entries[0].Category != "Konzert" {
		t.Errorf("update = %+v, entries = %+v", entry, repo.entries)
	}
}

func TestPortfolioSyncAll(t *testing.T) {
	files := &fakeFiles{galleries: map[string][]string{
		"2024/A": {"https://files/a.jpg"},
		"2024/B": {"https://files/b.mp4"},
		"2023/C": {"https://files/c.jpg"},
	}}
	repo := &fakePortfolio{}
	svc := NewPortfolioService(repo, newTestGalleries(files))

	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 2 || len(report.Errors) != 1 || report.Errors[0].Gallery != "2024/B" {
		t.Errorf("report = %+v", report)
	}
	if report.Results[0].Gallery != "2023/C" || report.Results[0].Action != "created" {
		t.Errorf("first result = %+v", report.Results[0])
	}

	report, _ = svc.SyncAll(context.Background())
	if report.Results[0].Action != "updated" {
		t.Errorf("second run = %+v", report.Results)
	}
}

func TestPortfolioAdd(t *testing.T) {
	svc := NewPortfolioService(&fakePortfolio{}, nil)
	ctx := context.Background()
	if _, err := svc.Add(ctx, PortfolioInput{Gallery: "x"}); !errors.Is(err, ErrPortfolioFieldsRequired) {
		t.Errorf("missing url = %v", err)
	}
	var verr *ValidationError
	if _, err := svc.Add(ctx, PortfolioInput{Gallery: "x", URL: "kein link"}); !errors.As(err, &verr) {
		t.Errorf("bad url = %v", err)
	}
	entry, err := svc.Add(ctx, PortfolioInput{Gallery: "2021/Reise Italien", URL: "https://files/a.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if entry.Category != "Reise" || entry.Year != "2021" {
		t.Errorf("entry = %+v", entry)
	}
}
