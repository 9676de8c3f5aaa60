package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Trinaxus/TON.BAND/internal/fileapi"
	"github.com/Trinaxus/TON.BAND/internal/gate"
	"github.com/Trinaxus/TON.BAND/internal/model"
)

func newTestGalleries(files *fakeFiles) *GalleryService {
	return NewGalleryService(files, gate.New(files))
}

func TestGalleryServiceListFallsBackToDefaultMeta(t *testing.T) {
	files := &fakeFiles{
		galleries: map[string][]string{
			"2024/Sommerfest": {" https://files/a.jpg ", "", "https://files/b.mp4"},
			"2023/VIDEO Tour": {"https://files/c.mp4"},
		},
		metaErr: errors.New("meta down"),
	}
	listing, err := newTestGalleries(files).List(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}

	urls := listing.Galleries["2024/Sommerfest"]
	if len(urls) != 2 || urls[0] != "https://files/a.jpg" {
		t.Errorf("urls = %q", urls)
	}
	meta := listing.Metadata["2024/Sommerfest"]
	if meta["jahr"] != "2024" || meta["galerie"] != "Sommerfest" || meta["kategorie"] != "Session" {
		t.Errorf("meta = %v", meta)
	}
	if listing.Metadata["2023/VIDEO Tour"]["kategorie"] != "Video" {
		t.Errorf("video meta = %v", listing.Metadata["2023/VIDEO Tour"])
	}
}

func TestGalleryServiceListEmpty(t *testing.T) {
	files := &fakeFiles{galleries: map[string][]string{}}
	if _, err := newTestGalleries(files).List(context.Background(), true); !errors.Is(err, ErrNoGalleries) {
		t.Errorf("err = %v", err)
	}
}

func TestGalleryServiceFileOperation(t *testing.T) {
	files := &fakeFiles{}
	svc := newTestGalleries(files)
	ctx := context.Background()

	tests := []struct {
		in   FileOpInput
		want fileapi.FileOperation
	}{
		{FileOpInput{Operation: "rename", Source: "uploads/2024/a", Destination: "uploads/2024/b"}, fileapi.FileOperation{Operation: "rename", OldPath: "uploads/2024/a", NewPath: "uploads/2024/b"}},
		{FileOpInput{Operation: "delete", Path: "uploads/2024/a/x.jpg"}, fileapi.FileOperation{Operation: "delete", Path: "uploads/2024/a/x.jpg"}},
		{FileOpInput{Operation: "create_directory", Year: "2025", GalleryName: "Neu"}, fileapi.FileOperation{Operation: "create_directory", Path: "uploads/2025/Neu"}},
		{FileOpInput{Operation: "list"}, fileapi.FileOperation{Operation: "list", Path: "uploads"}},
	}
	for _, tt := range tests {
		if _, err := svc.FileOperation(ctx, tt.in); err != nil {
			t.Fatalf("%s: %v", tt.in.Operation, err)
		}
		got := files.ops[len(files.ops)-1]
		if got != tt.want {
			t.Errorf("%s: op = %+v, want %+v", tt.in.Operation, got, tt.want)
		}
	}

	if _, err := svc.FileOperation(ctx, FileOpInput{Operation: "updateMetadata", GalleryName: "Neu", Year: "2025", Metadata: model.GalleryMeta{"kategorie": "Live"}}); err != nil {
		t.Fatal(err)
	}
	if files.savedMeta["2025/Neu"]["kategorie"] != "Live" {
		t.Errorf("saved meta = %v", files.savedMeta)
	}

	var verr *ValidationError
	if _, err := svc.FileOperation(ctx, FileOpInput{Operation: "rename", Source: "a"}); !errors.As(err, &verr) {
		t.Errorf("rename without destination = %v", err)
	}
	if _, err := svc.FileOperation(ctx, FileOpInput{Operation: "chmod"}); !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("unknown op = %v", err)
	}
	if len(files.ops) != 4 {
		t.Errorf("ops forwarded = %d, want 4", len(files.ops))
	}
}

func TestGalleryServicePublic(t *testing.T) {
	files := &fakeFiles{
		galleries: map[string][]string{
			"2023/Alt":      {"https://files/a.jpg"},
			"2024/Neu":      {"https://files/clip.mp4", "https://files/b.jpg"},
			"2024/Privat":   {"https://files/c.jpg"},
			"2024/Intern":   {"https://files/d.jpg"},
			"2024/Kaputt":   {"https://files/e.jpg"},
			"2024/NurVideo": {"https://files/f.mp4"},
		},
		policies: map[string]*fileapi.VerifyResult{
			"2024/Privat": {AccessType: "password"},
			"2024/Intern": {AccessType: "internal"},
		},
		checkErrs: map[string]error{"2024/Kaputt": errors.New("timeout")},
	}
	out, err := newTestGalleries(files).Public(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("public = %+v", out)
	}
	if out[0].Ref.String() != "2024/Neu" || out[0].Cover != "https://files/b.jpg" {
		t.Errorf("first = %+v", out[0])
	}
	if out[1].Ref.String() != "2023/Alt" {
		t.Errorf("second = %+v", out[1])
	}
}

func TestGalleryServicePreviewSource(t *testing.T) {
	files := &fakeFiles{galleries: map[string][]string{
		"2024/Privat": {"https://files/clip.mp4", "https://files/a.jpg"},
		"2024/Leer":   {"https://files/clip.mp4"},
	}}
	svc := newTestGalleries(files)
	ctx := context.Background()

	ref, _ := model.ParseGalleryRef("2024/Privat")
	item, err := svc.PreviewSource(ctx, ref)
	if err != nil || item != "https://files/a.jpg" {
		t.Errorf("preview = %q, %v", item, err)
	}
	ref, _ = model.ParseGalleryRef("2024/Leer")
	if _, err := svc.PreviewSource(ctx, ref); !errors.Is(err, ErrNoImage) {
		t.Errorf("no image = %v", err)
	}
	ref, _ = model.ParseGalleryRef("2024/Fehlt")
	if _, err := svc.PreviewSource(ctx, ref); !errors.Is(err, ErrGalleryNotFound) {
		t.Errorf("missing = %v", err)
	}
}
