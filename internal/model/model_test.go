package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseGalleryRef(t *testing.T) {
	tests := []struct {
		in      string
		want    GalleryRef
		wantErr bool
	}{
		{"2024/Sommerfest", GalleryRef{"2024", "Sommerfest"}, false},
		{" 2023 / Hochzeit A ", GalleryRef{"2023", "Hochzeit A"}, false},
		{"2024/Sub/Folder", GalleryRef{"2024", "Sub/Folder"}, false},
		{"2024", GalleryRef{}, true},
		{"/Sommerfest", GalleryRef{}, true},
		{"2024/", GalleryRef{}, true},
		{"", GalleryRef{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGalleryRef(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGalleryRef) {
					t.Fatalf("err = %v, want ErrInvalidGalleryRef", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMediaItemKind(t *testing.T) {
	tests := []struct {
		url  string
		want MediaKind
	}{
		{"https://host/uploads/2024/a.jpg", MediaImage},
		{"https://host/uploads/2024/clip.MP4", MediaVideo},
		{"https://host/uploads/2024/clip.webm?v=2", MediaVideo},
		{"https://host/uploads/2024/clip.mov", MediaVideo},
		{"https://host/uploads/2024/mov.png", MediaImage},
	}
	for _, tt := range tests {
		if got := MediaItem(tt.url).Kind(); got != tt.want {
			t.Errorf("Kind(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestMediaItemFileName(t *testing.T) {
	tests := map[string]string{
		"https://host/a.jpg":              "a.jpg",
		"https://host/dir/Bild%20eins.jpg": "Bild eins.jpg",
		"https://host/":                   "",
		"https://host":                    "",
	}
	for in, want := range tests {
		if got := MediaItem(in).FileName(); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultGalleryMeta(t *testing.T) {
	meta := DefaultGalleryMeta(GalleryRef{Year: "2024", Name: "Live VIDEO Session"})
	if meta["kategorie"] != "Video" {
		t.Errorf("kategorie = %v, want Video", meta["kategorie"])
	}
	meta = DefaultGalleryMeta(GalleryRef{Year: "2024", Name: "Sommerfest"})
	if meta["kategorie"] != "Session" || meta["jahr"] != "2024" || meta["galerie"] != "Sommerfest" {
		t.Errorf("unexpected meta %v", meta)
	}
}

func TestParseRole(t *testing.T) {
	var selectObj map[string]any
	if err := json.Unmarshal([]byte(`{"id":2853,"value":"admin"}`), &selectObj); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		in   any
		want Role
	}{
		{"string admin", "admin", RoleAdmin},
		{"string upper", " Admin ", RoleAdmin},
		{"string user", "user", RoleUser},
		{"numeric admin", float64(2853), RoleAdmin},
		{"numeric user", float64(2854), RoleUser},
		{"numeric string", "2853", RoleAdmin},
		{"select object", selectObj, RoleAdmin},
		{"select id only", map[string]any{"id": float64(2854)}, RoleUser},
		{"nil", nil, RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRole(tt.in); got != tt.want {
				t.Errorf("ParseRole(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestPrincipalIsAdmin(t *testing.T) {
	var p *Principal
	if p.IsAdmin() {
		t.Error("nil principal must not be admin")
	}
	p = &Principal{Role: RoleAdmin}
	if !p.IsAdmin() {
		t.Error("admin principal not recognized")
	}
}
