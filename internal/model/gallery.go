package model

import (
	"errors"
	"net/url"
	"path"
	"strings"
)

var ErrInvalidGalleryRef = errors.New("invalid gallery reference")

// GalleryRef identifies a gallery folder on the file host as year/name.
type GalleryRef struct {
	Year string
	Name string
}

// ParseGalleryRef splits "year/name" on the first slash.
func ParseGalleryRef(s string) (GalleryRef, error) {
	year, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return GalleryRef{}, ErrInvalidGalleryRef
	}
	ref := GalleryRef{Year: strings.TrimSpace(year), Name: strings.TrimSpace(name)}
	if ref.Year == "" || ref.Name == "" {
		return GalleryRef{}, ErrInvalidGalleryRef
	}
	return ref, nil
}

func (g GalleryRef) String() string {
	return g.Year + "/" + g.Name
}

// AccessPolicy controls who may see a gallery's media.
type AccessPolicy string

const (
	AccessPublic   AccessPolicy = "public"
	AccessPassword AccessPolicy = "password"
	AccessInternal AccessPolicy = "internal"
	AccessLocked   AccessPolicy = "locked"
)

func (p AccessPolicy) Valid() bool {
	switch p {
	case AccessPublic, AccessPassword, AccessInternal, AccessLocked:
		return true
	}
	return false
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

var videoExtensions = []string{".mp4", ".webm", ".mov"}

// MediaItem is a remote media URL. It has no identity beyond the URL.
type MediaItem string

// Kind classifies the item by file extension.
func (m MediaItem) Kind() MediaKind {
	p := strings.ToLower(string(m))
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	for _, ext := range videoExtensions {
		if strings.HasSuffix(p, ext) {
			return MediaVideo
		}
	}
	return MediaImage
}

func (m MediaItem) IsVideo() bool {
	return m.Kind() == MediaVideo
}

// FileName returns the unescaped last path segment, or "" when the URL has none.
func (m MediaItem) FileName() string {
	u, err := url.Parse(strings.TrimSpace(string(m)))
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// GalleryMeta is the free-form metadata object stored next to a gallery.
type GalleryMeta map[string]any

// DefaultGalleryMeta is used when the file host has no metadata for a gallery.
func DefaultGalleryMeta(ref GalleryRef) GalleryMeta {
	category := "Session"
	if strings.Contains(strings.ToUpper(ref.Name), "VIDEO") {
		category = "Video"
	}
	return GalleryMeta{
		"jahr":      ref.Year,
		"galerie":   ref.Name,
		"kategorie": category,
		"tags":      []string{"tonband"},
	}
}

// Gallery is a listed gallery with its media.
type Gallery struct {
	Ref   GalleryRef
	Items []MediaItem
	Meta  GalleryMeta
}

// FirstImage returns the first non-video item.
func (g Gallery) FirstImage() (MediaItem, bool) {
	for _, it := range g.Items {
		if !it.IsVideo() {
			return it, true
		}
	}
	return "", false
}

// ArchiveJob is one export request: a gallery name and the ordered media to pack.
type ArchiveJob struct {
	GalleryName string
	URLs        []string
}
