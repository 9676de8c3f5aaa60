package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Trinaxus/TON.BAND/internal/fileapi"
	"github.com/Trinaxus/TON.BAND/internal/gate"
	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/validation"
)

const metaFanOut = 8

var (
	ErrNoGalleries       = errors.New("no galleries found")
	ErrGalleryNotFound   = errors.New("gallery not found")
	ErrUnknownOperation  = errors.New("unknown file operation")
	ErrNoImage           = errors.New("gallery has no image")
	errMissingOpArgument = errors.New("missing file operation argument")
)

// FileHost is the subset of the file API the gallery service uses.
type FileHost interface {
	Galleries(ctx context.Context, isAdmin bool) (map[string][]string, error)
	Meta(ctx context.Context, ref model.GalleryRef, isAdmin bool) (model.GalleryMeta, error)
	SetMeta(ctx context.Context, ref model.GalleryRef, meta model.GalleryMeta) (json.RawMessage, error)
	DeleteGallery(ctx context.Context, ref model.GalleryRef) (json.RawMessage, error)
	DeleteImage(ctx context.Context, ref model.GalleryRef, filename string) (json.RawMessage, error)
	VerifyPassword(ctx context.Context, gallery, password string) (*fileapi.VerifyResult, error)
	SetPassword(ctx context.Context, gallery, password string) (*fileapi.SetPasswordResult, error)
	FileOperation(ctx context.Context, op fileapi.FileOperation) (json.RawMessage, error)
	Upload(ctx context.Context, up fileapi.Upload) (*fileapi.UploadResponse, error)
}

// Listing is the gallery index with one metadata object per gallery.
type Listing struct {
	Galleries map[string][]string          `json:"galleries"`
	Metadata  map[string]model.GalleryMeta `json:"metadata"`
}

// FileOpInput is the admin file operation request.
type FileOpInput struct {
	Operation   string            `json:"operation"`
	Path        string            `json:"path"`
	Source      string            `json:"source"`
	Destination string            `json:"destination"`
	GalleryName string            `json:"galleryName"`
	Year        string            `json:"year"`
	Metadata    model.GalleryMeta `json:"metadata"`
}

// PublicGallery is a homepage teaser.
type PublicGallery struct {
	Ref   model.GalleryRef
	Cover model.MediaItem
}

type GalleryService struct {
	files FileHost
	gate  *gate.Gate
}

func NewGalleryService(files FileHost, g *gate.Gate) *GalleryService {
	return &GalleryService{files: files, gate: g}
}

// List returns every gallery with its metadata. Metadata is fetched with a
// bounded fan-out; a failed lookup falls back to the default metadata.
func (s *GalleryService) List(ctx context.Context, isAdmin bool) (*Listing, error) {
	raw, err := s.files.Galleries(ctx, isAdmin)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoGalleries
	}

	listing := &Listing{
		Galleries: make(map[string][]string, len(raw)),
		Metadata:  make(map[string]model.GalleryMeta, len(raw)),
	}
	refs := make(map[string]model.GalleryRef, len(raw))
	for key, urls := range raw {
		trimmed := make([]string, 0, len(urls))
		for _, u := range urls {
			if u = strings.TrimSpace(u); u != "" {
				trimmed = append(trimmed, u)
			}
		}
		listing.Galleries[key] = trimmed
		if ref, err := model.ParseGalleryRef(key); err == nil {
			refs[key] = ref
		} else {
			listing.Metadata[key] = model.GalleryMeta{"galerie": key}
		}
	}

	metas := make(chan struct {
		key  string
		meta model.GalleryMeta
	}, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metaFanOut)
	for key, ref := range refs {
		g.Go(func() error {
			meta, err := s.files.Meta(gctx, ref, isAdmin)
			if err != nil || len(meta) == 0 {
				if err != nil {
					slog.Debug("gallery meta unavailable, using default", "gallery", key, "error", err)
				}
				meta = model.DefaultGalleryMeta(ref)
			}
			metas <- struct {
				key  string
				meta model.GalleryMeta
			}{key, meta}
			return nil
		})
	}
	_ = g.Wait()
	close(metas)
	for m := range metas {
		listing.Metadata[m.key] = m.meta
	}
	return listing, nil
}

// Gallery returns one gallery from the admin listing.
func (s *GalleryService) Gallery(ctx context.Context, ref model.GalleryRef) (*model.Gallery, error) {
	raw, err := s.files.Galleries(ctx, true)
	if err != nil {
		return nil, err
	}
	urls, ok := raw[ref.String()]
	if !ok {
		return nil, ErrGalleryNotFound
	}
	gallery := &model.Gallery{Ref: ref}
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			gallery.Items = append(gallery.Items, model.MediaItem(u))
		}
	}
	gallery.Meta = s.Meta(ctx, ref, true)
	return gallery, nil
}

// Meta returns the stored metadata or the default.
func (s *GalleryService) Meta(ctx context.Context, ref model.GalleryRef, isAdmin bool) model.GalleryMeta {
	meta, err := s.files.Meta(ctx, ref, isAdmin)
	if err != nil || len(meta) == 0 {
		return model.DefaultGalleryMeta(ref)
	}
	return meta
}

func (s *GalleryService) SetMeta(ctx context.Context, ref model.GalleryRef, meta model.GalleryMeta) (json.RawMessage, error) {
	out, err := s.files.SetMeta(ctx, ref, meta)
	if err == nil {
		slog.Info("gallery meta saved", "gallery", ref.String())
	}
	return out, err
}

func (s *GalleryService) Delete(ctx context.Context, ref model.GalleryRef) (json.RawMessage, error) {
	out, err := s.files.DeleteGallery(ctx, ref)
	if err == nil {
		slog.Info("gallery deleted", "gallery", ref.String())
	}
	return out, err
}

func (s *GalleryService) DeleteImage(ctx context.Context, ref model.GalleryRef, filename string) (json.RawMessage, error) {
	out, err := s.files.DeleteImage(ctx, ref, filename)
	if err == nil {
		slog.Info("gallery image deleted", "gallery", ref.String(), "filename", filename)
	}
	return out, err
}

// VerifyPassword passes a password check through to the file host.
func (s *GalleryService) VerifyPassword(ctx context.Context, gallery, password string) (*fileapi.VerifyResult, error) {
	return s.files.VerifyPassword(ctx, gallery, password)
}

func (s *GalleryService) SetPassword(ctx context.Context, gallery, password string) (*fileapi.SetPasswordResult, error) {
	res, err := s.files.SetPassword(ctx, gallery, password)
	if err == nil && res.Success {
		slog.Info("gallery password changed", "gallery", gallery, "public", password == "")
	}
	return res, err
}

// Upload validates the file and streams it to the file host.
func (s *GalleryService) Upload(ctx context.Context, ref model.GalleryRef, header *multipart.FileHeader) (*fileapi.UploadResponse, error) {
	if err := validation.ValidateFile(header, validation.ImageConstraints, validation.VideoConstraints); err != nil {
		return nil, invalid(err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	res, err := s.files.Upload(ctx, fileapi.Upload{
		Ref:         ref,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("gallery file uploaded", "gallery", ref.String(), "filename", header.Filename, "size", header.Size)
	return res, nil
}

// FileOperation maps an admin request onto file_operations.php or, for
// updateMetadata, onto the metadata endpoint.
func (s *GalleryService) FileOperation(ctx context.Context, in FileOpInput) (json.RawMessage, error) {
	op := fileapi.FileOperation{Operation: in.Operation}
	switch in.Operation {
	case "rename":
		op.OldPath = firstNonEmpty(in.Source, in.Path)
		op.NewPath = in.Destination
		if op.OldPath == "" || op.NewPath == "" {
			return nil, invalid(fmt.Errorf("%w: Quelle und Ziel sind erforderlich", errMissingOpArgument))
		}
	case "delete":
		op.Path = firstNonEmpty(in.Path, in.Source)
		if op.Path == "" {
			return nil, invalid(fmt.Errorf("%w: Pfad ist erforderlich", errMissingOpArgument))
		}
	case "create_directory":
		op.Path = in.Path
		if op.Path == "" {
			if in.Year == "" || in.GalleryName == "" {
				return nil, invalid(fmt.Errorf("%w: Pfad oder Jahr und Galerie sind erforderlich", errMissingOpArgument))
			}
			op.Path = "uploads/" + in.Year + "/" + in.GalleryName
		}
	case "list":
		op.Path = firstNonEmpty(in.Path, "uploads")
	case "updateMetadata":
		ref, err := galleryRef(in.GalleryName, in.Year)
		if err != nil || in.Metadata == nil {
			return nil, invalid(fmt.Errorf("%w: Galerie und Metadaten sind erforderlich", errMissingOpArgument))
		}
		return s.SetMeta(ctx, ref, in.Metadata)
	default:
		return nil, ErrUnknownOperation
	}

	out, err := s.files.FileOperation(ctx, op)
	if err == nil {
		slog.Info("file operation done", "operation", op.Operation, "path", op.Path, "old_path", op.OldPath, "new_path", op.NewPath)
	}
	return out, err
}

// PreviewSource returns the first image of a gallery regardless of its policy.
func (s *GalleryService) PreviewSource(ctx context.Context, ref model.GalleryRef) (model.MediaItem, error) {
	gallery, err := s.Gallery(ctx, ref)
	if err != nil {
		return "", err
	}
	item, ok := gallery.FirstImage()
	if !ok {
		return "", ErrNoImage
	}
	return item, nil
}

// Public lists galleries whose policy resolves to public for an anonymous
// visitor, newest year first, each with its first image.
func (s *GalleryService) Public(ctx context.Context) ([]PublicGallery, error) {
	raw, err := s.files.Galleries(ctx, false)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		ref   model.GalleryRef
		cover model.MediaItem
	}
	var candidates []candidate
	for key, urls := range raw {
		ref, err := model.ParseGalleryRef(key)
		if err != nil {
			continue
		}
		items := make([]model.MediaItem, 0, len(urls))
		for _, u := range urls {
			items = append(items, model.MediaItem(strings.TrimSpace(u)))
		}
		if cover, ok := (model.Gallery{Ref: ref, Items: items}).FirstImage(); ok {
			candidates = append(candidates, candidate{ref, cover})
		}
	}

	public := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metaFanOut)
	for i, c := range candidates {
		g.Go(func() error {
			d := s.gate.Resolve(gctx, c.ref.String(), nil, nil)
			// a swallowed lookup failure does not advertise the gallery
			public[i] = d.State == gate.StatePublic && d.Err == nil
			return nil
		})
	}
	_ = g.Wait()

	var out []PublicGallery
	for i, c := range candidates {
		if public[i] {
			out = append(out, PublicGallery{Ref: c.ref, Cover: c.cover})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ref.Year != out[j].Ref.Year {
			return out[i].Ref.Year > out[j].Ref.Year
		}
		return out[i].Ref.Name < out[j].Ref.Name
	})
	return out, nil
}

// galleryRef accepts "year/name" or a bare name with a separate year.
func galleryRef(name, year string) (model.GalleryRef, error) {
	if strings.Contains(name, "/") {
		return model.ParseGalleryRef(name)
	}
	return model.ParseGalleryRef(year + "/" + name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
