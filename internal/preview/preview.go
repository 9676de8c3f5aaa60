// Package preview renders tiny placeholder thumbnails for gated galleries so
// the challenge overlay can show a blurred hint without exposing the media.
package preview

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"sync"

	"github.com/nfnt/resize"
	"github.com/zeebo/blake3"
)

var ErrNotImage = errors.New("source is not a decodable image")

const (
	defaultSize  = 32
	maxSourceLen = 32 << 20
	maxEntries   = 256
)

// Doer fetches source images.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Image is an encoded preview.
type Image struct {
	Data []byte
	ETag string
}

// Renderer downsizes remote images and keeps the results in memory.
type Renderer struct {
	client Doer
	size   uint

	mu    sync.Mutex
	cache map[string]Image
}

func NewRenderer(client Doer, size uint) *Renderer {
	if client == nil {
		client = &http.Client{}
	}
	if size == 0 {
		size = defaultSize
	}
	return &Renderer{client: client, size: size, cache: make(map[string]Image)}
}

// Render returns a JPEG no larger than size×size for the image at url.
func (r *Renderer) Render(ctx context.Context, url string) (Image, error) {
	r.mu.Lock()
	if img, ok := r.cache[url]; ok {
		r.mu.Unlock()
		return img, nil
	}
	r.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("failed to fetch preview source: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("preview source status %d", resp.StatusCode)
	}

	src, _, err := image.Decode(io.LimitReader(resp.Body, maxSourceLen))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	thumb := resize.Thumbnail(r.size, r.size, src, resize.Bilinear)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 60}); err != nil {
		return Image{}, fmt.Errorf("failed to encode preview: %w", err)
	}

	sum := blake3.Sum256(buf.Bytes())
	img := Image{Data: buf.Bytes(), ETag: `"` + hex.EncodeToString(sum[:8]) + `"`}

	r.mu.Lock()
	if len(r.cache) >= maxEntries {
		r.cache = make(map[string]Image)
	}
	r.cache[url] = img
	r.mu.Unlock()
	return img, nil
}
