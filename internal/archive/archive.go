// Package archive streams gallery media into a zip download.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

var ErrInvalidJob = errors.New("invalid archive job")

// Doer fetches a media URL.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Service struct {
	client       Doer
	allowedHosts map[string]bool
}

// NewService returns an exporter. An empty allowedHosts accepts any host.
func NewService(client Doer, allowedHosts []string) *Service {
	if client == nil {
		client = &http.Client{}
	}
	hosts := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[strings.ToLower(h)] = true
	}
	return &Service{client: client, allowedHosts: hosts}
}

type Failure struct {
	Position int
	URL      string
	Err      error
}

// Result reports what made it into the archive.
type Result struct {
	Entries []string
	Failed  []Failure
}

// Validate checks a job before any byte is streamed.
func (s *Service) Validate(galleryName string, urls []string) error {
	if strings.TrimSpace(galleryName) == "" || len(urls) == 0 {
		return ErrInvalidJob
	}
	for _, raw := range urls {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q is not an absolute http url", ErrInvalidJob, raw)
		}
		if len(s.allowedHosts) > 0 && !s.allowedHosts[strings.ToLower(u.Hostname())] {
			return fmt.Errorf("%w: host %q not allowed", ErrInvalidJob, u.Hostname())
		}
	}
	return nil
}

// ArchiveName turns a gallery name like "2024/Sommerfest" into "2024_Sommerfest".
func ArchiveName(galleryName string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(galleryName))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' {
			return -1
		}
		return r
	}, name)
	if name == "" {
		return "galerie"
	}
	return name
}

// Export fetches each URL in order and writes it as one zip entry to w. A
// failed fetch is skipped; write errors abort the export and are returned.
func (s *Service) Export(ctx context.Context, w io.Writer, galleryName string, urls []string) (Result, error) {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	var res Result
	names := newNameSet()

	for i, raw := range urls {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		pos := i + 1
		name := names.unique(entryName(raw, pos))

		written, err := s.addEntry(ctx, zw, name, raw)
		var fetchErr *fetchError
		switch {
		case err == nil:
			res.Entries = append(res.Entries, name)
		case errors.As(err, &fetchErr):
			slog.Warn("archive entry skipped", "gallery", galleryName, "position", pos, "url", raw, "error", err)
			res.Failed = append(res.Failed, Failure{Position: pos, URL: raw, Err: err})
			if !written {
				names.release(name)
			}
		default:
			return res, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return res, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return res, nil
}

// fetchError marks a failure on the source side. The archive stays valid and
// the export continues with the next URL.
type fetchError struct {
	err error
}

func (e *fetchError) Error() string { return e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

// sourceReader records read errors so they can be told apart from write errors.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}

// addEntry reports written=true once the entry header is in the stream. A
// source failure after that point leaves a truncated entry behind.
func (s *Service) addEntry(ctx context.Context, zw *zip.Writer, name, raw string) (written bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(raw), nil)
	if err != nil {
		return false, &fetchError{err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, &fetchError{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &fetchError{fmt.Errorf("upstream status %d", resp.StatusCode)}
	}

	modified := time.Now()
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		modified = lm
	}

	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return true, err
	}
	src := &sourceReader{r: resp.Body}
	if _, err := io.Copy(entry, src); err != nil {
		if src.err != nil {
			return true, &fetchError{src.err}
		}
		return true, err
	}
	return true, nil
}

// entryName is the URL's last path segment, or file_<pos> when it has none.
func entryName(raw string, pos int) string {
	fallback := fmt.Sprintf("file_%d", pos)
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	base := path.Base(u.Path)
	base = sanitizeEntry(base)
	if base == "" {
		return fallback
	}
	return base
}

func sanitizeEntry(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(path.Clean("/" + name))
	name = strings.ReplaceAll(name, "\x00", "")
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	if len(name) > 240 {
		name = name[:240]
	}
	return name
}

// nameSet hands out " (n)" suffixed names on collision.
type nameSet struct {
	used map[string]int
}

func newNameSet() *nameSet {
	return &nameSet{used: map[string]int{}}
}

func (n *nameSet) unique(base string) string {
	count := n.used[base]
	n.used[base] = count + 1
	if count == 0 {
		return base
	}
	ext := path.Ext(base)
	candidate := fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(base, ext), count, ext)
	if _, taken := n.used[candidate]; taken {
		return n.unique(candidate)
	}
	n.used[candidate] = 1
	return candidate
}

// release makes a name available again after its fetch failed.
func (n *nameSet) release(name string) {
	if n.used[name] <= 1 {
		delete(n.used, name)
		return
	}
	n.used[name]--
}
