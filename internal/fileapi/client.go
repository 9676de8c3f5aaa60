// Package fileapi is a client for the PHP endpoints that manage gallery files
// on the studio's web space.
package fileapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Trinaxus/TON.BAND/internal/model"
)

const (
	pathGalleries      = "api/galleries.php"
	pathGalleryMeta    = "api/gallery_meta.php"
	pathDeleteGallery  = "api/delete_gallery.php"
	pathDeleteImage    = "api/delete_image.php"
	pathVerifyPassword = "api/verify-gallery-password.php"
	pathSetPassword    = "api/set-gallery-password.php"
	pathFileOperations = "api/file_operations.php"
	pathUpload         = "upload.php"
)

var ErrNotFound = errors.New("not found on file host")

// Error is a non-2xx answer from the file host.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("file api: status %d", e.Status)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

type Client struct {
	baseURL   string
	token     string
	fileToken string
	http      *http.Client
}

type ClientConfig struct {
	BaseURL string
	Token   string
	// FileOperationsToken authenticates file_operations.php; defaults to Token.
	FileOperationsToken string
	Timeout             time.Duration
	HTTPClient          *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	fileToken := cfg.FileOperationsToken
	if fileToken == "" {
		fileToken = cfg.Token
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		fileToken: fileToken,
		http:      hc,
	}
}

// BaseURL is the web space root; uploaded files live below BaseURL/uploads.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Galleries lists "year/name" → media URLs. Videos are always included;
// isAdmin also returns galleries hidden from the public listing.
func (c *Client) Galleries(ctx context.Context, isAdmin bool) (map[string][]string, error) {
	q := url.Values{"include_videos": {"true"}}
	if isAdmin {
		q.Set("is_admin", "true")
	}
	var out struct {
		Galleries map[string][]string `json:"galleries"`
	}
	if err := c.getJSON(ctx, pathGalleries, q, &out); err != nil {
		return nil, err
	}
	if out.Galleries == nil {
		out.Galleries = map[string][]string{}
	}
	return out.Galleries, nil
}

func (c *Client) Meta(ctx context.Context, ref model.GalleryRef, isAdmin bool) (model.GalleryMeta, error) {
	q := url.Values{"year": {ref.Year}, "gallery": {ref.Name}}
	if isAdmin {
		q.Set("is_admin", "true")
	}
	var meta model.GalleryMeta
	if err := c.getJSON(ctx, pathGalleryMeta, q, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (c *Client) SetMeta(ctx context.Context, ref model.GalleryRef, meta model.GalleryMeta) (json.RawMessage, error) {
	body := map[string]any{"year": ref.Year, "gallery": ref.Name, "meta": meta}
	var out json.RawMessage
	if err := c.postJSON(ctx, pathGalleryMeta, c.token, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteGallery(ctx context.Context, ref model.GalleryRef) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.postJSON(ctx, pathDeleteGallery, c.token, map[string]string{"galleryName": ref.String()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteImage(ctx context.Context, ref model.GalleryRef, filename string) (json.RawMessage, error) {
	body := map[string]string{"year": ref.Year, "gallery": ref.Name, "filename": filename}
	var out json.RawMessage
	if err := c.postJSON(ctx, pathDeleteImage, c.token, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyResult is the password endpoint's answer. An empty password asks for
// the access policy only.
type VerifyResult struct {
	Success           bool   `json:"success"`
	AccessType        string `json:"accessType,omitempty"`
	PasswordProtected *bool  `json:"passwordProtected,omitempty"`
	GalleryToken      string `json:"galleryToken,omitempty"`
	Message           string `json:"message,omitempty"`
}

func (c *Client) VerifyPassword(ctx context.Context, gallery, password string) (*VerifyResult, error) {
	var out VerifyResult
	body := map[string]string{"gallery": gallery, "password": password}
	if err := c.postJSON(ctx, pathVerifyPassword, c.token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type SetPasswordResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SetPassword changes a gallery's password; an empty password makes it public.
// A rejected request is returned as a result, not as an error.
func (c *Client) SetPassword(ctx context.Context, gallery, password string) (*SetPasswordResult, error) {
	var out SetPasswordResult
	body := map[string]string{"gallery": gallery, "password": password}
	if err := c.postJSON(ctx, pathSetPassword, c.token, body, &out); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status < 500 && json.Unmarshal([]byte(apiErr.Body), &out) == nil && out.Message != "" {
			return &out, nil
		}
		return nil, err
	}
	return &out, nil
}

// FileOperation is the payload of file_operations.php.
type FileOperation struct {
	Operation string `json:"operation"`
	Path      string `json:"path,omitempty"`
	OldPath   string `json:"oldPath,omitempty"`
	NewPath   string `json:"newPath,omitempty"`
}

func (c *Client) FileOperation(ctx context.Context, op FileOperation) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.postJSON(ctx, pathFileOperations, "", op, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload describes one file to stream to upload.php.
type Upload struct {
	Ref         model.GalleryRef
	Filename    string
	ContentType string
	Body        io.Reader
}

// UploadResponse is the raw upstream answer. JSON is nil when the body was not JSON.
type UploadResponse struct {
	Status int
	JSON   json.RawMessage
	Raw    string
}

// Upload streams a multipart body without buffering the file. A non-2xx
// status is returned as *Error.
func (c *Client) Upload(ctx context.Context, up Upload) (*UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUpload(mw, up)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(pathUpload, nil), pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-TOKEN", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Body: string(raw)}
	}

	out := &UploadResponse{Status: resp.StatusCode, Raw: string(raw)}
	if json.Valid(raw) {
		out.JSON = raw
	}
	return out, nil
}

func writeUpload(mw *multipart.Writer, up Upload) error {
	if err := mw.WriteField("year", up.Ref.Year); err != nil {
		return err
	}
	if err := mw.WriteField("gallery", up.Ref.Name); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, up.Body)
	return err
}

func (c *Client) endpoint(p string, q url.Values) string {
	u := c.baseURL + "/" + p
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) getJSON(ctx context.Context, p string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(p, q), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-API-TOKEN", c.token)
	return c.send(req, out)
}

// postJSON authenticates with X-API-TOKEN, or with the file operations bearer
// token when token is empty.
func (c *Client) postJSON(ctx context.Context, p, token string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(p, nil), bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-API-TOKEN", token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.fileToken)
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("file api request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("failed to read file api response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode file api response: %w", err)
	}
	return nil
}
