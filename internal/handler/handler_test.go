package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"golang.org/x/crypto/bcrypt"

	"github.com/Trinaxus/TON.BAND/internal/archive"
	"github.com/Trinaxus/TON.BAND/internal/config"
	"github.com/Trinaxus/TON.BAND/internal/fileapi"
	"github.com/Trinaxus/TON.BAND/internal/gate"
	"github.com/Trinaxus/TON.BAND/internal/repository"
	"github.com/Trinaxus/TON.BAND/internal/service"
	"github.com/Trinaxus/TON.BAND/internal/tablestore"
)

var testFields = config.UserFields{Username: "username", Email: "e-mail", Password: "passwort", Role: "role"}

// userTable serves one page of user rows, or fails with status when set.
func userTable(t *testing.T, status int, rows ...map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/database/rows/table/669/") {
			http.NotFound(w, r)
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			io.WriteString(w, `{"error":"ERROR_UPSTREAM"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"count": len(rows), "next": nil, "results": rows})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAuthHandler(t *testing.T, storeURL string) *authHandler {
	t.Helper()
	store := tablestore.NewClient(storeURL, "token", nil, 5*time.Second)
	users := repository.NewUserRepository(store, store, "669", testFields)
	email := service.NewEmailService("", "noreply@example.com", "", "http://localhost", "TONBAND", true)
	auth := service.NewAuthService(users, nil, email, "0123456789abcdef0123456789abcdef", 24*time.Hour, false)
	return NewAuthHandler(auth)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	return body
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginUnknownEmail(t *testing.T) {
	store := userTable(t, 0, map[string]any{"id": 1, "username": "Tina", "e-mail": "tina@tonband.de", "passwort": "x", "role": "admin"})
	h := newAuthHandler(t, store.URL)

	rec := httptest.NewRecorder()
	h.Login(rec, postJSON("/api/login", `{"email":"nobody@example.com","password":"whatever"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "E-Mail-Adresse nicht gefunden" {
		t.Errorf("error = %v", got)
	}
	if c := rec.Header().Get("Set-Cookie"); c != "" {
		t.Errorf("cookie set on failed login: %s", c)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("richtig123"), bcrypt.MinCost)
	store := userTable(t, 0, map[string]any{"id": 7, "username": "Tina", "e-mail": "Tina@TonBand.de", "passwort": string(hash), "role": float64(2853)})
	h := newAuthHandler(t, store.URL)

	rec := httptest.NewRecorder()
	h.Login(rec, postJSON("/api/login", `{"email":"tina@tonband.de","password":"richtig123"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != service.SessionCookieName || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}
	if rec.Header().Get("Cache-Control") == "" || rec.Header().Get("Pragma") != "no-cache" {
		t.Errorf("missing no-store headers: %v", rec.Header())
	}
	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["role"] != "admin" || user["id"] != float64(7) {
		t.Errorf("user = %v", user)
	}
}

func TestLoginStoreErrorPassesStatus(t *testing.T) {
	store := userTable(t, http.StatusUnauthorized)
	h := newAuthHandler(t, store.URL)

	rec := httptest.NewRecorder()
	h.Login(rec, postJSON("/api/login", `{"email":"a@b.de","password":"x"}`))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Baserow API-Fehler: 401" {
		t.Errorf("error = %v", body["error"])
	}
	if d, ok := body["details"].(map[string]any); !ok || d["error"] != "ERROR_UPSTREAM" {
		t.Errorf("details = %v", body["details"])
	}
}

// fileHost fakes the PHP endpoints the gallery handlers call.
func fileHost(t *testing.T, routes map[string]http.HandlerFunc) *fileapi.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fileapi.NewClient(fileapi.ClientConfig{BaseURL: srv.URL, Token: "t", Timeout: 5 * time.Second})
}

func newGalleryHandler(files *fileapi.Client) *GalleryHandler {
	galleries := service.NewGalleryService(files, gate.New(files))
	return NewGalleryHandler(galleries, nil, "*")
}

func TestVerifyPasswordInternalGallery(t *testing.T) {
	var gotGallery string
	files := fileHost(t, map[string]http.HandlerFunc{
		"api/verify-gallery-password.php": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			gotGallery = body["gallery"]
			io.WriteString(w, `{"success":false,"accessType":"internal","passwordProtected":false}`)
		},
	})
	h := newGalleryHandler(files)

	rec := httptest.NewRecorder()
	h.VerifyPassword(rec, postJSON("/api/verify-gallery-password", `{"gallery":"2024/Sommerfest","password":""}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["accessType"] != "internal" {
		t.Errorf("accessType = %v", body["accessType"])
	}
	if _, ok := body["galleryToken"]; ok {
		t.Errorf("token issued: %v", body)
	}
	if gotGallery != "2024/Sommerfest" {
		t.Errorf("upstream gallery = %q", gotGallery)
	}
}

func TestVerifyPasswordRequiresGallery(t *testing.T) {
	h := newGalleryHandler(fileHost(t, nil))

	rec := httptest.NewRecorder()
	h.VerifyPassword(rec, postJSON("/api/verify-gallery-password", `{"password":"x"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false || body["message"] != "Galerie muss angegeben werden" {
		t.Errorf("body = %v", body)
	}
}

func TestVerifyPasswordUpstreamFailure(t *testing.T) {
	files := fileHost(t, map[string]http.HandlerFunc{
		"api/verify-gallery-password.php": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})
	h := newGalleryHandler(files)

	rec := httptest.NewRecorder()
	h.VerifyPassword(rec, postJSON("/api/verify-gallery-password", `{"gallery":"2024/x","password":"y"}`))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["message"]; got != "Fehler bei der Passwortüberprüfung" {
		t.Errorf("message = %v", got)
	}
}

func TestListGalleries(t *testing.T) {
	var adminQuery string
	files := fileHost(t, map[string]http.HandlerFunc{
		"api/galleries.php": func(w http.ResponseWriter, r *http.Request) {
			adminQuery = r.URL.Query().Get("is_admin")
			io.WriteString(w, `{"galleries":{"2024/Sommerfest":[" https://host/a.jpg "]}}`)
		},
		"api/gallery_meta.php": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
	})
	h := newGalleryHandler(files)

	// anonymous callers cannot ask for hidden galleries
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/galleries?is_admin=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if adminQuery != "" {
		t.Errorf("is_admin forwarded for anonymous request: %q", adminQuery)
	}
	var listing service.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatal(err)
	}
	if got := listing.Galleries["2024/Sommerfest"]; len(got) != 1 || got[0] != "https://host/a.jpg" {
		t.Errorf("galleries = %v", listing.Galleries)
	}
	if meta := listing.Metadata["2024/Sommerfest"]; meta["kategorie"] != "Session" {
		t.Errorf("meta = %v", meta)
	}
}

func TestListGalleriesEmpty(t *testing.T) {
	files := fileHost(t, map[string]http.HandlerFunc{
		"api/galleries.php": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"galleries":{}}`)
		},
	})
	h := newGalleryHandler(files)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/galleries", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Keine Galerien gefunden" {
		t.Errorf("error = %v", got)
	}
}

func TestDeleteGalleryValidation(t *testing.T) {
	h := newGalleryHandler(fileHost(t, nil))

	tests := []struct {
		target string
		want   string
	}{
		{"/api/galleries", "Kein Galeriename angegeben"},
		{"/api/galleries?name=Sommerfest", "Ungültiger Galeriename"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.Delete(rec, httptest.NewRequest(http.MethodDelete, tt.target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", tt.target, rec.Code)
		}
		if got := decodeBody(t, rec)["error"]; got != tt.want {
			t.Errorf("%s: error = %v", tt.target, got)
		}
	}
}

func TestUploadWithoutFile(t *testing.T) {
	h := newGalleryHandler(fileHost(t, nil))

	var buf bytes.Buffer
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Keine Datei im Request gefunden" {
		t.Errorf("error = %v", got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestDownloadGallery(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "image "+r.URL.Path)
	}))
	defer media.Close()

	h := NewArchiveHandler(archive.NewService(media.Client(), nil))
	body := `{"galleryName":"2024/Sommerfest","imageUrls":["` + media.URL + `/a.jpg","` + media.URL + `/b.jpg"]}`

	rec := httptest.NewRecorder()
	h.Download(rec, postJSON("/api/download-gallery", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="2024_Sommerfest.zip"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	data := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "a.jpg,b.jpg" {
		t.Errorf("entries = %v", names)
	}
	if got := rec.Result().Trailer.Get("X-Archive-Entries"); got != "2" {
		t.Errorf("X-Archive-Entries = %q", got)
	}
}

func TestDownloadGalleryRejectsEmptyJob(t *testing.T) {
	h := NewArchiveHandler(archive.NewService(http.DefaultClient, nil))

	rec := httptest.NewRecorder()
	h.Download(rec, postJSON("/api/download-gallery", `{"galleryName":"2024/Sommerfest","imageUrls":[]}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "Ungültige Parameter" {
		t.Errorf("error = %v", got)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("archive headers written for a rejected job")
	}
}

func TestDownloadGalleryMalformedBody(t *testing.T) {
	h := NewArchiveHandler(archive.NewService(http.DefaultClient, nil))

	rec := httptest.NewRecorder()
	h.Download(rec, postJSON("/api/download-gallery", `{"galleryName":`))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
