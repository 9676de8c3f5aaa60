package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Trinaxus/TON.BAND/internal/credential"
	"github.com/Trinaxus/TON.BAND/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func hashFor(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func newTestAuth(users *fakeUsers, legacy *credential.LegacyAllowList) *AuthService {
	email := NewEmailService("", "noreply@example.com", "", "http://localhost", "TONBAND", true)
	return NewAuthService(users, legacy, email, testSecret, 24*time.Hour, false)
}

func TestLoginChain(t *testing.T) {
	users := newFakeUsers(
		&model.User{ID: 1, Username: "Tina", Email: "Tina@TonBand.de", PasswordHash: hashFor(t, "richtig123"), Role: model.RoleAdmin},
		&model.User{ID: 2, Username: "", Email: "alt@example.com", PasswordHash: "$2y$10$geheimnis", Role: model.RoleUser},
		&model.User{ID: 3, Username: "Plain", Email: "plain@example.com", PasswordHash: "klartext", Role: model.RoleUser},
		&model.User{ID: 4, Username: "Leer", Email: "leer@example.com", PasswordHash: "", Role: model.RoleUser},
	)
	auth := newTestAuth(users, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
		wantID   int
	}{
		{"missing password", "tina@tonband.de", "", ErrMissingCredentials, 0},
		{"missing email", " ", "x", ErrMissingCredentials, 0},
		{"unknown email", "nobody@example.com", "x", ErrEmailNotFound, 0},
		{"empty stored password", "leer@example.com", "x", ErrAccountProblem, 0},
		{"bcrypt match case-insensitive email", " tina@tonband.de ", "richtig123", nil, 1},
		{"bcrypt mismatch", "tina@tonband.de", "falsch", ErrInvalidCredentials, 0},
		{"stripped bcrypt prefix", "alt@example.com", "geheimnis", nil, 2},
		{"stripped bcrypt with full value", "alt@example.com", "$2y$10$geheimnis", ErrInvalidCredentials, 0},
		{"plaintext", "plain@example.com", "klartext", nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := auth.Login(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if p.UserID != tt.wantID {
				t.Errorf("UserID = %d, want %d", p.UserID, tt.wantID)
			}
			if !strings.HasPrefix(p.SessionID, "session_") {
				t.Errorf("SessionID = %q", p.SessionID)
			}
		})
	}

	p, _ := auth.Login(ctx, "alt@example.com", "geheimnis")
	if p.Username != "Benutzer" {
		t.Errorf("default username = %q", p.Username)
	}
}

func TestLoginLegacyShim(t *testing.T) {
	users := newFakeUsers(&model.User{ID: 1, Username: "A", Email: "a@example.com", PasswordHash: hashFor(t, "neu-passwort"), Role: model.RoleUser})
	legacy := &credential.LegacyAllowList{Users: map[string]string{"a@example.com": "alt-passwort"}}

	if _, err := newTestAuth(users, nil).Login(context.Background(), "a@example.com", "alt-passwort"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("without shim err = %v", err)
	}
	if _, err := newTestAuth(users, legacy).Login(context.Background(), "a@example.com", "alt-passwort"); err != nil {
		t.Fatalf("with shim err = %v", err)
	}
	if _, err := newTestAuth(users, legacy).Login(context.Background(), "a@example.com", "anderes"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("shim accepted unknown password: %v", err)
	}
}

func TestLoginStoreError(t *testing.T) {
	users := newFakeUsers()
	users.err = errors.New("table store down")
	_, err := newTestAuth(users, nil).Login(context.Background(), "a@example.com", "x")
	if err == nil || errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}

func TestSessionTokenReloadsRole(t *testing.T) {
	users := newFakeUsers(&model.User{ID: 7, Username: "Gast", Email: "gast@example.com", PasswordHash: "pw", Role: model.RoleUser})
	auth := newTestAuth(users, nil)
	ctx := context.Background()

	p, err := auth.Login(ctx, "gast@example.com", "pw")
	if err != nil {
		t.Fatal(err)
	}
	token, err := auth.IssueToken(p)
	if err != nil {
		t.Fatal(err)
	}

	got, err := auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsAdmin() || got.SessionID != p.SessionID {
		t.Errorf("principal = %+v", got)
	}

	users.setRole(7, model.RoleAdmin)
	got, err = auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsAdmin() {
		t.Error("role change in the user table was not picked up")
	}

	users.Delete(ctx, 7)
	if _, err := auth.Authenticate(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("deleted user err = %v", err)
	}
}

func TestSessionTokenRejected(t *testing.T) {
	users := newFakeUsers(&model.User{ID: 7, Username: "Gast", Email: "gast@example.com", Role: model.RoleUser})
	auth := newTestAuth(users, nil)
	p := &model.Principal{UserID: 7, Role: model.RoleAdmin, SessionID: "session_1_a"}
	token, _ := auth.IssueToken(p)

	other := NewAuthService(users, nil, nil, "another-secret-another-secret-xx", time.Hour, false)
	if _, err := other.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("foreign signature err = %v", err)
	}

	if _, err := auth.Authenticate(context.Background(), "eyJhbGciOiJub25lIn0.eyJ1aWQiOjd9."); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("alg none err = %v", err)
	}

	later := newTestAuth(users, nil)
	later.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, err := later.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expired err = %v", err)
	}
}

func TestSessionCookie(t *testing.T) {
	auth := NewAuthService(newFakeUsers(), nil, nil, testSecret, 24*time.Hour, true)
	rec := httptest.NewRecorder()
	auth.SetSessionCookie(rec, "tok")

	res := rec.Result()
	cookies := res.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %v", cookies)
	}
	c := cookies[0]
	if c.Name != "tubox_session" || c.MaxAge != 86400 || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("cookie = %+v", c)
	}
}

func TestRegister(t *testing.T) {
	users := newFakeUsers(&model.User{ID: 1, Username: "Tina", Email: "tina@tonband.de", Role: model.RoleAdmin})
	auth := newTestAuth(users, nil)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "", "x@example.com", "langespasswort"); !errors.Is(err, ErrMissingFields) {
		t.Errorf("missing = %v", err)
	}
	if _, err := auth.Register(ctx, "Neu", "TINA@tonband.de", "langespasswort"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email = %v", err)
	}
	if _, err := auth.Register(ctx, "tina", "neu@example.com", "langespasswort"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate username = %v", err)
	}
	var verr *ValidationError
	if _, err := auth.Register(ctx, "Neu", "neu@example.com", "kurz"); !errors.As(err, &verr) {
		t.Errorf("short password = %v", err)
	}

	u, err := auth.Register(ctx, "Neu", "Neu@Example.com", "langespasswort")
	if err != nil {
		t.Fatal(err)
	}
	if u.Role != model.RoleUser || u.Email != "neu@example.com" || u.PasswordHash != "" {
		t.Errorf("user = %+v", u)
	}
	stored, _ := users.ByID(ctx, u.ID)
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("langespasswort")) != nil {
		t.Error("stored password is not a bcrypt hash of the input")
	}
}
