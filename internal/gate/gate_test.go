package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Trinaxus/TON.BAND/internal/fileapi"
	"github.com/Trinaxus/TON.BAND/internal/model"
)

type fakeChecker struct {
	calls     int
	passwords []string
	result    func(password string) (*fileapi.VerifyResult, error)
}

func (f *fakeChecker) VerifyPassword(_ context.Context, _ string, password string) (*fileapi.VerifyResult, error) {
	f.calls++
	f.passwords = append(f.passwords, password)
	return f.result(password)
}

func policy(res *fileapi.VerifyResult) *fakeChecker {
	return &fakeChecker{result: func(string) (*fileapi.VerifyResult, error) { return res, nil }}
}

func boolPtr(b bool) *bool { return &b }

var admin = &model.Principal{Username: "studio", Role: model.RoleAdmin}
var member = &model.Principal{Username: "gast", Role: model.RoleUser}

func TestResolveCachedTokenSkipsNetwork(t *testing.T) {
	checker := policy(&fileapi.VerifyResult{AccessType: "password"})
	tokens := NewMemoryTokens()
	tokens.Put("2024/Sommerfest", "tok-123")

	d := New(checker).Resolve(context.Background(), "2024/Sommerfest", nil, tokens)
	if d.State != StatePasswordUnlocked {
		t.Errorf("state = %s, want %s", d.State, StatePasswordUnlocked)
	}
	if checker.calls != 0 {
		t.Errorf("checker called %d times, want 0", checker.calls)
	}
}

func TestResolvePolicies(t *testing.T) {
	tests := []struct {
		name      string
		res       *fileapi.VerifyResult
		principal *model.Principal
		want      State
	}{
		{"access public", &fileapi.VerifyResult{AccessType: "public"}, nil, StatePublic},
		{"legacy unprotected", &fileapi.VerifyResult{PasswordProtected: boolPtr(false)}, nil, StatePublic},
		{"no policy fields", &fileapi.VerifyResult{}, nil, StatePublic},
		{"access password", &fileapi.VerifyResult{AccessType: "password"}, nil, StatePasswordLocked},
		{"legacy protected", &fileapi.VerifyResult{PasswordProtected: boolPtr(true)}, nil, StatePasswordLocked},
		{"access type wins over legacy flag", &fileapi.VerifyResult{AccessType: "public", PasswordProtected: boolPtr(true)}, nil, StatePublic},
		{"internal anonymous", &fileapi.VerifyResult{AccessType: "internal"}, nil, StateInternalLocked},
		{"internal member", &fileapi.VerifyResult{AccessType: "internal"}, member, StateInternalLocked},
		{"internal admin", &fileapi.VerifyResult{AccessType: "internal"}, admin, StateInternalUnlocked},
		{"locked even for admin", &fileapi.VerifyResult{AccessType: "locked"}, admin, StateLocked},
		{"unknown access type", &fileapi.VerifyResult{AccessType: "secret-ish"}, nil, StatePublic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := policy(tt.res)
			d := New(checker).Resolve(context.Background(), "2024/Sommerfest", tt.principal, NewMemoryTokens())
			if d.State != tt.want {
				t.Errorf("state = %s, want %s", d.State, tt.want)
			}
			if checker.calls != 1 || checker.passwords[0] != "" {
				t.Errorf("expected one probe with empty password, got %v", checker.passwords)
			}
		})
	}
}

func TestResolveFailureModes(t *testing.T) {
	failing := &fakeChecker{result: func(string) (*fileapi.VerifyResult, error) {
		return nil, errors.New("connection refused")
	}}

	d := New(failing).Resolve(context.Background(), "2024/x", nil, NewMemoryTokens())
	if d.State != StatePublic || d.Err == nil {
		t.Errorf("fail-open: state = %s err = %v", d.State, d.Err)
	}

	d = New(failing, FailClosed(true)).Resolve(context.Background(), "2024/x", nil, NewMemoryTokens())
	if d.State != StateLocked || d.Message != MsgCheckFailedClosed {
		t.Errorf("fail-closed: state = %s message = %q", d.State, d.Message)
	}
	if d.State.Unlocked() {
		t.Error("fail-closed decision must not unlock")
	}
}

func TestUnlockWrongPasswordIsIdempotent(t *testing.T) {
	checker := &fakeChecker{result: func(pw string) (*fileapi.VerifyResult, error) {
		return &fileapi.VerifyResult{Success: pw == "richtig", GalleryToken: "tok"}, nil
	}}
	g := New(checker)
	tokens := NewMemoryTokens()

	for i := 0; i < 3; i++ {
		d, err := g.Unlock(context.Background(), "2024/x", "falsch", tokens)
		if !errors.Is(err, ErrWrongPassword) {
			t.Fatalf("attempt %d: err = %v", i, err)
		}
		if d.State != StatePasswordLocked || d.Message != MsgWrongPassword {
			t.Fatalf("attempt %d: decision = %+v", i, d)
		}
	}
	if tokens.Puts() != 0 {
		t.Errorf("token store written %d times on failures", tokens.Puts())
	}
}

func TestUnlockSuccessStoresToken(t *testing.T) {
	checker := &fakeChecker{result: func(pw string) (*fileapi.VerifyResult, error) {
		return &fileapi.VerifyResult{Success: true, GalleryToken: "tok-abc"}, nil
	}}
	g := New(checker)
	tokens := NewMemoryTokens()

	d, err := g.Unlock(context.Background(), "2024/Sommerfest", "richtig", tokens)
	if err != nil {
		t.Fatal(err)
	}
	if d.State != StatePasswordUnlocked {
		t.Errorf("state = %s", d.State)
	}
	if tok, _ := tokens.Get("2024/Sommerfest"); tok != "tok-abc" {
		t.Errorf("token = %q", tok)
	}

	// The next render uses the cached token.
	calls := checker.calls
	d = g.Resolve(context.Background(), "2024/Sommerfest", nil, tokens)
	if d.State != StatePasswordUnlocked || checker.calls != calls {
		t.Errorf("resolve after unlock: state = %s, extra calls = %d", d.State, checker.calls-calls)
	}
}

func TestUnlockBlankAndUnavailable(t *testing.T) {
	checker := &fakeChecker{result: func(string) (*fileapi.VerifyResult, error) {
		return nil, errors.New("timeout")
	}}
	g := New(checker)

	if _, err := g.Unlock(context.Background(), "2024/x", "   ", NewMemoryTokens()); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("blank: err = %v", err)
	}
	if checker.calls != 0 {
		t.Error("blank password must not reach the checker")
	}

	d, err := g.Unlock(context.Background(), "2024/x", "pw", NewMemoryTokens())
	if !errors.Is(err, ErrCheckUnavailable) || d.State != StatePasswordLocked {
		t.Errorf("unavailable: state = %s err = %v", d.State, err)
	}
}

func TestCookieStoreRoundTrip(t *testing.T) {
	store := NewCookieStore("test-secret-test-secret-test-secret", false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/galerie/2024/Sommerfest/unlock", nil)
	if err := store.For(rec, req).Put("2024/Sommerfest", "tok-1"); err != nil {
		t.Fatal(err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "tubox_gallery" {
		t.Fatalf("cookies = %v", cookies)
	}
	if cookies[0].MaxAge != 0 || !cookies[0].HttpOnly {
		t.Errorf("cookie must be a browser-session HttpOnly cookie: %+v", cookies[0])
	}

	next := httptest.NewRequest(http.MethodGet, "/galerie/2024/Sommerfest", nil)
	next.AddCookie(cookies[0])
	tok, ok := store.For(httptest.NewRecorder(), next).Get("2024/Sommerfest")
	if !ok || tok != "tok-1" {
		t.Errorf("Get = %q, %v", tok, ok)
	}

	other := NewCookieStore("a-different-secret-a-different-secret", false)
	if _, ok := other.For(httptest.NewRecorder(), next).Get("2024/Sommerfest"); ok {
		t.Error("cookie accepted under a different secret")
	}
}
