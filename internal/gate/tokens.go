package gate

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"
	"github.com/zeebo/blake3"
)

const sessionName = "tubox_gallery"

// MemoryTokens is an in-process Tokens implementation.
type MemoryTokens struct {
	mu     sync.Mutex
	tokens map[string]string
	puts   int
}

func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{tokens: make(map[string]string)}
}

func (m *MemoryTokens) Get(gallery string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.tokens[TokenKey(gallery)]
	return tok, ok
}

func (m *MemoryTokens) Put(gallery, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[TokenKey(gallery)] = token
	m.puts++
	return nil
}

// Puts counts writes.
func (m *MemoryTokens) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// CookieStore keeps gallery tokens in a signed and encrypted cookie that
// expires with the browser session.
type CookieStore struct {
	store *sessions.CookieStore
}

// NewCookieStore derives the cookie hash and block keys from secret.
func NewCookieStore(secret string, secure bool) *CookieStore {
	hashKey := make([]byte, 64)
	blockKey := make([]byte, 32)
	blake3.DeriveKey("tonband gallery cookie 2024 hash key", []byte(secret), hashKey)
	blake3.DeriveKey("tonband gallery cookie 2024 block key", []byte(secret), blockKey)

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.MaxAge(0)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return &CookieStore{store: store}
}

// For binds the store to one request. Put writes the Set-Cookie header, so it
// must run before the response body is written.
func (c *CookieStore) For(w http.ResponseWriter, r *http.Request) Tokens {
	sess, err := c.store.Get(r, sessionName)
	if err != nil {
		// A cookie from a rotated secret; start over with the fresh session.
		sess.Values = map[interface{}]interface{}{}
	}
	return &cookieTokens{w: w, r: r, sess: sess}
}

type cookieTokens struct {
	w    http.ResponseWriter
	r    *http.Request
	sess *sessions.Session
}

func (t *cookieTokens) Get(gallery string) (string, bool) {
	tok, ok := t.sess.Values[TokenKey(gallery)].(string)
	return tok, ok
}

func (t *cookieTokens) Put(gallery, token string) error {
	t.sess.Values[TokenKey(gallery)] = token
	if err := t.sess.Save(t.r, t.w); err != nil {
		return fmt.Errorf("failed to save gallery session: %w", err)
	}
	return nil
}
