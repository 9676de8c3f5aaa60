// Package gate decides whether a gallery's media may be shown to the current
// visitor or whether an access challenge has to be rendered instead.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Trinaxus/TON.BAND/internal/fileapi"
	"github.com/Trinaxus/TON.BAND/internal/model"
)

var (
	ErrPasswordRequired = errors.New("password required")
	ErrWrongPassword    = errors.New("wrong gallery password")
	ErrCheckUnavailable = errors.New("gallery access check unavailable")
)

// User-facing messages for the challenge overlay.
const (
	MsgPasswordRequired  = "Bitte gib ein Passwort ein."
	MsgWrongPassword     = "Falsches Passwort. Bitte versuche es erneut."
	MsgCheckUnavailable  = "Fehler bei der Passwortüberprüfung. Bitte versuche es später erneut."
	MsgCheckFailedClosed = "Zugriff konnte nicht geprüft werden. Bitte versuche es später erneut."
	MsgAdminsOnly        = "Nur für Administratoren"
	MsgGalleryLocked     = "Diese Galerie ist gesperrt."
)

type State string

const (
	StateChecking         State = "checking"
	StatePublic           State = "public"
	StatePasswordLocked   State = "password-locked"
	StatePasswordUnlocked State = "password-unlocked"
	StateInternalLocked   State = "internal-locked"
	StateInternalUnlocked State = "internal-unlocked"
	StateLocked           State = "locked"
)

// Unlocked reports whether media may be rendered.
func (s State) Unlocked() bool {
	switch s {
	case StatePublic, StatePasswordUnlocked, StateInternalUnlocked:
		return true
	}
	return false
}

// Decision is the outcome of one gate evaluation.
type Decision struct {
	Gallery string
	State   State
	Policy  model.AccessPolicy
	// Message is shown in the challenge overlay.
	Message string
	// Err is a swallowed policy lookup failure, kept for logging.
	Err error
}

// Checker answers password checks for a gallery. An empty password asks for
// the access policy only.
type Checker interface {
	VerifyPassword(ctx context.Context, gallery, password string) (*fileapi.VerifyResult, error)
}

// Tokens holds gallery auth tokens for the lifetime of a browser session.
type Tokens interface {
	Get(gallery string) (string, bool)
	Put(gallery, token string) error
}

type Gate struct {
	checker    Checker
	failClosed bool
}

type Option func(*Gate)

// FailClosed makes policy lookup failures render a locked challenge instead
// of the public gallery.
func FailClosed(v bool) Option {
	return func(g *Gate) { g.failClosed = v }
}

func New(checker Checker, opts ...Option) *Gate {
	g := &Gate{checker: checker}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TokenKey is the storage key for a gallery's token.
func TokenKey(gallery string) string {
	return "gallery_token_" + gallery
}

// Resolve runs the gate from the checking state to a terminal state.
func (g *Gate) Resolve(ctx context.Context, gallery string, principal *model.Principal, tokens Tokens) Decision {
	if tokens != nil {
		if tok, ok := tokens.Get(gallery); ok && tok != "" {
			return Decision{Gallery: gallery, State: StatePasswordUnlocked, Policy: model.AccessPassword}
		}
	}

	res, err := g.checker.VerifyPassword(ctx, gallery, "")
	if err != nil {
		if g.failClosed {
			slog.Warn("gallery access check failed, denying", "gallery", gallery, "error", err)
			return Decision{Gallery: gallery, State: StateLocked, Message: MsgCheckFailedClosed, Err: err}
		}
		slog.Warn("gallery access check failed, treating as public", "gallery", gallery, "error", err)
		return Decision{Gallery: gallery, State: StatePublic, Policy: model.AccessPublic, Err: err}
	}

	policy := PolicyOf(res)
	d := Decision{Gallery: gallery, Policy: policy}
	switch policy {
	case model.AccessPassword:
		d.State = StatePasswordLocked
	case model.AccessInternal:
		if principal.IsAdmin() {
			d.State = StateInternalUnlocked
		} else {
			d.State = StateInternalLocked
			d.Message = MsgAdminsOnly
		}
	case model.AccessLocked:
		d.State = StateLocked
		d.Message = MsgGalleryLocked
	default:
		d.State = StatePublic
	}
	return d
}

// Unlock submits a password from the password-locked state. On any failure the
// state stays password-locked and no token is written.
func (g *Gate) Unlock(ctx context.Context, gallery, password string, tokens Tokens) (Decision, error) {
	locked := Decision{Gallery: gallery, State: StatePasswordLocked, Policy: model.AccessPassword}

	if strings.TrimSpace(password) == "" {
		locked.Message = MsgPasswordRequired
		return locked, ErrPasswordRequired
	}

	res, err := g.checker.VerifyPassword(ctx, gallery, password)
	if err != nil {
		slog.Warn("gallery password check failed", "gallery", gallery, "error", err)
		locked.Message = MsgCheckUnavailable
		locked.Err = err
		return locked, ErrCheckUnavailable
	}
	if !res.Success {
		locked.Message = MsgWrongPassword
		return locked, ErrWrongPassword
	}

	if res.GalleryToken != "" && tokens != nil {
		if err := tokens.Put(gallery, res.GalleryToken); err != nil {
			return locked, err
		}
	}
	return Decision{Gallery: gallery, State: StatePasswordUnlocked, Policy: model.AccessPassword}, nil
}

// PolicyOf reads the policy from a check response. accessType wins over the
// legacy passwordProtected flag; unknown values count as public.
func PolicyOf(res *fileapi.VerifyResult) model.AccessPolicy {
	if res == nil {
		return model.AccessPublic
	}
	if res.AccessType != "" {
		p := model.AccessPolicy(strings.ToLower(res.AccessType))
		if p.Valid() {
			return p
		}
		slog.Warn("unknown gallery access type", "access_type", res.AccessType)
		return model.AccessPublic
	}
	if res.PasswordProtected != nil && *res.PasswordProtected {
		return model.AccessPassword
	}
	return model.AccessPublic
}
