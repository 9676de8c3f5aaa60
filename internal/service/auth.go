package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Trinaxus/TON.BAND/internal/credential"
	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/repository"
	"github.com/Trinaxus/TON.BAND/internal/validation"
)

const SessionCookieName = "tubox_session"

var (
	ErrMissingCredentials = errors.New("email and password required")
	ErrEmailNotFound      = errors.New("email not found")
	ErrAccountProblem     = errors.New("account has no stored password")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrVerification       = errors.New("password verification failed")
	ErrInvalidSession     = errors.New("invalid session")
	ErrMissingFields      = errors.New("all fields are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already registered")
)

type sessionClaims struct {
	UserID    int        `json:"uid"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	SessionID string     `json:"sid"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepository repository.UserRepository
	legacy         *credential.LegacyAllowList
	emailService   *EmailService
	secret         []byte
	expiry         time.Duration
	isProduction   bool
	now            func() time.Time
}

// NewAuthService verifies logins against the user table. legacy may be nil.
func NewAuthService(
	userRepository repository.UserRepository,
	legacy *credential.LegacyAllowList,
	emailService *EmailService,
	secret string,
	expiry time.Duration,
	isProduction bool,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		legacy:         legacy,
		emailService:   emailService,
		secret:         []byte(secret),
		expiry:         expiry,
		isProduction:   isProduction,
		now:            time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.userRepository.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrEmailNotFound
		}
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	cred, err := credential.Parse(user.PasswordHash)
	if err != nil {
		slog.Warn("login for account without password", "user_id", user.ID)
		return nil, ErrAccountProblem
	}

	err = cred.Verify(password)
	switch {
	case err == nil:
	case errors.Is(err, credential.ErrMismatch):
		if !s.legacy.Allows(email, password) {
			return nil, ErrInvalidCredentials
		}
		slog.Warn("login accepted by legacy credential list", "email", email, "scheme", cred.Scheme)
	default:
		slog.Error("password verification failed", "error", err, "user_id", user.ID, "scheme", cred.Scheme)
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	principal := s.principal(user)
	slog.Info("user logged in", "user_id", user.ID, "role", principal.Role, "scheme", cred.Scheme)
	return principal, nil
}

func (s *AuthService) principal(user *model.User) *model.Principal {
	username := strings.TrimSpace(user.Username)
	if username == "" {
		username = "Benutzer"
	}
	now := s.now()
	return &model.Principal{
		UserID:    user.ID,
		Username:  username,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: newSessionID(now),
		Timestamp: now.UnixMilli(),
	}
}

// newSessionID returns session_<unix-ms>_<random base36>.
func newSessionID(now time.Time) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	random := strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 36)
	if len(random) > 9 {
		random = random[:9]
	}
	return fmt.Sprintf("session_%d_%s", now.UnixMilli(), random)
}

// IssueToken signs a session token for p.
func (s *AuthService) IssueToken(p *model.Principal) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID:    p.UserID,
		Username:  p.Username,
		Email:     p.Email,
		Role:      p.Role,
		SessionID: p.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(p.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) verifyToken(tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// Authenticate verifies a session token and reloads the user so the role
// always reflects the user table.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.Principal, error) {
	claims, err := s.verifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user %d no longer exists", ErrInvalidSession, claims.UserID)
		}
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	username := strings.TrimSpace(user.Username)
	if username == "" {
		username = "Benutzer"
	}
	var ts int64
	if claims.IssuedAt != nil {
		ts = claims.IssuedAt.UnixMilli()
	}
	return &model.Principal{
		UserID:    user.ID,
		Username:  username,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: claims.SessionID,
		Timestamp: ts,
	}, nil
}

func (s *AuthService) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.expiry.Seconds()),
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register creates a user with role user. The welcome mail is best effort.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, invalid(err)
	}

	users, err := s.userRepository.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if repository.FindByEmail(users, email) != nil {
		return nil, ErrEmailTaken
	}
	if repository.FindByUsername(users, username) != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := credential.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.userRepository.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.PasswordHash = ""

	if err := s.emailService.SendWelcomeEmail(ctx, user.Email, user.Username); err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}
	if err := s.emailService.SendRegistrationNotice(ctx, user.Username, user.Email); err != nil {
		slog.Warn("failed to send registration notice", "error", err, "user_id", user.ID)
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}
