package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Trinaxus/TON.BAND/internal/credential"
	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/repository"
	"github.com/Trinaxus/TON.BAND/internal/validation"
)

var (
	ErrEmailInUse = errors.New("email used by another account")
	ErrDeleteSelf = errors.New("cannot delete own account")
)

// UserInput is the admin form for a user row. Password may be empty on update.
type UserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserService struct {
	userRepository repository.UserRepository
}

func NewUserService(userRepository repository.UserRepository) *UserService {
	return &UserService{
		userRepository: userRepository,
	}
}

func (s *UserService) List(ctx context.Context) ([]*model.User, error) {
	return s.userRepository.All(ctx)
}

func (s *UserService) ByID(ctx context.Context, id int) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*model.User, error) {
	in = normalizeUserInput(in)
	if in.Username == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		return nil, ErrMissingFields
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, invalid(err)
	}

	users, err := s.userRepository.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if repository.FindByEmail(users, in.Email) != nil {
		return nil, ErrEmailInUse
	}

	hash, err := credential.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.ParseRole(in.Role),
	}
	if err := s.userRepository.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.PasswordHash = ""

	slog.Info("user created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int, in UserInput) (*model.User, error) {
	in = normalizeUserInput(in)
	if in.Username == "" || in.Email == "" {
		return nil, ErrMissingFields
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, invalid(err)
	}

	users, err := s.userRepository.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	var existing *model.User
	for _, u := range users {
		if u.ID == id {
			existing = u
			break
		}
	}
	if existing == nil {
		return nil, repository.ErrUserNotFound
	}
	if other := repository.FindByEmail(users, in.Email); other != nil && other.ID != id {
		return nil, ErrEmailInUse
	}

	user := &model.User{
		ID:       id,
		Username: in.Username,
		Email:    in.Email,
		Role:     existing.Role,
	}
	if in.Role != "" {
		user.Role = model.ParseRole(in.Role)
	}
	if in.Password != "" {
		if err := validation.ValidatePassword(in.Password); err != nil {
			return nil, invalid(err)
		}
		hash, err := credential.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if err := s.userRepository.Update(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""

	slog.Info("user updated", "user_id", id, "role", user.Role, "password_changed", in.Password != "")
	return user, nil
}

// Delete removes a user. actorID is the admin performing the deletion.
func (s *UserService) Delete(ctx context.Context, id, actorID int) error {
	if id == actorID {
		return ErrDeleteSelf
	}
	if err := s.userRepository.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("user deleted", "user_id", id, "by", actorID)
	return nil
}

func normalizeUserInput(in UserInput) UserInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Role = strings.TrimSpace(strings.ToLower(in.Role))
	return in
}
