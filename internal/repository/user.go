package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Trinaxus/TON.BAND/internal/config"
	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/tablestore"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// RowStore is the subset of the table store client the repositories use.
type RowStore interface {
	List(ctx context.Context, tableID string, opts tablestore.ListOptions) (*tablestore.Page, error)
	ListAll(ctx context.Context, tableID string, opts tablestore.ListOptions) ([]tablestore.Row, error)
	Get(ctx context.Context, tableID string, rowID int, userFieldNames bool) (tablestore.Row, error)
	Create(ctx context.Context, tableID string, data tablestore.Row, userFieldNames bool) (tablestore.Row, error)
	Update(ctx context.Context, tableID string, rowID int, data tablestore.Row, userFieldNames bool) (tablestore.Row, error)
	Delete(ctx context.Context, tableID string, rowID int) error
}

type UserRepository interface {
	All(ctx context.Context) ([]*model.User, error)
	ByID(ctx context.Context, id int) (*model.User, error)
	// ByEmail matches case-insensitively across the whole table.
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	// Update writes the profile fields, and the hash when PasswordHash is set.
	Update(ctx context.Context, user *model.User) error
	// UpdateRole writes the role column as given.
	UpdateRole(ctx context.Context, id int, role any) error
	Delete(ctx context.Context, id int) error
}

type userRepository struct {
	read    RowStore
	write   RowStore
	tableID string
	fields  config.UserFields
}

// NewUserRepository reads with read and writes with write, which may carry a
// different token.
func NewUserRepository(read, write RowStore, tableID string, fields config.UserFields) UserRepository {
	return &userRepository{read: read, write: write, tableID: tableID, fields: fields}
}

func (r *userRepository) All(ctx context.Context) ([]*model.User, error) {
	rows, err := r.read.ListAll(ctx, r.tableID, tablestore.ListOptions{UserFieldNames: true})
	if err != nil {
		return nil, err
	}
	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, r.toUser(row))
	}
	return users, nil
}

func (r *userRepository) ByID(ctx context.Context, id int) (*model.User, error) {
	row, err := r.read.Get(ctx, r.tableID, id, true)
	if errors.Is(err, tablestore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.toUser(row), nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	if u := FindByEmail(users, email); u != nil {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	row, err := r.write.Create(ctx, r.tableID, r.toRow(user, true), true)
	if err != nil {
		return err
	}
	user.ID = row.ID()
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	_, err := r.write.Update(ctx, r.tableID, user.ID, r.toRow(user, user.PasswordHash != ""), true)
	if errors.Is(err, tablestore.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (r *userRepository) UpdateRole(ctx context.Context, id int, role any) error {
	_, err := r.write.Update(ctx, r.tableID, id, tablestore.Row{r.fields.Role: role}, true)
	if errors.Is(err, tablestore.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (r *userRepository) Delete(ctx context.Context, id int) error {
	err := r.write.Delete(ctx, r.tableID, id)
	if errors.Is(err, tablestore.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (r *userRepository) toUser(row tablestore.Row) *model.User {
	return &model.User{
		ID:           row.ID(),
		Username:     row.String(r.fields.Username),
		Email:        row.String(r.fields.Email),
		PasswordHash: row.String(r.fields.Password),
		Role:         model.ParseRole(row[r.fields.Role]),
		RawRole:      row[r.fields.Role],
	}
}

func (r *userRepository) toRow(u *model.User, withPassword bool) tablestore.Row {
	row := tablestore.Row{
		r.fields.Username: u.Username,
		r.fields.Email:    u.Email,
		r.fields.Role:     string(u.Role),
	}
	if withPassword {
		row[r.fields.Password] = u.PasswordHash
	}
	return row
}

// FindByEmail returns the first user whose email matches case-insensitively.
func FindByEmail(users []*model.User, email string) *model.User {
	email = strings.TrimSpace(email)
	for _, u := range users {
		if strings.EqualFold(strings.TrimSpace(u.Email), email) {
			return u
		}
	}
	return nil
}

// FindByUsername returns the first user whose username matches case-insensitively.
func FindByUsername(users []*model.User, username string) *model.User {
	username = strings.TrimSpace(username)
	for _, u := range users {
		if strings.EqualFold(strings.TrimSpace(u.Username), username) {
			return u
		}
	}
	return nil
}
