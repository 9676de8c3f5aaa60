package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Select option ids used by the user table before roles were stored as text.
const (
	RoleOptionAdmin = 2853
	RoleOptionUser  = 2854
)

// ParseRole normalizes the role column, which may hold a string, a numeric
// option id or a select object {"id":2853,"value":"admin"}.
func ParseRole(v any) Role {
	switch r := v.(type) {
	case string:
		s := strings.ToLower(strings.TrimSpace(r))
		if s == string(RoleAdmin) || s == strconv.Itoa(RoleOptionAdmin) {
			return RoleAdmin
		}
	case float64:
		if int(r) == RoleOptionAdmin {
			return RoleAdmin
		}
	case int:
		if r == RoleOptionAdmin {
			return RoleAdmin
		}
	case json.Number:
		if r.String() == strconv.Itoa(RoleOptionAdmin) {
			return RoleAdmin
		}
	case map[string]any:
		if val, ok := r["value"]; ok && ParseRole(val) == RoleAdmin {
			return RoleAdmin
		}
		if id, ok := r["id"]; ok {
			return ParseRole(id)
		}
	}
	return RoleUser
}

// User is a row of the user table.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	// RawRole is the role column as stored, before normalization.
	RawRole any `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal is the identity carried by the session token.
type Principal struct {
	UserID    int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
