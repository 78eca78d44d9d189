package models

import (
	"strings"
	"time"
)

// Role is the closed set of account roles. Levels order them for permission checks.
type Role string

const (
	RoleUser     Role = "user"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// Level returns the role's position in the hierarchy (user=1, employee=2,
// admin=3) or 0 for anything outside the enumeration.
func (r Role) Level() int {
	switch r {
	case RoleUser:
		return 1
	case RoleEmployee:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

func (r Role) Valid() bool { return r.Level() > 0 }

// ParseRole accepts only the enumerated role names.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimSpace(s))
	return r, r.Valid()
}

// AllRoles lists roles in ascending order.
func AllRoles() []Role { return []Role{RoleUser, RoleEmployee, RoleAdmin} }

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool { return s == StatusActive || s == StatusInactive }

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.TrimSpace(s))
	return st, st.Valid()
}

// User is the single persisted account record.
type User struct {
	ID           int64     `bson:"id" db:"id" json:"id"`
	Name         string    `bson:"name" db:"name" json:"name"`
	Email        string    `bson:"email" db:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash,omitempty" db:"password_hash" json:"-"`
	Role         Role      `bson:"role" db:"role" json:"role"`
	Status       Status    `bson:"status" db:"status" json:"status"`
	Provider     string    `bson:"provider,omitempty" db:"provider" json:"provider,omitempty"`
	ProviderID   string    `bson:"providerId,omitempty" db:"provider_id" json:"providerId,omitempty"`
	Avatar       string    `bson:"avatar,omitempty" db:"avatar" json:"avatar,omitempty"`
	AvatarKey    string    `bson:"avatarKey,omitempty" db:"avatar_key" json:"-"`
	JoinedAt     time.Time `bson:"joinedAt" db:"joined_at" json:"joinedAt"`
	UpdatedAt    time.Time `bson:"updatedAt" db:"updated_at" json:"updatedAt"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool { return u.Status != StatusInactive }

// Sanitized returns a copy with secret fields cleared.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	cp.AvatarKey = ""
	return &cp
}

// NormalizeEmail trims and lower-cases an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
