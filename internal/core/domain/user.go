package domain

import (
	"slices"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultAdminUsername and DefaultAdminPassword seed the registry when neither
// the bootstrap source nor a persisted snapshot yields any user.
//
// SECURITY: the credential is fixed, short and numeric, and passwords are kept
// in plaintext. Both are known deficiencies kept for compatibility with
// existing deployments; changing them needs explicit sign-off.
const (
	DefaultAdminUsername    = "admin"
	DefaultAdminPassword    = "1234"
	DefaultAdminDisplayName = "Administrator"
)

// User models an account in the registry. Username is the immutable key.
type User struct {
	Username    string     `json:"username"`
	Password    string     `json:"password"`
	DisplayName string     `json:"displayName"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Permissions = slices.Clone(u.Permissions)
	if c.Permissions == nil {
		c.Permissions = []string{}
	}
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

// HasPermission reports whether perm is in the user's permission set.
func (u *User) HasPermission(perm string) bool {
	return slices.Contains(u.Permissions, perm)
}

// View is the redacted projection of u.
func (u *User) View() UserView {
	v := UserView{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		Permissions: slices.Clone(u.Permissions),
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
	}
	if v.Permissions == nil {
		v.Permissions = []string{}
	}
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		v.UpdatedAt = &t
	}
	return v
}

// UserView is a User without its password, returned by listing operations.
type UserView struct {
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// NewUser carries the data needed to register an account.
// An empty Role defaults to RoleUser.
type NewUser struct {
	Username    string   `validate:"required,max=64"`
	Password    string   `validate:"required"`
	DisplayName string   `validate:"max=128"`
	Role        string   `validate:"max=64"`
	Permissions []string `validate:"omitempty,dive,required"`
}

// UserPatch lists the updatable fields of a User. Nil fields are left
// untouched; a non-nil empty Permissions slice clears the set.
type UserPatch struct {
	Password    *string  `validate:"omitempty,min=1"`
	DisplayName *string  `validate:"omitempty,max=128"`
	Role        *string  `validate:"omitempty,min=1,max=64"`
	Permissions []string `validate:"omitempty,dive,required"`
	Active      *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Password == nil && p.DisplayName == nil && p.Role == nil &&
		p.Permissions == nil && p.Active == nil
}

// ApplyTo merges the present fields of p into u.
func (p UserPatch) ApplyTo(u *User) {
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Permissions != nil {
		u.Permissions = slices.Clone(p.Permissions)
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
}

// BootstrapUser is one entry of the bootstrap document, keyed by username.
type BootstrapUser struct {
	Password    string   `json:"password" yaml:"password" validate:"required"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Role        string   `json:"role" yaml:"role" validate:"required"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty" validate:"omitempty,dive,required"`
}

// RegistryOrigin tells where the registry contents came from on load.
type RegistryOrigin string

const (
	OriginRemote   RegistryOrigin = "remote"
	OriginSnapshot RegistryOrigin = "snapshot"
	OriginDefault  RegistryOrigin = "default"
)
