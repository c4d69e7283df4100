package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Role is the closed set of user roles. The zero value is invalid.
type Role int

const (
	RoleAdmin Role = iota + 1
	RoleNormalUser
	RoleOwner
)

var roleNames = map[Role]string{
	RoleAdmin:      "Admin",
	RoleNormalUser: "Normal User",
	RoleOwner:      "Owner",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return ""
}

func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole accepts the stored names and the short client aliases, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "owner":
		return RoleOwner, nil
	case "user", "normal user", "normaluser":
		return RoleNormalUser, nil
	}
	return 0, fmt.Errorf("invalid role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.IsValid() {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role under its canonical name.
func (r Role) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type Roles []Role

func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}
