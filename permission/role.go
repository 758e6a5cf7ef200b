package permission

import (
	"errors"
	"strings"
)

// Role is an access-level tag carried by an identity.
type Role uint8

const (
	// RoleNone is assigned when the remote API reports a role this client does not know.
	// It is a member of no non-empty Set.
	RoleNone Role = iota
	RoleCustomer
	RoleSeller
	RoleAdmin
	roleCount
)

// ErrUnknownRole is returned by ParseRole for names outside the enum.
var ErrUnknownRole = errors.New("unknown role")

var roleNames = [...]string{
	RoleNone:     "None",
	RoleCustomer: "Customer",
	RoleSeller:   "Seller",
	RoleAdmin:    "Admin",
}

// Both array lengths must be non-negative, so roleNames and roleCount stay in step.
var (
	_ [len(roleNames) - int(roleCount)]struct{}
	_ [int(roleCount) - len(roleNames)]struct{}
)

// Roles returns every known role except RoleNone, in declaration order.
func Roles() []Role {
	out := make([]Role, 0, int(roleCount)-1)
	for r := RoleCustomer; r < roleCount; r++ {
		out = append(out, r)
	}
	return out
}

func (r Role) String() string {
	if r >= roleCount {
		return roleNames[RoleNone]
	}
	return roleNames[r]
}

// Valid reports whether r is a known role other than RoleNone.
func (r Role) Valid() bool {
	return r > RoleNone && r < roleCount
}

// ParseRole resolves a role name case-insensitively.
func ParseRole(name string) (Role, error) {
	name = strings.TrimSpace(name)
	for r := RoleCustomer; r < roleCount; r++ {
		if strings.EqualFold(roleNames[r], name) {
			return r, nil
		}
	}
	return RoleNone, ErrUnknownRole
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name. Unknown names decode to RoleNone rather than
// failing, so a payload with a newer server-side role still yields an identity.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		*r = RoleNone
		return nil
	}
	*r = parsed
	return nil
}
