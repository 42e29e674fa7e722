package enums

import "fmt"

// UserRole is the marketplace persona attached to every account.
type UserRole string

const (
	UserRoleFarmer   UserRole = "farmer"
	UserRoleConsumer UserRole = "consumer"
)

var validUserRoles = []UserRole{
	UserRoleFarmer,
	UserRoleConsumer,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
