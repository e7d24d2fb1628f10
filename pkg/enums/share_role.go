package enums

import "fmt"

// ShareRole is the role granted to a non-owner on a shopping list.
type ShareRole string

const (
	ShareRoleViewer ShareRole = "viewer"
	ShareRoleEditor ShareRole = "editor"
)

var validShareRoles = []ShareRole{
	ShareRoleViewer,
	ShareRoleEditor,
}

var shareRoleCapabilities = map[ShareRole][]Capability{
	ShareRoleViewer: {CapabilityRead},
	ShareRoleEditor: {CapabilityRead, CapabilityWrite},
}

// String implements fmt.Stringer.
func (r ShareRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ShareRole.
func (r ShareRole) IsValid() bool {
	for _, candidate := range validShareRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Allows reports whether the role's capability set contains the capability.
func (r ShareRole) Allows(capability Capability) bool {
	for _, granted := range shareRoleCapabilities[r] {
		if granted == capability {
			return true
		}
	}
	return false
}

// ParseShareRole converts raw input into a ShareRole.
func ParseShareRole(value string) (ShareRole, error) {
	for _, candidate := range validShareRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid share role %q", value)
}
