package enums

import "fmt"

// ShareStatus tracks the invitation handshake of a share grant.
type ShareStatus string

const (
	ShareStatusPending  ShareStatus = "pending"
	ShareStatusAccepted ShareStatus = "accepted"
)

var validShareStatuses = []ShareStatus{
	ShareStatusPending,
	ShareStatusAccepted,
}

// String implements fmt.Stringer.
func (s ShareStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShareStatus.
func (s ShareStatus) IsValid() bool {
	for _, candidate := range validShareStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShareStatus converts raw input into a ShareStatus.
func ParseShareStatus(value string) (ShareStatus, error) {
	for _, candidate := range validShareStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid share status %q", value)
}
