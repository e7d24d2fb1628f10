package enums

// Capability is an atomic permission checked before touching a shopping list.
type Capability string

const (
	CapabilityRead  Capability = "read"
	CapabilityWrite Capability = "write"
)

func (c Capability) String() string {
	return string(c)
}
