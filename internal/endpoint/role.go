package endpoint

// Role fixes which side of the bus a Context sits on. It is set at
// construction and never changes.
type Role uint8

const (
	// RoleController initiates all transfers and has no bus address.
	RoleController Role = iota

	// RolePeripheral responds to controller-initiated transfers at a fixed
	// address.
	RolePeripheral
)

func (r Role) String() string {
	switch r {
	case RoleController:
		return "controller"
	case RolePeripheral:
		return "peripheral"
	default:
		return "unknown"
	}
}
