package session

// Role is the part a peer plays in an online session.
type Role int

const (
	RoleNone  Role = iota // Offline play
	RoleHost              // Opened the room
	RoleGuest             // Joined the room
)

// String returns a human-readable name for the role.
func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleHost:
		return "host"
	case RoleGuest:
		return "guest"
	default:
		return "unknown"
	}
}
