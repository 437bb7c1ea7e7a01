package role

import "fmt"

// Role is the privilege level of an authenticated session. The zero value is
// Unresolved; a successful resolution never yields it.
type Role int

const (
	Unresolved Role = iota
	Customer
	Provider
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case Customer:
		return "customer"
	case Provider:
		return "provider"
	case Unresolved:
		return "unresolved"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Parse maps a backend role string to a Role. Unknown strings are reported
// with ok=false so callers can apply the least-privilege default.
func Parse(s string) (Role, bool) {
	switch s {
	case "customer":
		return Customer, true
	case "provider":
		return Provider, true
	}
	return Unresolved, false
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, ok := Parse(string(b))
	if !ok {
		return fmt.Errorf("unknown role %q", string(b))
	}
	*r = parsed
	return nil
}

// Status describes how far role resolution got for a session.
type Status int

const (
	// NotApplicable means no identity was present; it is not a role.
	NotApplicable Status = iota
	Loading
	Resolved
	Errored
)

func (s Status) String() string {
	switch s {
	case NotApplicable:
		return "not_applicable"
	case Loading:
		return "loading"
	case Resolved:
		return "resolved"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "not_applicable":
		*s = NotApplicable
	case "loading":
		*s = Loading
	case "resolved":
		*s = Resolved
	case "errored":
		*s = Errored
	default:
		return fmt.Errorf("unknown resolution status %q", string(b))
	}
	return nil
}

// Resolution is the outcome of resolving a session's role.
type Resolution struct {
	Status Status
	Role   Role
}
