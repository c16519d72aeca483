// Package access defines the calendar role hierarchy.
//
// Roles form one strict order:
//
//	ADMINISTRATOR > ORGANIZER > MODERATOR > VIEWER
//
// DELETED and None sit below VIEWER and compare equal to each other: a
// membership row marked DELETED grants exactly what no row grants.
//
// Nothing outside this file looks at the numeric rank. Use AtLeast,
// Outranks and Same.
package access

import (
	"fmt"
	"strings"
)

// Role is a per-calendar permission level.
type Role string

const (
	Administrator Role = "ADMINISTRATOR"
	Organizer     Role = "ORGANIZER"
	Moderator     Role = "MODERATOR"
	Viewer        Role = "VIEWER"

	// Deleted marks a membership row that was logically removed.
	Deleted Role = "DELETED"
	// None is the absence of any membership row.
	None Role = ""
)

// rank maps a role onto the order. Unknown strings fall to the bottom with
// Deleted and None.
func rank(r Role) int {
	switch r {
	case Administrator:
		return 4
	case Organizer:
		return 3
	case Moderator:
		return 2
	case Viewer:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r ranks greater than or equal to min.
func (r Role) AtLeast(min Role) bool {
	return rank(r) >= rank(min)
}

// Outranks reports whether r ranks strictly above other.
func (r Role) Outranks(other Role) bool {
	return rank(r) > rank(other)
}

// Same reports whether both roles sit at the same rank. Deleted and None
// are the same.
func (r Role) Same(other Role) bool {
	return rank(r) == rank(other)
}

// Grants reports whether the role gives any access at all.
func (r Role) Grants() bool {
	return rank(r) > 0
}

func (r Role) String() string {
	if r == None {
		return "NONE"
	}
	return string(r)
}

// Valid reports whether r is one of the named roles, including Deleted.
func (r Role) Valid() bool {
	switch r {
	case Administrator, Organizer, Moderator, Viewer, Deleted:
		return true
	}
	return false
}

// ParseRole converts caller input into a Role. Input is matched
// case-insensitively; anything other than the four ranked roles and
// DELETED is rejected.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return None, fmt.Errorf("access: unknown role %q", s)
	}
	return r, nil
}

// Assignable lists the roles that can be stored on a membership row, from
// highest to lowest.
func Assignable() []Role {
	return []Role{Administrator, Organizer, Moderator, Viewer, Deleted}
}
