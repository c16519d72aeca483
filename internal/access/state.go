package access

// StateKind tags the three shapes a membership lookup can take.
type StateKind int

const (
	// Absent means no membership row exists.
	Absent StateKind = iota
	// Removed means a row exists with role DELETED.
	Removed
	// Member means a row exists with a ranked role.
	Member
)

func (k StateKind) String() string {
	switch k {
	case Member:
		return "member"
	case Removed:
		return "deleted"
	default:
		return "absent"
	}
}

// State is the folded result of looking up a (user, calendar) membership.
type State struct {
	Kind StateKind
	Role Role
}

// StateOf folds a lookup result into a State. found is false when the
// store has no row; role is the stored role otherwise. A stored role that
// grants nothing (DELETED, or an unknown value) becomes Removed.
func StateOf(role Role, found bool) State {
	switch {
	case !found:
		return State{Kind: Absent, Role: None}
	case !role.Grants():
		return State{Kind: Removed, Role: Deleted}
	default:
		return State{Kind: Member, Role: role}
	}
}

// IsMember is false for both Absent and Removed.
func (s State) IsMember() bool {
	return s.Kind == Member
}

// Effective is the role used for rank comparisons. Absent and Removed
// both report None.
func (s State) Effective() Role {
	if !s.IsMember() {
		return None
	}
	return s.Role
}
