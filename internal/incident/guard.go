package incident

import "cityassist.org/internal/auth"

// Action is a guarded mutation on an incident.
type Action int

const (
	ActionAssign Action = iota
	ActionUpdateStatus
	ActionUpdateSeverity
)

// CanView reports whether the caller may read the incident. Decisions are a
// pure function of (role, userID, reporterID, assignedTo); the zero Identity
// stands for an unauthenticated caller and can see nothing.
func CanView(ident auth.Identity, inc *Incident) bool {
	if ident.UserID == "" {
		return false
	}
	switch ident.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleOperator:
		return inc.AssignedTo == ident.UserID
	case auth.RoleCitizen:
		return inc.ReporterID == ident.UserID
	default:
		return false
	}
}

// CanMutate reports whether the caller may apply the given action. ADMIN may
// do anything; OPERATOR may only update status on incidents assigned to them.
func CanMutate(ident auth.Identity, inc *Incident, action Action) bool {
	if ident.UserID == "" {
		return false
	}
	switch ident.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleOperator:
		return action == ActionUpdateStatus && inc.AssignedTo == ident.UserID
	default:
		return false
	}
}

// ScopeFor maps a caller identity onto its listing scope.
func ScopeFor(ident auth.Identity) Scope {
	if ident.UserID == "" {
		return Scope{Kind: ScopeNone}
	}
	switch ident.Role {
	case auth.RoleAdmin:
		return Scope{Kind: ScopeAll}
	case auth.RoleOperator:
		return Scope{Kind: ScopeAssigned, UserID: ident.UserID}
	case auth.RoleCitizen:
		return Scope{Kind: ScopeReporter, UserID: ident.UserID}
	default:
		return Scope{Kind: ScopeNone}
	}
}

// actorLabel is how a role appears as a timeline author.
func actorLabel(role auth.Role) string {
	switch role {
	case auth.RoleAdmin:
		return "admin"
	case auth.RoleOperator:
		return "operator"
	default:
		return "citizen"
	}
}
