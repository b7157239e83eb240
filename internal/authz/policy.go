package authz

import "strings"

// Role is the closed set of account roles ordered User < Admin < SuperUser.
type Role string

const (
	RoleUser      Role = "User"
	RoleAdmin     Role = "Admin"
	RoleSuperUser Role = "SuperUser"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleSuperUser:
		return Role(s), true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) rank() int {
	switch r {
	case RoleSuperUser:
		return 3
	case RoleAdmin:
		return 2
	case RoleUser:
		return 1
	}
	return 0
}

func (r Role) AtLeast(other Role) bool { return r.rank() >= other.rank() }

type Operation string

const (
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpRead   Operation = "read"
)

// Actor is the resolved identity of the caller, passed explicitly: the policy
// never reads ambient request state.
type Actor struct {
	ID    uint
	Email string
	Role  Role
}

// Target identifies the account an operation acts on.
type Target struct {
	ID    uint
	Email string
	Role  Role
}

// Policy is a pure decision function over the role matrix. The default
// SuperUser email is configuration-pinned and protected from deletion by
// everyone, itself included.
type Policy struct {
	DefaultSuperUserEmail string
}

func sameEmail(a, b string) bool { return strings.EqualFold(a, b) }

// CanActOn reports whether actor may perform op on target.
//
// A User updates accounts matching its id or its email, but deletes and reads
// only accounts matching its email. The asymmetry is inherited behavior; see
// DESIGN.md before unifying it.
func (p Policy) CanActOn(actor Actor, target Target, op Operation) bool {
	if op == OpDelete && target.Role == RoleSuperUser &&
		p.DefaultSuperUserEmail != "" && sameEmail(target.Email, p.DefaultSuperUserEmail) {
		return false
	}

	switch actor.Role {
	case RoleSuperUser:
		return true
	case RoleAdmin:
		return target.Role != RoleSuperUser
	case RoleUser:
		if op == OpUpdate {
			return actor.ID == target.ID || sameEmail(actor.Email, target.Email)
		}
		return sameEmail(actor.Email, target.Email)
	}
	return false
}

// CanRegisterRole reports whether actor may create an account holding role.
// Plain User registration is open; anything higher requires an authenticated
// SuperUser. An absent actor denies.
func (p Policy) CanRegisterRole(actor *Actor, role Role) bool {
	if role == RoleUser {
		return true
	}
	return actor != nil && actor.Role == RoleSuperUser
}

// CanListAccounts gates the account listing to Admin and above.
func (p Policy) CanListAccounts(actor Actor) bool {
	return actor.Role.AtLeast(RoleAdmin)
}
