package authz

import "github.com/google/uuid"

// Actor is the authenticated user as seen by an authorization decision.
// Built once per session from the user profile and treated as immutable for
// the duration of a single check.
type Actor struct {
	Role      Role
	ID        uuid.UUID
	Placement Placement
}

// Action is the read-only snapshot of the work item being protected.
type Action struct {
	PilotID     uuid.UUID
	CreatedByID uuid.UUID
	Status      Status
	Placement   Placement
}

// CanEdit decides whether the actor may open the action for editing at all.
// It does not decide which fields are editable; that is Capabilities.
//
// Each role carries its own rule and the asymmetry is deliberate:
// an operator edits only as pilot, a team leader matches down to team level,
// a supervisor down to line level, a manager only at service level. Pilot or
// creator status short-circuits the scope check for every role above
// operator. Missing role or actor ID denies.
//
// Precondition: callers must treat an archived action as read-only before
// consulting this function; CanEdit answers only the role-scope question.
func CanEdit(actor Actor, action Action) bool {
	if !actor.Role.Valid() || actor.ID == uuid.Nil {
		return false
	}

	isPilot := action.PilotID != uuid.Nil && action.PilotID == actor.ID
	isCreator := action.CreatedByID != uuid.Nil && action.CreatedByID == actor.ID

	switch actor.Role {
	case RoleOperator:
		// Creator status grants nothing to an operator; only the current
		// pilot assignment does.
		return isPilot
	case RoleTeamLeader:
		if isPilot || isCreator {
			return true
		}
		return actor.Placement.Contains(action.Placement, LevelTeam) ||
			actor.Placement.Contains(action.Placement, LevelLine) ||
			actor.Placement.Contains(action.Placement, LevelService)
	case RoleSupervisor:
		if isPilot || isCreator {
			return true
		}
		return actor.Placement.Contains(action.Placement, LevelLine) ||
			actor.Placement.Contains(action.Placement, LevelService)
	case RoleManager:
		if isPilot || isCreator {
			return true
		}
		return actor.Placement.Contains(action.Placement, LevelService)
	case RoleAdmin:
		return true
	}
	return false
}

// IsPilot reports whether the actor is the action's current pilot. The same
// predicate CanEdit uses, exposed because the capability table keys on it.
func IsPilot(actor Actor, action Action) bool {
	return action.PilotID != uuid.Nil && action.PilotID == actor.ID
}
