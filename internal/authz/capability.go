package authz

// CapabilitySet is the resolved field-level permission object for one actor
// against one action. It is derived on every query and never persisted. The
// presentation layer uses it to gate individual form controls and to
// restrict the status selector to AllowedStatusTransitions; the actions
// service re-enforces the same set server-side.
type CapabilitySet struct {
	CanEditStatus         bool
	CanEditProgress       bool
	CanAddAttachments     bool
	CanEditCreationFields bool
	CanEditEfficiency     bool
	CanValidate           bool

	AllowedStatusTransitions []Status
	RoleLabel                string
}

// Allows reports whether the set permits transitioning into the status.
func (c CapabilitySet) Allows(status Status) bool {
	if !c.CanEditStatus {
		return false
	}
	for _, s := range c.AllowedStatusTransitions {
		if s == status {
			return true
		}
	}
	return false
}

var (
	pilotTransitions      = []Status{StatusIdentified, StatusPlanned, StatusInProgress, StatusCompleted}
	teamLeaderTransitions = []Status{StatusIdentified, StatusPlanned, StatusInProgress, StatusCompleted, StatusLate}
	fullTransitions       = []Status{StatusIdentified, StatusPlanned, StatusInProgress, StatusCompleted, StatusLate, StatusValidated, StatusArchived}
)

// Capabilities resolves the static capability table for a role. The operator
// row bifurcates on pilot status, so the lookup keys on (role, isPilot)
// rather than role alone; isPilot is the same predicate CanEdit evaluates.
// An unknown role resolves to the all-false read-only set rather than an
// error.
func Capabilities(role Role, isPilot bool) CapabilitySet {
	switch role {
	case RoleOperator:
		if !isPilot {
			return readOnlySet(role)
		}
		return CapabilitySet{
			CanEditStatus:            true,
			CanEditProgress:          true,
			CanAddAttachments:        true,
			AllowedStatusTransitions: clone(pilotTransitions),
			RoleLabel:                role.Label(),
		}
	case RoleTeamLeader:
		return CapabilitySet{
			CanEditStatus:            true,
			CanEditProgress:          true,
			CanAddAttachments:        true,
			CanEditCreationFields:    true,
			AllowedStatusTransitions: clone(teamLeaderTransitions),
			RoleLabel:                role.Label(),
		}
	case RoleSupervisor, RoleManager, RoleAdmin:
		return CapabilitySet{
			CanEditStatus:            true,
			CanEditProgress:          true,
			CanAddAttachments:        true,
			CanEditCreationFields:    true,
			CanEditEfficiency:        true,
			CanValidate:              true,
			AllowedStatusTransitions: clone(fullTransitions),
			RoleLabel:                role.Label(),
		}
	}
	return readOnlySet(role)
}

// Resolve combines the edit decision and the capability lookup for one
// actor/action pair. A denied actor, or any archived action, resolves to the
// read-only set.
func Resolve(actor Actor, action Action) CapabilitySet {
	if action.Status.ReadOnly() || !CanEdit(actor, action) {
		return readOnlySet(actor.Role)
	}
	return Capabilities(actor.Role, IsPilot(actor, action))
}

func readOnlySet(role Role) CapabilitySet {
	return CapabilitySet{RoleLabel: role.Label()}
}

func clone(statuses []Status) []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}
