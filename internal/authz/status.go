package authz

// Status is the action lifecycle state. The normal flow is identified →
// planned → in_progress → completed → validated; archived is reachable from
// any state by supervisor and above. late is an override state for actions
// past their due date that are not yet completed; it can be set manually by
// team leaders and above, or stamped by the background scan.
type Status string

const (
	StatusIdentified Status = "identified"
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusLate       Status = "late"
	StatusValidated  Status = "validated"
	StatusArchived   Status = "archived"
)

// ParseStatus maps a stored status value onto the enumeration.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusIdentified, StatusPlanned, StatusInProgress, StatusCompleted,
		StatusLate, StatusValidated, StatusArchived:
		return Status(s), true
	}
	return "", false
}

// Terminal reports whether no further user-initiated transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusValidated || s == StatusArchived
}

// ReadOnly reports whether the action is immutable for every role, admin
// included. Callers must apply this before consulting CanEdit; CanEdit
// itself only answers the role-scope question.
func (s Status) ReadOnly() bool {
	return s == StatusArchived
}
