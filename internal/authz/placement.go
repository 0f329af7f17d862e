package authz

import "github.com/google/uuid"

// Level identifies one tier of the four-level containment hierarchy.
type Level int

const (
	LevelService Level = iota
	LevelLine
	LevelTeam
	LevelPost
)

// Placement locates an actor or an action in the service → line → team →
// post hierarchy. The tuple is denormalized: every level is stored directly
// and is not re-derived from the canonical hierarchy. The data layer is
// responsible for keeping the levels mutually consistent; this package
// trusts the snapshot as given. uuid.Nil means the level is unset.
type Placement struct {
	ServiceID uuid.UUID
	LineID    uuid.UUID
	TeamID    uuid.UUID
	PostID    uuid.UUID
}

// At returns the identifier stored at the given level.
func (p Placement) At(level Level) uuid.UUID {
	switch level {
	case LevelService:
		return p.ServiceID
	case LevelLine:
		return p.LineID
	case LevelTeam:
		return p.TeamID
	case LevelPost:
		return p.PostID
	}
	return uuid.Nil
}

// Contains reports whether target sits under p at the given level. The
// comparison is a shallow identifier match: both sides must carry a value at
// the level, and absence never acts as a wildcard.
func (p Placement) Contains(target Placement, level Level) bool {
	a, b := p.At(level), target.At(level)
	if a == uuid.Nil || b == uuid.Nil {
		return false
	}
	return a == b
}
