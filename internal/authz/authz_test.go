package authz

import (
	"testing"

	"github.com/google/uuid"
)

var (
	userA = uuid.New()
	userB = uuid.New()
	userC = uuid.New()

	svc1  = uuid.New()
	svc2  = uuid.New()
	line1 = uuid.New()
	line2 = uuid.New()
	team1 = uuid.New()
	team2 = uuid.New()
)

func TestCanEditFailsClosedOnMissingIdentity(t *testing.T) {
	action := Action{PilotID: userA, Status: StatusInProgress}

	if CanEdit(Actor{Role: RoleAdmin}, action) {
		t.Fatal("actor without ID must be denied")
	}
	if CanEdit(Actor{ID: userA}, action) {
		t.Fatal("actor without role must be denied")
	}
	if CanEdit(Actor{Role: Role("superuser"), ID: userA}, action) {
		t.Fatal("unknown role must be denied")
	}
}

func TestCanEditOperator(t *testing.T) {
	placement := Placement{ServiceID: svc1, LineID: line1, TeamID: team1}
	action := Action{PilotID: userA, CreatedByID: userB, Status: StatusInProgress, Placement: placement}

	pilot := Actor{Role: RoleOperator, ID: userA}
	if !CanEdit(pilot, action) {
		t.Fatal("operator pilot must be allowed")
	}

	// Creator status grants nothing to operators.
	creator := Actor{Role: RoleOperator, ID: userB, Placement: placement}
	if CanEdit(creator, action) {
		t.Fatal("operator creator must be denied")
	}

	// Neither does a full scope match.
	colleague := Actor{Role: RoleOperator, ID: userC, Placement: placement}
	if CanEdit(colleague, action) {
		t.Fatal("operator with matching scope must be denied when not pilot")
	}
}

func TestCanEditTeamLeaderScope(t *testing.T) {
	action := Action{
		PilotID:     userA,
		CreatedByID: userA,
		Status:      StatusPlanned,
		Placement:   Placement{ServiceID: svc1, LineID: line1, TeamID: team1},
	}

	cases := []struct {
		name      string
		placement Placement
		want      bool
	}{
		{"team match", Placement{TeamID: team1}, true},
		{"line match with different team", Placement{LineID: line1, TeamID: team2}, true},
		{"service match only", Placement{ServiceID: svc1, LineID: line2, TeamID: team2}, true},
		{"no overlap", Placement{ServiceID: svc2, LineID: line2, TeamID: team2}, false},
		{"empty placement", Placement{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actor := Actor{Role: RoleTeamLeader, ID: userC, Placement: tc.placement}
			if got := CanEdit(actor, action); got != tc.want {
				t.Fatalf("CanEdit = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanEditSupervisorIgnoresTeamLevel(t *testing.T) {
	action := Action{
		PilotID:   userA,
		Status:    StatusInProgress,
		Placement: Placement{ServiceID: svc1, LineID: line1, TeamID: team1},
	}

	// Team matches but neither line nor service does: supervisors operate at
	// line granularity, so this is denied.
	actor := Actor{Role: RoleSupervisor, ID: userC, Placement: Placement{ServiceID: svc2, LineID: line2, TeamID: team1}}
	if CanEdit(actor, action) {
		t.Fatal("supervisor must not match at team level")
	}

	// Line match suffices even when the service differs.
	actor.Placement = Placement{ServiceID: svc2, LineID: line1}
	if !CanEdit(actor, action) {
		t.Fatal("supervisor with matching line must be allowed")
	}
}

func TestCanEditManagerMatchesServiceOnly(t *testing.T) {
	action := Action{
		PilotID:   userA,
		Status:    StatusInProgress,
		Placement: Placement{ServiceID: svc1, LineID: line1},
	}

	actor := Actor{Role: RoleManager, ID: userC, Placement: Placement{ServiceID: svc2, LineID: line1}}
	if CanEdit(actor, action) {
		t.Fatal("manager must not match at line level")
	}

	actor.Placement = Placement{ServiceID: svc1}
	if !CanEdit(actor, action) {
		t.Fatal("manager with matching service must be allowed")
	}
}

func TestCanEditPilotOverridesScopeMismatch(t *testing.T) {
	action := Action{
		PilotID:   userA,
		Status:    StatusInProgress,
		Placement: Placement{ServiceID: svc2},
	}
	actor := Actor{Role: RoleManager, ID: userA, Placement: Placement{ServiceID: svc1}}
	if !CanEdit(actor, action) {
		t.Fatal("pilot must be allowed regardless of scope mismatch")
	}
}

func TestCanEditAdminAlwaysAllowed(t *testing.T) {
	actor := Actor{Role: RoleAdmin, ID: userC}
	for _, placement := range []Placement{
		{},
		{ServiceID: svc1},
		{ServiceID: svc2, LineID: line2, TeamID: team2, PostID: uuid.New()},
	} {
		action := Action{PilotID: userA, CreatedByID: userB, Status: StatusInProgress, Placement: placement}
		if !CanEdit(actor, action) {
			t.Fatalf("admin must be allowed for placement %+v", placement)
		}
	}
}

func TestCanEditCreatorGrantsRolesAboveOperator(t *testing.T) {
	action := Action{
		PilotID:     userA,
		CreatedByID: userB,
		Status:      StatusIdentified,
		Placement:   Placement{ServiceID: svc1},
	}
	for _, role := range []Role{RoleTeamLeader, RoleSupervisor, RoleManager} {
		actor := Actor{Role: role, ID: userB, Placement: Placement{ServiceID: svc2}}
		if !CanEdit(actor, action) {
			t.Fatalf("%s creator must be allowed despite scope mismatch", role)
		}
	}
}

func TestPlacementContains(t *testing.T) {
	container := Placement{ServiceID: svc1, LineID: line1}
	target := Placement{ServiceID: svc1, LineID: line2, TeamID: team1}

	if !container.Contains(target, LevelService) {
		t.Fatal("expected service-level match")
	}
	if container.Contains(target, LevelLine) {
		t.Fatal("line identifiers differ")
	}
	// Absence is never a wildcard, on either side.
	if container.Contains(target, LevelTeam) {
		t.Fatal("container has no team")
	}
	if container.Contains(Placement{ServiceID: svc1}, LevelLine) {
		t.Fatal("target has no line")
	}
	if (Placement{}).Contains(Placement{}, LevelPost) {
		t.Fatal("two absent identifiers must not match")
	}
}
