// Package catalog holds the static role and career definitions the rest of
// the game core builds on. Nothing in here carries per-match state.
package catalog

import "fmt"

// Role is a player's hidden faction/ability assignment.
type Role int

const (
	RoleUnassigned Role = iota
	RoleVillager
	RoleMafia
	RoleDoctor
	RoleInvestigator
)

// String returns the string representation of a Role
func (r Role) String() string {
	switch r {
	case RoleUnassigned:
		return "Unassigned"
	case RoleVillager:
		return "Villager"
	case RoleMafia:
		return "Mafia"
	case RoleDoctor:
		return "Doctor"
	case RoleInvestigator:
		return "Investigator"
	default:
		return fmt.Sprintf("Unknown(%d)", r)
	}
}

// Faction is the winning side a role counts toward.
type Faction int

const (
	FactionNone Faction = iota
	FactionTown
	FactionMafia
)

// String returns the string representation of a Faction
func (f Faction) String() string {
	switch f {
	case FactionNone:
		return "None"
	case FactionTown:
		return "Town"
	case FactionMafia:
		return "Mafia"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// Faction returns the faction a role belongs to. Unassigned roles count
// toward no side.
func (r Role) Faction() Faction {
	switch r {
	case RoleMafia:
		return FactionMafia
	case RoleVillager, RoleDoctor, RoleInvestigator:
		return FactionTown
	default:
		return FactionNone
	}
}

// ActionKind identifies the night ability a role exercises.
type ActionKind string

const (
	ActionNone        ActionKind = ""
	ActionProtect     ActionKind = "protect"
	ActionInvestigate ActionKind = "investigate"
	ActionEliminate   ActionKind = "eliminate"
)

// Resolution order for night actions. Protective abilities land before
// informational ones, offensive abilities always last.
const (
	PriorityProtective    = 1
	PriorityInvestigative = 2
	PriorityOffensive     = 3
)

// RoleSpec describes a role's night ability and targeting rules.
type RoleSpec struct {
	Role            Role
	Action          ActionKind
	RequiresTarget  bool
	AllowSelfTarget bool
	Priority        int
}

var roleSpecs = map[Role]RoleSpec{
	RoleVillager: {
		Role:   RoleVillager,
		Action: ActionNone,
	},
	RoleMafia: {
		Role:           RoleMafia,
		Action:         ActionEliminate,
		RequiresTarget: true,
		Priority:       PriorityOffensive,
	},
	RoleDoctor: {
		Role:            RoleDoctor,
		Action:          ActionProtect,
		RequiresTarget:  true,
		AllowSelfTarget: true,
		Priority:        PriorityProtective,
	},
	RoleInvestigator: {
		Role:           RoleInvestigator,
		Action:         ActionInvestigate,
		RequiresTarget: true,
		Priority:       PriorityInvestigative,
	},
}

// Spec returns the ability spec for a role. The second return is false for
// roles without a catalog entry (including RoleUnassigned).
func Spec(r Role) (RoleSpec, bool) {
	spec, ok := roleSpecs[r]
	return spec, ok
}

// HasNightAction reports whether a role is expected to act during the night.
// Passive roles never block night resolution.
func (r Role) HasNightAction() bool {
	spec, ok := roleSpecs[r]
	return ok && spec.Action != ActionNone
}

// AllRoles returns every assignable role.
func AllRoles() []Role {
	return []Role{RoleVillager, RoleMafia, RoleDoctor, RoleInvestigator}
}

// ParseRole converts a string to a Role. Unknown strings map to
// RoleUnassigned.
func ParseRole(s string) Role {
	switch s {
	case "Villager":
		return RoleVillager
	case "Mafia":
		return RoleMafia
	case "Doctor":
		return RoleDoctor
	case "Investigator":
		return RoleInvestigator
	default:
		return RoleUnassigned
	}
}
