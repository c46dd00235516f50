package core

import (
	"time"

	"mafiacore/internal/game/catalog"
)

// NightAction is a role ability submitted during a night phase. One per
// player per night; duplicates are rejected at submission time.
type NightAction struct {
	PlayerID    string             `json:"player_id"`
	Kind        catalog.ActionKind `json:"kind"`
	TargetID    string             `json:"target_id"`
	Day         int                `json:"day"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

// Validate checks the action against its submitter's role spec and the
// current roster. Phase checks belong to the match, not here.
func (a *NightAction) Validate(actor *Player, target *Player) error {
	if actor == nil {
		return ErrPlayerNotFound
	}
	if !actor.Alive {
		return ErrPlayerDead
	}
	spec, ok := catalog.Spec(actor.Role)
	if !ok || spec.Action == catalog.ActionNone {
		return ErrInvalidAction
	}
	if a.Kind != spec.Action {
		return ErrInvalidAction
	}
	if spec.RequiresTarget {
		if target == nil {
			return ErrInvalidTarget
		}
		if !target.Alive {
			return NewError(KindValidation, "VALIDATION_ERROR", "target %s is not alive", target.ID)
		}
		if target.ID == actor.ID && !spec.AllowSelfTarget {
			return NewError(KindValidation, "VALIDATION_ERROR", "role %s cannot target itself", actor.Role)
		}
	}
	return nil
}
