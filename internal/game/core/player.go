package core

import (
	"time"

	"mafiacore/internal/game/catalog"
)

// DeathCause records how a player left the match.
type DeathCause string

const (
	DeathNone       DeathCause = ""
	DeathEliminated DeathCause = "eliminated" // killed during night resolution
	DeathExiled     DeathCause = "exiled"     // voted out during the day
)

// Location is where a player currently is on the town map. Locations gate
// which daytime interactions are available; they have no effect at night.
type Location string

const (
	LocationTownSquare Location = "town_square"
	LocationHome       Location = "home"
	LocationMarket     Location = "market"
	LocationWorkplace  Location = "workplace"
)

// Player is a participant in one match.
type Player struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Role     catalog.Role    `json:"-"`
	Career   catalog.Career  `json:"career"`
	Alive    bool            `json:"alive"`
	Death    DeathCause      `json:"death,omitempty"`
	Location Location        `json:"location"`
	Coins    int             `json:"coins"`
	Host     bool            `json:"host"`
	JoinedAt time.Time       `json:"joined_at"`
}

// Kill marks the player dead with the given cause. Killing an already dead
// player is a no-op so resolution stays idempotent.
func (p *Player) Kill(cause DeathCause) {
	if !p.Alive {
		return
	}
	p.Alive = false
	p.Death = cause
}

// Faction returns the player's win-condition faction.
func (p *Player) Faction() catalog.Faction {
	return p.Role.Faction()
}
