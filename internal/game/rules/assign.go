package rules

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"mafiacore/internal/game/catalog"
	"mafiacore/internal/game/core"
)

// DefaultMafiaDivisor controls faction sizing: one mafia member per this
// many players, never fewer than one.
const DefaultMafiaDivisor = 4

// Assigner deals roles and careers to a roster at match start.
type Assigner struct {
	logger       zerolog.Logger
	mafiaDivisor int
	rng          *rand.Rand
}

// NewAssigner creates an assigner. The rng is seeded by the caller so a
// match can be re-dealt deterministically during recovery.
func NewAssigner(logger zerolog.Logger, mafiaDivisor int, rng *rand.Rand) *Assigner {
	if mafiaDivisor < 2 {
		mafiaDivisor = DefaultMafiaDivisor
	}
	return &Assigner{
		logger:       logger.With().Str("component", "Assigner").Logger(),
		mafiaDivisor: mafiaDivisor,
		rng:          rng,
	}
}

// MafiaCount returns the mafia faction size for a roster of n players.
func (a *Assigner) MafiaCount(n int) int {
	count := n / a.mafiaDivisor
	if count < 1 {
		count = 1
	}
	return count
}

// Deal builds a shuffled role pool sized to the roster and assigns one role
// and one career to every player in place. The pool holds the mafia quota,
// one doctor and one investigator when the town is big enough for both,
// and villagers for the rest.
func (a *Assigner) Deal(players []*core.Player) error {
	n := len(players)
	if n < 2 {
		return fmt.Errorf("cannot deal roles to %d players", n)
	}

	mafia := a.MafiaCount(n)
	pool := make([]catalog.Role, 0, n)
	for i := 0; i < mafia; i++ {
		pool = append(pool, catalog.RoleMafia)
	}
	town := n - mafia
	if town >= 1 {
		pool = append(pool, catalog.RoleDoctor)
	}
	if town >= 2 {
		pool = append(pool, catalog.RoleInvestigator)
	}
	for len(pool) < n {
		pool = append(pool, catalog.RoleVillager)
	}

	a.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	careers := catalog.AllCareers()
	for i, p := range players {
		p.Role = pool[i]
		p.Career = careers[a.rng.Intn(len(careers))]
		p.Location = core.LocationTownSquare
		a.logger.Debug().
			Str("player_id", p.ID).
			Str("career", p.Career.String()).
			Msg("Player dealt")
	}

	a.logger.Info().
		Int("players", n).
		Int("mafia", mafia).
		Msg("Roles assigned")
	return nil
}

// MafiaPeers returns the IDs of all mafia members in the roster. Published
// privately to the mafia group so teammates know each other.
func MafiaPeers(players []*core.Player) []string {
	var peers []string
	for _, p := range players {
		if p.Role == catalog.RoleMafia {
			peers = append(peers, p.ID)
		}
	}
	return peers
}
