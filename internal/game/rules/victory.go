package rules

import (
	"github.com/rs/zerolog"

	"mafiacore/internal/game/catalog"
	"mafiacore/internal/game/core"
)

// VictoryResult is the outcome of a victory check.
type VictoryResult struct {
	Over   bool
	Winner catalog.Faction
}

// VictoryChecker handles match over detection and winner determination
type VictoryChecker struct {
	logger zerolog.Logger
}

// NewVictoryChecker creates a new victory checker
func NewVictoryChecker(logger zerolog.Logger) *VictoryChecker {
	return &VictoryChecker{
		logger: logger.With().Str("component", "VictoryChecker").Logger(),
	}
}

// Check evaluates the victory conditions against the current roster.
// Town wins when every mafia member is dead; mafia wins the moment living
// mafia are at least as many as living town members.
func (vc *VictoryChecker) Check(players []*core.Player) VictoryResult {
	mafiaAlive := 0
	townAlive := 0
	for _, p := range players {
		if !p.Alive {
			continue
		}
		switch p.Faction() {
		case catalog.FactionMafia:
			mafiaAlive++
		case catalog.FactionTown:
			townAlive++
		}
	}

	result := VictoryResult{}
	switch {
	case mafiaAlive == 0:
		result = VictoryResult{Over: true, Winner: catalog.FactionTown}
	case mafiaAlive >= townAlive:
		result = VictoryResult{Over: true, Winner: catalog.FactionMafia}
	}

	if result.Over {
		vc.logger.Info().
			Str("winner", result.Winner.String()).
			Int("mafia_alive", mafiaAlive).
			Int("town_alive", townAlive).
			Msg("Victory condition met")
	} else {
		vc.logger.Debug().
			Int("mafia_alive", mafiaAlive).
			Int("town_alive", townAlive).
			Msg("Victory check complete, match continues")
	}

	return result
}
