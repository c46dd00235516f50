package processor

import (
	"sort"

	"github.com/rs/zerolog"

	"mafiacore/internal/game/catalog"
	"mafiacore/internal/game/core"
	"mafiacore/internal/game/events"
)

// NightResult is the outcome of resolving one night. Eliminated holds the
// IDs of players killed after protection, Saved the IDs whose elimination
// was blocked. Private carries the investigator findings and save notices
// destined for the event log.
type NightResult struct {
	Day        int
	Eliminated []string
	Saved      []string
	Private    []events.Fragment
}

// NightResolver turns a night's buffered actions into deaths and findings.
// Resolution is pure: it computes against a snapshot and the caller applies
// the result, so a retried resolution cannot double-kill.
type NightResolver struct {
	logger zerolog.Logger
}

// NewNightResolver creates a new night resolver
func NewNightResolver(logger zerolog.Logger) *NightResolver {
	return &NightResolver{
		logger: logger.With().Str("component", "NightResolver").Logger(),
	}
}

// Resolve processes the night's actions in priority order: protections
// first, then investigations against the pre-elimination roster, then
// eliminations checked against the protection set. Actions from players
// who died earlier in the match are dropped; submission order never
// affects the outcome.
func (nr *NightResolver) Resolve(day int, players map[string]*core.Player, actions []core.NightAction) NightResult {
	// Sort by submitter for deterministic processing
	sorted := append([]core.NightAction(nil), actions...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PlayerID < sorted[j].PlayerID
	})

	byPriority := func(priority int) []core.NightAction {
		var out []core.NightAction
		for _, a := range sorted {
			actor, ok := players[a.PlayerID]
			if !ok || !actor.Alive {
				nr.logger.Warn().
					Str("player_id", a.PlayerID).
					Msg("Ignoring action from invalid or dead player")
				continue
			}
			spec, ok := catalog.Spec(actor.Role)
			if !ok || spec.Priority != priority || spec.Action != a.Kind {
				continue
			}
			out = append(out, a)
		}
		return out
	}

	result := NightResult{Day: day}

	// Protections, keyed by target with the protectors remembered so each
	// learns whether their shield mattered
	protected := make(map[string][]string)
	for _, a := range byPriority(catalog.PriorityProtective) {
		if target, ok := players[a.TargetID]; ok && target.Alive {
			protected[target.ID] = append(protected[target.ID], a.PlayerID)
			nr.logger.Debug().
				Str("target_id", target.ID).
				Str("protector_id", a.PlayerID).
				Msg("Protection applied")
		}
	}

	// Investigations see the roster as it stood when night fell
	for _, a := range byPriority(catalog.PriorityInvestigative) {
		target, ok := players[a.TargetID]
		if !ok || !target.Alive {
			continue
		}
		result.Private = append(result.Private, events.Fragment{
			Scope: events.Visibility{PlayerID: a.PlayerID},
			Payload: map[string]interface{}{
				"kind":      "investigation",
				"target_id": target.ID,
				"mafia":     target.Role == catalog.RoleMafia,
				"day":       day,
			},
		})
	}

	// Eliminations, deduplicated and checked against protection
	killed := make(map[string]bool)
	for _, a := range byPriority(catalog.PriorityOffensive) {
		target, ok := players[a.TargetID]
		if !ok || !target.Alive {
			continue
		}
		if protectors := protected[target.ID]; len(protectors) > 0 {
			if !contains(result.Saved, target.ID) {
				result.Saved = append(result.Saved, target.ID)
				result.Private = append(result.Private, events.Fragment{
					Scope: events.Visibility{PlayerID: target.ID},
					Payload: map[string]interface{}{
						"kind": "saved",
						"day":  day,
					},
				})
				for _, protectorID := range protectors {
					result.Private = append(result.Private, events.Fragment{
						Scope: events.Visibility{PlayerID: protectorID},
						Payload: map[string]interface{}{
							"kind":      "saved",
							"target_id": target.ID,
							"day":       day,
						},
					})
				}
			}
			continue
		}
		if !killed[target.ID] {
			killed[target.ID] = true
			result.Eliminated = append(result.Eliminated, target.ID)
		}
	}
	sort.Strings(result.Eliminated)

	nr.logger.Info().
		Int("day", day).
		Int("actions", len(sorted)).
		Strs("eliminated", result.Eliminated).
		Strs("saved", result.Saved).
		Msg("Night resolved")

	return result
}

// Apply marks the result's eliminations on the roster. Safe to call more
// than once.
func (nr *NightResolver) Apply(result NightResult, players map[string]*core.Player) {
	for _, id := range result.Eliminated {
		if p, ok := players[id]; ok {
			p.Kill(core.DeathEliminated)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
