package processor

import (
	"sort"

	"github.com/rs/zerolog"

	"mafiacore/internal/game/core"
)

// TallyResult is the outcome of counting one day's exile ballots. ExiledID
// is empty when nobody is exiled: no votes, or a tie for the lead.
type TallyResult struct {
	Day      int
	ExiledID string
	Counts   map[string]int
	Tied     bool
}

// VoteTally counts exile ballots. A candidate is exiled only with a strict
// plurality; ties and empty ballots exile nobody.
type VoteTally struct {
	logger zerolog.Logger
}

// NewVoteTally creates a new vote tally
func NewVoteTally(logger zerolog.Logger) *VoteTally {
	return &VoteTally{
		logger: logger.With().Str("component", "VoteTally").Logger(),
	}
}

// Count tallies the ballots. Votes from dead voters or for dead candidates
// are dropped rather than failing the whole tally; they should have been
// rejected at submission.
func (vt *VoteTally) Count(day int, players map[string]*core.Player, votes []core.Vote) TallyResult {
	result := TallyResult{Day: day, Counts: make(map[string]int)}

	for _, v := range votes {
		voter, ok := players[v.VoterID]
		if !ok || !voter.Alive {
			vt.logger.Warn().
				Str("voter_id", v.VoterID).
				Msg("Dropping ballot from invalid or dead voter")
			continue
		}
		candidate, ok := players[v.CandidateID]
		if !ok || !candidate.Alive {
			vt.logger.Warn().
				Str("candidate_id", v.CandidateID).
				Msg("Dropping ballot for invalid or dead candidate")
			continue
		}
		result.Counts[candidate.ID]++
	}

	best := 0
	leaders := make([]string, 0, 2)
	for id, count := range result.Counts {
		switch {
		case count > best:
			best = count
			leaders = leaders[:0]
			leaders = append(leaders, id)
		case count == best:
			leaders = append(leaders, id)
		}
	}
	sort.Strings(leaders)

	switch {
	case best == 0:
		// nobody voted
	case len(leaders) == 1:
		result.ExiledID = leaders[0]
	default:
		result.Tied = true
	}

	vt.logger.Info().
		Int("day", day).
		Int("ballots", len(votes)).
		Str("exiled_id", result.ExiledID).
		Bool("tied", result.Tied).
		Msg("Vote tally complete")

	return result
}

// Apply marks the exiled player, if any, dead on the roster.
func (vt *VoteTally) Apply(result TallyResult, players map[string]*core.Player) {
	if result.ExiledID == "" {
		return
	}
	if p, ok := players[result.ExiledID]; ok {
		p.Kill(core.DeathExiled)
	}
}
