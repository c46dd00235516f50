package core

import "time"

// Vote is one ballot cast during a voting phase. Abstention is expressed by
// simply never voting; a cast vote is final for the day.
type Vote struct {
	VoterID     string    `json:"voter_id"`
	CandidateID string    `json:"candidate_id"`
	Day         int       `json:"day"`
	CastAt      time.Time `json:"cast_at"`
}

// Validate checks voter and candidate liveness. A voter may vote for
// themselves; that is legal, just unwise.
func (v *Vote) Validate(voter *Player, candidate *Player) error {
	if voter == nil {
		return ErrPlayerNotFound
	}
	if !voter.Alive {
		return ErrPlayerDead
	}
	// An unknown or dead candidate is not a votable player.
	if candidate == nil || !candidate.Alive {
		return ErrPlayerNotFound
	}
	return nil
}
