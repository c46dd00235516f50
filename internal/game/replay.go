package game

import (
	"mafiacore/internal/game/events"
)

// ReplaySummary is the state recovered by folding a match's event stream.
// It is enough to answer reads and to decide whether a recovered match is
// still live.
type ReplaySummary struct {
	MatchID    string
	Phase      string
	Day        int
	Winner     string
	Seq        uint64
	Players    map[string]ReplayedPlayer
	Eliminated []string
}

// ReplayedPlayer is one roster entry rebuilt from the stream.
type ReplayedPlayer struct {
	ID    string
	Name  string
	Alive bool
	Death string
	Role  string
}

// Replay folds an ordered envelope stream into a summary. The stream must
// come from a single match and be in sequence order; out-of-order input is
// a caller bug. Unknown kinds are skipped so streams from newer versions
// still fold.
func Replay(envelopes []events.Envelope) ReplaySummary {
	summary := ReplaySummary{
		Phase:   "Waiting",
		Players: make(map[string]ReplayedPlayer),
	}

	for _, env := range envelopes {
		summary.MatchID = env.MatchID
		summary.Seq = env.Seq

		switch env.Kind {
		case events.KindPlayerJoined:
			id, _ := env.Public["player_id"].(string)
			name, _ := env.Public["name"].(string)
			if id != "" {
				summary.Players[id] = ReplayedPlayer{ID: id, Name: name, Alive: true}
			}

		case events.KindPhaseChanged:
			if to, ok := env.Public["to"].(string); ok {
				summary.Phase = to
			}
			summary.Day = asInt(env.Public["day"])

		case events.KindPlayerEliminated:
			id, _ := env.Public["player_id"].(string)
			cause, _ := env.Public["cause"].(string)
			if p, ok := summary.Players[id]; ok {
				p.Alive = false
				p.Death = cause
				summary.Players[id] = p
			}
			summary.Eliminated = append(summary.Eliminated, id)

		case events.KindGameEnded:
			winner, _ := env.Public["winner"].(string)
			summary.Winner = winner
			if roles, ok := env.Public["roles"].(map[string]interface{}); ok {
				for id, role := range roles {
					if p, exists := summary.Players[id]; exists {
						p.Role, _ = role.(string)
						summary.Players[id] = p
					}
				}
			}
		}
	}
	return summary
}

// asInt reads a numeric payload field. JSON decoding turns numbers into
// float64; in-memory envelopes keep them as int.
func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
