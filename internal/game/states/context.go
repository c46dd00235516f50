package states

import (
	"time"

	"github.com/rs/zerolog"
)

// MatchContext provides match-level information to states for making decisions
type MatchContext struct {
	// MatchID uniquely identifies this match
	MatchID string

	// Logger for state-specific logging
	Logger zerolog.Logger

	// PlayerCount is the number of players currently in the match
	PlayerCount int

	// AliveCount is the number of living players
	AliveCount int

	// MinPlayers is the minimum roster size to start
	MinPlayers int

	// MaxPlayers is the maximum roster size
	MaxPlayers int

	// Day is the current day counter; day 1 begins with the first night
	Day int

	// StartTime is when the match started (first PhaseNight entered)
	StartTime time.Time

	// Winner is the winning faction name once the match ends
	Winner string

	// Metadata for custom state data
	Metadata map[string]interface{}
}

// NewMatchContext creates a new match context
func NewMatchContext(matchID string, minPlayers, maxPlayers int, logger zerolog.Logger) *MatchContext {
	return &MatchContext{
		MatchID:    matchID,
		MinPlayers: minPlayers,
		MaxPlayers: maxPlayers,
		Logger:     logger.With().Str("match_id", matchID).Logger(),
		Metadata:   make(map[string]interface{}),
	}
}

// IsReady returns true if the match has enough players to start
func (mc *MatchContext) IsReady() bool {
	return mc.PlayerCount >= mc.MinPlayers && mc.PlayerCount <= mc.MaxPlayers
}

// Elapsed returns the time since the match started
func (mc *MatchContext) Elapsed() time.Duration {
	if mc.StartTime.IsZero() {
		return 0
	}
	return time.Since(mc.StartTime)
}

// SetMetadata stores custom data for states
func (mc *MatchContext) SetMetadata(key string, value interface{}) {
	mc.Metadata[key] = value
}

// GetMetadata retrieves custom data stored by states
func (mc *MatchContext) GetMetadata(key string) (interface{}, bool) {
	val, exists := mc.Metadata[key]
	return val, exists
}
