package states

import (
	"fmt"
	"time"
)

// WaitingState represents the lobby phase where players join
type WaitingState struct{}

func NewWaitingState() State {
	return &WaitingState{}
}

func (s *WaitingState) Phase() Phase {
	return PhaseWaiting
}

func (s *WaitingState) Enter(ctx *MatchContext) error {
	ctx.Logger.Info().Msg("Lobby opened, waiting for players")
	return nil
}

func (s *WaitingState) Exit(ctx *MatchContext) error {
	ctx.Logger.Info().
		Int("player_count", ctx.PlayerCount).
		Msg("Closing lobby")
	return nil
}

func (s *WaitingState) Validate(ctx *MatchContext) error {
	if ctx.MaxPlayers < ctx.MinPlayers {
		return fmt.Errorf("max players %d below minimum %d", ctx.MaxPlayers, ctx.MinPlayers)
	}
	return nil
}

// NightState represents the secret action phase
type NightState struct{}

func NewNightState() State {
	return &NightState{}
}

func (s *NightState) Phase() Phase {
	return PhaseNight
}

func (s *NightState) Enter(ctx *MatchContext) error {
	ctx.Day++
	if ctx.StartTime.IsZero() {
		ctx.StartTime = time.Now()
	}
	ctx.Logger.Info().
		Int("day", ctx.Day).
		Msg("Night falls")
	return nil
}

func (s *NightState) Exit(ctx *MatchContext) error {
	ctx.Logger.Debug().
		Int("day", ctx.Day).
		Msg("Night resolved")
	return nil
}

func (s *NightState) Validate(ctx *MatchContext) error {
	if ctx.Day == 0 && !ctx.IsReady() {
		return fmt.Errorf("not enough players to start: have %d, need %d", ctx.PlayerCount, ctx.MinPlayers)
	}
	return nil
}

// DayState represents open discussion and daytime activity
type DayState struct{}

func NewDayState() State {
	return &DayState{}
}

func (s *DayState) Phase() Phase {
	return PhaseDay
}

func (s *DayState) Enter(ctx *MatchContext) error {
	ctx.Logger.Info().
		Int("day", ctx.Day).
		Int("alive", ctx.AliveCount).
		Msg("Day breaks")
	return nil
}

func (s *DayState) Exit(ctx *MatchContext) error {
	ctx.Logger.Debug().
		Int("day", ctx.Day).
		Msg("Day discussion closed")
	return nil
}

func (s *DayState) Validate(ctx *MatchContext) error {
	if ctx.AliveCount < 1 {
		return fmt.Errorf("cannot open a day with no living players")
	}
	return nil
}

// VotingState represents the exile ballot phase
type VotingState struct{}

func NewVotingState() State {
	return &VotingState{}
}

func (s *VotingState) Phase() Phase {
	return PhaseVoting
}

func (s *VotingState) Enter(ctx *MatchContext) error {
	ctx.Logger.Info().
		Int("day", ctx.Day).
		Int("voters", ctx.AliveCount).
		Msg("Voting opened")
	return nil
}

func (s *VotingState) Exit(ctx *MatchContext) error {
	ctx.Logger.Debug().
		Int("day", ctx.Day).
		Msg("Voting closed")
	return nil
}

func (s *VotingState) Validate(ctx *MatchContext) error {
	if ctx.AliveCount < 1 {
		return fmt.Errorf("cannot open a vote with no living players")
	}
	return nil
}

// EndedState represents a completed match
type EndedState struct{}

func NewEndedState() State {
	return &EndedState{}
}

func (s *EndedState) Phase() Phase {
	return PhaseEnded
}

func (s *EndedState) Enter(ctx *MatchContext) error {
	ctx.Logger.Info().
		Str("winner", ctx.Winner).
		Int("day", ctx.Day).
		Dur("duration", ctx.Elapsed()).
		Msg("Match ended")
	return nil
}

func (s *EndedState) Exit(ctx *MatchContext) error {
	// Unreachable: Ended has no allowed transitions.
	return nil
}

func (s *EndedState) Validate(ctx *MatchContext) error {
	if ctx.Winner == "" {
		return fmt.Errorf("ended state requires a winner in context")
	}
	return nil
}
