package states

import "fmt"

// Phase represents the current phase of a match
type Phase int

const (
	// PhaseWaiting - lobby open, players joining
	PhaseWaiting Phase = iota

	// PhaseNight - roles act in secret
	PhaseNight

	// PhaseDay - discussion, careers, open interaction
	PhaseDay

	// PhaseVoting - exile ballots
	PhaseVoting

	// PhaseEnded - final state, a faction has won
	PhaseEnded
)

// String returns the string representation of a Phase
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "Waiting"
	case PhaseNight:
		return "Night"
	case PhaseDay:
		return "Day"
	case PhaseVoting:
		return "Voting"
	case PhaseEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true if the phase represents a terminal state
func (p Phase) IsTerminal() bool {
	return p == PhaseEnded
}

// AcceptsNightActions returns true if night actions can be submitted
func (p Phase) AcceptsNightActions() bool {
	return p == PhaseNight
}

// AcceptsVotes returns true if exile ballots can be cast
func (p Phase) AcceptsVotes() bool {
	return p == PhaseVoting
}

// CanJoin returns true if players can join in this phase
func (p Phase) CanJoin() bool {
	return p == PhaseWaiting
}

// AllowedTransitions returns the valid phases this phase can transition to.
// Every non-terminal phase may jump straight to Ended when a victory
// condition fires mid-cycle.
func (p Phase) AllowedTransitions() []Phase {
	switch p {
	case PhaseWaiting:
		return []Phase{PhaseNight, PhaseEnded}
	case PhaseNight:
		return []Phase{PhaseDay, PhaseEnded}
	case PhaseDay:
		return []Phase{PhaseVoting, PhaseEnded}
	case PhaseVoting:
		return []Phase{PhaseNight, PhaseEnded}
	case PhaseEnded:
		return []Phase{}
	default:
		return []Phase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to a Phase
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "Waiting":
		return PhaseWaiting, nil
	case "Night":
		return PhaseNight, nil
	case "Day":
		return PhaseDay, nil
	case "Voting":
		return PhaseVoting, nil
	case "Ended":
		return PhaseEnded, nil
	default:
		return PhaseWaiting, fmt.Errorf("unknown phase %q", s)
	}
}
