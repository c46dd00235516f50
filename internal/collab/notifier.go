package collab

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"mafiacore/internal/game/events"
)

// Publisher is the slice of the NATS connection the notifier needs.
// *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier subscribes to a match event log and republishes selected events
// to the bus. Outbound payloads use the omniscient view: sibling services
// are trusted backends, not players.
type Notifier struct {
	id     string
	pub    Publisher
	logger zerolog.Logger
}

// NewNotifier creates a notifier for one match log.
func NewNotifier(id string, pub Publisher, logger zerolog.Logger) *Notifier {
	return &Notifier{
		id:     id,
		pub:    pub,
		logger: logger.With().Str("component", "collab_notifier").Logger(),
	}
}

// ID returns the subscriber's unique identifier
func (n *Notifier) ID() string {
	return n.id
}

// InterestedIn returns true for event kinds that map to a bus subject
func (n *Notifier) InterestedIn(kind string) bool {
	switch kind {
	case events.KindPhaseChanged,
		events.KindMatchStarted,
		events.KindRoleRevealed,
		events.KindActionRecorded,
		events.KindNightResolved,
		events.KindPlayerEliminated,
		events.KindVoteResult,
		events.KindGameEnded:
		return true
	}
	return false
}

// HandleEvent maps one envelope to its subjects and publishes it.
func (n *Notifier) HandleEvent(env events.Envelope) {
	for _, subject := range subjectsFor(env) {
		n.publish(subject, env)
	}
}

// subjectsFor maps an envelope to zero or more bus subjects. One event can
// fan out to several consumers.
func subjectsFor(env events.Envelope) []string {
	switch env.Kind {
	case events.KindPhaseChanged:
		subjects := []string{SubjectChatAnnounce}
		if to, _ := env.Public["to"].(string); to == "Day" {
			subjects = append(subjects, SubjectShopRestock)
		}
		return subjects
	case events.KindMatchStarted, events.KindNightResolved, events.KindVoteResult:
		return []string{SubjectChatAnnounce}
	case events.KindPlayerEliminated:
		// A death may shrink the mafia channel; the chat service rebuilds
		// membership from the roster either way.
		return []string{SubjectChatAnnounce, SubjectChatMembership}
	case events.KindRoleRevealed:
		// Mafia channel roster changes travel in the group fragment.
		for _, f := range env.Private {
			if f.Scope.RoleGroup == events.GroupMafia {
				return []string{SubjectChatMembership}
			}
		}
		return nil
	case events.KindActionRecorded:
		return []string{SubjectRumorFodder}
	case events.KindGameEnded:
		return []string{SubjectChatAnnounce, SubjectRewardSettle}
	default:
		return nil
	}
}

func (n *Notifier) publish(subject string, env events.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		n.logger.Error().
			Err(err).
			Str("kind", env.Kind).
			Msg("Failed to marshal envelope for bus")
		return
	}
	if err := n.pub.Publish(subject, data); err != nil {
		n.logger.Error().
			Err(err).
			Str("subject", subject).
			Str("kind", env.Kind).
			Msg("Failed to publish to bus")
		return
	}
	n.logger.Debug().
		Str("subject", subject).
		Str("kind", env.Kind).
		Uint64("seq", env.Seq).
		Msg("Published envelope to bus")
}
