package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store persists sealed envelopes. The log keeps working when persistence
// fails; the error is logged and the envelope stays in memory.
type Store interface {
	Append(Envelope) error
}

// Log is the ordered, append-only event log for one match. Publishing
// assigns each draft a dense sequence number, keeps the envelope in memory
// for replay, optionally persists it, and notifies subscribers
// synchronously in publish order.
type Log struct {
	matchID      string
	mu           sync.RWMutex
	seq          uint64
	history      []Envelope
	subscribers  map[string]Subscriber
	kindHandlers map[string][]Handler
	store        Store
	logger       zerolog.Logger
}

// NewLog creates an event log for the given match. store may be nil.
func NewLog(matchID string, store Store) *Log {
	return &Log{
		matchID:      matchID,
		history:      make([]Envelope, 0, 64),
		subscribers:  make(map[string]Subscriber),
		kindHandlers: make(map[string][]Handler),
		store:        store,
		logger:       log.With().Str("component", "event_log").Str("match_id", matchID).Logger(),
	}
}

// Subscribe adds a subscriber to the log
func (l *Log) Subscribe(subscriber Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.subscribers[subscriber.ID()] = subscriber
	l.logger.Debug().
		Str("subscriber_id", subscriber.ID()).
		Msg("Subscriber added to event log")
}

// Unsubscribe removes a subscriber from the log
func (l *Log) Unsubscribe(subscriberID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.subscribers, subscriberID)
	l.logger.Debug().
		Str("subscriber_id", subscriberID).
		Msg("Subscriber removed from event log")
}

// SubscribeFunc adds a function handler for a specific event kind
func (l *Log) SubscribeFunc(kind string, handler Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.kindHandlers[kind] = append(l.kindHandlers[kind], handler)
}

// Publish seals the draft into an envelope, appends it, and notifies
// subscribers. Returns the sealed envelope.
func (l *Log) Publish(draft Draft) Envelope {
	l.mu.Lock()

	l.seq++
	env := Envelope{
		ID:      uuid.New(),
		Seq:     l.seq,
		Kind:    draft.Kind,
		MatchID: l.matchID,
		Time:    time.Now(),
		Public:  draft.Public,
		Private: draft.Private,
	}
	l.history = append(l.history, env)

	if l.store != nil {
		if err := l.store.Append(env); err != nil {
			l.logger.Error().
				Err(err).
				Str("kind", env.Kind).
				Uint64("seq", env.Seq).
				Msg("Failed to persist event")
		}
	}

	// Snapshot subscribers so handlers run outside the lock; ordering is
	// still guaranteed because Publish is only called by the match's
	// single writer.
	subs := make(map[string]Subscriber, len(l.subscribers))
	for id, s := range l.subscribers {
		subs[id] = s
	}
	handlers := append([]Handler(nil), l.kindHandlers[env.Kind]...)
	l.mu.Unlock()

	l.logger.Debug().
		Str("kind", env.Kind).
		Uint64("seq", env.Seq).
		Msg("Publishing event")

	for id, subscriber := range subs {
		if !subscriber.InterestedIn(env.Kind) {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error().
						Str("subscriber_id", id).
						Str("kind", env.Kind).
						Interface("panic", r).
						Msg("Subscriber panicked while handling event")
				}
			}()
			subscriber.HandleEvent(env)
		}()
	}

	for i, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error().
						Str("kind", env.Kind).
						Int("handler_index", i).
						Interface("panic", r).
						Msg("Handler panicked while handling event")
				}
			}()
			handler(env)
		}()
	}

	return env
}

// Replay returns envelopes with Seq > fromSeq, filtered for the view.
func (l *Log) Replay(fromSeq uint64, view View) []Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Envelope, 0, len(l.history))
	for _, env := range l.history {
		if env.Seq <= fromSeq {
			continue
		}
		out = append(out, env.For(view))
	}
	return out
}

// Seq returns the sequence number of the latest published envelope.
func (l *Log) Seq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq
}

// SubscriberCount returns the number of object subscribers.
func (l *Log) SubscriberCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subscribers)
}
