package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"mafiacore/internal/game/events"
)

// LoggerSubscriber logs every envelope to structured logs
type LoggerSubscriber struct {
	id         string
	logger     zerolog.Logger
	logLevel   zerolog.Level
	kindFilter map[string]bool // If non-nil, only log these kinds
	devMode    bool            // If true, log the full envelope as JSON
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetKindFilter sets which event kinds to log (nil means log all)
func (ls *LoggerSubscriber) SetKindFilter(kinds []string) {
	if len(kinds) == 0 {
		ls.kindFilter = nil
		return
	}
	ls.kindFilter = make(map[string]bool)
	for _, kind := range kinds {
		ls.kindFilter[kind] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants this event kind
func (ls *LoggerSubscriber) InterestedIn(kind string) bool {
	if ls.kindFilter == nil {
		return true
	}
	return ls.kindFilter[kind]
}

// HandleEvent processes an envelope by logging it
func (ls *LoggerSubscriber) HandleEvent(env events.Envelope) {
	eventLogger := ls.logger.With().
		Str("kind", env.Kind).
		Str("match_id", env.MatchID).
		Uint64("seq", env.Seq).
		Time("timestamp", env.Time).
		Logger()

	var logEvent *zerolog.Event
	switch ls.logLevel {
	case zerolog.DebugLevel:
		logEvent = eventLogger.Debug()
	case zerolog.InfoLevel:
		logEvent = eventLogger.Info()
	case zerolog.WarnLevel:
		logEvent = eventLogger.Warn()
	case zerolog.ErrorLevel:
		logEvent = eventLogger.Error()
	default:
		logEvent = eventLogger.Info()
	}

	for key, value := range env.Public {
		logEvent = logEvent.Interface(key, value)
	}
	logEvent = logEvent.Int("private_fragments", len(env.Private))

	// In dev mode, also log the full envelope as JSON
	if ls.devMode {
		if jsonData, err := json.Marshal(env); err == nil {
			logEvent = logEvent.RawJSON("event_data", jsonData)
		}
	}

	logEvent.Msg("Game event")
}
