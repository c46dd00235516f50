package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mafiacore/internal/collab"
	"mafiacore/internal/config"
	"mafiacore/internal/game"
	"mafiacore/internal/game/core"
	"mafiacore/internal/game/events"
	"mafiacore/internal/game/events/subscribers"
	"mafiacore/internal/game/states"
)

// MatchManager owns every live match: creation, lookup, and the cleanup
// sweep that retires finished and abandoned matches.
type MatchManager struct {
	mu      sync.RWMutex
	matches map[string]*game.Match
	codes   map[string]string // join code -> match ID

	cfg      *config.Config
	store    *events.SQLStore
	busPub   collab.Publisher
	seedFunc func() int64
	logger   zerolog.Logger
}

// NewMatchManager creates a manager. store and busPub may be nil when
// persistence or the collab bridge are disabled.
func NewMatchManager(cfg *config.Config, store *events.SQLStore, busPub collab.Publisher, logger zerolog.Logger) *MatchManager {
	return &MatchManager{
		matches:  make(map[string]*game.Match),
		codes:    make(map[string]string),
		cfg:      cfg,
		store:    store,
		busPub:   busPub,
		seedFunc: func() int64 { return time.Now().UnixNano() },
		logger:   logger.With().Str("component", "match_manager").Logger(),
	}
}

// CreateMatch creates a new match with its event log, persistence, and
// collab bridge wired up. The creator joins immediately and becomes host.
// maxPlayers of 0 uses the configured default.
func (mm *MatchManager) CreateMatch(hostName string, maxPlayers int) (*game.Match, *core.Player, error) {
	if maxPlayers == 0 {
		maxPlayers = mm.cfg.Game.MaxPlayers
	}
	if maxPlayers < mm.cfg.Game.MinPlayers || maxPlayers > mm.cfg.Game.MaxPlayers {
		return nil, nil, core.NewError(core.KindValidation, "VALIDATION_ERROR",
			"max_players must be between %d and %d", mm.cfg.Game.MinPlayers, mm.cfg.Game.MaxPlayers)
	}

	mm.mu.Lock()
	defer mm.mu.Unlock()

	if len(mm.matches) >= mm.cfg.Server.MaxMatches {
		return nil, nil, core.NewError(core.KindConflict, "STATE_CONFLICT",
			"server at capacity (%d matches)", mm.cfg.Server.MaxMatches)
	}

	id := uuid.NewString()
	code, err := mm.newJoinCode()
	if err != nil {
		return nil, nil, core.NewError(core.KindInternal, "INTERNAL_ERROR", "failed to generate join code")
	}

	var store events.Store
	if mm.store != nil {
		store = mm.store
	}
	log := events.NewLog(id, store)

	eventLogger := subscribers.NewLoggerSubscriber("event-logger-"+id, mm.logger, zerolog.DebugLevel)
	eventLogger.SetKindFilter(mm.cfg.Events.LogKinds)
	eventLogger.SetDevMode(mm.cfg.Events.DevLog)
	log.Subscribe(eventLogger)
	if mm.busPub != nil {
		log.Subscribe(collab.NewNotifier("collab-"+id, mm.busPub, mm.logger))
	}

	match := game.NewMatch(id, game.Config{
		MinPlayers:   mm.cfg.Game.MinPlayers,
		MaxPlayers:   maxPlayers,
		MafiaDivisor: mm.cfg.Game.MafiaDivisor,
		NightTimeout: mm.cfg.Game.NightTimeout,
		DayDuration:  mm.cfg.Game.DayDuration,
		VoteTimeout:  mm.cfg.Game.VoteTimeout,
	}, log, mm.seedFunc(), mm.logger)
	match.JoinCode = code

	host, err := match.Join(hostName)
	if err != nil {
		return nil, nil, err
	}

	mm.matches[id] = match
	mm.codes[code] = id
	mm.logger.Info().
		Str("match_id", id).
		Str("join_code", code).
		Int("max_players", maxPlayers).
		Int("match_count", len(mm.matches)).
		Msg("Match created")
	return match, host, nil
}

// newJoinCode draws a short random code. Caller holds mm.mu.
func (mm *MatchManager) newJoinCode() (string, error) {
	for {
		raw := make([]byte, 4)
		if _, err := rand.Read(raw); err != nil {
			return "", err
		}
		code := hex.EncodeToString(raw)
		if _, taken := mm.codes[code]; !taken {
			return code, nil
		}
	}
}

// GetMatchByCode looks a match up by its join code.
func (mm *MatchManager) GetMatchByCode(code string) (*game.Match, error) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	id, ok := mm.codes[code]
	if !ok {
		return nil, core.ErrLobbyNotFound
	}
	return mm.matches[id], nil
}

// GetMatch looks a match up by ID.
func (mm *MatchManager) GetMatch(id string) (*game.Match, error) {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	match, ok := mm.matches[id]
	if !ok {
		return nil, core.ErrLobbyNotFound
	}
	return match, nil
}

// MatchCount returns the number of live matches.
func (mm *MatchManager) MatchCount() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return len(mm.matches)
}

// RunCleanup sweeps on the configured interval until the context ends.
func (mm *MatchManager) RunCleanup(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			mm.logger.Error().
				Interface("panic", r).
				Msg("Match cleanup goroutine panicked - restarting")
			go mm.RunCleanup(ctx)
		}
	}()

	ticker := time.NewTicker(mm.cfg.Server.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mm.cleanupMatches()
		}
	}
}

// cleanupMatches retires finished matches past their TTL and matches
// nobody has touched in the abandonment window, then prunes the store.
func (mm *MatchManager) cleanupMatches() {
	now := time.Now()
	var doomed []*game.Match

	mm.mu.Lock()
	for id, match := range mm.matches {
		var reason string
		switch {
		case match.Phase() == states.PhaseEnded &&
			now.Sub(match.LastActivity()) > mm.cfg.Server.FinishedMatchTTL:
			reason = "finished match TTL expired"
		case now.Sub(match.LastActivity()) > mm.cfg.Server.AbandonedMatchTTL:
			reason = "match abandoned"
		default:
			continue
		}
		delete(mm.matches, id)
		delete(mm.codes, match.JoinCode)
		doomed = append(doomed, match)
		mm.logger.Info().
			Str("match_id", id).
			Str("reason", reason).
			Msg("Retiring match")
	}
	remaining := len(mm.matches)
	mm.mu.Unlock()

	// Per-match teardown happens without the manager lock.
	for _, match := range doomed {
		match.Close()
	}

	if mm.store != nil && mm.cfg.Events.Retention > 0 {
		pruned, err := mm.store.PruneBefore(now.Add(-mm.cfg.Events.Retention))
		if err != nil {
			mm.logger.Error().Err(err).Msg("Failed to prune event store")
		} else if pruned > 0 {
			mm.logger.Debug().Int64("pruned", pruned).Msg("Pruned persisted events")
		}
	}

	if len(doomed) > 0 {
		mm.logger.Info().
			Int("retired", len(doomed)).
			Int("remaining", remaining).
			Msg("Match cleanup completed")
	}
}
