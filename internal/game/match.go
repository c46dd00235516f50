// Package game wires the phase machine, resolvers, and event log into the
// match aggregate the server exposes. All mutation of one match funnels
// through a single mutex so phase checks, buffers, and the log always agree.
package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mafiacore/internal/game/catalog"
	"mafiacore/internal/game/core"
	"mafiacore/internal/game/events"
	"mafiacore/internal/game/processor"
	"mafiacore/internal/game/rules"
	"mafiacore/internal/game/states"
)

// Config carries the per-match tunables.
type Config struct {
	MinPlayers   int
	MaxPlayers   int
	MafiaDivisor int

	// Phase deadlines; zero disables the timer for that phase.
	NightTimeout time.Duration
	DayDuration  time.Duration
	VoteTimeout  time.Duration
}

// Match is one running game of mafia. All exported methods are safe for
// concurrent use; internally a single mutex serializes every mutation.
type Match struct {
	ID        string
	JoinCode  string // short shareable code, assigned once at creation
	CreatedAt time.Time

	mu           sync.RWMutex
	cfg          Config
	hostID       string
	machine      *states.StateMachine
	mctx         *states.MatchContext
	log          *events.Log
	players      map[string]*core.Player
	order        []string // join order, for stable snapshots
	actionBuffer map[string]core.NightAction
	voteBuffer   map[string]core.Vote
	epoch        uint64 // bumped on every phase change; stale timers check it
	phaseTimer   *time.Timer
	lastActivity time.Time
	rng          *rand.Rand

	assigner *rules.Assigner
	resolver *processor.NightResolver
	tally    *processor.VoteTally
	victory  *rules.VictoryChecker

	logger zerolog.Logger
}

// NewMatch creates a match in the Waiting phase. seed drives role
// assignment and is recorded by the caller for deterministic recovery.
func NewMatch(id string, cfg Config, log *events.Log, seed int64, logger zerolog.Logger) *Match {
	matchLogger := logger.With().Str("match_id", id).Logger()
	mctx := states.NewMatchContext(id, cfg.MinPlayers, cfg.MaxPlayers, matchLogger)
	rng := rand.New(rand.NewSource(seed))

	return &Match{
		ID:           id,
		CreatedAt:    time.Now(),
		cfg:          cfg,
		machine:      states.NewStateMachine(mctx, log),
		mctx:         mctx,
		log:          log,
		players:      make(map[string]*core.Player),
		actionBuffer: make(map[string]core.NightAction),
		voteBuffer:   make(map[string]core.Vote),
		lastActivity: time.Now(),
		rng:          rng,
		assigner:     rules.NewAssigner(matchLogger, cfg.MafiaDivisor, rng),
		resolver:     processor.NewNightResolver(matchLogger),
		tally:        processor.NewVoteTally(matchLogger),
		victory:      rules.NewVictoryChecker(matchLogger),
		logger:       matchLogger,
	}
}

// Log returns the match event log for subscription wiring.
func (m *Match) Log() *events.Log {
	return m.log
}

// Phase returns the current phase.
func (m *Match) Phase() states.Phase {
	return m.machine.CurrentPhase()
}

// LastActivity returns when the match last saw a successful operation.
func (m *Match) LastActivity() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastActivity
}

// Join adds a player to the lobby. The first player to join becomes the
// host. Returns the created player.
func (m *Match) Join(name string) (*core.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	phase := m.machine.CurrentPhase()
	if phase.IsTerminal() {
		return nil, core.ErrGameEnded
	}
	if !phase.CanJoin() {
		return nil, core.ErrAlreadyStarted
	}
	if len(m.players) >= m.cfg.MaxPlayers {
		return nil, core.ErrLobbyFull
	}
	if name == "" {
		return nil, core.NewError(core.KindValidation, "VALIDATION_ERROR", "player name is required")
	}
	for _, p := range m.players {
		if p.Name == name {
			return nil, core.NewError(core.KindConflict, "STATE_CONFLICT", "name %q already taken", name)
		}
	}

	player := &core.Player{
		ID:       uuid.NewString(),
		Name:     name,
		Alive:    true,
		Location: core.LocationTownSquare,
		JoinedAt: time.Now(),
	}
	if len(m.players) == 0 {
		player.Host = true
		m.hostID = player.ID
	}
	m.players[player.ID] = player
	m.order = append(m.order, player.ID)
	m.mctx.PlayerCount = len(m.players)
	m.mctx.AliveCount = len(m.players)
	m.touch()

	m.log.Publish(events.NewPlayerJoinedDraft(player.ID, player.Name, len(m.players)))
	return player, nil
}

// Start deals roles and moves the match into its first night. Only the
// host may start, and the roster must meet the minimum.
func (m *Match) Start(requesterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	phase := m.machine.CurrentPhase()
	if phase.IsTerminal() {
		return core.ErrGameEnded
	}
	if !phase.CanJoin() {
		return core.ErrAlreadyStarted
	}
	if requesterID != m.hostID {
		return core.ErrNotHost
	}
	if len(m.players) < m.cfg.MinPlayers {
		return core.ErrInsufficientCount
	}

	roster := m.roster()
	if err := m.assigner.Deal(roster); err != nil {
		return core.NewError(core.KindInternal, "INTERNAL_ERROR", "dealing roles: %v", err)
	}

	mafiaPeers := rules.MafiaPeers(roster)
	m.log.Publish(events.NewMatchStartedDraft(len(roster), len(mafiaPeers)))
	for _, p := range roster {
		peers := []string(nil)
		if p.Role == catalog.RoleMafia {
			peers = mafiaPeers
		}
		m.log.Publish(events.NewRoleRevealedDraft(p.ID, p.Role.String(), p.Career.String(), peers))
	}

	if err := m.machine.TransitionTo(states.PhaseNight, "match started"); err != nil {
		return core.NewError(core.KindInternal, "INTERNAL_ERROR", "starting match: %v", err)
	}
	m.beginPhase()
	m.schedulePhaseTimer(m.cfg.NightTimeout)
	m.touch()
	return nil
}

// SubmitAction buffers one night action. Resolution fires as soon as every
// living player with a night ability has submitted, or when the night
// timer expires, whichever comes first.
func (m *Match) SubmitAction(playerID string, kind catalog.ActionKind, targetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	phase := m.machine.CurrentPhase()
	if phase.IsTerminal() {
		return core.ErrGameEnded
	}
	if !phase.AcceptsNightActions() {
		return core.ErrPhaseMismatch
	}

	actor, ok := m.players[playerID]
	if !ok {
		return core.ErrPlayerNotFound
	}
	if _, dup := m.actionBuffer[playerID]; dup {
		return core.ErrActionSubmitted
	}

	action := core.NightAction{
		PlayerID:    playerID,
		Kind:        kind,
		TargetID:    targetID,
		Day:         m.mctx.Day,
		SubmittedAt: time.Now(),
	}
	if err := action.Validate(actor, m.players[targetID]); err != nil {
		return err
	}

	m.actionBuffer[playerID] = action
	m.touch()
	m.log.Publish(events.NewActionRecordedDraft(playerID, string(kind), targetID, m.mctx.Day))

	if m.allActionsIn() {
		m.resolveNight("all actions submitted")
	}
	return nil
}

// SubmitVote casts one exile ballot. A vote is final for the day. The
// tally runs once every living player has voted or the vote timer fires.
func (m *Match) SubmitVote(voterID, candidateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	phase := m.machine.CurrentPhase()
	if phase.IsTerminal() {
		return core.ErrGameEnded
	}
	if !phase.AcceptsVotes() {
		return core.ErrVotingNotActive
	}

	voter, ok := m.players[voterID]
	if !ok {
		return core.ErrPlayerNotFound
	}
	if _, dup := m.voteBuffer[voterID]; dup {
		return core.ErrAlreadyVoted
	}

	vote := core.Vote{
		VoterID:     voterID,
		CandidateID: candidateID,
		Day:         m.mctx.Day,
		CastAt:      time.Now(),
	}
	if err := vote.Validate(voter, m.players[candidateID]); err != nil {
		return err
	}

	m.voteBuffer[voterID] = vote
	m.touch()
	m.log.Publish(events.NewVoteCastDraft(voterID, m.mctx.Day, len(m.voteBuffer), m.aliveCount()))

	if len(m.voteBuffer) >= m.aliveCount() {
		m.resolveVote("all ballots cast")
	}
	return nil
}

// CallVote closes the day discussion and opens voting. Only the host may
// cut the day short; the day timer does the same automatically.
func (m *Match) CallVote(requesterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	phase := m.machine.CurrentPhase()
	if phase.IsTerminal() {
		return core.ErrGameEnded
	}
	if phase != states.PhaseDay {
		return core.ErrPhaseMismatch
	}
	if requesterID != m.hostID {
		return core.ErrNotHost
	}
	m.openVoting("host called the vote")
	m.touch()
	return nil
}

// MoveTo changes a player's daytime location.
func (m *Match) MoveTo(playerID string, loc core.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	phase := m.machine.CurrentPhase()
	if phase.IsTerminal() {
		return core.ErrGameEnded
	}
	if phase != states.PhaseDay {
		return core.ErrPhaseMismatch
	}
	p, ok := m.players[playerID]
	if !ok {
		return core.ErrPlayerNotFound
	}
	if !p.Alive {
		return core.ErrPlayerDead
	}
	switch loc {
	case core.LocationTownSquare, core.LocationHome, core.LocationMarket, core.LocationWorkplace:
	default:
		return core.NewError(core.KindValidation, "VALIDATION_ERROR", "unknown location %q", loc)
	}

	from := p.Location
	p.Location = loc
	m.touch()
	m.log.Publish(events.NewPlayerMovedDraft(playerID, string(from), string(loc), m.mctx.Day))
	return nil
}

// CompleteTask pays out one of the player's career tasks. Tasks are only
// available during the day and from the workplace.
func (m *Match) CompleteTask(playerID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	phase := m.machine.CurrentPhase()
	if phase.IsTerminal() {
		return core.ErrGameEnded
	}
	if phase != states.PhaseDay {
		return core.ErrPhaseMismatch
	}
	p, ok := m.players[playerID]
	if !ok {
		return core.ErrPlayerNotFound
	}
	if !p.Alive {
		return core.ErrPlayerDead
	}
	if p.Location != core.LocationWorkplace {
		return core.NewError(core.KindValidation, "VALIDATION_ERROR", "tasks require being at the workplace")
	}

	for _, task := range p.Career.Tasks() {
		if task.ID == taskID {
			p.Coins += task.Reward
			m.touch()
			m.log.Publish(events.NewTaskCompletedDraft(playerID, taskID, task.Reward, m.mctx.Day))
			return nil
		}
	}
	return core.NewError(core.KindValidation, "VALIDATION_ERROR", "career %s has no task %q", p.Career, taskID)
}

// resolveNight runs the night resolution pipeline. Caller holds m.mu.
func (m *Match) resolveNight(reason string) {
	actions := make([]core.NightAction, 0, len(m.actionBuffer))
	for _, a := range m.actionBuffer {
		actions = append(actions, a)
	}
	result := m.resolver.Resolve(m.mctx.Day, m.players, actions)
	m.resolver.Apply(result, m.players)
	m.actionBuffer = make(map[string]core.NightAction)
	m.mctx.AliveCount = m.aliveCount()

	m.log.Publish(events.NewNightResolvedDraft(result.Day, eliminatedOrEmpty(result.Eliminated), result.Private))
	for _, id := range result.Eliminated {
		m.log.Publish(events.NewPlayerEliminatedDraft(id, string(core.DeathEliminated), result.Day))
	}

	if m.checkVictory() {
		return
	}
	if err := m.machine.TransitionTo(states.PhaseDay, reason); err != nil {
		m.logger.Error().Err(err).Msg("Failed to open day after night resolution")
		return
	}
	m.beginPhase()
	m.schedulePhaseTimer(m.cfg.DayDuration)
}

// openVoting moves Day into Voting. Caller holds m.mu.
func (m *Match) openVoting(reason string) {
	if err := m.machine.TransitionTo(states.PhaseVoting, reason); err != nil {
		m.logger.Error().Err(err).Msg("Failed to open voting")
		return
	}
	m.beginPhase()
	m.schedulePhaseTimer(m.cfg.VoteTimeout)
}

// resolveVote tallies the ballots and moves on. Caller holds m.mu.
func (m *Match) resolveVote(reason string) {
	votes := make([]core.Vote, 0, len(m.voteBuffer))
	for _, v := range m.voteBuffer {
		votes = append(votes, v)
	}
	result := m.tally.Count(m.mctx.Day, m.players, votes)
	m.tally.Apply(result, m.players)
	m.voteBuffer = make(map[string]core.Vote)
	m.mctx.AliveCount = m.aliveCount()

	m.log.Publish(events.NewVoteResultDraft(result.Day, result.ExiledID, result.Counts))
	if result.ExiledID != "" {
		m.log.Publish(events.NewPlayerEliminatedDraft(result.ExiledID, string(core.DeathExiled), result.Day))
	}

	if m.checkVictory() {
		return
	}
	if err := m.machine.TransitionTo(states.PhaseNight, reason); err != nil {
		m.logger.Error().Err(err).Msg("Failed to open night after vote")
		return
	}
	m.beginPhase()
	m.schedulePhaseTimer(m.cfg.NightTimeout)
}

// checkVictory ends the match if a faction has won. Caller holds m.mu.
// Returns true when the match ended.
func (m *Match) checkVictory() bool {
	result := m.victory.Check(m.roster())
	if !result.Over {
		return false
	}

	m.mctx.Winner = result.Winner.String()
	if err := m.machine.TransitionTo(states.PhaseEnded, "victory condition met"); err != nil {
		m.logger.Error().Err(err).Msg("Failed to end match")
		return false
	}
	m.beginPhase()

	roles := make(map[string]string, len(m.players))
	for id, p := range m.players {
		roles[id] = p.Role.String()
	}
	m.log.Publish(events.NewGameEndedDraft(result.Winner.String(), m.mctx.Day, roles))
	return true
}

// beginPhase bumps the epoch and cancels the previous phase timer. Caller
// holds m.mu.
func (m *Match) beginPhase() {
	m.epoch++
	if m.phaseTimer != nil {
		m.phaseTimer.Stop()
		m.phaseTimer = nil
	}
}

// schedulePhaseTimer arms a deadline for the current phase. The callback
// checks the epoch so a timer from a phase that already advanced is a
// no-op. Caller holds m.mu.
func (m *Match) schedulePhaseTimer(d time.Duration) {
	if d <= 0 {
		return
	}
	epoch := m.epoch
	phase := m.machine.CurrentPhase()
	m.phaseTimer = time.AfterFunc(d, func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error().
					Interface("panic", r).
					Msg("Phase timer goroutine panicked")
			}
		}()
		m.phaseTimeout(epoch, phase)
	})
}

// phaseTimeout advances a phase whose deadline passed with work missing.
func (m *Match) phaseTimeout(epoch uint64, phase states.Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch || m.machine.CurrentPhase() != phase {
		// The phase already advanced through completeness; nothing to do.
		return
	}

	m.logger.Info().
		Str("phase", phase.String()).
		Int("day", m.mctx.Day).
		Msg("Phase deadline reached")

	switch phase {
	case states.PhaseNight:
		m.resolveNight("night deadline reached")
	case states.PhaseDay:
		m.openVoting("day deadline reached")
	case states.PhaseVoting:
		m.resolveVote("vote deadline reached")
	}
}

// allActionsIn reports whether every living player with a night ability
// has an action buffered. Caller holds m.mu.
func (m *Match) allActionsIn() bool {
	for id, p := range m.players {
		if !p.Alive || !p.Role.HasNightAction() {
			continue
		}
		if _, ok := m.actionBuffer[id]; !ok {
			return false
		}
	}
	return true
}

func (m *Match) aliveCount() int {
	count := 0
	for _, p := range m.players {
		if p.Alive {
			count++
		}
	}
	return count
}

// roster returns the players in join order. Caller holds m.mu.
func (m *Match) roster() []*core.Player {
	out := make([]*core.Player, 0, len(m.players))
	for _, id := range m.order {
		out = append(out, m.players[id])
	}
	return out
}

func (m *Match) touch() {
	m.lastActivity = time.Now()
}

// Close stops the match's timers. The match is unusable afterwards.
func (m *Match) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beginPhase()
}

func eliminatedOrEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// PlayerView is what a viewer may know about one player. Role is filled
// for the viewer's own entry, for dead players, and after the match ends.
type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Alive    bool   `json:"alive"`
	Death    string `json:"death,omitempty"`
	Career   string `json:"career,omitempty"`
	Location string `json:"location,omitempty"`
	Host     bool   `json:"host"`
	Role     string `json:"role,omitempty"`
	Coins    int    `json:"coins,omitempty"`
}

// Snapshot is a point-in-time view of a match scoped to one viewer.
type Snapshot struct {
	MatchID  string         `json:"match_id"`
	JoinCode string         `json:"join_code,omitempty"`
	Phase    string         `json:"phase"`
	Day      int            `json:"day"`
	Winner   string         `json:"winner,omitempty"`
	Seq      uint64         `json:"seq"`
	Players  []PlayerView   `json:"players"`
	Tasks    []catalog.Task `json:"tasks,omitempty"`
}

// SnapshotFor builds the match state as one viewer is allowed to see it.
// An empty viewerID yields a spectator view with no hidden information.
func (m *Match) SnapshotFor(viewerID string) Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	phase := m.machine.CurrentPhase()
	snap := Snapshot{
		MatchID: m.ID,
		Phase:   phase.String(),
		Day:     m.mctx.Day,
		Winner:  m.mctx.Winner,
		Seq:     m.log.Seq(),
	}
	if phase.CanJoin() {
		snap.JoinCode = m.JoinCode
	}

	for _, p := range m.roster() {
		view := PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Alive:    p.Alive,
			Death:    string(p.Death),
			Location: string(p.Location),
			Host:     p.Host,
		}
		// Roles stay hidden until death, game end, or self-view.
		if !p.Alive || phase.IsTerminal() || p.ID == viewerID {
			view.Role = p.Role.String()
		}
		if p.ID == viewerID {
			view.Career = p.Career.String()
			view.Coins = p.Coins
		}
		snap.Players = append(snap.Players, view)
	}

	if viewer, ok := m.players[viewerID]; ok && phase == states.PhaseDay && viewer.Alive {
		snap.Tasks = viewer.Career.Tasks()
	}
	return snap
}

// ViewFor builds the event visibility scope for a viewer. Unknown viewer
// IDs get the public-only view.
func (m *Match) ViewFor(viewerID string) events.View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewForLocked(viewerID)
}

func (m *Match) viewForLocked(viewerID string) events.View {
	view := events.View{PlayerID: viewerID}
	if p, ok := m.players[viewerID]; ok && p.Role == catalog.RoleMafia {
		view.Groups = append(view.Groups, events.GroupMafia)
	}
	return view
}

// EventsSince replays the log for a viewer from the given cursor.
func (m *Match) EventsSince(viewerID string, fromSeq uint64) []events.Envelope {
	view := m.ViewFor(viewerID)
	return m.log.Replay(fromSeq, view)
}

// Players returns the roster in join order.
func (m *Match) Players() []*core.Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*core.Player, 0, len(m.players))
	for _, id := range m.order {
		out = append(out, m.players[id])
	}
	return out
}

// HostID returns the host player's ID.
func (m *Match) HostID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hostID
}

// SortedPlayerIDs returns the player IDs in lexical order. Useful for
// deterministic iteration in tests and replay.
func (m *Match) SortedPlayerIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.players))
	for id := range m.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
