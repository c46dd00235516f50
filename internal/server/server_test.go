package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafiacore/internal/config"
	"mafiacore/internal/game"
	"mafiacore/internal/game/catalog"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.Server{
			Port:              8080,
			MaxMatches:        4,
			FinishedMatchTTL:  time.Hour,
			AbandonedMatchTTL: time.Hour,
			CleanupInterval:   time.Minute,
		},
		Game: config.Game{
			MinPlayers:   5,
			MaxPlayers:   8,
			MafiaDivisor: 4,
			// Long timeouts keep phase timers out of the way.
			NightTimeout: time.Hour,
			DayDuration:  time.Hour,
			VoteTimeout:  time.Hour,
		},
	}
}

func newTestServer(t *testing.T) (*MatchManager, *gin.Engine) {
	t.Helper()
	mm := NewMatchManager(testConfig(), nil, nil, zerolog.Nop())
	mm.seedFunc = func() int64 { return 42 }
	return mm, NewServer(mm, zerolog.Nop()).SetupRouter()
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

// createMatchWithPlayers drives the HTTP surface to build a joined lobby.
// The first name becomes the host via match creation; the rest join by ID.
// Returns the match ID plus player IDs keyed by name.
func createMatchWithPlayers(t *testing.T, router *gin.Engine, names ...string) (string, map[string]string) {
	t.Helper()
	require.NotEmpty(t, names)
	status, env := doJSON(t, router, http.MethodPost, "/api/v1/matches",
		createMatchRequest{HostName: names[0]})
	require.Equal(t, http.StatusOK, status)
	var created createMatchResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))

	players := map[string]string{names[0]: created.HostID}
	for _, name := range names[1:] {
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+created.MatchID+"/join", joinRequest{Name: name})
		require.Equal(t, http.StatusOK, status)
		var joined joinResponse
		require.NoError(t, json.Unmarshal(env.Data, &joined))
		players[name] = joined.PlayerID
	}
	return created.MatchID, players
}

func TestServer_CreateAndJoin(t *testing.T) {
	_, router := newTestServer(t)

	t.Run("create returns match ID, join code, and host", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost, "/api/v1/matches",
			createMatchRequest{HostName: "alice"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "OK", env.Code)
		var created createMatchResponse
		require.NoError(t, json.Unmarshal(env.Data, &created))
		assert.NotEmpty(t, created.MatchID)
		assert.NotEmpty(t, created.JoinCode)
		assert.NotEmpty(t, created.HostID)
	})

	t.Run("create requires a host name", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost, "/api/v1/matches",
			map[string]string{})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", env.Code)
	})

	t.Run("create rejects out-of-range max players", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost, "/api/v1/matches",
			createMatchRequest{HostName: "alice", MaxPlayers: 2})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", env.Code)
	})

	t.Run("join code round trip", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost, "/api/v1/matches",
			createMatchRequest{HostName: "alice"})
		require.Equal(t, http.StatusOK, status)
		var created createMatchResponse
		require.NoError(t, json.Unmarshal(env.Data, &created))

		status, env = doJSON(t, router, http.MethodPost, "/api/v1/matches/join",
			joinByCodeRequest{JoinCode: created.JoinCode, Name: "bob"})
		require.Equal(t, http.StatusOK, status)
		var joined joinResponse
		require.NoError(t, json.Unmarshal(env.Data, &joined))
		assert.NotEmpty(t, joined.PlayerID)
		assert.False(t, joined.Host)

		// The lobby snapshot echoes the code while joining is open.
		_, env = doJSON(t, router, http.MethodGet, "/api/v1/matches/"+created.MatchID, nil)
		var snap game.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &snap))
		assert.Equal(t, created.JoinCode, snap.JoinCode)
		assert.Len(t, snap.Players, 2)
	})

	t.Run("unknown join code is not found", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost, "/api/v1/matches/join",
			joinByCodeRequest{JoinCode: "ffffffff", Name: "bob"})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "LOBBY_NOT_FOUND", env.Code)
	})

	t.Run("host flag is set only for the creator", func(t *testing.T) {
		matchID, _ := createMatchWithPlayers(t, router, "alice")
		_, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/join", joinRequest{Name: "bob"})
		var second joinResponse
		require.NoError(t, json.Unmarshal(env.Data, &second))
		assert.False(t, second.Host)
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		matchID, _ := createMatchWithPlayers(t, router, "alice")
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/join", joinRequest{Name: "alice"})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "STATE_CONFLICT", env.Code)
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		matchID, _ := createMatchWithPlayers(t, router, "alice")
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/join", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", env.Code)
	})

	t.Run("unknown match is not found", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/nope/join", joinRequest{Name: "alice"})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "LOBBY_NOT_FOUND", env.Code)
	})
}

func TestServer_StartMatch(t *testing.T) {
	mm, router := newTestServer(t)
	matchID, players := createMatchWithPlayers(t, router, "alice", "bob", "carol", "dave", "eve")
	host := players["alice"]

	t.Run("only the host may start", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/start", startRequest{PlayerID: players["bob"]})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "NOT_HOST", env.Code)
	})

	t.Run("host start deals roles and opens the night", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/start", startRequest{PlayerID: host})
		require.Equal(t, http.StatusOK, status)

		var snap game.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &snap))
		assert.Equal(t, "Night", snap.Phase)
		assert.Equal(t, 1, snap.Day)

		match, err := mm.GetMatch(matchID)
		require.NoError(t, err)
		roles := make(map[catalog.Role]int)
		for _, p := range match.Players() {
			roles[p.Role]++
		}
		assert.Equal(t, 1, roles[catalog.RoleMafia])
		assert.Equal(t, 1, roles[catalog.RoleDoctor])
		assert.Equal(t, 1, roles[catalog.RoleInvestigator])
		assert.Equal(t, 2, roles[catalog.RoleVillager])
	})

	t.Run("second start conflicts", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/start", startRequest{PlayerID: host})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "STATE_CONFLICT", env.Code)
	})

	t.Run("joining a started match conflicts", func(t *testing.T) {
		status, _ := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/join", joinRequest{Name: "frank"})
		assert.Equal(t, http.StatusConflict, status)
	})
}

func TestServer_NightAndVoting(t *testing.T) {
	mm, router := newTestServer(t)
	matchID, players := createMatchWithPlayers(t, router, "alice", "bob", "carol", "dave", "eve")
	host := players["alice"]

	status, _ := doJSON(t, router, http.MethodPost,
		"/api/v1/matches/"+matchID+"/start", startRequest{PlayerID: host})
	require.Equal(t, http.StatusOK, status)

	match, err := mm.GetMatch(matchID)
	require.NoError(t, err)
	byRole := make(map[catalog.Role]string)
	for _, p := range match.Players() {
		if _, ok := byRole[p.Role]; !ok {
			byRole[p.Role] = p.ID
		}
	}
	mafia := byRole[catalog.RoleMafia]
	doctor := byRole[catalog.RoleDoctor]
	investigator := byRole[catalog.RoleInvestigator]
	villager := byRole[catalog.RoleVillager]

	t.Run("villagers have no night action", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/actions",
			actionRequest{PlayerID: villager, Kind: "eliminate", TargetID: mafia})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INVALID_ACTION", env.Code)
	})

	t.Run("votes are rejected at night", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/votes",
			voteRequest{PlayerID: villager, CandidateID: mafia})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "VOTING_NOT_ACTIVE", env.Code)
	})

	t.Run("night resolves when every actor has acted", func(t *testing.T) {
		for _, a := range []actionRequest{
			{PlayerID: mafia, Kind: "eliminate", TargetID: villager},
			{PlayerID: doctor, Kind: "protect", TargetID: villager},
			{PlayerID: investigator, Kind: "investigate", TargetID: mafia},
		} {
			status, env := doJSON(t, router, http.MethodPost,
				"/api/v1/matches/"+matchID+"/actions", a)
			require.Equal(t, http.StatusOK, status, env.Message)
		}

		var snap game.Snapshot
		_, env := doJSON(t, router, http.MethodGet, "/api/v1/matches/"+matchID, nil)
		require.NoError(t, json.Unmarshal(env.Data, &snap))
		assert.Equal(t, "Day", snap.Phase)
		for _, p := range snap.Players {
			assert.True(t, p.Alive, p.Name)
		}
	})

	t.Run("actions are rejected during the day", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/actions",
			actionRequest{PlayerID: mafia, Kind: "eliminate", TargetID: villager})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "PHASE_MISMATCH", env.Code)
	})

	t.Run("host calls the vote and the town exiles the mafia", func(t *testing.T) {
		status, _ := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/call-vote", startRequest{PlayerID: host})
		require.Equal(t, http.StatusOK, status)

		for _, voter := range []string{host, players["bob"], players["carol"], players["dave"], players["eve"]} {
			status, env := doJSON(t, router, http.MethodPost,
				"/api/v1/matches/"+matchID+"/votes",
				voteRequest{PlayerID: voter, CandidateID: mafia})
			require.Equal(t, http.StatusOK, status, env.Message)
		}

		var snap game.Snapshot
		_, env := doJSON(t, router, http.MethodGet,
			fmt.Sprintf("/api/v1/matches/%s?player_id=%s", matchID, host), nil)
		require.NoError(t, json.Unmarshal(env.Data, &snap))
		assert.Equal(t, "Ended", snap.Phase)
		assert.Equal(t, "Town", snap.Winner)
	})

	t.Run("actions after the end are terminal errors", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodPost,
			"/api/v1/matches/"+matchID+"/actions",
			actionRequest{PlayerID: doctor, Kind: "protect", TargetID: doctor})
		assert.Equal(t, http.StatusGone, status)
		assert.Equal(t, "TERMINAL_STATE", env.Code)
	})
}

func TestServer_Events(t *testing.T) {
	_, router := newTestServer(t)
	matchID, players := createMatchWithPlayers(t, router, "alice", "bob")

	t.Run("event log replays from a cursor", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodGet,
			"/api/v1/matches/"+matchID+"/events?player_id="+players["alice"], nil)
		require.Equal(t, http.StatusOK, status)

		var all []map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &all))
		require.Len(t, all, 2)
		assert.Equal(t, "player.joined", all[0]["kind"])

		_, env = doJSON(t, router, http.MethodGet,
			"/api/v1/matches/"+matchID+"/events?from_seq=1", nil)
		var tail []map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &tail))
		assert.Len(t, tail, 1)
	})

	t.Run("bad cursor is a validation error", func(t *testing.T) {
		status, env := doJSON(t, router, http.MethodGet,
			"/api/v1/matches/"+matchID+"/events?from_seq=later", nil)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", env.Code)
	})
}

func TestMatchManager_Capacity(t *testing.T) {
	mm, _ := newTestServer(t)
	for i := 0; i < 4; i++ {
		_, _, err := mm.CreateMatch(fmt.Sprintf("host-%d", i), 0)
		require.NoError(t, err)
	}
	_, _, err := mm.CreateMatch("host-late", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity")
}

func TestMatchManager_Cleanup(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AbandonedMatchTTL = 10 * time.Millisecond
	mm := NewMatchManager(cfg, nil, nil, zerolog.Nop())

	match, _, err := mm.CreateMatch("alice", 0)
	require.NoError(t, err)
	require.Equal(t, 1, mm.MatchCount())

	time.Sleep(20 * time.Millisecond)
	mm.cleanupMatches()

	assert.Equal(t, 0, mm.MatchCount())
	_, err = mm.GetMatch(match.ID)
	assert.Error(t, err)
	_, err = mm.GetMatchByCode(match.JoinCode)
	assert.Error(t, err)
}
