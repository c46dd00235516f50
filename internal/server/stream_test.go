package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafiacore/internal/game/events"
)

func TestServer_Stream(t *testing.T) {
	mm, router := newTestServer(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	match, alice, err := mm.CreateMatch("alice", 0)
	require.NoError(t, err)
	_, err = match.Join("bob")
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/api/v1/matches/" + match.ID + "/stream?player_id=" + alice.ID
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	readEnvelope := func() events.Envelope {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var env events.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		return env
	}

	t.Run("history is replayed on connect", func(t *testing.T) {
		first := readEnvelope()
		assert.Equal(t, "player.joined", first.Kind)
		assert.Equal(t, uint64(1), first.Seq)

		second := readEnvelope()
		assert.Equal(t, uint64(2), second.Seq)
	})

	t.Run("live events follow the replay", func(t *testing.T) {
		_, err := match.Join("carol")
		require.NoError(t, err)

		env := readEnvelope()
		assert.Equal(t, "player.joined", env.Kind)
		assert.Equal(t, uint64(3), env.Seq)
	})

	t.Run("unknown match rejects the upgrade", func(t *testing.T) {
		badURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/matches/nope/stream"
		_, resp, err := websocket.DefaultDialer.Dial(badURL, nil)
		require.Error(t, err)
		if resp != nil {
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			resp.Body.Close()
		}
	})
}
