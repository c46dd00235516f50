package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  log_level: debug
game:
  min_players: 6
  max_players: 16
  night_timeout: 90s
events:
  store_dsn: /tmp/events.db
collab:
  enabled: true
  nats_url: nats://broker:4222
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	// Reset global state
	cfg = nil
	v = nil

	err = Init(configFile)
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "debug", c.Server.LogLevel)
	assert.Equal(t, 6, c.Game.MinPlayers)
	assert.Equal(t, 16, c.Game.MaxPlayers)
	assert.Equal(t, 90*time.Second, c.Game.NightTimeout)
	assert.Equal(t, "/tmp/events.db", c.Events.StoreDSN)
	assert.True(t, c.Collab.Enabled)
	assert.Equal(t, "nats://broker:4222", c.Collab.NatsURL)

	// Untouched keys keep their defaults
	assert.Equal(t, 4, c.Game.MafiaDivisor)
	assert.Equal(t, 100, c.Server.MaxMatches)
}

func TestInitWithDefaults(t *testing.T) {
	cfg = nil
	v = nil

	err := Init("/non/existent/path/config.yaml")
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 5, c.Game.MinPlayers)
	assert.Equal(t, 30, c.Game.MaxPlayers)
	assert.Equal(t, 60*time.Second, c.Game.NightTimeout)
	assert.False(t, c.Collab.Enabled)
}

func TestEnvironmentVariables(t *testing.T) {
	cfg = nil
	v = nil

	os.Setenv("MAFIA_SERVER_PORT", "7070")
	os.Setenv("MAFIA_GAME_MIN_PLAYERS", "7")
	defer os.Unsetenv("MAFIA_SERVER_PORT")
	defer os.Unsetenv("MAFIA_GAME_MIN_PLAYERS")

	err := Init("/non/existent/path/config.yaml")
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 7070, c.Server.Port)
	assert.Equal(t, 7, c.Game.MinPlayers)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: Server{
				Port:            8080,
				MaxMatches:      10,
				CleanupInterval: time.Minute,
			},
			Game: Game{
				MinPlayers:   5,
				MaxPlayers:   30,
				MafiaDivisor: 4,
			},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, Validate(base()))
	})

	t.Run("bad port", func(t *testing.T) {
		c := base()
		c.Server.Port = 0
		assert.Error(t, Validate(c))
	})

	t.Run("min players too low", func(t *testing.T) {
		c := base()
		c.Game.MinPlayers = 2
		assert.Error(t, Validate(c))
	})

	t.Run("max below min", func(t *testing.T) {
		c := base()
		c.Game.MaxPlayers = 4
		assert.Error(t, Validate(c))
	})

	t.Run("collab enabled requires url", func(t *testing.T) {
		c := base()
		c.Collab.Enabled = true
		assert.Error(t, Validate(c))
	})
}
