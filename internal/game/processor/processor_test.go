package processor

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafiacore/internal/game/catalog"
	"mafiacore/internal/game/core"
	"mafiacore/internal/game/events"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testRoster() map[string]*core.Player {
	return map[string]*core.Player{
		"mafia1": {ID: "mafia1", Role: catalog.RoleMafia, Alive: true},
		"mafia2": {ID: "mafia2", Role: catalog.RoleMafia, Alive: true},
		"doc":    {ID: "doc", Role: catalog.RoleDoctor, Alive: true},
		"cop":    {ID: "cop", Role: catalog.RoleInvestigator, Alive: true},
		"vill1":  {ID: "vill1", Role: catalog.RoleVillager, Alive: true},
		"vill2":  {ID: "vill2", Role: catalog.RoleVillager, Alive: true},
	}
}

func TestNightResolver_Resolve(t *testing.T) {
	nr := NewNightResolver(testLogger())

	t.Run("unprotected target dies", func(t *testing.T) {
		players := testRoster()
		actions := []core.NightAction{
			{PlayerID: "mafia1", Kind: catalog.ActionEliminate, TargetID: "vill1"},
		}
		result := nr.Resolve(1, players, actions)
		assert.Equal(t, []string{"vill1"}, result.Eliminated)
		assert.Empty(t, result.Saved)
	})

	t.Run("protection blocks elimination", func(t *testing.T) {
		players := testRoster()
		actions := []core.NightAction{
			{PlayerID: "mafia1", Kind: catalog.ActionEliminate, TargetID: "vill1"},
			{PlayerID: "doc", Kind: catalog.ActionProtect, TargetID: "vill1"},
		}
		result := nr.Resolve(1, players, actions)
		assert.Empty(t, result.Eliminated)
		assert.Equal(t, []string{"vill1"}, result.Saved)

		// the saved player learns about the attempt, the doctor learns
		// their protection mattered
		require.Len(t, result.Private, 2)
		assert.Equal(t, "vill1", result.Private[0].Scope.PlayerID)
		assert.Equal(t, "saved", result.Private[0].Payload["kind"])
		assert.Equal(t, "doc", result.Private[1].Scope.PlayerID)
		assert.Equal(t, "saved", result.Private[1].Payload["kind"])
		assert.Equal(t, "vill1", result.Private[1].Payload["target_id"])
	})

	t.Run("idle protection stays silent", func(t *testing.T) {
		players := testRoster()
		actions := []core.NightAction{
			{PlayerID: "mafia1", Kind: catalog.ActionEliminate, TargetID: "vill1"},
			{PlayerID: "doc", Kind: catalog.ActionProtect, TargetID: "vill2"},
		}
		result := nr.Resolve(1, players, actions)
		assert.Equal(t, []string{"vill1"}, result.Eliminated)
		assert.Empty(t, result.Saved)
		for _, f := range result.Private {
			assert.NotEqual(t, "saved", f.Payload["kind"])
		}
	})

	t.Run("submission order does not matter", func(t *testing.T) {
		players := testRoster()
		// protect submitted after the kill still lands first
		actions := []core.NightAction{
			{PlayerID: "mafia1", Kind: catalog.ActionEliminate, TargetID: "vill1"},
			{PlayerID: "doc", Kind: catalog.ActionProtect, TargetID: "vill1"},
		}
		reversed := []core.NightAction{actions[1], actions[0]}

		first := nr.Resolve(1, testRoster(), actions)
		second := nr.Resolve(1, players, reversed)
		assert.Equal(t, first.Eliminated, second.Eliminated)
		assert.Equal(t, first.Saved, second.Saved)
	})

	t.Run("investigation sees pre-elimination roster", func(t *testing.T) {
		players := testRoster()
		actions := []core.NightAction{
			{PlayerID: "cop", Kind: catalog.ActionInvestigate, TargetID: "mafia2"},
			{PlayerID: "mafia1", Kind: catalog.ActionEliminate, TargetID: "mafia2"},
		}
		result := nr.Resolve(1, players, actions)
		assert.Equal(t, []string{"mafia2"}, result.Eliminated)

		var finding events.Fragment
		found := false
		for _, f := range result.Private {
			if f.Payload["kind"] == "investigation" {
				finding = f
				found = true
			}
		}
		require.True(t, found)
		assert.Equal(t, "cop", finding.Scope.PlayerID)
		assert.Equal(t, true, finding.Payload["mafia"])
	})

	t.Run("duplicate kills collapse to one elimination", func(t *testing.T) {
		players := testRoster()
		actions := []core.NightAction{
			{PlayerID: "mafia1", Kind: catalog.ActionEliminate, TargetID: "vill1"},
			{PlayerID: "mafia2", Kind: catalog.ActionEliminate, TargetID: "vill1"},
		}
		result := nr.Resolve(1, players, actions)
		assert.Equal(t, []string{"vill1"}, result.Eliminated)
	})

	t.Run("actions from dead players are dropped", func(t *testing.T) {
		players := testRoster()
		players["mafia1"].Kill(core.DeathExiled)
		actions := []core.NightAction{
			{PlayerID: "mafia1", Kind: catalog.ActionEliminate, TargetID: "vill1"},
		}
		result := nr.Resolve(2, players, actions)
		assert.Empty(t, result.Eliminated)
	})

	t.Run("kind mismatched to role is dropped", func(t *testing.T) {
		players := testRoster()
		actions := []core.NightAction{
			{PlayerID: "vill1", Kind: catalog.ActionEliminate, TargetID: "vill2"},
		}
		result := nr.Resolve(1, players, actions)
		assert.Empty(t, result.Eliminated)
	})

	t.Run("apply is idempotent", func(t *testing.T) {
		players := testRoster()
		result := nr.Resolve(1, players, []core.NightAction{
			{PlayerID: "mafia1", Kind: catalog.ActionEliminate, TargetID: "vill1"},
		})
		nr.Apply(result, players)
		nr.Apply(result, players)
		assert.False(t, players["vill1"].Alive)
		assert.Equal(t, core.DeathEliminated, players["vill1"].Death)
	})
}

func TestVoteTally_Count(t *testing.T) {
	vt := NewVoteTally(testLogger())

	t.Run("strict plurality exiles", func(t *testing.T) {
		players := testRoster()
		votes := []core.Vote{
			{VoterID: "vill1", CandidateID: "mafia1"},
			{VoterID: "vill2", CandidateID: "mafia1"},
			{VoterID: "mafia1", CandidateID: "vill1"},
		}
		result := vt.Count(1, players, votes)
		assert.Equal(t, "mafia1", result.ExiledID)
		assert.False(t, result.Tied)
		assert.Equal(t, 2, result.Counts["mafia1"])
		assert.Equal(t, 1, result.Counts["vill1"])
	})

	t.Run("tie exiles nobody", func(t *testing.T) {
		players := testRoster()
		votes := []core.Vote{
			{VoterID: "vill1", CandidateID: "mafia1"},
			{VoterID: "mafia1", CandidateID: "vill1"},
		}
		result := vt.Count(1, players, votes)
		assert.Empty(t, result.ExiledID)
		assert.True(t, result.Tied)
	})

	t.Run("no votes exiles nobody", func(t *testing.T) {
		result := vt.Count(1, testRoster(), nil)
		assert.Empty(t, result.ExiledID)
		assert.False(t, result.Tied)
	})

	t.Run("dead voters and candidates are dropped", func(t *testing.T) {
		players := testRoster()
		players["vill2"].Kill(core.DeathEliminated)
		votes := []core.Vote{
			{VoterID: "vill2", CandidateID: "mafia1"}, // dead voter
			{VoterID: "vill1", CandidateID: "vill2"},  // dead candidate
			{VoterID: "mafia1", CandidateID: "vill1"},
		}
		result := vt.Count(2, players, votes)
		assert.Equal(t, "vill1", result.ExiledID)
	})

	t.Run("apply marks exile", func(t *testing.T) {
		players := testRoster()
		result := vt.Count(1, players, []core.Vote{
			{VoterID: "vill1", CandidateID: "mafia1"},
		})
		vt.Apply(result, players)
		assert.False(t, players["mafia1"].Alive)
		assert.Equal(t, core.DeathExiled, players["mafia1"].Death)
	})
}
