package events

// Event kind constants
const (
	KindPhaseChanged     = "phase.changed"
	KindPlayerJoined     = "player.joined"
	KindMatchStarted     = "match.started"
	KindRoleRevealed     = "role.revealed"
	KindActionRecorded   = "action.recorded"
	KindNightResolved    = "night.resolved"
	KindPlayerEliminated = "player.eliminated"
	KindVoteCast         = "vote.cast"
	KindVoteResult       = "vote.result"
	KindGameEnded        = "game.ended"
	KindPlayerMoved      = "player.moved"
	KindTaskCompleted    = "task.completed"
)

// NewPhaseChangedDraft records a phase transition.
func NewPhaseChangedDraft(from, to, reason string, day int) Draft {
	return Draft{
		Kind: KindPhaseChanged,
		Public: map[string]interface{}{
			"from":   from,
			"to":     to,
			"reason": reason,
			"day":    day,
		},
	}
}

// NewPlayerJoinedDraft records a player entering the lobby.
func NewPlayerJoinedDraft(playerID, name string, count int) Draft {
	return Draft{
		Kind: KindPlayerJoined,
		Public: map[string]interface{}{
			"player_id":    playerID,
			"name":         name,
			"player_count": count,
		},
	}
}

// NewMatchStartedDraft records the host starting the match.
func NewMatchStartedDraft(playerCount, mafiaCount int) Draft {
	return Draft{
		Kind: KindMatchStarted,
		Public: map[string]interface{}{
			"player_count": playerCount,
			"mafia_count":  mafiaCount,
		},
	}
}

// NewRoleRevealedDraft privately tells one player their role and career.
// Mafia members additionally receive their teammates via the mafia group.
func NewRoleRevealedDraft(playerID, role, career string, mafiaPeers []string) Draft {
	d := Draft{
		Kind: KindRoleRevealed,
		Private: []Fragment{
			{
				Scope: Visibility{PlayerID: playerID},
				Payload: map[string]interface{}{
					"player_id": playerID,
					"role":      role,
					"career":    career,
				},
			},
		},
	}
	if len(mafiaPeers) > 0 {
		d.Private = append(d.Private, Fragment{
			Scope: Visibility{RoleGroup: GroupMafia},
			Payload: map[string]interface{}{
				"player_id": playerID,
				"peers":     mafiaPeers,
			},
		})
	}
	return d
}

// NewActionRecordedDraft acknowledges a night action to its submitter and
// files the full detail under the audit group for backend consumers.
func NewActionRecordedDraft(playerID, kind, targetID string, day int) Draft {
	return Draft{
		Kind: KindActionRecorded,
		Private: []Fragment{
			{
				Scope: Visibility{PlayerID: playerID},
				Payload: map[string]interface{}{
					"kind": kind,
					"day":  day,
				},
			},
			{
				Scope: Visibility{RoleGroup: GroupAudit},
				Payload: map[string]interface{}{
					"player_id": playerID,
					"kind":      kind,
					"target_id": targetID,
					"day":       day,
				},
			},
		},
	}
}

// NewNightResolvedDraft publishes the morning announcement. Eliminated
// holds player IDs killed overnight; investigator findings and save
// outcomes travel in private fragments built by the resolver.
func NewNightResolvedDraft(day int, eliminated []string, private []Fragment) Draft {
	return Draft{
		Kind: KindNightResolved,
		Public: map[string]interface{}{
			"day":        day,
			"eliminated": eliminated,
		},
		Private: private,
	}
}

// NewPlayerEliminatedDraft records one player's death with its cause.
func NewPlayerEliminatedDraft(playerID, cause string, day int) Draft {
	return Draft{
		Kind: KindPlayerEliminated,
		Public: map[string]interface{}{
			"player_id": playerID,
			"cause":     cause,
			"day":       day,
		},
	}
}

// NewVoteCastDraft acknowledges a ballot to its caster; the tally stays
// secret until the phase resolves.
func NewVoteCastDraft(voterID string, day, votesIn, votersAlive int) Draft {
	return Draft{
		Kind: KindVoteCast,
		Public: map[string]interface{}{
			"day":          day,
			"votes_in":     votesIn,
			"voters_alive": votersAlive,
		},
		Private: []Fragment{
			{
				Scope: Visibility{RoleGroup: GroupAudit},
				Payload: map[string]interface{}{
					"voter_id": voterID,
					"day":      day,
				},
			},
		},
	}
}

// NewVoteResultDraft publishes the exile outcome. ExiledID is empty when
// the vote tied or nobody voted.
func NewVoteResultDraft(day int, exiledID string, counts map[string]int) Draft {
	return Draft{
		Kind: KindVoteResult,
		Public: map[string]interface{}{
			"day":       day,
			"exiled_id": exiledID,
			"counts":    counts,
		},
	}
}

// NewPlayerMovedDraft records a daytime location change.
func NewPlayerMovedDraft(playerID, from, to string, day int) Draft {
	return Draft{
		Kind: KindPlayerMoved,
		Public: map[string]interface{}{
			"player_id": playerID,
			"from":      from,
			"to":        to,
			"day":       day,
		},
	}
}

// NewTaskCompletedDraft records a career task payout. The reward travels
// privately to the earner and to the audit group for reward settlement.
func NewTaskCompletedDraft(playerID, taskID string, reward, day int) Draft {
	return Draft{
		Kind: KindTaskCompleted,
		Public: map[string]interface{}{
			"player_id": playerID,
			"task_id":   taskID,
			"day":       day,
		},
		Private: []Fragment{
			{
				Scope: Visibility{PlayerID: playerID},
				Payload: map[string]interface{}{
					"task_id": taskID,
					"reward":  reward,
				},
			},
			{
				Scope: Visibility{RoleGroup: GroupAudit},
				Payload: map[string]interface{}{
					"player_id": playerID,
					"task_id":   taskID,
					"reward":    reward,
					"day":       day,
				},
			},
		},
	}
}

// NewGameEndedDraft records the final outcome and reveals every role.
func NewGameEndedDraft(winner string, day int, roles map[string]string) Draft {
	return Draft{
		Kind: KindGameEnded,
		Public: map[string]interface{}{
			"winner": winner,
			"day":    day,
			"roles":  roles,
		},
	}
}
