package server

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mafiacore/internal/game/catalog"
	"mafiacore/internal/game/core"
)

type createMatchRequest struct {
	HostName   string `json:"host_name" binding:"required"`
	MaxPlayers int    `json:"max_players"`
}

type createMatchResponse struct {
	MatchID  string `json:"match_id"`
	JoinCode string `json:"join_code"`
	HostID   string `json:"host_id"`
}

type joinRequest struct {
	Name string `json:"name" binding:"required"`
}

type joinByCodeRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type joinResponse struct {
	PlayerID string `json:"player_id"`
	Host     bool   `json:"host"`
}

type startRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
}

type actionRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Kind     string `json:"kind" binding:"required"`
	TargetID string `json:"target_id"`
}

type voteRequest struct {
	PlayerID    string `json:"player_id" binding:"required"`
	CandidateID string `json:"candidate_id" binding:"required"`
}

type moveRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	Location string `json:"location" binding:"required"`
}

type taskRequest struct {
	PlayerID string `json:"player_id" binding:"required"`
	TaskID   string `json:"task_id" binding:"required"`
}

// CreateMatch handles POST /api/v1/matches. The creator is joined as host.
func (s *Server) CreateMatch(c *gin.Context) {
	var req createMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "host_name is required")
		return
	}
	match, host, err := s.manager.CreateMatch(req.HostName, req.MaxPlayers)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, createMatchResponse{
		MatchID:  match.ID,
		JoinCode: match.JoinCode,
		HostID:   host.ID,
	})
}

// JoinByCode handles POST /api/v1/matches/join, resolving the lobby from
// its shareable join code.
func (s *Server) JoinByCode(c *gin.Context) {
	var req joinByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "join_code and name are required")
		return
	}
	match, err := s.manager.GetMatchByCode(req.JoinCode)
	if err != nil {
		Error(c, err)
		return
	}
	player, err := match.Join(req.Name)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, joinResponse{PlayerID: player.ID, Host: player.Host})
}

// Join handles POST /api/v1/matches/:id/join
func (s *Server) Join(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "name is required")
		return
	}
	player, err := match.Join(req.Name)
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, joinResponse{PlayerID: player.ID, Host: player.Host})
}

// Start handles POST /api/v1/matches/:id/start
func (s *Server) Start(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "player_id is required")
		return
	}
	if err := match.Start(req.PlayerID); err != nil {
		Error(c, err)
		return
	}
	Success(c, match.SnapshotFor(req.PlayerID))
}

// SubmitAction handles POST /api/v1/matches/:id/actions
func (s *Server) SubmitAction(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "player_id and kind are required")
		return
	}
	if err := match.SubmitAction(req.PlayerID, catalog.ActionKind(req.Kind), req.TargetID); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// SubmitVote handles POST /api/v1/matches/:id/votes
func (s *Server) SubmitVote(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "player_id and candidate_id are required")
		return
	}
	if err := match.SubmitVote(req.PlayerID, req.CandidateID); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// CallVote handles POST /api/v1/matches/:id/call-vote
func (s *Server) CallVote(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "player_id is required")
		return
	}
	if err := match.CallVote(req.PlayerID); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// Move handles POST /api/v1/matches/:id/move
func (s *Server) Move(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "player_id and location are required")
		return
	}
	if err := match.MoveTo(req.PlayerID, core.Location(req.Location)); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// CompleteTask handles POST /api/v1/matches/:id/tasks
func (s *Server) CompleteTask(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "player_id and task_id are required")
		return
	}
	if err := match.CompleteTask(req.PlayerID, req.TaskID); err != nil {
		Error(c, err)
		return
	}
	Success(c, nil)
}

// GetMatch handles GET /api/v1/matches/:id. The optional player_id query
// parameter scopes the snapshot to that player's view.
func (s *Server) GetMatch(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	Success(c, match.SnapshotFor(c.Query("player_id")))
}

// GetEvents handles GET /api/v1/matches/:id/events. Supports cursor reads
// via from_seq; the viewer is scoped by player_id.
func (s *Server) GetEvents(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	var fromSeq uint64
	if raw := c.Query("from_seq"); raw != "" {
		fromSeq, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			BadRequest(c, "from_seq must be a non-negative integer")
			return
		}
	}
	Success(c, match.EventsSince(c.Query("player_id"), fromSeq))
}
