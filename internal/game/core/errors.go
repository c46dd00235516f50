package core

import "fmt"

// ErrorKind groups errors by how the caller should react. Transports map
// kinds to status codes; the codes themselves are stable strings clients
// can switch on.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindConflict
	KindNotFound
	KindTerminal
	KindInternal
)

// Error is a domain error with a stable machine-readable code.
type Error struct {
	Kind ErrorKind
	Code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

// NewError builds a domain error. Prefer the package sentinels; use this
// only when the message needs runtime context.
func NewError(kind ErrorKind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, msg: fmt.Sprintf(format, args...)}
}

var (
	ErrLobbyNotFound     = &Error{Kind: KindNotFound, Code: "LOBBY_NOT_FOUND", msg: "lobby not found"}
	ErrPlayerNotFound    = &Error{Kind: KindNotFound, Code: "PLAYER_NOT_FOUND", msg: "player not found"}
	ErrLobbyFull         = &Error{Kind: KindConflict, Code: "LOBBY_FULL", msg: "lobby is full"}
	ErrNotHost           = &Error{Kind: KindConflict, Code: "NOT_HOST", msg: "only the host may do that"}
	ErrAlreadyStarted    = &Error{Kind: KindConflict, Code: "STATE_CONFLICT", msg: "match already started"}
	ErrInsufficientCount = &Error{Kind: KindValidation, Code: "INSUFFICIENT_PLAYERS", msg: "not enough players to start"}
	ErrInvalidAction     = &Error{Kind: KindValidation, Code: "INVALID_ACTION", msg: "role has no such night action"}
	ErrActionSubmitted   = &Error{Kind: KindConflict, Code: "ACTION_ALREADY_SUBMITTED", msg: "night action already submitted"}
	ErrPhaseMismatch     = &Error{Kind: KindConflict, Code: "PHASE_MISMATCH", msg: "operation not valid in current phase"}
	ErrVotingNotActive   = &Error{Kind: KindConflict, Code: "VOTING_NOT_ACTIVE", msg: "voting is not open"}
	ErrAlreadyVoted      = &Error{Kind: KindConflict, Code: "ALREADY_VOTED", msg: "vote already cast"}
	ErrPlayerDead        = &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", msg: "player is not alive"}
	ErrInvalidTarget     = &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", msg: "invalid target"}
	ErrGameEnded         = &Error{Kind: KindTerminal, Code: "TERMINAL_STATE", msg: "match has ended"}
)
