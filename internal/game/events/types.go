package events

import (
	"time"

	"github.com/google/uuid"
)

// Role group scopes used by private fragments. GroupAudit fragments carry
// orchestration metadata for backend consumers and never match a player view.
const (
	GroupMafia = "mafia"
	GroupAudit = "audit"
)

// Visibility scopes one private fragment. Exactly one field is set.
type Visibility struct {
	PlayerID  string `json:"player_id,omitempty"`
	RoleGroup string `json:"role_group,omitempty"`
}

// Fragment is a privately scoped slice of an event's payload.
type Fragment struct {
	Scope   Visibility             `json:"scope"`
	Payload map[string]interface{} `json:"payload"`
}

// Envelope is one immutable entry in a match's event log. Seq is assigned
// by the log at publish time and is dense and strictly increasing per match.
type Envelope struct {
	ID      uuid.UUID              `json:"id"`
	Seq     uint64                 `json:"seq"`
	Kind    string                 `json:"kind"`
	MatchID string                 `json:"match_id"`
	Time    time.Time              `json:"time"`
	Public  map[string]interface{} `json:"public,omitempty"`
	Private []Fragment             `json:"private,omitempty"`
}

// Draft is an event before the log assigns its identity. Constructors in
// this package build drafts; Log.Publish seals them.
type Draft struct {
	Kind    string
	Public  map[string]interface{}
	Private []Fragment
}

// View identifies who is looking at the log. The zero value sees only
// public payloads; Omniscient views (backend consumers) see everything.
type View struct {
	PlayerID   string
	Groups     []string
	Omniscient bool
}

// Visible reports whether the fragment's scope matches this view.
func (v View) Visible(f Fragment) bool {
	if v.Omniscient {
		return true
	}
	if f.Scope.PlayerID != "" {
		return f.Scope.PlayerID == v.PlayerID
	}
	if f.Scope.RoleGroup != "" {
		if f.Scope.RoleGroup == GroupAudit {
			return false
		}
		for _, g := range v.Groups {
			if g == f.Scope.RoleGroup {
				return true
			}
		}
	}
	return false
}

// For returns a copy of the envelope with private fragments the view may
// not see stripped out. The original is never mutated.
func (e Envelope) For(v View) Envelope {
	if len(e.Private) == 0 {
		return e
	}
	out := e
	out.Private = nil
	for _, f := range e.Private {
		if v.Visible(f) {
			out.Private = append(out.Private, f)
		}
	}
	return out
}

// Subscriber receives every envelope published to a log, in order.
type Subscriber interface {
	// ID returns a unique identifier for this subscriber
	ID() string
	// HandleEvent processes an envelope
	HandleEvent(Envelope)
	// InterestedIn returns true if the subscriber wants this event kind
	InterestedIn(kind string) bool
}

// Handler is a function form of Subscriber for single-kind listeners.
type Handler func(Envelope)
