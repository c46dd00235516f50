package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mafiacore/internal/game/events"
)

const streamBufferSize = 64

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamSubscriber forwards match events to a websocket client. Events are
// handed off through a buffered channel so the publishing goroutine never
// blocks on a slow connection; a client that cannot keep up is dropped.
// HandleEvent runs while the match lock is held, so envelopes are enqueued
// raw and scoped to the viewer on the reader side.
type streamSubscriber struct {
	id       string
	ch       chan events.Envelope
	overflow chan struct{}
}

func newStreamSubscriber() *streamSubscriber {
	return &streamSubscriber{
		id:       "stream-" + uuid.New().String(),
		ch:       make(chan events.Envelope, streamBufferSize),
		overflow: make(chan struct{}, 1),
	}
}

func (s *streamSubscriber) ID() string { return s.id }

func (s *streamSubscriber) InterestedIn(kind string) bool { return true }

func (s *streamSubscriber) HandleEvent(env events.Envelope) {
	select {
	case s.ch <- env:
	default:
		select {
		case s.overflow <- struct{}{}:
		default:
		}
	}
}

// Stream handles GET /api/v1/matches/:id/stream. It upgrades the connection
// to a websocket, replays the event log from from_seq, then pushes live
// events scoped to the player_id view.
func (s *Server) Stream(c *gin.Context) {
	match, err := s.manager.GetMatch(c.Param("id"))
	if err != nil {
		Error(c, err)
		return
	}
	viewerID := c.Query("player_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := newStreamSubscriber()
	match.Log().Subscribe(sub)
	defer match.Log().Unsubscribe(sub.ID())

	// Serialize writes to the connection (required by gorilla/websocket).
	var writeMu sync.Mutex
	send := func(env events.Envelope) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(env)
	}

	// Replay history before switching to live delivery. Live events that
	// arrived during replay sit in the buffer; duplicates are filtered by
	// sequence number.
	lastSeq := uint64(0)
	for _, env := range match.EventsSince(viewerID, 0) {
		if err := send(env); err != nil {
			return
		}
		lastSeq = env.Seq
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain the read side to detect disconnects; clients do not send.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log := s.logger.With().
		Str("match_id", match.ID).
		Str("viewer_id", viewerID).
		Logger()
	log.Debug().Msg("Stream opened")

	for {
		select {
		case env := <-sub.ch:
			if env.Seq <= lastSeq {
				continue
			}
			env = env.For(match.ViewFor(viewerID))
			if err := send(env); err != nil {
				log.Debug().Err(err).Msg("Stream write failed")
				return
			}
			lastSeq = env.Seq
		case <-sub.overflow:
			log.Warn().Msg("Stream client fell behind, closing")
			writeMu.Lock()
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "event buffer overflow"),
				closeDeadline())
			writeMu.Unlock()
			return
		case <-done:
			log.Debug().Msg("Stream closed by client")
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
