package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-disktray/pkg/hub"
	"github.com/teslashibe/go-disktray/pkg/protocol"
	"github.com/teslashibe/go-disktray/pkg/session"
)

// StatusResponse summarizes the engine
type StatusResponse struct {
	Labels   []string `json:"labels"`
	Sessions int      `json:"sessions"`
	Watchers int      `json:"watchers"`
	Uptime   string   `json:"uptime"`
}

// FrameResponse is the answer to one posted frame
type FrameResponse struct {
	Instruction protocol.InstructionData `json:"instruction"`
	Control     *protocol.ControlData    `json:"control,omitempty"`
}

// errorStatus maps an error to an HTTP status
func errorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrMalformedFrame), errors.Is(err, errBadPayload):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

var errBadPayload = errors.New("bad payload")

func fail(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"status": "error",
		"error":  err.Error(),
	})
}

// handleStatus returns the engine summary
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Labels:   s.sessions.Labels(),
		Sessions: s.sessions.Len(),
		Watchers: s.events.ClientCount(),
		Uptime:   time.Since(s.started).Round(time.Second).String(),
	})
}

// handleListSessions returns every session snapshot
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	return c.JSON(s.sessions.List())
}

// handleCreateSession opens a new assembly attempt
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Create()
	if err != nil {
		return fail(c, err)
	}
	s.logger.Info("session created", "session", sess.ID())
	return c.Status(fiber.StatusCreated).JSON(sess.Snapshot())
}

// handleGetSession returns one session snapshot
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sess.Snapshot())
}

// handleDeleteSession drops a session
func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.sessions.Delete(c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleResetSession restarts a session's procedure
func (s *Server) handleResetSession(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	sess.Reset()
	return c.JSON(sess.Snapshot())
}

// handleFrame runs one frame of detections through a session
func (s *Server) handleFrame(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}

	var frame protocol.FrameData
	if err := c.BodyParser(&frame); err != nil {
		return fail(c, errors.Join(errBadPayload, err))
	}
	records, err := frame.Records()
	if err != nil {
		return fail(c, errors.Join(errBadPayload, err))
	}

	res, err := sess.Process(records)
	if err != nil {
		s.logger.Warn("frame rejected", "session", sess.ID(), "frame", frame.FrameID, "error", err)
		return fail(c, err)
	}

	resp := FrameResponse{Instruction: protocol.NewInstructionData(res.Instruction, res.State)}
	resp.Instruction.FrameID = frame.FrameID
	if !res.Control.IsZero() {
		ctl := protocol.NewControlData(res.Control)
		resp.Control = &ctl
	}
	return c.JSON(resp)
}

// handleSessionWS binds one session to the connection for its lifetime
func (s *Server) handleSessionWS(c *websocket.Conn) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.logger.Error("create session", "error", err)
		s.writeMessage(c, mustMessage(protocol.NewErrorMessage(err, 0)))
		c.Close()
		return
	}
	logger := s.logger.With("session", sess.ID())
	logger.Info("detector connected")

	defer func() {
		s.sessions.Delete(sess.ID())
		c.Close()
		logger.Info("detector disconnected")
	}()

	if !s.writeMessage(c, mustMessage(protocol.NewSessionMessage(sess.ID(), sess.Snapshot().State))) {
		return
	}

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(raw)
		if err != nil {
			if !s.writeMessage(c, mustMessage(protocol.NewErrorMessage(err, 0))) {
				return
			}
			continue
		}

		var replies []*protocol.Message
		switch msg.Type {
		case protocol.TypePing:
			replies = s.pong(msg)
		case protocol.TypeDetections:
			replies = s.frame(sess, msg)
		default:
			replies = []*protocol.Message{mustMessage(protocol.NewErrorMessage(errors.New("unknown message type "+string(msg.Type)), 0))}
		}
		for _, r := range replies {
			if !s.writeMessage(c, r) {
				return
			}
		}
	}
}

// frame answers one detections message
func (s *Server) frame(sess *session.Session, msg *protocol.Message) []*protocol.Message {
	frame, err := msg.GetFrameData()
	if err != nil {
		return []*protocol.Message{mustMessage(protocol.NewErrorMessage(err, 0))}
	}
	records, err := frame.Records()
	if err != nil {
		return []*protocol.Message{mustMessage(protocol.NewErrorMessage(err, frame.FrameID))}
	}
	res, err := sess.Process(records)
	if err != nil {
		s.logger.Warn("frame rejected", "session", sess.ID(), "frame", frame.FrameID, "error", err)
		return []*protocol.Message{mustMessage(protocol.NewErrorMessage(err, frame.FrameID))}
	}

	// control goes first so the instruction closes the reply
	var out []*protocol.Message
	if !res.Control.IsZero() {
		out = append(out, mustMessage(protocol.NewControlMessage(res.Control)))
	}
	return append(out, mustMessage(protocol.NewInstructionMessage(res.Instruction, res.State, frame.FrameID)))
}

// pong answers a ping
func (s *Server) pong(msg *protocol.Message) []*protocol.Message {
	ping, err := msg.GetPingData()
	if err != nil {
		return []*protocol.Message{mustMessage(protocol.NewErrorMessage(err, 0))}
	}
	return []*protocol.Message{mustMessage(protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli()))}
}

// handleEventsWS streams session transitions
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.events, c)
	client.Run() // Blocks until disconnect
}

// writeMessage sends one message, reporting whether the connection is usable
func (s *Server) writeMessage(c *websocket.Conn, msg *protocol.Message) bool {
	data, err := msg.Bytes()
	if err != nil {
		s.logger.Warn("encode message", "type", msg.Type, "error", err)
		return true
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		return false
	}
	return true
}

// mustMessage unwraps a constructor for payloads that always encode
func mustMessage(msg *protocol.Message, err error) *protocol.Message {
	if err != nil {
		panic(err)
	}
	return msg
}
