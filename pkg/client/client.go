// Package client connects a detector to the guidance server over
// WebSocket and exchanges frames for instructions.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-disktray/pkg/detection"
	"github.com/teslashibe/go-disktray/pkg/guidance"
	"github.com/teslashibe/go-disktray/pkg/protocol"
)

// ErrRejected is returned when the server refuses a frame
var ErrRejected = errors.New("client: frame rejected")

// Guidance is the server's answer to one frame
type Guidance struct {
	FrameID     uint64
	State       guidance.State
	Instruction guidance.Instruction
	Control     guidance.Control
}

// Client is one detector connection bound to one server session
type Client struct {
	ws        *websocket.Conn
	wsMu      sync.Mutex
	sessionID string
	state     guidance.State
}

// Dial connects to the /ws/session endpoint and waits for the session id
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to guidance server: %w", err)
	}

	c := &Client{ws: ws}
	msg, err := c.Recv()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("read session: %w", err)
	}
	if msg.Type != protocol.TypeSession {
		ws.Close()
		return nil, fmt.Errorf("expected session message, got %q", msg.Type)
	}
	data, err := msg.GetSessionData()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("parse session: %w", err)
	}
	c.sessionID = data.ID
	c.state = guidance.State(data.State)
	return c, nil
}

// SessionID returns the server-side session bound to this connection
func (c *Client) SessionID() string {
	return c.sessionID
}

// Send writes one frame of detections
func (c *Client) Send(frameID uint64, records []detection.Record) error {
	msg, err := protocol.NewDetectionsMessage(frameID, records)
	if err != nil {
		return err
	}
	return c.write(msg)
}

// Ping writes a health check
func (c *Client) Ping(id string) error {
	msg, err := protocol.NewPingMessage(id)
	if err != nil {
		return err
	}
	return c.write(msg)
}

// Recv reads the next message from the server
func (c *Client) Recv() (*protocol.Message, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return protocol.ParseMessage(data)
}

// Exchange sends one frame and reads until its instruction arrives.
// A control directive, when present, precedes the instruction.
func (c *Client) Exchange(frameID uint64, records []detection.Record) (Guidance, error) {
	if err := c.Send(frameID, records); err != nil {
		return Guidance{}, err
	}

	out := Guidance{FrameID: frameID}
	for {
		msg, err := c.Recv()
		if err != nil {
			return Guidance{}, err
		}
		switch msg.Type {
		case protocol.TypeControl:
			ctl, err := msg.GetControlData()
			if err != nil {
				return Guidance{}, err
			}
			out.Control = guidance.Control{Flashlight: ctl.Flashlight}
		case protocol.TypeInstruction:
			inst, err := msg.GetInstructionData()
			if err != nil {
				return Guidance{}, err
			}
			out.Instruction = inst.Instruction()
			out.State = guidance.State(inst.State)
			c.state = out.State
			return out, nil
		case protocol.TypeError:
			e, err := msg.GetErrorData()
			if err != nil {
				return Guidance{}, err
			}
			return Guidance{}, fmt.Errorf("%w: %s", ErrRejected, e.Error)
		}
	}
}

// Frame is one batch of detector records bound for the server
type Frame struct {
	ID      uint64
	Records []detection.Record
}

// Stream exchanges frames until ctx is done or frames is closed. A frame
// the server rejects is passed to onReject and skipped; any other error
// ends the stream. Either callback may be nil.
func (c *Client) Stream(ctx context.Context, frames <-chan Frame, onGuidance func(Guidance), onReject func(Frame, error)) error {
	for {
		var f Frame
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next, ok := <-frames:
			if !ok {
				return nil
			}
			f = next
		}

		g, err := c.Exchange(f.ID, f.Records)
		switch {
		case errors.Is(err, ErrRejected):
			if onReject != nil {
				onReject(f, err)
			}
		case err != nil:
			return err
		case onGuidance != nil:
			onGuidance(g)
		}
	}
}

// State returns the last state the server reported
func (c *Client) State() guidance.State {
	return c.state
}

// Close sends a close frame and closes the connection
func (c *Client) Close() error {
	c.wsMu.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wsMu.Unlock()
	return c.ws.Close()
}

func (c *Client) write(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}
