package protocol

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/teslashibe/go-disktray/pkg/detection"
	"github.com/teslashibe/go-disktray/pkg/guidance"
)

var validate = validator.New()

// Validate checks a decoded payload against its validate tags
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewDetectionsMessage creates a detections message from raw records
func NewDetectionsMessage(frameID uint64, records []detection.Record) (*Message, error) {
	return NewMessage(TypeDetections, NewFrameData(frameID, records))
}

// NewSessionMessage creates a session message
func NewSessionMessage(id string, state guidance.State) (*Message, error) {
	return NewMessage(TypeSession, SessionData{ID: id, State: string(state)})
}

// NewInstructionMessage creates an instruction message
func NewInstructionMessage(inst guidance.Instruction, state guidance.State, frameID uint64) (*Message, error) {
	data := NewInstructionData(inst, state)
	data.FrameID = frameID
	return NewMessage(TypeInstruction, data)
}

// NewControlMessage creates a control message
func NewControlMessage(ctl guidance.Control) (*Message, error) {
	return NewMessage(TypeControl, NewControlData(ctl))
}

// NewErrorMessage creates an error message for a rejected frame
func NewErrorMessage(err error, frameID uint64) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Error: err.Error(), FrameID: frameID})
}

// NewTransitionMessage creates a transition message
func NewTransitionMessage(data TransitionData) (*Message, error) {
	return NewMessage(TypeTransition, data)
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Conversions
// =============================================================================

// NewFrameData wraps raw records for the wire
func NewFrameData(frameID uint64, records []detection.Record) FrameData {
	out := FrameData{FrameID: frameID, Detections: make([]RecordData, len(records))}
	for i, r := range records {
		r := r
		out.Detections[i] = RecordData{
			X1:         &r.X1,
			Y1:         &r.Y1,
			X2:         &r.X2,
			Y2:         &r.Y2,
			Confidence: &r.Confidence,
			Label:      &r.Label,
		}
	}
	return out
}

// Records validates the frame and converts it to detector records
func (f *FrameData) Records() ([]detection.Record, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}
	out := make([]detection.Record, len(f.Detections))
	for i, d := range f.Detections {
		out[i] = detection.Record{
			X1:         *d.X1,
			Y1:         *d.Y1,
			X2:         *d.X2,
			Y2:         *d.Y2,
			Confidence: *d.Confidence,
			Label:      *d.Label,
		}
	}
	return out, nil
}

// NewInstructionData converts an instruction for the wire
func NewInstructionData(inst guidance.Instruction, state guidance.State) InstructionData {
	return InstructionData{
		Status: string(inst.Status),
		Speech: inst.Speech,
		Image:  inst.Image,
		Video:  inst.Video,
		State:  string(state),
	}
}

// Instruction converts back to the guidance form
func (d InstructionData) Instruction() guidance.Instruction {
	return guidance.Instruction{
		Status: guidance.Status(d.Status),
		Speech: d.Speech,
		Image:  d.Image,
		Video:  d.Video,
	}
}

// NewControlData converts a control for the wire
func NewControlData(ctl guidance.Control) ControlData {
	return ControlData{Flashlight: ctl.Flashlight}
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSessionData extracts session data from a message
func (m *Message) GetSessionData() (*SessionData, error) {
	var data SessionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetInstructionData extracts instruction data from a message
func (m *Message) GetInstructionData() (*InstructionData, error) {
	var data InstructionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetControlData extracts control data from a message
func (m *Message) GetControlData() (*ControlData, error) {
	var data ControlData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetTransitionData extracts transition data from a message
func (m *Message) GetTransitionData() (*TransitionData, error) {
	var data TransitionData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
