package ws

import "encoding/json"

// FrameType represents the type of WebSocket frame.
type FrameType string

const (
	FrameTypeRequest  FrameType = "req"
	FrameTypeResponse FrameType = "res"
	FrameTypeEvent    FrameType = "event"
)

// Method represents a WebSocket request method.
type Method string

const (
	MethodSwitchMode Method = "switch_mode"
	MethodGetState   Method = "get_state"
)

// Frame is the WebSocket protocol envelope.
type Frame struct {
	Type    FrameType       `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
}

// SwitchModeParams are the parameters of a switch_mode request.
type SwitchModeParams struct {
	Mode string `json:"mode"`
}

// NewEventFrame builds an event frame from a payload value.
func NewEventFrame(event string, payload any) (*Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Frame{Type: FrameTypeEvent, Event: event, Payload: data}, nil
}

// NewResponseFrame builds a response frame for a request ID.
func NewResponseFrame(id string, ok bool, payload any, errMsg string) (*Frame, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return &Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Payload: data, Error: errMsg}, nil
}

// MarshalFrame encodes a frame for the wire.
func MarshalFrame(f *Frame) ([]byte, error) {
	return json.Marshal(f)
}

// ParseFrame decodes a frame from the wire.
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
