package server

import (
	"encoding/json"

	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/scheduler"
)

// Message is the envelope every WebSocket message shares.
type Message struct {
	Type string `json:"type"`
}

// FrameMessage carries one render to clients.
type FrameMessage struct {
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
	Text string `json:"text"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
	FPS  int    `json:"fps"`
}

func frameMessage(out scheduler.Output) FrameMessage {
	return FrameMessage{Type: TypeFrame, Seq: out.Seq, Text: out.Text, Cols: out.Cols, Rows: out.Rows, FPS: out.FPS}
}

// NoticeMessage relays a non-fatal source event.
type NoticeMessage struct {
	Type    string `json:"type"`
	Level   string `json:"level"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
}

// ParamsMessage announces the current parameters.
type ParamsMessage struct {
	Type   string        `json:"type"`
	Params params.Params `json:"params"`
}

// ParamsRequest is a client's parameter update.
type ParamsRequest struct {
	Type    string          `json:"type"`
	Params  json.RawMessage `json:"params"`
	TraceID string          `json:"traceId,omitempty"`
}

// CopiedMessage acknowledges a clipboard copy.
type CopiedMessage struct {
	Type  string `json:"type"`
	Bytes int    `json:"bytes"`
}

// ErrorMessage reports a rejected request.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
